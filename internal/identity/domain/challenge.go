package domain

import "time"

// Channel names the transport a challenge is proven over.
type Channel string

const (
	ChannelEmail  Channel = "email"
	ChannelMobile Channel = "mobile"
	// ChannelAuthenticator is the TOTP second-factor variant. Nothing is
	// dispatched for it and resend does not apply.
	ChannelAuthenticator Channel = "authenticator"
)

// ChannelForKind maps a classified identifier kind to its OTP channel.
func ChannelForKind(kind IdentifierKind) (Channel, bool) {
	switch kind {
	case KindEmail:
		return ChannelEmail, true
	case KindMobile:
		return ChannelMobile, true
	default:
		return "", false
	}
}

// Challenge is one outstanding proof-of-possession request. At most one
// active challenge exists per channel+target; issuing a new one supersedes
// the old row. Rows are deleted on successful verification, so a replayed
// code finds nothing to match.
type Challenge struct {
	ID       string
	Channel  Channel
	Target   string // classified identifier value the code was sent to
	UserID   string // set only for second-factor challenges
	CodeHash string // fingerprint of the dispatched code, empty for authenticator
	Attempts int    // remaining verification attempts

	IssuedAt  time.Time
	ResendAt  time.Time // before this, another request is rate limited
	ExpiresAt time.Time

	CreatedAt time.Time
}

// Expired reports whether the challenge can no longer be verified.
func (c Challenge) Expired(now time.Time) bool {
	return now.After(c.ExpiresAt)
}

// ResendAllowed reports whether the cooldown window has elapsed.
func (c Challenge) ResendAllowed(now time.Time) bool {
	return !now.Before(c.ResendAt)
}
