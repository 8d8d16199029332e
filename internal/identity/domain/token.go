package domain

import "time"

// TempTokenPurpose scopes what a temporary token may be spent on.
type TempTokenPurpose string

const (
	// PurposeVerification marks a token proving channel ownership. It is
	// presented to register as a VerificationProof, or to reset-password
	// to chain the flow.
	PurposeVerification TempTokenPurpose = "verification"
)

// TemporaryToken is a short-lived, single-use token minted after a sensitive
// step (OTP verification). It binds the proven channel and identifier so the
// next step can check the chain was not skipped. Rows are deleted when spent.
type TemporaryToken struct {
	ID         string
	TokenHash  string
	Purpose    TempTokenPurpose
	Channel    Channel
	Identifier string // exact identifier value the proof is bound to
	ExpiresAt  time.Time
	CreatedAt  time.Time
}

// Expired reports whether the token can no longer be spent.
func (t TemporaryToken) Expired(now time.Time) bool {
	return now.After(t.ExpiresAt)
}

// Session is the server-side record backing a bearer SessionToken. The JWT
// carries the row ID; revoking the row invalidates the token regardless of
// its expiry.
type Session struct {
	ID        string
	UserID    string
	Role      Role
	ExpiresAt time.Time
	CreatedAt time.Time
}
