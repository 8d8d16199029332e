package domain

import (
	"strings"
	"time"
)

// Role is the storefront surface a user belongs to.
type Role string

const (
	RoleCustomer Role = "customer"
	RoleVendor   Role = "vendor"
	RoleAdmin    Role = "admin"
)

// ParseRole maps a wire role string to a Role, defaulting to customer.
func ParseRole(s string) Role {
	switch Role(strings.ToLower(strings.TrimSpace(s))) {
	case RoleVendor:
		return RoleVendor
	case RoleAdmin:
		return RoleAdmin
	default:
		return RoleCustomer
	}
}

// SecondFactorKind selects the user's second-factor variant, if any.
type SecondFactorKind string

const (
	SecondFactorNone SecondFactorKind = ""
	// SecondFactorOTP dispatches a one-time code over the user's mobile
	// channel on login.
	SecondFactorOTP SecondFactorKind = "otp"
	// SecondFactorAuthenticator validates a TOTP code from an enrolled
	// authenticator app. No dispatch, no resend.
	SecondFactorAuthenticator SecondFactorKind = "authenticator"
)

type User struct {
	ID           string
	FirstName    string
	LastName     string
	Email        string // optional, empty when the user registered mobile-only
	Mobile       string
	PasswordHash string // argon2 encoded
	Role         Role
	ReferralCode string

	SecondFactor SecondFactorKind
	TOTPSecret   *string // base32 secret, set when SecondFactor is authenticator

	CreatedAt time.Time
	UpdatedAt time.Time
}

// Profile is the user record shape returned to clients and persisted by the
// session establisher. It never carries credential material.
type Profile struct {
	ID        string `json:"id"`
	FirstName string `json:"first_name"`
	LastName  string `json:"last_name"`
	Email     string `json:"email,omitempty"`
	Mobile    string `json:"mobile"`
	Role      Role   `json:"role"`
}

// Profile projects the user into its client-facing shape.
func (u User) Profile() Profile {
	return Profile{
		ID:        u.ID,
		FirstName: u.FirstName,
		LastName:  u.LastName,
		Email:     u.Email,
		Mobile:    u.Mobile,
		Role:      u.Role,
	}
}

// IdentifierFor returns the user's identifier value for a channel.
func (u User) IdentifierFor(ch Channel) string {
	switch ch {
	case ChannelEmail:
		return u.Email
	case ChannelMobile:
		return u.Mobile
	default:
		return ""
	}
}
