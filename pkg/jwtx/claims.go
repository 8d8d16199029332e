package jwtx

import (
	"time"

	"github.com/golang-jwt/jwt/v5"
)

// Default token lifetimes.
const (
	DefaultSessionTokenTTL = 30 * 24 * time.Hour
)

// Claims are the application-level claims carried in a session token.
type Claims struct {
	Subject   string // user ID
	Role      string // customer, vendor, admin
	SessionID string // stored session row the token is bound to
	Issuer    string
	IssuedAt  time.Time
	ExpiresAt time.Time
}

// wireClaims is the golang-jwt representation used on the wire.
type wireClaims struct {
	Role      string `json:"role,omitempty"`
	SessionID string `json:"sid,omitempty"`
	jwt.RegisteredClaims
}

func (c Claims) wire() wireClaims {
	return wireClaims{
		Role:      c.Role,
		SessionID: c.SessionID,
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   c.Subject,
			Issuer:    c.Issuer,
			IssuedAt:  jwt.NewNumericDate(c.IssuedAt),
			ExpiresAt: jwt.NewNumericDate(c.ExpiresAt),
		},
	}
}

func fromWire(w wireClaims) Claims {
	c := Claims{
		Subject:   w.Subject,
		Role:      w.Role,
		SessionID: w.SessionID,
		Issuer:    w.Issuer,
	}
	if w.IssuedAt != nil {
		c.IssuedAt = w.IssuedAt.Time
	}
	if w.ExpiresAt != nil {
		c.ExpiresAt = w.ExpiresAt.Time
	}
	return c
}
