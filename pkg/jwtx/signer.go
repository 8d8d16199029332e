package jwtx

import (
	"crypto/ed25519"
	"errors"
	"fmt"

	"github.com/golang-jwt/jwt/v5"
)

var (
	ErrInvalidToken = errors.New("jwtx: invalid token")
	ErrTokenExpired = errors.New("jwtx: token expired")
)

// Signer mints EdDSA-signed session tokens.
type Signer struct {
	key    ed25519.PrivateKey
	issuer string
}

func NewSigner(key ed25519.PrivateKey, issuer string) *Signer {
	return &Signer{key: key, issuer: issuer}
}

// Sign produces a compact JWT for the given claims. The signer's issuer
// overrides whatever the caller set.
func (s *Signer) Sign(c Claims) (string, error) {
	c.Issuer = s.issuer
	tok := jwt.NewWithClaims(jwt.SigningMethodEdDSA, c.wire())
	signed, err := tok.SignedString(s.key)
	if err != nil {
		return "", fmt.Errorf("jwtx: signing failed: %w", err)
	}
	return signed, nil
}

// Verifier validates tokens minted by a Signer with the matching public key.
type Verifier struct {
	key    ed25519.PublicKey
	issuer string
}

func NewVerifier(key ed25519.PublicKey, issuer string) *Verifier {
	return &Verifier{key: key, issuer: issuer}
}

// Verify parses and validates raw, checking signature, expiry and issuer.
func (v *Verifier) Verify(raw string) (Claims, error) {
	var w wireClaims
	_, err := jwt.ParseWithClaims(raw, &w,
		func(t *jwt.Token) (any, error) { return v.key, nil },
		jwt.WithValidMethods([]string{jwt.SigningMethodEdDSA.Alg()}),
		jwt.WithIssuer(v.issuer),
		jwt.WithExpirationRequired(),
	)
	if err != nil {
		if errors.Is(err, jwt.ErrTokenExpired) {
			return Claims{}, ErrTokenExpired
		}
		return Claims{}, fmt.Errorf("%w: %w", ErrInvalidToken, err)
	}
	return fromWire(w), nil
}
