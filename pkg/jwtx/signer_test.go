package jwtx

import (
	"crypto/ed25519"
	"crypto/rand"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

func newKeyPair(t *testing.T) (ed25519.PublicKey, ed25519.PrivateKey) {
	t.Helper()
	pub, priv, err := ed25519.GenerateKey(rand.Reader)
	require.NoError(t, err)
	return pub, priv
}

func TestSignAndVerify(t *testing.T) {
	t.Parallel()

	pub, priv := newKeyPair(t)
	signer := NewSigner(priv, "vitrine-identity")
	verifier := NewVerifier(pub, "vitrine-identity")

	now := time.Now()
	raw, err := signer.Sign(Claims{
		Subject:   "01J0USER",
		Role:      "customer",
		SessionID: "01J0SESS",
		IssuedAt:  now,
		ExpiresAt: now.Add(time.Hour),
	})
	require.NoError(t, err)

	claims, err := verifier.Verify(raw)
	require.NoError(t, err)
	require.Equal(t, "01J0USER", claims.Subject)
	require.Equal(t, "customer", claims.Role)
	require.Equal(t, "01J0SESS", claims.SessionID)
	require.Equal(t, "vitrine-identity", claims.Issuer)
}

func TestVerifyRejectsExpired(t *testing.T) {
	t.Parallel()

	pub, priv := newKeyPair(t)
	signer := NewSigner(priv, "vitrine-identity")
	verifier := NewVerifier(pub, "vitrine-identity")

	raw, err := signer.Sign(Claims{
		Subject:   "u",
		IssuedAt:  time.Now().Add(-2 * time.Hour),
		ExpiresAt: time.Now().Add(-time.Hour),
	})
	require.NoError(t, err)

	_, err = verifier.Verify(raw)
	require.ErrorIs(t, err, ErrTokenExpired)
}

func TestVerifyRejectsWrongKeyAndIssuer(t *testing.T) {
	t.Parallel()

	_, priv := newKeyPair(t)
	otherPub, _ := newKeyPair(t)

	signer := NewSigner(priv, "vitrine-identity")
	raw, err := signer.Sign(Claims{Subject: "u", ExpiresAt: time.Now().Add(time.Hour)})
	require.NoError(t, err)

	_, err = NewVerifier(otherPub, "vitrine-identity").Verify(raw)
	require.ErrorIs(t, err, ErrInvalidToken)

	pub2, priv2 := newKeyPair(t)
	raw2, err := NewSigner(priv2, "someone-else").Sign(Claims{Subject: "u", ExpiresAt: time.Now().Add(time.Hour)})
	require.NoError(t, err)
	_, err = NewVerifier(pub2, "vitrine-identity").Verify(raw2)
	require.ErrorIs(t, err, ErrInvalidToken)
}
