package app

import (
	"crypto/ed25519"
	"crypto/rand"
	"encoding/base64"
	"fmt"
	"os"
	"path/filepath"
)

// loadOrGenerateSigningKey returns the Ed25519 session signing key, creating
// and persisting a fresh one on first boot. Rotating the key invalidates
// every outstanding session token.
func loadOrGenerateSigningKey(path string) (ed25519.PrivateKey, error) {
	path = filepath.Clean(path)
	if err := os.MkdirAll(filepath.Dir(path), 0750); err != nil {
		return nil, err
	}

	raw, err := os.ReadFile(path)
	if os.IsNotExist(err) {
		_, priv, genErr := ed25519.GenerateKey(rand.Reader)
		if genErr != nil {
			return nil, genErr
		}
		encoded := base64.RawURLEncoding.EncodeToString(priv.Seed())
		if writeErr := os.WriteFile(path, []byte(encoded), 0600); writeErr != nil {
			return nil, writeErr
		}
		return priv, nil
	}
	if err != nil {
		return nil, err
	}

	seed, err := base64.RawURLEncoding.DecodeString(string(raw))
	if err != nil {
		return nil, fmt.Errorf("decode signing key %s: %w", path, err)
	}
	if len(seed) != ed25519.SeedSize {
		return nil, fmt.Errorf("signing key %s: want %d byte seed, got %d", path, ed25519.SeedSize, len(seed))
	}

	return ed25519.NewKeyFromSeed(seed), nil
}
