package service

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/vitrine/identity/internal/identity/domain"
	"github.com/vitrine/identity/internal/identity/store"
	"github.com/vitrine/identity/pkg/idx"
	"github.com/vitrine/identity/pkg/jwtx"
)

var ErrSessionInvalid = errors.New("session_invalid")

// SessionService issues and revokes bearer sessions. A session is one row
// plus a JWT carrying the row ID; the token, user record and role always
// travel together in a SessionGrant.
type SessionService struct {
	Store      store.Store
	Signer     *jwtx.Signer
	SessionTTL time.Duration
}

// SessionGrant is the unit handed to clients after full authentication:
// never the token without the record or vice versa.
type SessionGrant struct {
	Token string
	User  domain.Profile
	Role  domain.Role
}

// Issue creates a session for the user. The row is persisted before the
// token leaves this function; a persistence failure returns an error and no
// grant.
func (s *SessionService) Issue(ctx context.Context, user domain.User) (SessionGrant, error) {
	now := time.Now()
	session := domain.Session{
		ID:        idx.New().String(),
		UserID:    user.ID,
		Role:      user.Role,
		ExpiresAt: now.Add(s.SessionTTL),
	}

	token, err := s.Signer.Sign(jwtx.Claims{
		Subject:   user.ID,
		Role:      string(user.Role),
		SessionID: session.ID,
		IssuedAt:  now,
		ExpiresAt: session.ExpiresAt,
	})
	if err != nil {
		return SessionGrant{}, fmt.Errorf("sign session token: %w", err)
	}

	if err := s.Store.Sessions().CreateSession(ctx, session); err != nil {
		return SessionGrant{}, fmt.Errorf("persist session: %w", err)
	}

	return SessionGrant{
		Token: token,
		User:  user.Profile(),
		Role:  user.Role,
	}, nil
}

// Current resolves the session row behind a verified bearer token and loads
// the user record. A revoked or expired row means the token no longer grants
// anything, regardless of the JWT's own expiry.
func (s *SessionService) Current(ctx context.Context, sessionID string) (domain.Session, domain.User, error) {
	session, err := s.Store.Sessions().GetSessionByID(ctx, sessionID)
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			return domain.Session{}, domain.User{}, ErrSessionInvalid
		}
		return domain.Session{}, domain.User{}, err
	}
	if time.Now().After(session.ExpiresAt) {
		return domain.Session{}, domain.User{}, ErrSessionInvalid
	}

	user, err := s.Store.Users().GetUserByID(ctx, session.UserID)
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			return domain.Session{}, domain.User{}, ErrSessionInvalid
		}
		return domain.Session{}, domain.User{}, err
	}
	return session, user, nil
}

// Revoke destroys one session (logout). Revoking an already-gone session is
// not an error.
func (s *SessionService) Revoke(ctx context.Context, sessionID string) error {
	return s.Store.Sessions().DeleteSession(ctx, sessionID)
}
