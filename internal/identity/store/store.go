package store

import (
	"context"
	"errors"

	"github.com/vitrine/identity/internal/identity/domain"
)

var (
	ErrNotFound      = errors.New("store: not found")
	ErrAlreadyExists = errors.New("store: already exists")
)

// Store is the root data access interface. Concrete drivers (sqlite today)
// implement this. Sub-repositories keep concerns tidy and let services take
// only what they need.
type Store interface {
	Users() Users
	Challenges() Challenges
	TempTokens() TempTokens
	Sessions() Sessions

	ApplyMigrations() error

	// Tx starts a read/write transaction and returns a Tx-scoped Store.
	// The caller MUST call Commit() or Rollback() on the returned Tx.
	Tx(ctx context.Context) (Tx, error)

	// WithTx executes fn within a transaction, rolling back if fn returns
	// an error and committing otherwise. Preferred over Tx directly.
	WithTx(ctx context.Context, fn func(tx Tx) error) error

	// Close releases underlying resources.
	Close() error

	// Ping verifies the database connection is still alive.
	Ping(ctx context.Context) error
}

// Tx is a transactional store. It embeds the same repos plus Commit/Rollback.
type Tx interface {
	Store
	Commit() error
	Rollback() error
}

type Users interface {
	// GetUserByID returns a user by id.
	GetUserByID(ctx context.Context, id string) (domain.User, error)

	// GetUserByIdentifier looks a user up by email or mobile value,
	// depending on the channel.
	GetUserByIdentifier(ctx context.Context, channel domain.Channel, value string) (domain.User, error)

	// CreateUser inserts a new user (id is provided by the app via ULID).
	// Returns ErrAlreadyExists when the email or mobile is taken.
	CreateUser(ctx context.Context, u domain.User) error

	// UpdatePasswordHash sets the password hash and bumps updated_at.
	UpdatePasswordHash(ctx context.Context, userID string, newHash string) error

	// UpdateSecondFactor sets the second-factor kind and TOTP secret.
	UpdateSecondFactor(ctx context.Context, userID string, kind domain.SecondFactorKind, totpSecret *string) error
}

type Challenges interface {
	// ReplaceChallenge atomically removes any existing challenge for the
	// same channel+target and inserts c, keeping the single-active-challenge
	// invariant inside the database.
	ReplaceChallenge(ctx context.Context, c domain.Challenge) error

	// GetChallenge returns the active challenge for a channel+target pair.
	GetChallenge(ctx context.Context, channel domain.Channel, target string) (domain.Challenge, error)

	// DecrementChallengeAttempts burns one verification attempt and
	// returns the updated row.
	DecrementChallengeAttempts(ctx context.Context, id string) (domain.Challenge, error)

	// DeleteChallenge removes a challenge (successful verification or
	// explicit cancellation).
	DeleteChallenge(ctx context.Context, id string) error

	// DeleteExpiredChallenges is housekeeping.
	DeleteExpiredChallenges(ctx context.Context) error
}

type TempTokens interface {
	// CreateTempToken stores a freshly minted temporary token.
	CreateTempToken(ctx context.Context, t domain.TemporaryToken) error

	// GetTempTokenByHash fetches a token by fingerprint when spending it.
	GetTempTokenByHash(ctx context.Context, hash string) (domain.TemporaryToken, error)

	// DeleteTempToken removes a spent or abandoned token.
	DeleteTempToken(ctx context.Context, id string) error

	// DeleteExpiredTempTokens is housekeeping.
	DeleteExpiredTempTokens(ctx context.Context) error
}

type Sessions interface {
	// CreateSession persists a new session row.
	CreateSession(ctx context.Context, s domain.Session) error

	// GetSessionByID returns a session row; revoked sessions are deleted
	// so a missing row means the bearer token is no longer valid.
	GetSessionByID(ctx context.Context, id string) (domain.Session, error)

	// DeleteSession revokes one session (logout).
	DeleteSession(ctx context.Context, id string) error

	// DeleteUserSessions revokes every session for a user (password reset).
	DeleteUserSessions(ctx context.Context, userID string) error

	// DeleteExpiredSessions is housekeeping.
	DeleteExpiredSessions(ctx context.Context) error
}
