package sqlite

import (
	"context"
	"database/sql"
	"time"

	"github.com/vitrine/identity/internal/identity/domain"
)

type challengesRepo struct {
	q dbtx
}

const challengeColumns = `id, channel, target, user_id, code_hash, attempts,
	issued_at, resend_at, expires_at, created_at`

func (r *challengesRepo) ReplaceChallenge(ctx context.Context, c domain.Challenge) error {
	// The UNIQUE(channel, target) index makes this a single atomic
	// supersede: a new code for the same pair overwrites the old row.
	_, err := r.q.ExecContext(ctx, `
		INSERT INTO challenges (id, channel, target, user_id, code_hash,
			attempts, issued_at, resend_at, expires_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)
		ON CONFLICT (channel, target) DO UPDATE SET
			id = excluded.id,
			user_id = excluded.user_id,
			code_hash = excluded.code_hash,
			attempts = excluded.attempts,
			issued_at = excluded.issued_at,
			resend_at = excluded.resend_at,
			expires_at = excluded.expires_at,
			created_at = CURRENT_TIMESTAMP`,
		c.ID, string(c.Channel), c.Target, c.UserID, c.CodeHash,
		c.Attempts, utc(c.IssuedAt), utc(c.ResendAt), utc(c.ExpiresAt),
	)
	return err
}

func (r *challengesRepo) GetChallenge(ctx context.Context, channel domain.Channel, target string) (domain.Challenge, error) {
	row := r.q.QueryRowContext(ctx,
		`SELECT `+challengeColumns+` FROM challenges WHERE channel = ? AND target = ?`,
		string(channel), target)
	return scanChallenge(row)
}

func (r *challengesRepo) DecrementChallengeAttempts(ctx context.Context, id string) (domain.Challenge, error) {
	row := r.q.QueryRowContext(ctx, `
		UPDATE challenges SET attempts = MAX(attempts - 1, 0)
		WHERE id = ?
		RETURNING `+challengeColumns, id)
	return scanChallenge(row)
}

func (r *challengesRepo) DeleteChallenge(ctx context.Context, id string) error {
	_, err := r.q.ExecContext(ctx, `DELETE FROM challenges WHERE id = ?`, id)
	return err
}

func (r *challengesRepo) DeleteExpiredChallenges(ctx context.Context) error {
	_, err := r.q.ExecContext(ctx,
		`DELETE FROM challenges WHERE expires_at < ?`, utc(time.Now()))
	return err
}

func scanChallenge(row *sql.Row) (domain.Challenge, error) {
	var (
		c       domain.Challenge
		channel string
	)
	err := row.Scan(&c.ID, &channel, &c.Target, &c.UserID, &c.CodeHash,
		&c.Attempts, &c.IssuedAt, &c.ResendAt, &c.ExpiresAt, &c.CreatedAt)
	if err != nil {
		return domain.Challenge{}, mapNotFound(err)
	}
	c.Channel = domain.Channel(channel)
	return c, nil
}
