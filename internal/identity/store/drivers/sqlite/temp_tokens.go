package sqlite

import (
	"context"
	"time"

	"github.com/vitrine/identity/internal/identity/domain"
)

type tempTokensRepo struct {
	q dbtx
}

func (r *tempTokensRepo) CreateTempToken(ctx context.Context, t domain.TemporaryToken) error {
	_, err := r.q.ExecContext(ctx, `
		INSERT INTO temp_tokens (id, token_hash, purpose, channel, identifier, expires_at)
		VALUES (?, ?, ?, ?, ?, ?)`,
		t.ID, t.TokenHash, string(t.Purpose), string(t.Channel), t.Identifier, utc(t.ExpiresAt),
	)
	return err
}

func (r *tempTokensRepo) GetTempTokenByHash(ctx context.Context, hash string) (domain.TemporaryToken, error) {
	row := r.q.QueryRowContext(ctx, `
		SELECT id, token_hash, purpose, channel, identifier, expires_at, created_at
		FROM temp_tokens WHERE token_hash = ?`, hash)

	var (
		t       domain.TemporaryToken
		purpose string
		channel string
	)
	err := row.Scan(&t.ID, &t.TokenHash, &purpose, &channel, &t.Identifier,
		&t.ExpiresAt, &t.CreatedAt)
	if err != nil {
		return domain.TemporaryToken{}, mapNotFound(err)
	}
	t.Purpose = domain.TempTokenPurpose(purpose)
	t.Channel = domain.Channel(channel)
	return t, nil
}

func (r *tempTokensRepo) DeleteTempToken(ctx context.Context, id string) error {
	_, err := r.q.ExecContext(ctx, `DELETE FROM temp_tokens WHERE id = ?`, id)
	return err
}

func (r *tempTokensRepo) DeleteExpiredTempTokens(ctx context.Context) error {
	_, err := r.q.ExecContext(ctx,
		`DELETE FROM temp_tokens WHERE expires_at < ?`, utc(time.Now()))
	return err
}
