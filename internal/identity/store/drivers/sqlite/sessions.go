package sqlite

import (
	"context"
	"time"

	"github.com/vitrine/identity/internal/identity/domain"
)

type sessionsRepo struct {
	q dbtx
}

func (r *sessionsRepo) CreateSession(ctx context.Context, s domain.Session) error {
	_, err := r.q.ExecContext(ctx, `
		INSERT INTO sessions (id, user_id, role, expires_at)
		VALUES (?, ?, ?, ?)`,
		s.ID, s.UserID, string(s.Role), utc(s.ExpiresAt),
	)
	return err
}

func (r *sessionsRepo) GetSessionByID(ctx context.Context, id string) (domain.Session, error) {
	row := r.q.QueryRowContext(ctx, `
		SELECT id, user_id, role, expires_at, created_at
		FROM sessions WHERE id = ?`, id)

	var (
		s    domain.Session
		role string
	)
	if err := row.Scan(&s.ID, &s.UserID, &role, &s.ExpiresAt, &s.CreatedAt); err != nil {
		return domain.Session{}, mapNotFound(err)
	}
	s.Role = domain.Role(role)
	return s, nil
}

func (r *sessionsRepo) DeleteSession(ctx context.Context, id string) error {
	_, err := r.q.ExecContext(ctx, `DELETE FROM sessions WHERE id = ?`, id)
	return err
}

func (r *sessionsRepo) DeleteUserSessions(ctx context.Context, userID string) error {
	_, err := r.q.ExecContext(ctx, `DELETE FROM sessions WHERE user_id = ?`, userID)
	return err
}

func (r *sessionsRepo) DeleteExpiredSessions(ctx context.Context) error {
	_, err := r.q.ExecContext(ctx,
		`DELETE FROM sessions WHERE expires_at < ?`, utc(time.Now()))
	return err
}
