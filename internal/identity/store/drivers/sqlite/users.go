package sqlite

import (
	"context"
	"database/sql"
	"fmt"
	"strings"
	"time"

	"github.com/vitrine/identity/internal/identity/domain"
	"github.com/vitrine/identity/internal/identity/store"
)

type usersRepo struct {
	q dbtx
}

const userColumns = `id, first_name, last_name, email, mobile, password_hash,
	role, referral_code, second_factor, totp_secret, created_at, updated_at`

func (r *usersRepo) GetUserByID(ctx context.Context, id string) (domain.User, error) {
	row := r.q.QueryRowContext(ctx,
		`SELECT `+userColumns+` FROM users WHERE id = ?`, id)
	return scanUser(row)
}

func (r *usersRepo) GetUserByIdentifier(ctx context.Context, channel domain.Channel, value string) (domain.User, error) {
	var column string
	switch channel {
	case domain.ChannelEmail:
		column = "email"
	case domain.ChannelMobile:
		column = "mobile"
	default:
		return domain.User{}, fmt.Errorf("sqlite: no identifier column for channel %q", channel)
	}

	row := r.q.QueryRowContext(ctx,
		`SELECT `+userColumns+` FROM users WHERE `+column+` = ?`, value)
	return scanUser(row)
}

func (r *usersRepo) CreateUser(ctx context.Context, u domain.User) error {
	_, err := r.q.ExecContext(ctx, `
		INSERT INTO users (id, first_name, last_name, email, mobile,
			password_hash, role, referral_code, second_factor, totp_secret)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		u.ID, u.FirstName, u.LastName, mapStringNull(u.Email), u.Mobile,
		u.PasswordHash, string(u.Role), u.ReferralCode,
		string(u.SecondFactor), mapOptionalString(u.TOTPSecret),
	)
	if err != nil && strings.Contains(err.Error(), "UNIQUE constraint failed") {
		return store.ErrAlreadyExists
	}
	return err
}

func (r *usersRepo) UpdatePasswordHash(ctx context.Context, userID string, newHash string) error {
	res, err := r.q.ExecContext(ctx, `
		UPDATE users SET password_hash = ?, updated_at = CURRENT_TIMESTAMP
		WHERE id = ?`, newHash, userID)
	if err != nil {
		return err
	}
	return requireRow(res)
}

func (r *usersRepo) UpdateSecondFactor(ctx context.Context, userID string, kind domain.SecondFactorKind, totpSecret *string) error {
	res, err := r.q.ExecContext(ctx, `
		UPDATE users SET second_factor = ?, totp_secret = ?, updated_at = CURRENT_TIMESTAMP
		WHERE id = ?`, string(kind), mapOptionalString(totpSecret), userID)
	if err != nil {
		return err
	}
	return requireRow(res)
}

func requireRow(res sql.Result) error {
	n, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if n == 0 {
		return store.ErrNotFound
	}
	return nil
}

func scanUser(row *sql.Row) (domain.User, error) {
	var (
		u          domain.User
		email      sql.NullString
		role       string
		factor     string
		totpSecret sql.NullString
		createdAt  time.Time
		updatedAt  time.Time
	)
	err := row.Scan(&u.ID, &u.FirstName, &u.LastName, &email, &u.Mobile,
		&u.PasswordHash, &role, &u.ReferralCode, &factor, &totpSecret,
		&createdAt, &updatedAt)
	if err != nil {
		return domain.User{}, mapNotFound(err)
	}

	u.Email = mapNullString(email)
	u.Role = domain.Role(role)
	u.SecondFactor = domain.SecondFactorKind(factor)
	u.TOTPSecret = mapNullStringPtr(totpSecret)
	u.CreatedAt = createdAt
	u.UpdatedAt = updatedAt
	return u, nil
}
