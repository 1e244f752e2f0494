package postgres

import (
	"context"
	"time"

	"github.com/jackc/pgx/v5"

	"electrocart_back_end/internal/models"
)

const userColumns = `id, name, email, password_hash, is_admin, reset_password_token,
	reset_password_expire, created_at, updated_at`

func scanUser(row pgx.Row) (*models.User, error) {
	var u models.User
	var token *string
	err := row.Scan(&u.ID, &u.Name, &u.Email, &u.PasswordHash, &u.IsAdmin, &token,
		&u.ResetPasswordExpire, &u.CreatedAt, &u.UpdatedAt)
	if err != nil {
		return nil, wrapError(err)
	}
	if token != nil {
		u.ResetPasswordToken = *token
	}
	return &u, nil
}

func (s *Store) CreateUser(ctx context.Context, u *models.User) error {
	_, err := s.db.Exec(ctx, `
		INSERT INTO users (id, name, email, password_hash, is_admin, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7)`,
		u.ID, u.Name, u.Email, u.PasswordHash, u.IsAdmin, u.CreatedAt, u.UpdatedAt)
	return wrapError(err)
}

func (s *Store) GetUserByID(ctx context.Context, id string) (*models.User, error) {
	return scanUser(s.db.QueryRow(ctx, `SELECT `+userColumns+` FROM users WHERE id = $1`, id))
}

func (s *Store) GetUserByEmail(ctx context.Context, email string) (*models.User, error) {
	return scanUser(s.db.QueryRow(ctx, `SELECT `+userColumns+` FROM users WHERE LOWER(email) = LOWER($1)`, email))
}

func (s *Store) SetResetToken(ctx context.Context, userID, tokenHash string, expire time.Time) error {
	return execOne(ctx, s.db, `
		UPDATE users SET reset_password_token = $2, reset_password_expire = $3, updated_at = NOW()
		WHERE id = $1`, userID, tokenHash, expire)
}

// ResetPassword consomme le token dans le même UPDATE: un second appel ne trouve plus de ligne.
func (s *Store) ResetPassword(ctx context.Context, tokenHash, passwordHash string, now time.Time) (*models.User, error) {
	return scanUser(s.db.QueryRow(ctx, `
		UPDATE users SET password_hash = $2, reset_password_token = NULL,
			reset_password_expire = NULL, updated_at = $3
		WHERE reset_password_token = $1 AND reset_password_expire > $3
		RETURNING `+userColumns, tokenHash, passwordHash, now))
}

func (s *Store) SetAdmin(ctx context.Context, userID string, isAdmin bool) error {
	return execOne(ctx, s.db, `UPDATE users SET is_admin = $2, updated_at = NOW() WHERE id = $1`, userID, isAdmin)
}

func (s *Store) SetPassword(ctx context.Context, userID, passwordHash string) error {
	return execOne(ctx, s.db, `UPDATE users SET password_hash = $2, updated_at = NOW() WHERE id = $1`, userID, passwordHash)
}
