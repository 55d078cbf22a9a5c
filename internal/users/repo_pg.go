package users

import (
	"context"
	"database/sql"
	"errors"

	"github.com/jackc/pgx/v5/pgconn"
)

const pgUniqueViolation = "23505"

type PGRepo struct {
	DB *sql.DB
}

const selectUserColumns = `SELECT id, name, email, password_hash, google_sub, created_at, updated_at FROM users`

func (r *PGRepo) Create(ctx context.Context, user User) error {
	const query = `
INSERT INTO users (id, name, email, password_hash, google_sub, created_at, updated_at)
VALUES ($1, $2, $3, $4, $5, $6, $7)`
	_, err := r.DB.ExecContext(ctx, query,
		user.ID,
		user.Name,
		user.Email,
		nullableString(user.PasswordHash),
		nullableString(user.GoogleSub),
		user.CreatedAt,
		user.UpdatedAt,
	)
	return mapPGError(err)
}

func (r *PGRepo) GetByID(ctx context.Context, userID string) (User, error) {
	return r.getOne(ctx, selectUserColumns+`
WHERE id = $1
LIMIT 1`, userID)
}

func (r *PGRepo) GetByEmail(ctx context.Context, email string) (User, error) {
	return r.getOne(ctx, selectUserColumns+`
WHERE lower(email) = lower($1)
LIMIT 1`, email)
}

func (r *PGRepo) Update(ctx context.Context, user User) error {
	const query = `
UPDATE users
SET name = $1, email = $2, password_hash = $3, google_sub = $4, updated_at = $5
WHERE id = $6`
	res, err := r.DB.ExecContext(ctx, query,
		user.Name,
		user.Email,
		nullableString(user.PasswordHash),
		nullableString(user.GoogleSub),
		user.UpdatedAt,
		user.ID,
	)
	if err != nil {
		return mapPGError(err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if n == 0 {
		return ErrNotFound
	}
	return nil
}

func (r *PGRepo) getOne(ctx context.Context, query string, arg string) (User, error) {
	var user User
	var passwordHash sql.NullString
	var googleSub sql.NullString
	err := r.DB.QueryRowContext(ctx, query, arg).Scan(
		&user.ID,
		&user.Name,
		&user.Email,
		&passwordHash,
		&googleSub,
		&user.CreatedAt,
		&user.UpdatedAt,
	)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return User{}, ErrNotFound
		}
		return User{}, err
	}
	if passwordHash.Valid {
		user.PasswordHash = passwordHash.String
	}
	if googleSub.Valid {
		user.GoogleSub = googleSub.String
	}
	return user, nil
}

func mapPGError(err error) error {
	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) && pgErr.Code == pgUniqueViolation {
		return ErrEmailTaken
	}
	return err
}

func nullableString(value string) any {
	if value == "" {
		return nil
	}
	return value
}

var _ Repo = (*PGRepo)(nil)
