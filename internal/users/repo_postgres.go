package users

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"todo-platform/internal/paging"
	"todo-platform/pkg/utils"

	"github.com/jackc/pgx/v5/pgconn"
)

const uniqueViolation = "23505"

// PostgresRepo stores users in the users table.
type PostgresRepo struct {
	db *sql.DB
}

func NewPostgresRepo(db *sql.DB) *PostgresRepo {
	return &PostgresRepo{db: db}
}

const userColumns = `id, name, email, role, password_hash, COALESCE(refresh_token, ''), profile_image_url, created_at, updated_at`

type rowScanner interface {
	Scan(dest ...any) error
}

func scanUser(row rowScanner) (User, error) {
	var u User
	err := row.Scan(
		&u.ID,
		&u.Name,
		&u.Email,
		&u.Role,
		&u.PasswordHash,
		&u.RefreshTokenEncrypted,
		&u.ProfileImageURL,
		&u.CreatedAt,
		&u.UpdatedAt,
	)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return User{}, ErrNotFound
		}
		return User{}, err
	}
	return u, nil
}

func (r *PostgresRepo) Create(ctx context.Context, u User) (User, error) {
	const q = `
INSERT INTO users (name, email, role, password_hash, profile_image_url)
VALUES ($1, $2, $3, $4, $5)
RETURNING ` + userColumns

	out, err := scanUser(r.db.QueryRowContext(ctx, q, u.Name, u.Email, u.Role, u.PasswordHash, u.ProfileImageURL))
	if err != nil {
		var pgErr *pgconn.PgError
		if errors.As(err, &pgErr) && pgErr.Code == uniqueViolation {
			return User{}, ErrEmailTaken
		}
		return User{}, fmt.Errorf("insert user: %w", err)
	}
	return out, nil
}

func (r *PostgresRepo) FindByID(ctx context.Context, id int64) (User, error) {
	q := `SELECT ` + userColumns + ` FROM users WHERE id = $1`
	return scanUser(r.db.QueryRowContext(ctx, q, id))
}

func (r *PostgresRepo) FindByEmail(ctx context.Context, email string) (User, error) {
	q := `SELECT ` + userColumns + ` FROM users WHERE email = $1`
	return scanUser(r.db.QueryRowContext(ctx, q, email))
}

func (r *PostgresRepo) SetRefreshToken(ctx context.Context, id int64, encrypted string) error {
	const q = `UPDATE users SET refresh_token = NULLIF($2, ''), updated_at = now() WHERE id = $1`
	return execOne(ctx, r.db, q, id, encrypted)
}

func (r *PostgresRepo) RotateRefreshToken(ctx context.Context, id int64, fn RotateFunc) error {
	return utils.WithTx(ctx, r.db, nil, func(ctx context.Context, tx *sql.Tx) error {
		// Lock the row so concurrent rotations for one user serialize.
		q := `SELECT ` + userColumns + ` FROM users WHERE id = $1 FOR UPDATE`
		u, err := scanUser(tx.QueryRowContext(ctx, q, id))
		if err != nil {
			return err
		}

		next, err := fn(u)
		if err != nil {
			return err
		}

		const upd = `UPDATE users SET refresh_token = NULLIF($2, ''), updated_at = now() WHERE id = $1`
		if _, err := tx.ExecContext(ctx, upd, id, next); err != nil {
			return fmt.Errorf("update refresh token: %w", err)
		}
		return nil
	})
}

func (r *PostgresRepo) SetProfileImage(ctx context.Context, id int64, url string) error {
	const q = `UPDATE users SET profile_image_url = $2, updated_at = now() WHERE id = $1`
	return execOne(ctx, r.db, q, id, url)
}

func (r *PostgresRepo) Delete(ctx context.Context, id int64) error {
	const q = `DELETE FROM users WHERE id = $1`
	return execOne(ctx, r.db, q, id)
}

func (r *PostgresRepo) List(ctx context.Context, req paging.Request) (paging.Page[User], error) {
	var total int64
	if err := r.db.QueryRowContext(ctx, `SELECT count(*) FROM users`).Scan(&total); err != nil {
		return paging.Page[User]{}, fmt.Errorf("count users: %w", err)
	}

	q := `SELECT ` + userColumns + ` FROM users ORDER BY id LIMIT $1 OFFSET $2`
	rows, err := r.db.QueryContext(ctx, q, req.Limit, req.Offset())
	if err != nil {
		return paging.Page[User]{}, fmt.Errorf("list users: %w", err)
	}
	defer rows.Close()

	var out []User
	for rows.Next() {
		u, err := scanUser(rows)
		if err != nil {
			return paging.Page[User]{}, err
		}
		out = append(out, u)
	}
	if err := rows.Err(); err != nil {
		return paging.Page[User]{}, err
	}
	return paging.NewPage(out, req, total), nil
}

func execOne(ctx context.Context, db *sql.DB, q string, args ...any) error {
	res, err := db.ExecContext(ctx, q, args...)
	if err != nil {
		return err
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
