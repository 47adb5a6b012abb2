package account

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5/pgconn"

	"messmate/internal/store"
)

const uniqueViolation = "23505"

// Repository persists users and the allow-list in Postgres.
type Repository struct {
	db *sql.DB
}

// NewRepository creates a repo.
func NewRepository(db *sql.DB) *Repository {
	return &Repository{db: db}
}

func mapErr(err error) error {
	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) && pgErr.Code == uniqueViolation {
		return ErrAlreadyExists
	}
	return err
}

func insertUser(ctx context.Context, db store.DBTX, u User) (User, error) {
	err := db.QueryRowContext(ctx, `
		INSERT INTO users (full_name, email, password, role)
		VALUES ($1, $2, $3, $4)
		RETURNING user_id, created_at
	`, u.FullName, u.Email, u.PasswordHash, u.Role).Scan(&u.ID, &u.CreatedAt)
	if err != nil {
		return User{}, mapErr(err)
	}
	return u, nil
}

// CreateInvited inserts the user and allow-lists its email in one transaction.
func (r *Repository) CreateInvited(ctx context.Context, u User) (User, error) {
	var created User
	err := store.RunInTx(ctx, r.db, func(ctx context.Context, tx store.DBTX) error {
		var err error
		if created, err = insertUser(ctx, tx, u); err != nil {
			return err
		}
		if _, err := tx.ExecContext(ctx, `
			INSERT INTO allowed_students (email, is_registered) VALUES ($1, FALSE)
		`, u.Email); err != nil {
			return fmt.Errorf("allow-list %s: %w", u.Email, mapErr(err))
		}
		return nil
	})
	return created, err
}

// CreateUser inserts a user.
func (r *Repository) CreateUser(ctx context.Context, u User) (User, error) {
	return insertUser(ctx, r.db, u)
}

// EnsureAdmin creates u as an admin, or promotes the existing account with that email.
func (r *Repository) EnsureAdmin(ctx context.Context, u User) (User, error) {
	err := r.db.QueryRowContext(ctx, `
		INSERT INTO users (full_name, email, password, role)
		VALUES ($1, $2, $3, 'admin')
		ON CONFLICT (email) DO UPDATE SET role = 'admin'
		RETURNING user_id, role, created_at
	`, u.FullName, u.Email, u.PasswordHash).Scan(&u.ID, &u.Role, &u.CreatedAt)
	if err != nil {
		return User{}, err
	}
	return u, nil
}

const userColumns = `user_id, full_name, email, password, role, created_at`

func scanUser(row *sql.Row) (User, error) {
	var u User
	err := row.Scan(&u.ID, &u.FullName, &u.Email, &u.PasswordHash, &u.Role, &u.CreatedAt)
	if errors.Is(err, sql.ErrNoRows) {
		return User{}, ErrNotFound
	}
	return u, err
}

// ByEmail returns the user with email.
func (r *Repository) ByEmail(ctx context.Context, email string) (User, error) {
	return scanUser(r.db.QueryRowContext(ctx, `SELECT `+userColumns+` FROM users WHERE email = $1`, email))
}

// ByID returns the user with id.
func (r *Repository) ByID(ctx context.Context, id int64) (User, error) {
	return scanUser(r.db.QueryRowContext(ctx, `SELECT `+userColumns+` FROM users WHERE user_id = $1`, id))
}

// Allowed reports whether email is allow-listed and whether it completed OTP verification.
func (r *Repository) Allowed(ctx context.Context, email string) (allowed, registered bool, err error) {
	err = r.db.QueryRowContext(ctx, `
		SELECT is_registered FROM allowed_students WHERE email = $1
	`, email).Scan(&registered)
	if errors.Is(err, sql.ErrNoRows) {
		return false, false, nil
	}
	if err != nil {
		return false, false, err
	}
	return true, registered, nil
}

// MarkRegistered flags email as verified.
func (r *Repository) MarkRegistered(ctx context.Context, email string) error {
	res, err := r.db.ExecContext(ctx, `UPDATE allowed_students SET is_registered = TRUE WHERE email = $1`, email)
	if err != nil {
		return err
	}
	n, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if n == 0 {
		return ErrNotAllowed
	}
	return nil
}
