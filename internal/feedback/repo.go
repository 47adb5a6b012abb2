package feedback

import (
	"context"
	"database/sql"
)

// Repository persists feedback in Postgres.
type Repository struct {
	db *sql.DB
}

// NewRepository creates a repo.
func NewRepository(db *sql.DB) *Repository {
	return &Repository{db: db}
}

// Create inserts f.
func (r *Repository) Create(ctx context.Context, f Feedback) (Feedback, error) {
	err := r.db.QueryRowContext(ctx, `
		INSERT INTO feedback (user_id, category, stars, comment, status)
		VALUES ($1, $2, $3, $4, $5)
		RETURNING feedback_id, created_at
	`, f.UserID, f.Category, f.Stars, f.Comment, f.Status).Scan(&f.ID, &f.CreatedAt)
	if err != nil {
		return Feedback{}, err
	}
	return f, nil
}

// ListByUser returns the feedback of one user, newest first.
func (r *Repository) ListByUser(ctx context.Context, userID int64) ([]Feedback, error) {
	return r.list(ctx, `
		SELECT f.feedback_id, f.user_id, '', f.category, f.stars, f.comment, f.status, f.created_at
		FROM feedback f
		WHERE f.user_id = $1
		ORDER BY f.created_at DESC
	`, userID)
}

// ListByStatus returns the feedback in status with the author's name, oldest first.
func (r *Repository) ListByStatus(ctx context.Context, status string) ([]Feedback, error) {
	return r.list(ctx, `
		SELECT f.feedback_id, f.user_id, u.full_name, f.category, f.stars, f.comment, f.status, f.created_at
		FROM feedback f
		JOIN users u ON u.user_id = f.user_id
		WHERE f.status = $1
		ORDER BY f.created_at
	`, status)
}

func (r *Repository) list(ctx context.Context, query string, arg any) ([]Feedback, error) {
	rows, err := r.db.QueryContext(ctx, query, arg)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	res := []Feedback{}
	for rows.Next() {
		var f Feedback
		if err := rows.Scan(&f.ID, &f.UserID, &f.FullName, &f.Category, &f.Stars, &f.Comment, &f.Status, &f.CreatedAt); err != nil {
			return nil, err
		}
		res = append(res, f)
	}
	return res, rows.Err()
}

// SetStatus updates the status of one feedback.
func (r *Repository) SetStatus(ctx context.Context, id int64, status string) error {
	res, err := r.db.ExecContext(ctx, `UPDATE feedback SET status = $2 WHERE feedback_id = $1`, id, status)
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
