package expense

import (
	"context"
	"database/sql"

	"messmate/internal/store"
)

// Repository persists ledger entries in Postgres.
type Repository struct {
	db *sql.DB
}

// NewRepository creates a repo.
func NewRepository(db *sql.DB) *Repository {
	return &Repository{db: db}
}

// Insert writes e using db, which may be a transaction.
func Insert(ctx context.Context, db store.DBTX, e Entry) (Entry, error) {
	row := db.QueryRowContext(ctx, `
		INSERT INTO expenses (user_id, item_name, price, category, date)
		VALUES ($1, $2, $3, $4, $5::date)
		RETURNING expense_id, created_at
	`, e.UserID, e.ItemName, e.Price, e.Category, e.Date)
	if err := row.Scan(&e.ID, &e.CreatedAt); err != nil {
		return Entry{}, err
	}
	return e, nil
}

// Insert writes a single entry outside any transaction.
func (r *Repository) Insert(ctx context.Context, e Entry) (Entry, error) {
	return Insert(ctx, r.db, e)
}

// Sum totals the user's entries dated within [from, to].
func (r *Repository) Sum(ctx context.Context, userID int64, from, to string) (int64, error) {
	var total int64
	err := r.db.QueryRowContext(ctx, `
		SELECT COALESCE(SUM(price), 0)::bigint FROM expenses
		WHERE user_id = $1 AND date BETWEEN $2::date AND $3::date
	`, userID, from, to).Scan(&total)
	return total, err
}

// SumByCategory totals the user's entries within [from, to] per category.
func (r *Repository) SumByCategory(ctx context.Context, userID int64, from, to string) (map[string]int64, error) {
	rows, err := r.db.QueryContext(ctx, `
		SELECT category, SUM(price)::bigint FROM expenses
		WHERE user_id = $1 AND date BETWEEN $2::date AND $3::date
		GROUP BY category
	`, userID, from, to)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	res := map[string]int64{}
	for rows.Next() {
		var (
			category string
			total    int64
		)
		if err := rows.Scan(&category, &total); err != nil {
			return nil, err
		}
		res[category] = total
	}
	return res, rows.Err()
}

// ListOn returns the user's entries of one day, newest first.
func (r *Repository) ListOn(ctx context.Context, userID int64, date string) ([]Entry, error) {
	rows, err := r.db.QueryContext(ctx, `
		SELECT expense_id, user_id, item_name, price, category, date::text, created_at
		FROM expenses
		WHERE user_id = $1 AND date = $2::date
		ORDER BY created_at DESC, expense_id DESC
	`, userID, date)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var res []Entry
	for rows.Next() {
		var e Entry
		if err := rows.Scan(&e.ID, &e.UserID, &e.ItemName, &e.Price, &e.Category, &e.Date, &e.CreatedAt); err != nil {
			return nil, err
		}
		res = append(res, e)
	}
	return res, rows.Err()
}
