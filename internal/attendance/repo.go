package attendance

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"messmate/internal/expense"
	"messmate/internal/meal"
	"messmate/internal/store"
)

// Repository persists attendance data in Postgres.
type Repository struct {
	db *sql.DB
}

// NewRepository creates a repo.
func NewRepository(db *sql.DB) *Repository {
	return &Repository{db: db}
}

// Get returns the record of userID on date, or a zero record when none exists.
func (r *Repository) Get(ctx context.Context, userID int64, date string) (Record, error) {
	rec := Record{UserID: userID, Date: date}
	err := r.db.QueryRowContext(ctx, `
		SELECT breakfast, lunch, dinner FROM attendance
		WHERE user_id = $1 AND date = $2::date
	`, userID, date).Scan(&rec.Breakfast, &rec.Lunch, &rec.Dinner)
	if errors.Is(err, sql.ErrNoRows) {
		return rec, nil
	}
	if err != nil {
		return Record{}, err
	}
	return rec, nil
}

// MarkMeal sets k for (userID, date) and writes charge in the same transaction.
// The charge is written only by the call that flipped the flag, so concurrent
// marks of the same meal charge once.
func (r *Repository) MarkMeal(ctx context.Context, userID int64, date string, k meal.Kind, charge expense.Entry) (bool, error) {
	if !k.Valid() {
		return false, meal.ErrInvalidMeal
	}
	col := column(k)
	charged := false
	err := store.RunInTx(ctx, r.db, func(ctx context.Context, tx store.DBTX) error {
		if _, err := tx.ExecContext(ctx, `
			INSERT INTO attendance (user_id, date)
			VALUES ($1, $2::date)
			ON CONFLICT (user_id, date) DO NOTHING
		`, userID, date); err != nil {
			return fmt.Errorf("ensure attendance row: %w", err)
		}
		res, err := tx.ExecContext(ctx, fmt.Sprintf(`
			UPDATE attendance SET %[1]s = TRUE
			WHERE user_id = $1 AND date = $2::date AND %[1]s = FALSE
		`, col), userID, date)
		if err != nil {
			return fmt.Errorf("set %s: %w", col, err)
		}
		n, err := res.RowsAffected()
		if err != nil {
			return err
		}
		if n == 0 {
			return nil
		}
		if _, err := expense.Insert(ctx, tx, charge); err != nil {
			return fmt.Errorf("insert meal charge: %w", err)
		}
		charged = true
		return nil
	})
	if err != nil {
		return false, err
	}
	return charged, nil
}

// Range returns the user's records dated within [from, to], oldest first.
func (r *Repository) Range(ctx context.Context, userID int64, from, to string) ([]Record, error) {
	rows, err := r.db.QueryContext(ctx, `
		SELECT user_id, date::text, breakfast, lunch, dinner
		FROM attendance
		WHERE user_id = $1 AND date BETWEEN $2::date AND $3::date
		ORDER BY date
	`, userID, from, to)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var res []Record
	for rows.Next() {
		var rec Record
		if err := rows.Scan(&rec.UserID, &rec.Date, &rec.Breakfast, &rec.Lunch, &rec.Dinner); err != nil {
			return nil, err
		}
		res = append(res, rec)
	}
	return res, rows.Err()
}

// PresentOn lists the students marked for each meal on date.
func (r *Repository) PresentOn(ctx context.Context, date string) (Present, error) {
	rows, err := r.db.QueryContext(ctx, `
		SELECT u.full_name, u.email, a.breakfast, a.lunch, a.dinner
		FROM attendance a
		JOIN users u ON u.user_id = a.user_id
		WHERE a.date = $1::date
		ORDER BY u.full_name
	`, date)
	if err != nil {
		return Present{}, err
	}
	defer rows.Close()

	present := Present{Breakfast: []Student{}, Lunch: []Student{}, Dinner: []Student{}}
	for rows.Next() {
		var (
			s   Student
			rec Record
		)
		if err := rows.Scan(&s.FullName, &s.Email, &rec.Breakfast, &rec.Lunch, &rec.Dinner); err != nil {
			return Present{}, err
		}
		for _, k := range meal.Kinds {
			if rec.Has(k) {
				present.add(k, s)
			}
		}
	}
	return present, rows.Err()
}

// Headcount counts students marked for k on date.
func (r *Repository) Headcount(ctx context.Context, date string, k meal.Kind) (int, error) {
	if !k.Valid() {
		return 0, meal.ErrInvalidMeal
	}
	var n int
	err := r.db.QueryRowContext(ctx, fmt.Sprintf(`
		SELECT COUNT(*) FROM attendance WHERE date = $1::date AND %s = TRUE
	`, column(k)), date).Scan(&n)
	return n, err
}
