package notify

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"messmate/internal/meal"
)

// Status records which kitchen summaries went out on a date. Flags only go false to true.
type Status struct {
	Date      string `json:"date"`
	Breakfast bool   `json:"breakfast"`
	Lunch     bool   `json:"lunch"`
	Dinner    bool   `json:"dinner"`
}

// Sent reports whether the summary of k was sent.
func (s Status) Sent(k meal.Kind) bool {
	switch k {
	case meal.Breakfast:
		return s.Breakfast
	case meal.Lunch:
		return s.Lunch
	case meal.Dinner:
		return s.Dinner
	}
	return false
}

// StatusRepository keeps Status rows in Postgres.
type StatusRepository struct {
	db *sql.DB
}

// NewStatusRepository creates a repo.
func NewStatusRepository(db *sql.DB) *StatusRepository {
	return &StatusRepository{db: db}
}

// Get returns the status of date. A missing row is an all-false status.
func (r *StatusRepository) Get(ctx context.Context, date string) (Status, error) {
	st := Status{Date: date}
	err := r.db.QueryRowContext(ctx, `
		SELECT breakfast_sent, lunch_sent, dinner_sent
		FROM attendance_email_status WHERE date = $1::date
	`, date).Scan(&st.Breakfast, &st.Lunch, &st.Dinner)
	if errors.Is(err, sql.ErrNoRows) {
		return st, nil
	}
	if err != nil {
		return Status{}, err
	}
	return st, nil
}

// MarkSent sets the flag of k on date, creating the row if needed.
func (r *StatusRepository) MarkSent(ctx context.Context, date string, k meal.Kind) error {
	if !k.Valid() {
		return meal.ErrInvalidMeal
	}
	col := [...]string{"breakfast_sent", "lunch_sent", "dinner_sent"}[k]
	_, err := r.db.ExecContext(ctx, fmt.Sprintf(`
		INSERT INTO attendance_email_status (date, %[1]s)
		VALUES ($1::date, TRUE)
		ON CONFLICT (date) DO UPDATE SET %[1]s = TRUE
	`, col), date)
	return err
}
