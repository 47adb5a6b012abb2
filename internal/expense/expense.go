// Package expense is the per-student mess ledger. Marked meals are charged here
// by the attendance package; students add extra items themselves.
package expense

import (
	"errors"
	"fmt"
	"math"
	"strings"
	"time"

	"messmate/internal/meal"
)

// Categories used by the application. Any non-empty category is accepted.
const (
	CategoryRegularMeals = "Regular Meals"
	CategoryExtraItems   = "Extra Items"
)

var (
	ErrInvalidEntry  = errors.New("invalid expense entry")
	ErrInvalidPeriod = errors.New("invalid period")
)

// Entry is one ledger line. Price is in whole rupees.
type Entry struct {
	ID        int64     `json:"expense_id"`
	UserID    int64     `json:"user_id"`
	ItemName  string    `json:"item_name"`
	Price     int64     `json:"price"`
	Category  string    `json:"category"`
	Date      string    `json:"date"`
	CreatedAt time.Time `json:"created_at"`
}

// MealCharge is the entry written when a student marks k on date.
func MealCharge(userID int64, date string, k meal.Kind, price int64) Entry {
	return Entry{
		UserID:   userID,
		ItemName: k.String() + " meal",
		Price:    price,
		Category: CategoryRegularMeals,
		Date:     date,
	}
}

// Rupees converts a client-sent JSON number to whole rupees. Fractional
// amounts are rejected rather than rounded.
func Rupees(v float64) (int64, error) {
	if math.IsNaN(v) || math.IsInf(v, 0) || math.Abs(v) > 1e12 {
		return 0, fmt.Errorf("%w: price is out of range", ErrInvalidEntry)
	}
	if v != math.Trunc(v) {
		return 0, fmt.Errorf("%w: price must be whole rupees", ErrInvalidEntry)
	}
	return int64(v), nil
}

func (e Entry) validate() error {
	switch {
	case e.UserID <= 0:
		return fmt.Errorf("%w: user is required", ErrInvalidEntry)
	case strings.TrimSpace(e.ItemName) == "":
		return fmt.Errorf("%w: item name is required", ErrInvalidEntry)
	case e.Price <= 0:
		return fmt.Errorf("%w: price must be positive", ErrInvalidEntry)
	case strings.TrimSpace(e.Category) == "":
		return fmt.Errorf("%w: category is required", ErrInvalidEntry)
	}
	if e.Date != "" {
		if _, err := time.Parse(meal.DateLayout, e.Date); err != nil {
			return fmt.Errorf("%w: date must be YYYY-MM-DD", ErrInvalidEntry)
		}
	}
	return nil
}

// Period selects the aggregation window of Totals.
type Period string

const (
	Week  Period = "week"
	Month Period = "month"
	Year  Period = "year"
)

// ParsePeriod defaults to Week for an empty string.
func ParsePeriod(s string) (Period, error) {
	switch p := Period(strings.ToLower(strings.TrimSpace(s))); p {
	case "":
		return Week, nil
	case Week, Month, Year:
		return p, nil
	}
	return "", fmt.Errorf("%w: %q", ErrInvalidPeriod, s)
}

// Range returns the inclusive local date keys covering p at now. Weeks start on Monday.
func (p Period) Range(s *meal.Schedule, now time.Time) (from, to string, err error) {
	local := now.In(s.Location())
	switch p {
	case Week:
		days := s.Week(now)
		return s.DateKey(days[0]), s.DateKey(days[6]), nil
	case Month:
		first := time.Date(local.Year(), local.Month(), 1, 0, 0, 0, 0, s.Location())
		return s.DateKey(first), s.DateKey(first.AddDate(0, 1, -1)), nil
	case Year:
		first := time.Date(local.Year(), time.January, 1, 0, 0, 0, 0, s.Location())
		return s.DateKey(first), s.DateKey(first.AddDate(1, 0, -1)), nil
	}
	return "", "", fmt.Errorf("%w: %q", ErrInvalidPeriod, string(p))
}
