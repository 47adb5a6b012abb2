// Package attendance records which meals each student will eat on a given day
// and charges them for it.
package attendance

import (
	"errors"

	"messmate/internal/meal"
)

// ErrWindowClosed is returned when a meal is marked after its cutoff.
var ErrWindowClosed = errors.New("meal window closed")

// Record is one student's attendance for one local date.
type Record struct {
	UserID    int64  `json:"user_id"`
	Date      string `json:"date"`
	Breakfast bool   `json:"breakfast"`
	Lunch     bool   `json:"lunch"`
	Dinner    bool   `json:"dinner"`
}

// Has reports whether k is marked.
func (r Record) Has(k meal.Kind) bool {
	switch k {
	case meal.Breakfast:
		return r.Breakfast
	case meal.Lunch:
		return r.Lunch
	case meal.Dinner:
		return r.Dinner
	}
	return false
}

// Count returns how many meals are marked.
func (r Record) Count() int {
	n := 0
	for _, k := range meal.Kinds {
		if r.Has(k) {
			n++
		}
	}
	return n
}

// Student identifies a present student in admin listings.
type Student struct {
	FullName string `json:"full_name"`
	Email    string `json:"email"`
}

// Present lists the students marked for each meal of a day.
type Present struct {
	Breakfast []Student `json:"breakfast"`
	Lunch     []Student `json:"lunch"`
	Dinner    []Student `json:"dinner"`
}

func (p *Present) add(k meal.Kind, s Student) {
	switch k {
	case meal.Breakfast:
		p.Breakfast = append(p.Breakfast, s)
	case meal.Lunch:
		p.Lunch = append(p.Lunch, s)
	case meal.Dinner:
		p.Dinner = append(p.Dinner, s)
	}
}

// column maps a meal to its attendance column. Only validated kinds reach SQL.
func column(k meal.Kind) string {
	return [...]string{"breakfast", "lunch", "dinner"}[k]
}
