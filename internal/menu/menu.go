// Package menu holds the food catalogue and the weekly menu, and prices meals
// for attendance charges.
package menu

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"messmate/internal/meal"
)

var (
	ErrNotFound    = errors.New("menu: not found")
	ErrInvalidDay  = errors.New("menu: invalid day")
	ErrInvalidFood = errors.New("menu: invalid food item")
)

// Days lists the menu days in display order.
var Days = [...]time.Weekday{
	time.Sunday, time.Monday, time.Tuesday, time.Wednesday,
	time.Thursday, time.Friday, time.Saturday,
}

// DayName is the stored, lower-case name of w.
func DayName(w time.Weekday) string {
	return strings.ToLower(w.String())
}

// ParseDay accepts a weekday name in any case.
func ParseDay(s string) (time.Weekday, error) {
	s = strings.ToLower(strings.TrimSpace(s))
	for _, d := range Days {
		if DayName(d) == s {
			return d, nil
		}
	}
	return 0, fmt.Errorf("%w: %q", ErrInvalidDay, s)
}

// Food is a catalogue entry. Price is in whole rupees.
type Food struct {
	ID       int64  `json:"food_id"`
	Name     string `json:"name"`
	Price    int64  `json:"price"`
	ImageURL string `json:"image_url"`
}

// Item is a food served in a meal slot.
type Item struct {
	FoodID   int64  `json:"food_id"`
	Name     string `json:"name"`
	Price    int64  `json:"price"`
	ImageURL string `json:"image_url"`
}

// Meals groups items by meal.
type Meals struct {
	Breakfast []Item `json:"breakfast"`
	Lunch     []Item `json:"lunch"`
	Dinner    []Item `json:"dinner"`
}

func newMeals() Meals {
	return Meals{Breakfast: []Item{}, Lunch: []Item{}, Dinner: []Item{}}
}

func (m *Meals) add(k meal.Kind, it Item) {
	switch k {
	case meal.Breakfast:
		m.Breakfast = append(m.Breakfast, it)
	case meal.Lunch:
		m.Lunch = append(m.Lunch, it)
	case meal.Dinner:
		m.Dinner = append(m.Dinner, it)
	}
}

// DayMeals is one day of the weekly menu.
type DayMeals struct {
	Day   string `json:"day"`
	Meals Meals  `json:"meals"`
}

// Slot is one editable (day, meal) cell of the weekly menu.
type Slot struct {
	MenuID int64  `json:"menu_id"`
	Items  []Item `json:"items"`
}

// DayMenu is the admin view of a day: its three slots and the whole catalogue
// to choose from.
type DayMenu struct {
	Day       string `json:"day"`
	Breakfast Slot   `json:"breakfast"`
	Lunch     Slot   `json:"lunch"`
	Dinner    Slot   `json:"dinner"`
	Foods     []Food `json:"foods"`
}

func (d *DayMenu) slot(k meal.Kind) *Slot {
	switch k {
	case meal.Breakfast:
		return &d.Breakfast
	case meal.Lunch:
		return &d.Lunch
	default:
		return &d.Dinner
	}
}

// Row is one (day, meal, item) line of the weekly menu. Item is nil for an empty slot.
type Row struct {
	Day    string
	Meal   meal.Kind
	MenuID int64
	Item   *Item
}

// mealID is the meals table key of k.
func mealID(k meal.Kind) int { return int(k) + 1 }
