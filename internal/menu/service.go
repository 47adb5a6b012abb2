package menu

import (
	"context"
	"fmt"
	"strings"
	"time"

	"go.uber.org/zap"

	"messmate/internal/meal"
)

// Store is the persistence used by Service.
type Store interface {
	Rows(ctx context.Context, day string) ([]Row, error)
	Foods(ctx context.Context) ([]Food, error)
	Food(ctx context.Context, foodID int64) (Food, error)
	AddFood(ctx context.Context, f Food) (Food, error)
	ReplaceItems(ctx context.Context, menuID int64, foodIDs []int64) (int, error)
	MealTotal(ctx context.Context, day string, k meal.Kind) (int64, error)
	SetFoodImage(ctx context.Context, foodID int64, url string) error
}

// Service serves menus and meal prices.
type Service struct {
	store    Store
	schedule *meal.Schedule
	log      *zap.Logger
}

// NewService creates a service.
func NewService(store Store, schedule *meal.Schedule, log *zap.Logger) *Service {
	return &Service{store: store, schedule: schedule, log: log}
}

// Weekly returns the menu of every day, Sunday first.
func (s *Service) Weekly(ctx context.Context) ([]DayMeals, error) {
	rows, err := s.store.Rows(ctx, "")
	if err != nil {
		return nil, err
	}
	byDay := make(map[string]*Meals, len(Days))
	week := make([]DayMeals, len(Days))
	for i, d := range Days {
		week[i] = DayMeals{Day: DayName(d), Meals: newMeals()}
		byDay[week[i].Day] = &week[i].Meals
	}
	for _, row := range rows {
		m, ok := byDay[row.Day]
		if !ok || row.Item == nil {
			continue
		}
		m.add(row.Meal, *row.Item)
	}
	return week, nil
}

// Day returns the editable slots of day together with the catalogue.
func (s *Service) Day(ctx context.Context, day string) (DayMenu, error) {
	w, err := ParseDay(day)
	if err != nil {
		return DayMenu{}, err
	}
	rows, err := s.store.Rows(ctx, DayName(w))
	if err != nil {
		return DayMenu{}, err
	}
	dm := DayMenu{Day: DayName(w)}
	for _, k := range meal.Kinds {
		dm.slot(k).Items = []Item{}
	}
	for _, row := range rows {
		slot := dm.slot(row.Meal)
		slot.MenuID = row.MenuID
		if row.Item != nil {
			slot.Items = append(slot.Items, *row.Item)
		}
	}
	if dm.Foods, err = s.store.Foods(ctx); err != nil {
		return DayMenu{}, err
	}
	if dm.Foods == nil {
		dm.Foods = []Food{}
	}
	return dm, nil
}

// SetItems replaces the foods of a menu slot. Duplicate and non-positive ids are dropped.
func (s *Service) SetItems(ctx context.Context, menuID int64, foodIDs []int64) (int, error) {
	if menuID <= 0 {
		return 0, ErrNotFound
	}
	seen := make(map[int64]bool, len(foodIDs))
	clean := make([]int64, 0, len(foodIDs))
	for _, id := range foodIDs {
		if id <= 0 || seen[id] {
			continue
		}
		seen[id] = true
		clean = append(clean, id)
	}
	n, err := s.store.ReplaceItems(ctx, menuID, clean)
	if err != nil {
		return 0, err
	}
	if n < len(clean) {
		s.log.Warn("unknown food ids skipped", zap.Int64("menu_id", menuID), zap.Int("requested", len(clean)), zap.Int("stored", n))
	}
	return n, nil
}

// TodayMeals returns the items served today.
func (s *Service) TodayMeals(ctx context.Context, now time.Time) (Meals, error) {
	day := DayName(now.In(s.schedule.Location()).Weekday())
	rows, err := s.store.Rows(ctx, day)
	if err != nil {
		return Meals{}, err
	}
	m := newMeals()
	for _, row := range rows {
		if row.Item != nil {
			m.add(row.Meal, *row.Item)
		}
	}
	return m, nil
}

// MealTotal is the price of meal k on weekday day.
func (s *Service) MealTotal(ctx context.Context, day time.Weekday, k meal.Kind) (int64, error) {
	if !k.Valid() {
		return 0, meal.ErrInvalidMeal
	}
	return s.store.MealTotal(ctx, DayName(day), k)
}

// Foods returns the catalogue.
func (s *Service) Foods(ctx context.Context) ([]Food, error) {
	return s.store.Foods(ctx)
}

// AddFood adds a catalogue entry.
func (s *Service) AddFood(ctx context.Context, name string, price int64) (Food, error) {
	name = strings.TrimSpace(name)
	if name == "" || price < 0 {
		return Food{}, fmt.Errorf("%w: name is required and price must not be negative", ErrInvalidFood)
	}
	return s.store.AddFood(ctx, Food{Name: name, Price: price})
}

// Food returns one catalogue entry.
func (s *Service) Food(ctx context.Context, foodID int64) (Food, error) {
	return s.store.Food(ctx, foodID)
}

// SetFoodImage records the hosted image of a food.
func (s *Service) SetFoodImage(ctx context.Context, foodID int64, url string) error {
	if url == "" {
		return fmt.Errorf("%w: image url is required", ErrInvalidFood)
	}
	return s.store.SetFoodImage(ctx, foodID, url)
}
