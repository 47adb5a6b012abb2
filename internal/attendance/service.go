package attendance

import (
	"context"
	"time"

	"go.uber.org/zap"

	"messmate/internal/expense"
	"messmate/internal/meal"
	"messmate/internal/metrics"
)

// Store is the attendance persistence used by Service.
type Store interface {
	Get(ctx context.Context, userID int64, date string) (Record, error)
	// MarkMeal reports whether this call flipped the flag and wrote charge.
	MarkMeal(ctx context.Context, userID int64, date string, k meal.Kind, charge expense.Entry) (bool, error)
	Range(ctx context.Context, userID int64, from, to string) ([]Record, error)
	PresentOn(ctx context.Context, date string) (Present, error)
	Headcount(ctx context.Context, date string, k meal.Kind) (int, error)
}

// PriceSource prices a meal from the weekly menu.
type PriceSource interface {
	MealTotal(ctx context.Context, day time.Weekday, k meal.Kind) (int64, error)
}

// Result describes the outcome of Mark.
type Result struct {
	Meal    meal.Kind `json:"meal"`
	Date    string    `json:"date"`
	Charged bool      `json:"charged"`
	Amount  int64     `json:"amount"`
}

// AlreadyMarked reports whether the meal was marked by an earlier call.
func (r Result) AlreadyMarked() bool { return !r.Charged }

// Service coordinates cutoff checks, pricing and the atomic mark.
type Service struct {
	store    Store
	prices   PriceSource
	schedule *meal.Schedule
	metrics  *metrics.Metrics
	log      *zap.Logger
}

// NewService creates a service.
func NewService(store Store, prices PriceSource, schedule *meal.Schedule, m *metrics.Metrics, log *zap.Logger) *Service {
	return &Service{store: store, prices: prices, schedule: schedule, metrics: m, log: log}
}

// Schedule returns the cutoff schedule the service gates on.
func (s *Service) Schedule() *meal.Schedule { return s.schedule }

// Mark marks mealName for userID on now's local date and charges the meal's menu
// price once. Marking an already marked meal succeeds without a charge.
func (s *Service) Mark(ctx context.Context, userID int64, mealName string, now time.Time) (Result, error) {
	k, err := meal.ParseKind(mealName)
	if err != nil {
		return Result{}, err
	}
	if !s.schedule.IsMarkable(k, now) {
		s.metrics.AttendanceMarks.WithLabelValues(k.String(), metrics.OutcomeWindowClosed).Inc()
		return Result{}, ErrWindowClosed
	}

	date := s.schedule.DateKey(now)
	price, err := s.prices.MealTotal(ctx, now.In(s.schedule.Location()).Weekday(), k)
	if err != nil {
		return Result{}, err
	}

	charged, err := s.store.MarkMeal(ctx, userID, date, k, expense.MealCharge(userID, date, k, price))
	if err != nil {
		s.log.Error("mark attendance", zap.Int64("user_id", userID), zap.Stringer("meal", k), zap.Error(err))
		return Result{}, err
	}

	res := Result{Meal: k, Date: date, Charged: charged}
	if !charged {
		s.metrics.AttendanceMarks.WithLabelValues(k.String(), metrics.OutcomeAlreadyMarked).Inc()
		return res, nil
	}
	res.Amount = price
	s.metrics.AttendanceMarks.WithLabelValues(k.String(), metrics.OutcomeCharged).Inc()
	s.metrics.MealCharges.WithLabelValues(k.String()).Add(float64(price))
	s.log.Info("meal marked",
		zap.Int64("user_id", userID),
		zap.Stringer("meal", k),
		zap.String("date", date),
		zap.Int64("amount", price),
	)
	return res, nil
}

// Today returns the caller's record for now's local date.
func (s *Service) Today(ctx context.Context, userID int64, now time.Time) (Record, error) {
	return s.store.Get(ctx, userID, s.schedule.DateKey(now))
}

// Weekly returns the number of meals marked on each day of now's week, Monday first.
func (s *Service) Weekly(ctx context.Context, userID int64, now time.Time) ([7]int, error) {
	var counts [7]int
	days := s.schedule.Week(now)
	keys := make(map[string]int, len(days))
	for i, d := range days {
		keys[s.schedule.DateKey(d)] = i
	}
	records, err := s.store.Range(ctx, userID, s.schedule.DateKey(days[0]), s.schedule.DateKey(days[6]))
	if err != nil {
		return counts, err
	}
	for _, rec := range records {
		if i, ok := keys[rec.Date]; ok {
			counts[i] = rec.Count()
		}
	}
	return counts, nil
}

// PresentToday lists the students marked for each meal today.
func (s *Service) PresentToday(ctx context.Context, now time.Time) (Present, error) {
	return s.store.PresentOn(ctx, s.schedule.DateKey(now))
}

// Headcount counts the students marked for k on date.
func (s *Service) Headcount(ctx context.Context, date string, k meal.Kind) (int, error) {
	return s.store.Headcount(ctx, date, k)
}
