package expense

import (
	"context"
	"time"

	"go.uber.org/zap"

	"messmate/internal/meal"
)

// Store is the persistence used by Service.
type Store interface {
	Insert(ctx context.Context, e Entry) (Entry, error)
	Sum(ctx context.Context, userID int64, from, to string) (int64, error)
	SumByCategory(ctx context.Context, userID int64, from, to string) (map[string]int64, error)
	ListOn(ctx context.Context, userID int64, date string) ([]Entry, error)
}

// Totals aggregates one period.
type Totals struct {
	Period     Period           `json:"period"`
	From       string           `json:"from"`
	To         string           `json:"to"`
	Total      int64            `json:"total"`
	ByCategory map[string]int64 `json:"by_category"`
	Today      []Entry          `json:"today"`
}

// Summary is the spend of the current day, week, month and year.
type Summary struct {
	Today int64 `json:"today"`
	Week  int64 `json:"week"`
	Month int64 `json:"month"`
	Year  int64 `json:"year"`
}

// Service exposes the ledger.
type Service struct {
	store    Store
	schedule *meal.Schedule
	log      *zap.Logger
}

// NewService creates a service.
func NewService(store Store, schedule *meal.Schedule, log *zap.Logger) *Service {
	return &Service{store: store, schedule: schedule, log: log}
}

// Add records a manual entry. An empty date means today.
func (s *Service) Add(ctx context.Context, e Entry, now time.Time) (Entry, error) {
	if e.Date == "" {
		e.Date = s.schedule.DateKey(now)
	}
	if err := e.validate(); err != nil {
		return Entry{}, err
	}
	saved, err := s.store.Insert(ctx, e)
	if err != nil {
		return Entry{}, err
	}
	s.log.Info("expense added",
		zap.Int64("user_id", saved.UserID),
		zap.String("item", saved.ItemName),
		zap.Int64("price", saved.Price),
	)
	return saved, nil
}

// Totals aggregates the user's spend over the period containing now.
func (s *Service) Totals(ctx context.Context, userID int64, p Period, now time.Time) (Totals, error) {
	from, to, err := p.Range(s.schedule, now)
	if err != nil {
		return Totals{}, err
	}
	total, err := s.store.Sum(ctx, userID, from, to)
	if err != nil {
		return Totals{}, err
	}
	byCategory, err := s.store.SumByCategory(ctx, userID, from, to)
	if err != nil {
		return Totals{}, err
	}
	today, err := s.store.ListOn(ctx, userID, s.schedule.DateKey(now))
	if err != nil {
		return Totals{}, err
	}
	if today == nil {
		today = []Entry{}
	}
	return Totals{
		Period:     p,
		From:       from,
		To:         to,
		Total:      total,
		ByCategory: byCategory,
		Today:      today,
	}, nil
}

// Summary totals the user's spend today and in the current week, month and year.
func (s *Service) Summary(ctx context.Context, userID int64, now time.Time) (Summary, error) {
	var sum Summary
	today := s.schedule.DateKey(now)
	var err error
	if sum.Today, err = s.store.Sum(ctx, userID, today, today); err != nil {
		return Summary{}, err
	}
	for _, target := range []struct {
		p   Period
		dst *int64
	}{{Week, &sum.Week}, {Month, &sum.Month}, {Year, &sum.Year}} {
		from, to, err := target.p.Range(s.schedule, now)
		if err != nil {
			return Summary{}, err
		}
		if *target.dst, err = s.store.Sum(ctx, userID, from, to); err != nil {
			return Summary{}, err
		}
	}
	return sum, nil
}
