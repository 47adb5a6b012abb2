package expense

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"messmate/internal/meal"
)

var ist = time.FixedZone("IST", 5*3600+1800)

type memStore struct {
	mu      sync.Mutex
	entries []Entry
}

func (m *memStore) Insert(_ context.Context, e Entry) (Entry, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	e.ID = int64(len(m.entries) + 1)
	m.entries = append(m.entries, e)
	return e, nil
}

func (m *memStore) Sum(_ context.Context, userID int64, from, to string) (int64, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var total int64
	for _, e := range m.entries {
		if e.UserID == userID && e.Date >= from && e.Date <= to {
			total += e.Price
		}
	}
	return total, nil
}

func (m *memStore) SumByCategory(_ context.Context, userID int64, from, to string) (map[string]int64, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	res := map[string]int64{}
	for _, e := range m.entries {
		if e.UserID == userID && e.Date >= from && e.Date <= to {
			res[e.Category] += e.Price
		}
	}
	return res, nil
}

func (m *memStore) ListOn(_ context.Context, userID int64, date string) ([]Entry, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var res []Entry
	for _, e := range m.entries {
		if e.UserID == userID && e.Date == date {
			res = append(res, e)
		}
	}
	return res, nil
}

func newTestService() (*Service, *memStore) {
	st := &memStore{}
	return NewService(st, meal.DefaultSchedule(ist), zap.NewNop()), st
}

func TestAdd_Validation(t *testing.T) {
	svc, _ := newTestService()
	now := time.Date(2026, 3, 11, 10, 0, 0, 0, ist)

	tests := []struct {
		name  string
		entry Entry
	}{
		{"no item", Entry{UserID: 1, Price: 10, Category: CategoryExtraItems}},
		{"zero price", Entry{UserID: 1, ItemName: "Tea", Category: CategoryExtraItems}},
		{"no category", Entry{UserID: 1, ItemName: "Tea", Price: 10}},
		{"bad date", Entry{UserID: 1, ItemName: "Tea", Price: 10, Category: CategoryExtraItems, Date: "11/03/2026"}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := svc.Add(context.Background(), tt.entry, now)
			assert.True(t, errors.Is(err, ErrInvalidEntry))
		})
	}

	saved, err := svc.Add(context.Background(), Entry{UserID: 1, ItemName: "Tea", Price: 10, Category: CategoryExtraItems}, now)
	require.NoError(t, err)
	assert.Equal(t, "2026-03-11", saved.Date)
}

func TestPeriodRange(t *testing.T) {
	s := meal.DefaultSchedule(ist)
	// Wednesday
	now := time.Date(2026, 3, 11, 23, 30, 0, 0, ist)

	tests := []struct {
		p        Period
		from, to string
	}{
		{Week, "2026-03-09", "2026-03-15"},
		{Month, "2026-03-01", "2026-03-31"},
		{Year, "2026-01-01", "2026-12-31"},
	}
	for _, tt := range tests {
		t.Run(string(tt.p), func(t *testing.T) {
			from, to, err := tt.p.Range(s, now)
			require.NoError(t, err)
			assert.Equal(t, tt.from, from)
			assert.Equal(t, tt.to, to)
		})
	}

	_, err := ParsePeriod("decade")
	assert.True(t, errors.Is(err, ErrInvalidPeriod))
	p, err := ParsePeriod("")
	require.NoError(t, err)
	assert.Equal(t, Week, p)
}

func TestTotalsAndSummary(t *testing.T) {
	svc, st := newTestService()
	ctx := context.Background()
	now := time.Date(2026, 3, 11, 12, 0, 0, 0, ist)

	st.entries = []Entry{
		MealCharge(1, "2026-03-11", meal.Lunch, 60),
		MealCharge(1, "2026-03-10", meal.Dinner, 70),
		{UserID: 1, ItemName: "Juice", Price: 30, Category: CategoryExtraItems, Date: "2026-03-11"},
		{UserID: 1, ItemName: "Cake", Price: 50, Category: CategoryExtraItems, Date: "2026-03-02"},
		{UserID: 1, ItemName: "Sweets", Price: 200, Category: CategoryExtraItems, Date: "2026-01-20"},
		{UserID: 2, ItemName: "Juice", Price: 30, Category: CategoryExtraItems, Date: "2026-03-11"},
	}

	totals, err := svc.Totals(ctx, 1, Week, now)
	require.NoError(t, err)
	assert.Equal(t, int64(160), totals.Total)
	assert.Equal(t, map[string]int64{CategoryRegularMeals: 130, CategoryExtraItems: 30}, totals.ByCategory)
	assert.Len(t, totals.Today, 2)
	assert.Equal(t, "lunch meal", totals.Today[0].ItemName)

	sum, err := svc.Summary(ctx, 1, now)
	require.NoError(t, err)
	assert.Equal(t, Summary{Today: 90, Week: 160, Month: 210, Year: 410}, sum)
}

func TestRupees(t *testing.T) {
	p, err := Rupees(20)
	require.NoError(t, err)
	assert.Equal(t, int64(20), p)

	_, err = Rupees(12.5)
	assert.True(t, errors.Is(err, ErrInvalidEntry))

	_, err = Rupees(1e15)
	assert.True(t, errors.Is(err, ErrInvalidEntry))
}
