package notify

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/jonboulle/clockwork"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"messmate/internal/meal"
	"messmate/internal/metrics"
)

var ist = time.FixedZone("IST", 5*3600+1800)

type memStatuses struct {
	mu   sync.Mutex
	rows map[string]Status
}

func newMemStatuses() *memStatuses { return &memStatuses{rows: map[string]Status{}} }

func (m *memStatuses) Get(_ context.Context, date string) (Status, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	st, ok := m.rows[date]
	if !ok {
		st = Status{Date: date}
	}
	return st, nil
}

func (m *memStatuses) MarkSent(_ context.Context, date string, k meal.Kind) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	st, ok := m.rows[date]
	if !ok {
		st = Status{Date: date}
	}
	switch k {
	case meal.Breakfast:
		st.Breakfast = true
	case meal.Lunch:
		st.Lunch = true
	case meal.Dinner:
		st.Dinner = true
	}
	m.rows[date] = st
	return nil
}

type headcounts map[string]map[meal.Kind]int

func (h headcounts) Headcount(_ context.Context, date string, k meal.Kind) (int, error) {
	return h[date][k], nil
}

type sent struct {
	to    string
	meal  meal.Kind
	count int
}

type fakeNotifier struct {
	mu   sync.Mutex
	sent []sent
	err  error
}

func (f *fakeNotifier) SendMealSummary(_ context.Context, to string, k meal.Kind, count int) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.err != nil {
		return f.err
	}
	f.sent = append(f.sent, sent{to, k, count})
	return nil
}

func (f *fakeNotifier) all() []sent {
	f.mu.Lock()
	defer f.mu.Unlock()
	return append([]sent(nil), f.sent...)
}

type denyLocker struct{}

func (denyLocker) Acquire(context.Context, string, time.Duration) (bool, error) { return false, nil }

func newScheduler(st StatusStore, heads HeadcountSource, n Notifier, clock clockwork.Clock) *Scheduler {
	return New(meal.DefaultSchedule(ist), st, heads, n, Options{
		Recipient: "kitchen@example.com",
		Clock:     clock,
		Metrics:   metrics.NewNop(),
		Log:       zap.NewNop(),
	})
}

func TestFire_SendsOncePerDay(t *testing.T) {
	st := newMemStatuses()
	n := &fakeNotifier{}
	s := newScheduler(st, headcounts{"2026-03-11": {meal.Lunch: 4}}, n, clockwork.NewFakeClock())
	ctx := context.Background()

	outcome, err := s.Fire(ctx, meal.Lunch, "2026-03-11")
	require.NoError(t, err)
	assert.Equal(t, metrics.OutcomeSent, outcome)

	outcome, err = s.Fire(ctx, meal.Lunch, "2026-03-11")
	require.NoError(t, err)
	assert.Equal(t, metrics.OutcomeAlreadySent, outcome)

	assert.Len(t, n.all(), 1)
}

func TestFire_ZeroHeadcountWritesNothing(t *testing.T) {
	st := newMemStatuses()
	n := &fakeNotifier{}
	s := newScheduler(st, headcounts{}, n, clockwork.NewFakeClock())

	outcome, err := s.Fire(context.Background(), meal.Dinner, "2026-03-11")
	require.NoError(t, err)
	assert.Equal(t, metrics.OutcomeNoStudents, outcome)
	assert.Empty(t, n.all())

	status, err := st.Get(context.Background(), "2026-03-11")
	require.NoError(t, err)
	assert.False(t, status.Dinner)
}

func TestFire_SendErrorLeavesFlagUnset(t *testing.T) {
	st := newMemStatuses()
	n := &fakeNotifier{err: errors.New("smtp down")}
	s := newScheduler(st, headcounts{"2026-03-11": {meal.Breakfast: 2}}, n, clockwork.NewFakeClock())

	outcome, err := s.Fire(context.Background(), meal.Breakfast, "2026-03-11")
	assert.Error(t, err)
	assert.Equal(t, metrics.OutcomeFailed, outcome)

	status, err := st.Get(context.Background(), "2026-03-11")
	require.NoError(t, err)
	assert.False(t, status.Breakfast)
}

func TestFire_LockHeldElsewhere(t *testing.T) {
	n := &fakeNotifier{}
	s := New(meal.DefaultSchedule(ist), newMemStatuses(), headcounts{"2026-03-11": {meal.Lunch: 1}}, n, Options{
		Locker: denyLocker{},
		Clock:  clockwork.NewFakeClock(),
	})

	outcome, err := s.Fire(context.Background(), meal.Lunch, "2026-03-11")
	require.NoError(t, err)
	assert.Equal(t, metrics.OutcomeLocked, outcome)
	assert.Empty(t, n.all())
}

func TestScheduler_FiresAtCutoffs(t *testing.T) {
	clock := clockwork.NewFakeClockAt(time.Date(2026, 3, 11, 12, 0, 0, 0, ist))
	st := newMemStatuses()
	n := &fakeNotifier{}
	heads := headcounts{"2026-03-11": {meal.Lunch: 5}}
	s := newScheduler(st, heads, n, clock)

	s.Start(context.Background())
	defer s.Stop()
	clock.BlockUntil(3)

	// lunch at 13:15 exactly
	clock.Advance(75 * time.Minute)
	clock.BlockUntil(3)
	assert.Equal(t, []sent{{"kitchen@example.com", meal.Lunch, 5}}, n.all())
	status, err := st.Get(context.Background(), "2026-03-11")
	require.NoError(t, err)
	assert.True(t, status.Lunch)

	// dinner at 20:00 with nobody marked
	clock.Advance(6*time.Hour + 45*time.Minute)
	clock.BlockUntil(3)
	assert.Len(t, n.all(), 1)
	status, err = st.Get(context.Background(), "2026-03-11")
	require.NoError(t, err)
	assert.False(t, status.Dinner)
}

func TestScheduler_SkipsPassedCutoffsAtStartup(t *testing.T) {
	clock := clockwork.NewFakeClockAt(time.Date(2026, 3, 11, 21, 0, 0, 0, ist))
	st := newMemStatuses()
	n := &fakeNotifier{}
	heads := headcounts{
		"2026-03-11": {meal.Breakfast: 9, meal.Lunch: 9, meal.Dinner: 9},
		"2026-03-12": {meal.Breakfast: 3},
	}
	s := newScheduler(st, heads, n, clock)

	s.Start(context.Background())
	defer s.Stop()
	clock.BlockUntil(3)
	assert.Empty(t, n.all())

	// next morning 08:00
	clock.Advance(11 * time.Hour)
	clock.BlockUntil(3)
	assert.Equal(t, []sent{{"kitchen@example.com", meal.Breakfast, 3}}, n.all())
	status, err := st.Get(context.Background(), "2026-03-12")
	require.NoError(t, err)
	assert.True(t, status.Breakfast)
}

func TestScheduler_StopIsIdempotent(t *testing.T) {
	clock := clockwork.NewFakeClockAt(time.Date(2026, 3, 11, 6, 0, 0, 0, ist))
	s := newScheduler(newMemStatuses(), headcounts{}, &fakeNotifier{}, clock)

	s.Start(context.Background())
	s.Start(context.Background())
	clock.BlockUntil(3)
	s.Stop()
	s.Stop()
	clock.BlockUntil(0)
}
