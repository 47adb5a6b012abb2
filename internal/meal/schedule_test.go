package meal

import (
	"encoding/json"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var kolkata = time.FixedZone("IST", 5*3600+1800)

func at(hour, minute, second int) time.Time {
	return time.Date(2026, time.March, 11, hour, minute, second, 0, kolkata)
}

func TestSchedule_MorningTransition(t *testing.T) {
	s := DefaultSchedule(kolkata)

	next, ok := s.NextMeal(at(7, 59, 0))
	require.True(t, ok)
	assert.Equal(t, Breakfast, next)
	assert.True(t, s.IsMarkable(Breakfast, at(7, 59, 0)))

	assert.False(t, s.IsMarkable(Breakfast, at(8, 1, 0)))
	next, ok = s.NextMeal(at(8, 1, 0))
	require.True(t, ok)
	assert.Equal(t, Lunch, next)
}

func TestSchedule_CutoffBoundary(t *testing.T) {
	s := DefaultSchedule(kolkata)

	tests := []struct {
		name string
		now  time.Time
		want bool
	}{
		{"exactly at cutoff", at(13, 15, 0), true},
		{"within the cutoff second", at(13, 15, 0).Add(900 * time.Millisecond), true},
		{"one second late", at(13, 15, 1), false},
		{"next minute", at(13, 16, 0), false},
		{"early morning", at(0, 0, 0), true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, s.IsMarkable(Lunch, tt.now))
		})
	}
}

func TestSchedule_NoMealLeft(t *testing.T) {
	s := DefaultSchedule(kolkata)
	_, ok := s.NextMeal(at(20, 0, 1))
	assert.False(t, ok)
}

func TestSchedule_ConvertsIntoLocation(t *testing.T) {
	s := DefaultSchedule(kolkata)
	// 02:00 UTC is 07:30 IST
	utc := time.Date(2026, time.March, 11, 2, 0, 0, 0, time.UTC)
	assert.True(t, s.IsMarkable(Breakfast, utc))
	assert.Equal(t, "2026-03-11", s.DateKey(utc))

	// 20:00 UTC on the 11th is already the 12th in IST
	late := time.Date(2026, time.March, 11, 20, 0, 0, 0, time.UTC)
	assert.Equal(t, "2026-03-12", s.DateKey(late))
}

func TestParseSchedule(t *testing.T) {
	s, err := ParseSchedule("UTC", "08:00", "13:15", "22:00")
	require.NoError(t, err)
	assert.Equal(t, Cutoff{22, 0}, s.Cutoff(Dinner))

	_, err = ParseSchedule("UTC", "08:00", "25:00", "22:00")
	assert.Error(t, err)

	_, err = ParseSchedule("UTC", "13:00", "12:00", "22:00")
	assert.Error(t, err)

	_, err = ParseSchedule("Mars/Olympus", "08:00", "13:15", "20:00")
	assert.Error(t, err)
}

func TestSchedule_WeekStartsMonday(t *testing.T) {
	s := DefaultSchedule(kolkata)

	// 2026-03-15 is a Sunday
	days := s.Week(time.Date(2026, time.March, 15, 12, 0, 0, 0, kolkata))
	assert.Equal(t, "2026-03-09", s.DateKey(days[0]))
	assert.Equal(t, time.Monday, days[0].Weekday())
	assert.Equal(t, "2026-03-15", s.DateKey(days[6]))

	days = s.Week(time.Date(2026, time.March, 9, 0, 30, 0, 0, kolkata))
	assert.Equal(t, "2026-03-09", s.DateKey(days[0]))
}

func TestParseKind(t *testing.T) {
	k, err := ParseKind(" Lunch ")
	require.NoError(t, err)
	assert.Equal(t, Lunch, k)

	_, err = ParseKind("supper")
	assert.True(t, errors.Is(err, ErrInvalidMeal))
}

func TestKind_JSON(t *testing.T) {
	b, err := json.Marshal(map[Kind]int{Dinner: 3})
	require.NoError(t, err)
	assert.JSONEq(t, `{"dinner":3}`, string(b))

	var k Kind
	require.NoError(t, json.Unmarshal([]byte(`"breakfast"`), &k))
	assert.Equal(t, Breakfast, k)
}
