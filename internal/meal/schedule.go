package meal

import (
	"fmt"
	"time"
)

// DateLayout is the calendar-day key used by attendance, expenses and email status.
const DateLayout = "2006-01-02"

// Cutoff is a wall-clock deadline. Marking is allowed up to and including
// the first second of the cutoff minute.
type Cutoff struct {
	Hour   int
	Minute int
}

// ParseCutoff parses "HH:MM" in 24h form.
func ParseCutoff(s string) (Cutoff, error) {
	t, err := time.Parse("15:04", s)
	if err != nil {
		return Cutoff{}, fmt.Errorf("parse cutoff %q: %w", s, err)
	}
	return Cutoff{Hour: t.Hour(), Minute: t.Minute()}, nil
}

func (c Cutoff) String() string {
	return fmt.Sprintf("%02d:%02d", c.Hour, c.Minute)
}

// Schedule maps every meal to its cutoff in a single fixed location.
// All comparisons convert the given instant into that location first.
type Schedule struct {
	loc     *time.Location
	cutoffs [len(Kinds)]Cutoff
}

// NewSchedule builds a schedule. A nil location means UTC.
func NewSchedule(loc *time.Location, breakfast, lunch, dinner Cutoff) *Schedule {
	if loc == nil {
		loc = time.UTC
	}
	return &Schedule{loc: loc, cutoffs: [len(Kinds)]Cutoff{breakfast, lunch, dinner}}
}

// DefaultSchedule is 08:00 / 13:15 / 20:00 in loc.
func DefaultSchedule(loc *time.Location) *Schedule {
	return NewSchedule(loc, Cutoff{8, 0}, Cutoff{13, 15}, Cutoff{20, 0})
}

// ParseSchedule loads the timezone and the three "HH:MM" cutoffs.
func ParseSchedule(tz, breakfast, lunch, dinner string) (*Schedule, error) {
	loc, err := time.LoadLocation(tz)
	if err != nil {
		return nil, fmt.Errorf("load timezone %q: %w", tz, err)
	}
	var cs [len(Kinds)]Cutoff
	for i, raw := range []string{breakfast, lunch, dinner} {
		c, err := ParseCutoff(raw)
		if err != nil {
			return nil, fmt.Errorf("%s: %w", Kind(i), err)
		}
		cs[i] = c
	}
	for i := 1; i < len(cs); i++ {
		if minutes(cs[i]) <= minutes(cs[i-1]) {
			return nil, fmt.Errorf("%s cutoff %s must be after %s cutoff %s", Kind(i), cs[i], Kind(i-1), cs[i-1])
		}
	}
	return NewSchedule(loc, cs[0], cs[1], cs[2]), nil
}

func minutes(c Cutoff) int { return c.Hour*60 + c.Minute }

// Location returns the schedule's timezone.
func (s *Schedule) Location() *time.Location { return s.loc }

// Cutoff returns the configured cutoff of k.
func (s *Schedule) Cutoff(k Kind) Cutoff { return s.cutoffs[k] }

// CutoffOn returns k's cutoff instant on the local calendar day of day.
func (s *Schedule) CutoffOn(k Kind, day time.Time) time.Time {
	d := day.In(s.loc)
	c := s.cutoffs[k]
	return time.Date(d.Year(), d.Month(), d.Day(), c.Hour, c.Minute, 0, 0, s.loc)
}

// IsMarkable reports whether k can still be marked at now. The cutoff is
// re-derived from now's own calendar day on every call.
func (s *Schedule) IsMarkable(k Kind, now time.Time) bool {
	if !k.Valid() {
		return false
	}
	return !now.Truncate(time.Second).After(s.CutoffOn(k, now))
}

// NextMeal returns the first meal, in serving order, that can still be marked
// at now. ok is false once dinner's cutoff has passed.
func (s *Schedule) NextMeal(now time.Time) (k Kind, ok bool) {
	for _, k := range Kinds {
		if s.IsMarkable(k, now) {
			return k, true
		}
	}
	return 0, false
}

// DateKey formats t's local calendar day as YYYY-MM-DD.
func (s *Schedule) DateKey(t time.Time) string {
	return t.In(s.loc).Format(DateLayout)
}

// Today is DateKey(now) kept as a separate name for call-site readability.
func (s *Schedule) Today(now time.Time) string { return s.DateKey(now) }

// Week returns the seven local days, Monday first, of the ISO week containing now.
func (s *Schedule) Week(now time.Time) [7]time.Time {
	d := now.In(s.loc)
	midnight := time.Date(d.Year(), d.Month(), d.Day(), 0, 0, 0, 0, s.loc)
	offset := (int(midnight.Weekday()) + 6) % 7
	monday := midnight.AddDate(0, 0, -offset)
	var days [7]time.Time
	for i := range days {
		days[i] = monday.AddDate(0, 0, i)
	}
	return days
}
