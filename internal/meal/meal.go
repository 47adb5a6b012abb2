// Package meal defines the three daily meals and the cutoff schedule that decides
// until when each of them can be marked.
package meal

import (
	"errors"
	"fmt"
	"strings"
)

// ErrInvalidMeal is returned for any meal name other than breakfast, lunch or dinner.
var ErrInvalidMeal = errors.New("invalid meal")

// Kind is one of the three daily meals. The zero value is Breakfast.
type Kind int

const (
	Breakfast Kind = iota
	Lunch
	Dinner
)

// Kinds lists every meal in serving order.
var Kinds = [...]Kind{Breakfast, Lunch, Dinner}

var names = [...]string{"breakfast", "lunch", "dinner"}

func (k Kind) String() string {
	if !k.Valid() {
		return fmt.Sprintf("meal(%d)", int(k))
	}
	return names[k]
}

// Valid reports whether k is one of the known meals.
func (k Kind) Valid() bool {
	return k >= Breakfast && k <= Dinner
}

// ParseKind accepts the lower-case wire names, ignoring case and surrounding spaces.
func ParseKind(s string) (Kind, error) {
	s = strings.ToLower(strings.TrimSpace(s))
	for i, n := range names {
		if n == s {
			return Kind(i), nil
		}
	}
	return 0, fmt.Errorf("%w: %q", ErrInvalidMeal, s)
}

// MarshalText encodes the wire name so Kind works as a JSON value and map key.
func (k Kind) MarshalText() ([]byte, error) {
	if !k.Valid() {
		return nil, ErrInvalidMeal
	}
	return []byte(names[k]), nil
}

// UnmarshalText is the inverse of MarshalText.
func (k *Kind) UnmarshalText(b []byte) error {
	parsed, err := ParseKind(string(b))
	if err != nil {
		return err
	}
	*k = parsed
	return nil
}
