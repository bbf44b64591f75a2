package prayer

import (
	"errors"
	"time"
)

// ErrUnavailable is returned by a Provider when no prayer times exist for
// the given geometry and date (e.g. polar latitudes in summer).
var ErrUnavailable = errors.New("prayer times unavailable for this location and date")

// Coordinates is a geographic position.
type Coordinates struct {
	Latitude  float64
	Longitude float64
}

// Times holds the instant of each canonical event for one calendar day,
// in that day's local timezone. Immutable once built.
type Times struct {
	Fajr    time.Time
	Sunrise time.Time
	Dhuhr   time.Time
	Asr     time.Time
	Maghrib time.Time
	Isha    time.Time
}

// Provider computes the canonical event times for a date. The production
// implementation lives in internal/astro; tests supply fakes.
type Provider interface {
	Times(date time.Time, coords Coordinates, method int) (*Times, error)
}

// At returns the instant of the given kind.
func (t *Times) At(k Kind) time.Time {
	switch k {
	case Fajr:
		return t.Fajr
	case Sunrise:
		return t.Sunrise
	case Dhuhr:
		return t.Dhuhr
	case Asr:
		return t.Asr
	case Maghrib:
		return t.Maghrib
	default:
		return t.Isha
	}
}

// NextKind returns the earliest kind whose instant is strictly after now.
// The second return value is false once every event of the day has passed.
// Canonical order breaks ties, so the result is stable.
func (t *Times) NextKind(now time.Time) (Kind, bool) {
	var (
		best  Kind
		bestT time.Time
		found bool
	)
	for _, k := range CanonicalOrder {
		at := t.At(k)
		if !at.After(now) {
			continue
		}
		if !found || at.Before(bestT) {
			best, bestT, found = k, at, true
		}
	}
	return best, found
}
