package prayer

import (
	"fmt"
	"time"
)

// Offsets maps each displayed prayer to its iqama offset in minutes after
// the adhan. Missing kinds fall back to the defaults; out-of-range values
// are clamped so the iqama instant never precedes the adhan.
type Offsets map[Kind]int

const (
	minOffsetMinutes = 0
	maxOffsetMinutes = 60
)

// DefaultOffsets returns the standard iqama offsets.
func DefaultOffsets() Offsets {
	return Offsets{
		Fajr:    20,
		Dhuhr:   15,
		Asr:     10,
		Maghrib: 5,
		Isha:    15,
	}
}

// Minutes returns the clamped offset for a kind, defaulting when unset.
func (o Offsets) Minutes(k Kind) int {
	m, ok := o[k]
	if !ok {
		m = DefaultOffsets()[k]
	}
	if m < minOffsetMinutes {
		return minOffsetMinutes
	}
	if m > maxOffsetMinutes {
		return maxOffsetMinutes
	}
	return m
}

// Entry is one displayed prayer for one day. Entries are created fresh on
// every build and never mutated; a new schedule replaces the old snapshot
// wholesale.
type Entry struct {
	// ID is the canonical prayer name, stable across display renames.
	ID          string
	DisplayName string
	Adhan       time.Time
	Iqama       time.Time
	IsNext      bool
}

// Schedule is the immutable result of one build: the five displayed entries
// for Date in display order, plus the next upcoming entry. Next may be a
// synthetic tomorrow-Fajr entry that is not part of Entries.
type Schedule struct {
	Date    time.Time
	Entries []Entry
	Next    *Entry
}

// Builder derives daily schedules from a Provider.
type Builder struct {
	Source Provider
}

// NewBuilder creates a Builder backed by the given provider.
func NewBuilder(source Provider) *Builder {
	return &Builder{Source: source}
}

// Build computes the schedule for date as seen at the instant now.
//
// When every adhan of the day has passed, or now is at or past the Isha
// iqama, Next is a synthetic Fajr entry computed for the following day.
// Both conditions are checked; with a large Isha offset they can disagree
// around midnight and either one forces the rollover.
//
// On provider failure the error is returned and no schedule is produced;
// callers keep showing the previous snapshot.
func (b *Builder) Build(coords Coordinates, date time.Time, method int, offsets Offsets, now time.Time) (*Schedule, error) {
	times, err := b.Source.Times(date, coords, method)
	if err != nil {
		return nil, fmt.Errorf("computing times for %s: %w", date.Format("2006-01-02"), err)
	}

	rawNext, haveNext := times.NextKind(now)
	if haveNext && rawNext == Sunrise {
		// Sunrise is not a displayed prayer; the next call to act on is Dhuhr.
		rawNext = Dhuhr
	}

	weekday := times.Fajr.Weekday()
	entries := make([]Entry, 0, len(DisplayOrder))
	for _, k := range DisplayOrder {
		adhan := times.At(k)
		entries = append(entries, Entry{
			ID:          k.String(),
			DisplayName: k.DisplayName(weekday),
			Adhan:       adhan,
			Iqama:       adhan.Add(time.Duration(offsets.Minutes(k)) * time.Minute),
		})
	}

	sched := &Schedule{Date: date, Entries: entries}

	ishaIqama := entries[len(entries)-1].Iqama
	if !haveNext || !now.Before(ishaIqama) {
		next, err := b.tomorrowFajr(coords, date, method, offsets)
		if err != nil {
			return nil, err
		}
		sched.Next = next
		return sched, nil
	}

	for i := range sched.Entries {
		if sched.Entries[i].ID == rawNext.String() {
			sched.Entries[i].IsNext = true
			sched.Next = &sched.Entries[i]
			break
		}
	}
	return sched, nil
}

// tomorrowFajr builds the synthetic next entry for the day after date.
func (b *Builder) tomorrowFajr(coords Coordinates, date time.Time, method int, offsets Offsets) (*Entry, error) {
	tomorrow := date.AddDate(0, 0, 1)
	times, err := b.Source.Times(tomorrow, coords, method)
	if err != nil {
		return nil, fmt.Errorf("computing times for %s: %w", tomorrow.Format("2006-01-02"), err)
	}

	adhan := times.Fajr
	return &Entry{
		ID:          Fajr.String(),
		DisplayName: Fajr.DisplayName(adhan.Weekday()),
		Adhan:       adhan,
		Iqama:       adhan.Add(time.Duration(offsets.Minutes(Fajr)) * time.Minute),
		IsNext:      true,
	}, nil
}
