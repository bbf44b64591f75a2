// Package astro resolves a day's adhan times from the Al Adhan API,
// caching each day on disk so the menu bar keeps working offline.
package astro

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/rs/zerolog"

	"github.com/smokyabdulrahman/prayer-menubar/internal/api"
	"github.com/smokyabdulrahman/prayer-menubar/internal/cache"
	"github.com/smokyabdulrahman/prayer-menubar/internal/prayer"
)

const fetchTimeout = 15 * time.Second

// Source fetches prayer times from the Al Adhan API with a file cache
// in front. It implements prayer.Provider.
type Source struct {
	client *api.Client
	cache  *cache.Cache
	log    zerolog.Logger

	// City and Country, when set, make lookups go through the
	// city-based API endpoint instead of coordinates.
	City    string
	Country string
}

// NewSource creates a Source backed by the given client and cache.
// The cache may be nil to disable caching.
func NewSource(client *api.Client, c *cache.Cache, log zerolog.Logger) *Source {
	return &Source{client: client, cache: c, log: log}
}

// Times returns the adhan times for the given date and location.
// Failures to reach the API with no usable cache are reported as
// prayer.ErrUnavailable.
func (s *Source) Times(date time.Time, coords prayer.Coordinates, method int) (*prayer.Times, error) {
	entry, err := s.lookup(date, coords, method)
	if err != nil {
		return nil, err
	}

	loc := s.location(entry.Meta.Timezone)
	return parseTimings(entry.Timings, date, loc)
}

// DayInfo returns the calendar metadata (Hijri and Gregorian dates) for
// the given date and location.
func (s *Source) DayInfo(date time.Time, coords prayer.Coordinates, method int) (*api.DateInfo, error) {
	entry, err := s.lookup(date, coords, method)
	if err != nil {
		return nil, err
	}
	return &entry.Info, nil
}

func (s *Source) lookup(date time.Time, coords prayer.Coordinates, method int) (*cache.TimingsEntry, error) {
	if s.cache != nil {
		if entry := s.cache.LoadTimings(date, coords.Latitude, coords.Longitude, s.City, s.Country, method); entry != nil {
			return entry, nil
		}
	}

	ctx, cancel := context.WithTimeout(context.Background(), fetchTimeout)
	defer cancel()

	var resp *api.Response
	var err error
	if s.City != "" {
		resp, err = s.client.FetchByCity(ctx, date, s.City, s.Country, method)
	} else {
		resp, err = s.client.FetchByCoordinates(ctx, date, coords.Latitude, coords.Longitude, method)
	}
	if err != nil {
		return nil, fmt.Errorf("%w: %v", prayer.ErrUnavailable, err)
	}

	if s.cache != nil {
		if err := s.cache.SaveTimings(date, coords.Latitude, coords.Longitude, s.City, s.Country, method, resp); err != nil {
			s.log.Warn().Err(err).Msg("failed to cache timings")
		}
	}

	return &cache.TimingsEntry{
		Date:    date.Format("2006-01-02"),
		Method:  method,
		Timings: resp.Data.Timings,
		Info:    resp.Data.Date,
		Meta:    resp.Data.Meta,
	}, nil
}

// location resolves the API's timezone name, falling back to the local
// timezone when it is missing or unknown.
func (s *Source) location(tz string) *time.Location {
	if tz == "" {
		return time.Local
	}
	loc, err := time.LoadLocation(tz)
	if err != nil {
		s.log.Warn().Str("timezone", tz).Msg("unknown timezone, using local")
		return time.Local
	}
	return loc
}

func parseTimings(t api.Timings, date time.Time, loc *time.Location) (*prayer.Times, error) {
	var times prayer.Times
	fields := []struct {
		name string
		raw  string
		dst  *time.Time
	}{
		{"Fajr", t.Fajr, &times.Fajr},
		{"Sunrise", t.Sunrise, &times.Sunrise},
		{"Dhuhr", t.Dhuhr, &times.Dhuhr},
		{"Asr", t.Asr, &times.Asr},
		{"Maghrib", t.Maghrib, &times.Maghrib},
		{"Isha", t.Isha, &times.Isha},
	}

	for _, f := range fields {
		parsed, err := parseTimeStr(f.raw, date, loc)
		if err != nil {
			return nil, fmt.Errorf("failed to parse time for %s (%q): %w", f.name, f.raw, err)
		}
		*f.dst = parsed
	}

	return &times, nil
}

// parseTimeStr parses a time string like "15:02" or "15:02 (BST)" into a
// time.Time on the given date in the given location.
func parseTimeStr(raw string, date time.Time, loc *time.Location) (time.Time, error) {
	// Strip timezone suffix like " (BST)" that the API sometimes appends.
	s := strings.TrimSpace(raw)
	if idx := strings.Index(s, " "); idx != -1 {
		s = s[:idx]
	}

	parts := strings.Split(s, ":")
	if len(parts) != 2 {
		return time.Time{}, fmt.Errorf("invalid time format: %q", raw)
	}

	var hour, min int
	if _, err := fmt.Sscanf(parts[0], "%d", &hour); err != nil {
		return time.Time{}, fmt.Errorf("invalid hour in %q: %w", raw, err)
	}
	if _, err := fmt.Sscanf(parts[1], "%d", &min); err != nil {
		return time.Time{}, fmt.Errorf("invalid minute in %q: %w", raw, err)
	}

	return time.Date(date.Year(), date.Month(), date.Day(), hour, min, 0, 0, loc), nil
}
