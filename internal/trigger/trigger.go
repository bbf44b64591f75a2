// Package trigger decides when the adhan audio cue fires and keeps the
// notification registry armed.
//
// The fired-set guarantees the cue plays at most once per prayer per day,
// however often the evaluation tick observes the trigger window. The state
// lives for the process lifetime and is reset only by the day rollover.
package trigger

import (
	"time"

	"github.com/rs/zerolog"

	"github.com/smokyabdulrahman/prayer-menubar/internal/notify"
	"github.com/smokyabdulrahman/prayer-menubar/internal/prayer"
)

// Window is the half-window around an adhan instant in which the cue fires.
// With a 30-second tick the window is observed at least once; the fired-set
// makes extra observations harmless.
const Window = 45 * time.Second

const dateKeyLayout = "2006-01-02"

// Player starts the adhan audio cue.
type Player interface {
	Play() error
}

// QuietHours mutes the audio cue inside a daily minutes-of-day window.
// The window may wrap past midnight (e.g. 23:00 to 07:00).
type QuietHours struct {
	Enabled     bool
	StartMinute int
	EndMinute   int
}

// Contains reports whether now falls inside the quiet window.
func (q QuietHours) Contains(now time.Time) bool {
	if !q.Enabled {
		return false
	}
	minute := now.Hour()*60 + now.Minute()
	if q.StartMinute <= q.EndMinute {
		return minute >= q.StartMinute && minute < q.EndMinute
	}
	return minute >= q.StartMinute || minute < q.EndMinute
}

// State tracks which prayers have already fired today. Only the Scheduler
// mutates it; it is not safe for concurrent use and relies on the caller
// serializing evaluations.
type State struct {
	fired   map[string]struct{}
	dateKey string
}

// NewState returns an empty fired-state.
func NewState() *State {
	return &State{fired: make(map[string]struct{})}
}

// DateKey returns the calendar day the state is valid for.
func (s *State) DateKey() string {
	return s.dateKey
}

// Rollover clears the fired-set when the calendar date has changed since
// the last evaluation. It reports whether a new day started. It must run
// before any trigger check so a fresh day starts with a clean slate.
func (s *State) Rollover(now time.Time) bool {
	key := now.Format(dateKeyLayout)
	if key == s.dateKey {
		return false
	}
	s.dateKey = key
	s.fired = make(map[string]struct{})
	return true
}

// mark records a fire for the given prayer ID today. It reports whether the
// key was newly added, i.e. whether the cue should actually play.
func (s *State) mark(id string) bool {
	key := s.dateKey + "|" + id
	if _, done := s.fired[key]; done {
		return false
	}
	s.fired[key] = struct{}{}
	return true
}

// Options carries the per-evaluation settings snapshot.
type Options struct {
	AudioEnabled bool
	Quiet        QuietHours
}

// Scheduler runs the per-tick trigger evaluation and notification arming.
type Scheduler struct {
	state         *State
	player        Player
	notifications *notify.Registry
	log           zerolog.Logger
}

// New creates a Scheduler with a fresh fired-state.
func New(player Player, notifications *notify.Registry, log zerolog.Logger) *Scheduler {
	return &Scheduler{
		state:         NewState(),
		player:        player,
		notifications: notifications,
		log:           log,
	}
}

// State exposes the fired-state for status output and tests.
func (s *Scheduler) State() *State {
	return s.state
}

// Evaluate runs one trigger pass over the displayed entries. A failure on
// one entry never aborts the pass; it is logged and the remaining entries
// are still processed.
func (s *Scheduler) Evaluate(entries []prayer.Entry, now time.Time, opts Options) {
	if rolled := s.state.Rollover(now); rolled {
		s.log.Debug().Str("date", s.state.DateKey()).Msg("trigger state reset for new day")
	}

	if !opts.AudioEnabled {
		return
	}

	for _, e := range entries {
		diff := now.Sub(e.Adhan)
		if diff < 0 {
			diff = -diff
		}
		if diff >= Window {
			continue
		}
		if !s.state.mark(e.ID) {
			continue
		}

		if opts.Quiet.Contains(now) {
			// Marked fired but muted, so the cue does not play later when
			// the quiet window ends mid-trigger-window.
			s.log.Info().Str("prayer", e.ID).Msg("adhan muted by quiet hours")
			continue
		}

		if err := s.player.Play(); err != nil {
			s.log.Error().Err(err).Str("prayer", e.ID).Msg("adhan playback failed")
			continue
		}
		s.log.Info().Str("prayer", e.ID).Time("adhan", e.Adhan).Msg("adhan cue fired")
	}
}

// Rearm replaces all armed notifications with two per future event: one at
// the adhan instant and one at the iqama instant. Stable IDs make the
// replacement idempotent across rebuilds.
func (s *Scheduler) Rearm(entries []prayer.Entry, now time.Time) {
	s.notifications.ClearAll()

	for _, e := range entries {
		if e.Adhan.After(now) {
			s.notifications.Arm(
				"adhan-"+e.ID,
				e.Adhan,
				e.DisplayName,
				"It's time for "+e.DisplayName+" prayer",
				now,
			)
		}
		if e.Iqama.After(now) {
			s.notifications.Arm(
				"iqama-"+e.ID,
				e.Iqama,
				e.DisplayName+" Iqama",
				"Iqama for "+e.DisplayName+" - prayer is starting",
				now,
			)
		}
	}
}
