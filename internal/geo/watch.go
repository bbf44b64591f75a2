package geo

import (
	"context"
	"time"

	"github.com/rs/zerolog"
)

// DefaultPollInterval is how often the watcher re-checks the IP-derived
// location when no interval is given.
const DefaultPollInterval = 15 * time.Minute

// Watcher polls the geolocation API and reports location changes.
// Moving between networks (home, office, travel) changes the public IP,
// which is the only location signal available without OS location services.
type Watcher struct {
	interval time.Duration
	updates  chan Location
	cancel   context.CancelFunc
	log      zerolog.Logger

	last *Location
}

// NewWatcher creates a location watcher polling at the given interval.
// A non-positive interval uses DefaultPollInterval.
func NewWatcher(interval time.Duration, log zerolog.Logger) *Watcher {
	if interval <= 0 {
		interval = DefaultPollInterval
	}
	return &Watcher{
		interval: interval,
		updates:  make(chan Location, 1),
		log:      log,
	}
}

// Updates delivers a Location each time the detected location changes.
// Only the latest unread update is kept.
func (w *Watcher) Updates() <-chan Location {
	return w.updates
}

// Start begins polling in a background goroutine until ctx is cancelled
// or Stop is called. The first check runs immediately.
func (w *Watcher) Start(ctx context.Context) {
	ctx, w.cancel = context.WithCancel(ctx)

	go func() {
		ticker := time.NewTicker(w.interval)
		defer ticker.Stop()

		w.check(ctx)
		for {
			select {
			case <-ticker.C:
				w.check(ctx)
			case <-ctx.Done():
				return
			}
		}
	}()
}

// Stop halts polling. Safe to call before Start.
func (w *Watcher) Stop() {
	if w.cancel != nil {
		w.cancel()
	}
}

func (w *Watcher) check(ctx context.Context) {
	loc, err := Detect(ctx)
	if err != nil {
		w.log.Debug().Err(err).Msg("location check failed")
		return
	}

	if w.last != nil && w.last.Equal(*loc) {
		return
	}
	w.last = loc
	w.log.Info().
		Str("city", loc.City).
		Str("country", loc.Country).
		Msg("location changed")

	// Latest-wins: drop the stale unread update if the consumer is behind.
	select {
	case w.updates <- *loc:
	default:
		select {
		case <-w.updates:
		default:
		}
		w.updates <- *loc
	}
}
