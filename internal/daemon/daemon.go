// Package daemon coordinates the background run loop: it rebuilds the
// prayer schedule, fires the adhan trigger, dispatches notifications,
// and keeps the menu bar text current.
package daemon

import (
	"context"
	"sync"
	"time"

	"github.com/rs/zerolog"

	"github.com/smokyabdulrahman/prayer-menubar/internal/config"
	"github.com/smokyabdulrahman/prayer-menubar/internal/geo"
	"github.com/smokyabdulrahman/prayer-menubar/internal/notify"
	"github.com/smokyabdulrahman/prayer-menubar/internal/prayer"
	"github.com/smokyabdulrahman/prayer-menubar/internal/trigger"
)

// DefaultInterval is the schedule re-evaluation cadence.
const DefaultInterval = 30 * time.Second

// AudioControl is the subset of the audio player the daemon drives.
type AudioControl interface {
	SetVolume(v float64)
	Stop()
}

// Snapshot is a point-in-time view of the daemon's state.
type Snapshot struct {
	Schedule  *prayer.Schedule
	MenuText  string
	Err       error
	UpdatedAt time.Time
}

// Daemon runs the periodic evaluation loop.
type Daemon struct {
	mu       sync.Mutex
	cfg      *config.Config
	cfgPath  string
	location *geo.Location

	builder  *prayer.Builder
	trig     *trigger.Scheduler
	registry *notify.Registry
	audio    AudioControl
	log      zerolog.Logger

	interval time.Duration
	now      func() time.Time

	// External event sources; nil channels simply never fire.
	locUpdates <-chan geo.Location
	cfgChanges <-chan struct{}

	schedule *prayer.Schedule
	lastErr  error
	updated  time.Time
}

// New creates a Daemon. The audio control may be nil when the adhan cue
// is unavailable.
func New(cfg *config.Config, provider prayer.Provider, trig *trigger.Scheduler, registry *notify.Registry, audio AudioControl, log zerolog.Logger) *Daemon {
	return &Daemon{
		cfg:      cfg,
		builder:  prayer.NewBuilder(provider),
		trig:     trig,
		registry: registry,
		audio:    audio,
		log:      log,
		interval: DefaultInterval,
		now:      time.Now,
	}
}

// SetInterval overrides the evaluation cadence. Must be called before Run.
func (d *Daemon) SetInterval(interval time.Duration) {
	d.interval = interval
}

// WatchLocation subscribes the run loop to location updates.
func (d *Daemon) WatchLocation(updates <-chan geo.Location) {
	d.locUpdates = updates
}

// WatchConfig subscribes the run loop to config file changes, reloading
// from path when one arrives.
func (d *Daemon) WatchConfig(path string, changes <-chan struct{}) {
	d.cfgPath = path
	d.cfgChanges = changes
}

// Run evaluates immediately, then on every tick, location update, and
// config change until ctx is cancelled.
func (d *Daemon) Run(ctx context.Context) {
	ticker := time.NewTicker(d.interval)
	defer ticker.Stop()

	d.Evaluate(d.now())
	for {
		select {
		case <-ticker.C:
			d.Evaluate(d.now())
		case loc := <-d.locUpdates:
			d.SetLocation(loc)
			d.Evaluate(d.now())
		case <-d.cfgChanges:
			d.reloadConfig()
			d.Evaluate(d.now())
		case <-ctx.Done():
			return
		}
	}
}

// SetLocation records a detected location, used when the config has no
// explicit coordinates.
func (d *Daemon) SetLocation(loc geo.Location) {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.location = &loc
}

// SetConfig replaces the active configuration.
func (d *Daemon) SetConfig(cfg *config.Config) {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.cfg = cfg
}

// StopAudio interrupts adhan playback.
func (d *Daemon) StopAudio() {
	if d.audio != nil {
		d.audio.Stop()
	}
}

// Current returns the latest evaluation result.
func (d *Daemon) Current() Snapshot {
	d.mu.Lock()
	defer d.mu.Unlock()
	return Snapshot{
		Schedule:  d.schedule,
		MenuText:  d.menuTextLocked(d.updated),
		Err:       d.lastErr,
		UpdatedAt: d.updated,
	}
}

// MenuText returns the menu bar string for the current schedule at now.
func (d *Daemon) MenuText(now time.Time) string {
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.menuTextLocked(now)
}

func (d *Daemon) menuTextLocked(now time.Time) string {
	if d.schedule == nil {
		return ""
	}
	return prayer.MenuBarText(d.schedule.Next, d.cfg.DisplayModeOrDefault(), now, d.cfg.TimeLayout())
}

// Evaluate performs one pass: dispatch notifications that came due since
// the last pass, rebuild the schedule, run the adhan trigger, and re-arm
// notifications for the upcoming events. Dispatch runs first: re-arming
// clears the registry, and a request whose fire time fell between two
// ticks is no longer in the future, so clearing before dispatching would
// silently drop it.
// Evaluations are serialized; a failed rebuild keeps the previous
// schedule so the menu bar never goes blank on a transient error.
func (d *Daemon) Evaluate(now time.Time) {
	d.mu.Lock()
	defer d.mu.Unlock()

	d.registry.DispatchDue(now)

	cfg := d.cfg
	coords := d.coordsLocked()

	if d.audio != nil {
		d.audio.SetVolume(cfg.VolumeOrDefault())
	}

	sched, err := d.builder.Build(coords, now, cfg.MethodOrDefault(-1), cfg.Offsets(), now)
	if err != nil {
		d.lastErr = err
		d.updated = now
		d.log.Warn().Err(err).Msg("schedule rebuild failed, keeping previous")
	} else {
		d.schedule = sched
		d.lastErr = nil
		d.updated = now
		d.trig.Rearm(sched.Entries, now)
	}

	if d.schedule != nil {
		start, end := cfg.QuietWindow()
		d.trig.Evaluate(d.schedule.Entries, now, trigger.Options{
			AudioEnabled: cfg.AudioOn(),
			Quiet: trigger.QuietHours{
				Enabled:     cfg.QuietEnabled(),
				StartMinute: start,
				EndMinute:   end,
			},
		})
	}
}

// coordsLocked resolves the effective coordinates: explicit config
// values win over the detected location.
func (d *Daemon) coordsLocked() prayer.Coordinates {
	if d.cfg.Latitude != 0 || d.cfg.Longitude != 0 {
		return prayer.Coordinates{Latitude: d.cfg.Latitude, Longitude: d.cfg.Longitude}
	}
	if d.location != nil {
		return prayer.Coordinates{Latitude: d.location.Latitude, Longitude: d.location.Longitude}
	}
	return prayer.Coordinates{}
}

func (d *Daemon) reloadConfig() {
	if d.cfgPath == "" {
		return
	}
	cfg, err := config.LoadFrom(d.cfgPath)
	if err != nil {
		d.log.Warn().Err(err).Msg("config reload failed, keeping previous")
		return
	}
	d.log.Info().Msg("config reloaded")
	d.SetConfig(cfg)
}
