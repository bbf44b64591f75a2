package daemon

import (
	"context"
	"errors"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/rs/zerolog"

	"github.com/smokyabdulrahman/prayer-menubar/internal/config"
	"github.com/smokyabdulrahman/prayer-menubar/internal/geo"
	"github.com/smokyabdulrahman/prayer-menubar/internal/notify"
	"github.com/smokyabdulrahman/prayer-menubar/internal/prayer"
	"github.com/smokyabdulrahman/prayer-menubar/internal/trigger"
)

var saturday = time.Date(2026, 2, 28, 0, 0, 0, 0, time.UTC)

// fakeProvider serves fixed times per date, or a fixed error.
type fakeProvider struct {
	days map[string]*prayer.Times
	err  atomic.Value // error
}

func (f *fakeProvider) fail(err error) {
	f.err.Store(err)
}

func (f *fakeProvider) Times(date time.Time, coords prayer.Coordinates, method int) (*prayer.Times, error) {
	if err, ok := f.err.Load().(error); ok && err != nil {
		return nil, err
	}
	t, ok := f.days[date.Format("2006-01-02")]
	if !ok {
		return nil, prayer.ErrUnavailable
	}
	return t, nil
}

func sampleTimes(date time.Time) *prayer.Times {
	at := func(hour, min int) time.Time {
		return time.Date(date.Year(), date.Month(), date.Day(), hour, min, 0, 0, time.UTC)
	}
	return &prayer.Times{
		Fajr:    at(5, 17),
		Sunrise: at(6, 48),
		Dhuhr:   at(12, 13),
		Asr:     at(15, 2),
		Maghrib: at(17, 39),
		Isha:    at(19, 10),
	}
}

type countingPlayer struct {
	plays atomic.Int32
}

func (p *countingPlayer) Play() error {
	p.plays.Add(1)
	return nil
}

type fakeAudio struct {
	volume  float64
	stopped bool
}

func (a *fakeAudio) SetVolume(v float64) { a.volume = v }
func (a *fakeAudio) Stop()               { a.stopped = true }

type nopDeliverer struct{}

func (nopDeliverer) Deliver(title, body string) error { return nil }

// capturingDeliverer records delivered notification titles.
type capturingDeliverer struct {
	mu     sync.Mutex
	titles []string
}

func (c *capturingDeliverer) Deliver(title, body string) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.titles = append(c.titles, title)
	return nil
}

func (c *capturingDeliverer) count(title string) int {
	c.mu.Lock()
	defer c.mu.Unlock()
	n := 0
	for _, t := range c.titles {
		if t == title {
			n++
		}
	}
	return n
}

func newTestDaemon(t *testing.T, dates ...time.Time) (*Daemon, *fakeProvider, *countingPlayer, *fakeAudio) {
	t.Helper()

	days := make(map[string]*prayer.Times)
	for _, d := range dates {
		days[d.Format("2006-01-02")] = sampleTimes(d)
	}
	provider := &fakeProvider{days: days}

	registry := notify.NewRegistry(nopDeliverer{}, zerolog.Nop())
	player := &countingPlayer{}
	trig := trigger.New(player, registry, zerolog.Nop())
	audio := &fakeAudio{}

	cfg := &config.Config{Latitude: 51.5, Longitude: -0.1}
	d := New(cfg, provider, trig, registry, audio, zerolog.Nop())
	return d, provider, player, audio
}

func at(date time.Time, hour, min int) time.Time {
	return time.Date(date.Year(), date.Month(), date.Day(), hour, min, 0, 0, time.UTC)
}

// ---------------------------------------------------------------------------
// Evaluate
// ---------------------------------------------------------------------------

func TestEvaluate_BuildsScheduleAndMenuText(t *testing.T) {
	d, _, _, _ := newTestDaemon(t, saturday)

	now := at(saturday, 10, 0)
	d.Evaluate(now)

	snap := d.Current()
	if snap.Err != nil {
		t.Fatalf("unexpected error: %v", snap.Err)
	}
	if snap.Schedule == nil {
		t.Fatal("no schedule after Evaluate")
	}
	if len(snap.Schedule.Entries) != 5 {
		t.Errorf("entries = %d, want 5", len(snap.Schedule.Entries))
	}

	// Next is Dhuhr at 12:13, 2h 13m away.
	if got := d.MenuText(now); got != "Dhuhr 2h 13m" {
		t.Errorf("MenuText = %q, want %q", got, "Dhuhr 2h 13m")
	}
}

func TestEvaluate_KeepsScheduleOnProviderFailure(t *testing.T) {
	d, provider, _, _ := newTestDaemon(t, saturday)

	d.Evaluate(at(saturday, 10, 0))
	if d.Current().Schedule == nil {
		t.Fatal("no schedule after priming Evaluate")
	}

	provider.fail(errors.New("network down"))
	now := at(saturday, 10, 1)
	d.Evaluate(now)

	snap := d.Current()
	if snap.Err == nil {
		t.Error("expected Err after provider failure")
	}
	if snap.Schedule == nil {
		t.Fatal("schedule dropped on provider failure")
	}
	// The stale schedule still drives the menu text.
	if got := d.MenuText(now); got != "Dhuhr 2h 12m" {
		t.Errorf("MenuText = %q, want %q", got, "Dhuhr 2h 12m")
	}
}

func TestEvaluate_FiresAdhanAtPrayerTime(t *testing.T) {
	d, _, player, _ := newTestDaemon(t, saturday)

	d.Evaluate(at(saturday, 12, 13))
	if got := player.plays.Load(); got != 1 {
		t.Errorf("plays = %d, want 1", got)
	}

	// Re-evaluating inside the window must not replay.
	d.Evaluate(at(saturday, 12, 13).Add(20 * time.Second))
	if got := player.plays.Load(); got != 1 {
		t.Errorf("plays after second pass = %d, want 1", got)
	}
}

func TestEvaluate_AudioDisabledInConfig(t *testing.T) {
	d, _, player, _ := newTestDaemon(t, saturday)

	off := false
	cfg := &config.Config{Latitude: 51.5, Longitude: -0.1, AudioEnabled: &off}
	d.SetConfig(cfg)

	d.Evaluate(at(saturday, 12, 13))
	if got := player.plays.Load(); got != 0 {
		t.Errorf("plays = %d, want 0 with audio disabled", got)
	}
}

func TestEvaluate_AppliesConfiguredVolume(t *testing.T) {
	d, _, _, audio := newTestDaemon(t, saturday)

	v := 0.25
	cfg := &config.Config{Latitude: 51.5, Longitude: -0.1, Volume: &v}
	d.SetConfig(cfg)

	d.Evaluate(at(saturday, 10, 0))
	if audio.volume != 0.25 {
		t.Errorf("volume = %v, want 0.25", audio.volume)
	}
}

func TestEvaluate_ArmsNotifications(t *testing.T) {
	d, _, _, _ := newTestDaemon(t, saturday)

	registry := notify.NewRegistry(nopDeliverer{}, zerolog.Nop())
	player := &countingPlayer{}
	d.trig = trigger.New(player, registry, zerolog.Nop())
	d.registry = registry

	// At 10:00 Fajr has passed; four prayers remain, each with an adhan
	// and an iqama notification.
	d.Evaluate(at(saturday, 10, 0))
	if got := len(registry.Pending()); got != 8 {
		t.Errorf("pending notifications = %d, want 8", got)
	}
}

func TestEvaluate_DeliversNotificationsAcrossTicks(t *testing.T) {
	d, _, _, _ := newTestDaemon(t, saturday)

	captured := &capturingDeliverer{}
	registry := notify.NewRegistry(captured, zerolog.Nop())
	player := &countingPlayer{}
	d.trig = trigger.New(player, registry, zerolog.Nop())
	d.registry = registry

	// A pass before the Dhuhr adhan (12:13) arms the requests.
	d.Evaluate(at(saturday, 12, 13).Add(-10 * time.Second))
	if got := captured.count("Dhuhr"); got != 0 {
		t.Fatalf("adhan delivered before its fire time: %d", got)
	}

	// The adhan instant falls between ticks. The next pass re-arms only
	// future events, so it must deliver the now-due request before
	// replacing the armed set.
	d.Evaluate(at(saturday, 12, 13).Add(20 * time.Second))
	if got := captured.count("Dhuhr"); got != 1 {
		t.Errorf("adhan deliveries = %d, want 1", got)
	}

	// Same across the iqama instant (12:28).
	d.Evaluate(at(saturday, 12, 28).Add(-10 * time.Second))
	d.Evaluate(at(saturday, 12, 28).Add(20 * time.Second))
	if got := captured.count("Dhuhr Iqama"); got != 1 {
		t.Errorf("iqama deliveries = %d, want 1", got)
	}

	// Further passes never redeliver a consumed request.
	d.Evaluate(at(saturday, 12, 30))
	if got := captured.count("Dhuhr"); got != 1 {
		t.Errorf("adhan deliveries after extra pass = %d, want 1", got)
	}
	if got := captured.count("Dhuhr Iqama"); got != 1 {
		t.Errorf("iqama deliveries after extra pass = %d, want 1", got)
	}
}

func TestStopAudio(t *testing.T) {
	d, _, _, audio := newTestDaemon(t, saturday)

	d.StopAudio()
	if !audio.stopped {
		t.Error("StopAudio did not reach the audio control")
	}
}

// ---------------------------------------------------------------------------
// Location resolution
// ---------------------------------------------------------------------------

func TestCoords_ConfigWinsOverDetected(t *testing.T) {
	d, _, _, _ := newTestDaemon(t, saturday)

	d.SetLocation(geo.Location{Latitude: 40.7, Longitude: -74.0, City: "New York"})

	d.mu.Lock()
	coords := d.coordsLocked()
	d.mu.Unlock()

	if coords.Latitude != 51.5 || coords.Longitude != -0.1 {
		t.Errorf("coords = %+v, want config values (51.5, -0.1)", coords)
	}
}

func TestCoords_DetectedUsedWhenConfigEmpty(t *testing.T) {
	d, _, _, _ := newTestDaemon(t, saturday)
	d.SetConfig(&config.Config{})

	d.SetLocation(geo.Location{Latitude: 40.7, Longitude: -74.0, City: "New York"})

	d.mu.Lock()
	coords := d.coordsLocked()
	d.mu.Unlock()

	if coords.Latitude != 40.7 || coords.Longitude != -74.0 {
		t.Errorf("coords = %+v, want detected values (40.7, -74.0)", coords)
	}
}

// ---------------------------------------------------------------------------
// Run loop
// ---------------------------------------------------------------------------

func TestRun_EvaluatesAndStopsOnCancel(t *testing.T) {
	d, _, _, _ := newTestDaemon(t, saturday)
	d.SetInterval(10 * time.Millisecond)
	d.now = func() time.Time { return saturday.Add(10 * time.Hour) }

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan struct{})
	go func() {
		d.Run(ctx)
		close(done)
	}()

	deadline := time.After(2 * time.Second)
	for d.Current().Schedule == nil {
		select {
		case <-deadline:
			t.Fatal("Run never produced a schedule")
		case <-time.After(5 * time.Millisecond):
		}
	}

	cancel()
	select {
	case <-done:
	case <-time.After(2 * time.Second):
		t.Fatal("Run did not stop on cancel")
	}
}

func TestRun_ReactsToLocationUpdate(t *testing.T) {
	d, _, _, _ := newTestDaemon(t, saturday)
	d.SetConfig(&config.Config{})
	d.SetInterval(time.Hour) // only the update channel can trigger a pass

	updates := make(chan geo.Location, 1)
	d.WatchLocation(updates)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	go d.Run(ctx)

	updates <- geo.Location{Latitude: 40.7, Longitude: -74.0, City: "New York"}

	deadline := time.After(2 * time.Second)
	for {
		d.mu.Lock()
		loc := d.location
		d.mu.Unlock()
		if loc != nil && loc.City == "New York" {
			return
		}
		select {
		case <-deadline:
			t.Fatal("location update never applied")
		case <-time.After(5 * time.Millisecond):
		}
	}
}
