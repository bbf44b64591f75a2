// Command prayer-statusline is a one-shot status-bar companion: it prints
// the same text the menu bar would show and exits. Wire it into tmux,
// polybar, or any status line that runs a command on an interval.
//
// Failures print nothing and exit 0 so a flaky network never breaks the
// surrounding status bar.
package main

import (
	"context"
	"flag"
	"fmt"
	"time"

	"github.com/rs/zerolog"

	"github.com/smokyabdulrahman/prayer-menubar/internal/api"
	"github.com/smokyabdulrahman/prayer-menubar/internal/astro"
	"github.com/smokyabdulrahman/prayer-menubar/internal/cache"
	"github.com/smokyabdulrahman/prayer-menubar/internal/geo"
	"github.com/smokyabdulrahman/prayer-menubar/internal/prayer"
)

// version is set at build time via ldflags:
//
//	go build -ldflags "-X main.version=v1.0.0"
var version = "dev"

func main() {
	// Location flags
	latitude := flag.Float64("latitude", 0, "Latitude for prayer time calculation")
	longitude := flag.Float64("longitude", 0, "Longitude for prayer time calculation")
	city := flag.String("city", "", "City name (alternative to coordinates)")
	country := flag.String("country", "", "Country code (used with --city)")

	// Calculation flags
	method := flag.Int("method", -1, "Calculation method ID (0-23). -1 for API default.")

	// Display flags
	mode := flag.String("display-mode", prayer.ModeNameAndCountdown, "Display mode: name-and-countdown, countdown, name-and-time, or icon")
	timeFormat := flag.String("time-format", "24h", "Time format: 12h or 24h")

	// Cache flags
	cacheDir := flag.String("cache-dir", "", "Cache directory (default: ~/.cache/prayer-menubar/)")

	// Info flags
	showVersion := flag.Bool("version", false, "Print version and exit")

	flag.Parse()

	if *showVersion {
		fmt.Printf("prayer-statusline %s\n", version)
		return
	}

	text, err := run(*latitude, *longitude, *city, *country, *method, *mode, *timeFormat, *cacheDir)
	if err != nil {
		// Status bars render whatever we print verbatim; an error message
		// there is worse than a blank segment.
		return
	}
	fmt.Print(text)
}

func run(lat, lon float64, city, country string, method int, mode, timeFmt, cacheDir string) (string, error) {
	goTimeFmt := "15:04" // 24h
	if timeFmt == "12h" {
		goTimeFmt = "3:04 PM"
	}

	c, err := cache.New(cacheDir)
	if err != nil {
		// Cache init failure is non-fatal; we just skip caching.
		c = nil
	}

	coords := prayer.Coordinates{Latitude: lat, Longitude: lon}
	if coords == (prayer.Coordinates{}) && city == "" {
		coords, err = autoCoords(c)
		if err != nil {
			return "", err
		}
	}

	src := astro.NewSource(api.NewClient(), c, zerolog.Nop())
	src.City = city
	src.Country = country

	now := time.Now()
	sched, err := prayer.NewBuilder(src).Build(coords, now, method, prayer.DefaultOffsets(), now)
	if err != nil {
		return "", err
	}

	return prayer.MenuBarText(sched.Next, mode, now, goTimeFmt), nil
}

// autoCoords resolves coordinates from the geo cache, falling back to
// IP-based detection.
func autoCoords(c *cache.Cache) (prayer.Coordinates, error) {
	if c != nil {
		if cached := c.LoadGeo(); cached != nil {
			return prayer.Coordinates{Latitude: cached.Latitude, Longitude: cached.Longitude}, nil
		}
	}

	detected, err := geo.Detect(context.Background())
	if err != nil {
		return prayer.Coordinates{}, fmt.Errorf("no location specified and auto-detection failed: %w", err)
	}
	if c != nil {
		_ = c.SaveGeo(detected) // best-effort
	}
	return prayer.Coordinates{Latitude: detected.Latitude, Longitude: detected.Longitude}, nil
}
