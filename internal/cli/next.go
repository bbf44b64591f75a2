package cli

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"time"

	"github.com/rs/zerolog"
	"github.com/spf13/cobra"

	"github.com/smokyabdulrahman/prayer-menubar/internal/api"
	"github.com/smokyabdulrahman/prayer-menubar/internal/astro"
	"github.com/smokyabdulrahman/prayer-menubar/internal/cache"
	"github.com/smokyabdulrahman/prayer-menubar/internal/config"
	"github.com/smokyabdulrahman/prayer-menubar/internal/geo"
	"github.com/smokyabdulrahman/prayer-menubar/internal/prayer"
)

func newNextCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "next",
		Short: "Show the next prayer with countdown",
		Long:  "Display the next upcoming prayer (or its iqama) with a countdown.",
		RunE:  runNext,
	}
}

// resolvedLocation holds the result of location resolution.
type resolvedLocation struct {
	Coords  prayer.Coordinates
	City    string
	Country string
}

// resolveLocation determines the effective location.
// Priority: explicit coordinates > city/country > cached geolocation > IP auto-detect.
func resolveLocation(cfg *config.Config, c *cache.Cache) (resolvedLocation, error) {
	switch {
	case cfg.Latitude != 0 || cfg.Longitude != 0:
		return resolvedLocation{
			Coords: prayer.Coordinates{Latitude: cfg.Latitude, Longitude: cfg.Longitude},
		}, nil
	case cfg.City != "":
		if cfg.Country == "" {
			return resolvedLocation{}, fmt.Errorf("--country is required when using --city")
		}
		return resolvedLocation{City: cfg.City, Country: cfg.Country}, nil
	default:
		// Try cached geolocation first.
		if c != nil {
			if cached := c.LoadGeo(); cached != nil {
				return resolvedLocation{
					Coords: prayer.Coordinates{Latitude: cached.Latitude, Longitude: cached.Longitude},
				}, nil
			}
		}

		// Fall back to IP-based geolocation.
		detected, err := geo.Detect(context.Background())
		if err != nil {
			return resolvedLocation{}, fmt.Errorf("no location specified and auto-detection failed: %w", err)
		}

		if c != nil {
			_ = c.SaveGeo(detected) // best-effort
		}

		return resolvedLocation{
			Coords: prayer.Coordinates{Latitude: detected.Latitude, Longitude: detected.Longitude},
		}, nil
	}
}

// newSource wires the Al Adhan source for one-shot commands.
// A cache init failure is non-fatal; caching is just skipped.
func newSource(cfg *config.Config) (*astro.Source, resolvedLocation, error) {
	c, err := cache.New(cfg.CacheDir)
	if err != nil {
		c = nil
		fmt.Fprintf(os.Stderr, "warning: cache disabled: %v\n", err)
	}

	loc, err := resolveLocation(cfg, c)
	if err != nil {
		return nil, resolvedLocation{}, err
	}

	src := astro.NewSource(api.NewClient(), c, zerolog.Nop())
	src.City = loc.City
	src.Country = loc.Country
	return src, loc, nil
}

func runNext(cmd *cobra.Command, args []string) error {
	cfg := effectiveConfig(cmd)

	src, loc, err := newSource(cfg)
	if err != nil {
		return err
	}

	now := time.Now()
	builder := prayer.NewBuilder(src)
	sched, err := builder.Build(loc.Coords, now, cfg.MethodOrDefault(-1), cfg.Offsets(), now)
	if err != nil {
		return fmt.Errorf("failed to build schedule: %w", err)
	}
	if sched.Next == nil {
		return fmt.Errorf("could not determine next prayer")
	}

	label, remaining := prayer.CountdownInfo(*sched.Next, now)

	if FlagJSON {
		out := struct {
			Prayer    string `json:"prayer"`
			Label     string `json:"label"`
			Adhan     string `json:"adhan"`
			Iqama     string `json:"iqama"`
			Remaining string `json:"remaining"`
		}{
			Prayer:    sched.Next.ID,
			Label:     label,
			Adhan:     sched.Next.Adhan.Format(cfg.TimeLayout()),
			Iqama:     sched.Next.Iqama.Format(cfg.TimeLayout()),
			Remaining: remaining,
		}
		data, err := json.MarshalIndent(out, "", "  ")
		if err != nil {
			return fmt.Errorf("failed to marshal JSON: %w", err)
		}
		fmt.Println(string(data))
		return nil
	}

	if remaining == "Now" {
		fmt.Printf("%s now\n", label)
	} else {
		fmt.Printf("%s in %s (%s)\n", label, remaining, sched.Next.Adhan.Format(cfg.TimeLayout()))
	}
	return nil
}
