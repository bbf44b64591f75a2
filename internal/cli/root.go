// Package cli implements the prayer-menubar command tree.
package cli

import (
	"fmt"

	"github.com/smokyabdulrahman/prayer-menubar/internal/config"
	"github.com/spf13/cobra"
	"github.com/spf13/pflag"
)

// Global flags shared across all subcommands.
var (
	FlagCity        string
	FlagCountry     string
	FlagLatitude    float64
	FlagLongitude   float64
	FlagMethod      int
	FlagJSON        bool
	FlagCacheDir    string
	FlagTimeFormat  string
	FlagDisplayMode string
)

// loadedConfig holds the config loaded during PersistentPreRunE.
// Available to all subcommand handlers.
var loadedConfig *config.Config

// NewRootCmd creates the root command for the prayer-menubar CLI.
// The version parameter is set by the calling binary via ldflags.
func NewRootCmd(version string) *cobra.Command {
	rootCmd := &cobra.Command{
		Use:     "prayer-menubar",
		Short:   "Islamic prayer times for your menu bar",
		Long:    "Prayer schedule, adhan playback, and menu-bar countdown powered by the Al Adhan API.",
		Version: version,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := config.Load()
			if err != nil {
				return fmt.Errorf("failed to load config: %w", err)
			}
			loadedConfig = cfg
			return nil
		},
		// Default action: show today's schedule.
		RunE:          runToday,
		SilenceUsage:  true,
		SilenceErrors: true,
	}

	// Register global persistent flags.
	pf := rootCmd.PersistentFlags()
	pf.StringVar(&FlagCity, "city", "", "Override city (takes precedence over config)")
	pf.StringVar(&FlagCountry, "country", "", "Override country")
	pf.Float64Var(&FlagLatitude, "latitude", 0, "Override latitude")
	pf.Float64Var(&FlagLongitude, "longitude", 0, "Override longitude")
	pf.IntVar(&FlagMethod, "method", -1, "Override calculation method (0-23)")
	pf.BoolVar(&FlagJSON, "json", false, "Output as JSON (where supported)")
	pf.StringVar(&FlagCacheDir, "cache-dir", "", "Cache directory (default: ~/.cache/prayer-menubar/)")
	pf.StringVar(&FlagTimeFormat, "time-format", "", "Time format: 12h or 24h (overrides config)")
	pf.StringVar(&FlagDisplayMode, "display-mode", "", "Menu bar display mode (overrides config)")

	// Register subcommands.
	rootCmd.AddCommand(newRunCmd())
	rootCmd.AddCommand(newNextCmd())
	rootCmd.AddCommand(newConfigCmd())
	rootCmd.AddCommand(newMethodsCmd())

	return rootCmd
}

// PrintVersion prints the version string in the expected format.
func PrintVersion(version string) string {
	return fmt.Sprintf("prayer-menubar %s\n", version)
}

// effectiveConfig returns the merged configuration values,
// applying the priority: CLI flags > config file > defaults.
// It uses cobra's Changed() to detect whether a flag was explicitly set.
func effectiveConfig(cmd *cobra.Command) *config.Config {
	cfg := loadedConfig
	if cfg == nil {
		empty := config.Config{}
		cfg = &empty
	}

	flags := cmd.Flags()
	root := cmd.Root().PersistentFlags()

	if flagWasSet(flags, root, "city") {
		cfg.City = FlagCity
	}
	if flagWasSet(flags, root, "country") {
		cfg.Country = FlagCountry
	}
	if flagWasSet(flags, root, "latitude") {
		cfg.Latitude = FlagLatitude
	}
	if flagWasSet(flags, root, "longitude") {
		cfg.Longitude = FlagLongitude
	}
	if flagWasSet(flags, root, "method") {
		cfg.Method = &FlagMethod
	}
	if flagWasSet(flags, root, "cache-dir") {
		cfg.CacheDir = FlagCacheDir
	}
	if flagWasSet(flags, root, "time-format") {
		cfg.TimeFormat = FlagTimeFormat
	}
	if flagWasSet(flags, root, "display-mode") {
		cfg.DisplayMode = FlagDisplayMode
	}
	if cfg.TimeFormat == "" {
		cfg.TimeFormat = config.DefaultTimeFormat
	}

	return cfg
}

// flagWasSet checks if a flag was explicitly set on either the local or persistent flag set.
func flagWasSet(local, persistent *pflag.FlagSet, name string) bool {
	if f := local.Lookup(name); f != nil && f.Changed {
		return true
	}
	if f := persistent.Lookup(name); f != nil && f.Changed {
		return true
	}
	return false
}
