package cli

import (
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/joho/godotenv"
	"github.com/rs/zerolog"
	"github.com/spf13/cobra"

	"github.com/smokyabdulrahman/prayer-menubar/internal/audio"
	"github.com/smokyabdulrahman/prayer-menubar/internal/config"
	"github.com/smokyabdulrahman/prayer-menubar/internal/daemon"
	"github.com/smokyabdulrahman/prayer-menubar/internal/geo"
	"github.com/smokyabdulrahman/prayer-menubar/internal/notify"
	"github.com/smokyabdulrahman/prayer-menubar/internal/prayer"
	"github.com/smokyabdulrahman/prayer-menubar/internal/trigger"
)

var (
	flagInterval time.Duration
	flagVerbose  bool
	flagNoNotify bool
)

func newRunCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "run",
		Short: "Run the background daemon",
		Long: "Run the menu-bar daemon: keep the schedule current, play the adhan\n" +
			"at prayer times, and deliver desktop notifications. Reacts to config\n" +
			"file edits and location changes without a restart.",
		RunE: runDaemon,
	}

	cmd.Flags().DurationVar(&flagInterval, "interval", daemon.DefaultInterval, "Schedule re-evaluation interval")
	cmd.Flags().BoolVarP(&flagVerbose, "verbose", "v", false, "Enable debug logging")
	cmd.Flags().BoolVar(&flagNoNotify, "no-notify", false, "Disable desktop notifications")

	return cmd
}

func runDaemon(cmd *cobra.Command, args []string) error {
	// Optional .env for local overrides (e.g. PRAYER_AUDIO_PLAYER).
	_ = godotenv.Load()

	log := newLogger(flagVerbose)
	cfg := effectiveConfig(cmd)

	src, loc, err := newSource(cfg)
	if err != nil {
		return err
	}

	var deliverer notify.Deliverer = notify.Desktop{}
	if flagNoNotify {
		deliverer = notify.Discard{}
	}
	registry := notify.NewRegistry(deliverer, log)

	player := audio.New(cfg.SoundFile, cfg.VolumeOrDefault(), log)
	trig := trigger.New(player, registry, log)

	d := daemon.New(cfg, src, trig, registry, player, log)
	d.SetInterval(flagInterval)
	if loc.Coords != (prayer.Coordinates{}) {
		d.SetLocation(geo.Location{Latitude: loc.Coords.Latitude, Longitude: loc.Coords.Longitude})
	}

	// React to config file edits.
	cfgPath, err := config.Path()
	if err == nil {
		if watcher, werr := config.Watch(cfgPath); werr == nil {
			defer watcher.Close()
			d.WatchConfig(cfgPath, watcher.Changes())
		} else {
			log.Warn().Err(werr).Msg("config watcher unavailable")
		}
	}

	// React to network location changes when no fixed location is configured.
	ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	if cfg.Latitude == 0 && cfg.Longitude == 0 && cfg.City == "" {
		locWatcher := geo.NewWatcher(0, log)
		locWatcher.Start(ctx)
		defer locWatcher.Stop()
		d.WatchLocation(locWatcher.Updates())
	}

	log.Info().Dur("interval", flagInterval).Msg("daemon starting")
	d.Run(ctx)
	log.Info().Msg("daemon stopped")
	return nil
}

// newLogger builds the console logger used by the daemon.
func newLogger(verbose bool) zerolog.Logger {
	level := zerolog.InfoLevel
	if verbose {
		level = zerolog.DebugLevel
	}
	writer := zerolog.ConsoleWriter{Out: os.Stderr, TimeFormat: time.Kitchen}
	return zerolog.New(writer).Level(level).With().Timestamp().Logger()
}
