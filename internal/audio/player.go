// Package audio plays the adhan sound file through whichever command-line
// audio player the system provides.
package audio

import (
	"fmt"
	"os"
	"os/exec"
	"path/filepath"
	"strconv"
	"sync"

	"github.com/rs/zerolog"
)

// PlayerEnv overrides the audio player binary, e.g. PRAYER_AUDIO_PLAYER=mpv.
const PlayerEnv = "PRAYER_AUDIO_PLAYER"

// candidates are the known players, tried in order.
var candidates = []string{"afplay", "mpv", "ffplay", "paplay", "aplay"}

// Player spawns a system audio player for the adhan cue. Play is
// fire-and-forget and a no-op while the cue is already playing; Stop kills
// a running cue.
type Player struct {
	mu        sync.Mutex
	cmd       *exec.Cmd
	soundFile string
	volume    float64
	log       zerolog.Logger
}

// New creates a Player for the given sound file. Volume is 0 to 1.
func New(soundFile string, volume float64, log zerolog.Logger) *Player {
	return &Player{soundFile: soundFile, volume: volume, log: log}
}

// SetVolume updates the volume used for the next Play.
func (p *Player) SetVolume(v float64) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.volume = clampVolume(v)
}

// IsPlaying reports whether a cue is currently playing.
func (p *Player) IsPlaying() bool {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.cmd != nil
}

// Play starts the adhan cue. It returns immediately; playback runs in the
// background and clears the playing flag when the process exits.
func (p *Player) Play() error {
	p.mu.Lock()
	defer p.mu.Unlock()

	if p.cmd != nil {
		return nil
	}
	if p.soundFile == "" {
		return fmt.Errorf("no adhan sound file configured")
	}
	if _, err := os.Stat(p.soundFile); err != nil {
		return fmt.Errorf("adhan sound file: %w", err)
	}

	bin, args, err := playerCommand(p.soundFile, p.volume)
	if err != nil {
		return err
	}

	cmd := exec.Command(bin, args...)
	if err := cmd.Start(); err != nil {
		return fmt.Errorf("starting %s: %w", bin, err)
	}
	p.cmd = cmd
	p.log.Debug().Str("player", bin).Str("file", p.soundFile).Msg("adhan playback started")

	go func() {
		err := cmd.Wait()
		p.mu.Lock()
		if p.cmd == cmd {
			p.cmd = nil
		}
		p.mu.Unlock()
		if err != nil {
			p.log.Debug().Err(err).Msg("adhan playback ended")
		}
	}()

	return nil
}

// Stop kills a running cue, if any.
func (p *Player) Stop() {
	p.mu.Lock()
	cmd := p.cmd
	p.cmd = nil
	p.mu.Unlock()

	if cmd != nil && cmd.Process != nil {
		_ = cmd.Process.Kill()
	}
}

// playerCommand picks an available player binary and builds its argument
// list, mapping the 0-1 volume onto each player's own scale.
func playerCommand(file string, volume float64) (string, []string, error) {
	volume = clampVolume(volume)

	pick := func() (string, error) {
		if bin := os.Getenv(PlayerEnv); bin != "" {
			return exec.LookPath(bin)
		}
		for _, c := range candidates {
			if path, err := exec.LookPath(c); err == nil {
				return path, nil
			}
		}
		return "", fmt.Errorf("no audio player found (tried %v; set %s to override)", candidates, PlayerEnv)
	}

	bin, err := pick()
	if err != nil {
		return "", nil, err
	}

	return bin, playerArgs(bin, file, volume), nil
}

// playerArgs returns the player-specific arguments for file at volume.
func playerArgs(bin, file string, volume float64) []string {
	switch filepath.Base(bin) {
	case "afplay":
		return []string{"-v", strconv.FormatFloat(volume, 'f', 2, 64), file}
	case "mpv":
		return []string{"--no-video", "--really-quiet", fmt.Sprintf("--volume=%d", int(volume*100)), file}
	case "ffplay":
		return []string{"-nodisp", "-autoexit", "-loglevel", "quiet", "-volume", strconv.Itoa(int(volume * 100)), file}
	case "paplay":
		return []string{fmt.Sprintf("--volume=%d", int(volume*65536)), file}
	default:
		// aplay and unknown overrides: no portable volume flag.
		return []string{file}
	}
}

func clampVolume(v float64) float64 {
	if v < 0 {
		return 0
	}
	if v > 1 {
		return 1
	}
	return v
}
