package audio

import (
	"strings"
	"testing"

	"github.com/rs/zerolog"
)

func TestPlayerArgs(t *testing.T) {
	tests := []struct {
		bin      string
		volume   float64
		contains []string
	}{
		{"/usr/bin/afplay", 0.8, []string{"-v", "0.80"}},
		{"/usr/bin/mpv", 0.8, []string{"--no-video", "--volume=80"}},
		{"/usr/bin/ffplay", 0.5, []string{"-autoexit", "50"}},
		{"/usr/bin/paplay", 1.0, []string{"--volume=65536"}},
		{"/usr/bin/aplay", 0.8, nil}, // no volume flag
	}

	for _, tt := range tests {
		t.Run(tt.bin, func(t *testing.T) {
			args := playerArgs(tt.bin, "/tmp/adhan.mp3", tt.volume)
			joined := strings.Join(args, " ")
			if args[len(args)-1] != "/tmp/adhan.mp3" {
				t.Errorf("file must be the last argument, got %v", args)
			}
			for _, want := range tt.contains {
				if !strings.Contains(joined, want) {
					t.Errorf("args %q missing %q", joined, want)
				}
			}
		})
	}
}

func TestPlay_MissingSoundFile(t *testing.T) {
	p := New("/nonexistent/adhan.mp3", 0.8, zerolog.Nop())
	if err := p.Play(); err == nil {
		t.Fatal("expected error for missing sound file")
	}
	if p.IsPlaying() {
		t.Error("player must not report playing after a failed start")
	}
}

func TestPlay_NoFileConfigured(t *testing.T) {
	p := New("", 0.8, zerolog.Nop())
	if err := p.Play(); err == nil {
		t.Fatal("expected error when no sound file is configured")
	}
}

func TestClampVolume(t *testing.T) {
	tests := []struct {
		in, want float64
	}{
		{-0.5, 0},
		{0, 0},
		{0.8, 0.8},
		{1, 1},
		{3.7, 1},
	}
	for _, tt := range tests {
		if got := clampVolume(tt.in); got != tt.want {
			t.Errorf("clampVolume(%v) = %v, want %v", tt.in, got, tt.want)
		}
	}
}

func TestStop_WithoutPlayIsSafe(t *testing.T) {
	p := New("/tmp/adhan.mp3", 0.8, zerolog.Nop())
	p.Stop() // must not panic
	if p.IsPlaying() {
		t.Error("IsPlaying after Stop")
	}
}
