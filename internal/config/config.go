// Package config provides the persistent settings store for prayer-menubar.
//
// Settings are stored as JSON at ~/.config/prayer-menubar/config.json
// (XDG-compliant). The merge priority is: CLI flags > config file > defaults.
// External edits to the file (including ones made by a sync tool) are picked
// up by the Watcher and trigger a re-evaluation in the daemon.
package config

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/smokyabdulrahman/prayer-menubar/internal/prayer"
)

const (
	configDirName  = "prayer-menubar"
	configFileName = "config.json"
)

// Defaults that apply when a key is unset.
const (
	DefaultTimeFormat  = "24h"
	DefaultDisplayMode = prayer.ModeNameAndCountdown
	DefaultVolume      = 0.8
	DefaultQuietStart  = 23 * 60 // 23:00
	DefaultQuietEnd    = 7 * 60  // 07:00
)

// ValidKeys lists all config keys that can be set via `config set`.
var ValidKeys = []string{
	"latitude", "longitude", "city", "country",
	"method",
	"time_format", "display_mode",
	"audio_enabled", "volume", "sound_file",
	"iqama_fajr", "iqama_dhuhr", "iqama_asr", "iqama_maghrib", "iqama_isha",
	"quiet_hours_enabled", "quiet_hours_start", "quiet_hours_end",
	"cache_dir",
}

// Config holds all user-configurable settings.
// Pointer fields distinguish "not set" from a zero value.
type Config struct {
	Latitude  float64 `json:"latitude,omitempty"`
	Longitude float64 `json:"longitude,omitempty"`
	City      string  `json:"city,omitempty"`
	Country   string  `json:"country,omitempty"`

	Method *int `json:"method,omitempty"` // calculation method preset ID, 0-23

	TimeFormat  string `json:"time_format,omitempty"`  // "12h" or "24h"
	DisplayMode string `json:"display_mode,omitempty"` // menu-bar display mode

	AudioEnabled *bool    `json:"audio_enabled,omitempty"`
	Volume       *float64 `json:"volume,omitempty"` // 0-1
	SoundFile    string   `json:"sound_file,omitempty"`

	IqamaFajr    *int `json:"iqama_fajr,omitempty"` // minutes after adhan
	IqamaDhuhr   *int `json:"iqama_dhuhr,omitempty"`
	IqamaAsr     *int `json:"iqama_asr,omitempty"`
	IqamaMaghrib *int `json:"iqama_maghrib,omitempty"`
	IqamaIsha    *int `json:"iqama_isha,omitempty"`

	QuietHoursEnabled *bool `json:"quiet_hours_enabled,omitempty"`
	QuietHoursStart   *int  `json:"quiet_hours_start,omitempty"` // minute of day
	QuietHoursEnd     *int  `json:"quiet_hours_end,omitempty"`

	CacheDir string `json:"cache_dir,omitempty"`
}

// Dir returns the config directory path.
// It respects $XDG_CONFIG_HOME if set, otherwise uses ~/.config/.
func Dir() (string, error) {
	dir := os.Getenv("XDG_CONFIG_HOME")
	if dir == "" {
		home, err := os.UserHomeDir()
		if err != nil {
			return "", fmt.Errorf("cannot determine home directory: %w", err)
		}
		dir = filepath.Join(home, ".config")
	}
	return filepath.Join(dir, configDirName), nil
}

// Path returns the full path to the config file.
func Path() (string, error) {
	dir, err := Dir()
	if err != nil {
		return "", err
	}
	return filepath.Join(dir, configFileName), nil
}

// Load reads the config file from disk.
// A missing file yields an empty Config, not an error.
func Load() (*Config, error) {
	path, err := Path()
	if err != nil {
		return nil, err
	}
	return LoadFrom(path)
}

// LoadFrom reads the config from a specific file path.
func LoadFrom(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return &Config{}, nil
		}
		return nil, fmt.Errorf("failed to read config file: %w", err)
	}

	var cfg Config
	if err := json.Unmarshal(data, &cfg); err != nil {
		return nil, fmt.Errorf("invalid config file %s: %w", path, err)
	}
	return &cfg, nil
}

// Save writes the config to disk, creating the directory if needed.
func (c *Config) Save() error {
	path, err := Path()
	if err != nil {
		return err
	}
	return c.SaveTo(path)
}

// SaveTo writes the config to a specific file path.
func (c *Config) SaveTo(path string) error {
	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return fmt.Errorf("cannot create config directory %s: %w", dir, err)
	}

	data, err := json.MarshalIndent(c, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to marshal config: %w", err)
	}
	data = append(data, '\n')

	if err := os.WriteFile(path, data, 0o644); err != nil {
		return fmt.Errorf("failed to write config file: %w", err)
	}
	return nil
}

// Reset deletes the config file.
func Reset() error {
	path, err := Path()
	if err != nil {
		return err
	}
	err = os.Remove(path)
	if err != nil && !errors.Is(err, os.ErrNotExist) {
		return fmt.Errorf("failed to delete config file: %w", err)
	}
	return nil
}

// Set sets a config key to the given value.
// It validates the key name and parses the value into the correct type.
func (c *Config) Set(key, value string) error {
	switch key {
	case "latitude":
		v, err := strconv.ParseFloat(value, 64)
		if err != nil {
			return fmt.Errorf("invalid latitude %q: must be a number", value)
		}
		if v < -90 || v > 90 {
			return fmt.Errorf("invalid latitude %q: must be between -90 and 90", value)
		}
		c.Latitude = v
	case "longitude":
		v, err := strconv.ParseFloat(value, 64)
		if err != nil {
			return fmt.Errorf("invalid longitude %q: must be a number", value)
		}
		if v < -180 || v > 180 {
			return fmt.Errorf("invalid longitude %q: must be between -180 and 180", value)
		}
		c.Longitude = v
	case "city":
		c.City = value
	case "country":
		c.Country = value
	case "method":
		v, err := strconv.Atoi(value)
		if err != nil {
			return fmt.Errorf("invalid method %q: must be an integer", value)
		}
		if v < 0 || v > 23 {
			return fmt.Errorf("invalid method %q: must be between 0 and 23", value)
		}
		c.Method = &v
	case "time_format":
		if value != "12h" && value != "24h" {
			return fmt.Errorf("invalid time_format %q: must be \"12h\" or \"24h\"", value)
		}
		c.TimeFormat = value
	case "display_mode":
		if !isValidDisplayMode(value) {
			return fmt.Errorf("invalid display_mode %q; valid modes: %s",
				value, strings.Join(prayer.DisplayModes, ", "))
		}
		c.DisplayMode = value
	case "audio_enabled":
		v, err := strconv.ParseBool(value)
		if err != nil {
			return fmt.Errorf("invalid audio_enabled %q: must be true or false", value)
		}
		c.AudioEnabled = &v
	case "volume":
		v, err := strconv.ParseFloat(value, 64)
		if err != nil {
			return fmt.Errorf("invalid volume %q: must be a number", value)
		}
		if v < 0 || v > 1 {
			return fmt.Errorf("invalid volume %q: must be between 0 and 1", value)
		}
		c.Volume = &v
	case "sound_file":
		c.SoundFile = value
	case "iqama_fajr", "iqama_dhuhr", "iqama_asr", "iqama_maghrib", "iqama_isha":
		v, err := strconv.Atoi(value)
		if err != nil {
			return fmt.Errorf("invalid %s %q: must be an integer", key, value)
		}
		if v < 0 || v > 60 {
			return fmt.Errorf("invalid %s %q: must be between 0 and 60 minutes", key, value)
		}
		c.setIqama(key, v)
	case "quiet_hours_enabled":
		v, err := strconv.ParseBool(value)
		if err != nil {
			return fmt.Errorf("invalid quiet_hours_enabled %q: must be true or false", value)
		}
		c.QuietHoursEnabled = &v
	case "quiet_hours_start", "quiet_hours_end":
		v, err := parseMinuteOfDay(value)
		if err != nil {
			return fmt.Errorf("invalid %s %q: %v", key, value, err)
		}
		if key == "quiet_hours_start" {
			c.QuietHoursStart = &v
		} else {
			c.QuietHoursEnd = &v
		}
	case "cache_dir":
		c.CacheDir = value
	default:
		return fmt.Errorf("unknown config key %q; valid keys: %s", key, strings.Join(ValidKeys, ", "))
	}
	return nil
}

// Get returns the string value of a config key.
func (c *Config) Get(key string) (string, error) {
	switch key {
	case "latitude":
		if c.Latitude == 0 {
			return "", nil
		}
		return strconv.FormatFloat(c.Latitude, 'f', -1, 64), nil
	case "longitude":
		if c.Longitude == 0 {
			return "", nil
		}
		return strconv.FormatFloat(c.Longitude, 'f', -1, 64), nil
	case "city":
		return c.City, nil
	case "country":
		return c.Country, nil
	case "method":
		return formatIntPtr(c.Method), nil
	case "time_format":
		return c.TimeFormat, nil
	case "display_mode":
		return c.DisplayMode, nil
	case "audio_enabled":
		return formatBoolPtr(c.AudioEnabled), nil
	case "volume":
		if c.Volume == nil {
			return "", nil
		}
		return strconv.FormatFloat(*c.Volume, 'f', -1, 64), nil
	case "sound_file":
		return c.SoundFile, nil
	case "iqama_fajr":
		return formatIntPtr(c.IqamaFajr), nil
	case "iqama_dhuhr":
		return formatIntPtr(c.IqamaDhuhr), nil
	case "iqama_asr":
		return formatIntPtr(c.IqamaAsr), nil
	case "iqama_maghrib":
		return formatIntPtr(c.IqamaMaghrib), nil
	case "iqama_isha":
		return formatIntPtr(c.IqamaIsha), nil
	case "quiet_hours_enabled":
		return formatBoolPtr(c.QuietHoursEnabled), nil
	case "quiet_hours_start":
		return formatIntPtr(c.QuietHoursStart), nil
	case "quiet_hours_end":
		return formatIntPtr(c.QuietHoursEnd), nil
	case "cache_dir":
		return c.CacheDir, nil
	default:
		return "", fmt.Errorf("unknown config key %q", key)
	}
}

// Offsets returns the iqama offsets with defaults applied for unset kinds.
func (c *Config) Offsets() prayer.Offsets {
	offsets := prayer.DefaultOffsets()
	apply := func(k prayer.Kind, v *int) {
		if v != nil {
			offsets[k] = *v
		}
	}
	apply(prayer.Fajr, c.IqamaFajr)
	apply(prayer.Dhuhr, c.IqamaDhuhr)
	apply(prayer.Asr, c.IqamaAsr)
	apply(prayer.Maghrib, c.IqamaMaghrib)
	apply(prayer.Isha, c.IqamaIsha)
	return offsets
}

// MethodOrDefault returns the calculation method, falling back to def.
func (c *Config) MethodOrDefault(def int) int {
	if c.Method != nil {
		return *c.Method
	}
	return def
}

// AudioOn reports whether the adhan cue is enabled. Defaults to true.
func (c *Config) AudioOn() bool {
	if c.AudioEnabled != nil {
		return *c.AudioEnabled
	}
	return true
}

// VolumeOrDefault returns the adhan volume, defaulting to 0.8.
func (c *Config) VolumeOrDefault() float64 {
	if c.Volume != nil {
		return *c.Volume
	}
	return DefaultVolume
}

// DisplayModeOrDefault returns the menu-bar display mode.
func (c *Config) DisplayModeOrDefault() string {
	if c.DisplayMode != "" {
		return c.DisplayMode
	}
	return DefaultDisplayMode
}

// TimeLayout returns the Go time layout for the configured clock format.
func (c *Config) TimeLayout() string {
	if c.TimeFormat == "12h" {
		return "3:04 PM"
	}
	return "15:04"
}

// QuietEnabled reports whether quiet hours are on. Defaults to false.
func (c *Config) QuietEnabled() bool {
	return c.QuietHoursEnabled != nil && *c.QuietHoursEnabled
}

// QuietWindow returns the quiet-hours window as minutes of day.
func (c *Config) QuietWindow() (start, end int) {
	start, end = DefaultQuietStart, DefaultQuietEnd
	if c.QuietHoursStart != nil {
		start = *c.QuietHoursStart
	}
	if c.QuietHoursEnd != nil {
		end = *c.QuietHoursEnd
	}
	return start, end
}

func (c *Config) setIqama(key string, v int) {
	switch key {
	case "iqama_fajr":
		c.IqamaFajr = &v
	case "iqama_dhuhr":
		c.IqamaDhuhr = &v
	case "iqama_asr":
		c.IqamaAsr = &v
	case "iqama_maghrib":
		c.IqamaMaghrib = &v
	case "iqama_isha":
		c.IqamaIsha = &v
	}
}

// parseMinuteOfDay accepts either a bare minute count ("1380") or a clock
// time ("23:00") and returns minutes since midnight.
func parseMinuteOfDay(value string) (int, error) {
	if h, m, ok := strings.Cut(value, ":"); ok {
		hour, err1 := strconv.Atoi(h)
		min, err2 := strconv.Atoi(m)
		if err1 != nil || err2 != nil || hour < 0 || hour > 23 || min < 0 || min > 59 {
			return 0, errors.New("must be HH:MM or minutes since midnight")
		}
		return hour*60 + min, nil
	}
	v, err := strconv.Atoi(value)
	if err != nil || v < 0 || v >= 24*60 {
		return 0, errors.New("must be HH:MM or minutes since midnight")
	}
	return v, nil
}

func isValidDisplayMode(mode string) bool {
	for _, m := range prayer.DisplayModes {
		if m == mode {
			return true
		}
	}
	return false
}

func formatIntPtr(v *int) string {
	if v == nil {
		return ""
	}
	return strconv.Itoa(*v)
}

func formatBoolPtr(v *bool) string {
	if v == nil {
		return ""
	}
	return strconv.FormatBool(*v)
}
