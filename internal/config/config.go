// Package config loads channel settings from TOML files.
package config

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/knadh/koanf/parsers/toml"
	"github.com/knadh/koanf/providers/file"
	"github.com/knadh/koanf/v2"
)

// Config holds everything the channel needs at startup.
type Config struct {
	// LibraryRoot is the folder scanned recursively for video files.
	LibraryRoot string `koanf:"library_root"`

	Segment SegmentConfig `koanf:"segment"`
	Player  PlayerConfig  `koanf:"player"`
	Status  StatusConfig  `koanf:"status"`
	Log     LogConfig     `koanf:"log"`
}

// SegmentConfig bounds the random segment window.
type SegmentConfig struct {
	MinSeconds int   `koanf:"min_seconds"` // default: 60
	MaxSeconds int   `koanf:"max_seconds"` // default: 120
	Loop       *bool `koanf:"loop"`        // reshuffle and continue after a full pass (default: true)
}

// PlayerConfig holds playback surface settings.
type PlayerConfig struct {
	Fullscreen *bool `koanf:"fullscreen"` // default: true
	Volume     int   `koanf:"volume"`     // 0-100, default: 80
	Mute       bool  `koanf:"mute"`
}

// StatusConfig configures the HTTP status endpoint.
type StatusConfig struct {
	Bind string `koanf:"bind"` // default: 127.0.0.1:8976; empty string disables the server
}

// LogConfig configures log output.
type LogConfig struct {
	Level string `koanf:"level"` // default: info
	Dir   string `koanf:"dir"`   // when set, logs also go to <dir>/homereel.log
}

// Load reads config files in priority order (last wins):
// ~/.config/homereel/config.toml, ./config.toml, then explicitPath.
func Load(explicitPath string) (*Config, error) {
	k := koanf.New(".")

	for _, path := range configPaths(explicitPath) {
		if _, err := os.Stat(path); err != nil {
			if path == explicitPath {
				return nil, fmt.Errorf("config file %s: %w", path, err)
			}
			continue
		}
		if err := k.Load(file.Provider(path), toml.Parser()); err != nil {
			return nil, fmt.Errorf("parse %s: %w", path, err)
		}
	}

	cfg := &Config{}
	if err := k.Unmarshal("", cfg); err != nil {
		return nil, err
	}

	cfg.applyDefaults()
	cfg.LibraryRoot = expandPath(cfg.LibraryRoot)
	if cfg.Log.Dir != "" {
		cfg.Log.Dir = expandPath(cfg.Log.Dir)
	}

	return cfg, nil
}

func (c *Config) applyDefaults() {
	if c.Segment.MinSeconds <= 0 {
		c.Segment.MinSeconds = 60
	}
	if c.Segment.MaxSeconds <= 0 {
		c.Segment.MaxSeconds = 120
	}
	if c.Segment.Loop == nil {
		loop := true
		c.Segment.Loop = &loop
	}
	if c.Player.Fullscreen == nil {
		fullscreen := true
		c.Player.Fullscreen = &fullscreen
	}
	if c.Player.Volume <= 0 {
		c.Player.Volume = 80
	}
	if c.Player.Volume > 100 {
		c.Player.Volume = 100
	}
	if c.Status.Bind == "" {
		c.Status.Bind = "127.0.0.1:8976"
	}
	if c.Log.Level == "" {
		c.Log.Level = "info"
	}
}

// Loop reports whether the session reshuffles after a full pass.
func (c *Config) Loop() bool {
	return c.Segment.Loop == nil || *c.Segment.Loop
}

// Fullscreen reports whether the player takes over the display.
func (c *Config) Fullscreen() bool {
	return c.Player.Fullscreen == nil || *c.Player.Fullscreen
}

func configPaths(explicitPath string) []string {
	var paths []string
	if home, err := os.UserHomeDir(); err == nil {
		paths = append(paths, filepath.Join(home, ".config", "homereel", "config.toml"))
	}
	paths = append(paths, "config.toml")
	if explicitPath != "" {
		paths = append(paths, explicitPath)
	}
	return paths
}

func expandPath(path string) string {
	if path != "" && path[0] == '~' {
		if home, err := os.UserHomeDir(); err == nil {
			return filepath.Join(home, path[1:])
		}
	}
	return path
}
