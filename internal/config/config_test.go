package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// isolate keeps ambient config files out of the test.
func isolate(t *testing.T) {
	t.Helper()
	t.Setenv("HOME", t.TempDir())

	prev, err := os.Getwd()
	require.NoError(t, err)
	require.NoError(t, os.Chdir(t.TempDir()))
	t.Cleanup(func() { _ = os.Chdir(prev) })
}

func writeConfig(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "config.toml")
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))
	return path
}

func TestLoadDefaults(t *testing.T) {
	isolate(t)

	cfg, err := Load("")
	require.NoError(t, err)

	assert.Equal(t, 60, cfg.Segment.MinSeconds)
	assert.Equal(t, 120, cfg.Segment.MaxSeconds)
	assert.True(t, cfg.Loop())
	assert.True(t, cfg.Fullscreen())
	assert.Equal(t, 80, cfg.Player.Volume)
	assert.False(t, cfg.Player.Mute)
	assert.Equal(t, "127.0.0.1:8976", cfg.Status.Bind)
	assert.Equal(t, "info", cfg.Log.Level)
}

func TestLoadFromFile(t *testing.T) {
	isolate(t)

	path := writeConfig(t, `
library_root = "/videos/home-movies"

[segment]
min_seconds = 30
max_seconds = 45
loop = false

[player]
fullscreen = false
volume = 55
mute = true

[status]
bind = "0.0.0.0:9000"

[log]
level = "debug"
`)

	cfg, err := Load(path)
	require.NoError(t, err)

	assert.Equal(t, "/videos/home-movies", cfg.LibraryRoot)
	assert.Equal(t, 30, cfg.Segment.MinSeconds)
	assert.Equal(t, 45, cfg.Segment.MaxSeconds)
	assert.False(t, cfg.Loop())
	assert.False(t, cfg.Fullscreen())
	assert.Equal(t, 55, cfg.Player.Volume)
	assert.True(t, cfg.Player.Mute)
	assert.Equal(t, "0.0.0.0:9000", cfg.Status.Bind)
	assert.Equal(t, "debug", cfg.Log.Level)
}

func TestLoadMissingExplicitFileFails(t *testing.T) {
	isolate(t)

	_, err := Load(filepath.Join(t.TempDir(), "nope.toml"))
	assert.Error(t, err)
}

func TestLoadExpandsHomeInPaths(t *testing.T) {
	isolate(t)
	home := os.Getenv("HOME")

	path := writeConfig(t, `
library_root = "~/movies"

[log]
dir = "~/logs"
`)

	cfg, err := Load(path)
	require.NoError(t, err)

	assert.Equal(t, filepath.Join(home, "movies"), cfg.LibraryRoot)
	assert.Equal(t, filepath.Join(home, "logs"), cfg.Log.Dir)
}

func TestLoadClampsVolume(t *testing.T) {
	isolate(t)

	path := writeConfig(t, `
[player]
volume = 300
`)

	cfg, err := Load(path)
	require.NoError(t, err)
	assert.Equal(t, 100, cfg.Player.Volume)
}

func TestCwdConfigPickedUp(t *testing.T) {
	isolate(t)

	require.NoError(t, os.WriteFile("config.toml", []byte(`
[segment]
min_seconds = 10
`), 0o644))

	cfg, err := Load("")
	require.NoError(t, err)
	assert.Equal(t, 10, cfg.Segment.MinSeconds)
	assert.Equal(t, 120, cfg.Segment.MaxSeconds)
}
