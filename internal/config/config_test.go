package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jmylchreest/snackbar/internal/model"
)

func TestDefaultConfig(t *testing.T) {
	cfg := DefaultConfig()

	assert.Equal(t, "bottom-left", cfg.Snacks.Anchor)
	assert.Equal(t, 2500*time.Millisecond, cfg.Snacks.AutoHideDuration.Duration())
	assert.Equal(t, 3, cfg.Snacks.MaxSnacks)
	assert.Equal(t, 12, cfg.Snacks.Spacing)
	assert.Equal(t, 250*time.Millisecond, cfg.Snacks.TransitionDelay.Duration())
	assert.False(t, cfg.Snacks.PreventDuplicates)
	assert.True(t, cfg.Audio.Enabled)
	assert.Equal(t, "default", cfg.Theme.Name)
	assert.NoError(t, cfg.Validate())
}

func TestLoad_DefaultsWhenNoFile(t *testing.T) {
	cfg, err := Load("/nonexistent/path/snackbar.toml")
	require.NoError(t, err)
	assert.Equal(t, DefaultConfig(), cfg)
}

func TestLoad_ParsesTOML(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "snackbar.toml")

	content := `
[snacks]
anchor = "top-right"
auto_hide_duration = "4s"
max_snacks = 5
spacing = 8
prevent_duplicates = true
transition_delay = "400"
action_label = "Dismiss"

[audio]
volume = 30

[audio.sounds]
error = "/usr/share/sounds/error.oga"

[daemon]
metrics_addr = "127.0.0.1:9464"
`
	require.NoError(t, os.WriteFile(path, []byte(content), 0644))

	cfg, err := Load(path)
	require.NoError(t, err)

	assert.Equal(t, "top-right", cfg.Snacks.Anchor)
	assert.Equal(t, 4*time.Second, cfg.Snacks.AutoHideDuration.Duration())
	assert.Equal(t, 5, cfg.Snacks.MaxSnacks)
	assert.Equal(t, 8, cfg.Snacks.Spacing)
	assert.True(t, cfg.Snacks.PreventDuplicates)
	assert.Equal(t, 400*time.Millisecond, cfg.Snacks.TransitionDelay.Duration())
	assert.Equal(t, 30, cfg.Audio.Volume)
	assert.Equal(t, "/usr/share/sounds/error.oga", cfg.SoundForVariant(model.VariantError))
	assert.Equal(t, "127.0.0.1:9464", cfg.Daemon.MetricsAddr)

	// Unset fields keep their defaults
	assert.Equal(t, 350, cfg.Display.Width)
	assert.True(t, cfg.Snacks.PauseOnHover)
}

func TestLoad_ParsesYAML(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "snackbar.yaml")

	content := `
snacks:
  anchor: bottom-center
  auto_hide_duration: 1m
  persist: true
theme:
  color_scheme: dark
`
	require.NoError(t, os.WriteFile(path, []byte(content), 0644))

	cfg, err := Load(path)
	require.NoError(t, err)

	assert.Equal(t, "bottom-center", cfg.Snacks.Anchor)
	assert.Equal(t, time.Minute, cfg.Snacks.AutoHideDuration.Duration())
	assert.True(t, cfg.Snacks.Persist)
	assert.Equal(t, "dark", cfg.Theme.ColorScheme)
	assert.Equal(t, 3, cfg.Snacks.MaxSnacks)
}

func TestLoad_InvalidTOML(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "snackbar.toml")
	require.NoError(t, os.WriteFile(path, []byte(`this is not valid toml [`), 0644))

	_, err := Load(path)
	assert.Error(t, err)
}

func TestLoad_RejectsInvalidValues(t *testing.T) {
	tests := []struct {
		name    string
		content string
	}{
		{"bad anchor", "[snacks]\nanchor = \"middle\"\n"},
		{"zero capacity", "[snacks]\nmax_snacks = 0\n"},
		{"negative spacing", "[snacks]\nspacing = -4\n"},
		{"bad duration", "[snacks]\nauto_hide_duration = \"soon\"\n"},
		{"volume", "[audio]\nvolume = 120\n"},
		{"color scheme", "[theme]\ncolor_scheme = \"sepia\"\n"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			path := filepath.Join(t.TempDir(), "snackbar.toml")
			require.NoError(t, os.WriteFile(path, []byte(tt.content), 0644))

			_, err := Load(path)
			assert.Error(t, err)
		})
	}
}

func TestConfig_SaveRoundTrip(t *testing.T) {
	for _, name := range []string{"snackbar.toml", "snackbar.yaml"} {
		t.Run(name, func(t *testing.T) {
			path := filepath.Join(t.TempDir(), "subdir", name)

			cfg := DefaultConfig()
			cfg.Snacks.Anchor = "top-center"
			cfg.Snacks.AutoHideDuration = Duration(7 * time.Second)
			cfg.Audio.Sounds.Success = "/tmp/ok.wav"

			require.NoError(t, cfg.Save(path))
			_, err := os.Stat(path + ".tmp")
			assert.True(t, os.IsNotExist(err), "temp file is renamed away")

			loaded, err := Load(path)
			require.NoError(t, err)
			assert.Equal(t, cfg, loaded)
		})
	}
}

func TestConfig_Options(t *testing.T) {
	cfg := DefaultConfig()
	cfg.Snacks.Anchor = "top-right"
	cfg.Snacks.ActionLabel = "OK"
	cfg.Snacks.MaxSnacks = 4

	opts, err := cfg.Options()
	require.NoError(t, err)

	assert.Equal(t, model.Anchor{Vertical: model.VerticalTop, Horizontal: model.HorizontalRight}, opts.Anchor)
	assert.Equal(t, 4, opts.MaxSnacks)
	assert.Equal(t, 2500*time.Millisecond, opts.AutoHideDuration)
	require.NotNil(t, opts.Action)
	assert.Equal(t, "OK", opts.Action.Label)
}

func TestConfig_SoundForVariant(t *testing.T) {
	home, err := os.UserHomeDir()
	require.NoError(t, err)

	cfg := DefaultConfig()
	cfg.Audio.Sounds = SoundConfig{
		Info:    "~/sounds/info.wav",
		Success: "/s.wav",
		Warning: "/w.wav",
		Error:   "/e.wav",
	}

	assert.Equal(t, filepath.Join(home, "sounds/info.wav"), cfg.SoundForVariant(model.VariantInfo))
	assert.Equal(t, "/s.wav", cfg.SoundForVariant(model.VariantSuccess))
	assert.Equal(t, "/w.wav", cfg.SoundForVariant(model.VariantWarning))
	assert.Equal(t, "/e.wav", cfg.SoundForVariant(model.VariantError))
}

func TestConfigPath(t *testing.T) {
	t.Setenv("XDG_CONFIG_HOME", "/custom/config")
	path, err := ConfigPath()
	require.NoError(t, err)
	assert.Equal(t, "/custom/config/snackbar/snackbar.toml", path)
}

func TestDuration_UnmarshalText(t *testing.T) {
	tests := []struct {
		input   string
		want    time.Duration
		wantErr bool
	}{
		{"2500", 2500 * time.Millisecond, false},
		{"0", 0, false},
		{"2.5s", 2500 * time.Millisecond, false},
		{"1h30m", 90 * time.Minute, false},
		{"later", 0, true},
	}

	for _, tt := range tests {
		t.Run(tt.input, func(t *testing.T) {
			var d Duration
			err := d.UnmarshalText([]byte(tt.input))
			if tt.wantErr {
				assert.Error(t, err)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.want, d.Duration())
		})
	}
}

func TestDuration_MarshalText(t *testing.T) {
	text, err := Duration(2500 * time.Millisecond).MarshalText()
	require.NoError(t, err)
	assert.Equal(t, "2.5s", string(text))
	assert.Equal(t, 2500, Duration(2500*time.Millisecond).Milliseconds())
}
