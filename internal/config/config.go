// Package config handles configuration file loading and parsing.
package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/pelletier/go-toml/v2"
	"gopkg.in/yaml.v3"

	"github.com/jmylchreest/snackbar/internal/model"
	"github.com/jmylchreest/snackbar/internal/provider"
)

// Config is the snackbar configuration, shared by the CLI and the daemon.
// Loaded from ~/.config/snackbar/snackbar.toml (or .yaml).
type Config struct {
	Snacks  SnacksConfig  `toml:"snacks" yaml:"snacks"`
	Display DisplayConfig `toml:"display" yaml:"display"`
	Audio   AudioConfig   `toml:"audio" yaml:"audio"`
	Theme   ThemeConfig   `toml:"theme" yaml:"theme"`
	Daemon  DaemonConfig  `toml:"daemon" yaml:"daemon"`
}

// SnacksConfig holds the queue and timing defaults.
type SnacksConfig struct {
	Anchor            string   `toml:"anchor" yaml:"anchor"` // "bottom-left", "top-right", ...
	Persist           bool     `toml:"persist" yaml:"persist"`
	AutoHideDuration  Duration `toml:"auto_hide_duration" yaml:"auto_hide_duration"`
	MaxSnacks         int      `toml:"max_snacks" yaml:"max_snacks"`
	Spacing           int      `toml:"spacing" yaml:"spacing"`
	PreventDuplicates bool     `toml:"prevent_duplicates" yaml:"prevent_duplicates"`
	TransitionDelay   Duration `toml:"transition_delay" yaml:"transition_delay"`
	PauseOnHover      bool     `toml:"pause_on_hover" yaml:"pause_on_hover"`
	HideIcon          bool     `toml:"hide_icon" yaml:"hide_icon"`
	ActionLabel       string   `toml:"action_label" yaml:"action_label"` // Empty = no default action
}

// DisplayConfig contains popup window settings.
type DisplayConfig struct {
	Width   int     `toml:"width" yaml:"width"`
	Margin  int     `toml:"margin" yaml:"margin"`   // Pixels from the horizontal screen edge
	Monitor int     `toml:"monitor" yaml:"monitor"` // 0 = default, 1+ = specific monitor
	Opacity float64 `toml:"opacity" yaml:"opacity"`
}

// AudioConfig contains audio settings.
type AudioConfig struct {
	Enabled bool        `toml:"enabled" yaml:"enabled"`
	Volume  int         `toml:"volume" yaml:"volume"` // 0-100
	Sounds  SoundConfig `toml:"sounds" yaml:"sounds"`
}

// SoundConfig contains per-variant sound file paths.
type SoundConfig struct {
	Info    string `toml:"info" yaml:"info"`
	Success string `toml:"success" yaml:"success"`
	Warning string `toml:"warning" yaml:"warning"`
	Error   string `toml:"error" yaml:"error"`
}

// ThemeConfig contains theme settings.
type ThemeConfig struct {
	Name        string `toml:"name" yaml:"name"`                 // Theme name without .css extension
	ColorScheme string `toml:"color_scheme" yaml:"color_scheme"` // "system", "light", or "dark"
}

// DaemonConfig contains settings only the notification daemon uses.
type DaemonConfig struct {
	MetricsAddr      string   `toml:"metrics_addr" yaml:"metrics_addr"` // Empty = metrics endpoint disabled
	CriticalPersists bool     `toml:"critical_persists" yaml:"critical_persists"`
	RateLimit        Duration `toml:"rate_limit" yaml:"rate_limit"` // Minimum gap between identical internal notices
}

// ColorScheme represents the color scheme preference.
type ColorScheme string

const (
	ColorSchemeSystem ColorScheme = "system"
	ColorSchemeLight  ColorScheme = "light"
	ColorSchemeDark   ColorScheme = "dark"
)

// ValidColorSchemes returns all valid color scheme values.
func ValidColorSchemes() []ColorScheme {
	return []ColorScheme{ColorSchemeSystem, ColorSchemeLight, ColorSchemeDark}
}

// DefaultConfig returns a Config with default values.
func DefaultConfig() *Config {
	opts := provider.DefaultOptions()
	return &Config{
		Snacks: SnacksConfig{
			Anchor:           opts.Anchor.String(),
			AutoHideDuration: Duration(opts.AutoHideDuration),
			MaxSnacks:        opts.MaxSnacks,
			Spacing:          opts.Spacing,
			TransitionDelay:  Duration(opts.TransitionDelay),
			PauseOnHover:     opts.PauseOnHover,
		},
		Display: DisplayConfig{
			Width:   350,
			Margin:  20,
			Opacity: 1.0,
		},
		Audio: AudioConfig{
			Enabled: true,
			Volume:  80,
		},
		Theme: ThemeConfig{
			Name:        "default",
			ColorScheme: string(ColorSchemeSystem),
		},
		Daemon: DaemonConfig{
			CriticalPersists: true,
			RateLimit:        Duration(5 * time.Second),
		},
	}
}

// ConfigDir returns the snackbar configuration directory.
// Uses XDG_CONFIG_HOME if set, otherwise ~/.config.
func ConfigDir() (string, error) {
	configDir, err := os.UserConfigDir()
	if err != nil {
		return "", err
	}
	return filepath.Join(configDir, "snackbar"), nil
}

// ConfigPath returns the default config file path.
func ConfigPath() (string, error) {
	dir, err := ConfigDir()
	if err != nil {
		return "", err
	}
	return filepath.Join(dir, "snackbar.toml"), nil
}

func isYAML(path string) bool {
	switch strings.ToLower(filepath.Ext(path)) {
	case ".yaml", ".yml":
		return true
	default:
		return false
	}
}

// Load loads configuration from path. An empty path means the default
// location. A missing file yields the defaults. Files ending in .yaml or
// .yml are parsed as YAML, everything else as TOML.
func Load(path string) (*Config, error) {
	if path == "" {
		p, err := ConfigPath()
		if err != nil {
			return nil, fmt.Errorf("failed to get config path: %w", err)
		}
		path = p
	}

	data, err := os.ReadFile(path)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return DefaultConfig(), nil
		}
		return nil, fmt.Errorf("failed to read config file: %w", err)
	}

	// Start with defaults, then overlay with file contents
	cfg := DefaultConfig()
	if isYAML(path) {
		err = yaml.Unmarshal(data, cfg)
	} else {
		err = toml.Unmarshal(data, cfg)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to parse config file: %w", err)
	}

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}
	return cfg, nil
}

// Save writes the configuration to path atomically, creating parent
// directories as needed. The format follows the file extension.
func (c *Config) Save(path string) error {
	if path == "" {
		p, err := ConfigPath()
		if err != nil {
			return fmt.Errorf("failed to get config path: %w", err)
		}
		path = p
	}

	if err := os.MkdirAll(filepath.Dir(path), 0700); err != nil {
		return fmt.Errorf("failed to create config directory: %w", err)
	}

	data, err := c.Marshal(path)
	if err != nil {
		return err
	}

	tmpPath := path + ".tmp"
	if err := os.WriteFile(tmpPath, data, 0600); err != nil {
		return fmt.Errorf("failed to write config file: %w", err)
	}
	return os.Rename(tmpPath, path)
}

// Marshal encodes the configuration in the format implied by path.
func (c *Config) Marshal(path string) ([]byte, error) {
	var (
		data []byte
		err  error
	)
	if isYAML(path) {
		data, err = yaml.Marshal(c)
	} else {
		data, err = toml.Marshal(c)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to marshal config: %w", err)
	}
	return data, nil
}

// Validate checks if the configuration is valid.
func (c *Config) Validate() error {
	if _, err := model.ParseAnchor(c.Snacks.Anchor); err != nil {
		return err
	}
	if c.Snacks.MaxSnacks < 1 || c.Snacks.MaxSnacks > 20 {
		return fmt.Errorf("max_snacks must be between 1 and 20, got %d", c.Snacks.MaxSnacks)
	}
	if c.Snacks.Spacing < 0 {
		return fmt.Errorf("spacing must not be negative, got %d", c.Snacks.Spacing)
	}
	if c.Snacks.AutoHideDuration < 0 || c.Snacks.TransitionDelay < 0 {
		return errors.New("durations must not be negative")
	}

	if c.Display.Width < 100 || c.Display.Width > 1000 {
		return fmt.Errorf("width must be between 100 and 1000, got %d", c.Display.Width)
	}
	if c.Display.Opacity < 0 || c.Display.Opacity > 1 {
		return fmt.Errorf("opacity must be between 0 and 1, got %g", c.Display.Opacity)
	}

	if c.Audio.Volume < 0 || c.Audio.Volume > 100 {
		return fmt.Errorf("volume must be between 0 and 100, got %d", c.Audio.Volume)
	}

	validScheme := false
	for _, s := range ValidColorSchemes() {
		if c.Theme.ColorScheme == string(s) {
			validScheme = true
			break
		}
	}
	if !validScheme {
		return fmt.Errorf("invalid color_scheme %q, must be one of: %v", c.Theme.ColorScheme, ValidColorSchemes())
	}

	return nil
}

// Options converts the [snacks] section into provider options.
func (c *Config) Options() (provider.Options, error) {
	anchor, err := model.ParseAnchor(c.Snacks.Anchor)
	if err != nil {
		return provider.Options{}, err
	}

	opts := provider.Options{
		Anchor:            anchor,
		Persist:           c.Snacks.Persist,
		AutoHideDuration:  c.Snacks.AutoHideDuration.Duration(),
		MaxSnacks:         c.Snacks.MaxSnacks,
		Spacing:           c.Snacks.Spacing,
		PreventDuplicates: c.Snacks.PreventDuplicates,
		TransitionDelay:   c.Snacks.TransitionDelay.Duration(),
		PauseOnHover:      c.Snacks.PauseOnHover,
		HideIcon:          c.Snacks.HideIcon,
	}
	if c.Snacks.ActionLabel != "" {
		opts.Action = &model.Action{Key: "default", Label: c.Snacks.ActionLabel}
	}
	return opts, nil
}

// SoundForVariant returns the sound file configured for v.
// Expands ~ to home directory.
func (c *Config) SoundForVariant(v model.Variant) string {
	var path string
	switch v {
	case model.VariantSuccess:
		path = c.Audio.Sounds.Success
	case model.VariantWarning:
		path = c.Audio.Sounds.Warning
	case model.VariantError:
		path = c.Audio.Sounds.Error
	default:
		path = c.Audio.Sounds.Info
	}
	return expandPath(path)
}

// expandPath expands ~ to the user's home directory.
func expandPath(path string) string {
	if strings.HasPrefix(path, "~/") {
		home, err := os.UserHomeDir()
		if err == nil {
			return filepath.Join(home, path[2:])
		}
	}
	return path
}
