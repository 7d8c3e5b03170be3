// Package config loads layoutc settings from a YAML file and the
// environment.
package config

import (
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"strings"

	"github.com/spf13/viper"

	"github.com/inputkit/layoutc/pkg/control"
)

// Config holds application configuration.
type Config struct {
	Log      LogConfig      `mapstructure:"log"`
	Layouts  LayoutsConfig  `mapstructure:"layouts"`
	Catalog  CatalogConfig  `mapstructure:"catalog"`
	Deadzone DeadzoneConfig `mapstructure:"deadzone"`
	Buttons  ButtonsConfig  `mapstructure:"buttons"`
}

// LogConfig holds logging settings.
type LogConfig struct {
	// Level is debug, info, warn or error.
	Level string `mapstructure:"level"`

	// Format is text or json.
	Format string `mapstructure:"format"`

	// TraceFile receives CBOR trace events when set.
	TraceFile string `mapstructure:"trace_file"`
}

// LayoutsConfig lists directories of layout files loaded on startup.
type LayoutsConfig struct {
	Dirs []string `mapstructure:"dirs"`
}

// CatalogConfig holds the layout catalog location.
type CatalogConfig struct {
	Path string `mapstructure:"path"`
}

// DeadzoneConfig holds the default deadzone bounds.
type DeadzoneConfig struct {
	Min float64 `mapstructure:"min"`
	Max float64 `mapstructure:"max"`
}

// ButtonsConfig holds button defaults.
type ButtonsConfig struct {
	PressPoint float64 `mapstructure:"press_point"`
}

// EnvConfig names the variable holding an explicit config file path.
const EnvConfig = "LAYOUTC_CONFIG"

// Load reads configuration from path, or from LAYOUTC_CONFIG, or from
// ~/.config/layoutc/config.yaml. A missing default file is not an error.
// Env var overrides use prefix LAYOUTC_.
func Load(path string) (Config, error) {
	v := viper.New()

	v.SetDefault("log.level", "info")
	v.SetDefault("log.format", "text")
	v.SetDefault("log.trace_file", "")
	v.SetDefault("layouts.dirs", []string{})
	v.SetDefault("catalog.path", filepath.Join(os.Getenv("HOME"), ".local", "share", "layoutc", "catalog.db"))
	v.SetDefault("deadzone.min", control.DefaultDeadzoneMin)
	v.SetDefault("deadzone.max", control.DefaultDeadzoneMax)
	v.SetDefault("buttons.press_point", control.DefaultPressPoint)

	v.SetConfigType("yaml")

	if path == "" {
		path = os.Getenv(EnvConfig)
	}
	explicit := path != ""
	if explicit {
		v.SetConfigFile(path)
	} else {
		v.AddConfigPath(filepath.Join(os.Getenv("HOME"), ".config", "layoutc"))
		v.SetConfigName("config")
	}

	v.SetEnvPrefix("LAYOUTC")
	v.AutomaticEnv()
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))

	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if explicit || !errors.As(err, &notFound) {
			return Config{}, fmt.Errorf("read config: %w", err)
		}
	}

	var c Config
	if err := v.Unmarshal(&c); err != nil {
		return Config{}, fmt.Errorf("unmarshal config: %w", err)
	}
	if err := c.Validate(); err != nil {
		return Config{}, err
	}
	return c, nil
}

// Validate checks value ranges.
func (c Config) Validate() error {
	if _, err := c.SlogLevel(); err != nil {
		return err
	}
	switch strings.ToLower(c.Log.Format) {
	case "text", "json":
	default:
		return fmt.Errorf("invalid log format: %s (must be text or json)", c.Log.Format)
	}
	if c.Deadzone.Min < 0 || c.Deadzone.Max > 1 || c.Deadzone.Min >= c.Deadzone.Max {
		return fmt.Errorf("invalid deadzone: min %g, max %g", c.Deadzone.Min, c.Deadzone.Max)
	}
	if c.Buttons.PressPoint <= 0 || c.Buttons.PressPoint > 1 {
		return fmt.Errorf("invalid press point: %g", c.Buttons.PressPoint)
	}
	return nil
}

// SlogLevel parses the configured log level.
func (c Config) SlogLevel() (slog.Level, error) {
	var level slog.Level
	if err := level.UnmarshalText([]byte(c.Log.Level)); err != nil {
		return 0, fmt.Errorf("invalid log level: %s", c.Log.Level)
	}
	return level, nil
}

// NewLogger returns an slog logger writing to w in the configured format.
func (c Config) NewLogger(w io.Writer) *slog.Logger {
	level, err := c.SlogLevel()
	if err != nil {
		level = slog.LevelInfo
	}
	opts := &slog.HandlerOptions{Level: level}
	if strings.EqualFold(c.Log.Format, "json") {
		return slog.New(slog.NewJSONHandler(w, opts))
	}
	return slog.New(slog.NewTextHandler(w, opts))
}

// Settings returns control settings holding the configured defaults.
func (c Config) Settings() *control.Settings {
	s := control.NewSettings()
	s.SetDeadzone(c.Deadzone.Min, c.Deadzone.Max)
	s.SetPressPoint(c.Buttons.PressPoint)
	return s
}
