// Package config loads the application configuration from YAML.
package config

import (
	"os"
	"path/filepath"

	"github.com/cockroachdb/errors"
	"github.com/creasty/defaults"
	"github.com/go-playground/validator/v10"
	"gopkg.in/yaml.v3"
)

const appName = "nowplaying-tui"

// Config holds the application configuration
type Config struct {
	Library   LibraryConfig   `yaml:"library"`
	Player    PlayerConfig    `yaml:"player"`
	Playlists PlaylistsConfig `yaml:"playlists"`
	Log       LogConfig       `yaml:"log"`
	UI        UIConfig        `yaml:"ui"`
}

// LibraryConfig controls where songs are looked up when no paths are given
type LibraryConfig struct {
	MusicDir   string   `yaml:"music_dir"`
	Extensions []string `yaml:"extensions" default:"[\".mp3\",\".flac\",\".ogg\",\".opus\",\".m4a\",\".wav\"]" validate:"min=1,dive,startswith=."`
}

// PlayerConfig configures the mpv backend
type PlayerConfig struct {
	MpvPath     string `yaml:"mpv_path" default:"mpv" validate:"required"`
	SeekStepSec int    `yaml:"seek_step_sec" default:"10" validate:"gte=1,lte=300"`
}

// PlaylistsConfig configures the playlist store
type PlaylistsConfig struct {
	Database     string `yaml:"database"`
	DefaultScope string `yaml:"default_scope" default:"external" validate:"oneof=external internal"`
}

// LogConfig configures logging
type LogConfig struct {
	Output string `yaml:"output" default:"file" validate:"oneof=file stderr discard"`
	Level  string `yaml:"level" default:"info" validate:"oneof=debug info warn warning error"`
	File   string `yaml:"file"`
}

// UIConfig configures the terminal UI
type UIConfig struct {
	DefaultSort string `yaml:"default_sort" validate:"omitempty,oneof=title artist album track random"`
	LongPressMs int    `yaml:"long_press_ms" default:"500" validate:"gte=100,lte=5000"`
}

// DefaultDir returns the configuration directory, falling back to the
// working directory when the user config dir is unknown
func DefaultDir() string {
	dir, err := os.UserConfigDir()
	if err != nil {
		return appName
	}
	return filepath.Join(dir, appName)
}

// Default returns a configuration with every default applied
func Default(configDir string) *Config {
	var cfg Config
	// defaults.Set only fails on malformed tags
	if err := defaults.Set(&cfg); err != nil {
		panic(err)
	}
	cfg.resolvePaths(configDir)
	return &cfg
}

// Load reads config.yaml from configDir. A missing file yields defaults.
func Load(configDir string) (*Config, error) {
	path := filepath.Join(configDir, "config.yaml")

	var cfg Config
	data, err := os.ReadFile(path)
	switch {
	case os.IsNotExist(err):
	case err != nil:
		return nil, errors.Wrap(err, "failed to read config file")
	default:
		if err := yaml.Unmarshal(data, &cfg); err != nil {
			return nil, errors.Wrap(err, "failed to parse config file")
		}
	}

	cfg.overrideFromEnv()

	if err := defaults.Set(&cfg); err != nil {
		return nil, errors.Wrap(err, "failed to set defaults")
	}
	cfg.resolvePaths(configDir)

	if err := cfg.Validate(); err != nil {
		return nil, errors.Wrap(err, "config validation failed")
	}

	return &cfg, nil
}

// Save writes the configuration to config.yaml in configDir
func Save(configDir string, cfg *Config) error {
	if err := os.MkdirAll(configDir, 0755); err != nil {
		return errors.Wrap(err, "failed to create config directory")
	}

	data, err := yaml.Marshal(cfg)
	if err != nil {
		return errors.Wrap(err, "failed to marshal config")
	}

	return errors.Wrap(os.WriteFile(filepath.Join(configDir, "config.yaml"), data, 0644), "failed to write config file")
}

// Validate validates the configuration.
func (c *Config) Validate() error {
	return validator.New().Struct(c)
}

func (c *Config) overrideFromEnv() {
	if v := os.Getenv("NOWPLAYING_MUSIC_DIR"); v != "" {
		c.Library.MusicDir = v
	}
	if v := os.Getenv("NOWPLAYING_LOG_LEVEL"); v != "" {
		c.Log.Level = v
	}
	if v := os.Getenv("NOWPLAYING_MPV"); v != "" {
		c.Player.MpvPath = v
	}
}

func (c *Config) resolvePaths(configDir string) {
	if c.Playlists.Database == "" {
		c.Playlists.Database = filepath.Join(configDir, "playlists.db")
	}
	if c.Log.File == "" {
		c.Log.File = filepath.Join(configDir, "nowplaying.log")
	}
	if c.Library.MusicDir == "" {
		if home, err := os.UserHomeDir(); err == nil {
			c.Library.MusicDir = filepath.Join(home, "Music")
		}
	}
}
