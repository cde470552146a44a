// Package config provides configuration helpers and TOML parsing.
package config

import (
	"fmt"
	"os"

	"github.com/BurntSushi/toml"
)

// FileConfig represents the TOML configuration file.
type FileConfig struct {
	Session SessionConfig `toml:"session"`
	Audio   AudioConfig   `toml:"audio"`
	OS      OSConfig      `toml:"os"`
	Stats   StatsConfig   `toml:"stats"`
	Log     LogConfig     `toml:"log"`
}

// SessionConfig maps preferences that are locked when a session starts.
type SessionConfig struct {
	CountUp      *bool `toml:"count-up"`
	KeepScreenOn *bool `toml:"keep-screen-on"`
	DND          *bool `toml:"dnd"`
	Sound        *bool `toml:"sound"`
}

// AudioConfig maps the external player used for sound cues.
type AudioConfig struct {
	Player *string `toml:"player"`
}

// OSConfig maps the commands backing keep-awake and do-not-disturb.
type OSConfig struct {
	KeepAwake *string `toml:"keep-awake"`
	DNDOn     *string `toml:"dnd-on"`
	DNDOff    *string `toml:"dnd-off"`
}

// StatsConfig maps stats defaults.
type StatsConfig struct {
	Period *string `toml:"period"`
	Locale *string `toml:"locale"`
}

// LogConfig maps debug logging settings.
type LogConfig struct {
	Level *string `toml:"level"`
}

// LoadConfig reads a TOML config from the given path. Missing file is not an error.
func LoadConfig(path string) (FileConfig, error) {
	if path == "" {
		return FileConfig{}, fmt.Errorf("config path is empty")
	}
	if _, err := os.Stat(path); err != nil {
		if os.IsNotExist(err) {
			return FileConfig{}, nil
		}
		return FileConfig{}, fmt.Errorf("failed to stat config: %w", err)
	}
	var cfg FileConfig
	if _, err := toml.DecodeFile(path, &cfg); err != nil {
		return FileConfig{}, fmt.Errorf("failed to decode config: %w", err)
	}
	return cfg, nil
}
