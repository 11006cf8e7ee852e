package config

import (
	"fmt"
	"strings"

	"github.com/fsnotify/fsnotify"
	"github.com/spf13/viper"
)

// envPrefix is the prefix of every environment override, e.g.
// PASAL_LEXICON_NAME or PASAL_BATCH_CONCURRENCY.
const envPrefix = "PASAL"

// NewViper returns a viper instance with pasal's defaults, env prefix and key
// replacer. The CLI binds its flags to it before calling FromViper.
func NewViper() *viper.Viper {
	v := viper.New()
	v.SetConfigType("yaml")
	v.SetEnvPrefix(envPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()
	setViperDefaults(v)
	return v
}

// Load reads the YAML file at path (optional when empty), applies environment
// overrides and defaults, and validates the result.
func Load(path string) (*Config, error) {
	v := NewViper()
	if err := ReadFile(v, path); err != nil {
		return nil, err
	}
	return FromViper(v)
}

// ReadFile points v at path and reads it. An empty path is a no-op.
func ReadFile(v *viper.Viper, path string) error {
	if path == "" {
		return nil
	}
	v.SetConfigFile(path)
	if err := v.ReadInConfig(); err != nil {
		return fmt.Errorf("config: reading %q: %w", path, err)
	}
	return nil
}

// FromViper unmarshals, defaults and validates the state of v.
func FromViper(v *viper.Viper) (*Config, error) {
	cfg := &Config{}
	if err := v.Unmarshal(cfg); err != nil {
		return nil, fmt.Errorf("config: unmarshal: %w", err)
	}
	ApplyDefaults(cfg)
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("config: validation failed: %w", err)
	}
	return cfg, nil
}

// Watch re-reads the file behind v when it changes and calls onChange with the
// new configuration. Invalid edits are reported to onError and otherwise
// ignored.
func Watch(v *viper.Viper, onChange func(*Config), onError func(error)) {
	v.OnConfigChange(func(fsnotify.Event) {
		cfg, err := FromViper(v)
		if err != nil {
			if onError != nil {
				onError(err)
			}
			return
		}
		onChange(cfg)
	})
	v.WatchConfig()
}
