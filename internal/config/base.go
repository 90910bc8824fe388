package config

import (
	"fmt"
	"time"

	"github.com/spf13/viper"
)

type BaseConfig struct {
	ShutdownTimeout string `mapstructure:"shutdown_timeout" yaml:"shutdown_timeout"`

	Log      LogConfig      `mapstructure:"log"      yaml:"log"`
	Store    StoreConfig    `mapstructure:"store"    yaml:"store"`
	Download DownloadConfig `mapstructure:"download" yaml:"download"`
	Remote   RemoteConfig   `mapstructure:"remote"   yaml:"remote"`
	Listing  ListingConfig  `mapstructure:"listing"  yaml:"listing"`
}

func LoadConfig() (*BaseConfig, error) {
	cfg := &BaseConfig{}

	setDefaults()

	if err := viper.Unmarshal(cfg); err != nil {
		return nil, fmt.Errorf("failed to unmarshal configuration: %w", err)
	}

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}

	return cfg, nil
}

// GetShutdownTimeout returns the parsed shutdown timeout, falling back to 10s
func (c *BaseConfig) GetShutdownTimeout() time.Duration {
	return parseDuration(c.ShutdownTimeout, 10*time.Second)
}

func parseDuration(value string, fallback time.Duration) time.Duration {
	if value == "" {
		return fallback
	}
	d, err := time.ParseDuration(value)
	if err != nil {
		return fallback
	}
	return d
}
