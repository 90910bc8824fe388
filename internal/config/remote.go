package config

import "time"

// RemoteConfig describes how the remote drive API is reached
type RemoteConfig struct {
	BaseURL     string `mapstructure:"base_url"     yaml:"base_url"`
	SessionFile string `mapstructure:"session_file" yaml:"session_file"`
	Timeout     string `mapstructure:"timeout"      yaml:"timeout"`
	RetryCount  int    `mapstructure:"retry_count"  yaml:"retry_count"`
	UserAgent   string `mapstructure:"user_agent"   yaml:"user_agent"`
}

func (c RemoteConfig) GetTimeout() time.Duration {
	return parseDuration(c.Timeout, 30*time.Second)
}

// ListingConfig controls partition traversal and its stability rule
type ListingConfig struct {
	PageSize      int    `mapstructure:"page_size"      yaml:"page_size"`
	StableProbes  int    `mapstructure:"stable_probes"  yaml:"stable_probes"`
	MaxProbes     int    `mapstructure:"max_probes"     yaml:"max_probes"`
	ProbeInterval string `mapstructure:"probe_interval" yaml:"probe_interval"`
	StartYear     int    `mapstructure:"start_year"     yaml:"start_year"`
	MonthlyYears  int    `mapstructure:"monthly_years"  yaml:"monthly_years"`
}

func (c ListingConfig) GetProbeInterval() time.Duration {
	return parseDuration(c.ProbeInterval, 0)
}
