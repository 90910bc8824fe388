package config

import "time"

// DownloadConfig controls the download orchestrator
type DownloadConfig struct {
	Dir          string `mapstructure:"dir"           yaml:"dir"`
	Verify       bool   `mapstructure:"verify"        yaml:"verify"`
	Delay        string `mapstructure:"delay"         yaml:"delay"`
	Retries      int    `mapstructure:"retries"       yaml:"retries"`
	RetryBackoff string `mapstructure:"retry_backoff" yaml:"retry_backoff"`
	Progress     bool   `mapstructure:"progress"      yaml:"progress"`
}

func (c DownloadConfig) GetDelay() time.Duration {
	return parseDuration(c.Delay, 200*time.Millisecond)
}

func (c DownloadConfig) GetRetryBackoff() time.Duration {
	return parseDuration(c.RetryBackoff, 2*time.Second)
}
