package config

import "github.com/spf13/viper"

func GetDefault() BaseConfig {
	return BaseConfig{
		ShutdownTimeout: "10s",

		Log: LogConfig{
			Level:      "INFO",
			TimeFormat: "2006-01-02 15:04:05",
			File:       "",
			NoColor:    false,
			JSON:       false,
			NoTerminal: false,
			Rotation: LogRotationConfig{
				MaxSize:    128,
				MaxBackups: 5,
				MaxAge:     16,
				Compress:   false,
			},
		},

		Store: StoreConfig{
			Path:     "./data/manifest.db",
			LogLevel: "silent",
		},

		Download: DownloadConfig{
			Dir:          "./downloads",
			Verify:       true,
			Delay:        "200ms",
			Retries:      0,
			RetryBackoff: "2s",
			Progress:     true,
		},

		Remote: RemoteConfig{
			BaseURL:     "https://www.amazon.com",
			SessionFile: "./data/session.json",
			Timeout:     "30s",
			RetryCount:  2,
			UserAgent:   "photosync",
		},

		Listing: ListingConfig{
			PageSize:      200,
			StableProbes:  5,
			MaxProbes:     50,
			ProbeInterval: "500ms",
			StartYear:     2010,
			MonthlyYears:  3,
		},
	}
}

func setDefaults() {
	defaults := GetDefault()

	viper.SetDefault("shutdown_timeout", defaults.ShutdownTimeout)

	viper.SetDefault("log.level", defaults.Log.Level)
	viper.SetDefault("log.time_format", defaults.Log.TimeFormat)
	viper.SetDefault("log.file", defaults.Log.File)
	viper.SetDefault("log.no_color", defaults.Log.NoColor)
	viper.SetDefault("log.json", defaults.Log.JSON)
	viper.SetDefault("log.no_terminal", defaults.Log.NoTerminal)
	viper.SetDefault("log.rotation.max_size", defaults.Log.Rotation.MaxSize)
	viper.SetDefault("log.rotation.max_backups", defaults.Log.Rotation.MaxBackups)
	viper.SetDefault("log.rotation.max_age", defaults.Log.Rotation.MaxAge)
	viper.SetDefault("log.rotation.compress", defaults.Log.Rotation.Compress)

	viper.SetDefault("store.path", defaults.Store.Path)
	viper.SetDefault("store.log_level", defaults.Store.LogLevel)

	viper.SetDefault("download.dir", defaults.Download.Dir)
	viper.SetDefault("download.verify", defaults.Download.Verify)
	viper.SetDefault("download.delay", defaults.Download.Delay)
	viper.SetDefault("download.retries", defaults.Download.Retries)
	viper.SetDefault("download.retry_backoff", defaults.Download.RetryBackoff)
	viper.SetDefault("download.progress", defaults.Download.Progress)

	viper.SetDefault("remote.base_url", defaults.Remote.BaseURL)
	viper.SetDefault("remote.session_file", defaults.Remote.SessionFile)
	viper.SetDefault("remote.timeout", defaults.Remote.Timeout)
	viper.SetDefault("remote.retry_count", defaults.Remote.RetryCount)
	viper.SetDefault("remote.user_agent", defaults.Remote.UserAgent)

	viper.SetDefault("listing.page_size", defaults.Listing.PageSize)
	viper.SetDefault("listing.stable_probes", defaults.Listing.StableProbes)
	viper.SetDefault("listing.max_probes", defaults.Listing.MaxProbes)
	viper.SetDefault("listing.probe_interval", defaults.Listing.ProbeInterval)
	viper.SetDefault("listing.start_year", defaults.Listing.StartYear)
	viper.SetDefault("listing.monthly_years", defaults.Listing.MonthlyYears)
}
