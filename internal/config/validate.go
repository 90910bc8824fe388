package config

import (
	"errors"
	"fmt"
	"net/url"
	"time"
)

// Validate reports every invalid setting at once
func (c *BaseConfig) Validate() error {
	var errs []error

	for key, value := range map[string]string{
		"shutdown_timeout":       c.ShutdownTimeout,
		"download.delay":         c.Download.Delay,
		"download.retry_backoff": c.Download.RetryBackoff,
		"remote.timeout":         c.Remote.Timeout,
		"listing.probe_interval": c.Listing.ProbeInterval,
	} {
		if value == "" {
			continue
		}
		if d, err := time.ParseDuration(value); err != nil || d < 0 {
			errs = append(errs, fmt.Errorf("%s: invalid duration %q", key, value))
		}
	}

	if c.Store.Path == "" {
		errs = append(errs, errors.New("store.path must not be empty"))
	}
	if c.Download.Dir == "" {
		errs = append(errs, errors.New("download.dir must not be empty"))
	}
	if c.Download.Retries < 0 {
		errs = append(errs, fmt.Errorf("download.retries must not be negative, got %d", c.Download.Retries))
	}

	if u, err := url.Parse(c.Remote.BaseURL); err != nil || u.Scheme == "" || u.Host == "" {
		errs = append(errs, fmt.Errorf("remote.base_url: invalid url %q", c.Remote.BaseURL))
	}
	if c.Remote.RetryCount < 0 {
		errs = append(errs, fmt.Errorf("remote.retry_count must not be negative, got %d", c.Remote.RetryCount))
	}

	if c.Listing.PageSize <= 0 {
		errs = append(errs, fmt.Errorf("listing.page_size must be positive, got %d", c.Listing.PageSize))
	}
	if c.Listing.StableProbes <= 0 {
		errs = append(errs, fmt.Errorf("listing.stable_probes must be positive, got %d", c.Listing.StableProbes))
	}
	if c.Listing.MaxProbes < c.Listing.StableProbes {
		errs = append(errs, fmt.Errorf("listing.max_probes (%d) must be at least listing.stable_probes (%d)", c.Listing.MaxProbes, c.Listing.StableProbes))
	}
	if c.Listing.MonthlyYears < 0 {
		errs = append(errs, fmt.Errorf("listing.monthly_years must not be negative, got %d", c.Listing.MonthlyYears))
	}

	return errors.Join(errs...)
}
