package remote

import (
	"context"
	"time"

	"github.com/goccy/go-json"
	"github.com/imroc/req/v3"
	"github.com/mwantia/photosync/internal/config"
	"github.com/mwantia/photosync/pkg/log"
)

const (
	searchPath  = "/drive/v1/search"
	contentPath = "/drive/v1/nodes/{id}/contentRedirection"
)

// Client talks to the remote drive API. It serves both as listing source
// and as retrieval service.
type Client struct {
	cfg     config.RemoteConfig
	listing config.ListingConfig

	http *req.Client
	log  log.LoggerService
	now  func() time.Time
}

func NewClient(cfg config.RemoteConfig, listing config.ListingConfig, session *Session, logger log.LoggerService) *Client {
	client := req.C().
		SetBaseURL(cfg.BaseURL).
		SetTimeout(cfg.GetTimeout()).
		SetUserAgent(cfg.UserAgent).
		SetCommonHeader("Accept", "application/json").
		SetCommonRetryCount(cfg.RetryCount).
		SetCommonRetryFixedInterval(1*time.Second).
		SetCommonRetryCondition(func(resp *req.Response, err error) bool {
			if err != nil {
				return true
			}
			status := resp.GetStatusCode()
			return status == 429 || status >= 500
		}).
		SetJsonMarshal(json.Marshal).
		SetJsonUnmarshal(json.Unmarshal)

	if session != nil {
		client.SetCommonCookies(session.Cookies...)
	}

	return &Client{
		cfg:     cfg,
		listing: listing,
		http:    client,
		log:     logger,
		now:     time.Now,
	}
}

func sleepContext(ctx context.Context, d time.Duration) error {
	if d <= 0 {
		return ctx.Err()
	}

	timer := time.NewTimer(d)
	defer timer.Stop()

	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-timer.C:
		return nil
	}
}
