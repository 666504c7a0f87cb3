package social

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"regexp"
	"time"

	"go.uber.org/zap"

	"github.com/ganhesocial/ganhesocial/internal/config"
)

// ErrActorUnavailable marks upstream rejections that retrying cannot
// fix: the profile or post does not exist, is private, or the
// identifier is malformed.
var ErrActorUnavailable = errors.New("actor_unavailable")

var nonRetryablePattern = regexp.MustCompile(`(?i)not found|private|user not found|not exists|invalid`)

// Client wraps the RapidAPI relation endpoints. One instance is shared
// by every verification strategy; the per-call throttle keeps the
// vendor rate limits honored across them.
type Client struct {
	http   *http.Client
	apiKey string
	holder *config.WorkerConfigHolder
	log    *zap.Logger
	sleep  func(context.Context, time.Duration)
}

func NewClient(apiKey string, holder *config.WorkerConfigHolder, log *zap.Logger) *Client {
	cfg := holder.Get()
	return &Client{
		http:   &http.Client{Timeout: cfg.HTTPTimeout},
		apiKey: apiKey,
		holder: holder,
		log:    log.Named("social.client"),
		sleep:  sleepCtx,
	}
}

func sleepCtx(ctx context.Context, d time.Duration) {
	t := time.NewTimer(d)
	defer t.Stop()
	select {
	case <-ctx.Done():
	case <-t.C:
	}
}

// getJSON fetches one endpoint page with retries and decodes the body
// into out. Transient failures back off exponentially; a 400 whose
// body matches the known unavailable markers aborts immediately with
// ErrActorUnavailable.
func (c *Client) getJSON(ctx context.Context, host, path string, params url.Values, out any) error {
	cfg := c.holder.Get()

	u := url.URL{Scheme: "https", Host: host, Path: path, RawQuery: params.Encode()}

	var lastErr error
	for attempt := 0; attempt <= cfg.FetchRetries; attempt++ {
		if attempt > 0 {
			wait := time.Duration(1<<uint(attempt-1)) * time.Second
			if wait > 15*time.Second {
				wait = 15 * time.Second
			}
			c.sleep(ctx, wait)
			if ctx.Err() != nil {
				return ctx.Err()
			}
		}

		body, err := c.do(ctx, u.String(), host)
		if err == nil {
			c.sleep(ctx, cfg.UpstreamThrottle)
			return json.Unmarshal(body, out)
		}
		if errors.Is(err, ErrActorUnavailable) || errors.Is(err, context.Canceled) {
			return err
		}
		lastErr = err
		c.log.Warn("upstream fetch failed",
			zap.String("host", host),
			zap.String("path", path),
			zap.Int("attempt", attempt+1),
			zap.Error(err))
	}
	return lastErr
}

func (c *Client) do(ctx context.Context, rawURL, host string) ([]byte, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, rawURL, nil)
	if err != nil {
		return nil, err
	}
	req.Header.Set("x-rapidapi-key", c.apiKey)
	req.Header.Set("x-rapidapi-host", host)

	resp, err := c.http.Do(req)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(io.LimitReader(resp.Body, 8<<20))
	if err != nil {
		return nil, err
	}
	if resp.StatusCode == http.StatusBadRequest && nonRetryablePattern.Match(body) {
		return nil, fmt.Errorf("%w: %s", ErrActorUnavailable, truncate(body, 200))
	}
	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("upstream status %d: %s", resp.StatusCode, truncate(body, 200))
	}
	return body, nil
}

func truncate(b []byte, n int) string {
	if len(b) <= n {
		return string(b)
	}
	return string(b[:n]) + "..."
}
