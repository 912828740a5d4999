package tools

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/808vita/sdg-6-water-agents/internal/reliability"
)

const (
	backoffBase = 200 * time.Millisecond
	backoffCap  = 2 * time.Second
)

// getter issues rate-limited GET requests with bounded retry on transient
// upstream failures.
type getter struct {
	client   *http.Client
	limiter  *reliability.Limiter
	clock    reliability.Clock
	retryMax int
}

func newGetter(opts Options) getter {
	opts = opts.withDefaults()
	return getter{
		client:   opts.HTTPClient,
		limiter:  reliability.NewLimiter(opts.MinInterval, opts.Clock),
		clock:    opts.Clock,
		retryMax: opts.RetryMax,
	}
}

func (g getter) getJSON(ctx context.Context, url string, out any) error {
	var lastErr error
	for attempt := 0; attempt <= g.retryMax; attempt++ {
		if attempt > 0 {
			if err := g.clock.Sleep(ctx, reliability.ExponentialBackoff(attempt-1, backoffBase, backoffCap)); err != nil {
				return err
			}
		}
		if err := g.limiter.Wait(ctx); err != nil {
			return err
		}

		retryable, err := g.fetch(ctx, url, out)
		if err == nil {
			return nil
		}
		lastErr = err
		if !retryable {
			return err
		}
	}
	return lastErr
}

func (g getter) fetch(ctx context.Context, url string, out any) (retryable bool, err error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return false, err
	}
	req.Header.Set("Accept", "application/json")

	resp, err := g.client.Do(req)
	if err != nil {
		if ctx.Err() != nil {
			return false, ctx.Err()
		}
		return true, err
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		_, _ = io.Copy(io.Discard, io.LimitReader(resp.Body, 4096))
		return reliability.IsRetryableHTTPStatus(resp.StatusCode),
			fmt.Errorf("unexpected status %d from %s", resp.StatusCode, req.URL.Host)
	}
	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return false, fmt.Errorf("decode response from %s: %w", req.URL.Host, err)
	}
	return false, nil
}
