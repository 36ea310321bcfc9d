package browser

import (
	"context"
	"math/rand"
	"time"

	"github.com/cockroachdb/errors"

	"github.com/tyler180/football-stats-scraper/internal/logging"
	"github.com/tyler180/football-stats-scraper/internal/whoscored"
)

type RetryConfig struct {
	MaxAttempts int
	Base        time.Duration
	MaxBackoff  time.Duration
}

// Retrying re-runs a Renderer on driver failures with capped exponential
// backoff. Other errors, including context cancellation, return at once.
type Retrying struct {
	Next Renderer
	Cfg  RetryConfig
	Log  *logging.Logger

	sleep func(context.Context, time.Duration) error
}

func NewRetrying(next Renderer, cfg RetryConfig, log *logging.Logger) *Retrying {
	if cfg.MaxAttempts < 1 {
		cfg.MaxAttempts = 1
	}
	if log == nil {
		log = logging.NewNop()
	}
	return &Retrying{Next: next, Cfg: cfg, Log: log, sleep: sleepCtx}
}

func (r *Retrying) Render(ctx context.Context, url string) (string, error) {
	var lastErr error
	for attempt := 0; attempt < r.Cfg.MaxAttempts; attempt++ {
		html, err := r.Next.Render(ctx, url)
		if err == nil {
			return html, nil
		}
		if !errors.Is(err, whoscored.ErrDriver) {
			return "", err
		}
		lastErr = err
		if attempt == r.Cfg.MaxAttempts-1 {
			break
		}
		wait := backoff(attempt, r.Cfg.Base, r.Cfg.MaxBackoff)
		r.Log.Warn("render failed, retrying", "url", url, "attempt", attempt+1, "of", r.Cfg.MaxAttempts, "backoff", wait, "err", err)
		if err := r.sleep(ctx, wait); err != nil {
			return "", err
		}
	}
	return "", errors.Wrapf(lastErr, "exhausted %d attempts", r.Cfg.MaxAttempts)
}

// backoff doubles base per attempt and adds up to 250ms of jitter, capped.
func backoff(attempt int, base, max time.Duration) time.Duration {
	d := base * time.Duration(1<<attempt)
	j := time.Duration(rand.Intn(250)) * time.Millisecond
	if max > 0 && d+j > max {
		return max
	}
	return d + j
}
