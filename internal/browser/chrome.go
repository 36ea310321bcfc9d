// Package browser renders team pages. ChromeRenderer drives headless Chrome
// for the JavaScript-built stats grid; StaticRenderer fetches plain HTML.
package browser

import (
	"context"
	"time"

	"github.com/chromedp/chromedp"
	"github.com/cockroachdb/errors"

	"github.com/tyler180/football-stats-scraper/internal/logging"
	"github.com/tyler180/football-stats-scraper/internal/whoscored"
)

// Renderer returns the rendered HTML of a page.
type Renderer interface {
	Render(ctx context.Context, url string) (string, error)
}

type ChromeOptions struct {
	UserAgent string
	// ExecPath overrides the Chrome binary; empty uses chromedp's lookup.
	ExecPath string
	// WaitSelector is polled after navigation until it is ready or
	// RenderTimeout elapses.
	WaitSelector  string
	RenderTimeout time.Duration
	// SettleDelay is an extra fixed wait after the selector is ready, for
	// cells filled in by late XHRs. Zero disables it.
	SettleDelay time.Duration
}

// ChromeRenderer starts one browser per Render call and always tears it
// down before returning.
type ChromeRenderer struct {
	opts ChromeOptions
	log  *logging.Logger
}

func NewChromeRenderer(opts ChromeOptions, log *logging.Logger) *ChromeRenderer {
	if opts.UserAgent == "" {
		opts.UserAgent = whoscored.DefaultUserAgent
	}
	if opts.WaitSelector == "" {
		opts.WaitSelector = whoscored.DefaultTableSelector
	}
	if opts.RenderTimeout <= 0 {
		opts.RenderTimeout = 30 * time.Second
	}
	if log == nil {
		log = logging.NewNop()
	}
	return &ChromeRenderer{opts: opts, log: log}
}

func (c *ChromeRenderer) allocatorOptions() []chromedp.ExecAllocatorOption {
	opts := append(chromedp.DefaultExecAllocatorOptions[:],
		chromedp.Flag("headless", true),
		chromedp.Flag("disable-gpu", true),
		chromedp.Flag("no-sandbox", true),
		chromedp.Flag("disable-dev-shm-usage", true),
		chromedp.UserAgent(c.opts.UserAgent),
	)
	if c.opts.ExecPath != "" {
		opts = append(opts, chromedp.ExecPath(c.opts.ExecPath))
	}
	return opts
}

// sessionBudget bounds a whole Render: launch, navigate, wait and read each
// get RenderTimeout, plus the settle delay.
func (c *ChromeRenderer) sessionBudget() time.Duration {
	return 4*c.opts.RenderTimeout + c.opts.SettleDelay
}

func (c *ChromeRenderer) Render(ctx context.Context, url string) (string, error) {
	// The session deadline sits above the allocator, so expiry kills the
	// browser process and unblocks a hung launch or read.
	sessCtx, sessCancel := context.WithTimeout(ctx, c.sessionBudget())
	defer sessCancel()
	allocCtx, allocCancel := chromedp.NewExecAllocator(sessCtx, c.allocatorOptions()...)
	defer allocCancel()
	tabCtx, tabCancel := chromedp.NewContext(allocCtx)
	defer tabCancel()

	// The first Run allocates the browser and ties it to the context it is
	// given, so it runs on tabCtx; sessCtx bounds it.
	if err := chromedp.Run(tabCtx); err != nil {
		return "", driverErr(ctx, err, "launch browser")
	}

	navCtx, navCancel := context.WithTimeout(tabCtx, c.opts.RenderTimeout)
	err := chromedp.Run(navCtx, chromedp.Navigate(url))
	navCancel()
	if err != nil {
		return "", driverErr(ctx, err, "navigate %s", url)
	}

	start := time.Now()
	waitCtx, waitCancel := context.WithTimeout(tabCtx, c.opts.RenderTimeout)
	err = chromedp.Run(waitCtx, chromedp.WaitReady(c.opts.WaitSelector, chromedp.ByQuery))
	waitCancel()
	switch {
	case ctx.Err() != nil:
		return "", ctx.Err()
	case err != nil:
		// The locator reports the missing table; the page is still read.
		c.log.Warn("render wait timed out", "url", url, "selector", c.opts.WaitSelector, "waited", time.Since(start), "err", err)
	default:
		c.log.Debug("render ready", "url", url, "waited", time.Since(start))
	}

	if c.opts.SettleDelay > 0 {
		if err := sleepCtx(ctx, c.opts.SettleDelay); err != nil {
			return "", err
		}
	}

	var html string
	readCtx, readCancel := context.WithTimeout(tabCtx, c.opts.RenderTimeout)
	defer readCancel()
	if err := chromedp.Run(readCtx, chromedp.OuterHTML("html", &html, chromedp.ByQuery)); err != nil {
		return "", driverErr(ctx, err, "read dom %s", url)
	}
	return html, nil
}

// driverErr marks err as a driver failure unless the caller's context ended.
func driverErr(ctx context.Context, err error, format string, args ...any) error {
	if ctx.Err() != nil {
		return ctx.Err()
	}
	return errors.Mark(errors.Wrapf(err, format, args...), whoscored.ErrDriver)
}

func sleepCtx(ctx context.Context, d time.Duration) error {
	if d <= 0 {
		return ctx.Err()
	}
	t := time.NewTimer(d)
	defer t.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-t.C:
		return nil
	}
}
