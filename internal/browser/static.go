package browser

import (
	"context"
	"time"

	"github.com/cockroachdb/errors"
	"github.com/gocolly/colly/v2"

	"github.com/tyler180/football-stats-scraper/internal/whoscored"
)

// StaticRenderer fetches server-rendered HTML without a browser. It serves
// saved mirrors of the archive pages and any source that needs no JavaScript.
type StaticRenderer struct {
	UserAgent string
	Timeout   time.Duration
}

func (s *StaticRenderer) Render(ctx context.Context, url string) (string, error) {
	if err := ctx.Err(); err != nil {
		return "", err
	}
	ua := s.UserAgent
	if ua == "" {
		ua = whoscored.DefaultUserAgent
	}
	c := colly.NewCollector(colly.UserAgent(ua))
	if s.Timeout > 0 {
		c.SetRequestTimeout(s.Timeout)
	}
	c.OnRequest(func(r *colly.Request) {
		r.Headers.Set("Accept-Language", "en-US,en;q=0.9")
		if ctx.Err() != nil {
			r.Abort()
		}
	})

	var body []byte
	c.OnResponse(func(r *colly.Response) {
		body = r.Body
	})

	if err := c.Visit(url); err != nil {
		return "", driverErr(ctx, err, "fetch %s", url)
	}
	if body == nil {
		return "", driverErr(ctx, errors.New("empty response"), "fetch %s", url)
	}
	return string(body), nil
}
