// Package pipeline runs the per-team scrape: render, locate the stats table,
// normalize it and persist one artifact per team plus a combined artifact.
package pipeline

import (
	"context"
	"strings"
	"time"

	"github.com/PuerkitoBio/goquery"
	"github.com/cockroachdb/errors"
	"github.com/sourcegraph/conc/pool"
	"golang.org/x/time/rate"

	"github.com/tyler180/football-stats-scraper/internal/browser"
	"github.com/tyler180/football-stats-scraper/internal/logging"
	"github.com/tyler180/football-stats-scraper/internal/store"
	"github.com/tyler180/football-stats-scraper/internal/whoscored"
)

type Stage string

const (
	StageRender    Stage = "render"
	StageExtract   Stage = "extract"
	StageNormalize Stage = "normalize"
	StagePersist   Stage = "persist"
)

type Config struct {
	TableSelector string
	// TeamDelay separates consecutive teams. In sequential mode it is slept
	// after every team but the last; with Concurrency > 1 it spaces render
	// starts instead.
	TeamDelay    time.Duration
	Concurrency  int
	CombinedName string
}

type TeamFailure struct {
	Team  whoscored.TeamSource
	Stage Stage
	Err   error
}

type TeamResult struct {
	Team     whoscored.TeamSource
	Artifact string
	Records  int
	Warnings []string
}

type Result struct {
	Succeeded []TeamResult
	Failed    []TeamFailure
	// Combined holds every normalized record in team-list order, including
	// those of teams whose own artifact failed to persist.
	Combined whoscored.Dataset
}

type Runner struct {
	Cfg      Config
	Renderer browser.Renderer
	Sink     store.Sink
	Log      *logging.Logger

	sleep func(context.Context, time.Duration) error
}

func NewRunner(cfg Config, r browser.Renderer, sink store.Sink, log *logging.Logger) *Runner {
	if cfg.Concurrency < 1 {
		cfg.Concurrency = 1
	}
	if cfg.CombinedName == "" {
		cfg.CombinedName = "la-liga-2019-2020_stats"
	}
	if log == nil {
		log = logging.NewNop()
	}
	return &Runner{Cfg: cfg, Renderer: r, Sink: sink, Log: log, sleep: sleepCtx}
}

// teamOutcome is what one team contributes. records may be set even when
// failure is, if only persisting failed.
type teamOutcome struct {
	records  whoscored.Dataset
	result   TeamResult
	failure  *TeamFailure
	canceled bool
}

// Run processes every team. A failing team is logged and recorded in the
// Result; the error return is reserved for cancellation and for failing to
// write the combined artifact.
func (r *Runner) Run(ctx context.Context, teams []whoscored.TeamSource) (Result, error) {
	var outcomes []teamOutcome
	if r.Cfg.Concurrency > 1 && len(teams) > 1 {
		outcomes = r.runPool(ctx, teams)
	} else {
		outcomes = r.runSequential(ctx, teams)
	}

	var res Result
	for _, o := range outcomes {
		if o.canceled {
			continue
		}
		res.Combined = append(res.Combined, o.records...)
		if o.failure != nil {
			res.Failed = append(res.Failed, *o.failure)
			continue
		}
		res.Succeeded = append(res.Succeeded, o.result)
	}
	if err := ctx.Err(); err != nil {
		return res, err
	}

	r.Log.Info("batch finished", "teams", len(teams), "succeeded", len(res.Succeeded), "failed", len(res.Failed), "records", len(res.Combined))
	if len(res.Succeeded) == 0 {
		r.Log.Warn("no team succeeded; combined artifact not written")
		return res, nil
	}

	err := r.Sink.Put(ctx, store.Artifact{Name: r.Cfg.CombinedName, Combined: true, Records: res.Combined})
	if err != nil {
		return res, errors.Mark(errors.Wrapf(err, "persist %s", r.Cfg.CombinedName), whoscored.ErrPersist)
	}
	r.Log.Info("combined artifact written", "name", r.Cfg.CombinedName, "records", len(res.Combined))
	return res, nil
}

func (r *Runner) runSequential(ctx context.Context, teams []whoscored.TeamSource) []teamOutcome {
	out := make([]teamOutcome, 0, len(teams))
	for i, t := range teams {
		if ctx.Err() != nil {
			break
		}
		out = append(out, r.processTeam(ctx, t))
		if i < len(teams)-1 {
			if err := r.sleep(ctx, r.Cfg.TeamDelay); err != nil {
				break
			}
		}
	}
	return out
}

// runPool renders up to Concurrency teams at once. Starts are spaced by
// TeamDelay through a shared limiter; results keep team-list order.
func (r *Runner) runPool(ctx context.Context, teams []whoscored.TeamSource) []teamOutcome {
	limit := rate.Inf
	if r.Cfg.TeamDelay > 0 {
		limit = rate.Every(r.Cfg.TeamDelay)
	}
	limiter := rate.NewLimiter(limit, 1)

	out := make([]teamOutcome, len(teams))
	p := pool.New().WithMaxGoroutines(r.Cfg.Concurrency)
	for i, t := range teams {
		i, t := i, t
		p.Go(func() {
			if err := limiter.Wait(ctx); err != nil {
				out[i] = teamOutcome{canceled: true}
				return
			}
			out[i] = r.processTeam(ctx, t)
		})
	}
	p.Wait()
	return out
}

func (r *Runner) processTeam(ctx context.Context, t whoscored.TeamSource) teamOutcome {
	log := r.Log.With("team", t.Name)
	fail := func(stage Stage, err error) teamOutcome {
		if ctx.Err() != nil {
			return teamOutcome{canceled: true}
		}
		log.Error("team skipped", "stage", string(stage), "err", err)
		return teamOutcome{failure: &TeamFailure{Team: t, Stage: stage, Err: err}}
	}

	start := time.Now()
	log.Info("rendering", "url", t.URL)
	html, err := r.Renderer.Render(ctx, t.URL)
	if err != nil {
		return fail(StageRender, err)
	}

	doc, err := goquery.NewDocumentFromReader(strings.NewReader(html))
	if err != nil {
		return fail(StageExtract, errors.Wrap(err, "parse rendered html"))
	}
	whoscored.DumpTablesForDebug(log, doc, t.Name)

	raw, err := whoscored.ExtractFromDocument(doc, r.Cfg.TableSelector)
	if err != nil {
		return fail(StageExtract, err)
	}
	log.Info("table located", "headers", len(raw.Headers), "rows", len(raw.Rows))
	if log.Enabled(logging.LevelDebug) {
		log.Debug("table headers", "headers", strings.Join(raw.Headers, "|"))
		for i, row := range raw.Rows {
			log.Debug("table row", "index", i, "cells", strings.Join(row, "|"))
		}
	}

	norm, err := whoscored.Normalize(raw, t.Name)
	if err != nil {
		return fail(StageNormalize, err)
	}
	for _, w := range norm.Warnings {
		log.Warn("schema mismatch", "detail", w)
	}
	if norm.PartialRows > 0 {
		log.Warn("player cells did not match identity pattern", "rows", norm.PartialRows)
	}

	name := whoscored.TeamFileName(t.Name)
	o := teamOutcome{
		records: norm.Records,
		result:  TeamResult{Team: t, Artifact: name, Records: len(norm.Records), Warnings: norm.Warnings},
	}
	if err := r.Sink.Put(ctx, store.Artifact{Name: name, Team: t.Name, Records: norm.Records}); err != nil {
		f := fail(StagePersist, errors.Mark(errors.Wrapf(err, "persist %s", name), whoscored.ErrPersist))
		f.records = norm.Records
		return f
	}
	log.Info("team done", "artifact", name, "records", len(norm.Records), "columns", norm.Columns, "took", time.Since(start).Round(time.Millisecond))
	return o
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
