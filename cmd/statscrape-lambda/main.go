package main

import (
	"bytes"
	"context"
	"encoding/json"
	"os"

	"github.com/aws/aws-lambda-go/lambda"
	"github.com/cockroachdb/errors"

	"github.com/tyler180/football-stats-scraper/internal/app"
	"github.com/tyler180/football-stats-scraper/internal/config"
	"github.com/tyler180/football-stats-scraper/internal/logging"
)

type Event struct {
	Teams  string `json:"teams"`  // optional TEAM_LIST override
	Season string `json:"season"` // optional; falls back to env
}

type TeamError struct {
	Team  string `json:"team"`
	Stage string `json:"stage"`
	Error string `json:"error"`
}

type Response struct {
	OK        bool        `json:"ok"`
	Season    string      `json:"season"`
	Succeeded []string    `json:"succeeded"`
	Failed    []TeamError `json:"failed,omitempty"`
	Records   int         `json:"records"`
}

// parseEvent accepts an empty or null payload as the zero Event.
func parseEvent(raw json.RawMessage) (Event, error) {
	var evt Event
	if len(bytes.TrimSpace(raw)) == 0 {
		return evt, nil
	}
	if err := json.Unmarshal(raw, &evt); err != nil {
		return evt, errors.Wrap(err, "decode event")
	}
	return evt, nil
}

func handler(ctx context.Context, e json.RawMessage) (*Response, error) {
	evt, err := parseEvent(e)
	if err != nil {
		return nil, err
	}

	cfg, err := config.Load()
	if err != nil {
		return nil, err
	}
	if evt.Season != "" {
		cfg.Season = evt.Season
	}
	if evt.Teams != "" {
		if cfg.Teams, err = config.ResolveTeams(os.Getenv("TEAMS"), evt.Teams); err != nil {
			return nil, err
		}
	}
	if cfg.S3Bucket == "" {
		return nil, errors.New("S3_BUCKET is required")
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	log := logging.New(cfg.LogLevel, "json")
	defer func() { _ = log.Sync() }()

	runner, err := app.Build(ctx, cfg, false, log)
	if err != nil {
		return nil, err
	}
	res, err := runner.Run(ctx, cfg.Teams)
	if err != nil {
		return nil, err
	}

	out := &Response{OK: len(res.Succeeded) > 0, Season: cfg.Season, Records: len(res.Combined)}
	for _, s := range res.Succeeded {
		out.Succeeded = append(out.Succeeded, s.Team.Name)
	}
	for _, f := range res.Failed {
		out.Failed = append(out.Failed, TeamError{Team: f.Team.Name, Stage: string(f.Stage), Error: f.Err.Error()})
	}
	log.Info("lambda run complete", "season", out.Season, "succeeded", len(out.Succeeded), "failed", len(out.Failed))
	return out, nil
}

func main() { lambda.Start(handler) }
