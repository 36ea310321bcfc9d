// Command statscrape scrapes per-player season statistics for the configured
// teams and writes one artifact per team plus a combined artifact.
//
// Usage:
//
//	statscrape run --out data --format csv
//	statscrape run --teams barcelona --team-delay 2s
//	statscrape teams
//	statscrape parse saved-page.html --team Barcelona > barcelona.csv
package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/cockroachdb/errors"
	"github.com/joho/godotenv"
	"github.com/spf13/cobra"

	"github.com/tyler180/football-stats-scraper/internal/app"
	"github.com/tyler180/football-stats-scraper/internal/config"
	"github.com/tyler180/football-stats-scraper/internal/logging"
	"github.com/tyler180/football-stats-scraper/internal/store"
	"github.com/tyler180/football-stats-scraper/internal/whoscored"
)

func main() {
	_ = godotenv.Load(".env")

	if err := newRootCmd().Execute(); err != nil {
		fmt.Fprintln(os.Stderr, "error:", err)
		os.Exit(1)
	}
}

func newRootCmd() *cobra.Command {
	root := &cobra.Command{
		Use:           "statscrape",
		Short:         "Scrape team player statistics into CSV or Parquet",
		SilenceUsage:  true,
		SilenceErrors: true,
	}
	root.AddCommand(runCmd(), teamsCmd(), parseCmd())
	return root
}

func loadConfig() (config.Config, *logging.Logger, error) {
	cfg, err := config.Load()
	if err != nil {
		return config.Config{}, nil, err
	}
	return cfg, logging.New(cfg.LogLevel, cfg.LogFormat), nil
}

func runCmd() *cobra.Command {
	var (
		out, format, teams string
		concurrency        int
		teamDelay          time.Duration
	)
	cmd := &cobra.Command{
		Use:   "run",
		Short: "Scrape every configured team",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := config.Load()
			if err != nil {
				return err
			}
			flags := cmd.Flags()
			if flags.Changed("out") {
				cfg.OutputDir = out
			}
			if flags.Changed("format") {
				cfg.OutputFormat = format
			}
			if flags.Changed("concurrency") {
				cfg.Concurrency = concurrency
			}
			if flags.Changed("team-delay") {
				cfg.TeamDelay = teamDelay
			}
			if flags.Changed("teams") {
				if cfg.Teams, err = config.ResolveTeams(os.Getenv("TEAMS"), teams); err != nil {
					return err
				}
			}
			if err := cfg.Validate(); err != nil {
				return err
			}

			log := logging.New(cfg.LogLevel, cfg.LogFormat)
			defer func() { _ = log.Sync() }()

			ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
			defer stop()

			runner, err := app.Build(ctx, cfg, true, log)
			if err != nil {
				return err
			}
			start := time.Now()
			res, err := runner.Run(ctx, cfg.Teams)
			for _, f := range res.Failed {
				log.Warn("team failed", "team", f.Team.Name, "stage", string(f.Stage), "err", f.Err)
			}
			if err != nil {
				return err
			}
			log.Info("run complete",
				"succeeded", len(res.Succeeded),
				"failed", len(res.Failed),
				"records", len(res.Combined),
				"duration", time.Since(start).Round(time.Second),
			)
			if len(res.Succeeded) == 0 {
				return errors.New("no team succeeded")
			}
			return nil
		},
	}
	f := cmd.Flags()
	f.StringVar(&out, "out", "data", "output directory (OUTPUT_DIR)")
	f.StringVar(&format, "format", "csv", "artifact format: csv or parquet (OUTPUT_FORMAT)")
	f.StringVar(&teams, "teams", "", "comma-separated subset of team names or slugs (TEAM_LIST)")
	f.IntVar(&concurrency, "concurrency", 1, "teams rendered at once, 1..8 (CONCURRENCY)")
	f.DurationVar(&teamDelay, "team-delay", 5*time.Second, "pause between teams (TEAM_DELAY_MS)")
	return cmd
}

func teamsCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "teams",
		Short: "Print the resolved team list and artifact names",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, _, err := loadConfig()
			if err != nil {
				return err
			}
			enc, err := store.EncoderFor(cfg.OutputFormat)
			if err != nil {
				return err
			}
			w := cmd.OutOrStdout()
			for _, t := range cfg.Teams {
				fmt.Fprintf(w, "%-20s %s.%s\t%s\n", t.Name, whoscored.TeamFileName(t.Name), enc.Ext(), t.URL)
			}
			fmt.Fprintf(w, "%-20s %s.%s\n", "(combined)", cfg.CombinedName, enc.Ext())
			return nil
		},
	}
}

func parseCmd() *cobra.Command {
	var team, selector string
	cmd := &cobra.Command{
		Use:   "parse FILE",
		Short: "Normalize a saved team page and write CSV to stdout",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, log, err := loadConfig()
			if err != nil {
				return err
			}
			if selector == "" {
				selector = cfg.TableSelector
			}
			f, err := os.Open(args[0])
			if err != nil {
				return errors.Wrap(err, "open page")
			}
			defer f.Close()

			raw, err := whoscored.ExtractTable(f, selector)
			if err != nil {
				return err
			}
			norm, err := whoscored.Normalize(raw, team)
			if err != nil {
				return err
			}
			for _, w := range norm.Warnings {
				log.Warn("schema mismatch", "detail", w)
			}
			log.Info("parsed", "headers", len(raw.Headers), "rows", len(norm.Records), "partial", norm.PartialRows)
			return store.CSVEncoder{}.Encode(cmd.OutOrStdout(), norm.Records)
		},
	}
	cmd.Flags().StringVar(&team, "team", "", "team name written to the Team column")
	cmd.Flags().StringVar(&selector, "selector", "", "table locator (default TABLE_SELECTOR)")
	return cmd
}
