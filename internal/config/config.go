package config

import (
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/cockroachdb/errors"
	"github.com/go-playground/validator/v10"

	"github.com/tyler180/football-stats-scraper/internal/logging"
	"github.com/tyler180/football-stats-scraper/internal/whoscored"
)

const (
	RenderChrome = "chrome"
	RenderStatic = "static"
)

// Config stores runtime configuration for a scrape run.
type Config struct {
	OutputDir    string `validate:"required"`
	OutputFormat string `validate:"oneof=csv parquet"`
	CombinedName string `validate:"required"`
	Season       string `validate:"required"`

	Teams         []whoscored.TeamSource `validate:"min=1,dive"`
	TableSelector string                 `validate:"required"`

	RenderMode    string `validate:"oneof=chrome static"`
	ChromePath    string
	UserAgent     string        `validate:"required"`
	RenderTimeout time.Duration `validate:"gt=0"`
	SettleDelay   time.Duration `validate:"gte=0"`
	TeamDelay     time.Duration `validate:"gte=0"`
	Concurrency   int           `validate:"min=1,max=8"`

	RetryMaxAttempts int           `validate:"min=1,max=10"`
	RetryBase        time.Duration `validate:"gte=0"`
	RetryMax         time.Duration `validate:"gtefield=RetryBase"`

	S3Bucket        string `validate:"required_with=AthenaDB"`
	S3Prefix        string
	DynamoTable     string
	AthenaDB        string
	AthenaWorkgroup string
	AthenaOutput    string `validate:"omitempty,startswith=s3://"`

	LogLevel  logging.Level
	LogFormat string `validate:"oneof=console json"`
	Debug     bool
}

var validate = validator.New(validator.WithRequiredStructEnabled())

// Load reads the environment. Callers that want a .env file loaded must do
// so before calling Load.
func Load() (Config, error) {
	cfg := Config{
		OutputDir:       getEnv("OUTPUT_DIR", "data"),
		OutputFormat:    strings.ToLower(getEnv("OUTPUT_FORMAT", "csv")),
		CombinedName:    getEnv("COMBINED_NAME", "la-liga-2019-2020_stats"),
		Season:          getEnv("SEASON", "2019-2020"),
		TableSelector:   getEnv("TABLE_SELECTOR", whoscored.DefaultTableSelector),
		RenderMode:      strings.ToLower(getEnv("RENDER_MODE", RenderChrome)),
		ChromePath:      getEnv("CHROME_PATH", ""),
		UserAgent:       getEnv("USER_AGENT", whoscored.DefaultUserAgent),
		S3Bucket:        getEnv("S3_BUCKET", ""),
		S3Prefix:        strings.Trim(getEnv("S3_PREFIX", ""), "/"),
		DynamoTable:     getEnv("TABLE_NAME", ""),
		AthenaDB:        getEnv("ATHENA_DB", ""),
		AthenaWorkgroup: getEnv("ATHENA_WORKGROUP", ""),
		AthenaOutput:    getEnv("ATHENA_OUTPUT", ""),
		LogLevel:        logging.ParseLevel(getEnv("LOG_LEVEL", "info")),
		LogFormat:       strings.ToLower(getEnv("LOG_FORMAT", "console")),
	}

	var err error
	if cfg.RenderTimeout, err = getEnvAsMillis("RENDER_TIMEOUT_MS", 30000); err != nil {
		return Config{}, err
	}
	if cfg.SettleDelay, err = getEnvAsMillis("SETTLE_DELAY_MS", 5000); err != nil {
		return Config{}, err
	}
	if cfg.TeamDelay, err = getEnvAsMillis("TEAM_DELAY_MS", 5000); err != nil {
		return Config{}, err
	}
	if cfg.RetryBase, err = getEnvAsMillis("HTTP_RETRY_BASE_MS", 400); err != nil {
		return Config{}, err
	}
	if cfg.RetryMax, err = getEnvAsMillis("HTTP_RETRY_MAX_MS", 6000); err != nil {
		return Config{}, err
	}
	if cfg.Concurrency, err = getEnvAsInt("CONCURRENCY", 1); err != nil {
		return Config{}, err
	}
	if cfg.RetryMaxAttempts, err = getEnvAsInt("HTTP_MAX_ATTEMPTS", 3); err != nil {
		return Config{}, err
	}
	if cfg.Debug, err = getEnvAsBool("DEBUG", false); err != nil {
		return Config{}, err
	}
	if cfg.Debug {
		cfg.LogLevel = logging.LevelDebug
	}

	if cfg.Teams, err = ResolveTeams(os.Getenv("TEAMS"), os.Getenv("TEAM_LIST")); err != nil {
		return Config{}, err
	}
	return cfg, cfg.Validate()
}

// ResolveTeams returns the configured team list. teams replaces the built-in
// list when set; list then narrows it to the named teams.
func ResolveTeams(teams, list string) ([]whoscored.TeamSource, error) {
	all := whoscored.DefaultTeams()
	if strings.TrimSpace(teams) != "" {
		parsed, err := whoscored.ParseTeams(teams)
		if err != nil {
			return nil, errors.Wrap(err, "TEAMS")
		}
		all = parsed
	}
	sub := whoscored.ApplyTeamSubset(all, list)
	if len(sub) == 0 {
		return nil, errors.Newf("TEAM_LIST %q matches no configured team", list)
	}
	return sub, nil
}

func (c Config) Validate() error {
	if err := validate.Struct(c); err != nil {
		return errors.Wrap(err, "invalid config")
	}
	return nil
}

func getEnv(key, fallback string) string {
	if v := strings.TrimSpace(os.Getenv(key)); v != "" {
		return v
	}
	return fallback
}

func getEnvAsInt(key string, fallback int) (int, error) {
	v := strings.TrimSpace(os.Getenv(key))
	if v == "" {
		return fallback, nil
	}
	n, err := strconv.Atoi(v)
	if err != nil {
		return 0, errors.Wrapf(err, "parse %s", key)
	}
	return n, nil
}

func getEnvAsMillis(key string, fallback int) (time.Duration, error) {
	n, err := getEnvAsInt(key, fallback)
	return time.Duration(n) * time.Millisecond, err
}

func getEnvAsBool(key string, fallback bool) (bool, error) {
	v := strings.TrimSpace(os.Getenv(key))
	if v == "" {
		return fallback, nil
	}
	b, err := strconv.ParseBool(v)
	if err != nil {
		return false, errors.Wrapf(err, "parse %s", key)
	}
	return b, nil
}
