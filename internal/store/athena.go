package store

import (
	"context"
	"fmt"
	"regexp"
	"strings"
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/athena"
	"github.com/aws/aws-sdk-go-v2/service/athena/types"
	"github.com/cockroachdb/errors"

	"github.com/tyler180/football-stats-scraper/internal/logging"
)

type AthenaAPI interface {
	StartQueryExecution(ctx context.Context, params *athena.StartQueryExecutionInput, optFns ...func(*athena.Options)) (*athena.StartQueryExecutionOutput, error)
	GetQueryExecution(ctx context.Context, params *athena.GetQueryExecutionInput, optFns ...func(*athena.Options)) (*athena.GetQueryExecutionOutput, error)
}

// AthenaRegistrar creates an external table over the combined artifact
// folder once the combined artifact has been uploaded. Team artifacts are
// ignored. Place it after the S3 sink in a Multi.
type AthenaRegistrar struct {
	Client    AthenaAPI
	Database  string
	Workgroup string
	OutputS3  string // query results, s3://bucket/prefix/
	Location  string // table data, s3://bucket/prefix/season/combined/
	Format    string // csv or parquet
	Log       *logging.Logger

	Poll time.Duration
}

func (r *AthenaRegistrar) Put(ctx context.Context, a Artifact) error {
	if !a.Combined {
		return nil
	}
	table := TableName(a.Name)
	sql, err := BuildCreateTable(r.Database, table, r.Location, r.Format)
	if err != nil {
		return err
	}
	if _, err := r.ExecAndWait(ctx, sql); err != nil {
		return errors.Wrapf(err, "register athena table %s.%s", r.Database, table)
	}
	r.Log.Info("athena table registered", "table", r.Database+"."+table, "location", r.Location)
	return nil
}

// ExecAndWait starts a query and polls until it reaches a terminal state.
func (r *AthenaRegistrar) ExecAndWait(ctx context.Context, sql string) (*types.QueryExecution, error) {
	in := &athena.StartQueryExecutionInput{
		QueryString:           aws.String(sql),
		QueryExecutionContext: &types.QueryExecutionContext{Database: aws.String(r.Database)},
	}
	if r.OutputS3 != "" {
		in.ResultConfiguration = &types.ResultConfiguration{OutputLocation: aws.String(r.OutputS3)}
	}
	if r.Workgroup != "" {
		in.WorkGroup = aws.String(r.Workgroup)
	}
	startOut, err := r.Client.StartQueryExecution(ctx, in)
	if err != nil {
		return nil, errors.Wrap(err, "start query")
	}
	qid := aws.ToString(startOut.QueryExecutionId)
	r.Log.Debug("athena query started", "qid", qid)

	poll := r.Poll
	if poll <= 0 {
		poll = time.Second
	}
	tick := time.NewTicker(poll)
	defer tick.Stop()

	for {
		select {
		case <-ctx.Done():
			return nil, ctx.Err()
		case <-tick.C:
			ge, err := r.Client.GetQueryExecution(ctx, &athena.GetQueryExecutionInput{QueryExecutionId: aws.String(qid)})
			if err != nil {
				return nil, errors.Wrap(err, "get query execution")
			}
			qe := ge.QueryExecution
			if qe == nil || qe.Status == nil {
				continue
			}
			switch qe.Status.State {
			case types.QueryExecutionStateSucceeded:
				return qe, nil
			case types.QueryExecutionStateFailed:
				return nil, errors.Newf("athena query %s failed: %s", qid, aws.ToString(qe.Status.StateChangeReason))
			case types.QueryExecutionStateCancelled:
				return nil, errors.Newf("athena query %s cancelled", qid)
			}
		}
	}
}

var identRe = regexp.MustCompile(`[^a-z0-9]+`)

// TableName turns an artifact name into an Athena identifier:
// "la-liga-2019-2020_stats" -> "la_liga_2019_2020_stats". Athena only
// accepts ASCII letters, digits and underscores.
func TableName(artifact string) string {
	return strings.Trim(identRe.ReplaceAllString(strings.ToLower(artifact), "_"), "_")
}

type athenaColumn struct {
	name string
	typ  string
}

// Column order matches both the CSV header and PlayerRow.
var athenaColumns = []athenaColumn{
	{"name", "string"},
	{"age", "int"},
	{"position", "string"},
	{"height_cm", "int"},
	{"weight_kg", "int"},
	{"matches_played", "int"},
	{"minutes_played", "int"},
	{"goals", "int"},
	{"assists", "int"},
	{"yellow_cards", "int"},
	{"red_cards", "int"},
	{"shots_per_match", "double"},
	{"pass_accuracy_pct", "double"},
	{"aerial_duels_won", "double"},
	{"man_of_the_match_count", "int"},
	{"rating", "double"},
	{"team", "string"},
}

// BuildCreateTable renders the DDL for the combined artifact. OpenCSVSerde
// only reads strings, so CSV tables declare every column as string.
func BuildCreateTable(db, table, location, format string) (string, error) {
	if db == "" || table == "" || location == "" {
		return "", errors.New("athena table needs database, name and location")
	}
	csv := format == "" || format == "csv"
	if !csv && format != "parquet" {
		return "", errors.Newf("unknown output format %q", format)
	}

	cols := make([]string, len(athenaColumns))
	for i, c := range athenaColumns {
		typ := c.typ
		if csv {
			typ = "string"
		}
		cols[i] = fmt.Sprintf("  `%s` %s", c.name, typ)
	}

	var b strings.Builder
	fmt.Fprintf(&b, "CREATE EXTERNAL TABLE IF NOT EXISTS `%s`.`%s` (\n%s\n)\n", db, table, strings.Join(cols, ",\n"))
	if csv {
		b.WriteString("ROW FORMAT SERDE 'org.apache.hadoop.hive.serde2.OpenCSVSerde'\n")
		b.WriteString("WITH SERDEPROPERTIES ('separatorChar' = ',', 'quoteChar' = '\"')\n")
		b.WriteString("STORED AS TEXTFILE\n")
		fmt.Fprintf(&b, "LOCATION '%s'\n", location)
		b.WriteString("TBLPROPERTIES ('skip.header.line.count' = '1')")
	} else {
		b.WriteString("STORED AS PARQUET\n")
		fmt.Fprintf(&b, "LOCATION '%s'\n", location)
		b.WriteString("TBLPROPERTIES ('parquet.compression' = 'SNAPPY')")
	}
	return b.String(), nil
}
