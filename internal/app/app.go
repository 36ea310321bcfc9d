// Package app wires configuration into a ready-to-run pipeline.
package app

import (
	"context"

	awsconfig "github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/service/athena"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	"github.com/cockroachdb/errors"

	"github.com/tyler180/football-stats-scraper/internal/browser"
	"github.com/tyler180/football-stats-scraper/internal/config"
	"github.com/tyler180/football-stats-scraper/internal/logging"
	"github.com/tyler180/football-stats-scraper/internal/pipeline"
	"github.com/tyler180/football-stats-scraper/internal/store"
)

// AWSClients holds the narrow SDK interfaces the sinks need. Nil fields
// mean the corresponding sink is not configured.
type AWSClients struct {
	S3     store.S3API
	Dynamo store.DynamoDBAPI
	Athena store.AthenaAPI
}

func NewAWSClients(ctx context.Context, cfg config.Config) (AWSClients, error) {
	if cfg.S3Bucket == "" && cfg.DynamoTable == "" && cfg.AthenaDB == "" {
		return AWSClients{}, nil
	}
	awsCfg, err := awsconfig.LoadDefaultConfig(ctx)
	if err != nil {
		return AWSClients{}, errors.Wrap(err, "load aws config")
	}
	var c AWSClients
	if cfg.S3Bucket != "" {
		c.S3 = s3.NewFromConfig(awsCfg)
	}
	if cfg.DynamoTable != "" {
		c.Dynamo = dynamodb.NewFromConfig(awsCfg)
	}
	if cfg.AthenaDB != "" {
		c.Athena = athena.NewFromConfig(awsCfg)
	}
	return c, nil
}

func NewRenderer(cfg config.Config, log *logging.Logger) browser.Renderer {
	var r browser.Renderer
	if cfg.RenderMode == config.RenderStatic {
		r = &browser.StaticRenderer{UserAgent: cfg.UserAgent, Timeout: cfg.RenderTimeout}
	} else {
		r = browser.NewChromeRenderer(browser.ChromeOptions{
			UserAgent:     cfg.UserAgent,
			ExecPath:      cfg.ChromePath,
			WaitSelector:  cfg.TableSelector,
			RenderTimeout: cfg.RenderTimeout,
			SettleDelay:   cfg.SettleDelay,
		}, log)
	}
	return browser.NewRetrying(r, browser.RetryConfig{
		MaxAttempts: cfg.RetryMaxAttempts,
		Base:        cfg.RetryBase,
		MaxBackoff:  cfg.RetryMax,
	}, log)
}

// NewSink builds the sink chain: local files (when localFiles is set), then
// S3, DynamoDB and finally Athena, which needs the S3 upload in place.
func NewSink(cfg config.Config, aws AWSClients, localFiles bool, log *logging.Logger) (store.Sink, error) {
	enc, err := store.EncoderFor(cfg.OutputFormat)
	if err != nil {
		return nil, err
	}

	var sinks store.Multi
	if localFiles {
		fs, err := store.NewFileSink(cfg.OutputDir, enc)
		if err != nil {
			return nil, err
		}
		sinks = append(sinks, fs)
	}

	var up *store.S3Sink
	if cfg.S3Bucket != "" && aws.S3 != nil {
		up = &store.S3Sink{Client: aws.S3, Bucket: cfg.S3Bucket, Prefix: cfg.S3Prefix, Season: cfg.Season, Enc: enc}
		sinks = append(sinks, up)
	}
	if cfg.DynamoTable != "" && aws.Dynamo != nil {
		sinks = append(sinks, store.NewDynamoSink(aws.Dynamo, cfg.DynamoTable, cfg.Season))
	}
	if cfg.AthenaDB != "" && aws.Athena != nil {
		if up == nil {
			return nil, errors.New("athena registration needs S3_BUCKET")
		}
		sinks = append(sinks, &store.AthenaRegistrar{
			Client:    aws.Athena,
			Database:  cfg.AthenaDB,
			Workgroup: cfg.AthenaWorkgroup,
			OutputS3:  cfg.AthenaOutput,
			Location:  up.Location(),
			Format:    cfg.OutputFormat,
			Log:       log,
		})
	}
	if len(sinks) == 0 {
		return nil, errors.New("no output configured")
	}
	return sinks, nil
}

func NewRunner(cfg config.Config, r browser.Renderer, sink store.Sink, log *logging.Logger) *pipeline.Runner {
	return pipeline.NewRunner(pipeline.Config{
		TableSelector: cfg.TableSelector,
		TeamDelay:     cfg.TeamDelay,
		Concurrency:   cfg.Concurrency,
		CombinedName:  cfg.CombinedName,
	}, r, sink, log)
}

// Build loads AWS clients as needed and returns a runner for cfg.
func Build(ctx context.Context, cfg config.Config, localFiles bool, log *logging.Logger) (*pipeline.Runner, error) {
	clients, err := NewAWSClients(ctx, cfg)
	if err != nil {
		return nil, err
	}
	sink, err := NewSink(cfg, clients, localFiles, log)
	if err != nil {
		return nil, err
	}
	return NewRunner(cfg, NewRenderer(cfg, log), sink, log), nil
}
