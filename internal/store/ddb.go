package store

import (
	"context"
	"fmt"
	"time"

	"github.com/aws/aws-sdk-go-v2/feature/dynamodb/attributevalue"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb/types"
	"github.com/cockroachdb/errors"

	"github.com/tyler180/football-stats-scraper/internal/whoscored"
)

type DynamoDBAPI interface {
	BatchWriteItem(ctx context.Context, params *dynamodb.BatchWriteItemInput, optFns ...func(*dynamodb.Options)) (*dynamodb.BatchWriteItemOutput, error)
}

// DynamoSink writes one item per player, PK=SeasonTeam (S), SK=PlayerKey (S).
// The combined artifact is skipped; its rows were already written per team.
type DynamoSink struct {
	Client DynamoDBAPI
	Table  string
	Season string

	now   func() time.Time
	pause time.Duration
}

func NewDynamoSink(client DynamoDBAPI, table, season string) *DynamoSink {
	return &DynamoSink{Client: client, Table: table, Season: season, now: time.Now, pause: 120 * time.Millisecond}
}

func (d *DynamoSink) Put(ctx context.Context, a Artifact) error {
	if a.Combined || len(a.Records) == 0 {
		return nil
	}
	const maxBatch = 25
	now := d.now().Unix()
	keys := playerKeys(a.Records)

	for i := 0; i < len(a.Records); i += maxBatch {
		end := min(i+maxBatch, len(a.Records))

		reqs := make([]types.WriteRequest, 0, end-i)
		for j, r := range a.Records[i:end] {
			item, err := d.item(r, keys[i+j], now)
			if err != nil {
				return errors.Wrapf(err, "marshal %s row %d", a.Team, i+j)
			}
			reqs = append(reqs, types.WriteRequest{PutRequest: &types.PutRequest{Item: item}})
		}
		if err := d.batchWriteWithRetry(ctx, reqs); err != nil {
			return errors.Wrapf(err, "batch write %s rows", a.Team)
		}
	}
	return nil
}

// playerItem is the stored shape of one record.
type playerItem struct {
	SeasonTeam         string  `dynamodbav:"SeasonTeam"` // PK
	PlayerKey          string  `dynamodbav:"PlayerKey"`  // SK
	Season             string  `dynamodbav:"Season"`
	Team               string  `dynamodbav:"Team"`
	Name               string  `dynamodbav:"Name"`
	Age                int     `dynamodbav:"Age"`
	Position           string  `dynamodbav:"Position"`
	HeightCm           int     `dynamodbav:"HeightCm"`
	WeightKg           int     `dynamodbav:"WeightKg"`
	MatchesPlayed      int     `dynamodbav:"MatchesPlayed"`
	MinutesPlayed      int     `dynamodbav:"MinutesPlayed"`
	Goals              int     `dynamodbav:"Goals"`
	Assists            int     `dynamodbav:"Assists"`
	YellowCards        int     `dynamodbav:"YellowCards"`
	RedCards           int     `dynamodbav:"RedCards"`
	ShotsPerMatch      float64 `dynamodbav:"ShotsPerMatch"`
	PassAccuracyPct    float64 `dynamodbav:"PassAccuracyPct"`
	AerialDuelsWon     float64 `dynamodbav:"AerialDuelsWon"`
	ManOfTheMatchCount int     `dynamodbav:"ManOfTheMatchCount"`
	Rating             float64 `dynamodbav:"Rating"`
	UpdatedAt          int64   `dynamodbav:"UpdatedAt"`
}

func (d *DynamoSink) item(r whoscored.PlayerRecord, key string, now int64) (map[string]types.AttributeValue, error) {
	return attributevalue.MarshalMap(playerItem{
		SeasonTeam:         d.Season + "#" + r.Team,
		PlayerKey:          key,
		Season:             d.Season,
		Team:               r.Team,
		Name:               r.Name,
		Age:                r.Age,
		Position:           r.Position,
		HeightCm:           r.HeightCm,
		WeightKg:           r.WeightKg,
		MatchesPlayed:      r.MatchesPlayed,
		MinutesPlayed:      r.MinutesPlayed,
		Goals:              r.Goals,
		Assists:            r.Assists,
		YellowCards:        r.YellowCards,
		RedCards:           r.RedCards,
		ShotsPerMatch:      r.ShotsPerMatch,
		PassAccuracyPct:    r.PassAccuracyPct,
		AerialDuelsWon:     r.AerialDuelsWon,
		ManOfTheMatchCount: r.ManOfTheMatchCount,
		Rating:             r.Rating,
		UpdatedAt:          now,
	})
}

// playerKeys derives a sort key per row from the player name. Rows without
// a name use their position in the table; repeated names get a suffix so a
// batch never holds duplicate keys.
func playerKeys(ds whoscored.Dataset) []string {
	keys := make([]string, len(ds))
	seen := make(map[string]int, len(ds))
	for i, r := range ds {
		k := whoscored.Slug(r.Name)
		if k == "" {
			k = fmt.Sprintf("row-%03d", i)
		}
		seen[k]++
		if c := seen[k]; c > 1 {
			k = fmt.Sprintf("%s-%d", k, c)
		}
		keys[i] = k
	}
	return keys
}

func (d *DynamoSink) batchWriteWithRetry(ctx context.Context, reqs []types.WriteRequest) error {
	input := &dynamodb.BatchWriteItemInput{
		RequestItems: map[string][]types.WriteRequest{d.Table: reqs},
	}
	const maxAttempts = 6
	backoff := d.pause

	for attempt := 0; attempt < maxAttempts; attempt++ {
		out, err := d.Client.BatchWriteItem(ctx, input)
		if err != nil {
			return err
		}
		if len(out.UnprocessedItems) == 0 {
			return nil
		}
		input.RequestItems = out.UnprocessedItems
		if err := sleepCtx(ctx, backoff); err != nil {
			return err
		}
		if backoff < 2*time.Second {
			backoff += d.pause
		}
	}
	return errors.Newf("unprocessed items remained after retries for table %s", d.Table)
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
