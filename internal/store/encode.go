package store

import (
	"encoding/csv"
	"io"
	"strconv"

	"github.com/cockroachdb/errors"
	parquet "github.com/parquet-go/parquet-go"

	"github.com/tyler180/football-stats-scraper/internal/whoscored"
)

// Encoder serializes a dataset in one artifact format.
type Encoder interface {
	Ext() string
	ContentType() string
	Encode(w io.Writer, ds whoscored.Dataset) error
}

// EncoderFor returns the encoder for "csv" or "parquet".
func EncoderFor(format string) (Encoder, error) {
	switch format {
	case "", "csv":
		return CSVEncoder{}, nil
	case "parquet":
		return ParquetEncoder{}, nil
	default:
		return nil, errors.Newf("unknown output format %q", format)
	}
}

type CSVEncoder struct{}

func (CSVEncoder) Ext() string         { return "csv" }
func (CSVEncoder) ContentType() string { return "text/csv" }

func (CSVEncoder) Encode(w io.Writer, ds whoscored.Dataset) error {
	cw := csv.NewWriter(w)
	if err := cw.Write(whoscored.OutputColumns); err != nil {
		return errors.Wrap(err, "write csv header")
	}
	for _, r := range ds {
		if err := cw.Write(csvRecord(r)); err != nil {
			return errors.Wrap(err, "write csv row")
		}
	}
	cw.Flush()
	return errors.Wrap(cw.Error(), "flush csv")
}

func csvRecord(r whoscored.PlayerRecord) []string {
	i := strconv.Itoa
	f := func(v float64) string { return strconv.FormatFloat(v, 'f', -1, 64) }
	return []string{
		r.Name,
		i(r.Age),
		r.Position,
		i(r.HeightCm),
		i(r.WeightKg),
		i(r.MatchesPlayed),
		i(r.MinutesPlayed),
		i(r.Goals),
		i(r.Assists),
		i(r.YellowCards),
		i(r.RedCards),
		f(r.ShotsPerMatch),
		f(r.PassAccuracyPct),
		f(r.AerialDuelsWon),
		i(r.ManOfTheMatchCount),
		f(r.Rating),
		r.Team,
	}
}

// PlayerRow is the parquet layout of a PlayerRecord.
type PlayerRow struct {
	Name               string  `parquet:"name"`
	Age                int32   `parquet:"age"`
	Position           string  `parquet:"position"`
	HeightCm           int32   `parquet:"height_cm"`
	WeightKg           int32   `parquet:"weight_kg"`
	MatchesPlayed      int32   `parquet:"matches_played"`
	MinutesPlayed      int32   `parquet:"minutes_played"`
	Goals              int32   `parquet:"goals"`
	Assists            int32   `parquet:"assists"`
	YellowCards        int32   `parquet:"yellow_cards"`
	RedCards           int32   `parquet:"red_cards"`
	ShotsPerMatch      float64 `parquet:"shots_per_match"`
	PassAccuracyPct    float64 `parquet:"pass_accuracy_pct"`
	AerialDuelsWon     float64 `parquet:"aerial_duels_won"`
	ManOfTheMatchCount int32   `parquet:"man_of_the_match_count"`
	Rating             float64 `parquet:"rating"`
	Team               string  `parquet:"team"`
}

func toPlayerRow(r whoscored.PlayerRecord) PlayerRow {
	return PlayerRow{
		Name:               r.Name,
		Age:                int32(r.Age),
		Position:           r.Position,
		HeightCm:           int32(r.HeightCm),
		WeightKg:           int32(r.WeightKg),
		MatchesPlayed:      int32(r.MatchesPlayed),
		MinutesPlayed:      int32(r.MinutesPlayed),
		Goals:              int32(r.Goals),
		Assists:            int32(r.Assists),
		YellowCards:        int32(r.YellowCards),
		RedCards:           int32(r.RedCards),
		ShotsPerMatch:      r.ShotsPerMatch,
		PassAccuracyPct:    r.PassAccuracyPct,
		AerialDuelsWon:     r.AerialDuelsWon,
		ManOfTheMatchCount: int32(r.ManOfTheMatchCount),
		Rating:             r.Rating,
		Team:               r.Team,
	}
}

type ParquetEncoder struct{}

func (ParquetEncoder) Ext() string         { return "parquet" }
func (ParquetEncoder) ContentType() string { return "application/vnd.apache.parquet" }

func (ParquetEncoder) Encode(w io.Writer, ds whoscored.Dataset) error {
	pw := parquet.NewWriter(w, parquet.SchemaOf(new(PlayerRow)), parquet.Compression(&parquet.Snappy))
	for _, r := range ds {
		if err := pw.Write(toPlayerRow(r)); err != nil {
			_ = pw.Close()
			return errors.Wrap(err, "write parquet row")
		}
	}
	return errors.Wrap(pw.Close(), "close parquet writer")
}
