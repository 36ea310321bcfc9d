package whoscored

import (
	"fmt"
	"regexp"
	"strings"

	"github.com/cockroachdb/errors"
)

// identityRe splits "10 Lionel Messi 34, Forward" into jersey number, name,
// age and position. The name is lazy so it stops at the age token.
var identityRe = regexp.MustCompile(`(\d+)\s+(.+?)\s+(\d+),\s*(.+)`)

// Identity is the parsed composite player cell. Matched is false when the
// text did not fit the pattern; the other fields are then zero.
type Identity struct {
	Number   string
	Name     string
	Age      int
	Position string
	Matched  bool
}

func SplitIdentity(s string) Identity {
	m := identityRe.FindStringSubmatch(s)
	if m == nil {
		return Identity{}
	}
	return Identity{
		Number:   m[1],
		Name:     strings.TrimSpace(m[2]),
		Age:      ParseInt(m[3]),
		Position: strings.TrimSpace(m[4]),
		Matched:  true,
	}
}

// Normalized is the outcome of normalizing one team's table.
type Normalized struct {
	Records Dataset
	// Warnings holds schema mismatch messages; the records are still usable.
	Warnings []string
	// Columns is the number of canonical columns actually populated.
	Columns int
	// PartialRows counts rows whose player cell did not match the identity
	// pattern and were emitted with empty name, age and position.
	PartialRows int
}

// Normalize maps a raw grid onto the canonical schema and tags each record
// with team. Extra trailing columns are dropped; missing ones produce a
// warning and zero values. Tables with no stat column at all are rejected
// with ErrSchemaMismatch.
func Normalize(raw RawTable, team string) (Normalized, error) {
	width := len(raw.Headers)
	if width == 0 {
		for _, r := range raw.Rows {
			if len(r) > width {
				width = len(r)
			}
		}
	}

	var out Normalized
	canon := len(CanonicalColumns)
	switch {
	case width > canon:
		width = canon
	case width < canon:
		out.Warnings = append(out.Warnings, fmt.Sprintf(
			"%s: table has %d columns, expected %d; missing: %s",
			team, width, canon, strings.Join(CanonicalColumns[width:], ", ")))
	}
	if width < 2 {
		return out, errors.Wrapf(ErrSchemaMismatch, "%s: %d columns, need the player column and at least one stat", team, width)
	}
	out.Columns = width

	out.Records = make(Dataset, 0, len(raw.Rows))
	for _, row := range raw.Rows {
		cells := make([]string, canon)
		copy(cells, row[:min(len(row), width)])

		id := SplitIdentity(cells[0])
		if !id.Matched {
			out.PartialRows++
		}
		out.Records = append(out.Records, PlayerRecord{
			Name:               id.Name,
			Age:                id.Age,
			Position:           id.Position,
			HeightCm:           ParseInt(cells[1]),
			WeightKg:           ParseInt(cells[2]),
			MatchesPlayed:      ParseInt(cells[3]),
			MinutesPlayed:      ParseInt(cells[4]),
			Goals:              ParseInt(cells[5]),
			Assists:            ParseInt(cells[6]),
			YellowCards:        ParseInt(cells[7]),
			RedCards:           ParseInt(cells[8]),
			ShotsPerMatch:      ParseNumber(cells[9]),
			PassAccuracyPct:    ParseNumber(cells[10]),
			AerialDuelsWon:     ParseNumber(cells[11]),
			ManOfTheMatchCount: ParseInt(cells[12]),
			Rating:             ParseNumber(cells[13]),
			Team:               team,
		})
	}
	return out, nil
}
