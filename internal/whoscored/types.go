package whoscored

// DefaultUserAgent matches a current desktop Chrome so the site serves the
// full stats markup instead of a bot interstitial.
const DefaultUserAgent = "Mozilla/5.0 (Macintosh; Intel Mac OS X 10_15_7) AppleWebKit/537.36 (KHTML, like Gecko) Chrome/134.0.0.0 Safari/537.36"

// DefaultTableSelector addresses the player stats grid on a team archive page
// (/html/body/div[4]/div[6]). It breaks whenever the site reshuffles its layout.
const DefaultTableSelector = "body > div:nth-of-type(4) > div:nth-of-type(6)"

type TeamSource struct {
	Name string
	URL  string
}

// RawTable is the grid read straight off the page. Rows are not guaranteed
// to be as wide as Headers.
type RawTable struct {
	Headers []string
	Rows    [][]string
}

// CanonicalColumns is the positional layout of the stats table.
var CanonicalColumns = []string{
	"Player",
	"Height(cm)",
	"Weight(kg)",
	"MatchesPlayed",
	"MinutesPlayed",
	"Goals",
	"Assists",
	"YellowCards",
	"RedCards",
	"ShotsPerMatch",
	"PassAccuracyPct",
	"AerialDuelsWon",
	"ManOfTheMatchCount",
	"Rating",
}

// OutputColumns is the header of every persisted artifact.
var OutputColumns = []string{
	"Name",
	"Age",
	"Position",
	"Height(cm)",
	"Weight(kg)",
	"MatchesPlayed",
	"MinutesPlayed",
	"Goals",
	"Assists",
	"YellowCards",
	"RedCards",
	"ShotsPerMatch",
	"PassAccuracyPct",
	"AerialDuelsWon",
	"ManOfTheMatchCount",
	"Rating",
	"Team",
}

// PlayerRecord is one normalized row. Numeric fields hold 0 when the site
// shows no value, so "zero" and "unknown" are indistinguishable downstream.
type PlayerRecord struct {
	Name     string
	Age      int
	Position string

	HeightCm           int
	WeightKg           int
	MatchesPlayed      int
	MinutesPlayed      int
	Goals              int
	Assists            int
	YellowCards        int
	RedCards           int
	ShotsPerMatch      float64
	PassAccuracyPct    float64
	AerialDuelsWon     float64
	ManOfTheMatchCount int
	Rating             float64

	Team string
}

// Dataset is an ordered run of records, per team or combined.
type Dataset []PlayerRecord
