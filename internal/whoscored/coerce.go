package whoscored

import (
	"math"
	"regexp"
	"strconv"
	"strings"
)

// cleanSpace strips the space characters the site uses as digit group
// separators.
var cleanSpace = strings.NewReplacer("\u00A0", "", "\u2009", "", "\u202F", "")

// thousandsRe matches comma-grouped numbers such as "2,880" or "1,234.5".
// Any other comma ("5,2") leaves the cell unparseable.
var thousandsRe = regexp.MustCompile(`^[+-]?\d{1,3}(,\d{3})+(\.\d+)?$`)

// ParseNumber coerces a stats cell to a float. It never fails: blanks, dash
// sentinels, NaN/Inf and anything unparseable come back as 0. A single
// trailing '%' is accepted.
func ParseNumber(s string) float64 {
	s = cleanSpace.Replace(strings.TrimSpace(s))
	switch s {
	case "", "-", "—", "–", "â€”":
		return 0
	}
	s = strings.TrimSuffix(s, "%")
	if strings.Contains(s, ",") {
		if !thousandsRe.MatchString(s) {
			return 0
		}
		s = strings.ReplaceAll(s, ",", "")
	}
	// ParseFloat reads hex floats; stats cells are decimal only.
	if u := strings.TrimLeft(s, "+-"); strings.HasPrefix(u, "0x") || strings.HasPrefix(u, "0X") {
		return 0
	}
	f, err := strconv.ParseFloat(s, 64)
	if err != nil || math.IsNaN(f) || math.IsInf(f, 0) {
		return 0
	}
	return f
}

// ParseInt is ParseNumber truncated toward zero.
func ParseInt(s string) int {
	f := ParseNumber(s)
	if f > math.MaxInt32 || f < math.MinInt32 {
		return 0
	}
	return int(f)
}
