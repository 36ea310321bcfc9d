package whoscored

import (
	"regexp"
	"strings"

	"github.com/cockroachdb/errors"
)

// DefaultTeams returns the La Liga 2019/2020 archive pages (stageId=17702).
func DefaultTeams() []TeamSource {
	return []TeamSource{
		{Name: "Barcelona", URL: "https://www.whoscored.com/teams/65/archive/spain-barcelona?stageId=17702"},
		{Name: "Real Madrid", URL: "https://www.whoscored.com/teams/52/archive/spain-real-madrid?stageId=17702"},
	}
}

var slugRe = regexp.MustCompile(`[^\p{L}\p{N}]+`)

// Slug lower-cases a team name and joins its words with dashes:
// "Real Madrid" -> "real-madrid", "Atlético Madrid" -> "atlético-madrid".
// Letters and digits of any script are kept.
func Slug(name string) string {
	s := slugRe.ReplaceAllString(strings.ToLower(strings.TrimSpace(name)), "-")
	return strings.Trim(s, "-")
}

// TeamFileName is the artifact base name for one team, without extension.
func TeamFileName(name string) string {
	return Slug(name) + "_stats"
}

// ParseTeams reads "Name=URL;Name=URL". Entries are separated by ';' or
// newlines because URLs may contain commas.
func ParseTeams(s string) ([]TeamSource, error) {
	fields := strings.FieldsFunc(s, func(r rune) bool { return r == ';' || r == '\n' })
	out := make([]TeamSource, 0, len(fields))
	seen := make(map[string]struct{}, len(fields))
	for _, f := range fields {
		f = strings.TrimSpace(f)
		if f == "" {
			continue
		}
		name, url, ok := strings.Cut(f, "=")
		name, url = strings.TrimSpace(name), strings.TrimSpace(url)
		if !ok || name == "" || url == "" {
			return nil, errors.Newf("team entry %q: want Name=URL", f)
		}
		slug := Slug(name)
		if _, dup := seen[slug]; dup {
			return nil, errors.Newf("team %q listed twice", name)
		}
		seen[slug] = struct{}{}
		out = append(out, TeamSource{Name: name, URL: url})
	}
	if len(out) == 0 {
		return nil, errors.New("no teams configured")
	}
	return out, nil
}

// ApplyTeamSubset keeps the teams named in a comma-separated list, matched by
// display name (case-insensitive) or slug. Order follows all, not the list.
func ApplyTeamSubset(all []TeamSource, list string) []TeamSource {
	if strings.TrimSpace(list) == "" {
		return all
	}
	want := make(map[string]struct{})
	for _, tok := range strings.Split(list, ",") {
		tok = strings.TrimSpace(tok)
		if tok == "" {
			continue
		}
		want[Slug(tok)] = struct{}{}
	}
	sub := make([]TeamSource, 0, len(all))
	for _, t := range all {
		if _, ok := want[Slug(t.Name)]; ok {
			sub = append(sub, t)
		}
	}
	return sub
}
