package whoscored

import (
	"strings"

	"github.com/PuerkitoBio/goquery"

	"github.com/tyler180/football-stats-scraper/internal/logging"
)

// DumpTablesForDebug lists every table on the page with its id, class and
// first header row. Useful when the locator stops matching after a redesign.
func DumpTablesForDebug(log *logging.Logger, doc *goquery.Document, team string) {
	if !log.Enabled(logging.LevelDebug) {
		return
	}
	doc.Find("table").Each(func(i int, t *goquery.Selection) {
		id, _ := t.Attr("id")
		var heads []string
		t.Find("tr").First().Find("th,td").Each(func(_ int, h *goquery.Selection) {
			if txt := strings.ToLower(cellText(h)); txt != "" {
				heads = append(heads, txt)
			}
		})
		log.Debug("page table",
			"team", team,
			"index", i,
			"id", id,
			"class", t.AttrOr("class", ""),
			"headers", strings.Join(heads, "|"),
		)
	})
}
