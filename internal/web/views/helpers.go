// Package views renders the HTML pages of the merge server as templ
// components. Edit the .templ files and regenerate with `templ generate`.
package views

import (
	"fmt"
	"net/http"
	"time"

	"github.com/dustin/go-humanize"

	"github.com/JonMunkholm/catalogmerge/internal/catalog"
	"github.com/JonMunkholm/catalogmerge/internal/core"
)

// maxCategories is the number of categories listed on the summary page.
const maxCategories = 15

// SummaryData is what the summary page shows.
type SummaryData struct {
	Latest  *core.Run
	History []*core.Run
	Limiter core.LimiterStatus
}

type statRow struct {
	Label string
	Value string
}

func runStats(run *core.Run) []statRow {
	return []statRow{
		{"In-stock products", humanize.Comma(int64(run.Stats.Rows))},
		{"Units in stock", humanize.Comma(run.Stats.TotalStock)},
		{"Full export", exportSize(run.Stats.FullProducts, run.Stats.FullBytes)},
		{"Light export", exportSize(run.Stats.LightProducts, run.Stats.LightBytes)},
		{"Size rows", humanize.Comma(int64(run.Stats.SizeRows))},
		{"Duration", (time.Duration(run.Stats.DurationMS) * time.Millisecond).String()},
	}
}

func exportSize(products int, bytes int64) string {
	return fmt.Sprintf("%s products, %s", humanize.Comma(int64(products)), humanize.IBytes(uint64(bytes)))
}

func visibleCategories(cats []catalog.CategoryCount) []catalog.CategoryCount {
	return cats[:min(len(cats), maxCategories)]
}

func hiddenCategories(cats []catalog.CategoryCount) int {
	return max(len(cats)-maxCategories, 0)
}

func runURL(id string) string   { return "/api/runs/" + id }
func csvURL(id string) string   { return runURL(id) + "/csv" }
func sizesURL(id string) string { return runURL(id) + "/sizes.csv" }

func shortID(id string) string {
	if len(id) > 8 {
		return id[:8]
	}
	return id
}

func statusText(status int) string {
	if t := http.StatusText(status); t != "" {
		return t
	}
	return "Error"
}
