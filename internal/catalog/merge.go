package catalog

import (
	"cmp"
	"fmt"
	"math"
	"slices"
	"strconv"
	"strings"
)

// Merge joins both catalogs by product id and returns the in-stock rows,
// ordered by numeric product id. Products absent from the light catalog
// default to zero stock and are dropped, as is any product whose summed
// stock is zero or negative.
func Merge(full FullCatalog, light LightCatalog) []OutputRow {
	ids := make([]string, 0, len(full)+len(light))
	for id := range full {
		ids = append(ids, id)
	}
	for id := range light {
		if _, dup := full[id]; !dup {
			ids = append(ids, id)
		}
	}
	SortIDs(ids)

	rows := make([]OutputRow, 0, len(light))
	for _, id := range ids {
		agg := light[id]
		if agg.TotalStock <= 0 {
			continue
		}

		p := full[id]
		rows = append(rows, OutputRow{
			ProductID:      id,
			ProductNamePol: p.ProductNamePol,
			CategoryID:     p.CategoryID,
			Category:       p.Category,
			Producer:       p.Producer,
			VAT:            p.VAT,
			PriceGross:     agg.PriceGross,
			PriceNet:       agg.PriceNet,
			TotalStock:     agg.TotalStock,
			CardURL:        p.CardURL,
			ImageURL:       p.ImageURL,
			IconURL:        p.IconURL,
		})
	}
	return rows
}

// SortIDs orders product ids by numeric value ascending. Ids that do not
// parse as numbers sort after every numeric id, lexicographically among
// themselves. Ids with equal numeric value ("7", "07") are ordered
// lexicographically so the result is deterministic.
func SortIDs(ids []string) {
	slices.SortFunc(ids, CompareIDs)
}

// CompareIDs is the comparison used by SortIDs.
func CompareIDs(a, b string) int {
	na, okA := numericID(a)
	nb, okB := numericID(b)

	switch {
	case okA && okB:
		if c := cmp.Compare(na, nb); c != 0 {
			return c
		}
	case okA:
		return -1
	case okB:
		return 1
	}
	return strings.Compare(a, b)
}

func numericID(id string) (float64, bool) {
	f, err := strconv.ParseFloat(strings.TrimSpace(id), 64)
	if err != nil || math.IsNaN(f) {
		return 0, false
	}
	return f, true
}

// Record returns the row's fields in Columns order.
func (r OutputRow) Record() []string {
	return []string{
		r.ProductID,
		r.ProductNamePol,
		r.CategoryID,
		r.Category,
		r.Producer,
		r.VAT,
		r.PriceGross,
		r.PriceNet,
		strconv.FormatInt(r.TotalStock, 10),
		r.CardURL,
		r.ImageURL,
		r.IconURL,
	}
}

// SizeRow is one line of the per-size stock report.
type SizeRow struct {
	ProductID string
	SizeStock
}

// Record returns the row's fields in SizeColumns order.
func (r SizeRow) Record() []string {
	return []string{r.ProductID, r.SizeID, r.Code, strconv.FormatInt(r.Quantity, 10)}
}

// SizeRows flattens the per-size stock of every light product, ordered by
// product id like Merge and by document order within a product.
func SizeRows(light LightCatalog) []SizeRow {
	ids := make([]string, 0, len(light))
	for id := range light {
		ids = append(ids, id)
	}
	SortIDs(ids)

	var rows []SizeRow
	for _, id := range ids {
		for _, s := range light[id].Sizes {
			rows = append(rows, SizeRow{ProductID: id, SizeStock: s})
		}
	}
	return rows
}

// CategoryCount is the number of full-catalog products in one category.
type CategoryCount struct {
	Label      string `json:"label"`
	CategoryID string `json:"category_id"`
	Category   string `json:"category"`
	Products   int    `json:"products"`
}

// Categories groups the full catalog by category and returns the counts,
// largest first. Categories without a name are labelled "Unknown (<id>)".
func Categories(full FullCatalog) []CategoryCount {
	byLabel := make(map[string]*CategoryCount)
	for _, p := range full {
		label := categoryLabel(p.Category, p.CategoryID)
		c, ok := byLabel[label]
		if !ok {
			c = &CategoryCount{Label: label, CategoryID: p.CategoryID, Category: p.Category}
			byLabel[label] = c
		}
		c.Products++
	}

	out := make([]CategoryCount, 0, len(byLabel))
	for _, c := range byLabel {
		out = append(out, *c)
	}
	slices.SortFunc(out, func(a, b CategoryCount) int {
		if c := cmp.Compare(b.Products, a.Products); c != 0 {
			return c
		}
		return strings.Compare(a.Label, b.Label)
	})
	return out
}

func categoryLabel(name, id string) string {
	if name == "" {
		return fmt.Sprintf("Unknown (%s)", id)
	}
	return fmt.Sprintf("%s (%s)", name, id)
}
