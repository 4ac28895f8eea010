package catalog

import (
	"context"
	"io"
	"strconv"
	"strings"
)

// LightExtractor accumulates LightAgg records from light-export events.
// Stock is summed over every stock element in the product scope while the
// price fields keep the last price element seen.
type LightExtractor struct {
	out LightCatalog

	id    string
	gross string
	net   string
	stock int64
	sizes []SizeStock

	// index into sizes of the open size element, -1 outside one
	curSize int
}

// NewLightExtractor returns an extractor with an empty catalog.
func NewLightExtractor() *LightExtractor {
	return &LightExtractor{out: make(LightCatalog), curSize: -1}
}

// OpenTag implements Handler.
func (e *LightExtractor) OpenTag(name string, attrs Attrs) {
	switch name {
	case "product":
		e.id = attrs.Get("id")
		e.gross = ""
		e.net = ""
		e.stock = 0
		e.sizes = nil
		e.curSize = -1
	case "price":
		e.gross = attrs.Get("gross")
		e.net = attrs.Get("net")
	case "size":
		e.sizes = append(e.sizes, SizeStock{
			SizeID: attrs.Get("id"),
			Code:   attrs.Get("code"),
		})
		e.curSize = len(e.sizes) - 1
	case "stock":
		raw := attrs.Get("quantity")
		if raw == "" {
			raw = "0"
		}
		q := ParseQuantity(raw)
		e.stock += q
		if e.curSize >= 0 {
			e.sizes[e.curSize].Quantity += q
		}
	}
}

// Text implements Handler. The light export carries no text content.
func (e *LightExtractor) Text([]byte) {}

// CloseTag implements Handler.
func (e *LightExtractor) CloseTag(name string) {
	switch name {
	case "size":
		e.curSize = -1
	case "product":
		if e.id != "" {
			e.out[e.id] = LightAgg{
				ProductID:  e.id,
				TotalStock: e.stock,
				PriceGross: e.gross,
				PriceNet:   e.net,
				Sizes:      e.sizes,
			}
		}
		e.id = ""
		e.sizes = nil
		e.curSize = -1
	}
}

// Catalog returns the aggregates finalized so far.
func (e *LightExtractor) Catalog() LightCatalog {
	return e.out
}

// ParseLight scans a light export and returns its aggregates keyed by id.
// On ErrMalformedXML the products closed before the failure are returned
// together with the error.
func ParseLight(ctx context.Context, r io.Reader) (LightCatalog, error) {
	e := NewLightExtractor()
	err := Scan(ctx, r, e)
	return e.Catalog(), err
}

// ParseQuantity reads a base-10 integer from the start of s, after leading
// whitespace and an optional sign. Trailing garbage is ignored ("12 pcs" is
// 12); a value with no leading digits or out of int64 range is 0.
func ParseQuantity(s string) int64 {
	s = strings.TrimLeft(s, " \t\r\n")

	end := 0
	if end < len(s) && (s[end] == '+' || s[end] == '-') {
		end++
	}
	digits := end
	for end < len(s) && s[end] >= '0' && s[end] <= '9' {
		end++
	}
	if end == digits {
		return 0
	}

	n, err := strconv.ParseInt(s[:end], 10, 64)
	if err != nil {
		return 0
	}
	return n
}
