package catalog

import (
	"context"
	"io"
	"strings"
)

// TargetLang selects the description name that becomes ProductNamePol.
const TargetLang = "pol"

// FullExtractor accumulates FullProduct records from full-export events.
// The zero value is not usable; call NewFullExtractor.
type FullExtractor struct {
	out FullCatalog

	inProduct     bool
	inDescription bool
	capturing     bool

	cur     FullProduct
	nameBuf strings.Builder
}

// NewFullExtractor returns an extractor with an empty catalog.
func NewFullExtractor() *FullExtractor {
	return &FullExtractor{out: make(FullCatalog)}
}

// OpenTag implements Handler.
func (e *FullExtractor) OpenTag(name string, attrs Attrs) {
	if name == "product" {
		e.inProduct = true
		e.inDescription = false
		e.capturing = false
		e.nameBuf.Reset()
		e.cur = FullProduct{
			ProductID: attrs.Get("id"),
			VAT:       attrs.Get("vat"),
		}
		return
	}

	if !e.inProduct {
		return
	}

	switch name {
	case "category":
		e.cur.CategoryID = attrs.Get("id")
		e.cur.Category = attrs.Get("name")
	case "producer":
		e.cur.Producer = attrs.Get("name")
	case "card":
		e.cur.CardURL = attrs.Get("url")
	case "image":
		if e.cur.ImageURL == "" {
			e.cur.ImageURL = attrs.Get("url")
		}
	case "icon":
		if e.cur.IconURL == "" {
			e.cur.IconURL = attrs.Get("url")
		}
	case "description":
		e.inDescription = true
	case "name":
		if e.inDescription && attrs.Lang() == TargetLang {
			e.capturing = true
			e.nameBuf.Reset()
		}
	}
}

// Text implements Handler.
func (e *FullExtractor) Text(data []byte) {
	if e.capturing {
		e.nameBuf.Write(data)
	}
}

// CloseTag implements Handler.
func (e *FullExtractor) CloseTag(name string) {
	switch name {
	case "name":
		if e.capturing {
			e.capturing = false
			e.cur.ProductNamePol = strings.TrimSpace(e.nameBuf.String())
		}
	case "description":
		e.inDescription = false
	case "product":
		e.inProduct = false
		e.inDescription = false
		e.capturing = false
		if e.cur.ProductID != "" {
			e.out[e.cur.ProductID] = e.cur
		}
		e.cur = FullProduct{}
		e.nameBuf.Reset()
	}
}

// Catalog returns the records finalized so far.
func (e *FullExtractor) Catalog() FullCatalog {
	return e.out
}

// ParseFull scans a full export and returns its products keyed by id.
// On ErrMalformedXML the products closed before the failure are returned
// together with the error.
func ParseFull(ctx context.Context, r io.Reader) (FullCatalog, error) {
	e := NewFullExtractor()
	err := Scan(ctx, r, e)
	return e.Catalog(), err
}
