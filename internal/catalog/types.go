// Package catalog extracts product records from the full and light XML
// catalog exports and joins them into the in-stock products CSV.
//
// Both extractors are single-pass state machines fed by [Scan]. Each pass
// owns its own accumulator, reset at every product element, so no state
// crosses product boundaries or extractor instances. The two passes have no
// data dependency and may run concurrently.
//
// The join ([Merge]) takes the union of identifiers, sorts them by numeric
// value, drops products whose summed stock is not positive and produces
// [OutputRow] values that [WriteCSV] serializes.
package catalog

// FullProduct is the descriptive record extracted from the full export.
type FullProduct struct {
	ProductID      string `json:"product_id"`
	ProductNamePol string `json:"product_name_pol"`
	CategoryID     string `json:"category_id"`
	Category       string `json:"category"`
	CardURL        string `json:"card_url"`
	ImageURL       string `json:"image_url"`
	IconURL        string `json:"icon_url"`
	VAT            string `json:"vat"`
	Producer       string `json:"producer"`
}

// SizeStock is the stock held for one size of a product in the light export.
type SizeStock struct {
	SizeID   string `json:"size_id"`
	Code     string `json:"code"`
	Quantity int64  `json:"quantity"`
}

// LightAgg is the pricing and stock aggregate extracted from the light export.
type LightAgg struct {
	ProductID  string      `json:"product_id"`
	TotalStock int64       `json:"total_stock"`
	PriceGross string      `json:"price_gross"`
	PriceNet   string      `json:"price_net"`
	Sizes      []SizeStock `json:"sizes,omitempty"`
}

// OutputRow is one line of the merged CSV. Only products with positive
// stock become rows.
type OutputRow struct {
	ProductID      string `json:"product_id"`
	ProductNamePol string `json:"product_name_pol"`
	CategoryID     string `json:"category_id"`
	Category       string `json:"category"`
	Producer       string `json:"producer"`
	VAT            string `json:"vat"`
	PriceGross     string `json:"price_gross"`
	PriceNet       string `json:"price_net"`
	TotalStock     int64  `json:"total_stock"`
	CardURL        string `json:"card_url"`
	ImageURL       string `json:"image_url"`
	IconURL        string `json:"icon_url"`
}

// Columns is the header of the merged CSV, in output order.
var Columns = []string{
	"product_id",
	"product_name_pol",
	"category_id",
	"category",
	"producer",
	"vat",
	"price_gross",
	"price_net",
	"total_stock",
	"card_url",
	"image_url",
	"icon_url",
}

// SizeColumns is the header of the per-size stock CSV.
var SizeColumns = []string{"product_id", "size_id", "code", "quantity"}

// FullCatalog maps product id to its descriptive record.
type FullCatalog map[string]FullProduct

// LightCatalog maps product id to its pricing and stock aggregate.
type LightCatalog map[string]LightAgg
