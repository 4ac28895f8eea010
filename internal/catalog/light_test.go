package catalog

import (
	"context"
	"strings"
	"testing"
)

const lightFixture = `<?xml version="1.0" encoding="UTF-8"?>
<offer>
  <products>
    <product id="10">
      <price gross="9.99" net="8.12"/>
      <sizes>
        <size id="1" code="S"><stock id="1" quantity="3"/></size>
        <size id="2" code="M"><stock id="1" quantity="4"/></size>
      </sizes>
      <price gross="12.50" net="10.00"/>
    </product>
    <product id="20">
      <price gross="1.00" net="0.81"/>
      <stock quantity="0"/>
    </product>
    <product>
      <stock quantity="100"/>
    </product>
  </products>
</offer>`

func TestParseLight(t *testing.T) {
	got, err := ParseLight(context.Background(), strings.NewReader(lightFixture))
	if err != nil {
		t.Fatalf("ParseLight() error = %v", err)
	}

	if len(got) != 2 {
		t.Fatalf("len(catalog) = %d, want 2", len(got))
	}

	p := got["10"]
	if p.TotalStock != 7 {
		t.Errorf("TotalStock = %d, want 7", p.TotalStock)
	}
	// last price element wins
	if p.PriceGross != "12.50" || p.PriceNet != "10.00" {
		t.Errorf("prices = %q/%q, want 12.50/10.00", p.PriceGross, p.PriceNet)
	}

	wantSizes := []SizeStock{
		{SizeID: "1", Code: "S", Quantity: 3},
		{SizeID: "2", Code: "M", Quantity: 4},
	}
	if len(p.Sizes) != len(wantSizes) {
		t.Fatalf("Sizes = %+v, want %+v", p.Sizes, wantSizes)
	}
	for i := range wantSizes {
		if p.Sizes[i] != wantSizes[i] {
			t.Errorf("Sizes[%d] = %+v, want %+v", i, p.Sizes[i], wantSizes[i])
		}
	}

	if got["20"].TotalStock != 0 {
		t.Errorf("product 20 TotalStock = %d, want 0", got["20"].TotalStock)
	}
}

func TestParseLight_StockSum(t *testing.T) {
	tests := []struct {
		name  string
		stock string
		want  int64
	}{
		{name: "sum of two", stock: `<stock quantity="3"/><stock quantity="5"/>`, want: 8},
		{name: "non numeric contributes zero", stock: `<stock quantity="abc"/><stock quantity="2"/>`, want: 2},
		{name: "absent quantity contributes zero", stock: `<stock/><stock quantity="4"/>`, want: 4},
		{name: "negative added as is", stock: `<stock quantity="5"/><stock quantity="-7"/>`, want: -2},
		{name: "no stock", stock: ``, want: 0},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			doc := `<root><product id="1">` + tt.stock + `</product></root>`
			got, err := ParseLight(context.Background(), strings.NewReader(doc))
			if err != nil {
				t.Fatalf("ParseLight() error = %v", err)
			}
			if got["1"].TotalStock != tt.want {
				t.Errorf("TotalStock = %d, want %d", got["1"].TotalStock, tt.want)
			}
		})
	}
}

func TestParseLight_ResetsPerProduct(t *testing.T) {
	doc := `<root>
  <product id="1"><price gross="5" net="4"/><stock quantity="2"/></product>
  <product id="2"><stock quantity="1"/></product>
</root>`

	got, err := ParseLight(context.Background(), strings.NewReader(doc))
	if err != nil {
		t.Fatalf("ParseLight() error = %v", err)
	}

	p := got["2"]
	if p.TotalStock != 1 {
		t.Errorf("TotalStock = %d, want 1", p.TotalStock)
	}
	if p.PriceGross != "" || p.PriceNet != "" {
		t.Errorf("prices leaked from previous product: %+v", p)
	}
}

func TestParseQuantity(t *testing.T) {
	tests := []struct {
		in   string
		want int64
	}{
		{"0", 0},
		{"42", 42},
		{"  17", 17},
		{"+3", 3},
		{"-4", -4},
		{"12 pcs", 12},
		{"3.9", 3},
		{"abc", 0},
		{"", 0},
		{"-", 0},
		{"99999999999999999999", 0},
	}

	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			if got := ParseQuantity(tt.in); got != tt.want {
				t.Errorf("ParseQuantity(%q) = %d, want %d", tt.in, got, tt.want)
			}
		})
	}
}
