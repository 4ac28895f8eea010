package catalog

import (
	"context"
	"errors"
	"strings"
	"testing"
)

// recorder captures events as strings for assertions.
type recorder struct {
	events []string
}

func (r *recorder) OpenTag(name string, attrs Attrs) {
	r.events = append(r.events, "open:"+name+":"+attrs.Lang())
}

func (r *recorder) Text(data []byte) {
	if s := strings.TrimSpace(string(data)); s != "" {
		r.events = append(r.events, "text:"+s)
	}
}

func (r *recorder) CloseTag(name string) {
	r.events = append(r.events, "close:"+name)
}

func TestScan_Events(t *testing.T) {
	doc := `<?xml version="1.0"?>
<root xmlns:x="urn:x">
  <x:name xml:lang="pol">A &amp; B</x:name>
  <name lang="eng"><![CDATA[raw <text>]]></name>
  <empty/>
</root>`

	rec := &recorder{}
	if err := Scan(context.Background(), strings.NewReader(doc), rec); err != nil {
		t.Fatalf("Scan() error = %v", err)
	}

	want := []string{
		"open:root:",
		"open:name:pol",
		"text:A & B",
		"close:name",
		"open:name:eng",
		"text:raw <text>",
		"close:name",
		"open:empty:",
		"close:empty",
		"close:root",
	}
	if len(rec.events) != len(want) {
		t.Fatalf("events = %v, want %v", rec.events, want)
	}
	for i := range want {
		if rec.events[i] != want[i] {
			t.Errorf("events[%d] = %q, want %q", i, rec.events[i], want[i])
		}
	}
}

func TestAttrs_Lang(t *testing.T) {
	tests := []struct {
		name  string
		attrs Attrs
		want  string
	}{
		{name: "xml namespaced", attrs: Attrs{"xml:lang": "pol"}, want: "pol"},
		{name: "plain fallback", attrs: Attrs{"lang": "pol"}, want: "pol"},
		{name: "namespaced wins", attrs: Attrs{"xml:lang": "eng", "lang": "pol"}, want: "eng"},
		{name: "absent", attrs: Attrs{}, want: ""},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := tt.attrs.Lang(); got != tt.want {
				t.Errorf("Lang() = %q, want %q", got, tt.want)
			}
		})
	}
}

func TestScan_TolerantNesting(t *testing.T) {
	// mismatched close tags still produce events
	doc := `<root><product id="1"><card url="u"></product></card></root>`

	rec := &recorder{}
	if err := Scan(context.Background(), strings.NewReader(doc), rec); err != nil {
		t.Fatalf("Scan() error = %v", err)
	}
	if got := len(rec.events); got != 6 {
		t.Errorf("len(events) = %d, want 6 (%v)", got, rec.events)
	}
}

func TestScan_Malformed(t *testing.T) {
	doc := `<root><product id="1"></product><product id="2"`

	rec := &recorder{}
	err := Scan(context.Background(), strings.NewReader(doc), rec)
	if !errors.Is(err, ErrMalformedXML) {
		t.Fatalf("Scan() error = %v, want ErrMalformedXML", err)
	}
	if len(rec.events) < 3 {
		t.Errorf("events before failure = %v, want at least 3", rec.events)
	}
}

func TestScan_Charset(t *testing.T) {
	// "Żółw" in ISO-8859-2
	doc := "<?xml version=\"1.0\" encoding=\"ISO-8859-2\"?><root><name>\xaf\xf3\xb3w</name></root>"

	rec := &recorder{}
	if err := Scan(context.Background(), strings.NewReader(doc), rec); err != nil {
		t.Fatalf("Scan() error = %v", err)
	}

	found := false
	for _, e := range rec.events {
		if e == "text:Żółw" {
			found = true
		}
	}
	if !found {
		t.Errorf("decoded text not found in %v", rec.events)
	}
}

func TestScan_UnsupportedCharset(t *testing.T) {
	doc := `<?xml version="1.0" encoding="x-no-such-charset"?><root/>`

	err := Scan(context.Background(), strings.NewReader(doc), &recorder{})
	if err == nil {
		t.Fatal("Scan() expected error for unknown charset")
	}
	if errors.Is(err, ErrMalformedXML) {
		t.Errorf("charset error should not be ErrMalformedXML: %v", err)
	}
	if !strings.Contains(err.Error(), "unsupported charset") {
		t.Errorf("error = %q, want it to mention unsupported charset", err.Error())
	}
}

func TestScan_Cancelled(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	err := Scan(ctx, strings.NewReader(`<root/>`), &recorder{})
	if !errors.Is(err, context.Canceled) {
		t.Errorf("Scan() error = %v, want context.Canceled", err)
	}
}
