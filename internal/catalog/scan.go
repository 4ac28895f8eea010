package catalog

// scan.go adapts encoding/xml's pull tokenizer to the push-style events the
// extractors consume: element open (local name plus attributes), character
// data, and element close.
//
// Tokens come from RawToken: attribute keys keep their source prefix
// ("xml:lang"), element names are reduced to their local part, and start/end
// nesting is not enforced, so badly nested documents still produce events.

import (
	"context"
	"encoding/xml"
	"errors"
	"fmt"
	"io"
	"strings"

	"golang.org/x/text/encoding/ianaindex"
	"golang.org/x/text/transform"
)

// ErrMalformedXML is wrapped by Scan when the tokenizer cannot continue.
// Events delivered before the failure stay valid.
var ErrMalformedXML = errors.New("malformed xml")

// ContextCheckInterval is how often (in tokens) Scan checks for cancellation.
var ContextCheckInterval = 1000

// Attrs holds the attributes of one element keyed by qualified name.
type Attrs map[string]string

// Get returns the attribute value or "" when absent.
func (a Attrs) Get(name string) string {
	return a[name]
}

// Lang returns the element's language, preferring xml:lang over a plain lang
// attribute.
func (a Attrs) Lang() string {
	if v := a["xml:lang"]; v != "" {
		return v
	}
	return a["lang"]
}

// Handler receives scan events in document order. All callbacks run on the
// goroutine that called Scan. The data passed to Text is only valid for the
// duration of the call.
type Handler interface {
	OpenTag(name string, attrs Attrs)
	Text(data []byte)
	CloseTag(name string)
}

// Scan reads the whole document from r and pushes its events to h.
// It returns nil at end of input, an error wrapping ErrMalformedXML when the
// document stops being tokenizable, and any read or charset error as is.
func Scan(ctx context.Context, r io.Reader, h Handler) error {
	d := xml.NewDecoder(r)
	d.Strict = false
	d.CharsetReader = charsetReader

	for n := 0; ; n++ {
		if n%ContextCheckInterval == 0 {
			if err := ctx.Err(); err != nil {
				return err
			}
		}

		tok, err := d.RawToken()
		if err == io.EOF {
			return nil
		}
		if err != nil {
			var syntaxErr *xml.SyntaxError
			if errors.As(err, &syntaxErr) {
				return fmt.Errorf("%w: line %d: %s", ErrMalformedXML, syntaxErr.Line, syntaxErr.Msg)
			}
			return err
		}

		switch t := tok.(type) {
		case xml.StartElement:
			h.OpenTag(t.Name.Local, attrsOf(t.Attr))
		case xml.EndElement:
			h.CloseTag(t.Name.Local)
		case xml.CharData:
			h.Text(t)
		}
	}
}

func attrsOf(attrs []xml.Attr) Attrs {
	out := make(Attrs, len(attrs))
	for _, a := range attrs {
		key := a.Name.Local
		if a.Name.Space != "" {
			key = a.Name.Space + ":" + a.Name.Local
		}
		out[key] = a.Value
	}
	return out
}

// charsetReader decodes documents that declare a non-UTF-8 encoding, e.g.
// ISO-8859-2 or windows-1250 exports.
func charsetReader(label string, input io.Reader) (io.Reader, error) {
	enc, err := ianaindex.IANA.Encoding(strings.TrimSpace(label))
	if err != nil || enc == nil {
		return nil, fmt.Errorf("unsupported charset %q", label)
	}
	return transform.NewReader(input, enc.NewDecoder()), nil
}
