package core

// streaming.go prepares export readers for the XML extractors without
// buffering whole documents:
//
//   - CountingReader: tracks raw bytes read for run statistics
//   - SkipBOM: drops a UTF-8 byte order mark left by Windows tools
//   - UTF8Sanitizer: replaces invalid UTF-8 bytes with '?' so one bad byte
//     does not abort the tokenizer
//
// OpenXMLSource applies them in order. Documents declaring another encoding
// are passed through untouched; the XML decoder converts them itself.

import (
	"bufio"
	"errors"
	"io"
	"regexp"
	"strings"
	"unicode/utf8"
)

// sniffSize is how much of a document is inspected for its XML declaration.
const sniffSize = 512

var utf8BOM = []byte{0xEF, 0xBB, 0xBF}

var encodingDecl = regexp.MustCompile(`\A\s*<\?xml[^>]*?\sencoding\s*=\s*["']([A-Za-z0-9._:-]+)["']`)

// CountingReader wraps an io.Reader to track bytes read.
type CountingReader struct {
	reader    io.Reader
	bytesRead int64
}

// NewCountingReader creates a counting reader.
func NewCountingReader(r io.Reader) *CountingReader {
	return &CountingReader{reader: r}
}

// Read implements io.Reader.
func (r *CountingReader) Read(p []byte) (int, error) {
	n, err := r.reader.Read(p)
	r.bytesRead += int64(n)
	return n, err
}

// BytesRead returns the number of bytes read so far.
// Not safe for use concurrently with Read.
func (r *CountingReader) BytesRead() int64 {
	return r.bytesRead
}

// SkipBOM discards a leading UTF-8 byte order mark from br, if present.
func SkipBOM(br *bufio.Reader) error {
	head, err := br.Peek(len(utf8BOM))
	if err != nil && err != io.EOF {
		return err
	}
	if len(head) == len(utf8BOM) && string(head) == string(utf8BOM) {
		_, err = br.Discard(len(utf8BOM))
		return err
	}
	return nil
}

// DeclaredEncoding returns the encoding named by the XML declaration at the
// start of br, or "" when there is none. br is not advanced.
func DeclaredEncoding(br *bufio.Reader) (string, error) {
	head, err := br.Peek(sniffSize)
	if err != nil && err != io.EOF && !errors.Is(err, bufio.ErrBufferFull) {
		return "", err
	}
	m := encodingDecl.FindSubmatch(head)
	if m == nil {
		return "", nil
	}
	return string(m[1]), nil
}

func isUTF8Label(label string) bool {
	return label == "" || strings.EqualFold(label, "utf-8") || strings.EqualFold(label, "utf8")
}

// UTF8Sanitizer reads UTF-8 text and replaces every byte that is not part of
// a valid sequence with '?'. Sequences split across underlying reads are
// reassembled by the buffered reader before they are judged.
type UTF8Sanitizer struct {
	br *bufio.Reader
}

// NewUTF8Sanitizer creates a sanitizer over r.
func NewUTF8Sanitizer(r io.Reader) *UTF8Sanitizer {
	br, ok := r.(*bufio.Reader)
	if !ok {
		br = bufio.NewReader(r)
	}
	return &UTF8Sanitizer{br: br}
}

// Read implements io.Reader. It returns as soon as the buffered data is
// used up rather than blocking for a full p.
func (s *UTF8Sanitizer) Read(p []byte) (int, error) {
	if len(p) == 0 {
		return 0, nil
	}

	n := 0
	for n < len(p) {
		if n > 0 && s.br.Buffered() == 0 {
			break
		}

		// ASCII fast path
		if b, err := s.br.Peek(1); err == nil && b[0] < utf8.RuneSelf {
			p[n] = b[0]
			n++
			_, _ = s.br.Discard(1)
			continue
		}

		r, size, err := s.br.ReadRune()
		if err != nil {
			if n > 0 {
				return n, nil
			}
			return 0, err
		}

		if r == utf8.RuneError && size == 1 {
			p[n] = '?'
			n++
			continue
		}

		if n+size > len(p) {
			_ = s.br.UnreadRune()
			if n == 0 {
				return 0, io.ErrShortBuffer
			}
			break
		}
		n += utf8.EncodeRune(p[n:], r)
	}

	return n, nil
}

// XMLSource is an export stream ready for the catalog extractors.
type XMLSource struct {
	io.Reader

	// Encoding is the encoding named in the XML declaration ("" if none).
	Encoding string

	counter *CountingReader
}

// BytesRead returns the raw bytes consumed from the underlying reader.
func (s *XMLSource) BytesRead() int64 {
	return s.counter.BytesRead()
}

// OpenXMLSource wraps r with byte counting and BOM skipping, and with UTF-8
// sanitization when the document is (or defaults to) UTF-8.
//
// The order matters:
// 1. Counting sees the raw input
// 2. The BOM is stripped before the declaration is sniffed
// 3. Sanitization only applies to UTF-8 text
func OpenXMLSource(r io.Reader) (*XMLSource, error) {
	counter := NewCountingReader(r)
	br := bufio.NewReaderSize(counter, 64*1024)

	if err := SkipBOM(br); err != nil {
		return nil, err
	}

	enc, err := DeclaredEncoding(br)
	if err != nil {
		return nil, err
	}

	src := &XMLSource{Reader: br, Encoding: enc, counter: counter}
	if isUTF8Label(enc) {
		src.Reader = NewUTF8Sanitizer(br)
	}
	return src, nil
}
