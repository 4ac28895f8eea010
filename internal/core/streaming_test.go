package core

import (
	"bufio"
	"bytes"
	"io"
	"strings"
	"testing"
	"testing/iotest"
)

func TestSkipBOM(t *testing.T) {
	tests := []struct {
		name     string
		input    []byte
		expected string
	}{
		{
			name:     "file with BOM",
			input:    append([]byte{0xEF, 0xBB, 0xBF}, []byte("<catalog/>")...),
			expected: "<catalog/>",
		},
		{
			name:     "file without BOM",
			input:    []byte("<catalog/>"),
			expected: "<catalog/>",
		},
		{
			name:     "empty file",
			input:    []byte{},
			expected: "",
		},
		{
			name:     "only BOM",
			input:    []byte{0xEF, 0xBB, 0xBF},
			expected: "",
		},
		{
			name:     "partial BOM at start",
			input:    []byte{0xEF, 0xBB, 'a', 'b', 'c'},
			expected: string([]byte{0xEF, 0xBB, 'a', 'b', 'c'}),
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			br := bufio.NewReader(bytes.NewReader(tt.input))
			if err := SkipBOM(br); err != nil {
				t.Fatalf("SkipBOM() error = %v", err)
			}
			result, err := io.ReadAll(br)
			if err != nil {
				t.Fatalf("unexpected error: %v", err)
			}
			if string(result) != tt.expected {
				t.Errorf("got %q, want %q", string(result), tt.expected)
			}
		})
	}
}

func TestUTF8Sanitizer(t *testing.T) {
	tests := []struct {
		name     string
		input    []byte
		expected string
	}{
		{
			name:     "valid ASCII",
			input:    []byte("<name>shoe</name>"),
			expected: "<name>shoe</name>",
		},
		{
			name:     "valid UTF-8 with multibyte",
			input:    []byte("Żółw zielony"),
			expected: "Żółw zielony",
		},
		{
			name:     "invalid single byte replaced",
			input:    []byte{'h', 'e', 0x80, 'l', 'o'},
			expected: "he?lo",
		},
		{
			name:     "truncated sequence at end",
			input:    []byte{'o', 'k', 0xC5},
			expected: "ok?",
		},
		{
			name:     "latin-2 byte in utf-8 text",
			input:    []byte{'B', 'u', 't', 0xB3, 'y'},
			expected: "But?y",
		},
		{
			name:     "empty input",
			input:    []byte{},
			expected: "",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			reader := NewUTF8Sanitizer(bytes.NewReader(tt.input))
			result, err := io.ReadAll(reader)
			if err != nil {
				t.Fatalf("unexpected error: %v", err)
			}
			if string(result) != tt.expected {
				t.Errorf("got %q, want %q", string(result), tt.expected)
			}
		})
	}
}

func TestUTF8Sanitizer_SplitReads(t *testing.T) {
	input := "Buty żółte, rozmiar 42"

	// multibyte runes arrive one byte at a time
	reader := NewUTF8Sanitizer(iotest.OneByteReader(strings.NewReader(input)))
	result, err := io.ReadAll(reader)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if string(result) != input {
		t.Errorf("got %q, want %q", string(result), input)
	}
}

func TestCountingReader(t *testing.T) {
	input := strings.Repeat("x", 1000)
	reader := NewCountingReader(strings.NewReader(input))

	buf := make([]byte, 100)
	totalRead := 0
	for {
		n, err := reader.Read(buf)
		totalRead += n
		if err == io.EOF {
			break
		}
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
	}

	if totalRead != len(input) {
		t.Errorf("total read = %d, want %d", totalRead, len(input))
	}
	if reader.BytesRead() != int64(len(input)) {
		t.Errorf("BytesRead = %d, want %d", reader.BytesRead(), len(input))
	}
}

func TestDeclaredEncoding(t *testing.T) {
	tests := []struct {
		name  string
		input string
		want  string
	}{
		{name: "utf-8 declared", input: `<?xml version="1.0" encoding="UTF-8"?><a/>`, want: "UTF-8"},
		{name: "single quotes", input: `<?xml version='1.0' encoding='ISO-8859-2'?><a/>`, want: "ISO-8859-2"},
		{name: "no encoding", input: `<?xml version="1.0"?><a/>`, want: ""},
		{name: "no declaration", input: `<a encoding="x"/>`, want: ""},
		{name: "empty", input: "", want: ""},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := DeclaredEncoding(bufio.NewReader(strings.NewReader(tt.input)))
			if err != nil {
				t.Fatalf("DeclaredEncoding() error = %v", err)
			}
			if got != tt.want {
				t.Errorf("DeclaredEncoding() = %q, want %q", got, tt.want)
			}
		})
	}
}

func TestOpenXMLSource(t *testing.T) {
	// BOM and an invalid byte in an undeclared (UTF-8) document
	input := append([]byte{0xEF, 0xBB, 0xBF}, []byte{'h', 'e', 0x80, 'l', 'o'}...)

	src, err := OpenXMLSource(bytes.NewReader(input))
	if err != nil {
		t.Fatalf("OpenXMLSource() error = %v", err)
	}
	result, err := io.ReadAll(src)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if string(result) != "he?lo" {
		t.Errorf("got %q, want %q", string(result), "he?lo")
	}
	if src.BytesRead() != int64(len(input)) {
		t.Errorf("BytesRead = %d, want %d", src.BytesRead(), len(input))
	}
}

func TestOpenXMLSource_ForeignEncodingUntouched(t *testing.T) {
	// 0xAF is Ż in ISO-8859-2 and must reach the decoder unchanged
	input := []byte(`<?xml version="1.0" encoding="ISO-8859-2"?><n>` + "\xAF" + `</n>`)

	src, err := OpenXMLSource(bytes.NewReader(input))
	if err != nil {
		t.Fatalf("OpenXMLSource() error = %v", err)
	}
	if src.Encoding != "ISO-8859-2" {
		t.Errorf("Encoding = %q, want %q", src.Encoding, "ISO-8859-2")
	}

	result, err := io.ReadAll(src)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if !bytes.Equal(result, input) {
		t.Errorf("got %q, want %q", result, input)
	}
}
