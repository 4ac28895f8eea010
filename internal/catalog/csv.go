package catalog

// csv.go serializes merged rows. The quoting rule is narrower than
// encoding/csv's: only fields containing a double quote, comma or newline
// are quoted, and lines are joined by "\n" with no trailing newline.

import (
	"bufio"
	"io"
	"strings"
)

// EscapeField quotes s when it contains a double quote, comma or newline,
// doubling any inner quotes. Other values are returned unchanged.
func EscapeField(s string) string {
	if !strings.ContainsAny(s, "\",\n") {
		return s
	}
	return `"` + strings.ReplaceAll(s, `"`, `""`) + `"`
}

// WriteCSV writes the header and one line per row to w.
func WriteCSV(w io.Writer, rows []OutputRow) error {
	records := make([][]string, len(rows))
	for i, r := range rows {
		records[i] = r.Record()
	}
	return writeRecords(w, Columns, records)
}

// WriteSizesCSV writes the per-size stock report to w.
func WriteSizesCSV(w io.Writer, rows []SizeRow) error {
	records := make([][]string, len(rows))
	for i, r := range rows {
		records[i] = r.Record()
	}
	return writeRecords(w, SizeColumns, records)
}

// Render returns the CSV text for rows.
func Render(rows []OutputRow) string {
	var b strings.Builder
	// strings.Builder never fails
	_ = WriteCSV(&b, rows)
	return b.String()
}

func writeRecords(w io.Writer, header []string, records [][]string) error {
	bw := bufio.NewWriter(w)

	// header names contain no special characters and are written raw
	if _, err := bw.WriteString(strings.Join(header, ",")); err != nil {
		return err
	}

	for _, rec := range records {
		if err := bw.WriteByte('\n'); err != nil {
			return err
		}
		for i, field := range rec {
			if i > 0 {
				if err := bw.WriteByte(','); err != nil {
					return err
				}
			}
			if _, err := bw.WriteString(EscapeField(field)); err != nil {
				return err
			}
		}
	}

	return bw.Flush()
}
