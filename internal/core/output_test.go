package core

import (
	"errors"
	"io"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/JonMunkholm/catalogmerge/internal/catalog"
)

func TestWriteOutputs(t *testing.T) {
	dir := t.TempDir()
	csvPath := filepath.Join(dir, "out", "products.csv")
	sizesPath := filepath.Join(dir, "out", "sizes.csv")

	run := &Run{
		Rows: []catalog.OutputRow{{ProductID: "10", ProductNamePol: "Widget", TotalStock: 7}},
		Sizes: []catalog.SizeRow{
			{ProductID: "10", SizeStock: catalog.SizeStock{SizeID: "1", Code: "S", Quantity: 7}},
		},
	}

	if err := WriteOutputs(run, csvPath, sizesPath); err != nil {
		t.Fatalf("WriteOutputs() error = %v", err)
	}

	got, err := os.ReadFile(csvPath)
	if err != nil {
		t.Fatal(err)
	}
	want := strings.Join(catalog.Columns, ",") + "\n10,Widget,,,,,,,7,,,"
	if string(got) != want {
		t.Errorf("products csv = %q, want %q", got, want)
	}

	got, err = os.ReadFile(sizesPath)
	if err != nil {
		t.Fatal(err)
	}
	if string(got) != "product_id,size_id,code,quantity\n10,1,S,7" {
		t.Errorf("sizes csv = %q", got)
	}
}

func TestWriteOutputs_SkipsSizes(t *testing.T) {
	dir := t.TempDir()
	csvPath := filepath.Join(dir, "products.csv")

	if err := WriteOutputs(&Run{}, csvPath, ""); err != nil {
		t.Fatalf("WriteOutputs() error = %v", err)
	}

	entries, err := os.ReadDir(dir)
	if err != nil {
		t.Fatal(err)
	}
	if len(entries) != 1 || entries[0].Name() != "products.csv" {
		t.Errorf("dir entries = %v, want only products.csv", entries)
	}
}

func TestWriteFileAtomic_KeepsOldContentOnError(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "products.csv")

	if err := os.WriteFile(path, []byte("previous"), 0o644); err != nil {
		t.Fatal(err)
	}

	boom := errors.New("boom")
	err := WriteFileAtomic(path, func(w io.Writer) error {
		if _, err := io.WriteString(w, "partial"); err != nil {
			return err
		}
		return boom
	})
	if !errors.Is(err, boom) {
		t.Fatalf("WriteFileAtomic() error = %v, want boom", err)
	}

	got, err := os.ReadFile(path)
	if err != nil {
		t.Fatal(err)
	}
	if string(got) != "previous" {
		t.Errorf("content = %q, want previous content kept", got)
	}

	entries, err := os.ReadDir(dir)
	if err != nil {
		t.Fatal(err)
	}
	if len(entries) != 1 {
		t.Errorf("temp file left behind: %v", entries)
	}
}
