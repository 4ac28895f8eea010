package main

import (
	"context"
	"os"
	"path/filepath"
	"strings"
	"testing"
)

const testFull = `<?xml version="1.0" encoding="UTF-8"?>
<offer><products>
  <product id="10" vat="23.0">
    <category id="7" name="Shoes"/>
    <description><name xml:lang="pol">Widget</name></description>
  </product>
</products></offer>`

const testLight = `<?xml version="1.0" encoding="UTF-8"?>
<offer><products>
  <product id="10"><price gross="12.50" net="10.00"/><stock quantity="3"/></product>
</products></offer>`

func writeExports(t *testing.T, dir string) (string, string) {
	t.Helper()
	full := filepath.Join(dir, "full.xml")
	light := filepath.Join(dir, "light.xml")
	if err := os.WriteFile(full, []byte(testFull), 0o644); err != nil {
		t.Fatal(err)
	}
	if err := os.WriteFile(light, []byte(testLight), 0o644); err != nil {
		t.Fatal(err)
	}
	return full, light
}

func TestMergeCatalog(t *testing.T) {
	dir := t.TempDir()
	full, light := writeExports(t, dir)
	out := filepath.Join(dir, "out", "products.csv")
	snapshot := filepath.Join(dir, "catalog.db")

	run, err := mergeCatalog(context.Background(), options{
		FullPath:   full,
		LightPath:  light,
		OutPath:    out,
		SQLitePath: snapshot,
	})
	if err != nil {
		t.Fatalf("mergeCatalog() error = %v", err)
	}
	if run.Stats.Rows != 1 {
		t.Errorf("rows = %d, want 1", run.Stats.Rows)
	}

	data, err := os.ReadFile(out)
	if err != nil {
		t.Fatal(err)
	}
	if !strings.Contains(string(data), "Widget") {
		t.Errorf("csv missing product row:\n%s", data)
	}
	if _, err := os.Stat(snapshot); err != nil {
		t.Errorf("snapshot not written: %v", err)
	}
}

func TestMergeCatalog_OutputFailureSkipsSnapshot(t *testing.T) {
	dir := t.TempDir()
	full, light := writeExports(t, dir)

	// A regular file where the output directory should be.
	blocker := filepath.Join(dir, "blocker")
	if err := os.WriteFile(blocker, nil, 0o644); err != nil {
		t.Fatal(err)
	}
	snapshot := filepath.Join(dir, "catalog.db")

	_, err := mergeCatalog(context.Background(), options{
		FullPath:   full,
		LightPath:  light,
		OutPath:    filepath.Join(blocker, "products.csv"),
		SQLitePath: snapshot,
	})
	if err == nil {
		t.Fatal("mergeCatalog() error = nil, want output error")
	}
	if _, err := os.Stat(snapshot); !os.IsNotExist(err) {
		t.Errorf("snapshot exists after failed output: %v", err)
	}
}
