package core

import (
	"fmt"
	"io"
	"os"
	"path/filepath"

	"github.com/JonMunkholm/catalogmerge/internal/catalog"
)

// WriteOutputs writes the products CSV of run to csvPath and, when sizesPath
// is not empty, the per-size stock report to sizesPath.
func WriteOutputs(run *Run, csvPath, sizesPath string) error {
	if err := WriteFileAtomic(csvPath, func(w io.Writer) error {
		return catalog.WriteCSV(w, run.Rows)
	}); err != nil {
		return fmt.Errorf("write products csv: %w", err)
	}

	if sizesPath == "" {
		return nil
	}
	if err := WriteFileAtomic(sizesPath, func(w io.Writer) error {
		return catalog.WriteSizesCSV(w, run.Sizes)
	}); err != nil {
		return fmt.Errorf("write sizes csv: %w", err)
	}
	return nil
}

// WriteFileAtomic writes a file through a temporary sibling and renames it
// into place, so path holds either its previous content or the complete new
// content. Missing parent directories are created.
func WriteFileAtomic(path string, write func(io.Writer) error) (err error) {
	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return fmt.Errorf("create output dir: %w", err)
	}

	tmp, err := os.CreateTemp(dir, "."+filepath.Base(path)+".*.tmp")
	if err != nil {
		return fmt.Errorf("create temp file: %w", err)
	}
	defer func() {
		if err != nil {
			tmp.Close()
			os.Remove(tmp.Name())
		}
	}()

	if err = write(tmp); err != nil {
		return err
	}
	if err = tmp.Sync(); err != nil {
		return fmt.Errorf("sync temp file: %w", err)
	}
	if err = tmp.Close(); err != nil {
		return fmt.Errorf("close temp file: %w", err)
	}
	if err = os.Chmod(tmp.Name(), 0o644); err != nil {
		return fmt.Errorf("chmod temp file: %w", err)
	}
	if err = os.Rename(tmp.Name(), path); err != nil {
		return fmt.Errorf("rename temp file: %w", err)
	}
	return nil
}
