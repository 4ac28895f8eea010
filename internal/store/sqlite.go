package store

import (
	"context"
	"database/sql"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"time"

	_ "modernc.org/sqlite"

	"github.com/JonMunkholm/catalogmerge/internal/catalog"
	"github.com/JonMunkholm/catalogmerge/internal/core"
)

// SQLiteStore writes the latest successful run to a standalone SQLite file,
// replacing the previous snapshot.
type SQLiteStore struct {
	path string

	// mu serializes the rename so the newest finished snapshot wins.
	mu      sync.Mutex
	savedAt time.Time
}

// NewSQLiteStore creates a store writing to path.
func NewSQLiteStore(path string) *SQLiteStore {
	return &SQLiteStore{path: path}
}

// Name implements core.Sink.
func (s *SQLiteStore) Name() string {
	return "sqlite"
}

// Path returns the snapshot location.
func (s *SQLiteStore) Path() string {
	return s.path
}

// SaveRun implements core.Sink. Each call builds its snapshot in its own
// temp file beside the target and renames it over the target once complete.
// A run that started before the current snapshot's run is discarded.
func (s *SQLiteStore) SaveRun(ctx context.Context, run *core.Run) error {
	dir := filepath.Dir(s.path)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return fmt.Errorf("create snapshot dir: %w", err)
	}

	f, err := os.CreateTemp(dir, "."+filepath.Base(s.path)+".*.tmp")
	if err != nil {
		return fmt.Errorf("create temp snapshot: %w", err)
	}
	tmp := f.Name()
	f.Close()
	defer os.Remove(tmp)

	if err := writeSnapshot(ctx, tmp, run); err != nil {
		return err
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	if run.StartedAt.Before(s.savedAt) {
		return nil
	}
	if err := os.Rename(tmp, s.path); err != nil {
		return fmt.Errorf("replace snapshot: %w", err)
	}
	s.savedAt = run.StartedAt
	return nil
}

func writeSnapshot(ctx context.Context, path string, run *core.Run) error {
	db, err := sql.Open("sqlite", path)
	if err != nil {
		return fmt.Errorf("open snapshot: %w", err)
	}
	defer db.Close()

	tx, err := db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin snapshot: %w", err)
	}
	defer tx.Rollback()

	if _, err := tx.ExecContext(ctx, `CREATE TABLE "run" (
		"id" TEXT, "trigger" TEXT, "started_at" TEXT, "finished_at" TEXT,
		"full_products" INTEGER, "light_products" INTEGER, "rows" INTEGER, "total_stock" INTEGER)`); err != nil {
		return fmt.Errorf("create run table: %w", err)
	}
	if _, err := tx.ExecContext(ctx, `INSERT INTO "run" VALUES (?, ?, ?, ?, ?, ?, ?, ?)`,
		run.ID, run.Trigger, run.StartedAt.UTC().Format("2006-01-02T15:04:05Z07:00"),
		run.FinishedAt.UTC().Format("2006-01-02T15:04:05Z07:00"),
		run.Stats.FullProducts, run.Stats.LightProducts, run.Stats.Rows, run.Stats.TotalStock,
	); err != nil {
		return fmt.Errorf("insert run: %w", err)
	}

	products := make([][]string, len(run.Rows))
	for i, r := range run.Rows {
		products[i] = r.Record()
	}
	if err := insertTable(ctx, tx, "products", catalog.Columns, products); err != nil {
		return err
	}

	sizes := make([][]string, len(run.Sizes))
	for i, r := range run.Sizes {
		sizes[i] = r.Record()
	}
	if err := insertTable(ctx, tx, "product_sizes", catalog.SizeColumns, sizes); err != nil {
		return err
	}

	categories := make([][]string, len(run.Categories))
	for i, c := range run.Categories {
		categories[i] = []string{c.Label, c.CategoryID, c.Category, fmt.Sprint(c.Products)}
	}
	if err := insertTable(ctx, tx, "categories", []string{"label", "category_id", "category", "products"}, categories); err != nil {
		return err
	}

	for _, idx := range []string{
		`CREATE INDEX IF NOT EXISTS idx_products_product_id ON products(product_id)`,
		`CREATE INDEX IF NOT EXISTS idx_products_category_id ON products(category_id)`,
		`CREATE INDEX IF NOT EXISTS idx_product_sizes_product_id ON product_sizes(product_id)`,
	} {
		if _, err := tx.ExecContext(ctx, idx); err != nil {
			return fmt.Errorf("create index: %w", err)
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("commit snapshot: %w", err)
	}
	return nil
}

// integerColumns are stored as INTEGER; everything else is TEXT.
var integerColumns = map[string]bool{"total_stock": true, "quantity": true, "products": true}

func insertTable(ctx context.Context, tx *sql.Tx, table string, cols []string, records [][]string) error {
	defs := make([]string, len(cols))
	quoted := make([]string, len(cols))
	for i, c := range cols {
		t := "TEXT"
		if integerColumns[c] {
			t = "INTEGER"
		}
		defs[i] = fmt.Sprintf("%q %s", c, t)
		quoted[i] = fmt.Sprintf("%q", c)
	}

	if _, err := tx.ExecContext(ctx, fmt.Sprintf(`CREATE TABLE %q (%s)`, table, strings.Join(defs, ","))); err != nil {
		return fmt.Errorf("create %s: %w", table, err)
	}

	ph := strings.TrimRight(strings.Repeat("?,", len(cols)), ",")
	stmt, err := tx.PrepareContext(ctx, fmt.Sprintf(`INSERT INTO %q (%s) VALUES (%s)`, table, strings.Join(quoted, ","), ph))
	if err != nil {
		return fmt.Errorf("prepare %s insert: %w", table, err)
	}
	defer stmt.Close()

	args := make([]any, len(cols))
	for _, rec := range records {
		for i := range rec {
			args[i] = rec[i]
		}
		if _, err := stmt.ExecContext(ctx, args...); err != nil {
			return fmt.Errorf("insert into %s: %w", table, err)
		}
	}
	return nil
}
