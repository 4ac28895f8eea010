// Package store persists finished merge runs outside process memory.
//
// PostgresStore keeps an append-only log of every run with its rows, and
// SQLiteStore writes a self-contained snapshot of the latest run. Both
// implement core.Sink.
package store

import (
	"context"
	"fmt"
	"net/url"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/JonMunkholm/catalogmerge/internal/config"
	"github.com/JonMunkholm/catalogmerge/internal/core"
)

// DBTX is the interface for database operations.
// Satisfied by both *pgxpool.Pool and pgx.Tx.
type DBTX interface {
	Exec(context.Context, string, ...any) (pgconn.CommandTag, error)
	Query(context.Context, string, ...any) (pgx.Rows, error)
	QueryRow(context.Context, string, ...any) pgx.Row
	CopyFrom(ctx context.Context, tableName pgx.Identifier, columnNames []string, rowSrc pgx.CopyFromSource) (int64, error)
}

const schemaSQL = `
CREATE TABLE IF NOT EXISTS merge_runs (
	id             UUID PRIMARY KEY,
	trigger        TEXT NOT NULL,
	full_name      TEXT NOT NULL DEFAULT '',
	light_name     TEXT NOT NULL DEFAULT '',
	remote_addr    TEXT NOT NULL DEFAULT '',
	started_at     TIMESTAMPTZ NOT NULL,
	finished_at    TIMESTAMPTZ NOT NULL,
	full_products  INTEGER NOT NULL,
	light_products INTEGER NOT NULL,
	row_count      INTEGER NOT NULL,
	total_stock    BIGINT NOT NULL,
	warnings       JSONB NOT NULL DEFAULT '[]'
);

CREATE INDEX IF NOT EXISTS idx_merge_runs_started_at ON merge_runs (started_at DESC);

CREATE TABLE IF NOT EXISTS merge_run_products (
	run_id           UUID NOT NULL REFERENCES merge_runs (id) ON DELETE CASCADE,
	position         INTEGER NOT NULL,
	product_id       TEXT NOT NULL,
	product_name_pol TEXT NOT NULL,
	category_id      TEXT NOT NULL,
	category         TEXT NOT NULL,
	producer         TEXT NOT NULL,
	vat              TEXT NOT NULL,
	price_gross      TEXT NOT NULL,
	price_net        TEXT NOT NULL,
	total_stock      BIGINT NOT NULL,
	card_url         TEXT NOT NULL,
	image_url        TEXT NOT NULL,
	icon_url         TEXT NOT NULL,
	PRIMARY KEY (run_id, position)
);

CREATE TABLE IF NOT EXISTS merge_run_sizes (
	run_id     UUID NOT NULL REFERENCES merge_runs (id) ON DELETE CASCADE,
	position   INTEGER NOT NULL,
	product_id TEXT NOT NULL,
	size_id    TEXT NOT NULL,
	code       TEXT NOT NULL,
	quantity   BIGINT NOT NULL,
	PRIMARY KEY (run_id, position)
);
`

var productColumns = []string{
	"run_id", "position",
	"product_id", "product_name_pol", "category_id", "category", "producer", "vat",
	"price_gross", "price_net", "total_stock", "card_url", "image_url", "icon_url",
}

var sizeColumns = []string{"run_id", "position", "product_id", "size_id", "code", "quantity"}

// Connect opens and verifies a connection pool for cfg.
func Connect(ctx context.Context, cfg config.DatabaseConfig) (*pgxpool.Pool, error) {
	poolConfig, err := pgxpool.ParseConfig(cfg.URL)
	if err != nil {
		return nil, fmt.Errorf("parse database URL: %w", err)
	}

	poolConfig.MaxConns = int32(cfg.MaxConns)
	poolConfig.MinConns = int32(cfg.MinConns)
	poolConfig.MaxConnLifetime = cfg.MaxConnLifetime

	pool, err := pgxpool.NewWithConfig(ctx, poolConfig)
	if err != nil {
		return nil, fmt.Errorf("connect to database: %w", err)
	}

	if err := pool.Ping(ctx); err != nil {
		pool.Close()
		return nil, fmt.Errorf("ping database: %w", err)
	}
	return pool, nil
}

// DatabaseName returns the database name from a connection URL, for logs.
func DatabaseName(rawURL string) string {
	u, err := url.Parse(rawURL)
	if err != nil {
		return ""
	}
	return strings.TrimPrefix(u.Path, "/")
}

// PostgresStore records every successful run in Postgres.
type PostgresStore struct {
	pool *pgxpool.Pool
}

// NewPostgresStore creates a store over pool. Call EnsureSchema once before use.
func NewPostgresStore(pool *pgxpool.Pool) *PostgresStore {
	return &PostgresStore{pool: pool}
}

// Name implements core.Sink.
func (s *PostgresStore) Name() string {
	return "postgres"
}

// EnsureSchema creates the run tables if they do not exist.
func (s *PostgresStore) EnsureSchema(ctx context.Context) error {
	if _, err := s.pool.Exec(ctx, schemaSQL); err != nil {
		return fmt.Errorf("create schema: %w", err)
	}
	return nil
}

// SaveRun implements core.Sink. The run, its rows and its size rows are
// written in one transaction.
func (s *PostgresStore) SaveRun(ctx context.Context, run *core.Run) error {
	tx, err := s.pool.Begin(ctx)
	if err != nil {
		return fmt.Errorf("begin transaction: %w", err)
	}
	defer tx.Rollback(ctx)

	if err := saveRun(ctx, tx, run); err != nil {
		return err
	}

	if err := tx.Commit(ctx); err != nil {
		return fmt.Errorf("commit run: %w", err)
	}
	return nil
}

func saveRun(ctx context.Context, db DBTX, run *core.Run) error {
	id, err := uuid.Parse(run.ID)
	if err != nil {
		return fmt.Errorf("run id: %w", err)
	}

	warnings := run.Warnings
	if warnings == nil {
		warnings = []core.RunWarning{}
	}

	_, err = db.Exec(ctx, `
		INSERT INTO merge_runs (
			id, trigger, full_name, light_name, remote_addr, started_at, finished_at,
			full_products, light_products, row_count, total_stock, warnings
		) VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12)`,
		id, run.Trigger, run.FullName, run.LightName, run.RemoteAddr, run.StartedAt, run.FinishedAt,
		run.Stats.FullProducts, run.Stats.LightProducts, run.Stats.Rows, run.Stats.TotalStock, warnings,
	)
	if err != nil {
		return fmt.Errorf("insert run: %w", err)
	}

	if _, err := db.CopyFrom(ctx, pgx.Identifier{"merge_run_products"}, productColumns,
		pgx.CopyFromRows(productCopyRows(id, run))); err != nil {
		return fmt.Errorf("copy products: %w", err)
	}

	if _, err := db.CopyFrom(ctx, pgx.Identifier{"merge_run_sizes"}, sizeColumns,
		pgx.CopyFromRows(sizeCopyRows(id, run))); err != nil {
		return fmt.Errorf("copy sizes: %w", err)
	}

	return nil
}

// productCopyRows converts run rows for COPY, in productColumns order.
func productCopyRows(id uuid.UUID, run *core.Run) [][]any {
	rows := make([][]any, len(run.Rows))
	for i, r := range run.Rows {
		rows[i] = []any{
			id, i,
			r.ProductID, r.ProductNamePol, r.CategoryID, r.Category, r.Producer, r.VAT,
			r.PriceGross, r.PriceNet, r.TotalStock, r.CardURL, r.ImageURL, r.IconURL,
		}
	}
	return rows
}

// sizeCopyRows converts run size rows for COPY, in sizeColumns order.
func sizeCopyRows(id uuid.UUID, run *core.Run) [][]any {
	rows := make([][]any, len(run.Sizes))
	for i, r := range run.Sizes {
		rows[i] = []any{id, i, r.ProductID, r.SizeID, r.Code, r.Quantity}
	}
	return rows
}

// ArchivedRun is a run summary read back from Postgres.
type ArchivedRun struct {
	ID         string    `json:"id"`
	Trigger    string    `json:"trigger"`
	StartedAt  time.Time `json:"started_at"`
	FinishedAt time.Time `json:"finished_at"`
	Rows       int       `json:"rows"`
	TotalStock int64     `json:"total_stock"`
}

// RecentRuns returns up to limit archived runs, newest first.
func (s *PostgresStore) RecentRuns(ctx context.Context, limit int) ([]ArchivedRun, error) {
	rows, err := s.pool.Query(ctx, `
		SELECT id::text, trigger, started_at, finished_at, row_count, total_stock
		FROM merge_runs
		ORDER BY started_at DESC
		LIMIT $1`, limit)
	if err != nil {
		return nil, fmt.Errorf("query runs: %w", err)
	}
	defer rows.Close()

	var out []ArchivedRun
	for rows.Next() {
		var r ArchivedRun
		if err := rows.Scan(&r.ID, &r.Trigger, &r.StartedAt, &r.FinishedAt, &r.Rows, &r.TotalStock); err != nil {
			return nil, fmt.Errorf("scan run: %w", err)
		}
		out = append(out, r)
	}
	return out, rows.Err()
}
