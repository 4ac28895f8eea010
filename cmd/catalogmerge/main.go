// Command catalogmerge merges the full and light catalog exports into a CSV
// of in-stock products.
//
// Paths come from the environment (CATALOG_FULL_PATH, CATALOG_LIGHT_PATH,
// CATALOG_OUTPUT_PATH, CATALOG_SIZES_PATH, CATALOG_SQLITE_PATH) and may be
// overridden with flags.
package main

import (
	"context"
	"flag"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/dustin/go-humanize"
	"github.com/joho/godotenv"

	"github.com/JonMunkholm/catalogmerge/internal/config"
	"github.com/JonMunkholm/catalogmerge/internal/core"
	"github.com/JonMunkholm/catalogmerge/internal/logging"
	"github.com/JonMunkholm/catalogmerge/internal/store"
)

func main() {
	_ = godotenv.Overload()

	cfg, err := config.Load()
	if err != nil {
		slog.Error("failed to load configuration", "error", err)
		os.Exit(1)
	}

	fullPath := flag.String("full", cfg.Catalog.FullPath, "full catalog export")
	lightPath := flag.String("light", cfg.Catalog.LightPath, "light catalog export")
	outPath := flag.String("out", cfg.Catalog.OutputPath, "merged CSV output")
	sizesPath := flag.String("sizes", cfg.Catalog.SizesPath, "per-size stock CSV output (optional)")
	sqlitePath := flag.String("sqlite", cfg.Catalog.SQLitePath, "SQLite snapshot output (optional)")
	flag.Parse()

	logging.Setup(cfg.Logging.Level, cfg.Logging.Format)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	run, err := mergeCatalog(ctx, options{
		FullPath:   *fullPath,
		LightPath:  *lightPath,
		OutPath:    *outPath,
		SizesPath:  *sizesPath,
		SQLitePath: *sqlitePath,
		Timeout:    cfg.Merge.Timeout,
	})
	if err != nil {
		slog.Error("merge failed", "error", err, "code", core.MapError(err).Code)
		os.Exit(1)
	}

	for _, w := range run.Warnings {
		slog.Warn("merge warning", "source", w.Source, "code", w.Code, "message", w.Message)
	}

	slog.Info("wrote merged catalog",
		"path", *outPath,
		"rows", humanize.Comma(int64(run.Stats.Rows)),
		"units", humanize.Comma(run.Stats.TotalStock),
		"run_id", run.ID,
	)
}

type options struct {
	FullPath   string
	LightPath  string
	OutPath    string
	SizesPath  string
	SQLitePath string
	Timeout    time.Duration
}

// mergeCatalog merges the exports and writes the CSV outputs. The SQLite
// snapshot is written only once the CSV is in place.
func mergeCatalog(ctx context.Context, opts options) (*core.Run, error) {
	service := core.NewService(core.ServiceConfig{Timeout: opts.Timeout})

	run, err := service.MergeFiles(ctx, core.TriggerCLI, opts.FullPath, opts.LightPath)
	if err != nil {
		return nil, err
	}

	if err := core.WriteOutputs(run, opts.OutPath, opts.SizesPath); err != nil {
		return nil, err
	}

	if opts.SQLitePath != "" {
		snap := store.NewSQLiteStore(opts.SQLitePath)
		if err := snap.SaveRun(ctx, run); err != nil {
			return nil, fmt.Errorf("write sqlite snapshot %s: %w", snap.Path(), err)
		}
	}
	return run, nil
}
