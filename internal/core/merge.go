package core

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"time"

	"github.com/dustin/go-humanize"
	"github.com/google/uuid"
	"golang.org/x/sync/errgroup"

	"github.com/JonMunkholm/catalogmerge/internal/catalog"
	"github.com/JonMunkholm/catalogmerge/internal/logging"
	"github.com/JonMunkholm/catalogmerge/internal/metrics"
)

// ErrEmptyExport is returned when an export has no content at all.
var ErrEmptyExport = errors.New("empty file")

// Merge extracts both exports concurrently, joins them and records the run.
//
// The returned run is non-nil whenever a merge slot was obtained, including
// failed runs, so callers can report its id. A malformed export does not
// fail the run: the products read before the error are merged and the run
// carries a warning.
func (s *Service) Merge(ctx context.Context, in MergeInput) (*Run, error) {
	if s.limiter != nil {
		if err := s.limiter.Acquire(ctx); err != nil {
			if errors.Is(err, ErrTooManyRuns) {
				s.metrics.RecordRunRejected()
			}
			return nil, err
		}
		defer s.limiter.Release()
	}

	client := ClientInfoFromContext(ctx)
	run := &Run{
		ID:         uuid.New().String(),
		Trigger:    in.Trigger,
		FullName:   in.FullName,
		LightName:  in.LightName,
		RemoteAddr: client.IP,
		UserAgent:  client.UserAgent,
		StartedAt:  time.Now(),
	}

	ctx = logging.WithRunID(ctx, run.ID)
	if s.timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, s.timeout)
		defer cancel()
	}

	logger := logging.FromContext(ctx)
	logger.Info("merge started", "trigger", run.Trigger, "full", run.FullName, "light", run.LightName)
	s.metrics.RecordRunStarted()

	err := s.execute(ctx, run, in)

	run.FinishedAt = time.Now()
	run.Stats.DurationMS = run.FinishedAt.Sub(run.StartedAt).Milliseconds()

	status := metrics.StatusSucceeded
	if err != nil {
		status = metrics.StatusFailed
		run.Status = RunFailed
		run.Error = err.Error()
		logger.Error("merge failed", "error", err, "duration_ms", run.Stats.DurationMS)
	} else {
		run.Status = RunSucceeded
		s.saveToSinks(ctx, run)
		s.metrics.RecordRows(run.Stats.Rows)
		logger.Info("merge completed",
			"rows", run.Stats.Rows,
			"full_products", run.Stats.FullProducts,
			"light_products", run.Stats.LightProducts,
			"read", humanize.IBytes(uint64(run.Stats.FullBytes+run.Stats.LightBytes)),
			"warnings", len(run.Warnings),
			"duration_ms", run.Stats.DurationMS,
		)
	}
	s.metrics.RecordRunFinished(run.Trigger, status, run.FinishedAt.Sub(run.StartedAt).Seconds())

	s.record(run)
	return run, err
}

// MergeFiles merges the exports stored at fullPath and lightPath.
func (s *Service) MergeFiles(ctx context.Context, trigger, fullPath, lightPath string) (*Run, error) {
	fullFile, err := openExport(fullPath)
	if err != nil {
		return nil, fmt.Errorf("full export: %w", err)
	}
	defer fullFile.Close()

	lightFile, err := openExport(lightPath)
	if err != nil {
		return nil, fmt.Errorf("light export: %w", err)
	}
	defer lightFile.Close()

	return s.Merge(ctx, MergeInput{
		Trigger:   trigger,
		Full:      fullFile,
		Light:     lightFile,
		FullName:  fullPath,
		LightName: lightPath,
	})
}

func openExport(path string) (*os.File, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}

	info, err := f.Stat()
	if err != nil {
		f.Close()
		return nil, err
	}
	if info.Size() == 0 {
		f.Close()
		return nil, fmt.Errorf("%s: %w", path, ErrEmptyExport)
	}
	return f, nil
}

// execute runs both extraction passes and the join. It fills run's
// results and stats; run status is set by the caller.
func (s *Service) execute(ctx context.Context, run *Run, in MergeInput) error {
	if in.Full == nil || in.Light == nil {
		return errors.New("no file provided for one of the exports")
	}

	var (
		full  passResult[catalog.FullCatalog]
		light passResult[catalog.LightCatalog]
	)

	// The passes share nothing; each owns its extractor state.
	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		var err error
		full, err = parseExport(gctx, ExportFull, in.Full, catalog.ParseFull)
		return err
	})
	g.Go(func() error {
		var err error
		light, err = parseExport(gctx, ExportLight, in.Light, catalog.ParseLight)
		return err
	})
	if err := g.Wait(); err != nil {
		return err
	}

	for _, p := range []struct {
		export  string
		warning error
	}{{ExportFull, full.warning}, {ExportLight, light.warning}} {
		if p.warning == nil {
			continue
		}
		s.metrics.RecordWarning(p.export)
		run.Warnings = append(run.Warnings, RunWarning{
			Source:  p.export,
			Message: p.warning.Error(),
			Code:    MapError(p.warning).Code,
		})
		logging.FromContext(ctx).Warn("export truncated by malformed xml",
			"export", p.export, "error", p.warning)
	}

	s.metrics.RecordExport(ExportFull, len(full.catalog), full.bytesRead)
	s.metrics.RecordExport(ExportLight, len(light.catalog), light.bytesRead)

	run.Rows = catalog.Merge(full.catalog, light.catalog)
	run.Sizes = catalog.SizeRows(light.catalog)
	run.Categories = catalog.Categories(full.catalog)

	run.Stats.FullBytes = full.bytesRead
	run.Stats.LightBytes = light.bytesRead
	run.Stats.FullProducts = len(full.catalog)
	run.Stats.LightProducts = len(light.catalog)
	run.Stats.Rows = len(run.Rows)
	run.Stats.SizeRows = len(run.Sizes)
	run.Stats.Categories = len(run.Categories)
	for _, r := range run.Rows {
		run.Stats.TotalStock += r.TotalStock
	}

	return nil
}

type passResult[C any] struct {
	catalog   C
	bytesRead int64
	warning   error
}

// parseExport runs one extraction pass over r. ErrMalformedXML is turned
// into a warning next to the partial catalog; every other error is fatal.
func parseExport[C any](ctx context.Context, export string, r io.Reader, parse func(context.Context, io.Reader) (C, error)) (passResult[C], error) {
	var res passResult[C]

	src, err := OpenXMLSource(r)
	if err != nil {
		return res, fmt.Errorf("%s export: %w", export, err)
	}

	res.catalog, err = parse(ctx, src)
	res.bytesRead = src.BytesRead()

	switch {
	case err == nil:
	case errors.Is(err, catalog.ErrMalformedXML):
		res.warning = fmt.Errorf("%s export: %w", export, err)
	default:
		return res, fmt.Errorf("%s export: %w", export, err)
	}
	return res, nil
}

// saveToSinks hands a successful run to every sink. Failures become
// warnings on the run.
func (s *Service) saveToSinks(ctx context.Context, run *Run) {
	for _, sink := range s.sinks {
		if err := sink.SaveRun(ctx, run); err != nil {
			s.metrics.RecordSinkFailure(sink.Name())
			run.Warnings = append(run.Warnings, RunWarning{
				Source:  sink.Name(),
				Message: err.Error(),
				Code:    MapError(err).Code,
			})
			logging.WithFields(ctx, "sink", sink.Name()).Error("sink failed", "error", err)
		}
	}
}
