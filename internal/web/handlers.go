package web

import (
	"errors"
	"fmt"
	"io/fs"
	"mime/multipart"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"

	"github.com/JonMunkholm/catalogmerge/internal/catalog"
	"github.com/JonMunkholm/catalogmerge/internal/core"
	"github.com/JonMunkholm/catalogmerge/internal/logging"
	"github.com/JonMunkholm/catalogmerge/internal/web/views"
)

// multipartMemory is the part of an upload kept in memory; the rest spills
// to temporary files.
const multipartMemory = 32 << 20

// summaryHistory is the number of runs listed on the summary page.
const summaryHistory = 10

var (
	errNoFile          = errors.New("no file provided")
	errRunFailed       = errors.New("run has no output")
	errArchiveDisabled = errors.New("run archive is not configured")
)

// handleSummary renders the HTML summary of the latest run.
func (s *Server) handleSummary(w http.ResponseWriter, r *http.Request) {
	history := s.service.Runs()
	if len(history) > summaryHistory {
		history = history[:summaryHistory]
	}

	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	err := views.Summary(views.SummaryData{
		Latest:  s.service.Latest(),
		History: history,
		Limiter: s.service.LimiterStatus(),
	}).Render(r.Context(), w)
	if err != nil {
		logging.FromContext(r.Context()).Error("render summary", "error", err)
	}
}

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]any{
		"status": "ok",
		"runs":   len(s.service.Runs()),
	})
}

// handleMergeUpload merges the multipart "full" and "light" exports.
func (s *Server) handleMergeUpload(w http.ResponseWriter, r *http.Request) {
	maxSize := s.cfg.Merge.MaxFileSize
	// Both exports plus multipart framing.
	r.Body = http.MaxBytesReader(w, r.Body, 2*maxSize+1<<20)

	if err := r.ParseMultipartForm(multipartMemory); err != nil {
		var maxBytes *http.MaxBytesError
		if errors.As(err, &maxBytes) {
			s.respondError(w, r, err, http.StatusRequestEntityTooLarge)
			return
		}
		s.respondError(w, r, fmt.Errorf("%w: %v", errNoFile, err), http.StatusBadRequest)
		return
	}
	defer r.MultipartForm.RemoveAll()

	full, fullName, err := formExport(r, "full", maxSize)
	if err != nil {
		s.respondError(w, r, err, uploadStatus(err))
		return
	}
	defer full.Close()

	light, lightName, err := formExport(r, "light", maxSize)
	if err != nil {
		s.respondError(w, r, err, uploadStatus(err))
		return
	}
	defer light.Close()

	r = withClientInfo(r)
	run, err := s.service.Merge(r.Context(), core.MergeInput{
		Trigger:   core.TriggerUpload,
		Full:      full,
		Light:     light,
		FullName:  fullName,
		LightName: lightName,
	})
	s.respondRun(w, r, run, err)
}

// formExport opens the uploaded file of field, rejecting missing, empty
// and oversized parts.
func formExport(r *http.Request, field string, maxSize int64) (multipart.File, string, error) {
	file, header, err := r.FormFile(field)
	if err != nil {
		return nil, "", fmt.Errorf("%w for %q", errNoFile, field)
	}
	switch {
	case header.Size == 0:
		file.Close()
		return nil, "", fmt.Errorf("%s export %q: %w", field, header.Filename, core.ErrEmptyExport)
	case header.Size > maxSize:
		file.Close()
		return nil, "", fmt.Errorf("%s export %q: file too large (%d bytes, limit %d)", field, header.Filename, header.Size, maxSize)
	}
	return file, header.Filename, nil
}

func uploadStatus(err error) int {
	if errors.Is(err, errNoFile) || errors.Is(err, core.ErrEmptyExport) {
		return http.StatusBadRequest
	}
	return http.StatusRequestEntityTooLarge
}

// handleMergeFiles merges the exports at the configured paths.
func (s *Server) handleMergeFiles(w http.ResponseWriter, r *http.Request) {
	r = withClientInfo(r)
	run, err := s.service.MergeFiles(r.Context(), core.TriggerFiles, s.cfg.Catalog.FullPath, s.cfg.Catalog.LightPath)
	s.respondRun(w, r, run, err)
}

// respondRun writes the result of a merge. Failed runs still report their id.
func (s *Server) respondRun(w http.ResponseWriter, r *http.Request, run *core.Run, err error) {
	if err != nil {
		status := statusForError(err)
		if errors.Is(err, fs.ErrNotExist) || errors.Is(err, fs.ErrPermission) {
			status = http.StatusInternalServerError
		}
		runID := ""
		if run != nil {
			runID = run.ID
		}
		s.respondRunError(w, r, err, status, runID)
		return
	}
	writeJSON(w, http.StatusOK, run)
}

func (s *Server) handleListRuns(w http.ResponseWriter, r *http.Request) {
	runs := s.service.Runs()
	if limit := parseIntParam(r, "limit", len(runs)); limit < len(runs) {
		runs = runs[:limit]
	}
	writeJSON(w, http.StatusOK, map[string]any{"runs": runs})
}

func (s *Server) handleGetRun(w http.ResponseWriter, r *http.Request) {
	run, ok := s.lookupRun(w, r)
	if !ok {
		return
	}
	writeJSON(w, http.StatusOK, run)
}

// handleDownloadCSV streams the merged products CSV of a run.
func (s *Server) handleDownloadCSV(w http.ResponseWriter, r *http.Request) {
	run, ok := s.lookupSucceededRun(w, r)
	if !ok {
		return
	}
	setAttachment(w, "products_with_stock", run.ID)
	if err := catalog.WriteCSV(w, run.Rows); err != nil {
		logging.FromContext(r.Context()).Error("write csv", "run_id", run.ID, "error", err)
	}
}

// handleDownloadSizes streams the per-size stock CSV of a run.
func (s *Server) handleDownloadSizes(w http.ResponseWriter, r *http.Request) {
	run, ok := s.lookupSucceededRun(w, r)
	if !ok {
		return
	}
	setAttachment(w, "product_sizes", run.ID)
	if err := catalog.WriteSizesCSV(w, run.Sizes); err != nil {
		logging.FromContext(r.Context()).Error("write sizes csv", "run_id", run.ID, "error", err)
	}
}

func (s *Server) handleCategories(w http.ResponseWriter, r *http.Request) {
	run, ok := s.lookupSucceededRun(w, r)
	if !ok {
		return
	}
	categories := run.Categories
	if categories == nil {
		categories = []catalog.CategoryCount{}
	}
	writeJSON(w, http.StatusOK, map[string]any{"run_id": run.ID, "categories": categories})
}

// handleArchive lists runs persisted in Postgres.
func (s *Server) handleArchive(w http.ResponseWriter, r *http.Request) {
	if s.archive == nil {
		s.respondError(w, r, errArchiveDisabled, http.StatusNotFound)
		return
	}

	runs, err := s.archive.RecentRuns(r.Context(), min(parseIntParam(r, "limit", 50), 500))
	if err != nil {
		s.respondError(w, r, err, http.StatusInternalServerError)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"runs": runs})
}

func (s *Server) handleLimiterStatus(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, s.service.LimiterStatus())
}

func (s *Server) lookupRun(w http.ResponseWriter, r *http.Request) (*core.Run, bool) {
	run, err := s.service.Run(chi.URLParam(r, "runID"))
	if err != nil {
		s.respondError(w, r, err, statusForError(err))
		return nil, false
	}
	return run, true
}

func (s *Server) lookupSucceededRun(w http.ResponseWriter, r *http.Request) (*core.Run, bool) {
	run, ok := s.lookupRun(w, r)
	if !ok {
		return nil, false
	}
	if !run.Succeeded() {
		s.respondRunError(w, r, errRunFailed, http.StatusConflict, run.ID)
		return nil, false
	}
	return run, true
}

func setAttachment(w http.ResponseWriter, base, runID string) {
	if len(runID) > 8 {
		runID = runID[:8]
	}
	w.Header().Set("Content-Type", "text/csv; charset=utf-8")
	w.Header().Set("Content-Disposition", fmt.Sprintf(`attachment; filename="%s-%s.csv"`, base, runID))
}

// parseIntParam parses a positive integer query parameter with a default value.
func parseIntParam(r *http.Request, name string, defaultVal int) int {
	val := r.URL.Query().Get(name)
	if val == "" {
		return defaultVal
	}
	i, err := strconv.Atoi(val)
	if err != nil || i < 1 {
		return defaultVal
	}
	return i
}
