package core

import (
	"context"
	"io"
	"time"

	"github.com/JonMunkholm/catalogmerge/internal/catalog"
)

// RunStatus is the outcome of a merge run.
type RunStatus string

const (
	RunSucceeded RunStatus = "succeeded"
	RunFailed    RunStatus = "failed"
)

// Triggers record what started a run.
const (
	TriggerUpload   = "upload"
	TriggerFiles    = "files"
	TriggerSchedule = "schedule"
	TriggerCLI      = "cli"
)

// Export labels used in warnings, logs and metrics.
const (
	ExportFull  = "full"
	ExportLight = "light"
)

// MergeInput carries the two export streams of one run.
type MergeInput struct {
	Trigger string
	Full    io.Reader
	Light   io.Reader

	// FullName and LightName identify the sources (file path or upload name).
	FullName  string
	LightName string
}

// RunStats summarizes what a run read and produced.
type RunStats struct {
	FullBytes     int64 `json:"full_bytes"`
	LightBytes    int64 `json:"light_bytes"`
	FullProducts  int   `json:"full_products"`
	LightProducts int   `json:"light_products"`
	Rows          int   `json:"rows"`
	SizeRows      int   `json:"size_rows"`
	TotalStock    int64 `json:"total_stock"`
	Categories    int   `json:"categories"`
	DurationMS    int64 `json:"duration_ms"`
}

// RunWarning is a non-fatal problem recorded on a run.
type RunWarning struct {
	Source  string `json:"source"` // "full", "light" or a sink name
	Message string `json:"message"`
	Code    string `json:"code"`
}

// Run is one execution of the merge. A finished run is never mutated, so
// the pointers handed out by Service may be shared freely.
type Run struct {
	ID         string       `json:"id"`
	Trigger    string       `json:"trigger"`
	Status     RunStatus    `json:"status"`
	FullName   string       `json:"full_name,omitempty"`
	LightName  string       `json:"light_name,omitempty"`
	RemoteAddr string       `json:"remote_addr,omitempty"`
	UserAgent  string       `json:"user_agent,omitempty"`
	StartedAt  time.Time    `json:"started_at"`
	FinishedAt time.Time    `json:"finished_at"`
	Stats      RunStats     `json:"stats"`
	Warnings   []RunWarning `json:"warnings,omitempty"`
	Error      string       `json:"error,omitempty"`

	Rows       []catalog.OutputRow     `json:"-"`
	Sizes      []catalog.SizeRow       `json:"-"`
	Categories []catalog.CategoryCount `json:"-"`
}

// Succeeded reports whether the run produced output.
func (r *Run) Succeeded() bool {
	return r.Status == RunSucceeded
}

// Sink persists a successful run somewhere besides memory. A failing sink
// adds a warning to the run; it never fails it.
type Sink interface {
	Name() string
	SaveRun(ctx context.Context, run *Run) error
}
