// Package core runs catalog merges and keeps their results.
//
// It sits between the transports (the CLI and the HTTP server) and the
// extraction logic in package catalog, and has no UI dependencies.
//
// # Runs
//
// [Service.Merge] takes the full and light export streams, extracts both
// concurrently, joins them and records a [Run] in a bounded in-memory
// history:
//
//	svc := core.NewService(core.ServiceConfig{
//	    Limiter:     core.NewRunLimiter(2, 30*time.Second),
//	    HistorySize: 20,
//	})
//	run, err := svc.MergeFiles(ctx, core.TriggerCLI, "full.xml", "light.xml")
//
// A run keeps the merged rows, the per-size stock rows and the category
// distribution for download. Successful runs are handed to every configured
// [Sink] (Postgres, SQLite); a failing sink only adds a warning.
//
// # Input Handling
//
// Export streams pass through [OpenXMLSource]: byte counting, BOM removal
// and, for UTF-8 documents, replacement of invalid byte sequences. A
// document that stops being well-formed keeps the products read so far and
// marks the run with an XML001 warning.
//
// # Error Handling
//
// Technical errors are mapped to user-friendly messages using [MapError].
// Each error category has a unique code for support reference:
//
//   - XML001-XML002: Export parsing (malformed document, unknown charset)
//   - FILE001-FILE005: File errors (size, missing, empty)
//   - RUN001-RUN006: Run errors (not found, busy, cancelled, timeout, no output, no archive)
//   - DB001-DB005: Run store errors
package core
