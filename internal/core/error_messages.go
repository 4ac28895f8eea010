package core

// error_messages.go maps technical errors to user-friendly messages with
// codes for support reference. Users quote the code; support looks it up
// here.
//
// # XML Errors (XML001-XML099)
//
//	XML001 - Malformed XML: the export stopped being parseable part way
//	         Action: Products before the error were kept; re-export the file
//	         Patterns: "malformed xml"
//
//	XML002 - Unsupported charset: the declared encoding is unknown
//	         Action: Export the catalog as UTF-8 or ISO-8859-2
//	         Patterns: "unsupported charset"
//
// # File Errors (FILE001-FILE099)
//
//	FILE001 - File too large: upload exceeds MERGE_MAX_FILE_SIZE
//	          Patterns: "file too large", "request body too large"
//
//	FILE002 - File not found: a configured export path does not exist
//	          Patterns: "no such file or directory", "file does not exist"
//
//	FILE003 - Permission denied: an export or output path is not accessible
//	          Patterns: "permission denied"
//
//	FILE004 - No file: a multipart field was missing
//	          Patterns: "no file provided"
//
//	FILE005 - Empty file: an uploaded export has no content
//	          Patterns: "empty file"
//
// # Run Errors (RUN001-RUN099)
//
//	RUN001 - Run not found: the id is unknown or fell out of history
//	RUN002 - System busy: every merge slot is taken
//	RUN003 - Request cancelled
//	RUN004 - Merge timed out (MERGE_TIMEOUT)
//	RUN005 - Run has no output: the run failed, so there is nothing to download
//	RUN006 - Archive disabled: no DATABASE_URL is configured
//
// # Database Errors (DB001-DB099)
//
// Only reachable through the run stores (Postgres log, SQLite snapshot).
//
//	DB001 - Connection refused   ("connection refused")
//	DB002 - Connection reset     ("connection reset")
//	DB003 - Timeout              ("timeout")
//	DB004 - Deadlock             ("deadlock")
//	DB005 - Snapshot not written ("disk i/o error", "readonly database", "no space left on device")
//
// # Default Error (ERR000)
//
// Fallback when no pattern matches; check the application logs for the
// technical error.
//
// Patterns are matched case-insensitively with strings.Contains and the
// first match wins, so specific patterns come before general ones.

import (
	"fmt"
	"strings"
)

// UserMessage provides user-friendly error information with actionable guidance.
type UserMessage struct {
	Message string `json:"message"` // What happened (user-friendly)
	Action  string `json:"action"`  // What to do about it
	Code    string `json:"code"`    // Error code for support reference
}

type errorPattern struct {
	pattern string
	msg     UserMessage
}

var errorPatterns = []errorPattern{
	// =========================================================================
	// XML Errors (XML001-XML002)
	// =========================================================================
	{
		pattern: "malformed xml",
		msg: UserMessage{
			Message: "The export could not be read to the end",
			Action:  "Products before the error were kept; re-export the file to get the rest",
			Code:    "XML001",
		},
	},
	{
		pattern: "unsupported charset",
		msg: UserMessage{
			Message: "The export uses an unsupported character encoding",
			Action:  "Export the catalog as UTF-8",
			Code:    "XML002",
		},
	},

	// =========================================================================
	// File Errors (FILE001-FILE005)
	// =========================================================================
	{
		pattern: "file too large",
		msg: UserMessage{
			Message: "File exceeds the maximum upload size",
			Action:  "Upload a smaller export or raise MERGE_MAX_FILE_SIZE",
			Code:    "FILE001",
		},
	},
	{
		pattern: "request body too large",
		msg: UserMessage{
			Message: "File exceeds the maximum upload size",
			Action:  "Upload a smaller export or raise MERGE_MAX_FILE_SIZE",
			Code:    "FILE001",
		},
	},
	{
		pattern: "no such file or directory",
		msg: UserMessage{
			Message: "Export file not found",
			Action:  "Check CATALOG_FULL_PATH and CATALOG_LIGHT_PATH",
			Code:    "FILE002",
		},
	},
	{
		pattern: "file does not exist",
		msg: UserMessage{
			Message: "Export file not found",
			Action:  "Check CATALOG_FULL_PATH and CATALOG_LIGHT_PATH",
			Code:    "FILE002",
		},
	},
	{
		pattern: "permission denied",
		msg: UserMessage{
			Message: "Export or output file is not accessible",
			Action:  "Check file permissions for the configured paths",
			Code:    "FILE003",
		},
	},
	{
		pattern: "no file provided",
		msg: UserMessage{
			Message: "An export file is missing",
			Action:  "Attach both the full and the light export",
			Code:    "FILE004",
		},
	},
	{
		pattern: "empty file",
		msg: UserMessage{
			Message: "The uploaded export is empty",
			Action:  "Please upload a non-empty XML export",
			Code:    "FILE005",
		},
	},

	// =========================================================================
	// Run Errors (RUN001-RUN006)
	// =========================================================================
	{
		pattern: "run not found",
		msg: UserMessage{
			Message: "Merge run not found",
			Action:  "The run may have left the history. Start a new merge",
			Code:    "RUN001",
		},
	},
	{
		pattern: "too many concurrent merge runs",
		msg: UserMessage{
			Message: "System is busy processing other merges",
			Action:  "Please wait a moment and try again",
			Code:    "RUN002",
		},
	},
	{
		pattern: "context canceled",
		msg: UserMessage{
			Message: "Request was cancelled",
			Action:  "Please try again",
			Code:    "RUN003",
		},
	},
	{
		pattern: "context deadline exceeded",
		msg: UserMessage{
			Message: "Merge timed out",
			Action:  "Try smaller exports or raise MERGE_TIMEOUT",
			Code:    "RUN004",
		},
	},
	{
		pattern: "run has no output",
		msg: UserMessage{
			Message: "This merge run failed and produced no output",
			Action:  "Check the run error and start a new merge",
			Code:    "RUN005",
		},
	},
	{
		pattern: "run archive is not configured",
		msg: UserMessage{
			Message: "Run archive is not available",
			Action:  "Set DATABASE_URL to keep runs beyond the in-memory history",
			Code:    "RUN006",
		},
	},

	// =========================================================================
	// Database Errors (DB001-DB005)
	// =========================================================================
	{
		pattern: "connection refused",
		msg: UserMessage{
			Message: "Unable to connect to database",
			Action:  "Please try again in a few moments",
			Code:    "DB001",
		},
	},
	{
		pattern: "connection reset",
		msg: UserMessage{
			Message: "Database connection was interrupted",
			Action:  "Please try again",
			Code:    "DB002",
		},
	},
	{
		pattern: "timeout",
		msg: UserMessage{
			Message: "Operation timed out",
			Action:  "Please try again later",
			Code:    "DB003",
		},
	},
	{
		pattern: "deadlock",
		msg: UserMessage{
			Message: "Database was busy with conflicting operations",
			Action:  "Please try again",
			Code:    "DB004",
		},
	},
	{
		pattern: "disk i/o error",
		msg: UserMessage{
			Message: "The SQLite snapshot could not be written",
			Action:  "Check the disk holding CATALOG_SQLITE_PATH",
			Code:    "DB005",
		},
	},
	{
		pattern: "readonly database",
		msg: UserMessage{
			Message: "The SQLite snapshot could not be written",
			Action:  "Check the disk holding CATALOG_SQLITE_PATH",
			Code:    "DB005",
		},
	},
	{
		pattern: "no space left on device",
		msg: UserMessage{
			Message: "The SQLite snapshot could not be written",
			Action:  "Free disk space or move CATALOG_SQLITE_PATH",
			Code:    "DB005",
		},
	},
}

// defaultMessage is returned when no pattern matches (ERR000).
var defaultMessage = UserMessage{
	Message: "An unexpected error occurred",
	Action:  "Please try again or contact support",
	Code:    "ERR000",
}

// MapError converts a technical error to a user-friendly message.
// If no pattern matches, a generic fallback with code ERR000 is returned.
//
//	msg := MapError(fmt.Errorf("parse full: %w", catalog.ErrMalformedXML))
//	// msg.Code == "XML001"
func MapError(err error) UserMessage {
	if err == nil {
		return UserMessage{}
	}

	errStr := strings.ToLower(err.Error())

	for _, ep := range errorPatterns {
		if strings.Contains(errStr, ep.pattern) {
			return ep.msg
		}
	}

	return defaultMessage
}

// FormatUserError creates a formatted error string for display.
// The format is: "Message (Code: XXX). Action"
func FormatUserError(err error) string {
	msg := MapError(err)
	if msg.Message == "" {
		return ""
	}
	return fmt.Sprintf("%s (Code: %s). %s", msg.Message, msg.Code, msg.Action)
}

// IsUserFacing reports whether err matches a known pattern rather than the
// ERR000 fallback.
func IsUserFacing(err error) bool {
	if err == nil {
		return false
	}
	return MapError(err).Code != defaultMessage.Code
}

// UserError pairs a technical error (for logs) with its user message.
type UserError struct {
	Technical error       // Original technical error for logging
	User      UserMessage // User-friendly message for display
}

func (e *UserError) Error() string {
	return e.User.Message
}

func (e *UserError) Unwrap() error {
	return e.Technical
}

// NewUserError maps err to a UserError. Returns nil if err is nil.
func NewUserError(err error) *UserError {
	if err == nil {
		return nil
	}
	return &UserError{
		Technical: err,
		User:      MapError(err),
	}
}
