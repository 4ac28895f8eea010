package core

import (
	"context"
	"errors"
	"fmt"
	"os"
	"testing"

	"github.com/JonMunkholm/catalogmerge/internal/catalog"
)

func TestMapError(t *testing.T) {
	tests := []struct {
		name        string
		err         error
		wantCode    string
		wantMessage string
	}{
		{
			name:        "nil error returns empty",
			err:         nil,
			wantCode:    "",
			wantMessage: "",
		},
		{
			name:        "malformed xml maps correctly",
			err:         fmt.Errorf("full export: %w: line 3: unexpected EOF", catalog.ErrMalformedXML),
			wantCode:    "XML001",
			wantMessage: "The export could not be read to the end",
		},
		{
			name:        "unsupported charset maps correctly",
			err:         errors.New(`xml: opening charset "klingon": unsupported charset "klingon"`),
			wantCode:    "XML002",
			wantMessage: "The export uses an unsupported character encoding",
		},
		{
			name:        "max bytes reader maps to file too large",
			err:         errors.New("http: request body too large"),
			wantCode:    "FILE001",
			wantMessage: "File exceeds the maximum upload size",
		},
		{
			name:        "missing export path maps correctly",
			err:         fmt.Errorf("open full export: %w", os.ErrNotExist),
			wantCode:    "FILE002",
			wantMessage: "Export file not found",
		},
		{
			name:        "path error text maps to file not found",
			err:         errors.New("open data/full.xml: no such file or directory"),
			wantCode:    "FILE002",
			wantMessage: "Export file not found",
		},
		{
			name:        "run not found maps correctly",
			err:         fmt.Errorf("%w: abc", ErrRunNotFound),
			wantCode:    "RUN001",
			wantMessage: "Merge run not found",
		},
		{
			name:        "limiter rejection maps correctly",
			err:         ErrTooManyRuns,
			wantCode:    "RUN002",
			wantMessage: "System is busy processing other merges",
		},
		{
			name:        "deadline maps to merge timeout",
			err:         fmt.Errorf("merge: %w", context.DeadlineExceeded),
			wantCode:    "RUN004",
			wantMessage: "Merge timed out",
		},
		{
			name:        "failed run download",
			err:         errors.New("run has no output"),
			wantCode:    "RUN005",
			wantMessage: "This merge run failed and produced no output",
		},
		{
			name:        "archive disabled",
			err:         errors.New("run archive is not configured"),
			wantCode:    "RUN006",
			wantMessage: "Run archive is not available",
		},
		{
			name:        "connection refused maps correctly",
			err:         errors.New("dial tcp: connection refused"),
			wantCode:    "DB001",
			wantMessage: "Unable to connect to database",
		},
		{
			name:        "unknown error returns default",
			err:         errors.New("some random internal error"),
			wantCode:    "ERR000",
			wantMessage: "An unexpected error occurred",
		},
		{
			name:        "case insensitive matching",
			err:         errors.New("DIAL TCP: CONNECTION REFUSED"),
			wantCode:    "DB001",
			wantMessage: "Unable to connect to database",
		},
		{
			name:        "sqlite snapshot failure",
			err:         errors.New("commit snapshot: disk I/O error (5898)"),
			wantCode:    "DB005",
			wantMessage: "The SQLite snapshot could not be written",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := MapError(tt.err)
			if got.Code != tt.wantCode {
				t.Errorf("MapError() code = %q, want %q", got.Code, tt.wantCode)
			}
			if got.Message != tt.wantMessage {
				t.Errorf("MapError() message = %q, want %q", got.Message, tt.wantMessage)
			}
		})
	}
}

func TestFormatUserError(t *testing.T) {
	result := FormatUserError(ErrTooManyRuns)

	expected := "System is busy processing other merges (Code: RUN002). Please wait a moment and try again"
	if result != expected {
		t.Errorf("FormatUserError() = %q, want %q", result, expected)
	}
}

func TestIsUserFacing(t *testing.T) {
	tests := []struct {
		name string
		err  error
		want bool
	}{
		{name: "nil error is not user facing", err: nil, want: false},
		{name: "known error is user facing", err: ErrEmptyExport, want: true},
		{name: "unknown error is not user facing", err: errors.New("random internal error xyz"), want: false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := IsUserFacing(tt.err); got != tt.want {
				t.Errorf("IsUserFacing() = %v, want %v", got, tt.want)
			}
		})
	}
}

func TestNewUserError(t *testing.T) {
	t.Run("nil error returns nil", func(t *testing.T) {
		if got := NewUserError(nil); got != nil {
			t.Errorf("NewUserError(nil) = %v, want nil", got)
		}
	})

	t.Run("wraps technical error with user message", func(t *testing.T) {
		techErr := fmt.Errorf("light export: %w", catalog.ErrMalformedXML)
		userErr := NewUserError(techErr)

		if userErr.Error() != "The export could not be read to the end" {
			t.Errorf("Error() = %q, want user message", userErr.Error())
		}
		if !errors.Is(userErr, catalog.ErrMalformedXML) {
			t.Error("Unwrap() should expose the original error chain")
		}
	})
}
