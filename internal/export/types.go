// Package export renders the qualification report and the regulatory note.
package export

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
)

// Format represents the report output format.
type Format string

const (
	// FormatDOC is Word-compatible HTML saved with a .doc extension.
	FormatDOC Format = "doc"
	// FormatHTML is the same report as plain HTML.
	FormatHTML Format = "html"
	// FormatPDF is the report printed by headless Chrome.
	FormatPDF Format = "pdf"
)

// ParseFormat validates a format name.
func ParseFormat(s string) (Format, error) {
	switch f := Format(strings.ToLower(strings.TrimSpace(s))); f {
	case FormatDOC, FormatHTML, FormatPDF:
		return f, nil
	case "":
		return FormatDOC, nil
	default:
		return "", fmt.Errorf("%w: %q", ErrUnsupportedFormat, s)
	}
}

// Result contains the export output.
type Result struct {
	Filename string
	MimeType string
	Data     []byte
}

// Save writes the result under dir and returns its path.
func (r *Result) Save(dir string) (string, error) {
	if err := os.MkdirAll(dir, 0o750); err != nil {
		return "", fmt.Errorf("failed to create output directory: %w", err)
	}
	path := filepath.Join(dir, r.Filename)
	if err := os.WriteFile(path, r.Data, 0o600); err != nil {
		return "", fmt.Errorf("failed to write %s: %w", r.Filename, err)
	}
	return path, nil
}

var (
	// ErrNoteNotRequired means the qualification was approved, so there is
	// nothing to return to the presenter.
	ErrNoteNotRequired = errors.New("regulatory note not required for an approved qualification")
	// ErrUnsupportedFormat indicates an unknown report format.
	ErrUnsupportedFormat = errors.New("unsupported export format")
	// ErrPDFDependencyMissing indicates Chrome is not available for PDF export.
	ErrPDFDependencyMissing = errors.New("export pdf dependency missing")
)
