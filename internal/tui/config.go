package tui

import (
	"time"

	"github.com/Veraticus/qualify/internal/backend"
	"github.com/Veraticus/qualify/internal/export"
	"github.com/Veraticus/qualify/internal/qualification"
	"github.com/Veraticus/qualify/internal/tui/themes"
)

// Config holds TUI configuration.
type Config struct {
	Theme   themes.Theme
	Session *qualification.Session
	// OutputDir receives exported files.
	OutputDir string
	// ReportFormat is used by the report export key.
	ReportFormat export.Format
	// Files are sent when the submit key is pressed.
	Files   []backend.Upload
	Timeout time.Duration
	Width   int
	Height  int
	// SubmitOnStart sends Files as soon as the screen opens.
	SubmitOnStart bool
}

// Option is a functional option for configuring the TUI.
type Option func(*Config)

// defaultConfig returns the default configuration.
func defaultConfig() Config {
	return Config{
		Theme:        themes.Default,
		OutputDir:    ".",
		ReportFormat: export.FormatDOC,
		Timeout:      5 * time.Minute,
		Width:        100,
		Height:       30,
	}
}

// WithTheme sets the visual theme.
func WithTheme(theme themes.Theme) Option {
	return func(c *Config) {
		c.Theme = theme
	}
}

// WithOutputDir sets where exports are written.
func WithOutputDir(dir string) Option {
	return func(c *Config) {
		c.OutputDir = dir
	}
}

// WithReportFormat sets the report export format.
func WithReportFormat(f export.Format) Option {
	return func(c *Config) {
		c.ReportFormat = f
	}
}

// WithFiles sets the batch and whether to submit it immediately.
func WithFiles(files []backend.Upload, submit bool) Option {
	return func(c *Config) {
		c.Files = files
		c.SubmitOnStart = submit
	}
}

// WithTimeout bounds submissions and exports.
func WithTimeout(d time.Duration) Option {
	return func(c *Config) {
		c.Timeout = d
	}
}

// WithSize sets the initial terminal size.
func WithSize(width, height int) Option {
	return func(c *Config) {
		c.Width = width
		c.Height = height
	}
}
