package config

import (
	"fmt"
	"os"
	"time"

	"github.com/spf13/viper"

	"github.com/Veraticus/qualify/internal/backend"
	"github.com/Veraticus/qualify/internal/common"
	"github.com/Veraticus/qualify/internal/export"
)

// Config holds every setting of the qualify commands.
type Config struct {
	BackendURL        string
	BackendModel      string
	ExportDir         string
	ExportFormat      export.Format
	JournalPath       string
	ServerAddr        string
	WatchDir          string
	Theme             string
	LogLevel          string
	LogFormat         string
	BackendTimeout    time.Duration
	PDFTimeout        time.Duration
	WatchSettle       time.Duration
	ReadHeaderTimeout time.Duration
}

// SetDefaults registers default values on v.
func SetDefaults(v *viper.Viper) {
	v.SetDefault("backend.model", backend.DefaultModel)
	v.SetDefault("backend.timeout", time.Duration(0))
	v.SetDefault("export.dir", ".")
	v.SetDefault("export.format", string(export.FormatDOC))
	v.SetDefault("export.pdf_timeout", 60*time.Second)
	v.SetDefault("journal.path", ":memory:")
	v.SetDefault("server.addr", "127.0.0.1:8080")
	v.SetDefault("server.read_header_timeout", 10*time.Second)
	v.SetDefault("watch.settle", 2*time.Second)
	v.SetDefault("tui.theme", "default")
	v.SetDefault("logging.level", "info")
	v.SetDefault("logging.format", "console")
}

// Load reads settings from v. The service URL falls back to the
// QUALIFICACAO_API_URL environment variable.
func Load(v *viper.Viper) (*Config, error) {
	cfg := &Config{
		BackendURL:        v.GetString("backend.url"),
		BackendModel:      v.GetString("backend.model"),
		BackendTimeout:    v.GetDuration("backend.timeout"),
		ExportDir:         ExpandPath(v.GetString("export.dir")),
		PDFTimeout:        v.GetDuration("export.pdf_timeout"),
		JournalPath:       v.GetString("journal.path"),
		ServerAddr:        v.GetString("server.addr"),
		ReadHeaderTimeout: v.GetDuration("server.read_header_timeout"),
		WatchDir:          ExpandPath(v.GetString("watch.dir")),
		WatchSettle:       v.GetDuration("watch.settle"),
		Theme:             v.GetString("tui.theme"),
		LogLevel:          v.GetString("logging.level"),
		LogFormat:         v.GetString("logging.format"),
	}

	if cfg.BackendURL == "" {
		cfg.BackendURL = os.Getenv("QUALIFICACAO_API_URL")
	}
	if cfg.JournalPath != ":memory:" {
		cfg.JournalPath = ExpandPath(cfg.JournalPath)
	}

	format, err := export.ParseFormat(v.GetString("export.format"))
	if err != nil {
		return nil, fmt.Errorf("%w: export.format: %w", common.ErrInvalidConfig, err)
	}
	cfg.ExportFormat = format

	if cfg.BackendTimeout < 0 {
		return nil, fmt.Errorf("%w: backend.timeout must not be negative", common.ErrInvalidConfig)
	}
	if cfg.WatchSettle <= 0 {
		return nil, fmt.Errorf("%w: watch.settle must be positive", common.ErrInvalidConfig)
	}
	return cfg, nil
}

// Backend returns the service client settings.
func (c *Config) Backend() backend.Config {
	return backend.Config{
		BaseURL: c.BackendURL,
		Model:   c.BackendModel,
		Timeout: c.BackendTimeout,
	}
}
