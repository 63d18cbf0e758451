package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/spf13/viper"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Veraticus/qualify/internal/common"
	"github.com/Veraticus/qualify/internal/export"
)

func TestExpandPath(t *testing.T) {
	home, err := os.UserHomeDir()
	require.NoError(t, err)
	t.Setenv("QUALIFY_TEST_DIR", "/srv/cartorio")

	tests := []struct {
		name string
		in   string
		want string
	}{
		{name: "empty", in: "", want: ""},
		{name: "tilde", in: "~", want: home},
		{name: "tilde prefix", in: "~/docs", want: filepath.Join(home, "docs")},
		{name: "env var", in: "$QUALIFY_TEST_DIR/inbox", want: "/srv/cartorio/inbox"},
		{name: "absolute", in: "/tmp/x", want: "/tmp/x"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, ExpandPath(tt.in))
		})
	}
}

func TestLoad_Defaults(t *testing.T) {
	t.Setenv("QUALIFICACAO_API_URL", "")
	v := viper.New()
	SetDefaults(v)

	cfg, err := Load(v)
	require.NoError(t, err)
	assert.Empty(t, cfg.BackendURL)
	assert.Equal(t, "qualificacao-registral", cfg.BackendModel)
	assert.Zero(t, cfg.BackendTimeout)
	assert.Equal(t, export.FormatDOC, cfg.ExportFormat)
	assert.Equal(t, ":memory:", cfg.JournalPath)
	assert.Equal(t, 2*time.Second, cfg.WatchSettle)
	assert.Equal(t, "info", cfg.LogLevel)
}

func TestLoad_Overrides(t *testing.T) {
	v := viper.New()
	SetDefaults(v)
	v.Set("backend.url", "https://qualifica.example.com")
	v.Set("backend.timeout", "90s")
	v.Set("export.format", "pdf")

	cfg, err := Load(v)
	require.NoError(t, err)
	assert.Equal(t, "https://qualifica.example.com", cfg.Backend().BaseURL)
	assert.Equal(t, 90*time.Second, cfg.Backend().Timeout)
	assert.Equal(t, export.FormatPDF, cfg.ExportFormat)
}

func TestLoad_EnvFallback(t *testing.T) {
	t.Setenv("QUALIFICACAO_API_URL", "http://localhost:5000")
	v := viper.New()
	SetDefaults(v)

	cfg, err := Load(v)
	require.NoError(t, err)
	assert.Equal(t, "http://localhost:5000", cfg.BackendURL)
}

func TestLoad_Invalid(t *testing.T) {
	tests := []struct {
		name  string
		key   string
		value any
	}{
		{name: "unknown export format", key: "export.format", value: "odt"},
		{name: "negative timeout", key: "backend.timeout", value: "-1s"},
		{name: "zero settle", key: "watch.settle", value: "0s"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			v := viper.New()
			SetDefaults(v)
			v.Set(tt.key, tt.value)

			_, err := Load(v)
			require.ErrorIs(t, err, common.ErrInvalidConfig)
		})
	}
}
