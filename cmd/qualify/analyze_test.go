package main

import (
	"bytes"
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/spf13/viper"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Veraticus/qualify/internal/common"
	"github.com/Veraticus/qualify/internal/config"
)

const savedResponse = `{"success": true, "campos": {
	"documents_analyzed": [
		{"filename": "contrato.pdf", "document_type": "contrato", "document_data": {"valor": "5000"}}
	],
	"checklist_analysis": {"item6": {"resposta": "NÃO", "justificativa": "Comprador sem CPF no Doc 1"}}
}}`

func setupViper(t *testing.T) {
	t.Helper()
	viper.Reset()
	t.Cleanup(viper.Reset)
	t.Setenv("QUALIFICACAO_API_URL", "")
	config.SetDefaults(viper.GetViper())
}

func TestAnalyze_Replay(t *testing.T) {
	setupViper(t)
	dir := t.TempDir()
	replay := filepath.Join(dir, "resposta.json")
	require.NoError(t, os.WriteFile(replay, []byte(savedResponse), 0o600))
	outDir := filepath.Join(dir, "saida")

	cmd := analyzeCmd()
	var out bytes.Buffer
	cmd.SetOut(&out)
	cmd.SetErr(&out)
	cmd.SetArgs([]string{"--replay", replay, "--export", "html", "--note", "-o", outDir})

	require.NoError(t, cmd.ExecuteContext(context.Background()))
	assert.Contains(t, out.String(), "Com exigências")
	assert.Contains(t, out.String(), "contrato.pdf")

	reports, err := filepath.Glob(filepath.Join(outDir, "qualificacao_*.html"))
	require.NoError(t, err)
	assert.Len(t, reports, 1)

	notes, err := filepath.Glob(filepath.Join(outDir, "nota_devolutiva_*.txt"))
	require.NoError(t, err)
	assert.Len(t, notes, 1)
}

func TestAnalyze_Errors(t *testing.T) {
	tests := []struct {
		name     string
		args     []string
		wantKind common.Kind
	}{
		{name: "no documents", args: nil, wantKind: common.KindValidation},
		{name: "missing file", args: []string{"/nonexistent/contrato.pdf"}, wantKind: common.KindValidation},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			setupViper(t)
			cmd := analyzeCmd()
			var out bytes.Buffer
			cmd.SetOut(&out)
			cmd.SetErr(&out)
			cmd.SetArgs(tt.args)

			err := cmd.ExecuteContext(context.Background())
			require.Error(t, err)
			assert.Equal(t, tt.wantKind, common.Classify(err))
		})
	}
}

func TestAnalyze_MalformedReplay(t *testing.T) {
	setupViper(t)
	replay := filepath.Join(t.TempDir(), "resposta.json")
	require.NoError(t, os.WriteFile(replay, []byte("<html>"), 0o600))

	cmd := analyzeCmd()
	cmd.SetOut(&bytes.Buffer{})
	cmd.SetErr(&bytes.Buffer{})
	cmd.SetArgs([]string{"--replay", replay})

	err := cmd.ExecuteContext(context.Background())
	require.Error(t, err)
	assert.Equal(t, common.KindMalformedResponse, common.Classify(err))
}
