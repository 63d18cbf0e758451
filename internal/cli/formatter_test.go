package cli

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/Veraticus/qualify/internal/checklist"
	"github.com/Veraticus/qualify/internal/citation"
	"github.com/Veraticus/qualify/internal/model"
	"github.com/Veraticus/qualify/internal/qualification"
)

func appliedSnapshot() checklist.Snapshot {
	store := checklist.NewStore(checklist.Default())
	store.Apply(model.AnalysisResult{
		Kind: model.ResultAdvanced,
		Items: map[string]model.ChecklistItem{
			"item1": {ID: "item1", Answer: model.AnswerYes, Source: model.SourceAI,
				Justification: citation.Justification{Text: "Matrícula conferida"}},
			"item6": {ID: "item6", Answer: model.AnswerNo, Source: model.SourceAI,
				Justification: citation.Justification{Text: "Comprador sem CPF"}},
		},
		Summary: model.Summary{IssuesFound: []string{"CPF ausente"}},
	})
	return store.Snapshot()
}

func TestFormatSummary(t *testing.T) {
	f := NewFormatter()

	t.Run("not applied", func(t *testing.T) {
		out := f.FormatSummary(checklist.NewStore(checklist.Default()).Snapshot())
		assert.Contains(t, out, "Nenhuma análise aplicada")
	})

	t.Run("applied", func(t *testing.T) {
		out := f.FormatSummary(appliedSnapshot())
		assert.Contains(t, out, "Com exigências")
		assert.Contains(t, out, "Problemas encontrados")
		assert.Contains(t, out, "CPF ausente")
		assert.NotContains(t, out, "Recomendações")
	})
}

func TestFormatChecklist(t *testing.T) {
	snap := appliedSnapshot()

	tests := []struct {
		name     string
		verbose  bool
		contains []string
		excludes []string
	}{
		{
			name:     "default hides confirmed justifications",
			contains: []string{"Comprador sem CPF", "item6"},
			excludes: []string{"Matrícula conferida"},
		},
		{
			name:     "verbose shows all justifications",
			verbose:  true,
			contains: []string{"Comprador sem CPF", "Matrícula conferida"},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			f := &Formatter{Verbose: tt.verbose}
			out := f.FormatChecklist(snap)
			for _, s := range tt.contains {
				assert.Contains(t, out, s)
			}
			for _, s := range tt.excludes {
				assert.NotContains(t, out, s)
			}
			for _, sec := range snap.Sections {
				assert.Contains(t, out, sec.Title)
			}
		})
	}
}

func TestFormatDocuments(t *testing.T) {
	f := NewFormatter()
	itbi := model.DocITBI
	docs := []model.DocumentRecord{
		{Index: 0, Filename: "contrato.pdf", RawClassification: model.DocContrato, CorrectedClassification: &itbi},
		{Index: 1, Filename: "scan.png", RawClassification: model.DocDesconhecido, Error: "OCR falhou"},
	}

	out := f.FormatDocuments(docs)
	assert.Contains(t, out, "contrato.pdf")
	assert.Contains(t, out, "ITBI*")
	assert.Contains(t, out, "era Contrato")
	assert.Contains(t, out, "OCR falhou")

	assert.Contains(t, f.FormatDocuments(nil), "Nenhum documento")
}

func TestFormatStatusAndAlerts(t *testing.T) {
	f := NewFormatter()

	out := f.FormatStatus(qualification.Status{
		SessionID:     "abc",
		Phase:         qualification.PhaseReady,
		Documents:     2,
		Corrections:   1,
		Dirty:         1,
		Editing:       true,
		LastError:     "Resposta inválida",
		LastErrorKind: "malformed_response",
	})
	assert.Contains(t, out, "abc")
	assert.Contains(t, out, "MODO EDIÇÃO")
	assert.Contains(t, out, "1 pendentes")
	assert.Contains(t, out, "malformed_response")

	alerts := f.FormatAlerts([]qualification.Alert{
		{Level: qualification.LevelError, Message: "falha"},
		{Level: qualification.LevelInfo, Message: "aviso"},
	})
	assert.Contains(t, alerts, ErrorIcon+" falha")
	assert.Contains(t, alerts, "aviso")
}
