package reconcile

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Veraticus/qualify/internal/common"
	"github.com/Veraticus/qualify/internal/model"
)

func TestDecode_Errors(t *testing.T) {
	tests := []struct {
		name    string
		body    string
		wantErr error
		message string
	}{
		{name: "not json", body: `<html>`, wantErr: common.ErrMalformedResponse},
		{name: "missing campos", body: `{"success": true}`, wantErr: common.ErrMalformedResponse},
		{name: "campos not an object", body: `{"success": true, "campos": []}`, wantErr: common.ErrMalformedResponse},
		{name: "bad document list", body: `{"campos": {"documents_analyzed": {}}}`, wantErr: common.ErrMalformedResponse},
		{
			name:    "rejected by service",
			body:    `{"success": false, "error": "arquivo inválido"}`,
			wantErr: common.ErrBackendRejected,
			message: "arquivo inválido",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := Decode([]byte(tt.body))
			require.Error(t, err)
			assert.ErrorIs(t, err, tt.wantErr)
			if tt.message != "" {
				assert.Contains(t, err.Error(), tt.message)
			}
		})
	}
}

func TestDecode_Discriminates(t *testing.T) {
	tests := []struct {
		name     string
		body     string
		expected model.ResultKind
	}{
		{name: "checklist analysis", body: `{"campos": {"checklist_analysis": {}}}`, expected: model.ResultAdvanced},
		{name: "documents analyzed", body: `{"campos": {"documents_analyzed": []}}`, expected: model.ResultAdvanced},
		{name: "advanced flag", body: `{"analise_avancada": true, "campos": {}}`, expected: model.ResultAdvanced},
		{name: "flat keys", body: `{"success": true, "campos": {"item1": "Sim"}}`, expected: model.ResultLegacy},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			p, err := Decode([]byte(tt.body))
			require.NoError(t, err)
			assert.Equal(t, tt.expected, p.Kind())
		})
	}
}

func TestDecode_AdvancedPayload(t *testing.T) {
	body := `{
		"success": true,
		"campos": {
			"documents_analyzed": [
				{"filename": "m.pdf", "document_type": "matricula", "text_length": 1200,
				 "document_data": {"numero_matricula": "12.345", "proprietarios": ["Ana", "Rui"], "area": 250.5, "vazio": null}},
				{"filename": "x.pdf", "document_type": "contrato", "error": "OCR falhou"},
				{"filename": "y.pdf", "document_type": "itbi", "error": false}
			],
			"checklist_analysis": {
				"item1": {"resposta": "SIM", "justificativa": "Doc 1"},
				"item2": "NÃO"
			},
			"resumo": {
				"status": "exigencia",
				"fundamentacao_legal": "Art. 167 da Lei 6.015/73",
				"problemas_encontrados": ["a", "", "b"]
			}
		}
	}`

	p, err := Decode([]byte(body))
	require.NoError(t, err)
	adv, ok := p.(*AdvancedPayload)
	require.True(t, ok)

	require.Len(t, adv.Documents, 3)
	assert.Equal(t, 1200, adv.Documents[0].TextLength)
	assert.Equal(t, "12.345", adv.Documents[0].Fields["numero_matricula"])
	assert.Equal(t, `["Ana","Rui"]`, adv.Documents[0].Fields["proprietarios"])
	assert.Equal(t, "250.5", adv.Documents[0].Fields["area"])
	assert.NotContains(t, adv.Documents[0].Fields, "vazio")
	assert.Equal(t, "OCR falhou", adv.Documents[1].Error)
	assert.Empty(t, adv.Documents[2].Error)

	assert.Equal(t, ChecklistEntry{Answer: "SIM", Justification: "Doc 1"}, adv.Checklist["item1"])
	assert.Equal(t, "NÃO", adv.Checklist["item2"].Answer)

	assert.Equal(t, "exigencia", adv.Narrative.Status)
	assert.Equal(t, []string{"Art. 167 da Lei 6.015/73"}, adv.Narrative.LegalGrounds)
	assert.Equal(t, []string{"a", "b"}, adv.Narrative.IssuesFound)
	assert.Nil(t, adv.Narrative.Recommendations)
}

func TestDecode_LegacyPayload(t *testing.T) {
	body := `{
		"success": true,
		"documentos_analisados": [{"filename": "a.pdf", "document_type": "ITBI"}],
		"campos": {
			"item1": "Não",
			"justificativa_item1": "texto",
			"justificativa_item2": "só justificativa",
			"itemx": "Sim",
			"status_qualificacao": "APROVADO",
			"recomendacoes": "Apresentar certidão"
		}
	}`

	p, err := Decode([]byte(body))
	require.NoError(t, err)
	legacy, ok := p.(*LegacyPayload)
	require.True(t, ok)

	assert.Equal(t, map[string]string{"item1": "Não"}, legacy.Answers)
	assert.Equal(t, map[string]string{"item1": "texto", "item2": "só justificativa"}, legacy.Justifications)
	require.Len(t, legacy.Documents, 1)
	assert.Equal(t, "a.pdf", legacy.Documents[0].Filename)
	assert.Equal(t, "APROVADO", legacy.Narrative.Status)
	assert.Equal(t, []string{"Apresentar certidão"}, legacy.Narrative.Recommendations)
}
