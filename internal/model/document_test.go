package model

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestParseDocumentType(t *testing.T) {
	tests := []struct {
		input    string
		expected DocumentType
	}{
		{"Matrícula", DocMatricula},
		{"MATRICULA", DocMatricula},
		{"certidao de matricula", DocMatricula},
		{"escritura", DocContrato},
		{"compra_venda", DocContrato},
		{"Guia ITBI", DocITBI},
		{"certidao_negativa_debitos", DocCertidao},
		{"Certidão", DocCertidao},
		{"procuração", DocProcuracao},
		{"boleto", DocDesconhecido},
		{"", DocDesconhecido},
	}

	for _, tt := range tests {
		t.Run(tt.input, func(t *testing.T) {
			assert.Equal(t, tt.expected, ParseDocumentType(tt.input))
		})
	}
}

func TestValidDocumentType(t *testing.T) {
	got, ok := ValidDocumentType("itbi")
	assert.True(t, ok)
	assert.Equal(t, DocITBI, got)

	got, ok = ValidDocumentType("CERTIDAO")
	assert.True(t, ok)
	assert.Equal(t, DocCertidao, got)

	_, ok = ValidDocumentType("escritura")
	assert.False(t, ok, "aliases are not valid corrections")

	_, ok = ValidDocumentType("Recibo")
	assert.False(t, ok)
}

func TestDocumentRecord_Effective(t *testing.T) {
	doc := DocumentRecord{RawClassification: DocContrato}
	assert.Equal(t, DocContrato, doc.Effective())

	corrected := DocITBI
	doc.CorrectedClassification = &corrected
	assert.Equal(t, DocITBI, doc.Effective())
}

func TestDocumentRecord_Clone(t *testing.T) {
	corrected := DocITBI
	doc := DocumentRecord{
		CorrectedClassification: &corrected,
		ExtractedFields:         map[string]string{"valor": "100"},
	}

	clone := doc.Clone()
	*clone.CorrectedClassification = DocCertidao
	clone.ExtractedFields["valor"] = "200"

	assert.Equal(t, DocITBI, doc.Effective())
	assert.Equal(t, "100", doc.ExtractedFields["valor"])
}
