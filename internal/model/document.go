package model

import (
	"strings"

	"github.com/Veraticus/qualify/internal/common"
)

// DocumentType is the classification assigned to an uploaded document.
type DocumentType string

const (
	// DocMatricula is a property registration record.
	DocMatricula DocumentType = "Matrícula"
	// DocContrato is a deed or purchase contract.
	DocContrato DocumentType = "Contrato"
	// DocITBI is a municipal transfer tax (ITBI) form.
	DocITBI DocumentType = "ITBI"
	// DocCertidao is a certificate (debts, lawsuits, etc).
	DocCertidao DocumentType = "Certidão"
	// DocProcuracao is a power of attorney.
	DocProcuracao DocumentType = "Procuração"
	// DocDesconhecido is used when no classification could be determined.
	DocDesconhecido DocumentType = "Desconhecido"
)

// DocumentTypes lists every classification in display order.
var DocumentTypes = []DocumentType{
	DocMatricula,
	DocContrato,
	DocITBI,
	DocCertidao,
	DocProcuracao,
	DocDesconhecido,
}

var documentAliases = map[string]DocumentType{
	"matricula":             DocMatricula,
	"matricula_imovel":      DocMatricula,
	"certidao_matricula":    DocMatricula,
	"certidao_de_matricula": DocMatricula,
	"contrato":              DocContrato,
	"compra_venda":          DocContrato,
	"contrato_compra_venda": DocContrato,
	"escritura":             DocContrato,
	"escritura_publica":     DocContrato,
	"minuta":                DocContrato,
	"itbi":                  DocITBI,
	"guia_itbi":             DocITBI,
	"comprovante_itbi":      DocITBI,
	"certidao":              DocCertidao,
	"procuracao":            DocProcuracao,
	"substabelecimento":     DocProcuracao,
	"desconhecido":          DocDesconhecido,
}

func aliasKey(s string) string {
	folded := common.Fold(s)
	return strings.NewReplacer(" ", "_", "-", "_", "/", "_").Replace(folded)
}

// ParseDocumentType maps a backend classification label onto the fixed set.
// Unrecognized labels become DocDesconhecido.
func ParseDocumentType(s string) DocumentType {
	key := aliasKey(s)
	if t, ok := documentAliases[key]; ok {
		return t
	}
	if strings.HasPrefix(key, "certidao_") {
		return DocCertidao
	}
	return DocDesconhecido
}

// ValidDocumentType reports whether s names one of the six classifications,
// ignoring case and accents. Aliases are not accepted.
func ValidDocumentType(s string) (DocumentType, bool) {
	key := common.Fold(s)
	for _, t := range DocumentTypes {
		if common.Fold(string(t)) == key {
			return t, true
		}
	}
	return "", false
}

// DocumentRecord is one uploaded file as classified by the service.
type DocumentRecord struct {
	CorrectedClassification *DocumentType     `json:"corrected_classification,omitempty"`
	ExtractedFields         map[string]string `json:"extracted_fields,omitempty"`
	Filename                string            `json:"filename"`
	RawClassification       DocumentType      `json:"raw_classification"`
	Error                   string            `json:"error,omitempty"`
	Index                   int               `json:"index"`
	TextLength              int               `json:"text_length"`
}

// Effective returns the corrected classification if one was recorded,
// otherwise the classification reported by the service.
func (d DocumentRecord) Effective() DocumentType {
	if d.CorrectedClassification != nil {
		return *d.CorrectedClassification
	}
	return d.RawClassification
}

// Failed reports whether the service could not analyze the document.
func (d DocumentRecord) Failed() bool {
	return d.Error != ""
}

// Clone returns a deep copy of the record.
func (d DocumentRecord) Clone() DocumentRecord {
	out := d
	if d.CorrectedClassification != nil {
		c := *d.CorrectedClassification
		out.CorrectedClassification = &c
	}
	if d.ExtractedFields != nil {
		out.ExtractedFields = make(map[string]string, len(d.ExtractedFields))
		for k, v := range d.ExtractedFields {
			out.ExtractedFields[k] = v
		}
	}
	return out
}

// CloneDocuments deep copies a document list.
func CloneDocuments(docs []DocumentRecord) []DocumentRecord {
	if docs == nil {
		return nil
	}
	out := make([]DocumentRecord, len(docs))
	for i, d := range docs {
		out[i] = d.Clone()
	}
	return out
}
