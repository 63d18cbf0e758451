package reconcile

import (
	"fmt"

	"github.com/Veraticus/qualify/internal/citation"
	"github.com/Veraticus/qualify/internal/common"
	"github.com/Veraticus/qualify/internal/model"
)

// FieldRule links an extracted field to the checklist items it evidences.
type FieldRule struct {
	Field string
	Items []string
}

// EvidenceTable lists field rules per document classification.
type EvidenceTable map[model.DocumentType][]FieldRule

// DefaultEvidence is the field table for property-transfer documents.
var DefaultEvidence = EvidenceTable{
	model.DocMatricula: {
		{Field: "numero_matricula", Items: []string{"item1", "item2"}},
		{Field: "descricao_imovel", Items: []string{"item2"}},
		{Field: "onus", Items: []string{"item3"}},
		{Field: "inscricao_municipal", Items: []string{"item4"}},
		{Field: "proprietarios", Items: []string{"item5"}},
	},
	model.DocContrato: {
		{Field: "vendedores", Items: []string{"item5", "item6"}},
		{Field: "compradores", Items: []string{"item6"}},
		{Field: "partes", Items: []string{"item5", "item6"}},
		{Field: "estado_civil", Items: []string{"item6", "item7"}},
		{Field: "tipo_titulo", Items: []string{"item9"}},
		{Field: "valor", Items: []string{"item10"}},
		{Field: "forma_pagamento", Items: []string{"item11"}},
		{Field: "assinaturas", Items: []string{"item12"}},
	},
	model.DocITBI: {
		{Field: "guia_itbi", Items: []string{"item13"}},
		{Field: "valor_itbi", Items: []string{"item13"}},
		{Field: "data_pagamento", Items: []string{"item13"}},
		{Field: "base_calculo", Items: []string{"item14"}},
	},
	model.DocCertidao: {
		{Field: "debitos_municipais", Items: []string{"item15"}},
		{Field: "tipo_certidao", Items: []string{"item16", "item17"}},
		{Field: "resultado", Items: []string{"item16"}},
		{Field: "validade", Items: []string{"item17"}},
	},
	model.DocProcuracao: {
		{Field: "outorgante", Items: []string{"item18"}},
		{Field: "poderes", Items: []string{"item19"}},
		{Field: "validade", Items: []string{"item19"}},
		{Field: "substabelecimento", Items: []string{"item20"}},
	},
}

// Fusion is the outcome of evidence fusion.
type Fusion struct {
	Items    map[string]model.ChecklistItem
	Warnings []model.Warning
}

// Fuse attaches extracted field values as justification lines to the
// eligible items. It never answers an item. Documents the service failed to
// analyze are skipped with a warning. When eligible items remain and at
// least one document was analyzed but no item received evidence, a
// no_evidence warning is added.
func (t EvidenceTable) Fuse(docs []model.DocumentRecord, eligible map[string]bool) Fusion {
	builders := make(map[string]*citation.Builder)
	var warnings []model.Warning
	analyzed := false

	for _, doc := range docs {
		ref := citation.DocRef{Number: doc.Index + 1, Filename: doc.Filename}
		if doc.Failed() {
			warnings = append(warnings, model.Warning{
				Code:     model.WarningPartialDocument,
				Document: doc.Index,
				Message:  fmt.Sprintf("Documento %d (%s) não pôde ser analisado: %s", ref.Number, doc.Filename, doc.Error),
				Err:      fmt.Errorf("%w: %s: %s", common.ErrPartialDocument, doc.Filename, doc.Error),
			})
			continue
		}
		analyzed = true

		fields := foldFields(doc.ExtractedFields)
		for _, rule := range t[doc.Effective()] {
			for _, id := range rule.Items {
				if !eligible[id] {
					continue
				}
				value, ok := fields[common.Fold(rule.Field)]
				if !ok {
					continue
				}
				b, ok := builders[id]
				if !ok {
					b = &citation.Builder{}
					builders[id] = b
				}
				b.AddLine(fmt.Sprintf("Campo \"%s\": %s", rule.Field, value), ref)
			}
		}
	}

	items := make(map[string]model.ChecklistItem, len(builders))
	for id, b := range builders {
		items[id] = model.ChecklistItem{
			ID:            id,
			Answer:        model.AnswerUnknown,
			Justification: b.Justification(),
			Source:        model.SourceEvidence,
		}
	}

	if analyzed && len(eligible) > 0 && len(items) == 0 {
		warnings = append(warnings, model.Warning{
			Code:     model.WarningNoEvidence,
			Document: -1,
			Message:  "Nenhum campo extraído serviu de evidência para os itens pendentes",
		})
	}

	return Fusion{Items: items, Warnings: warnings}
}

func foldFields(fields map[string]string) map[string]string {
	out := make(map[string]string, len(fields))
	for k, v := range fields {
		if v == "" {
			continue
		}
		out[common.Fold(k)] = v
	}
	return out
}
