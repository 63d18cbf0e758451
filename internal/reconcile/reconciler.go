package reconcile

import (
	"log/slog"
	"strings"

	"golang.org/x/text/unicode/norm"

	"github.com/Veraticus/qualify/internal/checklist"
	"github.com/Veraticus/qualify/internal/citation"
	"github.com/Veraticus/qualify/internal/common"
	"github.com/Veraticus/qualify/internal/model"
)

// Reconciler normalizes decoded payloads into analysis results.
type Reconciler struct {
	reg      *checklist.Registry
	evidence EvidenceTable
}

// New creates a reconciler using the default evidence table.
func New(reg *checklist.Registry) *Reconciler {
	return &Reconciler{reg: reg, evidence: DefaultEvidence}
}

// WithEvidence replaces the evidence table.
func (r *Reconciler) WithEvidence(t EvidenceTable) *Reconciler {
	r.evidence = t
	return r
}

// Reconcile produces a result from a decoded payload.
func (r *Reconciler) Reconcile(p Payload) (model.AnalysisResult, error) {
	switch p := p.(type) {
	case *AdvancedPayload:
		return r.advanced(p)
	case *LegacyPayload:
		return r.legacy(p), nil
	default:
		return model.AnalysisResult{}, malformed("unsupported payload %T", p)
	}
}

// ReconcileBody decodes and reconciles a response body.
func (r *Reconciler) ReconcileBody(body []byte) (model.AnalysisResult, error) {
	p, err := Decode(body)
	if err != nil {
		return model.AnalysisResult{}, err
	}
	return r.Reconcile(p)
}

// Fuse runs evidence fusion over the given item ids.
func (r *Reconciler) Fuse(docs []model.DocumentRecord, eligible map[string]bool) Fusion {
	return r.evidence.Fuse(docs, eligible)
}

func (r *Reconciler) advanced(p *AdvancedPayload) (model.AnalysisResult, error) {
	if p.ChecklistError != "" {
		return model.AnalysisResult{}, &common.ChecklistAnalysisError{Message: p.ChecklistError}
	}
	for _, id := range sortedKeys(p.Checklist) {
		if msg := p.Checklist[id].Error; msg != "" {
			return model.AnalysisResult{}, &common.ChecklistAnalysisError{ItemID: id, Message: msg}
		}
	}

	docs := toRecords(p.Documents)
	refs := DocRefs(docs)
	items := make(map[string]model.ChecklistItem, len(p.Checklist))
	for _, id := range sortedKeys(p.Checklist) {
		if !r.reg.Has(id) {
			slog.Debug("Ignoring unknown checklist item", "item", id)
			continue
		}
		entry := p.Checklist[id]
		items[id] = model.ChecklistItem{
			ID:            id,
			Answer:        advancedAnswer(entry.Answer),
			Justification: citation.Annotate(entry.Justification, refs),
			Source:        model.SourceAI,
		}
	}

	return r.finish(model.ResultAdvanced, docs, items, p.Narrative), nil
}

func (r *Reconciler) legacy(p *LegacyPayload) model.AnalysisResult {
	docs := toRecords(p.Documents)
	refs := DocRefs(docs)
	items := make(map[string]model.ChecklistItem)

	covered := make(map[string]bool)
	for id := range p.Answers {
		covered[id] = true
	}
	for id := range p.Justifications {
		covered[id] = true
	}

	for _, id := range sortedKeys(covered) {
		if !r.reg.Has(id) {
			slog.Debug("Ignoring unknown checklist item", "item", id)
			continue
		}
		items[id] = model.ChecklistItem{
			ID:            id,
			Answer:        legacyAnswer(p.Answers[id]),
			Justification: citation.Annotate(p.Justifications[id], refs),
			Source:        model.SourceLegacy,
		}
	}

	return r.finish(model.ResultLegacy, docs, items, p.Narrative)
}

// finish fuses evidence into the ids the payload left uncovered and builds
// the summary.
func (r *Reconciler) finish(kind model.ResultKind, docs []model.DocumentRecord, items map[string]model.ChecklistItem, n Narrative) model.AnalysisResult {
	eligible := make(map[string]bool)
	for _, id := range r.reg.IDs() {
		if _, ok := items[id]; !ok {
			eligible[id] = true
		}
	}

	fusion := r.evidence.Fuse(docs, eligible)
	for id, item := range fusion.Items {
		items[id] = item
	}

	result := model.AnalysisResult{
		Kind:      kind,
		Documents: docs,
		Items:     items,
		Warnings:  fusion.Warnings,
		Summary:   summarize(n),
	}
	for _, item := range items {
		result.Summary.Counts.Add(item.Answer)
	}

	slog.Debug("Reconciled response",
		"kind", kind,
		"documents", len(docs),
		"items", len(items),
		"evidence_items", len(fusion.Items),
		"warnings", len(fusion.Warnings))

	return result
}

func summarize(n Narrative) model.Summary {
	s := model.Summary{
		LegalGrounds:    n.LegalGrounds,
		IssuesFound:     n.IssuesFound,
		Recommendations: n.Recommendations,
	}
	if status, ok := model.ParseQualificationStatus(n.Status); ok {
		s.Status = status
		s.StatusFromBackend = true
	} else if n.Status != "" {
		slog.Debug("Ignoring unrecognized qualification status", "status", n.Status)
	}
	return s
}

func toRecords(raw []RawDocument) []model.DocumentRecord {
	docs := make([]model.DocumentRecord, len(raw))
	for i, d := range raw {
		docs[i] = model.DocumentRecord{
			Index:             i,
			Filename:          d.Filename,
			RawClassification: model.ParseDocumentType(d.DocumentType),
			TextLength:        d.TextLength,
			ExtractedFields:   d.Fields,
			Error:             d.Error,
		}
	}
	return docs
}

// DocRefs numbers documents for citation, 1-based in upload order.
func DocRefs(docs []model.DocumentRecord) []citation.DocRef {
	names := make([]string, len(docs))
	for i, d := range docs {
		names[i] = d.Filename
	}
	return citation.Refs(names)
}

// advancedAnswer maps SIM, NÃO and N.A. in any Unicode normalization form;
// anything else is Unknown.
func advancedAnswer(s string) model.Answer {
	switch strings.ToUpper(norm.NFC.String(strings.TrimSpace(s))) {
	case "SIM":
		return model.AnswerYes
	case "NÃO":
		return model.AnswerNo
	case "N.A.":
		return model.AnswerNotApplicable
	default:
		return model.AnswerUnknown
	}
}

func legacyAnswer(s string) model.Answer {
	switch common.Fold(s) {
	case "sim":
		return model.AnswerYes
	case "nao":
		return model.AnswerNo
	case "n/a", "n.a.", "n.a", "na":
		return model.AnswerNotApplicable
	default:
		return model.AnswerUnknown
	}
}
