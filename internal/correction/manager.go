// Package correction records manual document reclassifications and
// recomputes the evidence that depends on them.
package correction

import (
	"fmt"
	"log/slog"
	"time"

	"github.com/Veraticus/qualify/internal/checklist"
	"github.com/Veraticus/qualify/internal/common"
	"github.com/Veraticus/qualify/internal/model"
	"github.com/Veraticus/qualify/internal/reconcile"
)

// Correction is one recorded reclassification.
type Correction struct {
	At       time.Time          `json:"at"`
	Filename string             `json:"filename"`
	From     model.DocumentType `json:"from"`
	To       model.DocumentType `json:"to"`
	Index    int                `json:"index"`
}

// ItemReader exposes the current checklist items.
type ItemReader interface {
	Item(id string) (model.ChecklistItem, bool)
}

// Fuser runs evidence fusion over a set of item ids.
type Fuser interface {
	Fuse(docs []model.DocumentRecord, eligible map[string]bool) reconcile.Fusion
}

// Manager owns the document list of the current batch. It is the only
// component that changes a document's classification.
type Manager struct {
	items   ItemReader
	fuser   Fuser
	dirty   map[int]bool
	last    *model.AnalysisResult
	now     func() time.Time
	ids     []string
	docs    []model.DocumentRecord
	history []Correction
}

// NewManager creates a manager with no documents loaded.
func NewManager(reg *checklist.Registry, items ItemReader, fuser Fuser) *Manager {
	return &Manager{
		items: items,
		fuser: fuser,
		ids:   reg.IDs(),
		dirty: make(map[int]bool),
		now:   time.Now,
	}
}

// Load replaces the document list with a new batch, dropping pending
// corrections and the previous reprocess result.
func (m *Manager) Load(docs []model.DocumentRecord) {
	m.docs = model.CloneDocuments(docs)
	m.dirty = make(map[int]bool)
	m.history = nil
	m.last = nil
}

// Documents returns a copy of the current documents.
func (m *Manager) Documents() []model.DocumentRecord {
	return model.CloneDocuments(m.docs)
}

// Dirty returns the number of documents corrected since the last reprocess.
func (m *Manager) Dirty() int {
	return len(m.dirty)
}

// Corrections returns the correction history of the current batch.
func (m *Manager) Corrections() []Correction {
	return append([]Correction(nil), m.history...)
}

// RecordCorrection sets a document's corrected classification and marks it
// dirty. Nothing is recomputed until Reprocess.
func (m *Manager) RecordCorrection(index int, classification string) (Correction, error) {
	if index < 0 || index >= len(m.docs) {
		return Correction{}, common.NewValidationError("index",
			fmt.Sprintf("document %d out of range (0..%d)", index, len(m.docs)-1))
	}
	to, ok := model.ValidDocumentType(classification)
	if !ok {
		return Correction{}, common.NewValidationError("classification",
			fmt.Sprintf("%q is not a document classification", classification))
	}

	doc := &m.docs[index]
	c := Correction{
		At:       m.now(),
		Index:    index,
		Filename: doc.Filename,
		From:     doc.Effective(),
		To:       to,
	}
	doc.CorrectedClassification = &to
	m.dirty[index] = true
	m.history = append(m.history, c)

	slog.Debug("Recorded correction", "index", index, "from", c.From, "to", c.To)
	return c, nil
}

// Reprocess recomputes evidence for items that no service or user answer
// covers. With no dirty documents it returns the previous result unchanged.
// The qualification service is not called again.
func (m *Manager) Reprocess() model.AnalysisResult {
	if len(m.dirty) == 0 {
		if m.last == nil {
			m.last = &model.AnalysisResult{
				Kind:      model.ResultReprocess,
				Documents: model.CloneDocuments(m.docs),
				Items:     map[string]model.ChecklistItem{},
			}
		}
		return m.last.Clone()
	}

	eligible := make(map[string]bool)
	var hadEvidence []string
	for _, id := range m.ids {
		item, ok := m.items.Item(id)
		if !ok || item.Source.Asserted() {
			continue
		}
		eligible[id] = true
		if item.Source == model.SourceEvidence {
			hadEvidence = append(hadEvidence, id)
		}
	}

	fusion := m.fuser.Fuse(m.docs, eligible)
	items := fusion.Items
	for _, id := range hadEvidence {
		if _, ok := items[id]; !ok {
			items[id] = model.ChecklistItem{ID: id, Answer: model.AnswerUnknown, Source: model.SourceNone}
		}
	}

	result := model.AnalysisResult{
		Kind:      model.ResultReprocess,
		Documents: model.CloneDocuments(m.docs),
		Items:     items,
		Warnings:  fusion.Warnings,
	}
	for _, item := range items {
		result.Summary.Counts.Add(item.Answer)
	}

	slog.Info("Reprocessed corrections",
		"dirty", len(m.dirty),
		"eligible", len(eligible),
		"evidence_items", len(fusion.Items))

	m.dirty = make(map[int]bool)
	last := result.Clone()
	m.last = &last
	return result
}
