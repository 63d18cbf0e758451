package correction

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Veraticus/qualify/internal/checklist"
	"github.com/Veraticus/qualify/internal/citation"
	"github.com/Veraticus/qualify/internal/common"
	"github.com/Veraticus/qualify/internal/model"
	"github.com/Veraticus/qualify/internal/reconcile"
)

type fixture struct {
	store      *checklist.Store
	reconciler *reconcile.Reconciler
	manager    *Manager
}

func newFixture(t *testing.T, body string) fixture {
	t.Helper()
	reg := checklist.Default()
	store := checklist.NewStore(reg)
	rec := reconcile.New(reg)

	result, err := rec.ReconcileBody([]byte(body))
	require.NoError(t, err)
	store.Apply(result)

	m := NewManager(reg, store, rec)
	m.Load(result.Documents)
	return fixture{store: store, reconciler: rec, manager: m}
}

const contractBatch = `{"success": true, "campos": {
	"documents_analyzed": [
		{"filename": "doc.pdf", "document_type": "contrato", "document_data": {"valor": "5000", "valor_itbi": "100"}},
		{"filename": "m.pdf", "document_type": "matricula", "document_data": {}}
	],
	"checklist_analysis": {"item1": {"resposta": "SIM", "justificativa": "Doc 2"}}
}}`

func TestRecordCorrection_Validation(t *testing.T) {
	f := newFixture(t, contractBatch)

	tests := []struct {
		name           string
		index          int
		classification string
	}{
		{name: "negative index", index: -1, classification: "ITBI"},
		{name: "index past end", index: 2, classification: "ITBI"},
		{name: "unknown classification", index: 0, classification: "Recibo"},
		{name: "alias is not a classification", index: 0, classification: "escritura"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := f.manager.RecordCorrection(tt.index, tt.classification)
			require.Error(t, err)
			assert.Equal(t, common.KindValidation, common.Classify(err))
			assert.Zero(t, f.manager.Dirty())
		})
	}
}

func TestRecordCorrection_MarksDirty(t *testing.T) {
	f := newFixture(t, contractBatch)

	c, err := f.manager.RecordCorrection(0, "itbi")
	require.NoError(t, err)
	assert.Equal(t, model.DocContrato, c.From)
	assert.Equal(t, model.DocITBI, c.To)
	assert.Equal(t, "doc.pdf", c.Filename)

	docs := f.manager.Documents()
	assert.Equal(t, model.DocContrato, docs[0].RawClassification)
	assert.Equal(t, model.DocITBI, docs[0].Effective())
	assert.Equal(t, 1, f.manager.Dirty())

	_, err = f.manager.RecordCorrection(1, "Matrícula")
	require.NoError(t, err, "correcting to the current value still counts")
	assert.Equal(t, 2, f.manager.Dirty())
	assert.Len(t, f.manager.Corrections(), 2)
}

func TestReprocess_UpdatesOnlyEvidence(t *testing.T) {
	f := newFixture(t, contractBatch)

	before, _ := f.store.Item("item10")
	require.Equal(t, model.SourceEvidence, before.Source)

	_, err := f.manager.RecordCorrection(0, "ITBI")
	require.NoError(t, err)
	result := f.manager.Reprocess()
	f.store.Apply(result)

	assert.Equal(t, model.ResultReprocess, result.Kind)
	assert.NotContains(t, result.Items, "item1", "service answers are untouched")

	item13, _ := f.store.Item("item13")
	assert.Equal(t, model.SourceEvidence, item13.Source)
	assert.Equal(t, model.AnswerUnknown, item13.Answer)
	assert.Equal(t, `Campo "valor_itbi": 100 [Doc 1: doc.pdf]`, citation.RenderPlain(item13.Justification))

	item10, _ := f.store.Item("item10")
	assert.Equal(t, model.SourceNone, item10.Source)
	assert.True(t, item10.Justification.IsZero(), "lost evidence is cleared")

	item1, _ := f.store.Item("item1")
	assert.Equal(t, model.AnswerYes, item1.Answer)
	assert.Zero(t, f.manager.Dirty())
}

func TestReprocess_SkipsManualAnswers(t *testing.T) {
	f := newFixture(t, contractBatch)
	require.NoError(t, f.store.SetAnswer("item13", model.AnswerNo, model.EditSession{Active: true}))

	_, err := f.manager.RecordCorrection(0, "ITBI")
	require.NoError(t, err)
	result := f.manager.Reprocess()

	assert.NotContains(t, result.Items, "item13")
}

func TestReprocess_NoDirtyIsIdempotent(t *testing.T) {
	f := newFixture(t, contractBatch)

	first := f.manager.Reprocess()
	second := f.manager.Reprocess()
	assert.Equal(t, first, second)
	assert.Empty(t, first.Items)

	_, err := f.manager.RecordCorrection(0, "ITBI")
	require.NoError(t, err)
	third := f.manager.Reprocess()
	fourth := f.manager.Reprocess()
	assert.Equal(t, third, fourth)
	assert.NotEmpty(t, fourth.Items)
}

func TestLoad_ResetsBatch(t *testing.T) {
	f := newFixture(t, contractBatch)
	_, err := f.manager.RecordCorrection(0, "ITBI")
	require.NoError(t, err)

	f.manager.Load([]model.DocumentRecord{{Filename: "novo.pdf", RawClassification: model.DocCertidao}})

	assert.Zero(t, f.manager.Dirty())
	assert.Empty(t, f.manager.Corrections())
	require.Len(t, f.manager.Documents(), 1)
}
