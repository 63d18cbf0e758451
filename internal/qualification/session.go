package qualification

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/Veraticus/qualify/internal/backend"
	"github.com/Veraticus/qualify/internal/checklist"
	"github.com/Veraticus/qualify/internal/citation"
	"github.com/Veraticus/qualify/internal/common"
	"github.com/Veraticus/qualify/internal/correction"
	"github.com/Veraticus/qualify/internal/editmode"
	"github.com/Veraticus/qualify/internal/export"
	"github.com/Veraticus/qualify/internal/metrics"
	"github.com/Veraticus/qualify/internal/model"
	"github.com/Veraticus/qualify/internal/reconcile"
	"github.com/Veraticus/qualify/internal/storage"
)

// Phase is where the session is in the submit cycle.
type Phase string

const (
	// PhaseIdle means nothing was submitted yet.
	PhaseIdle Phase = "idle"
	// PhaseSubmitting means a request to the service is in flight.
	PhaseSubmitting Phase = "submitting"
	// PhaseReady means the last pass was applied.
	PhaseReady Phase = "ready"
	// PhaseFailed means the last pass failed and nothing was applied.
	PhaseFailed Phase = "failed"
)

// Session is the single owner of all state of one qualification. All
// methods are safe for concurrent use.
type Session struct {
	createdAt   time.Time
	lastErr     error
	backend     Backend
	journal     Journal
	renderer    ReportRenderer
	metrics     *metrics.Metrics
	store       *checklist.Store
	guard       *editmode.Guard
	corrections *correction.Manager
	reconciler  *reconcile.Reconciler
	lastResult  *model.AnalysisResult
	id          string
	phase       Phase
	alerts      []Alert
	mu          sync.Mutex
}

// New creates a session with every checklist item Unknown and locked.
func New(ctx context.Context, deps Deps) (*Session, error) {
	if err := deps.Validate(); err != nil {
		return nil, fmt.Errorf("invalid dependencies: %w", err)
	}

	reg := deps.Registry
	if reg == nil {
		reg = checklist.Default()
	}

	store := checklist.NewStore(reg)
	rec := reconcile.New(reg)
	s := &Session{
		id:          uuid.NewString(),
		createdAt:   time.Now(),
		phase:       PhaseIdle,
		backend:     deps.Backend,
		journal:     deps.Journal,
		renderer:    deps.Renderer,
		metrics:     deps.Metrics,
		store:       store,
		guard:       editmode.New(),
		reconciler:  rec,
		corrections: correction.NewManager(reg, store, rec),
	}
	store.SetObserver(rejectObserver{s: s})

	if s.journal != nil {
		if err := s.journal.CreateSession(ctx, s.id, s.createdAt); err != nil {
			return nil, fmt.Errorf("failed to start session journal: %w", err)
		}
	}
	s.record(ctx, storage.EventSessionStarted, nil)
	s.metrics.SessionOpened()
	return s, nil
}

// Close releases the session. The journal is owned by the caller.
func (s *Session) Close() {
	s.metrics.SessionClosed()
}

// ID returns the session id.
func (s *Session) ID() string {
	return s.id
}

// Submit validates the batch, sends it to the service and applies the
// reconciled result. Only one submission may be in flight.
func (s *Session) Submit(ctx context.Context, files []backend.Upload) (model.AnalysisResult, error) {
	if err := backend.Validate(files); err != nil {
		s.mu.Lock()
		s.fail(err)
		s.mu.Unlock()
		return model.AnalysisResult{}, err
	}

	s.mu.Lock()
	if s.backend == nil {
		err := common.NewUserError("Serviço de qualificação não configurado", fmt.Errorf("%w: backend.url", common.ErrMissingConfig))
		s.fail(err)
		s.mu.Unlock()
		return model.AnalysisResult{}, err
	}
	if s.phase == PhaseSubmitting {
		s.mu.Unlock()
		return model.AnalysisResult{}, common.ErrSubmitInFlight
	}
	previous := s.phase
	s.phase = PhaseSubmitting
	s.mu.Unlock()

	names := make([]string, len(files))
	for i, f := range files {
		names[i] = f.Filename
	}
	s.record(ctx, storage.EventSubmitted, map[string]any{"files": names})
	slog.Info("Submitting batch", "session", s.id, "files", len(files))

	start := time.Now()
	body, err := s.backend.Qualify(ctx, files)
	s.metrics.ObserveSubmit(start)

	s.mu.Lock()
	defer s.mu.Unlock()

	if err != nil {
		s.phase = failedPhase(previous)
		s.metrics.ObservePass("submit", err)
		s.fail(err)
		s.record(ctx, storage.EventPassFailed, map[string]any{"kind": common.Classify(err), "error": err.Error()})
		return model.AnalysisResult{}, err
	}

	if s.journal != nil {
		if saveErr := s.journal.SaveResponse(ctx, s.id, body); saveErr != nil {
			slog.Warn("Failed to journal response", "session", s.id, "error", saveErr)
		}
	}
	return s.ingest(ctx, body, previous)
}

// Ingest reconciles a response body obtained elsewhere, such as a saved
// response being replayed.
func (s *Session) Ingest(ctx context.Context, body []byte) (model.AnalysisResult, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.phase == PhaseSubmitting {
		return model.AnalysisResult{}, common.ErrSubmitInFlight
	}
	return s.ingest(ctx, body, s.phase)
}

// ingest requires s.mu.
func (s *Session) ingest(ctx context.Context, body []byte, previous Phase) (model.AnalysisResult, error) {
	result, err := s.reconciler.ReconcileBody(body)
	if err != nil {
		s.phase = failedPhase(previous)
		s.metrics.ObservePass("unknown", err)
		s.fail(err)
		s.record(ctx, storage.EventPassFailed, map[string]any{"kind": common.Classify(err), "error": err.Error()})
		return model.AnalysisResult{}, err
	}

	written := s.store.Apply(result)
	s.corrections.Load(result.Documents)
	s.lastResult = &result
	s.lastErr = nil
	s.phase = PhaseReady
	s.metrics.ObservePass(string(result.Kind), nil)
	s.warn(result.Warnings)

	s.record(ctx, storage.EventResultApplied, map[string]any{
		"kind":      result.Kind,
		"documents": len(result.Documents),
		"items":     written,
		"warnings":  len(result.Warnings),
	})
	common.LogInfo("Applied result", common.Fields{
		"session":   s.id,
		"kind":      string(result.Kind),
		"documents": len(result.Documents),
		"items":     written,
		"warnings":  len(result.Warnings),
	})

	return result.Clone(), nil
}

// failedPhase keeps a ready session ready; a failed pass never discards
// what was applied before.
func failedPhase(previous Phase) Phase {
	if previous == PhaseReady {
		return PhaseReady
	}
	return PhaseFailed
}

// RecordCorrection reclassifies one document of the current batch.
func (s *Session) RecordCorrection(ctx context.Context, index int, classification string) (correction.Correction, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	c, err := s.corrections.RecordCorrection(index, classification)
	if err != nil {
		s.fail(err)
		return correction.Correction{}, err
	}
	s.metrics.IncrementCorrection()
	s.record(ctx, storage.EventCorrectionRecorded, c)
	return c, nil
}

// Reprocess recomputes evidence after corrections and applies it. Answers
// given by the service or by the user are kept. The service is not called.
func (s *Session) Reprocess(ctx context.Context) model.AnalysisResult {
	s.mu.Lock()
	defer s.mu.Unlock()

	dirty := s.corrections.Dirty()
	result := s.corrections.Reprocess()
	if dirty == 0 {
		return result
	}

	written := s.store.Apply(result)
	s.metrics.ObservePass(string(model.ResultReprocess), nil)
	s.warn(result.Warnings)
	s.record(ctx, storage.EventReprocessed, map[string]any{"dirty": dirty, "items": written})
	return result
}

// ToggleEdit flips edit mode and returns the new state.
func (s *Session) ToggleEdit(ctx context.Context) editmode.State {
	s.mu.Lock()
	defer s.mu.Unlock()

	state := s.guard.Toggle()
	s.record(ctx, storage.EventEditToggled, map[string]any{"state": state.String()})
	return state
}

// EditIndicator renders the edit-mode badge.
func (s *Session) EditIndicator() string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.guard.Indicator()
}

// SetAnswer overrides an item's answer. It is rejected unless edit mode is on.
func (s *Session) SetAnswer(ctx context.Context, id string, answer model.Answer) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if err := s.store.SetAnswer(id, answer, s.guard.Session()); err != nil {
		s.failUnlessRejected(err)
		return err
	}
	s.record(ctx, storage.EventItemWritten, map[string]any{"item": id, "answer": answer})
	return nil
}

// CheckWrite reports whether item id can be edited now. While the checklist
// is locked the attempt is recorded as a rejected write, and nothing changes.
func (s *Session) CheckWrite(ctx context.Context, id, field string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if err := s.store.Authorize(id, field, s.guard.Session()); err != nil {
		s.failUnlessRejected(err)
		return err
	}
	return nil
}

// SetJustification overrides an item's justification. Document references
// in text are linked to the current batch. Edited text is re-annotated, so
// inserted evidence markers are dropped; confirming the current text
// unchanged keeps the existing citations.
func (s *Session) SetJustification(ctx context.Context, id, text string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	var j citation.Justification
	if current, ok := s.store.Item(id); ok && current.Justification.Text == text {
		j = current.Justification.Clone()
	} else {
		j = citation.Annotate(text, reconcile.DocRefs(s.corrections.Documents())).Explicit()
	}
	if err := s.store.SetJustification(id, j, s.guard.Session()); err != nil {
		s.failUnlessRejected(err)
		return err
	}
	s.record(ctx, storage.EventItemWritten, map[string]any{"item": id, "justification": text})
	return nil
}

// Snapshot returns an immutable copy of the checklist.
func (s *Session) Snapshot() checklist.Snapshot {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.store.Snapshot()
}

// Documents returns the documents of the current batch.
func (s *Session) Documents() []model.DocumentRecord {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.corrections.Documents()
}

// Corrections returns the corrections recorded for the current batch.
func (s *Session) Corrections() []correction.Correction {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.corrections.Corrections()
}

// LastResult returns the last applied service result, if any.
func (s *Session) LastResult() (model.AnalysisResult, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.lastResult == nil {
		return model.AnalysisResult{}, false
	}
	return s.lastResult.Clone(), true
}

func (s *Session) collect() export.Collection {
	return export.Collect(s.store.Snapshot(), s.corrections.Documents(), s.corrections.Corrections())
}

// ExportReport renders the qualification report.
func (s *Session) ExportReport(ctx context.Context, format export.Format) (*export.Result, error) {
	s.mu.Lock()
	c := s.collect()
	s.mu.Unlock()

	res, err := s.renderer.RenderReport(ctx, c, format)
	s.finishExport(ctx, "report", string(format), res, err)
	return res, err
}

// ExportNote renders the regulatory note.
func (s *Session) ExportNote(ctx context.Context) (*export.Result, error) {
	s.mu.Lock()
	c := s.collect()
	s.mu.Unlock()

	res, err := export.RenderRegulatoryNote(c)
	s.finishExport(ctx, "note", "txt", res, err)
	return res, err
}

func (s *Session) finishExport(ctx context.Context, artifact, format string, res *export.Result, err error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.metrics.ObserveExport(artifact, format, err)
	if err != nil {
		if errors.Is(err, export.ErrNoteNotRequired) {
			s.push(LevelInfo, common.KindNone, "Qualificação aprovada: nota devolutiva não é necessária")
			return
		}
		s.fail(err)
		return
	}
	s.record(ctx, storage.EventExported, map[string]any{"artifact": artifact, "format": format, "filename": res.Filename})
}

// Status summarizes the session for the status panel.
func (s *Session) Status() Status {
	s.mu.Lock()
	defer s.mu.Unlock()

	docs := s.corrections.Documents()
	st := Status{
		SessionID:   s.id,
		Phase:       s.phase,
		Documents:   len(docs),
		Dirty:       s.corrections.Dirty(),
		Corrections: len(s.corrections.Corrections()),
		Editing:     s.guard.State() == editmode.Editing,
		Summary:     s.store.Snapshot().Summary,
		Alerts:      len(s.alerts),
	}
	for _, d := range docs {
		if d.Failed() {
			st.FailedDocuments++
		}
	}
	if s.lastResult != nil {
		st.LastKind = s.lastResult.Kind
	}
	if s.lastErr != nil {
		st.LastError = alertMessage(s.lastErr)
		st.LastErrorKind = common.Classify(s.lastErr)
	}
	return st
}

// Status is the status panel content.
type Status struct {
	SessionID       string           `json:"session_id"`
	Phase           Phase            `json:"phase"`
	LastKind        model.ResultKind `json:"last_kind,omitempty"`
	LastError       string           `json:"last_error,omitempty"`
	LastErrorKind   common.Kind      `json:"last_error_kind,omitempty"`
	Summary         model.Summary    `json:"summary"`
	Documents       int              `json:"documents"`
	FailedDocuments int              `json:"failed_documents"`
	Dirty           int              `json:"dirty"`
	Corrections     int              `json:"corrections"`
	Alerts          int              `json:"alerts"`
	Editing         bool             `json:"editing"`
}

// record journals an event. Failures are logged and dropped.
func (s *Session) record(ctx context.Context, kind storage.EventKind, payload any) {
	if s.journal == nil {
		return
	}
	if _, err := s.journal.AppendEvent(ctx, s.id, kind, payload); err != nil {
		slog.Warn("Failed to journal event", "session", s.id, "kind", kind, "error", err)
	}
}

// fail requires s.mu.
func (s *Session) fail(err error) {
	s.lastErr = err
	kind := common.Classify(err)
	s.push(levelFor(kind), kind, alertMessage(err))
	common.LogError(err, "Session operation failed", common.Fields{"session": s.id})
}

// failUnlessRejected reports err unless the store observer already did.
func (s *Session) failUnlessRejected(err error) {
	if errors.Is(err, common.ErrWriteRejected) {
		return
	}
	s.fail(err)
}

// warn requires s.mu.
func (s *Session) warn(warnings []model.Warning) {
	for _, w := range warnings {
		s.metrics.IncrementWarning(string(w.Code))
		kind := common.KindNone
		level := LevelInfo
		if w.Code == model.WarningPartialDocument {
			kind = common.KindPartialDocument
			level = LevelWarning
		}
		s.push(level, kind, w.Message)
	}
}

type rejectObserver struct {
	s *Session
}

// WriteRejected runs inside a store write, with s.mu held.
func (o rejectObserver) WriteRejected(ev checklist.RejectedWrite) {
	o.s.metrics.IncrementRejectedWrite()
	o.s.push(LevelWarning, common.KindWriteRejected, "Ative o modo de edição para alterar o checklist")
	o.s.record(context.Background(), storage.EventWriteRejected, ev)
}
