package checklist

import (
	"fmt"
	"reflect"
	"time"

	"github.com/google/uuid"

	"github.com/Veraticus/qualify/internal/citation"
	"github.com/Veraticus/qualify/internal/common"
	"github.com/Veraticus/qualify/internal/model"
)

// RejectedWrite is reported when a direct write is attempted while the
// checklist is locked.
type RejectedWrite struct {
	At      time.Time `json:"at"`
	EventID string    `json:"event_id"`
	ItemID  string    `json:"item_id"`
	Field   string    `json:"field"`
}

func (e *RejectedWrite) Error() string {
	return fmt.Sprintf("%v: %s write to %s ignored", common.ErrWriteRejected, e.Field, e.ItemID)
}

func (e *RejectedWrite) Unwrap() error {
	return common.ErrWriteRejected
}

// Observer receives store events.
type Observer interface {
	WriteRejected(ev RejectedWrite)
}

// Store is the single source of truth for checklist answers.
// It is not safe for concurrent use; its owner serializes access.
type Store struct {
	reg       *Registry
	items     map[string]model.ChecklistItem
	observer  Observer
	now       func() time.Time
	narrative model.Summary
	applied   bool
}

// NewStore seeds every registry item as Unknown and locked.
func NewStore(reg *Registry) *Store {
	s := &Store{
		reg:   reg,
		items: make(map[string]model.ChecklistItem, reg.Len()),
		now:   time.Now,
	}
	for _, id := range reg.IDs() {
		s.items[id] = model.ChecklistItem{
			ID:     id,
			Answer: model.AnswerUnknown,
			Source: model.SourceNone,
			Locked: true,
		}
	}
	return s
}

// SetObserver registers the observer for rejected writes.
func (s *Store) SetObserver(o Observer) {
	s.observer = o
}

// Registry returns the registry backing the store.
func (s *Store) Registry() *Registry {
	return s.reg
}

// Apply merges a result into the store. Items in the result overwrite
// answer, justification and source; items absent keep their values.
// Evidence never replaces an asserted answer. It returns the number of
// items written.
func (s *Store) Apply(result model.AnalysisResult) int {
	written := 0
	for id, incoming := range result.Items {
		current, ok := s.items[id]
		if !ok {
			continue
		}
		if !incoming.Source.Asserted() && current.Source.Asserted() {
			continue
		}
		s.items[id] = model.ChecklistItem{
			ID:            id,
			Answer:        incoming.Answer,
			Justification: incoming.Justification.Clone(),
			Source:        incoming.Source,
			Locked:        incoming.Source == model.SourceNone,
		}
		written++
	}

	if result.Summary.HasNarrative() {
		s.narrative = result.Summary.Clone()
	}
	s.applied = true
	return written
}

// SetAnswer writes an answer directly. The write only happens while the
// edit session is active.
func (s *Store) SetAnswer(id string, answer model.Answer, session model.EditSession) error {
	if answer < model.AnswerUnknown || answer > model.AnswerNotApplicable {
		return common.NewValidationError("answer", fmt.Sprintf("out of range: %d", answer))
	}
	item, err := s.writable(id, "answer", session)
	if err != nil {
		return err
	}
	item.Answer = answer
	s.commit(item)
	return nil
}

// SetJustification replaces an item's justification directly, under the
// same rules as SetAnswer.
func (s *Store) SetJustification(id string, j citation.Justification, session model.EditSession) error {
	item, err := s.writable(id, "justification", session)
	if err != nil {
		return err
	}
	item.Justification = j.Clone()
	s.commit(item)
	return nil
}

// Authorize checks whether a write to field of item id would be accepted,
// without writing. A refused attempt is reported to the observer exactly as
// a refused write is.
func (s *Store) Authorize(id, field string, session model.EditSession) error {
	_, err := s.writable(id, field, session)
	return err
}

func (s *Store) writable(id, field string, session model.EditSession) (model.ChecklistItem, error) {
	item, ok := s.items[id]
	if !ok {
		return model.ChecklistItem{}, fmt.Errorf("%w: %s", common.ErrUnknownItem, id)
	}
	if !session.Active {
		ev := RejectedWrite{
			At:      s.now(),
			EventID: uuid.NewString(),
			ItemID:  id,
			Field:   field,
		}
		if s.observer != nil {
			s.observer.WriteRejected(ev)
		}
		return model.ChecklistItem{}, &ev
	}
	return item, nil
}

func (s *Store) commit(item model.ChecklistItem) {
	item.Source = model.SourceManual
	item.Locked = false
	s.items[item.ID] = item
}

// Item returns a copy of one item.
func (s *Store) Item(id string) (model.ChecklistItem, bool) {
	item, ok := s.items[id]
	if !ok {
		return model.ChecklistItem{}, false
	}
	return item.Clone(), true
}

// ItemView is a checklist item with its registry metadata.
type ItemView struct {
	Key      string `json:"key"`
	Question string `json:"question"`
	model.ChecklistItem
}

// SectionView is one section of a snapshot.
type SectionView struct {
	ID    string     `json:"id"`
	Title string     `json:"title"`
	Items []ItemView `json:"items"`
}

// Snapshot is an immutable copy of the store.
type Snapshot struct {
	Sections []SectionView `json:"sections"`
	Summary  model.Summary `json:"summary"`
	Applied  bool          `json:"applied"`
}

// Snapshot returns a deep copy of the store with counts and status.
func (s *Store) Snapshot() Snapshot {
	snap := Snapshot{Applied: s.applied}

	var counts model.Counts
	for _, sec := range s.reg.Sections() {
		view := SectionView{ID: sec.ID, Title: sec.Title, Items: make([]ItemView, 0, len(sec.Items))}
		for _, it := range sec.Items {
			item := s.items[it.ID].Clone()
			counts.Add(item.Answer)
			view.Items = append(view.Items, ItemView{
				Key:           s.reg.Key(it.ID),
				Question:      it.Question,
				ChecklistItem: item,
			})
		}
		snap.Sections = append(snap.Sections, view)
	}

	snap.Summary = s.narrative.Clone()
	snap.Summary.Counts = counts
	if !snap.Summary.StatusFromBackend {
		snap.Summary.Status = counts.DeriveStatus()
	}
	return snap
}

// Items returns every item in registry order.
func (s Snapshot) Items() []ItemView {
	var out []ItemView
	for _, sec := range s.Sections {
		out = append(out, sec.Items...)
	}
	return out
}

// Item looks up one item by id.
func (s Snapshot) Item(id string) (ItemView, bool) {
	for _, sec := range s.Sections {
		for _, it := range sec.Items {
			if it.ID == id {
				return it, true
			}
		}
	}
	return ItemView{}, false
}

// Equal reports whether two snapshots are identical.
func (s Snapshot) Equal(other Snapshot) bool {
	return reflect.DeepEqual(s, other)
}
