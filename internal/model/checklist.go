package model

import (
	"strings"

	"github.com/Veraticus/qualify/internal/citation"
	"github.com/Veraticus/qualify/internal/common"
)

// Answer is the value of a checklist item. The zero value is AnswerUnknown.
type Answer int

const (
	// AnswerUnknown means the item has not been evaluated.
	AnswerUnknown Answer = iota
	// AnswerYes means the requirement is met.
	AnswerYes
	// AnswerNo means the requirement is not met.
	AnswerNo
	// AnswerNotApplicable means the requirement does not apply to this act.
	AnswerNotApplicable
)

// String returns the label used by the service and in exported documents.
func (a Answer) String() string {
	switch a {
	case AnswerYes:
		return "Sim"
	case AnswerNo:
		return "Não"
	case AnswerNotApplicable:
		return "N/A"
	default:
		return "Pendente"
	}
}

// ParseAnswer accepts the labels users type when editing an item.
func ParseAnswer(s string) (Answer, bool) {
	switch strings.TrimSuffix(common.Fold(s), ".") {
	case "sim", "s", "yes", "y":
		return AnswerYes, true
	case "nao", "n", "no":
		return AnswerNo, true
	case "n/a", "n.a", "na", "nao se aplica":
		return AnswerNotApplicable, true
	case "pendente", "unknown", "?":
		return AnswerUnknown, true
	default:
		return AnswerUnknown, false
	}
}

// MarshalText implements encoding.TextMarshaler.
func (a Answer) MarshalText() ([]byte, error) {
	switch a {
	case AnswerYes:
		return []byte("yes"), nil
	case AnswerNo:
		return []byte("no"), nil
	case AnswerNotApplicable:
		return []byte("not_applicable"), nil
	default:
		return []byte("unknown"), nil
	}
}

// UnmarshalText implements encoding.TextUnmarshaler.
func (a *Answer) UnmarshalText(text []byte) error {
	switch string(text) {
	case "yes":
		*a = AnswerYes
	case "no":
		*a = AnswerNo
	case "not_applicable":
		*a = AnswerNotApplicable
	case "unknown", "":
		*a = AnswerUnknown
	default:
		parsed, ok := ParseAnswer(string(text))
		if !ok {
			return common.NewValidationError("answer", "unrecognized value "+string(text))
		}
		*a = parsed
	}
	return nil
}

// Source records where an item's current answer came from.
type Source string

const (
	// SourceNone means the item was never touched.
	SourceNone Source = "none"
	// SourceAI means the advanced checklist analysis answered the item.
	SourceAI Source = "ai"
	// SourceLegacy means a legacy flat response answered the item.
	SourceLegacy Source = "legacy"
	// SourceEvidence means only extracted fields back the item.
	SourceEvidence Source = "evidence"
	// SourceManual means a user edited the item.
	SourceManual Source = "manual"
)

// Asserted reports whether the source carries an answer that evidence
// fusion must not overwrite.
func (s Source) Asserted() bool {
	return s == SourceAI || s == SourceLegacy || s == SourceManual
}

// ChecklistItem is one legal-compliance question and its current answer.
type ChecklistItem struct {
	Justification citation.Justification `json:"justification"`
	ID            string                 `json:"id"`
	Source        Source                 `json:"source"`
	Answer        Answer                 `json:"answer"`
	Locked        bool                   `json:"locked"`
}

// Clone returns a deep copy.
func (c ChecklistItem) Clone() ChecklistItem {
	out := c
	out.Justification = c.Justification.Clone()
	return out
}

// EditSession governs write access to the checklist.
type EditSession struct {
	Active bool `json:"active"`
}
