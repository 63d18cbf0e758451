package export

import (
	"time"

	"github.com/Veraticus/qualify/internal/checklist"
	"github.com/Veraticus/qualify/internal/correction"
	"github.com/Veraticus/qualify/internal/model"
)

// Collection is everything an export reads. It is a copy; rendering never
// touches the live session.
type Collection struct {
	GeneratedAt time.Time
	Snapshot    checklist.Snapshot
	Documents   []model.DocumentRecord
	Corrections []correction.Correction
}

// Collect gathers the export inputs.
func Collect(snap checklist.Snapshot, docs []model.DocumentRecord, corrections []correction.Correction) Collection {
	return Collection{
		GeneratedAt: time.Now(),
		Snapshot:    snap,
		Documents:   model.CloneDocuments(docs),
		Corrections: append([]correction.Correction(nil), corrections...),
	}
}

// Stamp formats the generation time for filenames.
func (c Collection) Stamp() string {
	return c.GeneratedAt.Format("20060102_150405")
}
