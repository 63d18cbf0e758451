// Package qualification owns one qualification session: the documents of
// the current batch, the checklist, edit mode, corrections and exports.
package qualification

import (
	"context"
	"fmt"
	"time"

	"github.com/Veraticus/qualify/internal/backend"
	"github.com/Veraticus/qualify/internal/checklist"
	"github.com/Veraticus/qualify/internal/export"
	"github.com/Veraticus/qualify/internal/metrics"
	"github.com/Veraticus/qualify/internal/storage"
)

// Backend submits a batch to the qualification service.
type Backend interface {
	Qualify(ctx context.Context, files []backend.Upload) ([]byte, error)
}

// Journal records what happened in a session.
type Journal interface {
	CreateSession(ctx context.Context, id string, at time.Time) error
	AppendEvent(ctx context.Context, sessionID string, kind storage.EventKind, payload any) (storage.Event, error)
	SaveResponse(ctx context.Context, sessionID string, body []byte) error
}

// ReportRenderer renders the qualification report.
type ReportRenderer interface {
	RenderReport(ctx context.Context, c export.Collection, format export.Format) (*export.Result, error)
}

// Deps contains the collaborators of a session.
type Deps struct {
	// Backend is the qualification service. Without it only replays work.
	Backend Backend
	// Journal records session events. Optional.
	Journal Journal
	// Renderer renders reports.
	Renderer ReportRenderer
	// Registry is the checklist registry. Defaults to checklist.Default().
	Registry *checklist.Registry
	// Metrics is optional.
	Metrics *metrics.Metrics
}

// Validate ensures required dependencies are provided.
func (d *Deps) Validate() error {
	if d.Renderer == nil {
		return fmt.Errorf("report renderer dependency is required")
	}
	return nil
}
