package tui

import (
	"github.com/Veraticus/qualify/internal/model"
)

// submittedMsg reports a finished batch submission.
type submittedMsg struct {
	err    error
	result model.AnalysisResult
}

// exportedMsg reports a written export. err comes from the session and is
// already queued as an alert; writeErr is local to the screen.
type exportedMsg struct {
	err      error
	writeErr error
	path     string
}
