package export

import (
	"bytes"
	"fmt"
	"text/template"
	"time"

	"github.com/Veraticus/qualify/internal/citation"
	"github.com/Veraticus/qualify/internal/model"
)

var noteTemplate = template.Must(
	template.New("note.txt").Funcs(template.FuncMap{
		"formatDate": func(t time.Time, layout string) string {
			return t.Format(layout)
		},
		"inc": func(i int) int { return i + 1 },
	}).ParseFS(templateFS, "templates/note.txt"),
)

type noteDocument struct {
	Filename       string
	Classification string
	Error          string
	Number         int
}

type noteRequirement struct {
	Question      string
	Justification string
}

type noteData struct {
	GeneratedAt     time.Time
	Status          string
	Documents       []noteDocument
	Requirements    []noteRequirement
	IssuesFound     []string
	LegalGrounds    []string
	Recommendations []string
}

// RenderRegulatoryNote renders the plain-text note returned to the
// presenter. Items answered No become requirements. An approved
// qualification needs no note.
func RenderRegulatoryNote(c Collection) (*Result, error) {
	if !c.Snapshot.Applied {
		return nil, noAnalysis()
	}
	summary := c.Snapshot.Summary
	if summary.Status == model.StatusAprovado {
		return nil, ErrNoteNotRequired
	}

	data := noteData{
		GeneratedAt:     c.GeneratedAt,
		Status:          summary.Status.Label(),
		IssuesFound:     summary.IssuesFound,
		LegalGrounds:    summary.LegalGrounds,
		Recommendations: summary.Recommendations,
	}
	for _, d := range c.Documents {
		data.Documents = append(data.Documents, noteDocument{
			Number:         d.Index + 1,
			Filename:       d.Filename,
			Classification: string(d.Effective()),
			Error:          d.Error,
		})
	}
	for _, it := range c.Snapshot.Items() {
		if it.Answer != model.AnswerNo {
			continue
		}
		data.Requirements = append(data.Requirements, noteRequirement{
			Question:      it.Question,
			Justification: citation.RenderPlain(it.Justification),
		})
	}

	var buf bytes.Buffer
	if err := noteTemplate.Execute(&buf, data); err != nil {
		return nil, fmt.Errorf("render note: %w", err)
	}

	return &Result{
		Data:     buf.Bytes(),
		Filename: "nota_devolutiva_" + c.Stamp() + ".txt",
		MimeType: "text/plain; charset=utf-8",
	}, nil
}
