package export

import (
	"bytes"
	"context"
	"embed"
	"fmt"
	"html/template"
	"time"

	"github.com/Veraticus/qualify/internal/citation"
	"github.com/Veraticus/qualify/internal/common"
	"github.com/Veraticus/qualify/internal/correction"
	"github.com/Veraticus/qualify/internal/model"
)

//go:embed templates/*
var templateFS embed.FS

var reportTemplate = template.Must(
	template.New("report.html").Funcs(template.FuncMap{
		"formatDate": func(t time.Time, layout string) string {
			return t.Format(layout)
		},
		"inc": func(i int) int { return i + 1 },
	}).ParseFS(templateFS, "templates/report.html"),
)

type reportItem struct {
	ID            string
	Question      string
	Answer        string
	AnswerClass   string
	Justification template.HTML
}

type reportSection struct {
	Title string
	Items []reportItem
}

type reportDocument struct {
	Filename   string
	Raw        string
	Corrected  string
	Error      string
	Number     int
	TextLength int
}

type reportData struct {
	GeneratedAt       time.Time
	Status            string
	LegalGrounds      []string
	IssuesFound       []string
	Recommendations   []string
	Sections          []reportSection
	Documents         []reportDocument
	Corrections       []correction.Correction
	Counts            model.Counts
	StatusFromBackend bool
}

func answerClass(a model.Answer) string {
	switch a {
	case model.AnswerYes:
		return "sim"
	case model.AnswerNo:
		return "nao"
	case model.AnswerNotApplicable:
		return "na"
	default:
		return "pendente"
	}
}

func buildReportData(c Collection) reportData {
	summary := c.Snapshot.Summary
	data := reportData{
		GeneratedAt:       c.GeneratedAt,
		Status:            summary.Status.Label(),
		StatusFromBackend: summary.StatusFromBackend,
		Counts:            summary.Counts,
		LegalGrounds:      summary.LegalGrounds,
		IssuesFound:       summary.IssuesFound,
		Recommendations:   summary.Recommendations,
		Corrections:       c.Corrections,
	}

	for _, sec := range c.Snapshot.Sections {
		rs := reportSection{Title: sec.Title}
		for _, it := range sec.Items {
			rs.Items = append(rs.Items, reportItem{
				ID:            it.ID,
				Question:      it.Question,
				Answer:        it.Answer.String(),
				AnswerClass:   answerClass(it.Answer),
				Justification: template.HTML(citation.RenderHTML(it.Justification)), //nolint:gosec // RenderHTML escapes the text
			})
		}
		data.Sections = append(data.Sections, rs)
	}

	for _, d := range c.Documents {
		rd := reportDocument{
			Number:     d.Index + 1,
			Filename:   d.Filename,
			Raw:        string(d.RawClassification),
			TextLength: d.TextLength,
			Error:      d.Error,
		}
		if d.CorrectedClassification != nil {
			rd.Corrected = string(*d.CorrectedClassification)
		}
		data.Documents = append(data.Documents, rd)
	}
	return data
}

// RenderReportHTML renders the report as Word-compatible HTML.
func RenderReportHTML(c Collection) (string, error) {
	var buf bytes.Buffer
	if err := reportTemplate.Execute(&buf, buildReportData(c)); err != nil {
		return "", fmt.Errorf("render report: %w", err)
	}
	return buf.String(), nil
}

// Renderer produces exports. PDF is delegated to a PDFRenderer.
type Renderer struct {
	PDF PDFRenderer
}

// NewRenderer creates a renderer printing PDFs with headless Chrome.
func NewRenderer(pdfTimeout time.Duration) *Renderer {
	return &Renderer{PDF: &ChromePDF{Timeout: pdfTimeout}}
}

// RenderReport renders the full qualification report. It fails with
// ErrNoAnalysis when no result was ever applied.
func (r *Renderer) RenderReport(ctx context.Context, c Collection, format Format) (*Result, error) {
	if !c.Snapshot.Applied {
		return nil, noAnalysis()
	}

	html, err := RenderReportHTML(c)
	if err != nil {
		return nil, err
	}

	base := "qualificacao_" + c.Stamp()
	switch format {
	case FormatDOC:
		return &Result{
			Data:     []byte(html),
			Filename: base + ".doc",
			MimeType: "application/msword",
		}, nil
	case FormatHTML:
		return &Result{
			Data:     []byte(html),
			Filename: base + ".html",
			MimeType: "text/html; charset=utf-8",
		}, nil
	case FormatPDF:
		if r.PDF == nil {
			return nil, fmt.Errorf("%w: no pdf renderer configured", ErrPDFDependencyMissing)
		}
		data, err := r.PDF.RenderPDF(ctx, html)
		if err != nil {
			return nil, err
		}
		return &Result{
			Data:     data,
			Filename: base + ".pdf",
			MimeType: "application/pdf",
		}, nil
	default:
		return nil, fmt.Errorf("%w: %q", ErrUnsupportedFormat, format)
	}
}

func noAnalysis() error {
	return common.NewUserError("Nenhuma análise disponível. Envie os documentos antes de exportar", common.ErrNoAnalysis)
}
