package cli

import (
	"fmt"
	"strings"

	"github.com/charmbracelet/lipgloss"

	"github.com/Veraticus/qualify/internal/checklist"
	"github.com/Veraticus/qualify/internal/citation"
	"github.com/Veraticus/qualify/internal/model"
	"github.com/Veraticus/qualify/internal/qualification"
)

// Formatter renders session state for the terminal.
type Formatter struct {
	// Width wraps justifications. Zero disables wrapping.
	Width int
	// Verbose includes justifications for every item.
	Verbose bool
}

// NewFormatter creates a formatter with default settings.
func NewFormatter() *Formatter {
	return &Formatter{Width: 100}
}

// FormatSummary renders the outcome and answer counts.
func (f *Formatter) FormatSummary(snap checklist.Snapshot) string {
	if !snap.Applied {
		return FormatWarning("Nenhuma análise aplicada")
	}

	s := snap.Summary
	status := StatusStyle(s.Status).Bold(true).Render(s.Status.Label())
	counts := fmt.Sprintf("%s %d  %s %d  %s %d  %s %d",
		SuccessStyle.Render(SuccessIcon), s.Counts.Yes,
		ErrorStyle.Render(ErrorIcon), s.Counts.No,
		SubtleStyle.Render(NAIcon), s.Counts.NotApplicable,
		WarningStyle.Render(PendingIcon), s.Counts.Unknown)

	lines := []string{
		BoldStyle.Render("Situação: ") + status,
		counts + SubtleStyle.Render(fmt.Sprintf("  (%d itens)", s.Counts.Total)),
	}
	lines = append(lines, f.narrative("Fundamentação legal", s.LegalGrounds)...)
	lines = append(lines, f.narrative("Problemas encontrados", s.IssuesFound)...)
	lines = append(lines, f.narrative("Recomendações", s.Recommendations)...)

	return RenderBox(ChartIcon+" Resultado da qualificação", strings.Join(lines, "\n"))
}

func (f *Formatter) narrative(title string, entries []string) []string {
	if len(entries) == 0 {
		return nil
	}
	out := []string{"", BoldStyle.Render(title)}
	for _, e := range entries {
		out = append(out, "  • "+f.wrap(e, 4))
	}
	return out
}

// FormatChecklist renders every section with its items.
func (f *Formatter) FormatChecklist(snap checklist.Snapshot) string {
	sections := make([]string, 0, len(snap.Sections))
	for _, sec := range snap.Sections {
		lines := []string{SectionStyle.Render(sec.Title)}
		for _, it := range sec.Items {
			lines = append(lines, f.FormatItem(it))
		}
		sections = append(sections, strings.Join(lines, "\n"))
	}
	return strings.Join(sections, "\n\n")
}

// FormatItem renders one item. Justifications are shown for answers that
// need attention, or for all items in verbose mode.
func (f *Formatter) FormatItem(it checklist.ItemView) string {
	style := AnswerStyle(it.Answer)
	badge := style.Render(fmt.Sprintf("%s %-8s", AnswerIcon(it.Answer), it.Answer))
	line := fmt.Sprintf("%s %s %s", badge, SubtleStyle.Render(fmt.Sprintf("%-7s", it.ID)), it.Question)
	if it.Source == model.SourceManual {
		line += SubtleStyle.Render(" (manual)")
	}

	if it.Justification.IsZero() || (!f.Verbose && it.Answer == model.AnswerYes) {
		return line
	}
	just := SubtleStyle.Render(f.wrap(citation.RenderPlain(it.Justification), 13))
	return line + "\n" + strings.Repeat(" ", 13) + just
}

// FormatDocuments renders the document table with effective
// classifications. Corrected rows show the original classification.
func (f *Formatter) FormatDocuments(docs []model.DocumentRecord) string {
	if len(docs) == 0 {
		return SubtleStyle.Render("Nenhum documento analisado")
	}

	nameWidth := len("Arquivo")
	for _, d := range docs {
		nameWidth = max(nameWidth, lipgloss.Width(d.Filename))
	}

	header := fmt.Sprintf("%-4s %-*s %-14s %s", "Nº", nameWidth, "Arquivo", "Tipo", "Campos")
	lines := []string{BoldStyle.Render(header)}
	for _, d := range docs {
		kind := string(d.Effective())
		if d.CorrectedClassification != nil {
			kind += "*"
		}
		row := fmt.Sprintf("%-4d %-*s %-14s %d", d.Index+1, nameWidth, d.Filename, kind, len(d.ExtractedFields))
		switch {
		case d.Failed():
			row = ErrorStyle.Render(row + "  " + ErrorIcon + " " + d.Error)
		case d.CorrectedClassification != nil:
			row = InfoStyle.Render(row + "  (era " + string(d.RawClassification) + ")")
		}
		lines = append(lines, TableCellStyle.Render(row))
	}
	return strings.Join(lines, "\n")
}

// FormatStatus renders the status panel.
func (f *Formatter) FormatStatus(st qualification.Status) string {
	lines := []string{
		fmt.Sprintf("%s %s", BoldStyle.Render("Sessão:"), SubtleStyle.Render(st.SessionID)),
		fmt.Sprintf("%s %s", BoldStyle.Render("Fase:"), st.Phase),
		fmt.Sprintf("%s %d (%d com falha)", BoldStyle.Render("Documentos:"), st.Documents, st.FailedDocuments),
	}
	if st.Corrections > 0 {
		lines = append(lines, fmt.Sprintf("%s %d (%d pendentes de reprocessamento)",
			BoldStyle.Render("Correções:"), st.Corrections, st.Dirty))
	}
	if st.Editing {
		lines = append(lines, WarningStyle.Bold(true).Render("MODO EDIÇÃO"))
	}
	if st.LastError != "" {
		lines = append(lines, FormatError(fmt.Sprintf("%s (%s)", st.LastError, st.LastErrorKind)))
	}
	return strings.Join(lines, "\n")
}

// FormatAlerts renders pending alerts, oldest first.
func (f *Formatter) FormatAlerts(alerts []qualification.Alert) string {
	lines := make([]string, 0, len(alerts))
	for _, a := range alerts {
		switch a.Level {
		case qualification.LevelError:
			lines = append(lines, FormatError(a.Message))
		case qualification.LevelWarning:
			lines = append(lines, FormatWarning(a.Message))
		default:
			lines = append(lines, FormatInfo(a.Message))
		}
	}
	return strings.Join(lines, "\n")
}

func (f *Formatter) wrap(text string, indent int) string {
	if f.Width <= indent {
		return text
	}
	wrapped := lipgloss.NewStyle().Width(f.Width - indent).Render(text)
	return strings.ReplaceAll(wrapped, "\n", "\n"+strings.Repeat(" ", indent))
}
