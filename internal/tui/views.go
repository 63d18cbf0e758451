package tui

import (
	"fmt"
	"strings"

	"github.com/charmbracelet/lipgloss"

	"github.com/Veraticus/qualify/internal/citation"
	"github.com/Veraticus/qualify/internal/cli"
	"github.com/Veraticus/qualify/internal/model"
	"github.com/Veraticus/qualify/internal/qualification"
)

// View renders the UI.
func (m Model) View() string {
	if m.quitting {
		return ""
	}
	if m.state == StateHelp {
		return m.renderHelp()
	}

	header := m.renderHeader()
	footer := m.renderFooter()
	detail := m.renderDetail()

	bodyHeight := m.height - lipgloss.Height(header) - lipgloss.Height(footer) - lipgloss.Height(detail)
	var body string
	if m.view == ViewDocuments {
		body = m.renderDocuments(bodyHeight)
	} else {
		body = m.renderChecklist(bodyHeight)
	}

	return lipgloss.JoinVertical(lipgloss.Left, header, body, detail, footer)
}

func (m Model) renderHeader() string {
	title := m.theme.Title.Render(cli.ScaleIcon + " Qualificação registral")

	var status string
	if m.snap.Applied {
		s := m.snap.Summary
		status = m.statusStyle(s.Status).Render(s.Status.Label()) +
			m.theme.Muted.Render(fmt.Sprintf("  Sim %d · Não %d · N/A %d · Pendente %d",
				s.Counts.Yes, s.Counts.No, s.Counts.NotApplicable, s.Counts.Unknown))
	} else {
		status = m.theme.StatusPending.Render("Nenhuma análise aplicada")
	}

	parts := []string{title, "  ", status}
	if indicator := m.session.EditIndicator(); indicator != "" {
		parts = append(parts, "  ", indicator)
	}
	if m.state == StateBusy {
		parts = append(parts, "  ", m.spinner.View()+" aguardando…")
	}
	return lipgloss.JoinHorizontal(lipgloss.Top, parts...)
}

func (m Model) statusStyle(s model.QualificationStatus) lipgloss.Style {
	switch s {
	case model.StatusAprovado:
		return m.theme.StatusSuccess
	case model.StatusExigencia:
		return m.theme.StatusWarning
	case model.StatusReprovado:
		return m.theme.StatusError
	default:
		return m.theme.StatusPending
	}
}

func (m Model) answerStyle(a model.Answer) lipgloss.Style {
	switch a {
	case model.AnswerYes:
		return m.theme.StatusSuccess
	case model.AnswerNo:
		return m.theme.StatusError
	case model.AnswerNotApplicable:
		return m.theme.Muted
	default:
		return m.theme.StatusWarning
	}
}

func (m Model) renderChecklist(height int) string {
	var lines []string
	selected := 0
	i := 0
	for _, sec := range m.snap.Sections {
		lines = append(lines, m.theme.Section.Render(sec.Title))
		for _, it := range sec.Items {
			badge := m.answerStyle(it.Answer).Render(fmt.Sprintf("%s %-8s", cli.AnswerIcon(it.Answer), it.Answer))
			row := fmt.Sprintf("%s %-7s %s", badge, it.ID, it.Question)
			if it.Source == model.SourceManual {
				row += m.theme.Muted.Render(" (manual)")
			}
			if i == m.cursor {
				row = m.theme.Selected.Render("▸ " + fmt.Sprintf("%-8s %-7s %s", it.Answer, it.ID, it.Question))
				selected = len(lines)
			} else {
				row = "  " + row
			}
			lines = append(lines, row)
			i++
		}
	}
	return window(lines, selected, height)
}

func (m Model) renderDocuments(height int) string {
	if len(m.docs) == 0 {
		return m.theme.Muted.Render("Nenhum documento analisado")
	}

	lines := []string{m.theme.Bold.Render(fmt.Sprintf("  %-4s %-32s %-14s %s", "Nº", "Arquivo", "Tipo", "Campos"))}
	for i, d := range m.docs {
		kind := string(d.Effective())
		if d.CorrectedClassification != nil {
			kind += "*"
		}
		row := fmt.Sprintf("%-4d %-32s %-14s %d", d.Index+1, truncate(d.Filename, 32), kind, len(d.ExtractedFields))
		if d.Failed() {
			row += "  " + cli.ErrorIcon + " " + d.Error
		}
		if i == m.docCursor {
			row = m.theme.Selected.Render("▸ " + row)
		} else {
			row = "  " + row
		}
		lines = append(lines, row)
	}
	if m.status.Dirty > 0 {
		lines = append(lines, "", m.theme.StatusWarning.Render(
			fmt.Sprintf("%d correção(ões) pendente(s): pressione r para reprocessar", m.status.Dirty)))
	}
	return window(lines, m.docCursor+1, height)
}

func (m Model) renderDetail() string {
	if m.state == StateJustify {
		return m.theme.RoundedBox.Render(m.theme.Bold.Render("Nova justificativa") + "\n" + m.input.View())
	}
	if m.view != ViewChecklist {
		return ""
	}
	item, ok := m.selectedItem()
	if !ok {
		return ""
	}

	text := m.theme.Muted.Render("Sem justificativa")
	if !item.Justification.IsZero() {
		text = citation.RenderPlain(item.Justification)
	}
	width := max(m.width-4, 20)
	content := lipgloss.NewStyle().Width(width).Render(
		m.theme.Bold.Render(item.Key+" · "+string(item.Source)) + "\n" + text)
	return m.theme.RoundedBox.Render(content)
}

func (m Model) renderFooter() string {
	var lines []string
	for i, a := range m.alerts {
		if i == 3 {
			lines = append(lines, m.theme.Muted.Render(fmt.Sprintf("… mais %d alerta(s)", len(m.alerts)-3)))
			break
		}
		lines = append(lines, m.renderAlert(a))
	}
	if m.flash != "" {
		lines = append(lines, m.theme.StatusInfo.Render(m.flash))
	}
	lines = append(lines, m.help.ShortHelpView(m.keymap.ShortHelp()))
	return strings.Join(lines, "\n")
}

func (m Model) renderAlert(a qualification.Alert) string {
	switch a.Level {
	case qualification.LevelError:
		return m.theme.StatusError.Render(cli.ErrorIcon + " " + a.Message)
	case qualification.LevelWarning:
		return m.theme.StatusWarning.Render(cli.WarningIcon + " " + a.Message)
	default:
		return m.theme.StatusInfo.Render(cli.InfoIcon + " " + a.Message)
	}
}

func (m Model) renderHelp() string {
	content := lipgloss.JoinVertical(lipgloss.Left,
		m.theme.Title.Render("Atalhos"),
		"",
		m.help.FullHelpView(m.keymap.FullHelp()),
		"",
		m.theme.Muted.Render("Pressione qualquer tecla para voltar"),
	)
	return m.theme.RoundedBox.Render(content)
}

// window returns at most height lines keeping line focus visible.
func window(lines []string, focus, height int) string {
	if height <= 0 || len(lines) <= height {
		return strings.Join(lines, "\n")
	}
	start := focus - height/2
	start = max(0, min(start, len(lines)-height))
	return strings.Join(lines[start:start+height], "\n")
}

func truncate(s string, n int) string {
	r := []rune(s)
	if len(r) <= n {
		return s
	}
	return string(r[:n-1]) + "…"
}
