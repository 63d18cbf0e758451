package tui

import (
	"context"

	tea "github.com/charmbracelet/bubbletea"
)

// submit sends the configured batch to the service.
func (m Model) submit() tea.Cmd {
	session, files, timeout := m.session, m.config.Files, m.config.Timeout
	return func() tea.Msg {
		ctx, cancel := context.WithTimeout(context.Background(), timeout)
		defer cancel()

		result, err := session.Submit(ctx, files)
		return submittedMsg{result: result, err: err}
	}
}

// exportReport renders the report and writes it to the output directory.
func (m Model) exportReport() tea.Cmd {
	session, format, timeout := m.session, m.config.ReportFormat, m.config.Timeout
	dir := m.config.OutputDir
	return func() tea.Msg {
		ctx, cancel := context.WithTimeout(context.Background(), timeout)
		defer cancel()

		res, err := session.ExportReport(ctx, format)
		if err != nil {
			return exportedMsg{err: err}
		}
		path, err := res.Save(dir)
		return exportedMsg{path: path, writeErr: err}
	}
}

// exportNote renders the regulatory note and writes it to the output directory.
func (m Model) exportNote() tea.Cmd {
	session, dir := m.session, m.config.OutputDir
	return func() tea.Msg {
		res, err := session.ExportNote(context.Background())
		if err != nil {
			return exportedMsg{err: err}
		}
		path, err := res.Save(dir)
		return exportedMsg{path: path, writeErr: err}
	}
}
