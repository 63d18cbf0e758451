package tui

import "github.com/charmbracelet/bubbles/key"

// KeyMap defines all keyboard shortcuts.
type KeyMap struct {
	// Navigation
	Up         key.Binding
	Down       key.Binding
	Home       key.Binding
	End        key.Binding
	ToggleView key.Binding

	// Checklist
	ToggleEdit    key.Binding
	AnswerYes     key.Binding
	AnswerNo      key.Binding
	AnswerNA      key.Binding
	AnswerUnknown key.Binding
	Justify       key.Binding

	// Documents
	NextType  key.Binding
	PrevType  key.Binding
	Reprocess key.Binding

	// Batch and exports
	Submit       key.Binding
	ExportReport key.Binding
	ExportNote   key.Binding
	Dismiss      key.Binding

	// Input
	Confirm key.Binding
	Cancel  key.Binding

	// Application
	Help key.Binding
	Quit key.Binding
}

// DefaultKeyMap returns the default key bindings.
func DefaultKeyMap() KeyMap {
	return KeyMap{
		Up: key.NewBinding(
			key.WithKeys("k", "up"),
			key.WithHelp("↑/k", "acima"),
		),
		Down: key.NewBinding(
			key.WithKeys("j", "down"),
			key.WithHelp("↓/j", "abaixo"),
		),
		Home: key.NewBinding(
			key.WithKeys("home", "g"),
			key.WithHelp("Home/g", "início"),
		),
		End: key.NewBinding(
			key.WithKeys("end", "G"),
			key.WithHelp("End/G", "fim"),
		),
		ToggleView: key.NewBinding(
			key.WithKeys("tab"),
			key.WithHelp("Tab", "checklist/documentos"),
		),

		ToggleEdit: key.NewBinding(
			key.WithKeys("e"),
			key.WithHelp("e", "modo edição"),
		),
		AnswerYes: key.NewBinding(
			key.WithKeys("y"),
			key.WithHelp("y", "Sim"),
		),
		AnswerNo: key.NewBinding(
			key.WithKeys("n"),
			key.WithHelp("n", "Não"),
		),
		AnswerNA: key.NewBinding(
			key.WithKeys("a"),
			key.WithHelp("a", "N/A"),
		),
		AnswerUnknown: key.NewBinding(
			key.WithKeys("u"),
			key.WithHelp("u", "Pendente"),
		),
		Justify: key.NewBinding(
			key.WithKeys("enter"),
			key.WithHelp("Enter", "justificativa"),
		),

		NextType: key.NewBinding(
			key.WithKeys("l", "right"),
			key.WithHelp("→/l", "próximo tipo"),
		),
		PrevType: key.NewBinding(
			key.WithKeys("h", "left"),
			key.WithHelp("←/h", "tipo anterior"),
		),
		Reprocess: key.NewBinding(
			key.WithKeys("r"),
			key.WithHelp("r", "reprocessar"),
		),

		Submit: key.NewBinding(
			key.WithKeys("s"),
			key.WithHelp("s", "enviar lote"),
		),
		ExportReport: key.NewBinding(
			key.WithKeys("x"),
			key.WithHelp("x", "exportar relatório"),
		),
		ExportNote: key.NewBinding(
			key.WithKeys("t"),
			key.WithHelp("t", "nota devolutiva"),
		),
		Dismiss: key.NewBinding(
			key.WithKeys("d"),
			key.WithHelp("d", "dispensar alerta"),
		),

		Confirm: key.NewBinding(
			key.WithKeys("enter"),
			key.WithHelp("Enter", "confirmar"),
		),
		Cancel: key.NewBinding(
			key.WithKeys("esc"),
			key.WithHelp("Esc", "cancelar"),
		),

		Help: key.NewBinding(
			key.WithKeys("?"),
			key.WithHelp("?", "ajuda"),
		),
		Quit: key.NewBinding(
			key.WithKeys("q", "ctrl+c"),
			key.WithHelp("q", "sair"),
		),
	}
}

// ShortHelp returns key bindings for the short help view.
func (k KeyMap) ShortHelp() []key.Binding {
	return []key.Binding{k.ToggleView, k.ToggleEdit, k.Reprocess, k.ExportReport, k.Help, k.Quit}
}

// FullHelp returns all key bindings for the full help view.
func (k KeyMap) FullHelp() [][]key.Binding {
	return [][]key.Binding{
		{k.Up, k.Down, k.Home, k.End, k.ToggleView},
		{k.ToggleEdit, k.AnswerYes, k.AnswerNo, k.AnswerNA, k.AnswerUnknown, k.Justify},
		{k.NextType, k.PrevType, k.Reprocess},
		{k.Submit, k.ExportReport, k.ExportNote, k.Dismiss},
		{k.Help, k.Quit},
	}
}
