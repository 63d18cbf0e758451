package tui

import (
	"context"
	"fmt"

	"github.com/charmbracelet/bubbles/help"
	"github.com/charmbracelet/bubbles/key"
	"github.com/charmbracelet/bubbles/spinner"
	"github.com/charmbracelet/bubbles/textinput"
	tea "github.com/charmbracelet/bubbletea"

	"github.com/Veraticus/qualify/internal/checklist"
	"github.com/Veraticus/qualify/internal/model"
	"github.com/Veraticus/qualify/internal/qualification"
	"github.com/Veraticus/qualify/internal/tui/themes"
)

// State represents the current state of the TUI.
type State int

const (
	// StateBrowse is plain navigation.
	StateBrowse State = iota
	// StateJustify is editing the selected item's justification.
	StateJustify
	// StateBusy is waiting on a submission or export.
	StateBusy
	// StateHelp shows the full key map.
	StateHelp
)

// View represents the current view mode.
type View int

const (
	// ViewChecklist lists checklist items.
	ViewChecklist View = iota
	// ViewDocuments lists the documents of the batch.
	ViewDocuments
)

// Model holds the main TUI state.
type Model struct {
	theme     themes.Theme
	session   *qualification.Session
	snap      checklist.Snapshot
	status    qualification.Status
	config    Config
	flash     string
	keymap    KeyMap
	help      help.Model
	spinner   spinner.Model
	input     textinput.Model
	items     []checklist.ItemView
	docs      []model.DocumentRecord
	alerts    []qualification.Alert
	width     int
	height    int
	cursor    int
	docCursor int
	state     State
	view      View
	quitting  bool
}

// newModel creates a new model with the given configuration.
func newModel(cfg Config) Model {
	input := textinput.New()
	input.Placeholder = "Justificativa (cite Doc N)"
	input.CharLimit = 2000

	s := spinner.New()
	s.Spinner = spinner.Dot

	m := Model{
		theme:   cfg.Theme,
		session: cfg.Session,
		config:  cfg,
		keymap:  DefaultKeyMap(),
		help:    help.New(),
		spinner: s,
		input:   input,
		width:   cfg.Width,
		height:  cfg.Height,
		state:   StateBrowse,
		view:    ViewChecklist,
	}
	m.refresh()
	return m
}

// Init initializes the model.
func (m Model) Init() tea.Cmd {
	if m.config.SubmitOnStart && len(m.config.Files) > 0 {
		return tea.Batch(m.spinner.Tick, m.submit())
	}
	return nil
}

// refresh reloads everything shown from the session.
func (m *Model) refresh() {
	m.snap = m.session.Snapshot()
	m.items = m.snap.Items()
	m.docs = m.session.Documents()
	m.status = m.session.Status()
	m.alerts = m.session.Alerts()
	m.cursor = clamp(m.cursor, len(m.items))
	m.docCursor = clamp(m.docCursor, len(m.docs))
}

func clamp(i, n int) int {
	if n == 0 || i < 0 {
		return 0
	}
	if i >= n {
		return n - 1
	}
	return i
}

// Update handles messages and updates the model.
func (m Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.height = msg.Height
		m.help.Width = msg.Width
		m.input.Width = max(msg.Width-6, 10)
		return m, nil

	case spinner.TickMsg:
		if m.state != StateBusy {
			return m, nil
		}
		var cmd tea.Cmd
		m.spinner, cmd = m.spinner.Update(msg)
		return m, cmd

	case submittedMsg:
		m.state = StateBrowse
		if msg.err == nil {
			m.flash = fmt.Sprintf("Análise aplicada: %d documento(s)", len(msg.result.Documents))
		} else {
			m.flash = ""
		}
		m.refresh()
		return m, nil

	case exportedMsg:
		m.state = StateBrowse
		switch {
		case msg.writeErr != nil:
			m.flash = msg.writeErr.Error()
		case msg.err == nil:
			m.flash = "Exportado para " + msg.path
		default:
			m.flash = ""
		}
		m.refresh()
		return m, nil

	case tea.KeyMsg:
		return m.handleKey(msg)
	}

	if m.state == StateJustify {
		var cmd tea.Cmd
		m.input, cmd = m.input.Update(msg)
		return m, cmd
	}
	return m, nil
}

func (m Model) handleKey(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	if msg.String() == "ctrl+c" {
		m.quitting = true
		return m, tea.Quit
	}

	switch m.state {
	case StateBusy:
		return m, nil
	case StateHelp:
		m.state = StateBrowse
		return m, nil
	case StateJustify:
		return m.handleJustifyKey(msg)
	}

	m.flash = ""
	switch {
	case key.Matches(msg, m.keymap.Quit):
		m.quitting = true
		return m, tea.Quit
	case key.Matches(msg, m.keymap.Help):
		m.state = StateHelp
	case key.Matches(msg, m.keymap.ToggleView):
		if m.view == ViewChecklist {
			m.view = ViewDocuments
		} else {
			m.view = ViewChecklist
		}
	case key.Matches(msg, m.keymap.Up):
		m.move(-1)
	case key.Matches(msg, m.keymap.Down):
		m.move(1)
	case key.Matches(msg, m.keymap.Home):
		m.move(-len(m.items) - len(m.docs))
	case key.Matches(msg, m.keymap.End):
		m.move(len(m.items) + len(m.docs))
	case key.Matches(msg, m.keymap.ToggleEdit):
		m.session.ToggleEdit(context.Background())
	case key.Matches(msg, m.keymap.Reprocess):
		m.reprocess()
	case key.Matches(msg, m.keymap.Dismiss):
		if len(m.alerts) > 0 {
			m.session.DismissAlert(m.alerts[0].ID)
		}
	case key.Matches(msg, m.keymap.Submit):
		if len(m.config.Files) == 0 {
			m.flash = "Nenhum arquivo para enviar"
			break
		}
		m.state = StateBusy
		m.refresh()
		return m, tea.Batch(m.spinner.Tick, m.submit())
	case key.Matches(msg, m.keymap.ExportReport):
		m.state = StateBusy
		return m, tea.Batch(m.spinner.Tick, m.exportReport())
	case key.Matches(msg, m.keymap.ExportNote):
		m.state = StateBusy
		return m, tea.Batch(m.spinner.Tick, m.exportNote())
	case m.view == ViewChecklist:
		return m.handleChecklistKey(msg)
	case m.view == ViewDocuments:
		m.handleDocumentKey(msg)
	}

	m.refresh()
	return m, nil
}

func (m Model) handleChecklistKey(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	item, ok := m.selectedItem()
	if !ok {
		return m, nil
	}

	answer := model.Answer(-1)
	switch {
	case key.Matches(msg, m.keymap.AnswerYes):
		answer = model.AnswerYes
	case key.Matches(msg, m.keymap.AnswerNo):
		answer = model.AnswerNo
	case key.Matches(msg, m.keymap.AnswerNA):
		answer = model.AnswerNotApplicable
	case key.Matches(msg, m.keymap.AnswerUnknown):
		answer = model.AnswerUnknown
	case key.Matches(msg, m.keymap.Justify):
		if err := m.session.CheckWrite(context.Background(), item.ID, "justification"); err != nil {
			m.refresh()
			return m, nil
		}
		m.state = StateJustify
		m.input.SetValue(item.Justification.Text)
		m.input.CursorEnd()
		cmd := m.input.Focus()
		return m, cmd
	default:
		return m, nil
	}

	_ = m.session.SetAnswer(context.Background(), item.ID, answer)
	m.refresh()
	return m, nil
}

func (m Model) handleJustifyKey(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch {
	case key.Matches(msg, m.keymap.Cancel):
		m.state = StateBrowse
		m.input.Blur()
		return m, nil
	case key.Matches(msg, m.keymap.Confirm):
		m.state = StateBrowse
		m.input.Blur()
		if item, ok := m.selectedItem(); ok {
			if err := m.session.SetJustification(context.Background(), item.ID, m.input.Value()); err == nil {
				m.flash = "Justificativa atualizada: " + item.ID
			}
		}
		m.refresh()
		return m, nil
	}

	var cmd tea.Cmd
	m.input, cmd = m.input.Update(msg)
	return m, cmd
}

func (m *Model) handleDocumentKey(msg tea.KeyMsg) {
	if len(m.docs) == 0 {
		return
	}
	step := 0
	switch {
	case key.Matches(msg, m.keymap.NextType):
		step = 1
	case key.Matches(msg, m.keymap.PrevType):
		step = -1
	default:
		return
	}

	doc := m.docs[m.docCursor]
	next := cycleType(doc.Effective(), step)
	c, err := m.session.RecordCorrection(context.Background(), doc.Index, string(next))
	if err == nil {
		m.flash = fmt.Sprintf("%s: %s → %s (r para reprocessar)", c.Filename, c.From, c.To)
	}
}

func cycleType(current model.DocumentType, step int) model.DocumentType {
	types := model.DocumentTypes
	for i, t := range types {
		if t == current {
			return types[(i+step+len(types))%len(types)]
		}
	}
	return types[0]
}

func (m *Model) reprocess() {
	dirty := m.status.Dirty
	result := m.session.Reprocess(context.Background())
	if dirty == 0 {
		m.flash = "Nenhuma correção pendente"
		return
	}
	m.flash = fmt.Sprintf("Reprocessado: %d item(ns) com evidências atualizadas", len(result.Items))
}

func (m *Model) move(delta int) {
	if m.view == ViewDocuments {
		m.docCursor = clamp(m.docCursor+delta, len(m.docs))
		return
	}
	m.cursor = clamp(m.cursor+delta, len(m.items))
}

func (m Model) selectedItem() (checklist.ItemView, bool) {
	if m.cursor < 0 || m.cursor >= len(m.items) {
		return checklist.ItemView{}, false
	}
	return m.items[m.cursor], true
}
