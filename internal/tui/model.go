// Package tui is the interactive writing screen: prompt, countdown timer,
// writing area and the list of saved entries.
package tui

import (
	"context"
	"time"

	"github.com/charmbracelet/bubbles/help"
	"github.com/charmbracelet/bubbles/key"
	"github.com/charmbracelet/bubbles/spinner"
	"github.com/charmbracelet/bubbles/textarea"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/huh"

	"github.com/julianstephens/jotlit/internal/dictation"
	"github.com/julianstephens/jotlit/internal/journal"
	"github.com/julianstephens/jotlit/internal/logger"
	"github.com/julianstephens/jotlit/internal/models"
	"github.com/julianstephens/jotlit/internal/notifier"
	"github.com/julianstephens/jotlit/internal/session"
	"github.com/julianstephens/jotlit/internal/tui/components/entrylist"
)

type SessionState int

const (
	StateWriting SessionState = iota
	StateConfirmLoad
)

type Pane int

const (
	PaneEditor Pane = iota
	PaneEntries
)

// refreshEvery is how many ticks pass between entry list reloads, so that
// auto-saves show up in the list.
const refreshEvery = 10

type (
	tickMsg   time.Time
	promptMsg struct {
		prompt string
		err    error
	}
	dictationChunkMsg string
	dictationEndMsg   struct{ err error }
	notifiedMsg       struct{ err error }
)

// confirmLoadForm backs the unsaved-changes dialog. It is a pointer so the
// huh form can write into it across Model copies.
type confirmLoadForm struct {
	entry models.Entry
	ok    bool
}

type Options struct {
	Context      context.Context
	Controller   *session.Controller
	Store        *journal.Store
	TimerMinutes int
	Dictation    dictation.Capability
	// Notifier receives the time's-up message. Nil disables notifications.
	Notifier notifier.Sender
}

type Model struct {
	ctx   context.Context
	ctrl  *session.Controller
	store *journal.Store
	timer *session.Timer

	capability  dictation.Capability
	transcriber *dictation.Transcriber
	dictationCh chan tea.Msg
	notifier    notifier.Sender

	state       SessionState
	pane        Pane
	keys        KeyMap
	help        help.Model
	editor      textarea.Model
	entries     entrylist.Model
	spinner     spinner.Model
	form        *huh.Form
	confirmForm *confirmLoadForm

	generating bool
	status     string
	warning    bool
	ticks      int
	quitting   bool
	width      int
	height     int
}

// New builds the model around a started controller.
func New(opts Options) Model {
	ctx := opts.Context
	if ctx == nil {
		ctx = context.Background()
	}

	editor := textarea.New()
	editor.Placeholder = "Start writing..."
	editor.CharLimit = 0
	editor.ShowLineNumbers = false
	editor.SetValue(opts.Controller.Buffer())
	editor.Focus()

	sp := spinner.New()
	sp.Spinner = spinner.Dot
	sp.Style = mutedStyle

	m := Model{
		ctx:        ctx,
		ctrl:       opts.Controller,
		store:      opts.Store,
		timer:      session.NewTimer(opts.TimerMinutes),
		capability: opts.Dictation,
		notifier:   opts.Notifier,
		keys:       DefaultKeyMap(),
		help:       help.New(),
		editor:     editor,
		entries:    entrylist.New(opts.Store.LoadAll(), 0, 0),
		spinner:    sp,
	}

	if tr, err := dictation.NewTranscriber(opts.Dictation); err == nil {
		m.transcriber = tr
		m.dictationCh = make(chan tea.Msg, 32)
	} else {
		logger.Debug("Dictation disabled", "reason", opts.Dictation.Reason())
	}

	return m
}

func (m Model) Init() tea.Cmd {
	return tea.Batch(textarea.Blink, tick())
}

// StopDictation ends a running dictation and waits for it to exit.
func (m Model) StopDictation() {
	if m.transcriber != nil {
		m.transcriber.Stop()
	}
}

func (m Model) dictating() bool {
	return m.transcriber != nil && m.transcriber.Running()
}

func (m Model) ShortHelp() []key.Binding {
	return m.keys.ShortHelp()
}

func (m Model) FullHelp() [][]key.Binding {
	return m.keys.FullHelp()
}

func tick() tea.Cmd {
	return tea.Tick(time.Second, func(t time.Time) tea.Msg {
		return tickMsg(t)
	})
}

func (m *Model) setStatus(text string, warning bool) {
	m.status = text
	m.warning = warning
}

func (m *Model) refreshEntries() {
	m.entries.SetEntries(m.store.LoadAll())
}
