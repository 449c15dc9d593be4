package tui

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/charmbracelet/bubbles/key"
	"github.com/charmbracelet/bubbles/spinner"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/huh"

	"github.com/julianstephens/jotlit/internal/constants"
	jerrors "github.com/julianstephens/jotlit/internal/errors"
	"github.com/julianstephens/jotlit/internal/logger"
	"github.com/julianstephens/jotlit/internal/models"
	"github.com/julianstephens/jotlit/internal/notifier"
	"github.com/julianstephens/jotlit/internal/session"
	"github.com/julianstephens/jotlit/internal/tui/components/entrylist"
)

func (m Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.height = msg.Height
		m.resize()
		return m, nil

	case tickMsg:
		return m.handleTick()

	case spinner.TickMsg:
		if !m.generating {
			return m, nil
		}
		var cmd tea.Cmd
		m.spinner, cmd = m.spinner.Update(msg)
		return m, cmd

	case promptMsg:
		m.generating = false
		if msg.err != nil {
			if !errors.Is(msg.err, context.Canceled) && !errors.Is(msg.err, session.ErrStopped) {
				m.setStatus(fmt.Sprintf("Could not generate a prompt: %v", msg.err), true)
			}
			return m, nil
		}
		m.setStatus("", false)
		return m, nil

	case dictationChunkMsg:
		m.insertTranscript(string(msg))
		return m, m.listenDictation()

	case dictationEndMsg:
		if msg.err != nil {
			m.setStatus(fmt.Sprintf("Dictation stopped: %v", msg.err), true)
		} else {
			m.setStatus("Dictation stopped", false)
		}
		return m, nil

	case notifiedMsg:
		if msg.err != nil {
			logger.Debug("Timer notification not delivered", "error", msg.err)
		}
		return m, nil

	case entrylist.LoadEntryMsg:
		return m.requestLoad(msg.Entry)
	}

	if m.state == StateConfirmLoad {
		return m.updateConfirmLoad(msg)
	}

	if msg, ok := msg.(tea.KeyMsg); ok {
		if model, cmd, handled := m.handleKey(msg); handled {
			return model, cmd
		}
	}

	return m.updatePane(msg)
}

func (m Model) handleKey(msg tea.KeyMsg) (tea.Model, tea.Cmd, bool) {
	switch {
	case key.Matches(msg, m.keys.Quit):
		if msg.String() == "esc" && m.pane == PaneEntries && m.entries.Filtering() {
			return m, nil, false
		}
		m.quitting = true
		return m, tea.Quit, true

	case key.Matches(msg, m.keys.Generate):
		if m.generating {
			return m, nil, true
		}
		m.generating = true
		m.setStatus("", false)
		return m, tea.Batch(m.spinner.Tick, m.generatePrompt()), true

	case key.Matches(msg, m.keys.Save):
		m.save()
		return m, nil, true

	case key.Matches(msg, m.keys.Timer):
		if m.timer.Running() {
			m.timer.Pause()
		} else {
			m.timer.Start()
		}
		return m, nil, true

	case key.Matches(msg, m.keys.Reset):
		m.timer.Reset()
		m.setStatus("", false)
		return m, nil, true

	case key.Matches(msg, m.keys.Longer), key.Matches(msg, m.keys.Shorter):
		if m.timer.Running() {
			m.setStatus("Pause the timer to change its length", true)
			return m, nil, true
		}
		delta := 1
		if key.Matches(msg, m.keys.Shorter) {
			delta = -1
		}
		m.timer.SetMinutes(m.timer.Minutes() + delta)
		return m, nil, true

	case key.Matches(msg, m.keys.Dictate):
		return m.toggleDictation()

	case key.Matches(msg, m.keys.Focus):
		if m.pane == PaneEntries && m.entries.Filtering() {
			return m, nil, false
		}
		if m.pane == PaneEditor {
			m.pane = PaneEntries
			m.editor.Blur()
			return m, nil, true
		}
		m.pane = PaneEditor
		return m, m.editor.Focus(), true

	case key.Matches(msg, m.keys.Help):
		m.help.ShowAll = !m.help.ShowAll
		return m, nil, true
	}
	return m, nil, false
}

func (m Model) updatePane(msg tea.Msg) (tea.Model, tea.Cmd) {
	var cmd tea.Cmd
	if m.pane == PaneEntries {
		m.entries, cmd = m.entries.Update(msg)
		return m, cmd
	}

	before := m.editor.Value()
	m.editor, cmd = m.editor.Update(msg)
	if after := m.editor.Value(); after != before {
		m.ctrl.SetBuffer(after)
	}
	return m, cmd
}

func (m Model) handleTick() (tea.Model, tea.Cmd) {
	cmds := []tea.Cmd{tick()}

	if m.timer.Tick() {
		m.setStatus(constants.TimeUpMessage, false)
		if m.notifier != nil {
			cmds = append(cmds, m.notifyTimeUp())
		}
	}

	m.ticks++
	if m.ticks%refreshEvery == 0 {
		m.refreshEntries()
	}
	return m, tea.Batch(cmds...)
}

func (m Model) notifyTimeUp() tea.Cmd {
	ctx, sender := m.ctx, m.notifier
	return func() tea.Msg {
		return notifiedMsg{err: notifier.TimerExpired(ctx, sender)}
	}
}

func (m Model) generatePrompt() tea.Cmd {
	ctx, ctrl := m.ctx, m.ctrl
	return func() tea.Msg {
		p, err := ctrl.GeneratePrompt(ctx)
		return promptMsg{prompt: p, err: err}
	}
}

// save keeps the buffer on failure; the warning stays until the next action.
func (m *Model) save() {
	if err := m.ctrl.Save(); err != nil {
		switch {
		case errors.Is(err, session.ErrNothingToSave):
			m.setStatus("Nothing to save yet", true)
		case jerrors.IsStorageWarning(err):
			logger.Warn("Save failed", "error", err)
			m.setStatus(fmt.Sprintf("Could not save entry, your text is kept: %v", err), true)
		default:
			logger.Error("Save failed", "error", err)
			m.setStatus(fmt.Sprintf("Could not save entry: %v", err), true)
		}
		return
	}
	m.refreshEntries()
	m.setStatus("Entry saved", false)
}

func (m Model) toggleDictation() (tea.Model, tea.Cmd, bool) {
	if m.transcriber == nil {
		m.setStatus(m.capability.Label(false)+": "+m.capability.Reason(), true)
		return m, nil, true
	}

	if m.transcriber.Running() {
		tr := m.transcriber
		return m, func() tea.Msg {
			tr.Stop()
			return nil
		}, true
	}

	ctx, ch := m.ctx, m.dictationCh
	send := func(msg tea.Msg) {
		select {
		case ch <- msg:
		case <-ctx.Done():
		}
	}
	err := m.transcriber.Start(ctx,
		func(text string) { send(dictationChunkMsg(text)) },
		func(err error) { send(dictationEndMsg{err: err}) },
	)
	if err != nil {
		m.setStatus(fmt.Sprintf("Could not start dictation: %v", err), true)
		return m, nil, true
	}
	m.setStatus("Listening...", false)
	return m, m.listenDictation(), true
}

func (m Model) listenDictation() tea.Cmd {
	if m.dictationCh == nil {
		return nil
	}
	ctx, ch := m.ctx, m.dictationCh
	return func() tea.Msg {
		select {
		case msg := <-ch:
			return msg
		case <-ctx.Done():
			return nil
		}
	}
}

// insertTranscript puts text at the cursor, separated from the preceding
// word by a space.
func (m *Model) insertTranscript(text string) {
	text = strings.TrimSpace(text)
	if text == "" {
		return
	}
	if v := m.editor.Value(); v != "" && !strings.HasSuffix(v, " ") && !strings.HasSuffix(v, "\n") {
		text = " " + text
	}
	m.editor.InsertString(text)
	m.ctrl.SetBuffer(m.editor.Value())
}

func (m Model) requestLoad(entry models.Entry) (tea.Model, tea.Cmd) {
	if !m.ctrl.Dirty() {
		m.loadEntry(entry, nil)
		return m, nil
	}

	m.confirmForm = &confirmLoadForm{entry: entry}
	m.form = newConfirmLoadForm(m.confirmForm)
	m.state = StateConfirmLoad
	return m, m.form.Init()
}

func newConfirmLoadForm(fm *confirmLoadForm) *huh.Form {
	return huh.NewForm(
		huh.NewGroup(
			huh.NewConfirm().
				Title("You have unsaved changes. Load another entry anyway?").
				Description(fmt.Sprintf("Entry for %s will replace what you are writing.", fm.entry.Date)).
				Affirmative("Load").
				Negative("Keep writing").
				Value(&fm.ok),
		),
	).WithTheme(huh.ThemeDracula())
}

func (m Model) updateConfirmLoad(msg tea.Msg) (tea.Model, tea.Cmd) {
	form, cmd := m.form.Update(msg)
	if f, ok := form.(*huh.Form); ok {
		m.form = f
	}

	switch m.form.State {
	case huh.StateCompleted:
		if m.confirmForm.ok {
			m.loadEntry(m.confirmForm.entry, func() bool { return true })
		}
		m.closeConfirm()
		return m, nil
	case huh.StateAborted:
		m.closeConfirm()
		return m, nil
	}
	return m, cmd
}

func (m *Model) closeConfirm() {
	m.state = StateWriting
	m.form = nil
	m.confirmForm = nil
}

func (m *Model) loadEntry(entry models.Entry, confirm session.Confirmer) {
	loaded, err := m.ctrl.LoadEntry(entry, confirm)
	if err != nil {
		m.setStatus(fmt.Sprintf("Could not load entry: %v", err), true)
		return
	}
	if !loaded {
		return
	}
	m.editor.SetValue(entry.Content)
	m.pane = PaneEditor
	m.editor.Focus()
	m.setStatus("Loaded entry for "+entry.Date, false)
}

func (m *Model) resize() {
	h, v := docStyle.GetFrameSize()
	width := m.width - h
	height := m.height - v

	// Header (title, prompt, timer) and footer (status, help) lines plus
	// pane borders.
	paneHeight := height - 8
	if paneHeight < 3 {
		paneHeight = 3
	}

	listWidth := width / 3
	editorWidth := width - listWidth - 4
	if editorWidth < 10 {
		editorWidth = 10
	}

	m.editor.SetWidth(editorWidth)
	m.editor.SetHeight(paneHeight)
	m.entries.SetSize(listWidth, paneHeight)
	m.help.Width = width
}
