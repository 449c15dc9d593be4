package tui

import (
	"fmt"
	"strings"
	"time"

	"github.com/charmbracelet/lipgloss"

	"github.com/julianstephens/jotlit/internal/constants"
)

func (m Model) View() string {
	if m.quitting {
		return ""
	}

	if m.state == StateConfirmLoad && m.form != nil {
		return lipgloss.Place(m.width, m.height, lipgloss.Center, lipgloss.Center, m.form.View())
	}

	current := m.ctrl.Current()

	var b strings.Builder
	b.WriteString(titleStyle.Render(constants.AppName) + " " + mutedStyle.Render(current.Date))
	b.WriteString("\n\n")
	b.WriteString(m.promptView(current.Prompt))
	b.WriteString("\n")
	b.WriteString(m.timerView())
	b.WriteString("\n")

	editorPane, listPane := blurredPaneStyle, blurredPaneStyle
	if m.pane == PaneEditor {
		editorPane = focusedPaneStyle
	} else {
		listPane = focusedPaneStyle
	}
	b.WriteString(lipgloss.JoinHorizontal(lipgloss.Top,
		editorPane.Render(m.editor.View()),
		listPane.Render(m.entries.View()),
	))
	b.WriteString("\n")

	b.WriteString(m.statusView(current.LastSaved))
	b.WriteString("\n")
	b.WriteString(m.help.View(m))

	return docStyle.Render(b.String())
}

func (m Model) promptView(prompt string) string {
	if m.generating {
		return m.spinner.View() + " Generating prompt..."
	}
	if prompt == "" {
		return mutedStyle.Render("Press ctrl+g to generate a prompt")
	}
	return promptStyle.Render(prompt)
}

func (m Model) timerView() string {
	state := "paused"
	if m.timer.Running() {
		state = "running"
	} else if m.timer.Remaining() == 0 {
		state = "done"
	}

	line := timerStyle.Render(m.timer.Display()) +
		mutedStyle.Render(fmt.Sprintf("  %d min · %s", m.timer.Minutes(), state))

	dictation := m.capability.Label(m.dictating())
	if m.transcriber == nil {
		dictation = mutedStyle.Render(dictation)
	}
	return line + "    " + dictation
}

func (m Model) statusView(lastSaved *string) string {
	if m.status != "" {
		if m.warning {
			return warningStyle.Render(m.status)
		}
		if m.status == constants.TimeUpMessage {
			return dangerStyle.Render(m.status)
		}
		return m.status
	}
	if lastSaved != nil {
		if t, err := time.Parse(time.RFC3339, *lastSaved); err == nil {
			return mutedStyle.Render("Last saved " + t.Local().Format("Jan 2 15:04"))
		}
	}
	return mutedStyle.Render("Not saved yet")
}
