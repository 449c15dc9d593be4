package entrylist

import (
	"github.com/charmbracelet/bubbles/key"
	"github.com/charmbracelet/bubbles/list"
	tea "github.com/charmbracelet/bubbletea"

	"github.com/julianstephens/jotlit/internal/constants"
	"github.com/julianstephens/jotlit/internal/models"
)

// LoadEntryMsg asks the parent to make Entry the current one.
type LoadEntryMsg struct {
	Entry models.Entry
}

type Item struct {
	Entry models.Entry
}

func (i Item) Title() string       { return i.Entry.Date }
func (i Item) Description() string { return i.Entry.PromptPreview(constants.PromptPreviewLength) }
func (i Item) FilterValue() string { return i.Entry.Date + " " + i.Entry.Prompt }

type KeyMap struct {
	Load key.Binding
}

func DefaultKeyMap() KeyMap {
	return KeyMap{
		Load: key.NewBinding(
			key.WithKeys("enter"),
			key.WithHelp("enter", "load entry"),
		),
	}
}

type Model struct {
	list list.Model
	keys KeyMap
}

// New expects entries already ordered newest first.
func New(entries []models.Entry, width, height int) Model {
	l := list.New(toItems(entries), list.NewDefaultDelegate(), width, height)
	l.Title = "Saved entries"
	l.SetShowTitle(false)
	l.SetShowHelp(false)
	l.SetShowStatusBar(false)

	keys := DefaultKeyMap()
	l.AdditionalShortHelpKeys = func() []key.Binding {
		return []key.Binding{keys.Load}
	}

	return Model{list: l, keys: keys}
}

func toItems(entries []models.Entry) []list.Item {
	items := make([]list.Item, len(entries))
	for i, e := range entries {
		items[i] = Item{Entry: e}
	}
	return items
}

// SetEntries replaces the list, keeping the selection on the same date when
// it is still present.
func (m *Model) SetEntries(entries []models.Entry) {
	selected := ""
	if i, ok := m.list.SelectedItem().(Item); ok {
		selected = i.Entry.Date
	}
	m.list.SetItems(toItems(entries))
	for idx, e := range entries {
		if e.Date == selected {
			m.list.Select(idx)
			break
		}
	}
}

func (m Model) Len() int {
	return len(m.list.Items())
}

func (m Model) Init() tea.Cmd {
	return nil
}

func (m Model) Update(msg tea.Msg) (Model, tea.Cmd) {
	var cmd tea.Cmd

	if msg, ok := msg.(tea.KeyMsg); ok && m.list.FilterState() != list.Filtering {
		if key.Matches(msg, m.keys.Load) {
			if i, ok := m.list.SelectedItem().(Item); ok {
				return m, func() tea.Msg { return LoadEntryMsg{Entry: i.Entry} }
			}
			return m, nil
		}
	}

	m.list, cmd = m.list.Update(msg)
	return m, cmd
}

func (m Model) View() string {
	if len(m.list.Items()) == 0 && m.list.FilterState() != list.Filtering {
		return "\n  No saved entries yet."
	}
	return m.list.View()
}

func (m *Model) SetSize(width, height int) {
	m.list.SetSize(width, height)
}

// Filtering reports whether the user is typing a filter, so the parent can
// leave keys such as esc to the list.
func (m Model) Filtering() bool {
	return m.list.FilterState() == list.Filtering
}
