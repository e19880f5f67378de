// Package mailbox renders the selected account's sender-grouped message
// list: one row per sender, expandable in place to the sender's cached
// messages.
package mailbox

import (
	"strings"

	"github.com/charmbracelet/bubbles/key"
	"github.com/charmbracelet/bubbles/list"
	"github.com/charmbracelet/bubbles/textinput"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"github.com/vivasaayi/PersonalMailClient-sub001/internal/keys"
	"github.com/vivasaayi/PersonalMailClient-sub001/internal/model"
	"github.com/vivasaayi/PersonalMailClient-sub001/internal/theme"
)

// ToggleSenderMsg is sent when the user expands or collapses a sender.
type ToggleSenderMsg struct {
	Sender string
}

// OpenMessageMsg is sent when the user opens a message row.
type OpenMessageMsg struct {
	Sender string
	UID    uint32
}

// Model is the sender-grouped mailbox view component.
type Model struct {
	list        list.Model
	keys        *keys.KeyMap
	groups      []model.SenderGroup
	expanded    string
	query       string
	searchMode  bool
	searchInput textinput.Model
	width       int
	height      int
}

// New creates a new mailbox model.
func New(k *keys.KeyMap, width, height int) Model {
	l := list.New([]list.Item{}, rowDelegate{}, width, height-2)
	l.Title = "Senders"
	l.SetShowStatusBar(true)
	l.SetShowHelp(false)
	l.SetFilteringEnabled(false)
	l.Styles.Title = theme.HeaderStyle

	si := textinput.New()
	si.Placeholder = "search senders..."
	si.Prompt = "/ "
	si.Width = width - 4

	return Model{
		list:        l,
		keys:        k,
		searchInput: si,
		width:       width,
		height:      height,
	}
}

// SetGroups replaces the rendered groups and the expanded sender,
// preserving the cursor position where possible.
func (m *Model) SetGroups(groups []model.SenderGroup, expanded string) {
	m.groups = groups
	m.expanded = expanded
	m.rebuild()
}

// rebuild flattens groups (filtered by the active query) into list rows.
func (m *Model) rebuild() {
	var items []list.Item
	q := strings.ToLower(m.query)

	for _, g := range m.groups {
		if q != "" &&
			!strings.Contains(strings.ToLower(g.SenderEmail), q) &&
			!strings.Contains(strings.ToLower(g.SenderDisplay), q) {
			continue
		}

		open := g.SenderEmail == m.expanded
		items = append(items, senderRow{group: g, expanded: open})
		if open {
			for _, msg := range g.Messages {
				items = append(items, messageRow{sender: g.SenderEmail, message: msg})
			}
		}
	}

	idx := m.list.Index()
	m.list.SetItems(items)
	if idx < len(items) {
		m.list.Select(idx)
	}
}

// CapturingInput reports whether the view is consuming raw text input,
// meaning single-letter action keys must not fire.
func (m Model) CapturingInput() bool {
	return m.searchMode
}

// SelectedSender returns the sender email the cursor is on: the row's
// own sender for group rows, the owning sender for message rows.
func (m Model) SelectedSender() (string, bool) {
	switch row := m.list.SelectedItem().(type) {
	case senderRow:
		return row.group.SenderEmail, true
	case messageRow:
		return row.sender, true
	}
	return "", false
}

// SelectedMessage returns the message under the cursor, if the cursor
// is on a message row.
func (m Model) SelectedMessage() (string, model.EmailSummary, bool) {
	if row, ok := m.list.SelectedItem().(messageRow); ok {
		return row.sender, row.message, true
	}
	return "", model.EmailSummary{}, false
}

// Update handles messages for the mailbox view.
func (m Model) Update(msg tea.Msg) (Model, tea.Cmd) {
	if keyMsg, ok := msg.(tea.KeyMsg); ok {
		if m.searchMode {
			return m.handleSearchKeys(keyMsg)
		}
		return m.handleNormalKeys(keyMsg)
	}

	var cmd tea.Cmd
	m.list, cmd = m.list.Update(msg)
	return m, cmd
}

// handleSearchKeys processes key input while in search mode.
func (m Model) handleSearchKeys(msg tea.KeyMsg) (Model, tea.Cmd) {
	switch msg.String() {
	case "enter":
		m.searchMode = false
		m.query = m.searchInput.Value()
		m.rebuild()
		return m, nil

	case "esc":
		m.searchMode = false
		m.searchInput.Reset()
		m.query = ""
		m.rebuild()
		return m, nil
	}

	var cmd tea.Cmd
	m.searchInput, cmd = m.searchInput.Update(msg)
	return m, cmd
}

// handleNormalKeys processes key input in normal (non-search) mode.
func (m Model) handleNormalKeys(msg tea.KeyMsg) (Model, tea.Cmd) {
	switch {
	case key.Matches(msg, m.keys.Select):
		switch row := m.list.SelectedItem().(type) {
		case senderRow:
			sender := row.group.SenderEmail
			return m, func() tea.Msg {
				return ToggleSenderMsg{Sender: sender}
			}
		case messageRow:
			sender, uid := row.sender, row.message.UID
			return m, func() tea.Msg {
				return OpenMessageMsg{Sender: sender, UID: uid}
			}
		}
		return m, nil

	case key.Matches(msg, m.keys.Search):
		m.searchMode = true
		m.searchInput.Reset()
		return m, m.searchInput.Focus()
	}

	// Delegate to the list for navigation keys (up/down/pgup/pgdn)
	var cmd tea.Cmd
	m.list, cmd = m.list.Update(msg)
	return m, cmd
}

// View renders the mailbox view.
func (m Model) View() string {
	if m.searchMode {
		searchBar := lipgloss.NewStyle().
			Foreground(theme.ColorWhite).
			Padding(0, 1).
			Render(m.searchInput.View())
		return lipgloss.JoinVertical(lipgloss.Left, searchBar, m.list.View())
	}

	if len(m.list.Items()) == 0 {
		return m.renderEmptyState()
	}

	return m.list.View()
}

// renderEmptyState shows guidance text when no senders are available.
func (m Model) renderEmptyState() string {
	style := lipgloss.NewStyle().
		Width(m.width).
		Height(m.height).
		Align(lipgloss.Center, lipgloss.Center).
		Foreground(theme.ColorGray)

	if m.query != "" {
		return style.Render("No matching senders.\nPress / to adjust the search.")
	}

	return style.Render(
		"No cached messages yet.\n\n" +
			"Press r to sync, or a to add an account.",
	)
}

// SetSize updates the list dimensions.
func (m *Model) SetSize(width, height int) {
	m.width = width
	m.height = height
	m.list.SetSize(width, height-2)
	m.searchInput.Width = width - 4
}
