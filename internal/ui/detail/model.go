// Package detail renders a single message in a scrollable viewport.
package detail

import (
	"fmt"
	"strings"

	"github.com/charmbracelet/bubbles/key"
	"github.com/charmbracelet/bubbles/viewport"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"github.com/vivasaayi/PersonalMailClient-sub001/internal/keys"
	"github.com/vivasaayi/PersonalMailClient-sub001/internal/model"
	"github.com/vivasaayi/PersonalMailClient-sub001/internal/theme"
)

// BackMsg signals the parent to navigate back to the mailbox view.
type BackMsg struct{}

// DeleteMsg signals the parent to delete the displayed message.
type DeleteMsg struct {
	Sender string
	UID    uint32
}

// Model is the message detail view component.
type Model struct {
	sender  string
	display string
	message *model.EmailSummary

	viewport viewport.Model
	keys     *keys.KeyMap
	width    int
	height   int
}

// New creates a new detail view model.
func New(k *keys.KeyMap, width, height int) Model {
	vp := viewport.New(width, height-2)
	vp.Style = lipgloss.NewStyle()

	return Model{
		viewport: vp,
		keys:     k,
		width:    width,
		height:   height,
	}
}

// Init returns the initial command for the detail view.
func (m Model) Init() tea.Cmd {
	return nil
}

// SetMessage updates the displayed message and re-renders the content.
func (m *Model) SetMessage(sender, display string, msg model.EmailSummary) {
	m.sender = sender
	m.display = display
	m.message = &msg
	m.viewport.SetContent(m.renderContent())
	m.viewport.GotoTop()
}

// Update handles messages for the detail view.
func (m Model) Update(msg tea.Msg) (Model, tea.Cmd) {
	if keyMsg, ok := msg.(tea.KeyMsg); ok {
		switch {
		case key.Matches(keyMsg, m.keys.Back):
			return m, func() tea.Msg {
				return BackMsg{}
			}

		case key.Matches(keyMsg, m.keys.Delete):
			if m.message != nil {
				sender, uid := m.sender, m.message.UID
				return m, func() tea.Msg {
					return DeleteMsg{Sender: sender, UID: uid}
				}
			}
		}
	}

	// Delegate to viewport for scrolling (j/k, up/down, pgup/pgdn)
	var cmd tea.Cmd
	m.viewport, cmd = m.viewport.Update(msg)
	return m, cmd
}

// View renders the detail view.
func (m Model) View() string {
	if m.message == nil {
		emptyStyle := lipgloss.NewStyle().
			Width(m.width).
			Height(m.height).
			Align(lipgloss.Center, lipgloss.Center).
			Foreground(theme.ColorGray)
		return emptyStyle.Render("No message selected")
	}

	return m.viewport.View()
}

// renderContent builds the full detail content string for the viewport.
func (m Model) renderContent() string {
	if m.message == nil {
		return ""
	}

	msg := m.message
	var sections []string

	subject := msg.Subject
	if subject == "" {
		subject = "(no subject)"
	}
	titleStyle := lipgloss.NewStyle().Bold(true).Foreground(theme.ColorWhite)
	sections = append(sections, titleStyle.Render(subject))

	statusBadge := theme.SenderStatusStyle(msg.Status).Render(string(msg.Status))
	badgeLine := statusBadge
	if msg.AnalysisSentiment != "" {
		sentimentBadge := lipgloss.NewStyle().
			Bold(true).
			Padding(0, 1).
			Foreground(theme.ColorMagenta).
			Render(msg.AnalysisSentiment)
		badgeLine = lipgloss.JoinHorizontal(lipgloss.Top, statusBadge, "  ", sentimentBadge)
	}
	sections = append(sections, badgeLine)
	sections = append(sections, "")

	metaStyle := lipgloss.NewStyle().Foreground(theme.ColorGray)
	valStyle := lipgloss.NewStyle().Foreground(theme.ColorWhite)

	from := m.sender
	if m.display != "" && m.display != m.sender {
		from = fmt.Sprintf("%s <%s>", m.display, m.sender)
	}
	sections = append(sections, fmt.Sprintf(
		"%s  %s",
		metaStyle.Render("From:"),
		valStyle.Render(from),
	))
	if !msg.Date.IsZero() {
		sections = append(sections, fmt.Sprintf(
			"%s  %s",
			metaStyle.Render("Date:"),
			valStyle.Render(msg.Date.Format("2006-01-02 15:04")),
		))
	}
	if len(msg.Flags) > 0 {
		sections = append(sections, fmt.Sprintf(
			"%s %s",
			metaStyle.Render("Flags:"),
			valStyle.Render(strings.Join(msg.Flags, ", ")),
		))
	}

	sepStyle := lipgloss.NewStyle().Foreground(theme.ColorSubtle)
	separator := sepStyle.Render(strings.Repeat("─", min(m.width-4, 80)))
	sections = append(sections, "")
	sections = append(sections, separator)
	sections = append(sections, "")

	body := msg.Snippet
	if body == "" {
		body = lipgloss.NewStyle().
			Foreground(theme.ColorGray).
			Italic(true).
			Render("No cached preview")
	}
	sections = append(sections, body)

	if msg.AnalysisSummary != "" {
		sections = append(sections, "")
		sections = append(sections, separator)
		sections = append(sections, "")

		summaryHeaderStyle := lipgloss.NewStyle().
			Bold(true).
			Foreground(theme.ColorWhite)
		sections = append(sections, summaryHeaderStyle.Render("Analysis"))
		sections = append(sections, "")
		sections = append(sections, msg.AnalysisSummary)
	}

	return lipgloss.JoinVertical(lipgloss.Left, sections...)
}

// SetSize updates the detail view dimensions.
func (m *Model) SetSize(width, height int) {
	m.width = width
	m.height = height
	m.viewport.Width = width
	m.viewport.Height = height - 2
}
