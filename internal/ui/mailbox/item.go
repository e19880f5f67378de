package mailbox

import (
	"fmt"
	"io"
	"strings"
	"time"

	"github.com/charmbracelet/bubbles/list"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"github.com/vivasaayi/PersonalMailClient-sub001/internal/model"
	"github.com/vivasaayi/PersonalMailClient-sub001/internal/theme"
)

// senderRow is a list row for one sender group.
type senderRow struct {
	group    model.SenderGroup
	expanded bool
}

// FilterValue returns the string used for fuzzy filtering.
func (r senderRow) FilterValue() string {
	return r.group.SenderDisplay + " " + r.group.SenderEmail
}

// messageRow is a list row for one message under an expanded sender.
type messageRow struct {
	sender  string
	message model.EmailSummary
}

// FilterValue returns the string used for fuzzy filtering.
func (r messageRow) FilterValue() string {
	return r.message.Subject
}

// rowDelegate renders sender and message rows.
type rowDelegate struct{}

// Height returns the number of lines each row takes.
func (d rowDelegate) Height() int { return 1 }

// Spacing returns the number of blank lines between rows.
func (d rowDelegate) Spacing() int { return 0 }

// Update handles per-row messages (unused).
func (d rowDelegate) Update(_ tea.Msg, _ *list.Model) tea.Cmd {
	return nil
}

// Render draws a single row.
func (d rowDelegate) Render(w io.Writer, m list.Model, index int, item list.Item) {
	isSelected := index == m.Index()

	switch row := item.(type) {
	case senderRow:
		d.renderSender(w, row, isSelected)
	case messageRow:
		d.renderMessage(w, row, isSelected)
	}
}

// renderSender draws one sender group line.
func (d rowDelegate) renderSender(w io.Writer, row senderRow, isSelected bool) {
	marker := "▸"
	if row.expanded {
		marker = "▾"
	}

	g := row.group
	statusBadge := theme.SenderStatusStyle(g.Status).Render(string(g.Status))

	display := g.SenderDisplay
	if display == "" {
		display = g.SenderEmail
	}
	if display != g.SenderEmail {
		display = fmt.Sprintf("%s <%s>", display, g.SenderEmail)
	}

	count := lipgloss.NewStyle().
		Foreground(theme.ColorGray).
		Render(fmt.Sprintf("(%d)", g.MessageCount))

	line := fmt.Sprintf("%s %s %s %s", marker, statusBadge, display, count)

	if g.Status == model.SenderBlocked {
		line = lipgloss.NewStyle().Foreground(theme.ColorGray).Render(line)
	}

	if isSelected {
		line = theme.SelectedItemStyle.Render(line)
	} else {
		line = theme.ListItemStyle.Render(line)
	}

	fmt.Fprint(w, line)
}

// renderMessage draws one message line under its expanded sender.
func (d rowDelegate) renderMessage(w io.Writer, row messageRow, isSelected bool) {
	msg := row.message

	subject := msg.Subject
	if subject == "" {
		subject = "(no subject)"
	}

	timeStr := lipgloss.NewStyle().
		Foreground(theme.ColorGray).
		Render(relativeTime(msg.Date))

	sentiment := ""
	if msg.AnalysisSentiment != "" {
		sentiment = lipgloss.NewStyle().
			Foreground(theme.ColorMagenta).
			Render(" [" + msg.AnalysisSentiment + "]")
	}

	snippet := ""
	if msg.Snippet != "" {
		snippet = lipgloss.NewStyle().
			Foreground(theme.ColorGray).
			Render("  " + truncate(msg.Snippet, 48))
	}

	line := fmt.Sprintf("    • %s%s %s%s", subject, sentiment, timeStr, snippet)

	if isSelected {
		line = theme.SelectedItemStyle.Render(line)
	} else {
		line = theme.ListItemStyle.Render(line)
	}

	fmt.Fprint(w, line)
}

// truncate shortens s to at most n runes, appending an ellipsis.
func truncate(s string, n int) string {
	s = strings.ReplaceAll(s, "\n", " ")
	runes := []rune(s)
	if len(runes) <= n {
		return s
	}
	return string(runes[:n]) + "…"
}

// relativeTime returns a human-friendly relative time string.
func relativeTime(t time.Time) string {
	if t.IsZero() {
		return ""
	}

	d := time.Since(t)
	switch {
	case d < time.Minute:
		return "just now"
	case d < time.Hour:
		mins := int(d.Minutes())
		if mins == 1 {
			return "1m ago"
		}
		return fmt.Sprintf("%dm ago", mins)
	case d < 24*time.Hour:
		hrs := int(d.Hours())
		if hrs == 1 {
			return "1h ago"
		}
		return fmt.Sprintf("%dh ago", hrs)
	case d < 7*24*time.Hour:
		days := int(d.Hours() / 24)
		if days == 1 {
			return "1d ago"
		}
		return fmt.Sprintf("%dd ago", days)
	default:
		weeks := int(d.Hours() / 24 / 7)
		if weeks == 1 {
			return "1w ago"
		}
		return fmt.Sprintf("%dw ago", weeks)
	}
}
