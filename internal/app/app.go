// Package app wires the root Bubble Tea model: view routing, global
// keybindings, and the account sync coordinator that owns all
// per-account state.
package app

import (
	"fmt"
	"time"

	tea "github.com/charmbracelet/bubbletea"

	"github.com/vivasaayi/PersonalMailClient-sub001/internal/coordinator"
	"github.com/vivasaayi/PersonalMailClient-sub001/internal/engine"
	"github.com/vivasaayi/PersonalMailClient-sub001/internal/model"
	"github.com/vivasaayi/PersonalMailClient-sub001/internal/ui"
	"github.com/vivasaayi/PersonalMailClient-sub001/internal/ui/connect"
	"github.com/vivasaayi/PersonalMailClient-sub001/internal/ui/detail"
	helpview "github.com/vivasaayi/PersonalMailClient-sub001/internal/ui/help"
	"github.com/vivasaayi/PersonalMailClient-sub001/internal/ui/mailbox"
)

// ViewState represents the current active view in the application.
type ViewState int

const (
	ViewConnect ViewState = iota
	ViewMailbox
	ViewDetail
	ViewHelp
)

// Model is the root Bubble Tea model that manages view routing, layout,
// and the sync coordinator.
type Model struct {
	currentView  ViewState
	previousView ViewState
	layout       ui.Layout
	keys         *KeyMap
	cfg          *model.AppConfig

	coord *coordinator.Coordinator

	connectView connect.Model
	mailbox     mailbox.Model
	detail      detail.Model
	helpView    helpview.Model

	// accountOrder preserves connection order for tab cycling.
	accountOrder []string

	notice model.Notice
	ready  bool
}

// New creates a new root application model over the given engine.
func New(eng engine.Engine, cfg *model.AppConfig) Model {
	keys := DefaultKeyMap()

	return Model{
		currentView: ViewConnect,
		keys:        keys,
		cfg:         cfg,
		coord: coordinator.New(eng, coordinator.Config{
			ChunkSize:     cfg.Sync.ChunkSize,
			PollInterval:  time.Duration(cfg.Sync.PollIntervalSec) * time.Second,
			DefaultWindow: cfg.Sync.DefaultWindow,
		}),
		connectView: connect.New(keys, 80, 24),
		mailbox:     mailbox.New(keys, 80, 24),
		detail:      detail.New(keys, 80, 24),
		helpView:    helpview.New(keys, 80, 24),
	}
}

// Init loads the saved profiles and starts the coordinator's
// subscription loops.
func (m Model) Init() tea.Cmd {
	return tea.Batch(
		m.coord.Listen(),
		m.coord.LoadProfiles(),
	)
}

// Update handles messages and dispatches to the active view.
func (m Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.layout = ui.NewLayout(msg.Width, msg.Height)
		m.ready = true
		contentWidth := m.layout.ContentWidth()
		contentHeight := m.layout.ContentHeight()
		m.connectView.SetSize(contentWidth, contentHeight)
		m.mailbox.SetSize(contentWidth, contentHeight)
		m.detail.SetSize(contentWidth, contentHeight)
		m.helpView.SetSize(contentWidth, contentHeight)
		// Forward to active view so huh forms can calculate their layout.
		return m.updateActiveView(msg)

	case coordinator.AccountConnectedMsg:
		cmd := m.coord.Apply(msg)
		if msg.Err != nil {
			m.connectView.SetFailed(msg.Err)
			return m, cmd
		}
		m.trackAccount(msg.Account.Email)
		m.currentView = ViewMailbox
		return m, tea.Batch(cmd, m.coord.SelectAccount(msg.Account.Email))

	case coordinator.ProfilesLoadedMsg:
		if msg.Err == nil {
			m.connectView.SetProfiles(msg.Profiles)
		}
		return m, nil

	case coordinator.DisconnectedMsg:
		cmd := m.coord.Apply(msg)
		m.untrackAccount(msg.Email)
		if next := m.nextAccount(""); next != "" {
			return m, tea.Batch(cmd, m.coord.SelectAccount(next))
		}
		m.currentView = ViewConnect
		return m, tea.Batch(cmd, m.coord.LoadProfiles())

	case coordinator.NoticeMsg:
		m.notice = msg.Notice
		return m, nil

	case coordinator.SyncCompletedMsg:
		cmd := m.coord.Apply(msg)
		m.refreshMailbox()
		// Expired credentials send the user back to the connect view
		// instead of leaving the account silently erroring.
		if msg.Err != nil && engine.IsAuthError(msg.Err) {
			m.previousView = m.currentView
			m.currentView = ViewConnect
			m.connectView.SetFailed(msg.Err)
			return m, tea.Batch(cmd, m.coord.LoadProfiles())
		}
		return m, cmd

	case coordinator.CountFetchedMsg,
		coordinator.WindowFetchedMsg,
		coordinator.GroupsFetchedMsg,
		coordinator.ProgressMsg,
		coordinator.PollTickMsg,
		coordinator.StatusChangedMsg,
		coordinator.MessageDeletedMsg,
		coordinator.BulkDeleteSubmittedMsg,
		coordinator.BlockFilterAppliedMsg:
		cmd := m.coord.Apply(msg)
		m.refreshMailbox()
		return m, cmd

	case mailbox.ToggleSenderMsg:
		selected := m.coord.Selected()
		if m.coord.Expanded(selected) == msg.Sender {
			m.coord.ExpandSender(selected, "")
		} else {
			m.coord.ExpandSender(selected, msg.Sender)
		}
		m.refreshMailbox()
		return m, nil

	case mailbox.OpenMessageMsg:
		if group, message, ok := m.findMessage(msg.Sender, msg.UID); ok {
			m.detail.SetMessage(group.SenderEmail, group.SenderDisplay, message)
			m.previousView = m.currentView
			m.currentView = ViewDetail
		}
		return m, nil

	case detail.BackMsg:
		m.currentView = ViewMailbox
		return m, nil

	case detail.DeleteMsg:
		m.currentView = ViewMailbox
		cmd := m.coord.DeleteMessage(m.coord.Selected(), msg.Sender, msg.UID)
		m.refreshMailbox()
		return m, cmd

	case connect.RequestMsg:
		return m, m.coord.Connect(msg.Creds)

	case connect.RequestProfileMsg:
		return m, m.coord.ConnectProfile(msg.ProfileID, msg.Email)

	case connect.DoneMsg:
		if len(m.accountOrder) > 0 {
			m.currentView = ViewMailbox
		}
		return m, nil

	case tea.KeyMsg:
		// A focused text input owns every key except the kill switch;
		// single-letter actions must not fire while the user is typing.
		if m.capturingInput() && msg.String() != "ctrl+c" {
			return m.updateActiveView(msg)
		}
		if newModel, cmd, handled := m.handleGlobalKeys(msg); handled {
			return newModel, cmd
		}
	}

	// Delegate to active sub-view
	return m.updateActiveView(msg)
}

// handleGlobalKeys processes keys that work regardless of the focused
// component. Returns handled=false for keys the active view should see.
func (m Model) handleGlobalKeys(msg tea.KeyMsg) (tea.Model, tea.Cmd, bool) {
	switch msg.String() {
	case "ctrl+c":
		m.coord.Teardown()
		return m, tea.Quit, true

	case "q":
		if m.currentView == ViewMailbox {
			m.coord.Teardown()
			return m, tea.Quit, true
		}

	case "?":
		if m.currentView == ViewHelp {
			m.currentView = m.previousView
			return m, nil, true
		}
		if m.currentView == ViewMailbox {
			m.previousView = m.currentView
			m.currentView = ViewHelp
			return m, nil, true
		}

	case "a":
		if m.currentView == ViewMailbox {
			m.previousView = m.currentView
			m.currentView = ViewConnect
			return m, m.coord.LoadProfiles(), true
		}

	case "tab":
		if m.currentView == ViewMailbox {
			if next := m.nextAccount(m.coord.Selected()); next != "" {
				cmd := m.coord.SelectAccount(next)
				m.refreshMailbox()
				return m, cmd, true
			}
			return m, nil, true
		}

	case "r":
		if m.currentView == ViewMailbox {
			if selected := m.coord.Selected(); selected != "" {
				return m, m.coord.RunIncremental(selected, false), true
			}
		}

	case "R":
		if m.currentView == ViewMailbox {
			if selected := m.coord.Selected(); selected != "" {
				return m, m.coord.RunFullSync(selected), true
			}
		}

	case "p":
		if m.currentView == ViewMailbox {
			if selected := m.coord.Selected(); selected != "" {
				return m, m.coord.ConfigurePeriodicSync(selected, m.nextSyncInterval(selected)), true
			}
		}

	case "w":
		return m.changeSelectedSender(model.SenderAllowed)

	case "b":
		return m.changeSelectedSender(model.SenderBlocked)

	case "n":
		return m.changeSelectedSender(model.SenderNeutral)

	case "d":
		if m.currentView == ViewMailbox {
			if sender, message, ok := m.mailbox.SelectedMessage(); ok {
				cmd := m.coord.DeleteMessage(m.coord.Selected(), sender, message.UID)
				m.refreshMailbox()
				return m, cmd, true
			}
			return m, nil, true
		}

	case "D":
		if m.currentView == ViewMailbox {
			if sender, ok := m.mailbox.SelectedSender(); ok {
				cmd := m.coord.DeleteSenderMessages(m.coord.Selected(), sender)
				m.refreshMailbox()
				return m, cmd, true
			}
			return m, nil, true
		}

	case "B":
		if m.currentView == ViewMailbox {
			if selected := m.coord.Selected(); selected != "" {
				return m, m.coord.ApplyBlockFilter(selected, m.cfg.Sync.BlockFolder), true
			}
		}

	case "X":
		if m.currentView == ViewMailbox {
			if selected := m.coord.Selected(); selected != "" {
				return m, m.coord.Disconnect(selected), true
			}
		}
	}

	return m, nil, false
}

// capturingInput reports whether the active view is consuming raw text
// input, so global single-letter keys must be suppressed.
func (m Model) capturingInput() bool {
	return m.currentView == ViewMailbox && m.mailbox.CapturingInput()
}

// syncIntervalPresets are the background intervals, in minutes, that
// the p key cycles through.
var syncIntervalPresets = []int{1, 5, 15, 30, 60}

// nextSyncInterval returns the preset after the account's current
// interval, wrapping to the shortest.
func (m Model) nextSyncInterval(email string) int {
	current := int(m.coord.SyncInterval(email) / time.Minute)
	for _, p := range syncIntervalPresets {
		if p > current {
			return p
		}
	}
	return syncIntervalPresets[0]
}

// changeSelectedSender applies a sender status change to the sender
// under the mailbox cursor.
func (m Model) changeSelectedSender(status model.SenderStatus) (tea.Model, tea.Cmd, bool) {
	if m.currentView != ViewMailbox {
		return m, nil, false
	}
	sender, ok := m.mailbox.SelectedSender()
	if !ok {
		return m, nil, true
	}
	cmd := m.coord.ChangeSenderStatus(m.coord.Selected(), sender, status)
	m.refreshMailbox()
	return m, cmd, true
}

// updateActiveView dispatches the message to the currently active view.
func (m Model) updateActiveView(msg tea.Msg) (tea.Model, tea.Cmd) {
	var cmd tea.Cmd

	switch m.currentView {
	case ViewConnect:
		m.connectView, cmd = m.connectView.Update(msg)
	case ViewMailbox:
		m.mailbox, cmd = m.mailbox.Update(msg)
	case ViewDetail:
		m.detail, cmd = m.detail.Update(msg)
	case ViewHelp:
		m.helpView, cmd = m.helpView.Update(msg)
	}

	return m, cmd
}

// refreshMailbox pushes the selected account's reconciled groups into
// the mailbox view.
func (m *Model) refreshMailbox() {
	selected := m.coord.Selected()
	m.mailbox.SetGroups(m.coord.Groups(selected), m.coord.Expanded(selected))
}

// findMessage locates a message in the selected account's groups.
func (m Model) findMessage(sender string, uid uint32) (model.SenderGroup, model.EmailSummary, bool) {
	for _, g := range m.coord.Groups(m.coord.Selected()) {
		if g.SenderEmail != sender {
			continue
		}
		for _, msg := range g.Messages {
			if msg.UID == uid {
				return g, msg, true
			}
		}
	}
	return model.SenderGroup{}, model.EmailSummary{}, false
}

// trackAccount appends the account to the tab-cycle order once.
func (m *Model) trackAccount(email string) {
	for _, e := range m.accountOrder {
		if e == email {
			return
		}
	}
	m.accountOrder = append(m.accountOrder, email)
}

// untrackAccount removes the account from the tab-cycle order.
func (m *Model) untrackAccount(email string) {
	for i, e := range m.accountOrder {
		if e == email {
			m.accountOrder = append(m.accountOrder[:i], m.accountOrder[i+1:]...)
			return
		}
	}
}

// nextAccount returns the account after current in connection order,
// wrapping around; with an empty current it returns the first account.
func (m Model) nextAccount(current string) string {
	if len(m.accountOrder) == 0 {
		return ""
	}
	if current == "" {
		return m.accountOrder[0]
	}
	for i, e := range m.accountOrder {
		if e == current {
			return m.accountOrder[(i+1)%len(m.accountOrder)]
		}
	}
	return m.accountOrder[0]
}

// View renders the full terminal UI using the layout manager.
func (m Model) View() string {
	if !m.ready {
		return "Loading..."
	}

	header := m.layout.RenderHeader(m.headerTitle(), m.syncStatus())
	content := m.renderContent()
	statusBar := m.layout.RenderStatusBar(m.keyHints(), m.noticeText())

	return m.layout.RenderWithFrame(header, content, statusBar)
}

// headerTitle names the application and the selected account.
func (m Model) headerTitle() string {
	selected := m.coord.Selected()
	if selected == "" {
		return "Mail Client"
	}
	if len(m.accountOrder) > 1 {
		return fmt.Sprintf("Mail Client — %s (%d accounts)", selected, len(m.accountOrder))
	}
	return "Mail Client — " + selected
}

// renderContent returns the rendered string for the current active view.
func (m Model) renderContent() string {
	switch m.currentView {
	case ViewConnect:
		return m.connectView.View()
	case ViewMailbox:
		return m.mailbox.View()
	case ViewDetail:
		return m.detail.View()
	case ViewHelp:
		return m.helpView.View()
	default:
		return ""
	}
}

// syncStatus returns a short string describing the selected account's
// sync state for the header.
func (m Model) syncStatus() string {
	selected := m.coord.Selected()
	if selected == "" {
		return "no account"
	}

	if p := m.coord.Progress(selected); p != nil {
		if p.TotalBatches > 0 {
			return fmt.Sprintf("syncing %d/%d batches (%d fetched)",
				p.Batch, p.TotalBatches, p.Fetched)
		}
		return fmt.Sprintf("syncing (%d fetched)", p.Fetched)
	}

	state := m.coord.RuntimeState(selected)
	switch state.Status {
	case model.AccountSyncing:
		return "syncing"
	case model.AccountError:
		return "sync error"
	case model.AccountConnecting:
		return "connecting"
	}

	if !state.LastSync.IsZero() {
		return "synced " + state.LastSync.Format("15:04")
	}
	return "idle"
}

// noticeText renders the latest notice for the status bar.
func (m Model) noticeText() string {
	if m.notice.Message == "" {
		return ""
	}
	return m.notice.Message
}

// keyHints returns keyboard shortcut hints for the status bar.
func (m Model) keyHints() string {
	switch m.currentView {
	case ViewHelp:
		return "? close help | esc back"
	case ViewDetail:
		return "esc back | d delete | j/k scroll"
	case ViewConnect:
		return "a add | enter connect | esc back"
	default:
		return "q quit | ? help | / search | r sync | R full sync | p interval | tab account | enter expand"
	}
}
