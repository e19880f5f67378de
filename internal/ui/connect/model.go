// Package connect implements the account connection view: the saved
// profile list, the add-account form, and the connection spinner.
package connect

import (
	"fmt"
	"strings"

	"github.com/charmbracelet/bubbles/key"
	"github.com/charmbracelet/bubbles/spinner"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/huh"
	"github.com/charmbracelet/lipgloss"

	"github.com/vivasaayi/PersonalMailClient-sub001/internal/engine"
	"github.com/vivasaayi/PersonalMailClient-sub001/internal/keys"
	"github.com/vivasaayi/PersonalMailClient-sub001/internal/model"
	"github.com/vivasaayi/PersonalMailClient-sub001/internal/theme"
)

// Mode represents the current state of the connect view.
type Mode int

const (
	ModeProfiles       Mode = iota // List saved profiles
	ModeSelectProvider             // Select provider for a new account
	ModeForm                       // Credentials form
	ModeConnecting                 // Connection in flight
)

// DoneMsg signals the connect view should close.
type DoneMsg struct{}

// RequestMsg asks the parent to connect with explicit credentials.
type RequestMsg struct {
	Creds engine.Credentials
}

// RequestProfileMsg asks the parent to connect a saved profile.
type RequestProfileMsg struct {
	ProfileID string
	Email     string
}

// Model is the Bubble Tea model for the connect view.
type Model struct {
	mode        Mode
	profiles    []model.Profile
	selectedIdx int

	providerSelect *huh.Form
	credsForm      *huh.Form

	// Form field values (huh binds to these)
	formProvider string
	formEmail    string
	formPassword string
	formHost     string
	formPort     string
	formTLS      bool

	connectingEmail string
	spinner         spinner.Model
	statusMsg       string

	keys          *keys.KeyMap
	width, height int
}

// New creates a new connect view model.
func New(k *keys.KeyMap, width, height int) Model {
	sp := spinner.New()
	sp.Spinner = spinner.Dot

	return Model{
		mode:    ModeProfiles,
		keys:    k,
		spinner: sp,
		width:   width,
		height:  height,
	}
}

// Init returns the initial command for the connect view.
func (m Model) Init() tea.Cmd {
	return nil
}

// SetProfiles replaces the saved profile list.
func (m *Model) SetProfiles(profiles []model.Profile) {
	m.profiles = profiles
	if m.selectedIdx >= len(profiles) {
		m.selectedIdx = 0
	}
}

// SetConnecting flips the view into the in-flight spinner state.
func (m *Model) SetConnecting(email string) {
	m.mode = ModeConnecting
	m.connectingEmail = email
}

// SetFailed returns to the profile list with an error status after a
// failed connection attempt.
func (m *Model) SetFailed(err error) {
	m.mode = ModeProfiles
	m.statusMsg = fmt.Sprintf("Connection failed: %v", err)
}

// Update handles messages and dispatches based on current mode.
func (m Model) Update(msg tea.Msg) (Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.height = msg.Height
		return m, nil

	case spinner.TickMsg:
		if m.mode == ModeConnecting {
			var cmd tea.Cmd
			m.spinner, cmd = m.spinner.Update(msg)
			return m, cmd
		}
		return m, nil

	case tea.KeyMsg:
		return m.handleKeyMsg(msg)
	}

	return m.updateActiveForm(msg)
}

// handleKeyMsg processes key messages based on the current mode.
func (m Model) handleKeyMsg(msg tea.KeyMsg) (Model, tea.Cmd) {
	switch m.mode {
	case ModeProfiles:
		return m.handleProfileKeys(msg)
	case ModeSelectProvider:
		return m.updateProviderSelect(msg)
	case ModeForm:
		return m.updateCredsForm(msg)
	case ModeConnecting:
		// Connection commands are not cancellable mid-flight; only the
		// view can be left.
		if msg.String() == "esc" {
			m.mode = ModeProfiles
			return m, nil
		}
		return m, nil
	}
	return m, nil
}

// handleProfileKeys processes key events in the profile list mode.
func (m Model) handleProfileKeys(msg tea.KeyMsg) (Model, tea.Cmd) {
	switch {
	case key.Matches(msg, m.keys.Back):
		return m, func() tea.Msg { return DoneMsg{} }

	case key.Matches(msg, m.keys.AddAccount):
		m.statusMsg = ""
		m.formProvider = string(model.ProviderGmail)
		m.providerSelect = m.buildProviderForm()
		m.mode = ModeSelectProvider
		return m, m.providerSelect.Init()

	case msg.String() == "enter":
		if len(m.profiles) == 0 {
			return m, nil
		}
		profile := m.profiles[m.selectedIdx]
		m.SetConnecting(profile.Email)
		return m, tea.Batch(
			m.spinner.Tick,
			func() tea.Msg { return RequestProfileMsg{ProfileID: profile.ID, Email: profile.Email} },
		)

	case key.Matches(msg, m.keys.Down):
		if len(m.profiles) > 0 {
			m.selectedIdx = (m.selectedIdx + 1) % len(m.profiles)
		}
		return m, nil

	case key.Matches(msg, m.keys.Up):
		if len(m.profiles) > 0 {
			m.selectedIdx--
			if m.selectedIdx < 0 {
				m.selectedIdx = len(m.profiles) - 1
			}
		}
		return m, nil
	}

	return m, nil
}

// updateActiveForm dispatches non-key messages to the active form.
func (m Model) updateActiveForm(msg tea.Msg) (Model, tea.Cmd) {
	switch m.mode {
	case ModeSelectProvider:
		return m.updateProviderSelect(msg)
	case ModeForm:
		return m.updateCredsForm(msg)
	}
	return m, nil
}

// --- Provider Selection ---

func (m Model) buildProviderForm() *huh.Form {
	return huh.NewForm(
		huh.NewGroup(
			huh.NewSelect[string]().
				Title("Select Provider").
				Description("Choose the mail provider for the new account").
				Options(
					huh.NewOption("Gmail", string(model.ProviderGmail)),
					huh.NewOption("Outlook", string(model.ProviderOutlook)),
					huh.NewOption("Other IMAP server", string(model.ProviderIMAP)),
				).
				Value(&m.formProvider),
		),
	).WithWidth(m.formWidth())
}

func (m Model) updateProviderSelect(msg tea.Msg) (Model, tea.Cmd) {
	if m.providerSelect == nil {
		return m, nil
	}

	mdl, cmd := m.providerSelect.Update(msg)
	if f, ok := mdl.(*huh.Form); ok {
		m.providerSelect = f
	}

	if m.providerSelect.State == huh.StateCompleted {
		m.resetFormFields()
		m.credsForm = m.buildCredsForm()
		m.mode = ModeForm
		return m, m.credsForm.Init()
	}
	if m.providerSelect.State == huh.StateAborted {
		m.mode = ModeProfiles
		return m, nil
	}

	return m, cmd
}

// --- Credentials Form ---

func (m *Model) buildCredsForm() *huh.Form {
	fields := []huh.Field{
		huh.NewInput().
			Title("Email").
			Description("The account's email address").
			Placeholder("user@example.com").
			Value(&m.formEmail).
			Validate(validateEmail),
		huh.NewInput().
			Title("Password").
			Description("Account password or app password").
			EchoMode(huh.EchoModePassword).
			Value(&m.formPassword).
			Validate(validateRequired("Password")),
	}

	// Known providers resolve their own host and port.
	if m.formProvider == string(model.ProviderIMAP) {
		fields = append(fields,
			huh.NewInput().
				Title("IMAP Host").
				Description("IMAP server hostname").
				Placeholder("imap.example.com").
				Value(&m.formHost).
				Validate(validateRequired("IMAP Host")),
			huh.NewInput().
				Title("IMAP Port").
				Description("IMAP server port (e.g., 993)").
				Placeholder("993").
				Value(&m.formPort).
				Validate(validatePort),
			huh.NewConfirm().
				Title("Use TLS").
				Description("Enable TLS encryption for connections").
				Affirmative("Yes").
				Negative("No").
				Value(&m.formTLS),
		)
	}

	return huh.NewForm(huh.NewGroup(fields...)).WithWidth(m.formWidth())
}

func (m Model) updateCredsForm(msg tea.Msg) (Model, tea.Cmd) {
	if m.credsForm == nil {
		return m, nil
	}

	mdl, cmd := m.credsForm.Update(msg)
	if f, ok := mdl.(*huh.Form); ok {
		m.credsForm = f
	}

	if m.credsForm.State == huh.StateCompleted {
		creds := engine.Credentials{
			Email:    strings.TrimSpace(m.formEmail),
			Password: m.formPassword,
			Provider: model.Provider(m.formProvider),
			Host:     strings.TrimSpace(m.formHost),
			Port:     strings.TrimSpace(m.formPort),
			TLS:      m.formTLS,
		}
		m.SetConnecting(creds.Email)
		return m, tea.Batch(
			m.spinner.Tick,
			func() tea.Msg { return RequestMsg{Creds: creds} },
		)
	}
	if m.credsForm.State == huh.StateAborted {
		m.mode = ModeProfiles
		return m, nil
	}

	return m, cmd
}

// --- View ---

// View renders the connect view based on the current mode.
func (m Model) View() string {
	switch m.mode {
	case ModeProfiles:
		return m.viewProfiles()
	case ModeSelectProvider:
		return m.viewForm(m.providerSelect)
	case ModeForm:
		return m.viewForm(m.credsForm)
	case ModeConnecting:
		return m.viewConnecting()
	default:
		return ""
	}
}

func (m Model) viewProfiles() string {
	var b strings.Builder

	titleStyle := lipgloss.NewStyle().
		Bold(true).
		Foreground(theme.ColorWhite).
		MarginBottom(1)

	b.WriteString(titleStyle.Render("Accounts"))
	b.WriteString("\n\n")

	if len(m.profiles) == 0 {
		emptyStyle := lipgloss.NewStyle().
			Foreground(theme.ColorGray).
			Italic(true)
		b.WriteString(emptyStyle.Render(
			"No saved accounts.\nPress 'a' to add an account.",
		))
	} else {
		for i, profile := range m.profiles {
			b.WriteString(m.renderProfileItem(i, profile))
			b.WriteString("\n")
		}
	}

	if m.statusMsg != "" {
		b.WriteString("\n")
		statusStyle := lipgloss.NewStyle().
			Foreground(theme.ColorYellow).
			Italic(true)
		b.WriteString(statusStyle.Render(m.statusMsg))
	}

	b.WriteString("\n\n")
	hintStyle := lipgloss.NewStyle().Foreground(theme.ColorGray)
	b.WriteString(hintStyle.Render(
		"a add | enter connect | esc back",
	))

	return lipgloss.NewStyle().
		Padding(1, 2).
		Width(m.width).
		Height(m.height).
		Render(b.String())
}

func (m Model) renderProfileItem(idx int, profile model.Profile) string {
	providerBadge := theme.ProviderLabelStyle(profile.Provider).
		Render(string(profile.Provider))

	line := fmt.Sprintf("%s  %s", providerBadge, profile.Email)

	if idx == m.selectedIdx {
		return theme.SelectedItemStyle.Render(line)
	}
	return theme.ListItemStyle.Render(line)
}

func (m Model) viewForm(f *huh.Form) string {
	if f == nil {
		return ""
	}

	return lipgloss.NewStyle().
		Padding(1, 2).
		Width(m.width).
		Height(m.height).
		Render(f.View())
}

func (m Model) viewConnecting() string {
	style := lipgloss.NewStyle().
		Padding(1, 2).
		Width(m.width).
		Height(m.height)

	content := fmt.Sprintf(
		"%s Connecting %s...\n\nPress esc to return.",
		m.spinner.View(),
		m.connectingEmail,
	)

	return style.Render(content)
}

// --- Helpers ---

// SetSize updates the view dimensions.
func (m *Model) SetSize(width, height int) {
	m.width = width
	m.height = height
}

func (m Model) formWidth() int {
	w := m.width - 4
	if w < 40 {
		w = 40
	}
	if w > 100 {
		w = 100
	}
	return w
}

func (m *Model) resetFormFields() {
	m.formEmail = ""
	m.formPassword = ""
	m.formHost = ""
	m.formPort = ""
	m.formTLS = true
}

// --- Validators ---

func validateRequired(fieldName string) func(string) error {
	return func(s string) error {
		if strings.TrimSpace(s) == "" {
			return fmt.Errorf("%s is required", fieldName)
		}
		return nil
	}
}

func validateEmail(s string) error {
	s = strings.TrimSpace(s)
	if s == "" {
		return fmt.Errorf("email is required")
	}
	at := strings.Index(s, "@")
	if at <= 0 || at == len(s)-1 {
		return fmt.Errorf("invalid email address")
	}
	return nil
}

func validatePort(s string) error {
	if strings.TrimSpace(s) == "" {
		return fmt.Errorf("port is required")
	}
	for _, c := range s {
		if c < '0' || c > '9' {
			return fmt.Errorf("port must be a number")
		}
	}
	return nil
}
