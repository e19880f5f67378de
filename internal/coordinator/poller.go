package coordinator

import (
	gosync "sync"
	"time"

	tea "github.com/charmbracelet/bubbletea"
)

// DefaultPollInterval is how often the selected account's background
// incremental sync runs unless the account overrides it.
const DefaultPollInterval = 30 * time.Second

// Poller keeps the selected account fresh with a recurring background
// tick. At most one timer is live at a time, always bound to the
// currently selected account; binding a new account cancels the
// previous timer first.
type Poller struct {
	tickCh chan PollTickMsg

	mu     gosync.Mutex
	email  string
	stopCh chan struct{}
}

// NewPoller creates a poller with no account bound.
func NewPoller() *Poller {
	return &Poller{
		tickCh: make(chan PollTickMsg, 16),
	}
}

// Bind arms the timer for the given account at the given interval,
// cancelling any previous timer. Binding an empty email just cancels.
func (p *Poller) Bind(email string, interval time.Duration) {
	p.mu.Lock()
	defer p.mu.Unlock()

	if p.stopCh != nil {
		close(p.stopCh)
		p.stopCh = nil
	}
	p.email = email
	if email == "" {
		return
	}

	if interval <= 0 {
		interval = DefaultPollInterval
	}

	stopCh := make(chan struct{})
	p.stopCh = stopCh
	go p.run(email, interval, stopCh)
}

// Stop cancels the live timer, if any.
func (p *Poller) Stop() {
	p.Bind("", 0)
}

// Email returns the account the live timer is bound to, or empty.
func (p *Poller) Email() string {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.email
}

// WaitForTick returns a command that delivers the next tick to the
// program. Call it again after each PollTickMsg to keep listening.
func (p *Poller) WaitForTick() tea.Cmd {
	return func() tea.Msg {
		msg, ok := <-p.tickCh
		if !ok {
			return nil
		}
		return msg
	}
}

// run is the timer goroutine for one binding.
func (p *Poller) run(email string, interval time.Duration, stopCh chan struct{}) {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-stopCh:
			return
		case <-ticker.C:
			select {
			case p.tickCh <- PollTickMsg{Email: email}:
			default:
				// Drop if the program is behind; the next tick catches up.
			}
		}
	}
}
