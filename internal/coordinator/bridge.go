package coordinator

import (
	gosync "sync"

	tea "github.com/charmbracelet/bubbletea"

	"github.com/vivasaayi/PersonalMailClient-sub001/internal/engine"
)

// Bridge forwards the engine's push-style progress events into the
// program's message loop. The subscription is established once per
// selected-account change and torn down on switch or teardown, so no
// callback outlives its owner.
type Bridge struct {
	eventCh chan ProgressMsg

	mu    gosync.Mutex
	unsub func()
}

// NewBridge creates a detached bridge.
func NewBridge() *Bridge {
	return &Bridge{
		eventCh: make(chan ProgressMsg, 32),
	}
}

// Attach subscribes to the engine's progress stream, replacing any
// previous subscription. Events are forwarded without blocking the
// engine's sync goroutine.
func (b *Bridge) Attach(eng engine.Engine) {
	b.mu.Lock()
	defer b.mu.Unlock()

	if b.unsub != nil {
		b.unsub()
	}
	b.unsub = eng.Subscribe(func(ev engine.ProgressEvent) {
		select {
		case b.eventCh <- ProgressMsg{Event: ev}:
		default:
			// Drop rather than block; the next event carries fresher state.
		}
	})
}

// Detach tears down the subscription. Safe to call when detached.
func (b *Bridge) Detach() {
	b.mu.Lock()
	defer b.mu.Unlock()

	if b.unsub != nil {
		b.unsub()
		b.unsub = nil
	}
}

// WaitForEvent returns a command that delivers the next progress event.
// Call it again after each ProgressMsg to keep listening.
func (b *Bridge) WaitForEvent() tea.Cmd {
	return func() tea.Msg {
		msg, ok := <-b.eventCh
		if !ok {
			return nil
		}
		return msg
	}
}
