package coordinator

import (
	"testing"
	"time"

	"github.com/vivasaayi/PersonalMailClient-sub001/internal/engine"
)

// subEngine is a fakeEngine whose Subscribe hands the handler back to
// the test so events can be injected directly.
type subEngine struct {
	fakeEngine
	handler engine.ProgressFunc
	unsubs  int
}

func (e *subEngine) Subscribe(handler engine.ProgressFunc) func() {
	e.handler = handler
	return func() { e.unsubs++ }
}

func TestBridgeForwardsEvents(t *testing.T) {
	eng := &subEngine{}
	b := NewBridge()
	b.Attach(eng)
	defer b.Detach()

	eng.handler(engine.ProgressEvent{Email: "a@x.com", Fetched: 200})

	msg := b.WaitForEvent()()
	prog, ok := msg.(ProgressMsg)
	if !ok {
		t.Fatalf("got %T, want ProgressMsg", msg)
	}
	if prog.Event.Email != "a@x.com" || prog.Event.Fetched != 200 {
		t.Fatalf("event = %+v", prog.Event)
	}
}

func TestBridgeReattachReplacesSubscription(t *testing.T) {
	eng := &subEngine{}
	b := NewBridge()

	b.Attach(eng)
	b.Attach(eng)
	if eng.unsubs != 1 {
		t.Fatalf("unsubs = %d, want 1 after reattach", eng.unsubs)
	}

	b.Detach()
	if eng.unsubs != 2 {
		t.Fatalf("unsubs = %d, want 2 after detach", eng.unsubs)
	}
	b.Detach()
	if eng.unsubs != 2 {
		t.Fatalf("unsubs = %d, detach should be idempotent", eng.unsubs)
	}
}

func TestBridgeDropsWhenBacklogged(t *testing.T) {
	eng := &subEngine{}
	b := NewBridge()
	b.Attach(eng)
	defer b.Detach()

	// The handler must never block the sync goroutine, even when the
	// program is not draining the channel.
	done := make(chan struct{})
	go func() {
		for i := 0; i < 100; i++ {
			eng.handler(engine.ProgressEvent{Email: "a@x.com", Fetched: i})
		}
		close(done)
	}()

	select {
	case <-done:
	case <-time.After(time.Second):
		t.Fatal("handler blocked on a full event channel")
	}
}

func TestPollerDeliversTicksForBoundAccount(t *testing.T) {
	p := NewPoller()
	defer p.Stop()

	p.Bind("a@x.com", 5*time.Millisecond)
	if p.Email() != "a@x.com" {
		t.Fatalf("bound email = %q", p.Email())
	}

	msg := p.WaitForTick()()
	tick, ok := msg.(PollTickMsg)
	if !ok {
		t.Fatalf("got %T, want PollTickMsg", msg)
	}
	if tick.Email != "a@x.com" {
		t.Fatalf("tick for %q, want a@x.com", tick.Email)
	}
}

func TestPollerRebindSwitchesAccount(t *testing.T) {
	p := NewPoller()
	defer p.Stop()

	p.Bind("a@x.com", time.Hour)
	p.Bind("b@x.com", 5*time.Millisecond)

	msg := p.WaitForTick()()
	tick := msg.(PollTickMsg)
	if tick.Email != "b@x.com" {
		t.Fatalf("tick for %q, want the rebound account", tick.Email)
	}
}

func TestPollerStopClearsBinding(t *testing.T) {
	p := NewPoller()
	p.Bind("a@x.com", time.Hour)
	p.Stop()
	if p.Email() != "" {
		t.Fatalf("email = %q after stop, want empty", p.Email())
	}
}
