// Package cache sizes the per-account fetch window: how many of the
// most-recent cached messages the client requests from the sync engine.
// Windows only grow for the lifetime of a connection so the visible
// message list never shrinks mid-session.
package cache

// Window bounds. Every computed limit lands in [MinLimit, MaxLimit].
const (
	MinLimit = 1000
	MaxLimit = 50000
)

// windowState is the tracked window for one account.
type windowState struct {
	effectiveLimit int
	knownTotal     int
}

// WindowController decides, per account, how many cached messages to
// fetch next. It is purely in-memory and performs no I/O. It is owned by
// the coordinator and must only be used from the UI goroutine.
type WindowController struct {
	windows map[string]*windowState
}

// NewWindowController creates an empty controller.
func NewWindowController() *WindowController {
	return &WindowController{
		windows: make(map[string]*windowState),
	}
}

// NextLimit computes the fetch limit for the account given a requested
// minimum, records it as the new effective limit, and returns it. The
// result never shrinks below a previously computed limit or the last
// known total, and never exceeds MaxLimit.
func (c *WindowController) NextLimit(email string, requested int) int {
	w := c.window(email)

	desired := requested
	if desired < MinLimit {
		desired = MinLimit
	}
	if w.effectiveLimit > desired {
		desired = w.effectiveLimit
	}
	if w.knownTotal > desired {
		desired = w.knownTotal
	}
	if desired > MaxLimit {
		desired = MaxLimit
	}

	w.effectiveLimit = desired
	return desired
}

// RecordKnownTotal stores the engine-reported cached-message count. A
// freshly reported large mailbox immediately grows the window floor so
// the next fetch covers it.
func (c *WindowController) RecordKnownTotal(email string, count int) {
	w := c.window(email)
	w.knownTotal = count

	grown := count
	if grown > MaxLimit {
		grown = MaxLimit
	}
	if grown > w.effectiveLimit {
		w.effectiveLimit = grown
	}
}

// EffectiveLimit returns the current window size for the account, or
// zero when the account has no window yet.
func (c *WindowController) EffectiveLimit(email string) int {
	if w, ok := c.windows[email]; ok {
		return w.effectiveLimit
	}
	return 0
}

// KnownTotal returns the last recorded cached-message count for the
// account, or zero when none was recorded.
func (c *WindowController) KnownTotal(email string) int {
	if w, ok := c.windows[email]; ok {
		return w.knownTotal
	}
	return 0
}

// Forget drops all window state for the account. Called on disconnect;
// a later reconnect starts from a fresh window.
func (c *WindowController) Forget(email string) {
	delete(c.windows, email)
}

// window returns the tracked state for email, creating it on first use.
func (c *WindowController) window(email string) *windowState {
	w, ok := c.windows[email]
	if !ok {
		w = &windowState{}
		c.windows[email] = w
	}
	return w
}
