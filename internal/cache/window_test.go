package cache

import "testing"

func TestNextLimitDefaultsToMinimum(t *testing.T) {
	c := NewWindowController()

	got := c.NextLimit("a@example.com", 0)
	if got != MinLimit {
		t.Errorf("NextLimit(0) = %d, want %d", got, MinLimit)
	}
}

func TestNextLimitNeverShrinks(t *testing.T) {
	c := NewWindowController()

	if got := c.NextLimit("a@example.com", 5000); got != 5000 {
		t.Fatalf("NextLimit(5000) = %d, want 5000", got)
	}

	// A smaller request keeps the grown window.
	if got := c.NextLimit("a@example.com", 2000); got != 5000 {
		t.Errorf("NextLimit(2000) after 5000 = %d, want 5000", got)
	}
	if got := c.EffectiveLimit("a@example.com"); got != 5000 {
		t.Errorf("EffectiveLimit = %d, want 5000", got)
	}
}

func TestNextLimitClampsToMaximum(t *testing.T) {
	c := NewWindowController()

	if got := c.NextLimit("a@example.com", MaxLimit+10000); got != MaxLimit {
		t.Errorf("NextLimit(>max) = %d, want %d", got, MaxLimit)
	}
}

func TestNextLimitCoversKnownTotal(t *testing.T) {
	c := NewWindowController()
	c.RecordKnownTotal("a@example.com", 3000)

	if got := c.NextLimit("a@example.com", 1000); got != 3000 {
		t.Errorf("NextLimit(1000) with knownTotal 3000 = %d, want 3000", got)
	}
}

func TestRecordKnownTotalGrowsWindowFloor(t *testing.T) {
	c := NewWindowController()
	c.NextLimit("a@example.com", 1000)

	c.RecordKnownTotal("a@example.com", 12000)
	if got := c.EffectiveLimit("a@example.com"); got != 12000 {
		t.Errorf("EffectiveLimit after RecordKnownTotal(12000) = %d, want 12000", got)
	}

	// A huge reported total still clamps.
	c.RecordKnownTotal("a@example.com", MaxLimit+5000)
	if got := c.EffectiveLimit("a@example.com"); got != MaxLimit {
		t.Errorf("EffectiveLimit after oversized total = %d, want %d", got, MaxLimit)
	}
	if got := c.KnownTotal("a@example.com"); got != MaxLimit+5000 {
		t.Errorf("KnownTotal = %d, want %d", got, MaxLimit+5000)
	}
}

func TestRecordKnownTotalSmallerThanWindowKeepsWindow(t *testing.T) {
	c := NewWindowController()
	c.NextLimit("a@example.com", 8000)

	c.RecordKnownTotal("a@example.com", 100)
	if got := c.EffectiveLimit("a@example.com"); got != 8000 {
		t.Errorf("EffectiveLimit after small total = %d, want 8000", got)
	}
}

func TestWindowsAreIndependentPerAccount(t *testing.T) {
	c := NewWindowController()
	c.NextLimit("a@example.com", 9000)

	if got := c.NextLimit("b@example.com", 0); got != MinLimit {
		t.Errorf("NextLimit for second account = %d, want %d", got, MinLimit)
	}
}

func TestForgetResetsWindow(t *testing.T) {
	c := NewWindowController()
	c.NextLimit("a@example.com", 9000)
	c.RecordKnownTotal("a@example.com", 9500)

	c.Forget("a@example.com")

	if got := c.EffectiveLimit("a@example.com"); got != 0 {
		t.Errorf("EffectiveLimit after Forget = %d, want 0", got)
	}
	if got := c.NextLimit("a@example.com", 0); got != MinLimit {
		t.Errorf("NextLimit after Forget = %d, want %d", got, MinLimit)
	}
}

// Property: any sequence of operations keeps the window within bounds
// and non-decreasing within a connection.
func TestWindowMonotonicAcrossMixedOperations(t *testing.T) {
	c := NewWindowController()
	const email = "a@example.com"

	requests := []int{0, 2000, 500, 12000, 3000, MaxLimit * 2, 100}
	totals := []int{3000, 1, 20000, 0, 60000, 5, 4000}

	prev := 0
	for i := range requests {
		got := c.NextLimit(email, requests[i])
		if got < MinLimit || got > MaxLimit {
			t.Fatalf("step %d: limit %d outside [%d, %d]", i, got, MinLimit, MaxLimit)
		}
		if got < prev {
			t.Fatalf("step %d: limit shrank from %d to %d", i, prev, got)
		}
		prev = got

		c.RecordKnownTotal(email, totals[i])
		if eff := c.EffectiveLimit(email); eff < prev {
			t.Fatalf("step %d: effective limit shrank from %d to %d after total", i, prev, eff)
		} else {
			prev = eff
		}
	}
}
