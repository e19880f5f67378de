// Package reconcile merges freshly fetched sender-group snapshots into
// the cached view. Consumers detect changes by reference equality, so an
// observably identical fetch must hand back the existing slice untouched.
package reconcile

import "github.com/vivasaayi/PersonalMailClient-sub001/internal/model"

// Result is the outcome of one merge.
type Result struct {
	// Groups is the merged view. When Changed is false this is the
	// existing slice, same reference, so no re-render is triggered.
	Groups []model.SenderGroup

	// Changed reports whether anything observable differs from the
	// existing view.
	Changed bool

	// Expanded is the sender that should be expanded after the merge.
	Expanded string
}

// Merge reconciles fresh against existing. Groups whose message count
// dropped to zero are removed rather than kept empty. When no sender is
// currently expanded and the fresh set introduces a sender that did not
// exist before, the first fresh sender becomes the expanded one.
func Merge(existing, fresh []model.SenderGroup, expanded string) Result {
	merged := normalize(fresh)

	if expanded == "" && introducesNewSender(existing, merged) && len(merged) > 0 {
		expanded = merged[0].SenderEmail
	}

	if groupsEqual(existing, merged) {
		return Result{Groups: existing, Changed: false, Expanded: expanded}
	}

	return Result{Groups: merged, Changed: true, Expanded: expanded}
}

// normalize drops empty groups and repairs message counts so the
// invariant MessageCount == len(Messages) holds for every merged group.
func normalize(groups []model.SenderGroup) []model.SenderGroup {
	out := make([]model.SenderGroup, 0, len(groups))
	for _, g := range groups {
		if len(g.Messages) == 0 {
			continue
		}
		g.MessageCount = len(g.Messages)
		out = append(out, g)
	}
	return out
}

// introducesNewSender reports whether fresh contains a sender absent
// from existing.
func introducesNewSender(existing, fresh []model.SenderGroup) bool {
	known := make(map[string]bool, len(existing))
	for _, g := range existing {
		known[g.SenderEmail] = true
	}
	for _, g := range fresh {
		if !known[g.SenderEmail] {
			return true
		}
	}
	return false
}

// groupsEqual reports whether two views are observably identical:
// same groups in the same order, and every message matching on the
// fields the UI renders.
func groupsEqual(a, b []model.SenderGroup) bool {
	if len(a) != len(b) {
		return false
	}
	for i := range a {
		if !groupEqual(a[i], b[i]) {
			return false
		}
	}
	return true
}

func groupEqual(a, b model.SenderGroup) bool {
	if a.SenderEmail != b.SenderEmail ||
		a.SenderDisplay != b.SenderDisplay ||
		a.Status != b.Status ||
		a.MessageCount != b.MessageCount ||
		len(a.Messages) != len(b.Messages) {
		return false
	}
	for i := range a.Messages {
		if !messageEqual(a.Messages[i], b.Messages[i]) {
			return false
		}
	}
	return true
}

func messageEqual(a, b model.EmailSummary) bool {
	return a.UID == b.UID &&
		a.Subject == b.Subject &&
		a.Date.Equal(b.Date) &&
		a.Snippet == b.Snippet &&
		a.AnalysisSummary == b.AnalysisSummary &&
		a.AnalysisSentiment == b.AnalysisSentiment
}
