package reconcile

import (
	"testing"
	"time"

	"github.com/google/go-cmp/cmp"

	"github.com/vivasaayi/PersonalMailClient-sub001/internal/model"
)

var baseDate = time.Date(2026, 3, 14, 9, 0, 0, 0, time.UTC)

func makeGroup(sender string, status model.SenderStatus, uids ...uint32) model.SenderGroup {
	msgs := make([]model.EmailSummary, len(uids))
	for i, uid := range uids {
		msgs[i] = model.EmailSummary{
			UID:     uid,
			Subject: "subject",
			Date:    baseDate.Add(time.Duration(uid) * time.Minute),
			Sender:  model.Sender{Email: sender},
			Status:  status,
		}
	}
	return model.SenderGroup{
		SenderEmail:   sender,
		SenderDisplay: sender,
		Status:        status,
		MessageCount:  len(msgs),
		Messages:      msgs,
	}
}

func TestMergeIdenticalReturnsSameReference(t *testing.T) {
	existing := []model.SenderGroup{
		makeGroup("alice@example.com", model.SenderNeutral, 1, 2),
		makeGroup("bob@example.com", model.SenderAllowed, 3),
	}
	fresh := []model.SenderGroup{
		makeGroup("alice@example.com", model.SenderNeutral, 1, 2),
		makeGroup("bob@example.com", model.SenderAllowed, 3),
	}

	res := Merge(existing, fresh, "alice@example.com")

	if res.Changed {
		t.Error("Merge of identical views reported Changed = true")
	}
	if &res.Groups[0] != &existing[0] {
		t.Error("Merge of identical views did not return the existing slice")
	}
	if res.Expanded != "alice@example.com" {
		t.Errorf("Expanded = %q, want existing expansion kept", res.Expanded)
	}
}

func TestMergeDetectsStatusChange(t *testing.T) {
	existing := []model.SenderGroup{
		makeGroup("alice@example.com", model.SenderNeutral, 1, 2),
	}
	fresh := []model.SenderGroup{
		makeGroup("alice@example.com", model.SenderBlocked, 1, 2),
	}

	res := Merge(existing, fresh, "alice@example.com")

	if !res.Changed {
		t.Fatal("Merge did not detect a status change")
	}
	if res.Groups[0].Status != model.SenderBlocked {
		t.Errorf("merged status = %q, want blocked", res.Groups[0].Status)
	}
}

func TestMergeDetectsAnalysisChange(t *testing.T) {
	existing := []model.SenderGroup{
		makeGroup("alice@example.com", model.SenderNeutral, 1),
	}
	fresh := []model.SenderGroup{
		makeGroup("alice@example.com", model.SenderNeutral, 1),
	}
	fresh[0].Messages[0].AnalysisSummary = "newsletter digest"

	if res := Merge(existing, fresh, ""); !res.Changed {
		t.Error("Merge did not detect an analysis summary change")
	}
}

func TestMergeRemovesEmptyGroups(t *testing.T) {
	existing := []model.SenderGroup{
		makeGroup("alice@example.com", model.SenderNeutral, 1),
		makeGroup("bob@example.com", model.SenderNeutral, 2),
	}
	fresh := []model.SenderGroup{
		makeGroup("alice@example.com", model.SenderNeutral, 1),
		{SenderEmail: "bob@example.com", SenderDisplay: "bob@example.com", Status: model.SenderNeutral},
	}

	res := Merge(existing, fresh, "alice@example.com")

	if !res.Changed {
		t.Fatal("Merge did not report a change after a group emptied")
	}
	want := []string{"alice@example.com"}
	var got []string
	for _, g := range res.Groups {
		got = append(got, g.SenderEmail)
	}
	if diff := cmp.Diff(want, got); diff != "" {
		t.Errorf("merged senders mismatch (-want +got):\n%s", diff)
	}
}

func TestMergeRepairsMessageCount(t *testing.T) {
	fresh := []model.SenderGroup{
		makeGroup("alice@example.com", model.SenderNeutral, 1, 2, 3),
	}
	fresh[0].MessageCount = 99

	res := Merge(nil, fresh, "")
	if res.Groups[0].MessageCount != 3 {
		t.Errorf("MessageCount = %d, want 3", res.Groups[0].MessageCount)
	}
}

func TestMergeExpandsFirstSenderWhenNewSenderArrives(t *testing.T) {
	existing := []model.SenderGroup{
		makeGroup("alice@example.com", model.SenderNeutral, 1),
	}
	fresh := []model.SenderGroup{
		makeGroup("alice@example.com", model.SenderNeutral, 1),
		makeGroup("carol@example.com", model.SenderNeutral, 9),
	}

	res := Merge(existing, fresh, "")
	if res.Expanded != "alice@example.com" {
		t.Errorf("Expanded = %q, want first fresh sender", res.Expanded)
	}
}

func TestMergeKeepsExpansionWhenAlreadySet(t *testing.T) {
	existing := []model.SenderGroup{
		makeGroup("alice@example.com", model.SenderNeutral, 1),
	}
	fresh := []model.SenderGroup{
		makeGroup("alice@example.com", model.SenderNeutral, 1),
		makeGroup("carol@example.com", model.SenderNeutral, 9),
	}

	res := Merge(existing, fresh, "alice@example.com")
	if res.Expanded != "alice@example.com" {
		t.Errorf("Expanded = %q, want alice kept", res.Expanded)
	}
}

func TestMergeNoExpansionWithoutNewSender(t *testing.T) {
	existing := []model.SenderGroup{
		makeGroup("alice@example.com", model.SenderNeutral, 1, 2),
	}
	fresh := []model.SenderGroup{
		makeGroup("alice@example.com", model.SenderNeutral, 1, 2, 3),
	}

	res := Merge(existing, fresh, "")
	if res.Expanded != "" {
		t.Errorf("Expanded = %q, want empty: no new sender arrived", res.Expanded)
	}
}
