package coordinator

import (
	"context"
	"testing"
	"time"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/google/go-cmp/cmp"

	"github.com/vivasaayi/PersonalMailClient-sub001/internal/engine"
	"github.com/vivasaayi/PersonalMailClient-sub001/internal/model"
)

// fakeEngine records calls and serves canned responses. Tests execute
// commands synchronously, so no locking is needed.
type fakeEngine struct {
	count  int
	window []model.EmailSummary
	groups []model.SenderGroup
	report model.SyncReport

	countErr error
	syncErr  error

	windowLimits  []int
	incremental   int
	full          int
	statusCalls   []string
	deleteCalls   []uint32
	intervalCalls []int
}

func (f *fakeEngine) Connect(_ context.Context, creds engine.Credentials) (model.Account, error) {
	return model.Account{Email: creds.Email, Provider: creds.Provider}, nil
}

func (f *fakeEngine) ConnectProfile(_ context.Context, _ string) (model.Account, error) {
	return model.Account{}, nil
}

func (f *fakeEngine) Disconnect(_ context.Context, _ string) error { return nil }

func (f *fakeEngine) FetchCachedWindow(_ context.Context, _ string, limit int) ([]model.EmailSummary, error) {
	f.windowLimits = append(f.windowLimits, limit)
	return f.window, nil
}

func (f *fakeEngine) FetchCachedCount(_ context.Context, _ string) (int, error) {
	return f.count, f.countErr
}

func (f *fakeEngine) ListSenderGroups(_ context.Context, _ string) ([]model.SenderGroup, error) {
	return f.groups, nil
}

func (f *fakeEngine) SyncIncremental(_ context.Context, _ string, _ int) (model.SyncReport, error) {
	f.incremental++
	return f.report, f.syncErr
}

func (f *fakeEngine) SyncFull(_ context.Context, _ string, _ int) (model.SyncReport, error) {
	f.full++
	return f.report, f.syncErr
}

func (f *fakeEngine) SetSenderStatus(_ context.Context, _, sender string, _ model.SenderStatus) error {
	f.statusCalls = append(f.statusCalls, sender)
	return nil
}

func (f *fakeEngine) DeleteMessage(_ context.Context, _ string, uid uint32) error {
	f.deleteCalls = append(f.deleteCalls, uid)
	return nil
}

func (f *fakeEngine) ConfigurePeriodicSync(_ context.Context, _ string, minutes int) error {
	f.intervalCalls = append(f.intervalCalls, minutes)
	return nil
}

func (f *fakeEngine) ApplyBlockFilter(_ context.Context, _, _ string) (int, error) { return 0, nil }

func (f *fakeEngine) ListSavedProfiles(_ context.Context) ([]model.Profile, error) { return nil, nil }

func (f *fakeEngine) SavedSecret(_ context.Context, _ string) (string, error) { return "", nil }

func (f *fakeEngine) Subscribe(_ engine.ProgressFunc) func() { return func() {} }

// connect registers an account without going through a command.
func connect(t *testing.T, c *Coordinator, email string) {
	t.Helper()
	cmd := c.Apply(AccountConnectedMsg{Account: model.Account{Email: email}})
	if cmd == nil {
		t.Fatal("expected a notice command from connect")
	}
}

// step executes a command and feeds every resulting coordinator message
// back through Apply, returning the follow-up commands it produced.
// Subscription re-arm commands are never executed here, so tests stay
// deterministic.
func step(t *testing.T, c *Coordinator, cmd tea.Cmd) []tea.Msg {
	t.Helper()
	if cmd == nil {
		return nil
	}

	var msgs []tea.Msg
	switch m := cmd().(type) {
	case tea.BatchMsg:
		for _, sub := range m {
			if sub != nil {
				msgs = append(msgs, sub())
			}
		}
	default:
		msgs = append(msgs, m)
	}
	return msgs
}

func TestBootstrapRequestsFloorWindow(t *testing.T) {
	eng := &fakeEngine{
		count: 500,
		window: []model.EmailSummary{
			{UID: 1, Sender: model.Sender{Email: "a@x.com"}, Subject: "hi"},
		},
		groups: []model.SenderGroup{
			{SenderEmail: "a@x.com", Status: model.SenderNeutral, MessageCount: 1,
				Messages: []model.EmailSummary{{UID: 1, Sender: model.Sender{Email: "a@x.com"}, Subject: "hi"}}},
		},
	}
	c := New(eng, Config{ChunkSize: 200})
	defer c.Teardown()
	connect(t, c, "me@x.com")

	// Drive the bootstrap chain to completion: count, window, groups,
	// silent incremental, then the post-sync refresh fan-out.
	msgs := step(t, c, c.SelectAccount("me@x.com"))
	for len(msgs) > 0 {
		var next []tea.Msg
		for _, m := range msgs {
			if _, ok := m.(NoticeMsg); ok {
				continue
			}
			next = append(next, step(t, c, c.Apply(m))...)
		}
		msgs = next
	}

	if len(eng.windowLimits) == 0 || eng.windowLimits[0] != 2000 {
		t.Fatalf("bootstrap window limit = %v, want first fetch at 2000", eng.windowLimits)
	}
	if eng.incremental != 1 {
		t.Fatalf("incremental syncs = %d, want 1", eng.incremental)
	}
	if got := c.RuntimeState("me@x.com").Status; got != model.AccountIdle {
		t.Fatalf("status after bootstrap = %s, want idle", got)
	}
	if diff := cmp.Diff(eng.groups, c.Groups("me@x.com")); diff != "" {
		t.Fatalf("groups mismatch (-want +got):\n%s", diff)
	}
}

func TestBootstrapUsesKnownTotalAboveFloor(t *testing.T) {
	eng := &fakeEngine{count: 7500}
	c := New(eng, Config{ChunkSize: 200})
	defer c.Teardown()
	connect(t, c, "me@x.com")

	msgs := step(t, c, c.SelectAccount("me@x.com"))
	step(t, c, c.Apply(msgs[0]))

	if len(eng.windowLimits) != 1 || eng.windowLimits[0] != 7500 {
		t.Fatalf("window limit = %v, want 7500 from known total", eng.windowLimits)
	}
}

func TestStaleBootstrapResultDropped(t *testing.T) {
	eng := &fakeEngine{count: 500}
	c := New(eng, Config{ChunkSize: 200})
	defer c.Teardown()
	connect(t, c, "a@x.com")
	connect(t, c, "b@x.com")

	msgs := step(t, c, c.SelectAccount("a@x.com"))
	step(t, c, c.SelectAccount("b@x.com"))

	// The count result for a@ was issued under the superseded
	// generation: applying it must not continue a's bootstrap.
	if cmd := c.Apply(msgs[0]); cmd != nil {
		t.Fatal("stale bootstrap count result produced a follow-up command")
	}
	if got := c.Selected(); got != "b@x.com" {
		t.Fatalf("selected = %s, want b@x.com", got)
	}
}

func TestFullSyncGrowsWindowToStoredCount(t *testing.T) {
	eng := &fakeEngine{report: model.SyncReport{Fetched: 12000, Stored: 12000}}
	c := New(eng, Config{ChunkSize: 200})
	defer c.Teardown()
	connect(t, c, "me@x.com")

	msgs := step(t, c, c.RunFullSync("me@x.com"))
	step(t, c, c.Apply(msgs[0]))

	if got := c.EffectiveLimit("me@x.com"); got != 12000 {
		t.Fatalf("effective limit = %d, want 12000", got)
	}
	if len(eng.windowLimits) != 1 || eng.windowLimits[0] != 12000 {
		t.Fatalf("refetch limit = %v, want 12000", eng.windowLimits)
	}
	if c.Progress("me@x.com") != nil {
		t.Fatal("progress entry should be cleared after the full sync completes")
	}
}

func TestFullSyncSeedsProgressImmediately(t *testing.T) {
	eng := &fakeEngine{}
	c := New(eng, Config{ChunkSize: 200})
	defer c.Teardown()
	connect(t, c, "me@x.com")

	_ = c.RunFullSync("me@x.com")

	if p := c.Progress("me@x.com"); p == nil || p.Batch != 0 {
		t.Fatalf("progress = %+v, want a zero-valued entry before the first event", p)
	}
	if got := c.RuntimeState("me@x.com").Status; got != model.AccountSyncing {
		t.Fatalf("status = %s, want syncing", got)
	}
}

func TestProgressEventSetsBatchDerivedFloor(t *testing.T) {
	eng := &fakeEngine{}
	c := New(eng, Config{ChunkSize: 200})
	defer c.Teardown()
	connect(t, c, "me@x.com")
	c.selected = "me@x.com"

	_ = c.Apply(ProgressMsg{Event: engine.ProgressEvent{
		Email:        "me@x.com",
		Batch:        3,
		TotalBatches: 300,
		Fetched:      600,
	}})

	if got := c.EffectiveLimit("me@x.com"); got != 15000 {
		t.Fatalf("effective limit = %d, want 300 batches * 50", got)
	}
	if p := c.Progress("me@x.com"); p == nil || p.Batch != 3 {
		t.Fatalf("progress = %+v, want batch 3 recorded", p)
	}
}

func TestProgressEventWithoutBatchTotalUsesFetched(t *testing.T) {
	eng := &fakeEngine{}
	c := New(eng, Config{ChunkSize: 200})
	defer c.Teardown()
	connect(t, c, "me@x.com")
	c.selected = "me@x.com"

	_ = c.Apply(ProgressMsg{Event: engine.ProgressEvent{
		Email:   "me@x.com",
		Fetched: 4200,
	}})

	if got := c.EffectiveLimit("me@x.com"); got != 4200 {
		t.Fatalf("effective limit = %d, want fetched count 4200", got)
	}
}

func TestProgressForUnselectedAccountOnlyRecords(t *testing.T) {
	eng := &fakeEngine{}
	c := New(eng, Config{ChunkSize: 200})
	defer c.Teardown()
	connect(t, c, "me@x.com")
	connect(t, c, "other@x.com")
	c.selected = "me@x.com"

	_ = c.Apply(ProgressMsg{Event: engine.ProgressEvent{
		Email:        "other@x.com",
		TotalBatches: 100,
		Fetched:      2000,
	}})

	if p := c.Progress("other@x.com"); p == nil || p.Fetched != 2000 {
		t.Fatalf("progress = %+v, want fetched 2000 recorded", p)
	}
	if len(eng.windowLimits) != 0 {
		t.Fatalf("unselected account triggered a window fetch: %v", eng.windowLimits)
	}
}

func TestChangeSenderStatusRewritesLocally(t *testing.T) {
	eng := &fakeEngine{}
	c := New(eng, Config{ChunkSize: 200})
	defer c.Teardown()
	connect(t, c, "me@x.com")
	c.groups["me@x.com"] = []model.SenderGroup{
		{SenderEmail: "spam@x.com", Status: model.SenderNeutral, MessageCount: 2,
			Messages: []model.EmailSummary{
				{UID: 1, Sender: model.Sender{Email: "spam@x.com"}, Status: model.SenderNeutral},
				{UID: 2, Sender: model.Sender{Email: "spam@x.com"}, Status: model.SenderNeutral},
			}},
	}
	c.recent["me@x.com"] = []model.EmailSummary{
		{UID: 2, Sender: model.Sender{Email: "spam@x.com"}, Status: model.SenderNeutral},
		{UID: 3, Sender: model.Sender{Email: "ok@x.com"}, Status: model.SenderNeutral},
	}

	cmd := c.ChangeSenderStatus("me@x.com", "spam@x.com", model.SenderBlocked)

	// The rewrite is visible before the remote call completes.
	g := c.Groups("me@x.com")[0]
	if g.Status != model.SenderBlocked || g.Messages[0].Status != model.SenderBlocked {
		t.Fatalf("group not rewritten: %+v", g)
	}
	if got := c.Recent("me@x.com"); got[0].Status != model.SenderBlocked || got[1].Status != model.SenderNeutral {
		t.Fatalf("window rewrite wrong: %+v", got)
	}

	step(t, c, cmd)
	if diff := cmp.Diff([]string{"spam@x.com"}, eng.statusCalls); diff != "" {
		t.Fatalf("remote calls (-want +got):\n%s", diff)
	}
}

func TestDeleteMessageIsIdempotent(t *testing.T) {
	eng := &fakeEngine{}
	c := New(eng, Config{ChunkSize: 200})
	defer c.Teardown()
	connect(t, c, "me@x.com")
	c.groups["me@x.com"] = []model.SenderGroup{
		{SenderEmail: "a@x.com", MessageCount: 1,
			Messages: []model.EmailSummary{{UID: 7, Sender: model.Sender{Email: "a@x.com"}}}},
	}

	first := c.DeleteMessage("me@x.com", "a@x.com", 7)
	if first == nil {
		t.Fatal("first delete returned no command")
	}
	if c.DeleteMessage("me@x.com", "a@x.com", 7) != nil {
		t.Fatal("duplicate delete while in flight should be a no-op")
	}
	if c.DeleteMessage("me@x.com", "a@x.com", 99) != nil {
		t.Fatal("delete of uncached message should be a no-op")
	}

	if len(c.Groups("me@x.com")) != 0 {
		t.Fatalf("emptied sender group should be removed: %+v", c.Groups("me@x.com"))
	}

	for _, m := range step(t, c, first) {
		c.Apply(m)
	}
	if diff := cmp.Diff([]uint32{7}, eng.deleteCalls); diff != "" {
		t.Fatalf("remote deletes (-want +got):\n%s", diff)
	}

	// Completed and gone from the cache: still a no-op.
	if c.DeleteMessage("me@x.com", "a@x.com", 7) != nil {
		t.Fatal("delete after completion should be a no-op")
	}
}

func TestDeleteSenderMessagesFansOut(t *testing.T) {
	eng := &fakeEngine{}
	c := New(eng, Config{ChunkSize: 200})
	defer c.Teardown()
	connect(t, c, "me@x.com")
	c.groups["me@x.com"] = []model.SenderGroup{
		{SenderEmail: "a@x.com", MessageCount: 3,
			Messages: []model.EmailSummary{
				{UID: 1, Sender: model.Sender{Email: "a@x.com"}},
				{UID: 2, Sender: model.Sender{Email: "a@x.com"}},
				{UID: 3, Sender: model.Sender{Email: "a@x.com"}},
			}},
	}

	var submitted int
	for _, m := range step(t, c, c.DeleteSenderMessages("me@x.com", "a@x.com")) {
		if b, ok := m.(BulkDeleteSubmittedMsg); ok {
			submitted = b.Count
			continue
		}
		c.Apply(m)
	}

	if submitted != 3 {
		t.Fatalf("submitted = %d, want 3", submitted)
	}
	if diff := cmp.Diff([]uint32{1, 2, 3}, eng.deleteCalls); diff != "" {
		t.Fatalf("remote deletes (-want +got):\n%s", diff)
	}
}

func TestDisconnectPurgesAccountState(t *testing.T) {
	eng := &fakeEngine{}
	c := New(eng, Config{ChunkSize: 200})
	defer c.Teardown()
	connect(t, c, "me@x.com")
	c.selected = "me@x.com"
	c.groups["me@x.com"] = []model.SenderGroup{{SenderEmail: "a@x.com"}}
	c.recent["me@x.com"] = []model.EmailSummary{{UID: 1}}
	c.windows.NextLimit("me@x.com", 9000)

	_ = c.Apply(DisconnectedMsg{Email: "me@x.com"})

	if c.Selected() != "" {
		t.Fatal("selection should be cleared")
	}
	if len(c.Accounts()) != 0 || c.Groups("me@x.com") != nil || c.Recent("me@x.com") != nil {
		t.Fatal("per-account state should be purged")
	}
	if got := c.EffectiveLimit("me@x.com"); got != 0 {
		t.Fatalf("window state survived disconnect: %d", got)
	}
}

func TestIncrementalFailureMarksAccountError(t *testing.T) {
	eng := &fakeEngine{syncErr: &engine.AuthError{Email: "me@x.com", Message: "expired"}}
	c := New(eng, Config{ChunkSize: 200})
	defer c.Teardown()
	connect(t, c, "me@x.com")

	msgs := step(t, c, c.RunIncremental("me@x.com", true))
	cmd := c.Apply(msgs[0])

	if got := c.RuntimeState("me@x.com").Status; got != model.AccountError {
		t.Fatalf("status = %s, want error", got)
	}
	if cmd == nil {
		t.Fatal("sync failure should surface a notice even when silent")
	}
}

func TestConfiguredDefaultsFlowIntoBootstrapAndPoller(t *testing.T) {
	eng := &fakeEngine{count: 500}
	c := New(eng, Config{
		ChunkSize:     200,
		PollInterval:  2 * time.Minute,
		DefaultWindow: 5000,
	})
	defer c.Teardown()
	connect(t, c, "me@x.com")

	if got := c.SyncInterval("me@x.com"); got != 2*time.Minute {
		t.Fatalf("default interval = %v, want the configured 2m", got)
	}

	msgs := step(t, c, c.SelectAccount("me@x.com"))
	step(t, c, c.Apply(msgs[0]))

	if len(eng.windowLimits) != 1 || eng.windowLimits[0] != 5000 {
		t.Fatalf("bootstrap window = %v, want the configured 5000 floor", eng.windowLimits)
	}
}

func TestConfigurePeriodicSyncRearmsSelectedTimer(t *testing.T) {
	eng := &fakeEngine{}
	c := New(eng, Config{ChunkSize: 200})
	defer c.Teardown()
	connect(t, c, "me@x.com")
	_ = c.SelectAccount("me@x.com")

	cmd := c.ConfigurePeriodicSync("me@x.com", 5)

	if got := c.SyncInterval("me@x.com"); got != 5*time.Minute {
		t.Fatalf("interval = %v, want 5m", got)
	}
	if got := c.poller.Email(); got != "me@x.com" {
		t.Fatalf("timer bound to %q, want the selected account", got)
	}

	msgs := step(t, c, cmd)
	if len(msgs) != 1 {
		t.Fatalf("got %d messages, want one notice", len(msgs))
	}
	if _, ok := msgs[0].(NoticeMsg); !ok {
		t.Fatalf("got %T, want NoticeMsg", msgs[0])
	}
	if diff := cmp.Diff([]int{5}, eng.intervalCalls); diff != "" {
		t.Fatalf("persisted intervals (-want +got):\n%s", diff)
	}
}

func TestConfigurePeriodicSyncLeavesOtherTimersAlone(t *testing.T) {
	eng := &fakeEngine{}
	c := New(eng, Config{ChunkSize: 200})
	defer c.Teardown()
	connect(t, c, "a@x.com")
	connect(t, c, "b@x.com")
	_ = c.SelectAccount("a@x.com")

	_ = c.ConfigurePeriodicSync("b@x.com", 15)

	if got := c.poller.Email(); got != "a@x.com" {
		t.Fatalf("timer rebound to %q while a@x.com was selected", got)
	}
	if got := c.SyncInterval("b@x.com"); got != 15*time.Minute {
		t.Fatalf("interval = %v, want 15m stored for later selection", got)
	}
}

func TestConnectMarksAccountConnecting(t *testing.T) {
	eng := &fakeEngine{}
	c := New(eng, Config{ChunkSize: 200})
	defer c.Teardown()

	cmd := c.Connect(engine.Credentials{Email: "me@x.com", Password: "pw"})

	if got := c.RuntimeState("me@x.com").Status; got != model.AccountConnecting {
		t.Fatalf("status = %s, want connecting while the attempt runs", got)
	}

	for _, m := range step(t, c, cmd) {
		c.Apply(m)
	}
	if got := c.RuntimeState("me@x.com").Status; got != model.AccountIdle {
		t.Fatalf("status = %s, want idle after connecting", got)
	}
}

func TestFailedConnectClearsConnectingState(t *testing.T) {
	eng := &fakeEngine{}
	c := New(eng, Config{ChunkSize: 200})
	defer c.Teardown()

	_ = c.ConnectProfile("profile-1", "me@x.com")
	if got := c.RuntimeState("me@x.com").Status; got != model.AccountConnecting {
		t.Fatalf("status = %s, want connecting", got)
	}

	cmd := c.Apply(AccountConnectedMsg{Email: "me@x.com", Err: errAuth("rejected")})
	if cmd == nil {
		t.Fatal("failed connect should surface a notice")
	}
	if got := c.RuntimeState("me@x.com").Status; got != model.AccountIdle {
		t.Fatalf("status = %s, want the placeholder dropped back to idle", got)
	}
	if len(c.Accounts()) != 0 {
		t.Fatal("failed connect must not register an account")
	}
}

func TestStaleSyncResultResetsSyncingStatus(t *testing.T) {
	eng := &fakeEngine{}
	c := New(eng, Config{ChunkSize: 200})
	defer c.Teardown()
	connect(t, c, "a@x.com")
	connect(t, c, "b@x.com")

	_ = c.SelectAccount("a@x.com")
	gen := c.generation
	syncCmd := c.runSync("a@x.com", SyncIncremental, true, gen)

	if got := c.RuntimeState("a@x.com").Status; got != model.AccountSyncing {
		t.Fatalf("status = %s, want syncing while the sync runs", got)
	}

	// Switching accounts supersedes a's bootstrap generation before the
	// sync result lands.
	_ = c.SelectAccount("b@x.com")

	msgs := step(t, c, syncCmd)
	if cmd := c.Apply(msgs[0]); cmd != nil {
		t.Fatal("superseded sync result produced follow-up commands")
	}
	if got := c.RuntimeState("a@x.com").Status; got != model.AccountIdle {
		t.Fatalf("status = %s, want idle after the stale result is dropped", got)
	}
}

// errAuth builds an auth failure for connect tests.
func errAuth(msg string) error {
	return &engine.AuthError{Email: "me@x.com", Message: msg}
}
