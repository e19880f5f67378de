// Package coordinator is the client-side heart of the mail client: it
// decides how much mail stays cached per account, schedules bootstrap,
// incremental, full, and periodic syncs, reconciles progress events with
// cache refetches, and applies optimistic local mutations while remote
// calls are in flight.
//
// All state maps are owned by the coordinator and mutated only from the
// program's update goroutine; commands returned from its methods do the
// blocking engine calls and feed results back as messages.
package coordinator

import (
	"context"
	"fmt"
	"time"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/google/uuid"

	"github.com/vivasaayi/PersonalMailClient-sub001/internal/cache"
	"github.com/vivasaayi/PersonalMailClient-sub001/internal/engine"
	"github.com/vivasaayi/PersonalMailClient-sub001/internal/model"
	"github.com/vivasaayi/PersonalMailClient-sub001/internal/reconcile"
)

const (
	// bootstrapFloor is the minimum window requested by the bootstrap
	// sequence, regardless of how small the mailbox was last time.
	bootstrapFloor = 2000

	// progressBatchFactor estimates a window floor from a full sync's
	// batch count when one is reported.
	progressBatchFactor = 50
)

// Config tunes the coordinator. Zero values fall back to the built-in
// defaults.
type Config struct {
	// ChunkSize is the batch size passed to the engine's sync commands.
	ChunkSize int

	// PollInterval is the background sync interval for accounts without
	// a per-account override.
	PollInterval time.Duration

	// DefaultWindow raises the bootstrap window floor above the built-in
	// minimum when larger.
	DefaultWindow int
}

// Coordinator orchestrates per-account synchronization and cache state.
type Coordinator struct {
	eng           engine.Engine
	windows       *cache.WindowController
	poller        *Poller
	bridge        *Bridge
	chunkSize     int
	defaultPoll   time.Duration
	defaultWindow int

	// selected is the account whose view is on screen; generation is
	// bumped on every selection change so stale bootstrap continuations
	// can be recognized and dropped.
	selected   string
	generation int

	accounts      map[string]model.Account
	states        map[string]*model.AccountRuntimeState
	recent        map[string][]model.EmailSummary
	groups        map[string][]model.SenderGroup
	expanded      map[string]string
	reports       map[string]model.SyncReport
	progress      map[string]*model.SyncProgress
	pollIntervals map[string]time.Duration

	inflightDeletes map[string]bool
}

// New creates a coordinator over the given engine.
func New(eng engine.Engine, cfg Config) *Coordinator {
	defaultPoll := cfg.PollInterval
	if defaultPoll <= 0 {
		defaultPoll = DefaultPollInterval
	}

	return &Coordinator{
		eng:             eng,
		windows:         cache.NewWindowController(),
		poller:          NewPoller(),
		bridge:          NewBridge(),
		chunkSize:       cfg.ChunkSize,
		defaultPoll:     defaultPoll,
		defaultWindow:   cfg.DefaultWindow,
		accounts:        make(map[string]model.Account),
		states:          make(map[string]*model.AccountRuntimeState),
		recent:          make(map[string][]model.EmailSummary),
		groups:          make(map[string][]model.SenderGroup),
		expanded:        make(map[string]string),
		reports:         make(map[string]model.SyncReport),
		progress:        make(map[string]*model.SyncProgress),
		pollIntervals:   make(map[string]time.Duration),
		inflightDeletes: make(map[string]bool),
	}
}

// Listen returns the subscription commands that keep poller ticks and
// progress events flowing into the program. Call once at Init; Apply
// re-arms them after every delivery.
func (c *Coordinator) Listen() tea.Cmd {
	return tea.Batch(c.poller.WaitForTick(), c.bridge.WaitForEvent())
}

// Teardown stops the poller and detaches the progress subscription.
func (c *Coordinator) Teardown() {
	c.poller.Stop()
	c.bridge.Detach()
}

// Connect returns a command that connects an account from explicit
// credentials. The account shows as connecting until the result lands.
func (c *Coordinator) Connect(creds engine.Credentials) tea.Cmd {
	c.markConnecting(creds.Email)

	eng := c.eng
	return func() tea.Msg {
		acct, err := eng.Connect(context.Background(), creds)
		return AccountConnectedMsg{Email: creds.Email, Account: acct, Err: err}
	}
}

// ConnectProfile returns a command that connects an account from a
// saved profile. email is the profile's address, known to the caller
// from the profile list.
func (c *Coordinator) ConnectProfile(profileID, email string) tea.Cmd {
	c.markConnecting(email)

	eng := c.eng
	return func() tea.Msg {
		acct, err := eng.ConnectProfile(context.Background(), profileID)
		return AccountConnectedMsg{Email: email, Account: acct, Err: err}
	}
}

// markConnecting flips a not-yet-connected account to connecting so the
// UI can show the attempt. Reconnecting accounts keep their state.
func (c *Coordinator) markConnecting(email string) {
	if email == "" || c.connected(email) {
		return
	}
	c.states[email] = &model.AccountRuntimeState{Status: model.AccountConnecting}
}

// LoadProfiles returns a command that lists the saved profiles.
func (c *Coordinator) LoadProfiles() tea.Cmd {
	eng := c.eng
	return func() tea.Msg {
		profiles, err := eng.ListSavedProfiles(context.Background())
		return ProfilesLoadedMsg{Profiles: profiles, Err: err}
	}
}

// SelectAccount makes email the on-screen account and starts its
// bootstrap sequence: count, cached window, sender groups, then a
// silent incremental sync. Any bootstrap still running for a previous
// selection is superseded, and the periodic timer and progress
// subscription move to the new account.
func (c *Coordinator) SelectAccount(email string) tea.Cmd {
	c.selected = email
	c.generation++

	c.poller.Bind(email, c.pollInterval(email))
	c.bridge.Attach(c.eng)

	return c.fetchCount(email, c.generation)
}

// Deselect clears the selection, cancelling the running bootstrap and
// tearing down the periodic timer.
func (c *Coordinator) Deselect() {
	c.selected = ""
	c.generation++
	c.poller.Stop()
	c.bridge.Detach()
}

// RunIncremental returns a command performing one incremental sync.
func (c *Coordinator) RunIncremental(email string, silent bool) tea.Cmd {
	return c.runSync(email, SyncIncremental, silent, GenAny)
}

// RunFullSync starts a full sync: the account flips to syncing and gets
// a zero-valued progress entry immediately, so a progress affordance
// can render before the first event arrives.
func (c *Coordinator) RunFullSync(email string) tea.Cmd {
	return c.runSync(email, SyncFull, false, GenAny)
}

// Disconnect returns a command that disconnects the account remotely;
// the local purge happens when the result message is applied.
func (c *Coordinator) Disconnect(email string) tea.Cmd {
	eng := c.eng
	return func() tea.Msg {
		err := eng.Disconnect(context.Background(), email)
		return DisconnectedMsg{Email: email, Err: err}
	}
}

// ConfigurePeriodicSync sets the account's background sync interval,
// re-arming the live timer when the account is selected, and persists
// the preference through the engine.
func (c *Coordinator) ConfigurePeriodicSync(email string, minutes int) tea.Cmd {
	interval := time.Duration(minutes) * time.Minute
	c.pollIntervals[email] = interval
	if c.selected == email {
		c.poller.Bind(email, interval)
	}

	eng := c.eng
	return func() tea.Msg {
		if err := eng.ConfigurePeriodicSync(context.Background(), email, minutes); err != nil {
			return NoticeMsg{Notice: errorNotice(email, fmt.Sprintf("configuring periodic sync: %v", err))}
		}
		return NoticeMsg{Notice: infoNotice(email, fmt.Sprintf("periodic sync set to every %d minutes", minutes))}
	}
}

// ApplyBlockFilter returns a command that asks the engine to move every
// blocked sender's messages into folder.
func (c *Coordinator) ApplyBlockFilter(email, folder string) tea.Cmd {
	eng := c.eng
	return func() tea.Msg {
		moved, err := eng.ApplyBlockFilter(context.Background(), email, folder)
		return BlockFilterAppliedMsg{Email: email, Moved: moved, Err: err}
	}
}

// Apply mutates coordinator state for one message and returns follow-up
// commands. It must be called from the program's update goroutine for
// every coordinator message type.
func (c *Coordinator) Apply(msg tea.Msg) tea.Cmd {
	switch msg := msg.(type) {
	case AccountConnectedMsg:
		return c.applyConnected(msg)
	case CountFetchedMsg:
		return c.applyCount(msg)
	case WindowFetchedMsg:
		return c.applyWindow(msg)
	case GroupsFetchedMsg:
		return c.applyGroups(msg)
	case SyncCompletedMsg:
		return c.applySyncCompleted(msg)
	case ProgressMsg:
		return c.applyProgress(msg)
	case PollTickMsg:
		return c.applyPollTick(msg)
	case StatusChangedMsg:
		return c.applyStatusChanged(msg)
	case MessageDeletedMsg:
		return c.applyMessageDeleted(msg)
	case BlockFilterAppliedMsg:
		return c.applyBlockFilter(msg)
	case DisconnectedMsg:
		return c.applyDisconnected(msg)
	}
	return nil
}

// === message application ===

func (c *Coordinator) applyConnected(msg AccountConnectedMsg) tea.Cmd {
	if msg.Err != nil {
		// The attempt failed before the account ever connected; drop the
		// connecting placeholder so nothing renders a dead account.
		if st, ok := c.states[msg.Email]; ok &&
			st.Status == model.AccountConnecting && !c.connected(msg.Email) {
			delete(c.states, msg.Email)
		}
		return noticeCmd(errorNotice(msg.Email, fmt.Sprintf("connect failed: %v", msg.Err)))
	}

	email := msg.Account.Email
	c.accounts[email] = msg.Account
	c.states[email] = &model.AccountRuntimeState{Status: model.AccountIdle}
	if msg.Account.SyncIntervalMin > 0 {
		c.pollIntervals[email] = time.Duration(msg.Account.SyncIntervalMin) * time.Minute
	}

	return noticeCmd(successNotice(email, "connected"))
}

func (c *Coordinator) applyCount(msg CountFetchedMsg) tea.Cmd {
	if msg.Err != nil {
		return c.fetchFailed(msg.Email, msg.Gen, "fetching cached count", msg.Err)
	}
	if !c.resultApplies(msg.Email, msg.Gen) {
		return nil
	}

	c.windows.RecordKnownTotal(msg.Email, msg.Count)

	if msg.Gen == GenAny {
		return nil
	}

	// Bootstrap step 2: fetch the cached window at the bootstrap floor.
	limit := c.windows.NextLimit(msg.Email, c.windowFloor())
	return c.fetchWindow(msg.Email, limit, msg.Gen)
}

func (c *Coordinator) applyWindow(msg WindowFetchedMsg) tea.Cmd {
	if msg.Err != nil {
		return c.fetchFailed(msg.Email, msg.Gen, "fetching cached window", msg.Err)
	}
	if !c.resultApplies(msg.Email, msg.Gen) {
		return nil
	}

	c.recent[msg.Email] = msg.Messages

	if msg.Gen == GenAny {
		return nil
	}

	// Bootstrap step 3: fetch the sender-grouped view.
	return c.fetchGroups(msg.Email, msg.Gen)
}

func (c *Coordinator) applyGroups(msg GroupsFetchedMsg) tea.Cmd {
	if msg.Err != nil {
		return c.fetchFailed(msg.Email, msg.Gen, "fetching sender groups", msg.Err)
	}
	if !c.resultApplies(msg.Email, msg.Gen) {
		return nil
	}

	res := reconcile.Merge(c.groups[msg.Email], msg.Groups, c.expanded[msg.Email])
	c.expanded[msg.Email] = res.Expanded
	if res.Changed {
		c.groups[msg.Email] = res.Groups
	}

	if msg.Gen == GenAny {
		return nil
	}

	// Bootstrap step 4: a silent incremental sync brings in anything
	// newer than the cache.
	return c.runSync(msg.Email, SyncIncremental, true, msg.Gen)
}

func (c *Coordinator) applySyncCompleted(msg SyncCompletedMsg) tea.Cmd {
	if !c.resultApplies(msg.Email, msg.Gen) {
		// A bootstrap's sync can finish after its selection was
		// superseded; the account must not stay stuck in syncing.
		if c.connected(msg.Email) {
			if st, ok := c.states[msg.Email]; ok && st.Status == model.AccountSyncing {
				st.Status = model.AccountIdle
			}
		}
		return nil
	}

	st := c.state(msg.Email)

	if msg.Err != nil {
		st.Status = model.AccountError
		if msg.Kind == SyncFull {
			delete(c.progress, msg.Email)
		}
		return noticeCmd(errorNotice(msg.Email, fmt.Sprintf("sync failed: %v", msg.Err)))
	}

	st.Status = model.AccountIdle
	st.LastSync = time.Now()
	c.reports[msg.Email] = msg.Report

	var limit int
	if msg.Kind == SyncFull {
		delete(c.progress, msg.Email)
		limit = c.windows.NextLimit(msg.Email, msg.Report.Stored)
	} else {
		limit = c.windows.NextLimit(msg.Email, 0)
	}

	cmds := []tea.Cmd{
		c.fetchWindow(msg.Email, limit, GenAny),
		c.fetchGroups(msg.Email, GenAny),
		c.fetchCount(msg.Email, GenAny),
	}

	if !msg.Silent {
		if msg.Report.Stored > 0 {
			cmds = append(cmds, noticeCmd(successNotice(
				msg.Email,
				fmt.Sprintf("synced %d new messages", msg.Report.Stored),
			)))
		} else {
			cmds = append(cmds, noticeCmd(infoNotice(msg.Email, "mailbox is up to date")))
		}
	}

	return tea.Batch(cmds...)
}

func (c *Coordinator) applyProgress(msg ProgressMsg) tea.Cmd {
	cmds := []tea.Cmd{c.bridge.WaitForEvent()}

	ev := msg.Event
	if c.connected(ev.Email) {
		c.progress[ev.Email] = &model.SyncProgress{
			Email:        ev.Email,
			Batch:        ev.Batch,
			TotalBatches: ev.TotalBatches,
			Fetched:      ev.Fetched,
			Stored:       ev.Stored,
			Elapsed:      ev.Elapsed,
		}

		// Only the selected account drives refetches; other accounts
		// just record progress for later display. This bounds concurrent
		// fetch volume to one account at a time.
		if ev.Email == c.selected {
			floor := ev.Fetched
			if ev.TotalBatches > 0 {
				floor = ev.TotalBatches * progressBatchFactor
			}
			limit := c.windows.NextLimit(ev.Email, floor)
			cmds = append(cmds, c.fetchWindow(ev.Email, limit, GenAny))
		}
	}

	return tea.Batch(cmds...)
}

func (c *Coordinator) applyPollTick(msg PollTickMsg) tea.Cmd {
	cmds := []tea.Cmd{c.poller.WaitForTick()}

	if msg.Email == c.selected && c.connected(msg.Email) {
		cmds = append(cmds, c.runSync(msg.Email, SyncIncremental, true, GenAny))
	}

	return tea.Batch(cmds...)
}

func (c *Coordinator) applyBlockFilter(msg BlockFilterAppliedMsg) tea.Cmd {
	if msg.Err != nil {
		return noticeCmd(errorNotice(msg.Email, fmt.Sprintf("applying block filter: %v", msg.Err)))
	}
	if !c.connected(msg.Email) {
		return nil
	}

	limit := c.windows.NextLimit(msg.Email, 0)
	return tea.Batch(
		c.fetchWindow(msg.Email, limit, GenAny),
		c.fetchGroups(msg.Email, GenAny),
		c.fetchCount(msg.Email, GenAny),
		noticeCmd(successNotice(msg.Email, fmt.Sprintf("moved %d blocked messages", msg.Moved))),
	)
}

func (c *Coordinator) applyDisconnected(msg DisconnectedMsg) tea.Cmd {
	// Local state is purged even when the remote call failed: the user
	// asked for the account to go away.
	c.purgeAccount(msg.Email)

	if msg.Err != nil {
		return noticeCmd(errorNotice(msg.Email, fmt.Sprintf("disconnect: %v", msg.Err)))
	}
	return noticeCmd(infoNotice(msg.Email, "disconnected"))
}

// === commands ===

func (c *Coordinator) fetchCount(email string, gen int) tea.Cmd {
	eng := c.eng
	return func() tea.Msg {
		count, err := eng.FetchCachedCount(context.Background(), email)
		return CountFetchedMsg{Email: email, Gen: gen, Count: count, Err: err}
	}
}

func (c *Coordinator) fetchWindow(email string, limit, gen int) tea.Cmd {
	eng := c.eng
	return func() tea.Msg {
		msgs, err := eng.FetchCachedWindow(context.Background(), email, limit)
		return WindowFetchedMsg{Email: email, Gen: gen, Messages: msgs, Err: err}
	}
}

func (c *Coordinator) fetchGroups(email string, gen int) tea.Cmd {
	eng := c.eng
	return func() tea.Msg {
		groups, err := eng.ListSenderGroups(context.Background(), email)
		return GroupsFetchedMsg{Email: email, Gen: gen, Groups: groups, Err: err}
	}
}

// runSync flips the account to syncing, seeds the progress entry for
// full syncs, and returns the command performing the remote call.
func (c *Coordinator) runSync(email string, kind SyncKind, silent bool, gen int) tea.Cmd {
	st := c.state(email)
	st.Status = model.AccountSyncing

	if kind == SyncFull {
		c.progress[email] = &model.SyncProgress{Email: email}
	}

	eng := c.eng
	chunk := c.chunkSize
	return func() tea.Msg {
		var (
			report model.SyncReport
			err    error
		)
		if kind == SyncFull {
			report, err = eng.SyncFull(context.Background(), email, chunk)
		} else {
			report, err = eng.SyncIncremental(context.Background(), email, chunk)
		}
		return SyncCompletedMsg{
			Email:  email,
			Gen:    gen,
			Kind:   kind,
			Silent: silent,
			Report: report,
			Err:    err,
		}
	}
}

// === guards & state helpers ===

// resultApplies reports whether an async result may be applied:
// bootstrap steps require the selection generation that issued them to
// still be current, everything else only requires the account to still
// be connected.
func (c *Coordinator) resultApplies(email string, gen int) bool {
	if gen == GenAny {
		return c.connected(email)
	}
	return c.selected == email && c.generation == gen
}

func (c *Coordinator) connected(email string) bool {
	_, ok := c.accounts[email]
	return ok
}

// fetchFailed marks the account failed and surfaces the error, unless
// the result is stale anyway.
func (c *Coordinator) fetchFailed(email string, gen int, op string, err error) tea.Cmd {
	if !c.resultApplies(email, gen) {
		return nil
	}
	c.state(email).Status = model.AccountError
	return noticeCmd(errorNotice(email, fmt.Sprintf("%s: %v", op, err)))
}

// state returns the runtime state for email, creating an idle one on
// first use.
func (c *Coordinator) state(email string) *model.AccountRuntimeState {
	st, ok := c.states[email]
	if !ok {
		st = &model.AccountRuntimeState{Status: model.AccountIdle}
		c.states[email] = st
	}
	return st
}

// pollInterval returns the account's configured background interval, or
// the configured default.
func (c *Coordinator) pollInterval(email string) time.Duration {
	if d, ok := c.pollIntervals[email]; ok && d > 0 {
		return d
	}
	return c.defaultPoll
}

// windowFloor is the minimum window requested during bootstrap: the
// built-in floor, raised by the configured default fetch window.
func (c *Coordinator) windowFloor() int {
	if c.defaultWindow > bootstrapFloor {
		return c.defaultWindow
	}
	return bootstrapFloor
}

// purgeAccount drops every per-account map entry so nothing orphaned
// references a removed account.
func (c *Coordinator) purgeAccount(email string) {
	delete(c.accounts, email)
	delete(c.states, email)
	delete(c.recent, email)
	delete(c.groups, email)
	delete(c.expanded, email)
	delete(c.reports, email)
	delete(c.progress, email)
	delete(c.pollIntervals, email)
	c.windows.Forget(email)

	prefix := email + "::"
	for key := range c.inflightDeletes {
		if len(key) >= len(prefix) && key[:len(prefix)] == prefix {
			delete(c.inflightDeletes, key)
		}
	}

	if c.selected == email {
		c.selected = ""
		c.generation++
		c.poller.Stop()
		c.bridge.Detach()
	}
}

// === snapshots for the presentation layer ===

// Selected returns the on-screen account email, or empty.
func (c *Coordinator) Selected() string { return c.selected }

// Accounts returns the connected accounts in undefined order.
func (c *Coordinator) Accounts() []model.Account {
	out := make([]model.Account, 0, len(c.accounts))
	for _, a := range c.accounts {
		out = append(out, a)
	}
	return out
}

// RuntimeState returns a copy of the account's lifecycle state.
func (c *Coordinator) RuntimeState(email string) model.AccountRuntimeState {
	if st, ok := c.states[email]; ok {
		return *st
	}
	return model.AccountRuntimeState{Status: model.AccountIdle}
}

// Groups returns the account's reconciled sender groups.
func (c *Coordinator) Groups(email string) []model.SenderGroup {
	return c.groups[email]
}

// Recent returns the account's cached window, newest first.
func (c *Coordinator) Recent(email string) []model.EmailSummary {
	return c.recent[email]
}

// Report returns the account's latest sync report.
func (c *Coordinator) Report(email string) (model.SyncReport, bool) {
	r, ok := c.reports[email]
	return r, ok
}

// Progress returns the account's live full-sync progress, or nil.
func (c *Coordinator) Progress(email string) *model.SyncProgress {
	return c.progress[email]
}

// Expanded returns the account's expanded sender, or empty.
func (c *Coordinator) Expanded(email string) string {
	return c.expanded[email]
}

// ExpandSender records which sender the account's view has open.
func (c *Coordinator) ExpandSender(email, sender string) {
	c.expanded[email] = sender
}

// EffectiveLimit exposes the account's current cache window size.
func (c *Coordinator) EffectiveLimit(email string) int {
	return c.windows.EffectiveLimit(email)
}

// SyncInterval returns the account's effective background sync interval.
func (c *Coordinator) SyncInterval(email string) time.Duration {
	return c.pollInterval(email)
}

// === notices ===

func infoNotice(email, message string) model.Notice {
	return newNotice(model.NoticeInfo, email, message)
}

func successNotice(email, message string) model.Notice {
	return newNotice(model.NoticeSuccess, email, message)
}

func errorNotice(email, message string) model.Notice {
	return newNotice(model.NoticeError, email, message)
}

func newNotice(level model.NoticeLevel, email, message string) model.Notice {
	return model.Notice{
		ID:        uuid.New().String(),
		Level:     level,
		Account:   email,
		Message:   message,
		CreatedAt: time.Now(),
	}
}
