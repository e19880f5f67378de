package coordinator

import (
	tea "github.com/charmbracelet/bubbletea"

	"github.com/vivasaayi/PersonalMailClient-sub001/internal/engine"
	"github.com/vivasaayi/PersonalMailClient-sub001/internal/model"
)

// GenAny marks a message that is not tied to a bootstrap sequence: it
// applies whenever its account is still connected, regardless of how
// many selection changes happened since it was issued.
const GenAny = -1

// SyncKind distinguishes the two remote sync operations.
type SyncKind int

const (
	SyncIncremental SyncKind = iota
	SyncFull
)

// AccountConnectedMsg is sent when a connect command finishes. Email is
// the attempted address, carried even when the attempt failed.
type AccountConnectedMsg struct {
	Email   string
	Account model.Account
	Err     error
}

// CountFetchedMsg carries the engine-reported cached-message count.
// Gen ties it to a bootstrap sequence, or GenAny for refreshes.
type CountFetchedMsg struct {
	Email string
	Gen   int
	Count int
	Err   error
}

// WindowFetchedMsg carries one cached-window fetch result.
type WindowFetchedMsg struct {
	Email    string
	Gen      int
	Messages []model.EmailSummary
	Err      error
}

// GroupsFetchedMsg carries one sender-group list fetch result.
type GroupsFetchedMsg struct {
	Email  string
	Gen    int
	Groups []model.SenderGroup
	Err    error
}

// SyncCompletedMsg is sent when an incremental or full sync finishes.
type SyncCompletedMsg struct {
	Email  string
	Gen    int
	Kind   SyncKind
	Silent bool
	Report model.SyncReport
	Err    error
}

// ProgressMsg wraps one progress event from the engine's push stream.
type ProgressMsg struct {
	Event engine.ProgressEvent
}

// PollTickMsg is sent by the periodic poller when the selected account
// is due for a background incremental sync.
type PollTickMsg struct {
	Email string
}

// StatusChangedMsg reports the remote half of an optimistic sender
// status change.
type StatusChangedMsg struct {
	Email  string
	Sender string
	Status model.SenderStatus
	Err    error
}

// MessageDeletedMsg reports the remote half of an optimistic delete.
type MessageDeletedMsg struct {
	Email  string
	Sender string
	UID    uint32
	Err    error
}

// BulkDeleteSubmittedMsg reports how many deletes a bulk action
// submitted. Individual failures surface later as MessageDeletedMsg.
type BulkDeleteSubmittedMsg struct {
	Email string
	Count int
}

// BlockFilterAppliedMsg reports the result of an apply-block-filter
// command.
type BlockFilterAppliedMsg struct {
	Email string
	Moved int
	Err   error
}

// DisconnectedMsg is sent when a disconnect command finishes.
type DisconnectedMsg struct {
	Email string
	Err   error
}

// ProfilesLoadedMsg carries the saved connection profiles.
type ProfilesLoadedMsg struct {
	Profiles []model.Profile
	Err      error
}

// NoticeMsg carries a transient user-facing notice for the status bar.
type NoticeMsg struct {
	Notice model.Notice
}

// noticeCmd wraps a notice in a command.
func noticeCmd(n model.Notice) tea.Cmd {
	return func() tea.Msg {
		return NoticeMsg{Notice: n}
	}
}
