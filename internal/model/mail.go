package model

import "time"

// Provider identifies the mail provider an account connects through.
type Provider string

const (
	ProviderGmail   Provider = "gmail"
	ProviderOutlook Provider = "outlook"
	ProviderIMAP    Provider = "imap"
)

// SenderStatus is the user-assigned standing of a sender.
type SenderStatus string

const (
	SenderAllowed SenderStatus = "allowed"
	SenderNeutral SenderStatus = "neutral"
	SenderBlocked SenderStatus = "blocked"
)

// AccountStatus is the lifecycle state of a connected account.
type AccountStatus string

const (
	AccountIdle       AccountStatus = "idle"
	AccountConnecting AccountStatus = "connecting"
	AccountSyncing    AccountStatus = "syncing"
	AccountError      AccountStatus = "error"
)

// Account is a connected mail account. Email and Provider are immutable
// for the lifetime of the connection.
type Account struct {
	// Email is the normalized address and the unique key for all
	// per-account state.
	Email string `json:"email"`

	// Provider identifies the mail provider.
	Provider Provider `json:"provider"`

	// DisplayName is an optional user-facing label.
	DisplayName string `json:"display_name,omitempty"`

	// SyncIntervalMin is the saved background sync interval in minutes.
	// Zero means the client default.
	SyncIntervalMin int `json:"sync_interval_min,omitempty"`
}

// Sender identifies the originator of a message.
type Sender struct {
	Email       string `json:"email"`
	DisplayName string `json:"display_name,omitempty"`
}

// EmailSummary is a read-only projection of one cached message. The set
// keyed by UID is authoritative per fetch; the client never edits fields
// other than Status.
type EmailSummary struct {
	// UID is unique per account and mailbox.
	UID uint32 `json:"uid"`

	Subject string    `json:"subject"`
	Date    time.Time `json:"date"`
	Sender  Sender    `json:"sender"`
	Snippet string    `json:"snippet,omitempty"`
	Flags   []string  `json:"flags,omitempty"`

	// Status mirrors the sender's standing at fetch time.
	Status SenderStatus `json:"status"`

	// AnalysisSummary and AnalysisSentiment are produced by the remote
	// engine's analysis pipeline and carried through unchanged.
	AnalysisSummary   string `json:"analysis_summary,omitempty"`
	AnalysisSentiment string `json:"analysis_sentiment,omitempty"`
}

// SenderGroup aggregates the cached messages of one sender.
// MessageCount always equals len(Messages) after reconciliation.
type SenderGroup struct {
	SenderEmail   string         `json:"sender_email"`
	SenderDisplay string         `json:"sender_display"`
	Status        SenderStatus   `json:"status"`
	MessageCount  int            `json:"message_count"`
	Messages      []EmailSummary `json:"messages"`
}

// SyncReport is the result of one incremental or full sync. It is
// immutable once produced and replaces the previous report for the
// account.
type SyncReport struct {
	Fetched  int           `json:"fetched"`
	Stored   int           `json:"stored"`
	Duration time.Duration `json:"duration_ms"`
}

// SyncProgress is the transient progress of a running full sync,
// replaced by each event and cleared when the sync ends.
type SyncProgress struct {
	Email        string        `json:"email"`
	Batch        int           `json:"batch"`
	TotalBatches int           `json:"total_batches"`
	Fetched      int           `json:"fetched"`
	Stored       int           `json:"stored"`
	Elapsed      time.Duration `json:"elapsed_ms"`
}

// AccountRuntimeState tracks the per-account lifecycle state machine.
// Error is always recoverable by the next successful operation.
type AccountRuntimeState struct {
	Status   AccountStatus `json:"status"`
	LastSync time.Time     `json:"last_sync,omitempty"`
}

// Profile is a saved connection profile. The password lives in the
// system keyring, never in the profile itself.
type Profile struct {
	ID       string    `json:"id"`
	Email    string    `json:"email"`
	Provider Provider  `json:"provider"`
	Host     string    `json:"host"`
	Port     string    `json:"port"`
	SavedAt  time.Time `json:"saved_at"`
}
