package engine

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/vivasaayi/PersonalMailClient-sub001/internal/model"
)

// AuthError indicates that authentication has failed or expired for an
// account. It is returned by engine implementations when the remote
// mailbox rejects the stored credentials.
type AuthError struct {
	Email   string
	Message string
}

func (e *AuthError) Error() string {
	return fmt.Sprintf("auth error (%s): %s", e.Email, e.Message)
}

// IsAuthError reports whether err (or any error in its chain) is an AuthError.
func IsAuthError(err error) bool {
	var authErr *AuthError
	return errors.As(err, &authErr)
}

// Credentials carries everything needed to connect an account directly,
// without a saved profile.
type Credentials struct {
	Email    string
	Password string
	Provider model.Provider
	Host     string
	Port     string
	TLS      bool
}

// ProgressEvent is one push notification emitted while a full sync runs.
// Events are delivered for any account currently running a full sync,
// not just the selected one.
type ProgressEvent struct {
	Email        string
	Batch        int
	TotalBatches int
	Fetched      int
	Stored       int
	Elapsed      time.Duration
}

// ProgressFunc receives progress events. It is invoked from the engine's
// sync goroutine; receivers must not block.
type ProgressFunc func(ProgressEvent)

// Engine is the command/response contract the coordinator consumes from
// the remote mail-synchronization engine. IMAP handling, credential
// storage, analysis, and persistence all live behind this interface.
type Engine interface {
	// Connect establishes an account session from explicit credentials.
	Connect(ctx context.Context, creds Credentials) (model.Account, error)

	// ConnectProfile establishes an account session from a saved profile,
	// resolving the secret internally.
	ConnectProfile(ctx context.Context, profileID string) (model.Account, error)

	// Disconnect tears down the account session. Cached state owned by
	// the engine survives; client-side state does not.
	Disconnect(ctx context.Context, email string) error

	// FetchCachedWindow returns up to limit of the most recent cached
	// messages for the account, newest first.
	FetchCachedWindow(ctx context.Context, email string, limit int) ([]model.EmailSummary, error)

	// FetchCachedCount returns the total number of cached messages.
	FetchCachedCount(ctx context.Context, email string) (int, error)

	// ListSenderGroups returns the cached messages aggregated by sender.
	ListSenderGroups(ctx context.Context, email string) ([]model.SenderGroup, error)

	// SyncIncremental fetches only messages newer than the last sync.
	SyncIncremental(ctx context.Context, email string, chunkSize int) (model.SyncReport, error)

	// SyncFull re-fetches the mailbox in chunkSize batches, emitting one
	// ProgressEvent per batch to all subscribers.
	SyncFull(ctx context.Context, email string, chunkSize int) (model.SyncReport, error)

	// SetSenderStatus records the standing of a sender for the account.
	SetSenderStatus(ctx context.Context, email, senderEmail string, status model.SenderStatus) error

	// DeleteMessage removes a message from the remote mailbox and the
	// engine's cache.
	DeleteMessage(ctx context.Context, email string, uid uint32) error

	// ConfigurePeriodicSync persists the account's background sync
	// interval preference.
	ConfigurePeriodicSync(ctx context.Context, email string, minutes int) error

	// ApplyBlockFilter moves every cached message from blocked senders
	// into targetFolder and returns the number moved.
	ApplyBlockFilter(ctx context.Context, email, targetFolder string) (int, error)

	// ListSavedProfiles returns the saved connection profiles.
	ListSavedProfiles(ctx context.Context) ([]model.Profile, error)

	// SavedSecret returns the stored secret for a saved profile.
	SavedSecret(ctx context.Context, profileID string) (string, error)

	// Subscribe registers a progress listener and returns an unsubscribe
	// function. Unsubscribing is idempotent.
	Subscribe(fn ProgressFunc) (unsubscribe func())
}
