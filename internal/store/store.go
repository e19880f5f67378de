package store

import (
	"context"
	"time"

	"github.com/vivasaayi/PersonalMailClient-sub001/internal/model"
)

// SyncState tracks the engine-side synchronization bookkeeping for one
// account: the highest UID already fetched and the configured background
// sync interval.
type SyncState struct {
	AccountEmail    string
	LastUID         uint32
	LastSync        time.Time
	PollIntervalMin int
}

// Store defines the persistence interface for the engine's message
// cache, sender standings, saved connection profiles, and sync state.
type Store interface {
	// === Messages ===

	UpsertMessages(ctx context.Context, account string, msgs []model.EmailSummary) error
	RecentMessages(ctx context.Context, account string, limit int) ([]model.EmailSummary, error)
	MessageCount(ctx context.Context, account string) (int, error)
	DeleteMessage(ctx context.Context, account string, uid uint32) error

	// === Sender groups & standings ===

	SenderGroups(ctx context.Context, account string) ([]model.SenderGroup, error)
	SetSenderStatus(ctx context.Context, account, sender string, status model.SenderStatus) error
	MessagesBySenderStatus(ctx context.Context, account string, status model.SenderStatus) ([]model.EmailSummary, error)

	// === Saved profiles ===

	SaveProfile(ctx context.Context, p model.Profile) (model.Profile, error)
	GetProfile(ctx context.Context, id string) (*model.Profile, error)
	ListProfiles(ctx context.Context) ([]model.Profile, error)
	DeleteProfile(ctx context.Context, id string) error

	// === Sync state ===

	GetSyncState(ctx context.Context, account string) (*SyncState, error)
	SetSyncState(ctx context.Context, state SyncState) error

	// === Lifecycle ===

	PurgeAccount(ctx context.Context, account string) error
	Close() error
}
