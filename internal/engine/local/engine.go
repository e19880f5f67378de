// Package local is a reference implementation of the mail-synchronization
// engine contract: IMAP transport in front of a local SQLite envelope
// cache. The coordinator never depends on this package directly; it only
// sees the engine interface.
package local

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/vivasaayi/PersonalMailClient-sub001/internal/credential"
	"github.com/vivasaayi/PersonalMailClient-sub001/internal/engine"
	"github.com/vivasaayi/PersonalMailClient-sub001/internal/model"
	"github.com/vivasaayi/PersonalMailClient-sub001/internal/store"
)

// Secrets abstracts the credential backend so tests can avoid the
// system keyring.
type Secrets interface {
	Get(key string) (string, error)
	Set(key, value string) error
}

// keyringSecrets is the default Secrets backed by the system keyring.
type keyringSecrets struct{}

func (keyringSecrets) Get(key string) (string, error) { return credential.Get(key) }
func (keyringSecrets) Set(key, value string) error    { return credential.Set(key, value) }

// Engine implements the engine contract with go-imap transport and a
// sqlite-backed cache.
type Engine struct {
	store   store.Store
	secrets Secrets

	mu          sync.Mutex
	sessions    map[string]engine.Credentials
	subscribers map[int]engine.ProgressFunc
	nextSubID   int
}

var _ engine.Engine = (*Engine)(nil)

// New creates an engine over the given store, using the system keyring
// for secrets.
func New(s store.Store) *Engine {
	return NewWithSecrets(s, keyringSecrets{})
}

// NewWithSecrets creates an engine with an explicit secret backend.
func NewWithSecrets(s store.Store, secrets Secrets) *Engine {
	return &Engine{
		store:       s,
		secrets:     secrets,
		sessions:    make(map[string]engine.Credentials),
		subscribers: make(map[int]engine.ProgressFunc),
	}
}

// Connect validates the credentials against the IMAP server, records the
// session, and saves a reconnectable profile with its secret.
func (e *Engine) Connect(ctx context.Context, creds engine.Credentials) (model.Account, error) {
	creds = withProviderDefaults(creds)

	client := e.client(creds)
	if err := client.Validate(ctx); err != nil {
		return model.Account{}, err
	}

	e.mu.Lock()
	e.sessions[creds.Email] = creds
	e.mu.Unlock()

	if _, err := e.store.SaveProfile(ctx, model.Profile{
		Email:    creds.Email,
		Provider: creds.Provider,
		Host:     creds.Host,
		Port:     creds.Port,
	}); err != nil {
		return model.Account{}, fmt.Errorf("saving profile: %w", err)
	}
	if err := e.secrets.Set(secretKey(creds.Email), creds.Password); err != nil {
		return model.Account{}, fmt.Errorf("storing secret: %w", err)
	}

	account := model.Account{
		Email:    creds.Email,
		Provider: creds.Provider,
	}
	if st, err := e.store.GetSyncState(ctx, creds.Email); err == nil {
		account.SyncIntervalMin = st.PollIntervalMin
	}
	return account, nil
}

// ConnectProfile resolves a saved profile and its keyring secret, then
// connects with them.
func (e *Engine) ConnectProfile(ctx context.Context, profileID string) (model.Account, error) {
	p, err := e.store.GetProfile(ctx, profileID)
	if err != nil {
		return model.Account{}, err
	}
	if p == nil {
		return model.Account{}, fmt.Errorf("profile %s not found", profileID)
	}

	secret, err := e.secrets.Get(secretKey(p.Email))
	if err != nil {
		return model.Account{}, &engine.AuthError{
			Email:   p.Email,
			Message: fmt.Sprintf("no stored secret for %s: %v", p.Email, err),
		}
	}

	return e.Connect(ctx, engine.Credentials{
		Email:    p.Email,
		Password: secret,
		Provider: p.Provider,
		Host:     p.Host,
		Port:     p.Port,
		TLS:      true,
	})
}

// Disconnect ends the account session and purges its cached rows.
func (e *Engine) Disconnect(ctx context.Context, email string) error {
	e.mu.Lock()
	delete(e.sessions, email)
	e.mu.Unlock()

	return e.store.PurgeAccount(ctx, email)
}

// FetchCachedWindow returns up to limit of the most recent cached
// messages, newest first.
func (e *Engine) FetchCachedWindow(ctx context.Context, email string, limit int) ([]model.EmailSummary, error) {
	return e.store.RecentMessages(ctx, email, limit)
}

// FetchCachedCount returns the total cached-message count.
func (e *Engine) FetchCachedCount(ctx context.Context, email string) (int, error) {
	return e.store.MessageCount(ctx, email)
}

// ListSenderGroups returns the cached messages aggregated by sender.
func (e *Engine) ListSenderGroups(ctx context.Context, email string) ([]model.SenderGroup, error) {
	return e.store.SenderGroups(ctx, email)
}

// SyncIncremental fetches envelopes with UIDs above the last synced one
// and stores them, advancing the sync watermark.
func (e *Engine) SyncIncremental(ctx context.Context, email string, chunkSize int) (model.SyncReport, error) {
	creds, err := e.session(email)
	if err != nil {
		return model.SyncReport{}, err
	}

	st, err := e.store.GetSyncState(ctx, email)
	if err != nil {
		return model.SyncReport{}, err
	}

	start := time.Now()
	var fetched, stored int
	maxUID := st.LastUID

	client := e.client(creds)
	err = client.FetchEnvelopesSince(ctx, st.LastUID, chunkSize, func(batch []Envelope) error {
		fetched += len(batch)

		msgs := make([]model.EmailSummary, len(batch))
		for i, env := range batch {
			msgs[i] = env.summary()
			if env.UID > maxUID {
				maxUID = env.UID
			}
		}

		if err := e.store.UpsertMessages(ctx, email, msgs); err != nil {
			return err
		}
		stored += len(msgs)
		return nil
	})
	if err != nil {
		return model.SyncReport{}, err
	}

	st.LastUID = maxUID
	st.LastSync = time.Now().UTC()
	if err := e.store.SetSyncState(ctx, *st); err != nil {
		return model.SyncReport{}, err
	}

	return model.SyncReport{
		Fetched:  fetched,
		Stored:   stored,
		Duration: time.Since(start),
	}, nil
}

// SyncFull re-fetches the whole mailbox in chunkSize batches, emitting
// one progress event per stored batch.
func (e *Engine) SyncFull(ctx context.Context, email string, chunkSize int) (model.SyncReport, error) {
	creds, err := e.session(email)
	if err != nil {
		return model.SyncReport{}, err
	}

	start := time.Now()
	var fetched, stored int
	var maxUID uint32

	client := e.client(creds)
	err = client.FetchAllEnvelopes(ctx, 0, chunkSize, func(batch []Envelope, batchNum, totalBatches int) error {
		fetched += len(batch)

		msgs := make([]model.EmailSummary, len(batch))
		for i, env := range batch {
			msgs[i] = env.summary()
			if env.UID > maxUID {
				maxUID = env.UID
			}
		}

		if err := e.store.UpsertMessages(ctx, email, msgs); err != nil {
			return err
		}
		stored += len(msgs)

		e.publish(engine.ProgressEvent{
			Email:        email,
			Batch:        batchNum,
			TotalBatches: totalBatches,
			Fetched:      fetched,
			Stored:       stored,
			Elapsed:      time.Since(start),
		})
		return nil
	})
	if err != nil {
		return model.SyncReport{}, err
	}

	st, err := e.store.GetSyncState(ctx, email)
	if err != nil {
		return model.SyncReport{}, err
	}
	if maxUID > st.LastUID {
		st.LastUID = maxUID
	}
	st.LastSync = time.Now().UTC()
	if err := e.store.SetSyncState(ctx, *st); err != nil {
		return model.SyncReport{}, err
	}

	return model.SyncReport{
		Fetched:  fetched,
		Stored:   stored,
		Duration: time.Since(start),
	}, nil
}

// SetSenderStatus records the sender's standing in the cache.
func (e *Engine) SetSenderStatus(ctx context.Context, email, senderEmail string, status model.SenderStatus) error {
	return e.store.SetSenderStatus(ctx, email, senderEmail, status)
}

// DeleteMessage removes the message from the remote mailbox and then
// from the cache.
func (e *Engine) DeleteMessage(ctx context.Context, email string, uid uint32) error {
	creds, err := e.session(email)
	if err != nil {
		return err
	}

	if err := e.client(creds).DeleteMessage(ctx, uid); err != nil {
		return err
	}

	return e.store.DeleteMessage(ctx, email, uid)
}

// ConfigurePeriodicSync persists the account's background sync interval.
func (e *Engine) ConfigurePeriodicSync(ctx context.Context, email string, minutes int) error {
	st, err := e.store.GetSyncState(ctx, email)
	if err != nil {
		return err
	}
	st.PollIntervalMin = minutes
	return e.store.SetSyncState(ctx, *st)
}

// ApplyBlockFilter moves every cached message from blocked senders into
// targetFolder and drops them from the cache. Returns the number moved.
func (e *Engine) ApplyBlockFilter(ctx context.Context, email, targetFolder string) (int, error) {
	creds, err := e.session(email)
	if err != nil {
		return 0, err
	}

	msgs, err := e.store.MessagesBySenderStatus(ctx, email, model.SenderBlocked)
	if err != nil {
		return 0, err
	}
	if len(msgs) == 0 {
		return 0, nil
	}

	uids := make([]uint32, len(msgs))
	for i, m := range msgs {
		uids[i] = m.UID
	}

	if err := e.client(creds).MoveMessages(ctx, uids, targetFolder); err != nil {
		return 0, err
	}

	for _, uid := range uids {
		if err := e.store.DeleteMessage(ctx, email, uid); err != nil {
			return 0, err
		}
	}

	return len(uids), nil
}

// ListSavedProfiles returns all saved connection profiles.
func (e *Engine) ListSavedProfiles(ctx context.Context) ([]model.Profile, error) {
	return e.store.ListProfiles(ctx)
}

// SavedSecret returns the stored secret for a saved profile.
func (e *Engine) SavedSecret(ctx context.Context, profileID string) (string, error) {
	p, err := e.store.GetProfile(ctx, profileID)
	if err != nil {
		return "", err
	}
	if p == nil {
		return "", fmt.Errorf("profile %s not found", profileID)
	}
	return e.secrets.Get(secretKey(p.Email))
}

// Subscribe registers a progress listener. The returned function
// unsubscribes and is safe to call more than once.
func (e *Engine) Subscribe(fn engine.ProgressFunc) func() {
	e.mu.Lock()
	id := e.nextSubID
	e.nextSubID++
	e.subscribers[id] = fn
	e.mu.Unlock()

	return func() {
		e.mu.Lock()
		delete(e.subscribers, id)
		e.mu.Unlock()
	}
}

// publish delivers a progress event to every subscriber.
func (e *Engine) publish(ev engine.ProgressEvent) {
	e.mu.Lock()
	fns := make([]engine.ProgressFunc, 0, len(e.subscribers))
	for _, fn := range e.subscribers {
		fns = append(fns, fn)
	}
	e.mu.Unlock()

	for _, fn := range fns {
		fn(ev)
	}
}

// session returns the credentials for a connected account.
func (e *Engine) session(email string) (engine.Credentials, error) {
	e.mu.Lock()
	defer e.mu.Unlock()

	creds, ok := e.sessions[email]
	if !ok {
		return engine.Credentials{}, fmt.Errorf("account %s is not connected", email)
	}
	return creds, nil
}

// client builds an IMAP client for the credentials.
func (e *Engine) client(creds engine.Credentials) *IMAPClient {
	return NewIMAPClient(creds.Host, creds.Port, creds.Email, creds.Password, creds.TLS)
}

// secretKey is the keyring key for an account's password.
func secretKey(email string) string {
	return "account-" + email
}

// withProviderDefaults fills host/port for well-known providers.
func withProviderDefaults(creds engine.Credentials) engine.Credentials {
	if creds.Host == "" {
		switch creds.Provider {
		case model.ProviderGmail:
			creds.Host = "imap.gmail.com"
		case model.ProviderOutlook:
			creds.Host = "outlook.office365.com"
		}
	}
	if creds.Port == "" {
		creds.Port = "993"
		creds.TLS = true
	}
	return creds
}
