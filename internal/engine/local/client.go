package local

import (
	"context"
	"fmt"

	"github.com/emersion/go-imap/v2"
	"github.com/emersion/go-imap/v2/imapclient"

	"github.com/vivasaayi/PersonalMailClient-sub001/internal/engine"
)

// IMAPClient wraps go-imap v2 for connecting to and querying IMAP servers.
// Each operation dials a fresh connection and logs out when done.
type IMAPClient struct {
	host     string
	port     string
	username string
	password string
	tls      bool
}

// NewIMAPClient creates a new IMAP client configuration.
func NewIMAPClient(host, port, username, password string, tls bool) *IMAPClient {
	return &IMAPClient{
		host:     host,
		port:     port,
		username: username,
		password: password,
		tls:      tls,
	}
}

// Connect establishes a connection to the IMAP server, authenticates,
// and returns the connected client. The caller is responsible for
// calling Logout on the returned client.
func (c *IMAPClient) Connect(_ context.Context) (*imapclient.Client, error) {
	addr := c.host + ":" + c.port

	var client *imapclient.Client
	var err error

	if c.tls {
		client, err = imapclient.DialTLS(addr, nil)
	} else {
		client, err = imapclient.DialStartTLS(addr, nil)
	}
	if err != nil {
		return nil, fmt.Errorf("connecting to IMAP %s: %w", addr, err)
	}

	if err := client.Login(c.username, c.password).Wait(); err != nil {
		_ = client.Logout().Wait()
		return nil, &engine.AuthError{
			Email: c.username,
			Message: fmt.Sprintf(
				"authentication failed for %s: %v",
				c.username, err,
			),
		}
	}

	return client, nil
}

// Validate dials and authenticates, then disconnects. Used by connect
// commands to verify credentials before any sync runs.
func (c *IMAPClient) Validate(ctx context.Context) error {
	client, err := c.Connect(ctx)
	if err != nil {
		return err
	}
	return client.Logout().Wait()
}

// FetchEnvelopesSince selects INBOX and fetches envelopes for every
// message with UID greater than lastUID, in chunkSize batches. onBatch
// is invoked once per batch; returning an error aborts the fetch.
func (c *IMAPClient) FetchEnvelopesSince(
	ctx context.Context,
	lastUID uint32,
	chunkSize int,
	onBatch func(batch []Envelope) error,
) error {
	client, err := c.Connect(ctx)
	if err != nil {
		return err
	}
	defer func() { _ = client.Logout().Wait() }()

	if _, err := client.Select("INBOX", nil).Wait(); err != nil {
		return fmt.Errorf("selecting INBOX: %w", err)
	}

	criteria := &imap.SearchCriteria{
		UID: []imap.UIDSet{uidRangeAbove(lastUID)},
	}
	searchData, err := client.UIDSearch(criteria, nil).Wait()
	if err != nil {
		return fmt.Errorf("searching messages: %w", err)
	}

	uids := searchData.AllUIDs()
	return c.fetchChunks(client, uids, chunkSize, func(batch []Envelope, _, _ int) error {
		return onBatch(batch)
	})
}

// FetchAllEnvelopes selects INBOX and re-fetches up to limit of the most
// recent messages in chunkSize batches, reporting batch numbers so the
// caller can emit progress.
func (c *IMAPClient) FetchAllEnvelopes(
	ctx context.Context,
	limit int,
	chunkSize int,
	onBatch func(batch []Envelope, batchNum, totalBatches int) error,
) error {
	client, err := c.Connect(ctx)
	if err != nil {
		return err
	}
	defer func() { _ = client.Logout().Wait() }()

	if _, err := client.Select("INBOX", nil).Wait(); err != nil {
		return fmt.Errorf("selecting INBOX: %w", err)
	}

	searchData, err := client.UIDSearch(&imap.SearchCriteria{}, nil).Wait()
	if err != nil {
		return fmt.Errorf("searching messages: %w", err)
	}

	uids := searchData.AllUIDs()
	if limit > 0 && len(uids) > limit {
		uids = uids[len(uids)-limit:]
	}

	return c.fetchChunks(client, uids, chunkSize, onBatch)
}

// fetchChunks fetches envelopes for uids in chunkSize batches on an
// already-selected client.
func (c *IMAPClient) fetchChunks(
	client *imapclient.Client,
	uids []imap.UID,
	chunkSize int,
	onBatch func(batch []Envelope, batchNum, totalBatches int) error,
) error {
	if len(uids) == 0 {
		return nil
	}
	if chunkSize <= 0 {
		chunkSize = 200
	}

	totalBatches := (len(uids) + chunkSize - 1) / chunkSize

	bodySection := &imap.FetchItemBodySection{Peek: true}
	fetchOpts := &imap.FetchOptions{
		Envelope:    true,
		Flags:       true,
		UID:         true,
		BodySection: []*imap.FetchItemBodySection{bodySection},
	}

	for batchNum := 1; batchNum <= totalBatches; batchNum++ {
		start := (batchNum - 1) * chunkSize
		end := start + chunkSize
		if end > len(uids) {
			end = len(uids)
		}

		uidSet := imap.UIDSetNum(uids[start:end]...)
		fetchCmd := client.Fetch(uidSet, fetchOpts)

		var batch []Envelope
		for {
			msg := fetchCmd.Next()
			if msg == nil {
				break
			}

			buf, err := msg.Collect()
			if err != nil {
				continue
			}

			env := envelopeFromBuffer(buf)
			if raw := buf.FindBodySection(bodySection); raw != nil {
				env.Snippet = extractSnippet(raw)
			}
			batch = append(batch, env)
		}

		if err := fetchCmd.Close(); err != nil {
			return fmt.Errorf("fetching envelope batch %d: %w", batchNum, err)
		}

		if err := onBatch(batch, batchNum, totalBatches); err != nil {
			return err
		}
	}

	return nil
}

// DeleteMessage selects INBOX and marks the message as deleted.
func (c *IMAPClient) DeleteMessage(ctx context.Context, uid uint32) error {
	client, err := c.Connect(ctx)
	if err != nil {
		return err
	}
	defer func() { _ = client.Logout().Wait() }()

	if _, err := client.Select("INBOX", nil).Wait(); err != nil {
		return fmt.Errorf("selecting INBOX: %w", err)
	}

	uidSet := imap.UIDSetNum(imap.UID(uid))

	storeCmd := client.Store(uidSet, &imap.StoreFlags{
		Op:     imap.StoreFlagsAdd,
		Silent: true,
		Flags:  []imap.Flag{imap.FlagDeleted},
	}, nil)

	return storeCmd.Close()
}

// MoveMessages selects INBOX and moves the given messages into folder,
// falling back to marking them deleted when the move is rejected.
func (c *IMAPClient) MoveMessages(ctx context.Context, uids []uint32, folder string) error {
	if len(uids) == 0 {
		return nil
	}

	client, err := c.Connect(ctx)
	if err != nil {
		return err
	}
	defer func() { _ = client.Logout().Wait() }()

	if _, err := client.Select("INBOX", nil).Wait(); err != nil {
		return fmt.Errorf("selecting INBOX: %w", err)
	}

	imapUIDs := make([]imap.UID, len(uids))
	for i, uid := range uids {
		imapUIDs[i] = imap.UID(uid)
	}
	uidSet := imap.UIDSetNum(imapUIDs...)

	moveCmd := client.Move(uidSet, folder)
	if _, err := moveCmd.Wait(); err == nil {
		return nil
	}

	// Fallback: mark as deleted
	storeCmd := client.Store(uidSet, &imap.StoreFlags{
		Op:     imap.StoreFlagsAdd,
		Silent: true,
		Flags:  []imap.Flag{imap.FlagDeleted},
	}, nil)

	return storeCmd.Close()
}

// uidRangeAbove builds the UID set (lastUID+1):* .
func uidRangeAbove(lastUID uint32) imap.UIDSet {
	var set imap.UIDSet
	set.AddRange(imap.UID(lastUID+1), 0)
	return set
}

// envelopeFromBuffer extracts an Envelope from a FetchMessageBuffer.
func envelopeFromBuffer(buf *imapclient.FetchMessageBuffer) Envelope {
	env := Envelope{
		UID: uint32(buf.UID),
	}

	if buf.Envelope != nil {
		env.MessageID = buf.Envelope.MessageID
		env.Subject = buf.Envelope.Subject
		env.Date = buf.Envelope.Date

		if len(buf.Envelope.From) > 0 {
			from := buf.Envelope.From[0]
			env.FromEmail = from.Addr()
			env.FromName = from.Name
		}
	}

	for _, flag := range buf.Flags {
		env.Flags = append(env.Flags, string(flag))
	}

	return env
}
