package local

import (
	"time"

	"github.com/vivasaayi/PersonalMailClient-sub001/internal/model"
)

// Envelope holds the metadata of a single fetched message.
type Envelope struct {
	UID       uint32
	MessageID string
	Subject   string
	Date      time.Time
	FromEmail string
	FromName  string
	Snippet   string
	Flags     []string
}

// summary converts an Envelope to the cached projection the client reads.
// Analysis fields stay empty: the analysis pipeline is a separate
// producer that annotates cached rows later.
func (e Envelope) summary() model.EmailSummary {
	return model.EmailSummary{
		UID:     e.UID,
		Subject: e.Subject,
		Date:    e.Date,
		Sender: model.Sender{
			Email:       e.FromEmail,
			DisplayName: e.FromName,
		},
		Snippet: e.Snippet,
		Flags:   e.Flags,
		Status:  model.SenderNeutral,
	}
}
