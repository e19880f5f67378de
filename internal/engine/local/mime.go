package local

import (
	"bytes"
	"io"
	"strings"

	"github.com/emersion/go-message/mail"
)

// snippetLength bounds the preview text stored with each envelope.
const snippetLength = 160

// extractSnippet parses a raw RFC 2822 message with go-message and
// returns a short plain-text preview of its first text part.
func extractSnippet(raw []byte) string {
	if len(raw) == 0 {
		return ""
	}

	mr, err := mail.CreateReader(bytes.NewReader(raw))
	if err != nil {
		// If parsing fails, treat the whole thing as plain text.
		return trimSnippet(string(raw))
	}
	defer mr.Close()

	for {
		part, err := mr.NextPart()
		if err == io.EOF {
			break
		}
		if err != nil {
			break
		}

		h, ok := part.Header.(*mail.InlineHeader)
		if !ok {
			continue
		}

		contentType, _, _ := h.ContentType()
		if !strings.HasPrefix(contentType, "text/plain") {
			continue
		}

		body, readErr := io.ReadAll(io.LimitReader(part.Body, 4096))
		if readErr != nil {
			continue
		}
		return trimSnippet(string(body))
	}

	return ""
}

// trimSnippet collapses whitespace and truncates to snippetLength runes.
func trimSnippet(s string) string {
	s = strings.Join(strings.Fields(s), " ")
	runes := []rune(s)
	if len(runes) > snippetLength {
		return string(runes[:snippetLength])
	}
	return s
}
