package model

import (
	"strings"
	"time"
)

// Recipient is a single mailbox on a message.
type Recipient struct {
	Address string `json:"address"`
	Name    string `json:"name"`
}

// Body content types.
const (
	ContentTypeText = "text"
	ContentTypeHTML = "html"
)

// Body holds the full message body.
type Body struct {
	Content     string `json:"content"`
	ContentType string `json:"contentType"`
}

// IsHTML reports whether the body content is markup.
func (b Body) IsHTML() bool {
	return strings.EqualFold(b.ContentType, ContentTypeHTML)
}

// Message is a mail record supplied by the retrieval layer. Every field may
// be empty.
type Message struct {
	ReceivedAt     time.Time       `json:"receivedAt"`
	Classification *Classification `json:"classification,omitempty"`
	From           Recipient       `json:"from"`
	Body           Body            `json:"body"`
	ID             string          `json:"id"`
	Subject        string          `json:"subject"`
	BodyPreview    string          `json:"bodyPreview"`
	ParentFolderID string          `json:"parentFolderId"`
	ToRecipients   []Recipient     `json:"toRecipients"`
	CcRecipients   []Recipient     `json:"ccRecipients"`
	IsRead         bool            `json:"isRead"`
}

// HasRecipient reports whether address appears in the list, ignoring case
// and surrounding whitespace.
func HasRecipient(list []Recipient, address string) bool {
	address = strings.ToLower(strings.TrimSpace(address))
	if address == "" {
		return false
	}
	for _, r := range list {
		if strings.ToLower(strings.TrimSpace(r.Address)) == address {
			return true
		}
	}
	return false
}
