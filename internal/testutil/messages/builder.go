// Package messages builds mail fixtures for tests.
//
// Example usage:
//
//	msg := messages.New("42").
//		From("billing@shop.example").
//		Subject("Votre facture").
//		To("me@corp.example").
//		Build()
package messages

import (
	"time"

	"github.com/Veraticus/inbox-triage/internal/model"
)

// Builder provides a fluent interface for constructing a test message.
type Builder struct {
	msg model.Message
}

// New starts a message with the given id.
func New(id string) *Builder {
	return &Builder{msg: model.Message{
		ID:         id,
		ReceivedAt: time.Date(2024, 3, 1, 9, 0, 0, 0, time.UTC),
	}}
}

// From sets the sender address.
func (b *Builder) From(address string) *Builder {
	b.msg.From = model.Recipient{Address: address}
	return b
}

// Subject sets the subject.
func (b *Builder) Subject(subject string) *Builder {
	b.msg.Subject = subject
	return b
}

// Preview sets the body preview.
func (b *Builder) Preview(preview string) *Builder {
	b.msg.BodyPreview = preview
	return b
}

// Text sets a plain text body.
func (b *Builder) Text(content string) *Builder {
	b.msg.Body = model.Body{Content: content, ContentType: model.ContentTypeText}
	return b
}

// HTML sets a markup body.
func (b *Builder) HTML(content string) *Builder {
	b.msg.Body = model.Body{Content: content, ContentType: model.ContentTypeHTML}
	return b
}

// To adds primary recipients.
func (b *Builder) To(addresses ...string) *Builder {
	b.msg.ToRecipients = append(b.msg.ToRecipients, recipients(addresses)...)
	return b
}

// CC adds copied recipients.
func (b *Builder) CC(addresses ...string) *Builder {
	b.msg.CcRecipients = append(b.msg.CcRecipients, recipients(addresses)...)
	return b
}

// Folder sets the parent folder id.
func (b *Builder) Folder(folder string) *Builder {
	b.msg.ParentFolderID = folder
	return b
}

// Read marks the message as read.
func (b *Builder) Read() *Builder {
	b.msg.IsRead = true
	return b
}

// Build returns the message.
func (b *Builder) Build() model.Message {
	msg := b.msg
	msg.ToRecipients = append([]model.Recipient(nil), b.msg.ToRecipients...)
	msg.CcRecipients = append([]model.Recipient(nil), b.msg.CcRecipients...)
	return msg
}

func recipients(addresses []string) []model.Recipient {
	out := make([]model.Recipient, len(addresses))
	for i, a := range addresses {
		out[i] = model.Recipient{Address: a}
	}
	return out
}
