// Package mailer delivers transactional email through SMTP, SendGrid or
// Resend.
package mailer

import (
	"context"
	"errors"
	"net/mail"
)

var ErrNoRecipient = errors.New("message has no recipient")

// Attachment is a file embedded in the message body and referenced from
// the HTML part as cid:<ContentID>.
type Attachment struct {
	Filename    string
	ContentType string
	ContentID   string
	Data        []byte
}

type Message struct {
	To      string
	Subject string
	HTML    string
	Text    string
	Inline  []Attachment
}

type Sender interface {
	Send(ctx context.Context, msg *Message) error
}

func validate(msg *Message) error {
	if msg == nil || msg.To == "" {
		return ErrNoRecipient
	}
	return nil
}

// NewFrom builds the sender address shared by all providers.
func NewFrom(name, email string) mail.Address {
	return mail.Address{Name: name, Address: email}
}
