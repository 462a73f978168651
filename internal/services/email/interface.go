package email

import (
	"context"
	"strings"
)

// Message is one transactional email.
type Message struct {
	From    string
	To      []string
	Subject string
	HTML    string
	Tags    map[string]string
}

func (m Message) Validate() error {
	if strings.TrimSpace(m.From) == "" {
		return &EmailError{Type: ErrTypeValidation, Message: "sender is required"}
	}
	if len(m.To) == 0 {
		return &EmailError{Type: ErrTypeValidation, Message: "at least one recipient is required"}
	}
	for _, to := range m.To {
		if strings.TrimSpace(to) == "" {
			return &EmailError{Type: ErrTypeValidation, Message: "recipient must not be blank"}
		}
	}
	if strings.TrimSpace(m.Subject) == "" {
		return &EmailError{Type: ErrTypeValidation, Message: "subject is required"}
	}
	return nil
}

// Sender delivers a message and returns the provider's message id.
type Sender interface {
	Send(ctx context.Context, msg Message) (string, error)
}

// UnconfiguredSender fails every send. It stands in for Resend when no API
// key is set outside production.
type UnconfiguredSender struct{}

func (UnconfiguredSender) Send(context.Context, Message) (string, error) {
	return "", &EmailError{Type: ErrTypeConfig, Message: "RESEND_API_KEY is not set"}
}
