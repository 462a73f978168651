package email

import (
	"context"
	"net/http"
	"net/url"
	"sort"

	"github.com/resend/resend-go/v2"
)

type ResendSender struct {
	config *Config
	client *resend.Client
}

func NewResendSender(config *Config) (*ResendSender, error) {
	if err := config.Validate(); err != nil {
		return nil, &EmailError{Type: ErrTypeConfig, Message: "invalid email configuration", Cause: err}
	}

	client := resend.NewCustomClient(&http.Client{Timeout: config.Timeout}, config.APIKey)
	if config.BaseURL != "" {
		base, err := url.Parse(config.BaseURL)
		if err != nil {
			return nil, &EmailError{Type: ErrTypeConfig, Message: "invalid Resend base URL", Cause: err}
		}
		client.BaseURL = base
	}
	return &ResendSender{config: config, client: client}, nil
}

func (s *ResendSender) Send(ctx context.Context, msg Message) (string, error) {
	if err := msg.Validate(); err != nil {
		return "", err
	}

	req := &resend.SendEmailRequest{
		From:    msg.From,
		To:      msg.To,
		Subject: msg.Subject,
		Html:    msg.HTML,
		Tags:    resendTags(msg.Tags),
	}

	sent, err := s.client.Emails.SendWithContext(ctx, req)
	if err != nil {
		return "", &EmailError{Type: ErrTypeProvider, Message: "send rejected", Cause: err}
	}
	return sent.Id, nil
}

// resendTags sorts tags by name so requests are stable.
func resendTags(tags map[string]string) []resend.Tag {
	if len(tags) == 0 {
		return nil
	}
	names := make([]string, 0, len(tags))
	for name := range tags {
		names = append(names, name)
	}
	sort.Strings(names)

	out := make([]resend.Tag, 0, len(names))
	for _, name := range names {
		out = append(out, resend.Tag{Name: name, Value: tags[name]})
	}
	return out
}
