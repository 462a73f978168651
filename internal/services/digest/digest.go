// Package digest builds and sends the daily conversation summary email.
package digest

import (
	"bytes"
	"context"
	"embed"
	"fmt"
	"html/template"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/archpointlabs/milo/internal/domain"
	"github.com/archpointlabs/milo/internal/metrics"
	"github.com/archpointlabs/milo/internal/services/email"
)

//go:embed templates/digest.html
var templateFS embed.FS

const (
	DefaultWindow     = 24 * time.Hour
	sessionPrefixLen  = 16
	timeLayout        = "Jan 2, 2006, 3:04 PM"
	emptyDigestReport = "No new conversations to report"
)

// State is a step of a single digest run. Empty, Sent and Failed are terminal.
type State string

const (
	StateIdle      State = "idle"
	StateSelecting State = "selecting"
	StateEmpty     State = "empty"
	StateRendering State = "rendering"
	StateSending   State = "sending"
	StateSent      State = "sent"
	StateFailed    State = "failed"
)

// Report is the outcome of one BuildDigest call.
type Report struct {
	RunID   string `json:"run_id"`
	Sent    bool   `json:"sent"`
	Count   int    `json:"count"`
	State   State  `json:"state"`
	Message string `json:"message"`
	EmailID string `json:"email_id,omitempty"`
}

type Logger interface {
	Info(msg string, keysAndValues ...interface{})
	Error(msg string, keysAndValues ...interface{})
	Debug(msg string, keysAndValues ...interface{})
	Warn(msg string, keysAndValues ...interface{})
}

// Source supplies the records inside the digest window.
type Source interface {
	FindSince(ctx context.Context, since time.Time) ([]domain.Conversation, error)
}

type Config struct {
	From         string
	To           []string
	DashboardURL string
	Location     *time.Location
	Window       time.Duration
}

// Aggregator runs the digest pipeline. It keeps no state between runs.
type Aggregator struct {
	source Source
	sender email.Sender
	config Config
	logger Logger
	tmpl   *template.Template
}

func NewAggregator(source Source, sender email.Sender, config Config, logger Logger) (*Aggregator, error) {
	if config.Location == nil {
		config.Location = time.UTC
	}
	if config.Window <= 0 {
		config.Window = DefaultWindow
	}
	tmpl, err := template.New("digest.html").
		Funcs(template.FuncMap{"inc": func(i int) int { return i + 1 }}).
		ParseFS(templateFS, "templates/digest.html")
	if err != nil {
		return nil, fmt.Errorf("parse digest template: %w", err)
	}
	return &Aggregator{source: source, sender: sender, config: config, logger: logger, tmpl: tmpl}, nil
}

// BuildDigest selects records created within the window ending at now and
// emails them in one message. An empty window sends nothing. Delivery is
// attempted once; the caller decides whether to run again.
func (a *Aggregator) BuildDigest(ctx context.Context, now time.Time) (*Report, error) {
	r := &run{
		report: &Report{RunID: uuid.NewString(), State: StateIdle},
		logger: a.logger,
	}

	r.transition(StateSelecting)
	records, err := a.source.FindSince(ctx, now.Add(-a.config.Window))
	if err != nil {
		return r.fail(newError(ErrTypeStorage, "failed to load conversations", err))
	}

	if len(records) == 0 {
		r.report.Message = emptyDigestReport
		r.transition(StateEmpty)
		return r.report, nil
	}
	r.report.Count = len(records)

	r.transition(StateRendering)
	body, err := a.render(records)
	if err != nil {
		return r.fail(newError(ErrTypeRender, "failed to render digest", err))
	}

	r.transition(StateSending)
	id, err := a.sender.Send(ctx, email.Message{
		From:    a.config.From,
		To:      a.config.To,
		Subject: Subject(len(records)),
		HTML:    body,
		Tags:    map[string]string{"category": "daily_digest"},
	})
	if err != nil {
		return r.fail(newError(ErrTypeDelivery, "email delivery failed", err))
	}

	r.report.Sent = true
	r.report.EmailID = id
	r.report.Message = fmt.Sprintf("Email sent successfully with %d conversation(s)", len(records))
	r.transition(StateSent)
	return r.report, nil
}

// Subject pluralises the way the dashboard does: "1 New Conversation", "2 New Conversations".
func Subject(count int) string {
	return fmt.Sprintf("Daily Digest: %d New %s", count, pluralConversation(count, true))
}

func pluralConversation(count int, title bool) string {
	word := "conversation"
	if title {
		word = "Conversation"
	}
	if count != 1 {
		word += "s"
	}
	return word
}

type run struct {
	report *Report
	logger Logger
}

func (r *run) transition(next State) {
	r.logger.Debug("Digest state change", "run_id", r.report.RunID, "from", string(r.report.State), "to", string(next))
	r.report.State = next
	switch next {
	case StateEmpty:
		metrics.DigestRuns.WithLabelValues(string(next)).Inc()
		r.logger.Info("No new conversations in the window, skipping email", "run_id", r.report.RunID)
	case StateSent:
		metrics.DigestRuns.WithLabelValues(string(next)).Inc()
		r.logger.Info("Daily digest email sent", "run_id", r.report.RunID, "count", r.report.Count, "email_id", r.report.EmailID)
	case StateFailed:
		metrics.DigestRuns.WithLabelValues(string(next)).Inc()
	}
}

func (r *run) fail(err *Error) (*Report, error) {
	r.report.Message = err.Error()
	r.transition(StateFailed)
	r.logger.Error("Error sending daily digest", "run_id", r.report.RunID, "type", string(err.Type), "error", err)
	return r.report, err
}

type block struct {
	ID                uint
	Session           string
	IP                string
	Time              string
	MessageCount      int
	UserMessages      []string
	AssistantMessages []string
	AIResponse        string
}

type page struct {
	Count        int
	Noun         string
	Blocks       []block
	DashboardURL string
}

func (a *Aggregator) render(records []domain.Conversation) (string, error) {
	blocks := make([]block, 0, len(records))
	for _, rec := range records {
		blocks = append(blocks, a.toBlock(rec))
	}

	var buf bytes.Buffer
	err := a.tmpl.Execute(&buf, page{
		Count:        len(records),
		Noun:         pluralConversation(len(records), false),
		Blocks:       blocks,
		DashboardURL: strings.TrimRight(a.config.DashboardURL, "/") + "/admin",
	})
	if err != nil {
		return "", err
	}
	return buf.String(), nil
}

func (a *Aggregator) toBlock(rec domain.Conversation) block {
	b := block{
		ID:           rec.ID,
		Session:      sessionPrefix(rec.SessionID),
		IP:           rec.IP,
		MessageCount: rec.MessageCount,
		AIResponse:   rec.AIResponse,
	}
	if rec.CreatedAt != nil {
		b.Time = rec.CreatedAt.In(a.config.Location).Format(timeLayout)
	}

	messages, err := rec.ChatMessages()
	if err != nil {
		a.logger.Warn("Skipping unreadable messages in digest", "conversation_id", rec.ID, "error", err)
	}
	for _, m := range messages {
		switch m.Role {
		case domain.RoleUser:
			b.UserMessages = append(b.UserMessages, m.Content)
		case domain.RoleAssistant:
			b.AssistantMessages = append(b.AssistantMessages, m.Content)
		}
	}
	return b
}

func sessionPrefix(sessionID string) string {
	runes := []rune(sessionID)
	if len(runes) <= sessionPrefixLen {
		return sessionID
	}
	return string(runes[:sessionPrefixLen]) + "..."
}
