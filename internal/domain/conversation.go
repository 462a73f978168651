// File: internal/domain/conversation.go
package domain

import (
	"bytes"
	"encoding/json"
	"time"

	"gorm.io/datatypes"
)

const (
	RoleUser      = "user"
	RoleAssistant = "assistant"
	RoleSystem    = "system"
)

// UnknownClientValue stands in for a client IP or user agent the request did not carry.
const UnknownClientValue = "unknown"

// ChatMessage is one turn of a widget conversation.
type ChatMessage struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

// Conversation is the logged record of a single completed chat exchange.
// Records are append-only and never updated after insert.
type Conversation struct {
	ID           uint           `json:"id" gorm:"primarykey"`
	SessionID    string         `json:"session_id" gorm:"column:session_id;not null;index"`
	IP           string         `json:"ip" gorm:"column:ip"`
	UserAgent    string         `json:"user_agent" gorm:"column:user_agent"`
	MessageCount int            `json:"message_count" gorm:"column:message_count"`
	Messages     datatypes.JSON `json:"messages" gorm:"column:messages"`
	AIResponse   string         `json:"ai_response" gorm:"column:ai_response"`
	// CreatedAt is assigned by the repository on insert. Rows imported from
	// elsewhere may lack it, so it stays nullable.
	CreatedAt *time.Time `json:"created_at" gorm:"column:created_at;index;autoCreateTime:false"`
}

func (Conversation) TableName() string {
	return "conversations"
}

// NewConversation builds a record for a finished exchange. Blank client
// details are replaced with UnknownClientValue.
func NewConversation(sessionID string, messages []ChatMessage, aiResponse, ip, userAgent string) (*Conversation, error) {
	if messages == nil {
		messages = []ChatMessage{}
	}
	var buf bytes.Buffer
	enc := json.NewEncoder(&buf)
	enc.SetEscapeHTML(false)
	if err := enc.Encode(messages); err != nil {
		return nil, err
	}
	raw := bytes.TrimRight(buf.Bytes(), "\n")
	if ip == "" {
		ip = UnknownClientValue
	}
	if userAgent == "" {
		userAgent = UnknownClientValue
	}
	return &Conversation{
		SessionID:    sessionID,
		IP:           ip,
		UserAgent:    userAgent,
		MessageCount: len(messages),
		Messages:     datatypes.JSON(raw),
		AIResponse:   aiResponse,
	}, nil
}

// ChatMessages decodes the stored message list. An empty column decodes to no messages.
func (c *Conversation) ChatMessages() ([]ChatMessage, error) {
	if len(c.Messages) == 0 {
		return nil, nil
	}
	var messages []ChatMessage
	if err := json.Unmarshal(c.Messages, &messages); err != nil {
		return nil, err
	}
	return messages, nil
}
