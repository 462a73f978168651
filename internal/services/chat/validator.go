package chat

import (
	"bytes"
	"encoding/json"
	"strings"

	"github.com/archpointlabs/milo/internal/domain"
)

// ValidRequest is a chat turn that passed Validate.
type ValidRequest struct {
	SessionID string
	Messages  []domain.ChatMessage
}

type rawRequest struct {
	SessionID json.RawMessage `json:"sessionId"`
	Messages  json.RawMessage `json:"messages"`
}

type rawMessage struct {
	Role    json.RawMessage `json:"role"`
	Content json.RawMessage `json:"content"`
}

// Validate checks a POST /chat body. Rules run in order and the first
// failure wins: messages must be an array, sessionId must be non-empty
// text, then every message needs a non-empty role and content. An empty
// messages array is a valid first turn.
func Validate(body []byte) (*ValidRequest, error) {
	var req rawRequest
	if err := json.Unmarshal(body, &req); err != nil {
		return nil, newRequestError(ErrTypeMalformedBody, "request body must be a JSON object")
	}

	var items []json.RawMessage
	if !isArray(req.Messages) || json.Unmarshal(req.Messages, &items) != nil {
		return nil, newRequestError(ErrTypeMalformedMessages, "messages must be an array")
	}

	sessionID, ok := nonEmptyString(req.SessionID)
	if !ok {
		return nil, newRequestError(ErrTypeMissingSession, "sessionId is required")
	}

	messages := make([]domain.ChatMessage, 0, len(items))
	for i, item := range items {
		var msg rawMessage
		if !isObject(item) || json.Unmarshal(item, &msg) != nil {
			return nil, newMessageError(i, "message must be an object")
		}
		role, ok := nonEmptyString(msg.Role)
		if !ok {
			return nil, newMessageError(i, "role is required")
		}
		content, ok := nonEmptyString(msg.Content)
		if !ok {
			return nil, newMessageError(i, "content is required")
		}
		messages = append(messages, domain.ChatMessage{Role: role, Content: content})
	}

	return &ValidRequest{SessionID: sessionID, Messages: messages}, nil
}

func isArray(raw json.RawMessage) bool {
	return bytes.HasPrefix(bytes.TrimSpace(raw), []byte("["))
}

func isObject(raw json.RawMessage) bool {
	return bytes.HasPrefix(bytes.TrimSpace(raw), []byte("{"))
}

// nonEmptyString decodes a JSON string that is not blank. Content is
// returned untrimmed.
func nonEmptyString(raw json.RawMessage) (string, bool) {
	if len(raw) == 0 {
		return "", false
	}
	var s string
	if err := json.Unmarshal(raw, &s); err != nil {
		return "", false
	}
	if strings.TrimSpace(s) == "" {
		return "", false
	}
	return s, true
}
