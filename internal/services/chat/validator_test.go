package chat

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/archpointlabs/milo/internal/domain"
)

func TestValidateAccepts(t *testing.T) {
	tests := []struct {
		name     string
		body     string
		expected *ValidRequest
	}{
		{
			name: "single user turn",
			body: `{"sessionId":"s1","messages":[{"role":"user","content":"Hi"}]}`,
			expected: &ValidRequest{
				SessionID: "s1",
				Messages:  []domain.ChatMessage{{Role: "user", Content: "Hi"}},
			},
		},
		{
			name:     "empty history is a first turn",
			body:     `{"sessionId":"s1","messages":[]}`,
			expected: &ValidRequest{SessionID: "s1", Messages: []domain.ChatMessage{}},
		},
		{
			name: "order preserved and extra fields ignored",
			body: `{"sessionId":"abc","extra":true,"messages":[` +
				`{"role":"user","content":"one","id":"x"},` +
				`{"role":"assistant","content":"two"},` +
				`{"role":"user","content":"  three  "}]}`,
			expected: &ValidRequest{
				SessionID: "abc",
				Messages: []domain.ChatMessage{
					{Role: "user", Content: "one"},
					{Role: "assistant", Content: "two"},
					{Role: "user", Content: "  three  "},
				},
			},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := Validate([]byte(tt.body))
			require.NoError(t, err)
			assert.Equal(t, tt.expected, got)
		})
	}
}

func TestValidateRejects(t *testing.T) {
	tests := []struct {
		name  string
		body  string
		kind  ErrorType
		index int
	}{
		{"not json", `nope`, ErrTypeMalformedBody, -1},
		{"json array body", `[1,2]`, ErrTypeMalformedBody, -1},
		{"messages missing", `{"sessionId":"s1"}`, ErrTypeMalformedMessages, -1},
		{"messages null", `{"sessionId":"s1","messages":null}`, ErrTypeMalformedMessages, -1},
		{"messages object", `{"sessionId":"s1","messages":{"role":"user"}}`, ErrTypeMalformedMessages, -1},
		{"messages string", `{"sessionId":"s1","messages":"hi"}`, ErrTypeMalformedMessages, -1},
		{"messages checked before session", `{"messages":5}`, ErrTypeMalformedMessages, -1},
		{"session missing", `{"messages":[]}`, ErrTypeMissingSession, -1},
		{"session empty", `{"sessionId":"","messages":[]}`, ErrTypeMissingSession, -1},
		{"session blank", `{"sessionId":"   ","messages":[]}`, ErrTypeMissingSession, -1},
		{"session number", `{"sessionId":42,"messages":[]}`, ErrTypeMissingSession, -1},
		{"session checked before messages content", `{"messages":[{"role":""}]}`, ErrTypeMissingSession, -1},
		{"message not object", `{"sessionId":"s","messages":["hi"]}`, ErrTypeMalformedMessage, 0},
		{"role missing", `{"sessionId":"s","messages":[{"content":"hi"}]}`, ErrTypeMalformedMessage, 0},
		{"role empty", `{"sessionId":"s","messages":[{"role":"","content":"hi"}]}`, ErrTypeMalformedMessage, 0},
		{"content missing", `{"sessionId":"s","messages":[{"role":"user"}]}`, ErrTypeMalformedMessage, 0},
		{"content blank", `{"sessionId":"s","messages":[{"role":"user","content":" \n"}]}`, ErrTypeMalformedMessage, 0},
		{"content not string", `{"sessionId":"s","messages":[{"role":"user","content":["a"]}]}`, ErrTypeMalformedMessage, 0},
		{
			"second message bad",
			`{"sessionId":"s","messages":[{"role":"user","content":"ok"},{"role":"assistant","content":""}]}`,
			ErrTypeMalformedMessage, 1,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := Validate([]byte(tt.body))
			require.Error(t, err)
			assert.Nil(t, got)

			var reqErr *RequestError
			require.True(t, errors.As(err, &reqErr))
			assert.Equal(t, tt.kind, reqErr.Type)
			assert.Equal(t, tt.index, reqErr.Index)
		})
	}
}

func TestValidateIsDeterministic(t *testing.T) {
	body := []byte(`{"sessionId":"","messages":[{"role":""}]}`)
	for i := 0; i < 3; i++ {
		_, err := Validate(body)
		var reqErr *RequestError
		require.True(t, errors.As(err, &reqErr))
		assert.Equal(t, ErrTypeMissingSession, reqErr.Type)
	}
}
