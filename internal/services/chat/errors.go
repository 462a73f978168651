package chat

import "fmt"

type ErrorType string

const (
	ErrTypeMalformedBody     ErrorType = "MALFORMED_BODY"
	ErrTypeMalformedMessages ErrorType = "MALFORMED_MESSAGES"
	ErrTypeMissingSession    ErrorType = "MISSING_SESSION"
	ErrTypeMalformedMessage  ErrorType = "MALFORMED_MESSAGE"
)

// RequestError is a client-caused validation failure. Index points at the
// offending message for ErrTypeMalformedMessage and is -1 otherwise.
type RequestError struct {
	Type    ErrorType
	Message string
	Index   int
}

func (e *RequestError) Error() string {
	if e.Index >= 0 {
		return fmt.Sprintf("Chat %s error: %s (message %d)", e.Type, e.Message, e.Index)
	}
	return fmt.Sprintf("Chat %s error: %s", e.Type, e.Message)
}

func newRequestError(kind ErrorType, msg string) *RequestError {
	return &RequestError{Type: kind, Message: msg, Index: -1}
}

func newMessageError(index int, msg string) *RequestError {
	return &RequestError{Type: ErrTypeMalformedMessage, Message: msg, Index: index}
}
