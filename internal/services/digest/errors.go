package digest

import "fmt"

type ErrorType string

const (
	ErrTypeStorage  ErrorType = "STORAGE"
	ErrTypeRender   ErrorType = "RENDER"
	ErrTypeDelivery ErrorType = "DELIVERY"
)

type Error struct {
	Type    ErrorType
	Message string
	Cause   error
}

func newError(kind ErrorType, msg string, cause error) *Error {
	return &Error{Type: kind, Message: msg, Cause: cause}
}

func (e *Error) Error() string {
	if e.Cause != nil {
		return fmt.Sprintf("Digest %s error: %s (caused by: %v)", e.Type, e.Message, e.Cause)
	}
	return fmt.Sprintf("Digest %s error: %s", e.Type, e.Message)
}

func (e *Error) Unwrap() error {
	return e.Cause
}
