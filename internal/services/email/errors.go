package email

import "fmt"

type ErrorType string

const (
	ErrTypeConfig     ErrorType = "CONFIG"
	ErrTypeValidation ErrorType = "VALIDATION"
	ErrTypeProvider   ErrorType = "PROVIDER"
)

type EmailError struct {
	Type    ErrorType
	Message string
	Cause   error
}

func (e *EmailError) Error() string {
	if e.Cause != nil {
		return fmt.Sprintf("Email %s error: %s (caused by: %v)", e.Type, e.Message, e.Cause)
	}
	return fmt.Sprintf("Email %s error: %s", e.Type, e.Message)
}

func (e *EmailError) Unwrap() error {
	return e.Cause
}
