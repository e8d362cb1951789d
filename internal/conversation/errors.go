package conversation

import "errors"

// ErrInternal wraps failures the caller cannot fix by changing the request.
var ErrInternal = errors.New("internal error")

// ValidationError reports a missing or malformed request field.
type ValidationError struct {
	Field   string
	Message string
}

func (e *ValidationError) Error() string {
	return e.Message
}

func required(field string) *ValidationError {
	return &ValidationError{Field: field, Message: field + " is required"}
}
