package flow_logs

import "fmt"

// MalformedMessageError marks an event that can never parse, no matter how
// often it is redelivered. The entry point acknowledges these instead of
// requesting a retry.
type MalformedMessageError struct {
	Message string
	Cause   error
}

func (e *MalformedMessageError) Error() string {
	if e.Cause != nil {
		return fmt.Sprintf("%s: %v", e.Message, e.Cause)
	}
	return e.Message
}

func (e *MalformedMessageError) Unwrap() error {
	return e.Cause
}
