package gateway

import (
	"errors"
	"fmt"
)

// ErrInvalidFileType is the message shown when an upload is not a SQLite file.
const ErrInvalidFileType = "Invalid file type. Please upload a .sqlite or .db file."

// ValidationError is a client-side precondition failure. No request was sent.
type ValidationError struct {
	Field   string
	Message string
}

func (e *ValidationError) Error() string {
	return e.Message
}

// RemoteOperationError is a transport or server failure of one operation.
// Message is the server's detail text when it sent one, otherwise the fixed
// fallback for the operation.
type RemoteOperationError struct {
	Op      Op
	Status  int
	Message string
	Err     error
}

func (e *RemoteOperationError) Error() string {
	return e.Message
}

func (e *RemoteOperationError) Unwrap() error {
	return e.Err
}

// Describe returns a log-friendly description including the status and cause.
func (e *RemoteOperationError) Describe() string {
	switch {
	case e.Err != nil && e.Status != 0:
		return fmt.Sprintf("%s: %s (status %d): %v", e.Op, e.Message, e.Status, e.Err)
	case e.Err != nil:
		return fmt.Sprintf("%s: %s: %v", e.Op, e.Message, e.Err)
	case e.Status != 0:
		return fmt.Sprintf("%s: %s (status %d)", e.Op, e.Message, e.Status)
	default:
		return fmt.Sprintf("%s: %s", e.Op, e.Message)
	}
}

// Message returns the user-facing text for err.
func Message(err error) string {
	if err == nil {
		return ""
	}
	var verr *ValidationError
	if errors.As(err, &verr) {
		return verr.Message
	}
	var rerr *RemoteOperationError
	if errors.As(err, &rerr) {
		return rerr.Message
	}
	return err.Error()
}

// IsValidation reports whether err is a client-side validation failure.
func IsValidation(err error) bool {
	var verr *ValidationError
	return errors.As(err, &verr)
}
