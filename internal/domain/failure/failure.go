// Package failure holds the error taxonomy shared by every console use case.
package failure

import (
	"errors"
	"fmt"
	"strings"
)

// ErrInFlight is returned when the same action is already waiting on the gateway.
var ErrInFlight = errors.New("action already in progress")

// Violation describes one field that failed a client-side rule.
type Violation struct {
	Field string `json:"field"`
	Rule  string `json:"rule"`
	Param string `json:"param,omitempty"`
}

// ValidationError blocks an action before any network call is made.
type ValidationError struct {
	Message    string
	Violations []Violation
}

func (e *ValidationError) Error() string {
	if len(e.Violations) == 0 {
		return "validation: " + e.Message
	}
	parts := make([]string, 0, len(e.Violations))
	for _, v := range e.Violations {
		parts = append(parts, v.Field+" "+v.Rule)
	}
	return fmt.Sprintf("validation: %s (%s)", e.Message, strings.Join(parts, ", "))
}

// Validation builds a ValidationError with a user-facing message.
func Validation(msg string, violations ...Violation) error {
	return &ValidationError{Message: msg, Violations: violations}
}

// FetchError is a transport or server failure on a gateway call.
// Message is safe to show to the user.
type FetchError struct {
	Op      string
	Status  int
	Message string
	Err     error
}

func (e *FetchError) Error() string {
	if e.Status > 0 {
		return fmt.Sprintf("%s: status %d: %s", e.Op, e.Status, e.Message)
	}
	return fmt.Sprintf("%s: %s", e.Op, e.Message)
}

func (e *FetchError) Unwrap() error { return e.Err }

// UserMessage returns the text a notification should carry for err.
func UserMessage(err error) string {
	if err == nil {
		return ""
	}
	var verr *ValidationError
	if errors.As(err, &verr) {
		return verr.Message
	}
	var ferr *FetchError
	if errors.As(err, &ferr) {
		return ferr.Message
	}
	if errors.Is(err, ErrInFlight) {
		return ErrInFlight.Error()
	}
	return err.Error()
}

// IsValidation reports whether err is (or wraps) a ValidationError.
func IsValidation(err error) bool {
	var verr *ValidationError
	return errors.As(err, &verr)
}

// IsFetch reports whether err is (or wraps) a FetchError.
func IsFetch(err error) bool {
	var ferr *FetchError
	return errors.As(err, &ferr)
}
