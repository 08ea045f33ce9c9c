package notification

import (
	"context"
	"time"

	"github.com/google/uuid"
)

type Severity string

const (
	SeveritySuccess Severity = "success"
	SeverityError   Severity = "error"
	SeverityInfo    Severity = "info"
	SeverityWarn    Severity = "warn"
)

// Notification is a toast-style message for the user.
type Notification struct {
	ID       string
	Severity Severity
	Title    string
	Message  string
	At       time.Time
}

func (Notification) EventName() string { return "notification.raised" }

func New(severity Severity, title, message string) Notification {
	if title == "" {
		title = DefaultTitle(severity)
	}
	return Notification{
		ID:       uuid.NewString(),
		Severity: severity,
		Title:    title,
		Message:  message,
		At:       time.Now().UTC(),
	}
}

func DefaultTitle(severity Severity) string {
	switch severity {
	case SeveritySuccess:
		return "Success"
	case SeverityError:
		return "Error"
	case SeverityWarn:
		return "Warning"
	default:
		return "Info"
	}
}

// Sink surfaces feedback to the user. Notify is fire-and-forget.
type Sink interface {
	Notify(ctx context.Context, severity Severity, title, message string)
}
