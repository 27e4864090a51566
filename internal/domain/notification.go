package domain

import "context"

// NotificationService delivers OS-level notifications outside the terminal.
type NotificationService interface {
	// Notify sends a titled notification. It returns false when no channel
	// is permitted to deliver it.
	Notify(ctx context.Context, title, body string) (bool, error)
}
