package domain

import "time"

// Notification is a non-blocking failure report raised while building a summary.
type Notification struct {
	ID         string
	Subject    string // entity FQN the failure relates to, if any
	Message    string
	Error      string
	Operation  string
	StatusCode int
	RequestID  string
	Principal  string
	CreatedAt  time.Time
}

// NotificationFilter holds filter parameters for listing notifications.
type NotificationFilter struct {
	Subject *string
	Since   *time.Time
	Page    PageRequest
}
