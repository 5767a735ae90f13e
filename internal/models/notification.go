package models

import "time"

// NotificationKind distinguishes success and error toasts
type NotificationKind string

const (
	NotificationSuccess NotificationKind = "success"
	NotificationError   NotificationKind = "error"
)

// Notification is a transient message shown to the user
type Notification struct {
	ID        uint64           `json:"id"`
	Kind      NotificationKind `json:"kind"`
	Message   string           `json:"message"`
	CreatedAt time.Time        `json:"createdAt"`
	ExpiresAt time.Time        `json:"expiresAt"`
}

// ActiveAt reports whether the notification is still visible at t
func (n *Notification) ActiveAt(t time.Time) bool {
	return n != nil && t.Before(n.ExpiresAt)
}
