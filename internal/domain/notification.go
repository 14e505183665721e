package domain

import (
	"context"
	"time"
)

// Notification types used by the services when recording activity.
const (
	NotificationInfo    = "info"
	NotificationSuccess = "success"
	NotificationWarning = "warning"
)

// Notification is a pull-style activity record. There is no push delivery;
// clients poll the list endpoint.
// swagger:model Notification
type Notification struct {
	ID        string    `json:"id"`
	Message   string    `json:"message"`
	Type      string    `json:"type"`
	Read      bool      `json:"read"`
	CreatedAt time.Time `json:"created_at"`
}

// NotificationRepository defines storage operations for notifications.
type NotificationRepository interface {
	Create(ctx context.Context, n *Notification) error
	// List returns the most recent notifications, newest first.
	List(ctx context.Context, params PaginationParams) ([]*Notification, int, error)
	MarkRead(ctx context.Context, id string) error
}

// NotificationService exposes the read side of notifications.
type NotificationService interface {
	ListNotifications(ctx context.Context, params PaginationParams) ([]*Notification, int, error)
	MarkNotificationRead(ctx context.Context, id string) error
}
