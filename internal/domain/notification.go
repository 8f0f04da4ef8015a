package domain

import (
	"encoding/json"
	"time"
)

type NotificationType string

const (
	NotificationOrderCreated     NotificationType = "order_created"
	NotificationPaymentConfirmed NotificationType = "payment_confirmed"
	NotificationTicketReady      NotificationType = "ticket_ready"
	NotificationTicketUploaded   NotificationType = "ticket_uploaded"
	NotificationPaymentReminder  NotificationType = "payment_reminder"
	NotificationOrderCompleted   NotificationType = "order_completed"
	NotificationAdminMessage     NotificationType = "admin_message"
)

// Notification is an in-app message owned by one user. The system never
// deletes them; fetches are capped to the most recent rows instead.
type Notification struct {
	ID        int64
	UserID    string
	OrderID   *string
	Type      NotificationType
	Title     string
	Message   string
	ActionURL string
	Read      bool
	Metadata  json.RawMessage
	CreatedAt time.Time
}
