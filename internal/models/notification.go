package models

import "time"

// NotificationCategory tags a notification sent to a student.
type NotificationCategory string

const (
	NotificationGeneral     NotificationCategory = "general"
	NotificationOverdue     NotificationCategory = "overdue"
	NotificationReservation NotificationCategory = "reservation"
	NotificationBan         NotificationCategory = "ban"
	NotificationAccount     NotificationCategory = "account"
)

// NotificationCategories lists the accepted tags in display order.
var NotificationCategories = []NotificationCategory{
	NotificationGeneral,
	NotificationOverdue,
	NotificationReservation,
	NotificationBan,
	NotificationAccount,
}

// Valid reports whether c is one of the accepted tags.
func (c NotificationCategory) Valid() bool {
	for _, known := range NotificationCategories {
		if c == known {
			return true
		}
	}
	return false
}

// NotificationDraft is the payload of a notification create request.
type NotificationDraft struct {
	StudentID string               `json:"studentId"`
	Category  NotificationCategory `json:"category"`
	Message   string               `json:"message"`
}

// Notification is a persisted notification.
type Notification struct {
	ID        string               `json:"id,omitempty"`
	StudentID string               `json:"studentId"`
	Category  NotificationCategory `json:"category"`
	Message   string               `json:"message"`
	CreatedAt time.Time            `json:"createdAt"`
}
