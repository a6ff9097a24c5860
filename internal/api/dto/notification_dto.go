package dto

import "time"

// NotificationResponse describes a stored notification.
type NotificationResponse struct {
	ID        int64     `json:"id"`
	Message   string    `json:"message"`
	CreatedAt time.Time `json:"created_at"`
}
