package domain

import "time"

// Notification is a message produced for a user as a side effect of
// assignment changes. Delivery is external; rows are the durable record.
type Notification struct {
	ID        int64
	Message   string
	UserID    int64
	CreatedAt time.Time
}
