package domain

import "time"

// ActivityType distinguishes system-generated audit entries from
// user-authored comments.
type ActivityType string

const (
	ActivityTypeEdit    ActivityType = "EDIT"
	ActivityTypeComment ActivityType = "COMMENT"
)

// Activity is an audit record attached to a ticket. EDIT entries are
// immutable once created; a COMMENT's message may be updated by its author.
type Activity struct {
	ID        int64
	Type      ActivityType
	Message   string
	AuthorID  int64
	Author    *UserRef
	TicketID  int64
	CreatedAt time.Time
	UpdatedAt time.Time
}
