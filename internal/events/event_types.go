package events

import (
	"time"

	"github.com/latte-hq/latte-api/internal/domain"
)

// EventType enumerates supported event identifiers.
type EventType string

const (
	EventTicketCreated  EventType = "ticket_created"
	EventTicketEdited   EventType = "ticket_edited"
	EventTicketAssigned EventType = "ticket_assigned"
	EventTicketDeleted  EventType = "ticket_deleted"
	EventCommentAdded   EventType = "comment_added"
)

// Event represents a domain event emitted after a committed mutation.
type Event struct {
	ID        string          `json:"id"`
	Type      EventType       `json:"type"`
	TicketID  int64           `json:"ticket_id"`
	Actor     *domain.UserRef `json:"actor"`
	Timestamp time.Time       `json:"timestamp"`
	Payload   interface{}     `json:"payload"`
}

// TicketCreatedPayload payload.
type TicketCreatedPayload struct {
	Title    string                `json:"title"`
	Priority domain.TicketPriority `json:"priority"`
	Status   domain.TicketStatus   `json:"status"`
}

// TicketEditedPayload lists the fields an accepted patch touched.
type TicketEditedPayload struct {
	Fields []string `json:"fields"`
}

// TicketAssignedPayload carries the assignment transition. Nil refs mean
// unassigned on that side.
type TicketAssignedPayload struct {
	TicketTitle string          `json:"ticket_title"`
	OldAssignee *domain.UserRef `json:"old_assignee,omitempty"`
	NewAssignee *domain.UserRef `json:"new_assignee,omitempty"`
}

// TicketDeletedPayload payload.
type TicketDeletedPayload struct {
	Title string `json:"title"`
}

// CommentAddedPayload payload.
type CommentAddedPayload struct {
	ActivityID int64 `json:"activity_id"`
}
