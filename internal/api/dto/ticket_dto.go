package dto

import (
	"time"

	"github.com/latte-hq/latte-api/internal/domain"
)

// CreateTicketRequest payload.
type CreateTicketRequest struct {
	Title       string                `json:"title"`
	Description string                `json:"description"`
	Priority    domain.TicketPriority `json:"priority"`
	Status      domain.TicketStatus   `json:"status"`
	AssignedTo  string                `json:"assigned_to"`
	ClientID    *int64                `json:"client_id"`
}

// PatchTicketRequest carries a sparse update. Absent fields stay untouched;
// an empty assigned_to clears the assignment.
type PatchTicketRequest struct {
	Title       *string                `json:"title"`
	Description *string                `json:"description"`
	Priority    *domain.TicketPriority `json:"priority"`
	Status      *domain.TicketStatus   `json:"status"`
	ClientID    *int64                 `json:"client_id"`
	AssignedTo  *string                `json:"assigned_to"`
}

// UserRefResponse is a lightweight user reference.
type UserRefResponse struct {
	ID        int64  `json:"id"`
	Firstname string `json:"firstname"`
	Email     string `json:"email"`
}

// TicketResponse provides full ticket info.
type TicketResponse struct {
	ID          int64                 `json:"id"`
	Title       string                `json:"title"`
	Description string                `json:"description"`
	Priority    domain.TicketPriority `json:"priority"`
	Status      domain.TicketStatus   `json:"status"`
	Locked      bool                  `json:"locked"`
	CreatedBy   *UserRefResponse      `json:"created_by"`
	AssignedTo  *UserRefResponse      `json:"assigned_to"`
	ClientID    *int64                `json:"client_id"`
	CreatedAt   time.Time             `json:"created_at"`
	UpdatedAt   time.Time             `json:"updated_at"`
}

// TicketCountsResponse reports tickets per status.
type TicketCountsResponse struct {
	Open   int64 `json:"open"`
	Closed int64 `json:"closed"`
}

// ActivityResponse represents a ticket history entry or comment.
type ActivityResponse struct {
	ID        int64               `json:"id"`
	Type      domain.ActivityType `json:"type"`
	Message   string              `json:"message"`
	Author    *UserRefResponse    `json:"author"`
	TicketID  int64               `json:"ticket_id"`
	CreatedAt time.Time           `json:"created_at"`
	UpdatedAt time.Time           `json:"updated_at"`
}

// CommentRequest payload for creating or editing a comment.
type CommentRequest struct {
	Message string `json:"message"`
}
