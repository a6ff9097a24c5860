package domain

import "time"

// TicketStatus enumerates lifecycle states for tickets.
type TicketStatus string

const (
	TicketStatusOpen  TicketStatus = "OPEN"
	TicketStatusClose TicketStatus = "CLOSE"
)

// TicketPriority enumerates urgency.
type TicketPriority string

const (
	TicketPriorityLow    TicketPriority = "LOW"
	TicketPriorityMedium TicketPriority = "MEDIUM"
	TicketPriorityHigh   TicketPriority = "HIGH"
)

// Ticket is the aggregate for support requests. CreatedBy and AssignedTo
// are borrowed references resolved by the repository join; the store owns
// the canonical user rows.
type Ticket struct {
	ID           int64
	Title        string
	Description  string
	Priority     TicketPriority
	Status       TicketStatus
	Locked       bool
	CreatedByID  int64
	CreatedBy    *UserRef
	AssignedToID *int64
	AssignedTo   *UserRef
	ClientID     *int64
	CreatedAt    time.Time
	UpdatedAt    time.Time
}

// IsOwnedBy reports whether user created the ticket. Email is the stable
// identity key, not the numeric id.
func (t *Ticket) IsOwnedBy(user *User) bool {
	if t.CreatedBy == nil || user == nil {
		return false
	}
	return t.CreatedBy.Email == user.Email
}

// AssigneeName returns the assignee display name, empty when unassigned.
func (t *Ticket) AssigneeName() string {
	if t.AssignedTo == nil {
		return ""
	}
	return t.AssignedTo.Firstname
}

// ValidPriority reports whether p is a known priority.
func ValidPriority(p TicketPriority) bool {
	switch p {
	case TicketPriorityLow, TicketPriorityMedium, TicketPriorityHigh:
		return true
	}
	return false
}

// ValidStatus reports whether s is a known status.
func ValidStatus(s TicketStatus) bool {
	return s == TicketStatusOpen || s == TicketStatusClose
}
