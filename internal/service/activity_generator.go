package service

import (
	"fmt"

	"github.com/latte-hq/latte-api/internal/domain"
)

// ActivityGenerator produces EDIT audit records for observed field changes.
// It is pure: message formats are fixed, nothing is persisted here, and the
// caller is responsible for filtering no-op transitions.
type ActivityGenerator struct{}

// NewActivityGenerator constructs the generator.
func NewActivityGenerator() ActivityGenerator {
	return ActivityGenerator{}
}

// TicketCreated records initial creation.
func (ActivityGenerator) TicketCreated(actor *domain.User, ticket *domain.Ticket) domain.Activity {
	return editActivity(actor, ticket, fmt.Sprintf("%s created ticket", actor.Firstname))
}

// TitleChanged records a title transition.
func (ActivityGenerator) TitleChanged(actor *domain.User, ticket *domain.Ticket, from, to string) domain.Activity {
	return editActivity(actor, ticket, fmt.Sprintf("%s change title from %s to %s", actor.Firstname, from, to))
}

// DescriptionChanged records a description edit without echoing content.
func (ActivityGenerator) DescriptionChanged(actor *domain.User, ticket *domain.Ticket) domain.Activity {
	return editActivity(actor, ticket, fmt.Sprintf("%s edited the description of ticket", actor.Firstname))
}

// PriorityChanged records a priority transition.
func (ActivityGenerator) PriorityChanged(actor *domain.User, ticket *domain.Ticket, from, to domain.TicketPriority) domain.Activity {
	return editActivity(actor, ticket, fmt.Sprintf("%s change priority from %s to %s", actor.Firstname, from, to))
}

// StatusChanged records a status transition.
func (ActivityGenerator) StatusChanged(actor *domain.User, ticket *domain.Ticket, from, to domain.TicketStatus) domain.Activity {
	return editActivity(actor, ticket, fmt.Sprintf("%s change status from %s to %s", actor.Firstname, from, to))
}

// ClientChanged records a client reference transition; empty means unset.
func (ActivityGenerator) ClientChanged(actor *domain.User, ticket *domain.Ticket, from, to string) domain.Activity {
	return editActivity(actor, ticket, fmt.Sprintf("%s change client from %s to %s", actor.Firstname, from, to))
}

// AssigneeChanged records an assignment transition using display names;
// empty string means unassigned. Equal names are the caller's no-op to
// filter, never passed here.
func (ActivityGenerator) AssigneeChanged(actor *domain.User, ticket *domain.Ticket, from, to string) domain.Activity {
	var message string
	switch {
	case from == "" && to != "":
		message = fmt.Sprintf("%s assigned ticket to %s", actor.Firstname, to)
	case from != "" && to == "":
		message = fmt.Sprintf("%s unassigned %s", actor.Firstname, from)
	default:
		message = fmt.Sprintf("%s unassigned %s and assigned ticket to %s", actor.Firstname, from, to)
	}
	return editActivity(actor, ticket, message)
}

func editActivity(actor *domain.User, ticket *domain.Ticket, message string) domain.Activity {
	return domain.Activity{
		Type:     domain.ActivityTypeEdit,
		Message:  message,
		AuthorID: actor.ID,
		Author:   actor.Ref(),
		TicketID: ticket.ID,
	}
}
