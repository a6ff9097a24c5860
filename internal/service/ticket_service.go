package service

import (
	"context"
	"errors"
	"strconv"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"

	"github.com/latte-hq/latte-api/internal/domain"
	"github.com/latte-hq/latte-api/internal/events"
	"github.com/latte-hq/latte-api/internal/repository"
	apperrors "github.com/latte-hq/latte-api/pkg/util/errorutil"
)

// TicketService is the ticket mutation engine: it gates every write on the
// lock flag and field-level authorization, generates one audit activity per
// accepted change, and commits ticket plus activities in one transaction.
// Events (and through them notifications) fire only after the commit.
type TicketService struct {
	tx         repository.TxRunner
	tickets    repository.TicketRepository
	users      repository.UserRepository
	clients    repository.ClientRepository
	activities repository.ActivityRepository
	generator  ActivityGenerator
	dispatcher events.Dispatcher
}

// TicketDependencies bundles collaborators for the ticket service.
type TicketDependencies struct {
	TxRunner     repository.TxRunner
	TicketRepo   repository.TicketRepository
	UserRepo     repository.UserRepository
	ClientRepo   repository.ClientRepository
	ActivityRepo repository.ActivityRepository
	Dispatcher   events.Dispatcher
}

// NewTicketService constructs the service.
func NewTicketService(deps TicketDependencies) *TicketService {
	return &TicketService{
		tx:         deps.TxRunner,
		tickets:    deps.TicketRepo,
		users:      deps.UserRepo,
		clients:    deps.ClientRepo,
		activities: deps.ActivityRepo,
		generator:  NewActivityGenerator(),
		dispatcher: deps.Dispatcher,
	}
}

// TicketCreateInput describes ticket creation payload. AssignedTo is the
// assignee firstname; empty means unassigned.
type TicketCreateInput struct {
	Title       string
	Description string
	Priority    domain.TicketPriority
	Status      domain.TicketStatus
	AssignedTo  string
	ClientID    *int64
}

// TicketPatch is a sparse patch; nil fields are untouched. An empty
// AssignedTo string means unassign.
type TicketPatch struct {
	Title       *string
	Description *string
	Priority    *domain.TicketPriority
	Status      *domain.TicketStatus
	ClientID    *int64
	AssignedTo  *string
}

// CreateTicket creates a ticket for the acting user. Empty priority and
// status default to LOW/OPEN, unknown values are rejected. Assigning
// someone at creation requires the assign authority; the ticket row and
// its creation activity persist atomically.
func (s *TicketService) CreateTicket(ctx context.Context, actor *domain.User, input TicketCreateInput) (*domain.Ticket, error) {
	if input.Priority == "" {
		input.Priority = domain.TicketPriorityLow
	}
	if !domain.ValidPriority(input.Priority) {
		return nil, apperrors.NewValidationError("invalid priority", map[string]any{"priority": input.Priority})
	}
	if input.Status == "" {
		input.Status = domain.TicketStatusOpen
	}
	if !domain.ValidStatus(input.Status) {
		return nil, apperrors.NewValidationError("invalid status", map[string]any{"status": input.Status})
	}

	var assignee *domain.User
	if input.AssignedTo != "" {
		if !actor.HasAuthority(domain.AuthorityAssignTicket) {
			return nil, apperrors.NewForbidden("not permitted to assign tickets")
		}
		found, err := s.users.GetByFirstname(ctx, input.AssignedTo)
		if err != nil {
			if errors.Is(err, pgx.ErrNoRows) {
				return nil, apperrors.NewNotFound("assignee user", map[string]any{"firstname": input.AssignedTo})
			}
			return nil, apperrors.MapError(err)
		}
		assignee = found
	}

	if input.ClientID != nil {
		if _, err := s.clients.GetByID(ctx, *input.ClientID); err != nil {
			if errors.Is(err, pgx.ErrNoRows) {
				return nil, apperrors.NewNotFound("client", map[string]any{"client_id": *input.ClientID})
			}
			return nil, apperrors.MapError(err)
		}
	}

	ticket := &domain.Ticket{
		Title:       input.Title,
		Description: input.Description,
		Priority:    input.Priority,
		Status:      input.Status,
		Locked:      false,
		CreatedByID: actor.ID,
		CreatedBy:   actor.Ref(),
		ClientID:    input.ClientID,
	}
	if assignee != nil {
		ticket.AssignedToID = &assignee.ID
		ticket.AssignedTo = assignee.Ref()
	}

	err := s.tx.InTx(ctx, func(tx pgx.Tx) error {
		if err := s.tickets.WithTx(tx).Create(ctx, ticket); err != nil {
			return err
		}
		created := s.generator.TicketCreated(actor, ticket)
		return s.activities.WithTx(tx).Create(ctx, &created)
	})
	if err != nil {
		return nil, apperrors.MapError(err)
	}

	s.publish(ctx, events.Event{
		Type:     events.EventTicketCreated,
		TicketID: ticket.ID,
		Actor:    actor.Ref(),
		Payload: events.TicketCreatedPayload{
			Title:    ticket.Title,
			Priority: ticket.Priority,
			Status:   ticket.Status,
		},
	})
	if assignee != nil {
		s.publish(ctx, events.Event{
			Type:     events.EventTicketAssigned,
			TicketID: ticket.ID,
			Actor:    actor.Ref(),
			Payload: events.TicketAssignedPayload{
				TicketTitle: ticket.Title,
				NewAssignee: assignee.Ref(),
			},
		})
	}
	return ticket, nil
}

// EditTicket applies a sparse patch. The whole patch is rejected on the
// first locked, unauthorized, or unresolvable field; accepted changes and
// their activities commit together. Fields are evaluated in a fixed order
// (title, description, priority, status, client, then assignment) so the
// rejection is deterministic.
func (s *TicketService) EditTicket(ctx context.Context, actor *domain.User, ticketID int64, patch TicketPatch) (*domain.Ticket, error) {
	ticket, err := s.getTicket(ctx, ticketID)
	if err != nil {
		return nil, err
	}
	if ticket.Locked {
		return nil, apperrors.NewLockConflict("ticket is locked", map[string]any{"ticket_id": ticketID})
	}

	canEdit := ticket.IsOwnedBy(actor) || actor.HasAuthority(domain.AuthorityEditTicket)
	var staged []domain.Activity
	var fields []string

	if patch.Title != nil && *patch.Title != ticket.Title {
		if !canEdit {
			return nil, apperrors.NewForbidden("not permitted to edit ticket")
		}
		staged = append(staged, s.generator.TitleChanged(actor, ticket, ticket.Title, *patch.Title))
		ticket.Title = *patch.Title
		fields = append(fields, "title")
	}

	if patch.Description != nil && *patch.Description != ticket.Description {
		if !canEdit {
			return nil, apperrors.NewForbidden("not permitted to edit ticket")
		}
		staged = append(staged, s.generator.DescriptionChanged(actor, ticket))
		ticket.Description = *patch.Description
		fields = append(fields, "description")
	}

	if patch.Priority != nil && *patch.Priority != ticket.Priority {
		if !canEdit {
			return nil, apperrors.NewForbidden("not permitted to edit ticket")
		}
		if !domain.ValidPriority(*patch.Priority) {
			return nil, apperrors.NewValidationError("invalid priority", map[string]any{"priority": *patch.Priority})
		}
		staged = append(staged, s.generator.PriorityChanged(actor, ticket, ticket.Priority, *patch.Priority))
		ticket.Priority = *patch.Priority
		fields = append(fields, "priority")
	}

	if patch.Status != nil && *patch.Status != ticket.Status {
		if !canEdit {
			return nil, apperrors.NewForbidden("not permitted to edit ticket")
		}
		if !domain.ValidStatus(*patch.Status) {
			return nil, apperrors.NewValidationError("invalid status", map[string]any{"status": *patch.Status})
		}
		staged = append(staged, s.generator.StatusChanged(actor, ticket, ticket.Status, *patch.Status))
		ticket.Status = *patch.Status
		fields = append(fields, "status")
	}

	if patch.ClientID != nil && (ticket.ClientID == nil || *ticket.ClientID != *patch.ClientID) {
		if !canEdit {
			return nil, apperrors.NewForbidden("not permitted to edit ticket")
		}
		oldName, err := s.clientName(ctx, ticket.ClientID)
		if err != nil {
			return nil, err
		}
		client, err := s.clients.GetByID(ctx, *patch.ClientID)
		if err != nil {
			if errors.Is(err, pgx.ErrNoRows) {
				return nil, apperrors.NewNotFound("client", map[string]any{"client_id": *patch.ClientID})
			}
			return nil, apperrors.MapError(err)
		}
		staged = append(staged, s.generator.ClientChanged(actor, ticket, oldName, client.Name))
		ticket.ClientID = &client.ID
		fields = append(fields, "client")
	}

	// Assignment is gated by the assign authority alone; ownership does
	// not substitute.
	var assignmentPayload *events.TicketAssignedPayload
	if patch.AssignedTo != nil {
		if !actor.HasAuthority(domain.AuthorityAssignTicket) {
			return nil, apperrors.NewForbidden("not permitted to assign tickets")
		}
		oldName := ticket.AssigneeName()
		if oldName != *patch.AssignedTo {
			oldRef := ticket.AssignedTo
			var newRef *domain.UserRef
			if *patch.AssignedTo != "" {
				assignee, err := s.users.GetByFirstname(ctx, *patch.AssignedTo)
				if err != nil {
					if errors.Is(err, pgx.ErrNoRows) {
						return nil, apperrors.NewNotFound("user", map[string]any{"firstname": *patch.AssignedTo})
					}
					return nil, apperrors.MapError(err)
				}
				newRef = assignee.Ref()
			}
			staged = append(staged, s.generator.AssigneeChanged(actor, ticket, oldName, *patch.AssignedTo))
			if newRef != nil {
				ticket.AssignedToID = &newRef.ID
			} else {
				ticket.AssignedToID = nil
			}
			ticket.AssignedTo = newRef
			assignmentPayload = &events.TicketAssignedPayload{
				TicketTitle: ticket.Title,
				OldAssignee: oldRef,
				NewAssignee: newRef,
			}
			fields = append(fields, "assignedTo")
		}
	}

	// A patch of only unchanged values is a no-op: no write, no activity.
	if len(staged) == 0 {
		return ticket, nil
	}

	err = s.tx.InTx(ctx, func(tx pgx.Tx) error {
		if err := s.tickets.WithTx(tx).Update(ctx, ticket); err != nil {
			return err
		}
		return s.activities.WithTx(tx).CreateBatch(ctx, staged)
	})
	if err != nil {
		return nil, apperrors.MapError(err)
	}

	s.publish(ctx, events.Event{
		Type:     events.EventTicketEdited,
		TicketID: ticket.ID,
		Actor:    actor.Ref(),
		Payload:  events.TicketEditedPayload{Fields: fields},
	})
	if assignmentPayload != nil {
		s.publish(ctx, events.Event{
			Type:     events.EventTicketAssigned,
			TicketID: ticket.ID,
			Actor:    actor.Ref(),
			Payload:  *assignmentPayload,
		})
	}
	return ticket, nil
}

// LockTicket freezes all field mutations on the ticket. Idempotent, no
// activity or notification.
func (s *TicketService) LockTicket(ctx context.Context, actor *domain.User, ticketID int64) (*domain.Ticket, error) {
	return s.setLock(ctx, actor, ticketID, true)
}

// UnlockTicket lifts the lock. Idempotent.
func (s *TicketService) UnlockTicket(ctx context.Context, actor *domain.User, ticketID int64) (*domain.Ticket, error) {
	return s.setLock(ctx, actor, ticketID, false)
}

func (s *TicketService) setLock(ctx context.Context, actor *domain.User, ticketID int64, locked bool) (*domain.Ticket, error) {
	if !actor.HasAuthority(domain.AuthorityLockTicket) {
		return nil, apperrors.NewForbidden("not permitted to lock or unlock tickets")
	}
	ticket, err := s.getTicket(ctx, ticketID)
	if err != nil {
		return nil, err
	}
	ticket.Locked = locked
	if err := s.tickets.Update(ctx, ticket); err != nil {
		return nil, apperrors.MapError(err)
	}
	return ticket, nil
}

// DeleteTicket removes an unlocked ticket. The assignment reference is
// cleared and persisted before the delete so no dangling reference is ever
// observable; both writes share one transaction.
func (s *TicketService) DeleteTicket(ctx context.Context, actor *domain.User, ticketID int64) error {
	ticket, err := s.getTicket(ctx, ticketID)
	if err != nil {
		return err
	}
	if ticket.Locked {
		return apperrors.NewLockConflict("ticket is locked", map[string]any{"ticket_id": ticketID})
	}
	if !ticket.IsOwnedBy(actor) && !actor.HasAuthority(domain.AuthorityDeleteTicket) {
		return apperrors.NewForbidden("not permitted to delete ticket")
	}

	err = s.tx.InTx(ctx, func(tx pgx.Tx) error {
		tickets := s.tickets.WithTx(tx)
		if ticket.AssignedToID != nil {
			ticket.AssignedToID = nil
			ticket.AssignedTo = nil
			if err := tickets.Update(ctx, ticket); err != nil {
				return err
			}
		}
		return tickets.Delete(ctx, ticket.ID)
	})
	if err != nil {
		return apperrors.MapError(err)
	}

	s.publish(ctx, events.Event{
		Type:     events.EventTicketDeleted,
		TicketID: ticket.ID,
		Actor:    actor.Ref(),
		Payload:  events.TicketDeletedPayload{Title: ticket.Title},
	})
	return nil
}

// GetTicket fetches a single ticket.
func (s *TicketService) GetTicket(ctx context.Context, ticketID int64) (*domain.Ticket, error) {
	return s.getTicket(ctx, ticketID)
}

// ListTickets returns tickets ordered by creation time, newest first.
func (s *TicketService) ListTickets(ctx context.Context, limit, offset int) ([]domain.Ticket, int64, error) {
	tickets, total, err := s.tickets.List(ctx, limit, offset)
	if err != nil {
		return nil, 0, apperrors.MapError(err)
	}
	return tickets, total, nil
}

// ListTicketsByStatus filters the listing by status.
func (s *TicketService) ListTicketsByStatus(ctx context.Context, status domain.TicketStatus, limit, offset int) ([]domain.Ticket, int64, error) {
	if !domain.ValidStatus(status) {
		return nil, 0, apperrors.NewValidationError("invalid status", map[string]any{"status": status})
	}
	tickets, total, err := s.tickets.ListByStatus(ctx, status, limit, offset)
	if err != nil {
		return nil, 0, apperrors.MapError(err)
	}
	return tickets, total, nil
}

// TicketCounts reports open and closed ticket totals.
func (s *TicketService) TicketCounts(ctx context.Context) (open, closed int64, err error) {
	open, err = s.tickets.CountByStatus(ctx, domain.TicketStatusOpen)
	if err != nil {
		return 0, 0, apperrors.MapError(err)
	}
	closed, err = s.tickets.CountByStatus(ctx, domain.TicketStatusClose)
	if err != nil {
		return 0, 0, apperrors.MapError(err)
	}
	return open, closed, nil
}

// ListActivities returns a ticket's audit trail, oldest first.
func (s *TicketService) ListActivities(ctx context.Context, ticketID int64, limit, offset int) ([]domain.Activity, int64, error) {
	if _, err := s.getTicket(ctx, ticketID); err != nil {
		return nil, 0, err
	}
	activities, total, err := s.activities.ListByTicket(ctx, ticketID, limit, offset)
	if err != nil {
		return nil, 0, apperrors.MapError(err)
	}
	return activities, total, nil
}

func (s *TicketService) getTicket(ctx context.Context, ticketID int64) (*domain.Ticket, error) {
	ticket, err := s.tickets.GetByID(ctx, ticketID)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, apperrors.NewNotFound("ticket", map[string]any{"ticket_id": ticketID})
		}
		return nil, apperrors.MapError(err)
	}
	return ticket, nil
}

func (s *TicketService) clientName(ctx context.Context, clientID *int64) (string, error) {
	if clientID == nil {
		return "", nil
	}
	client, err := s.clients.GetByID(ctx, *clientID)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return strconv.FormatInt(*clientID, 10), nil
		}
		return "", apperrors.MapError(err)
	}
	return client.Name, nil
}

func (s *TicketService) publish(ctx context.Context, event events.Event) {
	if s.dispatcher == nil {
		return
	}
	if event.ID == "" {
		event.ID = uuid.NewString()
	}
	if event.Timestamp.IsZero() {
		event.Timestamp = time.Now()
	}
	_ = s.dispatcher.Publish(ctx, event)
}
