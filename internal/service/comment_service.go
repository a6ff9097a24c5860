package service

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"

	"github.com/latte-hq/latte-api/internal/domain"
	"github.com/latte-hq/latte-api/internal/events"
	"github.com/latte-hq/latte-api/internal/repository"
	apperrors "github.com/latte-hq/latte-api/pkg/util/errorutil"
)

// CommentService is the restricted mutation path for COMMENT activities.
// Creation only needs an unlocked ticket; update and delete are
// owner-only and never touch EDIT records.
type CommentService struct {
	tickets    repository.TicketRepository
	activities repository.ActivityRepository
	dispatcher events.Dispatcher
}

// CommentDependencies bundles collaborators for the comment service.
type CommentDependencies struct {
	TicketRepo   repository.TicketRepository
	ActivityRepo repository.ActivityRepository
	Dispatcher   events.Dispatcher
}

// NewCommentService constructs the service.
func NewCommentService(deps CommentDependencies) *CommentService {
	return &CommentService{
		tickets:    deps.TicketRepo,
		activities: deps.ActivityRepo,
		dispatcher: deps.Dispatcher,
	}
}

// CreateComment appends a user-authored COMMENT activity to an unlocked
// ticket. The message is stored verbatim.
func (s *CommentService) CreateComment(ctx context.Context, actor *domain.User, ticketID int64, message string) (*domain.Activity, error) {
	ticket, err := s.tickets.GetByID(ctx, ticketID)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, apperrors.NewNotFound("ticket", map[string]any{"ticket_id": ticketID})
		}
		return nil, apperrors.MapError(err)
	}
	if ticket.Locked {
		return nil, apperrors.NewLockConflict("ticket is locked", map[string]any{"ticket_id": ticketID})
	}

	comment := &domain.Activity{
		Type:     domain.ActivityTypeComment,
		Message:  message,
		AuthorID: actor.ID,
		Author:   actor.Ref(),
		TicketID: ticket.ID,
	}
	if err := s.activities.Create(ctx, comment); err != nil {
		return nil, apperrors.MapError(err)
	}

	if s.dispatcher != nil {
		_ = s.dispatcher.Publish(ctx, events.Event{
			ID:        uuid.NewString(),
			Type:      events.EventCommentAdded,
			TicketID:  ticket.ID,
			Actor:     actor.Ref(),
			Timestamp: time.Now(),
			Payload:   events.CommentAddedPayload{ActivityID: comment.ID},
		})
	}
	return comment, nil
}

// UpdateComment replaces the message of the actor's own comment. Type,
// author, and ticket are immutable. A foreign or non-comment activity is a
// hard permission error.
func (s *CommentService) UpdateComment(ctx context.Context, actor *domain.User, activityID int64, message string) (*domain.Activity, error) {
	activity, ticket, err := s.loadCommentTarget(ctx, activityID)
	if err != nil {
		return nil, err
	}
	if ticket.Locked {
		return nil, apperrors.NewLockConflict("ticket is locked", map[string]any{"ticket_id": ticket.ID})
	}
	if !ownsComment(activity, actor) {
		return nil, apperrors.NewForbidden("not permitted to modify this activity")
	}

	if err := s.activities.UpdateMessage(ctx, activity.ID, message); err != nil {
		return nil, apperrors.MapError(err)
	}
	activity.Message = message
	return activity, nil
}

// DeleteComment removes the actor's own comment. Unlike UpdateComment, a
// failing ownership or type predicate is a silent no-op; a locked ticket
// still conflicts. The asymmetry is deliberate, see DESIGN.md.
func (s *CommentService) DeleteComment(ctx context.Context, actor *domain.User, activityID int64) error {
	activity, ticket, err := s.loadCommentTarget(ctx, activityID)
	if err != nil {
		return err
	}
	if ticket.Locked {
		return apperrors.NewLockConflict("ticket is locked", map[string]any{"ticket_id": ticket.ID})
	}
	if !ownsComment(activity, actor) {
		return nil
	}
	if err := s.activities.Delete(ctx, activity.ID); err != nil {
		return apperrors.MapError(err)
	}
	return nil
}

func (s *CommentService) loadCommentTarget(ctx context.Context, activityID int64) (*domain.Activity, *domain.Ticket, error) {
	activity, err := s.activities.GetByID(ctx, activityID)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, nil, apperrors.NewNotFound("activity", map[string]any{"activity_id": activityID})
		}
		return nil, nil, apperrors.MapError(err)
	}
	ticket, err := s.tickets.GetByID(ctx, activity.TicketID)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, nil, apperrors.NewNotFound("ticket", map[string]any{"ticket_id": activity.TicketID})
		}
		return nil, nil, apperrors.MapError(err)
	}
	return activity, ticket, nil
}

func ownsComment(activity *domain.Activity, actor *domain.User) bool {
	if activity.Author == nil {
		return false
	}
	return activity.Author.Email == actor.Email && activity.Type == domain.ActivityTypeComment
}
