package service

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"
	"go.uber.org/zap"

	"github.com/latte-hq/latte-api/internal/domain"
	"github.com/latte-hq/latte-api/internal/events"
	"github.com/latte-hq/latte-api/internal/repository"
	apperrors "github.com/latte-hq/latte-api/pkg/util/errorutil"
)

// NotificationBroadcaster pushes a stored notification towards the user's
// live channel. Delivery is somebody else's problem; errors are logged and
// swallowed.
type NotificationBroadcaster interface {
	Broadcast(ctx context.Context, email string, notification *domain.Notification) error
}

// NotificationService turns assignment events into per-user notification
// records and exposes the user-facing listing. It runs after the ticket
// transaction has committed and never fails the mutation that triggered it.
type NotificationService struct {
	notifications repository.NotificationRepository
	dispatcher    events.Dispatcher
	broadcaster   NotificationBroadcaster
	logger        *zap.Logger
}

// NewNotificationService creates the service.
func NewNotificationService(notifications repository.NotificationRepository, dispatcher events.Dispatcher, broadcaster NotificationBroadcaster, logger *zap.Logger) *NotificationService {
	return &NotificationService{
		notifications: notifications,
		dispatcher:    dispatcher,
		broadcaster:   broadcaster,
		logger:        logger,
	}
}

// RegisterHandlers subscribes to the events that produce notifications.
func (n *NotificationService) RegisterHandlers() {
	if n.dispatcher == nil {
		return
	}
	n.dispatcher.Subscribe(events.EventTicketAssigned, n.handleTicketAssigned)
}

// handleTicketAssigned notifies both sides of an assignment transition.
// The actor is never notified about their own action.
func (n *NotificationService) handleTicketAssigned(ctx context.Context, event events.Event) error {
	payload, ok := event.Payload.(events.TicketAssignedPayload)
	if !ok {
		return fmt.Errorf("unexpected payload for %s", event.Type)
	}

	if old := payload.OldAssignee; old != nil && !isActor(event.Actor, old) {
		message := fmt.Sprintf("You have been unassigned from ticket '%s'", payload.TicketTitle)
		n.deliver(ctx, old, message)
	}
	if next := payload.NewAssignee; next != nil && !isActor(event.Actor, next) {
		message := fmt.Sprintf("You have been assigned ticket '%s'", payload.TicketTitle)
		n.deliver(ctx, next, message)
	}
	return nil
}

func (n *NotificationService) deliver(ctx context.Context, target *domain.UserRef, message string) {
	notification := &domain.Notification{
		Message: message,
		UserID:  target.ID,
	}
	if err := n.notifications.Create(ctx, notification); err != nil {
		n.logger.Error("failed to store notification",
			zap.Int64("user_id", target.ID), zap.Error(err))
		return
	}
	if n.broadcaster == nil {
		return
	}
	if err := n.broadcaster.Broadcast(ctx, target.Email, notification); err != nil {
		n.logger.Warn("failed to broadcast notification",
			zap.String("email", target.Email), zap.Error(err))
	}
}

func isActor(actor, target *domain.UserRef) bool {
	if actor == nil || target == nil {
		return false
	}
	return actor.Email == target.Email
}

// ListForUser returns the actor's notifications, newest first.
func (n *NotificationService) ListForUser(ctx context.Context, actor *domain.User, limit, offset int) ([]domain.Notification, int64, error) {
	notifications, total, err := n.notifications.ListByUser(ctx, actor.ID, limit, offset)
	if err != nil {
		return nil, 0, apperrors.MapError(err)
	}
	return notifications, total, nil
}

// Delete removes one of the actor's own notifications.
func (n *NotificationService) Delete(ctx context.Context, actor *domain.User, id int64) error {
	notification, err := n.notifications.GetByID(ctx, id)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return apperrors.NewNotFound("notification", map[string]any{"notification_id": id})
		}
		return apperrors.MapError(err)
	}
	if notification.UserID != actor.ID {
		return apperrors.NewForbidden("not permitted to delete this notification")
	}
	if err := n.notifications.Delete(ctx, id); err != nil {
		return apperrors.MapError(err)
	}
	return nil
}
