package handlers

import (
	"net/http"

	"github.com/gofiber/fiber/v2"

	"github.com/latte-hq/latte-api/internal/api/dto"
	"github.com/latte-hq/latte-api/internal/service"
)

// NotificationsHandler exposes each user's notification inbox.
type NotificationsHandler struct {
	notifications *service.NotificationService
}

// NewNotificationsHandler constructs handler.
func NewNotificationsHandler(notificationService *service.NotificationService) *NotificationsHandler {
	return &NotificationsHandler{notifications: notificationService}
}

// ListNotifications GET /notifications.
func (h *NotificationsHandler) ListNotifications(c *fiber.Ctx) error {
	actor, err := requirePrincipal(c)
	if err != nil {
		return err
	}
	page, limit := parsePage(c)
	notifications, total, err := h.notifications.ListForUser(c.Context(), actor, limit, (page-1)*limit)
	if err != nil {
		return err
	}
	items := make([]dto.NotificationResponse, 0, len(notifications))
	for _, notification := range notifications {
		items = append(items, dto.NotificationResponse{
			ID:        notification.ID,
			Message:   notification.Message,
			CreatedAt: notification.CreatedAt,
		})
	}
	return c.JSON(dto.NewPaged(items, total, page, limit))
}

// DeleteNotification DELETE /notifications/:id.
func (h *NotificationsHandler) DeleteNotification(c *fiber.Ctx) error {
	actor, err := requirePrincipal(c)
	if err != nil {
		return err
	}
	notificationID, err := parseID(c, "id")
	if err != nil {
		return err
	}
	if err := h.notifications.Delete(c.Context(), actor, notificationID); err != nil {
		return err
	}
	return c.SendStatus(http.StatusNoContent)
}
