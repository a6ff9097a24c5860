package handlers

import (
	"net/http"
	"strconv"
	"strings"

	"github.com/gofiber/fiber/v2"

	"github.com/latte-hq/latte-api/internal/api/dto"
	"github.com/latte-hq/latte-api/internal/auth"
	"github.com/latte-hq/latte-api/internal/domain"
	"github.com/latte-hq/latte-api/internal/service"
	apperrors "github.com/latte-hq/latte-api/pkg/util/errorutil"
)

// TicketsHandler manages ticket endpoints.
type TicketsHandler struct {
	tickets  *service.TicketService
	comments *service.CommentService
}

// NewTicketsHandler constructs handler.
func NewTicketsHandler(ticketService *service.TicketService, commentService *service.CommentService) *TicketsHandler {
	return &TicketsHandler{tickets: ticketService, comments: commentService}
}

// CreateTicket POST /tickets.
func (h *TicketsHandler) CreateTicket(c *fiber.Ctx) error {
	actor, err := requirePrincipal(c)
	if err != nil {
		return err
	}
	var req dto.CreateTicketRequest
	if err := c.BodyParser(&req); err != nil {
		return apperrors.NewValidationError("invalid payload", nil)
	}
	if req.Title == "" {
		return apperrors.NewValidationError("title required", nil)
	}

	ticket, err := h.tickets.CreateTicket(c.Context(), actor, service.TicketCreateInput{
		Title:       req.Title,
		Description: req.Description,
		Priority:    req.Priority,
		Status:      req.Status,
		AssignedTo:  req.AssignedTo,
		ClientID:    req.ClientID,
	})
	if err != nil {
		return err
	}
	return c.Status(http.StatusCreated).JSON(fiber.Map{"data": ticketResponse(ticket)})
}

// ListTickets GET /tickets. An optional status query filters by status.
func (h *TicketsHandler) ListTickets(c *fiber.Ctx) error {
	page, limit := parsePage(c)
	offset := (page - 1) * limit

	var (
		tickets []domain.Ticket
		total   int64
		err     error
	)
	if statusStr := strings.TrimSpace(c.Query("status")); statusStr != "" {
		status := domain.TicketStatus(strings.ToUpper(statusStr))
		tickets, total, err = h.tickets.ListTicketsByStatus(c.Context(), status, limit, offset)
	} else {
		tickets, total, err = h.tickets.ListTickets(c.Context(), limit, offset)
	}
	if err != nil {
		return err
	}

	items := make([]dto.TicketResponse, 0, len(tickets))
	for i := range tickets {
		items = append(items, ticketResponse(&tickets[i]))
	}
	return c.JSON(dto.NewPaged(items, total, page, limit))
}

// GetTicket GET /tickets/:id.
func (h *TicketsHandler) GetTicket(c *fiber.Ctx) error {
	ticketID, err := parseID(c, "id")
	if err != nil {
		return err
	}
	ticket, err := h.tickets.GetTicket(c.Context(), ticketID)
	if err != nil {
		return err
	}
	return c.JSON(fiber.Map{"data": ticketResponse(ticket)})
}

// PatchTicket PATCH /tickets/:id.
func (h *TicketsHandler) PatchTicket(c *fiber.Ctx) error {
	actor, err := requirePrincipal(c)
	if err != nil {
		return err
	}
	ticketID, err := parseID(c, "id")
	if err != nil {
		return err
	}
	var req dto.PatchTicketRequest
	if err := c.BodyParser(&req); err != nil {
		return apperrors.NewValidationError("invalid payload", nil)
	}

	ticket, err := h.tickets.EditTicket(c.Context(), actor, ticketID, service.TicketPatch{
		Title:       req.Title,
		Description: req.Description,
		Priority:    req.Priority,
		Status:      req.Status,
		ClientID:    req.ClientID,
		AssignedTo:  req.AssignedTo,
	})
	if err != nil {
		return err
	}
	return c.JSON(fiber.Map{"data": ticketResponse(ticket)})
}

// LockTicket POST /tickets/:id/lock.
func (h *TicketsHandler) LockTicket(c *fiber.Ctx) error {
	return h.setLock(c, true)
}

// UnlockTicket POST /tickets/:id/unlock.
func (h *TicketsHandler) UnlockTicket(c *fiber.Ctx) error {
	return h.setLock(c, false)
}

func (h *TicketsHandler) setLock(c *fiber.Ctx, locked bool) error {
	actor, err := requirePrincipal(c)
	if err != nil {
		return err
	}
	ticketID, err := parseID(c, "id")
	if err != nil {
		return err
	}

	var ticket *domain.Ticket
	if locked {
		ticket, err = h.tickets.LockTicket(c.Context(), actor, ticketID)
	} else {
		ticket, err = h.tickets.UnlockTicket(c.Context(), actor, ticketID)
	}
	if err != nil {
		return err
	}
	return c.JSON(fiber.Map{"data": ticketResponse(ticket)})
}

// DeleteTicket DELETE /tickets/:id.
func (h *TicketsHandler) DeleteTicket(c *fiber.Ctx) error {
	actor, err := requirePrincipal(c)
	if err != nil {
		return err
	}
	ticketID, err := parseID(c, "id")
	if err != nil {
		return err
	}
	if err := h.tickets.DeleteTicket(c.Context(), actor, ticketID); err != nil {
		return err
	}
	return c.SendStatus(http.StatusNoContent)
}

// TicketCounts GET /tickets/counts.
func (h *TicketsHandler) TicketCounts(c *fiber.Ctx) error {
	open, closed, err := h.tickets.TicketCounts(c.Context())
	if err != nil {
		return err
	}
	return c.JSON(fiber.Map{"data": dto.TicketCountsResponse{Open: open, Closed: closed}})
}

// ListActivities GET /tickets/:id/activities.
func (h *TicketsHandler) ListActivities(c *fiber.Ctx) error {
	ticketID, err := parseID(c, "id")
	if err != nil {
		return err
	}
	page, limit := parsePage(c)
	activities, total, err := h.tickets.ListActivities(c.Context(), ticketID, limit, (page-1)*limit)
	if err != nil {
		return err
	}
	items := make([]dto.ActivityResponse, 0, len(activities))
	for i := range activities {
		items = append(items, activityResponse(&activities[i]))
	}
	return c.JSON(dto.NewPaged(items, total, page, limit))
}

// CreateComment POST /tickets/:id/comments.
func (h *TicketsHandler) CreateComment(c *fiber.Ctx) error {
	actor, err := requirePrincipal(c)
	if err != nil {
		return err
	}
	ticketID, err := parseID(c, "id")
	if err != nil {
		return err
	}
	var req dto.CommentRequest
	if err := c.BodyParser(&req); err != nil {
		return apperrors.NewValidationError("invalid payload", nil)
	}
	if strings.TrimSpace(req.Message) == "" {
		return apperrors.NewValidationError("message required", nil)
	}

	comment, err := h.comments.CreateComment(c.Context(), actor, ticketID, req.Message)
	if err != nil {
		return err
	}
	return c.Status(http.StatusCreated).JSON(fiber.Map{"data": activityResponse(comment)})
}

// UpdateComment PUT /comments/:id.
func (h *TicketsHandler) UpdateComment(c *fiber.Ctx) error {
	actor, err := requirePrincipal(c)
	if err != nil {
		return err
	}
	commentID, err := parseID(c, "id")
	if err != nil {
		return err
	}
	var req dto.CommentRequest
	if err := c.BodyParser(&req); err != nil {
		return apperrors.NewValidationError("invalid payload", nil)
	}
	if strings.TrimSpace(req.Message) == "" {
		return apperrors.NewValidationError("message required", nil)
	}

	comment, err := h.comments.UpdateComment(c.Context(), actor, commentID, req.Message)
	if err != nil {
		return err
	}
	return c.JSON(fiber.Map{"data": activityResponse(comment)})
}

// DeleteComment DELETE /comments/:id.
func (h *TicketsHandler) DeleteComment(c *fiber.Ctx) error {
	actor, err := requirePrincipal(c)
	if err != nil {
		return err
	}
	commentID, err := parseID(c, "id")
	if err != nil {
		return err
	}
	if err := h.comments.DeleteComment(c.Context(), actor, commentID); err != nil {
		return err
	}
	return c.SendStatus(http.StatusNoContent)
}

func requirePrincipal(c *fiber.Ctx) (*domain.User, error) {
	actor, ok := auth.PrincipalFromContext(c)
	if !ok {
		return nil, apperrors.NewUnauthorized("authentication required")
	}
	return actor, nil
}

func parseID(c *fiber.Ctx, param string) (int64, error) {
	id, err := strconv.ParseInt(c.Params(param), 10, 64)
	if err != nil || id <= 0 {
		return 0, apperrors.NewValidationError("invalid id", map[string]any{"param": param})
	}
	return id, nil
}

func parsePage(c *fiber.Ctx) (page, limit int) {
	page = parseInt(c.Query("page"), 1)
	limit = parseInt(c.Query("limit"), 20)
	return page, limit
}

func parseInt(val string, def int) int {
	if val == "" {
		return def
	}
	parsed, err := strconv.Atoi(val)
	if err != nil || parsed <= 0 {
		return def
	}
	return parsed
}

func ticketResponse(ticket *domain.Ticket) dto.TicketResponse {
	return dto.TicketResponse{
		ID:          ticket.ID,
		Title:       ticket.Title,
		Description: ticket.Description,
		Priority:    ticket.Priority,
		Status:      ticket.Status,
		Locked:      ticket.Locked,
		CreatedBy:   userRefResponse(ticket.CreatedBy),
		AssignedTo:  userRefResponse(ticket.AssignedTo),
		ClientID:    ticket.ClientID,
		CreatedAt:   ticket.CreatedAt,
		UpdatedAt:   ticket.UpdatedAt,
	}
}

func activityResponse(activity *domain.Activity) dto.ActivityResponse {
	return dto.ActivityResponse{
		ID:        activity.ID,
		Type:      activity.Type,
		Message:   activity.Message,
		Author:    userRefResponse(activity.Author),
		TicketID:  activity.TicketID,
		CreatedAt: activity.CreatedAt,
		UpdatedAt: activity.UpdatedAt,
	}
}

func userRefResponse(ref *domain.UserRef) *dto.UserRefResponse {
	if ref == nil {
		return nil
	}
	return &dto.UserRefResponse{ID: ref.ID, Firstname: ref.Firstname, Email: ref.Email}
}
