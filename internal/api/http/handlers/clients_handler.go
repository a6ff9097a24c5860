package handlers

import (
	"net/http"

	"github.com/gofiber/fiber/v2"

	"github.com/latte-hq/latte-api/internal/api/dto"
	"github.com/latte-hq/latte-api/internal/domain"
	"github.com/latte-hq/latte-api/internal/service"
	apperrors "github.com/latte-hq/latte-api/pkg/util/errorutil"
)

// ClientsHandler exposes the client directory.
type ClientsHandler struct {
	clients *service.ClientService
}

// NewClientsHandler constructs handler.
func NewClientsHandler(clientService *service.ClientService) *ClientsHandler {
	return &ClientsHandler{clients: clientService}
}

// ListClients GET /clients.
func (h *ClientsHandler) ListClients(c *fiber.Ctx) error {
	page, limit := parsePage(c)
	clients, total, err := h.clients.ListClients(c.Context(), limit, (page-1)*limit)
	if err != nil {
		return err
	}
	items := make([]dto.ClientResponse, 0, len(clients))
	for i := range clients {
		items = append(items, clientResponse(&clients[i]))
	}
	return c.JSON(dto.NewPaged(items, total, page, limit))
}

// GetClient GET /clients/:id.
func (h *ClientsHandler) GetClient(c *fiber.Ctx) error {
	clientID, err := parseID(c, "id")
	if err != nil {
		return err
	}
	client, err := h.clients.GetClient(c.Context(), clientID)
	if err != nil {
		return err
	}
	return c.JSON(fiber.Map{"data": clientResponse(client)})
}

// CreateClient POST /clients.
func (h *ClientsHandler) CreateClient(c *fiber.Ctx) error {
	input, err := parseClientRequest(c)
	if err != nil {
		return err
	}
	client, err := h.clients.CreateClient(c.Context(), input)
	if err != nil {
		return err
	}
	return c.Status(http.StatusCreated).JSON(fiber.Map{"data": clientResponse(client)})
}

// UpdateClient PUT /clients/:id.
func (h *ClientsHandler) UpdateClient(c *fiber.Ctx) error {
	clientID, err := parseID(c, "id")
	if err != nil {
		return err
	}
	input, err := parseClientRequest(c)
	if err != nil {
		return err
	}
	client, err := h.clients.UpdateClient(c.Context(), clientID, input)
	if err != nil {
		return err
	}
	return c.JSON(fiber.Map{"data": clientResponse(client)})
}

// DeleteClient DELETE /clients/:id.
func (h *ClientsHandler) DeleteClient(c *fiber.Ctx) error {
	clientID, err := parseID(c, "id")
	if err != nil {
		return err
	}
	if err := h.clients.DeleteClient(c.Context(), clientID); err != nil {
		return err
	}
	return c.SendStatus(http.StatusNoContent)
}

func parseClientRequest(c *fiber.Ctx) (service.ClientInput, error) {
	var req dto.ClientRequest
	if err := c.BodyParser(&req); err != nil {
		return service.ClientInput{}, apperrors.NewValidationError("invalid payload", nil)
	}
	if req.Name == "" {
		return service.ClientInput{}, apperrors.NewValidationError("name required", nil)
	}
	return service.ClientInput{Name: req.Name, Email: req.Email, Phone: req.Phone}, nil
}

func clientResponse(client *domain.Client) dto.ClientResponse {
	return dto.ClientResponse{
		ID:        client.ID,
		Name:      client.Name,
		Email:     client.Email,
		Phone:     client.Phone,
		Deletable: client.Deletable,
		CreatedAt: client.CreatedAt,
		UpdatedAt: client.UpdatedAt,
	}
}
