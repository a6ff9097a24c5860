package handlers

import (
	"net/http"

	"github.com/gofiber/fiber/v2"

	"github.com/latte-hq/latte-api/internal/api/dto"
	"github.com/latte-hq/latte-api/internal/domain"
	"github.com/latte-hq/latte-api/internal/service"
	apperrors "github.com/latte-hq/latte-api/pkg/util/errorutil"
)

// RolesHandler exposes role and authority management.
type RolesHandler struct {
	roles *service.RoleService
}

// NewRolesHandler constructs handler.
func NewRolesHandler(roleService *service.RoleService) *RolesHandler {
	return &RolesHandler{roles: roleService}
}

// ListRoles GET /roles.
func (h *RolesHandler) ListRoles(c *fiber.Ctx) error {
	roles, err := h.roles.ListRoles(c.Context())
	if err != nil {
		return err
	}
	items := make([]dto.RoleResponse, 0, len(roles))
	for i := range roles {
		items = append(items, roleResponse(&roles[i]))
	}
	return c.JSON(fiber.Map{"data": items})
}

// ListAuthorities GET /roles/authorities.
func (h *RolesHandler) ListAuthorities(c *fiber.Ctx) error {
	authorities, err := h.roles.ListAuthorities(c.Context())
	if err != nil {
		return err
	}
	items := make([]dto.AuthorityResponse, 0, len(authorities))
	for _, authority := range authorities {
		items = append(items, dto.AuthorityResponse{ID: authority.ID, Token: authority.Token})
	}
	return c.JSON(fiber.Map{"data": items})
}

// CreateRole POST /roles.
func (h *RolesHandler) CreateRole(c *fiber.Ctx) error {
	input, err := parseRoleRequest(c)
	if err != nil {
		return err
	}
	role, err := h.roles.CreateRole(c.Context(), input)
	if err != nil {
		return err
	}
	return c.Status(http.StatusCreated).JSON(fiber.Map{"data": roleResponse(role)})
}

// UpdateRole PUT /roles/:id.
func (h *RolesHandler) UpdateRole(c *fiber.Ctx) error {
	roleID, err := parseID(c, "id")
	if err != nil {
		return err
	}
	input, err := parseRoleRequest(c)
	if err != nil {
		return err
	}
	role, err := h.roles.UpdateRole(c.Context(), roleID, input)
	if err != nil {
		return err
	}
	return c.JSON(fiber.Map{"data": roleResponse(role)})
}

// DeleteRole DELETE /roles/:id.
func (h *RolesHandler) DeleteRole(c *fiber.Ctx) error {
	roleID, err := parseID(c, "id")
	if err != nil {
		return err
	}
	var req dto.DeleteRoleRequest
	if err := c.BodyParser(&req); err != nil {
		return apperrors.NewValidationError("invalid payload", nil)
	}
	if req.ReplacementID == 0 {
		return apperrors.NewValidationError("replacement_id required", nil)
	}
	if err := h.roles.DeleteRole(c.Context(), roleID, req.ReplacementID); err != nil {
		return err
	}
	return c.SendStatus(http.StatusNoContent)
}

func parseRoleRequest(c *fiber.Ctx) (service.RoleInput, error) {
	var req dto.RoleRequest
	if err := c.BodyParser(&req); err != nil {
		return service.RoleInput{}, apperrors.NewValidationError("invalid payload", nil)
	}
	if req.Name == "" {
		return service.RoleInput{}, apperrors.NewValidationError("name required", nil)
	}
	return service.RoleInput{Name: req.Name, Authorities: req.Authorities}, nil
}

func roleResponse(role *domain.Role) dto.RoleResponse {
	return dto.RoleResponse{
		ID:          role.ID,
		Name:        role.Name,
		Authorities: role.Authorities,
		Editable:    role.Editable,
		Deletable:   role.Deletable,
		CreatedAt:   role.CreatedAt,
		UpdatedAt:   role.UpdatedAt,
	}
}
