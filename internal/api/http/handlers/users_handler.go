package handlers

import (
	"net/http"

	"github.com/gofiber/fiber/v2"

	"github.com/latte-hq/latte-api/internal/api/dto"
	"github.com/latte-hq/latte-api/internal/domain"
	"github.com/latte-hq/latte-api/internal/service"
	apperrors "github.com/latte-hq/latte-api/pkg/util/errorutil"
)

// UsersHandler exposes account management endpoints.
type UsersHandler struct {
	users     *service.UserService
	passwords *service.PasswordService
}

// NewUsersHandler constructs handler.
func NewUsersHandler(userService *service.UserService, passwordService *service.PasswordService) *UsersHandler {
	return &UsersHandler{users: userService, passwords: passwordService}
}

// Me GET /users/me.
func (h *UsersHandler) Me(c *fiber.Ctx) error {
	actor, err := requirePrincipal(c)
	if err != nil {
		return err
	}
	return c.JSON(fiber.Map{"data": userResponse(actor)})
}

// ListUsers GET /users.
func (h *UsersHandler) ListUsers(c *fiber.Ctx) error {
	page, limit := parsePage(c)
	users, total, err := h.users.ListUsers(c.Context(), limit, (page-1)*limit)
	if err != nil {
		return err
	}
	items := make([]dto.UserResponse, 0, len(users))
	for i := range users {
		items = append(items, userResponse(&users[i]))
	}
	return c.JSON(dto.NewPaged(items, total, page, limit))
}

// ListFirstnames GET /users/firstnames. Used by assignment pickers.
func (h *UsersHandler) ListFirstnames(c *fiber.Ctx) error {
	page, limit := parsePage(c)
	names, total, err := h.users.ListFirstnames(c.Context(), limit, (page-1)*limit)
	if err != nil {
		return err
	}
	return c.JSON(dto.NewPaged(names, total, page, limit))
}

// GetUser GET /users/:email.
func (h *UsersHandler) GetUser(c *fiber.Ctx) error {
	user, err := h.users.GetByEmail(c.Context(), c.Params("email"))
	if err != nil {
		return err
	}
	return c.JSON(fiber.Map{"data": userResponse(user)})
}

// UpdateSelf PUT /users/me.
func (h *UsersHandler) UpdateSelf(c *fiber.Ctx) error {
	actor, err := requirePrincipal(c)
	if err != nil {
		return err
	}
	input, err := parseUserUpdate(c)
	if err != nil {
		return err
	}
	user, err := h.users.UpdateSelf(c.Context(), actor, input)
	if err != nil {
		return err
	}
	return c.JSON(fiber.Map{"data": userResponse(user)})
}

// UpdateUser PUT /users/:email.
func (h *UsersHandler) UpdateUser(c *fiber.Ctx) error {
	input, err := parseUserUpdate(c)
	if err != nil {
		return err
	}
	user, err := h.users.UpdateUser(c.Context(), c.Params("email"), input)
	if err != nil {
		return err
	}
	return c.JSON(fiber.Map{"data": userResponse(user)})
}

// DeleteUser DELETE /users/:email.
func (h *UsersHandler) DeleteUser(c *fiber.Ctx) error {
	if err := h.users.DeleteUser(c.Context(), c.Params("email")); err != nil {
		return err
	}
	return c.SendStatus(http.StatusNoContent)
}

// ResetOwnPassword POST /users/me/password.
func (h *UsersHandler) ResetOwnPassword(c *fiber.Ctx) error {
	actor, err := requirePrincipal(c)
	if err != nil {
		return err
	}
	input, err := parsePasswordReset(c)
	if err != nil {
		return err
	}
	user, err := h.passwords.ResetOwnPassword(c.Context(), actor, input)
	if err != nil {
		return err
	}
	return c.JSON(fiber.Map{"data": userResponse(user)})
}

// ResetPassword POST /users/:email/password.
func (h *UsersHandler) ResetPassword(c *fiber.Ctx) error {
	input, err := parsePasswordReset(c)
	if err != nil {
		return err
	}
	user, err := h.passwords.ResetPassword(c.Context(), c.Params("email"), input)
	if err != nil {
		return err
	}
	return c.JSON(fiber.Map{"data": userResponse(user)})
}

func parseUserUpdate(c *fiber.Ctx) (service.UserUpdateInput, error) {
	var req dto.UpdateUserRequest
	if err := c.BodyParser(&req); err != nil {
		return service.UserUpdateInput{}, apperrors.NewValidationError("invalid payload", nil)
	}
	if req.Firstname == "" || req.Email == "" {
		return service.UserUpdateInput{}, apperrors.NewValidationError("firstname and email required", nil)
	}
	return service.UserUpdateInput{Firstname: req.Firstname, Email: req.Email, Role: req.Role}, nil
}

func parsePasswordReset(c *fiber.Ctx) (service.ResetPasswordInput, error) {
	var req dto.ResetPasswordRequest
	if err := c.BodyParser(&req); err != nil {
		return service.ResetPasswordInput{}, apperrors.NewValidationError("invalid payload", nil)
	}
	if req.UpdatePassword == "" {
		return service.ResetPasswordInput{}, apperrors.NewValidationError("updatePassword required", nil)
	}
	return service.ResetPasswordInput{UpdatePassword: req.UpdatePassword, ConfirmPassword: req.ConfirmPassword}, nil
}

func userResponse(user *domain.User) dto.UserResponse {
	resp := dto.UserResponse{
		ID:          user.ID,
		Firstname:   user.Firstname,
		Email:       user.Email,
		Editable:    user.Editable,
		Deletable:   user.Deletable,
		CreatedAt:   user.CreatedAt,
		UpdatedAt:   user.UpdatedAt,
		Authorities: user.EffectiveAuthorities(),
	}
	if user.Role != nil {
		resp.Role = user.Role.Name
	}
	return resp
}
