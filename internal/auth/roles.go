package auth

import (
	"net/http"

	"github.com/gofiber/fiber/v2"
)

// RequireAuthority ensures the authenticated user holds at least one of the
// given authority tokens. With no tokens it only requires authentication.
func RequireAuthority(tokens ...string) fiber.Handler {
	return func(c *fiber.Ctx) error {
		principal, ok := PrincipalFromContext(c)
		if !ok {
			return fiber.NewError(http.StatusUnauthorized, http.StatusText(http.StatusUnauthorized))
		}
		if len(tokens) == 0 {
			return c.Next()
		}
		for _, token := range tokens {
			if principal.HasAuthority(token) {
				return c.Next()
			}
		}
		return fiber.NewError(http.StatusForbidden, "insufficient authority")
	}
}
