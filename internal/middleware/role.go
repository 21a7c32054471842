package middleware

import (
	"github.com/gofiber/fiber/v2"

	"github.com/Windi-Fikriyansyah/jobshare_be/internal/apperr"
	"github.com/Windi-Fikriyansyah/jobshare_be/internal/models"
)

// RequireRoles must run after Protect.
func RequireRoles(allowed ...models.Role) fiber.Handler {
	allowedSet := map[models.Role]bool{}
	for _, r := range allowed {
		allowedSet[r] = true
	}

	return func(c *fiber.Ctx) error {
		u := CurrentUser(c)
		if u == nil {
			return apperr.Unauthorized("Not authorized")
		}
		if !allowedSet[u.Role] {
			return apperr.Forbidden("User role " + string(u.Role) + " is not authorized to access this route")
		}
		return c.Next()
	}
}

// RequireCapability must run after Protect.
func RequireCapability(cap models.Capability) fiber.Handler {
	return func(c *fiber.Ctx) error {
		u := CurrentUser(c)
		if u == nil {
			return apperr.Unauthorized("Not authorized")
		}
		if !u.Role.Can(cap) {
			return apperr.Forbidden("User role " + string(u.Role) + " is not authorized to access this route")
		}
		return c.Next()
	}
}
