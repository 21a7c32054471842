package middleware

import (
	"context"
	"strings"

	"github.com/gofiber/fiber/v2"

	"github.com/Windi-Fikriyansyah/jobshare_be/internal/apperr"
	"github.com/Windi-Fikriyansyah/jobshare_be/internal/models"
)

// TokenCookie is read when no Authorization header is sent.
const TokenCookie = "js_token"

const userKey = "user"

// Authenticator resolves a bearer token to a stored user.
type Authenticator interface {
	Authenticate(ctx context.Context, token string) (*models.User, error)
}

// Protect requires a valid token and loads its user on every request.
func Protect(auth Authenticator) fiber.Handler {
	return func(c *fiber.Ctx) error {
		token := TokenFromRequest(c)
		if token == "" {
			return apperr.Unauthorized("Not authorized, no token")
		}

		u, err := auth.Authenticate(c.UserContext(), token)
		if err != nil {
			return err
		}

		c.Locals(userKey, u)
		c.Locals("userId", u.ID.String())
		c.Locals("role", string(u.Role))
		return c.Next()
	}
}

// TokenFromRequest returns the bearer token from the Authorization header,
// the token query parameter (websocket upgrades), or the session cookie.
func TokenFromRequest(c *fiber.Ctx) string {
	if h := c.Get(fiber.HeaderAuthorization); h != "" {
		scheme, token, ok := strings.Cut(h, " ")
		if ok && strings.EqualFold(scheme, "Bearer") {
			return strings.TrimSpace(token)
		}
		return ""
	}
	if q := c.Query("token"); q != "" {
		return q
	}
	return c.Cookies(TokenCookie)
}

// CurrentUser returns the user set by Protect, or nil.
func CurrentUser(c *fiber.Ctx) *models.User {
	u, _ := c.Locals(userKey).(*models.User)
	return u
}
