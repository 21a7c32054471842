package handlers

import (
	"github.com/gofiber/fiber/v2"

	"github.com/Windi-Fikriyansyah/jobshare_be/internal/middleware"
	"github.com/Windi-Fikriyansyah/jobshare_be/internal/models"
	"github.com/Windi-Fikriyansyah/jobshare_be/internal/services/accounts"
	"github.com/Windi-Fikriyansyah/jobshare_be/internal/services/jobs"
	"github.com/Windi-Fikriyansyah/jobshare_be/internal/services/ledger"
)

type AuthHandler struct {
	Accounts     *accounts.AccountService
	Jobs         *jobs.JobService
	Ledger       *ledger.LedgerService
	Expires      int
	SecureCookie bool
}

func NewAuthHandler(acc *accounts.AccountService, js *jobs.JobService, led *ledger.LedgerService, expiresMin int, secureCookie bool) *AuthHandler {
	return &AuthHandler{Accounts: acc, Jobs: js, Ledger: led, Expires: expiresMin, SecureCookie: secureCookie}
}

func (h *AuthHandler) Routes(r fiber.Router, authMiddleware fiber.Handler) {
	g := r.Group("/auth")
	g.Post("/register", h.Register)
	g.Post("/login", h.Login)
	g.Post("/logout", h.Logout)
	g.Get("/me", authMiddleware, h.Me)
	g.Put("/update-profile", authMiddleware, h.UpdateProfile)
}

func (h *AuthHandler) Register(c *fiber.Ctx) error {
	var req accounts.RegisterInput
	if err := parseBody(c, &req); err != nil {
		return err
	}
	u, token, err := h.Accounts.Register(c.UserContext(), req)
	if err != nil {
		return err
	}
	h.setTokenCookie(c, token)

	return c.Status(fiber.StatusCreated).JSON(fiber.Map{
		"success": true,
		"token":   token,
		"user":    u.PublicProfile(),
	})
}

func (h *AuthHandler) Login(c *fiber.Ctx) error {
	var req accounts.LoginInput
	if err := parseBody(c, &req); err != nil {
		return err
	}
	u, token, err := h.Accounts.Login(c.UserContext(), req)
	if err != nil {
		return err
	}
	h.setTokenCookie(c, token)

	return c.JSON(fiber.Map{
		"success": true,
		"token":   token,
		"user":    u.PublicProfile(),
	})
}

func (h *AuthHandler) Logout(c *fiber.Ctx) error {
	c.Cookie(&fiber.Cookie{
		Name:     middleware.TokenCookie,
		Value:    "",
		Path:     "/",
		MaxAge:   -1,
		HTTPOnly: true,
		Secure:   h.SecureCookie,
		SameSite: "Lax",
	})
	return c.JSON(fiber.Map{
		"success": true,
		"message": "Logged out",
	})
}

// Me returns the profile with saved and applied jobs.
func (h *AuthHandler) Me(c *fiber.Ctx) error {
	u, err := currentUser(c)
	if err != nil {
		return err
	}
	profile, err := fullProfile(c, u, h.Jobs, h.Ledger)
	if err != nil {
		return err
	}
	return c.JSON(fiber.Map{
		"success": true,
		"user":    profile,
	})
}

func (h *AuthHandler) UpdateProfile(c *fiber.Ctx) error {
	u, err := currentUser(c)
	if err != nil {
		return err
	}
	var req accounts.ProfileUpdate
	if err := parseBody(c, &req); err != nil {
		return err
	}
	updated, err := h.Accounts.UpdateProfile(c.UserContext(), u, req)
	if err != nil {
		return err
	}
	return c.JSON(fiber.Map{
		"success": true,
		"user":    updated.PublicProfile(),
	})
}

func (h *AuthHandler) setTokenCookie(c *fiber.Ctx, token string) {
	c.Cookie(&fiber.Cookie{
		Name:     middleware.TokenCookie,
		Value:    token,
		Path:     "/",
		HTTPOnly: true,
		Secure:   h.SecureCookie,
		SameSite: "Lax",
		MaxAge:   h.Expires * 60,
	})
}

func fullProfile(c *fiber.Ctx, u *models.User, js *jobs.JobService, led *ledger.LedgerService) (fiber.Map, error) {
	saved, err := js.Saved(c.UserContext(), u.ID)
	if err != nil {
		return nil, err
	}
	applied, err := appliedJobs(c, u, led)
	if err != nil {
		return nil, err
	}
	profile := fiber.Map(u.PublicProfile())
	profile["savedJobs"] = saved
	profile["appliedJobs"] = applied
	profile["createdAt"] = u.CreatedAt
	return profile, nil
}

func appliedJobs(c *fiber.Ctx, u *models.User, led *ledger.LedgerService) ([]fiber.Map, error) {
	apps, err := led.ForUser(c.UserContext(), u.ID)
	if err != nil {
		return nil, err
	}
	out := make([]fiber.Map, 0, len(apps))
	for _, a := range apps {
		out = append(out, fiber.Map{
			"applicationId": a.ID,
			"job":           a.Job,
			"status":        a.Status,
			"appliedAt":     a.AppliedAt,
		})
	}
	return out, nil
}
