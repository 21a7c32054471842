package handlers

import (
	"github.com/gofiber/fiber/v2"

	"github.com/Windi-Fikriyansyah/jobshare_be/internal/middleware"
	"github.com/Windi-Fikriyansyah/jobshare_be/internal/models"
	"github.com/Windi-Fikriyansyah/jobshare_be/internal/services/accounts"
	"github.com/Windi-Fikriyansyah/jobshare_be/internal/services/jobs"
	"github.com/Windi-Fikriyansyah/jobshare_be/internal/services/ledger"
)

type UserHandler struct {
	Accounts *accounts.AccountService
	Jobs     *jobs.JobService
	Ledger   *ledger.LedgerService
}

func NewUserHandler(acc *accounts.AccountService, js *jobs.JobService, led *ledger.LedgerService) *UserHandler {
	return &UserHandler{Accounts: acc, Jobs: js, Ledger: led}
}

func (h *UserHandler) Routes(r fiber.Router, authMiddleware fiber.Handler) {
	g := r.Group("/users")
	g.Get("/me", authMiddleware, h.Me)
	g.Put("/me/profile", authMiddleware, h.UpdateProfile)
	g.Get("/me/saved-jobs", authMiddleware, h.SavedJobs)
	g.Get("/me/applied-jobs", authMiddleware, h.AppliedJobs)
	g.Get("/", authMiddleware, middleware.RequireCapability(models.CapListUsers), h.List)
	g.Get("/:id", h.GetByID)
}

func (h *UserHandler) Me(c *fiber.Ctx) error {
	u, err := currentUser(c)
	if err != nil {
		return err
	}
	profile, err := fullProfile(c, u, h.Jobs, h.Ledger)
	if err != nil {
		return err
	}
	return c.JSON(fiber.Map{"success": true, "user": profile})
}

func (h *UserHandler) UpdateProfile(c *fiber.Ctx) error {
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
		"message": "Profile updated successfully",
	})
}

func (h *UserHandler) SavedJobs(c *fiber.Ctx) error {
	u, err := currentUser(c)
	if err != nil {
		return err
	}
	saved, err := h.Jobs.Saved(c.UserContext(), u.ID)
	if err != nil {
		return err
	}
	return c.JSON(fiber.Map{"success": true, "savedJobs": saved})
}

func (h *UserHandler) AppliedJobs(c *fiber.Ctx) error {
	u, err := currentUser(c)
	if err != nil {
		return err
	}
	applied, err := appliedJobs(c, u, h.Ledger)
	if err != nil {
		return err
	}
	return c.JSON(fiber.Map{"success": true, "appliedJobs": applied})
}

// GetByID is public and never exposes saved or applied jobs.
func (h *UserHandler) GetByID(c *fiber.Ctx) error {
	id, err := paramUUID(c, "id", accounts.ErrUserNotFound)
	if err != nil {
		return err
	}
	u, err := h.Accounts.Get(c.UserContext(), id)
	if err != nil {
		return err
	}
	return c.JSON(fiber.Map{"success": true, "user": u.PublicProfile()})
}

func (h *UserHandler) List(c *fiber.Ctx) error {
	users, page, err := h.Accounts.List(c.UserContext(),
		models.Role(c.Query("role")),
		c.QueryInt("page", 1),
		c.QueryInt("limit", 10),
	)
	if err != nil {
		return err
	}
	out := make([]map[string]any, 0, len(users))
	for i := range users {
		p := users[i].PublicProfile()
		p["createdAt"] = users[i].CreatedAt
		out = append(out, p)
	}
	return c.JSON(fiber.Map{
		"success":    true,
		"users":      out,
		"pagination": page,
	})
}
