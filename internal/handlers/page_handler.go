package handlers

import (
	"github.com/gofiber/fiber/v2"

	"github.com/Windi-Fikriyansyah/jobshare_be/internal/middleware"
	"github.com/Windi-Fikriyansyah/jobshare_be/internal/models"
	"github.com/Windi-Fikriyansyah/jobshare_be/internal/services/pages"
)

type PageHandler struct {
	Pages *pages.PageService
}

func NewPageHandler(ps *pages.PageService) *PageHandler {
	return &PageHandler{Pages: ps}
}

func (h *PageHandler) Routes(r fiber.Router, authMiddleware fiber.Handler) {
	manage := middleware.RequireCapability(models.CapManagePages)

	g := r.Group("/pages")
	g.Get("/", h.List)
	g.Get("/all", authMiddleware, manage, h.ListAll)
	g.Get("/:slug", h.GetBySlug)
	g.Post("/", authMiddleware, manage, h.Create)
	g.Put("/:id", authMiddleware, manage, h.Update)
	g.Delete("/:id", authMiddleware, manage, h.Delete)
}

func (h *PageHandler) List(c *fiber.Ctx) error {
	list, err := h.Pages.List(c.UserContext())
	if err != nil {
		return err
	}
	return c.JSON(fiber.Map{"success": true, "pages": list})
}

func (h *PageHandler) ListAll(c *fiber.Ctx) error {
	list, err := h.Pages.ListAll(c.UserContext())
	if err != nil {
		return err
	}
	return c.JSON(fiber.Map{"success": true, "pages": list})
}

func (h *PageHandler) GetBySlug(c *fiber.Ctx) error {
	p, err := h.Pages.GetBySlug(c.UserContext(), c.Params("slug"))
	if err != nil {
		return err
	}
	return c.JSON(fiber.Map{"success": true, "page": p})
}

func (h *PageHandler) Create(c *fiber.Ctx) error {
	var req pages.PageInput
	if err := parseBody(c, &req); err != nil {
		return err
	}
	p, err := h.Pages.Create(c.UserContext(), req)
	if err != nil {
		return err
	}
	return c.Status(fiber.StatusCreated).JSON(fiber.Map{"success": true, "page": p})
}

func (h *PageHandler) Update(c *fiber.Ctx) error {
	id, err := paramUUID(c, "id", pages.ErrPageNotFound)
	if err != nil {
		return err
	}
	var req pages.PageInput
	if err := parseBody(c, &req); err != nil {
		return err
	}
	p, err := h.Pages.Update(c.UserContext(), id, req)
	if err != nil {
		return err
	}
	return c.JSON(fiber.Map{"success": true, "page": p})
}

func (h *PageHandler) Delete(c *fiber.Ctx) error {
	id, err := paramUUID(c, "id", pages.ErrPageNotFound)
	if err != nil {
		return err
	}
	if err := h.Pages.Delete(c.UserContext(), id); err != nil {
		return err
	}
	return c.JSON(fiber.Map{"success": true, "message": "Page deleted successfully"})
}
