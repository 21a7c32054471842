package handlers

import (
	"github.com/gofiber/fiber/v2"

	"github.com/Windi-Fikriyansyah/jobshare_be/internal/services/jobs"
)

// CategoryHandler feeds the category filter on the job board.
type CategoryHandler struct {
	Jobs *jobs.JobService
}

func NewCategoryHandler(js *jobs.JobService) *CategoryHandler {
	return &CategoryHandler{Jobs: js}
}

func (h *CategoryHandler) Routes(r fiber.Router) {
	r.Get("/categories", h.GetCategories)
}

func (h *CategoryHandler) GetCategories(c *fiber.Ctx) error {
	categories, err := h.Jobs.Categories(c.UserContext())
	if err != nil {
		return err
	}
	return c.JSON(fiber.Map{
		"success":    true,
		"categories": categories,
	})
}
