package handlers

import (
	"github.com/gofiber/fiber/v2"

	"github.com/Windi-Fikriyansyah/jobshare_be/internal/middleware"
	"github.com/Windi-Fikriyansyah/jobshare_be/internal/models"
	"github.com/Windi-Fikriyansyah/jobshare_be/internal/services/jobs"
)

type JobHandler struct {
	Jobs *jobs.JobService
}

func NewJobHandler(js *jobs.JobService) *JobHandler {
	return &JobHandler{Jobs: js}
}

func (h *JobHandler) Routes(r fiber.Router, authMiddleware fiber.Handler) {
	g := r.Group("/jobs")
	g.Get("/", h.List)
	g.Get("/my/posted", authMiddleware, middleware.RequireRoles(models.RoleEmployer, models.RoleAdmin), h.MyPosted)
	g.Get("/:id", h.Get)
	g.Post("/", authMiddleware, middleware.RequireCapability(models.CapManageJobs), h.Create)
	g.Put("/:id", authMiddleware, h.Update)
	g.Delete("/:id", authMiddleware, h.Delete)
	g.Post("/:id/apply", authMiddleware, h.Apply)
	g.Post("/:id/save", authMiddleware, h.Save)
}

func (h *JobHandler) List(c *fiber.Ctx) error {
	list, page, err := h.Jobs.List(c.UserContext(), jobs.ListQuery{
		Search:          c.Query("search"),
		Location:        c.Query("location"),
		JobType:         c.Query("jobType"),
		Category:        c.Query("category"),
		ExperienceLevel: c.Query("experienceLevel"),
		Page:            c.QueryInt("page", 1),
		Limit:           c.QueryInt("limit", 10),
		SortBy:          c.Query("sortBy", "createdAt"),
		Order:           c.Query("order", "desc"),
	})
	if err != nil {
		return err
	}
	return c.JSON(fiber.Map{
		"success":    true,
		"jobs":       list,
		"pagination": page,
	})
}

func (h *JobHandler) Get(c *fiber.Ctx) error {
	id, err := paramUUID(c, "id", jobs.ErrJobNotFound)
	if err != nil {
		return err
	}
	job, err := h.Jobs.Get(c.UserContext(), id)
	if err != nil {
		return err
	}
	return c.JSON(fiber.Map{"success": true, "job": job})
}

func (h *JobHandler) Create(c *fiber.Ctx) error {
	u, err := currentUser(c)
	if err != nil {
		return err
	}
	var req models.Job
	if err := parseBody(c, &req); err != nil {
		return err
	}
	job, err := h.Jobs.Create(c.UserContext(), u, req)
	if err != nil {
		return err
	}
	return c.Status(fiber.StatusCreated).JSON(fiber.Map{"success": true, "job": job})
}

func (h *JobHandler) Update(c *fiber.Ctx) error {
	u, err := currentUser(c)
	if err != nil {
		return err
	}
	id, err := paramUUID(c, "id", jobs.ErrJobNotFound)
	if err != nil {
		return err
	}
	job, err := h.Jobs.Update(c.UserContext(), u, id, c.Body())
	if err != nil {
		return err
	}
	return c.JSON(fiber.Map{"success": true, "job": job})
}

func (h *JobHandler) Delete(c *fiber.Ctx) error {
	u, err := currentUser(c)
	if err != nil {
		return err
	}
	id, err := paramUUID(c, "id", jobs.ErrJobNotFound)
	if err != nil {
		return err
	}
	if err := h.Jobs.Delete(c.UserContext(), u, id); err != nil {
		return err
	}
	return c.JSON(fiber.Map{"success": true, "message": "Job deleted successfully"})
}

type legacyApplyReq struct {
	CoverLetter string `json:"coverLetter"`
	Resume      string `json:"resume"`
}

// Apply records an application on the job's embedded list. New clients use
// POST /api/applications instead.
func (h *JobHandler) Apply(c *fiber.Ctx) error {
	u, err := currentUser(c)
	if err != nil {
		return err
	}
	id, err := paramUUID(c, "id", jobs.ErrJobNotFound)
	if err != nil {
		return err
	}
	var req legacyApplyReq
	if len(c.Body()) > 0 {
		if err := parseBody(c, &req); err != nil {
			return err
		}
	}
	if _, err := h.Jobs.LegacyApply(c.UserContext(), u, id, req.CoverLetter, req.Resume); err != nil {
		return err
	}
	return c.JSON(fiber.Map{"success": true, "message": "Application submitted successfully"})
}

func (h *JobHandler) Save(c *fiber.Ctx) error {
	u, err := currentUser(c)
	if err != nil {
		return err
	}
	id, err := paramUUID(c, "id", jobs.ErrJobNotFound)
	if err != nil {
		return err
	}
	if err := h.Jobs.Save(c.UserContext(), u, id); err != nil {
		return err
	}
	return c.JSON(fiber.Map{"success": true, "message": "Job saved successfully"})
}

func (h *JobHandler) MyPosted(c *fiber.Ctx) error {
	u, err := currentUser(c)
	if err != nil {
		return err
	}
	list, err := h.Jobs.MyPosted(c.UserContext(), u)
	if err != nil {
		return err
	}
	return c.JSON(fiber.Map{"success": true, "count": len(list), "jobs": list})
}
