package handlers

import (
	"io"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/google/uuid"

	"github.com/Windi-Fikriyansyah/jobshare_be/internal/apperr"
	"github.com/Windi-Fikriyansyah/jobshare_be/internal/middleware"
	"github.com/Windi-Fikriyansyah/jobshare_be/internal/models"
	"github.com/Windi-Fikriyansyah/jobshare_be/internal/services/ledger"
)

const xlsxContentType = "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet"

type ApplicationHandler struct {
	Ledger *ledger.LedgerService
}

func NewApplicationHandler(led *ledger.LedgerService) *ApplicationHandler {
	return &ApplicationHandler{Ledger: led}
}

func (h *ApplicationHandler) Routes(r fiber.Router, authMiddleware fiber.Handler) {
	review := middleware.RequireCapability(models.CapReviewApplications)

	g := r.Group("/applications", authMiddleware)
	g.Post("/", h.Create)
	g.Get("/", h.List)
	g.Get("/export", review, h.Export)
	g.Get("/job/:jobId", review, h.ListForJob)
	g.Put("/:id", review, h.UpdateStatus)
	g.Get("/:id/cv", h.DownloadCV)
	g.Delete("/:id", h.Delete)
}

type applyReq struct {
	JobID       string `json:"jobId" form:"jobId"`
	CoverLetter string `json:"coverLetter" form:"coverLetter"`
}

// Create accepts multipart (jobId, coverLetter, file cv) or a JSON body
// without a file.
func (h *ApplicationHandler) Create(c *fiber.Ctx) error {
	u, err := currentUser(c)
	if err != nil {
		return err
	}
	var req applyReq
	if err := parseBody(c, &req); err != nil {
		return err
	}
	if req.JobID == "" {
		return apperr.Validation("Job ID is required")
	}
	jobID, err := uuid.Parse(req.JobID)
	if err != nil {
		return ledger.ErrJobNotFound
	}

	in := ledger.ApplyInput{JobID: jobID, Applicant: u, CoverLetter: req.CoverLetter}
	if fh, err := c.FormFile("cv"); err == nil {
		in.Resume = &ledger.Upload{
			Filename: fh.Filename,
			Size:     fh.Size,
			Open: func() (io.ReadCloser, error) {
				return fh.Open()
			},
		}
	}

	app, err := h.Ledger.Apply(c.UserContext(), in)
	if err != nil {
		return err
	}
	return c.Status(fiber.StatusCreated).JSON(fiber.Map{
		"success":     true,
		"application": app,
		"message":     "Application submitted successfully! Check your email for confirmation.",
	})
}

func listFilter(c *fiber.Ctx) (ledger.ListFilter, error) {
	jobID, err := queryUUID(c, "jobId")
	if err != nil {
		return ledger.ListFilter{}, err
	}
	return ledger.ListFilter{
		JobID:  jobID,
		Status: models.ApplicationStatus(c.Query("status")),
		Page:   c.QueryInt("page", 1),
		Limit:  c.QueryInt("limit", 50),
	}, nil
}

func (h *ApplicationHandler) List(c *fiber.Ctx) error {
	u, err := currentUser(c)
	if err != nil {
		return err
	}
	f, err := listFilter(c)
	if err != nil {
		return err
	}
	apps, page, err := h.Ledger.List(c.UserContext(), u, f)
	if err != nil {
		return err
	}
	return c.JSON(fiber.Map{
		"success":      true,
		"count":        len(apps),
		"applications": apps,
		"pagination":   page,
	})
}

func (h *ApplicationHandler) ListForJob(c *fiber.Ctx) error {
	jobID, err := paramUUID(c, "jobId", ledger.ErrJobNotFound)
	if err != nil {
		return err
	}
	apps, err := h.Ledger.ListForJob(c.UserContext(), jobID)
	if err != nil {
		return err
	}
	return c.JSON(fiber.Map{
		"success":      true,
		"count":        len(apps),
		"applications": apps,
	})
}

func (h *ApplicationHandler) UpdateStatus(c *fiber.Ctx) error {
	id, err := paramUUID(c, "id", ledger.ErrApplicationNotFound)
	if err != nil {
		return err
	}
	var req ledger.StatusUpdate
	if err := parseBody(c, &req); err != nil {
		return err
	}
	app, err := h.Ledger.UpdateStatus(c.UserContext(), id, req)
	if err != nil {
		return err
	}
	return c.JSON(fiber.Map{
		"success":     true,
		"application": app,
		"message":     "Application status updated to " + string(app.Status),
	})
}

func (h *ApplicationHandler) DownloadCV(c *fiber.Ctx) error {
	u, err := currentUser(c)
	if err != nil {
		return err
	}
	id, err := paramUUID(c, "id", ledger.ErrApplicationNotFound)
	if err != nil {
		return err
	}
	rc, name, err := h.Ledger.OpenResume(c.UserContext(), u, id)
	if err != nil {
		return err
	}
	c.Attachment(name)
	return c.SendStream(rc)
}

func (h *ApplicationHandler) Delete(c *fiber.Ctx) error {
	u, err := currentUser(c)
	if err != nil {
		return err
	}
	id, err := paramUUID(c, "id", ledger.ErrApplicationNotFound)
	if err != nil {
		return err
	}
	if err := h.Ledger.Delete(c.UserContext(), u, id); err != nil {
		return err
	}
	return c.JSON(fiber.Map{"success": true, "message": "Application deleted"})
}

func (h *ApplicationHandler) Export(c *fiber.Ctx) error {
	f, err := listFilter(c)
	if err != nil {
		return err
	}
	data, err := h.Ledger.ExportXLSX(c.UserContext(), f)
	if err != nil {
		return err
	}
	c.Attachment("applications-" + time.Now().UTC().Format("20060102") + ".xlsx")
	c.Set(fiber.HeaderContentType, xlsxContentType)
	return c.Send(data)
}
