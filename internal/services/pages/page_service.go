package pages

import (
	"context"
	"errors"
	"strings"

	"github.com/google/uuid"
	"go.uber.org/zap"
	"gorm.io/gorm"

	"github.com/Windi-Fikriyansyah/jobshare_be/internal/apperr"
	"github.com/Windi-Fikriyansyah/jobshare_be/internal/models"
)

var (
	ErrPageNotFound  = apperr.NotFound("Page not found")
	ErrTitleRequired = apperr.Validation("Page title is required")
	ErrPageExists    = apperr.Conflict("A page with this title already exists")
	ErrTitleReserved = apperr.Validation("This page title is reserved")
)

// reservedSlugs collide with fixed routes under /api/pages.
var reservedSlugs = map[string]bool{"all": true}

// PageInput carries the editable fields. Nil fields are left untouched on
// update.
type PageInput struct {
	Title       *string `json:"title"`
	Content     *string `json:"content"`
	Description *string `json:"description"`
	Order       *int    `json:"order"`
	IsActive    *bool   `json:"isActive"`
}

type PageService struct {
	DB     *gorm.DB
	Logger *zap.Logger
}

func NewPageService(db *gorm.DB, logger *zap.Logger) *PageService {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &PageService{DB: db, Logger: logger}
}

// List returns the active pages in navigation order.
func (s *PageService) List(ctx context.Context) ([]models.Page, error) {
	return s.list(ctx, true)
}

// ListAll includes inactive pages.
func (s *PageService) ListAll(ctx context.Context) ([]models.Page, error) {
	return s.list(ctx, false)
}

func (s *PageService) list(ctx context.Context, activeOnly bool) ([]models.Page, error) {
	q := s.DB.WithContext(ctx)
	if activeOnly {
		q = q.Where("is_active = ?", true)
	}
	var pages []models.Page
	if err := q.Order("display_order ASC").Order("created_at ASC").Find(&pages).Error; err != nil {
		return nil, apperr.Internal("list pages", err)
	}
	return pages, nil
}

func (s *PageService) GetBySlug(ctx context.Context, slug string) (*models.Page, error) {
	var p models.Page
	if err := s.DB.WithContext(ctx).Where("slug = ?", strings.ToLower(slug)).First(&p).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrPageNotFound
		}
		return nil, apperr.Internal("load page", err)
	}
	return &p, nil
}

func (s *PageService) Create(ctx context.Context, in PageInput) (*models.Page, error) {
	if in.Title == nil || strings.TrimSpace(*in.Title) == "" {
		return nil, ErrTitleRequired
	}
	p := models.Page{IsActive: true}
	apply(&p, in)

	if err := checkSlug(p.Title); err != nil {
		return nil, err
	}
	if err := s.ensureSlugFree(ctx, p.Title, uuid.Nil); err != nil {
		return nil, err
	}
	if err := s.DB.WithContext(ctx).Create(&p).Error; err != nil {
		if apperr.IsUniqueViolation(err) {
			return nil, ErrPageExists
		}
		return nil, apperr.Internal("create page", err)
	}
	s.Logger.Info("page created", zap.String("slug", p.Slug))
	return &p, nil
}

// Update edits a page; the slug follows the title.
func (s *PageService) Update(ctx context.Context, id uuid.UUID, in PageInput) (*models.Page, error) {
	if in.Title != nil && strings.TrimSpace(*in.Title) == "" {
		return nil, ErrTitleRequired
	}
	p, err := s.get(ctx, id)
	if err != nil {
		return nil, err
	}
	apply(p, in)

	if err := checkSlug(p.Title); err != nil {
		return nil, err
	}
	if err := s.ensureSlugFree(ctx, p.Title, p.ID); err != nil {
		return nil, err
	}
	if err := s.DB.WithContext(ctx).Save(p).Error; err != nil {
		if apperr.IsUniqueViolation(err) {
			return nil, ErrPageExists
		}
		return nil, apperr.Internal("update page", err)
	}
	return p, nil
}

func (s *PageService) Delete(ctx context.Context, id uuid.UUID) error {
	p, err := s.get(ctx, id)
	if err != nil {
		return err
	}
	if err := s.DB.WithContext(ctx).Delete(&models.Page{}, "id = ?", p.ID).Error; err != nil {
		return apperr.Internal("delete page", err)
	}
	s.Logger.Info("page deleted", zap.String("slug", p.Slug))
	return nil
}

func (s *PageService) get(ctx context.Context, id uuid.UUID) (*models.Page, error) {
	var p models.Page
	if err := s.DB.WithContext(ctx).First(&p, "id = ?", id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrPageNotFound
		}
		return nil, apperr.Internal("load page", err)
	}
	return &p, nil
}

// ensureSlugFree rejects a title whose slug belongs to another page. The
// unique index still catches races.
func (s *PageService) ensureSlugFree(ctx context.Context, title string, self uuid.UUID) error {
	var n int64
	q := s.DB.WithContext(ctx).Model(&models.Page{}).Where("slug = ?", models.Slugify(title))
	if self != uuid.Nil {
		q = q.Where("id <> ?", self)
	}
	if err := q.Count(&n).Error; err != nil {
		return apperr.Internal("check page slug", err)
	}
	if n > 0 {
		return ErrPageExists
	}
	return nil
}

// checkSlug rejects titles whose slug could never be served by GetBySlug.
func checkSlug(title string) error {
	slug := models.Slugify(title)
	if slug == "" {
		return ErrTitleRequired
	}
	if reservedSlugs[slug] {
		return ErrTitleReserved
	}
	return nil
}

func apply(p *models.Page, in PageInput) {
	if in.Title != nil {
		p.Title = strings.TrimSpace(*in.Title)
	}
	if in.Content != nil {
		p.Content = *in.Content
	}
	if in.Description != nil {
		p.Description = strings.TrimSpace(*in.Description)
	}
	if in.Order != nil {
		p.Order = *in.Order
	}
	if in.IsActive != nil {
		p.IsActive = *in.IsActive
	}
}
