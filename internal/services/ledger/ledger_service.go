package ledger

import (
	"context"
	"errors"
	"fmt"
	"io"
	"path/filepath"
	"regexp"
	"strings"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"
	"gorm.io/gorm"

	"github.com/Windi-Fikriyansyah/jobshare_be/internal/apperr"
	"github.com/Windi-Fikriyansyah/jobshare_be/internal/models"
	"github.com/Windi-Fikriyansyah/jobshare_be/internal/storage"
)

// DefaultMaxResumeSize is the exclusive upper bound on résumé uploads.
const DefaultMaxResumeSize int64 = 5 << 20

const (
	defaultListLimit = 50
	maxListLimit     = 200
)

var allowedResumeExt = map[string]bool{"pdf": true, "doc": true, "docx": true}

var (
	ErrDuplicateApplication = apperr.Conflict("You have already applied for this job")
	ErrJobNotFound          = apperr.NotFound("Job not found")
	ErrApplicationNotFound  = apperr.NotFound("Application not found")
	ErrResumeNotFound       = apperr.NotFound("No CV file found for this application")
	ErrResumeType           = apperr.Validation("Only PDF, DOC, and DOCX files are allowed")
	ErrResumeTooLarge       = apperr.Validation("CV file must be less than 5MB")
	ErrInvalidStatus        = apperr.Validation("Invalid status")
	ErrNotOwner             = apperr.Forbidden("Not authorized to access this application")
)

// Notifier receives the ledger's side effects. Implementations must not
// fail the caller: delivery problems are theirs to log.
type Notifier interface {
	ApplicationReceived(ctx context.Context, applicant *models.User, job *models.Job, app *models.Application)
	EmployerNotified(ctx context.Context, owner, applicant *models.User, job *models.Job, app *models.Application)
	StatusChanged(ctx context.Context, applicant *models.User, job *models.Job, app *models.Application)
}

type nopNotifier struct{}

func (nopNotifier) ApplicationReceived(context.Context, *models.User, *models.Job, *models.Application) {}
func (nopNotifier) EmployerNotified(context.Context, *models.User, *models.User, *models.Job, *models.Application) {
}
func (nopNotifier) StatusChanged(context.Context, *models.User, *models.Job, *models.Application) {}

// Upload describes a résumé file received with an application.
type Upload struct {
	Filename string
	Size     int64
	Open     func() (io.ReadCloser, error)
}

type ApplyInput struct {
	JobID       uuid.UUID
	Applicant   *models.User
	CoverLetter string
	Resume      *Upload
}

type ListFilter struct {
	JobID  uuid.UUID
	Status models.ApplicationStatus
	Page   int
	Limit  int
}

type StatusUpdate struct {
	Status models.ApplicationStatus `json:"status"`
	Notes  *string                  `json:"notes"`
}

type LedgerService struct {
	DB            *gorm.DB
	Store         storage.ResumeStore
	Notifier      Notifier
	Logger        *zap.Logger
	MaxResumeSize int64

	now func() time.Time
}

func NewLedgerService(db *gorm.DB, store storage.ResumeStore, notifier Notifier, logger *zap.Logger, maxResumeSize int64) *LedgerService {
	if maxResumeSize <= 0 {
		maxResumeSize = DefaultMaxResumeSize
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	if notifier == nil {
		notifier = nopNotifier{}
	}
	return &LedgerService{
		DB:            db,
		Store:         store,
		Notifier:      notifier,
		Logger:        logger,
		MaxResumeSize: maxResumeSize,
		now:           time.Now,
	}
}

// Apply records a new application. Every input check, résumé included,
// runs before anything is written.
func (s *LedgerService) Apply(ctx context.Context, in ApplyInput) (*models.Application, error) {
	if in.Applicant == nil {
		return nil, apperr.Unauthorized("Not authorized")
	}
	if in.JobID == uuid.Nil {
		return nil, apperr.Validation("Job ID is required")
	}

	var job models.Job
	if err := s.DB.WithContext(ctx).First(&job, "id = ?", in.JobID).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrJobNotFound
		}
		return nil, apperr.Internal("load job", err)
	}

	var existing int64
	if err := s.DB.WithContext(ctx).Model(&models.Application{}).
		Where("job_id = ? AND user_id = ?", job.ID, in.Applicant.ID).
		Count(&existing).Error; err != nil {
		return nil, apperr.Internal("check existing application", err)
	}
	if existing > 0 {
		return nil, ErrDuplicateApplication
	}

	coverLetter, err := normalizeCoverLetter(in.CoverLetter)
	if err != nil {
		return nil, err
	}
	if in.Resume != nil {
		if err := s.checkResume(in.Resume); err != nil {
			return nil, err
		}
	}

	now := s.now()
	var resumeName *string
	if in.Resume != nil {
		name, err := s.saveResume(ctx, in.Applicant.ID, in.Resume, now)
		if err != nil {
			return nil, err
		}
		resumeName = &name
	}

	app := models.Application{
		JobID:       job.ID,
		UserID:      in.Applicant.ID,
		Status:      models.ApplicationPending,
		CoverLetter: coverLetter,
		ResumeURL:   resumeName,
		AppliedAt:   now,
	}
	if err := s.DB.WithContext(ctx).Create(&app).Error; err != nil {
		if resumeName != nil {
			s.removeResume(ctx, *resumeName)
		}
		if apperr.IsUniqueViolation(err) {
			return nil, ErrDuplicateApplication
		}
		return nil, apperr.Internal("create application", err)
	}

	s.Logger.Info("application created",
		zap.String("application_id", app.ID.String()),
		zap.String("job_id", job.ID.String()),
		zap.String("user_id", in.Applicant.ID.String()),
		zap.Bool("resume", resumeName != nil),
	)

	owner, err := s.loadUser(ctx, job.PostedByID)
	if err != nil {
		s.Logger.Warn("job owner lookup failed, employer not notified",
			zap.String("job_id", job.ID.String()),
			zap.String("owner_id", job.PostedByID.String()),
			zap.Error(err),
		)
	}
	s.Notifier.ApplicationReceived(ctx, in.Applicant, &job, &app)
	s.Notifier.EmployerNotified(ctx, owner, in.Applicant, &job, &app)

	app.Job = toJobMini(&job)
	return &app, nil
}

// List returns applications visible to viewer: all of them for an admin,
// only the viewer's own otherwise.
func (s *LedgerService) List(ctx context.Context, viewer *models.User, f ListFilter) ([]models.Application, models.Pagination, error) {
	if viewer == nil {
		return nil, models.Pagination{}, apperr.Unauthorized("Not authorized")
	}
	if f.Status != "" && !f.Status.Valid() {
		return nil, models.Pagination{}, ErrInvalidStatus
	}
	page, limit := models.PageRequest(f.Page, f.Limit, defaultListLimit, maxListLimit)

	q := s.DB.WithContext(ctx).Model(&models.Application{})
	if !viewer.IsAdmin() {
		q = q.Where("user_id = ?", viewer.ID)
	}
	if f.JobID != uuid.Nil {
		q = q.Where("job_id = ?", f.JobID)
	}
	if f.Status != "" {
		q = q.Where("status = ?", f.Status)
	}

	var total int64
	if err := q.Session(&gorm.Session{}).Count(&total).Error; err != nil {
		return nil, models.Pagination{}, apperr.Internal("count applications", err)
	}

	var apps []models.Application
	if err := q.Order("applied_at DESC").
		Limit(limit).
		Offset(models.Offset(page, limit)).
		Find(&apps).Error; err != nil {
		return nil, models.Pagination{}, apperr.Internal("list applications", err)
	}
	if err := s.populate(ctx, apps, viewer.IsAdmin()); err != nil {
		return nil, models.Pagination{}, err
	}
	return apps, models.NewPagination(page, limit, total), nil
}

// ListForJob returns every application for one job, newest first.
func (s *LedgerService) ListForJob(ctx context.Context, jobID uuid.UUID) ([]models.Application, error) {
	var apps []models.Application
	if err := s.DB.WithContext(ctx).
		Where("job_id = ?", jobID).
		Order("applied_at DESC").
		Find(&apps).Error; err != nil {
		return nil, apperr.Internal("list applications for job", err)
	}
	if err := s.populate(ctx, apps, true); err != nil {
		return nil, err
	}
	return apps, nil
}

// ForUser returns the user's own applications with their jobs attached.
func (s *LedgerService) ForUser(ctx context.Context, userID uuid.UUID) ([]models.Application, error) {
	var apps []models.Application
	if err := s.DB.WithContext(ctx).
		Where("user_id = ?", userID).
		Order("applied_at DESC").
		Find(&apps).Error; err != nil {
		return nil, apperr.Internal("list user applications", err)
	}
	if err := s.populate(ctx, apps, false); err != nil {
		return nil, err
	}
	return apps, nil
}

// UpdateStatus sets any of the four statuses regardless of the current one.
// reviewedAt is stamped on every call; the applicant is only notified when
// the status actually changes.
func (s *LedgerService) UpdateStatus(ctx context.Context, id uuid.UUID, in StatusUpdate) (*models.Application, error) {
	if !in.Status.Valid() {
		return nil, ErrInvalidStatus
	}
	var notes *string
	if in.Notes != nil {
		n := strings.TrimSpace(*in.Notes)
		if len(n) > 500 {
			fields := apperr.FieldErrors{}
			fields.Add("notes", "notes must be at most 500 characters")
			return nil, apperr.Invalid(fields)
		}
		if n != "" {
			notes = &n
		}
	}

	app, err := s.get(ctx, id)
	if err != nil {
		return nil, err
	}

	oldStatus := app.Status
	reviewedAt := s.now()
	updates := map[string]any{
		"status":      in.Status,
		"reviewed_at": reviewedAt,
	}
	if notes != nil {
		updates["notes"] = *notes
	}
	if err := s.DB.WithContext(ctx).Model(app).Updates(updates).Error; err != nil {
		return nil, apperr.Internal("update application", err)
	}
	app.Status = in.Status
	app.ReviewedAt = &reviewedAt
	if notes != nil {
		app.Notes = notes
	}

	var job models.Job
	jobErr := s.DB.WithContext(ctx).First(&job, "id = ?", app.JobID).Error
	applicant, userErr := s.loadUser(ctx, app.UserID)

	if oldStatus != in.Status && jobErr == nil && userErr == nil {
		s.Notifier.StatusChanged(ctx, applicant, &job, app)
	}

	if jobErr == nil {
		app.Job = toJobMini(&job)
	}
	if userErr == nil {
		app.User = toUserMini(applicant)
	}
	return app, nil
}

// OpenResume returns the stored résumé and its file name. A missing
// reference and a missing file are the same NotFound outcome.
func (s *LedgerService) OpenResume(ctx context.Context, viewer *models.User, id uuid.UUID) (io.ReadCloser, string, error) {
	app, err := s.get(ctx, id)
	if err != nil {
		return nil, "", err
	}
	if !canAccess(viewer, app) {
		return nil, "", ErrNotOwner
	}
	if !app.HasResume() {
		return nil, "", ErrResumeNotFound
	}
	rc, err := s.Store.Open(ctx, *app.ResumeURL)
	if errors.Is(err, storage.ErrNotFound) {
		return nil, "", ErrResumeNotFound
	}
	if err != nil {
		return nil, "", apperr.Internal("open resume", err)
	}
	return rc, *app.ResumeURL, nil
}

// Delete removes an application and, best-effort, its résumé file.
func (s *LedgerService) Delete(ctx context.Context, viewer *models.User, id uuid.UUID) error {
	app, err := s.get(ctx, id)
	if err != nil {
		return err
	}
	if !canAccess(viewer, app) {
		return ErrNotOwner
	}
	if app.HasResume() {
		s.removeResume(ctx, *app.ResumeURL)
	}
	if err := s.DB.WithContext(ctx).Delete(&models.Application{}, "id = ?", app.ID).Error; err != nil {
		return apperr.Internal("delete application", err)
	}
	s.Logger.Info("application deleted",
		zap.String("application_id", app.ID.String()),
		zap.String("by", viewer.ID.String()),
	)
	return nil
}

func (s *LedgerService) get(ctx context.Context, id uuid.UUID) (*models.Application, error) {
	var app models.Application
	if err := s.DB.WithContext(ctx).First(&app, "id = ?", id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrApplicationNotFound
		}
		return nil, apperr.Internal("load application", err)
	}
	return &app, nil
}

func (s *LedgerService) loadUser(ctx context.Context, id uuid.UUID) (*models.User, error) {
	var u models.User
	if err := s.DB.WithContext(ctx).First(&u, "id = ?", id).Error; err != nil {
		return nil, err
	}
	return &u, nil
}

func canAccess(viewer *models.User, app *models.Application) bool {
	return viewer != nil && (viewer.IsAdmin() || viewer.ID == app.UserID)
}

func (s *LedgerService) checkResume(u *Upload) error {
	ext := strings.ToLower(strings.TrimPrefix(filepath.Ext(u.Filename), "."))
	if !allowedResumeExt[ext] {
		return ErrResumeType
	}
	if u.Size >= s.MaxResumeSize {
		return ErrResumeTooLarge
	}
	return nil
}

var unsafeFileChars = regexp.MustCompile(`[^A-Za-z0-9._-]+`)

func resumeFileName(userID uuid.UUID, original string, at time.Time) string {
	base := unsafeFileChars.ReplaceAllString(filepath.Base(original), "_")
	return fmt.Sprintf("cv_%s_%d_%s", userID, at.UnixMilli(), base)
}

func (s *LedgerService) saveResume(ctx context.Context, userID uuid.UUID, u *Upload, at time.Time) (string, error) {
	rc, err := u.Open()
	if err != nil {
		return "", apperr.Internal("read uploaded file", err)
	}
	defer rc.Close()

	name := resumeFileName(userID, u.Filename, at)
	if err := s.Store.Save(ctx, name, rc); err != nil {
		return "", apperr.Internal("store resume", err)
	}
	return name, nil
}

func (s *LedgerService) removeResume(ctx context.Context, name string) {
	err := s.Store.Remove(ctx, name)
	if err != nil && !errors.Is(err, storage.ErrNotFound) {
		s.Logger.Warn("resume delete failed", zap.String("file", name), zap.Error(err))
	}
}

func normalizeCoverLetter(raw string) (*string, error) {
	cl := strings.TrimSpace(raw)
	if cl == "" {
		return nil, nil
	}
	if n := len([]rune(cl)); n < 10 || n > 2000 {
		fields := apperr.FieldErrors{}
		fields.Add("coverLetter", "coverLetter must be between 10 and 2000 characters")
		return nil, apperr.Invalid(fields)
	}
	return &cl, nil
}

// populate attaches job summaries, and applicant summaries when withUser.
func (s *LedgerService) populate(ctx context.Context, apps []models.Application, withUser bool) error {
	if len(apps) == 0 {
		return nil
	}
	jobIDs := make([]uuid.UUID, 0, len(apps))
	userIDs := make([]uuid.UUID, 0, len(apps))
	for _, a := range apps {
		jobIDs = append(jobIDs, a.JobID)
		userIDs = append(userIDs, a.UserID)
	}

	var jobs []models.Job
	if err := s.DB.WithContext(ctx).Where("id IN ?", jobIDs).Find(&jobs).Error; err != nil {
		return apperr.Internal("load jobs", err)
	}
	jobByID := make(map[uuid.UUID]*models.Job, len(jobs))
	for i := range jobs {
		jobByID[jobs[i].ID] = &jobs[i]
	}

	userByID := map[uuid.UUID]*models.User{}
	if withUser {
		var users []models.User
		if err := s.DB.WithContext(ctx).Where("id IN ?", userIDs).Find(&users).Error; err != nil {
			return apperr.Internal("load users", err)
		}
		for i := range users {
			userByID[users[i].ID] = &users[i]
		}
	}

	for i := range apps {
		if j, ok := jobByID[apps[i].JobID]; ok {
			apps[i].Job = toJobMini(j)
		}
		if u, ok := userByID[apps[i].UserID]; ok {
			apps[i].User = toUserMini(u)
		}
	}
	return nil
}

func toJobMini(j *models.Job) *models.JobMini {
	return &models.JobMini{
		ID:        j.ID,
		Title:     j.Title,
		Company:   j.Company,
		Location:  j.Location,
		SalaryMin: j.SalaryMin,
		SalaryMax: j.SalaryMax,
	}
}

func toUserMini(u *models.User) *models.UserMini {
	return &models.UserMini{ID: u.ID, Name: u.Name, Email: u.Email}
}
