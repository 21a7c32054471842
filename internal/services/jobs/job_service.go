package jobs

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"strings"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/Windi-Fikriyansyah/jobshare_be/internal/apperr"
	"github.com/Windi-Fikriyansyah/jobshare_be/internal/models"
	"github.com/Windi-Fikriyansyah/jobshare_be/internal/validation"
)

const (
	defaultListLimit = 10
	maxListLimit     = 100
)

var (
	ErrJobNotFound    = apperr.NotFound("Job not found")
	ErrAlreadyApplied = apperr.Conflict("You have already applied to this job")
	ErrAlreadySaved   = apperr.Conflict("Job already saved")
)

// sortColumns maps accepted sortBy values to columns.
var sortColumns = map[string]string{
	"createdAt": "created_at",
	"title":     "title",
	"salaryMin": "salary_min",
	"salaryMax": "salary_max",
	"views":     "views",
	"expiresAt": "expires_at",
	"company":   "company",
}

// immutableFields survive every update untouched.
var immutableFields = []string{"id", "postedBy", "postedById", "createdAt", "updatedAt"}

type ListQuery struct {
	Search          string
	Location        string
	JobType         string
	Category        string
	ExperienceLevel string
	Page            int
	Limit           int
	SortBy          string
	Order           string
}

type JobService struct {
	DB     *gorm.DB
	Logger *zap.Logger
}

func NewJobService(db *gorm.DB, logger *zap.Logger) *JobService {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &JobService{DB: db, Logger: logger}
}

// List returns active jobs matching q.
func (s *JobService) List(ctx context.Context, q ListQuery) ([]models.Job, models.Pagination, error) {
	page, limit := models.PageRequest(q.Page, q.Limit, defaultListLimit, maxListLimit)

	tx := s.DB.WithContext(ctx).Model(&models.Job{}).Where("status = ?", models.JobStatusActive)
	if term := strings.ToLower(strings.TrimSpace(q.Search)); term != "" {
		like := "%" + term + "%"
		tx = tx.Where("LOWER(title) LIKE ? OR LOWER(description) LIKE ? OR LOWER(company) LIKE ?", like, like, like)
	}
	if loc := strings.ToLower(strings.TrimSpace(q.Location)); loc != "" {
		tx = tx.Where("LOWER(location) LIKE ?", "%"+loc+"%")
	}
	if q.JobType != "" {
		tx = tx.Where("job_type = ?", q.JobType)
	}
	if q.Category != "" {
		tx = tx.Where("category = ?", q.Category)
	}
	if q.ExperienceLevel != "" {
		tx = tx.Where("experience_level = ?", q.ExperienceLevel)
	}

	var total int64
	if err := tx.Session(&gorm.Session{}).Count(&total).Error; err != nil {
		return nil, models.Pagination{}, apperr.Internal("count jobs", err)
	}

	col, ok := sortColumns[q.SortBy]
	if !ok {
		col = "created_at"
	}
	desc := !strings.EqualFold(q.Order, "asc")

	var jobs []models.Job
	err := tx.
		Order(clause.OrderByColumn{Column: clause.Column{Name: col}, Desc: desc}).
		Order(clause.OrderByColumn{Column: clause.Column{Name: "id"}}).
		Limit(limit).
		Offset(models.Offset(page, limit)).
		Find(&jobs).Error
	if err != nil {
		return nil, models.Pagination{}, apperr.Internal("list jobs", err)
	}
	if err := s.attachPosters(ctx, jobs, false); err != nil {
		return nil, models.Pagination{}, err
	}
	return jobs, models.NewPagination(page, limit, total), nil
}

// Get returns a job and counts the view. The counter is bumped in a single
// UPDATE so concurrent fetches are never lost.
func (s *JobService) Get(ctx context.Context, id uuid.UUID) (*models.Job, error) {
	res := s.DB.WithContext(ctx).Model(&models.Job{}).
		Where("id = ?", id).
		UpdateColumn("views", gorm.Expr("views + ?", 1))
	if res.Error != nil {
		return nil, apperr.Internal("count job view", res.Error)
	}
	if res.RowsAffected == 0 {
		return nil, ErrJobNotFound
	}

	job, err := s.find(ctx, id)
	if err != nil {
		return nil, err
	}
	jobs := []models.Job{*job}
	if err := s.attachPosters(ctx, jobs, true); err != nil {
		return nil, err
	}
	return &jobs[0], nil
}

// Create stores a new posting owned by owner. Server-managed fields in in
// are reset.
func (s *JobService) Create(ctx context.Context, owner *models.User, in models.Job) (*models.Job, error) {
	in.ID = uuid.Nil
	in.PostedByID = owner.ID
	in.PostedBy = nil
	in.Views = 0
	in.Applications = nil
	in.CreatedAt, in.UpdatedAt = time.Time{}, time.Time{}
	trimJob(&in)

	if err := validation.Struct(in); err != nil {
		return nil, err
	}
	if err := s.DB.WithContext(ctx).Create(&in).Error; err != nil {
		return nil, apperr.Internal("create job", err)
	}
	in.PostedBy = &models.UserMini{ID: owner.ID, Name: owner.Name, Email: owner.Email, Company: owner.Company}

	s.Logger.Info("job created", zap.String("job_id", in.ID.String()), zap.String("by", owner.ID.String()))
	return &in, nil
}

// Update merges patch, a JSON object, over the stored job. Any field may be
// changed except the identity, owner and creation time.
func (s *JobService) Update(ctx context.Context, actor *models.User, id uuid.UUID, patch []byte) (*models.Job, error) {
	var changes map[string]any
	dec := json.NewDecoder(bytes.NewReader(patch))
	dec.UseNumber()
	if err := dec.Decode(&changes); err != nil || changes == nil {
		return nil, apperr.Validation("Invalid request body")
	}

	job, err := s.find(ctx, id)
	if err != nil {
		return nil, err
	}
	if !canManage(actor, job) {
		return nil, apperr.Forbidden("Not authorized to update this job")
	}

	doc, err := toDocument(job)
	if err != nil {
		return nil, apperr.Internal("encode job", err)
	}
	for _, k := range immutableFields {
		delete(changes, k)
	}
	for k, v := range changes {
		doc[k] = v
	}
	if err := validateDocument(doc); err != nil {
		return nil, err
	}

	merged, err := json.Marshal(doc)
	if err != nil {
		return nil, apperr.Internal("encode job", err)
	}
	var updated models.Job
	if err := json.Unmarshal(merged, &updated); err != nil {
		return nil, apperr.Validation("Invalid request body")
	}
	updated.ID = job.ID
	updated.PostedByID = job.PostedByID
	updated.PostedBy = nil
	updated.CreatedAt = job.CreatedAt
	trimJob(&updated)

	if err := validation.Struct(updated); err != nil {
		return nil, err
	}
	if err := s.DB.WithContext(ctx).Save(&updated).Error; err != nil {
		return nil, apperr.Internal("update job", err)
	}

	jobs := []models.Job{updated}
	if err := s.attachPosters(ctx, jobs, false); err != nil {
		return nil, err
	}
	return &jobs[0], nil
}

// Delete removes a job and its bookmarks. Applications are left in place.
func (s *JobService) Delete(ctx context.Context, actor *models.User, id uuid.UUID) error {
	job, err := s.find(ctx, id)
	if err != nil {
		return err
	}
	if !canManage(actor, job) {
		return apperr.Forbidden("Not authorized to delete this job")
	}

	err = s.DB.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Exec("DELETE FROM user_saved_jobs WHERE job_id = ?", job.ID).Error; err != nil {
			return err
		}
		return tx.Delete(&models.Job{}, "id = ?", job.ID).Error
	})
	if err != nil {
		return apperr.Internal("delete job", err)
	}
	s.Logger.Info("job deleted", zap.String("job_id", job.ID.String()), zap.String("by", actor.ID.String()))
	return nil
}

// LegacyApply appends to the job's embedded applications list.
func (s *JobService) LegacyApply(ctx context.Context, applicant *models.User, id uuid.UUID, coverLetter, resume string) (*models.Job, error) {
	job, err := s.find(ctx, id)
	if err != nil {
		return nil, err
	}
	if job.HasEmbeddedApplicant(applicant.ID) {
		return nil, ErrAlreadyApplied
	}

	job.Applications = append(job.Applications, models.EmbeddedApplication{
		User:        applicant.ID,
		AppliedAt:   time.Now().UTC(),
		CoverLetter: strings.TrimSpace(coverLetter),
		Resume:      strings.TrimSpace(resume),
		Status:      models.ApplicationPending,
	})
	if err := s.DB.WithContext(ctx).Model(job).Update("applications", job.Applications).Error; err != nil {
		return nil, apperr.Internal("apply to job", err)
	}
	return job, nil
}

// Save bookmarks a job for user.
func (s *JobService) Save(ctx context.Context, user *models.User, id uuid.UUID) error {
	if _, err := s.find(ctx, id); err != nil {
		return err
	}

	var n int64
	if err := s.DB.WithContext(ctx).Table("user_saved_jobs").
		Where("user_id = ? AND job_id = ?", user.ID, id).
		Count(&n).Error; err != nil {
		return apperr.Internal("check saved job", err)
	}
	if n > 0 {
		return ErrAlreadySaved
	}

	err := s.DB.WithContext(ctx).Exec("INSERT INTO user_saved_jobs (user_id, job_id) VALUES (?, ?)", user.ID, id).Error
	if apperr.IsUniqueViolation(err) {
		return ErrAlreadySaved
	}
	if err != nil {
		return apperr.Internal("save job", err)
	}
	return nil
}

// Saved returns the jobs bookmarked by userID.
func (s *JobService) Saved(ctx context.Context, userID uuid.UUID) ([]models.Job, error) {
	var jobs []models.Job
	err := s.DB.WithContext(ctx).
		Joins("JOIN user_saved_jobs ON user_saved_jobs.job_id = jobs.id").
		Where("user_saved_jobs.user_id = ?", userID).
		Order("jobs.created_at DESC").
		Find(&jobs).Error
	if err != nil {
		return nil, apperr.Internal("list saved jobs", err)
	}
	if err := s.attachPosters(ctx, jobs, false); err != nil {
		return nil, err
	}
	return jobs, nil
}

// MyPosted lists every job owned by user, whatever its status.
func (s *JobService) MyPosted(ctx context.Context, user *models.User) ([]models.Job, error) {
	var jobs []models.Job
	if err := s.DB.WithContext(ctx).
		Where("posted_by_id = ?", user.ID).
		Order("created_at DESC").
		Find(&jobs).Error; err != nil {
		return nil, apperr.Internal("list posted jobs", err)
	}
	return jobs, nil
}

func (s *JobService) find(ctx context.Context, id uuid.UUID) (*models.Job, error) {
	var job models.Job
	if err := s.DB.WithContext(ctx).First(&job, "id = ?", id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrJobNotFound
		}
		return nil, apperr.Internal("load job", err)
	}
	return &job, nil
}

func (s *JobService) attachPosters(ctx context.Context, jobs []models.Job, withEmail bool) error {
	if len(jobs) == 0 {
		return nil
	}
	ids := make([]uuid.UUID, 0, len(jobs))
	for _, j := range jobs {
		ids = append(ids, j.PostedByID)
	}
	var users []models.User
	if err := s.DB.WithContext(ctx).Select("id", "name", "email", "company").
		Where("id IN ?", ids).Find(&users).Error; err != nil {
		return apperr.Internal("load job owners", err)
	}
	byID := make(map[uuid.UUID]models.User, len(users))
	for _, u := range users {
		byID[u.ID] = u
	}
	for i := range jobs {
		u, ok := byID[jobs[i].PostedByID]
		if !ok {
			continue
		}
		mini := &models.UserMini{ID: u.ID, Name: u.Name, Company: u.Company}
		if withEmail {
			mini.Email = u.Email
		}
		jobs[i].PostedBy = mini
	}
	return nil
}

// Categories lists the distinct categories of active jobs, alphabetically.
func (s *JobService) Categories(ctx context.Context) ([]string, error) {
	var categories []string
	err := s.DB.WithContext(ctx).
		Model(&models.Job{}).
		Where("status = ?", models.JobStatusActive).
		Distinct("category").
		Order("category ASC").
		Pluck("category", &categories).
		Error
	if err != nil {
		return nil, apperr.Internal("list categories", err)
	}
	return categories, nil
}

func canManage(actor *models.User, job *models.Job) bool {
	return actor != nil && (actor.IsAdmin() || actor.ID == job.PostedByID)
}

func toDocument(job *models.Job) (map[string]any, error) {
	b, err := json.Marshal(job)
	if err != nil {
		return nil, err
	}
	var doc map[string]any
	dec := json.NewDecoder(bytes.NewReader(b))
	dec.UseNumber()
	if err := dec.Decode(&doc); err != nil {
		return nil, err
	}
	return doc, nil
}

func trimJob(j *models.Job) {
	j.Title = strings.TrimSpace(j.Title)
	j.Company = strings.TrimSpace(j.Company)
	j.Description = strings.TrimSpace(j.Description)
	j.Location = strings.TrimSpace(j.Location)
	j.ContactEmail = strings.ToLower(strings.TrimSpace(j.ContactEmail))
}
