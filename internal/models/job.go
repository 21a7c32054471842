package models

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/datatypes"
	"gorm.io/gorm"
)

type JobStatus string

const (
	JobStatusActive JobStatus = "active"
	JobStatusClosed JobStatus = "closed"
	JobStatusDraft  JobStatus = "draft"
)

var (
	JobTypes         = []string{"Full-time", "Part-time", "Contract", "Remote", "Internship", "Learnerships"}
	JobCategories    = []string{"Technology", "Marketing", "Sales", "Design", "Finance", "Healthcare", "Education", "Engineering", "Other"}
	ExperienceLevels = []string{"Entry", "Mid", "Senior", "Lead"}
)

// DefaultJobLifetime is how long a posting stays open when no expiry is given.
const DefaultJobLifetime = 30 * 24 * time.Hour

// EmbeddedApplication is the legacy per-job application entry kept on the
// job document itself. New applications go through the Application table.
type EmbeddedApplication struct {
	User        uuid.UUID         `json:"user"`
	AppliedAt   time.Time         `json:"appliedAt"`
	CoverLetter string            `json:"coverLetter,omitempty"`
	Resume      string            `json:"resume,omitempty"`
	Status      ApplicationStatus `json:"status"`
}

type Job struct {
	ID          uuid.UUID `gorm:"type:uuid;primaryKey" json:"id"`
	Title       string    `gorm:"not null;index" json:"title" validate:"required,min=3,max=100"`
	Company     string    `gorm:"not null" json:"company" validate:"required,max=100"`
	Description string    `gorm:"type:text;not null" json:"description" validate:"required,min=50,max=5000"`
	Location    string    `gorm:"not null;index:idx_jobs_filters" json:"location" validate:"required"`
	JobType     string    `gorm:"type:varchar(20);not null;index:idx_jobs_filters" json:"jobType" validate:"required,oneof=Full-time Part-time Contract Remote Internship Learnerships"`
	Category    string    `gorm:"type:varchar(20);not null;index:idx_jobs_filters" json:"category" validate:"required,oneof=Technology Marketing Sales Design Finance Healthcare Education Engineering Other"`

	SalaryMin *int64 `json:"salaryMin,omitempty" validate:"omitempty,gte=0"`
	SalaryMax *int64 `json:"salaryMax,omitempty" validate:"omitempty,gte=0"`

	Requirements    datatypes.JSONSlice[string] `json:"requirements"`
	Benefits        datatypes.JSONSlice[string] `json:"benefits"`
	Skills          datatypes.JSONSlice[string] `json:"skills"`
	ExperienceLevel string                      `gorm:"type:varchar(10);default:Mid" json:"experienceLevel" validate:"omitempty,oneof=Entry Mid Senior Lead"`

	PostedByID uuid.UUID `gorm:"type:uuid;not null;index" json:"postedById"`
	PostedBy   *UserMini `gorm:"-" json:"postedBy,omitempty"`

	ContactEmail   string    `gorm:"not null" json:"contactEmail" validate:"required,email"`
	ApplicationURL *string   `json:"applicationUrl"`
	Status         JobStatus `gorm:"type:varchar(10);not null;default:active;index" json:"status" validate:"omitempty,oneof=active closed draft"`
	Views          int64     `gorm:"not null;default:0" json:"views"`

	Applications datatypes.JSONSlice[EmbeddedApplication] `gorm:"column:applications" json:"applications"`

	ExpiresAt time.Time `json:"expiresAt"`
	CreatedAt time.Time `gorm:"index" json:"createdAt"`
	UpdatedAt time.Time `json:"updatedAt"`
}

func (j *Job) BeforeCreate(tx *gorm.DB) error {
	if j.ID == uuid.Nil {
		j.ID = uuid.New()
	}
	if j.Status == "" {
		j.Status = JobStatusActive
	}
	if j.ExperienceLevel == "" {
		j.ExperienceLevel = "Mid"
	}
	if j.ExpiresAt.IsZero() {
		j.ExpiresAt = time.Now().Add(DefaultJobLifetime)
	}
	return nil
}

// HasEmbeddedApplicant reports whether userID already appears in the legacy
// applications list.
func (j *Job) HasEmbeddedApplicant(userID uuid.UUID) bool {
	for _, a := range j.Applications {
		if a.User == userID {
			return true
		}
	}
	return false
}
