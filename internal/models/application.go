package models

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

type ApplicationStatus string

const (
	ApplicationPending  ApplicationStatus = "pending"
	ApplicationReviewed ApplicationStatus = "reviewed"
	ApplicationAccepted ApplicationStatus = "accepted"
	ApplicationRejected ApplicationStatus = "rejected"
)

func (s ApplicationStatus) Valid() bool {
	switch s {
	case ApplicationPending, ApplicationReviewed, ApplicationAccepted, ApplicationRejected:
		return true
	}
	return false
}

// Application is one applicant's submission against one job. The
// (job_id, user_id) pair is unique at the storage layer.
type Application struct {
	ID     uuid.UUID `gorm:"type:uuid;primaryKey" json:"id"`
	JobID  uuid.UUID `gorm:"type:uuid;not null;uniqueIndex:idx_applications_job_user" json:"jobId"`
	UserID uuid.UUID `gorm:"type:uuid;not null;uniqueIndex:idx_applications_job_user;index" json:"userId"`

	Status      ApplicationStatus `gorm:"type:varchar(10);not null;default:pending;index" json:"status"`
	CoverLetter *string           `gorm:"size:2000" json:"coverLetter"`
	ResumeURL   *string           `json:"resumeUrl"`
	AppliedAt   time.Time         `gorm:"not null;index" json:"appliedAt"`
	ReviewedAt  *time.Time        `json:"reviewedAt"`
	Notes       *string           `gorm:"size:500" json:"notes"`

	CreatedAt time.Time `json:"createdAt"`
	UpdatedAt time.Time `json:"updatedAt"`

	Job  *JobMini  `gorm:"-" json:"job,omitempty"`
	User *UserMini `gorm:"-" json:"user,omitempty"`
}

func (a *Application) BeforeCreate(tx *gorm.DB) error {
	if a.ID == uuid.Nil {
		a.ID = uuid.New()
	}
	if a.Status == "" {
		a.Status = ApplicationPending
	}
	if a.AppliedAt.IsZero() {
		a.AppliedAt = time.Now()
	}
	return nil
}

func (a *Application) HasResume() bool {
	return a.ResumeURL != nil && *a.ResumeURL != ""
}

// JobMini is embedded in application responses.
type JobMini struct {
	ID        uuid.UUID `json:"id"`
	Title     string    `json:"title"`
	Company   string    `json:"company"`
	Location  string    `json:"location"`
	SalaryMin *int64    `json:"salaryMin,omitempty"`
	SalaryMax *int64    `json:"salaryMax,omitempty"`
}
