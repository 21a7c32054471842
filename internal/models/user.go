package models

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/datatypes"
	"gorm.io/gorm"
)

type Role string

const (
	RoleJobSeeker Role = "jobseeker"
	RoleEmployer  Role = "employer"
	RoleAdmin     Role = "admin"
)

func (r Role) Valid() bool {
	switch r {
	case RoleJobSeeker, RoleEmployer, RoleAdmin:
		return true
	}
	return false
}

// Capability is a permission checked at the authorization boundary.
type Capability string

const (
	CapManageJobs         Capability = "jobs:manage"
	CapReviewApplications Capability = "applications:review"
	CapManagePages        Capability = "pages:manage"
	CapListUsers          Capability = "users:list"
)

var roleCapabilities = map[Role]map[Capability]bool{
	RoleAdmin: {
		CapManageJobs:         true,
		CapReviewApplications: true,
		CapManagePages:        true,
		CapListUsers:          true,
	},
	RoleEmployer:  {},
	RoleJobSeeker: {},
}

func (r Role) Can(c Capability) bool {
	return roleCapabilities[r][c]
}

type User struct {
	ID       uuid.UUID `gorm:"type:uuid;primaryKey" json:"id"`
	Name     string    `gorm:"not null" json:"name"`
	Email    string    `gorm:"uniqueIndex;not null" json:"email"`
	Password string    `gorm:"not null" json:"-"`
	Role     Role      `gorm:"type:varchar(20);not null;index;default:jobseeker" json:"role"`

	Company  *string                     `json:"company"`
	Phone    string                      `json:"phone"`
	Location string                      `json:"location"`
	Bio      string                      `gorm:"size:500" json:"bio"`
	Skills   datatypes.JSONSlice[string] `json:"skills"`

	SavedJobs []Job `gorm:"many2many:user_saved_jobs;" json:"savedJobs,omitempty"`

	CreatedAt time.Time `json:"createdAt"`
	UpdatedAt time.Time `json:"updatedAt"`
}

func (u *User) BeforeCreate(tx *gorm.DB) error {
	if u.ID == uuid.Nil {
		u.ID = uuid.New()
	}
	if u.Role == "" {
		u.Role = RoleJobSeeker
	}
	return nil
}

func (u *User) IsAdmin() bool {
	return u != nil && u.Role == RoleAdmin
}

// PublicProfile is the shape returned by auth endpoints.
func (u *User) PublicProfile() map[string]any {
	return map[string]any{
		"id":       u.ID,
		"name":     u.Name,
		"email":    u.Email,
		"role":     u.Role,
		"company":  u.Company,
		"phone":    u.Phone,
		"location": u.Location,
		"bio":      u.Bio,
		"skills":   u.Skills,
	}
}

// UserMini is embedded in job and application responses.
type UserMini struct {
	ID      uuid.UUID `json:"id"`
	Name    string    `json:"name"`
	Email   string    `json:"email,omitempty"`
	Company *string   `json:"company,omitempty"`
}
