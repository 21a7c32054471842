package accounts

import (
	"context"
	"errors"
	"strings"

	"github.com/google/uuid"
	"go.uber.org/zap"
	"gorm.io/datatypes"
	"gorm.io/gorm"

	"github.com/Windi-Fikriyansyah/jobshare_be/internal/apperr"
	"github.com/Windi-Fikriyansyah/jobshare_be/internal/models"
	"github.com/Windi-Fikriyansyah/jobshare_be/internal/utils"
	"github.com/Windi-Fikriyansyah/jobshare_be/internal/validation"
)

const (
	defaultUserLimit = 10
	maxUserLimit     = 100
)

var (
	ErrEmailTaken         = apperr.Conflict("User with this email already exists")
	ErrInvalidCredentials = apperr.Unauthorized("Invalid email or password")
	ErrUserNotFound       = apperr.NotFound("User not found")
	ErrInvalidToken       = apperr.Unauthorized("Not authorized, token failed")
)

type RegisterInput struct {
	Name     string      `json:"name" validate:"required,min=2"`
	Email    string      `json:"email" validate:"required,email"`
	Password string      `json:"password" validate:"required,min=6"`
	Role     models.Role `json:"role" validate:"omitempty,oneof=jobseeker employer"`
	Company  *string     `json:"company"`
}

type LoginInput struct {
	Email    string `json:"email" validate:"required,email"`
	Password string `json:"password" validate:"required"`
}

// ProfileUpdate changes only the fields that are present.
type ProfileUpdate struct {
	Name     *string   `json:"name" validate:"omitempty,min=2"`
	Phone    *string   `json:"phone"`
	Location *string   `json:"location"`
	Bio      *string   `json:"bio" validate:"omitempty,max=500"`
	Skills   *[]string `json:"skills"`
	Company  *string   `json:"company"`
}

type AccountService struct {
	DB         *gorm.DB
	JWTSecret  string
	ExpiresMin int
	Logger     *zap.Logger
}

func NewAccountService(db *gorm.DB, jwtSecret string, expiresMin int, logger *zap.Logger) *AccountService {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &AccountService{DB: db, JWTSecret: jwtSecret, ExpiresMin: expiresMin, Logger: logger}
}

// Register creates an account and returns it with a fresh token. Admins are
// never created here.
func (s *AccountService) Register(ctx context.Context, in RegisterInput) (*models.User, string, error) {
	in.Name = strings.TrimSpace(in.Name)
	in.Email = strings.ToLower(strings.TrimSpace(in.Email))
	if err := validation.Struct(in); err != nil {
		return nil, "", err
	}
	if in.Role == "" {
		in.Role = models.RoleJobSeeker
	}

	var existing int64
	if err := s.DB.WithContext(ctx).Model(&models.User{}).Where("email = ?", in.Email).Count(&existing).Error; err != nil {
		return nil, "", apperr.Internal("check email", err)
	}
	if existing > 0 {
		return nil, "", ErrEmailTaken
	}

	hash, err := utils.HashPassword(in.Password)
	if err != nil {
		return nil, "", apperr.Internal("hash password", err)
	}
	u := models.User{
		Name:     in.Name,
		Email:    in.Email,
		Password: hash,
		Role:     in.Role,
	}
	if in.Role == models.RoleEmployer && in.Company != nil {
		if c := strings.TrimSpace(*in.Company); c != "" {
			u.Company = &c
		}
	}
	if err := s.DB.WithContext(ctx).Create(&u).Error; err != nil {
		if apperr.IsUniqueViolation(err) {
			return nil, "", ErrEmailTaken
		}
		return nil, "", apperr.Internal("create user", err)
	}

	token, err := s.IssueToken(&u)
	if err != nil {
		return nil, "", err
	}
	s.Logger.Info("user registered", zap.String("user_id", u.ID.String()), zap.String("role", string(u.Role)))
	return &u, token, nil
}

func (s *AccountService) Login(ctx context.Context, in LoginInput) (*models.User, string, error) {
	in.Email = strings.ToLower(strings.TrimSpace(in.Email))
	if err := validation.Struct(in); err != nil {
		return nil, "", err
	}

	var u models.User
	if err := s.DB.WithContext(ctx).Where("email = ?", in.Email).First(&u).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, "", ErrInvalidCredentials
		}
		return nil, "", apperr.Internal("load user", err)
	}
	if !utils.CheckPassword(u.Password, in.Password) {
		return nil, "", ErrInvalidCredentials
	}

	token, err := s.IssueToken(&u)
	if err != nil {
		return nil, "", err
	}
	return &u, token, nil
}

func (s *AccountService) IssueToken(u *models.User) (string, error) {
	token, err := utils.SignJWT(s.JWTSecret, u.ID.String(), string(u.Role), s.ExpiresMin)
	if err != nil {
		return "", apperr.Internal("sign token", err)
	}
	return token, nil
}

// Authenticate verifies token and loads its user from the database, so a
// deleted account or changed role takes effect on the next request.
func (s *AccountService) Authenticate(ctx context.Context, token string) (*models.User, error) {
	claims, err := utils.ParseJWT(s.JWTSecret, token)
	if err != nil {
		return nil, ErrInvalidToken
	}
	id, err := uuid.Parse(claims.UserID)
	if err != nil {
		return nil, ErrInvalidToken
	}
	u, err := s.Get(ctx, id)
	if errors.Is(err, ErrUserNotFound) {
		return nil, apperr.Unauthorized("User not found")
	}
	return u, err
}

func (s *AccountService) Get(ctx context.Context, id uuid.UUID) (*models.User, error) {
	var u models.User
	if err := s.DB.WithContext(ctx).First(&u, "id = ?", id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrUserNotFound
		}
		return nil, apperr.Internal("load user", err)
	}
	return &u, nil
}

func (s *AccountService) UpdateProfile(ctx context.Context, u *models.User, in ProfileUpdate) (*models.User, error) {
	if in.Name != nil {
		n := strings.TrimSpace(*in.Name)
		in.Name = &n
	}
	if err := validation.Struct(in); err != nil {
		return nil, err
	}

	updates := map[string]any{}
	if in.Name != nil {
		updates["name"] = *in.Name
	}
	if in.Phone != nil {
		updates["phone"] = strings.TrimSpace(*in.Phone)
	}
	if in.Location != nil {
		updates["location"] = strings.TrimSpace(*in.Location)
	}
	if in.Bio != nil {
		updates["bio"] = strings.TrimSpace(*in.Bio)
	}
	if in.Skills != nil {
		skills := make([]string, 0, len(*in.Skills))
		for _, sk := range *in.Skills {
			if sk = strings.TrimSpace(sk); sk != "" {
				skills = append(skills, sk)
			}
		}
		updates["skills"] = datatypes.JSONSlice[string](skills)
	}
	if in.Company != nil && u.Role == models.RoleEmployer {
		updates["company"] = strings.TrimSpace(*in.Company)
	}

	if len(updates) > 0 {
		if err := s.DB.WithContext(ctx).Model(&models.User{ID: u.ID}).Updates(updates).Error; err != nil {
			return nil, apperr.Internal("update profile", err)
		}
	}
	return s.Get(ctx, u.ID)
}

// List pages through users, newest first, optionally filtered by role.
func (s *AccountService) List(ctx context.Context, role models.Role, page, limit int) ([]models.User, models.Pagination, error) {
	if role != "" && !role.Valid() {
		return nil, models.Pagination{}, apperr.Validation("Invalid role")
	}
	page, limit = models.PageRequest(page, limit, defaultUserLimit, maxUserLimit)

	q := s.DB.WithContext(ctx).Model(&models.User{})
	if role != "" {
		q = q.Where("role = ?", role)
	}
	var total int64
	if err := q.Session(&gorm.Session{}).Count(&total).Error; err != nil {
		return nil, models.Pagination{}, apperr.Internal("count users", err)
	}
	var users []models.User
	if err := q.Order("created_at DESC").Limit(limit).Offset(models.Offset(page, limit)).Find(&users).Error; err != nil {
		return nil, models.Pagination{}, apperr.Internal("list users", err)
	}
	return users, models.NewPagination(page, limit, total), nil
}

// UpsertGoogleUser returns the account for a verified Google email,
// creating a jobseeker on first sign-in.
func (s *AccountService) UpsertGoogleUser(ctx context.Context, email, name string) (*models.User, error) {
	email = strings.ToLower(strings.TrimSpace(email))
	if email == "" {
		return nil, apperr.Validation("Google account has no email")
	}

	var u models.User
	err := s.DB.WithContext(ctx).Where("email = ?", email).First(&u).Error
	if err == nil {
		return &u, nil
	}
	if !errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, apperr.Internal("load user", err)
	}

	hash, err := utils.HashPassword(uuid.NewString())
	if err != nil {
		return nil, apperr.Internal("hash password", err)
	}
	if name = strings.TrimSpace(name); name == "" {
		name = strings.SplitN(email, "@", 2)[0]
	}
	u = models.User{Name: name, Email: email, Password: hash, Role: models.RoleJobSeeker}
	if err := s.DB.WithContext(ctx).Create(&u).Error; err != nil {
		if apperr.IsUniqueViolation(err) {
			return s.findByEmail(ctx, email)
		}
		return nil, apperr.Internal("create user", err)
	}
	s.Logger.Info("user registered via google", zap.String("user_id", u.ID.String()))
	return &u, nil
}

func (s *AccountService) findByEmail(ctx context.Context, email string) (*models.User, error) {
	var u models.User
	if err := s.DB.WithContext(ctx).Where("email = ?", email).First(&u).Error; err != nil {
		return nil, apperr.Internal("load user", err)
	}
	return &u, nil
}
