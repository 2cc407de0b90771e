package services

import (
	"context"
	"errors"
	"strings"
	"time"

	"github.com/taskswap/taskswap/internal/auth"
	"github.com/taskswap/taskswap/internal/models"
	"gorm.io/datatypes"
	"gorm.io/gorm"
)

type UserService struct {
	db         *gorm.DB
	timeout    time.Duration
	bcryptCost int
}

func NewUserService(db *gorm.DB, timeout time.Duration, bcryptCost int) *UserService {
	return &UserService{db: db, timeout: timeout, bcryptCost: bcryptCost}
}

type RegisterInput struct {
	Name     string
	Email    string
	Password string
}

type ProfilePatch struct {
	Name     *string   `json:"name"`
	Bio      *string   `json:"bio"`
	Skills   *[]string `json:"skills"`
	Location *string   `json:"location"`
}

func (s *UserService) Register(ctx context.Context, in RegisterInput) (*models.User, error) {
	name := strings.TrimSpace(in.Name)
	email := strings.ToLower(strings.TrimSpace(in.Email))

	if name == "" || email == "" || in.Password == "" {
		return nil, validationError("name, email and password are required")
	}

	ctx, cancel := withTimeout(ctx, s.timeout)
	defer cancel()

	var existing models.User

	err := s.db.WithContext(ctx).Where("email = ?", email).First(&existing).Error

	if err == nil {
		return nil, validationError("Email already exists")
	}

	if !errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, persistenceError("check existing user", err)
	}

	hash, err := auth.HashPassword(in.Password, s.bcryptCost)

	if err != nil {
		return nil, &Error{Kind: ErrPersistence, Message: "Failed to hash password", Err: err}
	}

	user := models.User{
		Name:         name,
		Email:        email,
		PasswordHash: hash,
		Skills:       datatypes.JSONSlice[string]{},
	}

	if err := s.db.WithContext(ctx).Create(&user).Error; err != nil {
		return nil, persistenceError("create user", err)
	}

	return &user, nil
}

func (s *UserService) Authenticate(ctx context.Context, email, password string) (*models.User, error) {
	ctx, cancel := withTimeout(ctx, s.timeout)
	defer cancel()

	var user models.User

	err := s.db.WithContext(ctx).Where("email = ?", strings.ToLower(strings.TrimSpace(email))).First(&user).Error

	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, &Error{Kind: ErrInvalidCredentials, Message: "Invalid email or password"}
		}
		return nil, persistenceError("fetch user", err)
	}

	if !auth.CheckPassword(user.PasswordHash, password) {
		return nil, &Error{Kind: ErrInvalidCredentials, Message: "Invalid email or password"}
	}

	return &user, nil
}

func (s *UserService) GetUser(ctx context.Context, id string) (*models.User, error) {
	ctx, cancel := withTimeout(ctx, s.timeout)
	defer cancel()

	var user models.User

	if err := s.db.WithContext(ctx).First(&user, "id = ?", id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, notFoundError("User")
		}
		return nil, persistenceError("fetch user", err)
	}

	return &user, nil
}

// UpdateProfile changes display fields only. Messages already sent keep the
// sender name they were stored with.
func (s *UserService) UpdateProfile(ctx context.Context, id string, patch ProfilePatch) (*models.User, error) {
	updates := make(map[string]interface{})

	if patch.Name != nil {
		name := strings.TrimSpace(*patch.Name)
		if name == "" {
			return nil, validationError("name must not be empty")
		}
		updates["name"] = name
	}

	if patch.Bio != nil {
		updates["bio"] = strings.TrimSpace(*patch.Bio)
	}

	if patch.Location != nil {
		updates["location"] = strings.TrimSpace(*patch.Location)
	}

	if patch.Skills != nil {
		updates["skills"] = datatypes.JSONSlice[string](normalizeSkills(*patch.Skills))
	}

	if len(updates) == 0 {
		return nil, validationError("No valid fields to update")
	}

	ctx, cancel := withTimeout(ctx, s.timeout)
	defer cancel()

	result := s.db.WithContext(ctx).Model(&models.User{}).Where("id = ?", id).Updates(updates)

	if result.Error != nil {
		return nil, persistenceError("update user", result.Error)
	}

	if result.RowsAffected == 0 {
		return nil, notFoundError("User")
	}

	return s.GetUser(ctx, id)
}
