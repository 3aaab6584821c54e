package store

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/virshi-ai/visibility-api/internal/models"
	"github.com/virshi-ai/visibility-api/internal/security"
	"gorm.io/gorm"
)

// ErrInvalidCredentials is returned for any authentication failure. The
// cause (unknown email, wrong password, disabled account) is never
// distinguished to the caller.
var ErrInvalidCredentials = errors.New("store: invalid credentials")

// ErrEmailTaken is returned when registering an email that already has
// an account.
var ErrEmailTaken = errors.New("store: email already registered")

// UserStore manages user accounts over GORM.
type UserStore struct {
	db *gorm.DB
}

// NewUserStore constructs a UserStore.
func NewUserStore(db *gorm.DB) *UserStore { return &UserStore{db: db} }

// Authenticate verifies email/password and returns the account.
func (s *UserStore) Authenticate(ctx context.Context, email, password string) (*models.User, error) {
	if s == nil || s.db == nil {
		return nil, fmt.Errorf("user store: not initialized")
	}
	email = normalizeEmail(email)
	if email == "" || password == "" {
		return nil, ErrInvalidCredentials
	}

	var user models.User
	errFind := s.db.WithContext(ctx).Where("email = ?", email).First(&user).Error
	if errFind != nil {
		if errors.Is(errFind, gorm.ErrRecordNotFound) {
			return nil, ErrInvalidCredentials
		}
		return nil, fmt.Errorf("user store: lookup: %w", errFind)
	}
	if !user.Active || !security.CheckPassword(user.Password, password) {
		return nil, ErrInvalidCredentials
	}
	return &user, nil
}

// Register creates a new account with a hashed password.
func (s *UserStore) Register(ctx context.Context, email, password, name string) (*models.User, error) {
	if s == nil || s.db == nil {
		return nil, fmt.Errorf("user store: not initialized")
	}
	email = normalizeEmail(email)
	if email == "" {
		return nil, fmt.Errorf("user store: missing email")
	}
	if strings.TrimSpace(password) == "" {
		return nil, fmt.Errorf("user store: missing password")
	}

	var count int64
	if errCount := s.db.WithContext(ctx).Model(&models.User{}).Where("email = ?", email).Count(&count).Error; errCount != nil {
		return nil, fmt.Errorf("user store: check email: %w", errCount)
	}
	if count > 0 {
		return nil, ErrEmailTaken
	}

	hash, errHash := security.HashPassword(password)
	if errHash != nil {
		return nil, errHash
	}

	now := time.Now().UTC()
	user := models.User{
		Email:     email,
		Name:      strings.TrimSpace(name),
		Password:  hash,
		Role:      models.RoleUser,
		Active:    true,
		CreatedAt: now,
		UpdatedAt: now,
	}
	if errCreate := s.db.WithContext(ctx).Create(&user).Error; errCreate != nil {
		return nil, fmt.Errorf("user store: create: %w", errCreate)
	}
	return &user, nil
}

// normalizeEmail lowercases and trims a login email.
func normalizeEmail(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}
