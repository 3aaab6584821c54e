package store

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/virshi-ai/visibility-api/internal/billing"
	"github.com/virshi-ai/visibility-api/internal/models"
	"gorm.io/gorm"
)

// ErrProjectNotFound is returned when a project ID resolves to no row.
var ErrProjectNotFound = errors.New("store: project not found")

// ProjectStore manages brand projects over GORM.
type ProjectStore struct {
	db *gorm.DB
}

// NewProjectStore constructs a ProjectStore.
func NewProjectStore(db *gorm.DB) *ProjectStore { return &ProjectStore{db: db} }

// Get loads one project by ID.
func (s *ProjectStore) Get(ctx context.Context, projectID uint64) (*models.Project, error) {
	if s == nil || s.db == nil {
		return nil, fmt.Errorf("project store: not initialized")
	}
	var project models.Project
	errFind := s.db.WithContext(ctx).First(&project, projectID).Error
	if errFind != nil {
		if errors.Is(errFind, gorm.ErrRecordNotFound) {
			return nil, ErrProjectNotFound
		}
		return nil, fmt.Errorf("project store: get: %w", errFind)
	}
	return &project, nil
}

// ListByUser returns all projects owned by a user, newest first.
func (s *ProjectStore) ListByUser(ctx context.Context, userID uint64) ([]models.Project, error) {
	if s == nil || s.db == nil {
		return nil, fmt.Errorf("project store: not initialized")
	}
	var projects []models.Project
	if errFind := s.db.WithContext(ctx).
		Where("user_id = ?", userID).
		Order("created_at DESC").
		Find(&projects).Error; errFind != nil {
		return nil, fmt.Errorf("project store: list: %w", errFind)
	}
	return projects, nil
}

// Create inserts a new project. New projects always start on trial.
func (s *ProjectStore) Create(ctx context.Context, project *models.Project) error {
	if s == nil || s.db == nil {
		return fmt.Errorf("project store: not initialized")
	}
	if project == nil {
		return fmt.Errorf("project store: nil project")
	}
	if project.Status == "" {
		project.Status = billing.PlanTrial
	}
	now := time.Now().UTC()
	project.CreatedAt = now
	project.UpdatedAt = now
	if errCreate := s.db.WithContext(ctx).Create(project).Error; errCreate != nil {
		return fmt.Errorf("project store: create: %w", errCreate)
	}
	return nil
}

// SetStatus assigns a new plan code to the project. Validation of the
// code is the billing layer's responsibility; this only persists it.
func (s *ProjectStore) SetStatus(ctx context.Context, projectID uint64, status string) error {
	if s == nil || s.db == nil {
		return fmt.Errorf("project store: not initialized")
	}
	res := s.db.WithContext(ctx).Model(&models.Project{}).
		Where("id = ?", projectID).
		Updates(map[string]any{
			"status":     status,
			"updated_at": time.Now().UTC(),
		})
	if res.Error != nil {
		return fmt.Errorf("project store: set status: %w", res.Error)
	}
	if res.RowsAffected == 0 {
		return ErrProjectNotFound
	}
	return nil
}

// Update persists mutable project fields.
func (s *ProjectStore) Update(ctx context.Context, projectID uint64, updates map[string]any) error {
	if s == nil || s.db == nil {
		return fmt.Errorf("project store: not initialized")
	}
	if len(updates) == 0 {
		return nil
	}
	updates["updated_at"] = time.Now().UTC()
	res := s.db.WithContext(ctx).Model(&models.Project{}).
		Where("id = ?", projectID).
		Updates(updates)
	if res.Error != nil {
		return fmt.Errorf("project store: update: %w", res.Error)
	}
	if res.RowsAffected == 0 {
		return ErrProjectNotFound
	}
	return nil
}

// Delete removes a project and its keywords.
func (s *ProjectStore) Delete(ctx context.Context, projectID uint64) error {
	if s == nil || s.db == nil {
		return fmt.Errorf("project store: not initialized")
	}
	if errKeywords := s.db.WithContext(ctx).
		Where("project_id = ?", projectID).
		Delete(&models.Keyword{}).Error; errKeywords != nil {
		return fmt.Errorf("project store: delete keywords: %w", errKeywords)
	}
	if errDelete := s.db.WithContext(ctx).Delete(&models.Project{}, projectID).Error; errDelete != nil {
		return fmt.Errorf("project store: delete: %w", errDelete)
	}
	return nil
}
