package store

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/virshi-ai/visibility-api/internal/db"
	"github.com/virshi-ai/visibility-api/internal/models"
	"gorm.io/gorm"
)

// ErrKeywordNotFound is returned when a keyword ID resolves to no row.
var ErrKeywordNotFound = errors.New("store: keyword not found")

// KeywordStore manages tracked keywords over GORM.
type KeywordStore struct {
	db *gorm.DB
}

// NewKeywordStore constructs a KeywordStore.
func NewKeywordStore(db *gorm.DB) *KeywordStore { return &KeywordStore{db: db} }

// ListByProject returns the keywords of a project, active first.
func (s *KeywordStore) ListByProject(ctx context.Context, projectID uint64) ([]models.Keyword, error) {
	if s == nil || s.db == nil {
		return nil, fmt.Errorf("keyword store: not initialized")
	}
	var keywords []models.Keyword
	if errFind := s.db.WithContext(ctx).
		Where("project_id = ?", projectID).
		Order("is_active DESC, id ASC").
		Find(&keywords).Error; errFind != nil {
		return nil, fmt.Errorf("keyword store: list: %w", errFind)
	}
	return keywords, nil
}

// Search returns a project's keywords whose text matches the query,
// case-insensitively on any dialect.
func (s *KeywordStore) Search(ctx context.Context, projectID uint64, query string) ([]models.Keyword, error) {
	if s == nil || s.db == nil {
		return nil, fmt.Errorf("keyword store: not initialized")
	}
	query = strings.TrimSpace(query)
	if query == "" {
		return s.ListByProject(ctx, projectID)
	}

	pattern := db.NormalizeLikePattern(s.db, "%"+query+"%")
	var keywords []models.Keyword
	if errFind := s.db.WithContext(ctx).
		Where("project_id = ?", projectID).
		Where(db.CaseInsensitiveLikeExpr(s.db, "text"), pattern).
		Order("is_active DESC, id ASC").
		Find(&keywords).Error; errFind != nil {
		return nil, fmt.Errorf("keyword store: search: %w", errFind)
	}
	return keywords, nil
}

// ListActive returns only the active keywords of a project.
func (s *KeywordStore) ListActive(ctx context.Context, projectID uint64) ([]models.Keyword, error) {
	if s == nil || s.db == nil {
		return nil, fmt.Errorf("keyword store: not initialized")
	}
	var keywords []models.Keyword
	if errFind := s.db.WithContext(ctx).
		Where("project_id = ? AND is_active = ?", projectID, true).
		Order("id ASC").
		Find(&keywords).Error; errFind != nil {
		return nil, fmt.Errorf("keyword store: list active: %w", errFind)
	}
	return keywords, nil
}

// Get loads one keyword by ID.
func (s *KeywordStore) Get(ctx context.Context, keywordID uint64) (*models.Keyword, error) {
	if s == nil || s.db == nil {
		return nil, fmt.Errorf("keyword store: not initialized")
	}
	var keyword models.Keyword
	errFind := s.db.WithContext(ctx).First(&keyword, keywordID).Error
	if errFind != nil {
		if errors.Is(errFind, gorm.ErrRecordNotFound) {
			return nil, ErrKeywordNotFound
		}
		return nil, fmt.Errorf("keyword store: get: %w", errFind)
	}
	return &keyword, nil
}

// Add inserts keywords for a project, skipping blanks and duplicates
// already tracked for the project.
func (s *KeywordStore) Add(ctx context.Context, projectID uint64, texts []string, category string) ([]models.Keyword, error) {
	if s == nil || s.db == nil {
		return nil, fmt.Errorf("keyword store: not initialized")
	}

	existing, errList := s.ListByProject(ctx, projectID)
	if errList != nil {
		return nil, errList
	}
	seen := make(map[string]bool, len(existing))
	for _, kw := range existing {
		seen[strings.ToLower(strings.TrimSpace(kw.Text))] = true
	}

	now := time.Now().UTC()
	var created []models.Keyword
	for _, text := range texts {
		text = strings.TrimSpace(text)
		if text == "" || seen[strings.ToLower(text)] {
			continue
		}
		seen[strings.ToLower(text)] = true
		kw := models.Keyword{
			ProjectID: projectID,
			Text:      text,
			Category:  strings.TrimSpace(category),
			IsActive:  true,
			CreatedAt: now,
			UpdatedAt: now,
		}
		if errCreate := s.db.WithContext(ctx).Create(&kw).Error; errCreate != nil {
			return created, fmt.Errorf("keyword store: add: %w", errCreate)
		}
		created = append(created, kw)
	}
	return created, nil
}

// SetActive toggles a keyword on or off without deleting its history.
func (s *KeywordStore) SetActive(ctx context.Context, keywordID uint64, active bool) error {
	if s == nil || s.db == nil {
		return fmt.Errorf("keyword store: not initialized")
	}
	res := s.db.WithContext(ctx).Model(&models.Keyword{}).
		Where("id = ?", keywordID).
		Updates(map[string]any{
			"is_active":  active,
			"updated_at": time.Now().UTC(),
		})
	if res.Error != nil {
		return fmt.Errorf("keyword store: set active: %w", res.Error)
	}
	if res.RowsAffected == 0 {
		return ErrKeywordNotFound
	}
	return nil
}

// Delete removes a keyword. Scan history referencing it is kept.
func (s *KeywordStore) Delete(ctx context.Context, keywordID uint64) error {
	if s == nil || s.db == nil {
		return fmt.Errorf("keyword store: not initialized")
	}
	if errDelete := s.db.WithContext(ctx).Delete(&models.Keyword{}, keywordID).Error; errDelete != nil {
		return fmt.Errorf("keyword store: delete: %w", errDelete)
	}
	return nil
}
