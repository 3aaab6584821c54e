package store

import (
	"context"
	"fmt"
	"time"

	"github.com/virshi-ai/visibility-api/internal/models"
	"gorm.io/gorm"
)

// ScanStore is the append-only scan-result log. Rows are written once
// per completed automation call and never updated or deleted; quota
// usage is derived by counting them.
type ScanStore struct {
	db *gorm.DB
}

// NewScanStore constructs a ScanStore.
func NewScanStore(db *gorm.DB) *ScanStore { return &ScanStore{db: db} }

// Append records one completed scan.
func (s *ScanStore) Append(ctx context.Context, rec *models.ScanResult) error {
	if s == nil || s.db == nil {
		return fmt.Errorf("scan store: not initialized")
	}
	if rec == nil {
		return fmt.Errorf("scan store: nil record")
	}
	if rec.CreatedAt.IsZero() {
		rec.CreatedAt = time.Now().UTC()
	}
	if errCreate := s.db.WithContext(ctx).Create(rec).Error; errCreate != nil {
		return fmt.Errorf("scan store: append: %w", errCreate)
	}
	return nil
}

// Count returns the number of scans for a project. A nil since counts
// over all time; otherwise only rows with created_at >= since count,
// so the caller controls the quota window boundary.
func (s *ScanStore) Count(ctx context.Context, projectID uint64, since *time.Time) (int, error) {
	if s == nil || s.db == nil {
		return 0, fmt.Errorf("scan store: not initialized")
	}
	q := s.db.WithContext(ctx).Model(&models.ScanResult{}).Where("project_id = ?", projectID)
	if since != nil {
		q = q.Where("created_at >= ?", since.UTC())
	}
	var count int64
	if errCount := q.Count(&count).Error; errCount != nil {
		return 0, fmt.Errorf("scan store: count: %w", errCount)
	}
	return int(count), nil
}

// CountKeyword returns the number of scans recorded for one keyword of
// a project, over all time.
func (s *ScanStore) CountKeyword(ctx context.Context, projectID, keywordID uint64) (int, error) {
	if s == nil || s.db == nil {
		return 0, fmt.Errorf("scan store: not initialized")
	}
	var count int64
	if errCount := s.db.WithContext(ctx).Model(&models.ScanResult{}).
		Where("project_id = ? AND keyword_id = ?", projectID, keywordID).
		Count(&count).Error; errCount != nil {
		return 0, fmt.Errorf("scan store: count keyword: %w", errCount)
	}
	return int(count), nil
}

// ListRecent returns the latest scans for a project, newest first.
func (s *ScanStore) ListRecent(ctx context.Context, projectID uint64, limit int) ([]models.ScanResult, error) {
	if s == nil || s.db == nil {
		return nil, fmt.Errorf("scan store: not initialized")
	}
	if limit <= 0 || limit > 10000 {
		limit = 1000
	}
	var rows []models.ScanResult
	if errFind := s.db.WithContext(ctx).
		Where("project_id = ?", projectID).
		Order("created_at DESC, id DESC").
		Limit(limit).
		Find(&rows).Error; errFind != nil {
		return nil, fmt.Errorf("scan store: list: %w", errFind)
	}
	return rows, nil
}
