package models

import (
	"time"

	"gorm.io/datatypes"
)

// Sentiment labels attached to scan results.
const (
	SentimentPositive = "positive"
	SentimentNeutral  = "neutral"
	SentimentNegative = "negative"
)

// ScanResult records one completed analysis call for one keyword.
//
// Rows are append-only: they are created exactly once per completed
// automation call and never updated or deleted. Quota usage is derived
// from counting these rows, bucketed by CreatedAt.
type ScanResult struct {
	ID uint64 `gorm:"primaryKey;autoIncrement"` // Primary key.

	ProjectID uint64 `gorm:"not null;index:idx_scan_results_project_created"` // Related project ID.
	KeywordID uint64 `gorm:"not null;index"`                                  // Scanned keyword ID.

	Model    string `gorm:"type:varchar(255)"` // AI model that produced the response.
	Response string `gorm:"type:text"`         // Raw response text.

	Sentiment string         `gorm:"type:varchar(32)"`                 // Response sentiment label.
	Sources   datatypes.JSON `gorm:"type:jsonb;not null;default:'[]'"` // Cited source URLs.

	CreatedAt time.Time `gorm:"not null;autoCreateTime;index:idx_scan_results_project_created"` // Scan timestamp (UTC).
}
