package models

import "time"

// Keyword represents a prompt/query tracked for a project.
type Keyword struct {
	ID uint64 `gorm:"primaryKey;autoIncrement"` // Primary key.

	ProjectID uint64  `gorm:"not null;index"`       // Owning project ID.
	Project   Project `gorm:"foreignKey:ProjectID"` // Owning project record.

	Text     string `gorm:"type:text;not null"`     // Query text sent to AI models.
	Category string `gorm:"type:varchar(255)"`      // Optional grouping label.
	IsActive bool   `gorm:"not null;default:true"`  // Whether the keyword is scanned.

	CreatedAt time.Time `gorm:"not null;autoCreateTime"` // Creation timestamp.
	UpdatedAt time.Time `gorm:"not null;autoUpdateTime"` // Last update timestamp.
}
