package models

import (
	"time"

	"gorm.io/datatypes"
)

// Project represents a monitored brand owned by a user.
//
// Status holds the billing plan code currently assigned to the project
// (trial, starter, professional, enterprise). Projects are created on
// trial and upgraded through the billing endpoints.
type Project struct {
	ID uint64 `gorm:"primaryKey;autoIncrement"` // Primary key.

	UserID uint64 `gorm:"not null;index"`    // Owning user ID.
	User   User   `gorm:"foreignKey:UserID"` // Owning user record.

	BrandName string `gorm:"type:varchar(255);not null"` // Brand being monitored.
	Domain    string `gorm:"type:varchar(255)"`          // Primary brand domain.
	Industry  string `gorm:"type:varchar(255)"`          // Industry/niche description.
	Products  string `gorm:"type:text"`                  // Products/services description.

	OfficialSources datatypes.JSON `gorm:"type:jsonb;not null;default:'[]'"` // Official resource URLs.
	Competitors     datatypes.JSON `gorm:"type:jsonb;not null;default:'[]'"` // Competitor brand names.

	Status string `gorm:"type:varchar(32);not null;default:trial;index"` // Active plan code.

	Keywords []Keyword `gorm:"foreignKey:ProjectID"` // Related keywords.

	CreatedAt time.Time `gorm:"not null;autoCreateTime"` // Creation timestamp.
	UpdatedAt time.Time `gorm:"not null;autoUpdateTime"` // Last update timestamp.
}
