package models

import "time"

// Role values assigned to user accounts.
const (
	// RoleUser is the default role for registered accounts.
	RoleUser = "user"
	// RoleAdmin grants access to administrative endpoints.
	RoleAdmin = "admin"
)

// User represents an end-user account stored in the database.
type User struct {
	ID uint64 `gorm:"primaryKey;autoIncrement"` // Primary key.

	Email    string `gorm:"type:text;not null;uniqueIndex"` // Unique login email.
	Name     string `gorm:"type:text"`                      // Display name.
	Password string `gorm:"type:text;not null"`             // Hashed password.

	Role string `gorm:"type:text;not null;default:user"` // Account role.

	RateLimit int `gorm:"not null;default:0"` // Automation calls per second (0 = unlimited).

	Active bool `gorm:"not null;default:true"` // Whether the user can sign in.

	Projects []Project `gorm:"foreignKey:UserID"` // Related projects.

	CreatedAt time.Time `gorm:"not null;autoCreateTime"` // Creation timestamp.
	UpdatedAt time.Time `gorm:"not null;autoUpdateTime"` // Last update timestamp.
}
