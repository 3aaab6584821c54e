package models

import "time"

// Chat message roles.
const (
	ChatRoleUser      = "user"
	ChatRoleAssistant = "assistant"
)

// ChatMessage stores one message of the assistant conversation.
type ChatMessage struct {
	ID uint64 `gorm:"primaryKey;autoIncrement"` // Primary key.

	UserID    uint64 `gorm:"not null;index"` // Message owner.
	ProjectID uint64 `gorm:"index"`          // Related project (0 when none selected).

	Role    string `gorm:"type:varchar(16);not null"` // user or assistant.
	Content string `gorm:"type:text;not null"`        // Message text.

	CreatedAt time.Time `gorm:"not null;autoCreateTime"` // Creation timestamp.
}
