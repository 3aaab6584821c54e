package store

import (
	"context"
	"fmt"
	"time"

	"github.com/virshi-ai/visibility-api/internal/models"
	"gorm.io/gorm"
)

// ChatStore persists assistant conversation history over GORM.
type ChatStore struct {
	db *gorm.DB
}

// NewChatStore constructs a ChatStore.
func NewChatStore(db *gorm.DB) *ChatStore { return &ChatStore{db: db} }

// Append records one chat message.
func (s *ChatStore) Append(ctx context.Context, msg *models.ChatMessage) error {
	if s == nil || s.db == nil {
		return fmt.Errorf("chat store: not initialized")
	}
	if msg == nil {
		return fmt.Errorf("chat store: nil message")
	}
	if msg.CreatedAt.IsZero() {
		msg.CreatedAt = time.Now().UTC()
	}
	if errCreate := s.db.WithContext(ctx).Create(msg).Error; errCreate != nil {
		return fmt.Errorf("chat store: append: %w", errCreate)
	}
	return nil
}

// History returns the latest messages of a user's conversation in
// chronological order.
func (s *ChatStore) History(ctx context.Context, userID, projectID uint64, limit int) ([]models.ChatMessage, error) {
	if s == nil || s.db == nil {
		return nil, fmt.Errorf("chat store: not initialized")
	}
	if limit <= 0 || limit > 1000 {
		limit = 100
	}
	var rows []models.ChatMessage
	q := s.db.WithContext(ctx).Where("user_id = ?", userID)
	if projectID != 0 {
		q = q.Where("project_id = ?", projectID)
	}
	if errFind := q.Order("created_at DESC, id DESC").Limit(limit).Find(&rows).Error; errFind != nil {
		return nil, fmt.Errorf("chat store: history: %w", errFind)
	}
	// Reverse into chronological order for display.
	for i, j := 0, len(rows)-1; i < j; i, j = i+1, j-1 {
		rows[i], rows[j] = rows[j], rows[i]
	}
	return rows, nil
}

// Clear deletes a user's conversation history.
func (s *ChatStore) Clear(ctx context.Context, userID, projectID uint64) error {
	if s == nil || s.db == nil {
		return fmt.Errorf("chat store: not initialized")
	}
	q := s.db.WithContext(ctx).Where("user_id = ?", userID)
	if projectID != 0 {
		q = q.Where("project_id = ?", projectID)
	}
	if errDelete := q.Delete(&models.ChatMessage{}).Error; errDelete != nil {
		return fmt.Errorf("chat store: clear: %w", errDelete)
	}
	return nil
}
