package ratelimit

import (
	"context"
	"errors"

	"github.com/virshi-ai/visibility-api/internal/models"
	"gorm.io/gorm"
)

// DefaultLimit is the per-user requests-per-second cap applied when
// the account has no explicit limit of its own.
const DefaultLimit = 5

// ResolveLimit returns the effective requests-per-second limit for a
// user: the account's own positive limit when set, the default
// otherwise. A missing user gets the default.
func ResolveLimit(ctx context.Context, db *gorm.DB, userID uint64) (int, error) {
	if db == nil || userID == 0 {
		return DefaultLimit, nil
	}

	var row struct {
		RateLimit int
	}
	errFind := db.WithContext(ctx).
		Model(&models.User{}).
		Select("rate_limit").
		Where("id = ?", userID).
		Take(&row).Error
	if errFind != nil {
		if errors.Is(errFind, gorm.ErrRecordNotFound) {
			return DefaultLimit, nil
		}
		return 0, errFind
	}
	if row.RateLimit > 0 {
		return row.RateLimit, nil
	}
	return DefaultLimit, nil
}
