package ratelimit

import (
	"context"
	"testing"
	"time"

	"github.com/glebarez/sqlite"
	"github.com/redis/go-redis/v9"
	"github.com/virshi-ai/visibility-api/internal/models"
	"gorm.io/gorm"
)

func TestMemoryLimiter_FixedWindow(t *testing.T) {
	limiter := NewMemoryLimiter()
	ctx := context.Background()
	now := time.Unix(1700000000, 0)

	for i := 0; i < 3; i++ {
		res, errAllow := limiter.Allow(ctx, "u:1", 3, now)
		if errAllow != nil {
			t.Fatalf("allow: %v", errAllow)
		}
		if !res.Allowed {
			t.Fatalf("request %d should be allowed", i+1)
		}
		if res.Remaining != 3-(i+1) {
			t.Fatalf("request %d: remaining = %d", i+1, res.Remaining)
		}
	}

	res, errAllow := limiter.Allow(ctx, "u:1", 3, now)
	if errAllow != nil {
		t.Fatalf("allow: %v", errAllow)
	}
	if res.Allowed {
		t.Fatalf("fourth request in the same second must be denied")
	}

	// Next second opens a fresh window.
	res, errAllow = limiter.Allow(ctx, "u:1", 3, now.Add(time.Second))
	if errAllow != nil {
		t.Fatalf("allow: %v", errAllow)
	}
	if !res.Allowed || res.Remaining != 2 {
		t.Fatalf("new window should reset the count: %+v", res)
	}
}

func TestMemoryLimiter_KeysIndependent(t *testing.T) {
	limiter := NewMemoryLimiter()
	ctx := context.Background()
	now := time.Unix(1700000000, 0)

	if res, _ := limiter.Allow(ctx, "u:1", 1, now); !res.Allowed {
		t.Fatalf("first key should be allowed")
	}
	if res, _ := limiter.Allow(ctx, "u:1", 1, now); res.Allowed {
		t.Fatalf("first key should be exhausted")
	}
	if res, _ := limiter.Allow(ctx, "u:2", 1, now); !res.Allowed {
		t.Fatalf("second key must not share the first key's window")
	}
}

func TestMemoryLimiter_ZeroLimitUnlimited(t *testing.T) {
	limiter := NewMemoryLimiter()
	for i := 0; i < 10; i++ {
		res, _ := limiter.Allow(context.Background(), "u:1", 0, time.Now())
		if !res.Allowed {
			t.Fatalf("zero limit must never deny")
		}
	}
}

func TestUserKey(t *testing.T) {
	if got := UserKey(12, 5); got != "u:12" {
		t.Fatalf("UserKey = %q", got)
	}
	if UserKey(0, 5) != "" || UserKey(12, 0) != "" {
		t.Fatalf("zero user or limit must yield empty key")
	}
}

func TestManager_FallsBackToMemoryWhenRedisDown(t *testing.T) {
	now := time.Unix(1700000000, 0)
	factory := func(options *redis.Options) *redis.Client {
		// Nothing listens here; ping fails fast.
		options.Addr = "127.0.0.1:1"
		options.DialTimeout = 50 * time.Millisecond
		return redis.NewClient(options)
	}
	manager := NewManager(Backend{Addr: "127.0.0.1:1"}, func() time.Time { return now }, factory)

	res, errAllow := manager.Allow(context.Background(), "u:1", 1)
	if errAllow != nil {
		t.Fatalf("allow: %v", errAllow)
	}
	if !res.Allowed {
		t.Fatalf("first request should pass via memory fallback")
	}

	res, errAllow = manager.Allow(context.Background(), "u:1", 1)
	if errAllow != nil {
		t.Fatalf("allow: %v", errAllow)
	}
	if res.Allowed {
		t.Fatalf("memory fallback must still enforce the limit")
	}
}

func TestManager_NoBackendUsesMemory(t *testing.T) {
	manager := NewManager(Backend{}, nil, nil)

	res, errAllow := manager.Allow(context.Background(), "u:9", 2)
	if errAllow != nil {
		t.Fatalf("allow: %v", errAllow)
	}
	if !res.Allowed {
		t.Fatalf("expected allow with memory backend")
	}
}

func TestResolveLimit(t *testing.T) {
	db, errOpen := gorm.Open(sqlite.Open("file::memory:?cache=shared"), &gorm.Config{})
	if errOpen != nil {
		t.Fatalf("open db: %v", errOpen)
	}
	if errMigrate := db.AutoMigrate(&models.User{}); errMigrate != nil {
		t.Fatalf("migrate: %v", errMigrate)
	}

	custom := models.User{Email: "limited@example.com", Password: "x", RateLimit: 20, Active: true}
	if errCreate := db.Create(&custom).Error; errCreate != nil {
		t.Fatalf("create user: %v", errCreate)
	}
	plain := models.User{Email: "plain@example.com", Password: "x", Active: true}
	if errCreate := db.Create(&plain).Error; errCreate != nil {
		t.Fatalf("create user: %v", errCreate)
	}

	ctx := context.Background()
	if limit, _ := ResolveLimit(ctx, db, custom.ID); limit != 20 {
		t.Fatalf("expected custom limit 20, got %d", limit)
	}
	if limit, _ := ResolveLimit(ctx, db, plain.ID); limit != DefaultLimit {
		t.Fatalf("expected default limit, got %d", limit)
	}
	if limit, _ := ResolveLimit(ctx, db, 99999); limit != DefaultLimit {
		t.Fatalf("missing user must get default limit, got %d", limit)
	}
}
