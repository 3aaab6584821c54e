package ratelimit

import (
	"context"
	"sync"
	"time"
)

// memoryPruneThreshold caps how many counters accumulate before stale
// windows are swept.
const memoryPruneThreshold = 4096

type memoryWindow struct {
	second int64
	count  int
}

// MemoryLimiter is a fixed-window (one second) in-process limiter. It
// is the always-available backend; the manager falls back to it when
// Redis is not configured or unreachable.
type MemoryLimiter struct {
	mu      sync.Mutex
	windows map[string]*memoryWindow
}

// NewMemoryLimiter constructs a MemoryLimiter.
func NewMemoryLimiter() *MemoryLimiter {
	return &MemoryLimiter{windows: make(map[string]*memoryWindow)}
}

// Allow checks whether the request fits in the current one-second window.
func (l *MemoryLimiter) Allow(_ context.Context, key string, limit int, now time.Time) (Result, error) {
	if limit <= 0 || key == "" {
		return Result{Allowed: true}, nil
	}
	sec := now.Unix()
	reset := time.Unix(sec+1, 0).UTC()

	l.mu.Lock()
	defer l.mu.Unlock()

	if len(l.windows) > memoryPruneThreshold {
		l.prune(sec)
	}

	w := l.windows[key]
	if w == nil || w.second != sec {
		w = &memoryWindow{second: sec}
		l.windows[key] = w
	}
	if w.count >= limit {
		return Result{Allowed: false, Remaining: 0, Reset: reset}, nil
	}
	w.count++
	return Result{Allowed: true, Remaining: limit - w.count, Reset: reset}, nil
}

// prune drops counters from past windows. Caller holds the lock.
func (l *MemoryLimiter) prune(sec int64) {
	for key, w := range l.windows {
		if w.second != sec {
			delete(l.windows, key)
		}
	}
}
