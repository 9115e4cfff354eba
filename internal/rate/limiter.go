package rate

import (
	"context"
	"sync"
	"time"
)

// Limiter counts calls per key in fixed windows.
type Limiter interface {
	Allow(ctx context.Context, key string, limit int, window time.Duration) (bool, time.Duration)
}

type MemoryLimiter struct {
	mu    sync.Mutex
	store map[string]*bucket
	now   func() time.Time
}

type bucket struct {
	count   int
	resetAt time.Time
	window  time.Duration
}

func NewMemory() *MemoryLimiter {
	return &MemoryLimiter{store: make(map[string]*bucket), now: time.Now}
}

func (m *MemoryLimiter) Allow(ctx context.Context, key string, limit int, window time.Duration) (bool, time.Duration) {
	m.mu.Lock()
	defer m.mu.Unlock()

	now := m.now()
	b, ok := m.store[key]
	if !ok || !now.Before(b.resetAt) || b.window != window {
		m.sweep(now)
		b = &bucket{resetAt: now.Add(window), window: window}
		m.store[key] = b
	}

	retry := b.resetAt.Sub(now)
	if b.count >= limit {
		return false, retry
	}
	b.count++
	return true, retry
}

// sweep drops expired buckets so idle keys do not accumulate.
func (m *MemoryLimiter) sweep(now time.Time) {
	for k, b := range m.store {
		if !now.Before(b.resetAt) {
			delete(m.store, k)
		}
	}
}
