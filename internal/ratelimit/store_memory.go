package ratelimit

import (
	"context"
	"sync"
	"time"

	"golang.org/x/time/rate"
)

// MemoryStore keeps buckets in process using x/time/rate limiters.
// It only limits a single instance; use RedisStore when running more than one.
type MemoryStore struct {
	mu      sync.Mutex
	entries map[string]*memoryEntry
}

type memoryEntry struct {
	lim      *rate.Limiter
	capacity int
	window   time.Duration
	lastSeen time.Time
}

func NewMemoryStore() *MemoryStore {
	return &MemoryStore{entries: make(map[string]*memoryEntry)}
}

func (s *MemoryStore) Take(_ context.Context, key string, capacity int, window time.Duration, now time.Time) (Take, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	ent, ok := s.entries[key]
	if !ok || ent.capacity != capacity || ent.window != window {
		// rate.Limiter starts full, matching lazy creation at capacity.
		lim := rate.NewLimiter(rate.Limit(float64(capacity)/window.Seconds()), capacity)
		ent = &memoryEntry{lim: lim, capacity: capacity, window: window}
		s.entries[key] = ent
	}
	ent.lastSeen = now

	if ent.lim.AllowN(now, 1) {
		return Take{Allowed: true, Tokens: max(0, ent.lim.TokensAt(now))}, nil
	}

	tokens := max(0, ent.lim.TokensAt(now))
	perToken := window.Seconds() / float64(capacity)
	wait := time.Duration((1 - tokens) * perToken * float64(time.Second))
	return Take{Allowed: false, Tokens: tokens, Wait: wait}, nil
}

// Cleanup drops buckets idle for more than two windows as of now.
func (s *MemoryStore) Cleanup(now time.Time) {
	s.mu.Lock()
	defer s.mu.Unlock()
	for k, ent := range s.entries {
		if now.Sub(ent.lastSeen) > ent.window*bucketExpiryMultiplier {
			delete(s.entries, k)
		}
	}
}

// StartJanitor runs Cleanup every interval until ctx is cancelled.
func (s *MemoryStore) StartJanitor(ctx context.Context, every time.Duration) {
	if every <= 0 {
		return
	}
	t := time.NewTicker(every)
	go func() {
		defer t.Stop()
		for {
			select {
			case <-ctx.Done():
				return
			case now := <-t.C:
				s.Cleanup(now)
			}
		}
	}()
}

func (s *MemoryStore) Len() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.entries)
}
