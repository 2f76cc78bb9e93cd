package ratelimit

import (
	"sync"

	"golang.org/x/time/rate"
)

// Store is the injected counter-store boundary for per-key throttling.
// The in-memory implementation below covers a single instance; a shared
// store (same interface) covers multi-instance deployments.
type Store interface {
	Allow(key string) bool
}

type memoryStore struct {
	mu    sync.Mutex
	m     map[string]*rate.Limiter
	rps   float64
	burst int
}

// NewMemoryStore returns an in-process Store where each key gets its own
// token bucket of rps tokens per second with the given burst.
func NewMemoryStore(rps float64, burst int) Store {
	if rps <= 0 {
		rps = 5
	}
	if burst <= 0 {
		burst = 10
	}
	return &memoryStore{
		m:     make(map[string]*rate.Limiter),
		rps:   rps,
		burst: burst,
	}
}

func (s *memoryStore) get(key string) *rate.Limiter {
	s.mu.Lock()
	defer s.mu.Unlock()
	if l, ok := s.m[key]; ok {
		return l
	}
	l := rate.NewLimiter(rate.Limit(s.rps), s.burst)
	s.m[key] = l
	return l
}

func (s *memoryStore) Allow(key string) bool {
	return s.get(key).Allow()
}
