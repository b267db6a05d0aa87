package ratelimit

import (
	"sync"
	"time"
)

// Limiter enforces a minimum interval between requests per key. Entries are
// pruned lazily so an abandoned key costs nothing after its interval passes.
type Limiter struct {
	interval time.Duration
	now      func() time.Time

	mu   sync.Mutex
	last map[string]time.Time
}

// New creates a limiter allowing one request per interval per key
func New(interval time.Duration) *Limiter {
	return &Limiter{
		interval: interval,
		now:      time.Now,
		last:     make(map[string]time.Time),
	}
}

// Allow reports whether a request under key may proceed now. When denied,
// retryAfter is how long the caller should wait.
func (l *Limiter) Allow(key string) (allowed bool, retryAfter time.Duration) {
	now := l.now()

	l.mu.Lock()
	defer l.mu.Unlock()

	if prev, ok := l.last[key]; ok {
		elapsed := now.Sub(prev)
		if elapsed < l.interval {
			return false, l.interval - elapsed
		}
	}

	l.last[key] = now
	l.prune(now)
	return true, 0
}

// prune drops entries old enough to be irrelevant. Called with the lock held.
func (l *Limiter) prune(now time.Time) {
	if len(l.last) < 1024 {
		return
	}
	for key, t := range l.last {
		if now.Sub(t) > l.interval {
			delete(l.last, key)
		}
	}
}
