package ratelimit

import (
	"sync"
	"time"

	"golang.org/x/time/rate"
)

type Limit struct {
	PerMinute float64
	Burst     int
}

func (l Limit) enabled() bool {
	return l.PerMinute > 0 && l.Burst > 0
}

type entry struct {
	limiter  *rate.Limiter
	lastSeen time.Time
}

// Keyed is an in-process token bucket per key. Buckets idle for longer than
// idleTimeout are dropped by Sweep.
type Keyed struct {
	limit       Limit
	idleTimeout time.Duration
	now         func() time.Time

	mu      sync.Mutex
	entries map[string]*entry
}

func NewKeyed(limit Limit, idleTimeout time.Duration) *Keyed {
	if idleTimeout <= 0 {
		idleTimeout = 10 * time.Minute
	}
	return &Keyed{
		limit:       limit,
		idleTimeout: idleTimeout,
		now:         time.Now,
		entries:     make(map[string]*entry),
	}
}

// Allow consumes one token for key. A disabled limit always allows.
func (k *Keyed) Allow(key string) bool {
	if k == nil || !k.limit.enabled() {
		return true
	}
	now := k.now()

	k.mu.Lock()
	e, ok := k.entries[key]
	if !ok {
		e = &entry{limiter: rate.NewLimiter(rate.Limit(k.limit.PerMinute/60), k.limit.Burst)}
		k.entries[key] = e
	}
	e.lastSeen = now
	k.mu.Unlock()

	return e.limiter.AllowN(now, 1)
}

func (k *Keyed) Sweep() int {
	if k == nil {
		return 0
	}
	cutoff := k.now().Add(-k.idleTimeout)

	k.mu.Lock()
	defer k.mu.Unlock()
	removed := 0
	for key, e := range k.entries {
		if e.lastSeen.Before(cutoff) {
			delete(k.entries, key)
			removed++
		}
	}
	return removed
}

func (k *Keyed) Len() int {
	k.mu.Lock()
	defer k.mu.Unlock()
	return len(k.entries)
}
