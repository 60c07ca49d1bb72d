// Package ratelimit provides token-bucket limiters keyed by caller identity.
package ratelimit

import (
	"sync"
	"time"

	"golang.org/x/time/rate"
)

// Keyed holds one token bucket per key. A nil *Keyed allows everything.
// Keys idle long enough for their bucket to refill are dropped, so callers
// choosing arbitrary keys cannot grow the map without bound.
type Keyed struct {
	mu        sync.Mutex
	limiters  map[string]*entry
	limit     rate.Limit
	burst     int
	idleAfter time.Duration
	lastSweep time.Time
	now       func() time.Time
}

type entry struct {
	limiter  *rate.Limiter
	lastSeen time.Time
}

// NewKeyed creates a keyed limiter with the given refill rate and burst
func NewKeyed(limit rate.Limit, burst int) *Keyed {
	return &Keyed{
		limiters:  make(map[string]*entry),
		limit:     limit,
		burst:     burst,
		idleAfter: refillDuration(limit, burst),
		now:       time.Now,
	}
}

// PerMinute allows n events per minute per key, bursting up to n.
// Returns nil (unlimited) when n is not positive.
func PerMinute(n int) *Keyed {
	if n <= 0 {
		return nil
	}
	return NewKeyed(rate.Every(time.Minute/time.Duration(n)), n)
}

// Allow reports whether an event for key may happen now
func (k *Keyed) Allow(key string) bool {
	if k == nil {
		return true
	}

	k.mu.Lock()
	defer k.mu.Unlock()

	now := k.now()
	k.sweep(now)

	e, ok := k.limiters[key]
	if !ok {
		e = &entry{limiter: rate.NewLimiter(k.limit, k.burst)}
		k.limiters[key] = e
	}
	e.lastSeen = now
	return e.limiter.AllowN(now, 1)
}

// Len returns the number of keys being tracked
func (k *Keyed) Len() int {
	if k == nil {
		return 0
	}
	k.mu.Lock()
	defer k.mu.Unlock()
	return len(k.limiters)
}

// sweep drops keys whose bucket has been idle long enough to be full again.
// Dropping such a key is indistinguishable from keeping it. Runs at most
// once per idle window. Caller holds k.mu.
func (k *Keyed) sweep(now time.Time) {
	if now.Sub(k.lastSweep) < k.idleAfter {
		return
	}
	k.lastSweep = now
	for key, e := range k.limiters {
		if now.Sub(e.lastSeen) >= k.idleAfter {
			delete(k.limiters, key)
		}
	}
}

// refillDuration is how long an empty bucket takes to fill back up to burst
func refillDuration(limit rate.Limit, burst int) time.Duration {
	if limit == rate.Inf || limit <= 0 || burst <= 0 {
		return time.Minute
	}
	return time.Duration(float64(burst) / float64(limit) * float64(time.Second))
}
