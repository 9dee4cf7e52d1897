// Package cooldown tracks the last allowed invocation of an action per user.
package cooldown

import (
	"strconv"
	"sync"
	"time"

	"github.com/patrickmn/go-cache"
)

// Decision is the outcome of a cooldown check.
type Decision struct {
	Allowed bool
	// Wait is the whole number of seconds left before the next allowed call.
	// Zero when Allowed.
	Wait int
}

// Limiter enforces a minimum interval between allowed actions of the same user.
// Entries expire from the store once the interval has passed, which is
// equivalent to an allowed outcome for the next check.
type Limiter struct {
	interval time.Duration
	mu       sync.Mutex
	last     *cache.Cache
}

// New creates a Limiter with the given interval.
func New(interval time.Duration) *Limiter {
	if interval <= 0 {
		interval = 5 * time.Second
	}
	return &Limiter{
		interval: interval,
		last:     cache.New(interval, 10*interval),
	}
}

// Interval returns the configured cooldown window.
func (l *Limiter) Interval() time.Duration {
	return l.interval
}

// Check decides whether userID may act at now and records now when allowed.
// A denied check leaves the stored timestamp untouched.
func (l *Limiter) Check(userID int64, now time.Time) Decision {
	key := strconv.FormatInt(userID, 10)

	l.mu.Lock()
	defer l.mu.Unlock()

	if v, ok := l.last.Get(key); ok {
		if prev, ok := v.(time.Time); ok {
			elapsed := now.Sub(prev)
			if elapsed < l.interval {
				return Decision{Wait: ceilSeconds(l.interval - elapsed)}
			}
		}
	}
	l.last.Set(key, now, cache.DefaultExpiration)
	return Decision{Allowed: true}
}

// Reset forgets the stored timestamp for userID.
func (l *Limiter) Reset(userID int64) {
	l.last.Delete(strconv.FormatInt(userID, 10))
}

// Len reports the number of tracked users.
func (l *Limiter) Len() int {
	return l.last.ItemCount()
}

func ceilSeconds(d time.Duration) int {
	if d <= 0 {
		return 0
	}
	return int((d + time.Second - 1) / time.Second)
}
