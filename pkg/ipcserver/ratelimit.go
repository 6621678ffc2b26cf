// SPDX-License-Identifier: BSD-3-Clause

package ipcserver

import (
	"sync"
	"time"
)

// slidingWindowLimiter enforces a requests-per-window ceiling over a
// sliding time window, per connection (spec.md §4.7). Exceeding the limit
// yields Error responses; it never drops the connection.
type slidingWindowLimiter struct {
	mu       sync.Mutex
	window   time.Duration
	limit    int
	requests []time.Time
}

func newSlidingWindowLimiter(window time.Duration, limit int) *slidingWindowLimiter {
	return &slidingWindowLimiter{window: window, limit: limit}
}

// Allow records one request attempt at now and reports whether it is within
// the configured limit.
func (l *slidingWindowLimiter) Allow(now time.Time) bool {
	l.mu.Lock()
	defer l.mu.Unlock()

	cutoff := now.Add(-l.window)
	live := l.requests[:0]
	for _, t := range l.requests {
		if t.After(cutoff) {
			live = append(live, t)
		}
	}
	l.requests = live

	if len(l.requests) >= l.limit {
		return false
	}
	l.requests = append(l.requests, now)
	return true
}

// SetLimit changes this limiter's requests-per-window ceiling, clamped by
// the caller. The server sizes each connection's limiter when the
// connection opens and does not call SetLimit, so a rate limit changed by
// the SetRateLimit command applies to connections opened afterwards.
func (l *slidingWindowLimiter) SetLimit(limit int) {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.limit = limit
}
