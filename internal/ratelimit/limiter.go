// Package ratelimit implements a per-identity sliding-window limiter.
package ratelimit

import (
	"errors"
	"sync"
	"time"
)

// Limiter admits at most limit events per identity within any window.
type Limiter struct {
	limit  int
	window time.Duration

	mu     sync.Mutex
	events map[string][]time.Time
}

func New(limit int, window time.Duration) (*Limiter, error) {
	if limit < 0 {
		return nil, errors.New("rate limit must be non-negative")
	}
	if window <= 0 {
		return nil, errors.New("rate window must be positive")
	}
	return &Limiter{
		limit:  limit,
		window: window,
		events: make(map[string][]time.Time),
	}, nil
}

func (l *Limiter) Limit() int            { return l.limit }
func (l *Limiter) Window() time.Duration { return l.window }

// Admit records an event for identity at now and reports whether it fits the
// window. Events at or before now-window no longer count. A denied call is
// not recorded.
func (l *Limiter) Admit(identity string, now time.Time) bool {
	if l.limit == 0 {
		return false
	}

	l.mu.Lock()
	defer l.mu.Unlock()

	events := purge(l.events[identity], now.Add(-l.window))
	if len(events) >= l.limit {
		l.events[identity] = events
		return false
	}
	l.events[identity] = append(events, now)
	return true
}

func purge(events []time.Time, cutoff time.Time) []time.Time {
	i := 0
	for i < len(events) && !events[i].After(cutoff) {
		i++
	}
	if i == 0 {
		return events
	}
	return append(events[:0], events[i:]...)
}

// Identities returns the number of identities currently tracked.
func (l *Limiter) Identities() int {
	l.mu.Lock()
	defer l.mu.Unlock()
	return len(l.events)
}

// Sweep drops identities whose events have all left the window. Such an
// identity is indistinguishable from one never seen.
func (l *Limiter) Sweep(now time.Time) int {
	cutoff := now.Add(-l.window)

	l.mu.Lock()
	defer l.mu.Unlock()

	removed := 0
	for id, events := range l.events {
		if len(events) == 0 || !events[len(events)-1].After(cutoff) {
			delete(l.events, id)
			removed++
		}
	}
	return removed
}
