package ratelimit

import (
	"context"
	"sync"
	"time"
)

// Switch hands out the limiter for the current settings. A settings change
// replaces the limiter, so history recorded under the old settings is dropped.
type Switch struct {
	mu      sync.Mutex
	current *Limiter
}

func NewSwitch(limit int, window time.Duration) (*Switch, error) {
	l, err := New(limit, window)
	if err != nil {
		return nil, err
	}
	return &Switch{current: l}, nil
}

// For returns the limiter for limit and window, building a new one if either
// differs from the current limiter.
func (s *Switch) For(limit int, window time.Duration) (*Limiter, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.current != nil && s.current.Limit() == limit && s.current.Window() == window {
		return s.current, nil
	}
	l, err := New(limit, window)
	if err != nil {
		return nil, err
	}
	s.current = l
	return l, nil
}

// Current returns the active limiter.
func (s *Switch) Current() *Limiter {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.current
}

// StartJanitor sweeps idle identities from the active limiter every interval
// until ctx is done.
func (s *Switch) StartJanitor(ctx context.Context, interval time.Duration) {
	if interval <= 0 {
		interval = time.Minute
	}
	ticker := time.NewTicker(interval)
	go func() {
		defer ticker.Stop()
		for {
			select {
			case <-ctx.Done():
				return
			case now := <-ticker.C:
				s.Current().Sweep(now)
			}
		}
	}()
}
