package config

import (
	"fmt"
	"sync"
)

// Live holds the current configuration and swaps it on Reload. Readers take
// one Current() per request so a reload never splits a request across two
// configurations.
type Live struct {
	mu      sync.RWMutex
	current Config
	load    func() (Config, error)
	check   func(Config) error
}

// NewLive wraps cfg. load re-reads settings and check, when non-nil, vets a
// candidate before it becomes current.
func NewLive(cfg Config, load func() (Config, error), check func(Config) error) *Live {
	if load == nil {
		path := cfg.ConfigFile
		load = func() (Config, error) { return LoadFile(path) }
	}
	return &Live{current: cfg, load: load, check: check}
}

func (l *Live) Current() Config {
	l.mu.RLock()
	defer l.mu.RUnlock()
	return l.current
}

// Reload loads and checks a new configuration. On failure the previous one
// stays in effect.
func (l *Live) Reload() (Config, error) {
	next, err := l.load()
	if err != nil {
		return l.Current(), fmt.Errorf("reload config: %w", err)
	}
	if l.check != nil {
		if err := l.check(next); err != nil {
			return l.Current(), fmt.Errorf("reload config: %w", err)
		}
	}
	l.mu.Lock()
	l.current = next
	l.mu.Unlock()
	return next, nil
}
