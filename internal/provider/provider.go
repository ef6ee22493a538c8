// Package provider defines the extraction backends. Each backend returns an
// untyped candidate snapshot that callers must pass through snapshot.Validate.
package provider

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"strings"
)

const (
	IDLogic  = "logic"
	IDFake   = "fake"
	IDOpenAI = "openai"
)

// Provider extracts a raw candidate snapshot from a transcript.
type Provider interface {
	ID() string
	Extract(ctx context.Context, transcript string) (map[string]any, error)
}

// Kind is the closed set of provider failure classes.
type Kind string

const (
	KindTimeout   Kind = "timeout"
	KindTransport Kind = "transport"
	KindMalformed Kind = "malformed"
)

// Error is the only error shape a provider call surfaces to the orchestrator.
type Error struct {
	Provider string
	Kind     Kind
	Err      error
}

func (e *Error) Error() string {
	if e.Err == nil {
		return fmt.Sprintf("provider %s: %s", e.Provider, e.Kind)
	}
	return fmt.Sprintf("provider %s: %s: %v", e.Provider, e.Kind, e.Err)
}

func (e *Error) Unwrap() error { return e.Err }

func newError(id string, kind Kind, err error) *Error {
	return &Error{Provider: id, Kind: kind, Err: err}
}

// AsError coerces err into *Error. Deadline errors become KindTimeout and
// everything else without a kind becomes KindTransport.
func AsError(id string, err error) *Error {
	if err == nil {
		return nil
	}
	var pe *Error
	if errors.As(err, &pe) {
		return pe
	}
	if errors.Is(err, context.DeadlineExceeded) {
		return newError(id, KindTimeout, err)
	}
	return newError(id, KindTransport, err)
}

// Registry maps provider IDs to implementations.
type Registry struct {
	providers map[string]Provider
}

func NewRegistry(providers ...Provider) *Registry {
	r := &Registry{providers: make(map[string]Provider, len(providers))}
	for _, p := range providers {
		r.Register(p)
	}
	return r
}

func (r *Registry) Register(p Provider) {
	if p == nil {
		return
	}
	r.providers[Normalize(p.ID())] = p
}

// Resolve returns the provider registered under id.
func (r *Registry) Resolve(id string) (Provider, error) {
	key := Normalize(id)
	if r != nil {
		if p, ok := r.providers[key]; ok {
			return p, nil
		}
	}
	return nil, fmt.Errorf("unknown provider %q (known: %s)", id, strings.Join(r.IDs(), ", "))
}

// IDs lists registered provider IDs in sorted order.
func (r *Registry) IDs() []string {
	if r == nil {
		return nil
	}
	ids := make([]string, 0, len(r.providers))
	for id := range r.providers {
		ids = append(ids, id)
	}
	sort.Strings(ids)
	return ids
}

// Normalize lowercases and trims a provider ID. Empty means logic.
func Normalize(id string) string {
	id = strings.ToLower(strings.TrimSpace(id))
	if id == "" {
		return IDLogic
	}
	return id
}
