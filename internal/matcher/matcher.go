// Package matcher provides the named predicates that scheduling rules use to
// decide whether they apply to an instant.
package matcher

import (
	"sort"
	"sync"
	"time"
)

// Matcher decides whether pattern accepts t. t is already in the school's
// timezone. Implementations must not panic on malformed patterns; they
// simply do not match.
type Matcher interface {
	Match(t time.Time, pattern string) bool
}

// Func adapts an ordinary function to the Matcher interface.
type Func func(t time.Time, pattern string) bool

// Match implements the Matcher interface for Func.
func (f Func) Match(t time.Time, pattern string) bool {
	return f(t, pattern)
}

// Registry maps matcher names to implementations. It is safe for concurrent
// use; hosts usually fill it once at startup.
type Registry struct {
	mu       sync.RWMutex
	matchers map[string]Matcher
}

// NewRegistry returns an empty registry.
func NewRegistry() *Registry {
	return &Registry{matchers: map[string]Matcher{}}
}

// Default returns a registry holding every matcher in this package:
//
//   - "dayOfTheWeek" (alias "dayOfWeek"): ISO weekday or inclusive range
//   - "rrule": RFC 5545 recurrence rule, matched per calendar day
//   - "cron": five-field cron expression, matched per minute
//   - "always": matches every instant
func Default() *Registry {
	r := NewRegistry()
	r.Register("dayOfTheWeek", DayOfWeek{})
	r.Register("dayOfWeek", DayOfWeek{})
	r.Register("rrule", NewRRule())
	r.Register("cron", NewCron())
	r.Register("always", Func(func(time.Time, string) bool { return true }))
	return r
}

// Register adds or replaces the matcher called name.
func (r *Registry) Register(name string, m Matcher) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.matchers[name] = m
}

// Lookup returns the matcher called name.
func (r *Registry) Lookup(name string) (Matcher, bool) {
	if r == nil {
		return nil, false
	}
	r.mu.RLock()
	defer r.mu.RUnlock()
	m, ok := r.matchers[name]
	return m, ok
}

// Names returns the registered names in sorted order.
func (r *Registry) Names() []string {
	r.mu.RLock()
	defer r.mu.RUnlock()
	names := make([]string, 0, len(r.matchers))
	for n := range r.matchers {
		names = append(names, n)
	}
	sort.Strings(names)
	return names
}
