package circuitbreaker

import (
	"errors"
	"net/url"
	"sort"
	"strings"
	"sync"

	"github.com/sony/gobreaker"
)

// IsOpenError reports whether err came from a breaker refusing the call.
func IsOpenError(err error) bool {
	return errors.Is(err, gobreaker.ErrOpenState) || errors.Is(err, gobreaker.ErrTooManyRequests)
}

// Registry lazily creates one circuit breaker per upstream host.
// Several sources on the same host (TechCrunch category feeds, for example)
// share a breaker, so a host outage trips once for all of them.
type Registry struct {
	mu        sync.Mutex
	breakers  map[string]*CircuitBreaker
	configFor func(name string) Config
	observers []StateObserver
}

// NewRegistry returns a registry that builds breakers with configFor(host).
func NewRegistry(configFor func(name string) Config, observers ...StateObserver) *Registry {
	if configFor == nil {
		configFor = DefaultConfig
	}
	return &Registry{
		breakers:  make(map[string]*CircuitBreaker),
		configFor: configFor,
		observers: observers,
	}
}

// Get returns the breaker for name, creating it on first use.
func (r *Registry) Get(name string) *CircuitBreaker {
	r.mu.Lock()
	defer r.mu.Unlock()

	if cb, ok := r.breakers[name]; ok {
		return cb
	}
	cb := New(r.configFor(name), r.observers...)
	r.breakers[name] = cb
	return cb
}

// ForURL returns the breaker for the host of rawURL. Unparseable URLs share a
// single fallback breaker.
func (r *Registry) ForURL(rawURL string) *CircuitBreaker {
	return r.Get(HostKey(rawURL))
}

// States returns the current state of every breaker created so far, keyed by name.
func (r *Registry) States() map[string]string {
	r.mu.Lock()
	names := make([]string, 0, len(r.breakers))
	for name := range r.breakers {
		names = append(names, name)
	}
	r.mu.Unlock()

	sort.Strings(names)
	states := make(map[string]string, len(names))
	for _, name := range names {
		states[name] = r.Get(name).State().String()
	}
	return states
}

// HostKey returns the lower-cased host of rawURL, or "unknown".
func HostKey(rawURL string) string {
	u, err := url.Parse(rawURL)
	if err != nil || u.Hostname() == "" {
		return "unknown"
	}
	return strings.ToLower(u.Hostname())
}
