package sso

import (
	"sort"
	"sync"

	"github.com/baechuer/sso-service/internal/domain"
)

// Registry holds the strategies the HTTP layer can route to, keyed by name.
// It performs no auth logic itself.
type Registry struct {
	mu         sync.RWMutex
	strategies map[string]*Strategy
}

func NewRegistry() *Registry {
	return &Registry{strategies: make(map[string]*Strategy)}
}

// Register adds s. Names must be unique.
func (r *Registry) Register(s *Strategy) error {
	if s == nil {
		return domain.ErrMissingField("strategy")
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	if _, exists := r.strategies[s.Name()]; exists {
		return domain.ErrStrategyAlreadyRegistered(s.Name())
	}
	r.strategies[s.Name()] = s
	return nil
}

// Get returns the strategy registered under name.
func (r *Registry) Get(name string) (*Strategy, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	s, ok := r.strategies[name]
	if !ok {
		return nil, domain.ErrUnknownProvider(name)
	}
	return s, nil
}

func (r *Registry) Names() []string {
	r.mu.RLock()
	defer r.mu.RUnlock()

	names := make([]string, 0, len(r.strategies))
	for n := range r.strategies {
		names = append(names, n)
	}
	sort.Strings(names)
	return names
}

func (r *Registry) Len() int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return len(r.strategies)
}
