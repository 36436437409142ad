package core

import (
	"fmt"
	"sort"
	"strings"
	"sync"
)

// HandlerRegistry maps handler group names to factories. Groups are
// registered at startup; there is no runtime filesystem introspection.
type HandlerRegistry struct {
	mu        sync.RWMutex
	factories map[string]HandlerFactory
}

func NewHandlerRegistry() *HandlerRegistry {
	return &HandlerRegistry{factories: make(map[string]HandlerFactory)}
}

func (r *HandlerRegistry) Register(group string, factory HandlerFactory) error {
	if r == nil {
		return fmt.Errorf("core: handler registry is nil")
	}
	if factory == nil {
		return fmt.Errorf("core: handler factory is nil")
	}
	id := strings.TrimSpace(group)
	if id == "" {
		return fmt.Errorf("core: handler group is required")
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, exists := r.factories[id]; exists {
		return fmt.Errorf("core: handler group already registered: %s", id)
	}
	r.factories[id] = factory
	return nil
}

func (r *HandlerRegistry) Get(group string) (HandlerFactory, bool) {
	if r == nil {
		return nil, false
	}
	id := strings.TrimSpace(group)
	if id == "" {
		return nil, false
	}
	r.mu.RLock()
	factory, ok := r.factories[id]
	r.mu.RUnlock()
	return factory, ok
}

func (r *HandlerRegistry) Groups() []string {
	if r == nil {
		return nil
	}
	r.mu.RLock()
	groups := make([]string, 0, len(r.factories))
	for id := range r.factories {
		groups = append(groups, id)
	}
	r.mu.RUnlock()
	sort.Strings(groups)
	return groups
}
