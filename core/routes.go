package core

import (
	"context"
	"fmt"
	"sort"
	"strconv"
	"strings"
	"sync"
)

// RouteTable holds the transaction code to handler mapping. Reads are
// RLock-only on the request hot path; Load replaces the whole map so readers
// never observe a half-built table.
type RouteTable struct {
	store RouteStore

	mu     sync.RWMutex
	routes map[int]TransactionRoute
}

func NewRouteTable(store RouteStore) (*RouteTable, error) {
	if store == nil {
		return nil, fmt.Errorf("core: route store is required")
	}
	return &RouteTable{
		store:  store,
		routes: map[int]TransactionRoute{},
	}, nil
}

// Load queries the full route set and swaps it in wholesale. On query or
// validation failure the previous table is retained and the error propagates
// so the boot sequence (or an operator-triggered reload) can fail loudly.
func (t *RouteTable) Load(ctx context.Context) error {
	if t == nil || t.store == nil {
		return fmt.Errorf("core: route table is not configured")
	}
	rows, err := t.store.QueryRoutes(ctx)
	if err != nil {
		return fmt.Errorf("core: load routes: %w", err)
	}

	next := make(map[int]TransactionRoute, len(rows))
	for _, row := range rows {
		route := TransactionRoute{
			Code:  row.Code,
			Group: strings.TrimSpace(row.Group),
			Name:  strings.TrimSpace(row.Name),
		}
		if err := route.Validate(); err != nil {
			return fmt.Errorf("core: route %d: %w", route.Code, err)
		}
		if _, exists := next[route.Code]; exists {
			return fmt.Errorf("core: duplicate transaction code %d", route.Code)
		}
		next[route.Code] = route
	}

	t.mu.Lock()
	t.routes = next
	t.mu.Unlock()
	return nil
}

// Resolve looks up the route for a transaction code. Unknown codes report a
// miss; they never panic or error.
func (t *RouteTable) Resolve(code int) (TransactionRoute, bool) {
	if t == nil {
		return TransactionRoute{}, false
	}
	t.mu.RLock()
	route, ok := t.routes[code]
	t.mu.RUnlock()
	return route, ok
}

// ResolveString accepts the raw transaction code as it arrives on the wire.
// Non-numeric input is a miss, not an error.
func (t *RouteTable) ResolveString(raw string) (TransactionRoute, bool) {
	code, err := strconv.Atoi(strings.TrimSpace(raw))
	if err != nil {
		return TransactionRoute{}, false
	}
	return t.Resolve(code)
}

// Len reports the number of loaded routes.
func (t *RouteTable) Len() int {
	if t == nil {
		return 0
	}
	t.mu.RLock()
	defer t.mu.RUnlock()
	return len(t.routes)
}

// List returns the loaded routes ordered by code.
func (t *RouteTable) List() []TransactionRoute {
	if t == nil {
		return nil
	}
	t.mu.RLock()
	out := make([]TransactionRoute, 0, len(t.routes))
	for _, route := range t.routes {
		out = append(out, route)
	}
	t.mu.RUnlock()
	sort.Slice(out, func(i, j int) bool { return out[i].Code < out[j].Code })
	return out
}
