package core

import (
	"context"
	"sync"
	"testing"
)

type spyMetrics struct {
	mu       sync.Mutex
	counters map[string]int64
	tags     map[string]map[string]string
}

func newSpyMetrics() *spyMetrics {
	return &spyMetrics{counters: map[string]int64{}, tags: map[string]map[string]string{}}
}

func (s *spyMetrics) IncCounter(_ context.Context, name string, value int64, tags map[string]string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.counters[name] += value
	s.tags[name] = tags
}

func (s *spyMetrics) ObserveHistogram(context.Context, string, float64, map[string]string) {}

func (s *spyMetrics) count(name string) int64 {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.counters[name]
}

func TestAuthorizer_GrantAllowsDeny(t *testing.T) {
	store := &stubGrantStore{
		grants:  []PermissionEntry{{Profile: 1, Group: "Auth", Name: "login"}},
		catalog: []CatalogEntry{{Group: "Auth", Name: "login"}},
	}
	index := newLoadedIndex(t, store)
	metrics := newSpyMetrics()
	authorizer, err := NewAuthorizer(index, nil, metrics)
	if err != nil {
		t.Fatalf("NewAuthorizer returned error: %v", err)
	}

	one := int64(1)
	two := int64(2)
	if !authorizer.IsAuthorized(context.Background(), &one, "Auth", "login") {
		t.Fatal("granted profile must be authorized")
	}
	if authorizer.IsAuthorized(context.Background(), &two, "Auth", "login") {
		t.Fatal("ungranted profile must be denied")
	}
	if metrics.count("txdispatch.authorize.denied.total") != 1 {
		t.Fatal("denial must be counted")
	}
}

func TestAuthorizer_NilProfileDenied(t *testing.T) {
	store := &stubGrantStore{
		grants:  []PermissionEntry{{Profile: 1, Group: "Auth", Name: "login"}},
		catalog: []CatalogEntry{{Group: "Auth", Name: "login"}},
	}
	index := newLoadedIndex(t, store)
	metrics := newSpyMetrics()
	authorizer, _ := NewAuthorizer(index, nil, metrics)

	if authorizer.IsAuthorized(context.Background(), nil, "Auth", "login") {
		t.Fatal("nil profile must be denied before the index is consulted")
	}
	if metrics.count("txdispatch.authorize.denied.total") != 1 {
		t.Fatal("denial must be counted")
	}
}

func TestNewAuthorizer_RequiresIndex(t *testing.T) {
	if _, err := NewAuthorizer(nil, nil, nil); err == nil {
		t.Fatal("expected error for nil index")
	}
}
