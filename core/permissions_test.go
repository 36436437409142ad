package core

import (
	"context"
	"errors"
	"testing"
)

type stubGrantStore struct {
	grants  []PermissionEntry
	catalog []CatalogEntry

	insertErr  error
	insertRows int64
	inserted   []PermissionEntry

	deleteErr  error
	deleteRows int64
	deleted    []PermissionEntry
}

func (s *stubGrantStore) QueryGrants(context.Context) ([]PermissionEntry, error) {
	return s.grants, nil
}

func (s *stubGrantStore) QueryCatalog(context.Context) ([]CatalogEntry, error) {
	return s.catalog, nil
}

func (s *stubGrantStore) InsertGrant(_ context.Context, entry PermissionEntry) (int64, error) {
	if s.insertErr != nil {
		return 0, s.insertErr
	}
	s.inserted = append(s.inserted, entry)
	return s.insertRows, nil
}

func (s *stubGrantStore) DeleteGrant(_ context.Context, entry PermissionEntry) (int64, error) {
	if s.deleteErr != nil {
		return 0, s.deleteErr
	}
	s.deleted = append(s.deleted, entry)
	return s.deleteRows, nil
}

func newLoadedIndex(t *testing.T, store *stubGrantStore) *PermissionIndex {
	t.Helper()
	index, err := NewPermissionIndex(store)
	if err != nil {
		t.Fatalf("NewPermissionIndex returned error: %v", err)
	}
	if err := index.Load(context.Background()); err != nil {
		t.Fatalf("Load returned error: %v", err)
	}
	return index
}

func TestPermissionIndex_DefaultDeny(t *testing.T) {
	store := &stubGrantStore{
		grants:  []PermissionEntry{{Profile: 1, Group: "Auth", Name: "login"}},
		catalog: []CatalogEntry{{Group: "Auth", Name: "login"}},
	}
	index := newLoadedIndex(t, store)

	if !index.Check(1, "Auth", "login") {
		t.Fatal("expected granted triple to pass")
	}
	if index.Check(2, "Auth", "login") {
		t.Fatal("profile without grant must be denied")
	}
	if index.Check(1, "Auth", "logout") {
		t.Fatal("ungranted method must be denied")
	}
	if index.Check(0, "Auth", "login") || index.Check(-1, "Auth", "login") {
		t.Fatal("non-positive profiles must be denied")
	}
	if index.Check(1, "", "login") || index.Check(1, "Auth", "") {
		t.Fatal("empty identifiers must be denied")
	}
}

func TestPermissionIndex_GrantWritesStoreThenMemory(t *testing.T) {
	store := &stubGrantStore{
		catalog:    []CatalogEntry{{Group: "Auth", Name: "login"}},
		insertRows: 1,
	}
	index := newLoadedIndex(t, store)

	ok, err := index.Grant(context.Background(), 3, "Auth", "login")
	if err != nil {
		t.Fatalf("Grant returned error: %v", err)
	}
	if !ok {
		t.Fatal("expected grant to succeed")
	}
	if len(store.inserted) != 1 {
		t.Fatalf("expected one durable write, got %d", len(store.inserted))
	}
	if !index.Check(3, "Auth", "login") {
		t.Fatal("grant must be visible immediately after success")
	}
}

func TestPermissionIndex_GrantIdempotentOnExistingRow(t *testing.T) {
	store := &stubGrantStore{
		grants:     []PermissionEntry{{Profile: 3, Group: "Auth", Name: "login"}},
		catalog:    []CatalogEntry{{Group: "Auth", Name: "login"}},
		insertRows: 0,
	}
	index := newLoadedIndex(t, store)

	ok, err := index.Grant(context.Background(), 3, "Auth", "login")
	if err != nil {
		t.Fatalf("Grant returned error: %v", err)
	}
	if !ok {
		t.Fatal("re-granting an existing permission is still a success")
	}
	if !index.Check(3, "Auth", "login") {
		t.Fatal("grant must remain visible")
	}
}

func TestPermissionIndex_GrantRejectedOutsideCatalog(t *testing.T) {
	store := &stubGrantStore{catalog: []CatalogEntry{{Group: "Auth", Name: "login"}}, insertRows: 1}
	index := newLoadedIndex(t, store)

	ok, err := index.Grant(context.Background(), 3, "Auth", "selfdestruct")
	if err != nil {
		t.Fatalf("Grant returned error: %v", err)
	}
	if ok {
		t.Fatal("grant outside the handler catalog must be rejected")
	}
	if len(store.inserted) != 0 {
		t.Fatal("rejected grant must not reach the store")
	}
	if index.Check(3, "Auth", "selfdestruct") {
		t.Fatal("rejected grant must not be visible")
	}
}

func TestPermissionIndex_GrantFailedWriteLeavesMemoryUntouched(t *testing.T) {
	store := &stubGrantStore{
		catalog:   []CatalogEntry{{Group: "Auth", Name: "login"}},
		insertErr: errors.New("db gone"),
	}
	index := newLoadedIndex(t, store)

	ok, err := index.Grant(context.Background(), 3, "Auth", "login")
	if err == nil {
		t.Fatal("expected write error to propagate")
	}
	if ok {
		t.Fatal("failed grant must not report success")
	}
	if index.Check(3, "Auth", "login") {
		t.Fatal("failed write must not appear in memory")
	}
}

func TestPermissionIndex_RevokeRoundTrip(t *testing.T) {
	store := &stubGrantStore{
		grants:     []PermissionEntry{{Profile: 1, Group: "Auth", Name: "login"}},
		catalog:    []CatalogEntry{{Group: "Auth", Name: "login"}},
		deleteRows: 1,
	}
	index := newLoadedIndex(t, store)

	ok, err := index.Revoke(context.Background(), 1, "Auth", "login")
	if err != nil {
		t.Fatalf("Revoke returned error: %v", err)
	}
	if !ok {
		t.Fatal("expected revoke to report a change")
	}
	if index.Check(1, "Auth", "login") {
		t.Fatal("revoked grant must be denied immediately")
	}
}

func TestPermissionIndex_RevokeNonexistentIsNoop(t *testing.T) {
	store := &stubGrantStore{deleteRows: 0}
	index := newLoadedIndex(t, store)

	ok, err := index.Revoke(context.Background(), 5, "Auth", "login")
	if err != nil {
		t.Fatalf("Revoke returned error: %v", err)
	}
	if ok {
		t.Fatal("revoking a missing grant must report no change")
	}
}

func TestPermissionIndex_RevokeFailedDeleteKeepsGrant(t *testing.T) {
	store := &stubGrantStore{
		grants:    []PermissionEntry{{Profile: 1, Group: "Auth", Name: "login"}},
		catalog:   []CatalogEntry{{Group: "Auth", Name: "login"}},
		deleteErr: errors.New("db gone"),
	}
	index := newLoadedIndex(t, store)

	if _, err := index.Revoke(context.Background(), 1, "Auth", "login"); err == nil {
		t.Fatal("expected delete error to propagate")
	}
	if !index.Check(1, "Auth", "login") {
		t.Fatal("failed delete must leave the grant visible")
	}
}

func TestPermissionIndex_InvalidTriplesError(t *testing.T) {
	store := &stubGrantStore{catalog: []CatalogEntry{{Group: "Auth", Name: "login"}}}
	index := newLoadedIndex(t, store)

	cases := []struct {
		profile int64
		group   string
		name    string
	}{
		{0, "Auth", "login"},
		{-2, "Auth", "login"},
		{1, "", "login"},
		{1, "Auth", "  "},
	}
	for _, tc := range cases {
		if _, err := index.Grant(context.Background(), tc.profile, tc.group, tc.name); err == nil {
			t.Fatalf("expected error for grant %+v", tc)
		}
		if _, err := index.Revoke(context.Background(), tc.profile, tc.group, tc.name); err == nil {
			t.Fatalf("expected error for revoke %+v", tc)
		}
	}
}

func TestPermissionIndex_InCatalogAndSize(t *testing.T) {
	store := &stubGrantStore{
		grants: []PermissionEntry{
			{Profile: 1, Group: "Auth", Name: "login"},
			{Profile: 2, Group: "Accounts", Name: "balance"},
		},
		catalog: []CatalogEntry{
			{Group: "Auth", Name: "login"},
			{Group: "Accounts", Name: "balance"},
		},
	}
	index := newLoadedIndex(t, store)

	if !index.InCatalog("Auth", "login") {
		t.Fatal("expected catalog hit")
	}
	if index.InCatalog("Auth", "logout") {
		t.Fatal("expected catalog miss")
	}
	if index.Size() != 2 {
		t.Fatalf("expected 2 grants, got %d", index.Size())
	}
}
