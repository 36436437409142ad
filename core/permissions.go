package core

import (
	"context"
	"fmt"
	"strconv"
	"strings"
	"sync"
)

// PermissionIndex is the in-memory grant set plus the handler catalog used to
// validate new grants. Check is the request hot path: RLock and one map probe
// on a pre-concatenated key. Grant and Revoke persist to the backing store
// before touching memory, so a failed write never leaves an unpersisted grant
// visible and a confirmed write is always reflected.
type PermissionIndex struct {
	store GrantStore

	mu      sync.RWMutex
	grants  map[string]struct{}
	catalog map[string]struct{}
}

func NewPermissionIndex(store GrantStore) (*PermissionIndex, error) {
	if store == nil {
		return nil, fmt.Errorf("core: grant store is required")
	}
	return &PermissionIndex{
		store:   store,
		grants:  map[string]struct{}{},
		catalog: map[string]struct{}{},
	}, nil
}

// Load bulk-queries grants and the handler catalog and swaps both sets in
// atomically. On failure the previous sets are retained.
func (p *PermissionIndex) Load(ctx context.Context) error {
	if p == nil || p.store == nil {
		return fmt.Errorf("core: permission index is not configured")
	}
	grantRows, err := p.store.QueryGrants(ctx)
	if err != nil {
		return fmt.Errorf("core: load grants: %w", err)
	}
	catalogRows, err := p.store.QueryCatalog(ctx)
	if err != nil {
		return fmt.Errorf("core: load handler catalog: %w", err)
	}

	nextGrants := make(map[string]struct{}, len(grantRows))
	for _, row := range grantRows {
		entry, err := normalizePermission(row)
		if err != nil {
			return err
		}
		nextGrants[entry.Key()] = struct{}{}
	}
	nextCatalog := make(map[string]struct{}, len(catalogRows))
	for _, row := range catalogRows {
		group := strings.TrimSpace(row.Group)
		name := strings.TrimSpace(row.Name)
		if group == "" || name == "" {
			return fmt.Errorf("core: catalog entry with empty group or name")
		}
		nextCatalog[catalogKey(group, name)] = struct{}{}
	}

	p.mu.Lock()
	p.grants = nextGrants
	p.catalog = nextCatalog
	p.mu.Unlock()
	return nil
}

// Check answers the default-deny membership question. Empty identifiers and
// non-positive profiles are denied without consulting the set.
func (p *PermissionIndex) Check(profile int64, group string, name string) bool {
	if p == nil || profile <= 0 || group == "" || name == "" {
		return false
	}
	key := permissionKey(profile, group, name)
	p.mu.RLock()
	_, ok := p.grants[key]
	p.mu.RUnlock()
	return ok
}

// Grant persists the triple, then adds it to the in-memory set. It reports
// false without error when the group/name pair is not in the handler catalog.
// Granting an existing permission is an idempotent success.
func (p *PermissionIndex) Grant(ctx context.Context, profile int64, group string, name string) (bool, error) {
	if p == nil || p.store == nil {
		return false, fmt.Errorf("core: permission index is not configured")
	}
	entry, err := normalizePermission(PermissionEntry{Profile: profile, Group: group, Name: name})
	if err != nil {
		return false, err
	}

	p.mu.RLock()
	_, known := p.catalog[catalogKey(entry.Group, entry.Name)]
	p.mu.RUnlock()
	if !known {
		return false, nil
	}

	// Durable write first; rows==0 means the grant already existed, which is
	// still a success and must still be reflected in memory.
	if _, err := p.store.InsertGrant(ctx, entry); err != nil {
		return false, fmt.Errorf("core: persist grant: %w", err)
	}

	p.mu.Lock()
	p.grants[entry.Key()] = struct{}{}
	p.mu.Unlock()
	return true, nil
}

// Revoke deletes the triple durably, then removes it from memory. A delete
// that touched no rows reports (false, nil): nothing changed.
func (p *PermissionIndex) Revoke(ctx context.Context, profile int64, group string, name string) (bool, error) {
	if p == nil || p.store == nil {
		return false, fmt.Errorf("core: permission index is not configured")
	}
	entry, err := normalizePermission(PermissionEntry{Profile: profile, Group: group, Name: name})
	if err != nil {
		return false, err
	}

	rows, err := p.store.DeleteGrant(ctx, entry)
	if err != nil {
		return false, fmt.Errorf("core: delete grant: %w", err)
	}
	if rows == 0 {
		return false, nil
	}

	p.mu.Lock()
	delete(p.grants, entry.Key())
	p.mu.Unlock()
	return true, nil
}

// InCatalog reports whether the group/name pair is a known handler method.
func (p *PermissionIndex) InCatalog(group string, name string) bool {
	if p == nil {
		return false
	}
	p.mu.RLock()
	_, ok := p.catalog[catalogKey(strings.TrimSpace(group), strings.TrimSpace(name))]
	p.mu.RUnlock()
	return ok
}

// Size reports the number of loaded grants.
func (p *PermissionIndex) Size() int {
	if p == nil {
		return 0
	}
	p.mu.RLock()
	defer p.mu.RUnlock()
	return len(p.grants)
}

func normalizePermission(entry PermissionEntry) (PermissionEntry, error) {
	entry.Group = strings.TrimSpace(entry.Group)
	entry.Name = strings.TrimSpace(entry.Name)
	if entry.Profile <= 0 {
		return PermissionEntry{}, fmt.Errorf("core: permission profile is required")
	}
	if entry.Group == "" || entry.Name == "" {
		return PermissionEntry{}, fmt.Errorf("core: permission group and name are required")
	}
	return entry, nil
}

func permissionKey(profile int64, group string, name string) string {
	return strconv.FormatInt(profile, 10) + ":" + group + ":" + name
}

func catalogKey(group string, name string) string {
	return group + ":" + name
}
