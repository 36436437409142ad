package sqlstore

import (
	"context"
	"fmt"

	repositorycache "github.com/goliatone/go-repository-cache/cache"
	"github.com/goliatone/go-txdispatch/core"
)

const (
	grantsCacheKey  = "go-txdispatch::grants::v1"
	catalogCacheKey = "go-txdispatch::catalog::v1"
)

// GrantCatalogStore is the base surface the cached wrapper needs: the grant
// contract plus catalog registration.
type GrantCatalogStore interface {
	core.GrantStore
	RegisterHandler(ctx context.Context, entry core.CatalogEntry, description string) error
}

// CachedGrantStore wraps a GrantStore with a read-through cache over the two
// bulk reads the permission index performs on reload. Mutations write through
// to the base store and then drop the grants key, so the next reload observes
// the change. The catalog key is never invalidated by grant mutations; it only
// changes when handlers are registered.
type CachedGrantStore struct {
	base  GrantCatalogStore
	cache repositorycache.CacheService
}

func NewCachedGrantStore(base GrantCatalogStore, cacheService repositorycache.CacheService) (*CachedGrantStore, error) {
	if base == nil {
		return nil, fmt.Errorf("sqlstore: base grant store is required")
	}
	if cacheService == nil {
		return nil, fmt.Errorf("sqlstore: grant cache service is required")
	}
	return &CachedGrantStore{base: base, cache: cacheService}, nil
}

func (s *CachedGrantStore) QueryGrants(ctx context.Context) ([]core.PermissionEntry, error) {
	if s == nil || s.base == nil || s.cache == nil {
		return nil, fmt.Errorf("sqlstore: cached grant store is not configured")
	}
	return repositorycache.GetOrFetch(ctx, s.cache, grantsCacheKey, func(ctx context.Context) ([]core.PermissionEntry, error) {
		return s.base.QueryGrants(ctx)
	})
}

func (s *CachedGrantStore) QueryCatalog(ctx context.Context) ([]core.CatalogEntry, error) {
	if s == nil || s.base == nil || s.cache == nil {
		return nil, fmt.Errorf("sqlstore: cached grant store is not configured")
	}
	return repositorycache.GetOrFetch(ctx, s.cache, catalogCacheKey, func(ctx context.Context) ([]core.CatalogEntry, error) {
		return s.base.QueryCatalog(ctx)
	})
}

func (s *CachedGrantStore) InsertGrant(ctx context.Context, entry core.PermissionEntry) (int64, error) {
	if s == nil || s.base == nil || s.cache == nil {
		return 0, fmt.Errorf("sqlstore: cached grant store is not configured")
	}
	rows, err := s.base.InsertGrant(ctx, entry)
	if err != nil {
		return 0, err
	}
	if err := s.cache.Delete(ctx, grantsCacheKey); err != nil {
		return 0, err
	}
	return rows, nil
}

func (s *CachedGrantStore) DeleteGrant(ctx context.Context, entry core.PermissionEntry) (int64, error) {
	if s == nil || s.base == nil || s.cache == nil {
		return 0, fmt.Errorf("sqlstore: cached grant store is not configured")
	}
	rows, err := s.base.DeleteGrant(ctx, entry)
	if err != nil {
		return 0, err
	}
	if err := s.cache.Delete(ctx, grantsCacheKey); err != nil {
		return 0, err
	}
	return rows, nil
}

// RegisterHandler writes through and drops the catalog key.
func (s *CachedGrantStore) RegisterHandler(ctx context.Context, entry core.CatalogEntry, description string) error {
	if s == nil || s.base == nil || s.cache == nil {
		return fmt.Errorf("sqlstore: cached grant store is not configured")
	}
	if err := s.base.RegisterHandler(ctx, entry, description); err != nil {
		return err
	}
	return s.cache.Delete(ctx, catalogCacheKey)
}

var _ core.GrantStore = (*CachedGrantStore)(nil)

var _ GrantCatalogStore = (*GrantStore)(nil)
