package sqlstore

import (
	"fmt"

	persistence "github.com/goliatone/go-persistence-bun"
	"github.com/goliatone/go-txdispatch/core"
	"github.com/uptrace/bun"
)

type RepositoryFactory struct {
	db *bun.DB

	routeStore *RouteStore
	grantStore *GrantStore
	auditStore *AuditStore
}

func NewRepositoryFactory() *RepositoryFactory {
	return &RepositoryFactory{}
}

func NewRepositoryFactoryFromPersistence(client *persistence.Client) (*RepositoryFactory, error) {
	factory := NewRepositoryFactory()
	if _, err := factory.BuildStores(client); err != nil {
		return nil, err
	}
	return factory, nil
}

func NewRepositoryFactoryFromDB(db *bun.DB) (*RepositoryFactory, error) {
	factory := NewRepositoryFactory()
	if _, err := factory.BuildStores(db); err != nil {
		return nil, err
	}
	return factory, nil
}

func (f *RepositoryFactory) BuildStores(persistenceClient any) (core.StoreProvider, error) {
	if f == nil {
		return nil, fmt.Errorf("sqlstore: repository factory is nil")
	}
	if f.db == nil {
		db, err := resolveBunDB(persistenceClient)
		if err != nil {
			return nil, err
		}
		f.db = db
	}
	if f.routeStore != nil && f.grantStore != nil && f.auditStore != nil {
		return f, nil
	}
	if err := f.initStores(); err != nil {
		return nil, err
	}
	return f, nil
}

func (f *RepositoryFactory) RouteStore() core.RouteStore {
	if f == nil {
		return nil
	}
	return f.routeStore
}

func (f *RepositoryFactory) GrantStore() core.GrantStore {
	if f == nil {
		return nil
	}
	return f.grantStore
}

func (f *RepositoryFactory) AuditStore() core.AuditSink {
	if f == nil {
		return nil
	}
	return f.auditStore
}

// AuditTrailStore exposes the concrete store for wiring the paged reader.
func (f *RepositoryFactory) AuditTrailStore() *AuditStore {
	if f == nil {
		return nil
	}
	return f.auditStore
}

// SQLRouteStore exposes the concrete store for seeding and admin flows.
func (f *RepositoryFactory) SQLRouteStore() *RouteStore {
	if f == nil {
		return nil
	}
	return f.routeStore
}

// SQLGrantStore exposes the concrete store for catalog registration.
func (f *RepositoryFactory) SQLGrantStore() *GrantStore {
	if f == nil {
		return nil
	}
	return f.grantStore
}

func (f *RepositoryFactory) DB() *bun.DB {
	if f == nil {
		return nil
	}
	return f.db
}

func (f *RepositoryFactory) initStores() error {
	routeStore, err := NewRouteStore(f.db)
	if err != nil {
		return err
	}
	f.routeStore = routeStore
	grantStore, err := NewGrantStore(f.db)
	if err != nil {
		return err
	}
	f.grantStore = grantStore
	auditStore, err := NewAuditStore(f.db)
	if err != nil {
		return err
	}
	f.auditStore = auditStore
	return nil
}

func resolveBunDB(candidate any) (*bun.DB, error) {
	switch typed := candidate.(type) {
	case nil:
		return nil, fmt.Errorf("sqlstore: persistence client is required")
	case *bun.DB:
		return typed, nil
	case interface{ DB() *bun.DB }:
		db := typed.DB()
		if db == nil {
			return nil, fmt.Errorf("sqlstore: persistence client returned nil bun db")
		}
		return db, nil
	default:
		return nil, fmt.Errorf("sqlstore: unsupported persistence client type %T", candidate)
	}
}
