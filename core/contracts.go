package core

import (
	"context"

	glog "github.com/goliatone/go-logger/glog"
)

// RouteStore supplies the full transaction route set from the backing store.
type RouteStore interface {
	QueryRoutes(ctx context.Context) ([]TransactionRoute, error)
}

// GrantStore persists permission triples and exposes the handler catalog the
// grants are validated against. InsertGrant must be idempotent; both mutators
// report the number of rows actually changed.
type GrantStore interface {
	QueryGrants(ctx context.Context) ([]PermissionEntry, error)
	QueryCatalog(ctx context.Context) ([]CatalogEntry, error)
	InsertGrant(ctx context.Context, entry PermissionEntry) (int64, error)
	DeleteGrant(ctx context.Context, entry PermissionEntry) (int64, error)
}

// AuditSink receives dispatch audit events. Implementations are best-effort
// from the dispatcher's point of view: errors are logged and swallowed.
type AuditSink interface {
	Log(ctx context.Context, event AuditEvent) error
}

// AuditTrailReader pages through recorded audit events, newest first.
type AuditTrailReader interface {
	ListAuditTrail(ctx context.Context, filter AuditTrailFilter) (AuditTrailPage, error)
}

// HandlerFunc is one invocable business operation.
type HandlerFunc func(ctx context.Context, params map[string]any) (any, error)

// Handler is a constructed handler-group instance. Method resolution happens
// per dispatch; construction happens once per group.
type Handler interface {
	Method(name string) (HandlerFunc, bool)
}

// MethodMap is the common Handler implementation for groups whose methods are
// known at registration time.
type MethodMap map[string]HandlerFunc

func (m MethodMap) Method(name string) (HandlerFunc, bool) {
	fn, ok := m[name]
	return fn, ok
}

// HandlerFactory builds a handler-group instance, wiring its own
// dependencies. Construction may be expensive; the loader caches the result
// for the process lifetime.
type HandlerFactory func(ctx context.Context) (Handler, error)

// Registry resolves a handler group to its factory.
type Registry interface {
	Register(group string, factory HandlerFactory) error
	Get(group string) (HandlerFactory, bool)
	Groups() []string
}

type Logger = glog.Logger

type LoggerProvider = glog.LoggerProvider

type FieldsLogger = glog.FieldsLogger

// MetricsRecorder mirrors the recorder contract used across goliatone
// services; a nop implementation is installed when none is provided.
type MetricsRecorder interface {
	IncCounter(ctx context.Context, name string, value int64, tags map[string]string)
	ObserveHistogram(ctx context.Context, name string, value float64, tags map[string]string)
}

// StoreProvider exposes the stores a repository factory builds.
type StoreProvider interface {
	RouteStore() RouteStore
	GrantStore() GrantStore
	AuditStore() AuditSink
}

// RepositoryStoreFactory builds stores from a persistence client or bun DB.
type RepositoryStoreFactory interface {
	BuildStores(persistenceClient any) (StoreProvider, error)
}
