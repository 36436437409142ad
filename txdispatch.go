package txdispatch

import "github.com/goliatone/go-txdispatch/core"

type Config = core.Config

type ReloadConfig = core.ReloadConfig

type Option = core.Option

type Service = core.Service

type ServiceDependencies = core.ServiceDependencies
type RouteStore = core.RouteStore
type GrantStore = core.GrantStore
type AuditSink = core.AuditSink
type AuditTrailReader = core.AuditTrailReader
type Registry = core.Registry
type Handler = core.Handler
type HandlerFactory = core.HandlerFactory
type MethodMap = core.MethodMap
type ReloadBackoffScheduler = core.ReloadBackoffScheduler
type ReloadRunOptions = core.ReloadRunOptions
type ReloadRunResult = core.ReloadRunResult

type TransactionRoute = core.TransactionRoute
type SecurityContext = core.SecurityContext
type DispatchResult = core.DispatchResult
type Envelope = core.Envelope

type AuditEvent = core.AuditEvent
type AuditTrailFilter = core.AuditTrailFilter
type AuditTrailPage = core.AuditTrailPage
type PermissionEntry = core.PermissionEntry
type CatalogEntry = core.CatalogEntry

var (
	WithLogger                 = core.WithLogger
	WithLoggerProvider         = core.WithLoggerProvider
	WithMetricsRecorder        = core.WithMetricsRecorder
	WithErrorFactory           = core.WithErrorFactory
	WithErrorMapper            = core.WithErrorMapper
	WithPersistenceClient      = core.WithPersistenceClient
	WithRepositoryFactory      = core.WithRepositoryFactory
	WithConfigProvider         = core.WithConfigProvider
	WithOptionsResolver        = core.WithOptionsResolver
	WithReloadBackoffScheduler = core.WithReloadBackoffScheduler
	WithRegistry               = core.WithRegistry
	WithRouteStore             = core.WithRouteStore
	WithGrantStore             = core.WithGrantStore
	WithAuditSink              = core.WithAuditSink
	WithAuditTrailReader       = core.WithAuditTrailReader
	WithHandlerManifestFS      = core.WithHandlerManifestFS
)

func DefaultConfig() Config {
	return core.DefaultConfig()
}

func NewService(cfg Config, opts ...Option) (*Service, error) {
	return core.NewService(cfg, opts...)
}

func Setup(cfg Config, opts ...Option) (*Service, error) {
	return core.Setup(cfg, opts...)
}
