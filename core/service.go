package core

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"time"

	goerrors "github.com/goliatone/go-errors"
	glog "github.com/goliatone/go-logger/glog"
)

// Service owns the dispatch pipeline's long-lived state: route table,
// permission index, authorizer, and handler loader. It is built by explicit
// construction and passed by reference to whatever serves requests; there is
// no ambient global container.
type Service struct {
	config            Config
	logger            Logger
	loggerProvider    LoggerProvider
	metricsRecorder   MetricsRecorder
	errorFactory      ErrorFactory
	errorMapper       ErrorMapper
	persistenceClient any
	repositoryFactory any
	configProvider    ConfigProvider
	optionsResolver   OptionsResolver
	reloadScheduler   ReloadBackoffScheduler
	registry          Registry
	routeStore        RouteStore
	grantStore        GrantStore
	auditSink         AuditSink
	auditReader       AuditTrailReader

	routes      *RouteTable
	permissions *PermissionIndex
	authorizer  *Authorizer
	loader      *HandlerLoader
}

type ServiceDependencies struct {
	Logger            Logger
	LoggerProvider    LoggerProvider
	MetricsRecorder   MetricsRecorder
	ErrorFactory      ErrorFactory
	ErrorMapper       ErrorMapper
	PersistenceClient any
	RepositoryFactory any
	ConfigProvider    ConfigProvider
	OptionsResolver   OptionsResolver
	ReloadScheduler   ReloadBackoffScheduler
	Registry          Registry
	RouteStore        RouteStore
	GrantStore        GrantStore
	AuditSink         AuditSink
	AuditReader       AuditTrailReader
}

func NewService(cfg Config, options ...Option) (*Service, error) {
	builder := defaultServiceBuilder(cfg)
	for _, opt := range options {
		if opt == nil {
			continue
		}
		opt(&builder)
	}

	provider, logger := glog.Resolve("txdispatch", builder.loggerProvider, builder.logger)
	logger = glog.Ensure(logger)
	if provider != nil {
		if named := provider.GetLogger("txdispatch"); named != nil {
			logger = glog.Ensure(named)
		}
	}

	if builder.errorFactory == nil {
		builder.errorFactory = goerrors.New
	}
	if builder.errorMapper == nil {
		builder.errorMapper = dispatchErrorMapper
	}
	if builder.metricsRecorder == nil {
		builder.metricsRecorder = NopMetricsRecorder{}
	}
	if builder.configProvider == nil {
		builder.configProvider = NewCfgxConfigProvider(nil)
	}
	if builder.optionsResolver == nil {
		builder.optionsResolver = GoOptionsResolver{}
	}
	if builder.registry == nil {
		builder.registry = NewHandlerRegistry()
	}
	if builder.reloadScheduler == nil {
		builder.reloadScheduler = ExponentialBackoffScheduler{
			Initial: cfg.Reload.InitialBackoff,
			Max:     cfg.Reload.MaxBackoff,
		}
	}

	defaults := DefaultConfig()
	loaded, err := builder.configProvider.Load(context.Background(), defaults)
	if err != nil {
		return nil, fmt.Errorf("core: load config: %w", err)
	}
	resolved, err := builder.optionsResolver.Resolve(defaults, loaded, builder.runtimeConfig)
	if err != nil {
		return nil, fmt.Errorf("core: resolve config: %w", err)
	}

	if err := resolveStores(&builder); err != nil {
		return nil, err
	}
	if builder.routeStore == nil {
		return nil, fmt.Errorf("core: route store is required")
	}
	if builder.grantStore == nil {
		return nil, fmt.Errorf("core: grant store is required")
	}
	if builder.auditSink == nil {
		memory := NewMemoryAuditSink()
		builder.auditSink = memory
		if builder.auditReader == nil {
			builder.auditReader = memory
		}
	}
	if builder.auditReader == nil {
		if reader, ok := builder.auditSink.(AuditTrailReader); ok {
			builder.auditReader = reader
		}
	}

	routes, err := NewRouteTable(builder.routeStore)
	if err != nil {
		return nil, err
	}
	permissions, err := NewPermissionIndex(builder.grantStore)
	if err != nil {
		return nil, err
	}
	authorizer, err := NewAuthorizer(permissions, logger, builder.metricsRecorder)
	if err != nil {
		return nil, err
	}
	loaderOpts := []LoaderOption{WithLoaderMetrics(builder.metricsRecorder)}
	if builder.manifestFS != nil {
		loaderOpts = append(loaderOpts, WithManifestFS(builder.manifestFS))
	}
	loader, err := NewHandlerLoader(builder.registry, resolved.HandlerBasePath, logger, loaderOpts...)
	if err != nil {
		return nil, err
	}

	return &Service{
		config:            resolved,
		logger:            logger,
		loggerProvider:    provider,
		metricsRecorder:   builder.metricsRecorder,
		errorFactory:      builder.errorFactory,
		errorMapper:       builder.errorMapper,
		persistenceClient: builder.persistenceClient,
		repositoryFactory: builder.repositoryFactory,
		configProvider:    builder.configProvider,
		optionsResolver:   builder.optionsResolver,
		reloadScheduler:   builder.reloadScheduler,
		registry:          builder.registry,
		routeStore:        builder.routeStore,
		grantStore:        builder.grantStore,
		auditSink:         builder.auditSink,
		auditReader:       builder.auditReader,
		routes:            routes,
		permissions:       permissions,
		authorizer:        authorizer,
		loader:            loader,
	}, nil
}

// Setup builds the service and performs the boot-time loads. A load failure
// here is fatal by design: the process must not serve traffic with an empty
// route table or permission set.
func Setup(cfg Config, options ...Option) (*Service, error) {
	service, err := NewService(cfg, options...)
	if err != nil {
		return nil, err
	}
	ctx := context.Background()
	if err := service.routes.Load(ctx); err != nil {
		return nil, service.mapError(err)
	}
	if err := service.permissions.Load(ctx); err != nil {
		return nil, service.mapError(err)
	}
	return service, nil
}

func resolveStores(builder *serviceBuilder) error {
	if builder.routeStore != nil && builder.grantStore != nil && builder.auditSink != nil {
		return nil
	}
	factory, ok := builder.repositoryFactory.(RepositoryStoreFactory)
	if !ok {
		return nil
	}
	provider, err := factory.BuildStores(builder.persistenceClient)
	if err != nil {
		return fmt.Errorf("core: build stores: %w", err)
	}
	if builder.routeStore == nil {
		builder.routeStore = provider.RouteStore()
	}
	if builder.grantStore == nil {
		builder.grantStore = provider.GrantStore()
	}
	if builder.auditSink == nil {
		builder.auditSink = provider.AuditStore()
	}
	return nil
}

// ResolveRoute looks up the transaction route for a code.
func (s *Service) ResolveRoute(code int) (TransactionRoute, bool) {
	if s == nil || s.routes == nil {
		return TransactionRoute{}, false
	}
	return s.routes.Resolve(code)
}

// ListRoutes returns the loaded route set ordered by code.
func (s *Service) ListRoutes() []TransactionRoute {
	if s == nil {
		return nil
	}
	return s.routes.List()
}

// IsAuthorized answers the default-deny policy question for a request.
func (s *Service) IsAuthorized(ctx context.Context, profileID *int64, group string, name string) bool {
	if s == nil || s.authorizer == nil {
		return false
	}
	return s.authorizer.IsAuthorized(ctx, profileID, group, name)
}

// CheckPermission probes the permission index directly, bypassing the
// denial signal. Intended for administrative reads.
func (s *Service) CheckPermission(profile int64, group string, name string) bool {
	if s == nil || s.permissions == nil {
		return false
	}
	return s.permissions.Check(profile, group, name)
}

// ExecuteHandler resolves and invokes group/name through the loader.
func (s *Service) ExecuteHandler(ctx context.Context, group string, name string, params map[string]any) (any, error) {
	if s == nil || s.loader == nil {
		return nil, s.configError("service")
	}
	out, err := s.loader.Execute(ctx, group, name, params)
	if err != nil {
		return nil, s.mapError(err)
	}
	return out, nil
}

// GrantPermission persists and activates a grant. The boolean mirrors the
// index contract: false with nil error means the grant was rejected because
// the group/name pair is not in the handler catalog.
func (s *Service) GrantPermission(ctx context.Context, profile int64, group string, name string) (bool, error) {
	if s == nil || s.permissions == nil {
		return false, s.configError("service")
	}
	startedAt := time.Now()
	granted, err := s.permissions.Grant(ctx, profile, group, name)
	s.observeOperation(ctx, startedAt, "permission_grant", err, map[string]any{
		"profile_id": profile,
		"group":      group,
		"name":       name,
		"granted":    granted,
	})
	if err != nil {
		return false, s.mapError(err)
	}
	if granted {
		s.recordAudit(ctx, AuditEvent{
			Action:    AuditActionPermissionGranted,
			ProfileID: &profile,
			Group:     group,
			Name:      name,
		})
	}
	return granted, nil
}

// RevokePermission removes a grant. False with nil error means nothing
// changed: the grant did not exist.
func (s *Service) RevokePermission(ctx context.Context, profile int64, group string, name string) (bool, error) {
	if s == nil || s.permissions == nil {
		return false, s.configError("service")
	}
	startedAt := time.Now()
	revoked, err := s.permissions.Revoke(ctx, profile, group, name)
	s.observeOperation(ctx, startedAt, "permission_revoke", err, map[string]any{
		"profile_id": profile,
		"group":      group,
		"name":       name,
		"revoked":    revoked,
	})
	if err != nil {
		return false, s.mapError(err)
	}
	if revoked {
		s.recordAudit(ctx, AuditEvent{
			Action:    AuditActionPermissionRevoked,
			ProfileID: &profile,
			Group:     group,
			Name:      name,
		})
	}
	return revoked, nil
}

// ReloadRoutes replaces the route table wholesale.
func (s *Service) ReloadRoutes(ctx context.Context) error {
	if s == nil || s.routes == nil {
		return s.configError("service")
	}
	startedAt := time.Now()
	err := s.routes.Load(ctx)
	s.observeOperation(ctx, startedAt, "routes_reload", err, map[string]any{
		"route_count": s.routes.Len(),
	})
	if err != nil {
		return s.mapError(err)
	}
	return nil
}

// ReloadPermissions replaces the grant set and handler catalog wholesale.
func (s *Service) ReloadPermissions(ctx context.Context) error {
	if s == nil || s.permissions == nil {
		return s.configError("service")
	}
	startedAt := time.Now()
	err := s.permissions.Load(ctx)
	s.observeOperation(ctx, startedAt, "permissions_reload", err, map[string]any{
		"grant_count": s.permissions.Size(),
	})
	if err != nil {
		return s.mapError(err)
	}
	return nil
}

// AuditTrail pages through recorded audit events.
func (s *Service) AuditTrail(ctx context.Context, filter AuditTrailFilter) (AuditTrailPage, error) {
	if s == nil || s.auditReader == nil {
		return AuditTrailPage{}, s.configError("audit trail reader")
	}
	page, err := s.auditReader.ListAuditTrail(ctx, filter)
	if err != nil {
		return AuditTrailPage{}, s.mapError(err)
	}
	return page, nil
}

// RecordAudit writes an audit event, best-effort: sink errors and panics are
// contained here and logged, never propagated to the caller.
func (s *Service) RecordAudit(ctx context.Context, event AuditEvent) {
	s.recordAudit(ctx, event)
}

func (s *Service) recordAudit(ctx context.Context, event AuditEvent) {
	if s == nil || s.auditSink == nil {
		return
	}
	defer func() {
		if recovered := recover(); recovered != nil {
			s.logError(ctx, "audit sink panicked", map[string]any{
				"action": event.Action,
				"panic":  fmt.Sprint(recovered),
			})
		}
	}()
	if err := s.auditSink.Log(ctx, event); err != nil {
		s.logError(ctx, "audit sink write failed", map[string]any{
			"action": event.Action,
			"error":  err.Error(),
		})
	}
}

func (s *Service) Config() Config {
	if s == nil {
		return Config{}
	}
	return s.config
}

func (s *Service) Registry() Registry {
	if s == nil {
		return nil
	}
	return s.registry
}

func (s *Service) Logger() Logger {
	if s == nil {
		return nil
	}
	return s.logger
}

func (s *Service) Metrics() MetricsRecorder {
	if s == nil {
		return nil
	}
	return s.metricsRecorder
}

func (s *Service) Dependencies() ServiceDependencies {
	if s == nil {
		return ServiceDependencies{}
	}
	return ServiceDependencies{
		Logger:            s.logger,
		LoggerProvider:    s.loggerProvider,
		MetricsRecorder:   s.metricsRecorder,
		ErrorFactory:      s.errorFactory,
		ErrorMapper:       s.errorMapper,
		PersistenceClient: s.persistenceClient,
		RepositoryFactory: s.repositoryFactory,
		ConfigProvider:    s.configProvider,
		OptionsResolver:   s.optionsResolver,
		ReloadScheduler:   s.reloadScheduler,
		Registry:          s.registry,
		RouteStore:        s.routeStore,
		GrantStore:        s.grantStore,
		AuditSink:         s.auditSink,
		AuditReader:       s.auditReader,
	}
}

func (s *Service) mapError(err error) error {
	if err == nil {
		return nil
	}
	if s == nil || s.errorMapper == nil {
		return err
	}
	if mapped := s.errorMapper(err); mapped != nil {
		return mapped
	}
	return err
}

// configError reports a missing collaborator through the configured error
// factory so callers get the module's envelope shape. Falls back to a plain
// error on a zero-value service.
func (s *Service) configError(what string) error {
	message := fmt.Sprintf("core: %s is not configured", what)
	if s == nil || s.errorFactory == nil {
		return errors.New(message)
	}
	return s.errorFactory(message, goerrors.CategoryInternal).
		WithCode(http.StatusInternalServerError).
		WithTextCode(DispatchErrorInternal)
}
