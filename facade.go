package txdispatch

import (
	"fmt"

	txcommand "github.com/goliatone/go-txdispatch/command"
	"github.com/goliatone/go-txdispatch/core"
	"github.com/goliatone/go-txdispatch/dispatch"
	txquery "github.com/goliatone/go-txdispatch/query"
)

type CommandQueryService interface {
	txcommand.MutatingService
	txquery.RouteReader
	txquery.PermissionReader
	txquery.AuditTrailReader
}

type Commands struct {
	Dispatch          *txcommand.DispatchCommand
	GrantPermission   *txcommand.GrantPermissionCommand
	RevokePermission  *txcommand.RevokePermissionCommand
	ReloadRoutes      *txcommand.ReloadRoutesCommand
	ReloadPermissions *txcommand.ReloadPermissionsCommand
	RunReload         *txcommand.RunReloadCommand
}

type Queries struct {
	ResolveRoute    *txquery.ResolveRouteQuery
	ListRoutes      *txquery.ListRoutesQuery
	CheckPermission *txquery.CheckPermissionQuery
	ListAuditTrail  *txquery.ListAuditTrailQuery
}

type Facade struct {
	service  CommandQueryService
	commands Commands
	queries  Queries
}

type FacadeOption func(*facadeOptions)

type facadeOptions struct {
	dispatchService txcommand.DispatchService
}

// WithDispatchService overrides the pipeline the dispatch command runs
// through. Without it the facade builds a dispatcher from the service itself.
func WithDispatchService(service txcommand.DispatchService) FacadeOption {
	return func(options *facadeOptions) {
		options.dispatchService = service
	}
}

func NewFacade(service CommandQueryService, opts ...FacadeOption) (*Facade, error) {
	if service == nil {
		return nil, fmt.Errorf("txdispatch: command/query service is required")
	}
	cfg := facadeOptions{}
	for _, opt := range opts {
		if opt == nil {
			continue
		}
		opt(&cfg)
	}

	dispatchService := cfg.dispatchService
	if dispatchService == nil {
		dispatchService = resolveDispatchService(service)
	}
	if dispatchService == nil {
		return nil, fmt.Errorf("txdispatch: dispatch service could not be resolved")
	}

	facade := &Facade{service: service}
	facade.commands = Commands{
		Dispatch:          txcommand.NewDispatchCommand(dispatchService),
		GrantPermission:   txcommand.NewGrantPermissionCommand(service),
		RevokePermission:  txcommand.NewRevokePermissionCommand(service),
		ReloadRoutes:      txcommand.NewReloadRoutesCommand(service),
		ReloadPermissions: txcommand.NewReloadPermissionsCommand(service),
		RunReload:         txcommand.NewRunReloadCommand(service),
	}
	facade.queries = Queries{
		ResolveRoute:    txquery.NewResolveRouteQuery(service),
		ListRoutes:      txquery.NewListRoutesQuery(service),
		CheckPermission: txquery.NewCheckPermissionQuery(service),
		ListAuditTrail:  txquery.NewListAuditTrailQuery(service),
	}

	return facade, nil
}

func (f *Facade) Commands() Commands {
	if f == nil {
		return Commands{}
	}
	return f.commands
}

func (f *Facade) Queries() Queries {
	if f == nil {
		return Queries{}
	}
	return f.queries
}

func (f *Facade) Service() CommandQueryService {
	if f == nil {
		return nil
	}
	return f.service
}

func resolveDispatchService(service CommandQueryService) txcommand.DispatchService {
	if service == nil {
		return nil
	}
	if ds, ok := service.(txcommand.DispatchService); ok {
		return ds
	}
	svc, ok := service.(*core.Service)
	if !ok {
		return nil
	}
	dispatcher, err := dispatch.FromService(svc)
	if err != nil {
		return nil
	}
	return dispatcher
}
