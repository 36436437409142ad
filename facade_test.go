package txdispatch

import (
	"context"
	"testing"

	gocmd "github.com/goliatone/go-command"
	txcommand "github.com/goliatone/go-txdispatch/command"
	"github.com/goliatone/go-txdispatch/core"
	txquery "github.com/goliatone/go-txdispatch/query"
)

func TestNewFacade_WiresCommandsAndQueries(t *testing.T) {
	svc := &stubFacadeService{}

	facade, err := NewFacade(svc)
	if err != nil {
		t.Fatalf("new facade: %v", err)
	}

	commands := facade.Commands()
	if commands.Dispatch == nil || commands.GrantPermission == nil || commands.RunReload == nil {
		t.Fatalf("expected command handlers to be wired")
	}
	queries := facade.Queries()
	if queries.ResolveRoute == nil || queries.ListAuditTrail == nil {
		t.Fatalf("expected query handlers to be wired")
	}
	if facade.Service() == nil {
		t.Fatalf("expected facade to expose its service")
	}
}

func TestFacade_CommandAndQueryDelegation(t *testing.T) {
	svc := &stubFacadeService{}

	facade, err := NewFacade(svc)
	if err != nil {
		t.Fatalf("new facade: %v", err)
	}

	collector := gocmd.NewResult[bool]()
	ctx := gocmd.ContextWithResult(context.Background(), collector)
	if err := facade.Commands().GrantPermission.Execute(ctx, txcommand.GrantPermissionMessage{
		ProfileID: 7,
		Group:     "Auth",
		Name:      "login",
	}); err != nil {
		t.Fatalf("execute grant command: %v", err)
	}
	if svc.lastGrantProfile != 7 || svc.lastGrantGroup != "Auth" || svc.lastGrantName != "login" {
		t.Fatalf("unexpected grant delegation payload")
	}
	granted, ok := collector.Load()
	if !ok || !granted {
		t.Fatalf("expected stored grant outcome, got %v %v", granted, ok)
	}

	route, err := facade.Queries().ResolveRoute.Query(context.Background(), txquery.ResolveRouteMessage{Code: 100})
	if err != nil {
		t.Fatalf("query resolve route: %v", err)
	}
	if route.Group != "Auth" || route.Name != "login" {
		t.Fatalf("unexpected route query result: %#v", route)
	}

	allowed, err := facade.Queries().CheckPermission.Query(context.Background(), txquery.CheckPermissionMessage{
		ProfileID: 7,
		Group:     "Auth",
		Name:      "login",
	})
	if err != nil {
		t.Fatalf("query check permission: %v", err)
	}
	if !allowed {
		t.Fatalf("expected permission query delegation")
	}
}

func TestNewFacade_BuildsDispatcherFromCoreService(t *testing.T) {
	registry := core.NewHandlerRegistry()
	if err := registry.Register("Auth", func(context.Context) (core.Handler, error) {
		return core.MethodMap{
			"login": func(context.Context, map[string]any) (any, error) {
				return map[string]any{"session": "sess_1"}, nil
			},
		}, nil
	}); err != nil {
		t.Fatalf("register handler group: %v", err)
	}

	svc, err := Setup(DefaultConfig(),
		WithRouteStore(staticRouteStore{routes: []core.TransactionRoute{{Code: 100, Group: "Auth", Name: "login"}}}),
		WithGrantStore(&staticGrantStore{
			grants:  []core.PermissionEntry{{Profile: 1, Group: "Auth", Name: "login"}},
			catalog: []core.CatalogEntry{{Group: "Auth", Name: "login"}},
		}),
		WithRegistry(registry),
	)
	if err != nil {
		t.Fatalf("setup service: %v", err)
	}

	facade, err := NewFacade(svc)
	if err != nil {
		t.Fatalf("new facade from core service: %v", err)
	}

	collector := gocmd.NewResult[core.DispatchResult]()
	ctx := gocmd.ContextWithResult(context.Background(), collector)
	profile := int64(1)
	if err := facade.Commands().Dispatch.Execute(ctx, txcommand.DispatchMessage{
		Code:     100,
		Security: core.SecurityContext{ProfileID: &profile},
		Params:   map[string]any{"user": "alice"},
	}); err != nil {
		t.Fatalf("execute dispatch command: %v", err)
	}
	result, ok := collector.Load()
	if !ok {
		t.Fatalf("expected dispatch result to be stored")
	}
	if !result.Success || result.HTTPStatus != 200 {
		t.Fatalf("expected successful dispatch, got %+v", result)
	}
}

func TestNewFacade_RequiresService(t *testing.T) {
	facade, err := NewFacade(nil)
	if err == nil {
		t.Fatalf("expected nil service error")
	}
	if facade != nil {
		t.Fatalf("expected nil facade on error")
	}
}

type stubFacadeService struct {
	lastGrantProfile int64
	lastGrantGroup   string
	lastGrantName    string
}

func (s *stubFacadeService) Dispatch(context.Context, int, core.SecurityContext, map[string]any) core.DispatchResult {
	return core.DispatchResult{Success: true, HTTPStatus: 200, Message: "OK"}
}

func (s *stubFacadeService) GrantPermission(_ context.Context, profile int64, group string, name string) (bool, error) {
	s.lastGrantProfile = profile
	s.lastGrantGroup = group
	s.lastGrantName = name
	return true, nil
}

func (s *stubFacadeService) RevokePermission(context.Context, int64, string, string) (bool, error) {
	return false, nil
}

func (s *stubFacadeService) ReloadRoutes(context.Context) error {
	return nil
}

func (s *stubFacadeService) ReloadPermissions(context.Context) error {
	return nil
}

func (s *stubFacadeService) RunReloadWithRetry(context.Context, core.ReloadRunOptions) (core.ReloadRunResult, error) {
	return core.ReloadRunResult{Attempts: 1}, nil
}

func (s *stubFacadeService) ResolveRoute(code int) (core.TransactionRoute, bool) {
	if code != 100 {
		return core.TransactionRoute{}, false
	}
	return core.TransactionRoute{Code: 100, Group: "Auth", Name: "login"}, true
}

func (s *stubFacadeService) ListRoutes() []core.TransactionRoute {
	return []core.TransactionRoute{{Code: 100, Group: "Auth", Name: "login"}}
}

func (s *stubFacadeService) CheckPermission(int64, string, string) bool {
	return true
}

func (s *stubFacadeService) AuditTrail(context.Context, core.AuditTrailFilter) (core.AuditTrailPage, error) {
	return core.AuditTrailPage{Total: 0}, nil
}

var _ CommandQueryService = (*stubFacadeService)(nil)

type staticRouteStore struct {
	routes []core.TransactionRoute
}

func (s staticRouteStore) QueryRoutes(context.Context) ([]core.TransactionRoute, error) {
	return append([]core.TransactionRoute(nil), s.routes...), nil
}

type staticGrantStore struct {
	grants  []core.PermissionEntry
	catalog []core.CatalogEntry
}

func (s *staticGrantStore) QueryGrants(context.Context) ([]core.PermissionEntry, error) {
	return append([]core.PermissionEntry(nil), s.grants...), nil
}

func (s *staticGrantStore) QueryCatalog(context.Context) ([]core.CatalogEntry, error) {
	return append([]core.CatalogEntry(nil), s.catalog...), nil
}

func (s *staticGrantStore) InsertGrant(_ context.Context, entry core.PermissionEntry) (int64, error) {
	s.grants = append(s.grants, entry)
	return 1, nil
}

func (s *staticGrantStore) DeleteGrant(context.Context, core.PermissionEntry) (int64, error) {
	return 0, nil
}
