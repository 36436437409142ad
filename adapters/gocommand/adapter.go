package gocommand

import (
	"context"
	"fmt"
	"strings"

	"github.com/goliatone/go-command"
	commanddispatcher "github.com/goliatone/go-command/dispatcher"
	"github.com/goliatone/go-command/runner"
	jobqueuecommand "github.com/goliatone/go-job/queue/command"
	txcommand "github.com/goliatone/go-txdispatch/command"
	txquery "github.com/goliatone/go-txdispatch/query"
)

// ValidateMessageContract enforces Type() plus optional Validate() contract.
func ValidateMessageContract(msg any) error {
	if err := command.ValidateMessage(msg); err != nil {
		return err
	}
	m, ok := msg.(command.Message)
	if !ok {
		return fmt.Errorf("gocommand: message must implement Type() string")
	}
	if strings.TrimSpace(m.Type()) == "" {
		return fmt.Errorf("gocommand: message type is required")
	}
	return nil
}

// RegistryAdapter bridges the dispatch command set onto a go-command registry
// so handlers registered here can also resolve through queue transports.
type RegistryAdapter struct {
	registry *command.Registry
}

func NewRegistryAdapter(registry *command.Registry) *RegistryAdapter {
	if registry == nil {
		registry = command.NewRegistry()
	}
	return &RegistryAdapter{registry: registry}
}

func (a *RegistryAdapter) Registry() *command.Registry {
	if a == nil {
		return nil
	}
	return a.registry
}

func (a *RegistryAdapter) RegisterCommand(cmd any) error {
	if a == nil || a.registry == nil {
		return fmt.Errorf("gocommand: registry is not configured")
	}
	return a.registry.RegisterCommand(cmd)
}

func (a *RegistryAdapter) RegisterQuery(qry any) error {
	if a == nil || a.registry == nil {
		return fmt.Errorf("gocommand: registry is not configured")
	}
	return a.registry.RegisterCommand(qry)
}

func (a *RegistryAdapter) AddResolver(key string, resolver command.Resolver) error {
	if a == nil || a.registry == nil {
		return fmt.Errorf("gocommand: registry is not configured")
	}
	return a.registry.AddResolver(strings.TrimSpace(key), resolver)
}

func (a *RegistryAdapter) AddQueueResolver(key string, queueRegistry *jobqueuecommand.Registry) error {
	if queueRegistry == nil {
		return fmt.Errorf("gocommand: queue registry is required")
	}
	return a.AddResolver(key, jobqueuecommand.QueueResolver(queueRegistry))
}

func (a *RegistryAdapter) HasResolver(key string) bool {
	if a == nil || a.registry == nil {
		return false
	}
	return a.registry.HasResolver(strings.TrimSpace(key))
}

func (a *RegistryAdapter) Initialize() error {
	if a == nil || a.registry == nil {
		return fmt.Errorf("gocommand: registry is not configured")
	}
	return a.registry.Initialize()
}

func Dispatch[T any](ctx context.Context, msg T) error {
	return commanddispatcher.Dispatch(ctx, msg)
}

func Query[T any, R any](ctx context.Context, msg T) (R, error) {
	return commanddispatcher.Query[T, R](ctx, msg)
}

func RegisterAndSubscribe[T any](
	adapter *RegistryAdapter,
	cmd command.Commander[T],
	runnerOpts ...runner.Option,
) (commanddispatcher.Subscription, error) {
	if adapter == nil || adapter.registry == nil {
		return nil, fmt.Errorf("gocommand: registry is not configured")
	}
	if cmd == nil {
		return nil, fmt.Errorf("gocommand: command is required")
	}
	subscription := commanddispatcher.SubscribeCommand(cmd, runnerOpts...)
	if err := adapter.RegisterCommand(cmd); err != nil {
		if subscription != nil {
			subscription.Unsubscribe()
		}
		return nil, err
	}
	return subscription, nil
}

func RegisterAndSubscribeQuery[T any, R any](
	adapter *RegistryAdapter,
	qry command.Querier[T, R],
	runnerOpts ...runner.Option,
) (commanddispatcher.Subscription, error) {
	if adapter == nil || adapter.registry == nil {
		return nil, fmt.Errorf("gocommand: registry is not configured")
	}
	if qry == nil {
		return nil, fmt.Errorf("gocommand: query is required")
	}
	subscription := commanddispatcher.SubscribeQuery(qry, runnerOpts...)
	if err := adapter.RegisterQuery(qry); err != nil {
		if subscription != nil {
			subscription.Unsubscribe()
		}
		return nil, err
	}
	return subscription, nil
}

// Subscriptions bundles the bus subscriptions created for one service so a
// caller can tear them down together.
type Subscriptions struct {
	items []commanddispatcher.Subscription
}

func (s *Subscriptions) add(sub commanddispatcher.Subscription) {
	if s == nil || sub == nil {
		return
	}
	s.items = append(s.items, sub)
}

func (s *Subscriptions) Unsubscribe() {
	if s == nil {
		return
	}
	for _, sub := range s.items {
		if sub != nil {
			sub.Unsubscribe()
		}
	}
	s.items = nil
}

func (s *Subscriptions) Len() int {
	if s == nil {
		return 0
	}
	return len(s.items)
}

// RegisterMutations wires the full mutating command set for svc onto the bus
// and into the registry: grant, revoke, both reloads, and the retrying reload
// runner. On any failure the subscriptions created so far are torn down.
func RegisterMutations(adapter *RegistryAdapter, svc txcommand.MutatingService) (*Subscriptions, error) {
	if svc == nil {
		return nil, fmt.Errorf("gocommand: mutating service is required")
	}
	subs := &Subscriptions{}

	sub, err := RegisterAndSubscribe(adapter, txcommand.NewGrantPermissionCommand(svc))
	if err != nil {
		return nil, err
	}
	subs.add(sub)

	if sub, err = RegisterAndSubscribe(adapter, txcommand.NewRevokePermissionCommand(svc)); err != nil {
		subs.Unsubscribe()
		return nil, err
	}
	subs.add(sub)

	if sub, err = RegisterAndSubscribe(adapter, txcommand.NewReloadRoutesCommand(svc)); err != nil {
		subs.Unsubscribe()
		return nil, err
	}
	subs.add(sub)

	if sub, err = RegisterAndSubscribe(adapter, txcommand.NewReloadPermissionsCommand(svc)); err != nil {
		subs.Unsubscribe()
		return nil, err
	}
	subs.add(sub)

	if sub, err = RegisterAndSubscribe(adapter, txcommand.NewRunReloadCommand(svc)); err != nil {
		subs.Unsubscribe()
		return nil, err
	}
	subs.add(sub)

	return subs, nil
}

// RegisterDispatch wires the transaction dispatch command for svc.
func RegisterDispatch(adapter *RegistryAdapter, svc txcommand.DispatchService) (*Subscriptions, error) {
	if svc == nil {
		return nil, fmt.Errorf("gocommand: dispatch service is required")
	}
	sub, err := RegisterAndSubscribe(adapter, txcommand.NewDispatchCommand(svc))
	if err != nil {
		return nil, err
	}
	subs := &Subscriptions{}
	subs.add(sub)
	return subs, nil
}

// RegisterQueries wires the read-side query handlers: route resolution and
// listing, permission probes, and the audit trail.
func RegisterQueries(
	adapter *RegistryAdapter,
	routes txquery.RouteReader,
	permissions txquery.PermissionReader,
	audit txquery.AuditTrailReader,
) (*Subscriptions, error) {
	if routes == nil || permissions == nil || audit == nil {
		return nil, fmt.Errorf("gocommand: route, permission, and audit readers are required")
	}
	subs := &Subscriptions{}

	sub, err := RegisterAndSubscribeQuery(adapter, txquery.NewResolveRouteQuery(routes))
	if err != nil {
		return nil, err
	}
	subs.add(sub)

	if sub, err = RegisterAndSubscribeQuery(adapter, txquery.NewListRoutesQuery(routes)); err != nil {
		subs.Unsubscribe()
		return nil, err
	}
	subs.add(sub)

	if sub, err = RegisterAndSubscribeQuery(adapter, txquery.NewCheckPermissionQuery(permissions)); err != nil {
		subs.Unsubscribe()
		return nil, err
	}
	subs.add(sub)

	if sub, err = RegisterAndSubscribeQuery(adapter, txquery.NewListAuditTrailQuery(audit)); err != nil {
		subs.Unsubscribe()
		return nil, err
	}
	subs.add(sub)

	return subs, nil
}
