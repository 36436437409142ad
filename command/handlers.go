package command

import (
	"context"

	gocmd "github.com/goliatone/go-command"
	"github.com/goliatone/go-txdispatch/core"
)

type DispatchService interface {
	Dispatch(ctx context.Context, code int, sctx core.SecurityContext, params map[string]any) core.DispatchResult
}

type MutatingService interface {
	GrantPermission(ctx context.Context, profile int64, group string, name string) (bool, error)
	RevokePermission(ctx context.Context, profile int64, group string, name string) (bool, error)
	ReloadRoutes(ctx context.Context) error
	ReloadPermissions(ctx context.Context) error
	RunReloadWithRetry(ctx context.Context, opts core.ReloadRunOptions) (core.ReloadRunResult, error)
}

type DispatchCommand struct {
	service DispatchService
}

func NewDispatchCommand(service DispatchService) *DispatchCommand {
	return &DispatchCommand{service: service}
}

func (c *DispatchCommand) Execute(ctx context.Context, msg DispatchMessage) error {
	if c == nil || c.service == nil {
		return commandDependencyError("command: dispatch service is required")
	}
	out := c.service.Dispatch(ctx, msg.Code, msg.Security, msg.Params)
	storeResult(ctx, out)
	return nil
}

type GrantPermissionCommand struct {
	service MutatingService
}

func NewGrantPermissionCommand(service MutatingService) *GrantPermissionCommand {
	return &GrantPermissionCommand{service: service}
}

func (c *GrantPermissionCommand) Execute(ctx context.Context, msg GrantPermissionMessage) error {
	if c == nil || c.service == nil {
		return commandDependencyError("command: permission service is required")
	}
	granted, err := c.service.GrantPermission(ctx, msg.ProfileID, msg.Group, msg.Name)
	if err != nil {
		return err
	}
	storeResult(ctx, granted)
	return nil
}

type RevokePermissionCommand struct {
	service MutatingService
}

func NewRevokePermissionCommand(service MutatingService) *RevokePermissionCommand {
	return &RevokePermissionCommand{service: service}
}

func (c *RevokePermissionCommand) Execute(ctx context.Context, msg RevokePermissionMessage) error {
	if c == nil || c.service == nil {
		return commandDependencyError("command: permission service is required")
	}
	revoked, err := c.service.RevokePermission(ctx, msg.ProfileID, msg.Group, msg.Name)
	if err != nil {
		return err
	}
	storeResult(ctx, revoked)
	return nil
}

type ReloadRoutesCommand struct {
	service MutatingService
}

func NewReloadRoutesCommand(service MutatingService) *ReloadRoutesCommand {
	return &ReloadRoutesCommand{service: service}
}

func (c *ReloadRoutesCommand) Execute(ctx context.Context, _ ReloadRoutesMessage) error {
	if c == nil || c.service == nil {
		return commandDependencyError("command: reload service is required")
	}
	return c.service.ReloadRoutes(ctx)
}

type ReloadPermissionsCommand struct {
	service MutatingService
}

func NewReloadPermissionsCommand(service MutatingService) *ReloadPermissionsCommand {
	return &ReloadPermissionsCommand{service: service}
}

func (c *ReloadPermissionsCommand) Execute(ctx context.Context, _ ReloadPermissionsMessage) error {
	if c == nil || c.service == nil {
		return commandDependencyError("command: reload service is required")
	}
	return c.service.ReloadPermissions(ctx)
}

type RunReloadCommand struct {
	service MutatingService
}

func NewRunReloadCommand(service MutatingService) *RunReloadCommand {
	return &RunReloadCommand{service: service}
}

func (c *RunReloadCommand) Execute(ctx context.Context, msg RunReloadMessage) error {
	if c == nil || c.service == nil {
		return commandDependencyError("command: reload service is required")
	}
	out, err := c.service.RunReloadWithRetry(ctx, core.ReloadRunOptions{
		MaxAttempts: msg.MaxAttempts,
		Targets:     msg.Targets,
	})
	if err != nil {
		return err
	}
	storeResult(ctx, out)
	return nil
}

func storeResult[T any](ctx context.Context, value T) {
	collector := gocmd.ResultFromContext[T](ctx)
	if collector == nil {
		return
	}
	collector.Store(value)
}
