package command

import (
	"fmt"
	"strings"

	"github.com/goliatone/go-txdispatch/core"
)

const (
	TypeDispatch          = "txdispatch.command.dispatch"
	TypeGrantPermission   = "txdispatch.command.permission.grant"
	TypeRevokePermission  = "txdispatch.command.permission.revoke"
	TypeReloadRoutes      = "txdispatch.command.routes.reload"
	TypeReloadPermissions = "txdispatch.command.permissions.reload"
	TypeRunReload         = "txdispatch.command.reload.run"
)

type DispatchMessage struct {
	Code     int
	Security core.SecurityContext
	Params   map[string]any
}

func (DispatchMessage) Type() string { return TypeDispatch }

func (m DispatchMessage) Validate() error {
	if m.Code <= 0 {
		return fmt.Errorf("command: transaction code is required")
	}
	return nil
}

type GrantPermissionMessage struct {
	ProfileID int64
	Group     string
	Name      string
}

func (GrantPermissionMessage) Type() string { return TypeGrantPermission }

func (m GrantPermissionMessage) Validate() error {
	return validatePermissionTriple(m.ProfileID, m.Group, m.Name)
}

type RevokePermissionMessage struct {
	ProfileID int64
	Group     string
	Name      string
}

func (RevokePermissionMessage) Type() string { return TypeRevokePermission }

func (m RevokePermissionMessage) Validate() error {
	return validatePermissionTriple(m.ProfileID, m.Group, m.Name)
}

type ReloadRoutesMessage struct{}

func (ReloadRoutesMessage) Type() string { return TypeReloadRoutes }

func (ReloadRoutesMessage) Validate() error { return nil }

type ReloadPermissionsMessage struct{}

func (ReloadPermissionsMessage) Type() string { return TypeReloadPermissions }

func (ReloadPermissionsMessage) Validate() error { return nil }

type RunReloadMessage struct {
	Targets     []string
	MaxAttempts int
}

func (RunReloadMessage) Type() string { return TypeRunReload }

func (m RunReloadMessage) Validate() error {
	if m.MaxAttempts < 0 {
		return fmt.Errorf("command: max attempts must not be negative")
	}
	for _, target := range m.Targets {
		switch strings.TrimSpace(strings.ToLower(target)) {
		case "", core.ReloadTargetRoutes, core.ReloadTargetPermissions:
		default:
			return fmt.Errorf("command: unknown reload target %q", target)
		}
	}
	return nil
}

func validatePermissionTriple(profile int64, group string, name string) error {
	if profile <= 0 {
		return fmt.Errorf("command: profile id is required")
	}
	if strings.TrimSpace(group) == "" {
		return fmt.Errorf("command: handler group is required")
	}
	if strings.TrimSpace(name) == "" {
		return fmt.Errorf("command: handler name is required")
	}
	return nil
}
