package command

import (
	gocmd "github.com/goliatone/go-command"
)

var (
	_ gocmd.Commander[DispatchMessage]          = (*DispatchCommand)(nil)
	_ gocmd.Commander[GrantPermissionMessage]   = (*GrantPermissionCommand)(nil)
	_ gocmd.Commander[RevokePermissionMessage]  = (*RevokePermissionCommand)(nil)
	_ gocmd.Commander[ReloadRoutesMessage]      = (*ReloadRoutesCommand)(nil)
	_ gocmd.Commander[ReloadPermissionsMessage] = (*ReloadPermissionsCommand)(nil)
	_ gocmd.Commander[RunReloadMessage]         = (*RunReloadCommand)(nil)
)
