package query

import (
	gocmd "github.com/goliatone/go-command"
	"github.com/goliatone/go-txdispatch/core"
)

var (
	_ gocmd.Querier[ResolveRouteMessage, core.TransactionRoute]    = (*ResolveRouteQuery)(nil)
	_ gocmd.Querier[ListRoutesMessage, []core.TransactionRoute]    = (*ListRoutesQuery)(nil)
	_ gocmd.Querier[CheckPermissionMessage, bool]                  = (*CheckPermissionQuery)(nil)
	_ gocmd.Querier[ListAuditTrailMessage, core.AuditTrailPage]    = (*ListAuditTrailQuery)(nil)
)
