package sqlstore

import (
	"github.com/goliatone/go-txdispatch/core"
)

var (
	_ core.RouteStore             = (*RouteStore)(nil)
	_ core.GrantStore             = (*GrantStore)(nil)
	_ core.AuditSink              = (*AuditStore)(nil)
	_ core.AuditTrailReader       = (*AuditStore)(nil)
	_ core.StoreProvider          = (*RepositoryFactory)(nil)
	_ core.RepositoryStoreFactory = (*RepositoryFactory)(nil)
)
