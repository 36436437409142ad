package sqlstore

import (
	"time"

	"github.com/uptrace/bun"
)

type routeRecord struct {
	bun.BaseModel `bun:"table:tx_routes,alias:tr"`

	ID           string    `bun:"id,pk"`
	TxCode       int       `bun:"tx_code,notnull"`
	HandlerGroup string    `bun:"handler_group,notnull"`
	HandlerName  string    `bun:"handler_name,notnull"`
	Description  string    `bun:"description"`
	CreatedAt    time.Time `bun:"created_at,nullzero,notnull,default:current_timestamp"`
	UpdatedAt    time.Time `bun:"updated_at,nullzero,notnull,default:current_timestamp"`
}

type grantRecord struct {
	bun.BaseModel `bun:"table:tx_permissions,alias:tp"`

	ID           string    `bun:"id,pk"`
	ProfileID    int64     `bun:"profile_id,notnull"`
	HandlerGroup string    `bun:"handler_group,notnull"`
	HandlerName  string    `bun:"handler_name,notnull"`
	CreatedAt    time.Time `bun:"created_at,nullzero,notnull,default:current_timestamp"`
}

type handlerRecord struct {
	bun.BaseModel `bun:"table:tx_handlers,alias:th"`

	ID           string    `bun:"id,pk"`
	HandlerGroup string    `bun:"handler_group,notnull"`
	HandlerName  string    `bun:"handler_name,notnull"`
	Description  string    `bun:"description"`
	CreatedAt    time.Time `bun:"created_at,nullzero,notnull,default:current_timestamp"`
}

type auditRecord struct {
	bun.BaseModel `bun:"table:tx_audit_log,alias:tal"`

	ID           string    `bun:"id,pk"`
	Action       string    `bun:"action,notnull"`
	UserID       *int64    `bun:"user_id"`
	ProfileID    *int64    `bun:"profile_id"`
	HandlerGroup string    `bun:"handler_group"`
	HandlerName  string    `bun:"handler_name"`
	Details      string    `bun:"details"`
	DurationMS   int64     `bun:"duration_ms,notnull,default:0"`
	CreatedAt    time.Time `bun:"created_at,nullzero,notnull,default:current_timestamp"`
}
