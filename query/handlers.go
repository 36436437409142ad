package query

import (
	"context"
	"fmt"

	"github.com/goliatone/go-txdispatch/core"
)

type RouteReader interface {
	ResolveRoute(code int) (core.TransactionRoute, bool)
	ListRoutes() []core.TransactionRoute
}

type PermissionReader interface {
	CheckPermission(profile int64, group string, name string) bool
}

type AuditTrailReader interface {
	AuditTrail(ctx context.Context, filter core.AuditTrailFilter) (core.AuditTrailPage, error)
}

type ResolveRouteQuery struct {
	reader RouteReader
}

func NewResolveRouteQuery(reader RouteReader) *ResolveRouteQuery {
	return &ResolveRouteQuery{reader: reader}
}

func (q *ResolveRouteQuery) Query(_ context.Context, msg ResolveRouteMessage) (core.TransactionRoute, error) {
	if q == nil || q.reader == nil {
		return core.TransactionRoute{}, queryDependencyError("query: route reader is required")
	}
	route, ok := q.reader.ResolveRoute(msg.Code)
	if !ok {
		return core.TransactionRoute{}, routeNotFoundError(fmt.Sprintf("query: no route for transaction code %d", msg.Code))
	}
	return route, nil
}

type ListRoutesQuery struct {
	reader RouteReader
}

func NewListRoutesQuery(reader RouteReader) *ListRoutesQuery {
	return &ListRoutesQuery{reader: reader}
}

func (q *ListRoutesQuery) Query(context.Context, ListRoutesMessage) ([]core.TransactionRoute, error) {
	if q == nil || q.reader == nil {
		return nil, queryDependencyError("query: route reader is required")
	}
	return q.reader.ListRoutes(), nil
}

type CheckPermissionQuery struct {
	reader PermissionReader
}

func NewCheckPermissionQuery(reader PermissionReader) *CheckPermissionQuery {
	return &CheckPermissionQuery{reader: reader}
}

func (q *CheckPermissionQuery) Query(_ context.Context, msg CheckPermissionMessage) (bool, error) {
	if q == nil || q.reader == nil {
		return false, queryDependencyError("query: permission reader is required")
	}
	return q.reader.CheckPermission(msg.ProfileID, msg.Group, msg.Name), nil
}

type ListAuditTrailQuery struct {
	reader AuditTrailReader
}

func NewListAuditTrailQuery(reader AuditTrailReader) *ListAuditTrailQuery {
	return &ListAuditTrailQuery{reader: reader}
}

func (q *ListAuditTrailQuery) Query(ctx context.Context, msg ListAuditTrailMessage) (core.AuditTrailPage, error) {
	if q == nil || q.reader == nil {
		return core.AuditTrailPage{}, queryDependencyError("query: audit trail reader is required")
	}
	return q.reader.AuditTrail(ctx, msg.Filter)
}
