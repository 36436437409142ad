package query

import (
	"fmt"
	"strings"

	"github.com/goliatone/go-txdispatch/core"
)

const (
	TypeResolveRoute    = "txdispatch.query.route.resolve"
	TypeListRoutes      = "txdispatch.query.route.list"
	TypeCheckPermission = "txdispatch.query.permission.check"
	TypeListAuditTrail  = "txdispatch.query.audit.list"
)

type ResolveRouteMessage struct {
	Code int
}

func (ResolveRouteMessage) Type() string { return TypeResolveRoute }

func (m ResolveRouteMessage) Validate() error {
	if m.Code <= 0 {
		return fmt.Errorf("query: transaction code is required")
	}
	return nil
}

type ListRoutesMessage struct{}

func (ListRoutesMessage) Type() string { return TypeListRoutes }

func (ListRoutesMessage) Validate() error { return nil }

type CheckPermissionMessage struct {
	ProfileID int64
	Group     string
	Name      string
}

func (CheckPermissionMessage) Type() string { return TypeCheckPermission }

func (m CheckPermissionMessage) Validate() error {
	if m.ProfileID <= 0 {
		return fmt.Errorf("query: profile id is required")
	}
	if strings.TrimSpace(m.Group) == "" {
		return fmt.Errorf("query: handler group is required")
	}
	if strings.TrimSpace(m.Name) == "" {
		return fmt.Errorf("query: handler name is required")
	}
	return nil
}

type ListAuditTrailMessage struct {
	Filter core.AuditTrailFilter
}

func (ListAuditTrailMessage) Type() string { return TypeListAuditTrail }

func (m ListAuditTrailMessage) Validate() error {
	if m.Filter.Page < 0 {
		return fmt.Errorf("query: page must not be negative")
	}
	if m.Filter.PerPage < 0 {
		return fmt.Errorf("query: per page must not be negative")
	}
	return nil
}
