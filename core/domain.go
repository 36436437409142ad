package core

import (
	"fmt"
	"strings"
	"time"
)

// TransactionRoute maps a numeric transaction code to the handler group and
// method name that service it. Routes are loaded wholesale and never mutated
// field by field.
type TransactionRoute struct {
	Code  int
	Group string
	Name  string
}

func (r TransactionRoute) Validate() error {
	if strings.TrimSpace(r.Group) == "" {
		return fmt.Errorf("core: route group is required")
	}
	if strings.TrimSpace(r.Name) == "" {
		return fmt.Errorf("core: route name is required")
	}
	return nil
}

// SecurityContext is the immutable per-request identity established by the
// session layer before dispatch. A nil ProfileID means the request carries no
// authorization tier and is denied by default.
type SecurityContext struct {
	UserID    *int64
	ProfileID *int64
	Identity  string
}

func AnonymousContext() SecurityContext {
	return SecurityContext{Identity: "anonymous"}
}

type FailureKind string

const (
	FailureRouteNotFound     FailureKind = "route_not_found"
	FailureInvalidIdentifier FailureKind = "invalid_identifier"
	FailureUnauthorized      FailureKind = "unauthorized"
	FailureExecutionError    FailureKind = "execution_error"
	FailureSecurityViolation FailureKind = "security_violation"
)

// DispatchResult is the uniform outcome of a dispatch. Failure results carry
// an HTTP-facing status and a generic message; handler error details go to
// the audit stream only.
type DispatchResult struct {
	Success    bool
	Kind       FailureKind
	HTTPStatus int
	Message    string
	Payload    any
	Alerts     []string
}

// Envelope is the wire shape relayed verbatim by the HTTP layer.
type Envelope struct {
	Code   int      `json:"code"`
	Msg    string   `json:"msg"`
	Data   any      `json:"data,omitempty"`
	Alerts []string `json:"alerts,omitempty"`
}

func (r DispatchResult) Envelope() Envelope {
	return Envelope{
		Code:   r.HTTPStatus,
		Msg:    r.Message,
		Data:   r.Payload,
		Alerts: append([]string(nil), r.Alerts...),
	}
}

const (
	AuditActionExecuteSuccess    = "EXECUTE_SUCCESS"
	AuditActionExecuteError      = "EXECUTE_ERROR"
	AuditActionAccessDenied      = "ACCESS_DENIED"
	AuditActionInvalidPath       = "INVALID_PATH"
	AuditActionSecurityViolation = "SECURITY_VIOLATION"
	AuditActionPermissionGranted = "PERMISSION_GRANTED"
	AuditActionPermissionRevoked = "PERMISSION_REVOKED"
)

// AuditEvent is one entry of the dispatch audit trail.
type AuditEvent struct {
	ID         string
	Action     string
	UserID     *int64
	ProfileID  *int64
	Group      string
	Name       string
	Details    string
	DurationMS int64
	CreatedAt  time.Time
}

// PermissionEntry is the logical grant triple. Presence means allowed,
// absence means denied.
type PermissionEntry struct {
	Profile int64
	Group   string
	Name    string
}

func (e PermissionEntry) Key() string {
	return permissionKey(e.Profile, e.Group, e.Name)
}

// CatalogEntry names one invocable handler method known to the deployment.
// Grants are rejected when their group/name pair is not in the catalog.
type CatalogEntry struct {
	Group string
	Name  string
}

func (e CatalogEntry) Key() string {
	return catalogKey(e.Group, e.Name)
}

// AuditTrailFilter narrows audit trail reads.
type AuditTrailFilter struct {
	ProfileID *int64
	Action    string
	Group     string
	From      *time.Time
	To        *time.Time
	Page      int
	PerPage   int
}

// AuditTrailPage is one page of audit trail entries, newest first.
type AuditTrailPage struct {
	Items   []AuditEvent
	Page    int
	PerPage int
	Total   int
	HasNext bool
}
