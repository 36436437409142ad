package dispatch

import (
	"context"
	"fmt"
	"net/http"
	"regexp"
	"time"

	"github.com/goliatone/go-txdispatch/core"
)

// Identifier grammar for handler groups and names: letters and digits only,
// no separators. Applied before authorization so corrupted or maliciously
// seeded route rows never reach the permission index or the loader.
var identifierPattern = regexp.MustCompile(`^[A-Za-z0-9]+$`)

type RouteResolver interface {
	ResolveRoute(code int) (core.TransactionRoute, bool)
}

type Authorizer interface {
	IsAuthorized(ctx context.Context, profileID *int64, group string, name string) bool
}

type Executor interface {
	ExecuteHandler(ctx context.Context, group string, name string, params map[string]any) (any, error)
}

// Dispatcher orchestrates one request end to end: resolve, validate,
// authorize, invoke, audit. Every failure is converted to a DispatchResult;
// nothing escapes to the caller as an error.
type Dispatcher struct {
	Routes  RouteResolver
	Auth    Authorizer
	Loader  Executor
	Audit   core.AuditSink
	Logger  core.Logger
	Metrics core.MetricsRecorder
}

func NewDispatcher(routes RouteResolver, auth Authorizer, loader Executor, audit core.AuditSink) (*Dispatcher, error) {
	if routes == nil {
		return nil, fmt.Errorf("dispatch: route resolver is required")
	}
	if auth == nil {
		return nil, fmt.Errorf("dispatch: authorizer is required")
	}
	if loader == nil {
		return nil, fmt.Errorf("dispatch: executor is required")
	}
	return &Dispatcher{
		Routes:  routes,
		Auth:    auth,
		Loader:  loader,
		Audit:   audit,
		Metrics: core.NopMetricsRecorder{},
	}, nil
}

// FromService wires a dispatcher from a core service, sharing its audit sink,
// logger, and metrics recorder.
func FromService(service *core.Service) (*Dispatcher, error) {
	if service == nil {
		return nil, fmt.Errorf("dispatch: service is required")
	}
	deps := service.Dependencies()
	dispatcher, err := NewDispatcher(service, service, service, deps.AuditSink)
	if err != nil {
		return nil, err
	}
	dispatcher.Logger = deps.Logger
	if deps.MetricsRecorder != nil {
		dispatcher.Metrics = deps.MetricsRecorder
	}
	return dispatcher, nil
}

// Dispatch runs the pipeline for one transaction code, terminal on first
// failure. The returned result always carries an HTTP-facing status and a
// generic message; handler error details flow only to the audit stream.
func (d *Dispatcher) Dispatch(ctx context.Context, code int, sctx core.SecurityContext, params map[string]any) core.DispatchResult {
	if d == nil {
		return failure(core.FailureExecutionError, http.StatusInternalServerError, "Internal error")
	}

	route, ok := d.Routes.ResolveRoute(code)
	if !ok {
		// An unmapped transaction code is a server configuration fault, not
		// client input: the code set is developer-controlled.
		d.count(ctx, "route_not_found", "", "")
		return failure(core.FailureRouteNotFound, http.StatusInternalServerError, "Transaction not found")
	}

	if !identifierPattern.MatchString(route.Group) || !identifierPattern.MatchString(route.Name) {
		d.audit(ctx, core.AuditEvent{
			Action:    core.AuditActionInvalidPath,
			UserID:    sctx.UserID,
			ProfileID: sctx.ProfileID,
			Group:     route.Group,
			Name:      route.Name,
			Details:   fmt.Sprintf("tx %d resolved to invalid identifiers", code),
		})
		d.count(ctx, "invalid_identifier", route.Group, route.Name)
		return failure(core.FailureInvalidIdentifier, http.StatusBadRequest, "Invalid request")
	}

	if !d.Auth.IsAuthorized(ctx, sctx.ProfileID, route.Group, route.Name) {
		d.audit(ctx, core.AuditEvent{
			Action:    core.AuditActionAccessDenied,
			UserID:    sctx.UserID,
			ProfileID: sctx.ProfileID,
			Group:     route.Group,
			Name:      route.Name,
			Details:   fmt.Sprintf("tx %d denied for %s", code, sctx.Identity),
		})
		d.count(ctx, "access_denied", route.Group, route.Name)
		return failure(core.FailureUnauthorized, http.StatusForbidden, "Access denied")
	}

	startedAt := time.Now()
	payload, err := d.Loader.ExecuteHandler(ctx, route.Group, route.Name, params)
	elapsed := time.Since(startedAt)
	if err != nil {
		if core.IsSecurityViolation(err) {
			d.audit(ctx, core.AuditEvent{
				Action:     core.AuditActionSecurityViolation,
				UserID:     sctx.UserID,
				ProfileID:  sctx.ProfileID,
				Group:      route.Group,
				Name:       route.Name,
				Details:    err.Error(),
				DurationMS: elapsed.Milliseconds(),
			})
			d.count(ctx, "security_violation", route.Group, route.Name)
			return failure(core.FailureSecurityViolation, http.StatusForbidden, "Access denied")
		}
		d.audit(ctx, core.AuditEvent{
			Action:     core.AuditActionExecuteError,
			UserID:     sctx.UserID,
			ProfileID:  sctx.ProfileID,
			Group:      route.Group,
			Name:       route.Name,
			Details:    err.Error(),
			DurationMS: elapsed.Milliseconds(),
		})
		d.count(ctx, "execute_error", route.Group, route.Name)
		return failure(core.FailureExecutionError, http.StatusInternalServerError, "Internal error")
	}

	d.audit(ctx, core.AuditEvent{
		Action:     core.AuditActionExecuteSuccess,
		UserID:     sctx.UserID,
		ProfileID:  sctx.ProfileID,
		Group:      route.Group,
		Name:       route.Name,
		DurationMS: elapsed.Milliseconds(),
	})
	d.observe(ctx, route.Group, route.Name, elapsed)
	return core.DispatchResult{
		Success:    true,
		HTTPStatus: http.StatusOK,
		Message:    "OK",
		Payload:    payload,
	}
}

// audit writes best-effort: a sink error or panic is logged and swallowed so
// it can never change the dispatch outcome.
func (d *Dispatcher) audit(ctx context.Context, event core.AuditEvent) {
	if d == nil || d.Audit == nil {
		return
	}
	defer func() {
		if recovered := recover(); recovered != nil {
			d.logError(ctx, "audit sink panicked", "action", event.Action, "panic", fmt.Sprint(recovered))
		}
	}()
	if err := d.Audit.Log(ctx, event); err != nil {
		d.logError(ctx, "audit sink write failed", "action", event.Action, "error", err.Error())
	}
}

func (d *Dispatcher) logError(ctx context.Context, message string, args ...any) {
	if d == nil || d.Logger == nil {
		return
	}
	logger := d.Logger
	if ctx != nil {
		logger = logger.WithContext(ctx)
	}
	logger.Error(message, args...)
}

func (d *Dispatcher) count(ctx context.Context, outcome string, group string, name string) {
	if d == nil || d.Metrics == nil {
		return
	}
	tags := map[string]string{"outcome": outcome}
	if group != "" {
		tags["group"] = group
	}
	if name != "" {
		tags["name"] = name
	}
	d.Metrics.IncCounter(ctx, core.MetricDispatchFailure, 1, tags)
}

func (d *Dispatcher) observe(ctx context.Context, group string, name string, elapsed time.Duration) {
	if d == nil || d.Metrics == nil {
		return
	}
	tags := map[string]string{"group": group, "name": name}
	d.Metrics.IncCounter(ctx, core.MetricDispatchSuccess, 1, tags)
	d.Metrics.ObserveHistogram(ctx, core.MetricDispatchDuration, float64(elapsed.Milliseconds()), tags)
}

func failure(kind core.FailureKind, status int, message string) core.DispatchResult {
	return core.DispatchResult{
		Kind:       kind,
		HTTPStatus: status,
		Message:    message,
	}
}
