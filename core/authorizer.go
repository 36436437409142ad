package core

import (
	"context"
	"fmt"
)

// Authorizer is the policy wrapper over PermissionIndex. It answers yes/no
// and emits a structured denial signal for observability; the logging side
// effect never alters the decision and never blocks.
type Authorizer struct {
	index   *PermissionIndex
	logger  Logger
	metrics MetricsRecorder
}

func NewAuthorizer(index *PermissionIndex, logger Logger, metrics MetricsRecorder) (*Authorizer, error) {
	if index == nil {
		return nil, fmt.Errorf("core: permission index is required")
	}
	if metrics == nil {
		metrics = NopMetricsRecorder{}
	}
	return &Authorizer{index: index, logger: logger, metrics: metrics}, nil
}

// IsAuthorized applies default-deny. A nil profile is denied before the index
// is consulted.
func (a *Authorizer) IsAuthorized(ctx context.Context, profileID *int64, group string, name string) bool {
	if a == nil || a.index == nil {
		return false
	}
	if profileID == nil {
		a.denied(ctx, 0, group, name, "missing profile")
		return false
	}
	if a.index.Check(*profileID, group, name) {
		return true
	}
	a.denied(ctx, *profileID, group, name, "no grant")
	return false
}

func (a *Authorizer) denied(ctx context.Context, profile int64, group string, name string, reason string) {
	if a.logger != nil {
		logger := a.logger
		if ctx != nil {
			logger = logger.WithContext(ctx)
		}
		logger.Warn("authorization denied",
			"profile_id", profile,
			"group", group,
			"name", name,
			"reason", reason,
		)
	}
	a.metrics.IncCounter(ctx, MetricAuthorizeDenied, 1, map[string]string{
		"group": group,
		"name":  name,
	})
}
