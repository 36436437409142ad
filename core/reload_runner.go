package core

import (
	"context"
	"fmt"
	"strings"
	"time"
)

const (
	defaultReloadMaxAttempts    = 3
	defaultReloadInitialBackoff = 500 * time.Millisecond
	defaultReloadMaxBackoff     = 10 * time.Second

	ReloadTargetRoutes      = "routes"
	ReloadTargetPermissions = "permissions"
)

type ReloadBackoffScheduler interface {
	NextDelay(attempt int) time.Duration
}

type ExponentialBackoffScheduler struct {
	Initial time.Duration
	Max     time.Duration
}

func (s ExponentialBackoffScheduler) NextDelay(attempt int) time.Duration {
	if attempt < 1 {
		attempt = 1
	}
	initial := s.Initial
	if initial <= 0 {
		initial = defaultReloadInitialBackoff
	}
	max := s.Max
	if max <= 0 {
		max = defaultReloadMaxBackoff
	}

	delay := initial
	for i := 1; i < attempt; i++ {
		delay *= 2
		if delay >= max {
			return max
		}
	}
	if delay > max {
		return max
	}
	return delay
}

type ReloadRunResult struct {
	Attempts int
	Targets  []string
}

type ReloadRunOptions struct {
	MaxAttempts int
	Targets     []string
}

// RunReloadWithRetry reloads the route table and/or permission index,
// retrying with backoff. This is the recoverable path for load failures: a
// boot-time failure is fatal, but an operator or scheduled job can retry
// without a process restart.
func (s *Service) RunReloadWithRetry(ctx context.Context, opts ReloadRunOptions) (ReloadRunResult, error) {
	if s == nil {
		return ReloadRunResult{}, fmt.Errorf("core: service is nil")
	}
	targets := normalizeReloadTargets(opts.Targets)
	if len(targets) == 0 {
		targets = []string{ReloadTargetRoutes, ReloadTargetPermissions}
	}
	maxAttempts := opts.MaxAttempts
	if maxAttempts < 1 {
		maxAttempts = s.reloadMaxAttempts()
	}

	var lastErr error
	for attempt := 1; attempt <= maxAttempts; attempt++ {
		if err := s.reloadTargets(ctx, targets); err == nil {
			return ReloadRunResult{Attempts: attempt, Targets: targets}, nil
		} else {
			lastErr = err
		}
		if attempt == maxAttempts {
			break
		}
		delay := s.reloadScheduler.NextDelay(attempt)
		select {
		case <-ctx.Done():
			return ReloadRunResult{Attempts: attempt, Targets: targets}, s.mapError(ctx.Err())
		case <-time.After(delay):
		}
	}
	return ReloadRunResult{Attempts: maxAttempts, Targets: targets}, s.mapError(lastErr)
}

// RunReloadLoop reloads on the configured interval until ctx is cancelled.
// Failures are logged and retried on the next tick; they never stop the loop.
func (s *Service) RunReloadLoop(ctx context.Context) error {
	if s == nil {
		return fmt.Errorf("core: service is nil")
	}
	interval := s.config.Reload.Interval
	if interval <= 0 {
		return fmt.Errorf("core: reload interval is not configured")
	}
	ticker := time.NewTicker(interval)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-ticker.C:
			if _, err := s.RunReloadWithRetry(ctx, ReloadRunOptions{}); err != nil {
				s.logError(ctx, "scheduled reload failed", map[string]any{"error": err.Error()})
			}
		}
	}
}

func (s *Service) reloadTargets(ctx context.Context, targets []string) error {
	for _, target := range targets {
		switch target {
		case ReloadTargetRoutes:
			if err := s.routes.Load(ctx); err != nil {
				return err
			}
		case ReloadTargetPermissions:
			if err := s.permissions.Load(ctx); err != nil {
				return err
			}
		default:
			return fmt.Errorf("core: unknown reload target %q", target)
		}
	}
	return nil
}

func (s *Service) reloadMaxAttempts() int {
	if s != nil && s.config.Reload.MaxAttempts > 0 {
		return s.config.Reload.MaxAttempts
	}
	return defaultReloadMaxAttempts
}

func normalizeReloadTargets(targets []string) []string {
	out := make([]string, 0, len(targets))
	seen := map[string]struct{}{}
	for _, target := range targets {
		trimmed := strings.TrimSpace(strings.ToLower(target))
		if trimmed == "" {
			continue
		}
		if _, exists := seen[trimmed]; exists {
			continue
		}
		seen[trimmed] = struct{}{}
		out = append(out, trimmed)
	}
	return out
}
