package core

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"net/http"
	"path"
	"path/filepath"
	"strings"
	"sync"

	goerrors "github.com/goliatone/go-errors"
	"gopkg.in/yaml.v3"
)

const manifestName = "handler"

// handlerManifest is the optional per-group catalog file shipped alongside a
// deployed handler group. It pins the expected constructor name and the set
// of invocable methods.
type handlerManifest struct {
	Constructor string   `yaml:"constructor"`
	Methods     []string `yaml:"methods"`
}

// HandlerLoader resolves handler groups to cached instances. Resolution goes
// through the registry, but the conventional on-disk path
// <base>/<group>/<group>Handler is still computed and verified to stay under
// the base path before anything else runs. Upstream identifier validation
// already restricts group to an identifier grammar; this gate runs anyway.
type HandlerLoader struct {
	registry  Registry
	basePath  string
	manifests fs.FS
	logger    Logger
	metrics   MetricsRecorder

	// Construction is serialized per loader, not per group: the group set is
	// small and static, so a single mutex is cheaper than juggling per-key
	// once values. At most one construction per group, ever.
	mu        sync.Mutex
	instances map[string]Handler
}

type LoaderOption func(*HandlerLoader)

// WithManifestFS supplies the filesystem holding per-group handler manifests,
// rooted at the handler base path.
func WithManifestFS(fsys fs.FS) LoaderOption {
	return func(l *HandlerLoader) {
		l.manifests = fsys
	}
}

func WithLoaderMetrics(recorder MetricsRecorder) LoaderOption {
	return func(l *HandlerLoader) {
		if recorder != nil {
			l.metrics = recorder
		}
	}
}

func NewHandlerLoader(registry Registry, basePath string, logger Logger, opts ...LoaderOption) (*HandlerLoader, error) {
	if registry == nil {
		return nil, fmt.Errorf("core: handler registry is required")
	}
	trimmed := strings.TrimSpace(basePath)
	if trimmed == "" {
		return nil, fmt.Errorf("core: handler base path is required")
	}
	abs, err := filepath.Abs(trimmed)
	if err != nil {
		return nil, fmt.Errorf("core: resolve handler base path: %w", err)
	}
	loader := &HandlerLoader{
		registry:  registry,
		basePath:  abs,
		logger:    logger,
		metrics:   NopMetricsRecorder{},
		instances: map[string]Handler{},
	}
	for _, opt := range opts {
		if opt == nil {
			continue
		}
		opt(loader)
	}
	return loader, nil
}

// Execute resolves group/name and invokes the handler method with params.
func (l *HandlerLoader) Execute(ctx context.Context, group string, name string, params map[string]any) (any, error) {
	if l == nil {
		return nil, loaderInternal("core: handler loader is nil")
	}
	group = strings.TrimSpace(group)
	name = strings.TrimSpace(name)
	if group == "" || name == "" {
		return nil, loaderBadInput("core: handler group and name are required")
	}

	if err := l.verifyContainment(ctx, group); err != nil {
		return nil, err
	}
	if err := l.checkManifest(group, name); err != nil {
		return nil, err
	}

	instance, err := l.instance(ctx, group)
	if err != nil {
		return nil, err
	}
	method, ok := instance.Method(name)
	if !ok {
		return nil, handlerNotFound(
			fmt.Sprintf("core: handler %s has no method %q", group, name),
			map[string]any{"group": group, "name": name},
		)
	}
	return method(ctx, params)
}

// verifyContainment rejects any group whose conventional resolution path
// escapes the configured base directory. Absolute groups are rejected
// outright: joining them under the base path would neutralize the escape
// before the prefix check sees it. Runs even though the registry never
// touches the filesystem for resolution.
func (l *HandlerLoader) verifyContainment(ctx context.Context, group string) error {
	if filepath.IsAbs(group) || path.IsAbs(group) {
		return l.rejectEscape(ctx, group, group)
	}
	resolved := filepath.Clean(filepath.Join(l.basePath, group, group+"Handler"))
	if !strings.HasPrefix(resolved, l.basePath+string(filepath.Separator)) {
		return l.rejectEscape(ctx, group, resolved)
	}
	return nil
}

func (l *HandlerLoader) rejectEscape(ctx context.Context, group string, resolved string) error {
	if l.logger != nil {
		logger := l.logger
		if ctx != nil {
			logger = logger.WithContext(ctx)
		}
		logger.Error("handler resolution escapes base path",
			"group", group,
			"resolved", resolved,
			"base", l.basePath,
		)
	}
	l.metrics.IncCounter(ctx, MetricLoaderSecurityViolation, 1, map[string]string{
		"group": group,
	})
	return securityViolation(
		fmt.Sprintf("core: handler path for group %q escapes base path", group),
		map[string]any{"group": group},
	)
}

// checkManifest consults the optional on-disk manifest for the group. The
// primary extension is tried first; the secondary is attempted only when the
// primary is missing, so real read or parse failures are never masked as a
// missing manifest.
func (l *HandlerLoader) checkManifest(group string, name string) error {
	if l.manifests == nil {
		return nil
	}
	manifest, err := l.readManifest(group)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return nil
		}
		return loaderInternal(fmt.Sprintf("core: read handler manifest for %s: %v", group, err))
	}
	if manifest.Constructor != "" && manifest.Constructor != group+"Handler" {
		return handlerNotFound(
			fmt.Sprintf("core: handler %s manifest declares constructor %q, expected %q",
				group, manifest.Constructor, group+"Handler"),
			map[string]any{"group": group},
		)
	}
	if len(manifest.Methods) > 0 && !containsFold(manifest.Methods, name) {
		return handlerNotFound(
			fmt.Sprintf("core: handler %s manifest does not list method %q", group, name),
			map[string]any{"group": group, "name": name},
		)
	}
	return nil
}

func (l *HandlerLoader) readManifest(group string) (handlerManifest, error) {
	primary := path.Join(group, manifestName+".yaml")
	raw, err := fs.ReadFile(l.manifests, primary)
	if errors.Is(err, fs.ErrNotExist) {
		raw, err = fs.ReadFile(l.manifests, path.Join(group, manifestName+".yml"))
	}
	if err != nil {
		return handlerManifest{}, err
	}
	var manifest handlerManifest
	if err := yaml.Unmarshal(raw, &manifest); err != nil {
		return handlerManifest{}, fmt.Errorf("parse manifest: %w", err)
	}
	manifest.Constructor = strings.TrimSpace(manifest.Constructor)
	return manifest, nil
}

func (l *HandlerLoader) instance(ctx context.Context, group string) (Handler, error) {
	l.mu.Lock()
	defer l.mu.Unlock()
	if instance, ok := l.instances[group]; ok {
		return instance, nil
	}
	factory, ok := l.registry.Get(group)
	if !ok {
		return nil, handlerNotFound(
			fmt.Sprintf("core: handler group %q not found", group),
			map[string]any{"group": group},
		)
	}
	instance, err := factory(ctx)
	if err != nil {
		return nil, goerrors.Wrap(err, goerrors.CategoryOperation,
			fmt.Sprintf("core: construct handler %s", group)).
			WithCode(http.StatusInternalServerError).
			WithTextCode(DispatchErrorExecutionFailed)
	}
	if instance == nil {
		return nil, handlerNotFound(
			fmt.Sprintf("core: handler factory for %q returned nil", group),
			map[string]any{"group": group},
		)
	}
	l.instances[group] = instance
	return instance, nil
}

// CachedGroups reports which groups already have constructed instances.
func (l *HandlerLoader) CachedGroups() []string {
	if l == nil {
		return nil
	}
	l.mu.Lock()
	defer l.mu.Unlock()
	groups := make([]string, 0, len(l.instances))
	for group := range l.instances {
		groups = append(groups, group)
	}
	return groups
}

func securityViolation(message string, metadata map[string]any) error {
	err := goerrors.New(message, goerrors.CategoryAuthz).
		WithCode(http.StatusForbidden).
		WithTextCode(DispatchErrorSecurityViolation)
	if len(metadata) > 0 {
		err.WithMetadata(metadata)
	}
	return err
}

func handlerNotFound(message string, metadata map[string]any) error {
	err := goerrors.New(message, goerrors.CategoryNotFound).
		WithCode(http.StatusNotFound).
		WithTextCode(DispatchErrorHandlerNotFound)
	if len(metadata) > 0 {
		err.WithMetadata(metadata)
	}
	return err
}

func loaderBadInput(message string) error {
	return goerrors.New(message, goerrors.CategoryBadInput).
		WithCode(http.StatusBadRequest).
		WithTextCode(DispatchErrorBadInput)
}

func loaderInternal(message string) error {
	return goerrors.New(message, goerrors.CategoryInternal).
		WithCode(http.StatusInternalServerError).
		WithTextCode(DispatchErrorInternal)
}

// IsSecurityViolation reports whether err carries the path-containment text
// code.
func IsSecurityViolation(err error) bool {
	return hasTextCode(err, DispatchErrorSecurityViolation)
}

// IsHandlerNotFound reports whether err is a missing group/method error, as
// opposed to a security violation or execution failure.
func IsHandlerNotFound(err error) bool {
	return hasTextCode(err, DispatchErrorHandlerNotFound)
}

func hasTextCode(err error, textCode string) bool {
	if err == nil {
		return false
	}
	var richErr *goerrors.Error
	if !goerrors.As(err, &richErr) {
		return false
	}
	return richErr.TextCode == textCode
}

func containsFold(values []string, target string) bool {
	for _, value := range values {
		if strings.EqualFold(strings.TrimSpace(value), target) {
			return true
		}
	}
	return false
}
