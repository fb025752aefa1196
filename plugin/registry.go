package plugin

import (
	"context"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/xraph/academy/access"
	"github.com/xraph/academy/completion"
	"github.com/xraph/academy/id"
	"github.com/xraph/academy/progress"
	"github.com/xraph/academy/user"
)

// DefaultTimeout bounds a single hook call.
const DefaultTimeout = 5 * time.Second

// Registry manages all registered plugins and dispatches hooks to them.
// Hook lists are cached by type at registration time.
type Registry struct {
	mu      sync.RWMutex
	plugins []Plugin
	logger  *slog.Logger
	timeout time.Duration

	onInit               []OnInit
	onShutdown           []OnShutdown
	onUserRegistered     []OnUserRegistered
	onCompletionRecorded []OnCompletionRecorded
	onAnswerChecked      []OnAnswerChecked
	onLevelChanged       []OnLevelChanged
	onCourseUnlocked     []OnCourseUnlocked
	onVideoAttached      []OnVideoAttached
}

// NewRegistry creates a new plugin registry.
func NewRegistry() *Registry {
	return &Registry{
		logger:  slog.Default(),
		timeout: DefaultTimeout,
	}
}

// WithLogger sets the logger for the registry.
func (r *Registry) WithLogger(logger *slog.Logger) *Registry {
	r.logger = logger
	return r
}

// WithTimeout sets the per-hook timeout.
func (r *Registry) WithTimeout(d time.Duration) *Registry {
	if d > 0 {
		r.timeout = d
	}
	return r
}

// Register adds a plugin to the registry and caches its hooks.
func (r *Registry) Register(p Plugin) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	for _, existing := range r.plugins {
		if existing.Name() == p.Name() {
			return fmt.Errorf("plugin: duplicate registration: %s", p.Name())
		}
	}

	r.plugins = append(r.plugins, p)

	var hooks []string
	if v, ok := p.(OnInit); ok {
		r.onInit = append(r.onInit, v)
		hooks = append(hooks, "OnInit")
	}
	if v, ok := p.(OnShutdown); ok {
		r.onShutdown = append(r.onShutdown, v)
		hooks = append(hooks, "OnShutdown")
	}
	if v, ok := p.(OnUserRegistered); ok {
		r.onUserRegistered = append(r.onUserRegistered, v)
		hooks = append(hooks, "OnUserRegistered")
	}
	if v, ok := p.(OnCompletionRecorded); ok {
		r.onCompletionRecorded = append(r.onCompletionRecorded, v)
		hooks = append(hooks, "OnCompletionRecorded")
	}
	if v, ok := p.(OnAnswerChecked); ok {
		r.onAnswerChecked = append(r.onAnswerChecked, v)
		hooks = append(hooks, "OnAnswerChecked")
	}
	if v, ok := p.(OnLevelChanged); ok {
		r.onLevelChanged = append(r.onLevelChanged, v)
		hooks = append(hooks, "OnLevelChanged")
	}
	if v, ok := p.(OnCourseUnlocked); ok {
		r.onCourseUnlocked = append(r.onCourseUnlocked, v)
		hooks = append(hooks, "OnCourseUnlocked")
	}
	if v, ok := p.(OnVideoAttached); ok {
		r.onVideoAttached = append(r.onVideoAttached, v)
		hooks = append(hooks, "OnVideoAttached")
	}

	r.logger.Info("plugin registered",
		"name", p.Name(),
		"hooks", hooks,
	)

	return nil
}

// Get returns a plugin by name.
func (r *Registry) Get(name string) Plugin {
	r.mu.RLock()
	defer r.mu.RUnlock()

	for _, p := range r.plugins {
		if p.Name() == name {
			return p
		}
	}
	return nil
}

// List returns all registered plugins.
func (r *Registry) List() []Plugin {
	r.mu.RLock()
	defer r.mu.RUnlock()

	result := make([]Plugin, len(r.plugins))
	copy(result, r.plugins)
	return result
}

// Count returns the number of registered plugins.
func (r *Registry) Count() int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return len(r.plugins)
}

// ──────────────────────────────────────────────────
// Event emission methods
// ──────────────────────────────────────────────────

// snapshot copies a hook list under the read lock.
func snapshot[T any](r *Registry, list *[]T) []T {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return append([]T(nil), (*list)...)
}

// emit calls fn for every plugin in hooks. A failing or slow plugin is
// logged and skipped; it never fails the caller.
func emit[T Plugin](ctx context.Context, r *Registry, hook string, hooks []T, fn func(T) error) {
	for _, p := range hooks {
		if err := r.callWithTimeout(ctx, p.Name(), func() error { return fn(p) }); err != nil {
			r.logger.Warn("plugin "+hook+" failed",
				"plugin", p.Name(),
				"error", err,
			)
		}
	}
}

// EmitInit calls OnInit for all plugins that implement it.
func (r *Registry) EmitInit(ctx context.Context, engine any) {
	emit(ctx, r, "OnInit", snapshot(r, &r.onInit), func(p OnInit) error {
		return p.OnInit(ctx, engine)
	})
}

// EmitShutdown calls OnShutdown for all plugins that implement it.
func (r *Registry) EmitShutdown(ctx context.Context) {
	emit(ctx, r, "OnShutdown", snapshot(r, &r.onShutdown), func(p OnShutdown) error {
		return p.OnShutdown(ctx)
	})
}

// EmitUserRegistered emits a user registered event.
func (r *Registry) EmitUserRegistered(ctx context.Context, u *user.User) {
	emit(ctx, r, "OnUserRegistered", snapshot(r, &r.onUserRegistered), func(p OnUserRegistered) error {
		return p.OnUserRegistered(ctx, u)
	})
}

// EmitCompletionRecorded emits a completion recorded event.
func (r *Registry) EmitCompletionRecorded(ctx context.Context, ev *completion.Event) {
	emit(ctx, r, "OnCompletionRecorded", snapshot(r, &r.onCompletionRecorded), func(p OnCompletionRecorded) error {
		return p.OnCompletionRecorded(ctx, ev)
	})
}

// EmitAnswerChecked emits an answer checked event.
func (r *Registry) EmitAnswerChecked(ctx context.Context, userID id.UserID, taskID id.TaskID, correct bool) {
	emit(ctx, r, "OnAnswerChecked", snapshot(r, &r.onAnswerChecked), func(p OnAnswerChecked) error {
		return p.OnAnswerChecked(ctx, userID, taskID, correct)
	})
}

// EmitLevelChanged emits a level changed event.
func (r *Registry) EmitLevelChanged(ctx context.Context, userID id.UserID, from, to progress.Level, total int64) {
	emit(ctx, r, "OnLevelChanged", snapshot(r, &r.onLevelChanged), func(p OnLevelChanged) error {
		return p.OnLevelChanged(ctx, userID, from, to, total)
	})
}

// EmitCourseUnlocked emits a course unlocked event.
func (r *Registry) EmitCourseUnlocked(ctx context.Context, d *access.Decision) {
	emit(ctx, r, "OnCourseUnlocked", snapshot(r, &r.onCourseUnlocked), func(p OnCourseUnlocked) error {
		return p.OnCourseUnlocked(ctx, d)
	})
}

// EmitVideoAttached emits a video attached event.
func (r *Registry) EmitVideoAttached(ctx context.Context, lessonID id.LessonID, videoRef string) {
	emit(ctx, r, "OnVideoAttached", snapshot(r, &r.onVideoAttached), func(p OnVideoAttached) error {
		return p.OnVideoAttached(ctx, lessonID, videoRef)
	})
}

// callWithTimeout calls a plugin function with a timeout.
// Plugins never block the progress pipeline.
func (r *Registry) callWithTimeout(ctx context.Context, pluginName string, fn func() error) error {
	done := make(chan error, 1)

	go func() {
		done <- fn()
	}()

	timer := time.NewTimer(r.timeout)
	defer timer.Stop()

	select {
	case err := <-done:
		return err
	case <-timer.C:
		return fmt.Errorf("plugin timeout: %s", pluginName)
	case <-ctx.Done():
		return ctx.Err()
	}
}
