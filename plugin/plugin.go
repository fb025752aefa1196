// Package plugin provides an extensible plugin system for the academy engine.
// Plugins hook into lifecycle events by implementing any of the On*
// interfaces below; the Registry discovers them at registration time.
package plugin

import (
	"context"

	"github.com/xraph/academy/access"
	"github.com/xraph/academy/completion"
	"github.com/xraph/academy/id"
	"github.com/xraph/academy/progress"
	"github.com/xraph/academy/user"
)

// Plugin is the base interface that all plugins must implement.
type Plugin interface {
	Name() string
}

// ──────────────────────────────────────────────────
// Lifecycle hooks
// ──────────────────────────────────────────────────

// OnInit is called when the engine starts. engine is the *academy.Academy.
type OnInit interface {
	Plugin
	OnInit(ctx context.Context, engine any) error
}

// OnShutdown is called when the engine stops.
type OnShutdown interface {
	Plugin
	OnShutdown(ctx context.Context) error
}

// ──────────────────────────────────────────────────
// User hooks
// ──────────────────────────────────────────────────

// OnUserRegistered is called the first time a user is seen.
type OnUserRegistered interface {
	Plugin
	OnUserRegistered(ctx context.Context, u *user.User) error
}

// ──────────────────────────────────────────────────
// Progress hooks
// ──────────────────────────────────────────────────

// OnCompletionRecorded is called after a completion event is stored.
type OnCompletionRecorded interface {
	Plugin
	OnCompletionRecorded(ctx context.Context, ev *completion.Event) error
}

// OnAnswerChecked is called for every task answer, correct or not.
type OnAnswerChecked interface {
	Plugin
	OnAnswerChecked(ctx context.Context, userID id.UserID, taskID id.TaskID, correct bool) error
}

// OnLevelChanged is called when a completion moves a user across a tier
// boundary.
type OnLevelChanged interface {
	Plugin
	OnLevelChanged(ctx context.Context, userID id.UserID, from, to progress.Level, total int64) error
}

// ──────────────────────────────────────────────────
// Access hooks
// ──────────────────────────────────────────────────

// OnCourseUnlocked is called once per user and course, on the first
// unlock.
type OnCourseUnlocked interface {
	Plugin
	OnCourseUnlocked(ctx context.Context, d *access.Decision) error
}

// ──────────────────────────────────────────────────
// Catalog hooks
// ──────────────────────────────────────────────────

// OnVideoAttached is called when an admin attaches a video to a lesson.
type OnVideoAttached interface {
	Plugin
	OnVideoAttached(ctx context.Context, lessonID id.LessonID, videoRef string) error
}
