// Package audithook bridges academy lifecycle events to an audit trail
// backend.
//
// It defines a local Recorder interface so the package does not depend on
// any particular audit store. Callers inject a RecorderFunc adapter at
// wiring time; the bot binary writes audit events to its structured log.
package audithook

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/xraph/academy/access"
	"github.com/xraph/academy/completion"
	"github.com/xraph/academy/id"
	"github.com/xraph/academy/plugin"
	"github.com/xraph/academy/progress"
	"github.com/xraph/academy/user"
)

// Compile-time interface checks.
var (
	_ plugin.Plugin               = (*Extension)(nil)
	_ plugin.OnUserRegistered     = (*Extension)(nil)
	_ plugin.OnCompletionRecorded = (*Extension)(nil)
	_ plugin.OnAnswerChecked      = (*Extension)(nil)
	_ plugin.OnLevelChanged       = (*Extension)(nil)
	_ plugin.OnCourseUnlocked     = (*Extension)(nil)
	_ plugin.OnVideoAttached      = (*Extension)(nil)
)

// Recorder is the interface that audit backends must implement.
type Recorder interface {
	Record(ctx context.Context, event *AuditEvent) error
}

// AuditEvent is one entry of the audit trail.
type AuditEvent struct {
	Action     string         `json:"action"`
	Resource   string         `json:"resource"`
	Category   string         `json:"category"`
	ResourceID string         `json:"resource_id,omitempty"`
	Metadata   map[string]any `json:"metadata,omitempty"`
	Outcome    string         `json:"outcome"`
	Severity   string         `json:"severity"`
	Reason     string         `json:"reason,omitempty"`
}

// RecorderFunc is an adapter to use a plain function as a Recorder.
type RecorderFunc func(ctx context.Context, event *AuditEvent) error

// Record implements Recorder.
func (f RecorderFunc) Record(ctx context.Context, event *AuditEvent) error {
	return f(ctx, event)
}

// SlogRecorder returns a Recorder that writes each audit event as one
// structured log line.
func SlogRecorder(logger *slog.Logger) Recorder {
	return RecorderFunc(func(ctx context.Context, ev *AuditEvent) error {
		logger.InfoContext(ctx, "audit",
			"action", ev.Action,
			"resource", ev.Resource,
			"resource_id", ev.ResourceID,
			"category", ev.Category,
			"outcome", ev.Outcome,
			"severity", ev.Severity,
			"metadata", ev.Metadata,
		)
		return nil
	})
}

// Extension bridges academy lifecycle events to an audit trail backend.
type Extension struct {
	recorder Recorder
	enabled  map[string]bool // nil = all enabled
	logger   *slog.Logger
}

// New creates an Extension that emits audit events through the provided Recorder.
func New(r Recorder, opts ...Option) *Extension {
	e := &Extension{
		recorder: r,
		logger:   slog.Default(),
	}
	for _, opt := range opts {
		opt(e)
	}
	return e
}

// Name implements plugin.Plugin.
func (e *Extension) Name() string { return "audit-hook" }

// OnUserRegistered implements plugin.OnUserRegistered.
func (e *Extension) OnUserRegistered(ctx context.Context, u *user.User) error {
	return e.record(ctx, ActionUserRegistered, SeverityInfo, OutcomeSuccess,
		ResourceUser, u.ID.String(), CategoryUser, nil,
		"username", u.Username,
	)
}

// OnCompletionRecorded implements plugin.OnCompletionRecorded.
func (e *Extension) OnCompletionRecorded(ctx context.Context, ev *completion.Event) error {
	return e.record(ctx, ActionCompletionRecorded, SeverityInfo, OutcomeSuccess,
		ResourceCompletion, ev.ID.String(), CategoryProgress, nil,
		"user_id", int64(ev.UserID),
		"target", ev.Target.String(),
		"kind", string(ev.Kind),
		"points", ev.Points,
	)
}

// OnAnswerChecked implements plugin.OnAnswerChecked. Only wrong answers
// are audited; correct ones already produce a completion entry.
func (e *Extension) OnAnswerChecked(ctx context.Context, userID id.UserID, taskID id.TaskID, correct bool) error {
	if correct {
		return nil
	}
	return e.record(ctx, ActionAnswerRejected, SeverityInfo, OutcomeFailure,
		ResourceTask, taskID.String(), CategoryProgress, nil,
		"user_id", int64(userID),
	)
}

// OnLevelChanged implements plugin.OnLevelChanged.
func (e *Extension) OnLevelChanged(ctx context.Context, userID id.UserID, from, to progress.Level, total int64) error {
	return e.record(ctx, ActionLevelChanged, SeverityInfo, OutcomeSuccess,
		ResourceUser, userID.String(), CategoryProgress, nil,
		"from", string(from.Label),
		"to", string(to.Label),
		"total", total,
	)
}

// OnCourseUnlocked implements plugin.OnCourseUnlocked.
func (e *Extension) OnCourseUnlocked(ctx context.Context, d *access.Decision) error {
	return e.record(ctx, ActionCourseUnlocked, SeverityInfo, OutcomeSuccess,
		ResourceCourse, d.CourseID.String(), CategoryAccess, nil,
		"user_id", int64(d.UserID),
		"bonus_points", d.BonusPoints,
	)
}

// OnVideoAttached implements plugin.OnVideoAttached.
func (e *Extension) OnVideoAttached(ctx context.Context, lessonID id.LessonID, videoRef string) error {
	return e.record(ctx, ActionVideoAttached, SeverityInfo, OutcomeSuccess,
		ResourceLesson, lessonID.String(), CategoryCatalog, nil,
		"video_ref", videoRef,
	)
}

// record builds and sends an audit event if the action is enabled.
func (e *Extension) record(
	ctx context.Context,
	action, severity, outcome string,
	resource, resourceID, category string,
	err error,
	kvPairs ...any,
) error {
	if e.enabled != nil && !e.enabled[action] {
		return nil
	}

	meta := make(map[string]any, len(kvPairs)/2+1)
	for i := 0; i+1 < len(kvPairs); i += 2 {
		key, ok := kvPairs[i].(string)
		if !ok {
			key = fmt.Sprintf("%v", kvPairs[i])
		}
		meta[key] = kvPairs[i+1]
	}

	var reason string
	if err != nil {
		reason = err.Error()
		meta["error"] = err.Error()
	}

	evt := &AuditEvent{
		Action:     action,
		Resource:   resource,
		Category:   category,
		ResourceID: resourceID,
		Metadata:   meta,
		Outcome:    outcome,
		Severity:   severity,
		Reason:     reason,
	}

	if recErr := e.recorder.Record(ctx, evt); recErr != nil {
		e.logger.Warn("audit_hook: failed to record audit event",
			"action", action,
			"resource_id", resourceID,
			"error", recErr,
		)
	}
	return nil
}
