// Package observability provides a metrics plugin for academy that records
// lifecycle event counts through a MetricFactory.
package observability

import (
	"context"

	"github.com/xraph/academy/access"
	"github.com/xraph/academy/completion"
	"github.com/xraph/academy/id"
	"github.com/xraph/academy/plugin"
	"github.com/xraph/academy/progress"
	"github.com/xraph/academy/user"
)

// Ensure MetricsExtension implements required interfaces.
var (
	_ plugin.Plugin               = (*MetricsExtension)(nil)
	_ plugin.OnInit               = (*MetricsExtension)(nil)
	_ plugin.OnUserRegistered     = (*MetricsExtension)(nil)
	_ plugin.OnCompletionRecorded = (*MetricsExtension)(nil)
	_ plugin.OnAnswerChecked      = (*MetricsExtension)(nil)
	_ plugin.OnLevelChanged       = (*MetricsExtension)(nil)
	_ plugin.OnCourseUnlocked     = (*MetricsExtension)(nil)
	_ plugin.OnVideoAttached      = (*MetricsExtension)(nil)
)

// Counter interface for metric counters.
type Counter interface {
	Inc()
	Add(float64)
}

// Histogram interface for metric histograms.
type Histogram interface {
	Observe(float64)
}

// MetricFactory creates metrics.
type MetricFactory interface {
	Counter(name string) Counter
	Histogram(name string) Histogram
}

// MetricsExtension records system-wide lifecycle metrics.
type MetricsExtension struct {
	factory MetricFactory

	// User metrics
	UsersRegistered Counter

	// Progress metrics
	CompletionsRecorded Counter
	LessonsCompleted    Counter
	TasksCompleted      Counter
	PointsAwarded       Counter
	PointsPerEvent      Histogram
	AnswersCorrect      Counter
	AnswersWrong        Counter
	LevelUps            Counter

	// Access metrics
	CoursesUnlocked Counter

	// Catalog metrics
	VideosAttached Counter
}

// NewMetricsExtension creates a MetricsExtension with the provided MetricFactory.
// Use app.Metrics() in forge extensions.
func NewMetricsExtension(factory MetricFactory) *MetricsExtension {
	return &MetricsExtension{
		factory: factory,

		UsersRegistered: factory.Counter("academy.user.registered"),

		CompletionsRecorded: factory.Counter("academy.completion.recorded"),
		LessonsCompleted:    factory.Counter("academy.completion.lessons"),
		TasksCompleted:      factory.Counter("academy.completion.tasks"),
		PointsAwarded:       factory.Counter("academy.points.awarded"),
		PointsPerEvent:      factory.Histogram("academy.points.per_event"),
		AnswersCorrect:      factory.Counter("academy.answer.correct"),
		AnswersWrong:        factory.Counter("academy.answer.wrong"),
		LevelUps:            factory.Counter("academy.level.changed"),

		CoursesUnlocked: factory.Counter("academy.course.unlocked"),

		VideosAttached: factory.Counter("academy.lesson.video_attached"),
	}
}

// Name implements plugin.Plugin.
func (m *MetricsExtension) Name() string { return "observability-metrics" }

// OnInit implements plugin.OnInit.
func (m *MetricsExtension) OnInit(_ context.Context, _ any) error {
	return nil
}

// OnUserRegistered implements plugin.OnUserRegistered.
func (m *MetricsExtension) OnUserRegistered(_ context.Context, _ *user.User) error {
	m.UsersRegistered.Inc()
	return nil
}

// OnCompletionRecorded implements plugin.OnCompletionRecorded.
func (m *MetricsExtension) OnCompletionRecorded(_ context.Context, ev *completion.Event) error {
	m.CompletionsRecorded.Inc()
	switch ev.Target.Kind {
	case completion.TargetLesson:
		m.LessonsCompleted.Inc()
	case completion.TargetTask:
		m.TasksCompleted.Inc()
	}
	m.PointsAwarded.Add(float64(ev.Points))
	m.PointsPerEvent.Observe(float64(ev.Points))
	return nil
}

// OnAnswerChecked implements plugin.OnAnswerChecked.
func (m *MetricsExtension) OnAnswerChecked(_ context.Context, _ id.UserID, _ id.TaskID, correct bool) error {
	if correct {
		m.AnswersCorrect.Inc()
	} else {
		m.AnswersWrong.Inc()
	}
	return nil
}

// OnLevelChanged implements plugin.OnLevelChanged.
func (m *MetricsExtension) OnLevelChanged(_ context.Context, _ id.UserID, _, _ progress.Level, _ int64) error {
	m.LevelUps.Inc()
	return nil
}

// OnCourseUnlocked implements plugin.OnCourseUnlocked.
func (m *MetricsExtension) OnCourseUnlocked(_ context.Context, _ *access.Decision) error {
	m.CoursesUnlocked.Inc()
	return nil
}

// OnVideoAttached implements plugin.OnVideoAttached.
func (m *MetricsExtension) OnVideoAttached(_ context.Context, _ id.LessonID, _ string) error {
	m.VideosAttached.Inc()
	return nil
}
