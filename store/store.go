// Package store declares the persistence contract every academy backend
// implements.
package store

import (
	"context"

	"github.com/xraph/academy/completion"
	"github.com/xraph/academy/course"
	"github.com/xraph/academy/id"
	"github.com/xraph/academy/user"
)

// Store is the unified storage interface for all academy records.
// Methods are declared explicitly rather than embedding the per-package
// Store interfaces, whose short names would collide.
type Store interface {
	// User methods
	RegisterUser(ctx context.Context, u *user.User) (bool, error)
	GetUser(ctx context.Context, userID id.UserID) (*user.User, error)
	ActivateSubscription(ctx context.Context, userID id.UserID, courseID id.CourseID) error
	CountUsers(ctx context.Context) (int64, error)

	// Catalog methods
	CreateCourse(ctx context.Context, c *course.Course) error
	GetCourse(ctx context.Context, courseID id.CourseID) (*course.Course, error)
	ListActiveCourses(ctx context.Context) ([]*course.Course, error)
	CreateLesson(ctx context.Context, l *course.Lesson) error
	GetLesson(ctx context.Context, lessonID id.LessonID) (*course.Lesson, error)
	ListLessons(ctx context.Context, courseID id.CourseID) ([]*course.Lesson, error)
	SetLessonVideo(ctx context.Context, lessonID id.LessonID, videoRef string) error
	CreateTask(ctx context.Context, t *course.Task) error
	GetTask(ctx context.Context, taskID id.TaskID) (*course.Task, error)
	ListTasks(ctx context.Context, lessonID id.LessonID) ([]*course.Task, error)

	// Completion methods
	AppendCompletion(ctx context.Context, ev *completion.Event) (bool, error)
	SumPoints(ctx context.Context, userID id.UserID) (int64, error)
	Summarize(ctx context.Context, userID id.UserID) (*completion.Summary, error)
	HasPurchase(ctx context.Context, userID id.UserID, courseID id.CourseID) (bool, error)
	ListCompletions(ctx context.Context, userID id.UserID, opts completion.ListOpts) ([]*completion.Event, error)
	CompletionTotals(ctx context.Context) (*completion.Totals, error)

	// Core methods
	Migrate(ctx context.Context) error
	Ping(ctx context.Context) error
	Close() error
}
