package course

import (
	"context"

	"github.com/xraph/academy/id"
)

type Store interface {
	CreateCourse(ctx context.Context, c *Course) error
	GetCourse(ctx context.Context, courseID id.CourseID) (*Course, error)
	// ListActive returns active courses in insertion order.
	ListActive(ctx context.Context) ([]*Course, error)

	CreateLesson(ctx context.Context, l *Lesson) error
	GetLesson(ctx context.Context, lessonID id.LessonID) (*Lesson, error)
	ListLessons(ctx context.Context, courseID id.CourseID) ([]*Lesson, error)
	SetLessonVideo(ctx context.Context, lessonID id.LessonID, videoRef string) error

	CreateTask(ctx context.Context, t *Task) error
	GetTask(ctx context.Context, taskID id.TaskID) (*Task, error)
	ListTasks(ctx context.Context, lessonID id.LessonID) ([]*Task, error)
}
