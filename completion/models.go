// Package completion defines the append-only completion events that make
// up the points ledger.
package completion

import (
	"fmt"
	"time"

	"github.com/xraph/academy/id"
	"github.com/xraph/academy/progress"
)

// TargetKind tags which variant a Target holds.
type TargetKind string

const (
	TargetLesson TargetKind = "lesson"
	TargetTask   TargetKind = "task"
	TargetCourse TargetKind = "course"
)

// Target is what an event was earned on: exactly one of a lesson, a task,
// or a course (purchase bonus). Build it with LessonTarget, TaskTarget or
// CourseTarget.
type Target struct {
	Kind   TargetKind  `json:"kind"`
	Lesson id.LessonID `json:"lesson_id,omitempty"`
	Task   id.TaskID   `json:"task_id,omitempty"`
	Course id.CourseID `json:"course_id,omitempty"`
}

// LessonTarget returns a Target referring to a lesson.
func LessonTarget(l id.LessonID) Target { return Target{Kind: TargetLesson, Lesson: l} }

// TaskTarget returns a Target referring to a task.
func TaskTarget(t id.TaskID) Target { return Target{Kind: TargetTask, Task: t} }

// CourseTarget returns a Target referring to a course.
func CourseTarget(c id.CourseID) Target { return Target{Kind: TargetCourse, Course: c} }

// Validate checks that exactly the field matching Kind is set.
func (t Target) Validate() error {
	set := 0
	if t.Lesson != 0 {
		set++
	}
	if t.Task != 0 {
		set++
	}
	if t.Course != 0 {
		set++
	}
	if set != 1 {
		return fmt.Errorf("completion: target must reference exactly one entity, got %d", set)
	}

	switch t.Kind {
	case TargetLesson:
		if !t.Lesson.Valid() {
			return fmt.Errorf("completion: invalid lesson id %d", t.Lesson)
		}
	case TargetTask:
		if !t.Task.Valid() {
			return fmt.Errorf("completion: invalid task id %d", t.Task)
		}
	case TargetCourse:
		if !t.Course.Valid() {
			return fmt.Errorf("completion: invalid course id %d", t.Course)
		}
	default:
		return fmt.Errorf("completion: unknown target kind %q", t.Kind)
	}
	return nil
}

func (t Target) String() string {
	switch t.Kind {
	case TargetLesson:
		return "lesson:" + t.Lesson.String()
	case TargetTask:
		return "task:" + t.Task.String()
	case TargetCourse:
		return "course:" + t.Course.String()
	}
	return "invalid"
}

// Event is one point-earning fact. Events are never updated or deleted.
type Event struct {
	ID             id.EventID    `json:"id"`
	UserID         id.UserID     `json:"user_id"`
	Target         Target        `json:"target"`
	Kind           progress.Kind `json:"kind"`
	Points         int           `json:"points"`
	IdempotencyKey string        `json:"idempotency_key,omitempty"`
	CreatedAt      time.Time     `json:"created_at"`
}

// Summary aggregates a user's events. Lessons completed more than once
// count once here, though every completion earned points.
type Summary struct {
	TotalPoints              int64 `json:"total_points"`
	DistinctLessonsCompleted int64 `json:"distinct_lessons_completed"`
	TaskCompletionCount      int64 `json:"task_completion_count"`
}
