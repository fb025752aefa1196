// Package course defines the read-only catalog: courses, their lessons and
// the quiz or practical tasks attached to lessons.
package course

import (
	"strings"

	"github.com/xraph/academy/id"
	"github.com/xraph/academy/types"
)

type Course struct {
	types.Entity
	ID           id.CourseID `json:"id"`
	Title        string      `json:"title"`
	Description  string      `json:"description"`
	Price        types.Money `json:"price"`
	DurationDays int         `json:"duration_days"`
	Active       bool        `json:"active"`
	Position     int         `json:"position"`
}

type Lesson struct {
	types.Entity
	ID          id.LessonID `json:"id"`
	CourseID    id.CourseID `json:"course_id"`
	Title       string      `json:"title"`
	Description string      `json:"description"`
	Position    int         `json:"position"`
	Points      int         `json:"points"`
	// Demo lessons are visible before the course is unlocked.
	Demo bool `json:"demo"`
	// VideoRef is an opaque handle on the file host; empty until uploaded.
	VideoRef string `json:"video_ref,omitempty"`
}

// HasVideo reports whether a video has been attached.
func (l *Lesson) HasVideo() bool { return l.VideoRef != "" }

type TaskType string

const (
	TaskQuiz      TaskType = "quiz"
	TaskPractical TaskType = "practical"
)

type Task struct {
	types.Entity
	ID       id.TaskID   `json:"id"`
	LessonID id.LessonID `json:"lesson_id"`
	Title    string      `json:"title"`
	Question string      `json:"question"`
	Type     TaskType    `json:"type"`
	Points   int         `json:"points"`
	// Options are the choices offered for a quiz, in display order.
	Options       []string `json:"options,omitempty"`
	CorrectAnswer string   `json:"correct_answer"`
	Explanation   string   `json:"explanation,omitempty"`
}

// Check compares answer against the correct answer by exact match after
// trimming and case folding.
func (t *Task) Check(answer string) bool {
	return strings.EqualFold(strings.TrimSpace(answer), strings.TrimSpace(t.CorrectAnswer))
}
