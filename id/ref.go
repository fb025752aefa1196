package id

import (
	"fmt"
	"strconv"
)

// UserID is the messaging-platform user id.
type UserID int64

// CourseID identifies a course in the catalog.
type CourseID int64

// LessonID identifies a lesson in the catalog.
type LessonID int64

// TaskID identifies a quiz or practical task in the catalog.
type TaskID int64

// Valid reports whether the id is positive.
func (u UserID) Valid() bool { return u > 0 }

// Valid reports whether the id is positive.
func (c CourseID) Valid() bool { return c > 0 }

// Valid reports whether the id is positive.
func (l LessonID) Valid() bool { return l > 0 }

// Valid reports whether the id is positive.
func (t TaskID) Valid() bool { return t > 0 }

func (u UserID) String() string   { return strconv.FormatInt(int64(u), 10) }
func (c CourseID) String() string { return strconv.FormatInt(int64(c), 10) }
func (l LessonID) String() string { return strconv.FormatInt(int64(l), 10) }
func (t TaskID) String() string   { return strconv.FormatInt(int64(t), 10) }

// ParseUserID parses a decimal user id.
func ParseUserID(s string) (UserID, error) {
	v, err := parsePositive("user", s)
	return UserID(v), err
}

// ParseCourseID parses a decimal course id, as carried in callback payloads.
func ParseCourseID(s string) (CourseID, error) {
	v, err := parsePositive("course", s)
	return CourseID(v), err
}

// ParseLessonID parses a decimal lesson id.
func ParseLessonID(s string) (LessonID, error) {
	v, err := parsePositive("lesson", s)
	return LessonID(v), err
}

// ParseTaskID parses a decimal task id.
func ParseTaskID(s string) (TaskID, error) {
	v, err := parsePositive("task", s)
	return TaskID(v), err
}

func parsePositive(kind, s string) (int64, error) {
	v, err := strconv.ParseInt(s, 10, 64)
	if err != nil {
		return 0, fmt.Errorf("id: parse %s id %q: %w", kind, s, err)
	}
	if v <= 0 {
		return 0, fmt.Errorf("id: parse %s id %q: must be positive", kind, s)
	}
	return v, nil
}
