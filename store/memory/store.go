// Package memory is an in-process store.Store backed by maps. It is used
// by tests and by the bot when no database is configured.
package memory

import (
	"context"
	"sort"
	"sync"

	"github.com/xraph/academy"
	"github.com/xraph/academy/completion"
	"github.com/xraph/academy/course"
	"github.com/xraph/academy/id"
	"github.com/xraph/academy/store"
	"github.com/xraph/academy/user"
)

var _ store.Store = (*Store)(nil)

type Store struct {
	mu     sync.RWMutex
	closed bool

	users   map[id.UserID]*user.User
	courses map[id.CourseID]*course.Course
	lessons map[id.LessonID]*course.Lesson
	tasks   map[id.TaskID]*course.Task

	// Completion events in append order, plus an index of idempotency keys.
	events []completion.Event
	keys   map[string]struct{}
}

func New() *Store {
	return &Store{
		users:   make(map[id.UserID]*user.User),
		courses: make(map[id.CourseID]*course.Course),
		lessons: make(map[id.LessonID]*course.Lesson),
		tasks:   make(map[id.TaskID]*course.Task),
		events:  make([]completion.Event, 0),
		keys:    make(map[string]struct{}),
	}
}

// withWrite runs fn under the write lock unless the store is closed.
func (s *Store) withWrite(fn func() error) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed {
		return academy.ErrStoreClosed
	}
	return fn()
}

// withRead runs fn under the read lock unless the store is closed.
func (s *Store) withRead(fn func() error) error {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if s.closed {
		return academy.ErrStoreClosed
	}
	return fn()
}

// ──────────────────────────────────────────────────
// User Store implementation
// ──────────────────────────────────────────────────

func (s *Store) RegisterUser(_ context.Context, u *user.User) (bool, error) {
	var inserted bool
	err := s.withWrite(func() error {
		if _, exists := s.users[u.ID]; exists {
			return nil
		}
		cp := *u
		s.users[u.ID] = &cp
		inserted = true
		return nil
	})
	return inserted, err
}

func (s *Store) GetUser(_ context.Context, userID id.UserID) (*user.User, error) {
	var out *user.User
	err := s.withRead(func() error {
		u, ok := s.users[userID]
		if !ok {
			return academy.ErrUserNotFound
		}
		cp := *u
		out = &cp
		return nil
	})
	return out, err
}

func (s *Store) ActivateSubscription(_ context.Context, userID id.UserID, courseID id.CourseID) error {
	return s.withWrite(func() error {
		u, ok := s.users[userID]
		if !ok {
			return academy.ErrUserNotFound
		}
		c := courseID
		u.SubscriptionActive = true
		u.CurrentCourseID = &c
		u.Touch()
		return nil
	})
}

func (s *Store) CountUsers(_ context.Context) (int64, error) {
	var n int64
	err := s.withRead(func() error {
		n = int64(len(s.users))
		return nil
	})
	return n, err
}

// ──────────────────────────────────────────────────
// Catalog Store implementation
// ──────────────────────────────────────────────────

func (s *Store) CreateCourse(_ context.Context, c *course.Course) error {
	return s.withWrite(func() error {
		if _, exists := s.courses[c.ID]; exists {
			return academy.ErrAlreadyExists
		}
		cp := *c
		s.courses[c.ID] = &cp
		return nil
	})
}

func (s *Store) GetCourse(_ context.Context, courseID id.CourseID) (*course.Course, error) {
	var out *course.Course
	err := s.withRead(func() error {
		c, ok := s.courses[courseID]
		if !ok {
			return academy.ErrCourseNotFound
		}
		cp := *c
		out = &cp
		return nil
	})
	return out, err
}

func (s *Store) ListActiveCourses(_ context.Context) ([]*course.Course, error) {
	result := make([]*course.Course, 0)
	err := s.withRead(func() error {
		for _, c := range s.courses {
			if c.Active {
				cp := *c
				result = append(result, &cp)
			}
		}
		return nil
	})
	sort.Slice(result, func(i, j int) bool {
		if result[i].Position != result[j].Position {
			return result[i].Position < result[j].Position
		}
		return result[i].ID < result[j].ID
	})
	return result, err
}

func (s *Store) CreateLesson(_ context.Context, l *course.Lesson) error {
	return s.withWrite(func() error {
		if _, exists := s.lessons[l.ID]; exists {
			return academy.ErrAlreadyExists
		}
		if _, ok := s.courses[l.CourseID]; !ok {
			return academy.ErrCourseNotFound
		}
		cp := *l
		s.lessons[l.ID] = &cp
		return nil
	})
}

func (s *Store) GetLesson(_ context.Context, lessonID id.LessonID) (*course.Lesson, error) {
	var out *course.Lesson
	err := s.withRead(func() error {
		l, ok := s.lessons[lessonID]
		if !ok {
			return academy.ErrLessonNotFound
		}
		cp := *l
		out = &cp
		return nil
	})
	return out, err
}

func (s *Store) ListLessons(_ context.Context, courseID id.CourseID) ([]*course.Lesson, error) {
	result := make([]*course.Lesson, 0)
	err := s.withRead(func() error {
		for _, l := range s.lessons {
			if l.CourseID == courseID {
				cp := *l
				result = append(result, &cp)
			}
		}
		return nil
	})
	sort.Slice(result, func(i, j int) bool {
		if result[i].Position != result[j].Position {
			return result[i].Position < result[j].Position
		}
		return result[i].ID < result[j].ID
	})
	return result, err
}

func (s *Store) SetLessonVideo(_ context.Context, lessonID id.LessonID, videoRef string) error {
	return s.withWrite(func() error {
		l, ok := s.lessons[lessonID]
		if !ok {
			return academy.ErrLessonNotFound
		}
		l.VideoRef = videoRef
		l.Touch()
		return nil
	})
}

func (s *Store) CreateTask(_ context.Context, t *course.Task) error {
	return s.withWrite(func() error {
		if _, exists := s.tasks[t.ID]; exists {
			return academy.ErrAlreadyExists
		}
		if _, ok := s.lessons[t.LessonID]; !ok {
			return academy.ErrLessonNotFound
		}
		cp := *t
		cp.Options = append([]string(nil), t.Options...)
		s.tasks[t.ID] = &cp
		return nil
	})
}

func (s *Store) GetTask(_ context.Context, taskID id.TaskID) (*course.Task, error) {
	var out *course.Task
	err := s.withRead(func() error {
		t, ok := s.tasks[taskID]
		if !ok {
			return academy.ErrTaskNotFound
		}
		cp := *t
		out = &cp
		return nil
	})
	return out, err
}

func (s *Store) ListTasks(_ context.Context, lessonID id.LessonID) ([]*course.Task, error) {
	result := make([]*course.Task, 0)
	err := s.withRead(func() error {
		for _, t := range s.tasks {
			if t.LessonID == lessonID {
				cp := *t
				result = append(result, &cp)
			}
		}
		return nil
	})
	sort.Slice(result, func(i, j int) bool { return result[i].ID < result[j].ID })
	return result, err
}

// ──────────────────────────────────────────────────
// Completion Store implementation
// ──────────────────────────────────────────────────

func (s *Store) AppendCompletion(_ context.Context, ev *completion.Event) (bool, error) {
	var inserted bool
	err := s.withWrite(func() error {
		if _, ok := s.users[ev.UserID]; !ok {
			return academy.ErrUserNotFound
		}
		if ev.IdempotencyKey != "" {
			if _, dup := s.keys[ev.IdempotencyKey]; dup {
				return nil
			}
			s.keys[ev.IdempotencyKey] = struct{}{}
		}
		s.events = append(s.events, *ev)
		inserted = true
		return nil
	})
	return inserted, err
}

func (s *Store) SumPoints(_ context.Context, userID id.UserID) (int64, error) {
	var total int64
	err := s.withRead(func() error {
		for i := range s.events {
			if s.events[i].UserID == userID {
				total += int64(s.events[i].Points)
			}
		}
		return nil
	})
	return total, err
}

func (s *Store) Summarize(_ context.Context, userID id.UserID) (*completion.Summary, error) {
	sum := &completion.Summary{}
	err := s.withRead(func() error {
		lessons := make(map[id.LessonID]struct{})
		for i := range s.events {
			ev := &s.events[i]
			if ev.UserID != userID {
				continue
			}
			sum.TotalPoints += int64(ev.Points)
			switch ev.Target.Kind {
			case completion.TargetLesson:
				lessons[ev.Target.Lesson] = struct{}{}
			case completion.TargetTask:
				sum.TaskCompletionCount++
			case completion.TargetCourse:
			}
		}
		sum.DistinctLessonsCompleted = int64(len(lessons))
		return nil
	})
	return sum, err
}

func (s *Store) HasPurchase(_ context.Context, userID id.UserID, courseID id.CourseID) (bool, error) {
	var found bool
	err := s.withRead(func() error {
		for i := range s.events {
			ev := &s.events[i]
			if ev.UserID == userID && ev.Target.Kind == completion.TargetCourse && ev.Target.Course == courseID {
				found = true
				return nil
			}
		}
		return nil
	})
	return found, err
}

func (s *Store) ListCompletions(_ context.Context, userID id.UserID, opts completion.ListOpts) ([]*completion.Event, error) {
	result := make([]*completion.Event, 0)
	err := s.withRead(func() error {
		for i := range s.events {
			ev := s.events[i]
			if ev.UserID != userID {
				continue
			}
			if opts.Kind != "" && ev.Target.Kind != opts.Kind {
				continue
			}
			if !opts.Since.IsZero() && ev.CreatedAt.Before(opts.Since) {
				continue
			}
			result = append(result, &ev)
		}
		return nil
	})

	start := min(opts.Offset, len(result))
	end := len(result)
	if opts.Limit > 0 && start+opts.Limit < end {
		end = start + opts.Limit
	}
	return result[start:end], err
}

func (s *Store) CompletionTotals(_ context.Context) (*completion.Totals, error) {
	totals := &completion.Totals{}
	err := s.withRead(func() error {
		for i := range s.events {
			if s.events[i].Target.Kind == completion.TargetTask {
				totals.TaskCompletions++
			}
			totals.PointsAwarded += int64(s.events[i].Points)
		}
		return nil
	})
	return totals, err
}

// ──────────────────────────────────────────────────
// Store management
// ──────────────────────────────────────────────────

func (s *Store) Migrate(_ context.Context) error {
	return nil // No migration needed for memory store
}

func (s *Store) Ping(_ context.Context) error {
	return s.withRead(func() error { return nil })
}

func (s *Store) Close() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.closed = true
	return nil
}
