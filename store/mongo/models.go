package mongo

import (
	"fmt"
	"time"

	"github.com/xraph/grove"

	"github.com/xraph/academy/completion"
	"github.com/xraph/academy/course"
	"github.com/xraph/academy/id"
	"github.com/xraph/academy/progress"
	"github.com/xraph/academy/types"
	"github.com/xraph/academy/user"
)

// ==================== User models ====================

type userModel struct {
	grove.BaseModel `grove:"table:academy_users"`

	ID                 int64     `grove:"id,pk"               bson:"_id"`
	Username           string    `grove:"username"            bson:"username"`
	FullName           string    `grove:"full_name"           bson:"full_name"`
	RegisteredAt       time.Time `grove:"registered_at"       bson:"registered_at"`
	CurrentCourseID    *int64    `grove:"current_course_id"   bson:"current_course_id,omitempty"`
	SubscriptionActive bool      `grove:"subscription_active" bson:"subscription_active"`
	CreatedAt          time.Time `grove:"created_at"          bson:"created_at"`
	UpdatedAt          time.Time `grove:"updated_at"          bson:"updated_at"`
}

func toUserModel(u *user.User) *userModel {
	m := &userModel{
		ID:                 int64(u.ID),
		Username:           u.Username,
		FullName:           u.FullName,
		RegisteredAt:       u.RegisteredAt,
		SubscriptionActive: u.SubscriptionActive,
		CreatedAt:          u.CreatedAt,
		UpdatedAt:          u.UpdatedAt,
	}
	if u.CurrentCourseID != nil {
		c := int64(*u.CurrentCourseID)
		m.CurrentCourseID = &c
	}
	return m
}

func fromUserModel(m *userModel) *user.User {
	u := &user.User{
		Entity:             types.Entity{CreatedAt: m.CreatedAt, UpdatedAt: m.UpdatedAt},
		ID:                 id.UserID(m.ID),
		Username:           m.Username,
		FullName:           m.FullName,
		RegisteredAt:       m.RegisteredAt,
		SubscriptionActive: m.SubscriptionActive,
	}
	if m.CurrentCourseID != nil {
		c := id.CourseID(*m.CurrentCourseID)
		u.CurrentCourseID = &c
	}
	return u
}

// ==================== Catalog models ====================

type courseModel struct {
	grove.BaseModel `grove:"table:academy_courses"`

	ID           int64      `grove:"id,pk"         bson:"_id"`
	Title        string     `grove:"title"         bson:"title"`
	Description  string     `grove:"description"   bson:"description"`
	Price        moneyModel `grove:"price"         bson:"price"`
	DurationDays int        `grove:"duration_days" bson:"duration_days"`
	Active       bool       `grove:"active"        bson:"active"`
	Position     int        `grove:"position"      bson:"position"`
	CreatedAt    time.Time  `grove:"created_at"    bson:"created_at"`
	UpdatedAt    time.Time  `grove:"updated_at"    bson:"updated_at"`
}

type moneyModel struct {
	Amount   int64  `bson:"amount"`
	Currency string `bson:"currency"`
}

func toCourseModel(c *course.Course) *courseModel {
	return &courseModel{
		ID:           int64(c.ID),
		Title:        c.Title,
		Description:  c.Description,
		Price:        moneyModel{Amount: c.Price.Amount, Currency: c.Price.Currency},
		DurationDays: c.DurationDays,
		Active:       c.Active,
		Position:     c.Position,
		CreatedAt:    c.CreatedAt,
		UpdatedAt:    c.UpdatedAt,
	}
}

func fromCourseModel(m *courseModel) *course.Course {
	return &course.Course{
		Entity:       types.Entity{CreatedAt: m.CreatedAt, UpdatedAt: m.UpdatedAt},
		ID:           id.CourseID(m.ID),
		Title:        m.Title,
		Description:  m.Description,
		Price:        types.Money{Amount: m.Price.Amount, Currency: m.Price.Currency},
		DurationDays: m.DurationDays,
		Active:       m.Active,
		Position:     m.Position,
	}
}

type lessonModel struct {
	grove.BaseModel `grove:"table:academy_lessons"`

	ID          int64     `grove:"id,pk"       bson:"_id"`
	CourseID    int64     `grove:"course_id"   bson:"course_id"`
	Title       string    `grove:"title"       bson:"title"`
	Description string    `grove:"description" bson:"description"`
	Position    int       `grove:"position"    bson:"position"`
	Points      int       `grove:"points"      bson:"points"`
	Demo        bool      `grove:"demo"        bson:"demo"`
	VideoRef    string    `grove:"video_ref"   bson:"video_ref,omitempty"`
	CreatedAt   time.Time `grove:"created_at"  bson:"created_at"`
	UpdatedAt   time.Time `grove:"updated_at"  bson:"updated_at"`
}

func toLessonModel(l *course.Lesson) *lessonModel {
	return &lessonModel{
		ID:          int64(l.ID),
		CourseID:    int64(l.CourseID),
		Title:       l.Title,
		Description: l.Description,
		Position:    l.Position,
		Points:      l.Points,
		Demo:        l.Demo,
		VideoRef:    l.VideoRef,
		CreatedAt:   l.CreatedAt,
		UpdatedAt:   l.UpdatedAt,
	}
}

func fromLessonModel(m *lessonModel) *course.Lesson {
	return &course.Lesson{
		Entity:      types.Entity{CreatedAt: m.CreatedAt, UpdatedAt: m.UpdatedAt},
		ID:          id.LessonID(m.ID),
		CourseID:    id.CourseID(m.CourseID),
		Title:       m.Title,
		Description: m.Description,
		Position:    m.Position,
		Points:      m.Points,
		Demo:        m.Demo,
		VideoRef:    m.VideoRef,
	}
}

type taskModel struct {
	grove.BaseModel `grove:"table:academy_tasks"`

	ID            int64     `grove:"id,pk"          bson:"_id"`
	LessonID      int64     `grove:"lesson_id"      bson:"lesson_id"`
	Title         string    `grove:"title"          bson:"title"`
	Question      string    `grove:"question"       bson:"question"`
	Type          string    `grove:"type"           bson:"type"`
	Points        int       `grove:"points"         bson:"points"`
	Options       []string  `grove:"options"        bson:"options,omitempty"`
	CorrectAnswer string    `grove:"correct_answer" bson:"correct_answer"`
	Explanation   string    `grove:"explanation"    bson:"explanation,omitempty"`
	CreatedAt     time.Time `grove:"created_at"     bson:"created_at"`
	UpdatedAt     time.Time `grove:"updated_at"     bson:"updated_at"`
}

func toTaskModel(t *course.Task) *taskModel {
	return &taskModel{
		ID:            int64(t.ID),
		LessonID:      int64(t.LessonID),
		Title:         t.Title,
		Question:      t.Question,
		Type:          string(t.Type),
		Points:        t.Points,
		Options:       t.Options,
		CorrectAnswer: t.CorrectAnswer,
		Explanation:   t.Explanation,
		CreatedAt:     t.CreatedAt,
		UpdatedAt:     t.UpdatedAt,
	}
}

func fromTaskModel(m *taskModel) *course.Task {
	return &course.Task{
		Entity:        types.Entity{CreatedAt: m.CreatedAt, UpdatedAt: m.UpdatedAt},
		ID:            id.TaskID(m.ID),
		LessonID:      id.LessonID(m.LessonID),
		Title:         m.Title,
		Question:      m.Question,
		Type:          course.TaskType(m.Type),
		Points:        m.Points,
		Options:       m.Options,
		CorrectAnswer: m.CorrectAnswer,
		Explanation:   m.Explanation,
	}
}

// ==================== Completion models ====================

// completionModel stores the target as a subdocument. The idempotency key
// is omitted when empty so the sparse unique index ignores keyless events.
type completionModel struct {
	grove.BaseModel `grove:"table:academy_completions"`

	ID             string      `grove:"id,pk"           bson:"_id"`
	UserID         int64       `grove:"user_id"         bson:"user_id"`
	Target         targetModel `grove:"target"          bson:"target"`
	Kind           string      `grove:"kind"            bson:"kind"`
	Points         int         `grove:"points"          bson:"points"`
	IdempotencyKey string      `grove:"idempotency_key" bson:"idempotency_key,omitempty"`
	CreatedAt      time.Time   `grove:"created_at"      bson:"created_at"`
}

type targetModel struct {
	Kind   string `bson:"kind"`
	Lesson int64  `bson:"lesson_id,omitempty"`
	Task   int64  `bson:"task_id,omitempty"`
	Course int64  `bson:"course_id,omitempty"`
}

func toCompletionModel(ev *completion.Event) *completionModel {
	return &completionModel{
		ID:     ev.ID.String(),
		UserID: int64(ev.UserID),
		Target: targetModel{
			Kind:   string(ev.Target.Kind),
			Lesson: int64(ev.Target.Lesson),
			Task:   int64(ev.Target.Task),
			Course: int64(ev.Target.Course),
		},
		Kind:           string(ev.Kind),
		Points:         ev.Points,
		IdempotencyKey: ev.IdempotencyKey,
		CreatedAt:      ev.CreatedAt,
	}
}

func fromCompletionModel(m *completionModel) (*completion.Event, error) {
	eventID, err := id.ParseEventID(m.ID)
	if err != nil {
		return nil, fmt.Errorf("academy/mongo: completion %q: %w", m.ID, err)
	}

	return &completion.Event{
		ID:     eventID,
		UserID: id.UserID(m.UserID),
		Target: completion.Target{
			Kind:   completion.TargetKind(m.Target.Kind),
			Lesson: id.LessonID(m.Target.Lesson),
			Task:   id.TaskID(m.Target.Task),
			Course: id.CourseID(m.Target.Course),
		},
		Kind:           progress.Kind(m.Kind),
		Points:         m.Points,
		IdempotencyKey: m.IdempotencyKey,
		CreatedAt:      m.CreatedAt,
	}, nil
}
