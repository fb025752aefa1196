package postgres

import (
	"encoding/json"
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

	ID                 int64     `grove:"id,pk"`
	Username           string    `grove:"username"`
	FullName           string    `grove:"full_name"`
	RegisteredAt       time.Time `grove:"registered_at"`
	CurrentCourseID    *int64    `grove:"current_course_id"`
	SubscriptionActive bool      `grove:"subscription_active"`
	CreatedAt          time.Time `grove:"created_at"`
	UpdatedAt          time.Time `grove:"updated_at"`
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

	ID            int64     `grove:"id,pk"`
	Title         string    `grove:"title"`
	Description   string    `grove:"description"`
	PriceAmount   int64     `grove:"price_amount"`
	PriceCurrency string    `grove:"price_currency"`
	DurationDays  int       `grove:"duration_days"`
	Active        bool      `grove:"active"`
	Position      int       `grove:"position"`
	CreatedAt     time.Time `grove:"created_at"`
	UpdatedAt     time.Time `grove:"updated_at"`
}

func toCourseModel(c *course.Course) *courseModel {
	return &courseModel{
		ID:            int64(c.ID),
		Title:         c.Title,
		Description:   c.Description,
		PriceAmount:   c.Price.Amount,
		PriceCurrency: c.Price.Currency,
		DurationDays:  c.DurationDays,
		Active:        c.Active,
		Position:      c.Position,
		CreatedAt:     c.CreatedAt,
		UpdatedAt:     c.UpdatedAt,
	}
}

func fromCourseModel(m *courseModel) *course.Course {
	return &course.Course{
		Entity:       types.Entity{CreatedAt: m.CreatedAt, UpdatedAt: m.UpdatedAt},
		ID:           id.CourseID(m.ID),
		Title:        m.Title,
		Description:  m.Description,
		Price:        types.Money{Amount: m.PriceAmount, Currency: m.PriceCurrency},
		DurationDays: m.DurationDays,
		Active:       m.Active,
		Position:     m.Position,
	}
}

type lessonModel struct {
	grove.BaseModel `grove:"table:academy_lessons"`

	ID          int64     `grove:"id,pk"`
	CourseID    int64     `grove:"course_id"`
	Title       string    `grove:"title"`
	Description string    `grove:"description"`
	Position    int       `grove:"position"`
	Points      int       `grove:"points"`
	Demo        bool      `grove:"demo"`
	VideoRef    string    `grove:"video_ref"`
	CreatedAt   time.Time `grove:"created_at"`
	UpdatedAt   time.Time `grove:"updated_at"`
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

	ID            int64           `grove:"id,pk"`
	LessonID      int64           `grove:"lesson_id"`
	Title         string          `grove:"title"`
	Question      string          `grove:"question"`
	Type          string          `grove:"type"`
	Points        int             `grove:"points"`
	Options       json.RawMessage `grove:"options,type:jsonb"`
	CorrectAnswer string          `grove:"correct_answer"`
	Explanation   string          `grove:"explanation"`
	CreatedAt     time.Time       `grove:"created_at"`
	UpdatedAt     time.Time       `grove:"updated_at"`
}

func toTaskModel(t *course.Task) *taskModel {
	opts := t.Options
	if opts == nil {
		opts = []string{}
	}
	raw, _ := json.Marshal(opts) //nolint:errcheck // []string always marshals

	return &taskModel{
		ID:            int64(t.ID),
		LessonID:      int64(t.LessonID),
		Title:         t.Title,
		Question:      t.Question,
		Type:          string(t.Type),
		Points:        t.Points,
		Options:       raw,
		CorrectAnswer: t.CorrectAnswer,
		Explanation:   t.Explanation,
		CreatedAt:     t.CreatedAt,
		UpdatedAt:     t.UpdatedAt,
	}
}

func fromTaskModel(m *taskModel) (*course.Task, error) {
	var opts []string
	if len(m.Options) > 0 {
		if err := json.Unmarshal(m.Options, &opts); err != nil {
			return nil, err
		}
	}

	return &course.Task{
		Entity:        types.Entity{CreatedAt: m.CreatedAt, UpdatedAt: m.UpdatedAt},
		ID:            id.TaskID(m.ID),
		LessonID:      id.LessonID(m.LessonID),
		Title:         m.Title,
		Question:      m.Question,
		Type:          course.TaskType(m.Type),
		Points:        m.Points,
		Options:       opts,
		CorrectAnswer: m.CorrectAnswer,
		Explanation:   m.Explanation,
	}, nil
}

// ==================== Completion models ====================

type completionModel struct {
	grove.BaseModel `grove:"table:academy_completions"`

	ID             string    `grove:"id,pk"`
	UserID         int64     `grove:"user_id"`
	TargetKind     string    `grove:"target_kind"`
	LessonID       int64     `grove:"lesson_id"`
	TaskID         int64     `grove:"task_id"`
	CourseID       int64     `grove:"course_id"`
	Kind           string    `grove:"kind"`
	Points         int       `grove:"points"`
	IdempotencyKey string    `grove:"idempotency_key"`
	CreatedAt      time.Time `grove:"created_at"`
}

func toCompletionModel(ev *completion.Event) *completionModel {
	return &completionModel{
		ID:             ev.ID.String(),
		UserID:         int64(ev.UserID),
		TargetKind:     string(ev.Target.Kind),
		LessonID:       int64(ev.Target.Lesson),
		TaskID:         int64(ev.Target.Task),
		CourseID:       int64(ev.Target.Course),
		Kind:           string(ev.Kind),
		Points:         ev.Points,
		IdempotencyKey: ev.IdempotencyKey,
		CreatedAt:      ev.CreatedAt,
	}
}

func fromCompletionModel(m *completionModel) (*completion.Event, error) {
	eventID, err := id.ParseEventID(m.ID)
	if err != nil {
		return nil, err
	}

	return &completion.Event{
		ID:     eventID,
		UserID: id.UserID(m.UserID),
		Target: completion.Target{
			Kind:   completion.TargetKind(m.TargetKind),
			Lesson: id.LessonID(m.LessonID),
			Task:   id.TaskID(m.TaskID),
			Course: id.CourseID(m.CourseID),
		},
		Kind:           progress.Kind(m.Kind),
		Points:         m.Points,
		IdempotencyKey: m.IdempotencyKey,
		CreatedAt:      m.CreatedAt,
	}, nil
}
