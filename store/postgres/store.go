// Package postgres implements store.Store on PostgreSQL through the grove
// ORM.
package postgres

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/xraph/grove"
	"github.com/xraph/grove/drivers/pgdriver"
	_ "github.com/xraph/grove/drivers/pgdriver/pgmigrate"
	"github.com/xraph/grove/migrate"

	"github.com/xraph/academy"
	"github.com/xraph/academy/completion"
	"github.com/xraph/academy/course"
	"github.com/xraph/academy/id"
	academystore "github.com/xraph/academy/store"
	"github.com/xraph/academy/user"
)

// compile-time interface check
var _ academystore.Store = (*Store)(nil)

// Store implements store.Store using PostgreSQL via Grove ORM.
type Store struct {
	db *grove.DB
	pg *pgdriver.PgDB
}

// New creates a new PostgreSQL store backed by Grove ORM.
func New(db *grove.DB) *Store {
	return &Store{
		db: db,
		pg: pgdriver.Unwrap(db),
	}
}

// DB returns the underlying grove database for direct access.
func (s *Store) DB() *grove.DB { return s.db }

// Migrate creates the required tables and indexes using the grove orchestrator.
func (s *Store) Migrate(ctx context.Context) error {
	executor, err := migrate.NewExecutorFor(s.pg)
	if err != nil {
		return fmt.Errorf("academy/postgres: create migration executor: %w", err)
	}
	orch := migrate.NewOrchestrator(executor, Migrations)
	if _, err := orch.Migrate(ctx); err != nil {
		return fmt.Errorf("academy/postgres: migration failed: %w", err)
	}
	return nil
}

// Ping checks database connectivity.
func (s *Store) Ping(ctx context.Context) error {
	return s.db.Ping(ctx)
}

// Close closes the database connection.
func (s *Store) Close() error {
	return s.db.Close()
}

// ==================== User Store ====================

func (s *Store) RegisterUser(ctx context.Context, u *user.User) (bool, error) {
	res, err := s.pg.NewInsert(toUserModel(u)).
		OnConflict("(id) DO NOTHING").
		Exec(ctx)
	if err != nil {
		return false, err
	}
	return affected(res)
}

func (s *Store) GetUser(ctx context.Context, userID id.UserID) (*user.User, error) {
	m := new(userModel)
	err := s.pg.NewSelect(m).
		Where("id = ?", int64(userID)).
		Scan(ctx)
	if err != nil {
		if isNoRows(err) {
			return nil, academy.ErrUserNotFound
		}
		return nil, err
	}
	return fromUserModel(m), nil
}

func (s *Store) ActivateSubscription(ctx context.Context, userID id.UserID, courseID id.CourseID) error {
	res, err := s.pg.NewUpdate((*userModel)(nil)).
		Set("subscription_active = ?", true).
		Set("current_course_id = ?", int64(courseID)).
		Set("updated_at = ?", now()).
		Where("id = ?", int64(userID)).
		Exec(ctx)
	if err != nil {
		return err
	}
	rows, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if rows == 0 {
		return academy.ErrUserNotFound
	}
	return nil
}

func (s *Store) CountUsers(ctx context.Context) (int64, error) {
	var n int64
	err := s.pg.NewRaw(`SELECT COUNT(*) FROM academy_users`).Scan(ctx, &n)
	return n, err
}

// ==================== Catalog Store ====================

func (s *Store) CreateCourse(ctx context.Context, c *course.Course) error {
	res, err := s.pg.NewInsert(toCourseModel(c)).
		OnConflict("(id) DO NOTHING").
		Exec(ctx)
	if err != nil {
		return err
	}
	return mustInsert(res)
}

func (s *Store) GetCourse(ctx context.Context, courseID id.CourseID) (*course.Course, error) {
	m := new(courseModel)
	err := s.pg.NewSelect(m).
		Where("id = ?", int64(courseID)).
		Scan(ctx)
	if err != nil {
		if isNoRows(err) {
			return nil, academy.ErrCourseNotFound
		}
		return nil, err
	}
	return fromCourseModel(m), nil
}

func (s *Store) ListActiveCourses(ctx context.Context) ([]*course.Course, error) {
	var models []courseModel
	err := s.pg.NewSelect(&models).
		Where("active = ?", true).
		OrderExpr("position ASC, id ASC").
		Scan(ctx)
	if err != nil {
		return nil, err
	}

	result := make([]*course.Course, len(models))
	for i := range models {
		result[i] = fromCourseModel(&models[i])
	}
	return result, nil
}

func (s *Store) CreateLesson(ctx context.Context, l *course.Lesson) error {
	if _, err := s.GetCourse(ctx, l.CourseID); err != nil {
		return err
	}
	res, err := s.pg.NewInsert(toLessonModel(l)).
		OnConflict("(id) DO NOTHING").
		Exec(ctx)
	if err != nil {
		return err
	}
	return mustInsert(res)
}

func (s *Store) GetLesson(ctx context.Context, lessonID id.LessonID) (*course.Lesson, error) {
	m := new(lessonModel)
	err := s.pg.NewSelect(m).
		Where("id = ?", int64(lessonID)).
		Scan(ctx)
	if err != nil {
		if isNoRows(err) {
			return nil, academy.ErrLessonNotFound
		}
		return nil, err
	}
	return fromLessonModel(m), nil
}

func (s *Store) ListLessons(ctx context.Context, courseID id.CourseID) ([]*course.Lesson, error) {
	var models []lessonModel
	err := s.pg.NewSelect(&models).
		Where("course_id = ?", int64(courseID)).
		OrderExpr("position ASC, id ASC").
		Scan(ctx)
	if err != nil {
		return nil, err
	}

	result := make([]*course.Lesson, len(models))
	for i := range models {
		result[i] = fromLessonModel(&models[i])
	}
	return result, nil
}

func (s *Store) SetLessonVideo(ctx context.Context, lessonID id.LessonID, videoRef string) error {
	res, err := s.pg.NewUpdate((*lessonModel)(nil)).
		Set("video_ref = ?", videoRef).
		Set("updated_at = ?", now()).
		Where("id = ?", int64(lessonID)).
		Exec(ctx)
	if err != nil {
		return err
	}
	rows, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if rows == 0 {
		return academy.ErrLessonNotFound
	}
	return nil
}

func (s *Store) CreateTask(ctx context.Context, t *course.Task) error {
	if _, err := s.GetLesson(ctx, t.LessonID); err != nil {
		return err
	}
	res, err := s.pg.NewInsert(toTaskModel(t)).
		OnConflict("(id) DO NOTHING").
		Exec(ctx)
	if err != nil {
		return err
	}
	return mustInsert(res)
}

func (s *Store) GetTask(ctx context.Context, taskID id.TaskID) (*course.Task, error) {
	m := new(taskModel)
	err := s.pg.NewSelect(m).
		Where("id = ?", int64(taskID)).
		Scan(ctx)
	if err != nil {
		if isNoRows(err) {
			return nil, academy.ErrTaskNotFound
		}
		return nil, err
	}
	return fromTaskModel(m)
}

func (s *Store) ListTasks(ctx context.Context, lessonID id.LessonID) ([]*course.Task, error) {
	var models []taskModel
	err := s.pg.NewSelect(&models).
		Where("lesson_id = ?", int64(lessonID)).
		OrderExpr("id ASC").
		Scan(ctx)
	if err != nil {
		return nil, err
	}

	result := make([]*course.Task, len(models))
	for i := range models {
		t, err := fromTaskModel(&models[i])
		if err != nil {
			return nil, err
		}
		result[i] = t
	}
	return result, nil
}

// ==================== Completion Store ====================

func (s *Store) AppendCompletion(ctx context.Context, ev *completion.Event) (bool, error) {
	if _, err := s.GetUser(ctx, ev.UserID); err != nil {
		return false, err
	}
	res, err := s.pg.NewInsert(toCompletionModel(ev)).
		OnConflict("(idempotency_key) WHERE idempotency_key != '' DO NOTHING").
		Exec(ctx)
	if err != nil {
		return false, err
	}
	return affected(res)
}

func (s *Store) SumPoints(ctx context.Context, userID id.UserID) (int64, error) {
	var total int64
	err := s.pg.NewRaw(`
		SELECT COALESCE(SUM(points), 0) FROM academy_completions
		WHERE user_id = ?
	`, int64(userID)).Scan(ctx, &total)
	return total, err
}

func (s *Store) Summarize(ctx context.Context, userID id.UserID) (*completion.Summary, error) {
	total, err := s.SumPoints(ctx, userID)
	if err != nil {
		return nil, err
	}

	sum := &completion.Summary{TotalPoints: total}
	err = s.pg.NewRaw(`
		SELECT COUNT(DISTINCT lesson_id) FROM academy_completions
		WHERE user_id = ? AND target_kind = ?
	`, int64(userID), string(completion.TargetLesson)).Scan(ctx, &sum.DistinctLessonsCompleted)
	if err != nil {
		return nil, err
	}
	err = s.pg.NewRaw(`
		SELECT COUNT(*) FROM academy_completions
		WHERE user_id = ? AND target_kind = ?
	`, int64(userID), string(completion.TargetTask)).Scan(ctx, &sum.TaskCompletionCount)
	if err != nil {
		return nil, err
	}
	return sum, nil
}

func (s *Store) HasPurchase(ctx context.Context, userID id.UserID, courseID id.CourseID) (bool, error) {
	var n int64
	err := s.pg.NewRaw(`
		SELECT COUNT(*) FROM academy_completions
		WHERE user_id = ? AND target_kind = ? AND course_id = ?
	`, int64(userID), string(completion.TargetCourse), int64(courseID)).Scan(ctx, &n)
	return n > 0, err
}

func (s *Store) ListCompletions(ctx context.Context, userID id.UserID, opts completion.ListOpts) ([]*completion.Event, error) {
	var models []completionModel
	q := s.pg.NewSelect(&models).Where("user_id = ?", int64(userID))

	if opts.Kind != "" {
		q = q.Where("target_kind = ?", string(opts.Kind))
	}
	if !opts.Since.IsZero() {
		q = q.Where("created_at >= ?", opts.Since)
	}
	if opts.Limit > 0 {
		q = q.Limit(opts.Limit)
	}
	if opts.Offset > 0 {
		q = q.Offset(opts.Offset)
	}
	q = q.OrderExpr("created_at ASC, id ASC")

	if err := q.Scan(ctx); err != nil {
		return nil, err
	}

	result := make([]*completion.Event, len(models))
	for i := range models {
		ev, err := fromCompletionModel(&models[i])
		if err != nil {
			return nil, err
		}
		result[i] = ev
	}
	return result, nil
}

func (s *Store) CompletionTotals(ctx context.Context) (*completion.Totals, error) {
	totals := &completion.Totals{}
	err := s.pg.NewRaw(`
		SELECT COUNT(*) FROM academy_completions WHERE target_kind = ?
	`, string(completion.TargetTask)).Scan(ctx, &totals.TaskCompletions)
	if err != nil {
		return nil, err
	}
	err = s.pg.NewRaw(`
		SELECT COALESCE(SUM(points), 0) FROM academy_completions
	`).Scan(ctx, &totals.PointsAwarded)
	if err != nil {
		return nil, err
	}
	return totals, nil
}

// ==================== Helpers ====================

func now() time.Time {
	return time.Now().UTC()
}

// affected reports whether an insert guarded by ON CONFLICT DO NOTHING
// wrote its row.
func affected(res sql.Result) (bool, error) {
	rows, err := res.RowsAffected()
	if err != nil {
		return false, err
	}
	return rows > 0, nil
}

// mustInsert turns a skipped insert into ErrAlreadyExists.
func mustInsert(res sql.Result) error {
	ok, err := affected(res)
	if err != nil {
		return err
	}
	if !ok {
		return academy.ErrAlreadyExists
	}
	return nil
}

// isNoRows checks for the standard sql.ErrNoRows sentinel.
func isNoRows(err error) bool {
	return errors.Is(err, sql.ErrNoRows)
}
