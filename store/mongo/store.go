// Package mongo implements store.Store on MongoDB through the grove ORM
// and the official driver.
package mongo

import (
	"context"
	"errors"
	"fmt"
	"time"

	"go.mongodb.org/mongo-driver/v2/bson"
	"go.mongodb.org/mongo-driver/v2/mongo"
	"go.mongodb.org/mongo-driver/v2/mongo/options"

	"github.com/xraph/grove"
	"github.com/xraph/grove/drivers/mongodriver"

	"github.com/xraph/academy"
	"github.com/xraph/academy/completion"
	"github.com/xraph/academy/course"
	"github.com/xraph/academy/id"
	academystore "github.com/xraph/academy/store"
	"github.com/xraph/academy/user"
)

// Collection name constants.
const (
	colUsers       = "academy_users"
	colCourses     = "academy_courses"
	colLessons     = "academy_lessons"
	colTasks       = "academy_tasks"
	colCompletions = "academy_completions"
)

// compile-time interface check
var _ academystore.Store = (*Store)(nil)

// Store implements store.Store using MongoDB via Grove ORM.
type Store struct {
	db  *grove.DB
	mdb *mongodriver.MongoDB
}

// New creates a new MongoDB store backed by Grove ORM.
func New(db *grove.DB) *Store {
	return &Store{
		db:  db,
		mdb: mongodriver.Unwrap(db),
	}
}

// DB returns the underlying grove database for direct access.
func (s *Store) DB() *grove.DB { return s.db }

// Migrate creates indexes for all academy collections.
func (s *Store) Migrate(ctx context.Context) error {
	for col, models := range migrationIndexes() {
		if len(models) == 0 {
			continue
		}
		if _, err := s.mdb.Collection(col).Indexes().CreateMany(ctx, models); err != nil {
			return fmt.Errorf("academy/mongo: migrate %s indexes: %w", col, err)
		}
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
	_, err := s.mdb.NewInsert(toUserModel(u)).Exec(ctx)
	if err != nil {
		if mongo.IsDuplicateKeyError(err) {
			return false, nil
		}
		return false, fmt.Errorf("academy/mongo: register user: %w", err)
	}
	return true, nil
}

func (s *Store) GetUser(ctx context.Context, userID id.UserID) (*user.User, error) {
	var m userModel
	err := s.mdb.NewFind(&m).
		Filter(bson.M{"_id": int64(userID)}).
		Scan(ctx)
	if err != nil {
		if isNoDocuments(err) {
			return nil, academy.ErrUserNotFound
		}
		return nil, fmt.Errorf("academy/mongo: get user: %w", err)
	}
	return fromUserModel(&m), nil
}

func (s *Store) ActivateSubscription(ctx context.Context, userID id.UserID, courseID id.CourseID) error {
	res, err := s.mdb.NewUpdate((*userModel)(nil)).
		Filter(bson.M{"_id": int64(userID)}).
		Set("subscription_active", true).
		Set("current_course_id", int64(courseID)).
		Set("updated_at", now()).
		Exec(ctx)
	if err != nil {
		return fmt.Errorf("academy/mongo: activate subscription: %w", err)
	}
	if res.MatchedCount() == 0 {
		return academy.ErrUserNotFound
	}
	return nil
}

func (s *Store) CountUsers(ctx context.Context) (int64, error) {
	n, err := s.mdb.Collection(colUsers).CountDocuments(ctx, bson.M{})
	if err != nil {
		return 0, fmt.Errorf("academy/mongo: count users: %w", err)
	}
	return n, nil
}

// ==================== Catalog Store ====================

func (s *Store) CreateCourse(ctx context.Context, c *course.Course) error {
	return s.insertUnique(ctx, "course", toCourseModel(c))
}

func (s *Store) GetCourse(ctx context.Context, courseID id.CourseID) (*course.Course, error) {
	var m courseModel
	err := s.mdb.NewFind(&m).
		Filter(bson.M{"_id": int64(courseID)}).
		Scan(ctx)
	if err != nil {
		if isNoDocuments(err) {
			return nil, academy.ErrCourseNotFound
		}
		return nil, fmt.Errorf("academy/mongo: get course: %w", err)
	}
	return fromCourseModel(&m), nil
}

func (s *Store) ListActiveCourses(ctx context.Context) ([]*course.Course, error) {
	var models []courseModel
	err := s.mdb.NewFind(&models).
		Filter(bson.M{"active": true}).
		Sort(bson.D{{Key: "position", Value: 1}, {Key: "_id", Value: 1}}).
		Scan(ctx)
	if err != nil {
		return nil, fmt.Errorf("academy/mongo: list courses: %w", err)
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
	return s.insertUnique(ctx, "lesson", toLessonModel(l))
}

func (s *Store) GetLesson(ctx context.Context, lessonID id.LessonID) (*course.Lesson, error) {
	var m lessonModel
	err := s.mdb.NewFind(&m).
		Filter(bson.M{"_id": int64(lessonID)}).
		Scan(ctx)
	if err != nil {
		if isNoDocuments(err) {
			return nil, academy.ErrLessonNotFound
		}
		return nil, fmt.Errorf("academy/mongo: get lesson: %w", err)
	}
	return fromLessonModel(&m), nil
}

func (s *Store) ListLessons(ctx context.Context, courseID id.CourseID) ([]*course.Lesson, error) {
	var models []lessonModel
	err := s.mdb.NewFind(&models).
		Filter(bson.M{"course_id": int64(courseID)}).
		Sort(bson.D{{Key: "position", Value: 1}, {Key: "_id", Value: 1}}).
		Scan(ctx)
	if err != nil {
		return nil, fmt.Errorf("academy/mongo: list lessons: %w", err)
	}

	result := make([]*course.Lesson, len(models))
	for i := range models {
		result[i] = fromLessonModel(&models[i])
	}
	return result, nil
}

func (s *Store) SetLessonVideo(ctx context.Context, lessonID id.LessonID, videoRef string) error {
	res, err := s.mdb.NewUpdate((*lessonModel)(nil)).
		Filter(bson.M{"_id": int64(lessonID)}).
		Set("video_ref", videoRef).
		Set("updated_at", now()).
		Exec(ctx)
	if err != nil {
		return fmt.Errorf("academy/mongo: set lesson video: %w", err)
	}
	if res.MatchedCount() == 0 {
		return academy.ErrLessonNotFound
	}
	return nil
}

func (s *Store) CreateTask(ctx context.Context, t *course.Task) error {
	if _, err := s.GetLesson(ctx, t.LessonID); err != nil {
		return err
	}
	return s.insertUnique(ctx, "task", toTaskModel(t))
}

func (s *Store) GetTask(ctx context.Context, taskID id.TaskID) (*course.Task, error) {
	var m taskModel
	err := s.mdb.NewFind(&m).
		Filter(bson.M{"_id": int64(taskID)}).
		Scan(ctx)
	if err != nil {
		if isNoDocuments(err) {
			return nil, academy.ErrTaskNotFound
		}
		return nil, fmt.Errorf("academy/mongo: get task: %w", err)
	}
	return fromTaskModel(&m), nil
}

func (s *Store) ListTasks(ctx context.Context, lessonID id.LessonID) ([]*course.Task, error) {
	var models []taskModel
	err := s.mdb.NewFind(&models).
		Filter(bson.M{"lesson_id": int64(lessonID)}).
		Sort(bson.D{{Key: "_id", Value: 1}}).
		Scan(ctx)
	if err != nil {
		return nil, fmt.Errorf("academy/mongo: list tasks: %w", err)
	}

	result := make([]*course.Task, len(models))
	for i := range models {
		result[i] = fromTaskModel(&models[i])
	}
	return result, nil
}

// ==================== Completion Store ====================

func (s *Store) AppendCompletion(ctx context.Context, ev *completion.Event) (bool, error) {
	if _, err := s.GetUser(ctx, ev.UserID); err != nil {
		return false, err
	}
	_, err := s.mdb.NewInsert(toCompletionModel(ev)).Exec(ctx)
	if err != nil {
		// A taken idempotency key means the event was already recorded.
		if mongo.IsDuplicateKeyError(err) {
			return false, nil
		}
		return false, fmt.Errorf("academy/mongo: append completion: %w", err)
	}
	return true, nil
}

func (s *Store) SumPoints(ctx context.Context, userID id.UserID) (int64, error) {
	sum, err := s.Summarize(ctx, userID)
	if err != nil {
		return 0, err
	}
	return sum.TotalPoints, nil
}

func (s *Store) Summarize(ctx context.Context, userID id.UserID) (*completion.Summary, error) {
	isKind := func(k completion.TargetKind) bson.M {
		return bson.M{"$eq": bson.A{"$target.kind", string(k)}}
	}

	pipeline := bson.A{
		bson.M{"$match": bson.M{"user_id": int64(userID)}},
		bson.M{
			"$group": bson.M{
				"_id":   nil,
				"total": bson.M{"$sum": "$points"},
				"tasks": bson.M{"$sum": bson.M{"$cond": bson.A{isKind(completion.TargetTask), 1, 0}}},
				"lessons": bson.M{"$addToSet": bson.M{
					"$cond": bson.A{isKind(completion.TargetLesson), "$target.lesson_id", nil},
				}},
			},
		},
		bson.M{
			"$project": bson.M{
				"total":   1,
				"tasks":   1,
				"lessons": bson.M{"$size": bson.M{"$setDifference": bson.A{"$lessons", bson.A{nil}}}},
			},
		},
	}

	cursor, err := s.mdb.Collection(colCompletions).Aggregate(ctx, pipeline)
	if err != nil {
		return nil, fmt.Errorf("academy/mongo: summarize: %w", err)
	}
	defer cursor.Close(ctx)

	var results []struct {
		Total   int64 `bson:"total"`
		Tasks   int64 `bson:"tasks"`
		Lessons int64 `bson:"lessons"`
	}
	if err := cursor.All(ctx, &results); err != nil {
		return nil, fmt.Errorf("academy/mongo: summarize decode: %w", err)
	}

	if len(results) == 0 {
		return &completion.Summary{}, nil
	}
	return &completion.Summary{
		TotalPoints:              results[0].Total,
		DistinctLessonsCompleted: results[0].Lessons,
		TaskCompletionCount:      results[0].Tasks,
	}, nil
}

func (s *Store) HasPurchase(ctx context.Context, userID id.UserID, courseID id.CourseID) (bool, error) {
	n, err := s.mdb.Collection(colCompletions).CountDocuments(ctx, bson.M{
		"user_id":          int64(userID),
		"target.kind":      string(completion.TargetCourse),
		"target.course_id": int64(courseID),
	})
	if err != nil {
		return false, fmt.Errorf("academy/mongo: has purchase: %w", err)
	}
	return n > 0, nil
}

func (s *Store) ListCompletions(ctx context.Context, userID id.UserID, opts completion.ListOpts) ([]*completion.Event, error) {
	var models []completionModel

	filter := bson.M{"user_id": int64(userID)}
	if opts.Kind != "" {
		filter["target.kind"] = string(opts.Kind)
	}
	if !opts.Since.IsZero() {
		filter["created_at"] = bson.M{"$gte": opts.Since}
	}

	q := s.mdb.NewFind(&models).
		Filter(filter).
		Sort(bson.D{{Key: "created_at", Value: 1}, {Key: "_id", Value: 1}})

	if opts.Limit > 0 {
		q = q.Limit(int64(opts.Limit))
	}
	if opts.Offset > 0 {
		q = q.Skip(int64(opts.Offset))
	}

	if err := q.Scan(ctx); err != nil {
		return nil, fmt.Errorf("academy/mongo: list completions: %w", err)
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
	pipeline := bson.A{
		bson.M{
			"$group": bson.M{
				"_id":    nil,
				"points": bson.M{"$sum": "$points"},
				"tasks": bson.M{"$sum": bson.M{
					"$cond": bson.A{bson.M{"$eq": bson.A{"$target.kind", string(completion.TargetTask)}}, 1, 0},
				}},
			},
		},
	}

	cursor, err := s.mdb.Collection(colCompletions).Aggregate(ctx, pipeline)
	if err != nil {
		return nil, fmt.Errorf("academy/mongo: completion totals: %w", err)
	}
	defer cursor.Close(ctx)

	var results []struct {
		Points int64 `bson:"points"`
		Tasks  int64 `bson:"tasks"`
	}
	if err := cursor.All(ctx, &results); err != nil {
		return nil, fmt.Errorf("academy/mongo: completion totals decode: %w", err)
	}

	if len(results) == 0 {
		return &completion.Totals{}, nil
	}
	return &completion.Totals{
		TaskCompletions: results[0].Tasks,
		PointsAwarded:   results[0].Points,
	}, nil
}

// ==================== Helpers ====================

// insertUnique inserts a catalog document, mapping a duplicate _id to
// ErrAlreadyExists.
func (s *Store) insertUnique(ctx context.Context, what string, m any) error {
	_, err := s.mdb.NewInsert(m).Exec(ctx)
	if err != nil {
		if mongo.IsDuplicateKeyError(err) {
			return academy.ErrAlreadyExists
		}
		return fmt.Errorf("academy/mongo: create %s: %w", what, err)
	}
	return nil
}

func now() time.Time {
	return time.Now().UTC()
}

// isNoDocuments checks if an error wraps mongo.ErrNoDocuments.
func isNoDocuments(err error) bool {
	return errors.Is(err, mongo.ErrNoDocuments)
}

// migrationIndexes returns the index definitions for all academy collections.
func migrationIndexes() map[string][]mongo.IndexModel {
	return map[string][]mongo.IndexModel{
		colCourses: {
			{Keys: bson.D{{Key: "active", Value: 1}, {Key: "position", Value: 1}}},
		},
		colLessons: {
			{Keys: bson.D{{Key: "course_id", Value: 1}, {Key: "position", Value: 1}}},
		},
		colTasks: {
			{Keys: bson.D{{Key: "lesson_id", Value: 1}}},
		},
		colCompletions: {
			{Keys: bson.D{{Key: "user_id", Value: 1}, {Key: "created_at", Value: 1}}},
			{Keys: bson.D{{Key: "user_id", Value: 1}, {Key: "target.kind", Value: 1}, {Key: "target.course_id", Value: 1}}},
			{
				Keys:    bson.D{{Key: "idempotency_key", Value: 1}},
				Options: options.Index().SetUnique(true).SetSparse(true),
			},
		},
	}
}
