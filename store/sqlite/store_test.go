package sqlite_test

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"strings"
	"testing"

	"github.com/xraph/grove"
	"github.com/xraph/grove/drivers/sqlitedriver"

	"github.com/xraph/academy"
	"github.com/xraph/academy/completion"
	"github.com/xraph/academy/event"
	"github.com/xraph/academy/id"
	"github.com/xraph/academy/progress"
	"github.com/xraph/academy/store/sqlite"
	"github.com/xraph/academy/types"
)

const pele = id.UserID(10)

// newStore opens a private in-memory database for the test.
func newStore(t *testing.T) *sqlite.Store {
	t.Helper()
	ctx := context.Background()

	name := strings.NewReplacer("/", "_", " ", "_").Replace(t.Name())
	drv := sqlitedriver.New()
	if err := drv.Open(ctx, fmt.Sprintf("file:%s?mode=memory&cache=shared", name)); err != nil {
		t.Fatalf("open sqlite: %v", err)
	}
	db, err := grove.Open(drv)
	if err != nil {
		t.Fatalf("grove open: %v", err)
	}
	return sqlite.New(db)
}

// newAcademy migrates and seeds a fresh SQLite-backed engine.
func newAcademy(t *testing.T) *academy.Academy {
	t.Helper()
	ctx := context.Background()

	a := academy.New(newStore(t), academy.WithLogger(slog.New(slog.NewTextHandler(io.Discard, nil))))
	if err := a.Start(ctx); err != nil {
		t.Fatalf("Start: %v", err)
	}
	t.Cleanup(func() { _ = a.Stop() })

	if _, err := a.Seed(ctx); err != nil {
		t.Fatalf("Seed: %v", err)
	}
	if _, err := a.RegisterUser(ctx, pele, "pele", "Edson Arantes"); err != nil {
		t.Fatalf("RegisterUser: %v", err)
	}
	return a
}

func TestMigrateTwice(t *testing.T) {
	s := newStore(t)
	ctx := context.Background()
	t.Cleanup(func() { _ = s.Close() })

	for i := range 2 {
		if err := s.Migrate(ctx); err != nil {
			t.Fatalf("Migrate #%d: %v", i+1, err)
		}
	}
}

func TestSeededCatalog(t *testing.T) {
	a := newAcademy(t)
	ctx := context.Background()

	courses, err := a.ActiveCourses(ctx)
	if err != nil {
		t.Fatal(err)
	}
	if len(courses) != 3 {
		t.Fatalf("ActiveCourses = %d, want 3", len(courses))
	}
	if courses[0].ID != 1 || !courses[0].Price.Equal(types.RUB(199000)) {
		t.Errorf("first course = %+v", courses[0])
	}
	if courses[0].CreatedAt.IsZero() {
		t.Error("CreatedAt not read back")
	}

	lessons, err := a.Lessons(ctx, 1)
	if err != nil {
		t.Fatal(err)
	}
	if len(lessons) != 2 || !lessons[0].Demo || lessons[1].Demo {
		t.Errorf("lessons = %+v", lessons)
	}

	task, err := a.GetTask(ctx, 1)
	if err != nil {
		t.Fatal(err)
	}
	if strings.Join(task.Options, ",") != "10,11,12" || task.CorrectAnswer != "11" {
		t.Errorf("task = %+v", task)
	}

	seeded, err := a.Seed(ctx)
	if err != nil {
		t.Fatal(err)
	}
	if seeded {
		t.Error("second Seed inserted the catalog again")
	}
}

func TestRegisterUserIdempotent(t *testing.T) {
	a := newAcademy(t)
	ctx := context.Background()

	u, err := a.RegisterUser(ctx, pele, "renamed", "Someone Else")
	if err != nil {
		t.Fatal(err)
	}
	if u.Username != "pele" || u.FullName != "Edson Arantes" {
		t.Errorf("profile overwritten: %+v", u)
	}

	stats, err := a.Stats(ctx)
	if err != nil {
		t.Fatal(err)
	}
	if stats.Users != 1 {
		t.Errorf("Users = %d, want 1", stats.Users)
	}
}

func TestQuizAnswer(t *testing.T) {
	a := newAcademy(t)

	out, err := a.Handle(context.Background(), event.TaskAnswered{UserID: pele, TaskID: 1, Answer: "11"})
	if err != nil {
		t.Fatal(err)
	}
	snap := out.Progress
	if snap.TotalPoints != 20 || snap.Level.Label != progress.Novice || snap.PointsToNextLevel != 80 {
		t.Errorf("snapshot = %+v", snap)
	}
}

func TestUnlockOnce(t *testing.T) {
	a := newAcademy(t)
	ctx := context.Background()

	for i, wantChanged := range []bool{true, false} {
		out, err := a.Handle(ctx, event.PurchaseConfirmed{UserID: pele, CourseID: 1})
		if err != nil {
			t.Fatalf("delivery %d: %v", i+1, err)
		}
		if out.Access.Changed != wantChanged {
			t.Errorf("delivery %d: Changed = %v, want %v", i+1, out.Access.Changed, wantChanged)
		}
	}

	total, err := a.TotalPoints(ctx, pele)
	if err != nil {
		t.Fatal(err)
	}
	if total != 100 {
		t.Errorf("TotalPoints = %d, want one 100 bonus", total)
	}

	tests := []struct {
		course id.CourseID
		want   bool
	}{
		{1, true},
		{2, false},
	}
	for _, tt := range tests {
		got, err := a.IsUnlocked(ctx, pele, tt.course)
		if err != nil {
			t.Fatal(err)
		}
		if got != tt.want {
			t.Errorf("IsUnlocked(%d) = %v, want %v", tt.course, got, tt.want)
		}
	}

	u, err := a.GetUser(ctx, pele)
	if err != nil {
		t.Fatal(err)
	}
	if !u.SubscriptionActive || u.CurrentCourseID == nil || *u.CurrentCourseID != 1 {
		t.Errorf("subscription projection = %+v", u)
	}
}

func TestDistinctLessons(t *testing.T) {
	a := newAcademy(t)
	ctx := context.Background()

	for range 3 {
		if _, err := a.Handle(ctx, event.LessonViewed{UserID: pele, LessonID: 1}); err != nil {
			t.Fatal(err)
		}
	}
	if _, err := a.Handle(ctx, event.TaskAnswered{UserID: pele, TaskID: 1, Answer: "11"}); err != nil {
		t.Fatal(err)
	}

	sum, err := a.ProgressSummary(ctx, pele)
	if err != nil {
		t.Fatal(err)
	}
	if sum.TotalPoints != 50 || sum.DistinctLessonsCompleted != 1 || sum.TaskCompletionCount != 1 {
		t.Errorf("summary = %+v", sum)
	}
}

func TestSumInvariant(t *testing.T) {
	a := newAcademy(t)
	ctx := context.Background()

	events := []event.Event{
		event.LessonViewed{UserID: pele, LessonID: 1},
		event.TaskAnswered{UserID: pele, TaskID: 1, Answer: "11"},
		event.PurchaseConfirmed{UserID: pele, CourseID: 1},
		event.PurchaseConfirmed{UserID: pele, CourseID: 1},
		event.LessonViewed{UserID: pele, LessonID: 2},
		event.TaskAnswered{UserID: pele, TaskID: 2, Answer: "done"},
	}
	for _, e := range events {
		if _, err := a.Handle(ctx, e); err != nil {
			t.Fatalf("%s: %v", e.Kind(), err)
		}
	}

	total, err := a.TotalPoints(ctx, pele)
	if err != nil {
		t.Fatal(err)
	}
	history, err := a.ListCompletions(ctx, pele, completion.ListOpts{})
	if err != nil {
		t.Fatal(err)
	}
	var sum int64
	for _, ev := range history {
		sum += int64(ev.Points)
	}
	if sum != total || total != 170 {
		t.Errorf("sum of %d events = %d, total = %d, want 170", len(history), sum, total)
	}
}

func TestUnknownUser(t *testing.T) {
	a := newAcademy(t)
	ctx := context.Background()

	total, err := a.TotalPoints(ctx, 424242)
	if err != nil {
		t.Fatal(err)
	}
	if total != 0 {
		t.Errorf("TotalPoints = %d, want 0", total)
	}

	_, err = a.RecordCompletion(ctx, 424242, completion.LessonTarget(1), progress.KindDemo, 10)
	if !errors.Is(err, academy.ErrUserNotFound) {
		t.Errorf("err = %v, want ErrUserNotFound", err)
	}

	_, err = a.IsUnlocked(ctx, pele, 99)
	if !errors.Is(err, academy.ErrCourseNotFound) {
		t.Errorf("IsUnlocked unknown course err = %v, want ErrCourseNotFound", err)
	}
}

func TestStatsAndVideo(t *testing.T) {
	a := newAcademy(t)
	ctx := context.Background()

	if _, err := a.Handle(ctx, event.TaskAnswered{UserID: pele, TaskID: 1, Answer: "11"}); err != nil {
		t.Fatal(err)
	}
	if err := a.AttachVideo(ctx, 1, "file-id"); err != nil {
		t.Fatal(err)
	}

	l, err := a.GetLesson(ctx, 1)
	if err != nil {
		t.Fatal(err)
	}
	if l.VideoRef != "file-id" {
		t.Errorf("VideoRef = %q", l.VideoRef)
	}

	stats, err := a.Stats(ctx)
	if err != nil {
		t.Fatal(err)
	}
	if stats.Users != 1 || stats.ActiveCourses != 3 || stats.TaskCompletions != 1 || stats.PointsAwarded != 20 {
		t.Errorf("stats = %+v", stats)
	}
}
