package academy_test

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"sync"
	"testing"

	"github.com/xraph/academy"
	"github.com/xraph/academy/access"
	"github.com/xraph/academy/completion"
	"github.com/xraph/academy/event"
	"github.com/xraph/academy/id"
	"github.com/xraph/academy/invoice"
	"github.com/xraph/academy/progress"
	"github.com/xraph/academy/store/memory"
	"github.com/xraph/academy/types"
	"github.com/xraph/academy/user"
)

const alice = id.UserID(1001)

// hookRecorder counts the hooks it receives.
type hookRecorder struct {
	mu           sync.Mutex
	registered   int
	recorded     int
	levelChanges []progress.Label
	unlocked     []id.CourseID
	videos       int
}

func (r *hookRecorder) Name() string { return "recorder" }

func (r *hookRecorder) OnUserRegistered(context.Context, *user.User) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.registered++
	return nil
}

func (r *hookRecorder) OnCompletionRecorded(context.Context, *completion.Event) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.recorded++
	return nil
}

func (r *hookRecorder) OnLevelChanged(_ context.Context, _ id.UserID, _, to progress.Level, _ int64) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.levelChanges = append(r.levelChanges, to.Label)
	return nil
}

func (r *hookRecorder) OnCourseUnlocked(_ context.Context, d *access.Decision) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.unlocked = append(r.unlocked, d.CourseID)
	return nil
}

func (r *hookRecorder) OnVideoAttached(context.Context, id.LessonID, string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.videos++
	return nil
}

func newAcademy(t *testing.T, opts ...academy.Option) *academy.Academy {
	t.Helper()

	opts = append([]academy.Option{academy.WithLogger(slog.New(slog.NewTextHandler(io.Discard, nil)))}, opts...)
	a := academy.New(memory.New(), opts...)

	ctx := context.Background()
	if err := a.Start(ctx); err != nil {
		t.Fatalf("Start: %v", err)
	}
	t.Cleanup(func() { _ = a.Stop() })

	if _, err := a.Seed(ctx); err != nil {
		t.Fatalf("Seed: %v", err)
	}
	return a
}

func register(t *testing.T, a *academy.Academy, userID id.UserID) {
	t.Helper()
	if _, err := a.RegisterUser(context.Background(), userID, "alice", "Alice"); err != nil {
		t.Fatalf("RegisterUser: %v", err)
	}
}

func TestRegisterUserIdempotent(t *testing.T) {
	a := newAcademy(t)
	ctx := context.Background()

	first, err := a.RegisterUser(ctx, alice, "alice", "Alice")
	if err != nil {
		t.Fatal(err)
	}
	second, err := a.RegisterUser(ctx, alice, "renamed", "Someone Else")
	if err != nil {
		t.Fatal(err)
	}

	if second.Username != "alice" || second.FullName != "Alice" {
		t.Errorf("profile overwritten: %+v", second)
	}
	if !second.RegisteredAt.Equal(first.RegisteredAt) {
		t.Errorf("RegisteredAt changed: %v != %v", second.RegisteredAt, first.RegisteredAt)
	}

	stats, err := a.Stats(ctx)
	if err != nil {
		t.Fatal(err)
	}
	if stats.Users != 1 {
		t.Errorf("Users = %d, want 1", stats.Users)
	}
}

func TestRegisterUserInvalidID(t *testing.T) {
	a := newAcademy(t)
	_, err := a.RegisterUser(context.Background(), 0, "", "")
	if !errors.Is(err, academy.ErrInvalidInput) {
		t.Errorf("err = %v, want ErrInvalidInput", err)
	}
}

func TestCorrectQuizAnswer(t *testing.T) {
	a := newAcademy(t)
	register(t, a, alice)

	out, err := a.Handle(context.Background(), event.TaskAnswered{UserID: alice, TaskID: 1, Answer: " 11 "})
	if err != nil {
		t.Fatal(err)
	}

	if !out.Correct || !out.Recorded {
		t.Fatalf("outcome = %+v, want correct and recorded", out)
	}
	if out.PointsAwarded != 20 {
		t.Errorf("PointsAwarded = %d, want 20", out.PointsAwarded)
	}
	if out.Progress.TotalPoints != 20 {
		t.Errorf("TotalPoints = %d, want 20", out.Progress.TotalPoints)
	}
	if out.Progress.Level.Label != progress.Novice {
		t.Errorf("Level = %s, want novice", out.Progress.Level.Label)
	}
	if out.Progress.PointsToNextLevel != 80 {
		t.Errorf("PointsToNextLevel = %d, want 80", out.Progress.PointsToNextLevel)
	}
	if out.Progress.TaskCompletionCount != 1 {
		t.Errorf("TaskCompletionCount = %d, want 1", out.Progress.TaskCompletionCount)
	}
}

func TestIncorrectQuizAnswer(t *testing.T) {
	a := newAcademy(t)
	register(t, a, alice)
	ctx := context.Background()

	out, err := a.Handle(ctx, event.TaskAnswered{UserID: alice, TaskID: 1, Answer: "12"})
	if err != nil {
		t.Fatal(err)
	}

	if out.Correct || out.Recorded {
		t.Fatalf("outcome = %+v, want incorrect and not recorded", out)
	}
	if out.CorrectAnswer != "11" {
		t.Errorf("CorrectAnswer = %q, want 11", out.CorrectAnswer)
	}

	total, err := a.TotalPoints(ctx, alice)
	if err != nil {
		t.Fatal(err)
	}
	if total != 0 {
		t.Errorf("TotalPoints = %d, want 0", total)
	}
}

func TestLevelCrossing(t *testing.T) {
	a := newAcademy(t)
	register(t, a, alice)
	ctx := context.Background()

	snap, err := a.RecordCompletion(ctx, alice, completion.LessonTarget(1), progress.KindDemo, 480)
	if err != nil {
		t.Fatal(err)
	}
	if snap.Level.Label != progress.Amateur {
		t.Fatalf("Level at 480 = %s, want amateur", snap.Level.Label)
	}

	snap, err = a.RecordCompletion(ctx, alice, completion.TaskTarget(1), progress.KindQuiz, 25)
	if err != nil {
		t.Fatal(err)
	}
	if snap.TotalPoints != 505 {
		t.Errorf("TotalPoints = %d, want 505", snap.TotalPoints)
	}
	if snap.Level.Label != progress.Expert {
		t.Errorf("Level = %s, want expert", snap.Level.Label)
	}
	if snap.PointsToNextLevel != 495 {
		t.Errorf("PointsToNextLevel = %d, want 495", snap.PointsToNextLevel)
	}
}

func TestPurchaseUnlocksOnce(t *testing.T) {
	a := newAcademy(t)
	register(t, a, alice)
	ctx := context.Background()

	c, err := a.GetCourse(ctx, 1)
	if err != nil {
		t.Fatal(err)
	}
	if !c.Price.Equal(types.RUB(199000)) {
		t.Fatalf("price = %s, want 1990.00 rub", c.Price)
	}

	paid := event.PurchaseConfirmed{
		UserID:        alice,
		CourseID:      1,
		AmountPaid:    c.Price.Amount,
		Currency:      c.Price.CurrencyCode(),
		TransactionID: "tx-1",
	}

	first, err := a.Handle(ctx, paid)
	if err != nil {
		t.Fatal(err)
	}
	if !first.Access.Changed || first.PointsAwarded != 100 {
		t.Errorf("first delivery = %+v, want changed with 100 bonus", first.Access)
	}
	if first.Progress.TotalPoints != 100 {
		t.Errorf("TotalPoints = %d, want 100", first.Progress.TotalPoints)
	}

	second, err := a.Handle(ctx, paid)
	if err != nil {
		t.Fatal(err)
	}
	if second.Access.Changed || second.PointsAwarded != 0 {
		t.Errorf("second delivery = %+v, want no change", second.Access)
	}
	if second.Access.State != access.StateUnlocked {
		t.Errorf("State = %s, want unlocked", second.Access.State)
	}

	total, err := a.TotalPoints(ctx, alice)
	if err != nil {
		t.Fatal(err)
	}
	if total != 100 {
		t.Errorf("TotalPoints after redelivery = %d, want 100", total)
	}

	unlocked, err := a.IsUnlocked(ctx, alice, 1)
	if err != nil {
		t.Fatal(err)
	}
	if !unlocked {
		t.Error("course 1 not unlocked")
	}

	u, err := a.GetUser(ctx, alice)
	if err != nil {
		t.Fatal(err)
	}
	if !u.SubscriptionActive || u.CurrentCourseID == nil || *u.CurrentCourseID != 1 {
		t.Errorf("user projection = %+v, want active on course 1", u)
	}
}

func TestBonusPerCourse(t *testing.T) {
	a := newAcademy(t)
	register(t, a, alice)
	ctx := context.Background()

	for _, c := range []id.CourseID{1, 2, 1, 2} {
		if _, err := a.Unlock(ctx, alice, c); err != nil {
			t.Fatal(err)
		}
	}

	total, err := a.TotalPoints(ctx, alice)
	if err != nil {
		t.Fatal(err)
	}
	if total != 200 {
		t.Errorf("TotalPoints = %d, want 200", total)
	}
}

func TestUnlockUnknownCourse(t *testing.T) {
	a := newAcademy(t)
	register(t, a, alice)

	_, err := a.Unlock(context.Background(), alice, 99)
	if !academy.IsUnknownEntity(err) {
		t.Errorf("err = %v, want unknown entity", err)
	}
	if !errors.Is(err, academy.ErrCourseNotFound) {
		t.Errorf("err = %v, want ErrCourseNotFound", err)
	}
}

func TestIsUnlockedUnknownCourse(t *testing.T) {
	a := newAcademy(t)
	register(t, a, alice)

	unlocked, err := a.IsUnlocked(context.Background(), alice, 99)
	if !errors.Is(err, academy.ErrCourseNotFound) {
		t.Errorf("err = %v, want ErrCourseNotFound", err)
	}
	if unlocked {
		t.Error("unknown course reported unlocked")
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
}

func TestRecordCompletionValidation(t *testing.T) {
	a := newAcademy(t)
	register(t, a, alice)
	ctx := context.Background()

	tests := []struct {
		name    string
		target  completion.Target
		kind    progress.Kind
		points  int
		invalid bool
		unknown bool
	}{
		{"negative points", completion.LessonTarget(1), progress.KindLesson, -5, true, false},
		{"empty target", completion.Target{Kind: completion.TargetLesson}, progress.KindLesson, 10, true, false},
		{"kind mismatch", completion.LessonTarget(1), progress.KindQuiz, 10, true, false},
		{"course target", completion.CourseTarget(1), progress.KindPurchase, 100, true, false},
		{"unknown lesson", completion.LessonTarget(999), progress.KindLesson, 10, false, true},
		{"unknown task", completion.TaskTarget(999), progress.KindQuiz, 20, false, true},
		{"zero points", completion.LessonTarget(1), progress.KindDemo, 0, false, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := a.RecordCompletion(ctx, alice, tt.target, tt.kind, tt.points)
			if got := academy.IsInvalidEventValue(err); got != tt.invalid {
				t.Errorf("IsInvalidEventValue(%v) = %v, want %v", err, got, tt.invalid)
			}
			if got := academy.IsUnknownEntity(err); got != tt.unknown {
				t.Errorf("IsUnknownEntity(%v) = %v, want %v", err, got, tt.unknown)
			}
			if !tt.invalid && !tt.unknown && err != nil {
				t.Errorf("unexpected error: %v", err)
			}
		})
	}

	var verr academy.ValidationError
	_, err := a.RecordCompletion(ctx, alice, completion.LessonTarget(1), progress.KindLesson, -1)
	if !errors.As(err, &verr) || verr.Field != "points" {
		t.Errorf("err = %v, want ValidationError on points", err)
	}
}

func TestLessonGating(t *testing.T) {
	a := newAcademy(t)
	register(t, a, alice)
	ctx := context.Background()

	demo, err := a.Handle(ctx, event.LessonViewed{UserID: alice, LessonID: 1})
	if err != nil {
		t.Fatalf("demo lesson: %v", err)
	}
	if demo.PointsAwarded != 10 || demo.Access.State != access.StateLocked {
		t.Errorf("demo outcome = %+v", demo)
	}

	out, err := a.Handle(ctx, event.LessonViewed{UserID: alice, LessonID: 2})
	if !errors.Is(err, academy.ErrCourseLocked) {
		t.Fatalf("paid lesson err = %v, want ErrCourseLocked", err)
	}
	if out == nil || out.Access == nil || out.Access.Allowed {
		t.Errorf("locked outcome = %+v", out)
	}

	_, err = a.Handle(ctx, event.TaskAnswered{UserID: alice, TaskID: 2, Answer: "done"})
	if !errors.Is(err, academy.ErrCourseLocked) {
		t.Errorf("paid task err = %v, want ErrCourseLocked", err)
	}

	if _, err := a.Unlock(ctx, alice, 1); err != nil {
		t.Fatal(err)
	}

	paid, err := a.Handle(ctx, event.LessonViewed{UserID: alice, LessonID: 2})
	if err != nil {
		t.Fatalf("after unlock: %v", err)
	}
	if paid.Progress.TotalPoints != 120 {
		t.Errorf("TotalPoints = %d, want 120", paid.Progress.TotalPoints)
	}
	if paid.Progress.DistinctLessonsCompleted != 2 {
		t.Errorf("DistinctLessonsCompleted = %d, want 2", paid.Progress.DistinctLessonsCompleted)
	}
}

func TestRepeatedLessonCountsOnce(t *testing.T) {
	a := newAcademy(t)
	register(t, a, alice)
	ctx := context.Background()

	for range 3 {
		if _, err := a.Handle(ctx, event.LessonViewed{UserID: alice, LessonID: 1}); err != nil {
			t.Fatal(err)
		}
	}

	sum, err := a.ProgressSummary(ctx, alice)
	if err != nil {
		t.Fatal(err)
	}
	if sum.TotalPoints != 30 {
		t.Errorf("TotalPoints = %d, want 30", sum.TotalPoints)
	}
	if sum.DistinctLessonsCompleted != 1 {
		t.Errorf("DistinctLessonsCompleted = %d, want 1", sum.DistinctLessonsCompleted)
	}
}

func TestSumInvariant(t *testing.T) {
	a := newAcademy(t)
	register(t, a, alice)
	ctx := context.Background()

	events := []event.Event{
		event.LessonViewed{UserID: alice, LessonID: 1},
		event.TaskAnswered{UserID: alice, TaskID: 1, Answer: "11"},
		event.TaskAnswered{UserID: alice, TaskID: 1, Answer: "10"},
		event.PurchaseConfirmed{UserID: alice, CourseID: 1},
		event.PurchaseConfirmed{UserID: alice, CourseID: 1},
		event.LessonViewed{UserID: alice, LessonID: 2},
		event.TaskAnswered{UserID: alice, TaskID: 2, Answer: "Done"},
	}

	var last int64
	for _, e := range events {
		if _, err := a.Handle(ctx, e); err != nil {
			t.Fatalf("%s: %v", e.Kind(), err)
		}

		total, err := a.TotalPoints(ctx, alice)
		if err != nil {
			t.Fatal(err)
		}
		if total < last {
			t.Fatalf("total decreased from %d to %d", last, total)
		}
		last = total

		history, err := a.ListCompletions(ctx, alice, completion.ListOpts{})
		if err != nil {
			t.Fatal(err)
		}
		var sum int64
		for _, ev := range history {
			sum += int64(ev.Points)
		}
		if sum != total {
			t.Fatalf("sum of events %d != total %d", sum, total)
		}
	}

	// 10 demo + 20 quiz + 100 bonus + 10 lesson + 30 practical
	if last != 170 {
		t.Errorf("final total = %d, want 170", last)
	}
}

func TestListCompletionsFilter(t *testing.T) {
	a := newAcademy(t)
	register(t, a, alice)
	ctx := context.Background()

	_, _ = a.Handle(ctx, event.LessonViewed{UserID: alice, LessonID: 1})
	_, _ = a.Handle(ctx, event.TaskAnswered{UserID: alice, TaskID: 1, Answer: "11"})
	_, _ = a.Unlock(ctx, alice, 1)

	tasks, err := a.ListCompletions(ctx, alice, completion.ListOpts{Kind: completion.TargetTask})
	if err != nil {
		t.Fatal(err)
	}
	if len(tasks) != 1 || tasks[0].Kind != progress.KindQuiz {
		t.Errorf("task history = %+v", tasks)
	}

	page, err := a.ListCompletions(ctx, alice, completion.ListOpts{Limit: 1, Offset: 2})
	if err != nil {
		t.Fatal(err)
	}
	if len(page) != 1 || page[0].Target.Kind != completion.TargetCourse {
		t.Errorf("page = %+v, want the purchase event", page)
	}
	if page[0].IdempotencyKey != access.UnlockKey(alice, 1) {
		t.Errorf("IdempotencyKey = %q", page[0].IdempotencyKey)
	}
}

func TestConcurrentCompletions(t *testing.T) {
	rec := &hookRecorder{}
	a := newAcademy(t, academy.WithPlugin(rec))
	register(t, a, alice)
	ctx := context.Background()

	var wg sync.WaitGroup
	for range 50 {
		wg.Add(1)
		go func() {
			defer wg.Done()
			if _, err := a.Handle(ctx, event.LessonViewed{UserID: alice, LessonID: 1}); err != nil {
				t.Error(err)
			}
		}()
	}
	wg.Wait()

	total, err := a.TotalPoints(ctx, alice)
	if err != nil {
		t.Fatal(err)
	}
	if total != 500 {
		t.Errorf("TotalPoints = %d, want 500", total)
	}

	rec.mu.Lock()
	defer rec.mu.Unlock()
	if rec.recorded != 50 {
		t.Errorf("OnCompletionRecorded calls = %d, want 50", rec.recorded)
	}
	want := []progress.Label{progress.Amateur, progress.Expert}
	if len(rec.levelChanges) != len(want) {
		t.Fatalf("level changes = %v, want %v", rec.levelChanges, want)
	}
	for i := range want {
		if rec.levelChanges[i] != want[i] {
			t.Errorf("level change %d = %s, want %s", i, rec.levelChanges[i], want[i])
		}
	}
}

func TestHooks(t *testing.T) {
	rec := &hookRecorder{}
	a := newAcademy(t, academy.WithPlugin(rec))
	ctx := context.Background()

	register(t, a, alice)
	register(t, a, alice)

	_, _ = a.Unlock(ctx, alice, 3)
	_, _ = a.Unlock(ctx, alice, 3)

	if err := a.AttachVideo(ctx, 5, "BAACAgIAAxkBAAIB"); err != nil {
		t.Fatal(err)
	}

	rec.mu.Lock()
	defer rec.mu.Unlock()
	if rec.registered != 1 {
		t.Errorf("OnUserRegistered calls = %d, want 1", rec.registered)
	}
	if len(rec.unlocked) != 1 || rec.unlocked[0] != 3 {
		t.Errorf("OnCourseUnlocked = %v, want [3]", rec.unlocked)
	}
	if len(rec.levelChanges) != 1 || rec.levelChanges[0] != progress.Amateur {
		t.Errorf("level changes = %v, want [amateur]", rec.levelChanges)
	}
	if rec.videos != 1 {
		t.Errorf("OnVideoAttached calls = %d, want 1", rec.videos)
	}
}

func TestAttachVideo(t *testing.T) {
	a := newAcademy(t)
	ctx := context.Background()

	if err := a.AttachVideo(ctx, 2, "file-ref"); err != nil {
		t.Fatal(err)
	}
	l, err := a.GetLesson(ctx, 2)
	if err != nil {
		t.Fatal(err)
	}
	if !l.HasVideo() || l.VideoRef != "file-ref" {
		t.Errorf("lesson = %+v", l)
	}

	if err := a.AttachVideo(ctx, 2, ""); !academy.IsInvalidEventValue(err) {
		t.Errorf("empty ref err = %v", err)
	}
	if err := a.AttachVideo(ctx, 999, "x"); !errors.Is(err, academy.ErrLessonNotFound) {
		t.Errorf("unknown lesson err = %v", err)
	}
}

func TestPurchaseInvoice(t *testing.T) {
	a := newAcademy(t)
	ctx := context.Background()

	inv, err := a.PurchaseInvoice(ctx, alice, 2)
	if err != nil {
		t.Fatal(err)
	}
	if inv.Payload != "course_2" {
		t.Errorf("Payload = %q", inv.Payload)
	}
	if !inv.Amount.Equal(types.RUB(299000)) {
		t.Errorf("Amount = %s", inv.Amount)
	}
	if inv.ID.Prefix() != id.PrefixInvoice {
		t.Errorf("ID prefix = %s", inv.ID.Prefix())
	}

	courseID, err := invoice.ParsePayload(inv.Payload)
	if err != nil || courseID != 2 {
		t.Errorf("ParsePayload = %d, %v", courseID, err)
	}

	if _, err := a.PurchaseInvoice(ctx, alice, 7); !academy.IsUnknownEntity(err) {
		t.Errorf("unknown course err = %v", err)
	}
}

func TestSeedOnce(t *testing.T) {
	a := newAcademy(t)
	ctx := context.Background()

	again, err := a.Seed(ctx)
	if err != nil {
		t.Fatal(err)
	}
	if again {
		t.Error("second Seed inserted rows")
	}

	courses, err := a.ActiveCourses(ctx)
	if err != nil {
		t.Fatal(err)
	}
	if len(courses) != 3 {
		t.Fatalf("courses = %d, want 3", len(courses))
	}
	for i, c := range courses {
		if c.ID != id.CourseID(i+1) {
			t.Errorf("course %d has id %d, want insertion order", i, c.ID)
		}
	}
}

func TestStats(t *testing.T) {
	a := newAcademy(t)
	ctx := context.Background()
	register(t, a, alice)
	register(t, a, 2002)

	_, _ = a.Handle(ctx, event.TaskAnswered{UserID: alice, TaskID: 1, Answer: "11"})
	_, _ = a.Handle(ctx, event.TaskAnswered{UserID: 2002, TaskID: 3, Answer: "11"})
	_, _ = a.Unlock(ctx, 2002, 2)

	s, err := a.Stats(ctx)
	if err != nil {
		t.Fatal(err)
	}
	want := academy.Stats{Users: 2, ActiveCourses: 3, TaskCompletions: 2, PointsAwarded: 20 + 23 + 100}
	if *s != want {
		t.Errorf("Stats = %+v, want %+v", *s, want)
	}
}

func TestHandleUnknownEvent(t *testing.T) {
	a := newAcademy(t)
	_, err := a.Handle(context.Background(), nil)
	if !errors.Is(err, academy.ErrUnknownEvent) {
		t.Errorf("err = %v, want ErrUnknownEvent", err)
	}
}

func TestStoppedStore(t *testing.T) {
	a := academy.New(memory.New())
	ctx := context.Background()
	if err := a.Start(ctx); err != nil {
		t.Fatal(err)
	}
	if err := a.Stop(); err != nil {
		t.Fatal(err)
	}

	_, err := a.RegisterUser(ctx, alice, "", "")
	if !errors.Is(err, academy.ErrStoreClosed) {
		t.Errorf("err = %v, want ErrStoreClosed", err)
	}
}
