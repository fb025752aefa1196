package academy

import (
	"context"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/xraph/academy/access"
	"github.com/xraph/academy/completion"
	"github.com/xraph/academy/course"
	"github.com/xraph/academy/id"
	"github.com/xraph/academy/invoice"
	"github.com/xraph/academy/plugin"
	"github.com/xraph/academy/progress"
	"github.com/xraph/academy/store"
	"github.com/xraph/academy/types"
	"github.com/xraph/academy/user"
)

// Academy is the progress and access engine. Build one in main and pass it
// to the transport; it holds no package-level state.
type Academy struct {
	store   store.Store
	plugins *plugin.Registry
	logger  *slog.Logger

	// Per-user mutexes, id.UserID -> *sync.Mutex.
	locks sync.Map

	bonusPoints int
	catalog     course.Catalog
	now         func() time.Time
}

// New creates a new Academy instance.
func New(s store.Store, opts ...Option) *Academy {
	a := &Academy{
		store:       s,
		plugins:     plugin.NewRegistry(),
		logger:      slog.Default(),
		bonusPoints: progress.AwardFor(progress.KindPurchase),
		catalog:     course.DefaultCatalog(),
		now:         func() time.Time { return time.Now().UTC() },
	}

	for _, opt := range opts {
		opt(a)
	}

	return a
}

// Option configures an Academy instance.
type Option func(*Academy)

// WithLogger sets the logger.
func WithLogger(logger *slog.Logger) Option {
	return func(a *Academy) {
		a.logger = logger
		a.plugins.WithLogger(logger)
	}
}

// WithPlugin registers a plugin.
func WithPlugin(p plugin.Plugin) Option {
	return func(a *Academy) {
		_ = a.plugins.Register(p) //nolint:errcheck // best-effort plugin registration during init
	}
}

// WithPluginTimeout bounds each plugin hook call.
func WithPluginTimeout(d time.Duration) Option {
	return func(a *Academy) {
		a.plugins.WithTimeout(d)
	}
}

// WithBonusPoints overrides the purchase bonus.
func WithBonusPoints(points int) Option {
	return func(a *Academy) {
		if points >= 0 {
			a.bonusPoints = points
		}
	}
}

// WithCatalog replaces the catalog inserted by Seed.
func WithCatalog(cat course.Catalog) Option {
	return func(a *Academy) {
		a.catalog = cat
	}
}

// WithClock sets the time source for new records.
func WithClock(now func() time.Time) Option {
	return func(a *Academy) {
		a.now = now
	}
}

// Store returns the underlying store.
func (a *Academy) Store() store.Store { return a.store }

// Plugins returns the plugin registry.
func (a *Academy) Plugins() *plugin.Registry { return a.plugins }

// Start migrates the store and initializes plugins.
func (a *Academy) Start(ctx context.Context) error {
	if err := a.store.Migrate(ctx); err != nil {
		return Storage("migrate", err)
	}

	a.plugins.EmitInit(ctx, a)

	a.logger.Info("academy started",
		"plugins", a.plugins.Count(),
		"bonus_points", a.bonusPoints,
	)

	return nil
}

// Stop shuts down plugins and closes the store.
func (a *Academy) Stop() error {
	a.plugins.EmitShutdown(context.Background())
	return a.store.Close()
}

// lockUser serializes mutations for one user and returns the unlock func.
// Mutexes are kept for the life of the engine: one small entry per user
// who ever wrote, which stays bounded at chat-bot scale.
func (a *Academy) lockUser(userID id.UserID) func() {
	v, _ := a.locks.LoadOrStore(userID, &sync.Mutex{})
	mu := v.(*sync.Mutex)
	mu.Lock()
	return mu.Unlock
}

// ──────────────────────────────────────────────────
// Users
// ──────────────────────────────────────────────────

// RegisterUser stores the user on first contact. Later calls never
// overwrite the stored profile; the stored user is returned either way.
func (a *Academy) RegisterUser(ctx context.Context, userID id.UserID, username, fullName string) (*user.User, error) {
	if !userID.Valid() {
		return nil, fmt.Errorf("%w: user id %d", ErrInvalidInput, userID)
	}

	now := a.now()
	u := &user.User{
		Entity:       types.Entity{CreatedAt: now, UpdatedAt: now},
		ID:           userID,
		Username:     username,
		FullName:     fullName,
		RegisteredAt: now,
	}

	inserted, err := a.store.RegisterUser(ctx, u)
	if err != nil {
		return nil, Storage("register user", err)
	}
	if !inserted {
		return a.GetUser(ctx, userID)
	}

	a.logger.Info("user registered", "user_id", userID, "username", username)
	a.plugins.EmitUserRegistered(ctx, u)
	return u, nil
}

// GetUser retrieves a user by ID.
func (a *Academy) GetUser(ctx context.Context, userID id.UserID) (*user.User, error) {
	u, err := a.store.GetUser(ctx, userID)
	return u, Storage("get user", err)
}

// ActivateSubscription marks the user as subscribed to courseID. Calling
// it again with the same arguments changes nothing.
func (a *Academy) ActivateSubscription(ctx context.Context, userID id.UserID, courseID id.CourseID) error {
	if _, err := a.GetCourse(ctx, courseID); err != nil {
		return err
	}
	return Storage("activate subscription", a.store.ActivateSubscription(ctx, userID, courseID))
}

// ──────────────────────────────────────────────────
// Catalog
// ──────────────────────────────────────────────────

// ActiveCourses returns purchasable courses in catalog order.
func (a *Academy) ActiveCourses(ctx context.Context) ([]*course.Course, error) {
	cs, err := a.store.ListActiveCourses(ctx)
	return cs, Storage("list courses", err)
}

// GetCourse retrieves a course by ID.
func (a *Academy) GetCourse(ctx context.Context, courseID id.CourseID) (*course.Course, error) {
	c, err := a.store.GetCourse(ctx, courseID)
	return c, Storage("get course", err)
}

// Lessons returns the lessons of a course in display order.
func (a *Academy) Lessons(ctx context.Context, courseID id.CourseID) ([]*course.Lesson, error) {
	ls, err := a.store.ListLessons(ctx, courseID)
	return ls, Storage("list lessons", err)
}

// GetLesson retrieves a lesson by ID.
func (a *Academy) GetLesson(ctx context.Context, lessonID id.LessonID) (*course.Lesson, error) {
	l, err := a.store.GetLesson(ctx, lessonID)
	return l, Storage("get lesson", err)
}

// Tasks returns the tasks attached to a lesson.
func (a *Academy) Tasks(ctx context.Context, lessonID id.LessonID) ([]*course.Task, error) {
	ts, err := a.store.ListTasks(ctx, lessonID)
	return ts, Storage("list tasks", err)
}

// GetTask retrieves a task by ID.
func (a *Academy) GetTask(ctx context.Context, taskID id.TaskID) (*course.Task, error) {
	t, err := a.store.GetTask(ctx, taskID)
	return t, Storage("get task", err)
}

// Seed inserts the configured catalog when no course exists yet. It
// reports whether anything was inserted.
func (a *Academy) Seed(ctx context.Context) (bool, error) {
	existing, err := a.ActiveCourses(ctx)
	if err != nil {
		return false, err
	}
	if len(existing) > 0 {
		return false, nil
	}

	for _, c := range a.catalog.Courses {
		if err := a.store.CreateCourse(ctx, c); err != nil {
			return false, Storage("seed course", err)
		}
	}
	for _, l := range a.catalog.Lessons {
		if err := a.store.CreateLesson(ctx, l); err != nil {
			return false, Storage("seed lesson", err)
		}
	}
	for _, t := range a.catalog.Tasks {
		if err := a.store.CreateTask(ctx, t); err != nil {
			return false, Storage("seed task", err)
		}
	}

	a.logger.Info("catalog seeded",
		"courses", len(a.catalog.Courses),
		"lessons", len(a.catalog.Lessons),
		"tasks", len(a.catalog.Tasks),
	)
	return true, nil
}

// AttachVideo stores an opaque file reference on a lesson.
func (a *Academy) AttachVideo(ctx context.Context, lessonID id.LessonID, videoRef string) error {
	if videoRef == "" {
		return ValidationError{Field: "video_ref", Message: "must not be empty"}
	}
	if err := a.store.SetLessonVideo(ctx, lessonID, videoRef); err != nil {
		return Storage("set lesson video", err)
	}

	a.logger.Info("lesson video attached", "lesson_id", lessonID)
	a.plugins.EmitVideoAttached(ctx, lessonID, videoRef)
	return nil
}

// ──────────────────────────────────────────────────
// Progress
// ──────────────────────────────────────────────────

// RecordCompletion appends one completion event for a lesson or task and
// returns the user's updated progress. Course targets are written only by
// Unlock.
func (a *Academy) RecordCompletion(ctx context.Context, userID id.UserID, target completion.Target, kind progress.Kind, points int) (*progress.Snapshot, error) {
	if points < 0 {
		return nil, ValidationError{Field: "points", Message: fmt.Sprintf("must not be negative, got %d", points)}
	}
	if err := target.Validate(); err != nil {
		return nil, ValidationError{Field: "target", Message: err.Error()}
	}
	if err := checkKind(target.Kind, kind); err != nil {
		return nil, err
	}
	if err := a.targetExists(ctx, target); err != nil {
		return nil, err
	}

	unlock := a.lockUser(userID)
	defer unlock()

	if _, err := a.GetUser(ctx, userID); err != nil {
		return nil, err
	}

	ev := a.newEvent(userID, target, kind, points, "")
	snap, _, err := a.appendLocked(ctx, ev)
	return snap, err
}

// checkKind rejects kinds that do not belong to the target variant.
func checkKind(target completion.TargetKind, kind progress.Kind) error {
	ok := false
	switch target {
	case completion.TargetLesson:
		ok = kind == progress.KindLesson || kind == progress.KindDemo
	case completion.TargetTask:
		ok = kind == progress.KindQuiz || kind == progress.KindPractical
	case completion.TargetCourse:
		// Purchase events carry an unlock key and go through Unlock.
		ok = false
	}
	if !ok {
		return ValidationError{Field: "kind", Message: fmt.Sprintf("%q is not valid for a %s target", kind, target)}
	}
	return nil
}

func (a *Academy) targetExists(ctx context.Context, t completion.Target) error {
	var err error
	switch t.Kind {
	case completion.TargetLesson:
		_, err = a.GetLesson(ctx, t.Lesson)
	case completion.TargetTask:
		_, err = a.GetTask(ctx, t.Task)
	case completion.TargetCourse:
		_, err = a.GetCourse(ctx, t.Course)
	}
	return err
}

func (a *Academy) newEvent(userID id.UserID, target completion.Target, kind progress.Kind, points int, key string) *completion.Event {
	return &completion.Event{
		ID:             id.NewEventID(),
		UserID:         userID,
		Target:         target,
		Kind:           kind,
		Points:         points,
		IdempotencyKey: key,
		CreatedAt:      a.now(),
	}
}

// appendLocked stores ev and emits the follow-up hooks. The caller holds
// the user's lock. It reports false when the event's idempotency key was
// already stored.
func (a *Academy) appendLocked(ctx context.Context, ev *completion.Event) (*progress.Snapshot, bool, error) {
	before, err := a.store.SumPoints(ctx, ev.UserID)
	if err != nil {
		return nil, false, Storage("sum points", err)
	}

	inserted, err := a.store.AppendCompletion(ctx, ev)
	if err != nil {
		return nil, false, Storage("append completion", err)
	}

	snap, err := a.Progress(ctx, ev.UserID)
	if err != nil {
		return nil, inserted, err
	}
	if !inserted {
		return snap, false, nil
	}

	a.logger.Debug("completion recorded",
		"user_id", ev.UserID,
		"target", ev.Target.String(),
		"kind", ev.Kind,
		"points", ev.Points,
		"total", snap.TotalPoints,
	)
	a.plugins.EmitCompletionRecorded(ctx, ev)

	from := progress.ComputeLevel(before)
	if from.Label != snap.Level.Label {
		a.logger.Info("level changed",
			"user_id", ev.UserID,
			"from", from.Label,
			"to", snap.Level.Label,
		)
		a.plugins.EmitLevelChanged(ctx, ev.UserID, from, snap.Level, snap.TotalPoints)
	}

	return snap, true, nil
}

// TotalPoints returns the user's point total. Unknown users have 0.
func (a *Academy) TotalPoints(ctx context.Context, userID id.UserID) (int64, error) {
	total, err := a.store.SumPoints(ctx, userID)
	return total, Storage("sum points", err)
}

// ProgressSummary aggregates the user's completion events.
func (a *Academy) ProgressSummary(ctx context.Context, userID id.UserID) (*completion.Summary, error) {
	sum, err := a.store.Summarize(ctx, userID)
	return sum, Storage("summarize", err)
}

// Progress returns the summary together with the level it maps to.
func (a *Academy) Progress(ctx context.Context, userID id.UserID) (*progress.Snapshot, error) {
	sum, err := a.ProgressSummary(ctx, userID)
	if err != nil {
		return nil, err
	}
	return progress.NewSnapshot(sum.TotalPoints, sum.DistinctLessonsCompleted, sum.TaskCompletionCount), nil
}

// ListCompletions returns the user's completion history, oldest first.
func (a *Academy) ListCompletions(ctx context.Context, userID id.UserID, opts completion.ListOpts) ([]*completion.Event, error) {
	evs, err := a.store.ListCompletions(ctx, userID, opts)
	return evs, Storage("list completions", err)
}

// ──────────────────────────────────────────────────
// Access
// ──────────────────────────────────────────────────

// Unlock moves (userID, courseID) from Locked to Unlocked and awards the
// purchase bonus. Repeating it is a no-op that still reports Unlocked.
func (a *Academy) Unlock(ctx context.Context, userID id.UserID, courseID id.CourseID) (*access.Decision, error) {
	if _, err := a.GetCourse(ctx, courseID); err != nil {
		return nil, err
	}

	unlock := a.lockUser(userID)
	defer unlock()

	if _, err := a.GetUser(ctx, userID); err != nil {
		return nil, err
	}

	ev := a.newEvent(userID, completion.CourseTarget(courseID), progress.KindPurchase, a.bonusPoints, access.UnlockKey(userID, courseID))
	_, inserted, err := a.appendLocked(ctx, ev)
	if err != nil {
		return nil, err
	}

	// Re-run on every delivery so a failed activation heals on retry.
	if err := a.store.ActivateSubscription(ctx, userID, courseID); err != nil {
		return nil, Storage("activate subscription", err)
	}

	d := &access.Decision{
		UserID:   userID,
		CourseID: courseID,
		State:    access.StateUnlocked,
		Allowed:  true,
		Changed:  inserted,
	}
	if !inserted {
		d.Reason = "already unlocked"
		return d, nil
	}

	d.BonusPoints = a.bonusPoints
	a.logger.Info("course unlocked",
		"user_id", userID,
		"course_id", courseID,
		"bonus", a.bonusPoints,
	)
	a.plugins.EmitCourseUnlocked(ctx, d)
	return d, nil
}

// IsUnlocked reports whether the user has purchased the course. An
// unknown course is an error, not a locked one.
func (a *Academy) IsUnlocked(ctx context.Context, userID id.UserID, courseID id.CourseID) (bool, error) {
	if _, err := a.GetCourse(ctx, courseID); err != nil {
		return false, err
	}
	ok, err := a.store.HasPurchase(ctx, userID, courseID)
	return ok, Storage("has purchase", err)
}

// CanViewLesson decides whether the user may open a lesson. Demo lessons
// are always open.
func (a *Academy) CanViewLesson(ctx context.Context, userID id.UserID, lessonID id.LessonID) (*access.Decision, error) {
	l, err := a.GetLesson(ctx, lessonID)
	if err != nil {
		return nil, err
	}

	unlocked, err := a.IsUnlocked(ctx, userID, l.CourseID)
	if err != nil {
		return nil, err
	}

	d := &access.Decision{
		UserID:   userID,
		CourseID: l.CourseID,
		State:    access.StateOf(unlocked),
		Allowed:  unlocked || l.Demo,
	}
	switch {
	case unlocked:
	case l.Demo:
		d.Reason = "demo lesson"
	default:
		d.Reason = "course not purchased"
	}
	return d, nil
}

// ──────────────────────────────────────────────────
// Purchases
// ──────────────────────────────────────────────────

// PurchaseInvoice builds the invoice the transport sends for courseID.
func (a *Academy) PurchaseInvoice(ctx context.Context, userID id.UserID, courseID id.CourseID) (*invoice.Invoice, error) {
	c, err := a.GetCourse(ctx, courseID)
	if err != nil {
		return nil, err
	}
	if !c.Active {
		return nil, fmt.Errorf("%w: course %d is not for sale", ErrForbidden, courseID)
	}

	return &invoice.Invoice{
		Entity:         types.NewEntity(),
		ID:             id.NewInvoiceID(),
		UserID:         userID,
		CourseID:       c.ID,
		Title:          c.Title,
		Description:    fmt.Sprintf("%s (%d дней доступа)", c.Description, c.DurationDays),
		Payload:        invoice.Payload(c.ID),
		StartParameter: "course-" + c.ID.String(),
		Amount:         c.Price,
		LineItems: []invoice.LineItem{
			{Label: c.Title, Amount: c.Price},
		},
	}, nil
}

// ──────────────────────────────────────────────────
// Admin
// ──────────────────────────────────────────────────

// Stats are the aggregate counters shown to administrators.
type Stats struct {
	Users           int64 `json:"users"`
	ActiveCourses   int64 `json:"active_courses"`
	TaskCompletions int64 `json:"task_completions"`
	PointsAwarded   int64 `json:"points_awarded"`
}

// Stats returns aggregate counters.
func (a *Academy) Stats(ctx context.Context) (*Stats, error) {
	users, err := a.store.CountUsers(ctx)
	if err != nil {
		return nil, Storage("count users", err)
	}
	courses, err := a.ActiveCourses(ctx)
	if err != nil {
		return nil, err
	}
	totals, err := a.store.CompletionTotals(ctx)
	if err != nil {
		return nil, Storage("completion totals", err)
	}

	return &Stats{
		Users:           users,
		ActiveCourses:   int64(len(courses)),
		TaskCompletions: totals.TaskCompletions,
		PointsAwarded:   totals.PointsAwarded,
	}, nil
}
