package audithook

// Action constants for audit events.
const (
	// User actions
	ActionUserRegistered = "user.registered"

	// Progress actions
	ActionCompletionRecorded = "completion.recorded"
	ActionAnswerRejected     = "answer.rejected"
	ActionLevelChanged       = "level.changed"

	// Access actions
	ActionCourseUnlocked = "course.unlocked"

	// Catalog actions
	ActionVideoAttached = "lesson.video_attached"
)

// Resource constants for audit events.
const (
	ResourceUser       = "user"
	ResourceCompletion = "completion"
	ResourceTask       = "task"
	ResourceCourse     = "course"
	ResourceLesson     = "lesson"
)

// Category constants for audit events.
const (
	CategoryUser     = "user"
	CategoryProgress = "progress"
	CategoryAccess   = "access"
	CategoryCatalog  = "catalog"
)

// Severity levels for audit events.
const (
	SeverityInfo    = "info"
	SeverityWarning = "warning"
)

// Outcome values for audit events.
const (
	OutcomeSuccess = "success"
	OutcomeFailure = "failure"
)
