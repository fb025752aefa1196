package academy

import "github.com/xraph/academy/id"

// ID is the TypeID wrapper used for engine-minted records.
type ID = id.ID

// UserID is re-exported from the id package.
type UserID = id.UserID

// CourseID is re-exported from the id package.
type CourseID = id.CourseID

// LessonID is re-exported from the id package.
type LessonID = id.LessonID

// TaskID is re-exported from the id package.
type TaskID = id.TaskID
