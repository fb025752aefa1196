package user

import (
	"context"

	"github.com/xraph/academy/id"
)

type Store interface {
	// Register inserts u unless a user with the same id exists. It reports
	// whether a row was inserted. Existing rows are never overwritten.
	Register(ctx context.Context, u *User) (bool, error)
	Get(ctx context.Context, userID id.UserID) (*User, error)
	// Activate sets the subscription flag and current course.
	Activate(ctx context.Context, userID id.UserID, courseID id.CourseID) error
	Count(ctx context.Context) (int64, error)
}
