// Package user defines learners known to the academy.
package user

import (
	"time"

	"github.com/xraph/academy/id"
	"github.com/xraph/academy/types"
)

// User is created on first contact and never deleted. Point totals are
// not stored here; they are summed from completion events on read.
type User struct {
	types.Entity
	ID                 id.UserID    `json:"id"`
	Username           string       `json:"username,omitempty"`
	FullName           string       `json:"full_name"`
	RegisteredAt       time.Time    `json:"registered_at"`
	CurrentCourseID    *id.CourseID `json:"current_course_id,omitempty"`
	SubscriptionActive bool         `json:"subscription_active"`
}

// DisplayName returns the full name, falling back to the username.
func (u *User) DisplayName() string {
	if u.FullName != "" {
		return u.FullName
	}
	return u.Username
}
