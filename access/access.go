// Package access models the per (user, course) lock state.
//
// A course starts Locked for every user and moves to Unlocked once, on a
// confirmed purchase. There is no transition back.
package access

import (
	"fmt"

	"github.com/xraph/academy/id"
)

type State string

const (
	StateLocked   State = "locked"
	StateUnlocked State = "unlocked"
)

// StateOf maps a purchase flag to a State.
func StateOf(purchased bool) State {
	if purchased {
		return StateUnlocked
	}
	return StateLocked
}

// Decision is the answer to an access question about a course or lesson.
type Decision struct {
	UserID   id.UserID   `json:"user_id"`
	CourseID id.CourseID `json:"course_id"`
	State    State       `json:"state"`
	Allowed  bool        `json:"allowed"`
	// Changed is set when this call performed the Locked to Unlocked move.
	Changed     bool   `json:"changed"`
	BonusPoints int    `json:"bonus_points,omitempty"`
	Reason      string `json:"reason,omitempty"`
}

// UnlockKey is the idempotency key of the purchase event that unlocks
// courseID for userID. At most one such event can exist.
func UnlockKey(userID id.UserID, courseID id.CourseID) string {
	return fmt.Sprintf("unlock:%d:%d", userID, courseID)
}
