package completion

import (
	"context"
	"time"

	"github.com/xraph/academy/id"
)

type Store interface {
	// Append stores ev. When ev carries an idempotency key that is already
	// stored, nothing is written and Append reports false.
	Append(ctx context.Context, ev *Event) (bool, error)
	SumPoints(ctx context.Context, userID id.UserID) (int64, error)
	Summarize(ctx context.Context, userID id.UserID) (*Summary, error)
	HasPurchase(ctx context.Context, userID id.UserID, courseID id.CourseID) (bool, error)
	List(ctx context.Context, userID id.UserID, opts ListOpts) ([]*Event, error)
	Totals(ctx context.Context) (*Totals, error)
}

type ListOpts struct {
	Kind   TargetKind
	Since  time.Time
	Limit  int
	Offset int
}

// Totals are ledger-wide counters for the admin view.
type Totals struct {
	TaskCompletions int64 `json:"task_completions"`
	PointsAwarded   int64 `json:"points_awarded"`
}
