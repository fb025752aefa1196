// Package event defines the inbound events the engine reacts to.
//
// Event is a closed set: the unexported marker method keeps other packages
// from adding variants, so Dispatch covers every case. A Handler must
// implement one method per variant; adding a variant breaks every Handler
// at compile time until it handles the new case.
package event

import (
	"context"
	"errors"
	"fmt"

	"github.com/xraph/academy/id"
)

// ErrUnknown is returned by Dispatch for a nil event or a pointer to a
// variant; events are passed by value.
var ErrUnknown = errors.New("event: unknown event")

// Kind names a variant, for logs and metrics.
type Kind string

const (
	KindLessonViewed      Kind = "lesson_viewed"
	KindTaskAnswered      Kind = "task_answered"
	KindPurchaseConfirmed Kind = "purchase_confirmed"
)

// Event is one of LessonViewed, TaskAnswered or PurchaseConfirmed.
type Event interface {
	Kind() Kind
	User() id.UserID
	sealed()
}

// LessonViewed reports that a user finished watching a lesson.
type LessonViewed struct {
	UserID   id.UserID
	LessonID id.LessonID
}

// TaskAnswered carries a user's answer to a quiz or practical task.
type TaskAnswered struct {
	UserID id.UserID
	TaskID id.TaskID
	Answer string
}

// PurchaseConfirmed is the payment collaborator's confirmation. The
// engine trusts it unconditionally.
type PurchaseConfirmed struct {
	UserID        id.UserID
	CourseID      id.CourseID
	AmountPaid    int64
	Currency      string
	TransactionID string
}

func (LessonViewed) Kind() Kind      { return KindLessonViewed }
func (TaskAnswered) Kind() Kind      { return KindTaskAnswered }
func (PurchaseConfirmed) Kind() Kind { return KindPurchaseConfirmed }

func (e LessonViewed) User() id.UserID      { return e.UserID }
func (e TaskAnswered) User() id.UserID      { return e.UserID }
func (e PurchaseConfirmed) User() id.UserID { return e.UserID }

func (LessonViewed) sealed()      {}
func (TaskAnswered) sealed()      {}
func (PurchaseConfirmed) sealed() {}

// Handler reacts to each variant and produces an R.
type Handler[R any] interface {
	LessonViewed(ctx context.Context, e LessonViewed) (R, error)
	TaskAnswered(ctx context.Context, e TaskAnswered) (R, error)
	PurchaseConfirmed(ctx context.Context, e PurchaseConfirmed) (R, error)
}

// Dispatch routes e to the matching Handler method.
func Dispatch[R any](ctx context.Context, e Event, h Handler[R]) (R, error) {
	switch ev := e.(type) {
	case LessonViewed:
		return h.LessonViewed(ctx, ev)
	case TaskAnswered:
		return h.TaskAnswered(ctx, ev)
	case PurchaseConfirmed:
		return h.PurchaseConfirmed(ctx, ev)
	}

	var zero R
	return zero, fmt.Errorf("%w: %T", ErrUnknown, e)
}
