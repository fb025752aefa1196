package academy

import (
	"context"
	"fmt"

	"github.com/xraph/academy/access"
	"github.com/xraph/academy/completion"
	"github.com/xraph/academy/course"
	"github.com/xraph/academy/event"
	"github.com/xraph/academy/progress"
)

// Outcome is the result of handling one inbound event.
type Outcome struct {
	Kind event.Kind `json:"kind"`

	// Recorded is set when a completion event was stored.
	Recorded      bool `json:"recorded"`
	PointsAwarded int  `json:"points_awarded"`

	// Task answers only.
	Correct       bool   `json:"correct,omitempty"`
	CorrectAnswer string `json:"correct_answer,omitempty"`
	Explanation   string `json:"explanation,omitempty"`

	Access   *access.Decision   `json:"access,omitempty"`
	Progress *progress.Snapshot `json:"progress,omitempty"`
}

// Handle routes an inbound event to the matching operation.
func (a *Academy) Handle(ctx context.Context, e event.Event) (*Outcome, error) {
	if e == nil {
		return nil, fmt.Errorf("%w: nil event", ErrUnknownEvent)
	}
	if !e.User().Valid() {
		return nil, ValidationError{Field: "user", Message: fmt.Sprintf("invalid user id %d", e.User())}
	}
	return event.Dispatch[*Outcome](ctx, e, handler{a})
}

// handler adapts Academy to event.Handler.
type handler struct{ a *Academy }

var _ event.Handler[*Outcome] = handler{}

func (h handler) LessonViewed(ctx context.Context, e event.LessonViewed) (*Outcome, error) {
	d, err := h.a.CanViewLesson(ctx, e.UserID, e.LessonID)
	if err != nil {
		return nil, err
	}
	if !d.Allowed {
		return &Outcome{Kind: e.Kind(), Access: d}, fmt.Errorf("%w: course %d", ErrCourseLocked, d.CourseID)
	}

	l, err := h.a.GetLesson(ctx, e.LessonID)
	if err != nil {
		return nil, err
	}

	kind := progress.KindLesson
	if l.Demo {
		kind = progress.KindDemo
	}
	points := l.Points
	if points == 0 {
		points = progress.AwardFor(kind)
	}

	snap, err := h.a.RecordCompletion(ctx, e.UserID, completion.LessonTarget(l.ID), kind, points)
	if err != nil {
		return nil, err
	}

	return &Outcome{
		Kind:          e.Kind(),
		Recorded:      true,
		PointsAwarded: points,
		Access:        d,
		Progress:      snap,
	}, nil
}

func (h handler) TaskAnswered(ctx context.Context, e event.TaskAnswered) (*Outcome, error) {
	t, err := h.a.GetTask(ctx, e.TaskID)
	if err != nil {
		return nil, err
	}

	d, err := h.a.CanViewLesson(ctx, e.UserID, t.LessonID)
	if err != nil {
		return nil, err
	}
	if !d.Allowed {
		return &Outcome{Kind: e.Kind(), Access: d}, fmt.Errorf("%w: course %d", ErrCourseLocked, d.CourseID)
	}

	correct := t.Check(e.Answer)
	h.a.plugins.EmitAnswerChecked(ctx, e.UserID, e.TaskID, correct)

	out := &Outcome{
		Kind:        e.Kind(),
		Correct:     correct,
		Explanation: t.Explanation,
		Access:      d,
	}

	if !correct {
		out.CorrectAnswer = t.CorrectAnswer
		snap, err := h.a.Progress(ctx, e.UserID)
		if err != nil {
			return nil, err
		}
		out.Progress = snap
		return out, nil
	}

	kind := progress.KindQuiz
	if t.Type == course.TaskPractical {
		kind = progress.KindPractical
	}
	points := t.Points
	if points == 0 {
		points = progress.AwardFor(kind)
	}

	snap, err := h.a.RecordCompletion(ctx, e.UserID, completion.TaskTarget(t.ID), kind, points)
	if err != nil {
		return nil, err
	}

	out.Recorded = true
	out.PointsAwarded = points
	out.Progress = snap
	return out, nil
}

func (h handler) PurchaseConfirmed(ctx context.Context, e event.PurchaseConfirmed) (*Outcome, error) {
	d, err := h.a.Unlock(ctx, e.UserID, e.CourseID)
	if err != nil {
		return nil, err
	}

	h.a.logger.Info("purchase confirmed",
		"user_id", e.UserID,
		"course_id", e.CourseID,
		"amount", e.AmountPaid,
		"currency", e.Currency,
		"transaction_id", e.TransactionID,
		"first", d.Changed,
	)

	snap, err := h.a.Progress(ctx, e.UserID)
	if err != nil {
		return nil, err
	}

	return &Outcome{
		Kind:          e.Kind(),
		Recorded:      d.Changed,
		PointsAwarded: d.BonusPoints,
		Access:        d,
		Progress:      snap,
	}, nil
}
