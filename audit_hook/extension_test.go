package audithook_test

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"testing"

	"github.com/xraph/academy"
	audithook "github.com/xraph/academy/audit_hook"
	"github.com/xraph/academy/event"
	"github.com/xraph/academy/id"
	"github.com/xraph/academy/store/memory"
)

type captured struct {
	events []*audithook.AuditEvent
}

func (c *captured) Record(_ context.Context, ev *audithook.AuditEvent) error {
	c.events = append(c.events, ev)
	return nil
}

func (c *captured) actions() []string {
	out := make([]string, len(c.events))
	for i, ev := range c.events {
		out[i] = ev.Action
	}
	return out
}

func setup(t *testing.T, opts ...audithook.Option) (*academy.Academy, *captured) {
	t.Helper()
	rec := &captured{}
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	a := academy.New(memory.New(),
		academy.WithLogger(logger),
		academy.WithPlugin(audithook.New(rec, opts...)),
	)
	ctx := context.Background()
	if err := a.Start(ctx); err != nil {
		t.Fatalf("Start: %v", err)
	}
	if _, err := a.Seed(ctx); err != nil {
		t.Fatalf("Seed: %v", err)
	}
	t.Cleanup(func() { _ = a.Stop() })
	return a, rec
}

func TestAuditTrail(t *testing.T) {
	a, rec := setup(t)
	ctx := context.Background()

	if _, err := a.RegisterUser(ctx, 7, "ivan", "Ivan"); err != nil {
		t.Fatalf("RegisterUser: %v", err)
	}
	if _, err := a.Handle(ctx, event.TaskAnswered{UserID: 7, TaskID: 1, Answer: "10"}); err != nil {
		t.Fatalf("wrong answer: %v", err)
	}
	if _, err := a.Handle(ctx, event.TaskAnswered{UserID: 7, TaskID: 1, Answer: "11"}); err != nil {
		t.Fatalf("right answer: %v", err)
	}
	if _, err := a.Unlock(ctx, 7, id.CourseID(1)); err != nil {
		t.Fatalf("Unlock: %v", err)
	}

	want := []string{
		audithook.ActionUserRegistered,
		audithook.ActionAnswerRejected,
		audithook.ActionCompletionRecorded,
		audithook.ActionCompletionRecorded,
		audithook.ActionLevelChanged,
		audithook.ActionCourseUnlocked,
	}
	got := rec.actions()
	if len(got) != len(want) {
		t.Fatalf("actions = %v, want %v", got, want)
	}
	for i := range want {
		if got[i] != want[i] {
			t.Errorf("action[%d] = %q, want %q", i, got[i], want[i])
		}
	}

	unlock := rec.events[len(rec.events)-1]
	if unlock.ResourceID != "1" || unlock.Metadata["bonus_points"] != 100 {
		t.Errorf("unlock event = %+v", unlock)
	}
}

func TestAuditEnabledActions(t *testing.T) {
	a, rec := setup(t, audithook.WithEnabledActions(audithook.ActionCourseUnlocked))
	ctx := context.Background()

	if _, err := a.RegisterUser(ctx, 8, "", ""); err != nil {
		t.Fatalf("RegisterUser: %v", err)
	}
	if _, err := a.Unlock(ctx, 8, 2); err != nil {
		t.Fatalf("Unlock: %v", err)
	}
	if len(rec.events) != 1 || rec.events[0].Action != audithook.ActionCourseUnlocked {
		t.Fatalf("events = %v", rec.actions())
	}
}

func TestAuditDisabledActions(t *testing.T) {
	a, rec := setup(t, audithook.WithDisabledActions(audithook.ActionUserRegistered))
	if _, err := a.RegisterUser(context.Background(), 9, "", ""); err != nil {
		t.Fatalf("RegisterUser: %v", err)
	}
	if len(rec.events) != 0 {
		t.Fatalf("events = %v, want none", rec.actions())
	}
}

func TestRecorderFailureIsSwallowed(t *testing.T) {
	failing := audithook.RecorderFunc(func(context.Context, *audithook.AuditEvent) error {
		return errors.New("down")
	})
	ext := audithook.New(failing, audithook.WithLogger(slog.New(slog.NewTextHandler(io.Discard, nil))))
	if err := ext.OnVideoAttached(context.Background(), 3, "file-1"); err != nil {
		t.Fatalf("OnVideoAttached = %v, want nil", err)
	}
}
