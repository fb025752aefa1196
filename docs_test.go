package academy_test

import (
	"context"
	"log/slog"
	"testing"

	"github.com/xraph/academy"
	"github.com/xraph/academy/event"
	"github.com/xraph/academy/progress"
	"github.com/xraph/academy/store/memory"
)

// TestDocumentationExamples verifies the package documentation examples.
func TestDocumentationExamples(t *testing.T) {
	t.Run("QuickStartExample", func(t *testing.T) {
		ctx := context.Background()

		s := memory.New()
		a := academy.New(s, academy.WithLogger(slog.Default()))
		if err := a.Start(ctx); err != nil {
			t.Fatal(err)
		}
		defer a.Stop()

		if _, err := a.Seed(ctx); err != nil {
			t.Fatal(err)
		}

		u, err := a.RegisterUser(ctx, 42, "pele", "Edson Arantes")
		if err != nil {
			t.Fatal(err)
		}

		out, err := a.Handle(ctx, event.TaskAnswered{UserID: u.ID, TaskID: 1, Answer: "11"})
		if err != nil {
			t.Fatal(err)
		}
		if out.Progress.TotalPoints != 20 || out.Progress.Level.Label != progress.Novice {
			t.Errorf("progress = %+v", out.Progress)
		}

		d, err := a.Unlock(ctx, u.ID, 1)
		if err != nil {
			t.Fatal(err)
		}
		if !d.Changed || d.BonusPoints != 100 {
			t.Errorf("decision = %+v", d)
		}
	})

	t.Run("ReExports", func(t *testing.T) {
		price := academy.RUB(199000)
		if price.String() != "1990.00 ₽" {
			t.Errorf("RUB(199000) = %q", price.String())
		}

		lvl := academy.ComputeLevel(1000)
		if lvl.Label != progress.Master {
			t.Errorf("ComputeLevel(1000) = %s", lvl.Label)
		}
	})
}
