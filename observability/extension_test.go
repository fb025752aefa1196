package observability_test

import (
	"context"
	"io"
	"log/slog"
	"sync"
	"testing"

	"github.com/xraph/academy"
	"github.com/xraph/academy/event"
	"github.com/xraph/academy/observability"
	"github.com/xraph/academy/store/memory"
)

type fakeMetric struct {
	mu  sync.Mutex
	sum float64
	n   int
}

func (f *fakeMetric) Inc() { f.Add(1) }

func (f *fakeMetric) Add(v float64) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.sum += v
	f.n++
}

func (f *fakeMetric) Observe(v float64) { f.Add(v) }

type fakeFactory struct {
	metrics map[string]*fakeMetric
}

func (f *fakeFactory) get(name string) *fakeMetric {
	if m, ok := f.metrics[name]; ok {
		return m
	}
	m := &fakeMetric{}
	f.metrics[name] = m
	return m
}

func (f *fakeFactory) Counter(name string) observability.Counter     { return f.get(name) }
func (f *fakeFactory) Histogram(name string) observability.Histogram { return f.get(name) }

func TestMetricsExtension(t *testing.T) {
	factory := &fakeFactory{metrics: map[string]*fakeMetric{}}
	a := academy.New(memory.New(),
		academy.WithLogger(slog.New(slog.NewTextHandler(io.Discard, nil))),
		academy.WithPlugin(observability.NewMetricsExtension(factory)),
	)
	ctx := context.Background()
	if err := a.Start(ctx); err != nil {
		t.Fatalf("Start: %v", err)
	}
	defer func() { _ = a.Stop() }()
	if _, err := a.Seed(ctx); err != nil {
		t.Fatalf("Seed: %v", err)
	}

	if _, err := a.RegisterUser(ctx, 1, "a", "A"); err != nil {
		t.Fatalf("RegisterUser: %v", err)
	}
	steps := []event.Event{
		event.LessonViewed{UserID: 1, LessonID: 1},
		event.TaskAnswered{UserID: 1, TaskID: 1, Answer: "9"},
		event.TaskAnswered{UserID: 1, TaskID: 1, Answer: "11"},
		event.PurchaseConfirmed{UserID: 1, CourseID: 1, AmountPaid: 199000, Currency: "RUB"},
	}
	for _, e := range steps {
		if _, err := a.Handle(ctx, e); err != nil {
			t.Fatalf("Handle(%s): %v", e.Kind(), err)
		}
	}

	tests := []struct {
		name string
		want float64
	}{
		{"academy.user.registered", 1},
		{"academy.completion.recorded", 3},
		{"academy.completion.lessons", 1},
		{"academy.completion.tasks", 1},
		{"academy.points.awarded", 130},
		{"academy.answer.correct", 1},
		{"academy.answer.wrong", 1},
		{"academy.level.changed", 1},
		{"academy.course.unlocked", 1},
		{"academy.lesson.video_attached", 0},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := factory.get(tt.name).sum; got != tt.want {
				t.Errorf("%s = %v, want %v", tt.name, got, tt.want)
			}
		})
	}
}
