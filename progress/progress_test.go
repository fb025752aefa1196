package progress_test

import (
	"testing"

	"github.com/xraph/academy/progress"
)

func TestComputeLevelBoundaries(t *testing.T) {
	tests := []struct {
		total   int64
		label   progress.Label
		floor   int64
		ceiling int64
		toNext  int64
	}{
		{0, progress.Novice, 0, 100, 100},
		{20, progress.Novice, 0, 100, 80},
		{99, progress.Novice, 0, 100, 1},
		{100, progress.Amateur, 100, 500, 400},
		{499, progress.Amateur, 100, 500, 1},
		{500, progress.Expert, 500, 1000, 500},
		{505, progress.Expert, 500, 1000, 495},
		{999, progress.Expert, 500, 1000, 1},
		{1000, progress.Master, 1000, 1000, 0},
		{4321, progress.Master, 1000, 4321, 0},
	}

	for _, tt := range tests {
		t.Run(string(tt.label), func(t *testing.T) {
			lvl := progress.ComputeLevel(tt.total)
			if lvl.Label != tt.label {
				t.Errorf("ComputeLevel(%d).Label = %s, want %s", tt.total, lvl.Label, tt.label)
			}
			if lvl.Floor != tt.floor {
				t.Errorf("ComputeLevel(%d).Floor = %d, want %d", tt.total, lvl.Floor, tt.floor)
			}
			if lvl.Ceiling != tt.ceiling {
				t.Errorf("ComputeLevel(%d).Ceiling = %d, want %d", tt.total, lvl.Ceiling, tt.ceiling)
			}
			if got := progress.PointsToNextLevel(tt.total); got != tt.toNext {
				t.Errorf("PointsToNextLevel(%d) = %d, want %d", tt.total, got, tt.toNext)
			}
		})
	}
}

func TestComputeLevelNegative(t *testing.T) {
	lvl := progress.ComputeLevel(-15)
	if lvl.Label != progress.Novice {
		t.Errorf("negative total classified as %s, want novice", lvl.Label)
	}
	if got := progress.PointsToNextLevel(-15); got != 115 {
		t.Errorf("PointsToNextLevel(-15) = %d, want 115", got)
	}
}

func TestAwardFor(t *testing.T) {
	tests := []struct {
		kind progress.Kind
		want int
	}{
		{progress.KindLesson, 10},
		{progress.KindDemo, 10},
		{progress.KindQuiz, 20},
		{progress.KindPractical, 30},
		{progress.KindPurchase, 100},
		{progress.Kind("bogus"), 0},
	}

	for _, tt := range tests {
		t.Run(string(tt.kind), func(t *testing.T) {
			if got := progress.AwardFor(tt.kind); got != tt.want {
				t.Errorf("AwardFor(%s) = %d, want %d", tt.kind, got, tt.want)
			}
		})
	}

	if progress.Kind("bogus").Valid() {
		t.Error("unknown kind reported valid")
	}
}

func TestSnapshot(t *testing.T) {
	s := progress.NewSnapshot(505, 3, 2)
	if s.Level.Label != progress.Expert {
		t.Errorf("Level = %s, want expert", s.Level.Label)
	}
	if s.PointsToNextLevel != 495 {
		t.Errorf("PointsToNextLevel = %d, want 495", s.PointsToNextLevel)
	}
	if s.DistinctLessonsCompleted != 3 || s.TaskCompletionCount != 2 {
		t.Errorf("counters = %d/%d, want 3/2", s.DistinctLessonsCompleted, s.TaskCompletionCount)
	}
}

func TestThresholds(t *testing.T) {
	levels := progress.Thresholds()
	if len(levels) != 4 {
		t.Fatalf("len(Thresholds()) = %d, want 4", len(levels))
	}
	want := []int64{0, 100, 500, 1000}
	for i, lvl := range levels {
		if lvl.Floor != want[i] {
			t.Errorf("Thresholds()[%d].Floor = %d, want %d", i, lvl.Floor, want[i])
		}
	}
}
