// Package progress derives levels and point awards from ledger totals.
//
// Everything here is a pure function of its inputs; the package holds no
// state and performs no I/O.
package progress

// Label names a level tier.
type Label string

// Level labels, lowest first.
const (
	Novice  Label = "novice"
	Amateur Label = "amateur"
	Expert  Label = "expert"
	Master  Label = "master"
)

// Kind classifies a point-earning event.
type Kind string

// Event kinds recognized by the award table.
const (
	KindLesson    Kind = "lesson"
	KindDemo      Kind = "demo"
	KindQuiz      Kind = "quiz"
	KindPractical Kind = "practical"
	KindPurchase  Kind = "purchase"
)

// Valid reports whether k is one of the known kinds.
func (k Kind) Valid() bool {
	_, ok := awards[k]
	return ok
}

// awards is the static point table. Quiz tasks carry their own value
// (20 to 25); the entry here is the default for a task without one.
var awards = map[Kind]int{
	KindLesson:    10,
	KindDemo:      10,
	KindQuiz:      20,
	KindPractical: 30,
	KindPurchase:  100,
}

// AwardFor returns the configured points for an event kind, or 0 for an
// unknown kind.
func AwardFor(kind Kind) int {
	return awards[kind]
}

// tier is a level and the lowest total that reaches it.
type tier struct {
	label Label
	floor int64
}

var tiers = []tier{
	{Novice, 0},
	{Amateur, 100},
	{Expert, 500},
	{Master, 1000},
}

// Level is the tier a total falls in. Ceiling is the floor of the next
// tier; at the top tier it equals the total itself.
type Level struct {
	Label   Label `json:"label"`
	Floor   int64 `json:"floor"`
	Ceiling int64 `json:"ceiling"`
}

// ComputeLevel classifies total. Negative totals classify as Novice; the
// value itself is not altered.
func ComputeLevel(total int64) Level {
	idx := 0
	for i, t := range tiers {
		if total >= t.floor {
			idx = i
		}
	}

	lvl := Level{Label: tiers[idx].label, Floor: tiers[idx].floor}
	if idx+1 < len(tiers) {
		lvl.Ceiling = tiers[idx+1].floor
	} else {
		lvl.Ceiling = total
	}
	return lvl
}

// PointsToNextLevel returns how many points are missing to reach the next
// tier, or 0 at the top tier.
func PointsToNextLevel(total int64) int64 {
	return max(0, ComputeLevel(total).Ceiling-total)
}

// Thresholds returns the tier floors in ascending order, for rendering.
func Thresholds() []Level {
	out := make([]Level, len(tiers))
	for i, t := range tiers {
		out[i] = ComputeLevel(t.floor)
	}
	return out
}

// Snapshot is the read model handed to the transport after any change.
type Snapshot struct {
	TotalPoints              int64 `json:"total_points"`
	DistinctLessonsCompleted int64 `json:"distinct_lessons_completed"`
	TaskCompletionCount      int64 `json:"task_completion_count"`
	Level                    Level `json:"level"`
	PointsToNextLevel        int64 `json:"points_to_next_level"`
}

// NewSnapshot builds a Snapshot from raw counters.
func NewSnapshot(total, lessons, tasks int64) *Snapshot {
	return &Snapshot{
		TotalPoints:              total,
		DistinctLessonsCompleted: lessons,
		TaskCompletionCount:      tasks,
		Level:                    ComputeLevel(total),
		PointsToNextLevel:        PointsToNextLevel(total),
	}
}
