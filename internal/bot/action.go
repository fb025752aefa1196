package bot

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/xraph/academy/id"
)

// Verb names a button action carried in callback data.
type Verb string

const (
	VerbMenu         Verb = "menu"
	VerbCourses      Verb = "courses"
	VerbCourse       Verb = "course"
	VerbLesson       Verb = "lesson"
	VerbWatched      Verb = "watched"
	VerbTask         Verb = "task"
	VerbAnswer       Verb = "answer"
	VerbBuy          Verb = "buy"
	VerbTestPurchase Verb = "test_purchase"
	VerbProgress     Verb = "progress"
	VerbHelp         Verb = "help"
	VerbStats        Verb = "stats"
	VerbAttach       Verb = "attach"
)

// Action is parsed callback data. Only the fields its Verb uses are set.
type Action struct {
	Verb   Verb
	Course id.CourseID
	Lesson id.LessonID
	Task   id.TaskID
	// Option is the index of the chosen quiz option.
	Option int
}

// argCount lists how many numeric arguments each verb takes.
var argCount = map[Verb]int{
	VerbMenu:         0,
	VerbCourses:      0,
	VerbProgress:     0,
	VerbHelp:         0,
	VerbStats:        0,
	VerbCourse:       1,
	VerbBuy:          1,
	VerbTestPurchase: 1,
	VerbLesson:       1,
	VerbWatched:      1,
	VerbAttach:       1,
	VerbTask:         1,
	VerbAnswer:       2,
}

// ParseAction decodes callback data such as "course_2" or "answer_1_0".
// Ids are validated here so handlers only see well-formed values.
func ParseAction(data string) (Action, error) {
	verb, args, err := splitData(data)
	if err != nil {
		return Action{}, err
	}

	a := Action{Verb: verb}
	switch verb {
	case VerbCourse, VerbBuy, VerbTestPurchase:
		a.Course, err = id.ParseCourseID(args[0])
	case VerbLesson, VerbWatched, VerbAttach:
		a.Lesson, err = id.ParseLessonID(args[0])
	case VerbTask:
		a.Task, err = id.ParseTaskID(args[0])
	case VerbAnswer:
		a.Task, err = id.ParseTaskID(args[0])
		if err == nil {
			a.Option, err = strconv.Atoi(args[1])
			if err == nil && a.Option < 0 {
				err = fmt.Errorf("negative option %d", a.Option)
			}
		}
	}
	if err != nil {
		return Action{}, fmt.Errorf("bot: callback %q: %w", data, err)
	}
	return a, nil
}

// splitData finds the longest known verb prefix, so verbs containing an
// underscore ("test_purchase") are matched before shorter ones.
func splitData(data string) (Verb, []string, error) {
	best := Verb("")
	for v := range argCount {
		s := string(v)
		if (data == s || strings.HasPrefix(data, s+"_")) && len(s) > len(best) {
			best = v
		}
	}
	if best == "" {
		return "", nil, fmt.Errorf("bot: unknown callback %q", data)
	}

	rest := strings.TrimPrefix(strings.TrimPrefix(data, string(best)), "_")
	var args []string
	if rest != "" {
		args = strings.Split(rest, "_")
	}
	if len(args) != argCount[best] {
		return "", nil, fmt.Errorf("bot: callback %q: want %d arguments, got %d", data, argCount[best], len(args))
	}
	return best, args, nil
}

// Data encodes an action back into callback data.
func (a Action) Data() string {
	switch a.Verb {
	case VerbCourse, VerbBuy, VerbTestPurchase:
		return fmt.Sprintf("%s_%d", a.Verb, a.Course)
	case VerbLesson, VerbWatched, VerbAttach:
		return fmt.Sprintf("%s_%d", a.Verb, a.Lesson)
	case VerbTask:
		return fmt.Sprintf("%s_%d", a.Verb, a.Task)
	case VerbAnswer:
		return fmt.Sprintf("%s_%d_%d", a.Verb, a.Task, a.Option)
	default:
		return string(a.Verb)
	}
}
