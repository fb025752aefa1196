package course

import (
	"github.com/xraph/academy/id"
	"github.com/xraph/academy/types"
)

// Catalog is a full set of catalog rows, as inserted by a seed.
type Catalog struct {
	Courses []*Course
	Lessons []*Lesson
	Tasks   []*Task
}

// DefaultCatalog returns the starter catalog: three football courses, each
// with a free demo lesson, a paid lesson, a quiz and a practical task.
func DefaultCatalog() Catalog {
	var cat Catalog

	courses := []struct {
		title, desc string
		rubles      int64
		days        int
	}{
		{"Основы футбола", "Базовый курс для начинающих", 1990, 30},
		{"Продвинутая техника", "Курс для опытных игроков", 2990, 45},
		{"Мастер-класс", "Профессиональный уровень", 4990, 60},
	}

	for i, c := range courses {
		courseID := id.CourseID(i + 1)
		cat.Courses = append(cat.Courses, &Course{
			Entity:       types.NewEntity(),
			ID:           courseID,
			Title:        c.title,
			Description:  c.desc,
			Price:        types.RUB(c.rubles * 100),
			DurationDays: c.days,
			Active:       true,
			Position:     i + 1,
		})

		demoID := id.LessonID(i*2 + 1)
		paidID := id.LessonID(i*2 + 2)
		cat.Lessons = append(cat.Lessons,
			&Lesson{
				Entity:      types.NewEntity(),
				ID:          demoID,
				CourseID:    courseID,
				Title:       "Вводный урок",
				Description: "Бесплатный демо-урок курса «" + c.title + "»",
				Position:    1,
				Points:      10,
				Demo:        true,
			},
			&Lesson{
				Entity:      types.NewEntity(),
				ID:          paidID,
				CourseID:    courseID,
				Title:       "Тренировка",
				Description: "Основное занятие курса «" + c.title + "»",
				Position:    2,
				Points:      10,
			},
		)

		cat.Tasks = append(cat.Tasks,
			&Task{
				Entity:        types.NewEntity(),
				ID:            id.TaskID(i*2 + 1),
				LessonID:      demoID,
				Title:         "Теоретический тест",
				Question:      "Сколько игроков одной команды находится на поле?",
				Type:          TaskQuiz,
				Points:        20 + i*2 + i%2,
				Options:       []string{"10", "11", "12"},
				CorrectAnswer: "11",
				Explanation:   "В футболе на поле от одной команды находится 11 игроков (включая вратаря).",
			},
			&Task{
				Entity:        types.NewEntity(),
				ID:            id.TaskID(i*2 + 2),
				LessonID:      paidID,
				Title:         "Практическое задание",
				Question:      "Выполните упражнение из урока и нажмите «Готово».",
				Type:          TaskPractical,
				Points:        30,
				CorrectAnswer: "done",
			},
		)
	}

	return cat
}
