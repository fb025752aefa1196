package bot

import (
	"fmt"
	"strings"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"

	"github.com/xraph/academy"
	"github.com/xraph/academy/course"
	"github.com/xraph/academy/progress"
)

const welcomeText = `⚽ <b>Добро пожаловать в футбольную академию!</b>

Здесь вы можете:
• Смотреть видеоуроки от профессиональных тренеров
• Выполнять задания и получать баллы
• Отслеживать свой прогресс

Выберите раздел в меню ниже.`

const retryText = "⚠️ Действие не выполнено, попробуйте ещё раз."

var levelNames = map[progress.Label]string{
	progress.Novice:  "Новичок",
	progress.Amateur: "Любитель",
	progress.Expert:  "Эксперт",
	progress.Master:  "Мастер",
}

func levelName(l progress.Label) string {
	if name, ok := levelNames[l]; ok {
		return name
	}
	return string(l)
}

func btn(text string, a Action) tgbotapi.InlineKeyboardButton {
	return tgbotapi.NewInlineKeyboardButtonData(text, a.Data())
}

func backRow(a Action) []tgbotapi.InlineKeyboardButton {
	return tgbotapi.NewInlineKeyboardRow(btn("⬅️ Назад", a))
}

func mainMenuKeyboard() tgbotapi.InlineKeyboardMarkup {
	return tgbotapi.NewInlineKeyboardMarkup(
		tgbotapi.NewInlineKeyboardRow(
			btn("📚 Курсы", Action{Verb: VerbCourses}),
			btn("📈 Мой прогресс", Action{Verb: VerbProgress}),
		),
		tgbotapi.NewInlineKeyboardRow(
			btn("❓ Помощь", Action{Verb: VerbHelp}),
		),
	)
}

func coursesText(courses []*course.Course) string {
	if len(courses) == 0 {
		return "Курсы пока не добавлены."
	}
	var b strings.Builder
	b.WriteString("📚 <b>Доступные курсы</b>\n")
	for _, c := range courses {
		fmt.Fprintf(&b, "\n• <b>%s</b> — %s\n%s (%d дней)\n",
			escape(c.Title), c.Price.String(), escape(c.Description), c.DurationDays)
	}
	return b.String()
}

func coursesKeyboard(courses []*course.Course) tgbotapi.InlineKeyboardMarkup {
	rows := make([][]tgbotapi.InlineKeyboardButton, 0, len(courses)+1)
	for _, c := range courses {
		rows = append(rows, tgbotapi.NewInlineKeyboardRow(
			btn(c.Title, Action{Verb: VerbCourse, Course: c.ID}),
		))
	}
	rows = append(rows, backRow(Action{Verb: VerbMenu}))
	return tgbotapi.NewInlineKeyboardMarkup(rows...)
}

func courseText(c *course.Course, unlocked bool) string {
	status := "🔒 Доступны только демо-уроки"
	if unlocked {
		status = "✅ Курс открыт"
	}
	return fmt.Sprintf("<b>%s</b>\n%s\n\nЦена: %s\nДоступ: %d дней\n\n%s",
		escape(c.Title), escape(c.Description), c.Price.String(), c.DurationDays, status)
}

func courseKeyboard(c *course.Course, lessons []*course.Lesson, unlocked, testPurchases bool) tgbotapi.InlineKeyboardMarkup {
	var rows [][]tgbotapi.InlineKeyboardButton
	for _, l := range lessons {
		mark := "🔒 "
		switch {
		case l.Demo:
			mark = "🎁 "
		case unlocked:
			mark = "▶️ "
		}
		rows = append(rows, tgbotapi.NewInlineKeyboardRow(
			btn(mark+l.Title, Action{Verb: VerbLesson, Lesson: l.ID}),
		))
	}
	if !unlocked {
		rows = append(rows, tgbotapi.NewInlineKeyboardRow(
			btn("💳 Купить за "+c.Price.String(), Action{Verb: VerbBuy, Course: c.ID}),
		))
		if testPurchases {
			rows = append(rows, tgbotapi.NewInlineKeyboardRow(
				btn("🧪 Тестовая покупка", Action{Verb: VerbTestPurchase, Course: c.ID}),
			))
		}
	}
	rows = append(rows, backRow(Action{Verb: VerbCourses}))
	return tgbotapi.NewInlineKeyboardMarkup(rows...)
}

func lessonText(l *course.Lesson) string {
	text := fmt.Sprintf("<b>%s</b>\n%s\n\nЗа просмотр: +%d баллов", escape(l.Title), escape(l.Description), l.Points)
	if !l.HasVideo() {
		text += "\n\n🎬 Видео скоро появится."
	}
	return text
}

func lessonKeyboard(l *course.Lesson, tasks []*course.Task) tgbotapi.InlineKeyboardMarkup {
	rows := [][]tgbotapi.InlineKeyboardButton{
		tgbotapi.NewInlineKeyboardRow(btn("✅ Урок просмотрен", Action{Verb: VerbWatched, Lesson: l.ID})),
	}
	for _, t := range tasks {
		rows = append(rows, tgbotapi.NewInlineKeyboardRow(
			btn("📝 "+t.Title, Action{Verb: VerbTask, Task: t.ID}),
		))
	}
	rows = append(rows, backRow(Action{Verb: VerbCourse, Course: l.CourseID}))
	return tgbotapi.NewInlineKeyboardMarkup(rows...)
}

func taskText(t *course.Task) string {
	text := fmt.Sprintf("<b>%s</b>\n\n%s\n\nНаграда: %d баллов", escape(t.Title), escape(t.Question), t.Points)
	if t.Type == course.TaskQuiz && len(t.Options) == 0 {
		text += "\n\nОтправьте ответ сообщением."
	}
	return text
}

func taskKeyboard(t *course.Task) tgbotapi.InlineKeyboardMarkup {
	var rows [][]tgbotapi.InlineKeyboardButton
	switch {
	case t.Type == course.TaskPractical:
		rows = append(rows, tgbotapi.NewInlineKeyboardRow(
			btn("✅ Готово", Action{Verb: VerbAnswer, Task: t.ID, Option: 0}),
		))
	default:
		for i, opt := range t.Options {
			rows = append(rows, tgbotapi.NewInlineKeyboardRow(
				btn(opt, Action{Verb: VerbAnswer, Task: t.ID, Option: i}),
			))
		}
	}
	rows = append(rows, backRow(Action{Verb: VerbLesson, Lesson: t.LessonID}))
	return tgbotapi.NewInlineKeyboardMarkup(rows...)
}

func progressText(s *progress.Snapshot) string {
	var b strings.Builder
	b.WriteString("📈 <b>Ваш прогресс</b>\n\n")
	fmt.Fprintf(&b, "Баллы: <b>%d</b>\n", s.TotalPoints)
	fmt.Fprintf(&b, "Уровень: <b>%s</b>\n", levelName(s.Level.Label))
	fmt.Fprintf(&b, "Пройдено уроков: %d\n", s.DistinctLessonsCompleted)
	fmt.Fprintf(&b, "Выполнено заданий: %d\n", s.TaskCompletionCount)
	if s.Level.Label == progress.Master {
		b.WriteString("\n🏆 Вы достигли максимального уровня!")
	} else {
		fmt.Fprintf(&b, "\nДо следующего уровня: %d баллов", s.PointsToNextLevel)
	}
	return b.String()
}

func helpText() string {
	var b strings.Builder
	b.WriteString("❓ <b>Как это работает</b>\n\n")
	b.WriteString("<b>Баллы</b>\n")
	fmt.Fprintf(&b, "• Просмотр урока: +%d\n", progress.AwardFor(progress.KindLesson))
	fmt.Fprintf(&b, "• Демо-урок: +%d\n", progress.AwardFor(progress.KindDemo))
	b.WriteString("• Теоретический тест: +20…25\n")
	fmt.Fprintf(&b, "• Практическое задание: +%d\n", progress.AwardFor(progress.KindPractical))
	fmt.Fprintf(&b, "• Покупка курса: +%d\n", progress.AwardFor(progress.KindPurchase))
	b.WriteString("\n<b>Уровни</b>\n")
	for _, l := range progress.Thresholds() {
		if l.Label == progress.Master {
			fmt.Fprintf(&b, "• %s: от %d\n", levelName(l.Label), l.Floor)
			continue
		}
		fmt.Fprintf(&b, "• %s: %d–%d\n", levelName(l.Label), l.Floor, l.Ceiling-1)
	}
	return b.String()
}

func answerText(o *academy.Outcome) string {
	if o.Correct {
		text := fmt.Sprintf("✅ Правильно! +%d баллов", o.PointsAwarded)
		if o.Explanation != "" {
			text += "\n\n" + escape(o.Explanation)
		}
		return text
	}
	text := "❌ Неверно."
	if o.CorrectAnswer != "" {
		text += " Правильный ответ: " + escape(o.CorrectAnswer)
	}
	if o.Explanation != "" {
		text += "\n\n" + escape(o.Explanation)
	}
	return text
}

func statsText(s *academy.Stats) string {
	return fmt.Sprintf("📊 <b>Статистика</b>\n\nПользователей: %d\nАктивных курсов: %d\nВыполнено заданий: %d\nНачислено баллов: %d",
		s.Users, s.ActiveCourses, s.TaskCompletions, s.PointsAwarded)
}

func attachKeyboard(courses []*course.Course, lessons map[*course.Course][]*course.Lesson) tgbotapi.InlineKeyboardMarkup {
	var rows [][]tgbotapi.InlineKeyboardButton
	for _, c := range courses {
		for _, l := range lessons[c] {
			rows = append(rows, tgbotapi.NewInlineKeyboardRow(
				btn(fmt.Sprintf("%s: %s", c.Title, l.Title), Action{Verb: VerbAttach, Lesson: l.ID}),
			))
		}
	}
	return tgbotapi.NewInlineKeyboardMarkup(rows...)
}

var htmlEscaper = strings.NewReplacer("&", "&amp;", "<", "&lt;", ">", "&gt;")

func escape(s string) string { return htmlEscaper.Replace(s) }
