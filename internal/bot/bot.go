// Package bot is the Telegram front end of the academy. It turns updates
// into typed engine calls and renders the results; it holds no domain
// state of its own beyond short-lived conversation context.
package bot

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"sync"
	"time"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"

	"github.com/xraph/academy"
	"github.com/xraph/academy/course"
	"github.com/xraph/academy/event"
	"github.com/xraph/academy/id"
)

// Sender is the subset of *tgbotapi.BotAPI the bot uses.
type Sender interface {
	Send(c tgbotapi.Chattable) (tgbotapi.Message, error)
	Request(c tgbotapi.Chattable) (*tgbotapi.APIResponse, error)
}

var _ Sender = (*tgbotapi.BotAPI)(nil)

// Config holds the transport settings.
type Config struct {
	AdminIDs      []int64
	ProviderToken string
	TestPurchases bool
	// Workers bounds concurrently handled updates.
	Workers       int
	HandleTimeout time.Duration
}

// Bot routes Telegram updates to the academy engine.
type Bot struct {
	api     Sender
	academy *academy.Academy
	cfg     Config
	logger  *slog.Logger
	sem     chan struct{}

	// pendingAnswers maps a chat to the free-text task it is answering.
	pendingAnswers sync.Map // int64 -> id.TaskID
	// pendingVideos maps an admin to the last uploaded video file id.
	pendingVideos sync.Map // int64 -> string
}

// New creates a Bot.
func New(api Sender, a *academy.Academy, cfg Config, logger *slog.Logger) *Bot {
	if cfg.Workers <= 0 {
		cfg.Workers = 1
	}
	if cfg.HandleTimeout <= 0 {
		cfg.HandleTimeout = 15 * time.Second
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &Bot{
		api:     api,
		academy: a,
		cfg:     cfg,
		logger:  logger,
		sem:     make(chan struct{}, cfg.Workers),
	}
}

// Run handles updates until ctx is canceled or updates is closed. Each
// update runs in its own goroutine, at most Workers at a time. Run waits
// for in-flight updates before returning.
func (b *Bot) Run(ctx context.Context, updates <-chan tgbotapi.Update) {
	var wg sync.WaitGroup
	defer wg.Wait()

	for {
		select {
		case <-ctx.Done():
			return
		case upd, ok := <-updates:
			if !ok {
				return
			}
			select {
			case b.sem <- struct{}{}:
			case <-ctx.Done():
				return
			}
			wg.Add(1)
			go func() {
				defer wg.Done()
				defer func() { <-b.sem }()
				b.HandleUpdate(ctx, upd)
			}()
		}
	}
}

// HandleUpdate processes one update synchronously.
func (b *Bot) HandleUpdate(ctx context.Context, upd tgbotapi.Update) {
	ctx, cancel := context.WithTimeout(ctx, b.cfg.HandleTimeout)
	defer cancel()

	defer func() {
		if r := recover(); r != nil {
			b.logger.Error("bot: panic while handling update", "update_id", upd.UpdateID, "panic", r)
		}
	}()

	switch {
	case upd.PreCheckoutQuery != nil:
		b.handlePreCheckout(ctx, upd.PreCheckoutQuery)
	case upd.CallbackQuery != nil:
		b.handleCallback(ctx, upd.CallbackQuery)
	case upd.Message != nil:
		b.handleMessage(ctx, upd.Message)
	}
}

func (b *Bot) isAdmin(userID int64) bool {
	for _, a := range b.cfg.AdminIDs {
		if a == userID {
			return true
		}
	}
	return false
}

// ensureUser registers the sender on first contact.
func (b *Bot) ensureUser(ctx context.Context, from *tgbotapi.User) (id.UserID, error) {
	if from == nil {
		return 0, errors.New("bot: update without sender")
	}
	userID := id.UserID(from.ID)
	fullName := strings.TrimSpace(from.FirstName + " " + from.LastName)
	if _, err := b.academy.RegisterUser(ctx, userID, from.UserName, fullName); err != nil {
		return 0, err
	}
	return userID, nil
}

// ──────────────────────────────────────────────────
// Messages
// ──────────────────────────────────────────────────

func (b *Bot) handleMessage(ctx context.Context, msg *tgbotapi.Message) {
	if msg.From == nil || msg.Chat == nil {
		return
	}
	chatID := msg.Chat.ID
	userID, err := b.ensureUser(ctx, msg.From)
	if err != nil {
		b.fail(chatID, "register user", err)
		return
	}

	switch {
	case msg.SuccessfulPayment != nil:
		b.handleSuccessfulPayment(ctx, msg, userID)
		return
	case msg.Video != nil && b.isAdmin(msg.From.ID):
		b.handleVideoUpload(ctx, chatID, msg.From.ID, msg.Video.FileID)
		return
	case msg.Document != nil && b.isAdmin(msg.From.ID) && strings.HasPrefix(msg.Document.MimeType, "video/"):
		b.handleVideoUpload(ctx, chatID, msg.From.ID, msg.Document.FileID)
		return
	}

	if msg.IsCommand() {
		b.pendingAnswers.Delete(chatID)
		switch msg.Command() {
		case "start", "menu":
			b.reply(chatID, welcomeText, mainMenuKeyboard())
		case "courses":
			b.showCourses(ctx, chatID)
		case "progress":
			b.showProgress(ctx, chatID, userID)
		case "help":
			b.reply(chatID, helpText(), mainMenuKeyboard())
		case "stats":
			b.showStats(ctx, chatID, msg.From.ID)
		default:
			b.reply(chatID, "Неизвестная команда. Используйте /help.", nil)
		}
		return
	}

	if v, ok := b.pendingAnswers.LoadAndDelete(chatID); ok && msg.Text != "" {
		b.answerTask(ctx, chatID, userID, v.(id.TaskID), msg.Text)
		return
	}

	b.reply(chatID, "Выберите действие в меню.", mainMenuKeyboard())
}

// ──────────────────────────────────────────────────
// Callbacks
// ──────────────────────────────────────────────────

func (b *Bot) handleCallback(ctx context.Context, cq *tgbotapi.CallbackQuery) {
	if _, err := b.api.Request(tgbotapi.NewCallback(cq.ID, "")); err != nil {
		b.logger.Warn("bot: callback ack failed", "error", err)
	}
	if cq.Message == nil {
		return
	}
	chatID := cq.Message.Chat.ID

	action, err := ParseAction(cq.Data)
	if err != nil {
		b.logger.Warn("bot: bad callback data", "data", cq.Data, "error", err)
		b.reply(chatID, "Неизвестное действие.", mainMenuKeyboard())
		return
	}

	userID, err := b.ensureUser(ctx, cq.From)
	if err != nil {
		b.fail(chatID, "register user", err)
		return
	}

	switch action.Verb {
	case VerbMenu:
		b.reply(chatID, welcomeText, mainMenuKeyboard())
	case VerbCourses:
		b.showCourses(ctx, chatID)
	case VerbCourse:
		b.showCourse(ctx, chatID, userID, action.Course)
	case VerbLesson:
		b.showLesson(ctx, chatID, userID, action.Lesson)
	case VerbWatched:
		b.lessonWatched(ctx, chatID, userID, action.Lesson)
	case VerbTask:
		b.showTask(ctx, chatID, userID, action.Task)
	case VerbAnswer:
		b.answerOption(ctx, chatID, userID, action.Task, action.Option)
	case VerbBuy:
		b.sendInvoice(ctx, chatID, userID, action.Course)
	case VerbTestPurchase:
		b.testPurchase(ctx, chatID, userID, action.Course)
	case VerbProgress:
		b.showProgress(ctx, chatID, userID)
	case VerbHelp:
		b.reply(chatID, helpText(), mainMenuKeyboard())
	case VerbStats:
		b.showStats(ctx, chatID, cq.From.ID)
	case VerbAttach:
		b.attachVideo(ctx, chatID, cq.From.ID, action.Lesson)
	}
}

// ──────────────────────────────────────────────────
// Screens
// ──────────────────────────────────────────────────

func (b *Bot) showCourses(ctx context.Context, chatID int64) {
	courses, err := b.academy.ActiveCourses(ctx)
	if err != nil {
		b.fail(chatID, "list courses", err)
		return
	}
	b.reply(chatID, coursesText(courses), coursesKeyboard(courses))
}

func (b *Bot) showCourse(ctx context.Context, chatID int64, userID id.UserID, courseID id.CourseID) {
	c, err := b.academy.GetCourse(ctx, courseID)
	if err != nil {
		b.fail(chatID, "get course", err)
		return
	}
	lessons, err := b.academy.Lessons(ctx, courseID)
	if err != nil {
		b.fail(chatID, "list lessons", err)
		return
	}
	unlocked, err := b.academy.IsUnlocked(ctx, userID, courseID)
	if err != nil {
		b.fail(chatID, "check access", err)
		return
	}
	b.reply(chatID, courseText(c, unlocked), courseKeyboard(c, lessons, unlocked, b.cfg.TestPurchases))
}

func (b *Bot) showLesson(ctx context.Context, chatID int64, userID id.UserID, lessonID id.LessonID) {
	d, err := b.academy.CanViewLesson(ctx, userID, lessonID)
	if err != nil {
		b.fail(chatID, "check lesson access", err)
		return
	}
	if !d.Allowed {
		b.lockedReply(chatID, d.CourseID)
		return
	}

	l, err := b.academy.GetLesson(ctx, lessonID)
	if err != nil {
		b.fail(chatID, "get lesson", err)
		return
	}
	tasks, err := b.academy.Tasks(ctx, lessonID)
	if err != nil {
		b.fail(chatID, "list tasks", err)
		return
	}

	if l.HasVideo() {
		video := tgbotapi.NewVideo(chatID, tgbotapi.FileID(l.VideoRef))
		video.Caption = l.Title
		if _, err := b.api.Send(video); err != nil {
			b.logger.Warn("bot: send video failed", "lesson_id", lessonID, "error", err)
		}
	}
	b.reply(chatID, lessonText(l), lessonKeyboard(l, tasks))
}

func (b *Bot) lessonWatched(ctx context.Context, chatID int64, userID id.UserID, lessonID id.LessonID) {
	out, err := b.academy.Handle(ctx, event.LessonViewed{UserID: userID, LessonID: lessonID})
	if err != nil {
		b.handleError(chatID, "lesson viewed", out, err)
		return
	}
	text := fmt.Sprintf("✅ Урок засчитан! +%d баллов\n\n%s", out.PointsAwarded, progressText(out.Progress))
	b.reply(chatID, text, mainMenuKeyboard())
}

func (b *Bot) showTask(ctx context.Context, chatID int64, userID id.UserID, taskID id.TaskID) {
	t, err := b.academy.GetTask(ctx, taskID)
	if err != nil {
		b.fail(chatID, "get task", err)
		return
	}
	d, err := b.academy.CanViewLesson(ctx, userID, t.LessonID)
	if err != nil {
		b.fail(chatID, "check task access", err)
		return
	}
	if !d.Allowed {
		b.lockedReply(chatID, d.CourseID)
		return
	}

	if t.Type == course.TaskQuiz && len(t.Options) == 0 {
		b.pendingAnswers.Store(chatID, t.ID)
	}
	b.reply(chatID, taskText(t), taskKeyboard(t))
}

// practicalDone is the answer a practical task accepts.
const practicalDone = "done"

func (b *Bot) answerOption(ctx context.Context, chatID int64, userID id.UserID, taskID id.TaskID, option int) {
	t, err := b.academy.GetTask(ctx, taskID)
	if err != nil {
		b.fail(chatID, "get task", err)
		return
	}

	var answer string
	switch {
	case t.Type == course.TaskPractical:
		answer = practicalDone
	case option < len(t.Options):
		answer = t.Options[option]
	default:
		b.reply(chatID, "Такого варианта ответа нет.", nil)
		return
	}
	b.answerTask(ctx, chatID, userID, taskID, answer)
}

func (b *Bot) answerTask(ctx context.Context, chatID int64, userID id.UserID, taskID id.TaskID, answer string) {
	out, err := b.academy.Handle(ctx, event.TaskAnswered{UserID: userID, TaskID: taskID, Answer: answer})
	if err != nil {
		b.handleError(chatID, "task answered", out, err)
		return
	}
	b.reply(chatID, answerText(out)+"\n\n"+progressText(out.Progress), mainMenuKeyboard())
}

func (b *Bot) showProgress(ctx context.Context, chatID int64, userID id.UserID) {
	snap, err := b.academy.Progress(ctx, userID)
	if err != nil {
		b.fail(chatID, "progress", err)
		return
	}
	b.reply(chatID, progressText(snap), mainMenuKeyboard())
}

// ──────────────────────────────────────────────────
// Output helpers
// ──────────────────────────────────────────────────

// reply sends an HTML message. markup may be nil.
func (b *Bot) reply(chatID int64, text string, markup any) {
	msg := tgbotapi.NewMessage(chatID, text)
	msg.ParseMode = tgbotapi.ModeHTML
	if markup != nil {
		msg.ReplyMarkup = markup
	}
	if _, err := b.api.Send(msg); err != nil {
		b.logger.Warn("bot: send failed", "chat_id", chatID, "error", err)
	}
}

func (b *Bot) lockedReply(chatID int64, courseID id.CourseID) {
	b.reply(chatID, "🔒 Этот урок доступен после покупки курса.",
		tgbotapi.NewInlineKeyboardMarkup(
			tgbotapi.NewInlineKeyboardRow(btn("💳 Купить курс", Action{Verb: VerbBuy, Course: courseID})),
			backRow(Action{Verb: VerbCourse, Course: courseID}),
		))
}

// handleError renders an engine error from Handle.
func (b *Bot) handleError(chatID int64, op string, out *academy.Outcome, err error) {
	if errors.Is(err, academy.ErrCourseLocked) && out != nil && out.Access != nil {
		b.lockedReply(chatID, out.Access.CourseID)
		return
	}
	b.fail(chatID, op, err)
}

// fail logs err and tells the user the action did not take effect.
func (b *Bot) fail(chatID int64, op string, err error) {
	switch {
	case academy.IsUnknownEntity(err):
		b.logger.Info("bot: unknown entity", "op", op, "error", err)
		b.reply(chatID, "Не найдено.", mainMenuKeyboard())
	case errors.Is(err, academy.ErrForbidden):
		b.reply(chatID, "Действие недоступно.", mainMenuKeyboard())
	default:
		b.logger.Error("bot: operation failed", "op", op, "chat_id", chatID, "error", err)
		b.reply(chatID, retryText, mainMenuKeyboard())
	}
}
