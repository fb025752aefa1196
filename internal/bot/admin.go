package bot

import (
	"context"

	"github.com/xraph/academy/course"
	"github.com/xraph/academy/id"
)

func (b *Bot) showStats(ctx context.Context, chatID, fromID int64) {
	if !b.isAdmin(fromID) {
		b.reply(chatID, "⛔ Команда доступна только администраторам.", nil)
		return
	}
	stats, err := b.academy.Stats(ctx)
	if err != nil {
		b.fail(chatID, "stats", err)
		return
	}
	b.reply(chatID, statsText(stats), nil)
}

// handleVideoUpload remembers the admin's video and offers the lessons it
// can be attached to.
func (b *Bot) handleVideoUpload(ctx context.Context, chatID, adminID int64, fileID string) {
	courses, err := b.academy.ActiveCourses(ctx)
	if err != nil {
		b.fail(chatID, "list courses", err)
		return
	}
	lessons := make(map[*course.Course][]*course.Lesson, len(courses))
	for _, c := range courses {
		ls, err := b.academy.Lessons(ctx, c.ID)
		if err != nil {
			b.fail(chatID, "list lessons", err)
			return
		}
		lessons[c] = ls
	}

	b.pendingVideos.Store(adminID, fileID)
	b.reply(chatID, "🎬 Видео получено. К какому уроку его прикрепить?", attachKeyboard(courses, lessons))
}

func (b *Bot) attachVideo(ctx context.Context, chatID, adminID int64, lessonID id.LessonID) {
	if !b.isAdmin(adminID) {
		b.reply(chatID, "⛔ Команда доступна только администраторам.", nil)
		return
	}
	v, ok := b.pendingVideos.LoadAndDelete(adminID)
	if !ok {
		b.reply(chatID, "Сначала отправьте видео.", nil)
		return
	}
	if err := b.academy.AttachVideo(ctx, lessonID, v.(string)); err != nil {
		// Keep the upload so the admin can pick another lesson.
		b.pendingVideos.Store(adminID, v)
		b.fail(chatID, "attach video", err)
		return
	}
	b.logger.Info("bot: video attached", "lesson_id", lessonID, "admin_id", adminID)
	b.reply(chatID, "✅ Видео прикреплено к уроку.", nil)
}
