package bot

import (
	"context"
	"fmt"
	"strings"
	"time"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"

	"github.com/xraph/academy/event"
	"github.com/xraph/academy/id"
	"github.com/xraph/academy/invoice"
)

// sendInvoice asks Telegram to show a payment form for the course.
func (b *Bot) sendInvoice(ctx context.Context, chatID int64, userID id.UserID, courseID id.CourseID) {
	if b.cfg.ProviderToken == "" {
		b.reply(chatID, "💳 Оплата временно недоступна.", mainMenuKeyboard())
		return
	}

	inv, err := b.academy.PurchaseInvoice(ctx, userID, courseID)
	if err != nil {
		b.fail(chatID, "purchase invoice", err)
		return
	}

	prices := make([]tgbotapi.LabeledPrice, 0, len(inv.LineItems))
	for _, item := range inv.LineItems {
		prices = append(prices, tgbotapi.LabeledPrice{Label: item.Label, Amount: int(item.Amount.Amount)})
	}

	cfg := tgbotapi.NewInvoice(chatID, inv.Title, inv.Description, inv.Payload,
		b.cfg.ProviderToken, inv.StartParameter, inv.Amount.CurrencyCode(), prices)
	// The API rejects a null tip list.
	cfg.SuggestedTipAmounts = []int{}

	if _, err := b.api.Send(cfg); err != nil {
		b.fail(chatID, "send invoice", err)
		return
	}
	b.logger.Info("bot: invoice sent",
		"invoice_id", inv.ID.String(),
		"user_id", userID,
		"course_id", courseID,
		"amount", inv.Amount.Amount,
	)
}

// handlePreCheckout validates the payload and amount before Telegram
// charges the user.
func (b *Bot) handlePreCheckout(ctx context.Context, q *tgbotapi.PreCheckoutQuery) {
	answer := tgbotapi.PreCheckoutConfig{PreCheckoutQueryID: q.ID, OK: true}

	if reason := b.checkPayment(ctx, q.InvoicePayload, q.Currency, q.TotalAmount); reason != "" {
		answer.OK = false
		answer.ErrorMessage = reason
		b.logger.Warn("bot: pre-checkout rejected", "payload", q.InvoicePayload, "reason", reason)
	}

	if _, err := b.api.Request(answer); err != nil {
		b.logger.Error("bot: pre-checkout answer failed", "error", err)
	}
}

// checkPayment returns a user-facing rejection reason, or "" when the
// payment matches an active course.
func (b *Bot) checkPayment(ctx context.Context, payload, currency string, total int) string {
	courseID, err := invoice.ParsePayload(payload)
	if err != nil {
		return "Некорректный платёж."
	}
	c, err := b.academy.GetCourse(ctx, courseID)
	if err != nil || !c.Active {
		return "Курс не найден."
	}
	if !strings.EqualFold(currency, c.Price.CurrencyCode()) || int64(total) != c.Price.Amount {
		return "Сумма платежа не совпадает с ценой курса."
	}
	return ""
}

func (b *Bot) handleSuccessfulPayment(ctx context.Context, msg *tgbotapi.Message, userID id.UserID) {
	p := msg.SuccessfulPayment
	courseID, err := invoice.ParsePayload(p.InvoicePayload)
	if err != nil {
		b.logger.Error("bot: payment with bad payload", "payload", p.InvoicePayload, "charge_id", p.TelegramPaymentChargeID)
		b.reply(msg.Chat.ID, "Не удалось определить курс. Напишите в поддержку.", mainMenuKeyboard())
		return
	}

	b.confirmPurchase(ctx, msg.Chat.ID, event.PurchaseConfirmed{
		UserID:        userID,
		CourseID:      courseID,
		AmountPaid:    int64(p.TotalAmount),
		Currency:      p.Currency,
		TransactionID: p.TelegramPaymentChargeID,
	})
}

// testPurchase unlocks a course without payment when enabled by config.
func (b *Bot) testPurchase(ctx context.Context, chatID int64, userID id.UserID, courseID id.CourseID) {
	if !b.cfg.TestPurchases {
		b.reply(chatID, "Тестовые покупки отключены.", mainMenuKeyboard())
		return
	}
	c, err := b.academy.GetCourse(ctx, courseID)
	if err != nil {
		b.fail(chatID, "get course", err)
		return
	}
	b.confirmPurchase(ctx, chatID, event.PurchaseConfirmed{
		UserID:        userID,
		CourseID:      courseID,
		AmountPaid:    c.Price.Amount,
		Currency:      c.Price.CurrencyCode(),
		TransactionID: fmt.Sprintf("test-%d-%d", userID, time.Now().UnixNano()),
	})
}

func (b *Bot) confirmPurchase(ctx context.Context, chatID int64, e event.PurchaseConfirmed) {
	out, err := b.academy.Handle(ctx, e)
	if err != nil {
		b.fail(chatID, "purchase confirmed", err)
		return
	}

	text := "✅ Курс уже открыт."
	if out.Access != nil && out.Access.Changed {
		text = fmt.Sprintf("🎉 Оплата прошла! Курс открыт.\n+%d бонусных баллов", out.PointsAwarded)
	}
	if out.Progress != nil {
		text += "\n\n" + progressText(out.Progress)
	}
	b.reply(chatID, text, tgbotapi.NewInlineKeyboardMarkup(
		tgbotapi.NewInlineKeyboardRow(btn("📚 К курсу", Action{Verb: VerbCourse, Course: e.CourseID})),
	))
}
