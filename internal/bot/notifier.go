package bot

import (
	"context"
	"fmt"
	"html"
	"log/slog"
	"time"

	tele "gopkg.in/telebot.v4"

	"github.com/nike4192/laundry-bot/core/logger"
	"github.com/nike4192/laundry-bot/internal/forms"
	"github.com/nike4192/laundry-bot/internal/models"
)

func logErr(err error) slog.Attr {
	return slog.String("err", err.Error())
}

// RemindUser implements sweep.Notifier: the reminder is replied onto
// the live booking form so the user sees which washing it refers to.
func (s *Service) RemindUser(ctx context.Context, user *models.User, messageID int64, offset time.Duration) error {
	text := fmt.Sprintf("🔔 Через *%s* назначена ваша стирка", forms.FormatOffset(offset))
	return s.sendReply(ctx, "remind.user", user.ChatID, messageID, text)
}

// RemindSummary implements sweep.Notifier for summary owners.
func (s *Service) RemindSummary(ctx context.Context, user *models.User, messageID int64, offset time.Duration, sessions int) error {
	text := fmt.Sprintf("🔔 Через *%s* назначены стирки - %d", forms.FormatOffset(offset), sessions)
	return s.sendReply(ctx, "remind.summary", user.ChatID, messageID, text)
}

// RefreshForm implements sweep.Notifier: the form message is re-rendered
// after its time flags changed.
func (s *Service) RefreshForm(ctx context.Context, user *models.User, data *models.AppointmentData) error {
	return s.renderAndEdit(ctx, user, data)
}

// sendReply delivers a Markdown message replying to messageID through
// the async dispatcher.
func (s *Service) sendReply(ctx context.Context, action string, chatID, messageID int64, text string) error {
	bot := s.tele()
	run := func() error {
		_, err := bot.Send(tele.ChatID(chatID), text, &tele.SendOptions{
			ParseMode: tele.ModeMarkdown,
			ReplyTo:   &tele.Message{ID: int(messageID), Chat: &tele.Chat{ID: chatID}},
		})
		return err
	}
	disp := s.dispatcher()
	if disp == nil {
		return run()
	}
	if err := disp.Enqueue(ctx, action, run); err != nil {
		return run()
	}
	return nil
}

// reportError logs a handler failure and forwards it to the operator
// chat when one is configured.
func (s *Service) reportError(ctx context.Context, c tele.Context, err error) {
	logger.Error(ctx, "bot", "handler failed", logErr(err))

	adminID := s.cfg.Telegram.AdminID
	if adminID == 0 {
		return
	}

	var updateText string
	if c != nil {
		updateText = c.Text()
		if cb := c.Callback(); cb != nil {
			updateText = cb.Data
		}
	}
	text := fmt.Sprintf(
		"An exception was raised while handling an update\n<pre>%s</pre>\n\n<pre>%s</pre>",
		html.EscapeString(updateText),
		html.EscapeString(err.Error()),
	)

	bot := s.tele()
	run := func() error {
		_, sendErr := bot.Send(tele.ChatID(adminID), text, &tele.SendOptions{ParseMode: tele.ModeHTML})
		return sendErr
	}
	disp := s.dispatcher()
	if disp == nil {
		if runErr := run(); runErr != nil {
			logger.Warn(ctx, "bot", "operator report failed", logErr(runErr))
		}
		return
	}
	if enqErr := disp.Enqueue(ctx, "report.error", run); enqErr != nil {
		logger.Warn(ctx, "bot", "operator report dropped", logErr(enqErr))
	}
}
