// Package bot wires the laundry domain onto the Telegram transport:
// commands, the form callback flow, sweep notifications, and the
// operator error channel.
package bot

import (
	"context"
	"fmt"
	"log/slog"
	"strconv"
	"strings"
	"sync"
	"time"

	tele "gopkg.in/telebot.v4"

	coreconfig "github.com/nike4192/laundry-bot/core/config"
	"github.com/nike4192/laundry-bot/core/logger"
	"github.com/nike4192/laundry-bot/core/telegram"
	"github.com/nike4192/laundry-bot/core/telegram/keyboard"
	tgsender "github.com/nike4192/laundry-bot/core/telegram/sender"
	"github.com/nike4192/laundry-bot/core/telegram/state"
	"github.com/nike4192/laundry-bot/internal/booking"
	"github.com/nike4192/laundry-bot/internal/forms"
	"github.com/nike4192/laundry-bot/internal/models"
	"github.com/nike4192/laundry-bot/internal/store"
)

const formCallbackKey = "form"

const closedBanner = "⌛"

// Service holds the bot's domain dependencies. The telebot handle and
// dispatcher are attached once the transport is up.
type Service struct {
	st       store.Store
	settings booking.Settings
	cfg      *coreconfig.Config
	states   *state.Manager
	now      func() time.Time

	errVisible time.Duration

	mu   sync.RWMutex
	bot  *tele.Bot
	disp *tgsender.Dispatcher
}

// New builds the bot service.
func New(st store.Store, settings booking.Settings, cfg *coreconfig.Config) *Service {
	return &Service{
		st:         st,
		settings:   settings,
		cfg:        cfg,
		states:     state.NewManager(),
		now:        time.Now,
		errVisible: time.Duration(cfg.Laundry.ErrorVisibleSeconds) * time.Second,
	}
}

// Attach hands the running transport to the service.
func (s *Service) Attach(rt telegram.Runtime) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.bot = rt.Bot
	s.disp = rt.Dispatcher
}

func (s *Service) tele() *tele.Bot {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.bot
}

func (s *Service) dispatcher() *tgsender.Dispatcher {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.disp
}

// buildForm assembles the wizard matching the session kind.
func (s *Service) buildForm(user *models.User, data models.FormData) *forms.Form {
	switch d := data.(type) {
	case *models.AppointmentData:
		return forms.NewAppointment(s.st, s.settings, user, d, s.now)
	case *models.ReminderData:
		return forms.NewReminder(s.st, s.settings, user, d, s.now)
	case *models.SummaryData:
		return forms.NewSummary(s.st, s.settings, user, d, s.now)
	}
	return nil
}

// formMarkup lays out the render options as an inline keyboard. Every
// button carries the claimed step so a press on a stale keyboard routes
// to the step it was rendered for.
func formMarkup(data models.FormData, r forms.Render) *tele.ReplyMarkup {
	if len(r.Options) == 0 {
		return nil
	}
	btns := make([]keyboard.InlineBtn, len(r.Options))
	for i, opt := range r.Options {
		btns[i] = keyboard.InlineBtn{
			Text:   opt.Label,
			Unique: formCallbackKey,
			Data:   fmt.Sprintf("%d %s", data.Step(), opt.Value),
		}
	}
	return keyboard.Grid(btns, r.Columns)
}

func sendOptions(data models.FormData, r forms.Render) *tele.SendOptions {
	return &tele.SendOptions{
		ParseMode:   r.ParseMode,
		ReplyMarkup: formMarkup(data, r),
	}
}

// openForm persists a fresh session, sends its message, then merges any
// duplicate live sessions into it and retires their messages.
func (s *Service) openForm(ctx context.Context, user *models.User, data models.FormData) error {
	if err := s.st.CreateData(ctx, data); err != nil {
		return err
	}

	f := s.buildForm(user, data)
	r, err := f.Render(ctx)
	if err != nil {
		return err
	}

	msg, err := s.tele().Send(tele.ChatID(user.ChatID), r.Text, sendOptions(data, r))
	if err != nil {
		return err
	}
	msgID := int64(msg.ID)
	if err := s.st.SaveMessage(ctx, &models.Message{ID: msgID, UserID: user.ID}); err != nil {
		return err
	}
	data.SetMessageID(&msgID)
	if err := s.st.SaveData(ctx, data); err != nil {
		return err
	}

	retired, err := f.Reconcile(ctx)
	if err != nil {
		return err
	}
	for _, sup := range retired {
		s.retireMessage(ctx, user.ChatID, sup.MessageID)
	}
	return nil
}

// retireMessage edits a superseded form message down to the closed
// banner. Best effort: failures are logged, never escalated.
func (s *Service) retireMessage(ctx context.Context, chatID, messageID int64) {
	s.editMessage(ctx, chatID, messageID, forms.Render{Text: closedBanner, ParseMode: "Markdown"}, nil)
}

// editMessage edits a form message asynchronously through the
// dispatcher. "message is not modified" answers are expected when a
// re-render produced identical content and are swallowed.
func (s *Service) editMessage(ctx context.Context, chatID, messageID int64, r forms.Render, data models.FormData) {
	bot := s.tele()
	stored := &tele.StoredMessage{
		MessageID: strconv.FormatInt(messageID, 10),
		ChatID:    chatID,
	}
	var opts *tele.SendOptions
	if data != nil {
		opts = sendOptions(data, r)
	} else {
		opts = &tele.SendOptions{ParseMode: r.ParseMode}
	}
	run := func() error {
		_, err := bot.Edit(stored, r.Text, opts)
		if err != nil && strings.Contains(err.Error(), "message is not modified") {
			return nil
		}
		return err
	}

	disp := s.dispatcher()
	if disp == nil {
		if err := run(); err != nil {
			logger.Warn(ctx, "bot", "edit failed",
				slog.Int64("message_id", messageID),
				slog.String("err", err.Error()),
			)
		}
		return
	}
	if err := disp.Enqueue(ctx, "edit.form", run); err != nil {
		// Saturated queue: fall back to the calling goroutine.
		if err := run(); err != nil {
			logger.Warn(ctx, "bot", "edit failed",
				slog.Int64("message_id", messageID),
				slog.String("err", err.Error()),
			)
		}
	}
}

// renderAndEdit re-renders a session and edits its live message.
func (s *Service) renderAndEdit(ctx context.Context, user *models.User, data models.FormData) error {
	if data.MessageID() == nil {
		return nil
	}
	f := s.buildForm(user, data)
	r, err := f.Render(ctx)
	if err != nil {
		return err
	}
	s.editMessage(ctx, user.ChatID, *data.MessageID(), r, data)
	return nil
}
