package bot

import (
	"context"
	"errors"
	"strings"

	tele "gopkg.in/telebot.v4"

	"github.com/nike4192/laundry-bot/core/telegram"
	"github.com/nike4192/laundry-bot/core/telegram/commands"
	"github.com/nike4192/laundry-bot/core/telegram/helpers"
	"github.com/nike4192/laundry-bot/core/telegram/state"
	"github.com/nike4192/laundry-bot/internal/auth"
	"github.com/nike4192/laundry-bot/internal/models"
	"github.com/nike4192/laundry-bot/internal/store"
)

// stateAwaitingAuth marks a user who sent /auth without arguments and
// is expected to reply with their credentials as plain text.
const stateAwaitingAuth state.State = "awaiting_auth"

const (
	textStartAuthorized = "Для записи в прачечную введите команду: /book"
	textStartAnonymous  = "Прежде всего нужно авторизоваться\n\n" +
		"Для этого отправьте сообщение в формате:\n" +
		"```\n/auth <фамилия> <имя> <номер договора>```\n" +
		"Если у вас фамилия и имя совпадают с указанными в договоре, то просто:" +
		"```\n/auth <номер договора>\n```"
	textAuthHint = "Отправьте данные в формате:\n" +
		"```\n<фамилия> <имя> <номер договора>```"
	textAuthSuccessful     = "Вы успешно авторизовались"
	textAuthSelfAlready    = "Вы уже авторизованы"
	textAuthOtherAlready   = "Этот договор уже привязан к другому аккаунту"
	textAuthNotFound       = "Не удалось найти договор с такими данными, проверьте их и попробуйте ещё раз"
	textNeedAuth           = "Сначала нужно авторизоваться: /start"
	textModeratorOnly      = "Эта команда доступна только модераторам"
	textNoActiveBookings   = "На данный момент нет действующих записей"
	textSomethingWentWrong = "Что-то пошло не так, попробуйте ещё раз"
)

// Register wires the bot's commands, the form callback, and the text
// fallback into the transport registry.
func (s *Service) Register(reg *telegram.Registry) {
	reg.RegisterCommand("/start", commands.Command{
		Handler:     s.handleStart,
		Description: "Начало работы",
	})
	reg.RegisterCommand("/auth", commands.Command{
		Handler:     s.handleAuth,
		Description: "Авторизация по договору",
	})
	reg.RegisterCommand("/book", commands.Command{
		Handler:     s.authorized(s.handleBook),
		Description: "Записаться в прачечную",
	})
	reg.RegisterCommand("/remind", commands.Command{
		Handler:     s.authorized(s.handleRemind),
		Description: "Настроить уведомления",
	})
	reg.RegisterCommand("/my", commands.Command{
		Handler:     s.authorized(s.handleMy),
		Description: "Мои записи",
	})
	reg.RegisterCommand("/today", commands.Command{
		Handler:       s.moderator(s.handleToday),
		Description:   "Сводка на сегодня",
		ModeratorOnly: true,
	})
	reg.RegisterCommand("/summary", commands.Command{
		Handler:       s.moderator(s.handleSummary),
		Description:   "Сводка по записям",
		ModeratorOnly: true,
	})

	if err := reg.RegisterCallback(formCallbackKey, s.handleFormButton); err != nil {
		panic(err)
	}
	reg.SetTextFallback(s.handleText)
	reg.SetCallbackNotFound(func(c tele.Context) error {
		return c.Respond(&tele.CallbackResponse{Text: "Неизвестное действие"})
	})
}

// authUser resolves the sender against the linked chat id. A nil user
// with nil error means the chat is not authorized.
func (s *Service) authUser(ctx context.Context, c tele.Context) (*models.User, error) {
	chat := c.Chat()
	if chat == nil {
		return nil, nil
	}
	user, err := s.st.UserByChatID(ctx, chat.ID)
	if errors.Is(err, store.ErrNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return user, nil
}

// authorized wraps a handler with the authorization gate.
func (s *Service) authorized(next func(tele.Context, *models.User) error) tele.HandlerFunc {
	return func(c tele.Context) error {
		ctx := helpers.BuildContext(c)
		user, err := s.authUser(ctx, c)
		if err != nil {
			return s.fail(ctx, c, err)
		}
		if user == nil {
			return c.Send(textNeedAuth)
		}
		return next(c, user)
	}
}

// moderator additionally requires the moderator role.
func (s *Service) moderator(next func(tele.Context, *models.User) error) tele.HandlerFunc {
	return s.authorized(func(c tele.Context, user *models.User) error {
		if user.Role != models.RoleModerator {
			return c.Send(textModeratorOnly)
		}
		return next(c, user)
	})
}

func (s *Service) handleStart(c tele.Context) error {
	ctx := helpers.BuildContext(c)
	user, err := s.authUser(ctx, c)
	if err != nil {
		return s.fail(ctx, c, err)
	}
	if user != nil {
		return c.Send(textStartAuthorized)
	}
	return c.Send(textStartAnonymous, &tele.SendOptions{ParseMode: tele.ModeMarkdown})
}

func (s *Service) handleAuth(c tele.Context) error {
	ctx := helpers.BuildContext(c)
	args := strings.Fields(c.Message().Payload)
	req, err := auth.ParseArgs(args, s.profileOf(c))
	if err != nil {
		// Malformed arguments: switch to the plain-text follow-up flow.
		s.states.Set(c.Sender().ID, stateAwaitingAuth)
		return c.Send(textAuthHint, &tele.SendOptions{ParseMode: tele.ModeMarkdown})
	}
	return s.finishAuth(ctx, c, req)
}

// handleText catches the plain-text credentials reply after a bare /auth.
func (s *Service) handleText(c tele.Context) error {
	if s.states.Get(c.Sender().ID) != stateAwaitingAuth {
		return nil
	}
	ctx := helpers.BuildContext(c)
	args := strings.Fields(c.Text())
	req, err := auth.ParseArgs(args, s.profileOf(c))
	if err != nil {
		return c.Send(textAuthHint, &tele.SendOptions{ParseMode: tele.ModeMarkdown})
	}
	return s.finishAuth(ctx, c, req)
}

func (s *Service) profileOf(c tele.Context) auth.Profile {
	sender := c.Sender()
	return auth.Profile{
		FirstName: sender.FirstName,
		LastName:  sender.LastName,
		Username:  sender.Username,
		ChatID:    c.Chat().ID,
	}
}

func (s *Service) finishAuth(ctx context.Context, c tele.Context, req auth.Request) error {
	outcome, _, err := auth.Authorize(ctx, s.st, req)
	if err != nil {
		return s.fail(ctx, c, err)
	}
	s.states.Clear(c.Sender().ID)

	// The credentials message is deleted once the identity matched, so
	// the contract number does not linger in the chat history.
	if outcome != auth.NotFound {
		_ = c.Delete()
	}

	switch outcome {
	case auth.Authorized:
		return c.Send(textAuthSuccessful)
	case auth.SelfAlreadyAuthorized:
		return c.Send(textAuthSelfAlready)
	case auth.OtherAlreadyAuthorized:
		return c.Send(textAuthOtherAlready)
	default:
		return c.Send(textAuthNotFound)
	}
}

func (s *Service) handleBook(c tele.Context, user *models.User) error {
	ctx := helpers.BuildContext(c)
	data := &models.AppointmentData{}
	if err := s.openForm(ctx, user, data); err != nil {
		return s.fail(ctx, c, err)
	}
	return nil
}

func (s *Service) handleRemind(c tele.Context, user *models.User) error {
	ctx := helpers.BuildContext(c)
	data := &models.ReminderData{}
	if err := s.openForm(ctx, user, data); err != nil {
		return s.fail(ctx, c, err)
	}
	return nil
}

// handleMy re-presents the user's active booking sessions: old messages
// are retired and each session gets a fresh message at the bottom of
// the chat.
func (s *Service) handleMy(c tele.Context, user *models.User) error {
	ctx := helpers.BuildContext(c)
	datas, err := s.st.LiveAppointmentDatasByUser(ctx, user.ID)
	if err != nil {
		return s.fail(ctx, c, err)
	}

	now := s.now()
	var active []*models.AppointmentData
	for _, data := range datas {
		if data.Expired(now) {
			continue
		}
		appointments, err := s.st.AppointmentsByData(ctx, data.ID)
		if err != nil {
			return s.fail(ctx, c, err)
		}
		if len(appointments) > 0 {
			active = append(active, data)
		}
	}
	if len(active) == 0 {
		return c.Send(textNoActiveBookings)
	}

	for _, data := range active {
		oldID := *data.MsgID
		s.retireMessage(ctx, user.ChatID, oldID)

		f := s.buildForm(user, data)
		r, err := f.Render(ctx)
		if err != nil {
			return s.fail(ctx, c, err)
		}
		msg, err := s.tele().Send(tele.ChatID(user.ChatID), r.Text, sendOptions(data, r))
		if err != nil {
			return s.fail(ctx, c, err)
		}
		msgID := int64(msg.ID)
		if err := s.st.SaveMessage(ctx, &models.Message{ID: msgID, UserID: user.ID}); err != nil {
			return s.fail(ctx, c, err)
		}
		data.SetMessageID(&msgID)
		if err := s.st.SaveData(ctx, data); err != nil {
			return s.fail(ctx, c, err)
		}
	}
	return nil
}

// handleToday opens a summary session pre-filled with today's date,
// skipping straight to the report step.
func (s *Service) handleToday(c tele.Context, user *models.User) error {
	ctx := helpers.BuildContext(c)
	today := models.DateOnly(s.now())
	data := &models.SummaryData{
		BaseData:    models.BaseData{State: 1},
		SummaryDate: &today,
	}
	if err := s.openForm(ctx, user, data); err != nil {
		return s.fail(ctx, c, err)
	}
	return nil
}

func (s *Service) handleSummary(c tele.Context, user *models.User) error {
	ctx := helpers.BuildContext(c)
	data := &models.SummaryData{}
	if err := s.openForm(ctx, user, data); err != nil {
		return s.fail(ctx, c, err)
	}
	return nil
}

// fail reports an internal failure to the operator channel and shows
// the user a generic apology.
func (s *Service) fail(ctx context.Context, c tele.Context, err error) error {
	s.reportError(ctx, c, err)
	return c.Send(textSomethingWentWrong)
}
