package bot

import (
	"context"
	"errors"
	"time"

	tele "gopkg.in/telebot.v4"

	"github.com/nike4192/laundry-bot/core/logger"
	"github.com/nike4192/laundry-bot/core/telegram/callbacks"
	"github.com/nike4192/laundry-bot/core/telegram/helpers"
	"github.com/nike4192/laundry-bot/internal/forms"
	"github.com/nike4192/laundry-bot/internal/models"
	"github.com/nike4192/laundry-bot/internal/store"
)

// handleFormButton is the single entry point for every form keyboard
// press. The session is looked up by the message the button lives on,
// so a press on any stale copy still routes to the canonical state.
func (s *Service) handleFormButton(c tele.Context) error {
	ctx := helpers.BuildContext(c)
	msg := c.Message()
	if msg == nil {
		return c.Respond(&tele.CallbackResponse{})
	}
	msgID := int64(msg.ID)

	data, err := s.st.DataByMessage(ctx, msgID)
	if errors.Is(err, store.ErrNotFound) {
		s.retireMessage(ctx, c.Chat().ID, msgID)
		return c.Respond(&tele.CallbackResponse{Text: "Сообщение устарело"})
	}
	if err != nil {
		s.reportError(ctx, c, err)
		return c.Respond(&tele.CallbackResponse{Text: textSomethingWentWrong})
	}

	owner, err := s.st.UserByMessage(ctx, msgID)
	if err != nil {
		s.reportError(ctx, c, err)
		return c.Respond(&tele.CallbackResponse{Text: textSomethingWentWrong})
	}
	if c.Chat() == nil || owner.ChatID != c.Chat().ID {
		return c.Respond(&tele.CallbackResponse{})
	}

	f := s.buildForm(owner, data)

	// A press can arrive after the booking moment entered the cutoff
	// window or passed entirely. The flags are refreshed first; when
	// they move, the press is answered with the updated banner instead
	// of being applied.
	if _, ok := data.(*models.AppointmentData); ok {
		changed, err := forms.RefreshTimeFlags(ctx, f)
		if err != nil {
			s.reportError(ctx, c, err)
			return c.Respond(&tele.CallbackResponse{Text: textSomethingWentWrong})
		}
		if changed {
			if err := s.renderAndEdit(ctx, owner, data); err != nil {
				s.reportError(ctx, c, err)
			}
			return c.Respond(&tele.CallbackResponse{})
		}
	}

	step, value, err := callbacks.PayloadStepValue(c)
	if err != nil {
		return c.Respond(&tele.CallbackResponse{})
	}

	res, err := f.HandleButton(ctx, step, value)
	if err != nil {
		s.reportError(ctx, c, err)
		return c.Respond(&tele.CallbackResponse{Text: textSomethingWentWrong})
	}

	r, err := f.Render(ctx)
	if err != nil {
		s.reportError(ctx, c, err)
		return c.Respond(&tele.CallbackResponse{Text: textSomethingWentWrong})
	}
	s.editMessage(ctx, owner.ChatID, msgID, r, data)

	if !res.Accepted && res.ErrorText != "" {
		s.scheduleErrorClear(owner, data.DataID(), msgID)
	}

	// Completing the washer step changes what every other open form may
	// offer, so their messages are re-rendered.
	if ad, ok := data.(*models.AppointmentData); ok && res.Accepted && step == forms.AppointmentLastStep {
		s.fanOut(ctx, ad.ID)
	}

	return c.Respond(&tele.CallbackResponse{})
}

// scheduleErrorClear re-renders the message without the transient error
// banner once the visibility window elapses.
func (s *Service) scheduleErrorClear(owner *models.User, dataID, msgID int64) {
	time.AfterFunc(s.errVisible, func() {
		ctx := context.Background()
		data, err := s.st.DataByMessage(ctx, msgID)
		if err != nil || data.DataID() != dataID {
			// The message moved on; nothing to clear.
			return
		}
		if err := s.renderAndEdit(ctx, owner, data); err != nil {
			logger.Warn(ctx, "bot", "error banner clear failed",
				logErr(err),
			)
		}
	})
}

// fanOut re-renders every other live booking form and every live
// summary report, since slot availability just changed.
func (s *Service) fanOut(ctx context.Context, exceptDataID int64) {
	datas, err := s.st.LiveAppointmentDatas(ctx)
	if err != nil {
		logger.Warn(ctx, "bot", "fan-out list failed", logErr(err))
		return
	}
	for _, data := range datas {
		if data.ID == exceptDataID {
			continue
		}
		owner, err := s.st.UserByMessage(ctx, *data.MsgID)
		if err != nil {
			logger.Warn(ctx, "bot", "fan-out owner lookup failed", logErr(err))
			continue
		}
		if err := s.renderAndEdit(ctx, owner, data); err != nil {
			logger.Warn(ctx, "bot", "fan-out render failed", logErr(err))
		}
	}

	summaries, err := s.st.LiveSummaryDatas(ctx)
	if err != nil {
		logger.Warn(ctx, "bot", "fan-out summary list failed", logErr(err))
		return
	}
	for _, summary := range summaries {
		if summary.SummaryDate == nil {
			continue
		}
		owner, err := s.st.UserByMessage(ctx, *summary.MsgID)
		if err != nil {
			logger.Warn(ctx, "bot", "fan-out owner lookup failed", logErr(err))
			continue
		}
		if err := s.renderAndEdit(ctx, owner, summary); err != nil {
			logger.Warn(ctx, "bot", "fan-out render failed", logErr(err))
		}
	}
}
