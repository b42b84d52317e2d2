// Package sweep runs the minute cadence pass over live booking
// sessions: it fires due reminders, marks sessions reserved when the
// cutoff window opens, and closes sessions whose booking moment passed.
package sweep

import (
	"context"
	"log/slog"
	"time"

	"github.com/google/uuid"
	"github.com/hashicorp/go-multierror"

	"github.com/nike4192/laundry-bot/core/logger"
	"github.com/nike4192/laundry-bot/internal/booking"
	"github.com/nike4192/laundry-bot/internal/models"
	"github.com/nike4192/laundry-bot/internal/store"
)

// Notifier delivers sweep outcomes to chats. State is persisted before
// any notification, so a delivery failure never re-arms a reminder.
type Notifier interface {
	// RemindUser tells a resident their washing starts in offset.
	RemindUser(ctx context.Context, user *models.User, messageID int64, offset time.Duration) error
	// RemindSummary tells a summary owner that sessions are booked at
	// the moment offset from now.
	RemindSummary(ctx context.Context, user *models.User, messageID int64, offset time.Duration, sessions int) error
	// RefreshForm re-renders the booking form message after its time
	// flags changed.
	RefreshForm(ctx context.Context, user *models.User, data *models.AppointmentData) error
}

// Sweeper holds the dependencies of the cadence pass.
type Sweeper struct {
	store    store.Store
	settings booking.Settings
	notifier Notifier
}

// New builds a Sweeper.
func New(st store.Store, settings booking.Settings, notifier Notifier) *Sweeper {
	return &Sweeper{store: st, settings: settings, notifier: notifier}
}

// Tick runs one sweep pass. The moment is truncated to the minute so
// that reminder matching is exact regardless of tick jitter. Failures
// on individual sessions are collected and do not stop the pass.
func (s *Sweeper) Tick(ctx context.Context, now time.Time) error {
	now = now.Truncate(time.Minute)
	ctx = logger.WithRID(ctx, "sweep:"+uuid.NewString())

	start := time.Now()
	var merr *multierror.Error

	datas, err := s.store.LiveAppointmentDatas(ctx)
	if err != nil {
		return err
	}

	if err := s.remindSummaries(ctx, now, datas); err != nil {
		merr = multierror.Append(merr, err)
	}

	var closed, reserved, reminded int
	for _, data := range datas {
		c, r, n, err := s.sweepData(ctx, now, data)
		if err != nil {
			merr = multierror.Append(merr, err)
			continue
		}
		closed += c
		reserved += r
		reminded += n
	}

	logger.Info(ctx, "sweep", "tick done",
		slog.Time("moment", now),
		slog.Int("sessions", len(datas)),
		slog.Int("closed", closed),
		slog.Int("reserved", reserved),
		slog.Int("reminded", reminded),
		slog.Duration("duration", logger.Took(start)),
	)
	return merr.ErrorOrNil()
}

// remindSummaries notifies summary owners about upcoming washings. The
// offsets come from moderators' own reminder preferences; duplicate
// offsets across moderators fire once.
func (s *Sweeper) remindSummaries(ctx context.Context, now time.Time, datas []*models.AppointmentData) error {
	moderators, err := s.store.UsersByRole(ctx, models.RoleModerator)
	if err != nil {
		return err
	}

	offsets := make(map[time.Duration]struct{})
	for i := range moderators {
		reminders, err := s.store.RemindersByUser(ctx, moderators[i].ID)
		if err != nil {
			return err
		}
		for _, r := range reminders {
			offsets[r.Offset()] = struct{}{}
		}
	}
	if len(offsets) == 0 {
		return nil
	}

	var summaries []*models.SummaryData
	var merr *multierror.Error
	for offset := range offsets {
		candidate := now.Add(offset)

		sessions := 0
		for _, data := range datas {
			if moment, ok := data.BookMoment(); ok && moment.Equal(candidate) {
				sessions++
			}
		}
		if sessions == 0 {
			continue
		}

		if summaries == nil {
			summaries, err = s.store.LiveSummaryDatas(ctx)
			if err != nil {
				return err
			}
		}
		for _, summary := range summaries {
			if summary.SummaryDate == nil || !models.SameDate(*summary.SummaryDate, candidate) {
				continue
			}
			owner, err := s.store.UserByMessage(ctx, *summary.MsgID)
			if err != nil {
				merr = multierror.Append(merr, err)
				continue
			}
			if err := s.notifier.RemindSummary(ctx, owner, *summary.MsgID, offset, sessions); err != nil {
				merr = multierror.Append(merr, err)
			}
		}
	}
	return merr.ErrorOrNil()
}

// sweepData advances the time flags of one live session and fires its
// due reminders. Returns how many closes, reservations and reminders
// happened.
func (s *Sweeper) sweepData(ctx context.Context, now time.Time, data *models.AppointmentData) (int, int, int, error) {
	moment, ok := data.BookMoment()
	if !ok {
		return 0, 0, 0, nil
	}
	appointments, err := s.store.AppointmentsByData(ctx, data.ID)
	if err != nil {
		return 0, 0, 0, err
	}
	if len(appointments) == 0 {
		return 0, 0, 0, nil
	}
	owner, err := s.store.UserByMessage(ctx, *data.MsgID)
	if err != nil {
		return 0, 0, 0, err
	}

	// Passed is monotonic: once the moment is behind, the session is
	// closed for good and no reminder for it fires again.
	if !data.Passed && !now.Before(moment) {
		data.Passed = true
		if err := s.store.SaveData(ctx, data); err != nil {
			return 0, 0, 0, err
		}
		if err := s.notifier.RefreshForm(ctx, owner, data); err != nil {
			return 0, 0, 0, err
		}
		return 1, 0, 0, nil
	}
	if data.Passed {
		return 0, 0, 0, nil
	}

	if !data.Reserved && !now.Before(moment.Add(-s.settings.Cutoff)) {
		data.Reserved = true
		if err := s.store.SaveData(ctx, data); err != nil {
			return 0, 0, 0, err
		}
		if err := s.notifier.RefreshForm(ctx, owner, data); err != nil {
			return 0, 0, 0, err
		}
		return 0, 1, 0, nil
	}

	reminders, err := s.store.RemindersByUser(ctx, owner.ID)
	if err != nil {
		return 0, 0, 0, err
	}
	reminded := 0
	var merr *multierror.Error
	for _, r := range reminders {
		if now.Equal(moment.Add(-r.Offset())) {
			if err := s.notifier.RemindUser(ctx, owner, *data.MsgID, r.Offset()); err != nil {
				merr = multierror.Append(merr, err)
				continue
			}
			reminded++
		}
	}
	return 0, 0, reminded, merr.ErrorOrNil()
}
