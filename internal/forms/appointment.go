package forms

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/nike4192/laundry-bot/internal/booking"
	"github.com/nike4192/laundry-bot/internal/models"
	"github.com/nike4192/laundry-bot/internal/store"
)

const (
	errSlotAlreadyBooked = "Это время уже занято"
	errWasherUnavailable = "Машина сейчас недоступна"
	errSlotPassed        = "Это время уже прошло"
	errSlotReserved      = "Запись закрыта, до начала осталось слишком мало времени"
	errMaxBookWashers    = "Нельзя держать больше %d активных записей"
)

// rejectText maps a non-selectable slot outcome to the transient error
// banner shown to the user.
func rejectText(slot booking.Slot) string {
	switch slot.Reason {
	case booking.ReasonAlreadyBooked:
		return errSlotAlreadyBooked
	case booking.ReasonNotAvailable:
		return errWasherUnavailable
	case booking.ReasonPassed:
		return errSlotPassed
	case booking.ReasonReserved:
		return errSlotReserved
	}
	return errSlotAlreadyBooked
}

// NewAppointment assembles the three-step booking wizard over data.
func NewAppointment(st store.Store, settings booking.Settings, user *models.User, data *models.AppointmentData, now func() time.Time) *Form {
	return New(Config{
		Store:    st,
		Settings: settings,
		User:     user,
		Data:     data,
		Now:      now,
		Actions: []Action{
			dateAction{},
			timeAction{},
			washerAction{},
		},
		Titles: Titles{
			Finished: "Вы записаны",
			Passed:   "Стирка прошла",
			Reserved: "Стирка скоро начнётся",
		},
		Finished: func(ctx context.Context, f *Form) (bool, error) {
			washers, err := f.Store().WashersByData(ctx, f.Data().DataID())
			if err != nil {
				return false, err
			}
			return len(washers) > 0, nil
		},
	})
}

// RefreshTimeFlags advances the reserved/passed flags of a booking
// session against now and persists any change, so a later render from
// any chat session agrees. Passed is monotonic and wins over reserved.
func RefreshTimeFlags(ctx context.Context, f *Form) (bool, error) {
	d, ok := f.Data().(*models.AppointmentData)
	if !ok || d.Passed {
		return false, nil
	}
	if d.Step() < AppointmentLastStep {
		return false, nil
	}
	moment, ok := d.BookMoment()
	if !ok {
		return false, nil
	}

	now := f.Now()
	changed := false
	if !now.Before(moment) {
		d.Passed = true
		d.Reserved = false
		changed = true
	} else if !d.Reserved && !now.Before(moment.Add(-f.Settings().Cutoff)) {
		d.Reserved = true
		changed = true
	}
	if !changed {
		return false, nil
	}
	return true, f.Store().SaveData(ctx, d)
}

// AppointmentLastStep is the washer step's index on the booking form.
const AppointmentLastStep = 2

func appointmentData(f *Form) *models.AppointmentData {
	return f.Data().(*models.AppointmentData)
}

type dateAction struct{}

func (dateAction) ItemLabel() string   { return "Дата" }
func (dateAction) ActionLabel() string { return "Выберите дату" }
func (dateAction) Columns() int        { return 1 }

func (a dateAction) Options(ctx context.Context, f *Form) ([]Option, error) {
	r := f.Resolver()
	dates := f.Settings().AvailableDates(f.User().Role, r.Now())
	options := make([]Option, 0, len(dates))
	for _, d := range dates {
		slot, err := a.resolve(ctx, f, d)
		if err != nil {
			return nil, err
		}
		options = append(options, Option{
			Label: signedLabel(slot, FormatDateButton(d)),
			Value: d.Format(time.DateOnly),
		})
	}
	return options, nil
}

// resolve probes the whole candidate date without touching the shared
// session: every configured time is aggregated at the given date.
func (dateAction) resolve(ctx context.Context, f *Form, date time.Time) (booking.Slot, error) {
	return f.Resolver().ResolveDate(ctx, f.User(), date)
}

func (dateAction) Stringify(ctx context.Context, f *Form) (string, error) {
	d := appointmentData(f)
	if d.BookDate == nil {
		return "...", nil
	}
	return FormatDate(*d.BookDate, f.Now()), nil
}

func (a dateAction) Apply(ctx context.Context, f *Form, value string) (bool, string, error) {
	date, err := time.ParseInLocation(time.DateOnly, value, f.Now().Location())
	if err != nil {
		return false, errSlotPassed, nil
	}
	slot, err := a.resolve(ctx, f, date)
	if err != nil {
		return false, "", err
	}
	if !slot.Selectable {
		return false, rejectText(slot), nil
	}
	appointmentData(f).BookDate = &date
	return true, "", nil
}

type timeAction struct{}

func (timeAction) ItemLabel() string   { return "Время" }
func (timeAction) ActionLabel() string { return "Выберите время" }
func (timeAction) Columns() int        { return 1 }

func (a timeAction) Options(ctx context.Context, f *Form) ([]Option, error) {
	d := appointmentData(f)
	if d.BookDate == nil {
		return nil, nil
	}
	r := f.Resolver()
	var options []Option
	for _, tod := range f.Settings().Times {
		// Times already gone today are omitted, not shown disabled.
		if !r.Now().Before(models.Combine(*d.BookDate, tod)) {
			continue
		}
		slot, err := r.ResolveTime(ctx, f.User(), *d.BookDate, tod)
		if err != nil {
			return nil, err
		}
		options = append(options, Option{
			Label: signedLabel(slot, tod.String()),
			Value: tod.String(),
		})
	}
	return options, nil
}

func (timeAction) Stringify(ctx context.Context, f *Form) (string, error) {
	d := appointmentData(f)
	if d.BookTime == nil {
		return "...", nil
	}
	return d.BookTime.String(), nil
}

func (a timeAction) Apply(ctx context.Context, f *Form, value string) (bool, string, error) {
	d := appointmentData(f)
	if d.BookDate == nil {
		return false, errSlotPassed, nil
	}
	tod, err := models.ParseTimeOfDay(value)
	if err != nil {
		return false, errSlotPassed, nil
	}
	slot, err := f.Resolver().ResolveTime(ctx, f.User(), *d.BookDate, tod)
	if err != nil {
		return false, "", err
	}
	if !slot.Selectable {
		return false, rejectText(slot), nil
	}
	d.BookTime = &tod
	return true, "", nil
}

type washerAction struct{}

func (washerAction) ItemLabel() string   { return "Стиральные машины" }
func (washerAction) ActionLabel() string { return "Выберите стиральные машины" }
func (washerAction) Columns() int        { return 0 }

func (a washerAction) Options(ctx context.Context, f *Form) ([]Option, error) {
	d := appointmentData(f)
	if d.BookDate == nil || d.BookTime == nil {
		return nil, nil
	}
	r := f.Resolver()
	washers, err := r.Washers(ctx)
	if err != nil {
		return nil, err
	}
	options := make([]Option, 0, len(washers))
	for _, w := range washers {
		slot, err := r.ResolveWasher(ctx, f.User(), *d.BookDate, *d.BookTime, w.ID)
		if err != nil {
			return nil, err
		}
		options = append(options, Option{
			Label: signedLabel(slot, w.Name),
			Value: fmt.Sprintf("%d", w.ID),
		})
	}
	return options, nil
}

func (washerAction) Stringify(ctx context.Context, f *Form) (string, error) {
	washers, err := f.Store().WashersByData(ctx, f.Data().DataID())
	if err != nil {
		return "", err
	}
	if len(washers) == 0 {
		return "...", nil
	}
	return WashersString(washers), nil
}

// Apply toggles a washer: a free one is booked (subject to the
// concurrent-bookings cap), the user's own booking is released. A slot
// taken between render and press loses to the database constraint and
// reports the same text as a failed validation.
func (a washerAction) Apply(ctx context.Context, f *Form, value string) (bool, string, error) {
	d := appointmentData(f)
	if d.BookDate == nil || d.BookTime == nil {
		return false, errSlotPassed, nil
	}
	var washerID int64
	if _, err := fmt.Sscanf(value, "%d", &washerID); err != nil {
		return false, errWasherUnavailable, nil
	}

	slot, err := f.Resolver().ResolveWasher(ctx, f.User(), *d.BookDate, *d.BookTime, washerID)
	if err != nil {
		return false, "", err
	}
	if !slot.Selectable {
		return false, rejectText(slot), nil
	}

	if slot.Reason == booking.ReasonAlreadyBooked {
		// Own booking: toggle it off.
		if err := f.Store().DeleteAppointment(ctx, slot.Appointment.ID); err != nil {
			return false, "", err
		}
		return true, "", nil
	}

	planned, err := f.Store().AppointmentsByUser(ctx, f.User().ID)
	if err != nil {
		return false, "", err
	}
	active := 0
	for i := range planned {
		if !planned[i].Passed(f.Now()) && planned[i].RejectedAt == nil {
			active++
		}
	}
	if active >= f.Settings().MaxBookings {
		return false, fmt.Sprintf(errMaxBookWashers, f.Settings().MaxBookings), nil
	}

	appointment := &models.Appointment{
		BookDate: *d.BookDate,
		BookTime: *d.BookTime,
		DataID:   d.ID,
		UserID:   f.User().ID,
		WasherID: washerID,
	}
	if err := f.Store().CreateAppointment(ctx, appointment); err != nil {
		if errors.Is(err, store.ErrConflict) {
			return false, errSlotAlreadyBooked, nil
		}
		return false, "", err
	}
	return true, "", nil
}
