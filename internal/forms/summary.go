package forms

import (
	"context"
	"fmt"
	"sort"
	"strings"
	"time"

	"github.com/nike4192/laundry-bot/internal/booking"
	"github.com/nike4192/laundry-bot/internal/models"
	"github.com/nike4192/laundry-bot/internal/store"
)

// NewSummary assembles the moderator summary wizard: a date step and a
// read-only report step.
func NewSummary(st store.Store, settings booking.Settings, user *models.User, data *models.SummaryData, now func() time.Time) *Form {
	return New(Config{
		Store:    st,
		Settings: settings,
		User:     user,
		Data:     data,
		Now:      now,
		Actions: []Action{
			summaryDateAction{},
			summaryInfoMessage{},
		},
		Titles: Titles{
			Finished: "Сводка",
		},
	})
}

func summaryData(f *Form) *models.SummaryData {
	return f.Data().(*models.SummaryData)
}

type summaryDateAction struct{}

func (summaryDateAction) ItemLabel() string   { return "Дата" }
func (summaryDateAction) ActionLabel() string { return "📅 Выберите дату" }
func (summaryDateAction) Columns() int        { return 1 }

// Options annotates each offerable date with its booking count.
func (summaryDateAction) Options(ctx context.Context, f *Form) ([]Option, error) {
	dates := f.Settings().AvailableDates(f.User().Role, f.Now())
	options := make([]Option, 0, len(dates))
	for _, d := range dates {
		appointments, err := f.Store().AppointmentsOnDate(ctx, d)
		if err != nil {
			return nil, err
		}
		label := FormatDateButton(d)
		if len(appointments) > 0 {
			label = fmt.Sprintf("%s - %d", label, len(appointments))
		}
		options = append(options, Option{Label: label, Value: d.Format(time.DateOnly)})
	}
	return options, nil
}

func (summaryDateAction) Stringify(ctx context.Context, f *Form) (string, error) {
	d := summaryData(f)
	if d.SummaryDate == nil {
		return "...", nil
	}
	return FormatDate(*d.SummaryDate, f.Now()), nil
}

// Apply accepts any offered date; there is nothing to validate against.
func (summaryDateAction) Apply(ctx context.Context, f *Form, value string) (bool, string, error) {
	date, err := time.ParseInLocation(time.DateOnly, value, f.Now().Location())
	if err != nil {
		return false, errSlotPassed, nil
	}
	summaryData(f).SummaryDate = &date
	return true, "", nil
}

type summaryInfoMessage struct{}

func (summaryInfoMessage) ItemLabel() string   { return "Сводка" }
func (summaryInfoMessage) ActionLabel() string { return "Сводка" }
func (summaryInfoMessage) ParseMode() string   { return "MarkdownV2" }

// Text renders the day's bookings grouped by time: expired times struck
// through, resident names spoiler-wrapped, washers in parentheses.
func (summaryInfoMessage) Text(ctx context.Context, f *Form) (string, error) {
	d := summaryData(f)
	if d.SummaryDate == nil {
		return "", fmt.Errorf("summary %d: no date chosen", d.ID)
	}
	date := *d.SummaryDate

	all, err := f.Store().LiveAppointmentDatas(ctx)
	if err != nil {
		return "", err
	}
	datas := make([]*models.AppointmentData, 0, len(all))
	for _, data := range all {
		if data.BookDate != nil && data.BookTime != nil && models.SameDate(*data.BookDate, date) {
			datas = append(datas, data)
		}
	}
	sort.Slice(datas, func(i, j int) bool {
		return datas[i].BookTime.Before(*datas[j].BookTime)
	})

	var b strings.Builder
	b.WriteString(EscapeMarkdownV2(FormatDate(date, f.Now())))
	b.WriteString("\n\n")

	now := f.Now()
	var accumulated *models.TimeOfDay
	for _, data := range datas {
		washers, err := f.Store().WashersByData(ctx, data.ID)
		if err != nil {
			return "", err
		}
		if len(washers) == 0 {
			continue
		}
		owner, err := f.Store().UserByMessage(ctx, *data.MsgID)
		if err != nil {
			return "", err
		}

		if accumulated == nil || *accumulated != *data.BookTime {
			tod := *data.BookTime
			accumulated = &tod
			format := "*%s*\n"
			if data.Expired(now) {
				format = "~%s~\n"
			}
			b.WriteString(fmt.Sprintf(format, tod.String()))
		}
		b.WriteString(fmt.Sprintf("\\- @%s ||%s %s|| \\- \\(%s\\)\n",
			EscapeMarkdownV2(owner.Username),
			EscapeMarkdownV2(owner.LastName),
			EscapeMarkdownV2(owner.FirstName),
			EscapeMarkdownV2(WashersString(washers)),
		))
	}
	return b.String(), nil
}
