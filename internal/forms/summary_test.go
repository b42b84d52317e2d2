package forms

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/nike4192/laundry-bot/internal/booking"
	"github.com/nike4192/laundry-bot/internal/models"
)

func (fx fixture) summaryForm(t *testing.T, moderator *models.User, date *time.Time) (*Form, *models.SummaryData) {
	t.Helper()
	data := &models.SummaryData{SummaryDate: date}
	if date != nil {
		data.State = 1
	}
	require.NoError(t, fx.st.CreateData(context.Background(), data))
	return NewSummary(fx.st, booking.DefaultSettings(), moderator, data, fixedNow), data
}

func TestSummaryDateOptionsCounts(t *testing.T) {
	fx := newFixture(t)
	ctx := context.Background()
	moderator := fx.st.AddUser(&models.User{FirstName: "Мария", LastName: "Смирнова", OrderNumber: 1, ChatID: 300, Role: models.RoleModerator})

	require.NoError(t, fx.st.CreateAppointment(ctx, &models.Appointment{
		BookDate: time.Date(2025, 6, 3, 0, 0, 0, 0, time.UTC),
		BookTime: models.TimeOfDay{Hour: 14},
		UserID:   fx.user.ID,
		WasherID: fx.w1.ID,
	}))

	f, _ := fx.summaryForm(t, moderator, nil)
	r, err := f.Render(ctx)
	require.NoError(t, err)
	require.NotEmpty(t, r.Options)
	assert.Equal(t, "02.06 (Пн)", r.Options[0].Label)
	assert.Equal(t, "03.06 (Вт) - 1", r.Options[1].Label)
	assert.Equal(t, 1, r.Columns)
}

func TestSummaryReport(t *testing.T) {
	fx := newFixture(t)
	ctx := context.Background()
	fx.user.Username = "ivan"
	moderator := fx.st.AddUser(&models.User{FirstName: "Мария", LastName: "Смирнова", OrderNumber: 1, ChatID: 300, Role: models.RoleModerator})

	date := time.Date(2025, 6, 3, 0, 0, 0, 0, time.UTC)
	booked := fx.liveAppointmentData(t, 101, func(d *models.AppointmentData) {
		d.State = 2
		tod := models.TimeOfDay{Hour: 14}
		d.BookDate, d.BookTime = &date, &tod
	})
	require.NoError(t, fx.st.CreateAppointment(ctx, &models.Appointment{
		BookDate: date, BookTime: models.TimeOfDay{Hour: 14},
		DataID: booked.ID, UserID: fx.user.ID, WasherID: fx.w1.ID,
	}))

	f, _ := fx.summaryForm(t, moderator, &date)
	r, err := f.Render(ctx)
	require.NoError(t, err)
	assert.Equal(t, "MarkdownV2", r.ParseMode)
	assert.Contains(t, r.Text, `03\.06\.2025 \(завтра\)`)
	assert.Contains(t, r.Text, "*14:00*")
	assert.Contains(t, r.Text, `\- @ivan ||Петров Иван|| \- \(Машина 1\)`)
}

func TestSummaryReportStrikesPassedTimes(t *testing.T) {
	fx := newFixture(t)
	ctx := context.Background()
	moderator := fx.st.AddUser(&models.User{FirstName: "Мария", LastName: "Смирнова", OrderNumber: 1, ChatID: 300, Role: models.RoleModerator})

	// A booking earlier today; the fixture clock is 09:00.
	date := time.Date(2025, 6, 2, 0, 0, 0, 0, time.UTC)
	tod := models.TimeOfDay{Hour: 8}
	booked := fx.liveAppointmentData(t, 101, func(d *models.AppointmentData) {
		d.State = 2
		d.BookDate, d.BookTime = &date, &tod
	})
	require.NoError(t, fx.st.CreateAppointment(ctx, &models.Appointment{
		BookDate: date, BookTime: tod,
		DataID: booked.ID, UserID: fx.user.ID, WasherID: fx.w1.ID,
	}))

	f, _ := fx.summaryForm(t, moderator, &date)
	r, err := f.Render(ctx)
	require.NoError(t, err)
	assert.Contains(t, r.Text, "~08:00~")
}

func TestSummaryWithoutDateErrors(t *testing.T) {
	fx := newFixture(t)
	moderator := fx.st.AddUser(&models.User{FirstName: "Мария", LastName: "Смирнова", OrderNumber: 1, ChatID: 300, Role: models.RoleModerator})

	data := &models.SummaryData{BaseData: models.BaseData{State: 1}}
	require.NoError(t, fx.st.CreateData(context.Background(), data))
	f := NewSummary(fx.st, booking.DefaultSettings(), moderator, data, fixedNow)
	_, err := f.Render(context.Background())
	require.Error(t, err)
}
