package forms

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/nike4192/laundry-bot/internal/booking"
	"github.com/nike4192/laundry-bot/internal/models"
	"github.com/nike4192/laundry-bot/internal/store"
)

func (fx fixture) liveAppointmentData(t *testing.T, messageID int64, mutate func(*models.AppointmentData)) *models.AppointmentData {
	t.Helper()
	ctx := context.Background()
	data := &models.AppointmentData{}
	if mutate != nil {
		mutate(data)
	}
	require.NoError(t, fx.st.CreateData(ctx, data))
	require.NoError(t, fx.st.SaveMessage(ctx, &models.Message{ID: messageID, UserID: fx.user.ID}))
	data.SetMessageID(&messageID)
	require.NoError(t, fx.st.SaveData(ctx, data))
	return data
}

func TestReconcileMergesDuplicateSessions(t *testing.T) {
	fx := newFixture(t)
	ctx := context.Background()

	old := fx.liveAppointmentData(t, 101, nil)
	fresh := fx.liveAppointmentData(t, 102, nil)

	f := NewAppointment(fx.st, booking.DefaultSettings(), fx.user, fresh, fixedNow)
	retired, err := f.Reconcile(ctx)
	require.NoError(t, err)
	require.Len(t, retired, 1)
	assert.Equal(t, old.ID, retired[0].Data.DataID())
	assert.Equal(t, int64(101), retired[0].MessageID)

	_, err = fx.st.DataByMessage(ctx, 101)
	assert.ErrorIs(t, err, store.ErrNotFound, "merged-away session is deleted")

	// Idempotent: a second pass finds nothing.
	retired, err = f.Reconcile(ctx)
	require.NoError(t, err)
	assert.Empty(t, retired)
}

func TestReconcileMovesDependents(t *testing.T) {
	fx := newFixture(t)
	ctx := context.Background()
	date := time.Date(2025, 6, 3, 0, 0, 0, 0, time.UTC)
	tod := models.TimeOfDay{Hour: 14}

	complete := func(d *models.AppointmentData) {
		d.State = 2
		d.BookDate, d.BookTime = &date, &tod
	}
	old := fx.liveAppointmentData(t, 101, complete)
	fresh := fx.liveAppointmentData(t, 102, complete)

	require.NoError(t, fx.st.CreateAppointment(ctx, &models.Appointment{
		BookDate: date, BookTime: tod, DataID: old.ID, UserID: fx.user.ID, WasherID: fx.w1.ID,
	}))

	f := NewAppointment(fx.st, booking.DefaultSettings(), fx.user, fresh, fixedNow)
	_, err := f.Reconcile(ctx)
	require.NoError(t, err)

	moved, err := fx.st.AppointmentsByData(ctx, fresh.ID)
	require.NoError(t, err)
	require.Len(t, moved, 1, "the duplicate's booking survives on the canonical session")

	orphaned, err := fx.st.AppointmentsByData(ctx, old.ID)
	require.NoError(t, err)
	assert.Empty(t, orphaned)
}

func TestReconcileIgnoresOtherUsersAndKeys(t *testing.T) {
	fx := newFixture(t)
	ctx := context.Background()
	other := fx.st.AddUser(&models.User{FirstName: "Анна", LastName: "Иванова", OrderNumber: 7, ChatID: 200})

	// Same natural key but owned by someone else.
	foreign := &models.AppointmentData{}
	require.NoError(t, fx.st.CreateData(ctx, foreign))
	require.NoError(t, fx.st.SaveMessage(ctx, &models.Message{ID: 300, UserID: other.ID}))
	msgID := int64(300)
	foreign.SetMessageID(&msgID)
	require.NoError(t, fx.st.SaveData(ctx, foreign))

	// Same owner but a different step.
	fx.liveAppointmentData(t, 101, func(d *models.AppointmentData) { d.State = 1 })

	fresh := fx.liveAppointmentData(t, 102, nil)
	f := NewAppointment(fx.st, booking.DefaultSettings(), fx.user, fresh, fixedNow)
	retired, err := f.Reconcile(ctx)
	require.NoError(t, err)
	assert.Empty(t, retired)
}
