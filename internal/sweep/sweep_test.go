package sweep

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/nike4192/laundry-bot/internal/booking"
	"github.com/nike4192/laundry-bot/internal/models"
	"github.com/nike4192/laundry-bot/internal/storetest"
)

type recordedReminder struct {
	userID    int64
	messageID int64
	offset    time.Duration
}

type recordedSummary struct {
	userID   int64
	offset   time.Duration
	sessions int
}

// fakeNotifier records sweep outcomes instead of talking to Telegram.
type fakeNotifier struct {
	reminders []recordedReminder
	summaries []recordedSummary
	refreshed []int64
}

func (n *fakeNotifier) RemindUser(ctx context.Context, user *models.User, messageID int64, offset time.Duration) error {
	n.reminders = append(n.reminders, recordedReminder{userID: user.ID, messageID: messageID, offset: offset})
	return nil
}

func (n *fakeNotifier) RemindSummary(ctx context.Context, user *models.User, messageID int64, offset time.Duration, sessions int) error {
	n.summaries = append(n.summaries, recordedSummary{userID: user.ID, offset: offset, sessions: sessions})
	return nil
}

func (n *fakeNotifier) RefreshForm(ctx context.Context, user *models.User, data *models.AppointmentData) error {
	n.refreshed = append(n.refreshed, data.ID)
	return nil
}

type sweepFixture struct {
	st       *storetest.Memory
	notifier *fakeNotifier
	sweeper  *Sweeper
	user     *models.User
	data     *models.AppointmentData
}

// newSweepFixture seeds one resident with a live booking at 14:00 on
// 2025-06-03 and a reminder preference of offset.
func newSweepFixture(t *testing.T, offsetSeconds int) *sweepFixture {
	t.Helper()
	ctx := context.Background()
	st := storetest.NewMemory()
	user := st.AddUser(&models.User{FirstName: "Иван", LastName: "Петров", OrderNumber: 12, ChatID: 100})
	washer := st.AddWasher(&models.Washer{Name: "Машина 1", Available: true})

	date := time.Date(2025, 6, 3, 0, 0, 0, 0, time.UTC)
	tod := models.TimeOfDay{Hour: 14}
	data := &models.AppointmentData{
		BaseData: models.BaseData{State: 2},
		BookDate: &date,
		BookTime: &tod,
	}
	require.NoError(t, st.CreateData(ctx, data))
	require.NoError(t, st.SaveMessage(ctx, &models.Message{ID: 101, UserID: user.ID}))
	msgID := int64(101)
	data.SetMessageID(&msgID)
	require.NoError(t, st.SaveData(ctx, data))
	require.NoError(t, st.CreateAppointment(ctx, &models.Appointment{
		BookDate: date, BookTime: tod, DataID: data.ID, UserID: user.ID, WasherID: washer.ID,
	}))

	if offsetSeconds > 0 {
		require.NoError(t, st.CreateReminder(ctx, &models.Reminder{
			Seconds: offsetSeconds, DataID: data.ID, UserID: user.ID,
		}))
	}

	notifier := &fakeNotifier{}
	return &sweepFixture{
		st:       st,
		notifier: notifier,
		sweeper:  New(st, booking.DefaultSettings(), notifier),
		user:     user,
		data:     data,
	}
}

func at(hour, minute int) time.Time {
	return time.Date(2025, 6, 3, hour, minute, 0, 0, time.UTC)
}

func TestTickFiresReminderAtExactMinute(t *testing.T) {
	fx := newSweepFixture(t, 3600)
	ctx := context.Background()

	require.NoError(t, fx.sweeper.Tick(ctx, at(12, 59)))
	assert.Empty(t, fx.notifier.reminders)

	require.NoError(t, fx.sweeper.Tick(ctx, at(13, 0)))
	require.Len(t, fx.notifier.reminders, 1)
	assert.Equal(t, fx.user.ID, fx.notifier.reminders[0].userID)
	assert.Equal(t, int64(101), fx.notifier.reminders[0].messageID)
	assert.Equal(t, time.Hour, fx.notifier.reminders[0].offset)

	require.NoError(t, fx.sweeper.Tick(ctx, at(13, 1)))
	assert.Len(t, fx.notifier.reminders, 1, "a missed exact minute never re-fires")
}

func TestTickTruncatesToMinute(t *testing.T) {
	fx := newSweepFixture(t, 3600)
	require.NoError(t, fx.sweeper.Tick(context.Background(), at(13, 0).Add(17*time.Second)))
	assert.Len(t, fx.notifier.reminders, 1)
}

func TestTickReservesOnceAtCutoff(t *testing.T) {
	fx := newSweepFixture(t, 0)
	ctx := context.Background()

	require.NoError(t, fx.sweeper.Tick(ctx, at(13, 29)))
	assert.False(t, fx.data.Reserved)

	// The tick at exactly bookMoment minus the cutoff already reserves.
	require.NoError(t, fx.sweeper.Tick(ctx, at(13, 30)))
	assert.True(t, fx.data.Reserved)
	assert.Len(t, fx.notifier.refreshed, 1, "the form message is re-rendered")

	require.NoError(t, fx.sweeper.Tick(ctx, at(13, 31)))
	assert.Len(t, fx.notifier.refreshed, 1, "reserving happens once")
}

func TestTickReminderInsideCutoffNeedsReservedFirst(t *testing.T) {
	fx := newSweepFixture(t, 900)
	ctx := context.Background()

	// The first tick inside the cutoff spends itself on reserving; only
	// an already-reserved session delivers its short-offset reminder.
	require.NoError(t, fx.sweeper.Tick(ctx, at(13, 31)))
	require.True(t, fx.data.Reserved)

	require.NoError(t, fx.sweeper.Tick(ctx, at(13, 45)))
	require.Len(t, fx.notifier.reminders, 1)
	assert.Equal(t, 15*time.Minute, fx.notifier.reminders[0].offset)
}

func TestTickClosesPassedSession(t *testing.T) {
	fx := newSweepFixture(t, 0)
	ctx := context.Background()

	require.NoError(t, fx.sweeper.Tick(ctx, at(14, 0)))
	assert.True(t, fx.data.Passed)
	assert.False(t, fx.data.Reserved)
	assert.Len(t, fx.notifier.refreshed, 1)

	// Passed is monotonic; later ticks leave the session alone.
	require.NoError(t, fx.sweeper.Tick(ctx, at(14, 1)))
	assert.Len(t, fx.notifier.refreshed, 1)
}

func TestTickSkipsSessionsWithoutBookings(t *testing.T) {
	fx := newSweepFixture(t, 0)
	ctx := context.Background()
	for id := range fx.st.Appointments {
		require.NoError(t, fx.st.DeleteAppointment(ctx, id))
	}

	require.NoError(t, fx.sweeper.Tick(ctx, at(14, 0)))
	assert.False(t, fx.data.Passed, "a session with no booked washers is left alone")
}

func TestTickRemindsSummaryOwners(t *testing.T) {
	fx := newSweepFixture(t, 0)
	ctx := context.Background()

	moderator := fx.st.AddUser(&models.User{FirstName: "Мария", LastName: "Смирнова", OrderNumber: 1, ChatID: 300, Role: models.RoleModerator})
	require.NoError(t, fx.st.CreateReminder(ctx, &models.Reminder{Seconds: 3600, UserID: moderator.ID}))

	date := time.Date(2025, 6, 3, 0, 0, 0, 0, time.UTC)
	summary := &models.SummaryData{BaseData: models.BaseData{State: 1}, SummaryDate: &date}
	require.NoError(t, fx.st.CreateData(ctx, summary))
	require.NoError(t, fx.st.SaveMessage(ctx, &models.Message{ID: 201, UserID: moderator.ID}))
	msgID := int64(201)
	summary.SetMessageID(&msgID)
	require.NoError(t, fx.st.SaveData(ctx, summary))

	require.NoError(t, fx.sweeper.Tick(ctx, at(13, 0)))
	require.Len(t, fx.notifier.summaries, 1)
	assert.Equal(t, moderator.ID, fx.notifier.summaries[0].userID)
	assert.Equal(t, time.Hour, fx.notifier.summaries[0].offset)
	assert.Equal(t, 1, fx.notifier.summaries[0].sessions)

	// No session books 12:59 + 1h, so nothing fires a minute earlier.
	fx.notifier.summaries = nil
	require.NoError(t, fx.sweeper.Tick(ctx, at(12, 59)))
	assert.Empty(t, fx.notifier.summaries)
}

func TestTickWithoutModeratorRemindersSkipsSummaries(t *testing.T) {
	fx := newSweepFixture(t, 0)
	ctx := context.Background()

	date := time.Date(2025, 6, 3, 0, 0, 0, 0, time.UTC)
	summary := &models.SummaryData{BaseData: models.BaseData{State: 1}, SummaryDate: &date}
	require.NoError(t, fx.st.CreateData(ctx, summary))
	require.NoError(t, fx.st.SaveMessage(ctx, &models.Message{ID: 201, UserID: fx.user.ID}))
	msgID := int64(201)
	summary.SetMessageID(&msgID)
	require.NoError(t, fx.st.SaveData(ctx, summary))

	require.NoError(t, fx.sweeper.Tick(ctx, at(13, 0)))
	assert.Empty(t, fx.notifier.summaries)
}
