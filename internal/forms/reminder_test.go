package forms

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/nike4192/laundry-bot/internal/booking"
	"github.com/nike4192/laundry-bot/internal/models"
	"github.com/nike4192/laundry-bot/internal/store"
)

func (fx fixture) reminderForm(t *testing.T) (*Form, *models.ReminderData) {
	t.Helper()
	data := &models.ReminderData{}
	require.NoError(t, fx.st.CreateData(context.Background(), data))
	return NewReminder(fx.st, booking.DefaultSettings(), fx.user, data, fixedNow), data
}

func TestReminderToggle(t *testing.T) {
	fx := newFixture(t)
	ctx := context.Background()
	f, data := fx.reminderForm(t)

	res, err := f.HandleButton(ctx, 0, "900")
	require.NoError(t, err)
	require.True(t, res.Accepted)

	reminders, err := fx.st.RemindersByUser(ctx, fx.user.ID)
	require.NoError(t, err)
	require.Len(t, reminders, 1)
	assert.Equal(t, 900, reminders[0].Seconds)
	assert.Equal(t, data.ID, reminders[0].DataID)

	// Held offsets show a tick on the keyboard.
	r, err := f.Render(ctx)
	require.NoError(t, err)
	assert.Contains(t, r.Text, "✅ Уведомления настроены")
	var labels []string
	for _, opt := range r.Options {
		labels = append(labels, opt.Label)
	}
	assert.Contains(t, labels, "✅ 15 мин.")
	assert.Contains(t, labels, "1 ч.")

	// Pressing again releases the offset.
	res, err = f.HandleButton(ctx, 0, "900")
	require.NoError(t, err)
	require.True(t, res.Accepted)
	reminders, err = fx.st.RemindersByUser(ctx, fx.user.ID)
	require.NoError(t, err)
	assert.Empty(t, reminders)
}

func TestReminderRejectsBadOffset(t *testing.T) {
	fx := newFixture(t)
	f, _ := fx.reminderForm(t)

	_, err := f.HandleButton(context.Background(), 0, "soon")
	require.Error(t, err)
	_, err = f.HandleButton(context.Background(), 0, "-60")
	require.Error(t, err)
}

// reminderRaceStore loses the duplicate-offset insert race to another
// session of the same user.
type reminderRaceStore struct {
	store.Store
}

func (s reminderRaceStore) WithTx(ctx context.Context, fn func(store.Store) error) error {
	return s.Store.WithTx(ctx, func(tx store.Store) error {
		return fn(reminderRaceStore{Store: tx})
	})
}

func (s reminderRaceStore) CreateReminder(ctx context.Context, r *models.Reminder) error {
	return store.ErrConflict
}

func TestReminderDuplicateInsertResolvesQuietly(t *testing.T) {
	fx := newFixture(t)
	ctx := context.Background()
	data := &models.ReminderData{}
	require.NoError(t, fx.st.CreateData(ctx, data))
	f := NewReminder(reminderRaceStore{Store: fx.st}, booking.DefaultSettings(), fx.user, data, fixedNow)

	// The offset already exists by the time the insert lands; the press
	// still reads as a successful toggle.
	res, err := f.HandleButton(ctx, 0, "900")
	require.NoError(t, err)
	require.True(t, res.Accepted)
	assert.Empty(t, res.ErrorText)
}

func TestReminderStringify(t *testing.T) {
	fx := newFixture(t)
	ctx := context.Background()
	f, _ := fx.reminderForm(t)

	mustPress(t, f, 0, "300")
	mustPress(t, f, 0, "3600")

	r, err := f.Render(ctx)
	require.NoError(t, err)
	assert.Contains(t, r.Text, "- 5 мин.")
	assert.Contains(t, r.Text, "- 1 ч.")
}
