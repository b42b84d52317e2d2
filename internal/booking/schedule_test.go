package booking

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	coreconfig "github.com/nike4192/laundry-bot/core/config"
	"github.com/nike4192/laundry-bot/internal/models"
)

func datesOnly(dates []time.Time) []string {
	out := make([]string, len(dates))
	for i, d := range dates {
		out[i] = d.Format(time.DateOnly)
	}
	return out
}

func TestAvailableDatesSkipsClosedWeekdays(t *testing.T) {
	s := DefaultSettings()

	// Monday morning: the week's Wednesday and Sunday are closed for
	// ordinary residents.
	got := s.AvailableDates(models.RoleOrdinary, monday9)
	assert.Equal(t, []string{
		"2025-06-02", "2025-06-03", "2025-06-05", "2025-06-06", "2025-06-07",
	}, datesOnly(got))

	// Moderators may book Wednesdays.
	got = s.AvailableDates(models.RoleModerator, monday9)
	assert.Equal(t, []string{
		"2025-06-02", "2025-06-03", "2025-06-04", "2025-06-05", "2025-06-06",
	}, datesOnly(got))
}

func TestAvailableDatesRollsOverAfterLastSlot(t *testing.T) {
	s := DefaultSettings()

	// 21:00 Monday: the 20:00 slot is behind, today drops off.
	evening := time.Date(2025, 6, 2, 21, 0, 0, 0, time.UTC)
	got := s.AvailableDates(models.RoleOrdinary, evening)
	assert.Equal(t, []string{
		"2025-06-03", "2025-06-05", "2025-06-06", "2025-06-07", "2025-06-09",
	}, datesOnly(got))

	// Exactly at the last slot today still counts.
	atLast := time.Date(2025, 6, 2, 20, 0, 0, 0, time.UTC)
	got = s.AvailableDates(models.RoleOrdinary, atLast)
	assert.Equal(t, "2025-06-02", got[0].Format(time.DateOnly))
}

func TestLastTime(t *testing.T) {
	assert.Equal(t, models.TimeOfDay{Hour: 20}, DefaultSettings().LastTime())
}

func TestSettingsFromConfigOverlays(t *testing.T) {
	s, err := SettingsFromConfig(coreconfig.LaundryConfig{
		Times:                  []string{"08:00", "12:30"},
		Days:                   3,
		CutoffMinutes:          15,
		MaxBookings:            1,
		ReminderOffsetsMinutes: []int{10, 60},
	})
	require.NoError(t, err)
	assert.Equal(t, []models.TimeOfDay{{Hour: 8}, {Hour: 12, Minute: 30}}, s.Times)
	assert.Equal(t, 3, s.Days)
	assert.Equal(t, 15*time.Minute, s.Cutoff)
	assert.Equal(t, 1, s.MaxBookings)
	assert.Equal(t, []time.Duration{10 * time.Minute, time.Hour}, s.ReminderOffsets)
}

func TestSettingsFromConfigDefaults(t *testing.T) {
	s, err := SettingsFromConfig(coreconfig.LaundryConfig{})
	require.NoError(t, err)
	assert.Equal(t, DefaultSettings().Times, s.Times)
	assert.Equal(t, DefaultSettings().Cutoff, s.Cutoff)
}

func TestSettingsFromConfigRejectsBadValues(t *testing.T) {
	_, err := SettingsFromConfig(coreconfig.LaundryConfig{Times: []string{"25:00"}})
	require.Error(t, err)

	_, err = SettingsFromConfig(coreconfig.LaundryConfig{ReminderOffsetsMinutes: []int{-5}})
	require.Error(t, err)
}
