package booking

import (
	"fmt"
	"time"

	coreconfig "github.com/nike4192/laundry-bot/core/config"
	"github.com/nike4192/laundry-bot/internal/models"
)

// SettingsFromConfig overlays configured policy knobs onto the default
// schedule. Empty lists keep the defaults.
func SettingsFromConfig(cfg coreconfig.LaundryConfig) (Settings, error) {
	s := DefaultSettings()

	if len(cfg.Times) > 0 {
		times := make([]models.TimeOfDay, 0, len(cfg.Times))
		for _, raw := range cfg.Times {
			tod, err := models.ParseTimeOfDay(raw)
			if err != nil {
				return Settings{}, fmt.Errorf("laundry.times: %w", err)
			}
			times = append(times, tod)
		}
		s.Times = times
	}
	if cfg.Days > 0 {
		s.Days = cfg.Days
	}
	if cfg.CutoffMinutes > 0 {
		s.Cutoff = time.Duration(cfg.CutoffMinutes) * time.Minute
	}
	if cfg.MaxBookings > 0 {
		s.MaxBookings = cfg.MaxBookings
	}
	if len(cfg.ReminderOffsetsMinutes) > 0 {
		offsets := make([]time.Duration, 0, len(cfg.ReminderOffsetsMinutes))
		for _, m := range cfg.ReminderOffsetsMinutes {
			if m <= 0 {
				return Settings{}, fmt.Errorf("laundry.reminder_offsets_minutes: %d", m)
			}
			offsets = append(offsets, time.Duration(m)*time.Minute)
		}
		s.ReminderOffsets = offsets
	}
	return s, nil
}
