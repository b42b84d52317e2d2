package booking

import (
	"time"

	"github.com/nike4192/laundry-bot/internal/models"
)

// Settings holds the booking policy knobs. Defaults mirror the house
// rules; everything is overridable through configuration.
type Settings struct {
	// Times are the fixed daily slots, sorted ascending.
	Times []models.TimeOfDay
	// Days is how many offerable dates a date step shows.
	Days int
	// Cutoff is the reservation window before a booking moment during
	// which it can no longer be modified.
	Cutoff time.Duration
	// MaxBookings caps a user's concurrent non-passed appointments.
	MaxBookings int
	// Weekdays lists the offerable weekdays per role.
	Weekdays map[models.Role][]time.Weekday
	// ReminderOffsets are the offsets a user can pick on the reminder
	// form, sorted ascending.
	ReminderOffsets []time.Duration
}

// DefaultSettings returns the standing laundry schedule: four slots a
// day, five offerable days, half-hour cutoff, two concurrent bookings,
// Wednesdays and Sundays closed for ordinary users, Sundays for staff.
func DefaultSettings() Settings {
	return Settings{
		Times: []models.TimeOfDay{
			{Hour: 10}, {Hour: 14}, {Hour: 18}, {Hour: 20},
		},
		Days:        5,
		Cutoff:      30 * time.Minute,
		MaxBookings: 2,
		Weekdays: map[models.Role][]time.Weekday{
			models.RoleOrdinary: {
				time.Monday, time.Tuesday, time.Thursday, time.Friday, time.Saturday,
			},
			models.RoleModerator: {
				time.Monday, time.Tuesday, time.Wednesday, time.Thursday, time.Friday, time.Saturday,
			},
			models.RoleEmployee: {
				time.Monday, time.Tuesday, time.Wednesday, time.Thursday, time.Friday, time.Saturday,
			},
		},
		ReminderOffsets: []time.Duration{
			5 * time.Minute,
			15 * time.Minute,
			time.Hour,
			3 * time.Hour,
			24 * time.Hour,
		},
	}
}

// LastTime returns the latest daily slot.
func (s Settings) LastTime() models.TimeOfDay {
	var last models.TimeOfDay
	for _, t := range s.Times {
		if last.Before(t) {
			last = t
		}
	}
	return last
}

func (s Settings) weekdayAllowed(role models.Role, d time.Weekday) bool {
	days, ok := s.Weekdays[role]
	if !ok {
		days = s.Weekdays[models.RoleOrdinary]
	}
	for _, wd := range days {
		if wd == d {
			return true
		}
	}
	return false
}

// AvailableDates lists the dates a date step offers to a user: the next
// Days offerable weekdays for the role, starting today — or tomorrow
// when today's last slot is already behind now.
func (s Settings) AvailableDates(role models.Role, now time.Time) []time.Time {
	d := models.DateOnly(now)
	if models.FromClock(now).Minutes() > s.LastTime().Minutes() {
		d = d.AddDate(0, 0, 1)
	}
	dates := make([]time.Time, 0, s.Days)
	for len(dates) < s.Days {
		for !s.weekdayAllowed(role, d.Weekday()) {
			d = d.AddDate(0, 0, 1)
		}
		dates = append(dates, d)
		d = d.AddDate(0, 0, 1)
	}
	return dates
}
