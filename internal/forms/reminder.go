package forms

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/nike4192/laundry-bot/internal/booking"
	"github.com/nike4192/laundry-bot/internal/models"
	"github.com/nike4192/laundry-bot/internal/store"
)

// NewReminder assembles the single-step reminder preferences form.
func NewReminder(st store.Store, settings booking.Settings, user *models.User, data *models.ReminderData, now func() time.Time) *Form {
	return New(Config{
		Store:    st,
		Settings: settings,
		User:     user,
		Data:     data,
		Now:      now,
		Actions:  []Action{reminderAction{}},
		Titles: Titles{
			Finished: "Уведомления настроены",
		},
		Finished: func(ctx context.Context, f *Form) (bool, error) {
			reminders, err := f.Store().RemindersByUser(ctx, f.User().ID)
			if err != nil {
				return false, err
			}
			return len(reminders) > 0, nil
		},
	})
}

type reminderAction struct{}

func (reminderAction) ItemLabel() string   { return "Уведомления" }
func (reminderAction) ActionLabel() string { return "Выберите за сколько вас предупредить" }
func (reminderAction) Columns() int        { return 0 }

// Options lists every configured offset; offsets the user already holds
// are ticked. Every option stays selectable — pressing toggles.
func (a reminderAction) Options(ctx context.Context, f *Form) ([]Option, error) {
	existing, err := f.Store().RemindersByUser(ctx, f.User().ID)
	if err != nil {
		return nil, err
	}
	held := make(map[int]bool, len(existing))
	for _, r := range existing {
		held[r.Seconds] = true
	}

	offsets := f.Settings().ReminderOffsets
	options := make([]Option, 0, len(offsets))
	for _, offset := range offsets {
		seconds := int(offset.Seconds())
		label := FormatOffset(offset)
		if held[seconds] {
			label = "✅ " + label
		}
		options = append(options, Option{
			Label: label,
			Value: strconv.Itoa(seconds),
		})
	}
	return options, nil
}

func (reminderAction) Stringify(ctx context.Context, f *Form) (string, error) {
	reminders, err := f.Store().RemindersByUser(ctx, f.User().ID)
	if err != nil {
		return "", err
	}
	if len(reminders) == 0 {
		return "...", nil
	}
	lines := make([]string, len(reminders))
	for i, r := range reminders {
		lines[i] = "- " + FormatOffset(r.Offset())
	}
	return "\n" + strings.Join(lines, "\n"), nil
}

// Apply toggles the pressed offset: held offsets are released, free
// ones are stored. A duplicate insert raced by another session of the
// same user resolves through the uniqueness constraint.
func (reminderAction) Apply(ctx context.Context, f *Form, value string) (bool, string, error) {
	seconds, err := strconv.Atoi(value)
	if err != nil || seconds <= 0 {
		return false, "", fmt.Errorf("reminder: bad offset %q", value)
	}

	existing, err := f.Store().RemindersByUser(ctx, f.User().ID)
	if err != nil {
		return false, "", err
	}
	for _, r := range existing {
		if r.Seconds == seconds {
			if err := f.Store().DeleteReminder(ctx, r.ID); err != nil {
				return false, "", err
			}
			return true, "", nil
		}
	}

	reminder := &models.Reminder{
		Seconds: seconds,
		DataID:  f.Data().DataID(),
		UserID:  f.User().ID,
	}
	if err := f.Store().CreateReminder(ctx, reminder); err != nil {
		if errors.Is(err, store.ErrConflict) {
			return true, "", nil
		}
		return false, "", err
	}
	return true, "", nil
}
