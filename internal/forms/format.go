package forms

import (
	"fmt"
	"regexp"
	"sort"
	"strings"
	"time"

	"github.com/nike4192/laundry-bot/internal/booking"
	"github.com/nike4192/laundry-bot/internal/models"
)

var weekdayNames = map[time.Weekday]string{
	time.Monday:    "понедельник",
	time.Tuesday:   "вторник",
	time.Wednesday: "среда",
	time.Thursday:  "четверг",
	time.Friday:    "пятница",
	time.Saturday:  "суббота",
	time.Sunday:    "воскресенье",
}

var shortWeekdayNames = map[time.Weekday]string{
	time.Monday:    "Пн",
	time.Tuesday:   "Вт",
	time.Wednesday: "Ср",
	time.Thursday:  "Чт",
	time.Friday:    "Пт",
	time.Saturday:  "Сб",
	time.Sunday:    "Вс",
}

var shiftDayNames = []string{"сегодня", "завтра", "послезавтра"}

// FormatDate renders "02.01.2006 (завтра)" style labels: a relative day
// name when the date is near, the weekday otherwise.
func FormatDate(d, now time.Time) string {
	shift := int(models.DateOnly(d).Sub(models.DateOnly(now)).Hours() / 24)
	suffix := weekdayNames[d.Weekday()]
	if shift >= 0 && shift < len(shiftDayNames) {
		suffix = shiftDayNames[shift]
	}
	return fmt.Sprintf("%02d.%02d.%d (%s)", d.Day(), int(d.Month()), d.Year(), suffix)
}

// FormatDateButton renders the compact "02.01 (Пн)" form used on
// keyboard buttons.
func FormatDateButton(d time.Time) string {
	return fmt.Sprintf("%02d.%02d (%s)", d.Day(), int(d.Month()), shortWeekdayNames[d.Weekday()])
}

// FormatOffset renders a reminder offset as "1 д. 2 ч. 30 мин." pieces,
// dropping zero units.
func FormatOffset(d time.Duration) string {
	var pieces []string
	if days := int(d.Hours()) / 24; days > 0 {
		pieces = append(pieces, fmt.Sprintf("%d д.", days))
		d -= time.Duration(days) * 24 * time.Hour
	}
	if hours := int(d.Hours()); hours > 0 {
		pieces = append(pieces, fmt.Sprintf("%d ч.", hours))
		d -= time.Duration(hours) * time.Hour
	}
	if minutes := int(d.Minutes()); minutes > 0 {
		pieces = append(pieces, fmt.Sprintf("%d мин.", minutes))
		d -= time.Duration(minutes) * time.Minute
	}
	if seconds := int(d.Seconds()); seconds > 0 {
		pieces = append(pieces, fmt.Sprintf("%d сек.", seconds))
	}
	return strings.Join(pieces, " ")
}

// WashersString joins washer names sorted by name.
func WashersString(washers []models.Washer) string {
	names := make([]string, len(washers))
	for i, w := range washers {
		names[i] = w.Name
	}
	sort.Strings(names)
	return strings.Join(names, ", ")
}

// https://core.telegram.org/bots/api#markdownv2-style
var md2Special = regexp.MustCompile("([_*\\[\\]()~`>#+\\-=|{}.!])")

// EscapeMarkdownV2 backslash-escapes MarkdownV2 special characters.
func EscapeMarkdownV2(s string) string {
	return md2Special.ReplaceAllString(s, `\$1`)
}

// signChar annotates a keyboard button with the slot outcome. An empty
// string means no annotation.
func signChar(slot booking.Slot) string {
	switch slot.Reason {
	case booking.ReasonAlreadyBooked:
		if slot.Selectable {
			return "✅"
		}
		return "❌"
	case booking.ReasonNotAvailable:
		return "🔧"
	case booking.ReasonPassed, booking.ReasonReserved:
		return "⌛"
	}
	return ""
}

func signedLabel(slot booking.Slot, label string) string {
	if sign := signChar(slot); sign != "" {
		return sign + " " + label
	}
	return label
}
