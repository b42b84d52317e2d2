// Package models defines the persisted entities of the laundry booking bot.
package models

import (
	"database/sql/driver"
	"fmt"
	"time"
)

// Role determines which weekdays are offerable to a user and whether
// moderator-only commands are allowed.
type Role int

const (
	RoleOrdinary Role = iota
	RoleModerator
	RoleEmployee
)

// String returns the role name used in the database enum column.
func (r Role) String() string {
	switch r {
	case RoleModerator:
		return "moderator"
	case RoleEmployee:
		return "employee"
	default:
		return "ordinary"
	}
}

// Scan implements sql.Scanner for the text role column.
func (r *Role) Scan(src any) error {
	switch v := src.(type) {
	case string:
		*r = ParseRole(v)
	case []byte:
		*r = ParseRole(string(v))
	case nil:
		*r = RoleOrdinary
	default:
		return fmt.Errorf("cannot scan %T into Role", src)
	}
	return nil
}

// Value implements driver.Valuer.
func (r Role) Value() (driver.Value, error) {
	return r.String(), nil
}

// ParseRole maps a stored role name back to a Role. Unknown names fall
// back to the ordinary role.
func ParseRole(s string) Role {
	switch s {
	case "moderator":
		return RoleModerator
	case "employee":
		return RoleEmployee
	default:
		return RoleOrdinary
	}
}

// User is an authorized resident. ChatID is zero until the user passes
// authorization and links their Telegram chat.
type User struct {
	ID          int64  `db:"id"`
	FirstName   string `db:"first_name"`
	LastName    string `db:"last_name"`
	OrderNumber int    `db:"order_number"`
	Username    string `db:"username"`
	ChatID      int64  `db:"chat_id"`
	Role        Role   `db:"role"`
}

// Washer is a bookable machine. An administratively disabled washer
// (Available=false) is never offerable regardless of booking state.
type Washer struct {
	ID        int64  `db:"id"`
	Name      string `db:"name"`
	Available bool   `db:"available"`
}

// Message records the single chat message currently displaying a form.
// ID is the Telegram message id; a FormData holds at most one.
type Message struct {
	ID     int64 `db:"id"`
	UserID int64 `db:"user_id"`
}

// Appointment is a confirmed booking of one washer at one slot. At most
// one appointment exists per (book_date, book_time, washer_id) tuple,
// enforced by a database unique constraint.
type Appointment struct {
	ID         int64      `db:"id"`
	BookDate   time.Time  `db:"book_date"`
	BookTime   TimeOfDay  `db:"book_time"`
	RejectedAt *time.Time `db:"rejected_at"`
	DataID     int64      `db:"data_id"`
	UserID     int64      `db:"user_id"`
	WasherID   int64      `db:"washer_id"`
}

// BookMoment combines the appointment date and time of day.
func (a *Appointment) BookMoment() time.Time {
	return Combine(a.BookDate, a.BookTime)
}

// Passed reports whether the appointment moment is behind now.
func (a *Appointment) Passed(now time.Time) bool {
	return now.After(a.BookMoment())
}

// Reminder is a per-user notification offset. A user holds at most one
// reminder per distinct offset value.
type Reminder struct {
	ID      int64 `db:"id"`
	Seconds int   `db:"seconds"`
	DataID  int64 `db:"data_id"`
	UserID  int64 `db:"user_id"`
}

// Offset returns the reminder offset as a duration.
func (r *Reminder) Offset() time.Duration {
	return time.Duration(r.Seconds) * time.Second
}

// Combine merges a date-only value with a time of day in the date's
// location.
func Combine(d time.Time, t TimeOfDay) time.Time {
	return time.Date(d.Year(), d.Month(), d.Day(), t.Hour, t.Minute, 0, 0, d.Location())
}

// DateOnly strips the clock part, keeping the location.
func DateOnly(t time.Time) time.Time {
	return time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, t.Location())
}

// SameDate reports whether two timestamps fall on the same calendar day.
func SameDate(a, b time.Time) bool {
	ay, am, ad := a.Date()
	by, bm, bd := b.Date()
	return ay == by && am == bm && ad == bd
}
