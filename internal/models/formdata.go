package models

import "time"

// DataKind discriminates the three persisted wizard session variants.
type DataKind string

const (
	KindAppointment DataKind = "appointment"
	KindReminder    DataKind = "reminder"
	KindSummary     DataKind = "summary"
)

// FormData is the persisted state of one multi-step wizard session.
// State is the 0-based index of the current step and never exceeds the
// action count of the owning form minus one. MessageID references the
// single chat message currently displaying the session, if any.
type FormData interface {
	DataID() int64
	Kind() DataKind
	Step() int
	SetStep(step int)
	MessageID() *int64
	SetMessageID(id *int64)
}

// BaseData carries the fields shared by every wizard session.
type BaseData struct {
	ID    int64  `db:"id"`
	State int    `db:"state"`
	MsgID *int64 `db:"message_id"`
}

func (d *BaseData) DataID() int64         { return d.ID }
func (d *BaseData) Step() int             { return d.State }
func (d *BaseData) SetStep(step int)      { d.State = step }
func (d *BaseData) MessageID() *int64     { return d.MsgID }
func (d *BaseData) SetMessageID(id *int64) { d.MsgID = id }

// Live reports whether the session currently owns a displayed message.
func (d *BaseData) Live() bool { return d.MsgID != nil }

// AppointmentData is a booking wizard session: date, time, then washers.
// Reserved and Passed are the sweep-driven time flags; once Passed is
// set no later sweep clears it or sets Reserved.
type AppointmentData struct {
	BaseData
	BookDate *time.Time `db:"book_date"`
	BookTime *TimeOfDay `db:"book_time"`
	Reserved bool       `db:"reserved"`
	Passed   bool       `db:"passed"`
}

func (d *AppointmentData) Kind() DataKind { return KindAppointment }

// BookMoment combines the chosen date and time. The second return is
// false until both steps are completed.
func (d *AppointmentData) BookMoment() (time.Time, bool) {
	if d.BookDate == nil || d.BookTime == nil {
		return time.Time{}, false
	}
	return Combine(*d.BookDate, *d.BookTime), true
}

// Expired reports whether the booking moment is behind now.
func (d *AppointmentData) Expired(now time.Time) bool {
	moment, ok := d.BookMoment()
	return ok && now.After(moment)
}

// ReminderData is a reminder preferences session.
type ReminderData struct {
	BaseData
}

func (d *ReminderData) Kind() DataKind { return KindReminder }

// SummaryData is a moderator summary session for a single date.
type SummaryData struct {
	BaseData
	SummaryDate *time.Time `db:"summary_date"`
}

func (d *SummaryData) Kind() DataKind { return KindSummary }
