// Package store defines the persistence contract of the bot and its
// PostgreSQL implementation. Components never touch a database handle
// directly: they receive a Store, and mutating flows run inside WithTx
// so that validation and commit happen against the same snapshot.
package store

import (
	"context"
	"errors"
	"time"

	"github.com/nike4192/laundry-bot/internal/models"
)

var (
	// ErrNotFound signals a stale reference to a missing row.
	ErrNotFound = errors.New("store: not found")
	// ErrConflict signals a uniqueness violation that raced with
	// validation. Callers report it like a failed validation, not as
	// a system fault.
	ErrConflict = errors.New("store: conflict")
)

// Store is the unit of work handed to the resolver, the forms and the
// sweep. Implementations must return ErrNotFound and ErrConflict as
// documented per method.
type Store interface {
	// WithTx runs fn against a transactional Store. The transaction
	// commits when fn returns nil and rolls back otherwise. Nested
	// calls reuse the outer transaction.
	WithTx(ctx context.Context, fn func(Store) error) error

	// Users.
	UserByID(ctx context.Context, id int64) (*models.User, error)
	UserByChatID(ctx context.Context, chatID int64) (*models.User, error)
	UserByIdentity(ctx context.Context, firstName, lastName string, orderNumber int) (*models.User, error)
	BindChat(ctx context.Context, userID int64, username string, chatID int64) error
	UsersByRole(ctx context.Context, role models.Role) ([]models.User, error)

	// Washers.
	Washers(ctx context.Context) ([]models.Washer, error)
	WasherByID(ctx context.Context, id int64) (*models.Washer, error)

	// Appointments. CreateAppointment returns ErrConflict when the
	// (date, time, washer) slot is already taken.
	AppointmentsOnDate(ctx context.Context, date time.Time) ([]models.Appointment, error)
	AppointmentsByData(ctx context.Context, dataID int64) ([]models.Appointment, error)
	AppointmentsByUser(ctx context.Context, userID int64) ([]models.Appointment, error)
	CreateAppointment(ctx context.Context, a *models.Appointment) error
	DeleteAppointment(ctx context.Context, id int64) error
	ReassignAppointments(ctx context.Context, fromDataID, toDataID int64) error
	WashersByData(ctx context.Context, dataID int64) ([]models.Washer, error)

	// Reminders. CreateReminder returns ErrConflict when the user
	// already holds the offset.
	RemindersByUser(ctx context.Context, userID int64) ([]models.Reminder, error)
	RemindersByData(ctx context.Context, dataID int64) ([]models.Reminder, error)
	CreateReminder(ctx context.Context, r *models.Reminder) error
	DeleteReminder(ctx context.Context, id int64) error
	ReassignReminders(ctx context.Context, fromDataID, toDataID int64) error

	// Wizard sessions.
	CreateData(ctx context.Context, data models.FormData) error
	SaveData(ctx context.Context, data models.FormData) error
	DeleteData(ctx context.Context, data models.FormData) error
	DataByMessage(ctx context.Context, messageID int64) (models.FormData, error)
	LiveAppointmentDatas(ctx context.Context) ([]*models.AppointmentData, error)
	LiveAppointmentDatasByUser(ctx context.Context, userID int64) ([]*models.AppointmentData, error)
	LiveSummaryDatas(ctx context.Context) ([]*models.SummaryData, error)
	// DuplicateDatas finds other live sessions of the same kind whose
	// natural key matches data and whose message belongs to userID.
	DuplicateDatas(ctx context.Context, data models.FormData, userID int64) ([]models.FormData, error)

	// Messages.
	SaveMessage(ctx context.Context, m *models.Message) error
	UserByMessage(ctx context.Context, messageID int64) (*models.User, error)
}
