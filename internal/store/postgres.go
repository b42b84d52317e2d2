package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/jmoiron/sqlx"
	"github.com/lib/pq"

	"github.com/nike4192/laundry-bot/internal/models"
)

const pgUniqueViolation = "23505"

// Postgres implements Store on top of sqlx.
type Postgres struct {
	db  *sqlx.DB
	ext sqlx.ExtContext
}

// NewPostgres wraps a connected sqlx handle.
func NewPostgres(db *sqlx.DB) *Postgres {
	return &Postgres{db: db, ext: db}
}

// WithTx opens a transaction and runs fn against a transactional copy.
// A Postgres that is already transactional reuses its transaction.
func (s *Postgres) WithTx(ctx context.Context, fn func(Store) error) error {
	if _, ok := s.ext.(*sqlx.Tx); ok {
		return fn(s)
	}
	tx, err := s.db.BeginTxx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin tx: %w", err)
	}
	if err := fn(&Postgres{db: s.db, ext: tx}); err != nil {
		_ = tx.Rollback()
		return err
	}
	if err := tx.Commit(); err != nil {
		return fmt.Errorf("commit tx: %w", err)
	}
	return nil
}

func wrapErr(err error) error {
	if errors.Is(err, sql.ErrNoRows) {
		return ErrNotFound
	}
	var pqErr *pq.Error
	if errors.As(err, &pqErr) && pqErr.Code == pgUniqueViolation {
		return ErrConflict
	}
	return err
}

func (s *Postgres) getUser(ctx context.Context, query string, args ...any) (*models.User, error) {
	var u models.User
	if err := sqlx.GetContext(ctx, s.ext, &u, query, args...); err != nil {
		return nil, wrapErr(err)
	}
	return &u, nil
}

func (s *Postgres) UserByID(ctx context.Context, id int64) (*models.User, error) {
	return s.getUser(ctx, `SELECT * FROM users WHERE id = $1`, id)
}

func (s *Postgres) UserByChatID(ctx context.Context, chatID int64) (*models.User, error) {
	return s.getUser(ctx, `SELECT * FROM users WHERE chat_id = $1`, chatID)
}

func (s *Postgres) UserByIdentity(ctx context.Context, firstName, lastName string, orderNumber int) (*models.User, error) {
	return s.getUser(ctx,
		`SELECT * FROM users WHERE first_name = $1 AND last_name = $2 AND order_number = $3`,
		firstName, lastName, orderNumber)
}

func (s *Postgres) BindChat(ctx context.Context, userID int64, username string, chatID int64) error {
	_, err := s.ext.ExecContext(ctx,
		`UPDATE users SET username = $1, chat_id = $2 WHERE id = $3`,
		username, chatID, userID)
	return wrapErr(err)
}

func (s *Postgres) UsersByRole(ctx context.Context, role models.Role) ([]models.User, error) {
	var users []models.User
	if err := sqlx.SelectContext(ctx, s.ext, &users,
		`SELECT * FROM users WHERE role = $1 ORDER BY id`, role); err != nil {
		return nil, wrapErr(err)
	}
	return users, nil
}

func (s *Postgres) Washers(ctx context.Context) ([]models.Washer, error) {
	var washers []models.Washer
	if err := sqlx.SelectContext(ctx, s.ext, &washers,
		`SELECT * FROM washers ORDER BY name`); err != nil {
		return nil, wrapErr(err)
	}
	return washers, nil
}

func (s *Postgres) WasherByID(ctx context.Context, id int64) (*models.Washer, error) {
	var w models.Washer
	if err := sqlx.GetContext(ctx, s.ext, &w,
		`SELECT * FROM washers WHERE id = $1`, id); err != nil {
		return nil, wrapErr(err)
	}
	return &w, nil
}

func (s *Postgres) AppointmentsOnDate(ctx context.Context, date time.Time) ([]models.Appointment, error) {
	var list []models.Appointment
	if err := sqlx.SelectContext(ctx, s.ext, &list,
		`SELECT * FROM appointments WHERE book_date = $1 ORDER BY book_time, washer_id`,
		models.DateOnly(date)); err != nil {
		return nil, wrapErr(err)
	}
	return list, nil
}

func (s *Postgres) AppointmentsByData(ctx context.Context, dataID int64) ([]models.Appointment, error) {
	var list []models.Appointment
	if err := sqlx.SelectContext(ctx, s.ext, &list,
		`SELECT * FROM appointments WHERE data_id = $1 ORDER BY id`, dataID); err != nil {
		return nil, wrapErr(err)
	}
	return list, nil
}

func (s *Postgres) AppointmentsByUser(ctx context.Context, userID int64) ([]models.Appointment, error) {
	var list []models.Appointment
	if err := sqlx.SelectContext(ctx, s.ext, &list,
		`SELECT * FROM appointments WHERE user_id = $1 ORDER BY book_date, book_time`, userID); err != nil {
		return nil, wrapErr(err)
	}
	return list, nil
}

func (s *Postgres) CreateAppointment(ctx context.Context, a *models.Appointment) error {
	err := sqlx.GetContext(ctx, s.ext, &a.ID,
		`INSERT INTO appointments (book_date, book_time, data_id, user_id, washer_id)
		 VALUES ($1, $2, $3, $4, $5) RETURNING id`,
		models.DateOnly(a.BookDate), a.BookTime, a.DataID, a.UserID, a.WasherID)
	return wrapErr(err)
}

func (s *Postgres) DeleteAppointment(ctx context.Context, id int64) error {
	_, err := s.ext.ExecContext(ctx, `DELETE FROM appointments WHERE id = $1`, id)
	return wrapErr(err)
}

func (s *Postgres) ReassignAppointments(ctx context.Context, fromDataID, toDataID int64) error {
	_, err := s.ext.ExecContext(ctx,
		`UPDATE appointments SET data_id = $1 WHERE data_id = $2`, toDataID, fromDataID)
	return wrapErr(err)
}

func (s *Postgres) WashersByData(ctx context.Context, dataID int64) ([]models.Washer, error) {
	var washers []models.Washer
	if err := sqlx.SelectContext(ctx, s.ext, &washers,
		`SELECT w.* FROM washers w
		 JOIN appointments a ON a.washer_id = w.id
		 WHERE a.data_id = $1 ORDER BY w.name`, dataID); err != nil {
		return nil, wrapErr(err)
	}
	return washers, nil
}

func (s *Postgres) RemindersByUser(ctx context.Context, userID int64) ([]models.Reminder, error) {
	var list []models.Reminder
	if err := sqlx.SelectContext(ctx, s.ext, &list,
		`SELECT * FROM reminders WHERE user_id = $1 ORDER BY seconds`, userID); err != nil {
		return nil, wrapErr(err)
	}
	return list, nil
}

func (s *Postgres) RemindersByData(ctx context.Context, dataID int64) ([]models.Reminder, error) {
	var list []models.Reminder
	if err := sqlx.SelectContext(ctx, s.ext, &list,
		`SELECT * FROM reminders WHERE data_id = $1 ORDER BY seconds`, dataID); err != nil {
		return nil, wrapErr(err)
	}
	return list, nil
}

func (s *Postgres) CreateReminder(ctx context.Context, r *models.Reminder) error {
	err := sqlx.GetContext(ctx, s.ext, &r.ID,
		`INSERT INTO reminders (seconds, data_id, user_id)
		 VALUES ($1, $2, $3) RETURNING id`,
		r.Seconds, r.DataID, r.UserID)
	return wrapErr(err)
}

func (s *Postgres) DeleteReminder(ctx context.Context, id int64) error {
	_, err := s.ext.ExecContext(ctx, `DELETE FROM reminders WHERE id = $1`, id)
	return wrapErr(err)
}

func (s *Postgres) ReassignReminders(ctx context.Context, fromDataID, toDataID int64) error {
	_, err := s.ext.ExecContext(ctx,
		`UPDATE reminders SET data_id = $1 WHERE data_id = $2`, toDataID, fromDataID)
	return wrapErr(err)
}

func (s *Postgres) SaveMessage(ctx context.Context, m *models.Message) error {
	_, err := s.ext.ExecContext(ctx,
		`INSERT INTO messages (id, user_id) VALUES ($1, $2)
		 ON CONFLICT (id) DO UPDATE SET user_id = EXCLUDED.user_id`,
		m.ID, m.UserID)
	return wrapErr(err)
}

func (s *Postgres) UserByMessage(ctx context.Context, messageID int64) (*models.User, error) {
	return s.getUser(ctx,
		`SELECT u.* FROM users u JOIN messages m ON m.user_id = u.id WHERE m.id = $1`,
		messageID)
}
