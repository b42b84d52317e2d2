package store

import (
	"context"
	"errors"
	"fmt"

	"github.com/jmoiron/sqlx"

	"github.com/nike4192/laundry-bot/internal/models"
)

func (s *Postgres) CreateData(ctx context.Context, data models.FormData) error {
	switch d := data.(type) {
	case *models.AppointmentData:
		err := sqlx.GetContext(ctx, s.ext, &d.ID,
			`INSERT INTO appointment_data (state, message_id, book_date, book_time, reserved, passed)
			 VALUES ($1, $2, $3, $4, $5, $6) RETURNING id`,
			d.State, d.MsgID, d.BookDate, d.BookTime, d.Reserved, d.Passed)
		return wrapErr(err)
	case *models.ReminderData:
		err := sqlx.GetContext(ctx, s.ext, &d.ID,
			`INSERT INTO reminder_data (state, message_id) VALUES ($1, $2) RETURNING id`,
			d.State, d.MsgID)
		return wrapErr(err)
	case *models.SummaryData:
		err := sqlx.GetContext(ctx, s.ext, &d.ID,
			`INSERT INTO summary_data (state, message_id, summary_date)
			 VALUES ($1, $2, $3) RETURNING id`,
			d.State, d.MsgID, d.SummaryDate)
		return wrapErr(err)
	}
	return fmt.Errorf("create data: unsupported kind %T", data)
}

func (s *Postgres) SaveData(ctx context.Context, data models.FormData) error {
	switch d := data.(type) {
	case *models.AppointmentData:
		_, err := s.ext.ExecContext(ctx,
			`UPDATE appointment_data
			 SET state = $1, message_id = $2, book_date = $3, book_time = $4, reserved = $5, passed = $6
			 WHERE id = $7`,
			d.State, d.MsgID, d.BookDate, d.BookTime, d.Reserved, d.Passed, d.ID)
		return wrapErr(err)
	case *models.ReminderData:
		_, err := s.ext.ExecContext(ctx,
			`UPDATE reminder_data SET state = $1, message_id = $2 WHERE id = $3`,
			d.State, d.MsgID, d.ID)
		return wrapErr(err)
	case *models.SummaryData:
		_, err := s.ext.ExecContext(ctx,
			`UPDATE summary_data SET state = $1, message_id = $2, summary_date = $3 WHERE id = $4`,
			d.State, d.MsgID, d.SummaryDate, d.ID)
		return wrapErr(err)
	}
	return fmt.Errorf("save data: unsupported kind %T", data)
}

func (s *Postgres) DeleteData(ctx context.Context, data models.FormData) error {
	table, ok := dataTables[data.Kind()]
	if !ok {
		return fmt.Errorf("delete data: unsupported kind %q", data.Kind())
	}
	_, err := s.ext.ExecContext(ctx, `DELETE FROM `+table+` WHERE id = $1`, data.DataID())
	return wrapErr(err)
}

var dataTables = map[models.DataKind]string{
	models.KindAppointment: "appointment_data",
	models.KindReminder:    "reminder_data",
	models.KindSummary:     "summary_data",
}

// DataByMessage resolves the session currently displayed by a chat
// message, probing the three session tables in turn.
func (s *Postgres) DataByMessage(ctx context.Context, messageID int64) (models.FormData, error) {
	var ad models.AppointmentData
	err := sqlx.GetContext(ctx, s.ext, &ad,
		`SELECT * FROM appointment_data WHERE message_id = $1`, messageID)
	if err == nil {
		return &ad, nil
	}
	if wrapped := wrapErr(err); !errors.Is(wrapped, ErrNotFound) {
		return nil, wrapped
	}

	var rd models.ReminderData
	err = sqlx.GetContext(ctx, s.ext, &rd,
		`SELECT * FROM reminder_data WHERE message_id = $1`, messageID)
	if err == nil {
		return &rd, nil
	}
	if wrapped := wrapErr(err); !errors.Is(wrapped, ErrNotFound) {
		return nil, wrapped
	}

	var sd models.SummaryData
	err = sqlx.GetContext(ctx, s.ext, &sd,
		`SELECT * FROM summary_data WHERE message_id = $1`, messageID)
	if err == nil {
		return &sd, nil
	}
	return nil, wrapErr(err)
}

func (s *Postgres) LiveAppointmentDatas(ctx context.Context) ([]*models.AppointmentData, error) {
	var list []*models.AppointmentData
	if err := sqlx.SelectContext(ctx, s.ext, &list,
		`SELECT * FROM appointment_data WHERE message_id IS NOT NULL ORDER BY id`); err != nil {
		return nil, wrapErr(err)
	}
	return list, nil
}

func (s *Postgres) LiveAppointmentDatasByUser(ctx context.Context, userID int64) ([]*models.AppointmentData, error) {
	var list []*models.AppointmentData
	if err := sqlx.SelectContext(ctx, s.ext, &list,
		`SELECT d.* FROM appointment_data d
		 JOIN messages m ON m.id = d.message_id
		 WHERE m.user_id = $1 ORDER BY d.book_date, d.book_time`, userID); err != nil {
		return nil, wrapErr(err)
	}
	return list, nil
}

func (s *Postgres) LiveSummaryDatas(ctx context.Context) ([]*models.SummaryData, error) {
	var list []*models.SummaryData
	if err := sqlx.SelectContext(ctx, s.ext, &list,
		`SELECT * FROM summary_data WHERE message_id IS NOT NULL ORDER BY id`); err != nil {
		return nil, wrapErr(err)
	}
	return list, nil
}

// DuplicateDatas finds other live sessions that denote the same logical
// context as data and are displayed to the same user: matching natural
// key, a message owned by userID, and a different id.
func (s *Postgres) DuplicateDatas(ctx context.Context, data models.FormData, userID int64) ([]models.FormData, error) {
	switch d := data.(type) {
	case *models.AppointmentData:
		var list []*models.AppointmentData
		if err := sqlx.SelectContext(ctx, s.ext, &list,
			`SELECT d.* FROM appointment_data d
			 JOIN messages m ON m.id = d.message_id
			 WHERE d.book_date IS NOT DISTINCT FROM $1
			   AND d.book_time IS NOT DISTINCT FROM $2
			   AND d.state = $3 AND m.user_id = $4 AND d.id <> $5`,
			d.BookDate, d.BookTime, d.State, userID, d.ID); err != nil {
			return nil, wrapErr(err)
		}
		out := make([]models.FormData, len(list))
		for i, item := range list {
			out[i] = item
		}
		return out, nil
	case *models.ReminderData:
		var list []*models.ReminderData
		if err := sqlx.SelectContext(ctx, s.ext, &list,
			`SELECT d.* FROM reminder_data d
			 JOIN messages m ON m.id = d.message_id
			 WHERE d.state = $1 AND m.user_id = $2 AND d.id <> $3`,
			d.State, userID, d.ID); err != nil {
			return nil, wrapErr(err)
		}
		out := make([]models.FormData, len(list))
		for i, item := range list {
			out[i] = item
		}
		return out, nil
	case *models.SummaryData:
		var list []*models.SummaryData
		if err := sqlx.SelectContext(ctx, s.ext, &list,
			`SELECT d.* FROM summary_data d
			 JOIN messages m ON m.id = d.message_id
			 WHERE d.summary_date IS NOT DISTINCT FROM $1
			   AND m.user_id = $2 AND d.id <> $3`,
			d.SummaryDate, userID, d.ID); err != nil {
			return nil, wrapErr(err)
		}
		out := make([]models.FormData, len(list))
		for i, item := range list {
			out[i] = item
		}
		return out, nil
	}
	return nil, fmt.Errorf("duplicate datas: unsupported kind %T", data)
}
