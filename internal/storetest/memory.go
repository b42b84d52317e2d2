// Package storetest provides an in-memory Store for exercising the
// resolver, forms and sweep without a database.
package storetest

import (
	"context"
	"sort"
	"sync"
	"time"

	"github.com/nike4192/laundry-bot/internal/models"
	"github.com/nike4192/laundry-bot/internal/store"
)

// Memory implements store.Store over plain maps. It is not a faithful
// transaction engine: WithTx runs fn against the same state and only
// propagates the error, which is enough for the flows under test.
type Memory struct {
	mu sync.Mutex

	nextID int64

	UsersByID    map[int64]*models.User
	WashersByID  map[int64]*models.Washer
	Appointments map[int64]*models.Appointment
	Reminders    map[int64]*models.Reminder
	Messages     map[int64]*models.Message
	Datas        map[int64]models.FormData
}

// NewMemory builds an empty in-memory store.
func NewMemory() *Memory {
	return &Memory{
		UsersByID:    make(map[int64]*models.User),
		WashersByID:  make(map[int64]*models.Washer),
		Appointments: make(map[int64]*models.Appointment),
		Reminders:    make(map[int64]*models.Reminder),
		Messages:     make(map[int64]*models.Message),
		Datas:        make(map[int64]models.FormData),
	}
}

func (m *Memory) id() int64 {
	m.nextID++
	return m.nextID
}

// AddUser registers a user, assigning an id when missing.
func (m *Memory) AddUser(u *models.User) *models.User {
	m.mu.Lock()
	defer m.mu.Unlock()
	if u.ID == 0 {
		u.ID = m.id()
	}
	m.UsersByID[u.ID] = u
	return u
}

// AddWasher registers a washer, assigning an id when missing.
func (m *Memory) AddWasher(w *models.Washer) *models.Washer {
	m.mu.Lock()
	defer m.mu.Unlock()
	if w.ID == 0 {
		w.ID = m.id()
	}
	m.WashersByID[w.ID] = w
	return w
}

func (m *Memory) WithTx(ctx context.Context, fn func(store.Store) error) error {
	return fn(m)
}

func (m *Memory) UserByID(ctx context.Context, id int64) (*models.User, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if u, ok := m.UsersByID[id]; ok {
		return u, nil
	}
	return nil, store.ErrNotFound
}

func (m *Memory) UserByChatID(ctx context.Context, chatID int64) (*models.User, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, u := range m.UsersByID {
		if u.ChatID == chatID && chatID != 0 {
			return u, nil
		}
	}
	return nil, store.ErrNotFound
}

func (m *Memory) UserByIdentity(ctx context.Context, firstName, lastName string, orderNumber int) (*models.User, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, u := range m.UsersByID {
		if u.FirstName == firstName && u.LastName == lastName && u.OrderNumber == orderNumber {
			return u, nil
		}
	}
	return nil, store.ErrNotFound
}

func (m *Memory) BindChat(ctx context.Context, userID int64, username string, chatID int64) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	u, ok := m.UsersByID[userID]
	if !ok {
		return store.ErrNotFound
	}
	u.Username = username
	u.ChatID = chatID
	return nil
}

func (m *Memory) UsersByRole(ctx context.Context, role models.Role) ([]models.User, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var out []models.User
	for _, u := range m.UsersByID {
		if u.Role == role {
			out = append(out, *u)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out, nil
}

func (m *Memory) Washers(ctx context.Context) ([]models.Washer, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var out []models.Washer
	for _, w := range m.WashersByID {
		out = append(out, *w)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Name < out[j].Name })
	return out, nil
}

func (m *Memory) WasherByID(ctx context.Context, id int64) (*models.Washer, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if w, ok := m.WashersByID[id]; ok {
		return w, nil
	}
	return nil, store.ErrNotFound
}

func (m *Memory) AppointmentsOnDate(ctx context.Context, date time.Time) ([]models.Appointment, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var out []models.Appointment
	for _, a := range m.Appointments {
		if models.SameDate(a.BookDate, date) {
			out = append(out, *a)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out, nil
}

func (m *Memory) AppointmentsByData(ctx context.Context, dataID int64) ([]models.Appointment, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var out []models.Appointment
	for _, a := range m.Appointments {
		if a.DataID == dataID {
			out = append(out, *a)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out, nil
}

func (m *Memory) AppointmentsByUser(ctx context.Context, userID int64) ([]models.Appointment, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var out []models.Appointment
	for _, a := range m.Appointments {
		if a.UserID == userID {
			out = append(out, *a)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out, nil
}

func (m *Memory) CreateAppointment(ctx context.Context, a *models.Appointment) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, existing := range m.Appointments {
		if models.SameDate(existing.BookDate, a.BookDate) &&
			existing.BookTime == a.BookTime &&
			existing.WasherID == a.WasherID {
			return store.ErrConflict
		}
	}
	a.ID = m.id()
	cp := *a
	m.Appointments[a.ID] = &cp
	return nil
}

func (m *Memory) DeleteAppointment(ctx context.Context, id int64) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	delete(m.Appointments, id)
	return nil
}

func (m *Memory) ReassignAppointments(ctx context.Context, fromDataID, toDataID int64) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, a := range m.Appointments {
		if a.DataID == fromDataID {
			a.DataID = toDataID
		}
	}
	return nil
}

func (m *Memory) WashersByData(ctx context.Context, dataID int64) ([]models.Washer, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var out []models.Washer
	for _, a := range m.Appointments {
		if a.DataID == dataID {
			if w, ok := m.WashersByID[a.WasherID]; ok {
				out = append(out, *w)
			}
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Name < out[j].Name })
	return out, nil
}

func (m *Memory) RemindersByUser(ctx context.Context, userID int64) ([]models.Reminder, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var out []models.Reminder
	for _, r := range m.Reminders {
		if r.UserID == userID {
			out = append(out, *r)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Seconds < out[j].Seconds })
	return out, nil
}

func (m *Memory) RemindersByData(ctx context.Context, dataID int64) ([]models.Reminder, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var out []models.Reminder
	for _, r := range m.Reminders {
		if r.DataID == dataID {
			out = append(out, *r)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Seconds < out[j].Seconds })
	return out, nil
}

func (m *Memory) CreateReminder(ctx context.Context, r *models.Reminder) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, existing := range m.Reminders {
		if existing.UserID == r.UserID && existing.Seconds == r.Seconds {
			return store.ErrConflict
		}
	}
	r.ID = m.id()
	cp := *r
	m.Reminders[r.ID] = &cp
	return nil
}

func (m *Memory) DeleteReminder(ctx context.Context, id int64) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	delete(m.Reminders, id)
	return nil
}

func (m *Memory) ReassignReminders(ctx context.Context, fromDataID, toDataID int64) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, r := range m.Reminders {
		if r.DataID == fromDataID {
			r.DataID = toDataID
		}
	}
	return nil
}

func (m *Memory) CreateData(ctx context.Context, data models.FormData) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	id := m.id()
	switch d := data.(type) {
	case *models.AppointmentData:
		d.ID = id
	case *models.ReminderData:
		d.ID = id
	case *models.SummaryData:
		d.ID = id
	default:
		return store.ErrNotFound
	}
	m.Datas[id] = data
	return nil
}

func (m *Memory) SaveData(ctx context.Context, data models.FormData) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, ok := m.Datas[data.DataID()]; !ok {
		return store.ErrNotFound
	}
	m.Datas[data.DataID()] = data
	return nil
}

func (m *Memory) DeleteData(ctx context.Context, data models.FormData) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	delete(m.Datas, data.DataID())
	return nil
}

func (m *Memory) DataByMessage(ctx context.Context, messageID int64) (models.FormData, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, d := range m.Datas {
		if id := d.MessageID(); id != nil && *id == messageID {
			return d, nil
		}
	}
	return nil, store.ErrNotFound
}

func (m *Memory) LiveAppointmentDatas(ctx context.Context) ([]*models.AppointmentData, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var out []*models.AppointmentData
	for _, d := range m.Datas {
		if ad, ok := d.(*models.AppointmentData); ok && ad.Live() {
			out = append(out, ad)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out, nil
}

func (m *Memory) LiveAppointmentDatasByUser(ctx context.Context, userID int64) ([]*models.AppointmentData, error) {
	all, err := m.LiveAppointmentDatas(ctx)
	if err != nil {
		return nil, err
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	var out []*models.AppointmentData
	for _, d := range all {
		msg, ok := m.Messages[*d.MsgID]
		if ok && msg.UserID == userID {
			out = append(out, d)
		}
	}
	return out, nil
}

func (m *Memory) LiveSummaryDatas(ctx context.Context) ([]*models.SummaryData, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var out []*models.SummaryData
	for _, d := range m.Datas {
		if sd, ok := d.(*models.SummaryData); ok && sd.Live() {
			out = append(out, sd)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out, nil
}

func (m *Memory) DuplicateDatas(ctx context.Context, data models.FormData, userID int64) ([]models.FormData, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var out []models.FormData
	for _, d := range m.Datas {
		if d.DataID() == data.DataID() || d.Kind() != data.Kind() {
			continue
		}
		msgID := d.MessageID()
		if msgID == nil {
			continue
		}
		msg, ok := m.Messages[*msgID]
		if !ok || msg.UserID != userID {
			continue
		}
		if sameNaturalKey(data, d) {
			out = append(out, d)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].DataID() < out[j].DataID() })
	return out, nil
}

func sameNaturalKey(a, b models.FormData) bool {
	switch ad := a.(type) {
	case *models.AppointmentData:
		bd := b.(*models.AppointmentData)
		return ad.State == bd.State &&
			equalDatePtr(ad.BookDate, bd.BookDate) &&
			equalTimePtr(ad.BookTime, bd.BookTime)
	case *models.ReminderData:
		bd := b.(*models.ReminderData)
		return ad.State == bd.State
	case *models.SummaryData:
		bd := b.(*models.SummaryData)
		return equalDatePtr(ad.SummaryDate, bd.SummaryDate)
	}
	return false
}

func equalDatePtr(a, b *time.Time) bool {
	if a == nil || b == nil {
		return a == b
	}
	return models.SameDate(*a, *b)
}

func equalTimePtr(a, b *models.TimeOfDay) bool {
	if a == nil || b == nil {
		return a == b
	}
	return *a == *b
}

func (m *Memory) SaveMessage(ctx context.Context, msg *models.Message) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	cp := *msg
	m.Messages[msg.ID] = &cp
	return nil
}

func (m *Memory) UserByMessage(ctx context.Context, messageID int64) (*models.User, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	msg, ok := m.Messages[messageID]
	if !ok {
		return nil, store.ErrNotFound
	}
	u, ok := m.UsersByID[msg.UserID]
	if !ok {
		return nil, store.ErrNotFound
	}
	return u, nil
}

var _ store.Store = (*Memory)(nil)
