package booking

import (
	"context"
	"time"

	"github.com/nike4192/laundry-bot/internal/models"
	"github.com/nike4192/laundry-bot/internal/store"
)

// Slot is the outcome of resolving one candidate value. Appointment is
// the matched booking when Reason is ReasonAlreadyBooked at the washer
// level; aggregated outcomes carry no record.
type Slot struct {
	Selectable  bool
	Reason      Reason
	Appointment *models.Appointment
}

// Resolver answers "can this user book this slot" questions against one
// consistent snapshot. It is created per render pass (or per applied
// choice) and memoizes the washer list and each probed date's
// appointments, so resolving a whole keyboard costs two queries.
type Resolver struct {
	store    store.Store
	settings Settings
	now      time.Time

	washers []models.Washer
	byDate  map[string]map[slotKey]*models.Appointment
}

type slotKey struct {
	minutes  int
	washerID int64
}

// NewResolver builds a resolver pinned to a single "now".
func NewResolver(st store.Store, settings Settings, now time.Time) *Resolver {
	return &Resolver{
		store:    st,
		settings: settings,
		now:      now,
		byDate:   make(map[string]map[slotKey]*models.Appointment),
	}
}

// Now returns the moment the resolver evaluates against.
func (r *Resolver) Now() time.Time { return r.now }

// Settings returns the policy the resolver applies.
func (r *Resolver) Settings() Settings { return r.settings }

// Washers returns the memoized washer list.
func (r *Resolver) Washers(ctx context.Context) ([]models.Washer, error) {
	if r.washers == nil {
		washers, err := r.store.Washers(ctx)
		if err != nil {
			return nil, err
		}
		r.washers = washers
	}
	return r.washers, nil
}

func (r *Resolver) appointmentsOn(ctx context.Context, date time.Time) (map[slotKey]*models.Appointment, error) {
	key := models.DateOnly(date).Format(time.DateOnly)
	if index, ok := r.byDate[key]; ok {
		return index, nil
	}
	list, err := r.store.AppointmentsOnDate(ctx, date)
	if err != nil {
		return nil, err
	}
	index := make(map[slotKey]*models.Appointment, len(list))
	for i := range list {
		a := &list[i]
		index[slotKey{minutes: a.BookTime.Minutes(), washerID: a.WasherID}] = a
	}
	r.byDate[key] = index
	return index, nil
}

// ResolveWasher decides whether one washer at one (date, time) slot is
// selectable for the user. Order of checks: the time windows first
// (passed, then the reservation cutoff), then the booking record, then
// the washer's administrative flag.
func (r *Resolver) ResolveWasher(ctx context.Context, user *models.User, date time.Time, tod models.TimeOfDay, washerID int64) (Slot, error) {
	moment := models.Combine(date, tod)
	if r.now.After(moment) {
		return Slot{Selectable: false, Reason: ReasonPassed}, nil
	}
	if !r.now.Before(moment.Add(-r.settings.Cutoff)) {
		return Slot{Selectable: false, Reason: ReasonReserved}, nil
	}

	index, err := r.appointmentsOn(ctx, date)
	if err != nil {
		return Slot{}, err
	}
	if a, ok := index[slotKey{minutes: tod.Minutes(), washerID: washerID}]; ok {
		return Slot{
			Selectable:  a.UserID == user.ID,
			Reason:      ReasonAlreadyBooked,
			Appointment: a,
		}, nil
	}

	washers, err := r.Washers(ctx)
	if err != nil {
		return Slot{}, err
	}
	for _, w := range washers {
		if w.ID == washerID {
			if !w.Available {
				return Slot{Selectable: false, Reason: ReasonNotAvailable}, nil
			}
			return Slot{Selectable: true, Reason: ReasonAvailable}, nil
		}
	}
	return Slot{Selectable: false, Reason: ReasonNotAvailable}, nil
}

// ResolveTime rolls every washer's outcome at (date, tod) up into one
// slot via the aggregation ranking.
func (r *Resolver) ResolveTime(ctx context.Context, user *models.User, date time.Time, tod models.TimeOfDay) (Slot, error) {
	washers, err := r.Washers(ctx)
	if err != nil {
		return Slot{}, err
	}
	slots := make([]Slot, 0, len(washers))
	for _, w := range washers {
		slot, err := r.ResolveWasher(ctx, user, date, tod, w.ID)
		if err != nil {
			return Slot{}, err
		}
		slots = append(slots, slot)
	}
	return Aggregate(slots), nil
}

// ResolveDate rolls every configured daily time's outcome on date up
// into one slot.
func (r *Resolver) ResolveDate(ctx context.Context, user *models.User, date time.Time) (Slot, error) {
	slots := make([]Slot, 0, len(r.settings.Times))
	for _, tod := range r.settings.Times {
		slot, err := r.ResolveTime(ctx, user, date, tod)
		if err != nil {
			return Slot{}, err
		}
		slots = append(slots, slot)
	}
	return Aggregate(slots), nil
}
