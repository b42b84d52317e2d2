// Package booking computes slot availability across the three nested
// dimensions of a booking: date, time of day, and washer. The washer
// level is the ground truth; the time and date levels are defined by
// rolling washer outcomes up through a fixed priority ranking, so the
// annotation shown on an outer step always agrees with what the inner
// step will allow.
package booking

// Reason explains a slot outcome.
type Reason int

const (
	// ReasonAvailable marks a free, offerable slot.
	ReasonAvailable Reason = iota
	// ReasonAlreadyBooked marks a slot taken by an appointment. The
	// slot stays selectable when the appointment belongs to the
	// requesting user (selecting it toggles the booking off).
	ReasonAlreadyBooked
	// ReasonNotAvailable marks an administratively disabled washer.
	ReasonNotAvailable
	// ReasonPassed marks a slot whose moment is behind now.
	ReasonPassed
	// ReasonReserved marks a slot inside the no-further-edits cutoff
	// window before its moment.
	ReasonReserved
)

func (r Reason) String() string {
	switch r {
	case ReasonAvailable:
		return "available"
	case ReasonAlreadyBooked:
		return "already_booked"
	case ReasonNotAvailable:
		return "not_available"
	case ReasonPassed:
		return "passed"
	case ReasonReserved:
		return "reserved"
	}
	return "unknown"
}
