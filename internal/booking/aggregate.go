package booking

// aggregateRanking is the product-policy priority order for rolling
// child slots up: surfacing "you already booked something here" beats
// generic availability, and any live outcome beats reporting expiry.
var aggregateRanking = []Slot{
	{Selectable: true, Reason: ReasonAlreadyBooked},
	{Selectable: true, Reason: ReasonAvailable},
	{Selectable: false, Reason: ReasonAlreadyBooked},
	{Selectable: false, Reason: ReasonPassed},
}

// Aggregate picks the representative outcome for a list of child slots.
// The result is order-independent: the highest-ranked (selectable,
// reason) pair present anywhere in the input wins. When nothing ranks,
// the slot is fully unavailable.
func Aggregate(slots []Slot) Slot {
	for _, level := range aggregateRanking {
		for _, s := range slots {
			if s.Selectable == level.Selectable && s.Reason == level.Reason {
				return level
			}
		}
	}
	return Slot{Selectable: false, Reason: ReasonNotAvailable}
}
