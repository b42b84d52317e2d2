package booking

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestAggregateRanking(t *testing.T) {
	ownBooked := Slot{Selectable: true, Reason: ReasonAlreadyBooked}
	free := Slot{Selectable: true, Reason: ReasonAvailable}
	otherBooked := Slot{Selectable: false, Reason: ReasonAlreadyBooked}
	passed := Slot{Selectable: false, Reason: ReasonPassed}
	disabled := Slot{Selectable: false, Reason: ReasonNotAvailable}

	tests := []struct {
		name  string
		slots []Slot
		want  Slot
	}{
		{"own booking beats free", []Slot{free, ownBooked}, ownBooked},
		{"free beats foreign booking", []Slot{otherBooked, free}, free},
		{"foreign booking beats passed", []Slot{passed, otherBooked}, otherBooked},
		{"passed beats unavailable", []Slot{disabled, passed}, passed},
		{"all disabled", []Slot{disabled, disabled}, disabled},
		{"empty", nil, disabled},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := Aggregate(tt.slots)
			assert.Equal(t, tt.want.Selectable, got.Selectable)
			assert.Equal(t, tt.want.Reason, got.Reason)
		})
	}
}

func TestAggregateOrderIndependent(t *testing.T) {
	slots := []Slot{
		{Selectable: false, Reason: ReasonPassed},
		{Selectable: true, Reason: ReasonAvailable},
		{Selectable: false, Reason: ReasonAlreadyBooked},
	}
	forward := Aggregate(slots)

	reversed := []Slot{slots[2], slots[1], slots[0]}
	assert.Equal(t, forward, Aggregate(reversed))
	assert.Equal(t, ReasonAvailable, forward.Reason)
	assert.True(t, forward.Selectable)
}
