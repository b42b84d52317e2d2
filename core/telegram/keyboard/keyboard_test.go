package keyboard

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func buttons(n int) []InlineBtn {
	out := make([]InlineBtn, n)
	for i := range out {
		out[i] = InlineBtn{Text: "b", Unique: "u", Data: "d"}
	}
	return out
}

func TestGridLayouts(t *testing.T) {
	// columns=0: everything on one row.
	m := Grid(buttons(3), 0)
	require.Len(t, m.InlineKeyboard, 1)
	assert.Len(t, m.InlineKeyboard[0], 3)

	// columns=1: one button per row.
	m = Grid(buttons(3), 1)
	require.Len(t, m.InlineKeyboard, 3)

	// columns=n: chunks of n, remainder on the last row.
	m = Grid(buttons(5), 2)
	require.Len(t, m.InlineKeyboard, 3)
	assert.Len(t, m.InlineKeyboard[0], 2)
	assert.Len(t, m.InlineKeyboard[2], 1)

	m = Grid(nil, 1)
	assert.Empty(t, m.InlineKeyboard)
}

func TestRowsEncodesData(t *testing.T) {
	m := Rows([]InlineBtn{{Text: "10:00", Unique: "form", Data: "1 10:00"}})
	require.Len(t, m.InlineKeyboard, 1)
	require.Len(t, m.InlineKeyboard[0], 1)
	btn := m.InlineKeyboard[0][0]
	assert.Equal(t, "10:00", btn.Text)
	assert.Equal(t, "form", btn.Unique)
	assert.Equal(t, "1 10:00", btn.Data)
}
