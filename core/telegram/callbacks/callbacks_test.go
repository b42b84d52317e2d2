package callbacks

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	tele "gopkg.in/telebot.v4"
)

func TestParseCallbackData(t *testing.T) {
	unique, payload := ParseCallbackData(&tele.Callback{Data: "\\fform|2 10:00"})
	assert.Equal(t, "form", unique)
	assert.Equal(t, "2 10:00", payload)

	unique, payload = ParseCallbackData(&tele.Callback{Data: "form|"})
	assert.Equal(t, "form", unique)
	assert.Equal(t, "", payload)

	unique, payload = ParseCallbackData(&tele.Callback{Data: "bare"})
	assert.Equal(t, "bare", unique)
	assert.Equal(t, "", payload)

	unique, payload = ParseCallbackData(nil)
	assert.Equal(t, "", unique)
	assert.Equal(t, "", payload)
}

func TestStepValue(t *testing.T) {
	step, value, err := StepValue("0 2025-06-03")
	require.NoError(t, err)
	assert.Equal(t, 0, step)
	assert.Equal(t, "2025-06-03", value)

	// Values may contain spaces; only the first split counts.
	step, value, err = StepValue("2 Машина 1")
	require.NoError(t, err)
	assert.Equal(t, 2, step)
	assert.Equal(t, "Машина 1", value)

	_, _, err = StepValue("no-step")
	require.Error(t, err)

	_, _, err = StepValue("x 1")
	require.Error(t, err)
}
