package telegram

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	tele "gopkg.in/telebot.v4"

	"github.com/nike4192/laundry-bot/core/telegram/commands"
)

func noop(c tele.Context) error { return nil }

func TestRegistryCommands(t *testing.T) {
	reg := NewRegistry()
	reg.RegisterCommand("/book", commands.Command{Handler: noop, Description: "book", Aliases: []string{"b"}})
	reg.RegisterCommand("/summary", commands.Command{Handler: noop, Description: "summary", ModeratorOnly: true})
	reg.RegisterCommand("book", commands.Command{Handler: noop, Description: "no slash"})
	reg.RegisterCommand("/book", commands.Command{Handler: noop, Description: "duplicate"})

	assert.Len(t, reg.Commands(), 2)

	visible := reg.ListCommands(true)
	require.Len(t, visible, 1, "moderator-only commands are hidden from the menu")
	assert.Equal(t, "/book", visible[0].Text)
	assert.Len(t, reg.ListCommands(false), 2)

	key, cmd, ok := reg.LookupCommand("b")
	require.True(t, ok)
	assert.Equal(t, "/book", key)
	assert.Equal(t, "book", cmd.Description)

	_, _, ok = reg.LookupCommand("/missing")
	assert.False(t, ok)
}

func TestRegistryCallbacks(t *testing.T) {
	reg := NewRegistry()
	require.NoError(t, reg.RegisterCallback("form", noop))
	require.Error(t, reg.RegisterCallback("form", noop), "duplicate keys are rejected")
	require.Error(t, reg.RegisterCallback("", noop))

	_, ok := reg.GetCallback("form")
	assert.True(t, ok)
	_, ok = reg.GetCallback("other")
	assert.False(t, ok)

	assert.NotNil(t, reg.CallbackNotFound())
}
