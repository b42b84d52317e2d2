// Package commands declares bot command metadata used by the registry.
package commands

import (
	tele "gopkg.in/telebot.v4"
)

// Command represents a bot command with its handler, description, and metadata.
type Command struct {
	Handler     tele.HandlerFunc
	Description string
	// ModeratorOnly hides the command from the menu and gates it to
	// moderators and administrators.
	ModeratorOnly bool
	Hidden        bool
	Aliases       []string
}
