// Package forms implements the wizard engine behind the booking,
// reminder and summary commands: an ordered sequence of actions driving
// one persisted session, rendered into a single chat message that is
// edited in place as the user steps through it.
package forms

import "context"

// Option is one selectable keyboard entry of an option step.
type Option struct {
	// Label is the button text, annotation included.
	Label string
	// Value is the payload carried back on the button press.
	Value string
}

// Action is one step of a form. Every action has an item label (used on
// the per-step summary lines) and an action label (used in the title
// while the step is active).
type Action interface {
	ItemLabel() string
	ActionLabel() string
}

// OptionAction is a step completed by pressing one of its options.
// Apply validates the pressed value against current persisted state and
// performs the side effect; a value gone stale between render and press
// yields accepted=false with a user-facing reason, never an error.
type OptionAction interface {
	Action

	// Options lists the candidate values with availability annotations.
	Options(ctx context.Context, f *Form) ([]Option, error)
	// Columns is the number of buttons per keyboard row.
	Columns() int
	// Stringify renders the step's chosen value for summary lines.
	Stringify(ctx context.Context, f *Form) (string, error)
	// Apply validates and applies value. errText is user-facing and
	// set only when accepted is false.
	Apply(ctx context.Context, f *Form, value string) (accepted bool, errText string, err error)
}

// MessageAction is a read-only terminal step: it renders text and has
// no options or transition.
type MessageAction interface {
	Action

	Text(ctx context.Context, f *Form) (string, error)
	ParseMode() string
}
