// Package keyboard builds inline keyboards for form and command replies.
package keyboard

import tele "gopkg.in/telebot.v4"

// InlineBtn describes a convenience wrapper for inline button properties.
type InlineBtn struct {
	Text   string
	Unique string
	Data   string
}

// Rows builds an inline keyboard from explicit rows of InlineBtn.
func Rows(rows ...[]InlineBtn) *tele.ReplyMarkup {
	markup := &tele.ReplyMarkup{}
	inline := make([][]tele.InlineButton, len(rows))
	for i, row := range rows {
		r := make([]tele.InlineButton, len(row))
		for j, btn := range row {
			r[j] = *markup.Data(btn.Text, btn.Unique, btn.Data).Inline()
		}
		inline[i] = r
	}
	markup.InlineKeyboard = inline
	return markup
}

// Grid lays out a flat list of buttons by the columns convention used
// across forms: 0 puts everything on a single row, 1 gives each button
// its own row, any other n chunks the list into rows of n.
func Grid(buttons []InlineBtn, columns int) *tele.ReplyMarkup {
	switch {
	case len(buttons) == 0:
		return &tele.ReplyMarkup{}
	case columns == 0:
		return Rows(buttons)
	case columns <= 1:
		rows := make([][]InlineBtn, 0, len(buttons))
		for _, b := range buttons {
			rows = append(rows, []InlineBtn{b})
		}
		return Rows(rows...)
	default:
		var rows [][]InlineBtn
		for i := 0; i < len(buttons); i += columns {
			end := i + columns
			if end > len(buttons) {
				end = len(buttons)
			}
			rows = append(rows, buttons[i:end])
		}
		return Rows(rows...)
	}
}

// RemoveKeyboard returns a markup that hides the keyboard.
func RemoveKeyboard() *tele.ReplyMarkup {
	return &tele.ReplyMarkup{RemoveKeyboard: true}
}
