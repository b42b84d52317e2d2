// Package callbacks parses telebot inline callback data.
package callbacks

import (
	"strconv"
	"strings"

	tele "gopkg.in/telebot.v4"
)

// ParseCallbackData parses telebot's \f<unique>|<payload> encoding and
// returns unique and payload (payload may be empty).
func ParseCallbackData(cb *tele.Callback) (string, string) {
	if cb == nil {
		return "", ""
	}
	raw := strings.TrimPrefix(cb.Data, "\\f")
	parts := strings.SplitN(raw, "|", 2)
	unique := strings.TrimSpace(parts[0])
	payload := ""
	if len(parts) == 2 {
		payload = parts[1]
	}
	return unique, payload
}

// CallbackKey returns cb.Unique if present, otherwise parses it from Data.
func CallbackKey(c tele.Context) string {
	cb := c.Callback()
	if cb == nil {
		return ""
	}
	if cb.Unique != "" {
		return cb.Unique
	}
	k, _ := ParseCallbackData(cb)
	return k
}

// CallbackPayload returns the payload (after '|') parsed from Data.
// cb.Unique may be empty in a generic OnCallback handler, so Data is
// always the source of truth.
func CallbackPayload(c tele.Context) string {
	cb := c.Callback()
	if cb == nil {
		return ""
	}
	_, payload := ParseCallbackData(cb)
	return payload
}

// PayloadParts splits the callback payload on sep.
func PayloadParts(c tele.Context, sep string) ([]string, error) {
	p := CallbackPayload(c)
	if p == "" {
		return nil, strconv.ErrSyntax
	}
	return strings.Split(p, sep), nil
}

// PayloadStepValue parses a "<step> <value>" payload produced by form
// keyboards. The value itself may contain spaces.
func PayloadStepValue(c tele.Context) (int, string, error) {
	return StepValue(CallbackPayload(c))
}

// StepValue parses the "<step> <value>" encoding from a raw payload.
func StepValue(payload string) (int, string, error) {
	parts := strings.SplitN(payload, " ", 2)
	if len(parts) != 2 {
		return 0, "", strconv.ErrSyntax
	}
	step, err := strconv.Atoi(parts[0])
	if err != nil {
		return 0, "", err
	}
	return step, parts[1], nil
}
