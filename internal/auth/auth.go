// Package auth matches a resident against the pre-provisioned user list
// and links their Telegram chat on success.
package auth

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"strings"

	"github.com/go-playground/validator/v10"

	"github.com/nike4192/laundry-bot/internal/models"
	"github.com/nike4192/laundry-bot/internal/store"
)

// Outcome classifies an authorization attempt.
type Outcome int

const (
	// Authorized means the identity matched and the chat was linked.
	Authorized Outcome = iota
	// SelfAlreadyAuthorized means this chat already owns the identity.
	SelfAlreadyAuthorized
	// OtherAlreadyAuthorized means the identity is linked to a
	// different chat.
	OtherAlreadyAuthorized
	// NotFound means no provisioned user matches the identity.
	NotFound
)

// ErrBadRequest signals a malformed /auth argument list.
var ErrBadRequest = errors.New("auth: bad request")

// Request is a parsed /auth command.
type Request struct {
	FirstName   string `validate:"required,min=2,max=64"`
	LastName    string `validate:"required,min=2,max=64"`
	OrderNumber int    `validate:"required,gt=0"`
	Username    string
	ChatID      int64  `validate:"required"`
}

var validate = validator.New()

// Profile carries the Telegram-side identity of the requester. Its
// names are used when the short single-argument form is sent.
type Profile struct {
	FirstName string
	LastName  string
	Username  string
	ChatID    int64
}

// ParseArgs builds a Request from the /auth payload. The full form is
// "<Фамилия> <Имя> <номер>"; the short form "<номер>" takes the names
// from the Telegram profile.
func ParseArgs(args []string, profile Profile) (Request, error) {
	var firstName, lastName string
	switch len(args) {
	case 1:
		firstName = profile.FirstName
		lastName = profile.LastName
	case 3:
		lastName = strings.TrimSpace(args[0])
		firstName = strings.TrimSpace(args[1])
	default:
		return Request{}, fmt.Errorf("%w: expected 1 or 3 arguments, got %d", ErrBadRequest, len(args))
	}
	order, err := strconv.Atoi(args[len(args)-1])
	if err != nil {
		return Request{}, fmt.Errorf("%w: order number: %v", ErrBadRequest, err)
	}
	req := Request{
		LastName:    lastName,
		FirstName:   firstName,
		OrderNumber: order,
		Username:    profile.Username,
		ChatID:      profile.ChatID,
	}
	if err := validate.Struct(req); err != nil {
		return Request{}, fmt.Errorf("%w: %v", ErrBadRequest, err)
	}
	return req, nil
}

// Authorize resolves the request against the user list. The identity
// triple (last name, first name, order number) must match a provisioned
// row exactly; linking is refused when the row already belongs to
// another chat.
func Authorize(ctx context.Context, st store.Store, req Request) (Outcome, *models.User, error) {
	var outcome Outcome
	var user *models.User

	err := st.WithTx(ctx, func(tx store.Store) error {
		u, err := tx.UserByIdentity(ctx, req.FirstName, req.LastName, req.OrderNumber)
		if errors.Is(err, store.ErrNotFound) {
			outcome = NotFound
			return nil
		}
		if err != nil {
			return err
		}
		user = u

		switch {
		case u.ChatID == req.ChatID:
			outcome = SelfAlreadyAuthorized
			return nil
		case u.ChatID != 0:
			outcome = OtherAlreadyAuthorized
			return nil
		}

		if err := tx.BindChat(ctx, u.ID, req.Username, req.ChatID); err != nil {
			return err
		}
		u.Username = req.Username
		u.ChatID = req.ChatID
		outcome = Authorized
		return nil
	})
	if err != nil {
		return 0, nil, err
	}
	return outcome, user, nil
}
