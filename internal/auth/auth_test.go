package auth

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/nike4192/laundry-bot/internal/models"
	"github.com/nike4192/laundry-bot/internal/storetest"
)

var profile = Profile{
	FirstName: "Иван",
	LastName:  "Петров",
	Username:  "ivan",
	ChatID:    100,
}

func TestParseArgsFullForm(t *testing.T) {
	req, err := ParseArgs([]string{"Петров", "Иван", "12"}, profile)
	require.NoError(t, err)
	assert.Equal(t, "Петров", req.LastName)
	assert.Equal(t, "Иван", req.FirstName)
	assert.Equal(t, 12, req.OrderNumber)
	assert.Equal(t, "ivan", req.Username)
	assert.Equal(t, int64(100), req.ChatID)
}

func TestParseArgsShortFormUsesProfile(t *testing.T) {
	req, err := ParseArgs([]string{"12"}, profile)
	require.NoError(t, err)
	assert.Equal(t, "Петров", req.LastName)
	assert.Equal(t, "Иван", req.FirstName)
	assert.Equal(t, 12, req.OrderNumber)
}

func TestParseArgsRejectsMalformed(t *testing.T) {
	tests := []struct {
		name string
		args []string
		prof Profile
	}{
		{"two arguments", []string{"Петров", "12"}, profile},
		{"no arguments", nil, profile},
		{"order not a number", []string{"Петров", "Иван", "twelve"}, profile},
		{"zero order", []string{"Петров", "Иван", "0"}, profile},
		{"single-letter name", []string{"П", "Иван", "12"}, profile},
		{"short form without profile names", []string{"12"}, Profile{ChatID: 100}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := ParseArgs(tt.args, tt.prof)
			assert.ErrorIs(t, err, ErrBadRequest)
		})
	}
}

func TestAuthorizeOutcomes(t *testing.T) {
	ctx := context.Background()
	st := storetest.NewMemory()
	st.AddUser(&models.User{FirstName: "Иван", LastName: "Петров", OrderNumber: 12})

	req := Request{FirstName: "Иван", LastName: "Петров", OrderNumber: 12, Username: "ivan", ChatID: 100}

	outcome, user, err := Authorize(ctx, st, req)
	require.NoError(t, err)
	assert.Equal(t, Authorized, outcome)
	require.NotNil(t, user)
	assert.Equal(t, int64(100), user.ChatID)
	assert.Equal(t, "ivan", user.Username)

	// The same chat asking again is a no-op.
	outcome, _, err = Authorize(ctx, st, req)
	require.NoError(t, err)
	assert.Equal(t, SelfAlreadyAuthorized, outcome)

	// A different chat cannot take over the identity.
	other := req
	other.ChatID = 200
	outcome, _, err = Authorize(ctx, st, other)
	require.NoError(t, err)
	assert.Equal(t, OtherAlreadyAuthorized, outcome)
}

func TestAuthorizeNotFound(t *testing.T) {
	st := storetest.NewMemory()
	outcome, user, err := Authorize(context.Background(), st, Request{
		FirstName: "Иван", LastName: "Петров", OrderNumber: 12, ChatID: 100,
	})
	require.NoError(t, err)
	assert.Equal(t, NotFound, outcome)
	assert.Nil(t, user)
}
