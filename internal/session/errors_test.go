package session

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"

	"thirteen/internal/tournament"
)

func TestErrorCodes(t *testing.T) {
	cases := []struct {
		err  error
		code string
	}{
		{ErrNotYourTurn, "not_your_turn"},
		{ErrInvalidCardCombination, "invalid_card_combination"},
		{ErrIllegalPlay, "illegal_play"},
		{ErrRoomFull, "room_full"},
		{ErrBuyInMismatch, "buy_in_mismatch"},
		{ErrInsufficientBalance, "insufficient_balance"},
		{ErrNotSeated, "not_seated"},
		{ErrGameNotStarted, "game_not_started"},
		{ErrGameInProgress, "game_in_progress"},
		{ErrNothingToPassOn, "cannot_pass"},
		{tournament.ErrUnknownTier, "unknown_tier"},
		{tournament.ErrTournamentFull, "tournament_full"},
		{tournament.ErrNotAcceptingRegistrants, "registration_closed"},
		{tournament.ErrAlreadyRegistered, "already_registered"},
		{tournament.ErrInsufficientBalance, "insufficient_balance"},
		{errors.New("broken pipe"), "internal"},
	}
	for _, tc := range cases {
		ev := NewError("u1", tc.err)
		payload := ev.Payload.(ErrorPayload)
		assert.Equal(t, tc.code, payload.Code, tc.err.Error())
		assert.Equal(t, []string{"u1"}, ev.Recipients)
	}
}
