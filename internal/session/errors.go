package session

import (
	"errors"

	"thirteen/internal/tournament"
)

// Recoverable, user-facing rejections. They produce an Error event for the
// offending connection and leave room state untouched.
var (
	ErrNotYourTurn            = errors.New("not your turn")
	ErrInvalidCardCombination = errors.New("invalid card combination")
	ErrIllegalPlay            = errors.New("play does not beat the table")
	ErrRoomFull               = errors.New("room is full")
	ErrBuyInMismatch          = errors.New("buy-in does not match the room")
	ErrInsufficientBalance    = errors.New("insufficient balance")
	ErrNotSeated              = errors.New("player is not seated in this room")
	ErrGameNotStarted         = errors.New("game has not started")
	ErrGameInProgress         = errors.New("game already in progress")
	ErrNothingToPassOn        = errors.New("cannot pass when leading the round")
)

// errorCode maps a rejection to the wire code carried by Error events.
func errorCode(err error) string {
	switch {
	case errors.Is(err, ErrNotYourTurn):
		return "not_your_turn"
	case errors.Is(err, ErrInvalidCardCombination):
		return "invalid_card_combination"
	case errors.Is(err, ErrIllegalPlay):
		return "illegal_play"
	case errors.Is(err, ErrRoomFull):
		return "room_full"
	case errors.Is(err, ErrBuyInMismatch):
		return "buy_in_mismatch"
	case errors.Is(err, ErrInsufficientBalance):
		return "insufficient_balance"
	case errors.Is(err, ErrNotSeated):
		return "not_seated"
	case errors.Is(err, ErrGameNotStarted):
		return "game_not_started"
	case errors.Is(err, ErrGameInProgress):
		return "game_in_progress"
	case errors.Is(err, ErrNothingToPassOn):
		return "cannot_pass"
	case errors.Is(err, tournament.ErrUnknownTier):
		return "unknown_tier"
	case errors.Is(err, tournament.ErrTournamentFull):
		return "tournament_full"
	case errors.Is(err, tournament.ErrNotAcceptingRegistrants):
		return "registration_closed"
	case errors.Is(err, tournament.ErrAlreadyRegistered):
		return "already_registered"
	case errors.Is(err, tournament.ErrInsufficientBalance):
		return "insufficient_balance"
	default:
		return "internal"
	}
}

// NewError builds the Error event sent back to one offending connection.
func NewError(userID string, err error) Event {
	return Event{
		Kind:       EventError,
		Payload:    ErrorPayload{Code: errorCode(err), Message: err.Error()},
		Recipients: []string{userID},
	}
}
