package ports

import (
	"context"
	"errors"
)

// ErrInsufficientFunds is returned by Debit when the user's balance cannot
// cover the requested amount.
var ErrInsufficientFunds = errors.New("insufficient funds")

// LedgerPort is the external balance/records collaborator. Game settlement
// debits buy-ins, credits the winner, and persists a finished-game record
// through it.
type LedgerPort interface {
	// Debit removes amount from the user's balance.
	// Returns ErrInsufficientFunds when the balance is too low.
	Debit(ctx context.Context, userID string, amount int64) error

	// Credit adds amount to the user's balance.
	Credit(ctx context.Context, userID string, amount int64) error

	// RecordGameResult persists the outcome of a finished game.
	// winnerID may be empty for an abandoned game.
	RecordGameResult(ctx context.Context, gameID, winnerID string, payout int64) error

	// CurrentBalance retrieves the user's balance.
	CurrentBalance(ctx context.Context, userID string) (int64, error)
}
