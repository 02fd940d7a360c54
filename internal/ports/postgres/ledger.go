// Package postgres implements the ledger collaborator on a pgx pool.
package postgres

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"thirteen/internal/ports"
)

// Ledger stores balances and game records in Postgres.
type Ledger struct {
	pool *pgxpool.Pool
}

// NewLedger wraps an existing connection pool.
func NewLedger(pool *pgxpool.Pool) *Ledger {
	return &Ledger{pool: pool}
}

// Debit subtracts amount, guarded against overdraft in one statement.
func (l *Ledger) Debit(ctx context.Context, userID string, amount int64) error {
	tag, err := l.pool.Exec(ctx,
		`UPDATE balances SET balance = balance - $2 WHERE user_id = $1 AND balance >= $2`,
		userID, amount)
	if err != nil {
		return fmt.Errorf("debit %s: %w", userID, err)
	}
	if tag.RowsAffected() == 0 {
		return ports.ErrInsufficientFunds
	}
	return nil
}

// Credit adds amount, creating the balance row when absent.
func (l *Ledger) Credit(ctx context.Context, userID string, amount int64) error {
	_, err := l.pool.Exec(ctx,
		`INSERT INTO balances (user_id, balance) VALUES ($1, $2)
		 ON CONFLICT (user_id) DO UPDATE SET balance = balances.balance + $2`,
		userID, amount)
	if err != nil {
		return fmt.Errorf("credit %s: %w", userID, err)
	}
	return nil
}

// RecordGameResult persists one finished game.
func (l *Ledger) RecordGameResult(ctx context.Context, gameID, winnerID string, payout int64) error {
	_, err := l.pool.Exec(ctx,
		`INSERT INTO game_results (game_id, winner_id, payout, finished_at)
		 VALUES ($1, NULLIF($2, ''), $3, now())
		 ON CONFLICT (game_id) DO NOTHING`,
		gameID, winnerID, payout)
	if err != nil {
		return fmt.Errorf("record game %s: %w", gameID, err)
	}
	return nil
}

// CurrentBalance reads the user's balance; unknown users hold zero.
func (l *Ledger) CurrentBalance(ctx context.Context, userID string) (int64, error) {
	var balance int64
	err := l.pool.QueryRow(ctx,
		`SELECT balance FROM balances WHERE user_id = $1`, userID).Scan(&balance)
	if errors.Is(err, pgx.ErrNoRows) {
		return 0, nil
	}
	if err != nil {
		return 0, fmt.Errorf("balance %s: %w", userID, err)
	}
	return balance, nil
}

var _ ports.LedgerPort = (*Ledger)(nil)
