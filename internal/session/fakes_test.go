package session

import (
	"context"
	"sync"

	"thirteen/internal/ports"
)

// fakeConn records delivered events for assertions.
type fakeConn struct {
	mu     sync.Mutex
	events []Event
}

func (c *fakeConn) Send(ev Event) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.events = append(c.events, ev)
}

// last returns the most recent event of the given kind.
func (c *fakeConn) last(kind EventKind) (Event, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()
	for i := len(c.events) - 1; i >= 0; i-- {
		if c.events[i].Kind == kind {
			return c.events[i], true
		}
	}
	return Event{}, false
}

func (c *fakeConn) count(kind EventKind) int {
	c.mu.Lock()
	defer c.mu.Unlock()
	n := 0
	for _, ev := range c.events {
		if ev.Kind == kind {
			n++
		}
	}
	return n
}

func (c *fakeConn) has(kind EventKind) bool {
	_, ok := c.last(kind)
	return ok
}

// fakeLedger is an in-memory LedgerPort.
type fakeLedger struct {
	mu       sync.Mutex
	balances map[string]int64
	debits   map[string]int64
	credits  map[string]int64
	results  map[string]string // gameID -> winnerID
}

func newFakeLedger() *fakeLedger {
	return &fakeLedger{
		balances: make(map[string]int64),
		debits:   make(map[string]int64),
		credits:  make(map[string]int64),
		results:  make(map[string]string),
	}
}

func (l *fakeLedger) Debit(_ context.Context, userID string, amount int64) error {
	l.mu.Lock()
	defer l.mu.Unlock()
	if l.balances[userID] < amount {
		return ports.ErrInsufficientFunds
	}
	l.balances[userID] -= amount
	l.debits[userID] += amount
	return nil
}

func (l *fakeLedger) Credit(_ context.Context, userID string, amount int64) error {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.balances[userID] += amount
	l.credits[userID] += amount
	return nil
}

func (l *fakeLedger) RecordGameResult(_ context.Context, gameID, winnerID string, _ int64) error {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.results[gameID] = winnerID
	return nil
}

func (l *fakeLedger) CurrentBalance(_ context.Context, userID string) (int64, error) {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.balances[userID], nil
}

func (l *fakeLedger) debited(userID string) int64 {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.debits[userID]
}

func (l *fakeLedger) credited(userID string) int64 {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.credits[userID]
}

func (l *fakeLedger) result(gameID string) (string, bool) {
	l.mu.Lock()
	defer l.mu.Unlock()
	winner, ok := l.results[gameID]
	return winner, ok
}

// fakeStore is an in-memory GameStorePort.
type fakeStore struct {
	mu        sync.Mutex
	active    map[string]string // userID -> gameID
	connected map[string]bool
}

func newFakeStore() *fakeStore {
	return &fakeStore{
		active:    make(map[string]string),
		connected: make(map[string]bool),
	}
}

func (s *fakeStore) FindActiveGameFor(_ context.Context, userID string) (string, bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	gameID, ok := s.active[userID]
	return gameID, ok, nil
}

func (s *fakeStore) MarkConnected(_ context.Context, userID, gameID string, connected bool) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.active[userID] = gameID
	s.connected[userID] = connected
	return nil
}

func (s *fakeStore) ClearAssociation(_ context.Context, userID, _ string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.active, userID)
	return nil
}

func (s *fakeStore) set(userID, gameID string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.active[userID] = gameID
}

func (s *fakeStore) gameFor(userID string) (string, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	gameID, ok := s.active[userID]
	return gameID, ok
}

func (s *fakeStore) isConnected(userID string) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.connected[userID]
}
