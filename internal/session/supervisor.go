package session

import (
	"context"
	"errors"
	"sync"
	"time"

	"github.com/jonboulle/clockwork"
	"github.com/rs/zerolog"

	"thirteen/internal/ports"
)

// ErrNoActiveGame is returned by Reconnect when the store holds no game
// association for the user.
var ErrNoActiveGame = errors.New("no active game for user")

type graceKey struct {
	userID string
	gameID string
}

// Supervisor watches disconnected seats. It is only armed once a room's game
// has started: it marks the seat unreachable, runs a grace timer keyed by
// (user, game), and folds the seat when the timer outlives the reconnect.
// It holds handles to rooms through the registry, never the reverse.
type Supervisor struct {
	mu     sync.Mutex
	clock  clockwork.Clock
	grace  time.Duration
	store  ports.GameStorePort
	rooms  *Registry
	log    zerolog.Logger
	timers map[graceKey]clockwork.Timer
}

// NewSupervisor constructs a supervisor over the registry's rooms.
func NewSupervisor(clock clockwork.Clock, grace time.Duration, store ports.GameStorePort, rooms *Registry, log zerolog.Logger) *Supervisor {
	return &Supervisor{
		clock:  clock,
		grace:  grace,
		store:  store,
		rooms:  rooms,
		log:    log,
		timers: make(map[graceKey]clockwork.Timer),
	}
}

// Disconnected handles a connection loss for a seated user. Pre-game it is
// an ordinary leave; mid-game the seat is preserved behind a grace timer.
func (s *Supervisor) Disconnected(room *Room, userID string) {
	if !room.Started() {
		room.Leave(userID)
		return
	}
	if !room.MarkUnreachable(userID) {
		return
	}
	gameID := room.GameID()
	s.log.Info().Str("game_id", gameID).Str("user_id", userID).Dur("grace", s.grace).Msg("seat unreachable, grace timer armed")

	if room.AllUnreachable() {
		s.ClearGame(gameID)
		room.SettleAbandoned()
		return
	}

	key := graceKey{userID: userID, gameID: gameID}
	s.mu.Lock()
	if old, ok := s.timers[key]; ok {
		old.Stop()
	}
	s.timers[key] = s.clock.AfterFunc(s.grace, func() {
		s.expire(key, room)
	})
	s.mu.Unlock()
}

func (s *Supervisor) expire(key graceKey, room *Room) {
	s.mu.Lock()
	if _, ok := s.timers[key]; !ok {
		// Cancelled between fire and execution.
		s.mu.Unlock()
		return
	}
	delete(s.timers, key)
	s.mu.Unlock()

	room.ForceFold(key.userID)

	ctx, cancel := context.WithTimeout(context.Background(), 3*time.Second)
	defer cancel()
	if err := s.store.ClearAssociation(ctx, key.userID, key.gameID); err != nil {
		s.log.Error().Err(err).Str("user_id", key.userID).Msg("clear association failed")
	}
}

// Reconnect routes a fresh connection back to the user's active game. The
// seat's hand, points, and turn position are untouched by the disconnect.
func (s *Supervisor) Reconnect(ctx context.Context, userID string, conn Conn) (*Room, error) {
	gameID, ok, err := s.store.FindActiveGameFor(ctx, userID)
	if err != nil {
		return nil, err
	}
	if !ok {
		return nil, ErrNoActiveGame
	}
	room, ok := s.rooms.RoomByGame(gameID)
	if !ok {
		return nil, ErrNoActiveGame
	}

	s.cancel(graceKey{userID: userID, gameID: gameID})
	if !room.Reconnect(userID, conn) {
		return nil, ErrNoActiveGame
	}
	s.log.Info().Str("game_id", gameID).Str("user_id", userID).Msg("player reconnected within grace period")
	return room, nil
}

// ClearGame drops every grace timer for the given game. Called after
// settlement so no timer outlives the game it guarded.
func (s *Supervisor) ClearGame(gameID string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	for key, timer := range s.timers {
		if key.gameID == gameID {
			timer.Stop()
			delete(s.timers, key)
		}
	}
}

func (s *Supervisor) cancel(key graceKey) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if timer, ok := s.timers[key]; ok {
		timer.Stop()
		delete(s.timers, key)
	}
}
