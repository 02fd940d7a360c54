package session

import (
	"context"
	"math/rand"
	"sync"

	"github.com/jonboulle/clockwork"
	"github.com/rs/zerolog"

	"thirteen/internal/config"
	"thirteen/internal/ports"
)

// SettleHook observes game settlement. The composition root registers the
// disconnect supervisor's cleanup and the tournament manager's bracket
// advancement here.
type SettleHook func(roomID, gameID, tournamentID, winnerUserID string, abandoned bool)

// Registry owns room lifecycle: create on first join, look up by id or by
// active game, evict when empty. It replaces ad-hoc global room maps with
// one injected service.
type Registry struct {
	mu     sync.Mutex
	clock  clockwork.Clock
	cfg    config.Config
	ledger ports.LedgerPort
	store  ports.GameStorePort
	log    zerolog.Logger
	seed   *rand.Rand

	rooms  map[string]*Room
	byGame map[string]string // gameID -> roomID

	settleHooks []SettleHook
}

// NewRegistry constructs an empty registry.
func NewRegistry(clock clockwork.Clock, cfg config.Config, ledger ports.LedgerPort, store ports.GameStorePort, seed *rand.Rand, log zerolog.Logger) *Registry {
	return &Registry{
		clock:  clock,
		cfg:    cfg,
		ledger: ledger,
		store:  store,
		log:    log,
		seed:   seed,
		rooms:  make(map[string]*Room),
		byGame: make(map[string]string),
	}
}

// OnSettled registers a settlement hook. Not safe to call after rooms exist.
func (reg *Registry) OnSettled(hook SettleHook) {
	reg.settleHooks = append(reg.settleHooks, hook)
}

// JoinRoom seats the user in the identified room, creating it when roomID is
// empty. The room is returned even on rejection so the caller can keep its
// reference for follow-up operations.
func (reg *Registry) JoinRoom(ctx context.Context, roomID, userID, username string, buyIn int64, conn Conn) (*Room, error) {
	reg.mu.Lock()
	room, ok := reg.rooms[roomID]
	created := false
	if !ok {
		if roomID == "" {
			roomID = uuidString()
		}
		room = reg.newRoomLocked(roomID, "")
		created = true
	}
	reg.mu.Unlock()

	if err := room.Join(ctx, userID, username, buyIn, conn); err != nil {
		if created {
			reg.remove(room)
		}
		return nil, err
	}
	return room, nil
}

// Room looks a room up by id.
func (reg *Registry) Room(roomID string) (*Room, bool) {
	reg.mu.Lock()
	defer reg.mu.Unlock()
	room, ok := reg.rooms[roomID]
	return room, ok
}

// RoomByGame resolves the room hosting the given game id.
func (reg *Registry) RoomByGame(gameID string) (*Room, bool) {
	reg.mu.Lock()
	defer reg.mu.Unlock()
	roomID, ok := reg.byGame[gameID]
	if !ok {
		return nil, false
	}
	room, ok := reg.rooms[roomID]
	return room, ok
}

// SpawnMatchRoom creates a room for a tournament match with both players
// pre-seated. They attach their connections by joining with the returned id.
func (reg *Registry) SpawnMatchRoom(tournamentID string, userIDs, usernames [2]string) string {
	reg.mu.Lock()
	room := reg.newRoomLocked(uuidString(), tournamentID)
	reg.mu.Unlock()

	for i := range userIDs {
		room.PreSeat(userIDs[i], usernames[i])
	}
	return room.ID
}

func (reg *Registry) newRoomLocked(roomID, tournamentID string) *Room {
	rng := rand.New(rand.NewSource(reg.seed.Int63()))
	room := NewRoom(roomID, reg.clock, rng, reg.cfg, reg.ledger, reg.store, reg.log)
	room.TournamentID = tournamentID
	room.onGameStarted = func(r *Room, gameID string) {
		reg.mu.Lock()
		reg.byGame[gameID] = r.ID
		reg.mu.Unlock()
	}
	room.onSettled = func(r *Room, gameID, winnerUserID string, abandoned bool) {
		reg.mu.Lock()
		delete(reg.byGame, gameID)
		hooks := append([]SettleHook(nil), reg.settleHooks...)
		reg.mu.Unlock()
		for _, hook := range hooks {
			hook(r.ID, gameID, r.TournamentID, winnerUserID, abandoned)
		}
	}
	room.onEmpty = func(r *Room) {
		reg.remove(r)
	}
	reg.rooms[roomID] = room
	return room
}

func (reg *Registry) remove(room *Room) {
	reg.mu.Lock()
	defer reg.mu.Unlock()
	if existing, ok := reg.rooms[room.ID]; ok && existing == room {
		delete(reg.rooms, room.ID)
	}
}
