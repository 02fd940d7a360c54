package session

import (
	"context"
	"math/rand"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/jonboulle/clockwork"
	"github.com/rs/zerolog"

	"thirteen/internal/config"
	"thirteen/internal/domain"
	"thirteen/internal/ports"
)

// State is the lifecycle stage of a room.
type State int

const (
	StateLobby State = iota
	StateStarting
	StatePlaying
	StateRoundSettling
	StateFinished
)

const maxSeats = 4

// Seat holds one player's in-room state.
type Seat struct {
	PlayerID int // stable 1..4, lowest unused slot on join
	UserID   string
	Username string
	Conn     Conn // nil while disconnected
	Hand     []domain.Card
	Points   int
	Ready    bool
	Away     bool // grace period expired; auto-passes while unreachable
}

// Room owns the mutable state of one table. Every state transition runs
// under the room mutex, which is the per-room serialization the game logic
// depends on; timers re-enter through the same lock and are ordinary
// serialized events.
type Room struct {
	ID           string
	TournamentID string

	mu    sync.Mutex
	clock clockwork.Clock
	rng   *rand.Rand
	cfg   config.Config
	log   zerolog.Logger

	ledger ports.LedgerPort
	store  ports.GameStorePort

	state     State
	seats     []*Seat
	buyIn     int64
	buyInSet  bool
	gameID    string
	current   int
	lastPlay  *domain.Play
	passCount int

	turnTimer *countdown
	autoStart *countdown

	// Composition-root callbacks. The room never holds a reference to the
	// registry, supervisor, or tournament manager.
	onGameStarted func(r *Room, gameID string)
	onSettled     func(r *Room, gameID, winnerUserID string, abandoned bool)
	onEmpty       func(r *Room)
}

// NewRoom constructs an empty lobby-state room.
func NewRoom(id string, clock clockwork.Clock, rng *rand.Rand, cfg config.Config, ledger ports.LedgerPort, store ports.GameStorePort, log zerolog.Logger) *Room {
	return &Room{
		ID:     id,
		clock:  clock,
		rng:    rng,
		cfg:    cfg,
		log:    log.With().Str("room_id", id).Logger(),
		ledger: ledger,
		store:  store,
		state:  StateLobby,
	}
}

// Join seats a new player or rebinds the connection of a known one.
// Reconnection is recognized by userID, or by username when the seat carries
// no external identity.
func (r *Room) Join(ctx context.Context, userID, username string, buyIn int64, conn Conn) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if seat := r.findSeatLocked(userID, username); seat != nil {
		r.rebindLocked(seat, conn)
		return nil
	}

	if r.state != StateLobby {
		return ErrGameInProgress
	}
	if len(r.seats) >= maxSeats {
		return ErrRoomFull
	}
	if r.buyInSet && buyIn != r.buyIn {
		return ErrBuyInMismatch
	}
	if buyIn > 0 && r.ledger != nil {
		balance, err := r.ledger.CurrentBalance(ctx, userID)
		if err != nil {
			r.log.Error().Err(err).Str("user_id", userID).Msg("balance lookup failed")
			return ErrInsufficientBalance
		}
		if balance < buyIn {
			return ErrInsufficientBalance
		}
	}

	seat := &Seat{
		PlayerID: r.lowestFreePlayerIDLocked(),
		UserID:   userID,
		Username: username,
		Conn:     conn,
	}
	r.insertSeatLocked(seat)
	if !r.buyInSet {
		r.buyIn = buyIn
		r.buyInSet = true
	}

	r.sendToLocked(seat, Event{Kind: EventRoomJoined, Payload: RoomJoinedPayload{
		RoomID: r.ID, PlayerID: seat.PlayerID, BuyIn: r.buyIn,
	}})
	r.broadcastLocked(Event{Kind: EventSeatedPlayers, Payload: r.seatedPayloadLocked()})
	// The newcomer is not ready, so a running auto-start countdown is void.
	r.reevaluateAutoStartLocked()
	return nil
}

// PreSeat reserves a seat for a player who has not connected yet. Used by the
// tournament manager when spawning match rooms.
func (r *Room) PreSeat(userID, username string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.state != StateLobby || len(r.seats) >= maxSeats {
		return
	}
	if r.findSeatLocked(userID, username) != nil {
		return
	}
	r.insertSeatLocked(&Seat{
		PlayerID: r.lowestFreePlayerIDLocked(),
		UserID:   userID,
		Username: username,
	})
}

// Leave frees the player's seat before a game starts, or after it finished.
// Mid-game departures go through the disconnect supervisor instead.
func (r *Room) Leave(userID string) {
	r.mu.Lock()
	defer r.mu.Unlock()

	seat := r.findSeatLocked(userID, "")
	if seat == nil {
		return
	}

	switch r.state {
	case StateLobby, StateFinished:
		r.removeSeatLocked(seat)
		r.reevaluateAutoStartLocked()
		r.broadcastLocked(Event{Kind: EventSeatedPlayers, Payload: r.seatedPayloadLocked()})
		if r.emptyLocked() && r.onEmpty != nil {
			r.onEmpty(r)
		}
	default:
		// Mid-game: drop the connection, keep the seat. The supervisor's
		// grace timer decides what happens next.
		seat.Conn = nil
		r.markConnectedAsync(userID, false)
		r.broadcastLocked(Event{Kind: EventSeatedPlayers, Payload: r.seatedPayloadLocked()})
	}
}

// SetReady records a readiness flag. When at least two players are seated and
// every seat is ready, the auto-start countdown is armed; any readiness
// change cancels it first.
func (r *Room) SetReady(userID string, ready bool) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if r.state != StateLobby {
		return ErrGameInProgress
	}
	seat := r.findSeatLocked(userID, "")
	if seat == nil {
		return ErrNotSeated
	}
	seat.Ready = ready
	r.broadcastLocked(Event{Kind: EventReadyStatus, Payload: ReadyStatusPayload{
		PlayerID: seat.PlayerID, Ready: ready,
	}})
	r.reevaluateAutoStartLocked()
	return nil
}

// Move validates and applies a play for the acting player.
func (r *Room) Move(userID string, cards []domain.Card) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if r.state != StatePlaying {
		return ErrGameNotStarted
	}
	seat, idx := r.findSeatIndexLocked(userID)
	if seat == nil {
		return ErrNotSeated
	}
	if idx != r.current {
		return ErrNotYourTurn
	}

	play := domain.Evaluate(cards)
	if play.Category == domain.Invalid {
		return ErrInvalidCardCombination
	}
	remaining, owned := domain.RemoveCards(seat.Hand, cards)
	if !owned {
		return ErrIllegalPlay
	}
	if !domain.CanFollow(cards, r.lastPlay) {
		return ErrIllegalPlay
	}

	seat.Hand = remaining
	r.lastPlay = &play
	r.passCount = 0
	r.cancelTurnTimerLocked()

	r.broadcastLocked(Event{Kind: EventOpponentMove, Payload: OpponentMovePayload{
		PlayerID:  seat.PlayerID,
		Cards:     play.Cards,
		Category:  play.Category.String(),
		CardsLeft: len(remaining),
	}})
	r.sendToLocked(seat, Event{Kind: EventHand, Payload: HandPayload{Cards: seat.Hand}})

	if len(remaining) == 0 {
		r.resolveRoundLocked(idx)
		return nil
	}
	r.advanceTurnLocked()
	return nil
}

// Pass records a voluntary pass for the acting player.
func (r *Room) Pass(userID string) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if r.state != StatePlaying {
		return ErrGameNotStarted
	}
	seat, idx := r.findSeatIndexLocked(userID)
	if seat == nil {
		return ErrNotSeated
	}
	if idx != r.current {
		return ErrNotYourTurn
	}
	if r.lastPlay == nil {
		return ErrNothingToPassOn
	}

	r.cancelTurnTimerLocked()
	r.passLocked(idx, false)
	return nil
}

// Chat relays a table message to every connected seat.
func (r *Room) Chat(userID, text string) {
	r.mu.Lock()
	defer r.mu.Unlock()

	seat := r.findSeatLocked(userID, "")
	if seat == nil || text == "" {
		return
	}
	r.broadcastLocked(Event{Kind: EventChat, Payload: ChatPayload{
		PlayerID: seat.PlayerID, Username: seat.Username, Text: text,
	}})
}

// passLocked applies one pass (voluntary or forced) for the seat whose turn
// it is, clearing the table when everyone else has passed on the last play.
func (r *Room) passLocked(idx int, forced bool) {
	r.passCount++
	cleared := false
	if r.lastPlay != nil && r.passCount >= len(r.seats)-1 {
		r.lastPlay = nil
		r.passCount = 0
		cleared = true
	}
	r.broadcastLocked(Event{Kind: EventOpponentPass, Payload: OpponentPassPayload{
		PlayerID: r.seats[idx].PlayerID, Forced: forced, TableCleared: cleared,
	}})
	r.advanceTurnLocked()
}

// advanceTurnLocked rotates to the next seat. Connectivity never skips a
// seat outright, but a seat the supervisor has marked away auto-passes
// without waiting out a timer. If the rotation finds nobody reachable the
// game settles as abandoned.
func (r *Room) advanceTurnLocked() {
	if r.state != StatePlaying {
		return
	}
	for i := 0; i < len(r.seats); i++ {
		r.current = (r.current + 1) % len(r.seats)
		seat := r.seats[r.current]
		if seat.Away && seat.Conn == nil {
			r.passCount++
			cleared := false
			if r.lastPlay != nil && r.passCount >= len(r.seats)-1 {
				r.lastPlay = nil
				r.passCount = 0
				cleared = true
			}
			r.broadcastLocked(Event{Kind: EventOpponentPass, Payload: OpponentPassPayload{
				PlayerID: seat.PlayerID, Forced: true, TableCleared: cleared,
			}})
			continue
		}
		r.announceTurnLocked()
		r.startTurnTimerLocked()
		return
	}
	r.settleAbandonedLocked()
}

func (r *Room) announceTurnLocked() {
	payload := TurnPayload{
		PlayerID:  r.seats[r.current].PlayerID,
		FreshLead: r.lastPlay == nil,
	}
	if r.lastPlay != nil {
		payload.LastPlay = r.lastPlay.Cards
	}
	r.broadcastLocked(Event{Kind: EventTurn, Payload: payload})
}

// State returns the room's lifecycle stage.
func (r *Room) State() State {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.state
}

// Started reports whether cards are in play.
func (r *Room) Started() bool {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.state == StatePlaying || r.state == StateRoundSettling || r.state == StateStarting
}

// GameID returns the identifier of the current game, empty pre-start.
func (r *Room) GameID() string {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.gameID
}

// BuyIn returns the room's buy-in amount.
func (r *Room) BuyIn() int64 {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.buyIn
}

// Seated reports whether the user occupies a seat.
func (r *Room) Seated(userID string) bool {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.findSeatLocked(userID, "") != nil
}

// --- seat bookkeeping ---

func (r *Room) findSeatLocked(userID, username string) *Seat {
	for _, s := range r.seats {
		if userID != "" && s.UserID == userID {
			return s
		}
		if userID == "" && username != "" && s.UserID == "" && s.Username == username {
			return s
		}
	}
	return nil
}

func (r *Room) findSeatIndexLocked(userID string) (*Seat, int) {
	for i, s := range r.seats {
		if s.UserID == userID {
			return s, i
		}
	}
	return nil, -1
}

func (r *Room) lowestFreePlayerIDLocked() int {
	for id := 1; id <= maxSeats; id++ {
		taken := false
		for _, s := range r.seats {
			if s.PlayerID == id {
				taken = true
				break
			}
		}
		if !taken {
			return id
		}
	}
	return maxSeats
}

// insertSeatLocked keeps seats ordered by PlayerID so turn rotation is
// stable across joins and leaves.
func (r *Room) insertSeatLocked(seat *Seat) {
	at := len(r.seats)
	for i, s := range r.seats {
		if seat.PlayerID < s.PlayerID {
			at = i
			break
		}
	}
	r.seats = append(r.seats, nil)
	copy(r.seats[at+1:], r.seats[at:])
	r.seats[at] = seat
}

func (r *Room) removeSeatLocked(seat *Seat) {
	for i, s := range r.seats {
		if s == seat {
			r.seats = append(r.seats[:i], r.seats[i+1:]...)
			return
		}
	}
}

func (r *Room) emptyLocked() bool {
	if len(r.seats) == 0 {
		return true
	}
	if r.state != StateFinished {
		return false
	}
	for _, s := range r.seats {
		if s.Conn != nil {
			return false
		}
	}
	return true
}

func (r *Room) seatedPayloadLocked() SeatedPlayersPayload {
	infos := make([]SeatInfo, len(r.seats))
	for i, s := range r.seats {
		infos[i] = SeatInfo{
			PlayerID:  s.PlayerID,
			UserID:    s.UserID,
			Username:  s.Username,
			Connected: s.Conn != nil,
			Ready:     s.Ready,
			CardCount: len(s.Hand),
			Points:    s.Points,
		}
	}
	return SeatedPlayersPayload{Seats: infos}
}

// --- outbound delivery ---

// broadcastLocked fans an event out to connected seats. Sends are
// fire-and-forget; a slow connection must never stall the room.
func (r *Room) broadcastLocked(ev Event) {
	if len(ev.Recipients) == 0 {
		for _, s := range r.seats {
			if s.Conn != nil {
				s.Conn.Send(ev)
			}
		}
		return
	}
	for _, uid := range ev.Recipients {
		for _, s := range r.seats {
			if s.UserID == uid && s.Conn != nil {
				s.Conn.Send(ev)
			}
		}
	}
}

func (r *Room) sendToLocked(seat *Seat, ev Event) {
	if seat.Conn != nil {
		seat.Conn.Send(ev)
	}
}

func (r *Room) rebindLocked(seat *Seat, conn Conn) {
	seat.Conn = conn
	seat.Away = false
	r.sendToLocked(seat, Event{Kind: EventRoomJoined, Payload: RoomJoinedPayload{
		RoomID: r.ID, PlayerID: seat.PlayerID, BuyIn: r.buyIn, Rejoined: true,
	}})
	r.broadcastLocked(Event{Kind: EventSeatedPlayers, Payload: r.seatedPayloadLocked()})
	if r.state == StatePlaying || r.state == StateRoundSettling {
		r.sendToLocked(seat, Event{Kind: EventHand, Payload: HandPayload{Cards: seat.Hand}})
		payload := TurnPayload{PlayerID: r.seats[r.current].PlayerID, FreshLead: r.lastPlay == nil}
		if r.lastPlay != nil {
			payload.LastPlay = r.lastPlay.Cards
		}
		r.sendToLocked(seat, Event{Kind: EventTurn, Payload: payload})
	}
}

func (r *Room) markConnectedAsync(userID string, connected bool) {
	if r.store == nil {
		return
	}
	gameID := r.gameID
	go func() {
		ctx, cancel := context.WithTimeout(context.Background(), 3*time.Second)
		defer cancel()
		if err := r.store.MarkConnected(ctx, userID, gameID, connected); err != nil {
			r.log.Error().Err(err).Str("user_id", userID).Msg("mark connected failed")
		}
	}()
}

func uuidString() string {
	return uuid.NewString()
}
