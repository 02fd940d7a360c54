package session

import "thirteen/internal/domain"

// EventKind identifies outbound events delivered to connections.
type EventKind string

const (
	EventRoomJoined         EventKind = "room_joined"
	EventSeatedPlayers      EventKind = "seated_players"
	EventReadyStatus        EventKind = "ready_status"
	EventHand               EventKind = "hand"
	EventTurn               EventKind = "turn"
	EventOpponentMove       EventKind = "opponent_move"
	EventOpponentPass       EventKind = "opponent_pass"
	EventRoundOver          EventKind = "round_over"
	EventGameOver           EventKind = "game_over"
	EventTimerUpdate        EventKind = "timer_update"
	EventAutoStartCountdown EventKind = "auto_start_countdown"
	EventChat               EventKind = "chat"
	EventError              EventKind = "error"
)

// Event is an outbound message with optional targeted recipients.
type Event struct {
	Kind       EventKind
	Payload    any
	Recipients []string // user IDs; empty means every connected seat
}

// Conn delivers events to one connection. Send must never block the room:
// implementations buffer or drop.
type Conn interface {
	Send(ev Event)
}

// SeatInfo is the public view of one seat.
type SeatInfo struct {
	PlayerID  int    `json:"playerId"`
	UserID    string `json:"userId,omitempty"`
	Username  string `json:"username"`
	Connected bool   `json:"connected"`
	Ready     bool   `json:"ready"`
	CardCount int    `json:"cardCount"`
	Points    int    `json:"points"`
}

type RoomJoinedPayload struct {
	RoomID   string `json:"roomId"`
	PlayerID int    `json:"playerId"`
	BuyIn    int64  `json:"buyIn"`
	Rejoined bool   `json:"rejoined"`
}

type SeatedPlayersPayload struct {
	Seats []SeatInfo `json:"seats"`
}

type ReadyStatusPayload struct {
	PlayerID int  `json:"playerId"`
	Ready    bool `json:"ready"`
}

type HandPayload struct {
	Cards []domain.Card `json:"cards"`
}

type TurnPayload struct {
	PlayerID  int           `json:"playerId"`
	LastPlay  []domain.Card `json:"lastPlay,omitempty"`
	FreshLead bool          `json:"freshLead"` // true when the table was just cleared
}

type OpponentMovePayload struct {
	PlayerID  int           `json:"playerId"`
	Cards     []domain.Card `json:"cards"`
	Category  string        `json:"category"`
	CardsLeft int           `json:"cardsLeft"`
}

type OpponentPassPayload struct {
	PlayerID     int  `json:"playerId"`
	Forced       bool `json:"forced"`
	TableCleared bool `json:"tableCleared"`
}

type RoundOverPayload struct {
	WinnerPlayerID int         `json:"winnerPlayerId"`
	RoundPoints    map[int]int `json:"roundPoints"` // playerId -> points added
	TotalPoints    map[int]int `json:"totalPoints"` // playerId -> running total
}

type GameOverPayload struct {
	WinnerPlayerID int         `json:"winnerPlayerId"`
	WinnerUserID   string      `json:"winnerUserId"`
	TotalPoints    map[int]int `json:"totalPoints"`
	Payout         int64       `json:"payout"`
	Abandoned      bool        `json:"abandoned"`
	CompleteSuit   bool        `json:"completeSuit"`
}

type TimerUpdatePayload struct {
	PlayerID  int `json:"playerId"`
	Remaining int `json:"remaining"`
}

type AutoStartCountdownPayload struct {
	Remaining int  `json:"remaining"`
	Cancelled bool `json:"cancelled"`
}

type ChatPayload struct {
	PlayerID int    `json:"playerId"`
	Username string `json:"username"`
	Text     string `json:"text"`
}

type ErrorPayload struct {
	Code    string `json:"code"`
	Message string `json:"message"`
}
