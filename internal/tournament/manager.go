package tournament

import (
	"context"
	"errors"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/jonboulle/clockwork"
	"github.com/rs/zerolog"

	"thirteen/internal/config"
	"thirteen/internal/ports"
)

// Status is the lifecycle stage of a tournament.
type Status int

const (
	StatusWaiting Status = iota
	StatusStarting
	StatusActive
	StatusFinished
)

// fullStartDelay is how long registration stays open once the field fills.
const fullStartDelay = 10 * time.Second

var (
	ErrUnknownTier             = errors.New("unknown tournament tier")
	ErrTournamentFull          = errors.New("tournament is full")
	ErrNotAcceptingRegistrants = errors.New("tournament not accepting registrations")
	ErrAlreadyRegistered       = errors.New("already registered")
	ErrInsufficientBalance     = errors.New("insufficient balance")
)

// RoomSpawner creates one room per bracket match. Implemented by the session
// registry.
type RoomSpawner interface {
	SpawnMatchRoom(tournamentID string, userIDs, usernames [2]string) string
}

// Tournament is one single-elimination event within a buy-in tier.
type Tournament struct {
	ID         string
	Tier       config.Tier
	Status     Status
	PrizePool  int64
	Entrants   []Entrant
	Rounds     [][]*Match
	startTimer clockwork.Timer
}

// Manager pools registrations by buy-in tier, builds brackets, spawns one
// session per match, and advances winners to the final payout.
type Manager struct {
	mu      sync.Mutex
	clock   clockwork.Clock
	ledger  ports.LedgerPort
	spawner RoomSpawner
	log     zerolog.Logger

	active map[string]*Tournament // tournamentID -> tournament
	byTier map[string]string      // tierID -> open tournamentID
}

// NewManager constructs an empty tournament manager.
func NewManager(clock clockwork.Clock, ledger ports.LedgerPort, spawner RoomSpawner, log zerolog.Logger) *Manager {
	return &Manager{
		clock:   clock,
		ledger:  ledger,
		spawner: spawner,
		log:     log,
		active:  make(map[string]*Tournament),
		byTier:  make(map[string]string),
	}
}

// Register debits the tier buy-in and enters the user into the tier's open
// tournament, creating one when none is pooling. The first registrant arms
// the tier's start countdown; hitting capacity arms a short final countdown
// instead.
func (m *Manager) Register(ctx context.Context, tier config.Tier, userID, username string) (string, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	t := m.openTournamentLocked(tier)
	if t.Status != StatusWaiting && t.Status != StatusStarting {
		return "", ErrNotAcceptingRegistrants
	}
	if len(t.Entrants) >= t.Tier.MaxPlayers {
		return "", ErrTournamentFull
	}
	for _, e := range t.Entrants {
		if e.UserID == userID {
			return "", ErrAlreadyRegistered
		}
	}

	if err := m.ledger.Debit(ctx, userID, tier.BuyIn); err != nil {
		if errors.Is(err, ports.ErrInsufficientFunds) {
			return "", ErrInsufficientBalance
		}
		return "", err
	}
	t.Entrants = append(t.Entrants, Entrant{UserID: userID, Username: username})
	t.PrizePool += tier.BuyIn

	switch {
	case len(t.Entrants) == 1:
		m.armStartLocked(t, tier.StartDelay())
	case len(t.Entrants) == t.Tier.MaxPlayers:
		t.Status = StatusStarting
		m.armStartLocked(t, fullStartDelay)
	}
	m.log.Info().Str("tournament_id", t.ID).Str("user_id", userID).Int("entrants", len(t.Entrants)).Msg("tournament registration")
	return t.ID, nil
}

// ReportMatchResult is called by the settlement hook when a match room
// finishes. It records the winner and advances the bracket when the round is
// complete.
func (m *Manager) ReportMatchResult(tournamentID, roomID, winnerUserID string) {
	m.mu.Lock()
	defer m.mu.Unlock()

	t, ok := m.active[tournamentID]
	if !ok || t.Status != StatusActive {
		return
	}
	current := t.Rounds[len(t.Rounds)-1]
	var match *Match
	for _, c := range current {
		if c.RoomID == roomID && c.Status == MatchActive {
			match = c
			break
		}
	}
	if match == nil {
		m.log.Warn().Str("tournament_id", tournamentID).Str("room_id", roomID).Msg("result for unknown match dropped")
		return
	}

	match.Status = MatchFinished
	if winnerUserID == "" {
		// Abandoned match: advance the first seat deterministically.
		winnerUserID = match.Players[0].UserID
	}
	match.Winner = winnerUserID
	m.log.Info().Str("tournament_id", tournamentID).Str("winner", winnerUserID).Msg("match finished")

	if roundFinished(current) {
		m.advanceBracketLocked(t)
	}
}

// Tournament returns a snapshot handle for inspection.
func (m *Manager) Tournament(id string) (*Tournament, bool) {
	m.mu.Lock()
	defer m.mu.Unlock()
	t, ok := m.active[id]
	return t, ok
}

func (m *Manager) openTournamentLocked(tier config.Tier) *Tournament {
	if id, ok := m.byTier[tier.ID]; ok {
		if t, ok := m.active[id]; ok && t.Status == StatusWaiting {
			return t
		}
	}
	t := &Tournament{
		ID:        uuid.NewString(),
		Tier:      tier,
		Status:    StatusWaiting,
		PrizePool: tier.PrizePoolSeed,
	}
	m.active[t.ID] = t
	m.byTier[tier.ID] = t.ID
	return t
}

func (m *Manager) armStartLocked(t *Tournament, delay time.Duration) {
	if t.startTimer != nil {
		t.startTimer.Stop()
	}
	id := t.ID
	t.startTimer = m.clock.AfterFunc(delay, func() {
		m.start(id)
	})
}

func (m *Manager) start(tournamentID string) {
	m.mu.Lock()
	defer m.mu.Unlock()

	t, ok := m.active[tournamentID]
	if !ok || t.Status == StatusActive || t.Status == StatusFinished {
		return
	}
	if len(t.Entrants) < 2 {
		// Not enough players: refund and dissolve.
		m.refundLocked(t)
		t.Status = StatusFinished
		delete(m.byTier, t.Tier.ID)
		delete(m.active, t.ID)
		m.log.Info().Str("tournament_id", t.ID).Msg("tournament dissolved, too few entrants")
		return
	}
	t.Status = StatusActive
	delete(m.byTier, t.Tier.ID)
	t.Rounds = append(t.Rounds, buildRound(t.Entrants))
	m.log.Info().Str("tournament_id", t.ID).Int("entrants", len(t.Entrants)).Msg("tournament started")
	m.launchRoundLocked(t)
}

// launchRoundLocked spawns a room per pending match. If the round is nothing
// but byes it resolves immediately.
func (m *Manager) launchRoundLocked(t *Tournament) {
	round := t.Rounds[len(t.Rounds)-1]
	for _, match := range round {
		if match.Bye {
			continue
		}
		match.RoomID = m.spawner.SpawnMatchRoom(t.ID,
			[2]string{match.Players[0].UserID, match.Players[1].UserID},
			[2]string{match.Players[0].Username, match.Players[1].Username},
		)
		match.Status = MatchActive
	}
	if roundFinished(round) {
		m.advanceBracketLocked(t)
	}
}

func (m *Manager) advanceBracketLocked(t *Tournament) {
	current := t.Rounds[len(t.Rounds)-1]
	winners := roundWinners(current)
	if len(winners) == 1 {
		m.finishLocked(t, winners[0])
		return
	}
	t.Rounds = append(t.Rounds, buildRound(winners))
	m.launchRoundLocked(t)
}

// finishLocked pays out the prize pool. Distribution is tiered by field
// size: 32+ players pay four places 50/30/15/5, 16+ pay three places
// 50/30/20, smaller fields pay two places 70/30.
func (m *Manager) finishLocked(t *Tournament, champion Entrant) {
	t.Status = StatusFinished

	placements := m.placementsLocked(t, champion)
	field := len(t.Entrants)
	var shares []int64
	switch {
	case field >= 32:
		shares = []int64{50, 30, 15, 5}
	case field >= 16:
		shares = []int64{50, 30, 20}
	default:
		shares = []int64{70, 30}
	}

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	for i, share := range shares {
		if i >= len(placements) {
			break
		}
		prize := t.PrizePool * share / 100
		if prize == 0 {
			continue
		}
		if err := m.ledger.Credit(ctx, placements[i].UserID, prize); err != nil {
			m.log.Error().Err(err).Str("user_id", placements[i].UserID).Msg("prize credit failed")
		}
	}
	if err := m.ledger.RecordGameResult(ctx, t.ID, champion.UserID, t.PrizePool); err != nil {
		m.log.Error().Err(err).Str("tournament_id", t.ID).Msg("record tournament result failed")
	}
	// Nothing references a finished event again; keeping it would leak.
	delete(m.active, t.ID)
	m.log.Info().Str("tournament_id", t.ID).Str("champion", champion.UserID).Int64("pool", t.PrizePool).Msg("tournament finished")
}

// placementsLocked orders finishers: champion, final loser, then semifinal
// losers in bracket order.
func (m *Manager) placementsLocked(t *Tournament, champion Entrant) []Entrant {
	placements := []Entrant{champion}
	for i := len(t.Rounds) - 1; i >= 0 && len(placements) < 4; i-- {
		for _, match := range t.Rounds[i] {
			if match.Bye {
				continue
			}
			for _, p := range match.Players {
				if p.UserID != "" && p.UserID != match.Winner {
					placements = append(placements, p)
				}
			}
			if len(placements) >= 4 {
				break
			}
		}
	}
	return placements
}

func (m *Manager) refundLocked(t *Tournament) {
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	for _, e := range t.Entrants {
		if err := m.ledger.Credit(ctx, e.UserID, t.Tier.BuyIn); err != nil {
			m.log.Error().Err(err).Str("user_id", e.UserID).Msg("registration refund failed")
		}
	}
}
