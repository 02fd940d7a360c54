package tournament

import (
	"context"
	"fmt"
	"sync"
	"testing"
	"time"

	"github.com/jonboulle/clockwork"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"thirteen/internal/config"
	"thirteen/internal/ports"
)

type fakeLedger struct {
	mu       sync.Mutex
	balances map[string]int64
	credits  map[string]int64
	results  map[string]string
}

func newFakeLedger() *fakeLedger {
	return &fakeLedger{
		balances: make(map[string]int64),
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

func (l *fakeLedger) credited(userID string) int64 {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.credits[userID]
}

// fakeSpawner hands out sequential room ids and records each spawn.
type fakeSpawner struct {
	mu     sync.Mutex
	next   int
	spawns map[string][2]string // roomID -> userIDs
}

func newFakeSpawner() *fakeSpawner {
	return &fakeSpawner{spawns: make(map[string][2]string)}
}

func (s *fakeSpawner) SpawnMatchRoom(_ string, userIDs, _ [2]string) string {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.next++
	roomID := fmt.Sprintf("room-%d", s.next)
	s.spawns[roomID] = userIDs
	return roomID
}

func (s *fakeSpawner) count() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.spawns)
}

func testTier(maxPlayers int) config.Tier {
	return config.Tier{
		ID:            "test",
		BuyIn:         100,
		MaxPlayers:    maxPlayers,
		PrizePoolSeed: 0,
		StartDelayMin: 1,
	}
}

type managerHarness struct {
	clock   *clockwork.FakeClock
	ledger  *fakeLedger
	spawner *fakeSpawner
	mgr     *Manager
}

func newManagerHarness() *managerHarness {
	fc := clockwork.NewFakeClock()
	ledger := newFakeLedger()
	spawner := newFakeSpawner()
	return &managerHarness{
		clock:   fc,
		ledger:  ledger,
		spawner: spawner,
		mgr:     NewManager(fc, ledger, spawner, zerolog.Nop()),
	}
}

// register enrolls users u1..un, funding each first.
func (h *managerHarness) register(t *testing.T, tier config.Tier, n int) string {
	t.Helper()
	var id string
	for i := 1; i <= n; i++ {
		uid := fmt.Sprintf("u%d", i)
		h.ledger.balances[uid] = tier.BuyIn
		got, err := h.mgr.Register(context.Background(), tier, uid, "p"+uid)
		require.NoError(t, err)
		if id == "" {
			id = got
		} else {
			require.Equal(t, id, got, "same tier must pool into one tournament")
		}
	}
	return id
}

// activate advances past any pending start countdown.
func (h *managerHarness) activate(t *testing.T, id string) {
	t.Helper()
	h.clock.Advance(2 * time.Minute)
	require.Eventually(t, func() bool {
		tour, ok := h.mgr.Tournament(id)
		if !ok {
			return false
		}
		h.mgr.mu.Lock()
		defer h.mgr.mu.Unlock()
		return tour.Status == StatusActive
	}, time.Second, 5*time.Millisecond)
}

// playOut reports every active match with the first seat winning until the
// tournament finishes, returning the champion's user id from the recorded
// result. A finished event is evicted from the manager.
func (h *managerHarness) playOut(t *testing.T, id string) string {
	t.Helper()
	for i := 0; i < 16; i++ {
		h.mgr.mu.Lock()
		tour, ok := h.mgr.active[id]
		if !ok {
			h.mgr.mu.Unlock()
			h.ledger.mu.Lock()
			winner := h.ledger.results[id]
			h.ledger.mu.Unlock()
			return winner
		}
		round := tour.Rounds[len(tour.Rounds)-1]
		var pending []*Match
		for _, m := range round {
			if m.Status == MatchActive {
				pending = append(pending, m)
			}
		}
		h.mgr.mu.Unlock()
		for _, m := range pending {
			h.mgr.ReportMatchResult(id, m.RoomID, m.Players[0].UserID)
		}
	}
	t.Fatal("tournament did not finish")
	return ""
}

func TestRegisterDebitsBuyIn(t *testing.T) {
	h := newManagerHarness()
	tier := testTier(8)
	h.ledger.balances["u1"] = 250

	id, err := h.mgr.Register(context.Background(), tier, "u1", "p1")
	require.NoError(t, err)

	tour, ok := h.mgr.Tournament(id)
	require.True(t, ok)
	assert.Equal(t, int64(100), tour.PrizePool)
	assert.Equal(t, int64(150), h.ledger.balances["u1"])

	_, err = h.mgr.Register(context.Background(), tier, "u1", "p1")
	assert.ErrorIs(t, err, ErrAlreadyRegistered)

	_, err = h.mgr.Register(context.Background(), tier, "broke", "pb")
	assert.ErrorIs(t, err, ErrInsufficientBalance)
}

func TestUnderfilledTournamentRefunds(t *testing.T) {
	h := newManagerHarness()
	tier := testTier(8)
	id := h.register(t, tier, 1)

	h.clock.Advance(2 * time.Minute)
	require.Eventually(t, func() bool {
		_, ok := h.mgr.Tournament(id)
		return !ok
	}, time.Second, 5*time.Millisecond)

	assert.Equal(t, tier.BuyIn, h.ledger.credited("u1"))
	assert.Zero(t, h.spawner.count(), "no match may spawn for a dissolved event")
}

func TestFullFieldStartsEarly(t *testing.T) {
	h := newManagerHarness()
	tier := testTier(2)
	id := h.register(t, tier, 2)

	tour, ok := h.mgr.Tournament(id)
	require.True(t, ok)
	h.mgr.mu.Lock()
	status := tour.Status
	h.mgr.mu.Unlock()
	assert.Equal(t, StatusStarting, status)

	// The shortened countdown runs, not the tier's full delay.
	h.clock.Advance(fullStartDelay + time.Second)
	require.Eventually(t, func() bool {
		h.mgr.mu.Lock()
		defer h.mgr.mu.Unlock()
		return tour.Status == StatusActive
	}, time.Second, 5*time.Millisecond)
	assert.Equal(t, 1, h.spawner.count())
}

func TestByeAdvancesOddEntrant(t *testing.T) {
	h := newManagerHarness()
	tier := testTier(8)
	id := h.register(t, tier, 3)
	h.activate(t, id)

	// Three entrants: one real match plus a bye for u3.
	assert.Equal(t, 1, h.spawner.count())

	h.mgr.mu.Lock()
	tour := h.mgr.active[id]
	round := tour.Rounds[0]
	require.Len(t, round, 2)
	assert.True(t, round[1].Bye)
	assert.Equal(t, "u3", round[1].Winner)
	firstRoom := round[0].RoomID
	h.mgr.mu.Unlock()

	// u2 upsets u1 and meets u3 in the final.
	h.mgr.ReportMatchResult(id, firstRoom, "u2")

	h.mgr.mu.Lock()
	require.Len(t, tour.Rounds, 2)
	final := tour.Rounds[1][0]
	ids := [2]string{final.Players[0].UserID, final.Players[1].UserID}
	h.mgr.mu.Unlock()
	assert.Equal(t, [2]string{"u2", "u3"}, ids)
}

func TestSmallFieldPaysTwoPlaces(t *testing.T) {
	h := newManagerHarness()
	tier := testTier(4)
	id := h.register(t, tier, 4)
	h.activate(t, id)

	champion := h.playOut(t, id)
	assert.Equal(t, "u1", champion)

	// Pool 400: 70% to the champion, 30% to the runner-up.
	assert.Equal(t, int64(280), h.ledger.credited("u1"))
	assert.Equal(t, int64(120), h.ledger.credited("u3"))

	h.ledger.mu.Lock()
	assert.Equal(t, "u1", h.ledger.results[id])
	h.ledger.mu.Unlock()
}

func TestSixteenFieldPaysThreePlaces(t *testing.T) {
	h := newManagerHarness()
	tier := testTier(16)
	id := h.register(t, tier, 16)
	h.activate(t, id)

	champion := h.playOut(t, id)
	assert.Equal(t, "u1", champion)

	// Pool 1600 split 50/30/20.
	assert.Equal(t, int64(800), h.ledger.credited("u1"))
	assert.Equal(t, int64(480), h.ledger.credited("u9"))
	total := h.ledger.credited("u1") + h.ledger.credited("u9")
	var third int64
	for i := 2; i <= 16; i++ {
		uid := fmt.Sprintf("u%d", i)
		if uid == "u9" {
			continue
		}
		third += h.ledger.credited(uid)
	}
	assert.Equal(t, int64(1600*20/100), third)
	assert.Equal(t, int64(1600), total+third)
}

func TestAbandonedMatchAdvancesFirstSeat(t *testing.T) {
	h := newManagerHarness()
	tier := testTier(2)
	id := h.register(t, tier, 2)
	h.activate(t, id)

	h.mgr.mu.Lock()
	roomID := h.mgr.active[id].Rounds[0][0].RoomID
	h.mgr.mu.Unlock()

	h.mgr.ReportMatchResult(id, roomID, "")

	// The first seat advanced, won, and the finished event was evicted.
	_, ok := h.mgr.Tournament(id)
	assert.False(t, ok, "finished tournaments must not accumulate")

	h.ledger.mu.Lock()
	assert.Equal(t, "u1", h.ledger.results[id])
	h.ledger.mu.Unlock()
	assert.Equal(t, int64(200*70/100), h.ledger.credited("u1"))
}
