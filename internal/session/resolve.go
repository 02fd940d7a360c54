package session

import (
	"context"
	"time"

	"thirteen/internal/domain"
)

// startGameLocked transitions Lobby -> Starting -> Playing: mints a game id,
// deals the first round, and announces the opening turn.
func (r *Room) startGameLocked() {
	r.state = StateStarting
	r.gameID = uuidString()
	for _, s := range r.seats {
		s.Points = 0
		s.Away = false
	}
	r.log.Info().Str("game_id", r.gameID).Int("seats", len(r.seats)).Msg("game starting")
	if r.onGameStarted != nil {
		r.onGameStarted(r, r.gameID)
	}
	for _, s := range r.seats {
		r.markConnectedAsync(s.UserID, s.Conn != nil)
	}
	r.beginRoundLocked(-1)
}

// beginRoundLocked deals a fresh round. leader is the seat index that leads,
// or -1 on the first round, where the lowest 3 (or lowest card) decides.
func (r *Room) beginRoundLocked(leader int) {
	hands := domain.Deal(r.rng, len(r.seats))
	for i, s := range r.seats {
		s.Hand = hands[i]
	}
	r.lastPlay = nil
	r.passCount = 0

	for _, s := range r.seats {
		r.sendToLocked(s, Event{Kind: EventHand, Payload: HandPayload{Cards: s.Hand}})
	}
	r.broadcastLocked(Event{Kind: EventSeatedPlayers, Payload: r.seatedPayloadLocked()})

	// A freshly dealt complete suit ends the whole game on the spot.
	for i, s := range r.seats {
		if domain.IsCompleteSuit(s.Hand) {
			r.log.Info().Str("game_id", r.gameID).Int("seat", s.PlayerID).Msg("complete suit dealt")
			for j, other := range r.seats {
				if j == i {
					other.Points = 0
				} else {
					other.Points = r.cfg.EliminationThreshold
				}
			}
			r.settleGameLocked(i, true)
			return
		}
	}

	if leader < 0 {
		leader = domain.FirstLeader(hands)
	}
	r.current = leader
	r.state = StatePlaying
	r.announceTurnLocked()
	r.startTurnTimerLocked()
}

// resolveRoundLocked runs after a move empties the winner's hand: scores the
// leftovers, eliminates anyone over the threshold, and either settles the
// game or deals the next round with the round winner leading.
func (r *Room) resolveRoundLocked(winnerIdx int) {
	r.state = StateRoundSettling
	r.cancelTurnTimerLocked()

	roundPts := make(map[int]int, len(r.seats))
	totals := make(map[int]int, len(r.seats))
	for i, s := range r.seats {
		pts := 0
		if i != winnerIdx {
			pts = domain.RoundPoints(len(s.Hand))
		}
		s.Points += pts
		roundPts[s.PlayerID] = pts
		totals[s.PlayerID] = s.Points
	}
	r.broadcastLocked(Event{Kind: EventRoundOver, Payload: RoundOverPayload{
		WinnerPlayerID: r.seats[winnerIdx].PlayerID,
		RoundPoints:    roundPts,
		TotalPoints:    totals,
	}})

	eliminated := false
	for _, s := range r.seats {
		if s.Points >= r.cfg.EliminationThreshold {
			eliminated = true
			break
		}
	}
	if eliminated {
		points := make([]int, len(r.seats))
		for i, s := range r.seats {
			points[i] = s.Points
		}
		r.settleGameLocked(domain.GameWinner(points), false)
		return
	}
	r.beginRoundLocked(winnerIdx)
}

// settleGameLocked finishes the game: buy-ins are collected, the pot minus
// the platform fee goes to the winner, the result is recorded, and the
// composition root is notified so disconnect bookkeeping and any tournament
// bracket can react.
func (r *Room) settleGameLocked(winnerIdx int, completeSuit bool) {
	r.state = StateFinished
	r.cancelTurnTimerLocked()

	winner := r.seats[winnerIdx]
	totals := make(map[int]int, len(r.seats))
	for _, s := range r.seats {
		totals[s.PlayerID] = s.Points
	}

	var payout int64
	if r.buyIn > 0 {
		pot := r.buyIn * int64(len(r.seats))
		fee := pot * int64(r.cfg.PlatformFeePercent) / 100
		payout = pot - fee
	}
	r.applySettlementLocked(winner.UserID, payout)

	r.broadcastLocked(Event{Kind: EventGameOver, Payload: GameOverPayload{
		WinnerPlayerID: winner.PlayerID,
		WinnerUserID:   winner.UserID,
		TotalPoints:    totals,
		Payout:         payout,
		CompleteSuit:   completeSuit,
	}})
	r.log.Info().Str("game_id", r.gameID).Str("winner", winner.UserID).Int64("payout", payout).Msg("game settled")

	if r.onSettled != nil {
		r.onSettled(r, r.gameID, winner.UserID, false)
	}
}

// settleAbandonedLocked closes a started game whose every seat went
// unreachable. No buy-ins move and no winner is recorded.
func (r *Room) settleAbandonedLocked() {
	if r.state == StateFinished {
		return
	}
	r.state = StateFinished
	r.cancelTurnTimerLocked()

	totals := make(map[int]int, len(r.seats))
	for _, s := range r.seats {
		totals[s.PlayerID] = s.Points
	}
	r.broadcastLocked(Event{Kind: EventGameOver, Payload: GameOverPayload{
		TotalPoints: totals,
		Abandoned:   true,
	}})
	r.log.Warn().Str("game_id", r.gameID).Msg("game abandoned, all seats unreachable")

	if r.ledger != nil {
		ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if err := r.ledger.RecordGameResult(ctx, r.gameID, "", 0); err != nil {
			r.log.Error().Err(err).Msg("record abandoned game failed")
		}
	}
	r.clearAssociationsLocked()

	if r.onSettled != nil {
		r.onSettled(r, r.gameID, "", true)
	}
	if r.onEmpty != nil {
		r.onEmpty(r)
	}
}

// applySettlementLocked moves money through the ledger. Settlement is the
// terminal transition for the game, so these calls run inline with their own
// timeout rather than through the room's event flow.
func (r *Room) applySettlementLocked(winnerUserID string, payout int64) {
	if r.ledger == nil {
		return
	}
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	if r.buyIn > 0 {
		for _, s := range r.seats {
			if err := r.ledger.Debit(ctx, s.UserID, r.buyIn); err != nil {
				r.log.Error().Err(err).Str("user_id", s.UserID).Msg("buy-in debit failed")
			}
		}
		if err := r.ledger.Credit(ctx, winnerUserID, payout); err != nil {
			r.log.Error().Err(err).Str("user_id", winnerUserID).Msg("payout credit failed")
		}
	}
	if err := r.ledger.RecordGameResult(ctx, r.gameID, winnerUserID, payout); err != nil {
		r.log.Error().Err(err).Msg("record game result failed")
	}
	r.clearAssociationsLocked()
}

func (r *Room) clearAssociationsLocked() {
	if r.store == nil {
		return
	}
	gameID := r.gameID
	users := make([]string, 0, len(r.seats))
	for _, s := range r.seats {
		users = append(users, s.UserID)
	}
	go func() {
		ctx, cancel := context.WithTimeout(context.Background(), 3*time.Second)
		defer cancel()
		for _, uid := range users {
			if err := r.store.ClearAssociation(ctx, uid, gameID); err != nil {
				r.log.Error().Err(err).Str("user_id", uid).Msg("clear association failed")
			}
		}
	}()
}
