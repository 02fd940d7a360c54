package session

// Supervisor-facing operations. The disconnect supervisor drives recovery
// through these; the room never calls back into it.

// MarkUnreachable drops a seat's connection without touching game state.
// Returns false when the user holds no seat here.
func (r *Room) MarkUnreachable(userID string) bool {
	r.mu.Lock()
	defer r.mu.Unlock()

	seat := r.findSeatLocked(userID, "")
	if seat == nil {
		return false
	}
	seat.Conn = nil
	r.markConnectedAsync(userID, false)
	r.broadcastLocked(Event{Kind: EventSeatedPlayers, Payload: r.seatedPayloadLocked()})
	return true
}

// Reconnect rebinds a returning player's connection and replays the state
// they need: seat map, private hand, and the current turn. Hand, points, and
// turn position are exactly as they were at disconnect.
func (r *Room) Reconnect(userID string, conn Conn) bool {
	r.mu.Lock()
	defer r.mu.Unlock()

	seat := r.findSeatLocked(userID, "")
	if seat == nil {
		return false
	}
	r.rebindLocked(seat, conn)
	r.markConnectedAsync(userID, true)
	return true
}

// ForceFold is the grace-timer expiry action: the seat is marked away so it
// auto-passes from now on, and if it is currently the seat's turn a forced
// pass is applied immediately rather than waiting out the turn timer.
func (r *Room) ForceFold(userID string) {
	r.mu.Lock()
	defer r.mu.Unlock()

	if r.state != StatePlaying {
		return
	}
	seat, idx := r.findSeatIndexLocked(userID)
	if seat == nil || seat.Conn != nil {
		// Unknown seat, or the player beat the timer back. Stale fire.
		return
	}
	seat.Away = true
	r.log.Info().Str("game_id", r.gameID).Str("user_id", userID).Msg("grace period expired, seat folded")
	if idx == r.current {
		r.cancelTurnTimerLocked()
		r.passLocked(idx, true)
	}
}

// AllUnreachable reports whether a started game has no connected seat left.
func (r *Room) AllUnreachable() bool {
	r.mu.Lock()
	defer r.mu.Unlock()

	if r.state != StatePlaying && r.state != StateRoundSettling {
		return false
	}
	for _, s := range r.seats {
		if s.Conn != nil {
			return false
		}
	}
	return true
}

// SettleAbandoned closes a started game with no payout. Used when every seat
// has gone unreachable.
func (r *Room) SettleAbandoned() {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.state == StatePlaying || r.state == StateRoundSettling {
		r.settleAbandonedLocked()
	}
}
