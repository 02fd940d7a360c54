package session

import (
	"sync"
	"time"
)

// countdown is a cancellable per-second ticker handle. Cancel is idempotent
// and a no-op after the countdown has already fired.
type countdown struct {
	stop chan struct{}
	once sync.Once
}

func newCountdown() *countdown {
	return &countdown{stop: make(chan struct{})}
}

func (c *countdown) cancel() {
	if c == nil {
		return
	}
	c.once.Do(func() { close(c.stop) })
}

// startTurnTimerLocked arms the countdown for the current seat. A tick event
// goes out each second; expiry forces a pass on the seat's behalf. The
// countdown handle is compared on every re-entry so a cancelled timer that
// already woke up becomes a no-op.
func (r *Room) startTurnTimerLocked() {
	r.cancelTurnTimerLocked()
	c := newCountdown()
	r.turnTimer = c
	seatIdx := r.current

	go func() {
		remaining := r.cfg.TurnSeconds
		for {
			select {
			case <-r.clock.After(time.Second):
				remaining--
				r.mu.Lock()
				if r.turnTimer != c || r.state != StatePlaying {
					r.mu.Unlock()
					return
				}
				if remaining > 0 {
					r.broadcastLocked(Event{Kind: EventTimerUpdate, Payload: TimerUpdatePayload{
						PlayerID:  r.seats[seatIdx].PlayerID,
						Remaining: remaining,
					}})
					r.mu.Unlock()
					continue
				}
				// Expired: the seat pays with a forced pass. The timer handle
				// still matching means no move was accepted in the meantime,
				// so seatIdx is necessarily the current seat.
				r.turnTimer = nil
				r.passLocked(seatIdx, true)
				r.mu.Unlock()
				return
			case <-c.stop:
				return
			}
		}
	}()
}

func (r *Room) cancelTurnTimerLocked() {
	r.turnTimer.cancel()
	r.turnTimer = nil
}

// reevaluateAutoStartLocked cancels any pending auto-start countdown and
// re-arms it when the lobby qualifies: at least two seats, all of them ready.
func (r *Room) reevaluateAutoStartLocked() {
	if r.autoStart != nil {
		r.autoStart.cancel()
		r.autoStart = nil
		r.broadcastLocked(Event{Kind: EventAutoStartCountdown, Payload: AutoStartCountdownPayload{
			Cancelled: true,
		}})
	}
	if r.state != StateLobby || len(r.seats) < 2 {
		return
	}
	for _, s := range r.seats {
		if !s.Ready {
			return
		}
	}
	r.startAutoStartLocked()
}

func (r *Room) startAutoStartLocked() {
	c := newCountdown()
	r.autoStart = c

	r.broadcastLocked(Event{Kind: EventAutoStartCountdown, Payload: AutoStartCountdownPayload{
		Remaining: r.cfg.AutoStartSeconds,
	}})

	go func() {
		remaining := r.cfg.AutoStartSeconds
		for {
			select {
			case <-r.clock.After(time.Second):
				remaining--
				r.mu.Lock()
				if r.autoStart != c || r.state != StateLobby {
					r.mu.Unlock()
					return
				}
				if remaining > 0 {
					r.broadcastLocked(Event{Kind: EventAutoStartCountdown, Payload: AutoStartCountdownPayload{
						Remaining: remaining,
					}})
					r.mu.Unlock()
					continue
				}
				r.autoStart = nil
				r.startGameLocked()
				r.mu.Unlock()
				return
			case <-c.stop:
				return
			}
		}
	}()
}
