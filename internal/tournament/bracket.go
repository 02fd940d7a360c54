package tournament

// MatchStatus tracks one bracket match through its lifetime.
type MatchStatus int

const (
	MatchPending MatchStatus = iota
	MatchActive
	MatchFinished
)

// Entrant is one registered player.
type Entrant struct {
	UserID   string
	Username string
}

// Match is one pairing in a bracket round, realized by spawning one room.
// A bye match has a single player and finishes immediately.
type Match struct {
	Players [2]Entrant
	Bye     bool
	Winner  string
	Status  MatchStatus
	RoomID  string
}

// buildRound pairs entrants in order. An odd count leaves the last entrant
// with a bye that auto-advances them.
func buildRound(entrants []Entrant) []*Match {
	matches := make([]*Match, 0, (len(entrants)+1)/2)
	for i := 0; i < len(entrants); i += 2 {
		if i+1 >= len(entrants) {
			m := &Match{Bye: true, Status: MatchFinished}
			m.Players[0] = entrants[i]
			m.Winner = entrants[i].UserID
			matches = append(matches, m)
			break
		}
		m := &Match{Status: MatchPending}
		m.Players[0] = entrants[i]
		m.Players[1] = entrants[i+1]
		matches = append(matches, m)
	}
	return matches
}

// roundFinished reports whether every match in the round has a winner.
func roundFinished(round []*Match) bool {
	for _, m := range round {
		if m.Status != MatchFinished {
			return false
		}
	}
	return true
}

// roundWinners collects winners in bracket order.
func roundWinners(round []*Match) []Entrant {
	winners := make([]Entrant, 0, len(round))
	for _, m := range round {
		for _, p := range m.Players {
			if p.UserID == m.Winner && p.UserID != "" {
				winners = append(winners, p)
				break
			}
		}
	}
	return winners
}
