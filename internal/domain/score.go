package domain

// DefaultEliminationThreshold is the running total at which a seat is
// eliminated and the game ends.
const DefaultEliminationThreshold = 30

// RoundPoints scores one seat's leftover hand at round end. The round winner
// holds zero cards and scores zero. Large leftovers are punished: 10-12 cards
// count double and an untouched 13-card hand counts triple.
func RoundPoints(handSize int) int {
	switch {
	case handSize == HandSize:
		return handSize * 3
	case handSize >= 10:
		return handSize * 2
	default:
		return handSize
	}
}

// GameWinner returns the seat with the lowest running total. Ties break to
// the lowest seat index so settlement is deterministic.
func GameWinner(points []int) int {
	winner := 0
	for i, p := range points {
		if p < points[winner] {
			winner = i
		}
	}
	return winner
}
