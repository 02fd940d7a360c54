package domain

import "math/rand"

// HandSize is the number of cards dealt to each seat.
const HandSize = 13

// NewDeck returns the 52 distinct cards in power order.
func NewDeck() []Card {
	deck := make([]Card, 0, 52)
	for r := Rank3; r <= Rank2; r++ {
		for s := Diamond; s <= Spade; s++ {
			deck = append(deck, Card{Rank: r, Suit: s})
		}
	}
	return deck
}

// Deal shuffles a fresh deck and deals 13 cards to each of n seats.
// Each hand comes back sorted by power. With fewer than 4 seats the
// remainder of the deck is not used.
func Deal(rng *rand.Rand, n int) [][]Card {
	deck := NewDeck()
	rng.Shuffle(len(deck), func(i, j int) { deck[i], deck[j] = deck[j], deck[i] })

	hands := make([][]Card, n)
	for i := 0; i < n; i++ {
		hand := append([]Card(nil), deck[i*HandSize:(i+1)*HandSize]...)
		SortByPower(hand)
		hands[i] = hand
	}
	return hands
}

// IsCompleteSuit reports whether a freshly dealt hand holds all 13 ranks of
// one suit, the instant game-win condition.
func IsCompleteSuit(hand []Card) bool {
	if len(hand) != HandSize {
		return false
	}
	suit := hand[0].Suit
	var seen [13]bool
	for _, c := range hand {
		if c.Suit != suit || seen[c.Rank] {
			return false
		}
		seen[c.Rank] = true
	}
	return true
}

// FirstLeader picks the seat that leads the very first round: whoever holds
// the lowest 3 by suit order, falling back to the single lowest card when no
// hand contains a 3. Rank 3 occupies the lowest power band, so one scan for
// the minimum-power card satisfies both rules.
func FirstLeader(hands [][]Card) int {
	leader := 0
	lowest := 53 * 4
	for i, hand := range hands {
		for _, c := range hand {
			if p := c.Power(); p < lowest {
				lowest = p
				leader = i
			}
		}
	}
	return leader
}
