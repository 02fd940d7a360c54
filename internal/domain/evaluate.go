package domain

// Category classifies an evaluated play. The declaration order doubles as the
// strength tier used when two categories of the same size meet, so a 5-card
// Flush outranks any 5-card Straight and a FourOfAKind outranks any TwoPair.
type Category int

const (
	Invalid Category = iota
	Single
	Pair
	ThreeOfAKind
	TwoPair
	FourOfAKind
	Straight
	Flush
	FullHouse
	StraightFlush
	RoyalFlush
)

var categoryNames = [...]string{
	"invalid", "single", "pair", "three_of_a_kind", "two_pair",
	"four_of_a_kind", "straight", "flush", "full_house",
	"straight_flush", "royal_flush",
}

func (c Category) String() string {
	if c < Invalid || c > RoyalFlush {
		return "unknown"
	}
	return categoryNames[c]
}

// Play is an evaluated set of cards. Value totally orders all non-Invalid
// plays of the same cardinality: category tier in the high bits, card/suit
// tie-break in the low bits.
type Play struct {
	Category Category
	Value    int
	Cards    []Card
}

// tierWidth leaves room below each category tier for any card power (0..51)
// or straight tie-break (0..47).
const tierWidth = 64

func playOf(cat Category, tiebreak int, cards []Card) Play {
	return Play{Category: cat, Value: int(cat)*tierWidth + tiebreak, Cards: cards}
}

var invalidPlay = Play{Category: Invalid}

// Evaluate classifies cards into a ranked Play. It is pure: the input is not
// mutated and equal inputs produce equal results.
func Evaluate(cards []Card) Play {
	n := len(cards)
	if n < 1 || n > 5 {
		return invalidPlay
	}
	sorted := append([]Card(nil), cards...)
	SortByPower(sorted)

	switch n {
	case 1:
		return playOf(Single, sorted[0].Power(), sorted)
	case 2:
		if sorted[0].Rank == sorted[1].Rank {
			return playOf(Pair, sorted[1].Power(), sorted)
		}
	case 3:
		if allSameRank(sorted) {
			return playOf(ThreeOfAKind, sorted[2].Power(), sorted)
		}
	case 4:
		if allSameRank(sorted) {
			return playOf(FourOfAKind, sorted[3].Power(), sorted)
		}
		// Two distinct rank-pairs; sorted order groups equal ranks together.
		if sorted[0].Rank == sorted[1].Rank && sorted[2].Rank == sorted[3].Rank &&
			sorted[0].Rank != sorted[2].Rank {
			return playOf(TwoPair, sorted[3].Power(), sorted)
		}
	case 5:
		return evaluateFive(sorted)
	}
	return invalidPlay
}

func evaluateFive(sorted []Card) Play {
	sameSuit := true
	for _, c := range sorted[1:] {
		if c.Suit != sorted[0].Suit {
			sameSuit = false
			break
		}
	}
	straightKey, isStraight := straightTiebreak(sorted)

	switch {
	case isStraight && sameSuit:
		if sorted[0].Rank == Rank10 && sorted[4].Rank == RankA {
			return playOf(RoyalFlush, int(sorted[0].Suit), sorted)
		}
		return playOf(StraightFlush, straightKey, sorted)
	case isStraight:
		return playOf(Straight, straightKey, sorted)
	case sameSuit:
		return playOf(Flush, sorted[4].Power(), sorted)
	}

	// Full house: 3+2 in either arrangement over power-sorted cards.
	if sorted[0].Rank == sorted[2].Rank && sorted[3].Rank == sorted[4].Rank && sorted[2].Rank != sorted[3].Rank {
		return playOf(FullHouse, sorted[2].Power(), sorted)
	}
	if sorted[0].Rank == sorted[1].Rank && sorted[2].Rank == sorted[4].Rank && sorted[1].Rank != sorted[2].Rank {
		return playOf(FullHouse, sorted[4].Power(), sorted)
	}
	return invalidPlay
}

// straightTiebreak reports whether the 5 power-sorted cards form a straight
// and, if so, a key ordering straights mutually. Two wrap runs are legal even
// though 2 is the top rank: A-2-3-4-5 and 2-3-4-5-6. They rank below every
// regular straight, with A-2-3-4-5 the lowest of all.
func straightTiebreak(sorted []Card) (int, bool) {
	// Regular run: five consecutive ranks with no 2.
	if sorted[4].Rank != Rank2 {
		for i := 1; i < 5; i++ {
			if sorted[i].Rank != sorted[i-1].Rank+1 {
				return 0, false
			}
		}
		high := sorted[4]
		return int(high.Rank)*4 + int(high.Suit), true
	}

	// sorted[4] is the 2; the wrap runs are A-2-3-4-5 and 2-3-4-5-6.
	switch {
	case ranksAre(sorted, Rank3, Rank4, Rank5, RankA, Rank2):
		// 5-high wheel: weakest straight. Tie-break on the 5's suit.
		return 0*4 + int(sorted[2].Suit), true
	case ranksAre(sorted, Rank3, Rank4, Rank5, Rank6, Rank2):
		// 6-high wheel, above the 5-high wheel, below 3-4-5-6-7.
		return 1*4 + int(sorted[3].Suit), true
	}
	return 0, false
}

func ranksAre(sorted []Card, ranks ...Rank) bool {
	for i, r := range ranks {
		if sorted[i].Rank != r {
			return false
		}
	}
	return true
}

func allSameRank(cards []Card) bool {
	for _, c := range cards[1:] {
		if c.Rank != cards[0].Rank {
			return false
		}
	}
	return true
}

// CanFollow reports whether candidate may be played over last. A nil last
// means the candidate leads the round and anything goes; otherwise the
// candidate must match the card count, evaluate to a real category, and carry
// a strictly higher Value. Category mixing at equal size is decided purely by
// Value.
func CanFollow(candidate []Card, last *Play) bool {
	if last == nil {
		return true
	}
	if len(candidate) != len(last.Cards) {
		return false
	}
	p := Evaluate(candidate)
	return p.Category != Invalid && p.Value > last.Value
}
