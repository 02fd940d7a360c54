package domain

import (
	"fmt"
	"sort"
)

// Rank values run 0..12 with 3 lowest and 2 highest:
// 3=0, 4=1, ..., 10=7, J=8, Q=9, K=10, A=11, 2=12.
type Rank int

const (
	Rank3 Rank = iota
	Rank4
	Rank5
	Rank6
	Rank7
	Rank8
	Rank9
	Rank10
	RankJ
	RankQ
	RankK
	RankA
	Rank2
)

// Suit values encode tie-break strength: Diamond < Club < Heart < Spade.
type Suit int

const (
	Diamond Suit = iota
	Club
	Heart
	Spade
)

// Card is a single immutable playing card.
type Card struct {
	Rank Rank `json:"rank"`
	Suit Suit `json:"suit"`
}

// Power is the total order over all 52 cards: rank first, suit breaks ties.
func (c Card) Power() int {
	return int(c.Rank)*4 + int(c.Suit)
}

var rankNames = [...]string{"3", "4", "5", "6", "7", "8", "9", "10", "J", "Q", "K", "A", "2"}
var suitNames = [...]string{"D", "C", "H", "S"}

func (c Card) String() string {
	if c.Rank < Rank3 || c.Rank > Rank2 || c.Suit < Diamond || c.Suit > Spade {
		return fmt.Sprintf("?%d/%d", c.Rank, c.Suit)
	}
	return rankNames[c.Rank] + suitNames[c.Suit]
}

// SortByPower orders cards ascending by Power in place.
func SortByPower(cards []Card) {
	sort.Slice(cards, func(i, j int) bool {
		return cards[i].Power() < cards[j].Power()
	})
}

// RemoveCards returns hand minus played. The second return is false when any
// played card is not present in the hand, in which case the hand is returned
// unchanged.
func RemoveCards(hand []Card, played []Card) ([]Card, bool) {
	out := append([]Card(nil), hand...)
	for _, pc := range played {
		found := false
		for i := range out {
			if out[i] == pc {
				out = append(out[:i], out[i+1:]...)
				found = true
				break
			}
		}
		if !found {
			return hand, false
		}
	}
	return out, true
}
