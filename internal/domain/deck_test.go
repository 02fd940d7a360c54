package domain

import (
	"math/rand"
	"testing"
)

func TestDealDistributesWholeDeck(t *testing.T) {
	rng := rand.New(rand.NewSource(1))
	hands := Deal(rng, 4)

	total := 0
	seen := make(map[Card]bool)
	for _, hand := range hands {
		if len(hand) != HandSize {
			t.Fatalf("hand size = %d, want %d", len(hand), HandSize)
		}
		total += len(hand)
		for _, c := range hand {
			if seen[c] {
				t.Fatalf("card %v dealt twice", c)
			}
			seen[c] = true
		}
	}
	if total != 52 {
		t.Errorf("dealt %d cards, want 52", total)
	}
}

func TestDealSortsHands(t *testing.T) {
	rng := rand.New(rand.NewSource(7))
	for _, hand := range Deal(rng, 3) {
		for i := 1; i < len(hand); i++ {
			if hand[i].Power() < hand[i-1].Power() {
				t.Fatalf("hand not sorted at %d: %v", i, hand)
			}
		}
	}
}

func TestIsCompleteSuit(t *testing.T) {
	spades := make([]Card, 0, HandSize)
	for r := Rank3; r <= Rank2; r++ {
		spades = append(spades, Card{Rank: r, Suit: Spade})
	}
	if !IsCompleteSuit(spades) {
		t.Error("13 spades should be a complete suit")
	}

	mixed := append([]Card(nil), spades...)
	mixed[4] = Card{Rank: Rank7, Suit: Heart}
	if IsCompleteSuit(mixed) {
		t.Error("hand with one heart is not a complete suit")
	}
	if IsCompleteSuit(spades[:12]) {
		t.Error("12 cards can never be a complete suit")
	}
}

func TestFirstLeader(t *testing.T) {
	tests := []struct {
		name     string
		hands    [][]Card
		expected int
	}{
		{
			name: "Lowest three wins by suit order",
			hands: [][]Card{
				{{Rank3, Spade}, {RankK, Heart}},
				{{Rank3, Diamond}, {RankA, Club}},
				{{Rank3, Heart}, {Rank2, Spade}},
			},
			expected: 1,
		},
		{
			name: "No three falls back to lowest card",
			hands: [][]Card{
				{{Rank5, Club}, {RankK, Heart}},
				{{Rank4, Spade}, {RankA, Club}},
				{{Rank6, Diamond}, {Rank2, Spade}},
			},
			expected: 1,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := FirstLeader(tt.hands); got != tt.expected {
				t.Errorf("FirstLeader() = %d, want %d", got, tt.expected)
			}
		})
	}
}

func TestRoundPoints(t *testing.T) {
	tests := []struct {
		handSize int
		expected int
	}{
		{0, 0},
		{1, 1},
		{5, 5},
		{9, 9},
		{10, 20},
		{11, 22},
		{12, 24},
		{13, 39},
	}
	for _, tt := range tests {
		if got := RoundPoints(tt.handSize); got != tt.expected {
			t.Errorf("RoundPoints(%d) = %d, want %d", tt.handSize, got, tt.expected)
		}
	}
}

func TestGameWinnerTieBreaksToLowestSeat(t *testing.T) {
	if got := GameWinner([]int{12, 8, 8, 31}); got != 1 {
		t.Errorf("GameWinner = %d, want 1", got)
	}
}
