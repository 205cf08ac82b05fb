package poker

import (
	"fmt"
	"math/bits"
)

// Card represents a single card as a bit position in a uint64.
// Layout is suit-major: bit = suit*13 + rank, so the bit position doubles
// as the card's wire code (0-51). Clients share this encoding.
type Card uint64

// Hand is a uint64 bitset containing zero or more cards.
type Hand uint64

// Suit constants
const (
	Clubs    uint8 = 0
	Diamonds uint8 = 1
	Hearts   uint8 = 2
	Spades   uint8 = 3
)

// Rank constants (0-12 for 2-A)
const (
	Two   uint8 = 0
	Three uint8 = 1
	Four  uint8 = 2
	Five  uint8 = 3
	Six   uint8 = 4
	Seven uint8 = 5
	Eight uint8 = 6
	Nine  uint8 = 7
	Ten   uint8 = 8
	Jack  uint8 = 9
	Queen uint8 = 10
	King  uint8 = 11
	Ace   uint8 = 12
)

const rankMask = 0x1FFF // 13 bits per suit

// NewCard creates a card from rank (0-12) and suit (0-3).
func NewCard(rank, suit uint8) Card {
	return Card(1) << (suit*13 + rank)
}

// CardFromCode converts a wire code (0-51) into a Card.
func CardFromCode(code int) (Card, error) {
	if code < 0 || code > 51 {
		return 0, fmt.Errorf("card code out of range: %d", code)
	}
	return Card(1) << code, nil
}

// Code returns the card's wire code (0-51), or -1 for an invalid card.
func (c Card) Code() int {
	if bits.OnesCount64(uint64(c)) != 1 {
		return -1
	}
	return bits.TrailingZeros64(uint64(c))
}

// Rank returns the rank of the card (0-12).
func (c Card) Rank() uint8 {
	code := c.Code()
	if code < 0 {
		return 255
	}
	return uint8(code % 13)
}

// Suit returns the suit of the card (0-3).
func (c Card) Suit() uint8 {
	code := c.Code()
	if code < 0 {
		return 255
	}
	return uint8(code / 13)
}

// String returns the string representation (e.g., "As", "Kh").
func (c Card) String() string {
	const ranks = "23456789TJQKA"
	const suits = "cdhs"

	rank := c.Rank()
	suit := c.Suit()
	if rank > 12 || suit > 3 {
		return "??"
	}
	return string(ranks[rank]) + string(suits[suit])
}

// ParseCard parses a string like "As" into a Card.
func ParseCard(s string) (Card, error) {
	if len(s) != 2 {
		return 0, fmt.Errorf("invalid card string: %q", s)
	}

	var rank uint8
	switch s[0] {
	case '2':
		rank = Two
	case '3':
		rank = Three
	case '4':
		rank = Four
	case '5':
		rank = Five
	case '6':
		rank = Six
	case '7':
		rank = Seven
	case '8':
		rank = Eight
	case '9':
		rank = Nine
	case 'T', 't':
		rank = Ten
	case 'J', 'j':
		rank = Jack
	case 'Q', 'q':
		rank = Queen
	case 'K', 'k':
		rank = King
	case 'A', 'a':
		rank = Ace
	default:
		return 0, fmt.Errorf("invalid rank: %c", s[0])
	}

	var suit uint8
	switch s[1] {
	case 'c', 'C':
		suit = Clubs
	case 'd', 'D':
		suit = Diamonds
	case 'h', 'H':
		suit = Hearts
	case 's', 'S':
		suit = Spades
	default:
		return 0, fmt.Errorf("invalid suit: %c", s[1])
	}

	return NewCard(rank, suit), nil
}

// Codes converts cards to their wire codes, preserving order.
func Codes(cards []Card) []int {
	if len(cards) == 0 {
		return nil
	}
	codes := make([]int, len(cards))
	for i, c := range cards {
		codes[i] = c.Code()
	}
	return codes
}

// FromCodes converts wire codes back into cards.
func FromCodes(codes []int) ([]Card, error) {
	cards := make([]Card, len(codes))
	for i, code := range codes {
		c, err := CardFromCode(code)
		if err != nil {
			return nil, err
		}
		cards[i] = c
	}
	return cards, nil
}

// NewHand creates a hand from multiple cards.
func NewHand(cards ...Card) Hand {
	var h Hand
	for _, c := range cards {
		h |= Hand(c)
	}
	return h
}

// AddCard adds a card to the hand.
func (h *Hand) AddCard(c Card) {
	*h |= Hand(c)
}

// HasCard checks if the hand contains a specific card.
func (h Hand) HasCard(c Card) bool {
	return (h & Hand(c)) != 0
}

// CountCards returns the number of cards in the hand.
func (h Hand) CountCards() int {
	return bits.OnesCount64(uint64(h))
}

// Cards returns the hand's cards in ascending code order.
func (h Hand) Cards() []Card {
	cards := make([]Card, 0, h.CountCards())
	rem := uint64(h)
	for rem != 0 {
		low := rem & -rem
		cards = append(cards, Card(low))
		rem &^= low
	}
	return cards
}

// GetSuitMask returns the cards of a specific suit as a 13-bit rank mask.
func (h Hand) GetSuitMask(suit uint8) uint16 {
	return uint16((h >> (suit * 13)) & rankMask)
}

// GetRankMask returns a bitmask of which ranks are present.
func (h Hand) GetRankMask() uint16 {
	var mask uint16
	for suit := uint8(0); suit < 4; suit++ {
		mask |= h.GetSuitMask(suit)
	}
	return mask
}
