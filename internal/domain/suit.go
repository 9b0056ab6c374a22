package domain

import (
	"fmt"
	"strings"
)

// NumSuits is the size of every fixed-position suit array.
const NumSuits = 4

// Suit is one of the four card suits. The order of Suits is significant:
// every [NumSuits] array in the system is indexed by it.
type Suit string

const (
	Spade   Suit = "Spade"
	Club    Suit = "Club"
	Diamond Suit = "Diamond"
	Heart   Suit = "Heart"
)

// Suits lists all suits in their fixed order.
var Suits = [NumSuits]Suit{Spade, Club, Diamond, Heart}

// Index returns the fixed position of the suit, or -1 for an unknown value.
func (s Suit) Index() int {
	switch s {
	case Spade:
		return 0
	case Club:
		return 1
	case Diamond:
		return 2
	case Heart:
		return 3
	default:
		return -1
	}
}

// Valid reports whether s is one of the four suits.
func (s Suit) Valid() bool { return s.Index() >= 0 }

// Symbol returns the card glyph used by the terminal view.
func (s Suit) Symbol() string {
	switch s {
	case Spade:
		return "♠"
	case Club:
		return "♣"
	case Diamond:
		return "♦"
	case Heart:
		return "♥"
	default:
		return "?"
	}
}

// ParseSuit accepts the wire name in any letter case.
func ParseSuit(s string) (Suit, error) {
	for _, suit := range Suits {
		if strings.EqualFold(string(suit), s) {
			return suit, nil
		}
	}
	return "", fmt.Errorf("unknown suit %q", s)
}

// Side is the side of a quote.
type Side string

const (
	Bid   Side = "Bid"
	Offer Side = "Offer"
)

// NumSides is the number of quote sides.
const NumSides = 2

// Index returns 0 for Bid, 1 for Offer and -1 otherwise.
func (s Side) Index() int {
	switch s {
	case Bid:
		return 0
	case Offer:
		return 1
	default:
		return -1
	}
}

// Valid reports whether s is Bid or Offer.
func (s Side) Valid() bool { return s.Index() >= 0 }

// ParseSide accepts the wire name in any letter case; "ask" is an alias for Offer.
func ParseSide(s string) (Side, error) {
	switch strings.ToLower(s) {
	case "bid", "buy":
		return Bid, nil
	case "offer", "ask", "sell":
		return Offer, nil
	default:
		return "", fmt.Errorf("unknown side %q", s)
	}
}
