package domain

import (
	"encoding/json"
	"fmt"
)

// Hand maps each suit to a non-negative card count, stored in fixed suit order.
type Hand [NumSuits]int

// Count returns the number of cards of the given suit.
func (h Hand) Count(s Suit) int {
	idx := s.Index()
	if idx < 0 {
		return 0
	}
	return h[idx]
}

// Total returns the number of cards in the hand.
func (h Hand) Total() int {
	total := 0
	for _, n := range h {
		total += n
	}
	return total
}

// MarshalJSON encodes the hand as {"Spade":n,"Club":n,...}.
func (h Hand) MarshalJSON() ([]byte, error) {
	m := make(map[Suit]int, NumSuits)
	for i, s := range Suits {
		m[s] = h[i]
	}
	return json.Marshal(m)
}

// UnmarshalJSON decodes a suit-keyed object. Missing suits count as zero;
// unknown suits and negative counts are rejected.
func (h *Hand) UnmarshalJSON(data []byte) error {
	var m map[string]int
	if err := json.Unmarshal(data, &m); err != nil {
		return err
	}
	var out Hand
	for k, v := range m {
		s := Suit(k)
		if !s.Valid() {
			return fmt.Errorf("hand: unknown suit %q", k)
		}
		if v < 0 {
			return fmt.Errorf("hand: negative count %d for %s", v, k)
		}
		out[s.Index()] = v
	}
	*h = out
	return nil
}

// SuitDeltas is the signed change of holdings per suit since the round began.
type SuitDeltas [NumSuits]int64
