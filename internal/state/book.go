package state

import "figgie_go/internal/domain"

// BookLevel is the top of book for one suit.
type BookLevel struct {
	Bid      domain.Quote `json:"bid"`
	HasBid   bool         `json:"has_bid"`
	Offer    domain.Quote `json:"offer"`
	HasOffer bool         `json:"has_offer"`
}

type bookSlot struct {
	quote domain.Quote
	ok    bool
}

// QuoteBook mirrors the single best known quote per (suit, side). It is a
// plain value: copying a QuoteBook copies its contents.
type QuoteBook struct {
	slots [domain.NumSuits][domain.NumSides]bookSlot
}

// Place overwrites the cached quote for (q.Suit, q.Side) unconditionally.
// It returns false if the suit or side is unknown.
func (b *QuoteBook) Place(q domain.Quote) bool {
	si, di := q.Suit.Index(), q.Side.Index()
	if si < 0 || di < 0 {
		return false
	}
	b.slots[si][di] = bookSlot{quote: q, ok: true}
	return true
}

// Cancel clears (q.Suit, q.Side) only if the cached quote belongs to
// q.PlayerID. It reports whether anything was removed.
func (b *QuoteBook) Cancel(q domain.Quote) bool {
	si, di := q.Suit.Index(), q.Side.Index()
	if si < 0 || di < 0 {
		return false
	}
	slot := b.slots[si][di]
	if !slot.ok || slot.quote.PlayerID != q.PlayerID {
		return false
	}
	b.slots[si][di] = bookSlot{}
	return true
}

// Clear empties every suit and side.
func (b *QuoteBook) Clear() {
	b.slots = [domain.NumSuits][domain.NumSides]bookSlot{}
}

// Best returns the cached quote for (suit, side).
func (b *QuoteBook) Best(suit domain.Suit, side domain.Side) (domain.Quote, bool) {
	si, di := suit.Index(), side.Index()
	if si < 0 || di < 0 {
		return domain.Quote{}, false
	}
	slot := b.slots[si][di]
	return slot.quote, slot.ok
}

// Empty reports whether no quote is cached anywhere.
func (b *QuoteBook) Empty() bool {
	for _, sides := range b.slots {
		for _, slot := range sides {
			if slot.ok {
				return false
			}
		}
	}
	return true
}

// Levels returns the book in fixed suit order.
func (b *QuoteBook) Levels() [domain.NumSuits]BookLevel {
	var out [domain.NumSuits]BookLevel
	for i := range b.slots {
		bid := b.slots[i][domain.Bid.Index()]
		offer := b.slots[i][domain.Offer.Index()]
		out[i] = BookLevel{
			Bid:      bid.quote,
			HasBid:   bid.ok,
			Offer:    offer.quote,
			HasOffer: offer.ok,
		}
	}
	return out
}
