package state

import (
	"fmt"

	"figgie_go/internal/domain"
	"figgie_go/pkg/safe"
)

// DeckSize is the number of cards the server deals each round.
const DeckSize = 40

// Ledger holds one PlayerState per roster entry, in roster order.
// The roster is fixed for the lifetime of a game.
type Ledger struct {
	players []domain.PlayerState
	index   map[string]int // shared between clones, never written after NewLedger
}

// NewLedger creates a ledger for the roster, assigning colors by position.
func NewLedger(roster []domain.PlayerIdentity) *Ledger {
	l := &Ledger{
		players: make([]domain.PlayerState, len(roster)),
		index:   make(map[string]int, len(roster)),
	}
	for i, p := range roster {
		l.players[i] = domain.PlayerState{
			Identity:   p,
			TotalCards: DealtCards(i, len(roster)),
			Color:      domain.ColorFor(i),
		}
		l.index[p.ID] = i
	}
	return l
}

// DealtCards is how many cards roster position pos receives when the deck
// is dealt round-robin over n players.
func DealtCards(pos, n int) int {
	if n <= 0 || pos < 0 || pos >= n {
		return 0
	}
	cards := DeckSize / n
	if pos < DeckSize%n {
		cards++
	}
	return cards
}

// Clone returns an independent copy.
func (l *Ledger) Clone() *Ledger {
	players := make([]domain.PlayerState, len(l.players))
	copy(players, l.players)
	return &Ledger{players: players, index: l.index}
}

// Len returns the roster size.
func (l *Ledger) Len() int { return len(l.players) }

// Get returns the state of player id.
func (l *Ledger) Get(id string) (domain.PlayerState, bool) {
	i, ok := l.index[id]
	if !ok {
		return domain.PlayerState{}, false
	}
	return l.players[i], true
}

// Players returns a copy of all player states in roster order.
func (l *Ledger) Players() []domain.PlayerState {
	out := make([]domain.PlayerState, len(l.players))
	copy(out, l.players)
	return out
}

// Identity resolves id for display. Unknown ids resolve to themselves.
func (l *Ledger) Identity(id string) domain.PlayerIdentity {
	if i, ok := l.index[id]; ok {
		p := l.players[i].Identity
		if p.Name == "" {
			p.Name = p.ID
		}
		return p
	}
	return domain.PlayerIdentity{ID: id, Name: id}
}

// ApplyTrade moves one card of suit from seller to buyer and price cash the
// other way. Unknown ids are returned in missing; the known side is still
// updated. A cash overflow leaves that side untouched and is returned as err.
func (l *Ledger) ApplyTrade(buyer, seller string, suit domain.Suit, price int64) (missing []string, err error) {
	si := suit.Index()
	if si < 0 {
		return nil, fmt.Errorf("apply trade: unknown suit %q", suit)
	}

	if i, ok := l.index[buyer]; ok {
		p := l.players[i]
		cash, subErr := safe.Sub(p.Cash, price)
		if subErr != nil {
			err = fmt.Errorf("buyer %s: %w", buyer, subErr)
		} else {
			p.Cash = cash
			p.TotalCards++
			p.SuitDeltas[si]++
			l.players[i] = p
		}
	} else {
		missing = append(missing, buyer)
	}

	if i, ok := l.index[seller]; ok {
		p := l.players[i]
		cash, addErr := safe.Add(p.Cash, price)
		if addErr != nil {
			err = fmt.Errorf("seller %s: %w", seller, addErr)
		} else {
			p.Cash = cash
			p.TotalCards--
			p.SuitDeltas[si]--
			l.players[i] = p
		}
	} else {
		missing = append(missing, seller)
	}
	return missing, err
}

// ResetRound zeroes every player's deltas and reseeds totalCards from the
// deal. Cash persists.
func (l *Ledger) ResetRound() {
	n := len(l.players)
	for i := range l.players {
		l.players[i].SuitDeltas = domain.SuitDeltas{}
		l.players[i].TotalCards = DealtCards(i, n)
	}
}

// SeedSelf applies the server's round-start values for this client.
func (l *Ledger) SeedSelf(id string, cash int64, hand domain.Hand) bool {
	i, ok := l.index[id]
	if !ok {
		return false
	}
	l.players[i].Cash = cash
	l.players[i].TotalCards = hand.Total()
	return true
}

// Settle overwrites cash and card count with the server's round-end values
// and returns the merged standing. Deltas and color are kept from the ledger.
func (l *Ledger) Settle(info domain.PlayerIdentity, cash int64, hand domain.Hand) (domain.Standing, bool) {
	i, ok := l.index[info.ID]
	if !ok {
		return domain.Standing{
			Identity:   info,
			Cash:       cash,
			Hand:       hand,
			TotalCards: hand.Total(),
		}, false
	}
	l.players[i].Cash = cash
	l.players[i].TotalCards = hand.Total()
	p := l.players[i]
	if info.Name == "" {
		info.Name = p.Identity.Name
	}
	return domain.Standing{
		Identity:   info,
		Cash:       cash,
		Hand:       hand,
		TotalCards: p.TotalCards,
		SuitDeltas: p.SuitDeltas,
		Color:      p.Color,
	}, true
}
