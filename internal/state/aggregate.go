package state

import (
	"fmt"
	"time"

	"figgie_go/internal/domain"
)

// Aggregate is the whole client-side mirror owned by one session:
// book, ledger, trade log and round lifecycle.
type Aggregate struct {
	RoomID   string
	RoomName string
	Self     domain.PlayerIdentity
	Roster   []domain.PlayerIdentity

	Book   QuoteBook
	Ledger *Ledger
	Log    TradeLog
	Round  Round
	Hand   domain.Hand

	LastResult *domain.RoundResult
	Final      []domain.Standing
	GameOver   bool
}

// New creates the initial aggregate from a validated bootstrap.
func New(b domain.Bootstrap) (*Aggregate, error) {
	if err := b.Validate(); err != nil {
		return nil, err
	}
	roster := make([]domain.PlayerIdentity, len(b.Players))
	copy(roster, b.Players)
	return &Aggregate{
		RoomID:   b.RoomID,
		RoomName: b.RoomName,
		Self:     b.Self(),
		Roster:   roster,
		Ledger:   NewLedger(roster),
		Round:    Round{Phase: domain.PhaseIdle},
	}, nil
}

// Clone returns a copy that shares nothing mutable with a.
func (a *Aggregate) Clone() *Aggregate {
	c := *a
	c.Ledger = a.Ledger.Clone()
	c.Log = a.Log.Clone()
	if a.LastResult != nil {
		r := *a.LastResult
		r.Standings = cloneStandings(a.LastResult.Standings)
		c.LastResult = &r
	}
	c.Final = cloneStandings(a.Final)
	return &c
}

// ResetRound clears the per-round displays: book, trade log and ledger
// deltas/card counts.
func (a *Aggregate) ResetRound() {
	a.Book.Clear()
	a.Log.Reset()
	a.Ledger.ResetRound()
}

func (a *Aggregate) String() string {
	return fmt.Sprintf("room=%s round=%d phase=%s trades=%d", a.RoomID, a.Round.ID, a.Round.Phase, a.Log.Len())
}

func cloneStandings(in []domain.Standing) []domain.Standing {
	if in == nil {
		return nil
	}
	out := make([]domain.Standing, len(in))
	copy(out, in)
	return out
}

// View is a read-only snapshot of the aggregate for rendering.
type View struct {
	RoomID    string                     `json:"room_id"`
	RoomName  string                     `json:"room_name"`
	Self      domain.PlayerIdentity      `json:"self"`
	Round     Round                      `json:"round"`
	Remaining time.Duration              `json:"remaining"`
	Hand      domain.Hand                `json:"hand"`
	Book      [domain.NumSuits]BookLevel `json:"book"`
	Players   []domain.PlayerState       `json:"players"`
	Trades    []domain.Trade             `json:"trades"`
	Stats     [domain.NumSuits]SuitStats `json:"stats"`
	Result    *domain.RoundResult        `json:"result,omitempty"`
	Final     []domain.Standing          `json:"final,omitempty"`
	GameOver  bool                       `json:"game_over"`
}

// View builds a snapshot. remaining is supplied by the caller, which owns the clock.
func (a *Aggregate) View(remaining time.Duration) View {
	v := View{
		RoomID:    a.RoomID,
		RoomName:  a.RoomName,
		Self:      a.Self,
		Round:     a.Round,
		Remaining: remaining,
		Hand:      a.Hand,
		Book:      a.Book.Levels(),
		Players:   a.Ledger.Players(),
		Trades:    a.Log.Trades(),
		Stats:     a.Log.Stats(),
		Final:     cloneStandings(a.Final),
		GameOver:  a.GameOver,
	}
	if a.LastResult != nil {
		r := *a.LastResult
		r.Standings = cloneStandings(a.LastResult.Standings)
		v.Result = &r
	}
	return v
}
