package event

import "figgie_go/internal/domain"

// Type is the wire tag of an inbound event.
type Type string

const (
	EvTradeExecuted Type = "TradeExecuted"
	EvQuotePlaced   Type = "QuotePlaced"
	EvQuoteCanceled Type = "QuoteCanceled"
	EvRoundStarted  Type = "RoundStarted"
	EvRoundEnded    Type = "RoundEnded"
	EvGameEnded     Type = "GameEnded"
)

// Event is the interface for all inbound server events.
type Event interface {
	GetType() Type
}

// Player is the server's per-player record: identity, cash and hand.
type Player struct {
	Info domain.PlayerIdentity `json:"info"`
	Cash int64                 `json:"cash"`
	Hand domain.Hand           `json:"hand"`
}

// TradeExecuted reports a match. Buyer and Seller are player ids.
type TradeExecuted struct {
	Buyer  string      `json:"buyer"`
	Seller string      `json:"seller"`
	Suit   domain.Suit `json:"suit"`
	Price  int64       `json:"price"`
}

func (e TradeExecuted) GetType() Type { return EvTradeExecuted }

// QuotePlaced reports the new best quote for (suit, side).
type QuotePlaced struct {
	Quote domain.Quote
}

func (e QuotePlaced) GetType() Type { return EvQuotePlaced }

// QuoteCanceled reports that a player withdrew a quote.
type QuoteCanceled struct {
	Quote domain.Quote
}

func (e QuoteCanceled) GetType() Type { return EvQuoteCanceled }

// RoundStarted delivers one player's hand for a new round. Every client
// receives one per roster entry; only the one addressed to self matters.
type RoundStarted struct {
	RoundID    int64  `json:"round_id"`
	ServerTime int64  `json:"server_time"`
	Player     Player `json:"player"`
}

func (e RoundStarted) GetType() Type { return EvRoundStarted }

// RoundEnded reveals the goal suit and every player's cash and hand.
type RoundEnded struct {
	RoundID    int64       `json:"round_id"`
	ServerTime int64       `json:"server_time"`
	GoalSuit   domain.Suit `json:"goal_suit"`
	Players    []Player    `json:"players"`
}

func (e RoundEnded) GetType() Type { return EvRoundEnded }

// GameEnded is terminal.
type GameEnded struct {
	Players []Player `json:"players"`
}

func (e GameEnded) GetType() Type { return EvGameEnded }
