package state

import (
	"github.com/shopspring/decimal"

	"figgie_go/internal/domain"
)

// TradeLog is the append-only list of trades for the current round.
type TradeLog struct {
	trades []domain.Trade
}

// Append adds t to the end of the log.
func (l *TradeLog) Append(t domain.Trade) {
	l.trades = append(l.trades, t)
}

// Reset empties the log for a new round.
func (l *TradeLog) Reset() { l.trades = nil }

// Len returns the number of trades.
func (l *TradeLog) Len() int { return len(l.trades) }

// Clone shares the existing entries and forces the next Append on either
// copy to reallocate, so neither can observe the other's appends.
func (l *TradeLog) Clone() TradeLog {
	n := len(l.trades)
	return TradeLog{trades: l.trades[:n:n]}
}

// Trades returns a copy of the log.
func (l *TradeLog) Trades() []domain.Trade {
	out := make([]domain.Trade, len(l.trades))
	copy(out, l.trades)
	return out
}

// Tail returns a copy of the last n trades.
func (l *TradeLog) Tail(n int) []domain.Trade {
	if n <= 0 {
		return nil
	}
	start := len(l.trades) - n
	if start < 0 {
		start = 0
	}
	out := make([]domain.Trade, len(l.trades)-start)
	copy(out, l.trades[start:])
	return out
}

// SuitStats summarizes the trades of one suit.
type SuitStats struct {
	Suit      domain.Suit     `json:"suit"`
	Count     int             `json:"count"`
	Turnover  int64           `json:"turnover"`
	AvgPrice  decimal.Decimal `json:"avg_price"`
	LastPrice int64           `json:"last_price"`
}

// Stats returns per-suit count, turnover, last price and average price
// rounded to two places, in fixed suit order.
func (l *TradeLog) Stats() [domain.NumSuits]SuitStats {
	var out [domain.NumSuits]SuitStats
	for i, s := range domain.Suits {
		out[i].Suit = s
		out[i].AvgPrice = decimal.Zero
	}
	for _, t := range l.trades {
		i := t.Suit.Index()
		if i < 0 {
			continue
		}
		out[i].Count++
		out[i].Turnover += t.Price
		out[i].LastPrice = t.Price
	}
	for i := range out {
		if out[i].Count == 0 {
			continue
		}
		out[i].AvgPrice = decimal.NewFromInt(out[i].Turnover).
			Div(decimal.NewFromInt(int64(out[i].Count))).
			Round(2)
	}
	return out
}
