package engine

import (
	"log/slog"
	"sort"

	"figgie_go/internal/domain"
	"figgie_go/internal/event"
	"figgie_go/internal/state"
)

// Warning is a consistency problem found while reducing. Reduce never logs;
// the caller decides how to report it.
type Warning struct {
	Code  string
	Attrs []any
}

// Log writes the warning at Warn level on the default logger.
func (w Warning) Log(extra ...any) {
	args := make([]any, 0, len(w.Attrs)+len(extra))
	args = append(args, w.Attrs...)
	slog.Warn(w.Code, append(args, extra...)...)
}

// Outcome describes what a single Reduce call did.
type Outcome struct {
	// Applied is false when the event was discarded and the state returned unchanged.
	Applied  bool
	Warnings []Warning
	// RoundEnded is set on the first RoundEnded of a round.
	RoundEnded *domain.RoundResult
	GameOver   bool
}

func (o *Outcome) warn(code string, attrs ...any) {
	o.Warnings = append(o.Warnings, Warning{Code: code, Attrs: attrs})
}

// Reduce applies one inbound event to s and returns the resulting state.
// s is never modified; when the event is discarded s itself is returned.
func Reduce(s *state.Aggregate, ev event.Event) (*state.Aggregate, Outcome) {
	var out Outcome

	switch e := ev.(type) {
	case event.TradeExecuted:
		next := s.Clone()
		reduceTrade(next, e, &out)
		out.Applied = true
		return next, out

	case event.QuotePlaced:
		next := s.Clone()
		if !next.Book.Place(e.Quote) {
			out.warn("QUOTE_KEY_INVALID", slog.String("suit", string(e.Quote.Suit)), slog.String("side", string(e.Quote.Side)))
			return s, out
		}
		out.Applied = true
		return next, out

	case event.QuoteCanceled:
		if q, ok := s.Book.Best(e.Quote.Suit, e.Quote.Side); !ok || q.PlayerID != e.Quote.PlayerID {
			// Stale cancel: the slot is empty or now belongs to someone else.
			return s, out
		}
		next := s.Clone()
		next.Book.Cancel(e.Quote)
		out.Applied = true
		return next, out

	case event.RoundStarted:
		if e.Player.Info.ID != s.Self.ID {
			return s, out
		}
		next := s.Clone()
		reduceRoundStarted(next, e, &out)
		out.Applied = true
		return next, out

	case event.RoundEnded:
		// A repeat of the last result is a no-op, even after an optimistic
		// start has moved the phase on.
		if s.LastResult != nil && s.LastResult.RoundID == e.RoundID {
			return s, out
		}
		next := s.Clone()
		reduceRoundEnded(next, e, &out)
		out.Applied = true
		return next, out

	case event.GameEnded:
		next := s.Clone()
		next.Final = mergeStandings(next, e.Players, &out)
		next.GameOver = true
		out.Applied = true
		out.GameOver = true
		return next, out

	default:
		out.warn("UNKNOWN_EVENT", slog.Any("event", ev))
		return s, out
	}
}

func reduceTrade(s *state.Aggregate, e event.TradeExecuted, out *Outcome) {
	// Any execution invalidates the whole mirror, not just the traded suit.
	s.Book.Clear()

	missing, err := s.Ledger.ApplyTrade(e.Buyer, e.Seller, e.Suit, e.Price)
	for _, id := range missing {
		out.warn("TRADE_UNKNOWN_PLAYER", slog.String("player_id", id))
	}
	if err != nil {
		out.warn("TRADE_CASH_OVERFLOW", slog.Any("error", err))
	}

	s.Log.Append(domain.Trade{
		Buyer:  s.Ledger.Identity(e.Buyer),
		Seller: s.Ledger.Identity(e.Seller),
		Suit:   e.Suit,
		Price:  e.Price,
	})
}

func reduceRoundStarted(s *state.Aggregate, e event.RoundStarted, out *Outcome) {
	if s.Round.Phase != domain.PhaseIdle && e.RoundID < s.Round.ID {
		out.warn("ROUND_ID_REGRESSION",
			slog.Int64("local", s.Round.ID),
			slog.Int64("got", e.RoundID))
	}

	s.ResetRound()
	s.Hand = e.Player.Hand
	s.Ledger.SeedSelf(s.Self.ID, e.Player.Cash, e.Player.Hand)
	s.Round = state.Round{
		ID:        max(s.Round.ID, e.RoundID),
		StartUnix: e.ServerTime,
		Phase:     domain.PhaseActive,
	}
}

func reduceRoundEnded(s *state.Aggregate, e event.RoundEnded, out *Outcome) {
	if e.RoundID != s.Round.ID {
		out.warn("ROUND_ID_MISMATCH",
			slog.Int64("local", s.Round.ID),
			slog.Int64("got", e.RoundID))
	}
	if e.RoundID > s.Round.ID {
		s.Round.ID = e.RoundID
	}

	standings := mergeStandings(s, e.Players, out)
	s.Round.Phase = domain.PhaseEnded
	s.Round.GoalSuit = e.GoalSuit
	s.Round.Provisional = false

	result := &domain.RoundResult{
		RoundID:    e.RoundID,
		ServerTime: e.ServerTime,
		GoalSuit:   e.GoalSuit,
		Standings:  standings,
	}
	s.LastResult = result

	published := *result
	published.Standings = append([]domain.Standing(nil), standings...)
	out.RoundEnded = &published
}

// mergeStandings settles the server's cash and hands into the ledger and
// returns the standings ranked by cash, ties kept in server order.
func mergeStandings(s *state.Aggregate, players []event.Player, out *Outcome) []domain.Standing {
	standings := make([]domain.Standing, 0, len(players))
	for _, p := range players {
		st, ok := s.Ledger.Settle(p.Info, p.Cash, p.Hand)
		if !ok {
			out.warn("STANDING_UNKNOWN_PLAYER", slog.String("player_id", p.Info.ID))
			if st.Identity.Name == "" {
				st.Identity.Name = st.Identity.ID
			}
		}
		standings = append(standings, st)
	}
	sort.SliceStable(standings, func(i, j int) bool {
		return standings[i].Cash > standings[j].Cash
	})
	return standings
}
