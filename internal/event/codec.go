package event

import (
	"encoding/json"
	"errors"
	"fmt"

	"figgie_go/internal/domain"
)

// ErrMalformed is returned for any inbound frame that cannot be turned into an Event.
var ErrMalformed = errors.New("malformed message")

type envelope struct {
	Type    string          `json:"type"`
	Payload json.RawMessage `json:"payload"`
}

type wireQuote struct {
	PlayerID string `json:"player_id"`
	Suit     string `json:"suit"`
	Side     string `json:"side"`
	Price    *int64 `json:"price"`
}

type wireQuotePayload struct {
	Quote  *wireQuote `json:"quote"`
	Player string     `json:"player"`
}

// Decode parses one inbound frame. Every failure wraps ErrMalformed.
func Decode(data []byte) (Event, error) {
	var env envelope
	if err := json.Unmarshal(data, &env); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrMalformed, err)
	}
	if len(env.Payload) == 0 || string(env.Payload) == "null" {
		return nil, fmt.Errorf("%w: %q has no payload", ErrMalformed, env.Type)
	}

	switch Type(env.Type) {
	case EvTradeExecuted:
		var ev TradeExecuted
		if err := json.Unmarshal(env.Payload, &ev); err != nil {
			return nil, fmt.Errorf("%w: trade: %v", ErrMalformed, err)
		}
		if ev.Buyer == "" || ev.Seller == "" {
			return nil, fmt.Errorf("%w: trade without counterparties", ErrMalformed)
		}
		if !ev.Suit.Valid() {
			return nil, fmt.Errorf("%w: trade suit %q", ErrMalformed, ev.Suit)
		}
		return ev, nil

	case EvQuotePlaced:
		q, err := decodeQuote(env.Payload)
		if err != nil {
			return nil, err
		}
		return QuotePlaced{Quote: q}, nil

	case EvQuoteCanceled:
		q, err := decodeQuote(env.Payload)
		if err != nil {
			return nil, err
		}
		return QuoteCanceled{Quote: q}, nil

	case EvRoundStarted:
		var ev RoundStarted
		if err := json.Unmarshal(env.Payload, &ev); err != nil {
			return nil, fmt.Errorf("%w: round started: %v", ErrMalformed, err)
		}
		if ev.Player.Info.ID == "" {
			return nil, fmt.Errorf("%w: round started without player id", ErrMalformed)
		}
		return ev, nil

	case EvRoundEnded:
		var ev RoundEnded
		if err := json.Unmarshal(env.Payload, &ev); err != nil {
			return nil, fmt.Errorf("%w: round ended: %v", ErrMalformed, err)
		}
		if !ev.GoalSuit.Valid() {
			return nil, fmt.Errorf("%w: goal suit %q", ErrMalformed, ev.GoalSuit)
		}
		return ev, nil

	case EvGameEnded:
		var ev GameEnded
		if err := json.Unmarshal(env.Payload, &ev); err != nil {
			return nil, fmt.Errorf("%w: game ended: %v", ErrMalformed, err)
		}
		return ev, nil

	default:
		return nil, fmt.Errorf("%w: unknown event type %q", ErrMalformed, env.Type)
	}
}

// decodeQuote takes the owner from quote.player_id, falling back to the
// top-level player field.
func decodeQuote(payload json.RawMessage) (domain.Quote, error) {
	var p wireQuotePayload
	if err := json.Unmarshal(payload, &p); err != nil {
		return domain.Quote{}, fmt.Errorf("%w: quote: %v", ErrMalformed, err)
	}
	if p.Quote == nil {
		return domain.Quote{}, fmt.Errorf("%w: quote missing", ErrMalformed)
	}
	owner := p.Quote.PlayerID
	if owner == "" {
		owner = p.Player
	}
	if owner == "" {
		return domain.Quote{}, fmt.Errorf("%w: quote without owner", ErrMalformed)
	}
	suit := domain.Suit(p.Quote.Suit)
	if !suit.Valid() {
		return domain.Quote{}, fmt.Errorf("%w: quote suit %q", ErrMalformed, p.Quote.Suit)
	}
	side := domain.Side(p.Quote.Side)
	if !side.Valid() {
		return domain.Quote{}, fmt.Errorf("%w: quote side %q", ErrMalformed, p.Quote.Side)
	}
	if p.Quote.Price == nil {
		return domain.Quote{}, fmt.Errorf("%w: quote without price", ErrMalformed)
	}
	return domain.Quote{
		PlayerID: owner,
		Suit:     suit,
		Side:     side,
		Price:    *p.Quote.Price,
	}, nil
}
