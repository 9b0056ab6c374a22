package event

import (
	"encoding/json"

	"figgie_go/internal/domain"
)

// ActionType is the wire tag of an outbound client action.
type ActionType string

const (
	AcPlaceQuote  ActionType = "PlaceQuote"
	AcCancelQuote ActionType = "CancelQuote"
	AcStartRound  ActionType = "StartRound"
	AcEndRound    ActionType = "EndRound"
	AcEndGame     ActionType = "EndGame"
)

// Action is an outbound message to the server.
type Action interface {
	GetActionType() ActionType
}

type PlaceQuote struct {
	PlayerID string      `json:"player_id"`
	Suit     domain.Suit `json:"suit"`
	Side     domain.Side `json:"side"`
	Price    uint32      `json:"price"`
}

func (a PlaceQuote) GetActionType() ActionType { return AcPlaceQuote }

type CancelQuote struct {
	PlayerID string      `json:"player_id"`
	Suit     domain.Suit `json:"suit"`
	Side     domain.Side `json:"side"`
	Price    uint32      `json:"price"`
}

func (a CancelQuote) GetActionType() ActionType { return AcCancelQuote }

type StartRound struct {
	RoundID int64  `json:"round_id"`
	RoomID  string `json:"room_id"`
}

func (a StartRound) GetActionType() ActionType { return AcStartRound }

type EndRound struct {
	RoundID int64  `json:"round_id"`
	RoomID  string `json:"room_id"`
}

func (a EndRound) GetActionType() ActionType { return AcEndRound }

type EndGame struct {
	RoomID   string `json:"room_id"`
	RoundID  int64  `json:"round_id"`
	PlayerID string `json:"player_id"`
}

func (a EndGame) GetActionType() ActionType { return AcEndGame }

// Encode wraps an action in the {"type","payload"} envelope.
func Encode(a Action) ([]byte, error) {
	return json.Marshal(struct {
		Type    ActionType `json:"type"`
		Payload Action     `json:"payload"`
	}{
		Type:    a.GetActionType(),
		Payload: a,
	})
}
