package dispatch

import (
	"context"
	"errors"
	"fmt"

	"figgie_go/internal/domain"
	"figgie_go/internal/event"
	"figgie_go/pkg/safe"
)

// ErrPriceOutOfRange means the price cannot be carried by the protocol's
// unsigned 32-bit field. Nothing is sent.
var ErrPriceOutOfRange = errors.New("price out of range")

// Sender delivers one encoded frame to the server.
type Sender interface {
	Send(ctx context.Context, frame []byte) error
}

// Dispatcher turns user intents into encoded actions. It performs no
// business validation; the server decides what is legal.
type Dispatcher struct {
	sender   Sender
	roomID   string
	playerID string
}

// New creates a dispatcher that sends as playerID in roomID.
func New(sender Sender, roomID, playerID string) *Dispatcher {
	return &Dispatcher{sender: sender, roomID: roomID, playerID: playerID}
}

func (d *Dispatcher) PlaceQuote(ctx context.Context, suit domain.Suit, side domain.Side, price int64) error {
	p, err := safe.ToUint32(price)
	if err != nil {
		return fmt.Errorf("%w: %d", ErrPriceOutOfRange, price)
	}
	return d.Send(ctx, event.PlaceQuote{PlayerID: d.playerID, Suit: suit, Side: side, Price: p})
}

func (d *Dispatcher) CancelQuote(ctx context.Context, suit domain.Suit, side domain.Side, price int64) error {
	p, err := safe.ToUint32(price)
	if err != nil {
		return fmt.Errorf("%w: %d", ErrPriceOutOfRange, price)
	}
	return d.Send(ctx, event.CancelQuote{PlayerID: d.playerID, Suit: suit, Side: side, Price: p})
}

func (d *Dispatcher) StartRound(ctx context.Context, roundID int64) error {
	return d.Send(ctx, event.StartRound{RoundID: roundID, RoomID: d.roomID})
}

func (d *Dispatcher) EndRound(ctx context.Context, roundID int64) error {
	return d.Send(ctx, event.EndRound{RoundID: roundID, RoomID: d.roomID})
}

func (d *Dispatcher) EndGame(ctx context.Context, roundID int64) error {
	return d.Send(ctx, event.EndGame{RoomID: d.roomID, RoundID: roundID, PlayerID: d.playerID})
}

// Send encodes a and hands it to the sender once. There is no retry.
func (d *Dispatcher) Send(ctx context.Context, a event.Action) error {
	frame, err := event.Encode(a)
	if err != nil {
		return fmt.Errorf("encode %s: %w", a.GetActionType(), err)
	}
	if err := d.sender.Send(ctx, frame); err != nil {
		return fmt.Errorf("send %s: %w", a.GetActionType(), err)
	}
	return nil
}
