package app

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"strings"

	"figgie_go/internal/domain"
)

// ErrQuit is returned by Execute for the quit command after EndGame is sent.
var ErrQuit = errors.New("quit")

// CommandKind enumerates the terminal commands.
type CommandKind int

const (
	CmdBid CommandKind = iota + 1
	CmdOffer
	CmdCancel
	CmdStart
	CmdEnd
	CmdQuit
	CmdHelp
)

// Command is one parsed input line.
type Command struct {
	Kind  CommandKind
	Suit  domain.Suit
	Side  domain.Side
	Price int64
}

// Help lists the accepted commands.
const Help = `commands:
  bid <suit> <price>                 post a bid
  offer <suit> <price>               post an offer
  cancel <bid|offer> <suit> <price>  withdraw a quote
  start                              start the next round
  end                                end the current round
  quit                               end the game and leave
  help                               show this text`

// ParseCommand parses a line such as "bid heart 12".
func ParseCommand(line string) (Command, error) {
	fields := strings.Fields(strings.ToLower(line))
	if len(fields) == 0 {
		return Command{}, fmt.Errorf("empty command")
	}

	switch fields[0] {
	case "bid", "b", "offer", "o", "ask":
		if len(fields) != 3 {
			return Command{}, fmt.Errorf("usage: %s <suit> <price>", fields[0])
		}
		side := domain.Bid
		kind := CmdBid
		if fields[0] != "bid" && fields[0] != "b" {
			side, kind = domain.Offer, CmdOffer
		}
		suit, price, err := parseSuitPrice(fields[1], fields[2])
		if err != nil {
			return Command{}, err
		}
		return Command{Kind: kind, Suit: suit, Side: side, Price: price}, nil

	case "cancel", "c":
		if len(fields) != 4 {
			return Command{}, fmt.Errorf("usage: cancel <bid|offer> <suit> <price>")
		}
		side, err := domain.ParseSide(fields[1])
		if err != nil {
			return Command{}, err
		}
		suit, price, err := parseSuitPrice(fields[2], fields[3])
		if err != nil {
			return Command{}, err
		}
		return Command{Kind: CmdCancel, Suit: suit, Side: side, Price: price}, nil

	case "start":
		return Command{Kind: CmdStart}, nil
	case "end":
		return Command{Kind: CmdEnd}, nil
	case "quit", "exit", "q":
		return Command{Kind: CmdQuit}, nil
	case "help", "?":
		return Command{Kind: CmdHelp}, nil
	default:
		return Command{}, fmt.Errorf("unknown command %q (try help)", fields[0])
	}
}

// parseSuitPrice reads a suit (name, or its first letter) and an integer price.
func parseSuitPrice(suitArg, priceArg string) (domain.Suit, int64, error) {
	suit, err := domain.ParseSuit(suitArg)
	if err != nil {
		for _, s := range domain.Suits {
			if strings.EqualFold(string(s)[:1], suitArg) {
				suit, err = s, nil
				break
			}
		}
	}
	if err != nil {
		return "", 0, err
	}
	price, err := strconv.ParseInt(priceArg, 10, 64)
	if err != nil {
		return "", 0, fmt.Errorf("invalid price %q", priceArg)
	}
	return suit, price, nil
}

// Actions is what a command needs from a session.
type Actions interface {
	PlaceQuote(ctx context.Context, suit domain.Suit, side domain.Side, price int64) error
	CancelQuote(ctx context.Context, suit domain.Suit, side domain.Side, price int64) error
	StartRound(ctx context.Context) error
	EndRound(ctx context.Context) error
	EndGame(ctx context.Context) error
}

// Execute runs cmd against the session. Quit sends EndGame and returns
// ErrQuit whatever the send result.
func Execute(ctx context.Context, a Actions, cmd Command) error {
	switch cmd.Kind {
	case CmdBid, CmdOffer:
		return a.PlaceQuote(ctx, cmd.Suit, cmd.Side, cmd.Price)
	case CmdCancel:
		return a.CancelQuote(ctx, cmd.Suit, cmd.Side, cmd.Price)
	case CmdStart:
		return a.StartRound(ctx)
	case CmdEnd:
		return a.EndRound(ctx)
	case CmdQuit:
		if err := a.EndGame(ctx); err != nil {
			return fmt.Errorf("%w (end game not delivered: %v)", ErrQuit, err)
		}
		return ErrQuit
	case CmdHelp:
		return nil
	default:
		return fmt.Errorf("unsupported command %d", cmd.Kind)
	}
}
