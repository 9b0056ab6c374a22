package domain

import (
	"errors"
	"fmt"
)

// ErrInvalidBootstrap means the session payload cannot be used to enter a game.
var ErrInvalidBootstrap = errors.New("invalid session bootstrap")

// Bootstrap is the room-creation result consumed by a session: the room and
// its fixed roster, plus which roster entry is this client.
type Bootstrap struct {
	RoomID   string           `json:"room_id"`
	RoomName string           `json:"room_name"`
	Players  []PlayerIdentity `json:"players"`
	SelfID   string           `json:"-"`
}

// Validate checks that the roster is usable and contains self.
func (b Bootstrap) Validate() error {
	if b.RoomID == "" {
		return fmt.Errorf("%w: empty room id", ErrInvalidBootstrap)
	}
	if len(b.Players) == 0 {
		return fmt.Errorf("%w: empty roster", ErrInvalidBootstrap)
	}
	seen := make(map[string]bool, len(b.Players))
	for _, p := range b.Players {
		if p.ID == "" {
			return fmt.Errorf("%w: player with empty id", ErrInvalidBootstrap)
		}
		if seen[p.ID] {
			return fmt.Errorf("%w: duplicate player id %q", ErrInvalidBootstrap, p.ID)
		}
		seen[p.ID] = true
	}
	if !seen[b.SelfID] {
		return fmt.Errorf("%w: self %q not in roster", ErrInvalidBootstrap, b.SelfID)
	}
	return nil
}

// Self returns the roster entry for this client.
func (b Bootstrap) Self() PlayerIdentity {
	for _, p := range b.Players {
		if p.ID == b.SelfID {
			return p
		}
	}
	return PlayerIdentity{ID: b.SelfID}
}
