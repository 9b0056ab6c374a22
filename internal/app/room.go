package app

import (
	"fmt"

	"github.com/google/uuid"

	"figgie_go/internal/domain"
	"figgie_go/internal/infra"
)

// BuildRoom assembles the room-creation request: self first, then the
// configured number of robots. An empty room id gets a fresh uuid.
func BuildRoom(cfg *infra.Config) domain.Bootstrap {
	roomID := cfg.Room.ID
	if roomID == "" {
		roomID = uuid.NewString()
	}

	players := make([]domain.PlayerIdentity, 0, cfg.Room.Robots+1)
	players = append(players, cfg.Self())
	for i := 1; i <= cfg.Room.Robots; i++ {
		players = append(players, domain.PlayerIdentity{
			ID:   fmt.Sprintf("robot_%d", i),
			Name: fmt.Sprintf("Robot %d", i),
		})
	}

	return domain.Bootstrap{
		RoomID:   roomID,
		RoomName: cfg.Room.Name,
		Players:  players,
		SelfID:   cfg.Player.ID,
	}
}
