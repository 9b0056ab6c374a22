package domain

// PlayerIdentity identifies a player. ID is the join key for every event
// payload; Name is for display only.
type PlayerIdentity struct {
	ID   string `json:"id"`
	Name string `json:"name"`
}

// DisplayName falls back to the id when no name is known.
func (p PlayerIdentity) DisplayName() string {
	if p.Name == "" {
		return p.ID
	}
	return p.Name
}

// PlayerState is the client-local, round-scoped view of one player.
type PlayerState struct {
	Identity   PlayerIdentity `json:"identity"`
	Cash       int64          `json:"cash"`
	TotalCards int            `json:"total_cards"`
	SuitDeltas SuitDeltas     `json:"suit_deltas"`
	Color      string         `json:"color"`
}

// playerPalette holds the presentation tags handed out in roster order.
var playerPalette = []string{
	"#386BE6", // blue
	"#33B282", // green
	"#EA4866", // red
	"#F2A541", // amber
	"#8E6BD8", // violet
	"#2BB3C0", // teal
}

// ColorFor returns the presentation tag for a roster position.
func ColorFor(position int) string {
	if position < 0 {
		position = -position
	}
	return playerPalette[position%len(playerPalette)]
}
