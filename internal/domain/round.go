package domain

// Phase is the lifecycle phase of the current round.
type Phase int

const (
	PhaseIdle   Phase = iota // before the first round starts; no countdown runs
	PhaseActive              // trading, countdown running
	PhaseEnding              // countdown expired and EndRound was sent
	PhaseEnded               // RoundEnded received
)

func (p Phase) String() string {
	switch p {
	case PhaseIdle:
		return "IDLE"
	case PhaseActive:
		return "ACTIVE"
	case PhaseEnding:
		return "ENDING"
	case PhaseEnded:
		return "ENDED"
	default:
		return "UNKNOWN"
	}
}

// Standing is one row of a round-end or game-end result: the server's
// authoritative cash and hand merged with locally retained deltas and color.
type Standing struct {
	Identity   PlayerIdentity `json:"identity"`
	Cash       int64          `json:"cash"`
	Hand       Hand           `json:"hand"`
	TotalCards int            `json:"total_cards"`
	SuitDeltas SuitDeltas     `json:"suit_deltas"`
	Color      string         `json:"color"`
}

// RoundResult is the ranked snapshot produced when a round ends.
type RoundResult struct {
	RoundID    int64      `json:"round_id"`
	ServerTime int64      `json:"server_time"`
	GoalSuit   Suit       `json:"goal_suit"`
	Standings  []Standing `json:"standings"`
}
