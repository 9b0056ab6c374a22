package state

import "figgie_go/internal/domain"

// Round is the lifecycle record of the current round.
type Round struct {
	ID        int64        `json:"id"`
	StartUnix int64        `json:"start_unix"` // server-supplied, never local receipt time
	Phase     domain.Phase `json:"phase"`
	GoalSuit  domain.Suit  `json:"goal_suit,omitempty"`

	// EndRequested is set once EndRound has been synthesized for this round.
	EndRequested bool `json:"end_requested"`
	// Provisional marks a round started locally that RoundStarted has not yet confirmed.
	Provisional bool `json:"provisional"`
}
