package engine

import (
	"fmt"

	"figgie_go/internal/event"
	"figgie_go/internal/state"
)

// Apply decodes one inbound frame and reduces it. Live sessions and replay
// share this path. A decode failure returns s unchanged with an error
// wrapping event.ErrMalformed.
func Apply(s *state.Aggregate, frame []byte) (*state.Aggregate, Outcome, error) {
	ev, err := event.Decode(frame)
	if err != nil {
		return s, Outcome{}, fmt.Errorf("apply: %w", err)
	}
	next, out := Reduce(s, ev)
	return next, out, nil
}
