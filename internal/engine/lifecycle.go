package engine

import (
	"time"

	"figgie_go/internal/domain"
	"figgie_go/internal/event"
	"figgie_go/internal/state"
)

// RoundDuration is the fixed length of a trading round.
const RoundDuration = 240 * time.Second

// Remaining returns the time left in the round at now, in whole seconds and
// clamped to zero. It is recomputed from the server start time on every call
// so a late start or a restart converges on the same deadline.
func Remaining(r state.Round, now time.Time) time.Duration {
	switch r.Phase {
	case domain.PhaseActive, domain.PhaseEnding:
	default:
		return 0
	}
	elapsed := now.Unix() - r.StartUnix
	left := int64(RoundDuration/time.Second) - elapsed
	if left < 0 {
		left = 0
	}
	return time.Duration(left) * time.Second
}

// Tick advances the countdown. The first tick that finds an active round at
// zero moves it to Ending and returns the EndRound action to send. Every
// other tick returns s unchanged and a nil action.
func Tick(s *state.Aggregate, now time.Time) (*state.Aggregate, *event.EndRound) {
	if s.GameOver || s.Round.Phase != domain.PhaseActive || s.Round.EndRequested {
		return s, nil
	}
	if Remaining(s.Round, now) > 0 {
		return s, nil
	}
	next := s.Clone()
	next.Round.EndRequested = true
	next.Round.Phase = domain.PhaseEnding
	return next, &event.EndRound{RoundID: next.Round.ID, RoomID: next.RoomID}
}

// CanStartRound reports whether a manual StartRound should reset the round
// locally before the server confirms it.
func CanStartRound(s *state.Aggregate) bool {
	if s.GameOver {
		return false
	}
	return s.Round.Phase == domain.PhaseEnded || s.Round.Phase == domain.PhaseIdle
}

// NextRoundID is the round id a manual StartRound should carry.
func NextRoundID(s *state.Aggregate) int64 {
	return s.Round.ID + 1
}

// BeginOptimisticRound resets the per-round displays and restarts the
// countdown anchor at now for round id, marked provisional. The matching
// RoundStarted overwrites all of it with the server's values.
func BeginOptimisticRound(s *state.Aggregate, id int64, now time.Time) *state.Aggregate {
	next := s.Clone()
	next.ResetRound()
	next.Hand = domain.Hand{}
	next.Round = state.Round{
		ID:          id,
		StartUnix:   now.Unix(),
		Phase:       domain.PhaseActive,
		Provisional: true,
	}
	return next
}

// RequestEnd records a manual EndRound: an active round moves to Ending and
// the countdown will not fire for it again. Other phases are left alone.
func RequestEnd(s *state.Aggregate) *state.Aggregate {
	if s.Round.Phase != domain.PhaseActive {
		return s
	}
	next := s.Clone()
	next.Round.EndRequested = true
	next.Round.Phase = domain.PhaseEnding
	return next
}
