// Package replay rebuilds a session's state from its journal.
package replay

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"figgie_go/internal/domain"
	"figgie_go/internal/engine"
	"figgie_go/internal/state"
	"figgie_go/internal/storage"
)

// ErrNoSession is returned when no session id was given and the journal has none.
var ErrNoSession = errors.New("no recorded session")

// Step is the result of applying one journaled frame.
type Step struct {
	Seq     uint64
	Outcome engine.Outcome
	Err     error // decode error; the state was left unchanged
}

// Report summarizes a replay.
type Report struct {
	SessionID string
	Frames    int
	Applied   int
	Malformed int
	Warnings  int
	Rounds    []domain.RoundResult
	State     *state.Aggregate
}

// Replayer feeds inbound frames from the journal through the same
// decode-and-reduce path a live session uses.
type Replayer struct {
	journal *storage.Journal
}

// NewReplayer creates a new replayer over j.
func NewReplayer(j *storage.Journal) *Replayer {
	return &Replayer{journal: j}
}

// ResolveSession returns id, or the most recent session when id is empty.
func (r *Replayer) ResolveSession(ctx context.Context, id string) (string, error) {
	if id != "" {
		return id, nil
	}
	last, err := r.journal.GetMetadata(ctx, storage.MetaLastSession)
	if err != nil {
		return "", fmt.Errorf("failed to read last session: %w", err)
	}
	if last == "" {
		return "", ErrNoSession
	}
	return last, nil
}

// Run replays the session synchronously. onStep, if set, sees every frame
// with the state after it.
func (r *Replayer) Run(ctx context.Context, sessionID string, onStep func(Step, *state.Aggregate)) (*Report, error) {
	b, err := r.journal.LoadBootstrap(ctx, sessionID)
	if err != nil {
		return nil, err
	}
	s, err := state.New(b)
	if err != nil {
		return nil, fmt.Errorf("session %s: %w", sessionID, err)
	}
	frames, err := r.journal.LoadSession(ctx, sessionID, storage.Inbound)
	if err != nil {
		return nil, err
	}

	rep := &Report{SessionID: sessionID}
	for _, f := range frames {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		rep.Frames++

		next, out, err := engine.Apply(s, f.Payload)
		step := Step{Seq: f.Seq, Outcome: out, Err: err}
		if err != nil {
			rep.Malformed++
			slog.Debug("Skipping malformed frame", slog.Uint64("seq", f.Seq), slog.Any("error", err))
		}
		for _, w := range out.Warnings {
			w.Log(slog.Uint64("seq", f.Seq))
		}
		rep.Warnings += len(out.Warnings)
		if out.Applied {
			rep.Applied++
		}
		if out.RoundEnded != nil {
			rep.Rounds = append(rep.Rounds, *out.RoundEnded)
		}
		s = next
		if onStep != nil {
			onStep(step, s)
		}
	}
	rep.State = s
	return rep, nil
}
