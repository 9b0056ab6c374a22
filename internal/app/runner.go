package app

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync/atomic"

	"github.com/jonboulle/clockwork"

	"figgie_go/internal/domain"
	"figgie_go/internal/engine"
	"figgie_go/internal/infra"
	"figgie_go/internal/state"
	"figgie_go/internal/storage"
)

// Dialer opens the channel for (roomID, playerID).
type Dialer func(ctx context.Context, roomID, playerID string) (engine.Channel, error)

// WSDialer dials the configured websocket endpoint.
func WSDialer(wsURL string) Dialer {
	return func(ctx context.Context, roomID, playerID string) (engine.Channel, error) {
		return infra.DialChannel(ctx, wsURL, roomID, playerID)
	}
}

// Runner plays one game: it opens a session for the bootstrap and, when
// reconnect is enabled, replaces it with a fresh one after the channel
// drops. With reconnect off the dropped session is left running.
type Runner struct {
	Bootstrap domain.Bootstrap
	Dial      Dialer
	Clock     clockwork.Clock
	Journal   *storage.Journal
	Archive   engine.ResultSink
	OnUpdate  func(state.View)
	LockDir   string

	Reconnect  bool
	MaxRetries int

	current atomic.Pointer[engine.Session]
}

// Current returns the active session, or nil between sessions.
func (r *Runner) Current() *engine.Session {
	return r.current.Load()
}

// Run blocks until the game is over, the user leaves, ctx is cancelled, or
// reconnecting is exhausted.
func (r *Runner) Run(ctx context.Context) error {
	if err := r.Bootstrap.Validate(); err != nil {
		return err
	}
	if r.Clock == nil {
		r.Clock = clockwork.NewRealClock()
	}
	if r.LockDir != "" {
		unlock, err := infra.CreateSessionLock(r.LockDir, r.Bootstrap.RoomID, r.Bootstrap.SelfID)
		if err != nil {
			return err
		}
		defer unlock()
	}

	retry := 0
	for {
		err := r.runOnce(ctx)
		if err == nil || ctx.Err() != nil {
			return nil
		}
		if !errors.Is(err, infra.ErrChannelClosed) || !r.Reconnect || retry >= r.MaxRetries {
			return err
		}
		slog.Warn("SESSION_DROPPED", slog.Any("error", err), slog.Int("retry", retry))
		if err := infra.WaitBackoff(ctx, r.Clock, retry); err != nil {
			return nil
		}
		retry++
	}
}

func (r *Runner) runOnce(ctx context.Context) error {
	ch, err := r.Dial(ctx, r.Bootstrap.RoomID, r.Bootstrap.SelfID)
	if err != nil {
		return fmt.Errorf("%w: %v", infra.ErrChannelClosed, err)
	}

	cfg := engine.SessionConfig{
		Clock:    r.Clock,
		Archive:  r.Archive,
		OnUpdate: r.OnUpdate,
	}
	if r.Journal != nil {
		cfg.Journal = r.Journal
	}
	sess, err := engine.NewSession(r.Bootstrap, ch, cfg)
	if err != nil {
		ch.Close()
		return err
	}
	if r.Journal != nil {
		if err := r.Journal.BeginSession(ctx, sess.ID(), r.Bootstrap); err != nil {
			slog.Error("JOURNAL_BEGIN_FAILED", slog.Any("error", err))
		}
	}

	r.current.Store(sess)
	defer r.current.Store(nil)

	sessCtx, cancel := context.WithCancel(ctx)
	defer cancel()
	errc := make(chan error, 1)
	go func() { errc <- sess.Run(sessCtx) }()

	// Without reconnect a dropped session keeps running so the countdown
	// and view stay live until the user leaves.
	if !r.Reconnect {
		return <-errc
	}
	select {
	case err := <-errc:
		return err
	case <-sess.Disconnected():
		cancel()
		<-errc
		return fmt.Errorf("%w: session %s dropped", infra.ErrChannelClosed, sess.ID())
	}
}
