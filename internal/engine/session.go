package engine

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"sync/atomic"
	"time"

	"github.com/google/uuid"
	"github.com/jonboulle/clockwork"
	"golang.org/x/sync/errgroup"

	"figgie_go/internal/dispatch"
	"figgie_go/internal/domain"
	"figgie_go/internal/state"
	"figgie_go/internal/storage"
)

// ErrSessionClosed is returned for intents submitted to a session that has stopped.
var ErrSessionClosed = errors.New("session closed")

// Channel is the bidirectional connection to the server for one (room, player).
type Channel interface {
	// Listen delivers inbound frames to fn in arrival order until the channel
	// closes or ctx is done.
	Listen(ctx context.Context, fn func(frame []byte)) error
	Send(ctx context.Context, frame []byte) error
	Close() error
}

// Recorder persists raw frames. storage.Journal implements it.
type Recorder interface {
	Record(ctx context.Context, sessionID string, dir storage.Direction, frame []byte) error
}

// ResultSink receives every round result. storage.ResultArchive implements it.
type ResultSink interface {
	Save(result domain.RoundResult) (string, error)
}

// SessionConfig holds the optional collaborators of a Session.
type SessionConfig struct {
	Clock    clockwork.Clock
	Journal  Recorder
	Archive  ResultSink
	OnUpdate func(state.View)
}

type intentKind int

const (
	intentPlace intentKind = iota
	intentCancel
	intentStartRound
	intentEndRound
	intentEndGame
)

type intent struct {
	kind  intentKind
	suit  domain.Suit
	side  domain.Side
	price int64
	reply chan error
}

// Session owns the aggregate for one game. A single goroutine (Run's loop)
// applies inbound frames, countdown ticks and user intents; readers see
// copies through View.
type Session struct {
	id       string
	agg      *state.Aggregate // loop-owned
	ch       Channel          // loop-owned; nil once the channel is lost
	dispatch *dispatch.Dispatcher
	clock    clockwork.Clock
	journal  Recorder
	archive  ResultSink
	onUpdate func(state.View)

	frames       chan []byte
	intents      chan intent
	lost         chan error
	disconnected chan struct{}
	done         chan struct{}
	running      atomic.Bool

	mu   sync.RWMutex // guards view; used only for external reads
	view state.View
}

// NewSession validates the bootstrap and prepares a session over ch.
// An invalid bootstrap returns domain.ErrInvalidBootstrap and nothing is started.
func NewSession(b domain.Bootstrap, ch Channel, cfg SessionConfig) (*Session, error) {
	agg, err := state.New(b)
	if err != nil {
		return nil, err
	}
	if cfg.Clock == nil {
		cfg.Clock = clockwork.NewRealClock()
	}

	s := &Session{
		id:       uuid.NewString(),
		agg:      agg,
		ch:       ch,
		clock:    cfg.Clock,
		journal:  cfg.Journal,
		archive:  cfg.Archive,
		onUpdate: cfg.OnUpdate,
		frames:   make(chan []byte, 64),
		intents:  make(chan intent),
		lost:     make(chan error, 1),
		done:     make(chan struct{}),

		disconnected: make(chan struct{}),
	}
	s.dispatch = dispatch.New(&recordingSender{s: s}, agg.RoomID, agg.Self.ID)
	s.view = agg.View(0)
	return s, nil
}

// ID returns the session instance id used to partition the journal.
func (s *Session) ID() string { return s.id }

// Done is closed when Run has returned and every resource is released.
func (s *Session) Done() <-chan struct{} { return s.done }

// Disconnected is closed when the channel is lost while the session keeps
// running. It is never closed if the session stops first.
func (s *Session) Disconnected() <-chan struct{} { return s.disconnected }

// Run drives the session until the game ends, EndGame is sent, or ctx is
// cancelled. Losing the channel does not stop it: the countdown keeps
// running and later sends fail with domain.ErrChannelClosed. The ticker is
// stopped and the channel closed on every exit path. The only error is a
// second call to Run.
func (s *Session) Run(ctx context.Context) error {
	if !s.running.CompareAndSwap(false, true) {
		return fmt.Errorf("session %s: already running", s.id)
	}

	ticker := s.clock.NewTicker(time.Second)
	runCtx, cancel := context.WithCancel(ctx)
	defer func() {
		cancel()
		ticker.Stop()
		s.closeChannel()
		close(s.done)
		slog.Info("Session stopped", slog.String("session_id", s.id))
	}()

	slog.Info("Session started",
		slog.String("session_id", s.id),
		slog.String("room_id", s.agg.RoomID),
		slog.String("player_id", s.agg.Self.ID))

	ch := s.ch
	g, gctx := errgroup.WithContext(runCtx)
	g.Go(func() error {
		s.readPump(gctx, ch)
		return nil
	})
	g.Go(func() error {
		defer cancel()
		return s.loop(gctx, ticker)
	})
	return g.Wait()
}

// readPump forwards raw frames to the loop. It never decodes or mutates.
// A close not caused by ctx is reported to the loop after every frame
// received before it.
func (s *Session) readPump(ctx context.Context, ch Channel) {
	err := ch.Listen(ctx, func(frame []byte) {
		select {
		case s.frames <- frame:
		case <-ctx.Done():
		}
	})
	if ctx.Err() != nil {
		return
	}
	if err == nil {
		err = domain.ErrChannelClosed
	}
	s.lost <- err
}

func (s *Session) loop(ctx context.Context, ticker clockwork.Ticker) error {
	s.publish()
	for {
		select {
		case <-ctx.Done():
			s.drain(ctx)
			return nil
		case frame := <-s.frames:
			if s.handleFrame(ctx, frame) {
				return nil
			}
		case err := <-s.lost:
			if s.drain(ctx) {
				return nil
			}
			s.handleLost(err)
		case <-ticker.Chan():
			s.handleTick(ctx)
		case in := <-s.intents:
			if s.handleIntent(ctx, in) {
				return nil
			}
		}
	}
}

// drain applies frames the pump delivered before the channel went away,
// so a GameEnded followed by a close is not lost. It reports whether the
// game is over.
func (s *Session) drain(ctx context.Context) bool {
	for {
		select {
		case frame := <-s.frames:
			if s.handleFrame(ctx, frame) {
				return true
			}
		default:
			return false
		}
	}
}

// handleLost drops the channel reference. The loop keeps serving ticks and
// intents; reconnecting is the caller's business.
func (s *Session) handleLost(err error) {
	slog.Warn("CHANNEL_CLOSED",
		slog.String("session_id", s.id),
		slog.Int64("round_id", s.agg.Round.ID),
		slog.Any("error", err))
	s.closeChannel()
	close(s.disconnected)
	s.publish()
}

func (s *Session) closeChannel() {
	if s.ch == nil {
		return
	}
	if err := s.ch.Close(); err != nil {
		slog.Debug("Channel close", slog.Any("error", err))
	}
	s.ch = nil
}

// handleFrame journals the frame before applying it. It reports whether the
// game is over.
func (s *Session) handleFrame(ctx context.Context, frame []byte) bool {
	if s.journal != nil {
		if err := s.journal.Record(context.WithoutCancel(ctx), s.id, storage.Inbound, frame); err != nil {
			slog.Error("JOURNAL_WRITE_FAILED", slog.String("session_id", s.id), slog.Any("error", err))
		}
	}

	next, out, err := Apply(s.agg, frame)
	if err != nil {
		slog.Warn("MALFORMED_EVENT", slog.Any("error", err), slog.Int("bytes", len(frame)))
		return false
	}
	for _, w := range out.Warnings {
		w.Log(slog.String("session_id", s.id))
	}
	if !out.Applied {
		return false
	}
	s.agg = next

	if out.RoundEnded != nil {
		slog.Info("Round ended",
			slog.Int64("round_id", out.RoundEnded.RoundID),
			slog.String("goal_suit", string(out.RoundEnded.GoalSuit)))
		if s.archive != nil {
			if _, err := s.archive.Save(*out.RoundEnded); err != nil {
				slog.Error("RESULT_ARCHIVE_FAILED", slog.Any("error", err))
			}
		}
	}
	s.publish()

	if out.GameOver {
		slog.Info("Game ended", slog.String("room_id", s.agg.RoomID))
		return true
	}
	return false
}

func (s *Session) handleTick(ctx context.Context) {
	next, action := Tick(s.agg, s.clock.Now())
	s.agg = next
	if s.agg.Round.Phase != domain.PhaseActive && s.agg.Round.Phase != domain.PhaseEnding {
		return
	}
	if action != nil {
		slog.Info("Countdown expired, ending round", slog.Int64("round_id", action.RoundID))
		if err := s.dispatch.Send(ctx, *action); err != nil {
			slog.Error("END_ROUND_SEND_FAILED", slog.Int64("round_id", action.RoundID), slog.Any("error", err))
		}
	}
	s.publish()
}

// handleIntent runs one user intent and replies to the submitter. It
// reports whether the session should stop.
func (s *Session) handleIntent(ctx context.Context, in intent) bool {
	var err error
	stop := false

	switch in.kind {
	case intentPlace:
		err = s.dispatch.PlaceQuote(ctx, in.suit, in.side, in.price)
	case intentCancel:
		err = s.dispatch.CancelQuote(ctx, in.suit, in.side, in.price)
	case intentStartRound:
		id := NextRoundID(s.agg)
		err = s.dispatch.StartRound(ctx, id)
		if err == nil && CanStartRound(s.agg) {
			s.agg = BeginOptimisticRound(s.agg, id, s.clock.Now())
			s.publish()
		}
	case intentEndRound:
		err = s.dispatch.EndRound(ctx, s.agg.Round.ID)
		if err == nil {
			s.agg = RequestEnd(s.agg)
			s.publish()
		}
	case intentEndGame:
		err = s.dispatch.EndGame(ctx, s.agg.Round.ID)
		stop = true
	}

	if err != nil {
		slog.Warn("ACTION_NOT_SENT", slog.Int("intent", int(in.kind)), slog.Any("error", err))
	}
	in.reply <- err
	return stop
}

func (s *Session) publish() {
	v := s.agg.View(Remaining(s.agg.Round, s.clock.Now()))
	s.mu.Lock()
	s.view = v
	s.mu.Unlock()
	if s.onUpdate != nil {
		s.onUpdate(v)
	}
}

// View returns the latest snapshot. Callers must not modify its slices.
func (s *Session) View() state.View {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.view
}

func (s *Session) submit(ctx context.Context, in intent) error {
	in.reply = make(chan error, 1)
	select {
	case s.intents <- in:
	case <-s.done:
		return ErrSessionClosed
	case <-ctx.Done():
		return ctx.Err()
	}
	select {
	case err := <-in.reply:
		return err
	case <-s.done:
		select {
		case err := <-in.reply:
			return err
		default:
			return ErrSessionClosed
		}
	}
}

// PlaceQuote posts a quote for self.
func (s *Session) PlaceQuote(ctx context.Context, suit domain.Suit, side domain.Side, price int64) error {
	return s.submit(ctx, intent{kind: intentPlace, suit: suit, side: side, price: price})
}

// CancelQuote withdraws a quote for self.
func (s *Session) CancelQuote(ctx context.Context, suit domain.Suit, side domain.Side, price int64) error {
	return s.submit(ctx, intent{kind: intentCancel, suit: suit, side: side, price: price})
}

// StartRound asks the server for the next round and, from Idle or Ended,
// resets the local round immediately without waiting for RoundStarted.
func (s *Session) StartRound(ctx context.Context) error {
	return s.submit(ctx, intent{kind: intentStartRound})
}

// EndRound asks the server to end the current round.
func (s *Session) EndRound(ctx context.Context) error {
	return s.submit(ctx, intent{kind: intentEndRound})
}

// EndGame sends EndGame and stops the session whatever the send result.
func (s *Session) EndGame(ctx context.Context) error {
	return s.submit(ctx, intent{kind: intentEndGame})
}

// recordingSender sends on the channel and journals what was sent.
type recordingSender struct {
	s *Session
}

func (r *recordingSender) Send(ctx context.Context, frame []byte) error {
	if r.s.ch == nil {
		return domain.ErrChannelClosed
	}
	if err := r.s.ch.Send(ctx, frame); err != nil {
		return err
	}
	if r.s.journal != nil {
		if err := r.s.journal.Record(context.WithoutCancel(ctx), r.s.id, storage.Outbound, frame); err != nil {
			slog.Error("JOURNAL_WRITE_FAILED", slog.String("session_id", r.s.id), slog.Any("error", err))
		}
	}
	return nil
}
