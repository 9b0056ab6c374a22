package engine

import (
	"context"
	"encoding/json"
	"errors"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/jonboulle/clockwork"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"figgie_go/internal/dispatch"
	"figgie_go/internal/domain"
	"figgie_go/internal/storage"
)

const waitFor = 2 * time.Second

var errRemoteClosed = errors.New("remote closed")

type fakeChannel struct {
	in        chan []byte
	remote    chan error
	sent      chan []byte
	failSends atomic.Bool
	closes    atomic.Int32
}

func newFakeChannel() *fakeChannel {
	return &fakeChannel{
		in:     make(chan []byte, 16),
		remote: make(chan error, 1),
		sent:   make(chan []byte, 16),
	}
}

func (f *fakeChannel) Listen(ctx context.Context, fn func([]byte)) error {
	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case err := <-f.remote:
			return err
		case frame := <-f.in:
			fn(frame)
		}
	}
}

func (f *fakeChannel) Send(_ context.Context, frame []byte) error {
	if f.failSends.Load() {
		return errors.New("broken pipe")
	}
	f.sent <- frame
	return nil
}

func (f *fakeChannel) Close() error {
	f.closes.Add(1)
	return nil
}

type fakeRecorder struct {
	mu     sync.Mutex
	frames map[storage.Direction][]string
}

func (r *fakeRecorder) Record(_ context.Context, _ string, dir storage.Direction, frame []byte) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.frames == nil {
		r.frames = make(map[storage.Direction][]string)
	}
	r.frames[dir] = append(r.frames[dir], string(frame))
	return nil
}

func (r *fakeRecorder) count(dir storage.Direction) int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.frames[dir])
}

type fakeSink struct {
	mu      sync.Mutex
	results []domain.RoundResult
}

func (s *fakeSink) Save(r domain.RoundResult) (string, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.results = append(s.results, r)
	return "mem", nil
}

func (s *fakeSink) count() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.results)
}

type sentAction struct {
	Type    string          `json:"type"`
	Payload json.RawMessage `json:"payload"`
}

func nextSent(t *testing.T, ch *fakeChannel) sentAction {
	t.Helper()
	select {
	case frame := <-ch.sent:
		var a sentAction
		require.NoError(t, json.Unmarshal(frame, &a))
		return a
	case <-time.After(waitFor):
		t.Fatal("no action sent")
		return sentAction{}
	}
}

type harness struct {
	sess    *Session
	ch      *fakeChannel
	clock   *clockwork.FakeClock
	journal *fakeRecorder
	archive *fakeSink
	cancel  context.CancelFunc
	errCh   chan error
}

func startSession(t *testing.T) *harness {
	t.Helper()
	h := &harness{
		ch:      newFakeChannel(),
		clock:   clockwork.NewFakeClockAt(time.Unix(1000, 0)),
		journal: &fakeRecorder{},
		archive: &fakeSink{},
		errCh:   make(chan error, 1),
	}
	sess, err := NewSession(testBootstrap(), h.ch, SessionConfig{
		Clock:   h.clock,
		Journal: h.journal,
		Archive: h.archive,
	})
	require.NoError(t, err)
	h.sess = sess

	ctx, cancel := context.WithCancel(context.Background())
	h.cancel = cancel
	go func() { h.errCh <- sess.Run(ctx) }()
	t.Cleanup(func() {
		cancel()
		<-sess.Done()
	})
	return h
}

func (h *harness) push(frame string) {
	h.ch.in <- []byte(frame)
}

func (h *harness) wait(t *testing.T) error {
	t.Helper()
	select {
	case err := <-h.errCh:
		return err
	case <-time.After(waitFor):
		t.Fatal("session did not stop")
		return nil
	}
}

const roundStartedA = `{"type":"RoundStarted","payload":{"round_id":1,"server_time":1000,"player":{"info":{"id":"A","name":"Alice"},"cash":350,"hand":{"Spade":2,"Club":3,"Diamond":3,"Heart":2}}}}`

func TestNewSession_InvalidBootstrap(t *testing.T) {
	_, err := NewSession(domain.Bootstrap{}, newFakeChannel(), SessionConfig{})
	assert.ErrorIs(t, err, domain.ErrInvalidBootstrap)
}

func TestSession_AppliesFramesInOrder(t *testing.T) {
	h := startSession(t)
	h.push(roundStartedA)
	h.push(`not json`)
	h.push(`{"type":"QuotePlaced","payload":{"quote":{"player_id":"B","suit":"Heart","side":"Bid","price":8}}}`)
	h.push(`{"type":"TradeExecuted","payload":{"buyer":"B","seller":"A","suit":"Heart","price":8}}`)

	require.Eventually(t, func() bool { return len(h.sess.View().Trades) == 1 }, waitFor, 5*time.Millisecond)

	v := h.sess.View()
	assert.Equal(t, domain.PhaseActive, v.Round.Phase)
	assert.Equal(t, 240*time.Second, v.Remaining)
	assert.False(t, v.Book[domain.Heart.Index()].HasBid, "trade cleared the book")
	for _, p := range v.Players {
		if p.Identity.ID == "A" {
			assert.Equal(t, int64(358), p.Cash)
		}
	}
	assert.Equal(t, 4, h.journal.count(storage.Inbound), "malformed frames are journaled too")
}

func TestSession_CountdownSendsEndRoundOnce(t *testing.T) {
	h := startSession(t)
	h.push(roundStartedA)
	require.Eventually(t, func() bool { return h.sess.View().Round.Phase == domain.PhaseActive }, waitFor, 5*time.Millisecond)

	h.clock.Advance(241 * time.Second)
	a := nextSent(t, h.ch)
	assert.Equal(t, "EndRound", a.Type)
	assert.JSONEq(t, `{"round_id":1,"room_id":"room-1"}`, string(a.Payload))

	require.Eventually(t, func() bool { return h.sess.View().Round.Phase == domain.PhaseEnding }, waitFor, 5*time.Millisecond)
	for i := 0; i < 5; i++ {
		h.clock.Advance(time.Second)
	}
	assert.Never(t, func() bool { return len(h.ch.sent) > 0 }, 100*time.Millisecond, 10*time.Millisecond)
	assert.Equal(t, 1, h.journal.count(storage.Outbound))
}

func TestSession_RoundEndedArchived(t *testing.T) {
	h := startSession(t)
	h.push(roundStartedA)
	ended := `{"type":"RoundEnded","payload":{"round_id":1,"server_time":1240,"goal_suit":"Heart","players":[{"info":{"id":"A","name":"Alice"},"cash":400,"hand":{"Heart":5}}]}}`
	h.push(ended)
	h.push(ended)

	require.Eventually(t, func() bool { return h.sess.View().Round.Phase == domain.PhaseEnded }, waitFor, 5*time.Millisecond)
	require.Eventually(t, func() bool { return h.journal.count(storage.Inbound) == 3 }, waitFor, 5*time.Millisecond)
	assert.Equal(t, 1, h.archive.count(), "a repeated RoundEnded is not archived twice")

	v := h.sess.View()
	require.NotNil(t, v.Result)
	assert.Equal(t, domain.Heart, v.Result.GoalSuit)
}

func TestSession_StartRoundOptimistic(t *testing.T) {
	h := startSession(t)
	ctx := context.Background()

	require.NoError(t, h.sess.StartRound(ctx))
	a := nextSent(t, h.ch)
	assert.Equal(t, "StartRound", a.Type)
	assert.JSONEq(t, `{"round_id":1,"room_id":"room-1"}`, string(a.Payload))

	v := h.sess.View()
	assert.Equal(t, domain.PhaseActive, v.Round.Phase)
	assert.True(t, v.Round.Provisional)
	assert.Equal(t, int64(1000), v.Round.StartUnix)

	// A second start while active is still sent but does not reset the round.
	h.clock.Advance(10 * time.Second)
	require.NoError(t, h.sess.StartRound(ctx))
	a = nextSent(t, h.ch)
	assert.JSONEq(t, `{"round_id":2,"room_id":"room-1"}`, string(a.Payload))
	assert.Equal(t, int64(1), h.sess.View().Round.ID)
}

func TestSession_EndRoundManual(t *testing.T) {
	h := startSession(t)
	h.push(roundStartedA)
	require.Eventually(t, func() bool { return h.sess.View().Round.Phase == domain.PhaseActive }, waitFor, 5*time.Millisecond)

	require.NoError(t, h.sess.EndRound(context.Background()))
	a := nextSent(t, h.ch)
	assert.Equal(t, "EndRound", a.Type)
	assert.Equal(t, domain.PhaseEnding, h.sess.View().Round.Phase)

	h.clock.Advance(300 * time.Second)
	assert.Never(t, func() bool { return len(h.ch.sent) > 0 }, 100*time.Millisecond, 10*time.Millisecond)
}

func TestSession_PlaceQuote(t *testing.T) {
	h := startSession(t)
	ctx := context.Background()

	require.NoError(t, h.sess.PlaceQuote(ctx, domain.Club, domain.Offer, 15))
	a := nextSent(t, h.ch)
	assert.Equal(t, "PlaceQuote", a.Type)
	assert.JSONEq(t, `{"player_id":"A","suit":"Club","side":"Offer","price":15}`, string(a.Payload))

	err := h.sess.PlaceQuote(ctx, domain.Club, domain.Offer, -1)
	assert.ErrorIs(t, err, dispatch.ErrPriceOutOfRange)
	assert.Empty(t, h.ch.sent)

	require.NoError(t, h.sess.CancelQuote(ctx, domain.Club, domain.Offer, 15))
	assert.Equal(t, "CancelQuote", nextSent(t, h.ch).Type)
}

func TestSession_SendFailureReported(t *testing.T) {
	h := startSession(t)
	h.ch.failSends.Store(true)

	err := h.sess.StartRound(context.Background())
	require.Error(t, err)
	assert.Contains(t, err.Error(), "broken pipe")
	assert.Equal(t, domain.PhaseIdle, h.sess.View().Round.Phase, "no optimistic start without a send")
}

func TestSession_EndGameStops(t *testing.T) {
	h := startSession(t)

	require.NoError(t, h.sess.EndGame(context.Background()))
	assert.Equal(t, "EndGame", nextSent(t, h.ch).Type)
	assert.NoError(t, h.wait(t))
	assert.Equal(t, int32(1), h.ch.closes.Load())

	err := h.sess.PlaceQuote(context.Background(), domain.Spade, domain.Bid, 1)
	assert.ErrorIs(t, err, ErrSessionClosed)
}

func TestSession_GameEndedStops(t *testing.T) {
	h := startSession(t)
	h.push(`{"type":"GameEnded","payload":{"players":[{"info":{"id":"A"},"cash":10,"hand":{}},{"info":{"id":"B"},"cash":90,"hand":{}}]}}`)

	assert.NoError(t, h.wait(t))
	v := h.sess.View()
	assert.True(t, v.GameOver)
	require.Len(t, v.Final, 2)
	assert.Equal(t, "B", v.Final[0].Identity.ID)
	assert.Equal(t, int32(1), h.ch.closes.Load())
}

func TestSession_CountdownSurvivesChannelLoss(t *testing.T) {
	h := startSession(t)
	h.push(roundStartedA)
	require.Eventually(t, func() bool { return h.sess.View().Round.Phase == domain.PhaseActive }, waitFor, 5*time.Millisecond)

	h.ch.remote <- errRemoteClosed
	select {
	case <-h.sess.Disconnected():
	case <-time.After(waitFor):
		t.Fatal("channel loss not reported")
	}
	assert.Equal(t, int32(1), h.ch.closes.Load())

	h.clock.Advance(241 * time.Second)
	require.Eventually(t, func() bool { return h.sess.View().Round.Phase == domain.PhaseEnding }, waitFor, 5*time.Millisecond)
	assert.Equal(t, time.Duration(0), h.sess.View().Remaining)
	assert.Empty(t, h.ch.sent, "nothing reaches a closed channel")

	err := h.sess.PlaceQuote(context.Background(), domain.Club, domain.Bid, 5)
	assert.ErrorIs(t, err, domain.ErrChannelClosed)

	select {
	case <-h.sess.Done():
		t.Fatal("session stopped after channel loss")
	default:
	}

	h.cancel()
	assert.NoError(t, h.wait(t))
	assert.Equal(t, int32(1), h.ch.closes.Load(), "channel closed once")
}

func TestSession_GameEndedBeforeCloseStops(t *testing.T) {
	h := startSession(t)
	h.push(`{"type":"GameEnded","payload":{"players":[{"info":{"id":"A"},"cash":10,"hand":{}}]}}`)
	require.Eventually(t, func() bool { return len(h.ch.in) == 0 }, waitFor, time.Millisecond)
	h.ch.remote <- errRemoteClosed

	assert.NoError(t, h.wait(t))
	assert.True(t, h.sess.View().GameOver)
}

func TestSession_ContextCancel(t *testing.T) {
	h := startSession(t)
	h.cancel()

	assert.NoError(t, h.wait(t))
	select {
	case <-h.sess.Done():
	case <-time.After(waitFor):
		t.Fatal("done not closed")
	}
}

func TestSession_RunTwice(t *testing.T) {
	h := startSession(t)
	// Run is already in progress on another goroutine once the first view is published.
	require.Eventually(t, func() bool { return h.sess.running.Load() }, waitFor, 5*time.Millisecond)
	assert.Error(t, h.sess.Run(context.Background()))
}
