package engine

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"figgie_go/internal/domain"
	"figgie_go/internal/state"
)

func TestRemaining(t *testing.T) {
	start := time.Unix(1000, 0)
	active := state.Round{Phase: domain.PhaseActive, StartUnix: start.Unix()}

	tests := []struct {
		name  string
		round state.Round
		now   time.Time
		want  time.Duration
	}{
		{"at start", active, start, 240 * time.Second},
		{"sub-second truncated", active, start.Add(1500 * time.Millisecond), 239 * time.Second},
		{"late join", active, start.Add(100 * time.Second), 140 * time.Second},
		{"expired", active, start.Add(240 * time.Second), 0},
		{"clamped", active, start.Add(time.Hour), 0},
		{"idle", state.Round{Phase: domain.PhaseIdle, StartUnix: start.Unix()}, start, 0},
		{"ended", state.Round{Phase: domain.PhaseEnded, StartUnix: start.Unix()}, start, 0},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, Remaining(tt.round, tt.now))
		})
	}
}

func TestTick_FiresEndRoundOnce(t *testing.T) {
	s := startedAggregate(t, 3, 1000)
	start := time.Unix(1000, 0)

	fired := 0
	for sec := 0; sec <= 241; sec++ {
		next, a := Tick(s, start.Add(time.Duration(sec)*time.Second))
		if a != nil {
			fired++
			assert.Equal(t, int64(3), a.RoundID)
			assert.Equal(t, "room-1", a.RoomID)
			assert.Equal(t, 240, sec)
		}
		s = next
	}
	assert.Equal(t, 1, fired)
	assert.Equal(t, domain.PhaseEnding, s.Round.Phase)
	assert.True(t, s.Round.EndRequested)

	// Further ticks long after expiry stay quiet.
	next, a := Tick(s, start.Add(time.Hour))
	assert.Nil(t, a)
	assert.Same(t, s, next)
}

func TestTick_QuietOutsideActive(t *testing.T) {
	s := newAggregate(t)
	next, a := Tick(s, time.Unix(1<<40, 0))
	assert.Nil(t, a)
	assert.Same(t, s, next)

	over := startedAggregate(t, 1, 0)
	over.GameOver = true
	_, a = Tick(over, time.Unix(10_000, 0))
	assert.Nil(t, a)
}

func TestTick_SkipsAfterManualEnd(t *testing.T) {
	s := RequestEnd(startedAggregate(t, 1, 1000))
	require.Equal(t, domain.PhaseEnding, s.Round.Phase)

	_, a := Tick(s, time.Unix(1000+240, 0))
	assert.Nil(t, a)
}

func TestRequestEnd_OnlyFromActive(t *testing.T) {
	idle := newAggregate(t)
	assert.Same(t, idle, RequestEnd(idle))
}

func TestOptimisticStart(t *testing.T) {
	s := startedAggregate(t, 1, 1000)
	s, _ = Reduce(s, roundEnded(1, player("A", 100)))
	require.True(t, CanStartRound(s))
	require.Equal(t, int64(2), NextRoundID(s))

	now := time.Unix(5000, 0)
	next := BeginOptimisticRound(s, 2, now)

	assert.Equal(t, domain.PhaseActive, next.Round.Phase)
	assert.True(t, next.Round.Provisional)
	assert.Equal(t, now.Unix(), next.Round.StartUnix)
	assert.Equal(t, domain.Hand{}, next.Hand)
	assert.Equal(t, 0, next.Log.Len())
	assert.Equal(t, RoundDuration, Remaining(next.Round, now))
	assert.Equal(t, domain.PhaseEnded, s.Round.Phase, "input untouched")

	// The server's RoundStarted replaces the provisional round.
	confirmed := startedAggregateFrom(t, next, 2, 4990)
	assert.False(t, confirmed.Round.Provisional)
	assert.Equal(t, int64(4990), confirmed.Round.StartUnix)
}

func TestCanStartRound(t *testing.T) {
	assert.True(t, CanStartRound(newAggregate(t)))
	assert.False(t, CanStartRound(startedAggregate(t, 1, 0)))

	over := newAggregate(t)
	over.GameOver = true
	assert.False(t, CanStartRound(over))
}
