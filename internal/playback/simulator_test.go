package playback_test

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/abhisek/lectern/internal/lesson"
	"github.com/abhisek/lectern/internal/lesson/lessontest"
	"github.com/abhisek/lectern/internal/playback"
	"github.com/abhisek/lectern/internal/playback/playbacktest"
)

func newSim(t *testing.T) (*playback.Simulator, *playbacktest.Clock) {
	t.Helper()
	clk := playbacktest.NewClock()
	sim := playback.NewSimulator(playback.WithClock(clk))
	t.Cleanup(sim.Close)
	return sim, clk
}

// drain returns every event currently buffered.
func drain(sim *playback.Simulator) []playback.Event {
	var out []playback.Event
	for {
		select {
		case e, ok := <-sim.Events():
			if !ok {
				return out
			}
			out = append(out, e)
		default:
			return out
		}
	}
}

func countKind(events []playback.Event, k playback.EventKind) int {
	n := 0
	for _, e := range events {
		if e.Kind == k {
			n++
		}
	}
	return n
}

func segment(words int) *lesson.Segment {
	return &lesson.Segment{Type: lesson.SegmentReading, Sequence: 2, AudioScript: lessontest.Words(words)}
}

func TestEstimateDuration(t *testing.T) {
	tests := []struct {
		name string
		seg  *lesson.Segment
		want time.Duration
	}{
		{"30 words", segment(30), 12 * time.Second},
		{"1 word floors at 2s", segment(1), 2 * time.Second},
		{"7 words rounds up", segment(7), 3 * time.Second},
		{"explicit word count wins", &lesson.Segment{AudioScript: "short", WordCount: 100}, 40 * time.Second},
		{"empty script", &lesson.Segment{}, 2 * time.Second},
		{"nil segment", nil, 2 * time.Second},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := playback.EstimateDuration(tt.seg); got != tt.want {
				t.Errorf("EstimateDuration() = %v, want %v", got, tt.want)
			}
		})
	}
}

func TestPlay_FiresEndedOnce(t *testing.T) {
	sim, clk := newSim(t)

	require.True(t, sim.Play(segment(30), 1))
	assert.Equal(t, playback.StatePlaying, sim.Status().State)

	clk.Advance(11 * time.Second)
	assert.Equal(t, 0, countKind(drain(sim), playback.EventEnded))

	clk.Advance(time.Second)
	events := drain(sim)
	require.Equal(t, 1, countKind(events, playback.EventEnded))
	ended := events[len(events)-1]
	assert.Equal(t, playback.EventEnded, ended.Kind)
	assert.Equal(t, 1, ended.Index)
	assert.Equal(t, lesson.SegmentReading, ended.SegmentType)

	st := sim.Status()
	assert.Equal(t, playback.StateStopped, st.State)
	assert.Empty(t, st.SegmentType)

	clk.Advance(time.Minute)
	assert.Empty(t, drain(sim))
}

func TestPlay_RejectsMissingScript(t *testing.T) {
	sim, _ := newSim(t)

	assert.False(t, sim.Play(nil, 0))
	assert.False(t, sim.Play(&lesson.Segment{Type: lesson.SegmentClose}, 6))

	events := drain(sim)
	assert.Equal(t, 2, countKind(events, playback.EventError))
	assert.Equal(t, playback.StateStopped, sim.Status().State)
}

func TestPauseResume_FiresExactlyOneEnded(t *testing.T) {
	sim, clk := newSim(t)

	require.True(t, sim.Play(segment(30), 1))
	clk.Advance(4 * time.Second)

	require.True(t, sim.Pause())
	assert.False(t, sim.Pause(), "second pause")
	assert.Equal(t, 4*time.Second, sim.Status().Elapsed)

	clk.Advance(time.Hour)
	assert.Equal(t, 0, countKind(drain(sim), playback.EventEnded), "no completion while paused")

	require.True(t, sim.Resume())
	assert.False(t, sim.Resume(), "resume while playing")

	clk.Advance(7 * time.Second)
	assert.Equal(t, 0, countKind(drain(sim), playback.EventEnded))

	clk.Advance(time.Second)
	assert.Equal(t, 1, countKind(drain(sim), playback.EventEnded))

	clk.Advance(time.Hour)
	assert.Equal(t, 0, countKind(drain(sim), playback.EventEnded))
}

func TestStop_CancelsCompletion(t *testing.T) {
	sim, clk := newSim(t)

	require.True(t, sim.Play(segment(30), 1))
	clk.Advance(5 * time.Second)
	require.True(t, sim.Stop())
	assert.False(t, sim.Stop(), "already stopped")
	assert.Equal(t, 0, clk.Pending())

	clk.Advance(time.Hour)
	events := drain(sim)
	assert.Equal(t, 0, countKind(events, playback.EventEnded))
	assert.Equal(t, 1, countKind(events, playback.EventStop))

	st := sim.Status()
	assert.Equal(t, playback.StateStopped, st.State)
	assert.Zero(t, st.Elapsed)
}

func TestPlay_ReplacesPendingPlayback(t *testing.T) {
	sim, clk := newSim(t)

	require.True(t, sim.Play(segment(30), 1))
	clk.Advance(5 * time.Second)
	require.True(t, sim.Play(segment(5), 2))

	clk.Advance(time.Hour)
	events := drain(sim)
	require.Equal(t, 1, countKind(events, playback.EventEnded))
	assert.Equal(t, 2, events[len(events)-1].Index)
}

func TestSetPlaybackRate(t *testing.T) {
	sim, _ := newSim(t)

	err := sim.SetPlaybackRate(3.0)
	assert.ErrorIs(t, err, playback.ErrInvalidRate)
	assert.Equal(t, 1.0, sim.Rate(), "rate unchanged")

	assert.ErrorIs(t, sim.SetPlaybackRate(0.4), playback.ErrInvalidRate)

	require.NoError(t, sim.SetPlaybackRate(1.5))
	assert.Equal(t, 1.5, sim.Rate())

	require.NoError(t, sim.SetPlaybackRate(playback.MinRate))
	require.NoError(t, sim.SetPlaybackRate(playback.MaxRate))
}

func TestSetPlaybackRate_ScalesCompletion(t *testing.T) {
	sim, clk := newSim(t)

	require.NoError(t, sim.SetPlaybackRate(2.0))
	require.True(t, sim.Play(segment(30), 1))

	clk.Advance(5 * time.Second)
	assert.Equal(t, 0, countKind(drain(sim), playback.EventEnded))
	clk.Advance(time.Second)
	assert.Equal(t, 1, countKind(drain(sim), playback.EventEnded), "12s of audio at 2x ends after 6s")
}

func TestSetPlaybackRate_WhilePlaying(t *testing.T) {
	sim, clk := newSim(t)

	require.True(t, sim.Play(segment(30), 1))
	clk.Advance(4 * time.Second)
	require.NoError(t, sim.SetPlaybackRate(2.0))

	clk.Advance(3 * time.Second)
	assert.Equal(t, 0, countKind(drain(sim), playback.EventEnded))
	clk.Advance(time.Second)
	assert.Equal(t, 1, countKind(drain(sim), playback.EventEnded), "8s remaining at 2x")
}

func TestClose_ClosesEvents(t *testing.T) {
	clk := playbacktest.NewClock()
	sim := playback.NewSimulator(playback.WithClock(clk))
	require.True(t, sim.Play(segment(3), 0))

	sim.Close()
	sim.Close()

	for range sim.Events() {
	}
	clk.Advance(time.Hour)
	assert.Equal(t, playback.StateStopped, sim.Status().State)
}

func TestStateString(t *testing.T) {
	assert.Equal(t, "stopped", playback.StateStopped.String())
	assert.Equal(t, "playing", playback.StatePlaying.String())
	assert.Equal(t, "paused", playback.StatePaused.String())
	assert.Equal(t, "ended", playback.EventEnded.String())
}
