package session

import (
	"context"
	"encoding/json"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/abhisek/lectern/internal/command"
	"github.com/abhisek/lectern/internal/fsm"
	"github.com/abhisek/lectern/internal/lesson"
	"github.com/abhisek/lectern/internal/lesson/lessontest"
	"github.com/abhisek/lectern/internal/playback"
	"github.com/abhisek/lectern/internal/playback/playbacktest"
	"github.com/abhisek/lectern/internal/progress"
	"github.com/abhisek/lectern/internal/script"
	"github.com/abhisek/lectern/internal/store"
)

func newController(t *testing.T, opts ...Option) (*Controller, *playbacktest.Clock) {
	t.Helper()
	clock := playbacktest.NewClock()
	c := NewController(lessontest.New("course", "l1", 1), "user-test",
		append([]Option{WithClock(clock)}, opts...)...)
	t.Cleanup(func() { c.Close() })
	return c, clock
}

func openStore(t *testing.T) *store.Store {
	t.Helper()
	s, err := store.Open(filepath.Join(t.TempDir(), "session.db"))
	require.NoError(t, err)
	t.Cleanup(func() { s.Close() })
	return s
}

func TestHandleCommand_CanonicalWalk(t *testing.T) {
	c, _ := newController(t)

	steps := []struct {
		input string
		state fsm.State
		idx   int
		next  bool
	}{
		{"begin the lesson", fsm.StateOrientation, 0, false},
		{"read the passage", fsm.StateReading, 1, false},
		{"explain the context", fsm.StateContext, 2, false},
		{"analyze the structure", fsm.StateAnalysis, 3, false},
		{"summarize the key themes", fsm.StateThemes, 4, false},
		{"ask the review question", fsm.StateQuestion, 5, false},
		{"end the lesson", fsm.StateClose, 6, true},
		{"end the lesson", fsm.StateFinished, 6, false},
	}

	for _, s := range steps {
		res := c.HandleCommand(s.input)
		require.Equal(t, StatusOK, res.Status, s.input)
		assert.Equal(t, s.state, res.State, s.input)
		assert.Equal(t, s.idx, res.SegmentIdx, s.input)
		assert.Equal(t, s.next, res.NextLessonAvailable, s.input)
		if s.state.IsSegment() {
			require.NotNil(t, res.Segment, s.input)
			assert.Equal(t, res.Segment.AudioScript, res.Script, "identity strategy speaks the stored script")
		} else {
			assert.Nil(t, res.Segment)
		}
	}

	res := c.HandleCommand("read the passage")
	assert.Equal(t, StatusOK, res.Status)
	assert.Equal(t, fsm.StateFinished, res.State, "commands after finished are no-ops")
	assert.NotEmpty(t, res.Message)

	lp := c.LessonProgress()
	assert.True(t, lp.Completed)
	assert.Equal(t, []int{0}, lp.CompletedSegments, "completing a lesson records segment 0")

	stats := c.Progress()
	assert.Equal(t, 1, stats.Completed)
	assert.Equal(t, 100, stats.PercentComplete)
}

func TestHandleCommand_RejectedLeavesStateUntouched(t *testing.T) {
	c, _ := newController(t)
	c.HandleCommand("begin the lesson")
	c.HandleCommand("please read the passage now")
	before := c.State()

	res := c.HandleCommand("blah")
	assert.Equal(t, StatusError, res.Status)
	assert.ErrorIs(t, res.Err, command.ErrNotRecognized)
	assert.Equal(t, fsm.StateReading, res.State)
	assert.Equal(t, 1, res.SegmentIdx)

	after := c.State()
	assert.Equal(t, before.FSMState, after.FSMState)
	assert.Equal(t, before.SegmentIdx, after.SegmentIdx)
	assert.Equal(t, before.Session.CurrentState, after.Session.CurrentState)
	assert.Equal(t, before.Session.LastActivity, after.Session.LastActivity)
}

func TestHandleCommand_BeginWithoutLesson(t *testing.T) {
	c := NewController(nil, "user-none")
	defer c.Close()

	res := c.HandleCommand("begin the lesson")
	assert.Equal(t, StatusError, res.Status)
	assert.ErrorIs(t, res.Err, fsm.ErrInvalidArgument)
	assert.Equal(t, fsm.StateIdle, c.State().FSMState)
	assert.Nil(t, c.State().Lesson)
}

func TestHandleCommand_TrackerFollowsMachine(t *testing.T) {
	c, _ := newController(t)
	c.HandleCommand("begin the lesson")
	c.HandleCommand("read the passage")

	sess := c.State().Session
	assert.Equal(t, "reading", sess.CurrentState)
	assert.Equal(t, 1, sess.CurrentSegmentIdx)
	require.NotNil(t, sess.CurrentLesson)
	assert.Equal(t, "l1", sess.CurrentLesson.LessonID)
}

func TestHandleCommand_RefreshesActivityWithoutTransition(t *testing.T) {
	c, clock := newController(t)
	c.HandleCommand("begin the lesson")
	c.HandleCommand("end the lesson")
	c.HandleCommand("end the lesson")
	require.Equal(t, fsm.StateFinished, c.State().FSMState)

	clock.Advance(time.Minute)
	res := c.HandleCommand("read the passage")
	assert.Equal(t, StatusOK, res.Status)
	assert.NotEmpty(t, res.Message, "no transition from finished")

	sess := c.State().Session
	assert.Equal(t, "finished", sess.CurrentState)
	assert.Equal(t, clock.Now(), sess.LastActivity)
	assert.True(t, c.LessonProgress().Completed)
}

func TestPlayCurrentSegment_RecordsCompletion(t *testing.T) {
	c, clock := newController(t)
	c.HandleCommand("begin the lesson")
	c.HandleCommand("read the passage")

	res := c.PlayCurrentSegment()
	require.Equal(t, StatusOK, res.Status, res.Message)
	assert.Equal(t, playback.StatePlaying, res.Playback.State)
	assert.Equal(t, 1, res.Playback.Index)

	clock.Advance(res.Playback.Duration)

	require.Eventually(t, func() bool {
		return len(c.LessonProgress().CompletedSegments) == 1
	}, 2*time.Second, 5*time.Millisecond)
	assert.Equal(t, []int{1}, c.LessonProgress().CompletedSegments)
	assert.Equal(t, playback.StateStopped, c.State().Audio.State)
}

func TestPlayCurrentSegment_CompletionUsesPlayedIndex(t *testing.T) {
	c, clock := newController(t)
	c.HandleCommand("begin the lesson")

	res := c.PlayCurrentSegment()
	require.Equal(t, StatusOK, res.Status)
	c.HandleCommand("read the passage")
	clock.Advance(res.Playback.Duration)

	require.Eventually(t, func() bool {
		return len(c.LessonProgress().CompletedSegments) == 1
	}, 2*time.Second, 5*time.Millisecond)
	assert.Equal(t, []int{0}, c.LessonProgress().CompletedSegments)
}

func TestPlayCurrentSegment_NothingToPlay(t *testing.T) {
	c, _ := newController(t)

	res := c.PlayCurrentSegment()
	assert.Equal(t, StatusError, res.Status)
	assert.ErrorIs(t, res.Err, ErrNoSegmentToPlay)

	l := lessontest.New("course", "l2", 2)
	l.Segments[0].AudioScript = ""
	c2 := NewController(l, "user-empty", WithClock(playbacktest.NewClock()))
	defer c2.Close()
	c2.HandleCommand("begin the lesson")
	assert.ErrorIs(t, c2.PlayCurrentSegment().Err, ErrNoSegmentToPlay)
}

func TestStopAudio_NoCompletion(t *testing.T) {
	c, clock := newController(t)
	c.HandleCommand("begin the lesson")
	res := c.PlayCurrentSegment()

	clock.Advance(time.Second)
	assert.Equal(t, StatusOK, c.StopAudio().Status)
	clock.Advance(res.Playback.Duration)

	assert.Empty(t, c.LessonProgress().CompletedSegments)
	stopped := c.StopAudio()
	assert.Equal(t, StatusError, stopped.Status)
	assert.ErrorIs(t, stopped.Err, playback.ErrAlreadyStopped)
}

func TestAudioControls_RejectedWhileStopped(t *testing.T) {
	c, _ := newController(t)
	c.HandleCommand("begin the lesson")

	tests := []struct {
		name string
		op   func() PlaybackResult
		want error
	}{
		{"pause", c.PauseAudio, playback.ErrNotPlaying},
		{"resume", c.ResumeAudio, playback.ErrNotPaused},
		{"stop", c.StopAudio, playback.ErrAlreadyStopped},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			res := tt.op()
			assert.Equal(t, StatusError, res.Status)
			assert.ErrorIs(t, res.Err, tt.want)
			assert.NotEmpty(t, res.Message)
			assert.Equal(t, playback.StateStopped, res.Playback.State)
		})
	}
}

func TestPauseResume(t *testing.T) {
	c, clock := newController(t)
	c.HandleCommand("begin the lesson")
	dur := c.PlayCurrentSegment().Playback.Duration

	clock.Advance(time.Second)
	paused := c.PauseAudio()
	assert.Equal(t, playback.StatePaused, paused.Playback.State)
	assert.Equal(t, time.Second, paused.Playback.Elapsed)
	again := c.PauseAudio()
	assert.Equal(t, StatusError, again.Status)
	assert.ErrorIs(t, again.Err, playback.ErrNotPlaying)

	clock.Advance(time.Hour)
	assert.Empty(t, c.LessonProgress().CompletedSegments)

	assert.Equal(t, playback.StatePlaying, c.ResumeAudio().Playback.State)
	clock.Advance(dur - time.Second)
	require.Eventually(t, func() bool {
		return len(c.LessonProgress().CompletedSegments) == 1
	}, 2*time.Second, 5*time.Millisecond)
}

func TestSetPlaybackRate(t *testing.T) {
	c, _ := newController(t)

	res := c.SetPlaybackRate(3.0)
	assert.Equal(t, StatusError, res.Status)
	assert.ErrorIs(t, res.Err, playback.ErrInvalidRate)
	assert.Equal(t, playback.DefaultRate, res.Playback.Rate)

	res = c.SetPlaybackRate(1.5)
	assert.Equal(t, StatusOK, res.Status)
	assert.Equal(t, 1.5, c.State().Audio.Rate)
}

func TestResolveScript_CourseStrategy(t *testing.T) {
	reg := script.NewRegistry()
	reg.Register("course", script.StrategyFunc(func(seg lesson.Segment, l *lesson.Lesson) string {
		return "spoken " + string(seg.Type)
	}))
	c, clock := newController(t, WithRegistry(reg))

	res := c.HandleCommand("begin the lesson")
	assert.Equal(t, "spoken orientation", res.Script)
	assert.Equal(t, "spoken orientation", c.State().Script)

	// Two words speak for the two second floor.
	play := c.PlayCurrentSegment()
	assert.Equal(t, 2*time.Second, play.Playback.Duration)
	clock.Advance(2 * time.Second)
	require.Eventually(t, func() bool {
		return len(c.LessonProgress().CompletedSegments) == 1
	}, 2*time.Second, 5*time.Millisecond)
}

func TestController_Journal(t *testing.T) {
	db := openStore(t)
	c, _ := newController(t, WithJournal(db.EventRepo()), WithSnapshots(db.SnapshotRepo()))

	c.HandleCommand("begin the lesson")
	c.HandleCommand("end the lesson")
	c.HandleCommand("end the lesson")
	require.NoError(t, c.Close())
	require.NoError(t, c.Close(), "close is idempotent")

	ctx := t.Context()
	events, err := db.EventRepo().QuerySessionEvents(ctx, store.QueryOpts{UserID: "user-test"})
	require.NoError(t, err)

	var actions []string
	for i := len(events) - 1; i >= 0; i-- {
		actions = append(actions, events[i].Action)
	}
	assert.Equal(t, []string{
		store.ActionSessionStarted,
		store.ActionStateChanged,
		store.ActionStateChanged,
		store.ActionStateChanged,
		store.ActionLessonCompleted,
		store.ActionSessionClosed,
	}, actions)

	snap, err := db.SnapshotRepo().Latest(ctx, "user-test")
	require.NoError(t, err)
	require.NotNil(t, snap)
	var exp progress.Export
	require.NoError(t, json.Unmarshal(snap.Data, &exp))
	require.NotNil(t, exp.Session)
	assert.Equal(t, "finished", exp.Session.CurrentState)
	assert.True(t, exp.Progress["course"]["l1"].Completed)
}

func TestSummary(t *testing.T) {
	c, clock := newController(t, WithCourseSize(4))
	c.HandleCommand("begin the lesson")
	for range 5 {
		c.HandleCommand("next: read the passage")
	}
	c.SubmitAnswer("wrong")
	c.SubmitAnswer("Faithfulness!")
	clock.Advance(90 * time.Second)

	s := c.Summary()
	assert.Equal(t, "l1", s.LessonID)
	assert.Equal(t, 7, s.SegmentCount)
	assert.Equal(t, 2, s.Answers)
	assert.Equal(t, 1, s.Correct)
	assert.InDelta(t, 0.5, s.Accuracy, 1e-9)
	assert.Equal(t, 90*time.Second, s.Duration)
	assert.Equal(t, 4, s.Course.TotalLessons)
	assert.False(t, s.Completed)
}

func TestClose_StopsEventLoop(t *testing.T) {
	c, clock := newController(t)
	c.HandleCommand("begin the lesson")
	res := c.PlayCurrentSegment()
	require.NoError(t, c.Close())

	clock.Advance(res.Playback.Duration)
	select {
	case <-c.done:
	default:
		t.Fatal("event loop still running after Close")
	}
	assert.Empty(t, c.LessonProgress().CompletedSegments)
	assert.ErrorIs(t, c.ctx.Err(), context.Canceled)
}

func TestWithPlaybackRate(t *testing.T) {
	c, _ := newController(t, WithPlaybackRate(1.5))
	assert.Equal(t, 1.5, c.State().Audio.Rate)

	c, _ = newController(t, WithPlaybackRate(9))
	assert.Equal(t, playback.DefaultRate, c.State().Audio.Rate, "out-of-range rate is ignored")
}
