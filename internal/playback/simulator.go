// Package playback simulates spoken playback of lesson segments. No audio is
// produced; the simulator only keeps time and reports when a segment would
// have finished.
package playback

import (
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/abhisek/lectern/internal/lesson"
	"github.com/abhisek/lectern/internal/platform/logger"
)

var (
	// ErrInvalidRate is returned for playback rates outside [MinRate, MaxRate].
	ErrInvalidRate = errors.New("invalid playback rate")

	ErrNotPlaying     = errors.New("not playing")
	ErrNotPaused      = errors.New("not paused")
	ErrAlreadyStopped = errors.New("already stopped")
)

const eventBuffer = 64

// Simulator models play, pause, resume and stop of one segment at a time.
// Completion is signalled by an EventEnded value on the Events channel.
type Simulator struct {
	mu    sync.Mutex
	log   *logger.Logger
	clock Clock

	state    State
	segment  *lesson.Segment
	index    int
	duration time.Duration
	elapsed  time.Duration // media time played before started
	started  time.Time
	rate     float64

	timer Timer
	gen   uint64

	events chan Event
	closed bool
}

// Option configures a Simulator.
type Option func(*Simulator)

// WithClock replaces the wall clock.
func WithClock(c Clock) Option {
	return func(s *Simulator) { s.clock = c }
}

// WithLogger sets the simulator logger.
func WithLogger(l *logger.Logger) Option {
	return func(s *Simulator) { s.log = logger.OrNop(l) }
}

// NewSimulator returns a stopped simulator at the default rate.
func NewSimulator(opts ...Option) *Simulator {
	s := &Simulator{
		log:    logger.Nop(),
		clock:  SystemClock{},
		rate:   DefaultRate,
		events: make(chan Event, eventBuffer),
	}
	for _, o := range opts {
		o(s)
	}
	return s
}

// Events returns the channel events are delivered on. It is closed by Close.
func (s *Simulator) Events() <-chan Event { return s.events }

// Play starts simulated playback of seg from the beginning, replacing any
// playback in progress. It fails when seg is nil or has no script.
func (s *Simulator) Play(seg *lesson.Segment, index int) bool {
	s.mu.Lock()
	defer s.mu.Unlock()

	if seg == nil || seg.AudioScript == "" {
		s.log.Error("invalid segment for playback", "segment_idx", index)
		s.emit(Event{Kind: EventError, Index: index, Message: "invalid segment"})
		return false
	}

	s.cancel()
	s.segment = seg
	s.index = index
	s.duration = EstimateDuration(seg)
	s.elapsed = 0
	s.state = StatePlaying
	s.started = s.clock.Now()
	s.schedule(s.duration)

	s.log.Debug("audio playing",
		"segment_type", seg.Type,
		"segment_idx", index,
		"duration", s.duration,
		"rate", s.rate,
	)
	s.emit(Event{Kind: EventPlay, SegmentType: seg.Type, Index: index, Duration: s.duration, Rate: s.rate})
	return true
}

// Pause suspends playback. It only succeeds while playing.
func (s *Simulator) Pause() bool {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.state != StatePlaying {
		s.log.Warn("audio not currently playing")
		return false
	}
	s.cancel()
	s.elapsed = s.played()
	s.state = StatePaused
	s.log.Debug("audio paused", "elapsed", s.elapsed)
	s.emit(Event{Kind: EventPause, SegmentType: s.segment.Type, Index: s.index, Duration: s.duration, Rate: s.rate})
	return true
}

// Resume continues paused playback and reschedules completion for the
// remaining duration at the current rate.
func (s *Simulator) Resume() bool {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.state != StatePaused {
		s.log.Warn("audio not paused")
		return false
	}
	s.state = StatePlaying
	s.started = s.clock.Now()
	s.schedule(s.duration - s.elapsed)
	s.log.Debug("audio resumed", "elapsed", s.elapsed)
	s.emit(Event{Kind: EventResume, SegmentType: s.segment.Type, Index: s.index, Duration: s.duration, Rate: s.rate})
	return true
}

// Stop ends playback and clears the current segment. It fails when already
// stopped.
func (s *Simulator) Stop() bool {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.state == StateStopped {
		s.log.Warn("audio already stopped")
		return false
	}
	s.stop()
	return true
}

// SetPlaybackRate changes the playback speed. A segment that is playing keeps
// its position and finishes according to the new rate.
func (s *Simulator) SetPlaybackRate(rate float64) error {
	if rate < MinRate || rate > MaxRate {
		return fmt.Errorf("%w: %.2f not in [%.1f, %.1f]", ErrInvalidRate, rate, MinRate, MaxRate)
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	if s.state == StatePlaying {
		s.cancel()
		s.elapsed = s.played()
		s.started = s.clock.Now()
		s.rate = rate
		s.schedule(s.duration - s.elapsed)
	} else {
		s.rate = rate
	}
	s.log.Debug("playback rate set", "rate", rate)
	s.emit(Event{Kind: EventRateChange, Index: s.index, Rate: rate})
	return nil
}

// Rate returns the current playback rate.
func (s *Simulator) Rate() float64 {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.rate
}

// Status returns a snapshot of the current playback.
func (s *Simulator) Status() Status {
	s.mu.Lock()
	defer s.mu.Unlock()

	st := Status{
		State:    s.state,
		Index:    s.index,
		Duration: s.duration,
		Rate:     s.rate,
	}
	if s.segment != nil {
		st.SegmentType = s.segment.Type
	}
	switch s.state {
	case StatePlaying:
		st.Elapsed = s.played()
	case StatePaused:
		st.Elapsed = s.elapsed
	}
	return st
}

// Close stops playback and closes the event channel. It is safe to call
// more than once.
func (s *Simulator) Close() {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.closed {
		return
	}
	s.cancel()
	s.state = StateStopped
	s.segment = nil
	s.closed = true
	close(s.events)
}

// played returns media time consumed so far. Caller holds mu.
func (s *Simulator) played() time.Duration {
	if s.state != StatePlaying {
		return s.elapsed
	}
	wall := s.clock.Now().Sub(s.started)
	p := s.elapsed + time.Duration(float64(wall)*s.rate)
	return min(p, s.duration)
}

// schedule arms the completion timer for the given media time remaining.
// Caller holds mu.
func (s *Simulator) schedule(remaining time.Duration) {
	s.gen++
	gen := s.gen
	wait := time.Duration(float64(max(remaining, 0)) / s.rate)
	s.timer = s.clock.AfterFunc(wait, func() { s.complete(gen) })
}

// cancel disarms the completion timer and invalidates any callback already
// in flight. Caller holds mu.
func (s *Simulator) cancel() {
	s.gen++
	if s.timer != nil {
		s.timer.Stop()
		s.timer = nil
	}
}

func (s *Simulator) stop() {
	s.cancel()
	idx := s.index
	s.state = StateStopped
	s.segment = nil
	s.elapsed = 0
	s.log.Debug("audio stopped")
	s.emit(Event{Kind: EventStop, Index: idx, Rate: s.rate})
}

func (s *Simulator) complete(gen uint64) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if gen != s.gen || s.state != StatePlaying {
		return
	}
	seg, idx, dur := s.segment, s.index, s.duration
	s.stop()
	s.log.Debug("audio ended", "segment_type", seg.Type, "segment_idx", idx)
	s.emit(Event{Kind: EventEnded, SegmentType: seg.Type, Index: idx, Duration: dur, Rate: s.rate})
}

// emit delivers e without blocking. Caller holds mu.
func (s *Simulator) emit(e Event) {
	if s.closed {
		return
	}
	select {
	case s.events <- e:
	default:
		s.log.Warn("playback event dropped", "event", e.Kind.String(), "segment_idx", e.Index)
	}
}
