// Package fsm implements the lesson session state machine: which segment of
// a lesson is active and how commands move between segments.
package fsm

import (
	"errors"
	"fmt"

	"github.com/abhisek/lectern/internal/lesson"
	"github.com/abhisek/lectern/internal/platform/logger"
)

var (
	// ErrInvalidArgument is returned when an operation needs a lesson and none was given.
	ErrInvalidArgument = errors.New("lesson required")

	// ErrInvalidState is returned by Goto for undeclared state names.
	ErrInvalidState = errors.New("invalid state")
)

// State is the machine's state label. Segment states share their names with
// lesson.SegmentType.
type State string

const (
	StateIdle        State = "idle"
	StateOrientation State = State(lesson.SegmentOrientation)
	StateReading     State = State(lesson.SegmentReading)
	StateContext     State = State(lesson.SegmentContext)
	StateAnalysis    State = State(lesson.SegmentAnalysis)
	StateThemes      State = State(lesson.SegmentThemes)
	StateQuestion    State = State(lesson.SegmentQuestion)
	StateClose       State = State(lesson.SegmentClose)
	StatePaused      State = "paused"
	StateFinished    State = "finished"
)

// States lists all declared states.
var States = []State{
	StateIdle,
	StateOrientation,
	StateReading,
	StateContext,
	StateAnalysis,
	StateThemes,
	StateQuestion,
	StateClose,
	StatePaused,
	StateFinished,
}

// Valid reports whether s is a declared state.
func (s State) Valid() bool {
	for _, st := range States {
		if st == s {
			return true
		}
	}
	return false
}

// IsSegment reports whether s names a lesson segment.
func (s State) IsSegment() bool {
	return lesson.SegmentType(s).Valid()
}

// Transition describes the outcome of a navigation step. Segment is nil for
// terminal and resume transitions.
type Transition struct {
	State   State
	Index   int
	Segment *lesson.Segment
}

// Machine tracks the active segment of one lesson session.
// It is not safe for concurrent use; the owning controller serializes access.
type Machine struct {
	log     *logger.Logger
	lesson  *lesson.Lesson
	current State
	index   int
}

// New returns a machine in the idle state. The lesson may be nil and supplied
// later through Start.
func New(l *lesson.Lesson, log *logger.Logger) *Machine {
	return &Machine{
		log:     logger.OrNop(log),
		lesson:  l,
		current: StateIdle,
	}
}

// State returns the current state label.
func (m *Machine) State() State { return m.current }

// Index returns the current segment index. It is only meaningful while the
// state is a segment label.
func (m *Machine) Index() int { return m.index }

// Lesson returns the lesson the machine is attached to.
func (m *Machine) Lesson() *lesson.Lesson { return m.lesson }

// Segment returns the active segment, or nil when the state is not a segment.
func (m *Machine) Segment() *lesson.Segment {
	if !m.current.IsSegment() {
		return nil
	}
	return m.lesson.SegmentAt(m.index)
}

// Start begins (or restarts) the lesson at its orientation segment.
func (m *Machine) Start(l *lesson.Lesson) (*Transition, error) {
	if l == nil || len(l.Segments) == 0 {
		return nil, ErrInvalidArgument
	}
	m.lesson = l
	m.current = StateOrientation
	m.index = 0
	m.log.Debug("session started", "lesson_id", l.ID)
	return m.transition(), nil
}

// Next advances one segment. It returns nil from idle and finished. From
// paused it resumes at orientation, restarting the lesson framing rather
// than the interrupted segment.
func (m *Machine) Next() *Transition {
	switch m.current {
	case StateIdle, StateFinished:
		return nil
	case StatePaused:
		m.current = StateOrientation
		m.index = 0
		m.log.Debug("resumed from pause", "state", m.current)
		return &Transition{State: m.current, Index: m.index}
	}
	if m.lesson == nil {
		return m.finish()
	}

	next := m.index + 1
	if next >= len(m.lesson.Segments) {
		return m.finish()
	}
	m.index = next
	m.current = State(m.lesson.Segments[next].Type)
	m.log.Debug("transition", "direction", "next", "state", m.current, "segment_idx", m.index)
	return m.transition()
}

// Prev steps back one segment, never below the first. It returns nil when
// no lesson is attached.
func (m *Machine) Prev() *Transition {
	if m.lesson == nil || len(m.lesson.Segments) == 0 {
		return nil
	}
	m.index = max(m.index-1, 0)
	m.current = State(m.lesson.Segments[m.index].Type)
	m.log.Debug("transition", "direction", "prev", "state", m.current, "segment_idx", m.index)
	return m.transition()
}

// Goto jumps directly to any declared state. The segment index is moved to
// the matching segment when the target names one.
func (m *Machine) Goto(s State) (*Transition, error) {
	if !s.Valid() {
		return nil, fmt.Errorf("%w: %s", ErrInvalidState, s)
	}
	m.current = s
	if s.IsSegment() && m.lesson != nil {
		for i, seg := range m.lesson.Segments {
			if State(seg.Type) == s {
				m.index = i
				break
			}
		}
	}
	m.log.Debug("goto", "state", s)
	return m.transition(), nil
}

// Pause suspends a running lesson. It is a no-op from idle and finished.
func (m *Machine) Pause() *Transition {
	if m.current == StateIdle || m.current == StateFinished {
		return nil
	}
	m.current = StatePaused
	m.log.Debug("paused", "segment_idx", m.index)
	return &Transition{State: m.current, Index: m.index}
}

// End is the terminal transition. Before the close segment it jumps to close
// so the closing words are still spoken; from close or paused it finishes.
func (m *Machine) End() *Transition {
	switch m.current {
	case StateIdle, StateFinished:
		return nil
	case StateClose, StatePaused:
		return m.finish()
	}
	if m.lesson == nil {
		return m.finish()
	}
	last := len(m.lesson.Segments) - 1
	m.index = last
	m.current = State(m.lesson.Segments[last].Type)
	m.log.Debug("transition", "direction", "end", "state", m.current, "segment_idx", m.index)
	return m.transition()
}

func (m *Machine) finish() *Transition {
	m.current = StateFinished
	m.log.Debug("reached end of lesson, finishing session")
	return &Transition{State: StateFinished, Index: m.index}
}

func (m *Machine) transition() *Transition {
	return &Transition{State: m.current, Index: m.index, Segment: m.Segment()}
}
