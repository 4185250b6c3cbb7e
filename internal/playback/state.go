package playback

import (
	"math"
	"strings"
	"time"

	"github.com/abhisek/lectern/internal/lesson"
)

// State is the playback state of the simulator.
type State int

const (
	StateStopped State = iota
	StatePlaying
	StatePaused
)

func (s State) String() string {
	switch s {
	case StateStopped:
		return "stopped"
	case StatePlaying:
		return "playing"
	case StatePaused:
		return "paused"
	default:
		return "unknown"
	}
}

// MarshalText lets State render as its name in JSON.
func (s State) MarshalText() ([]byte, error) {
	return []byte(s.String()), nil
}

// Playback rate bounds, inclusive.
const (
	MinRate     = 0.5
	MaxRate     = 2.0
	DefaultRate = 1.0
)

const (
	secondsPerWord = 0.4
	minDuration    = 2 * time.Second
)

// EstimateDuration returns how long a segment takes to speak at normal rate:
// 0.4 seconds per word, rounded up to whole seconds, never under 2 seconds.
// An explicit word count wins over counting the script.
func EstimateDuration(seg *lesson.Segment) time.Duration {
	if seg == nil {
		return minDuration
	}
	words := seg.WordCount
	if words <= 0 {
		words = max(len(strings.Fields(seg.AudioScript)), 1)
	}
	secs := math.Ceil(float64(words) * secondsPerWord)
	return max(time.Duration(secs)*time.Second, minDuration)
}

// Status is a snapshot of the current playback attempt.
type Status struct {
	State       State              `json:"state"`
	SegmentType lesson.SegmentType `json:"segmentType,omitempty"`
	Index       int                `json:"segmentIdx"`
	Elapsed     time.Duration      `json:"elapsed"`
	Duration    time.Duration      `json:"duration"`
	Rate        float64            `json:"playbackRate"`
}

// EventKind identifies a simulator event.
type EventKind int

const (
	EventPlay EventKind = iota
	EventPause
	EventResume
	EventStop
	EventEnded
	EventRateChange
	EventError
)

func (k EventKind) String() string {
	switch k {
	case EventPlay:
		return "play"
	case EventPause:
		return "paused"
	case EventResume:
		return "resumed"
	case EventStop:
		return "stopped"
	case EventEnded:
		return "ended"
	case EventRateChange:
		return "ratechange"
	case EventError:
		return "error"
	default:
		return "unknown"
	}
}

// Event is emitted on every simulator state change. Ended carries the type
// and index of the segment whose audio finished.
type Event struct {
	Kind        EventKind
	SegmentType lesson.SegmentType
	Index       int
	Duration    time.Duration
	Rate        float64
	Message     string
}
