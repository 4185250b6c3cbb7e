// Package script resolves the text spoken for a segment. Courses may register
// a Strategy that composes scripts from lesson metadata; everything else
// speaks the segment's stored script.
package script

import (
	"sync"

	"github.com/abhisek/lectern/internal/lesson"
)

// Strategy turns a segment into the text to speak. Implementations must be
// pure functions of their arguments.
type Strategy interface {
	Script(seg lesson.Segment, l *lesson.Lesson) string
}

// StrategyFunc adapts a function to Strategy.
type StrategyFunc func(seg lesson.Segment, l *lesson.Lesson) string

func (f StrategyFunc) Script(seg lesson.Segment, l *lesson.Lesson) string { return f(seg, l) }

// Identity speaks the stored script unchanged.
var Identity Strategy = StrategyFunc(func(seg lesson.Segment, _ *lesson.Lesson) string {
	return seg.AudioScript
})

// Registry selects a strategy by course id.
type Registry struct {
	mu       sync.RWMutex
	byCourse map[string]Strategy
	fallback Strategy
}

// NewRegistry returns a registry that falls back to Identity.
func NewRegistry() *Registry {
	return &Registry{byCourse: make(map[string]Strategy), fallback: Identity}
}

// DefaultRegistry returns a registry with the built-in course strategies.
func DefaultRegistry() *Registry {
	r := NewRegistry()
	r.Register(HermeneuticsCourse, Hermeneutics{})
	return r
}

// Register binds s to courseID, replacing any earlier binding.
func (r *Registry) Register(courseID string, s Strategy) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.byCourse[courseID] = s
}

// For returns the strategy for courseID.
func (r *Registry) For(courseID string) Strategy {
	r.mu.RLock()
	defer r.mu.RUnlock()
	if s, ok := r.byCourse[courseID]; ok {
		return s
	}
	return r.fallback
}

// Resolve returns the text to speak for seg. Segments without a stored
// script resolve to the empty string whatever the strategy.
func (r *Registry) Resolve(seg *lesson.Segment, l *lesson.Lesson) string {
	if seg == nil || seg.AudioScript == "" {
		return ""
	}
	courseID := ""
	if l != nil {
		courseID = l.CourseID
	}
	return r.For(courseID).Script(*seg, l)
}
