package session

import (
	"time"

	"github.com/abhisek/lectern/internal/progress"
)

// SessionSummary holds the data displayed when a lesson ends.
type SessionSummary struct {
	LessonID          string               `json:"lessonId"`
	Title             string               `json:"title"`
	Duration          time.Duration        `json:"duration"`
	SegmentCount      int                  `json:"segmentCount"`
	SegmentsCompleted int                  `json:"segmentsCompleted"`
	Completed         bool                 `json:"completed"`
	Answers           int                  `json:"answers"`
	Correct           int                  `json:"correct"`
	Accuracy          float64              `json:"accuracy"`
	Course            progress.CourseStats `json:"course"`
}

// Summary builds the summary of the session so far.
func (c *Controller) Summary() SessionSummary {
	c.mu.Lock()
	defer c.mu.Unlock()

	s := SessionSummary{
		Duration: c.clock.Now().Sub(c.startedAt),
		Answers:  c.attempts,
		Correct:  c.correct,
	}
	if c.attempts > 0 {
		s.Accuracy = float64(c.correct) / float64(c.attempts)
	}
	if c.lesson == nil {
		return s
	}

	s.LessonID = c.lesson.ID
	s.Title = c.lesson.Title
	s.SegmentCount = len(c.lesson.Segments)
	if p, ok := c.tracker.GetLessonProgress(c.userID, c.lesson.CourseID, c.lesson.ID); ok {
		s.SegmentsCompleted = len(p.CompletedSegments)
		s.Completed = p.Completed
	}
	s.Course = c.tracker.GetCourseStats(c.userID, c.lesson.CourseID, c.courseSize)
	return s
}
