// Package lessontest builds canonical seven-segment lessons for tests.
package lessontest

import (
	"fmt"
	"strings"

	"github.com/abhisek/lectern/internal/lesson"
)

// New returns a valid lesson whose segments follow the canonical order and
// carry short distinct scripts.
func New(courseID, lessonID string, sequence int) *lesson.Lesson {
	segs := make([]lesson.Segment, 0, lesson.SegmentCount)
	for i, t := range lesson.SegmentTypes {
		seg := lesson.Segment{
			Type:        t,
			Sequence:    i + 1,
			AudioScript: fmt.Sprintf("This is the %s segment of %s.", t, lessonID),
		}
		if t == lesson.SegmentQuestion {
			seg.CorrectAnswer = "Faithfulness"
			seg.AcceptableVariants = []string{"being faithful", "covenant faithfulness"}
		}
		segs = append(segs, seg)
	}
	return &lesson.Lesson{
		ID:        lessonID,
		CourseID:  courseID,
		Sequence:  sequence,
		Title:     "Lesson " + lessonID,
		Objective: "Learn to read " + lessonID + " closely.",
		Segments:  segs,
		Metadata:  map[string]any{},
	}
}

// Words returns a script made of n words.
func Words(n int) string {
	return strings.TrimSpace(strings.Repeat("word ", n))
}

// JSON renders a lesson document as the content loader expects it on disk.
func JSON(courseID, lessonID string, sequence int) string {
	var b strings.Builder
	fmt.Fprintf(&b, `{"lesson_id":%q,"course_id":%q,"sequence":%d,"title":"T","objective":"O","metadata":{},"segments":[`,
		lessonID, courseID, sequence)
	for i, t := range lesson.SegmentTypes {
		if i > 0 {
			b.WriteString(",")
		}
		if t == lesson.SegmentQuestion {
			fmt.Fprintf(&b, `{"type":%q,"sequence":%d,"audio_script":"Q?","correct_answer":"A","acceptable_variants":["a"]}`, t, i+1)
			continue
		}
		fmt.Fprintf(&b, `{"type":%q,"sequence":%d,"audio_script":"script %d"}`, t, i+1, i+1)
	}
	b.WriteString("]}")
	return b.String()
}
