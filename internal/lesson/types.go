package lesson

// SegmentType identifies one of the seven fixed content units of a lesson.
type SegmentType string

const (
	SegmentOrientation SegmentType = "orientation"
	SegmentReading     SegmentType = "reading"
	SegmentContext     SegmentType = "context"
	SegmentAnalysis    SegmentType = "analysis"
	SegmentThemes      SegmentType = "themes"
	SegmentQuestion    SegmentType = "question"
	SegmentClose       SegmentType = "close"
)

// SegmentTypes lists the segment types in canonical lesson order.
var SegmentTypes = []SegmentType{
	SegmentOrientation,
	SegmentReading,
	SegmentContext,
	SegmentAnalysis,
	SegmentThemes,
	SegmentQuestion,
	SegmentClose,
}

// SegmentCount is the fixed number of segments in every lesson.
const SegmentCount = 7

// Valid reports whether t is one of the canonical segment types.
func (t SegmentType) Valid() bool {
	for _, st := range SegmentTypes {
		if st == t {
			return true
		}
	}
	return false
}

// Segment is one spoken unit of a lesson.
type Segment struct {
	Type        SegmentType `json:"type"`
	Sequence    int         `json:"sequence"`
	AudioScript string      `json:"audio_script"`
	WordCount   int         `json:"word_count,omitempty"`

	// Only set on question segments.
	CorrectAnswer      string   `json:"correct_answer,omitempty"`
	AcceptableVariants []string `json:"acceptable_variants,omitempty"`
}

// Passage is a source text the lesson is built around.
type Passage struct {
	Reference string `json:"reference"`
	Text      string `json:"text,omitempty"`
}

// Lesson is a validated, read-only lesson document.
type Lesson struct {
	ID               string         `json:"lesson_id"`
	CourseID         string         `json:"course_id"`
	Sequence         int            `json:"sequence"`
	Title            string         `json:"title"`
	Objective        string         `json:"objective"`
	Segments         []Segment      `json:"segments"`
	RequiredPassages []Passage      `json:"required_passages,omitempty"`
	Metadata         map[string]any `json:"metadata"`
}

// Summary is the short description of a lesson handed to clients.
type Summary struct {
	ID           string `json:"id"`
	Title        string `json:"title"`
	SegmentCount int    `json:"segmentCount"`
	CourseID     string `json:"courseId"`
	Sequence     int    `json:"sequence"`
}

// Summary returns the client-facing summary of l.
func (l *Lesson) Summary() Summary {
	return Summary{
		ID:           l.ID,
		Title:        l.Title,
		SegmentCount: len(l.Segments),
		CourseID:     l.CourseID,
		Sequence:     l.Sequence,
	}
}

// SegmentAt returns the segment at idx, or nil when idx is out of range.
func (l *Lesson) SegmentAt(idx int) *Segment {
	if l == nil || idx < 0 || idx >= len(l.Segments) {
		return nil
	}
	return &l.Segments[idx]
}

// Ref identifies a lesson within its course.
type Ref struct {
	CourseID string `json:"courseId"`
	LessonID string `json:"lessonId"`
}
