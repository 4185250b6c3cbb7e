// Package progress records per-user session state and lesson completion.
package progress

import (
	"context"
	"math"
	"slices"
	"sort"
	"sync"
	"time"

	"github.com/abhisek/lectern/internal/platform/logger"
)

// LessonRef points a session at the lesson it is working through.
type LessonRef struct {
	CourseID   string `json:"courseId"`
	LessonID   string `json:"lessonId"`
	SegmentIdx int    `json:"segmentIdx"`
}

// Session is the mutable per-user record.
type Session struct {
	UserID            string     `json:"userId"`
	CreatedAt         time.Time  `json:"createdAt"`
	CurrentLesson     *LessonRef `json:"currentLesson"`
	CurrentState      string     `json:"currentState"`
	CurrentSegmentIdx int        `json:"currentSegmentIdx"`
	LastActivity      time.Time  `json:"lastActivity"`
}

// LessonProgress is the completion record of one lesson. CompletedSegments
// is a sorted set.
type LessonProgress struct {
	CompletedSegments []int     `json:"completedSegments"`
	Completed         bool      `json:"completed"`
	CompletedAt       time.Time `json:"completedAt,omitzero"`
}

func (p *LessonProgress) clone() LessonProgress {
	out := *p
	out.CompletedSegments = slices.Clone(p.CompletedSegments)
	return out
}

// CourseProgress maps lesson id to its progress.
type CourseProgress map[string]LessonProgress

// CourseStats summarizes whole-lesson completion within a course.
type CourseStats struct {
	CourseID        string `json:"courseId"`
	TotalLessons    int    `json:"totalLessons"`
	Completed       int    `json:"completed"`
	InProgress      int    `json:"inProgress"`
	PercentComplete int    `json:"percentComplete"`
}

// Export is a point-in-time dump of one user's data.
type Export struct {
	Session    *Session                  `json:"session"`
	Progress   map[string]CourseProgress `json:"progress"`
	ExportedAt time.Time                 `json:"exportedAt"`
}

// RecordKind identifies a journal record.
type RecordKind string

const (
	RecordSegmentCompleted RecordKind = "segment_completed"
	RecordLessonCompleted  RecordKind = "lesson_completed"
	RecordStateChanged     RecordKind = "state_changed"
)

// Record is what the tracker hands to its Journal.
type Record struct {
	Kind       RecordKind
	UserID     string
	CourseID   string
	LessonID   string
	State      string
	SegmentIdx int
	At         time.Time
}

// Journal receives a copy of every progress change.
type Journal interface {
	Append(ctx context.Context, r Record) error
}

// Tracker holds sessions and progress in memory. It is safe for concurrent use.
type Tracker struct {
	mu       sync.Mutex
	log      *logger.Logger
	now      func() time.Time
	journal  Journal
	sessions map[string]*Session
	progress map[string]map[string]map[string]*LessonProgress // user -> course -> lesson
}

// Option configures a Tracker.
type Option func(*Tracker)

// WithLogger sets the tracker logger.
func WithLogger(l *logger.Logger) Option {
	return func(t *Tracker) { t.log = logger.OrNop(l) }
}

// WithJournal mirrors every change into j.
func WithJournal(j Journal) Option {
	return func(t *Tracker) { t.journal = j }
}

// WithNow replaces time.Now.
func WithNow(now func() time.Time) Option {
	return func(t *Tracker) { t.now = now }
}

// NewTracker returns an empty tracker.
func NewTracker(opts ...Option) *Tracker {
	t := &Tracker{
		log:      logger.Nop(),
		now:      time.Now,
		sessions: make(map[string]*Session),
		progress: make(map[string]map[string]map[string]*LessonProgress),
	}
	for _, o := range opts {
		o(t)
	}
	return t
}

// GetOrCreateSession returns the user's session, creating an idle one on
// first reference.
func (t *Tracker) GetOrCreateSession(userID string) Session {
	t.mu.Lock()
	defer t.mu.Unlock()
	return copySession(t.session(userID))
}

// GetSession returns the user's session if one exists.
func (t *Tracker) GetSession(userID string) (Session, bool) {
	t.mu.Lock()
	defer t.mu.Unlock()
	s, ok := t.sessions[userID]
	if !ok {
		return Session{}, false
	}
	return copySession(s), true
}

// UpdateSessionState records the latest state label and segment index.
func (t *Tracker) UpdateSessionState(userID, state string, segmentIdx int) Session {
	t.mu.Lock()
	s := t.session(userID)
	s.CurrentState = state
	s.CurrentSegmentIdx = segmentIdx
	if s.CurrentLesson != nil {
		s.CurrentLesson.SegmentIdx = segmentIdx
	}
	s.LastActivity = t.now()
	out := copySession(s)
	rec := t.record(RecordStateChanged, s, segmentIdx)
	t.mu.Unlock()

	t.log.Debug("session state updated", "user_id", userID, "state", state)
	t.append(rec)
	return out
}

// SetCurrentLesson associates the user's session with a lesson.
func (t *Tracker) SetCurrentLesson(userID, courseID, lessonID string, segmentIdx int) Session {
	t.mu.Lock()
	defer t.mu.Unlock()

	s := t.session(userID)
	s.CurrentLesson = &LessonRef{CourseID: courseID, LessonID: lessonID, SegmentIdx: segmentIdx}
	s.CurrentSegmentIdx = segmentIdx
	s.LastActivity = t.now()
	t.log.Debug("current lesson set", "user_id", userID, "lesson_id", lessonID)
	return copySession(s)
}

// RecordSegmentCompletion adds idx to the lesson's completed set. Repeated
// calls with the same index are no-ops.
func (t *Tracker) RecordSegmentCompletion(userID, courseID, lessonID string, idx int) LessonProgress {
	t.mu.Lock()
	lp := t.markSegment(userID, courseID, lessonID, idx)
	out := lp.clone()
	rec := Record{Kind: RecordSegmentCompleted, UserID: userID, CourseID: courseID, LessonID: lessonID, SegmentIdx: idx, At: t.now()}
	t.mu.Unlock()

	t.log.Debug("segment completed", "user_id", userID, "lesson_id", lessonID, "segment_idx", idx)
	t.append(rec)
	return out
}

// CompleteLesson marks the lesson complete. It goes through the same path as
// RecordSegmentCompletion for segment 0, so segment 0 always ends up in the
// completed set.
func (t *Tracker) CompleteLesson(userID, courseID, lessonID string) LessonProgress {
	t.mu.Lock()
	lp := t.markSegment(userID, courseID, lessonID, 0)
	if !lp.Completed {
		lp.Completed = true
		lp.CompletedAt = t.now()
	}
	out := lp.clone()
	rec := Record{Kind: RecordLessonCompleted, UserID: userID, CourseID: courseID, LessonID: lessonID, At: lp.CompletedAt}
	t.mu.Unlock()

	t.log.Info("lesson completed", "user_id", userID, "lesson_id", lessonID)
	t.append(rec)
	return out
}

// GetProgress returns the user's progress in a course. An empty courseID
// returns all courses.
func (t *Tracker) GetProgress(userID, courseID string) map[string]CourseProgress {
	t.mu.Lock()
	defer t.mu.Unlock()

	out := make(map[string]CourseProgress)
	for cid, lessons := range t.progress[userID] {
		if courseID != "" && cid != courseID {
			continue
		}
		cp := make(CourseProgress, len(lessons))
		for lid, lp := range lessons {
			cp[lid] = lp.clone()
		}
		out[cid] = cp
	}
	return out
}

// GetLessonProgress returns the progress of a single lesson.
func (t *Tracker) GetLessonProgress(userID, courseID, lessonID string) (LessonProgress, bool) {
	t.mu.Lock()
	defer t.mu.Unlock()
	lp, ok := t.progress[userID][courseID][lessonID]
	if !ok {
		return LessonProgress{}, false
	}
	return lp.clone(), true
}

// GetCourseStats counts whole lessons. Completed counts lessons marked
// complete; in-progress counts lessons with a record that are not complete.
func (t *Tracker) GetCourseStats(userID, courseID string, totalLessons int) CourseStats {
	t.mu.Lock()
	defer t.mu.Unlock()

	stats := CourseStats{CourseID: courseID, TotalLessons: totalLessons}
	for _, lp := range t.progress[userID][courseID] {
		if lp.Completed {
			stats.Completed++
		} else {
			stats.InProgress++
		}
	}
	if totalLessons > 0 {
		stats.PercentComplete = int(math.Round(float64(stats.Completed) / float64(totalLessons) * 100))
	}
	return stats
}

// AllSessions returns every session ordered by user id.
func (t *Tracker) AllSessions() []Session {
	t.mu.Lock()
	defer t.mu.Unlock()

	out := make([]Session, 0, len(t.sessions))
	for _, s := range t.sessions {
		out = append(out, copySession(s))
	}
	sort.Slice(out, func(i, j int) bool { return out[i].UserID < out[j].UserID })
	return out
}

// Export dumps the user's session and progress.
func (t *Tracker) Export(userID string) Export {
	var sess *Session
	if s, ok := t.GetSession(userID); ok {
		sess = &s
	}
	return Export{
		Session:    sess,
		Progress:   t.GetProgress(userID, ""),
		ExportedAt: t.now(),
	}
}

// session returns the user's session, creating it. Caller holds mu.
func (t *Tracker) session(userID string) *Session {
	s, ok := t.sessions[userID]
	if !ok {
		now := t.now()
		s = &Session{
			UserID:       userID,
			CreatedAt:    now,
			CurrentState: "idle",
			LastActivity: now,
		}
		t.sessions[userID] = s
	}
	return s
}

// markSegment inserts idx into the lesson's sorted set. Caller holds mu.
func (t *Tracker) markSegment(userID, courseID, lessonID string, idx int) *LessonProgress {
	courses, ok := t.progress[userID]
	if !ok {
		courses = make(map[string]map[string]*LessonProgress)
		t.progress[userID] = courses
	}
	lessons, ok := courses[courseID]
	if !ok {
		lessons = make(map[string]*LessonProgress)
		courses[courseID] = lessons
	}
	lp, ok := lessons[lessonID]
	if !ok {
		lp = &LessonProgress{CompletedSegments: []int{}}
		lessons[lessonID] = lp
	}
	if pos, found := slices.BinarySearch(lp.CompletedSegments, idx); !found {
		lp.CompletedSegments = slices.Insert(lp.CompletedSegments, pos, idx)
	}
	return lp
}

// record builds a state record for s. Caller holds mu.
func (t *Tracker) record(kind RecordKind, s *Session, idx int) Record {
	r := Record{Kind: kind, UserID: s.UserID, State: s.CurrentState, SegmentIdx: idx, At: s.LastActivity}
	if s.CurrentLesson != nil {
		r.CourseID = s.CurrentLesson.CourseID
		r.LessonID = s.CurrentLesson.LessonID
	}
	return r
}

func (t *Tracker) append(r Record) {
	if t.journal == nil {
		return
	}
	if err := t.journal.Append(context.Background(), r); err != nil {
		t.log.Warn("journal append failed", "kind", string(r.Kind), "user_id", r.UserID, "error", err)
	}
}

func copySession(s *Session) Session {
	out := *s
	if s.CurrentLesson != nil {
		ref := *s.CurrentLesson
		out.CurrentLesson = &ref
	}
	return out
}
