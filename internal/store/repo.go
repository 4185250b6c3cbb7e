package store

import (
	"context"
	"time"
)

// QueryOpts configures event queries with filtering and pagination.
type QueryOpts struct {
	Limit  int       // max results (0 = unlimited)
	After  int64     // sequence > After
	Before int64     // sequence < Before
	From   time.Time // timestamp >= From
	To     time.Time // timestamp <= To

	UserID  string // session events only
	Purpose string // LLM events only
}

// Session event actions.
const (
	ActionSessionStarted   = "session_started"
	ActionStateChanged     = "state_changed"
	ActionSegmentCompleted = "segment_completed"
	ActionLessonCompleted  = "lesson_completed"
	ActionAnswerSubmitted  = "answer_submitted"
	ActionSessionClosed    = "session_closed"
)

// SessionEventData is one session journal entry.
type SessionEventData struct {
	UserID     string
	CourseID   string
	LessonID   string
	Action     string
	State      string
	SegmentIdx int
	Detail     string
	Timestamp  time.Time // zero means now
}

// SessionEvent is a stored session event.
type SessionEvent struct {
	ID        int
	Sequence  int64
	Timestamp time.Time
	SessionEventData
}

// SessionStat aggregates the journal for one user.
type SessionStat struct {
	UserID            string
	LessonID          string
	Events            int
	SegmentsCompleted int
	LessonsCompleted  int
	FirstSeen         time.Time
	LastSeen          time.Time
}

// LLMRequestEventData captures a single LLM request.
type LLMRequestEventData struct {
	Provider     string
	Model        string
	Purpose      string
	InputTokens  int
	OutputTokens int
	LatencyMs    int64
	Success      bool
	ErrorMessage string
	RequestBody  string
	ResponseBody string
}

// LLMEvent is a stored LLM request.
type LLMEvent struct {
	ID        int
	Sequence  int64
	Timestamp time.Time
	LLMRequestEventData
}

// EventRepo provides append and query access to the journal.
type EventRepo interface {
	AppendSessionEvent(ctx context.Context, data SessionEventData) error
	QuerySessionEvents(ctx context.Context, opts QueryOpts) ([]SessionEvent, error)
	SessionStats(ctx context.Context) ([]SessionStat, error)

	AppendLLMRequest(ctx context.Context, data LLMRequestEventData) error
	QueryLLMEvents(ctx context.Context, opts QueryOpts) ([]LLMEvent, error)
	// GetLLMEvent returns nil when no event has the id.
	GetLLMEvent(ctx context.Context, id int) (*LLMEvent, error)
}

// Snapshot is a point-in-time export of one learner's progress.
type Snapshot struct {
	ID        int
	Sequence  int64
	Timestamp time.Time
	UserID    string
	Data      []byte // JSON
}

// SnapshotRepo stores progress exports.
type SnapshotRepo interface {
	Save(ctx context.Context, snap *Snapshot) error
	// Latest returns the newest snapshot for the user, or nil.
	Latest(ctx context.Context, userID string) (*Snapshot, error)
	// Prune keeps only the newest keep snapshots per user.
	Prune(ctx context.Context, keep int) error
}
