// Package session wires the state machine, command router, playback
// simulator and progress tracker into one controller per learner, and keeps
// the registry of live controllers.
package session

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/abhisek/lectern/internal/coach"
	"github.com/abhisek/lectern/internal/command"
	"github.com/abhisek/lectern/internal/fsm"
	"github.com/abhisek/lectern/internal/lesson"
	"github.com/abhisek/lectern/internal/llm"
	"github.com/abhisek/lectern/internal/platform/logger"
	"github.com/abhisek/lectern/internal/playback"
	"github.com/abhisek/lectern/internal/progress"
	"github.com/abhisek/lectern/internal/script"
	"github.com/abhisek/lectern/internal/store"
)

var (
	// ErrNoSegmentToPlay is returned when the active index has no playable script.
	ErrNoSegmentToPlay = errors.New("no segment to play")

	// ErrNotAnswerable is returned by SubmitAnswer outside the question segment.
	ErrNotAnswerable = errors.New("current segment does not take an answer")
)

// Status labels the outcome of a controller operation.
type Status string

const (
	StatusOK    Status = "ok"
	StatusError Status = "error"
)

// CommandResult is returned by HandleCommand.
type CommandResult struct {
	Status              Status          `json:"status"`
	Command             command.Command `json:"command,omitempty"`
	State               fsm.State       `json:"state"`
	Segment             *lesson.Segment `json:"segment"`
	SegmentIdx          int             `json:"segmentIdx"`
	Script              string          `json:"script,omitempty"`
	Message             string          `json:"message,omitempty"`
	NextLessonAvailable bool            `json:"nextLessonAvailable"`
	Err                 error           `json:"-"`
}

// PlaybackResult is returned by the audio operations.
type PlaybackResult struct {
	Status   Status          `json:"status"`
	Message  string          `json:"message,omitempty"`
	Playback playback.Status `json:"playback"`
	Err      error           `json:"-"`
}

// StateView is a read-only snapshot of a controller.
type StateView struct {
	UserID      string             `json:"userId"`
	FSMState    fsm.State          `json:"state"`
	SegmentIdx  int                `json:"segmentIdx"`
	SegmentType lesson.SegmentType `json:"segmentType,omitempty"`
	Script      string             `json:"script,omitempty"`
	Audio       playback.Status    `json:"audio"`
	Lesson      *lesson.Summary    `json:"lesson"`
	Session     progress.Session   `json:"session"`
}

// Controller owns the components of one learner's session. All exported
// methods are safe for concurrent use and serialize on one mutex.
type Controller struct {
	mu sync.Mutex

	userID string
	lesson *lesson.Lesson

	log       *logger.Logger
	clock     playback.Clock
	registry  *script.Registry
	machine   *fsm.Machine
	router    *command.Router
	sim       *playback.Simulator
	tracker   *progress.Tracker
	coach     *coach.Coach
	journal   store.EventRepo
	snapshots store.SnapshotRepo

	courseSize int
	startedAt  time.Time
	completed  bool
	attempts   int
	correct    int

	ctx    context.Context
	cancel context.CancelFunc
	done   chan struct{}
	once   sync.Once
}

type options struct {
	log        *logger.Logger
	clock      playback.Clock
	registry   *script.Registry
	journal    store.EventRepo
	snapshots  store.SnapshotRepo
	provider   llm.Provider
	coachCfg   coach.Config
	courseSize int
	rate       float64
}

// Option configures a Controller.
type Option func(*options)

// WithLogger sets the controller logger.
func WithLogger(l *logger.Logger) Option {
	return func(o *options) { o.log = l }
}

// WithClock replaces the wall clock used for playback.
func WithClock(c playback.Clock) Option {
	return func(o *options) { o.clock = c }
}

// WithRegistry sets the script strategies.
func WithRegistry(r *script.Registry) Option {
	return func(o *options) { o.registry = r }
}

// WithJournal mirrors session events into repo.
func WithJournal(repo store.EventRepo) Option {
	return func(o *options) { o.journal = repo }
}

// WithSnapshots saves a progress export on Close.
func WithSnapshots(repo store.SnapshotRepo) Option {
	return func(o *options) { o.snapshots = repo }
}

// WithCoach enables feedback on wrong answers.
func WithCoach(p llm.Provider, cfg coach.Config) Option {
	return func(o *options) {
		o.provider = p
		o.coachCfg = cfg
	}
}

// WithCourseSize sets the number of lessons in the lesson's course.
func WithCourseSize(n int) Option {
	return func(o *options) { o.courseSize = n }
}

// WithPlaybackRate sets the initial playback rate. Out-of-range rates are
// logged and ignored.
func WithPlaybackRate(rate float64) Option {
	return func(o *options) { o.rate = rate }
}

// NewController returns an idle controller for l and starts its event loop.
// l may be nil, in which case every begin command fails.
func NewController(l *lesson.Lesson, userID string, opts ...Option) *Controller {
	o := options{clock: playback.SystemClock{}, courseSize: 1}
	for _, fn := range opts {
		fn(&o)
	}
	if o.registry == nil {
		o.registry = script.DefaultRegistry()
	}

	log := logger.OrNop(o.log).With("user_id", userID)
	trackerOpts := []progress.Option{
		progress.WithLogger(log),
		progress.WithNow(o.clock.Now),
	}
	if o.journal != nil {
		trackerOpts = append(trackerOpts, progress.WithJournal(eventJournal{repo: o.journal}))
	}

	ctx, cancel := context.WithCancel(context.Background())
	c := &Controller{
		userID:     userID,
		lesson:     l,
		log:        log,
		clock:      o.clock,
		registry:   o.registry,
		machine:    fsm.New(l, log),
		router:     command.NewRouter(log),
		sim:        playback.NewSimulator(playback.WithClock(o.clock), playback.WithLogger(log)),
		tracker:    progress.NewTracker(trackerOpts...),
		journal:    o.journal,
		snapshots:  o.snapshots,
		courseSize: o.courseSize,
		startedAt:  o.clock.Now(),
		ctx:        ctx,
		cancel:     cancel,
		done:       make(chan struct{}),
	}
	if o.provider != nil {
		c.coach = coach.New(o.provider, o.coachCfg, log)
	}
	if o.rate != 0 && o.rate != playback.DefaultRate {
		if err := c.sim.SetPlaybackRate(o.rate); err != nil {
			log.Warn("initial playback rate ignored", "error", err)
		}
	}

	c.tracker.GetOrCreateSession(userID)
	if l != nil {
		c.tracker.SetCurrentLesson(userID, l.CourseID, l.ID, 0)
	}
	c.record(store.ActionSessionStarted, "")

	go c.run()
	return c
}

// UserID returns the learner id the controller was created for.
func (c *Controller) UserID() string { return c.userID }

// Lesson returns the controller's lesson.
func (c *Controller) Lesson() *lesson.Lesson { return c.lesson }

// HandleCommand parses input, routes it to the state machine and pushes the
// resulting state into the tracker, even when the machine did not move. A
// rejected command leaves both untouched.
func (c *Controller) HandleCommand(input string) CommandResult {
	c.mu.Lock()
	defer c.mu.Unlock()

	res := c.router.Route(command.Parse(input), c.machine)
	state := c.machine.State()
	if res.Status == command.StatusError {
		return CommandResult{
			Status:     StatusError,
			Command:    res.Command,
			State:      state,
			SegmentIdx: c.machine.Index(),
			Message:    res.Message,
			Err:        res.Err,
		}
	}

	c.tracker.UpdateSessionState(c.userID, string(state), c.machine.Index())
	if state == fsm.StateFinished && !c.completed {
		c.completed = true
		c.tracker.CompleteLesson(c.userID, c.lesson.CourseID, c.lesson.ID)
		c.log.Info("lesson completed", "lesson_id", c.lesson.ID)
	}

	seg := c.machine.Segment()
	return CommandResult{
		Status:              StatusOK,
		Command:             res.Command,
		State:               state,
		Segment:             seg,
		SegmentIdx:          c.machine.Index(),
		Script:              c.registry.Resolve(seg, c.lesson),
		Message:             res.Message,
		NextLessonAvailable: state == fsm.StateClose,
	}
}

// PlayCurrentSegment starts simulated playback of the active segment's
// resolved script.
func (c *Controller) PlayCurrentSegment() PlaybackResult {
	c.mu.Lock()
	defer c.mu.Unlock()

	idx := c.machine.Index()
	seg := c.machine.Segment()
	text := c.registry.Resolve(seg, c.lesson)
	if seg == nil || text == "" {
		return c.playbackError(fmt.Errorf("%w at index %d", ErrNoSegmentToPlay, idx))
	}

	spoken := *seg
	if text != seg.AudioScript {
		spoken.AudioScript = text
		spoken.WordCount = 0
	}
	if !c.sim.Play(&spoken, idx) {
		return c.playbackError(fmt.Errorf("%w at index %d", ErrNoSegmentToPlay, idx))
	}
	return c.playbackOK("")
}

// PauseAudio pauses playback. It fails unless audio is playing.
func (c *Controller) PauseAudio() PlaybackResult {
	c.mu.Lock()
	defer c.mu.Unlock()
	if !c.sim.Pause() {
		return c.playbackError(fmt.Errorf("pause: %w", playback.ErrNotPlaying))
	}
	return c.playbackOK("")
}

// ResumeAudio resumes paused playback. It fails unless audio is paused.
func (c *Controller) ResumeAudio() PlaybackResult {
	c.mu.Lock()
	defer c.mu.Unlock()
	if !c.sim.Resume() {
		return c.playbackError(fmt.Errorf("resume: %w", playback.ErrNotPaused))
	}
	return c.playbackOK("")
}

// StopAudio stops playback without completing the segment. It fails when
// nothing is playing or paused.
func (c *Controller) StopAudio() PlaybackResult {
	c.mu.Lock()
	defer c.mu.Unlock()
	if !c.sim.Stop() {
		return c.playbackError(fmt.Errorf("stop: %w", playback.ErrAlreadyStopped))
	}
	return c.playbackOK("")
}

// SetPlaybackRate changes the playback speed. An out-of-range rate leaves
// the current rate in place.
func (c *Controller) SetPlaybackRate(rate float64) PlaybackResult {
	c.mu.Lock()
	defer c.mu.Unlock()
	if err := c.sim.SetPlaybackRate(rate); err != nil {
		return c.playbackError(err)
	}
	return c.playbackOK("")
}

// State returns a snapshot of the controller.
func (c *Controller) State() StateView {
	c.mu.Lock()
	defer c.mu.Unlock()

	sess, _ := c.tracker.GetSession(c.userID)
	v := StateView{
		UserID:     c.userID,
		FSMState:   c.machine.State(),
		SegmentIdx: c.machine.Index(),
		Audio:      c.sim.Status(),
		Session:    sess,
	}
	if c.lesson != nil {
		sum := c.lesson.Summary()
		v.Lesson = &sum
	}
	if seg := c.machine.Segment(); seg != nil {
		v.SegmentType = seg.Type
		v.Script = c.registry.Resolve(seg, c.lesson)
	}
	return v
}

// ResolveScript returns the text spoken for seg under the lesson's course
// strategy.
func (c *Controller) ResolveScript(seg *lesson.Segment) string {
	return c.registry.Resolve(seg, c.lesson)
}

// Progress returns lesson completion stats for the lesson's course.
func (c *Controller) Progress() progress.CourseStats {
	c.mu.Lock()
	defer c.mu.Unlock()

	courseID := ""
	if c.lesson != nil {
		courseID = c.lesson.CourseID
	}
	return c.tracker.GetCourseStats(c.userID, courseID, c.courseSize)
}

// LessonProgress returns the segment record of the controller's lesson.
func (c *Controller) LessonProgress() progress.LessonProgress {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.lesson == nil {
		return progress.LessonProgress{}
	}
	p, _ := c.tracker.GetLessonProgress(c.userID, c.lesson.CourseID, c.lesson.ID)
	return p
}

// Export dumps the learner's session and progress.
func (c *Controller) Export() progress.Export {
	return c.tracker.Export(c.userID)
}

// Close stops playback and the event loop and saves a progress snapshot
// when a snapshot repository is configured. It is safe to call twice.
func (c *Controller) Close() error {
	var err error
	c.once.Do(func() {
		c.sim.Close()
		c.cancel()
		<-c.done

		c.mu.Lock()
		c.record(store.ActionSessionClosed, "")
		c.mu.Unlock()
		err = c.saveSnapshot()
	})
	return err
}

// run drains simulator events until Close. It is the only consumer of the
// simulator's event channel.
func (c *Controller) run() {
	defer close(c.done)
	events := c.sim.Events()
	for {
		select {
		case <-c.ctx.Done():
			return
		case ev, ok := <-events:
			if !ok {
				return
			}
			c.handleEvent(ev)
		}
	}
}

func (c *Controller) handleEvent(ev playback.Event) {
	switch ev.Kind {
	case playback.EventEnded:
		c.mu.Lock()
		defer c.mu.Unlock()
		if c.lesson == nil {
			return
		}
		p := c.tracker.RecordSegmentCompletion(c.userID, c.lesson.CourseID, c.lesson.ID, ev.Index)
		c.log.Debug("segment completed", "segment_idx", ev.Index, "completed", len(p.CompletedSegments))
	case playback.EventError:
		c.log.Warn("playback error", "segment_idx", ev.Index, "message", ev.Message)
	}
}

func (c *Controller) saveSnapshot() error {
	if c.snapshots == nil {
		return nil
	}
	data, err := json.Marshal(c.tracker.Export(c.userID))
	if err != nil {
		return fmt.Errorf("marshal progress export: %w", err)
	}
	if err := c.snapshots.Save(context.Background(), &store.Snapshot{UserID: c.userID, Data: data}); err != nil {
		return fmt.Errorf("save progress snapshot: %w", err)
	}
	return nil
}

// record appends a controller-level event to the journal. Caller holds mu,
// except during construction.
func (c *Controller) record(action, detail string) {
	if c.journal == nil {
		return
	}
	data := store.SessionEventData{
		UserID:     c.userID,
		Action:     action,
		State:      string(c.machine.State()),
		SegmentIdx: c.machine.Index(),
		Detail:     detail,
		Timestamp:  c.clock.Now(),
	}
	if c.lesson != nil {
		data.CourseID = c.lesson.CourseID
		data.LessonID = c.lesson.ID
	}
	if err := c.journal.AppendSessionEvent(context.Background(), data); err != nil {
		c.log.Warn("failed to journal session event", "action", action, "error", err)
	}
}

func (c *Controller) playbackOK(msg string) PlaybackResult {
	return PlaybackResult{Status: StatusOK, Message: msg, Playback: c.sim.Status()}
}

func (c *Controller) playbackError(err error) PlaybackResult {
	c.log.Warn("playback request failed", "error", err)
	return PlaybackResult{Status: StatusError, Message: err.Error(), Playback: c.sim.Status(), Err: err}
}
