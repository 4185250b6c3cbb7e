package session

import (
	"errors"
	"fmt"

	"github.com/abhisek/lectern/internal/coach"
	"github.com/abhisek/lectern/internal/lesson"
	"github.com/abhisek/lectern/internal/platform/logger"
	"github.com/abhisek/lectern/internal/progress"
)

// ErrLessonNotFound is returned when a lesson id is not in the catalog.
var ErrLessonNotFound = errors.New("lesson not found")

// CreateResult identifies a new session.
type CreateResult struct {
	UserID string         `json:"userId"`
	Lesson lesson.Summary `json:"lesson"`
}

// Service is the request-facing API over the session store and the lesson
// catalog. Every per-user call fails with ErrNoActiveSession for unknown ids.
type Service struct {
	catalog *lesson.Catalog
	store   *Store
	log     *logger.Logger
}

// NewService returns a service over catalog and store.
func NewService(catalog *lesson.Catalog, store *Store, log *logger.Logger) *Service {
	return &Service{catalog: catalog, store: store, log: logger.OrNop(log)}
}

// Lessons lists every lesson in catalog order.
func (s *Service) Lessons() []lesson.Summary {
	all := s.catalog.All()
	out := make([]lesson.Summary, len(all))
	for i, l := range all {
		out[i] = l.Summary()
	}
	return out
}

// CreateSession starts a session for lessonID, or for the first lesson of
// the catalog when lessonID is empty.
func (s *Service) CreateSession(lessonID string) (CreateResult, error) {
	l := s.catalog.First()
	if lessonID != "" {
		l = s.catalog.ByID(lessonID)
	}
	if l == nil {
		return CreateResult{}, fmt.Errorf("%w: %q", ErrLessonNotFound, lessonID)
	}

	c, sum := s.store.Create(l, WithCourseSize(s.catalog.CourseSize(l.CourseID)))
	s.log.Info("session created", "user_id", c.UserID(), "lesson_id", l.ID)
	return CreateResult{UserID: c.UserID(), Lesson: sum}, nil
}

// EndSession closes the session and forgets userID.
func (s *Service) EndSession(userID string) error {
	if err := s.store.Remove(userID); err != nil {
		return err
	}
	s.log.Info("session ended", "user_id", userID)
	return nil
}

// Controller returns the controller for userID.
func (s *Service) Controller(userID string) (*Controller, error) {
	return s.store.Get(userID)
}

func (s *Service) HandleCommand(userID, text string) (CommandResult, error) {
	c, err := s.store.Get(userID)
	if err != nil {
		return CommandResult{}, err
	}
	return c.HandleCommand(text), nil
}

func (s *Service) PlayCurrentSegment(userID string) (PlaybackResult, error) {
	return s.playback(userID, (*Controller).PlayCurrentSegment)
}

func (s *Service) PauseAudio(userID string) (PlaybackResult, error) {
	return s.playback(userID, (*Controller).PauseAudio)
}

func (s *Service) ResumeAudio(userID string) (PlaybackResult, error) {
	return s.playback(userID, (*Controller).ResumeAudio)
}

func (s *Service) StopAudio(userID string) (PlaybackResult, error) {
	return s.playback(userID, (*Controller).StopAudio)
}

func (s *Service) SetPlaybackRate(userID string, rate float64) (PlaybackResult, error) {
	return s.playback(userID, func(c *Controller) PlaybackResult { return c.SetPlaybackRate(rate) })
}

func (s *Service) playback(userID string, op func(*Controller) PlaybackResult) (PlaybackResult, error) {
	c, err := s.store.Get(userID)
	if err != nil {
		return PlaybackResult{}, err
	}
	return op(c), nil
}

// GetCourseProgress returns lesson completion stats for the session's course.
func (s *Service) GetCourseProgress(userID string) (progress.CourseStats, error) {
	c, err := s.store.Get(userID)
	if err != nil {
		return progress.CourseStats{}, err
	}
	return c.Progress(), nil
}

func (s *Service) SubmitAnswer(userID, answer string) (AnswerResult, error) {
	c, err := s.store.Get(userID)
	if err != nil {
		return AnswerResult{}, err
	}
	return c.SubmitAnswer(answer), nil
}

// CoachFeedback returns ready feedback for the session, if any.
func (s *Service) CoachFeedback(userID string) (*coach.Feedback, bool, error) {
	c, err := s.store.Get(userID)
	if err != nil {
		return nil, false, err
	}
	fb, ok := c.CoachFeedback()
	return fb, ok, nil
}

func (s *Service) State(userID string) (StateView, error) {
	c, err := s.store.Get(userID)
	if err != nil {
		return StateView{}, err
	}
	return c.State(), nil
}

// GetNextLessonInCourse returns the lesson after lessonID in its course, or
// nil at the end of the course or for unknown ids.
func (s *Service) GetNextLessonInCourse(lessonID string) *lesson.Summary {
	return summaryOf(s.catalog.Next(lessonID))
}

// GetPreviousLessonInCourse is the mirror of GetNextLessonInCourse.
func (s *Service) GetPreviousLessonInCourse(lessonID string) *lesson.Summary {
	return summaryOf(s.catalog.Previous(lessonID))
}

func summaryOf(l *lesson.Lesson) *lesson.Summary {
	if l == nil {
		return nil
	}
	sum := l.Summary()
	return &sum
}
