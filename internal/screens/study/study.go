// Package study is the screen a learner works through a lesson on.
package study

import (
	"fmt"
	"strings"
	"time"

	tea "charm.land/bubbletea/v2"

	"github.com/abhisek/lectern/internal/coach"
	"github.com/abhisek/lectern/internal/command"
	"github.com/abhisek/lectern/internal/fsm"
	"github.com/abhisek/lectern/internal/lesson"
	"github.com/abhisek/lectern/internal/playback"
	"github.com/abhisek/lectern/internal/router"
	"github.com/abhisek/lectern/internal/screen"
	"github.com/abhisek/lectern/internal/screens/summary"
	"github.com/abhisek/lectern/internal/session"
	"github.com/abhisek/lectern/internal/ui/components"
	"github.com/abhisek/lectern/internal/ui/layout"
)

// rates is the ctrl+r cycle, starting from the default.
var rates = []float64{1.0, 1.25, 1.5, 2.0, 0.5, 0.75}

// StudyScreen drives one session controller.
type StudyScreen struct {
	svc  *session.Service
	ctrl *session.Controller

	prompt   components.Prompt
	view     session.StateView
	progress map[int]bool
	script   string
	message  string
	isErr    bool
	next     *lesson.Summary

	feedback        *coach.Feedback
	feedbackPending bool

	rateIdx  int
	autoplay bool
	closed   bool
}

var _ screen.Screen = (*StudyScreen)(nil)
var _ screen.KeyHintProvider = (*StudyScreen)(nil)
var _ screen.StatusProvider = (*StudyScreen)(nil)
var _ screen.Closer = (*StudyScreen)(nil)

// New creates a screen for an existing session.
func New(svc *session.Service, ctrl *session.Controller) *StudyScreen {
	s := &StudyScreen{
		svc:      svc,
		ctrl:     ctrl,
		prompt:   components.NewPrompt("Command", "say \"begin the lesson\"", 120),
		progress: map[int]bool{},
		autoplay: true,
	}
	s.refresh()
	return s
}

// WithoutAutoplay keeps commands from starting playback on their own.
func (s *StudyScreen) WithoutAutoplay() *StudyScreen {
	s.autoplay = false
	return s
}

func (s *StudyScreen) Init() tea.Cmd {
	return tea.Batch(s.prompt.Init(), tick())
}

func (s *StudyScreen) Title() string {
	if s.view.Lesson != nil {
		return s.view.Lesson.Title
	}
	return "Lesson"
}

func (s *StudyScreen) Status() string {
	pos := "not started"
	if s.view.FSMState.IsSegment() {
		pos = fmt.Sprintf("segment %d/%d", s.view.SegmentIdx+1, lesson.SegmentCount)
	} else if s.view.FSMState == fsm.StateFinished {
		pos = "finished"
	}
	return fmt.Sprintf("%s  %gx", pos, s.view.Audio.Rate)
}

func (s *StudyScreen) KeyHints() []layout.KeyHint {
	hints := []layout.KeyHint{
		{Key: "Enter", Description: "Submit"},
		{Key: "^P", Description: "Play"},
		{Key: "^T", Description: "Pause/Resume"},
		{Key: "^S", Description: "Stop"},
		{Key: "^R", Description: "Rate"},
	}
	if s.view.FSMState == fsm.StateClose && s.next != nil {
		hints = append(hints, layout.KeyHint{Key: "^N", Description: "Next lesson"})
	}
	return append(hints, layout.KeyHint{Key: "Esc", Description: "Leave"})
}

// Close ends the session in the service.
func (s *StudyScreen) Close() {
	if s.closed {
		return
	}
	s.closed = true
	_ = s.svc.EndSession(s.ctrl.UserID())
}

func (s *StudyScreen) Update(msg tea.Msg) (screen.Screen, tea.Cmd) {
	switch msg := msg.(type) {
	case tickMsg:
		if s.closed {
			return s, nil
		}
		s.refresh()
		s.pollFeedback()
		return s, tick()

	case tea.KeyMsg:
		return s.handleKey(msg)
	}

	var cmd tea.Cmd
	s.prompt, cmd = s.prompt.Update(msg)
	return s, cmd
}

func (s *StudyScreen) handleKey(msg tea.KeyMsg) (screen.Screen, tea.Cmd) {
	switch msg.String() {
	case "enter":
		return s.submit()
	case "ctrl+p":
		s.playbackResult(s.ctrl.PlayCurrentSegment())
		return s, nil
	case "ctrl+t":
		if s.view.Audio.State == playback.StatePaused {
			s.playbackResult(s.ctrl.ResumeAudio())
		} else {
			s.playbackResult(s.ctrl.PauseAudio())
		}
		return s, nil
	case "ctrl+s":
		s.playbackResult(s.ctrl.StopAudio())
		return s, nil
	case "ctrl+r":
		s.rateIdx = (s.rateIdx + 1) % len(rates)
		s.playbackResult(s.ctrl.SetPlaybackRate(rates[s.rateIdx]))
		return s, nil
	case "ctrl+n":
		if s.view.FSMState != fsm.StateClose || s.next == nil {
			return s, nil
		}
		return s, tea.Sequence(
			func() tea.Msg { return router.PopToRootMsg{} },
			func() tea.Msg { return screen.StartLessonMsg{LessonID: s.next.ID} },
		)
	}

	var cmd tea.Cmd
	s.prompt, cmd = s.prompt.Update(msg)
	return s, cmd
}

// submit sends the prompt as an answer while the review question is up and
// the input is not a command, otherwise as a command.
func (s *StudyScreen) submit() (screen.Screen, tea.Cmd) {
	text := strings.TrimSpace(s.prompt.Value())
	if text == "" {
		return s, nil
	}

	if s.view.FSMState == fsm.StateQuestion && !command.Parse(text).Recognized {
		s.answer(text)
		return s, nil
	}

	res := s.ctrl.HandleCommand(text)
	s.prompt.Reset("Command", "")
	s.prompt.ClearMark()
	if res.Status == session.StatusError {
		s.setMessage(res.Message, true)
		s.prompt.Mark(false)
		return s, nil
	}

	s.script = res.Script
	s.feedback = nil
	s.feedbackPending = false
	s.setMessage("", false)
	if res.NextLessonAvailable {
		s.next = s.svc.GetNextLessonInCourse(s.ctrl.Lesson().ID)
	}
	if s.autoplay && res.Segment != nil {
		s.playbackResult(s.ctrl.PlayCurrentSegment())
	}
	s.refresh()

	if res.State == fsm.StateQuestion {
		s.prompt.Reset("Answer", "type your answer or a command")
	}
	if res.State == fsm.StateFinished {
		sum := s.ctrl.Summary()
		next := s.svc.GetNextLessonInCourse(s.ctrl.Lesson().ID)
		return s, func() tea.Msg {
			return router.PushScreenMsg{Screen: summary.New(sum, next)}
		}
	}
	return s, nil
}

func (s *StudyScreen) answer(text string) {
	res := s.ctrl.SubmitAnswer(text)
	s.prompt.Reset("Answer", "try again or move on")
	if res.Status == session.StatusError {
		s.setMessage(res.Message, true)
		return
	}
	s.prompt.Mark(res.Correct)
	s.feedback = nil
	s.feedbackPending = res.FeedbackPending
	if res.Correct {
		s.setMessage("Correct. Say \"end the lesson\" when you are ready.", false)
		return
	}
	msg := fmt.Sprintf("Not quite (attempt %d).", res.Attempts)
	if res.FeedbackPending {
		msg += " Your coach is looking at it..."
	}
	s.setMessage(msg, true)
}

func (s *StudyScreen) playbackResult(res session.PlaybackResult) {
	if res.Status == session.StatusError {
		s.setMessage(res.Message, true)
	}
	s.refresh()
}

func (s *StudyScreen) pollFeedback() {
	if !s.feedbackPending {
		return
	}
	if fb, ok := s.ctrl.CoachFeedback(); ok {
		s.feedback = fb
		s.feedbackPending = false
	}
}

// refresh reloads controller state.
func (s *StudyScreen) refresh() {
	s.view = s.ctrl.State()
	if s.script == "" && s.view.Script != "" {
		s.script = s.view.Script
	}
	for _, idx := range s.ctrl.LessonProgress().CompletedSegments {
		s.progress[idx] = true
	}
}

func (s *StudyScreen) setMessage(msg string, isErr bool) {
	s.message = msg
	s.isErr = isErr
}

func tick() tea.Cmd {
	return tea.Tick(tickInterval, func(t time.Time) tea.Msg { return tickMsg(t) })
}
