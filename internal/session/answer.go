package session

import (
	"fmt"
	"strings"
	"unicode"

	"github.com/abhisek/lectern/internal/coach"
	"github.com/abhisek/lectern/internal/fsm"
	"github.com/abhisek/lectern/internal/store"
)

// AnswerResult is the outcome of SubmitAnswer.
type AnswerResult struct {
	Status          Status `json:"status"`
	Correct         bool   `json:"correct"`
	Attempts        int    `json:"attempts"`
	Message         string `json:"message,omitempty"`
	FeedbackPending bool   `json:"feedbackPending"`
	Err             error  `json:"-"`
}

// SubmitAnswer checks an answer to the question segment against the correct
// answer and its accepted variants. A wrong answer asks the coach for
// feedback when one is configured.
func (c *Controller) SubmitAnswer(answer string) AnswerResult {
	c.mu.Lock()
	defer c.mu.Unlock()

	seg := c.machine.Segment()
	if c.machine.State() != fsm.StateQuestion || seg == nil {
		err := fmt.Errorf("%w: state is %s", ErrNotAnswerable, c.machine.State())
		return AnswerResult{Status: StatusError, Message: err.Error(), Err: err}
	}

	c.attempts++
	correct := matches(answer, seg.CorrectAnswer, seg.AcceptableVariants)
	if correct {
		c.correct++
	}
	res := AnswerResult{Status: StatusOK, Correct: correct, Attempts: c.attempts}

	detail := "incorrect"
	if correct {
		detail = "correct"
		res.Message = "That's right."
	} else {
		res.Message = "Not quite."
		if c.coach != nil {
			c.coach.RequestFeedback(c.ctx, c.coachInput(answer))
			res.FeedbackPending = true
		}
	}
	c.record(store.ActionAnswerSubmitted, detail)
	c.log.Debug("answer submitted", "correct", correct, "attempts", c.attempts)
	return res
}

// CoachFeedback returns the coach's reply to the last wrong answer once it
// is ready.
func (c *Controller) CoachFeedback() (*coach.Feedback, bool) {
	if c.coach == nil {
		return nil, false
	}
	return c.coach.Consume()
}

// coachInput describes the question for the coach. Caller holds mu.
func (c *Controller) coachInput(answer string) coach.Input {
	seg := c.machine.Segment()
	in := coach.Input{
		CourseID:  c.lesson.CourseID,
		LessonID:  c.lesson.ID,
		Title:     c.lesson.Title,
		Objective: c.lesson.Objective,
		Question:  c.registry.Resolve(seg, c.lesson),
		Expected:  seg.CorrectAnswer,
		Answer:    answer,
		Attempts:  c.attempts,
	}
	for _, p := range c.lesson.RequiredPassages {
		in.Passages = append(in.Passages, p.Reference)
	}
	return in
}

func matches(answer, correct string, variants []string) bool {
	got := normalizeAnswer(answer)
	if got == "" {
		return false
	}
	if got == normalizeAnswer(correct) {
		return true
	}
	for _, v := range variants {
		if got == normalizeAnswer(v) {
			return true
		}
	}
	return false
}

// normalizeAnswer lowercases s, drops punctuation and collapses runs of
// whitespace.
func normalizeAnswer(s string) string {
	s = strings.Map(func(r rune) rune {
		if unicode.IsPunct(r) {
			return -1
		}
		return unicode.ToLower(r)
	}, s)
	return strings.Join(strings.Fields(s), " ")
}
