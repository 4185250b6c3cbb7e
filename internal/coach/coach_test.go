package coach

import (
	"context"
	"encoding/json"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/abhisek/lectern/internal/llm"
)

func testInput() Input {
	return Input{
		CourseID:  "hermeneutics_i",
		LessonID:  "h1",
		Title:     "Reading in Context",
		Objective: "Read a verse within its paragraph",
		Passages:  []string{"Philippians 4:13"},
		Question:  "What does Paul say he has learned?",
		Expected:  "contentment",
		Answer:    "strength",
		Attempts:  2,
	}
}

func reply(feedback, hint string) llm.MockResponse {
	b, _ := json.Marshal(Feedback{Feedback: feedback, Hint: hint})
	return llm.MockResponse{Content: b}
}

func waitFor(t *testing.T, c *Coach) *Feedback {
	t.Helper()
	var fb *Feedback
	require.Eventually(t, func() bool {
		var ok bool
		fb, ok = c.Consume()
		return ok
	}, 5*time.Second, 5*time.Millisecond)
	return fb
}

func TestRequestFeedback(t *testing.T) {
	mock := llm.NewMockProvider(reply("Close, but look at verse 11.", "What did Paul learn in every circumstance?"))
	c := New(mock, DefaultConfig(), nil)

	c.RequestFeedback(t.Context(), testInput())
	fb := waitFor(t, c)

	assert.Equal(t, "Close, but look at verse 11.", fb.Feedback)
	assert.NotEmpty(t, fb.Hint)

	_, ok := c.Consume()
	assert.False(t, ok, "feedback is consumed once")

	require.Equal(t, 1, mock.CallCount())
	req := mock.Calls[0]
	assert.Equal(t, FeedbackSchema, req.Schema)
	assert.Equal(t, 256, req.MaxTokens)
	assert.Contains(t, req.Messages[0].Content, "Learner answer: strength")
	assert.Contains(t, req.Messages[0].Content, "Passages: Philippians 4:13")
	assert.Contains(t, req.Messages[0].Content, "Attempt: 2")
}

func TestConsume_NothingPending(t *testing.T) {
	c := New(llm.NewMockProvider(), DefaultConfig(), nil)
	fb, ok := c.Consume()
	assert.False(t, ok)
	assert.Nil(t, fb)
}

func TestRequestFeedback_Failure(t *testing.T) {
	boom := errors.New("provider down")
	c := New(llm.NewMockProvider(llm.MockResponse{Err: boom}), DefaultConfig(), nil)

	c.RequestFeedback(t.Context(), testInput())
	require.Eventually(t, func() bool { return c.Err() != nil }, 5*time.Second, 5*time.Millisecond)
	assert.ErrorIs(t, c.Err(), boom)

	_, ok := c.Consume()
	assert.False(t, ok)
	assert.NoError(t, c.Err(), "consume clears the error")
}

func TestGenerate_InvalidReply(t *testing.T) {
	c := New(llm.NewMockProvider(llm.MockResponse{Content: json.RawMessage(`{"hint":"only"}`)}), DefaultConfig(), nil)
	_, err := c.Generate(context.Background(), testInput())
	var invalid *llm.ErrInvalidResponse
	assert.ErrorAs(t, err, &invalid)
}

func TestRequestFeedback_NewerRequestWins(t *testing.T) {
	mock := llm.NewMockProvider(reply("first", "h1"), reply("second", "h2"))
	c := New(mock, DefaultConfig(), nil)

	c.RequestFeedback(t.Context(), testInput())
	c.RequestFeedback(t.Context(), testInput())

	require.Eventually(t, func() bool { return mock.CallCount() == 2 }, 5*time.Second, 5*time.Millisecond)
	fb := waitFor(t, c)
	assert.Contains(t, []string{"first", "second"}, fb.Feedback)
	_, ok := c.Consume()
	assert.False(t, ok, "a stale result never lands after the newer one")
}
