// Package coach asks a language model for feedback on wrong review answers.
package coach

import (
	"context"
	"encoding/json"
	"fmt"
	"sync"

	"github.com/abhisek/lectern/internal/llm"
	"github.com/abhisek/lectern/internal/platform/logger"
)

// Feedback is the coach's reply to one answer.
type Feedback struct {
	Feedback string `json:"feedback"`
	Hint     string `json:"hint,omitempty"`
}

// Input is what the coach sees about a wrong answer.
type Input struct {
	CourseID  string
	LessonID  string
	Title     string
	Objective string
	Passages  []string // references
	Question  string
	Expected  string
	Answer    string
	Attempts  int
}

// Config holds generation settings.
type Config struct {
	MaxTokens   int
	Temperature float64
}

// DefaultConfig returns the generation defaults.
func DefaultConfig() Config {
	return Config{MaxTokens: 256, Temperature: 0.4}
}

// Coach generates feedback asynchronously. Only one request is in flight at
// a time; a newer request replaces an unconsumed result.
type Coach struct {
	provider llm.Provider
	cfg      Config
	log      *logger.Logger

	mu      sync.Mutex
	seq     uint64
	pending *Feedback
	err     error
	ready   bool
}

// New returns a coach backed by provider.
func New(provider llm.Provider, cfg Config, log *logger.Logger) *Coach {
	return &Coach{provider: provider, cfg: cfg, log: logger.OrNop(log)}
}

// RequestFeedback starts generation in the background.
func (c *Coach) RequestFeedback(ctx context.Context, in Input) {
	c.mu.Lock()
	c.seq++
	seq := c.seq
	c.ready = false
	c.pending = nil
	c.err = nil
	c.mu.Unlock()

	go func() {
		fb, err := c.Generate(ctx, in)
		if err != nil {
			c.log.Warn("coach feedback failed", "lesson_id", in.LessonID, "error", err)
		}

		c.mu.Lock()
		defer c.mu.Unlock()
		if seq != c.seq {
			return
		}
		c.pending = fb
		c.err = err
		c.ready = true
	}()
}

// Consume returns the ready feedback once. It reports false while the
// request is still running or when generation failed.
func (c *Coach) Consume() (*Feedback, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if !c.ready {
		return nil, false
	}
	fb := c.pending
	c.pending = nil
	c.ready = false
	c.err = nil
	return fb, fb != nil
}

// Err returns the error of the last finished request that has not been
// consumed.
func (c *Coach) Err() error {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.err
}

// Generate requests feedback synchronously.
func (c *Coach) Generate(ctx context.Context, in Input) (*Feedback, error) {
	ctx = llm.WithPurpose(ctx, "coach")

	resp, err := c.provider.Generate(ctx, llm.Request{
		System:      systemPrompt,
		Messages:    []llm.Message{{Role: llm.RoleUser, Content: userMessage(in)}},
		Schema:      FeedbackSchema,
		MaxTokens:   c.cfg.MaxTokens,
		Temperature: c.cfg.Temperature,
	})
	if err != nil {
		return nil, fmt.Errorf("coach feedback: %w", err)
	}

	var fb Feedback
	if err := json.Unmarshal(resp.Content, &fb); err != nil {
		return nil, fmt.Errorf("parse coach response: %w", err)
	}
	return &fb, nil
}
