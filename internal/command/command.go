// Package command recognizes the spoken lesson commands and routes them to
// state machine operations.
package command

import (
	"errors"
	"fmt"
	"strings"

	"github.com/abhisek/lectern/internal/fsm"
	"github.com/abhisek/lectern/internal/lesson"
	"github.com/abhisek/lectern/internal/platform/logger"
)

// ErrNotRecognized is returned when input does not contain a known command.
var ErrNotRecognized = errors.New("command not recognized")

// Command is one of the seven canonical lesson commands.
type Command int

const (
	None Command = iota
	BeginLesson
	ReadPassage
	ExplainContext
	AnalyzeStructure
	SummarizeThemes
	AskQuestion
	EndLesson
)

type op int

const (
	opStart op = iota
	opNext
	opEnd
)

type entry struct {
	cmd     Command
	phrase  string
	segment lesson.SegmentType
	op      op
}

// commandTable is in canonical lesson order. Parse walks it front to back, so
// earlier entries win when several phrases occur in the same input.
var commandTable = []entry{
	{BeginLesson, "begin the lesson", lesson.SegmentOrientation, opStart},
	{ReadPassage, "read the passage", lesson.SegmentReading, opNext},
	{ExplainContext, "explain the context", lesson.SegmentContext, opNext},
	{AnalyzeStructure, "analyze the structure", lesson.SegmentAnalysis, opNext},
	{SummarizeThemes, "summarize the key themes", lesson.SegmentThemes, opNext},
	{AskQuestion, "ask the review question", lesson.SegmentQuestion, opNext},
	{EndLesson, "end the lesson", lesson.SegmentClose, opEnd},
}

func lookup(c Command) (entry, bool) {
	for _, e := range commandTable {
		if e.cmd == c {
			return e, true
		}
	}
	return entry{}, false
}

// String returns the canonical phrase.
func (c Command) String() string {
	if e, ok := lookup(c); ok {
		return e.phrase
	}
	return ""
}

// SegmentType returns the segment the command is bound to.
func (c Command) SegmentType() lesson.SegmentType {
	e, _ := lookup(c)
	return e.segment
}

// MarshalText renders a command as its phrase.
func (c Command) MarshalText() ([]byte, error) {
	return []byte(c.String()), nil
}

// Phrases lists the canonical phrases in table order.
func Phrases() []string {
	out := make([]string, len(commandTable))
	for i, e := range commandTable {
		out[i] = e.phrase
	}
	return out
}

// Parsed is the outcome of Parse.
type Parsed struct {
	Command    Command
	Input      string
	Recognized bool
}

// Parse normalizes input and looks for a canonical command in it: an exact
// match first, then a phrase contained anywhere in the input.
func Parse(input string) Parsed {
	normalized := strings.ToLower(strings.TrimSpace(input))
	if normalized == "" {
		return Parsed{}
	}
	for _, e := range commandTable {
		if normalized == e.phrase {
			return Parsed{Command: e.cmd, Input: normalized, Recognized: true}
		}
	}
	for _, e := range commandTable {
		if strings.Contains(normalized, e.phrase) {
			return Parsed{Command: e.cmd, Input: normalized, Recognized: true}
		}
	}
	return Parsed{Input: normalized}
}

// Status is the outcome label of a routed command.
type Status string

const (
	StatusOK    Status = "ok"
	StatusError Status = "error"
)

// Result is what Route reports. Transition is nil when the command was
// accepted but the machine had nowhere to go, or when Status is error.
type Result struct {
	Status     Status
	Command    Command
	Transition *fsm.Transition
	Message    string
	Err        error
}

// Router maps parsed commands to machine operations. Begin starts the lesson,
// end takes the terminal transition, and every intermediate command advances
// exactly one segment whichever segment it names.
type Router struct {
	log *logger.Logger
}

// NewRouter returns a router that logs through log.
func NewRouter(log *logger.Logger) *Router {
	return &Router{log: logger.OrNop(log)}
}

// Route applies p to m.
func (r *Router) Route(p Parsed, m *fsm.Machine) Result {
	if !p.Recognized {
		r.log.Debug("command not recognized", "input", p.Input)
		return Result{Status: StatusError, Message: "Command not recognized", Err: ErrNotRecognized}
	}
	e, ok := lookup(p.Command)
	if !ok {
		return Result{Status: StatusError, Message: "Command not recognized", Err: ErrNotRecognized}
	}

	var tr *fsm.Transition
	switch e.op {
	case opStart:
		var err error
		tr, err = m.Start(m.Lesson())
		if err != nil {
			r.log.Warn("route failed", "command", e.phrase, "error", err)
			return Result{Status: StatusError, Command: e.cmd, Message: err.Error(), Err: err}
		}
	case opNext:
		tr = m.Next()
	case opEnd:
		tr = m.End()
	}

	res := Result{Status: StatusOK, Command: e.cmd, Transition: tr}
	if tr == nil {
		res.Message = fmt.Sprintf("no transition from %s", m.State())
	}
	r.log.Debug("command routed", "command", e.phrase, "state", m.State())
	return res
}
