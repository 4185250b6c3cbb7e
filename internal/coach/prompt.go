package coach

import (
	"fmt"
	"strings"

	"github.com/abhisek/lectern/internal/llm"
)

const systemPrompt = `You are a patient Bible study coach guiding an adult learner through an audio lesson. The learner gave an answer to a review question that did not match the expected answer.`

// FeedbackSchema is the structured reply the coach asks for.
var FeedbackSchema = &llm.Schema{
	Name:        "coach-feedback",
	Description: "Short feedback on a learner's review answer",
	Definition: map[string]any{
		"type": "object",
		"properties": map[string]any{
			"feedback": map[string]any{
				"type":        "string",
				"description": "One or two sentences acknowledging the answer and pointing toward the expected idea",
			},
			"hint": map[string]any{
				"type":        "string",
				"description": "A hint that helps without giving the answer away",
			},
		},
		"required":             []any{"feedback", "hint"},
		"additionalProperties": false,
	},
}

func userMessage(in Input) string {
	var b strings.Builder

	fmt.Fprintf(&b, "Lesson: %s\n", in.Title)
	if in.Objective != "" {
		fmt.Fprintf(&b, "Objective: %s\n", in.Objective)
	}
	if len(in.Passages) > 0 {
		fmt.Fprintf(&b, "Passages: %s\n", strings.Join(in.Passages, "; "))
	}
	fmt.Fprintf(&b, "\nQuestion:\n%s\n", in.Question)
	fmt.Fprintf(&b, "\nExpected answer: %s\n", in.Expected)
	fmt.Fprintf(&b, "Learner answer: %s\n", in.Answer)
	if in.Attempts > 1 {
		fmt.Fprintf(&b, "Attempt: %d\n", in.Attempts)
	}

	b.WriteString(`
Instructions:
1. Respond in plain spoken English; the feedback is read aloud.
2. Do not quote the expected answer.
3. Keep the hint to one sentence and tie it to the passage when possible.`)

	return b.String()
}
