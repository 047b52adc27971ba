package orchestrator

import (
	"github.com/spendlens/spendlens/internal/plan"
)

// Status discriminates the three response envelopes.
type Status string

const (
	StatusOK                 Status = "ok"
	StatusNeedsClarification Status = "needs_clarification"
	StatusError              Status = "error"
)

// Response is the unified answer envelope. SuggestedQuestions is always
// present and, on the ok and clarification paths, always holds exactly three
// items.
type Response struct {
	Status             Status           `json:"status"`
	Answer             string           `json:"answer,omitempty"`
	ClarifyingQuestion string           `json:"clarifyingQuestion,omitempty"`
	SuggestedQuestions []string         `json:"suggestedQuestions"`
	Pipeline           []*plan.Node     `json:"pipeline,omitempty"`
	Data               []map[string]any `json:"data,omitempty"`
	Columns            []plan.Column    `json:"columns,omitempty"`
}

func errorResponse(message string) Response {
	return Response{
		Status:             StatusError,
		Answer:             message,
		SuggestedQuestions: []string{},
	}
}

// suggestionCount is the exact number of follow-up questions every
// successful or clarification response carries.
const suggestionCount = 3

// fallbackSuggestion pads short suggestion lists so the invariant holds even
// when the collaborator misbehaves.
const fallbackSuggestion = "Which supplier had the highest total spend in this period?"

func normalizeSuggestions(questions []string) []string {
	out := make([]string, 0, suggestionCount)
	for _, q := range questions {
		if len(out) == suggestionCount {
			break
		}
		out = append(out, q)
	}
	for len(out) < suggestionCount {
		out = append(out, fallbackSuggestion)
	}
	return out
}
