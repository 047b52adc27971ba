package agent

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/spendlens/spendlens/internal/convo"
	"github.com/spendlens/spendlens/internal/plan"
)

// IntentVerdict is the intent-validation stage output. When IsValid is
// false, NormalizedQuery is unused and ClarifyingQuestion carries the
// question to send back to the user.
type IntentVerdict struct {
	IsValid            bool   `json:"isValid"`
	ClarifyingQuestion string `json:"clarifyingQuestion"`
	NormalizedQuery    string `json:"normalizedQuery"`
}

// ResultVerdict is the result-validation stage output. Refinement feeds the
// next query-construction attempt; Context is carried to summarization
// regardless of validity.
type ResultVerdict struct {
	IsValid    bool   `json:"isValid"`
	Refinement string `json:"refinement"`
	Context    string `json:"context"`
}

// Summary is the summarization stage output.
type Summary struct {
	Answer string `json:"answer"`
}

// Suggestions is the raw suggestion stage output. The orchestrator, not the
// collaborator, enforces the exactly-three invariant.
type Suggestions struct {
	SuggestedQuestions []string `json:"suggestedQuestions"`
}

// ValidateIntent runs the intent-validation stage.
func ValidateIntent(ctx context.Context, inv Invoker, message string, history []convo.Turn) (IntentVerdict, error) {
	var out IntentVerdict
	err := invokeStage(ctx, inv, StageIntent, history, map[string]any{
		"message": message,
	}, &out)
	return out, err
}

// BuildQuery runs the query-construction stage and structurally validates
// the produced pipeline before returning it. A rejected pipeline surfaces as
// a *plan.StructuralError.
func BuildQuery(ctx context.Context, inv Invoker, normalizedQuery string, history []convo.Turn, collection, refinement string) (plan.Plan, error) {
	if refinement == "" {
		refinement = "None"
	}
	var out plan.Plan
	err := invokeStage(ctx, inv, StageQueryBuild, history, map[string]any{
		"normalizedQuery": normalizedQuery,
		"collection":      collection,
		"refinement":      refinement,
	}, &out)
	if err != nil {
		return plan.Plan{}, err
	}
	if err := plan.Validate(out.Stages); err != nil {
		return plan.Plan{}, err
	}
	if err := out.CheckColumns(); err != nil {
		return plan.Plan{}, err
	}
	return out, nil
}

// ValidationSample caps the result rows shown to the result validator to
// keep the prompt bounded.
const ValidationSample = 50

// ValidateResults runs the result-validation stage. It must receive the
// original caller-supplied history, never the orchestrator-augmented one.
func ValidateResults(ctx context.Context, inv Invoker, message, normalizedQuery string, p plan.Plan, rows []map[string]any, history []convo.Turn) (ResultVerdict, error) {
	sample := rows
	if len(sample) > ValidationSample {
		sample = sample[:ValidationSample]
	}
	var out ResultVerdict
	err := invokeStage(ctx, inv, StageResultCheck, history, map[string]any{
		"message":         message,
		"normalizedQuery": normalizedQuery,
		"pipeline":        marshalForPrompt(p.Stages),
		"results":         marshalForPrompt(sample),
		"resultCount":     len(rows),
	}, &out)
	return out, err
}

// Summarize runs the summarization stage over the full result set.
func Summarize(ctx context.Context, inv Invoker, question string, rows []map[string]any, history []convo.Turn) (Summary, error) {
	var out Summary
	err := invokeStage(ctx, inv, StageSummarize, history, map[string]any{
		"question": question,
		"results":  marshalForPrompt(rows),
	}, &out)
	return out, err
}

// SuggestQuestions runs the follow-up suggestion stage.
func SuggestQuestions(ctx context.Context, inv Invoker, question, answer string, history []convo.Turn) (Suggestions, error) {
	var out Suggestions
	err := invokeStage(ctx, inv, StageSuggest, history, map[string]any{
		"question": question,
		"answer":   answer,
	}, &out)
	return out, err
}

func invokeStage(ctx context.Context, inv Invoker, stage Stage, history []convo.Turn, inputs map[string]any, out any) error {
	raw, err := inv.Invoke(ctx, Request{
		Stage:   stage,
		History: windowHistory(history),
		Inputs:  inputs,
	})
	if err != nil {
		return fmt.Errorf("invoke %s: %w", stage, err)
	}
	if err := json.Unmarshal(raw, out); err != nil {
		return fmt.Errorf("decode %s output: %w", stage, err)
	}
	return nil
}

// windowHistory bounds the history freshly for every stage call.
func windowHistory(history []convo.Turn) []historyTurn {
	windowed := convo.Window(history)
	out := make([]historyTurn, 0, len(windowed))
	for _, turn := range windowed {
		out = append(out, historyTurn{Role: string(turn.Role), Content: turn.Content})
	}
	return out
}

func marshalForPrompt(v any) string {
	b, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return fmt.Sprintf("(unserializable: %v)", err)
	}
	return string(b)
}
