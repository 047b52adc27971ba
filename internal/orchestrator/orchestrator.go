// Package orchestrator sequences the five model-backed stages of a request:
// intent validation, query construction, execution, result validation and
// summarization/suggestion, with bounded self-correction between query
// construction and result validation.
package orchestrator

import (
	"context"
	"errors"
	"fmt"

	"github.com/rs/zerolog/log"
	"github.com/spendlens/spendlens/internal/agent"
	"github.com/spendlens/spendlens/internal/convo"
	"github.com/spendlens/spendlens/internal/plan"
)

// Executor runs a validated pipeline against the document store.
type Executor interface {
	Aggregate(ctx context.Context, collection string, stages []*plan.Node, cap int) ([]map[string]any, error)
}

// Config bounds the two independent retry budgets.
type Config struct {
	// MaxRefinements is how many result-driven rebuilds may follow the
	// first query-construction attempt.
	MaxRefinements int
	// MaxExecutionRetries is how many execution failures may be converted
	// into refinement guidance before the request fails.
	MaxExecutionRetries int
	// ResultCap, when positive, limits the rows fetched per execution.
	ResultCap int
}

func (c Config) withDefaults() Config {
	if c.MaxRefinements <= 0 {
		c.MaxRefinements = 1
	}
	if c.MaxExecutionRetries <= 0 {
		c.MaxExecutionRetries = 1
	}
	return c
}

// Controller drives the per-request state machine. It is safe for
// concurrent use: all mutable state lives in a per-request value.
type Controller struct {
	invoker  agent.Invoker
	executor Executor
	cfg      Config
}

// New constructs a controller.
func New(invoker agent.Invoker, executor Executor, cfg Config) *Controller {
	return &Controller{
		invoker:  invoker,
		executor: executor,
		cfg:      cfg.withDefaults(),
	}
}

// requestState accumulates everything one request produces. It is created at
// request start, mutated only by the controller, and discarded at request
// end.
type requestState struct {
	refinementCount    int
	executionRetries   int
	refinementGuidance string
	queryContext       string
	current            plan.Plan
	rows               []map[string]any
	turns              []convo.Turn
}

// Run answers one user message. Summarization and suggestion collaborator
// failures propagate as errors; every other failure mode is folded into the
// response envelope.
func (c *Controller) Run(ctx context.Context, message string, history []convo.Turn, collection string) (Response, error) {
	log.Info().Str("collection", collection).Msg("orchestrator: validating intent")

	verdict, err := agent.ValidateIntent(ctx, c.invoker, message, history)
	if err != nil {
		return Response{}, fmt.Errorf("validate intent: %w", err)
	}
	if !verdict.IsValid {
		return c.clarify(ctx, message, history, verdict)
	}

	normalized := verdict.NormalizedQuery
	if normalized == "" {
		normalized = message
	}
	log.Info().Str("normalized_query", normalized).Msg("orchestrator: intent accepted")

	state := &requestState{
		turns: append(append([]convo.Turn{}, history...),
			convo.Assistant("Normalized query: "+normalized)),
	}

	if resp, failed := c.refineLoop(ctx, state, message, normalized, history, collection); failed {
		return resp, nil
	}

	state.turns = append(state.turns,
		convo.Assistant(fmt.Sprintf("Generated aggregation pipeline with %d stages", state.current.StageCount())))
	if state.queryContext != "" {
		state.turns = append(state.turns, convo.Assistant("Query context: "+state.queryContext))
	}

	log.Info().Int("rows", len(state.rows)).Msg("orchestrator: summarizing results")
	summary, err := agent.Summarize(ctx, c.invoker, normalized, state.rows, state.turns)
	if err != nil {
		return Response{}, fmt.Errorf("summarize results: %w", err)
	}
	state.turns = append(state.turns, convo.Assistant(summary.Answer))

	suggestions, err := agent.SuggestQuestions(ctx, c.invoker, normalized, summary.Answer, state.turns)
	if err != nil {
		return Response{}, fmt.Errorf("suggest questions: %w", err)
	}

	data := state.rows
	if data == nil {
		data = []map[string]any{}
	}
	return Response{
		Status:             StatusOK,
		Answer:             summary.Answer,
		SuggestedQuestions: normalizeSuggestions(suggestions.SuggestedQuestions),
		Pipeline:           state.current.Stages,
		Data:               data,
		Columns:            state.current.Columns,
	}, nil
}

// clarify is the needs-clarification terminal path. Follow-up suggestions
// are still generated so the caller always receives prompts.
func (c *Controller) clarify(ctx context.Context, message string, history []convo.Turn, verdict agent.IntentVerdict) (Response, error) {
	log.Info().Msg("orchestrator: clarification needed")
	turns := append(append([]convo.Turn{}, history...), convo.Assistant(verdict.ClarifyingQuestion))

	suggestions, err := agent.SuggestQuestions(ctx, c.invoker, message, verdict.ClarifyingQuestion, turns)
	if err != nil {
		return Response{}, fmt.Errorf("suggest questions: %w", err)
	}
	return Response{
		Status:             StatusNeedsClarification,
		ClarifyingQuestion: verdict.ClarifyingQuestion,
		SuggestedQuestions: normalizeSuggestions(suggestions.SuggestedQuestions),
	}, nil
}

// refineLoop runs build -> execute -> validate until the results pass, a
// retry budget is exhausted, or a terminal failure occurs. The two retry
// budgets are independent: execution failures and negative result verdicts
// each have their own counter. Returns failed=true with a terminal error
// response when the request cannot proceed.
func (c *Controller) refineLoop(ctx context.Context, state *requestState, message, normalized string, history []convo.Turn, collection string) (Response, bool) {
	for {
		attempt := state.refinementCount + state.executionRetries + 1
		log.Info().Int("attempt", attempt).Msg("orchestrator: building aggregation pipeline")

		built, err := agent.BuildQuery(ctx, c.invoker, normalized, state.turns, collection, state.refinementGuidance)
		if err != nil {
			var serr *plan.StructuralError
			if errors.As(err, &serr) {
				log.Error().Err(err).Msg("orchestrator: pipeline failed structural validation")
				return errorResponse(fmt.Sprintf(
					"Unable to generate a valid query: %v. Please try rephrasing your question.", err)), true
			}
			log.Error().Err(err).Msg("orchestrator: query builder failed")
			return errorResponse(fmt.Sprintf(
				"An error occurred while processing your query: %v", err)), true
		}
		// The previous attempt's plan is replaced wholesale: exactly one
		// plan is live per request.
		state.current = built
		state.rows = nil

		log.Info().Int("stages", built.StageCount()).Str("explanation", built.Explanation).
			Msg("orchestrator: executing aggregation")
		rows, err := c.executor.Aggregate(ctx, collection, built.Stages, c.cfg.ResultCap)
		if err != nil {
			if state.executionRetries >= c.cfg.MaxExecutionRetries {
				log.Error().Err(err).Msg("orchestrator: execution failed after retry")
				return errorResponse(fmt.Sprintf(
					"Database query failed: %v. The query may be malformed.", err)), true
			}
			state.executionRetries++
			state.refinementGuidance = fmt.Sprintf("previous query failed: %v; fix the query", err)
			log.Warn().Err(err).Msg("orchestrator: execution failed, retrying with guidance")
			continue
		}
		state.rows = rows

		// Result validation judges the results against the user's original
		// intent, so it gets the unmodified caller-supplied history.
		verdict, err := agent.ValidateResults(ctx, c.invoker, message, normalized, built, rows, history)
		if err != nil {
			log.Warn().Err(err).Msg("orchestrator: result validation failed, proceeding with current results")
			return Response{}, false
		}
		if verdict.Context != "" {
			state.queryContext = verdict.Context
		}
		if verdict.IsValid {
			log.Info().Msg("orchestrator: results accepted")
			return Response{}, false
		}
		if state.refinementCount >= c.cfg.MaxRefinements {
			log.Warn().Msg("orchestrator: refinement budget exhausted, proceeding with current results")
			return Response{}, false
		}
		state.refinementCount++
		state.refinementGuidance = verdict.Refinement
		log.Info().Str("refinement", verdict.Refinement).Msg("orchestrator: refining query")
	}
}
