// Package agent provides the model-inference boundary: one polymorphic
// invoker per provider, typed outputs per stage, and prompt plumbing.
package agent

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"strings"

	"github.com/xeipuuv/gojsonschema"
)

// Stage identifies one model-backed transformation stage.
type Stage string

const (
	StageIntent      Stage = "intent_validator"
	StageQueryBuild  Stage = "query_builder"
	StageResultCheck Stage = "result_validator"
	StageSummarize   Stage = "summarizer"
	StageSuggest     Stage = "suggested_questions"
)

// Request carries everything an invoker needs for one stage call: the stage
// kind, the bounded conversation window and the stage-specific template
// inputs. The static dataset context is supplied by the invoker itself.
type Request struct {
	Stage   Stage
	History []historyTurn
	Inputs  map[string]any
}

type historyTurn struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

// Invoker is the single capability boundary to the model-inference
// collaborator. Implementations return the raw JSON document produced for
// the stage, already checked against the stage's output schema.
type Invoker interface {
	Invoke(ctx context.Context, req Request) (json.RawMessage, error)
}

// parseStageOutput validates raw model output against the stage's schema and
// returns the JSON document. Models occasionally wrap JSON in prose or code
// fences; the balanced-brace extraction recovers from that.
func parseStageOutput(stage Stage, raw []byte) (json.RawMessage, error) {
	doc := bytes.TrimSpace(raw)
	if !json.Valid(doc) {
		extracted, ok := ExtractJSON(doc)
		if !ok {
			return nil, fmt.Errorf("stage %s output is not valid JSON", stage)
		}
		doc = extracted
	}

	schema, ok := outputSchemas[stage]
	if !ok {
		return nil, fmt.Errorf("no output schema registered for stage %s", stage)
	}
	result, err := gojsonschema.Validate(
		gojsonschema.NewStringLoader(schema),
		gojsonschema.NewBytesLoader(doc),
	)
	if err != nil {
		return nil, fmt.Errorf("validate %s output schema: %w", stage, err)
	}
	if !result.Valid() {
		errs := make([]string, 0, len(result.Errors()))
		for _, schemaErr := range result.Errors() {
			errs = append(errs, schemaErr.String())
		}
		return nil, fmt.Errorf("stage %s output does not match schema: %s", stage, strings.Join(errs, "; "))
	}
	return json.RawMessage(doc), nil
}

// ExtractJSON returns the first balanced JSON object found in raw output.
func ExtractJSON(raw []byte) (json.RawMessage, bool) {
	start := bytes.IndexByte(raw, '{')
	if start < 0 {
		return nil, false
	}
	depth := 0
	inString := false
	escaped := false
	for i := start; i < len(raw); i++ {
		c := raw[i]
		if inString {
			switch {
			case escaped:
				escaped = false
			case c == '\\':
				escaped = true
			case c == '"':
				inString = false
			}
			continue
		}
		switch c {
		case '"':
			inString = true
		case '{':
			depth++
		case '}':
			depth--
			if depth == 0 {
				candidate := raw[start : i+1]
				if json.Valid(candidate) {
					return json.RawMessage(candidate), true
				}
				return nil, false
			}
		}
	}
	return nil, false
}
