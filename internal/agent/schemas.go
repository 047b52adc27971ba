package agent

// Output schemas the invoker enforces before a stage result is decoded.
// Each schema doubles as format instructions appended to the system prompt.
var outputSchemas = map[Stage]string{
	StageIntent:      intentOutputSchema,
	StageQueryBuild:  queryOutputSchema,
	StageResultCheck: resultCheckOutputSchema,
	StageSummarize:   summaryOutputSchema,
	StageSuggest:     suggestionsOutputSchema,
}

const intentOutputSchema = `{
  "$schema": "http://json-schema.org/draft-07/schema#",
  "type": "object",
  "properties": {
    "isValid": { "type": "boolean" },
    "clarifyingQuestion": { "type": "string" },
    "normalizedQuery": { "type": "string" }
  },
  "required": ["isValid"],
  "additionalProperties": false
}`

const queryOutputSchema = `{
  "$schema": "http://json-schema.org/draft-07/schema#",
  "type": "object",
  "properties": {
    "pipeline": {
      "type": "array",
      "items": { "type": "object" }
    },
    "explanation": { "type": "string" },
    "columns": {
      "type": "array",
      "items": {
        "type": "object",
        "properties": {
          "name": { "type": "string" },
          "type": {
            "type": "string",
            "enum": ["MONEY", "PERCENTAGE", "YEAR", "QUARTER", "MONTH", "DATE", "NUMERIC", "TEXT"]
          }
        },
        "required": ["name", "type"],
        "additionalProperties": false
      }
    }
  },
  "required": ["pipeline"],
  "additionalProperties": false
}`

const resultCheckOutputSchema = `{
  "$schema": "http://json-schema.org/draft-07/schema#",
  "type": "object",
  "properties": {
    "isValid": { "type": "boolean" },
    "refinement": { "type": ["string", "null"] },
    "context": { "type": ["string", "null"] }
  },
  "required": ["isValid"],
  "additionalProperties": false
}`

const summaryOutputSchema = `{
  "$schema": "http://json-schema.org/draft-07/schema#",
  "type": "object",
  "properties": {
    "answer": { "type": "string" }
  },
  "required": ["answer"],
  "additionalProperties": false
}`

const suggestionsOutputSchema = `{
  "$schema": "http://json-schema.org/draft-07/schema#",
  "type": "object",
  "properties": {
    "suggestedQuestions": {
      "type": "array",
      "items": { "type": "string" }
    }
  },
  "required": ["suggestedQuestions"],
  "additionalProperties": false
}`
