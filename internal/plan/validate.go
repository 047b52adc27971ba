package plan

import (
	"fmt"
	"strings"
)

// Operators whose specification is a field-name-to-expression mapping.
var fieldDefiningOps = map[string]bool{
	"$project":   true,
	"$group":     true,
	"$addFields": true,
	"$set":       true,
}

const arrayElemAtOp = "$arrayElemAt"

// StructuralError reports the first structural violation found in a pipeline.
// The location (stage index plus operator) is precise enough to be fed back
// to the query builder as refinement guidance.
type StructuralError struct {
	StageIndex int
	Operator   string
	Reason     string
	Expected   int
	Actual     string
}

func (e *StructuralError) Error() string {
	switch e.Reason {
	case "empty field name":
		return fmt.Sprintf("stage %d (%s): empty field name detected, all field names must be non-empty strings",
			e.StageIndex, e.Operator)
	case "arity mismatch":
		return fmt.Sprintf("stage %d (%s): %s requires exactly %d arguments [array, index], got %s",
			e.StageIndex, e.Operator, arrayElemAtOp, e.Expected, e.Actual)
	default:
		return fmt.Sprintf("stage %d (%s): %s", e.StageIndex, e.Operator, e.Reason)
	}
}

// Validate checks a pipeline for structural soundness before execution.
// It is pure and deterministic: stages are visited in order, operators within
// a stage in entry order, nested specifications depth-first, and the first
// violation found is returned.
//
// Two rules are enforced:
//   - field-defining operators ($project, $group, $addFields, $set) must not
//     declare empty or whitespace-only field names at the top level of their
//     specification;
//   - $arrayElemAt must take exactly a two-element sequence [array, index],
//     at any nesting depth.
func Validate(stages []*Node) error {
	for idx, stage := range stages {
		if stage == nil || stage.Kind() != KindMapping {
			continue
		}
		for _, op := range stage.Entries() {
			if err := validateOperator(idx, op.Key, op.Key, op.Value); err != nil {
				return err
			}
		}
	}
	return nil
}

func validateOperator(stageIdx int, stageOp, op string, spec *Node) error {
	if op == arrayElemAtOp {
		if err := checkElemAtArgs(stageIdx, stageOp, spec); err != nil {
			return err
		}
	}
	if fieldDefiningOps[op] && spec.Kind() == KindMapping {
		for _, field := range spec.Entries() {
			if strings.TrimSpace(field.Key) == "" {
				return &StructuralError{
					StageIndex: stageIdx,
					Operator:   stageOp,
					Reason:     "empty field name",
				}
			}
		}
	}
	return descend(stageIdx, stageOp, spec)
}

// descend walks nested specifications depth-first, re-checking every mapping
// (including mappings found inside sequences) for misused operators.
func descend(stageIdx int, stageOp string, node *Node) error {
	if node == nil {
		return nil
	}
	switch node.Kind() {
	case KindMapping:
		for _, entry := range node.Entries() {
			if entry.Key == arrayElemAtOp {
				if err := checkElemAtArgs(stageIdx, stageOp, entry.Value); err != nil {
					return err
				}
			}
			if err := descend(stageIdx, stageOp, entry.Value); err != nil {
				return err
			}
		}
	case KindSequence:
		for _, item := range node.Items() {
			if err := descend(stageIdx, stageOp, item); err != nil {
				return err
			}
		}
	}
	return nil
}

func checkElemAtArgs(stageIdx int, stageOp string, args *Node) error {
	if args == nil || args.Kind() != KindSequence {
		return &StructuralError{
			StageIndex: stageIdx,
			Operator:   stageOp,
			Reason:     "arity mismatch",
			Expected:   2,
			Actual:     "non-sequence",
		}
	}
	if len(args.Items()) != 2 {
		return &StructuralError{
			StageIndex: stageIdx,
			Operator:   stageOp,
			Reason:     "arity mismatch",
			Expected:   2,
			Actual:     fmt.Sprintf("%d", len(args.Items())),
		}
	}
	return nil
}
