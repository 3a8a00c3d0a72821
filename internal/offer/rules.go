package offer

import (
	"sort"

	"github.com/tomassolanoprieto/subprice/internal/conditions"
)

// Verdict is the outcome of evaluating an offer against a condition profile.
type Verdict struct {
	Qualified    bool
	FailedFields []string
}

// Evaluate checks the proposed terms against every condition in the profile.
// This is pure domain logic - no I/O, no side effects.
//
// An empty profile qualifies unconditionally. A condition whose field is
// absent from the proposal fails that condition. Evaluation never short
// circuits: the verdict names every failing field, deduplicated and sorted.
func Evaluate(proposed map[string]float64, profile conditions.Profile) Verdict {
	if profile.IsEmpty() {
		return Verdict{Qualified: true}
	}

	failed := make(map[string]bool)
	for _, cond := range profile.Conditions {
		value, ok := proposed[cond.Field]
		if !ok || !cond.Holds(value) {
			failed[cond.Field] = true
		}
	}
	if len(failed) == 0 {
		return Verdict{Qualified: true}
	}

	fields := make([]string, 0, len(failed))
	for f := range failed {
		fields = append(fields, f)
	}
	sort.Strings(fields)
	return Verdict{Qualified: false, FailedFields: fields}
}
