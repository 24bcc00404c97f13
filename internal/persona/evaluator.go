package persona

import "strings"

// Evaluate decides whether criteria match the execution context.
// All set dimensions are ANDed; unset dimensions are ignored, so the
// zero Criteria vacuously matches. Lookups that cannot be answered
// (nil memory, absent key) count as a non-match, never a failure.
func Evaluate(criteria Criteria, ec ExecutionContext) bool {
	if criteria.Mood != "" && criteria.Mood != ec.Mood {
		return false
	}

	if criteria.SkillLevel != "" && criteria.SkillLevel != ec.SkillLevel {
		return false
	}

	if criteria.TaskHintContains != "" &&
		!strings.Contains(ec.TaskHint, criteria.TaskHintContains) {
		return false
	}

	if criteria.TaskComplexity != "" && criteria.TaskComplexity != ec.TaskComplexity {
		return false
	}

	if criteria.Language != "" && criteria.Language != ec.Language {
		return false
	}

	if len(criteria.ConversationSignals) > 0 {
		present := make(map[string]bool, len(ec.ConversationSignals))
		for _, s := range ec.ConversationSignals {
			present[s] = true
		}
		for _, required := range criteria.ConversationSignals {
			if !present[required] {
				return false
			}
		}
	}

	if criteria.MemoryKey != "" {
		if ec.Memory == nil {
			return false
		}
		value, ok := ec.Memory.Lookup(criteria.MemoryKey)
		if !ok || value != criteria.MemoryValue {
			return false
		}
	}

	return true
}
