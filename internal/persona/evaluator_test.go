package persona

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

type mapMemory map[string]string

func (m mapMemory) Lookup(key string) (string, bool) {
	v, ok := m[key]
	return v, ok
}

func TestEvaluate(t *testing.T) {
	tests := []struct {
		name     string
		criteria Criteria
		ec       ExecutionContext
		expected bool
	}{
		{
			name:     "empty criteria matches everything",
			criteria: Criteria{},
			ec:       ExecutionContext{Mood: "focused", TaskHint: "debug the parser"},
			expected: true,
		},
		{
			name:     "empty criteria matches empty context",
			criteria: Criteria{},
			ec:       ExecutionContext{},
			expected: true,
		},
		{
			name:     "mood match",
			criteria: Criteria{Mood: "focused"},
			ec:       ExecutionContext{Mood: "focused"},
			expected: true,
		},
		{
			name:     "mood mismatch",
			criteria: Criteria{Mood: "focused"},
			ec:       ExecutionContext{Mood: "playful"},
			expected: false,
		},
		{
			name:     "task hint substring",
			criteria: Criteria{TaskHintContains: "refactor"},
			ec:       ExecutionContext{TaskHint: "please refactor the cache layer"},
			expected: true,
		},
		{
			name:     "task hint substring absent",
			criteria: Criteria{TaskHintContains: "refactor"},
			ec:       ExecutionContext{TaskHint: "write new tests"},
			expected: false,
		},
		{
			name:     "all dimensions are conjunctive",
			criteria: Criteria{Mood: "focused", SkillLevel: "expert"},
			ec:       ExecutionContext{Mood: "focused", SkillLevel: "beginner"},
			expected: false,
		},
		{
			name:     "all dimensions match",
			criteria: Criteria{Mood: "focused", SkillLevel: "expert", Language: "de"},
			ec:       ExecutionContext{Mood: "focused", SkillLevel: "expert", Language: "de"},
			expected: true,
		},
		{
			name:     "all required signals present",
			criteria: Criteria{ConversationSignals: []string{"frustration", "repetition"}},
			ec:       ExecutionContext{ConversationSignals: []string{"repetition", "frustration", "urgency"}},
			expected: true,
		},
		{
			name:     "one required signal missing",
			criteria: Criteria{ConversationSignals: []string{"frustration", "repetition"}},
			ec:       ExecutionContext{ConversationSignals: []string{"frustration"}},
			expected: false,
		},
		{
			name:     "memory criterion without memory backend",
			criteria: Criteria{MemoryKey: "project", MemoryValue: "promptsmith"},
			ec:       ExecutionContext{},
			expected: false,
		},
		{
			name:     "memory value match",
			criteria: Criteria{MemoryKey: "project", MemoryValue: "promptsmith"},
			ec:       ExecutionContext{Memory: mapMemory{"project": "promptsmith"}},
			expected: true,
		},
		{
			name:     "memory value mismatch",
			criteria: Criteria{MemoryKey: "project", MemoryValue: "promptsmith"},
			ec:       ExecutionContext{Memory: mapMemory{"project": "other"}},
			expected: false,
		},
		{
			name:     "memory key absent",
			criteria: Criteria{MemoryKey: "project", MemoryValue: "promptsmith"},
			ec:       ExecutionContext{Memory: mapMemory{}},
			expected: false,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.expected, Evaluate(tt.criteria, tt.ec))
		})
	}
}

func TestEvaluate_ExtraContextStateIsIgnored(t *testing.T) {
	criteria := Criteria{Mood: "focused"}
	ec := ExecutionContext{
		Mood:                "focused",
		SkillLevel:          "expert",
		TaskHint:            "anything",
		ConversationSignals: []string{"urgency"},
		Custom:              map[string]string{"theme": "dark"},
	}

	assert.True(t, Evaluate(criteria, ec))
}
