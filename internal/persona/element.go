// Package persona provides contextual prompt elements, the criteria
// predicate that gates them, and the augmenter that merges selected
// elements into base prompt components.
//
// Elements are authored by a persona provider and referenced
// read-only; the engine never mutates them.
package persona

// ElementType classifies a contextual element. The set of known types
// is closed; anything else is routed to the extension bucket keyed by
// its normalized type name.
type ElementType string

const (
	// ElementSystemAddon adds a system-instruction fragment.
	ElementSystemAddon ElementType = "system_addon"

	// ElementBehavioralGuidance adds behavioral system instructions.
	ElementBehavioralGuidance ElementType = "behavioral_guidance"

	// ElementFewShotExample contributes a few-shot example pair.
	ElementFewShotExample ElementType = "few_shot_example"

	// ElementUserInputAugmentation appends content to the user input.
	ElementUserInputAugmentation ElementType = "user_input_augmentation"

	// ElementExtension is the explicit catch-all variant; its content
	// lands in the components extension map.
	ElementExtension ElementType = "extension"
)

// Element is a persona-authored prompt fragment gated by Criteria.
type Element struct {
	// ID uniquely identifies the element within its persona.
	ID string `yaml:"id" json:"id"`

	// Type routes the element during augmentation.
	Type ElementType `yaml:"type" json:"type"`

	// Content is the fragment text.
	Content string `yaml:"content" json:"content"`

	// ExampleInput and ExampleOutput are set for few-shot elements.
	ExampleInput  string `yaml:"example_input,omitempty" json:"example_input,omitempty"`
	ExampleOutput string `yaml:"example_output,omitempty" json:"example_output,omitempty"`

	// Priority breaks selection ties: higher priority is selected
	// first. Within the final system-prompt list the ordering flips to
	// ascending (priority 0 renders first).
	Priority int `yaml:"priority" json:"priority"`

	// Criteria gates whether the element applies to a context.
	Criteria Criteria `yaml:"criteria" json:"criteria"`
}

// Criteria is a conjunctive predicate over an execution context.
// A zero-value field means "don't care" for that dimension, so the
// zero Criteria matches every context.
type Criteria struct {
	// Mood must match exactly when set.
	Mood string `yaml:"mood,omitempty" json:"mood,omitempty"`

	// SkillLevel must match exactly when set.
	SkillLevel string `yaml:"skill_level,omitempty" json:"skill_level,omitempty"`

	// TaskHintContains matches as a substring of the context task hint.
	TaskHintContains string `yaml:"task_hint_contains,omitempty" json:"task_hint_contains,omitempty"`

	// TaskComplexity must match exactly when set.
	TaskComplexity string `yaml:"task_complexity,omitempty" json:"task_complexity,omitempty"`

	// Language must match exactly when set.
	Language string `yaml:"language,omitempty" json:"language,omitempty"`

	// ConversationSignals must all be present in the context.
	ConversationSignals []string `yaml:"conversation_signals,omitempty" json:"conversation_signals,omitempty"`

	// MemoryKey/MemoryValue require the working memory to hold the
	// given value under the key. Unavailable memory means no match.
	MemoryKey   string `yaml:"memory_key,omitempty" json:"memory_key,omitempty"`
	MemoryValue string `yaml:"memory_value,omitempty" json:"memory_value,omitempty"`
}

// MemoryReader answers synchronous working-memory lookups. A reader
// that cannot answer should return ok=false rather than block.
type MemoryReader interface {
	// Lookup returns the value stored under key, if any.
	Lookup(key string) (value string, ok bool)
}

// ExecutionContext is a point-in-time snapshot of the caller's state.
// It is supplied per call and never persisted by the engine.
type ExecutionContext struct {
	// PersonaID references the active persona.
	PersonaID string `yaml:"persona_id,omitempty" json:"persona_id,omitempty"`

	// Mood is the current conversational mood.
	Mood string `yaml:"mood,omitempty" json:"mood,omitempty"`

	// TaskHint describes the current task in free text.
	TaskHint string `yaml:"task_hint,omitempty" json:"task_hint,omitempty"`

	// SkillLevel describes the user (e.g. "beginner", "expert").
	SkillLevel string `yaml:"skill_level,omitempty" json:"skill_level,omitempty"`

	// TaskComplexity classifies the task (e.g. "simple", "complex").
	TaskComplexity string `yaml:"task_complexity,omitempty" json:"task_complexity,omitempty"`

	// Language is the conversation language code.
	Language string `yaml:"language,omitempty" json:"language,omitempty"`

	// ConversationSignals are detected conversation-state markers.
	ConversationSignals []string `yaml:"conversation_signals,omitempty" json:"conversation_signals,omitempty"`

	// Custom carries caller-defined key/value pairs.
	Custom map[string]string `yaml:"custom,omitempty" json:"custom,omitempty"`

	// Memory is the optional working-memory backend. Nil is valid and
	// makes every memory criterion a non-match.
	Memory MemoryReader `yaml:"-" json:"-"`
}

// Provider exposes the contextual elements of the active persona.
type Provider interface {
	// Elements returns the element catalogue for a persona ID.
	Elements(personaID string) ([]Element, error)
}
