// Package model defines descriptors for target language models.
// A Descriptor is immutable configuration for the duration of one
// engine call: it tells the engine how large the context window is,
// which prompt shape the provider expects, and what the model can do.
package model

import (
	"sort"
	"strings"
)

// PromptFormat identifies the structural shape a model family expects.
type PromptFormat string

const (
	// FormatChat is a role-tagged message array (chat-completion APIs).
	FormatChat PromptFormat = "chat"

	// FormatSystemSplit separates the system prompt from the turn array.
	FormatSystemSplit PromptFormat = "system-split"

	// FormatCompletion is a single flat completion string.
	FormatCompletion PromptFormat = "completion"
)

// ToolFormat identifies how tool schemas are presented to the model.
type ToolFormat string

const (
	// ToolsOpenAI wraps each schema as {type:"function", function:{...}}.
	ToolsOpenAI ToolFormat = "openai"

	// ToolsAnthropic uses the name/description/input_schema triple.
	ToolsAnthropic ToolFormat = "anthropic"

	// ToolsNone means the model has no tool support.
	ToolsNone ToolFormat = "none"
)

// Descriptor describes a target model.
type Descriptor struct {
	// ID is the provider model identifier (e.g. "gpt-4o").
	ID string `yaml:"id" json:"id"`

	// MaxContextTokens is the total context window size.
	MaxContextTokens int `yaml:"max_context_tokens" json:"max_context_tokens"`

	// ReservedOutputTokens is the allowance kept free for the model's
	// reply. Zero means "use the engine default".
	ReservedOutputTokens int `yaml:"reserved_output_tokens" json:"reserved_output_tokens"`

	// ToolFormat declares the provider's tool schema shape.
	ToolFormat ToolFormat `yaml:"tool_format" json:"tool_format"`

	// VisionSupport reports whether image parts are accepted.
	VisionSupport bool `yaml:"vision_support" json:"vision_support"`

	// PromptFormat selects the rendering strategy.
	PromptFormat PromptFormat `yaml:"prompt_format" json:"prompt_format"`

	// TokenizerID names the tokenizer used for counting. Empty means
	// the heuristic estimator keyed on the model ID prefix.
	TokenizerID string `yaml:"tokenizer_id" json:"tokenizer_id"`
}

// SupportsTools reports whether the model declares any tool format.
func (d Descriptor) SupportsTools() bool {
	return d.ToolFormat != "" && d.ToolFormat != ToolsNone
}

// Family returns the model family prefix used for estimator calibration
// (the identifier up to the first dash, lowercased).
func (d Descriptor) Family() string {
	id := strings.ToLower(d.ID)
	if i := strings.Index(id, "-"); i > 0 {
		return id[:i]
	}
	return id
}

// Registry holds known model descriptors keyed by ID.
type Registry struct {
	descriptors map[string]Descriptor
}

// NewRegistry creates a registry pre-loaded with well-known models.
func NewRegistry() *Registry {
	r := &Registry{descriptors: make(map[string]Descriptor)}
	for _, d := range builtinDescriptors() {
		r.descriptors[d.ID] = d
	}
	return r
}

// builtinDescriptors returns the baked-in model catalogue. Context
// window sizes follow published provider limits.
func builtinDescriptors() []Descriptor {
	return []Descriptor{
		{
			ID:                   "gpt-4o",
			MaxContextTokens:     128000,
			ReservedOutputTokens: 4096,
			ToolFormat:           ToolsOpenAI,
			VisionSupport:        true,
			PromptFormat:         FormatChat,
			TokenizerID:          "cl100k_base",
		},
		{
			ID:                   "gpt-4o-mini",
			MaxContextTokens:     128000,
			ReservedOutputTokens: 4096,
			ToolFormat:           ToolsOpenAI,
			VisionSupport:        true,
			PromptFormat:         FormatChat,
			TokenizerID:          "cl100k_base",
		},
		{
			ID:                   "claude-3-5-sonnet",
			MaxContextTokens:     200000,
			ReservedOutputTokens: 8192,
			ToolFormat:           ToolsAnthropic,
			VisionSupport:        true,
			PromptFormat:         FormatSystemSplit,
		},
		{
			ID:                   "claude-3-haiku",
			MaxContextTokens:     200000,
			ReservedOutputTokens: 4096,
			ToolFormat:           ToolsAnthropic,
			VisionSupport:        true,
			PromptFormat:         FormatSystemSplit,
		},
		{
			ID:                   "gemini-2.0-flash",
			MaxContextTokens:     1000000,
			ReservedOutputTokens: 8192,
			ToolFormat:           ToolsOpenAI,
			VisionSupport:        true,
			PromptFormat:         FormatChat,
		},
		{
			ID:               "text-davinci-003",
			MaxContextTokens: 4097,
			ToolFormat:       ToolsNone,
			PromptFormat:     FormatCompletion,
		},
	}
}

// Get retrieves a descriptor by model ID.
func (r *Registry) Get(id string) (Descriptor, bool) {
	d, ok := r.descriptors[id]
	return d, ok
}

// Register adds or replaces a descriptor.
func (r *Registry) Register(d Descriptor) {
	r.descriptors[d.ID] = d
}

// All returns every registered descriptor, sorted by ID.
func (r *Registry) All() []Descriptor {
	result := make([]Descriptor, 0, len(r.descriptors))
	for _, d := range r.descriptors {
		result = append(result, d)
	}
	sort.Slice(result, func(i, j int) bool { return result[i].ID < result[j].ID })
	return result
}
