// Package prompt defines the logical prompt components the engine
// assembles, fits, and renders. Components are the raw ingredients of
// a prompt: system fragments, conversation history, retrieved context,
// tool schemas, examples, and the current user input.
//
// Components received from a caller are treated as immutable: every
// stage that needs to modify them works on a Clone.
package prompt

// Role tags a conversation message.
type Role string

const (
	RoleSystem    Role = "system"
	RoleUser      Role = "user"
	RoleAssistant Role = "assistant"
	RoleTool      Role = "tool"
)

// PartType tags one part of a multi-part message.
type PartType string

const (
	PartText       PartType = "text"
	PartImage      PartType = "image"
	PartToolResult PartType = "tool_result"
)

// ImageDetail selects the fidelity of an image part.
type ImageDetail string

const (
	DetailLow  ImageDetail = "low"
	DetailHigh ImageDetail = "high"
)

// ContentPart is one part of a multi-part message.
type ContentPart struct {
	Type PartType `yaml:"type" json:"type"`

	// Text content for PartText parts.
	Text string `yaml:"text,omitempty" json:"text,omitempty"`

	// ImageURL and Detail for PartImage parts. Token cost is a fixed
	// constant per detail level; pixel data is never inspected.
	ImageURL string      `yaml:"image_url,omitempty" json:"image_url,omitempty"`
	Detail   ImageDetail `yaml:"detail,omitempty" json:"detail,omitempty"`

	// ToolCallID and ToolOutput for PartToolResult parts.
	ToolCallID string `yaml:"tool_call_id,omitempty" json:"tool_call_id,omitempty"`
	ToolOutput string `yaml:"tool_output,omitempty" json:"tool_output,omitempty"`
}

// Message is one turn of conversation history. Either Content is set
// (plain text) or Parts is non-empty (multi-part).
type Message struct {
	Role    Role          `yaml:"role" json:"role"`
	Content string        `yaml:"content,omitempty" json:"content,omitempty"`
	Parts   []ContentPart `yaml:"parts,omitempty" json:"parts,omitempty"`
}

// IsMultipart reports whether the message carries structured parts.
func (m Message) IsMultipart() bool {
	return len(m.Parts) > 0
}

// Clone returns a deep copy of the message.
func (m Message) Clone() Message {
	c := m
	if m.Parts != nil {
		c.Parts = make([]ContentPart, len(m.Parts))
		copy(c.Parts, m.Parts)
	}
	return c
}

// SystemPrompt is one system-instruction fragment. Fragments are
// ordered ascending by Priority in the final output: priority 0
// renders first.
type SystemPrompt struct {
	Content  string `yaml:"content" json:"content"`
	Priority int    `yaml:"priority" json:"priority"`

	// Source identifies where the fragment came from (caller, or the
	// ID of the contextual element that contributed it).
	Source string `yaml:"source,omitempty" json:"source,omitempty"`
}

// RetrievedContext is one retrieved-context item (RAG result).
type RetrievedContext struct {
	Content   string  `yaml:"content" json:"content"`
	Source    string  `yaml:"source,omitempty" json:"source,omitempty"`
	Relevance float64 `yaml:"relevance,omitempty" json:"relevance,omitempty"`
}

// ToolSchema describes one tool exposed to the model.
type ToolSchema struct {
	Name        string                 `yaml:"name" json:"name"`
	Description string                 `yaml:"description,omitempty" json:"description,omitempty"`
	Parameters  map[string]interface{} `yaml:"parameters,omitempty" json:"parameters,omitempty"`
}

// Clone returns a deep copy of the schema.
func (t ToolSchema) Clone() ToolSchema {
	c := t
	c.Parameters = cloneValueMap(t.Parameters)
	return c
}

// Example is a few-shot input/output pair.
type Example struct {
	Input  string `yaml:"input" json:"input"`
	Output string `yaml:"output" json:"output"`

	// Source identifies the contributing contextual element, if any.
	Source string `yaml:"source,omitempty" json:"source,omitempty"`
}

// Components holds every raw ingredient for one prompt construction.
type Components struct {
	// SystemPrompts are system-instruction fragments, ordered
	// ascending by Priority when assembled.
	SystemPrompts []SystemPrompt `yaml:"system_prompts,omitempty" json:"system_prompts,omitempty"`

	// History is the ordered conversation history, oldest first.
	History []Message `yaml:"history,omitempty" json:"history,omitempty"`

	// RetrievedContext holds retrieval results to ground the reply.
	RetrievedContext []RetrievedContext `yaml:"retrieved_context,omitempty" json:"retrieved_context,omitempty"`

	// Tools are schemas for tools available to the model.
	Tools []ToolSchema `yaml:"tools,omitempty" json:"tools,omitempty"`

	// Examples are few-shot demonstration pairs.
	Examples []Example `yaml:"examples,omitempty" json:"examples,omitempty"`

	// UserInput is the current user turn.
	UserInput string `yaml:"user_input,omitempty" json:"user_input,omitempty"`

	// VisionParts are image parts attached to the current user turn.
	VisionParts []ContentPart `yaml:"vision_parts,omitempty" json:"vision_parts,omitempty"`

	// TaskData carries free-form task parameters for templates.
	TaskData map[string]string `yaml:"task_data,omitempty" json:"task_data,omitempty"`

	// Variables are template substitution values.
	Variables map[string]string `yaml:"variables,omitempty" json:"variables,omitempty"`

	// RawMessages pass through to the renderer untouched.
	RawMessages []Message `yaml:"raw_messages,omitempty" json:"raw_messages,omitempty"`

	// Extensions buckets contextual-element content that has no
	// dedicated field, keyed by normalized element type.
	Extensions map[string][]string `yaml:"extensions,omitempty" json:"extensions,omitempty"`
}

// Clone returns a deep copy of the components. Every slice and map is
// copied so mutations on the clone never alias the original.
func (c *Components) Clone() *Components {
	if c == nil {
		return nil
	}

	clone := &Components{
		UserInput: c.UserInput,
	}

	if c.SystemPrompts != nil {
		clone.SystemPrompts = make([]SystemPrompt, len(c.SystemPrompts))
		copy(clone.SystemPrompts, c.SystemPrompts)
	}

	if c.History != nil {
		clone.History = make([]Message, len(c.History))
		for i, m := range c.History {
			clone.History[i] = m.Clone()
		}
	}

	if c.RetrievedContext != nil {
		clone.RetrievedContext = make([]RetrievedContext, len(c.RetrievedContext))
		copy(clone.RetrievedContext, c.RetrievedContext)
	}

	if c.Tools != nil {
		clone.Tools = make([]ToolSchema, len(c.Tools))
		for i, t := range c.Tools {
			clone.Tools[i] = t.Clone()
		}
	}

	if c.Examples != nil {
		clone.Examples = make([]Example, len(c.Examples))
		copy(clone.Examples, c.Examples)
	}

	if c.VisionParts != nil {
		clone.VisionParts = make([]ContentPart, len(c.VisionParts))
		copy(clone.VisionParts, c.VisionParts)
	}

	clone.TaskData = cloneStringMap(c.TaskData)
	clone.Variables = cloneStringMap(c.Variables)

	if c.RawMessages != nil {
		clone.RawMessages = make([]Message, len(c.RawMessages))
		for i, m := range c.RawMessages {
			clone.RawMessages[i] = m.Clone()
		}
	}

	if c.Extensions != nil {
		clone.Extensions = make(map[string][]string, len(c.Extensions))
		for k, v := range c.Extensions {
			vals := make([]string, len(v))
			copy(vals, v)
			clone.Extensions[k] = vals
		}
	}

	return clone
}

// CombinedSystemText joins all system fragments in render order.
func (c *Components) CombinedSystemText(separator string) string {
	out := ""
	for _, sp := range c.SystemPrompts {
		if sp.Content == "" {
			continue
		}
		if out != "" {
			out += separator
		}
		out += sp.Content
	}
	return out
}

func cloneStringMap(m map[string]string) map[string]string {
	if m == nil {
		return nil
	}
	c := make(map[string]string, len(m))
	for k, v := range m {
		c[k] = v
	}
	return c
}

func cloneValueMap(m map[string]interface{}) map[string]interface{} {
	if m == nil {
		return nil
	}
	c := make(map[string]interface{}, len(m))
	for k, v := range m {
		switch val := v.(type) {
		case map[string]interface{}:
			c[k] = cloneValueMap(val)
		case []interface{}:
			list := make([]interface{}, len(val))
			for i, item := range val {
				if nested, ok := item.(map[string]interface{}); ok {
					list[i] = cloneValueMap(nested)
				} else {
					list[i] = item
				}
			}
			c[k] = list
		default:
			c[k] = v
		}
	}
	return c
}
