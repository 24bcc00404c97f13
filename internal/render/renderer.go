// Package render converts budget-fitted prompt components into the
// wire shape a model family expects: a role-tagged message array, a
// system-plus-messages split, or a flat completion string.
package render

import (
	"fmt"
	"sort"
	"sync"

	"promptsmith/internal/model"
	"promptsmith/internal/prompt"
)

// Part is one structured part of a rendered message.
type Part struct {
	Type string `json:"type"`

	Text string `json:"text,omitempty"`

	ImageURL string `json:"image_url,omitempty"`
	Detail   string `json:"detail,omitempty"`

	ToolCallID string `json:"tool_call_id,omitempty"`
	Content    string `json:"content,omitempty"`
}

// Message is one rendered turn. Either Content or Parts is set.
type Message struct {
	Role    string `json:"role"`
	Content string `json:"content,omitempty"`
	Parts   []Part `json:"parts,omitempty"`
}

// Prompt is the rendered, model-shape-dependent output.
type Prompt struct {
	// Format identifies the strategy that produced this prompt.
	Format model.PromptFormat `json:"format"`

	// Messages is set for chat-format output.
	Messages []Message `json:"messages,omitempty"`

	// System and Turns are set for system-split output.
	System string    `json:"system,omitempty"`
	Turns  []Message `json:"turns,omitempty"`

	// Text is set for completion-format output.
	Text string `json:"text,omitempty"`

	// Tools are provider-formatted tool schemas.
	Tools []map[string]interface{} `json:"tools,omitempty"`
}

// Clone returns a deep copy of the rendered prompt.
func (p *Prompt) Clone() *Prompt {
	if p == nil {
		return nil
	}
	c := &Prompt{
		Format: p.Format,
		System: p.System,
		Text:   p.Text,
	}
	c.Messages = cloneMessages(p.Messages)
	c.Turns = cloneMessages(p.Turns)
	if p.Tools != nil {
		c.Tools = make([]map[string]interface{}, len(p.Tools))
		for i, t := range p.Tools {
			c.Tools[i] = cloneTool(t)
		}
	}
	return c
}

func cloneMessages(msgs []Message) []Message {
	if msgs == nil {
		return nil
	}
	out := make([]Message, len(msgs))
	for i, m := range msgs {
		out[i] = m
		if m.Parts != nil {
			out[i].Parts = make([]Part, len(m.Parts))
			copy(out[i].Parts, m.Parts)
		}
	}
	return out
}

func cloneTool(t map[string]interface{}) map[string]interface{} {
	if t == nil {
		return nil
	}
	c := make(map[string]interface{}, len(t))
	for k, v := range t {
		if nested, ok := v.(map[string]interface{}); ok {
			c[k] = cloneTool(nested)
		} else {
			c[k] = v
		}
	}
	return c
}

// Renderer converts fitted components into a rendered prompt.
// Implementations must be pure: the same input renders identically.
type Renderer interface {
	Render(c *prompt.Components, desc model.Descriptor) (*Prompt, []prompt.Issue)
}

// RenderFunc adapts a function to the Renderer interface.
type RenderFunc func(c *prompt.Components, desc model.Descriptor) (*Prompt, []prompt.Issue)

// Render implements Renderer.
func (f RenderFunc) Render(c *prompt.Components, desc model.Descriptor) (*Prompt, []prompt.Issue) {
	return f(c, desc)
}

// Registry maps template names to renderers.
type Registry struct {
	mu        sync.RWMutex
	renderers map[string]Renderer
}

// NewRegistry creates a registry pre-loaded with the built-in
// strategies under their canonical names.
func NewRegistry() *Registry {
	r := &Registry{renderers: make(map[string]Renderer)}
	r.renderers[string(model.FormatChat)] = &ChatRenderer{}
	r.renderers[string(model.FormatSystemSplit)] = &SystemSplitRenderer{}
	r.renderers[string(model.FormatCompletion)] = &CompletionRenderer{}
	return r
}

// Register adds a renderer under a name. A duplicate name is rejected
// unless override is set.
func (r *Registry) Register(name string, renderer Renderer, override bool) error {
	if name == "" {
		return fmt.Errorf("template name is required")
	}
	if renderer == nil {
		return fmt.Errorf("renderer is required for template %q", name)
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	if _, exists := r.renderers[name]; exists && !override {
		return fmt.Errorf("template %q already registered", name)
	}
	r.renderers[name] = renderer
	return nil
}

// Get retrieves a renderer by name.
func (r *Registry) Get(name string) (Renderer, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	renderer, ok := r.renderers[name]
	return renderer, ok
}

// Names lists the registered template names, sorted.
func (r *Registry) Names() []string {
	r.mu.RLock()
	defer r.mu.RUnlock()

	names := make([]string, 0, len(r.renderers))
	for name := range r.renderers {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}
