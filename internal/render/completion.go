package render

import (
	"strings"

	"promptsmith/internal/logging"
	"promptsmith/internal/model"
	"promptsmith/internal/prompt"
)

// CompletionRenderer produces a single flat completion string: system
// prompts, a line per history message (`role: content`), then a
// trailing `user: <input>\nassistant:` primer. Rendering is
// deterministic: identical components yield byte-identical output.
type CompletionRenderer struct{}

// Render implements Renderer.
func (r *CompletionRenderer) Render(c *prompt.Components, desc model.Descriptor) (*Prompt, []prompt.Issue) {
	timer := logging.StartTimer(logging.CategoryRender, "CompletionRenderer.Render")
	defer timer.Stop()

	var b strings.Builder

	if system := c.CombinedSystemText("\n\n"); system != "" {
		b.WriteString(system)
		b.WriteString("\n\n")
	}

	for _, ex := range c.Examples {
		b.WriteString("user: ")
		b.WriteString(ex.Input)
		b.WriteString("\nassistant: ")
		b.WriteString(ex.Output)
		b.WriteString("\n")
	}

	if contextBlock := buildContextBlock(c.RetrievedContext); contextBlock != "" {
		b.WriteString(contextBlock)
		b.WriteString("\n\n")
	}

	for _, m := range c.History {
		b.WriteString(string(m.Role))
		b.WriteString(": ")
		b.WriteString(flattenMessage(m))
		b.WriteString("\n")
	}

	for _, m := range c.RawMessages {
		b.WriteString(string(m.Role))
		b.WriteString(": ")
		b.WriteString(flattenMessage(m))
		b.WriteString("\n")
	}

	b.WriteString("user: ")
	b.WriteString(c.UserInput)
	b.WriteString("\nassistant:")

	out := &Prompt{
		Format: model.FormatCompletion,
		Text:   b.String(),
	}

	tools, issues := formatTools(c.Tools, desc)
	out.Tools = tools

	return out, issues
}

// flattenMessage reduces a message to plain text for line rendering.
// Image parts are represented by a placeholder marker.
func flattenMessage(m prompt.Message) string {
	if !m.IsMultipart() {
		return m.Content
	}

	var parts []string
	for _, p := range m.Parts {
		switch p.Type {
		case prompt.PartText:
			parts = append(parts, p.Text)
		case prompt.PartToolResult:
			parts = append(parts, p.ToolOutput)
		case prompt.PartImage:
			parts = append(parts, "[image]")
		}
	}
	return strings.Join(parts, " ")
}
