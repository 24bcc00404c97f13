package render

import (
	"strings"

	"promptsmith/internal/logging"
	"promptsmith/internal/model"
	"promptsmith/internal/prompt"
)

// ChatRenderer produces a role-tagged message array for
// chat-completion-style APIs: one combined system message, history
// role-for-role, then a final user turn carrying the current input,
// vision parts, and retrieved context.
type ChatRenderer struct{}

// Render implements Renderer.
func (r *ChatRenderer) Render(c *prompt.Components, desc model.Descriptor) (*Prompt, []prompt.Issue) {
	timer := logging.StartTimer(logging.CategoryRender, "ChatRenderer.Render")
	defer timer.Stop()

	out := &Prompt{Format: model.FormatChat}

	if system := c.CombinedSystemText("\n\n"); system != "" {
		out.Messages = append(out.Messages, Message{Role: "system", Content: system})
	}

	// Few-shot examples become alternating user/assistant turns
	// between the system message and the real history.
	for _, ex := range c.Examples {
		out.Messages = append(out.Messages,
			Message{Role: "user", Content: ex.Input},
			Message{Role: "assistant", Content: ex.Output},
		)
	}

	for _, m := range c.History {
		out.Messages = append(out.Messages, mapMessage(m))
	}

	for _, m := range c.RawMessages {
		out.Messages = append(out.Messages, mapMessage(m))
	}

	contextBlock := buildContextBlock(c.RetrievedContext)

	if c.UserInput != "" || len(c.VisionParts) > 0 {
		// Assemble the final user turn from input + vision + context.
		content := c.UserInput
		if contextBlock != "" {
			content = contextBlock + "\n\n" + c.UserInput
		}

		if len(c.VisionParts) == 0 {
			out.Messages = append(out.Messages, Message{Role: "user", Content: content})
		} else {
			parts := []Part{{Type: "text", Text: content}}
			for _, vp := range c.VisionParts {
				parts = append(parts, Part{
					Type:     "image",
					ImageURL: vp.ImageURL,
					Detail:   string(vp.Detail),
				})
			}
			out.Messages = append(out.Messages, Message{Role: "user", Parts: parts})
		}
	} else if contextBlock != "" {
		// No current input: prepend the context block to a trailing
		// user message if one exists, otherwise synthesize a user turn.
		last := len(out.Messages) - 1
		if last >= 0 && out.Messages[last].Role == "user" && out.Messages[last].Content != "" {
			out.Messages[last].Content = contextBlock + "\n\n" + out.Messages[last].Content
		} else {
			out.Messages = append(out.Messages, Message{Role: "user", Content: contextBlock})
		}
	}

	tools, issues := formatTools(c.Tools, desc)
	out.Tools = tools

	return out, issues
}

// mapMessage converts a component message role-for-role.
func mapMessage(m prompt.Message) Message {
	if !m.IsMultipart() {
		return Message{Role: string(m.Role), Content: m.Content}
	}

	parts := make([]Part, 0, len(m.Parts))
	for _, p := range m.Parts {
		switch p.Type {
		case prompt.PartImage:
			parts = append(parts, Part{
				Type:     "image",
				ImageURL: p.ImageURL,
				Detail:   string(p.Detail),
			})
		case prompt.PartToolResult:
			parts = append(parts, Part{
				Type:       "tool_result",
				ToolCallID: p.ToolCallID,
				Content:    p.ToolOutput,
			})
		default:
			parts = append(parts, Part{Type: "text", Text: p.Text})
		}
	}
	return Message{Role: string(m.Role), Parts: parts}
}

// buildContextBlock renders retrieved context as a "Context:" block.
func buildContextBlock(items []prompt.RetrievedContext) string {
	if len(items) == 0 {
		return ""
	}

	var b strings.Builder
	b.WriteString("Context:")
	for _, item := range items {
		b.WriteString("\n")
		if item.Source != "" {
			b.WriteString("[" + item.Source + "] ")
		}
		b.WriteString(item.Content)
	}
	return b.String()
}
