package render

import (
	"promptsmith/internal/logging"
	"promptsmith/internal/model"
	"promptsmith/internal/prompt"
)

// SystemSplitRenderer produces output for providers that keep the
// system prompt separate from the turn array. Tool-result turns are
// represented as user turns wrapping a typed tool_result block keyed
// by the original tool-call ID.
type SystemSplitRenderer struct{}

// Render implements Renderer.
func (r *SystemSplitRenderer) Render(c *prompt.Components, desc model.Descriptor) (*Prompt, []prompt.Issue) {
	timer := logging.StartTimer(logging.CategoryRender, "SystemSplitRenderer.Render")
	defer timer.Stop()

	out := &Prompt{
		Format: model.FormatSystemSplit,
		System: c.CombinedSystemText("\n\n"),
	}

	for _, ex := range c.Examples {
		out.Turns = append(out.Turns,
			Message{Role: "user", Content: ex.Input},
			Message{Role: "assistant", Content: ex.Output},
		)
	}

	for _, m := range c.History {
		out.Turns = append(out.Turns, mapSplitTurn(m))
	}

	for _, m := range c.RawMessages {
		out.Turns = append(out.Turns, mapSplitTurn(m))
	}

	contextBlock := buildContextBlock(c.RetrievedContext)

	if c.UserInput != "" || len(c.VisionParts) > 0 {
		content := c.UserInput
		if contextBlock != "" {
			content = contextBlock + "\n\n" + c.UserInput
		}
		if len(c.VisionParts) == 0 {
			out.Turns = append(out.Turns, Message{Role: "user", Content: content})
		} else {
			parts := []Part{{Type: "text", Text: content}}
			for _, vp := range c.VisionParts {
				parts = append(parts, Part{
					Type:     "image",
					ImageURL: vp.ImageURL,
					Detail:   string(vp.Detail),
				})
			}
			out.Turns = append(out.Turns, Message{Role: "user", Parts: parts})
		}
	} else if contextBlock != "" {
		last := len(out.Turns) - 1
		if last >= 0 && out.Turns[last].Role == "user" && out.Turns[last].Content != "" {
			out.Turns[last].Content = contextBlock + "\n\n" + out.Turns[last].Content
		} else {
			out.Turns = append(out.Turns, Message{Role: "user", Content: contextBlock})
		}
	}

	tools, issues := formatTools(c.Tools, desc)
	out.Tools = tools

	return out, issues
}

// mapSplitTurn maps one history message into the split-turn shape.
// Tool messages and tool-result parts become user turns carrying a
// typed tool_result block; system-role summaries map to user turns
// since the provider accepts only user/assistant roles in the array.
func mapSplitTurn(m prompt.Message) Message {
	role := string(m.Role)
	switch m.Role {
	case prompt.RoleSystem:
		role = "user"
	case prompt.RoleTool:
		role = "user"
	}

	if !m.IsMultipart() {
		if m.Role == prompt.RoleTool {
			return Message{
				Role:  "user",
				Parts: []Part{{Type: "tool_result", Content: m.Content}},
			}
		}
		return Message{Role: role, Content: m.Content}
	}

	parts := make([]Part, 0, len(m.Parts))
	hasToolResult := false
	for _, p := range m.Parts {
		switch p.Type {
		case prompt.PartToolResult:
			hasToolResult = true
			parts = append(parts, Part{
				Type:       "tool_result",
				ToolCallID: p.ToolCallID,
				Content:    p.ToolOutput,
			})
		case prompt.PartImage:
			parts = append(parts, Part{
				Type:     "image",
				ImageURL: p.ImageURL,
				Detail:   string(p.Detail),
			})
		default:
			parts = append(parts, Part{Type: "text", Text: p.Text})
		}
	}

	if hasToolResult {
		role = "user"
	}
	return Message{Role: role, Parts: parts}
}
