package render

import (
	"fmt"

	"promptsmith/internal/model"
	"promptsmith/internal/prompt"
)

// formatTools reformats tool schemas into the provider's expected
// shape. An unrecognized tool format emits the raw schemas with a
// warning instead of failing.
func formatTools(tools []prompt.ToolSchema, desc model.Descriptor) ([]map[string]interface{}, []prompt.Issue) {
	if len(tools) == 0 || !desc.SupportsTools() {
		return nil, nil
	}

	out := make([]map[string]interface{}, 0, len(tools))

	switch desc.ToolFormat {
	case model.ToolsOpenAI:
		for _, t := range tools {
			out = append(out, map[string]interface{}{
				"type": "function",
				"function": map[string]interface{}{
					"name":        t.Name,
					"description": t.Description,
					"parameters":  t.Parameters,
				},
			})
		}
		return out, nil

	case model.ToolsAnthropic:
		for _, t := range tools {
			out = append(out, map[string]interface{}{
				"name":         t.Name,
				"description":  t.Description,
				"input_schema": t.Parameters,
			})
		}
		return out, nil

	default:
		for _, t := range tools {
			out = append(out, map[string]interface{}{
				"name":        t.Name,
				"description": t.Description,
				"parameters":  t.Parameters,
			})
		}
		issue := prompt.Issue{
			Severity:  prompt.SeverityWarning,
			Code:      prompt.CodeUnsupportedTools,
			Component: "tools",
			Message:   fmt.Sprintf("unsupported tool format %q, emitting raw schemas", desc.ToolFormat),
		}
		return out, []prompt.Issue{issue}
	}
}
