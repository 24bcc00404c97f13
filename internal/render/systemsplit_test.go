package render

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"promptsmith/internal/model"
	"promptsmith/internal/prompt"
)

func splitDesc() model.Descriptor {
	return model.Descriptor{
		ID:           "claude-3-5-sonnet",
		ToolFormat:   model.ToolsAnthropic,
		PromptFormat: model.FormatSystemSplit,
	}
}

func TestSystemSplitRenderer_SeparatesSystem(t *testing.T) {
	r := &SystemSplitRenderer{}

	c := &prompt.Components{
		SystemPrompts: []prompt.SystemPrompt{
			{Content: "You are terse.", Priority: 0},
			{Content: "Answer in German.", Priority: 1},
		},
		History: []prompt.Message{
			{Role: prompt.RoleUser, Content: "Hallo"},
			{Role: prompt.RoleAssistant, Content: "Guten Tag"},
		},
		UserInput: "Wie geht's?",
	}

	out, issues := r.Render(c, splitDesc())

	assert.Empty(t, issues)
	assert.Equal(t, model.FormatSystemSplit, out.Format)
	assert.Equal(t, "You are terse.\n\nAnswer in German.", out.System)
	assert.Empty(t, out.Messages)

	require.Len(t, out.Turns, 3)
	assert.Equal(t, "user", out.Turns[0].Role)
	assert.Equal(t, "assistant", out.Turns[1].Role)
	assert.Equal(t, "Wie geht's?", out.Turns[2].Content)
}

func TestSystemSplitRenderer_RoleMapping(t *testing.T) {
	r := &SystemSplitRenderer{}

	c := &prompt.Components{
		History: []prompt.Message{
			{Role: prompt.RoleSystem, Content: "mid-conversation note"},
			{Role: prompt.RoleTool, Content: "tool output text"},
		},
	}

	out, _ := r.Render(c, splitDesc())

	require.Len(t, out.Turns, 2)

	// System-role history maps to a user turn; only user/assistant are
	// allowed in the turn array.
	assert.Equal(t, "user", out.Turns[0].Role)
	assert.Equal(t, "mid-conversation note", out.Turns[0].Content)

	// Tool output becomes a typed tool_result block on a user turn.
	assert.Equal(t, "user", out.Turns[1].Role)
	require.Len(t, out.Turns[1].Parts, 1)
	assert.Equal(t, "tool_result", out.Turns[1].Parts[0].Type)
	assert.Equal(t, "tool output text", out.Turns[1].Parts[0].Content)
}

func TestSystemSplitRenderer_ToolResultParts(t *testing.T) {
	r := &SystemSplitRenderer{}

	c := &prompt.Components{
		History: []prompt.Message{
			{
				Role: prompt.RoleAssistant,
				Parts: []prompt.ContentPart{
					{Type: prompt.PartToolResult, ToolCallID: "call-9", ToolOutput: "done"},
				},
			},
		},
	}

	out, _ := r.Render(c, splitDesc())

	require.Len(t, out.Turns, 1)
	assert.Equal(t, "user", out.Turns[0].Role)
	assert.Equal(t, "call-9", out.Turns[0].Parts[0].ToolCallID)
}

func TestSystemSplitRenderer_EmptySystem(t *testing.T) {
	r := &SystemSplitRenderer{}

	out, _ := r.Render(&prompt.Components{UserInput: "hi"}, splitDesc())

	assert.Empty(t, out.System)
	require.Len(t, out.Turns, 1)
}
