package render

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"promptsmith/internal/model"
	"promptsmith/internal/prompt"
)

func completionDesc() model.Descriptor {
	return model.Descriptor{
		ID:           "text-davinci-003",
		ToolFormat:   model.ToolsNone,
		PromptFormat: model.FormatCompletion,
	}
}

func TestCompletionRenderer_FlatText(t *testing.T) {
	r := &CompletionRenderer{}

	c := &prompt.Components{
		SystemPrompts: []prompt.SystemPrompt{{Content: "You answer briefly."}},
		History: []prompt.Message{
			{Role: prompt.RoleUser, Content: "ping"},
			{Role: prompt.RoleAssistant, Content: "pong"},
		},
		UserInput: "ping again",
	}

	out, issues := r.Render(c, completionDesc())

	assert.Empty(t, issues)
	assert.Equal(t, model.FormatCompletion, out.Format)
	assert.Empty(t, out.Messages)
	assert.Empty(t, out.Turns)

	expected := "You answer briefly.\n\n" +
		"user: ping\n" +
		"assistant: pong\n" +
		"user: ping again\nassistant:"
	assert.Equal(t, expected, out.Text)
}

func TestCompletionRenderer_ExamplesAndContext(t *testing.T) {
	r := &CompletionRenderer{}

	c := &prompt.Components{
		Examples:         []prompt.Example{{Input: "in", Output: "out"}},
		RetrievedContext: []prompt.RetrievedContext{{Source: "kb", Content: "fact"}},
		UserInput:        "question",
	}

	out, _ := r.Render(c, completionDesc())

	expected := "user: in\nassistant: out\n" +
		"Context:\n[kb] fact\n\n" +
		"user: question\nassistant:"
	assert.Equal(t, expected, out.Text)
}

func TestCompletionRenderer_ImagePlaceholder(t *testing.T) {
	r := &CompletionRenderer{}

	c := &prompt.Components{
		History: []prompt.Message{
			{
				Role: prompt.RoleUser,
				Parts: []prompt.ContentPart{
					{Type: prompt.PartText, Text: "look at this"},
					{Type: prompt.PartImage, ImageURL: "https://example.com/x.png"},
				},
			},
		},
		UserInput: "describe it",
	}

	out, _ := r.Render(c, completionDesc())

	assert.Contains(t, out.Text, "user: look at this [image]")
	assert.NotContains(t, out.Text, "example.com")
}

func TestCompletionRenderer_ToolsDropped(t *testing.T) {
	r := &CompletionRenderer{}

	c := &prompt.Components{
		Tools:     []prompt.ToolSchema{{Name: "search"}},
		UserInput: "q",
	}

	out, issues := r.Render(c, completionDesc())

	assert.Nil(t, out.Tools)
	assert.Empty(t, issues)
}

func TestCompletionRenderer_Idempotent(t *testing.T) {
	r := &CompletionRenderer{}

	c := &prompt.Components{
		SystemPrompts: []prompt.SystemPrompt{{Content: "sys"}},
		History: []prompt.Message{
			{Role: prompt.RoleUser, Content: "a"},
			{Role: prompt.RoleAssistant, Content: "b"},
		},
		UserInput: "c",
	}

	first, _ := r.Render(c, completionDesc())
	second, _ := r.Render(c, completionDesc())

	require.NotNil(t, first)
	assert.Equal(t, first.Text, second.Text)
}
