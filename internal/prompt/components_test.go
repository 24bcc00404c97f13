package prompt

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestComponents_Clone(t *testing.T) {
	original := &Components{
		SystemPrompts: []SystemPrompt{{Content: "sys", Priority: 1, Source: "core"}},
		History: []Message{
			{Role: RoleUser, Content: "hi"},
			{Role: RoleAssistant, Parts: []ContentPart{{Type: PartText, Text: "multi"}}},
		},
		RetrievedContext: []RetrievedContext{{Content: "ctx", Source: "kb"}},
		Tools: []ToolSchema{
			{Name: "search", Parameters: map[string]interface{}{"type": "object"}},
		},
		Examples:   []Example{{Input: "in", Output: "out"}},
		UserInput:  "question",
		TaskData:   map[string]string{"k": "v"},
		Extensions: map[string][]string{"hint": {"a"}},
	}

	clone := original.Clone()
	require.NotNil(t, clone)
	assert.Equal(t, original, clone)

	// Mutations on the clone never reach the original.
	clone.SystemPrompts[0].Content = "mutated"
	clone.History[0].Content = "mutated"
	clone.History[1].Parts[0].Text = "mutated"
	clone.RetrievedContext[0].Content = "mutated"
	clone.Tools[0].Parameters["type"] = "mutated"
	clone.TaskData["k"] = "mutated"
	clone.Extensions["hint"][0] = "mutated"

	assert.Equal(t, "sys", original.SystemPrompts[0].Content)
	assert.Equal(t, "hi", original.History[0].Content)
	assert.Equal(t, "multi", original.History[1].Parts[0].Text)
	assert.Equal(t, "ctx", original.RetrievedContext[0].Content)
	assert.Equal(t, "object", original.Tools[0].Parameters["type"])
	assert.Equal(t, "v", original.TaskData["k"])
	assert.Equal(t, "a", original.Extensions["hint"][0])
}

func TestComponents_CloneNil(t *testing.T) {
	var c *Components
	assert.Nil(t, c.Clone())
}

func TestComponents_CombinedSystemText(t *testing.T) {
	t.Run("joins in slice order", func(t *testing.T) {
		c := &Components{
			SystemPrompts: []SystemPrompt{
				{Content: "first"},
				{Content: "second"},
			},
		}
		assert.Equal(t, "first\n\nsecond", c.CombinedSystemText("\n\n"))
	})

	t.Run("skips empty fragments", func(t *testing.T) {
		c := &Components{
			SystemPrompts: []SystemPrompt{
				{Content: "first"},
				{Content: ""},
				{Content: "third"},
			},
		}
		assert.Equal(t, "first|third", c.CombinedSystemText("|"))
	})

	t.Run("empty list yields empty string", func(t *testing.T) {
		assert.Equal(t, "", (&Components{}).CombinedSystemText("\n"))
	})
}

func TestMessage_IsMultipart(t *testing.T) {
	assert.False(t, Message{Content: "plain"}.IsMultipart())
	assert.True(t, Message{Parts: []ContentPart{{Type: PartText}}}.IsMultipart())
}

func TestHasErrors(t *testing.T) {
	assert.False(t, HasErrors(nil))
	assert.False(t, HasErrors([]Issue{{Severity: SeverityWarning}}))
	assert.True(t, HasErrors([]Issue{
		{Severity: SeverityWarning},
		{Severity: SeverityError},
	}))
}
