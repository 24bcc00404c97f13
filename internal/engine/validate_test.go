package engine

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"promptsmith/internal/model"
	"promptsmith/internal/persona"
	"promptsmith/internal/prompt"
)

func TestValidateConfiguration(t *testing.T) {
	eng := newTestEngine(t)

	textOnly := model.Descriptor{
		ID:                   "test-text-only",
		MaxContextTokens:     10000,
		ReservedOutputTokens: 200,
		ToolFormat:           model.ToolsNone,
		PromptFormat:         model.FormatCompletion,
	}

	t.Run("clean components pass", func(t *testing.T) {
		report := eng.ValidateConfiguration(baseComponents(), chatModel(10000), persona.ExecutionContext{})
		assert.True(t, report.IsValid)
		assert.Empty(t, report.Issues)
	})

	t.Run("vision content on text-only model warns", func(t *testing.T) {
		c := baseComponents()
		c.VisionParts = []prompt.ContentPart{{Type: prompt.PartImage, ImageURL: "https://example.com/x.png"}}

		report := eng.ValidateConfiguration(c, textOnly, persona.ExecutionContext{})

		assert.True(t, report.IsValid)
		require.Len(t, report.Issues, 1)
		assert.Equal(t, prompt.CodeVisionUnsupported, report.Issues[0].Code)
		assert.Equal(t, prompt.SeverityWarning, report.Issues[0].Severity)
		assert.NotEmpty(t, report.Recommendations)
	})

	t.Run("image parts in history are detected", func(t *testing.T) {
		c := baseComponents()
		c.History = append(c.History, prompt.Message{
			Role:  prompt.RoleUser,
			Parts: []prompt.ContentPart{{Type: prompt.PartImage}},
		})

		report := eng.ValidateConfiguration(c, textOnly, persona.ExecutionContext{})
		require.Len(t, report.Issues, 1)
		assert.Equal(t, prompt.CodeVisionUnsupported, report.Issues[0].Code)
	})

	t.Run("tools on tool-less model is an error", func(t *testing.T) {
		c := baseComponents()
		c.Tools = []prompt.ToolSchema{{Name: "search"}}

		report := eng.ValidateConfiguration(c, textOnly, persona.ExecutionContext{})

		assert.False(t, report.IsValid)
		require.Len(t, report.Issues, 1)
		assert.Equal(t, prompt.CodeToolsUnsupported, report.Issues[0].Code)
		assert.Equal(t, prompt.SeverityError, report.Issues[0].Severity)
	})

	t.Run("content larger than the window is an error", func(t *testing.T) {
		c := &prompt.Components{UserInput: strings.Repeat("x", 10000)}

		report := eng.ValidateConfiguration(c, chatModel(1000), persona.ExecutionContext{})

		assert.False(t, report.IsValid)
		require.Len(t, report.Issues, 1)
		assert.Equal(t, prompt.CodeWindowExceeded, report.Issues[0].Code)
	})

	t.Run("unknown persona warns", func(t *testing.T) {
		report := eng.ValidateConfiguration(baseComponents(), chatModel(10000),
			persona.ExecutionContext{PersonaID: "ghost"})

		assert.True(t, report.IsValid)
		require.Len(t, report.Issues, 1)
		assert.Equal(t, prompt.CodePersonaUnavailable, report.Issues[0].Code)
	})

	t.Run("nil components are valid", func(t *testing.T) {
		report := eng.ValidateConfiguration(nil, chatModel(10000), persona.ExecutionContext{})
		assert.True(t, report.IsValid)
	})
}
