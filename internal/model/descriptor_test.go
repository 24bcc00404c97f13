package model

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDescriptor_SupportsTools(t *testing.T) {
	tests := []struct {
		name     string
		format   ToolFormat
		expected bool
	}{
		{"openai", ToolsOpenAI, true},
		{"anthropic", ToolsAnthropic, true},
		{"none", ToolsNone, false},
		{"empty", "", false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			d := Descriptor{ToolFormat: tt.format}
			assert.Equal(t, tt.expected, d.SupportsTools())
		})
	}
}

func TestDescriptor_Family(t *testing.T) {
	tests := []struct {
		id       string
		expected string
	}{
		{"gpt-4o", "gpt"},
		{"claude-3-5-sonnet", "claude"},
		{"GPT-4O-MINI", "gpt"},
		{"nodash", "nodash"},
	}

	for _, tt := range tests {
		t.Run(tt.id, func(t *testing.T) {
			assert.Equal(t, tt.expected, Descriptor{ID: tt.id}.Family())
		})
	}
}

func TestRegistry_Builtins(t *testing.T) {
	r := NewRegistry()

	gpt, ok := r.Get("gpt-4o")
	require.True(t, ok)
	assert.Equal(t, FormatChat, gpt.PromptFormat)
	assert.Equal(t, ToolsOpenAI, gpt.ToolFormat)
	assert.True(t, gpt.VisionSupport)

	claude, ok := r.Get("claude-3-5-sonnet")
	require.True(t, ok)
	assert.Equal(t, FormatSystemSplit, claude.PromptFormat)
	assert.Equal(t, ToolsAnthropic, claude.ToolFormat)

	davinci, ok := r.Get("text-davinci-003")
	require.True(t, ok)
	assert.Equal(t, FormatCompletion, davinci.PromptFormat)
	assert.False(t, davinci.SupportsTools())

	_, ok = r.Get("imaginary-model")
	assert.False(t, ok)
}

func TestRegistry_Register(t *testing.T) {
	r := NewRegistry()

	custom := Descriptor{ID: "in-house-7b", MaxContextTokens: 32768, PromptFormat: FormatChat}
	r.Register(custom)

	got, ok := r.Get("in-house-7b")
	require.True(t, ok)
	assert.Equal(t, 32768, got.MaxContextTokens)

	// Re-registering replaces.
	custom.MaxContextTokens = 65536
	r.Register(custom)
	got, _ = r.Get("in-house-7b")
	assert.Equal(t, 65536, got.MaxContextTokens)
}

func TestRegistry_AllIsSorted(t *testing.T) {
	r := NewRegistry()
	all := r.All()

	require.NotEmpty(t, all)
	for i := 1; i < len(all); i++ {
		assert.Less(t, all[i-1].ID, all[i].ID)
	}
}
