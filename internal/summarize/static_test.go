package summarize

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"promptsmith/internal/budget"
	"promptsmith/internal/model"
)

func TestStatic_Summarize(t *testing.T) {
	desc := model.Descriptor{ID: "test-model"}

	t.Run("condenses to first sentences", func(t *testing.T) {
		s := &Static{}
		items := []budget.Item{
			{Source: "user", Content: "I need the parser fixed. It crashes on empty input."},
			{Source: "assistant", Content: "The nil check is missing. I will add one."},
		}

		out, tokens, err := s.Summarize(context.Background(), items, 100, desc, true)
		require.NoError(t, err)
		require.Len(t, out, 1)

		assert.Equal(t, "summary", out[0].Source)
		assert.Equal(t, "[user] I need the parser fixed. [assistant] The nil check is missing.", out[0].Content)
		assert.Greater(t, tokens, 0)
		assert.Equal(t, 1, s.Calls)
	})

	t.Run("drops attribution when not requested", func(t *testing.T) {
		s := &Static{}
		items := []budget.Item{{Source: "user", Content: "Short note."}}

		out, _, err := s.Summarize(context.Background(), items, 100, desc, false)
		require.NoError(t, err)
		assert.Equal(t, "Short note.", out[0].Content)
	})

	t.Run("respects the target cap", func(t *testing.T) {
		s := &Static{}
		items := []budget.Item{{Content: "no sentence boundary here just a very long run of words that keeps going"}}

		out, tokens, err := s.Summarize(context.Background(), items, 5, desc, false)
		require.NoError(t, err)
		assert.LessOrEqual(t, len(out[0].Content), 20)
		assert.LessOrEqual(t, tokens, 5)
	})

	t.Run("propagates a configured error", func(t *testing.T) {
		s := &Static{Err: errors.New("boom")}
		_, _, err := s.Summarize(context.Background(), []budget.Item{{Content: "x"}}, 10, desc, false)
		assert.Error(t, err)
	})

	t.Run("empty input yields empty output", func(t *testing.T) {
		s := &Static{}
		out, tokens, err := s.Summarize(context.Background(), nil, 10, desc, false)
		require.NoError(t, err)
		assert.Nil(t, out)
		assert.Zero(t, tokens)
	})
}

func TestBuildInstruction(t *testing.T) {
	items := []budget.Item{
		{Source: "kb", Content: "fact one"},
		{Content: "fact two"},
	}

	text := buildInstruction(items, 128, "gpt-4o", true)

	assert.Contains(t, text, "at most 128 tokens")
	assert.Contains(t, text, "gpt-4o")
	assert.Contains(t, text, "[kb] fact one")
	assert.Contains(t, text, "fact two")
	assert.Contains(t, text, "attribution")
}
