package persona

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const tutorPersona = `persona_id: tutor
elements:
  - id: greeting
    type: system_addon
    content: Greet the student warmly.
    priority: 1
  - id: patience
    type: behavioral_guidance
    content: Never skip intermediate steps.
    priority: 2
    criteria:
      skill_level: beginner
  - id: worked-example
    type: few_shot_example
    example_input: What is 7*8?
    example_output: 7*8 = 56
`

func writePersonaFile(t *testing.T, dir, name, content string) {
	t.Helper()
	require.NoError(t, os.WriteFile(filepath.Join(dir, name), []byte(content), 0644))
}

func TestFileProvider(t *testing.T) {
	t.Run("loads elements from yaml files", func(t *testing.T) {
		dir := t.TempDir()
		writePersonaFile(t, dir, "tutor.yaml", tutorPersona)

		provider, err := NewFileProvider(dir)
		require.NoError(t, err)
		defer provider.Close()

		elements, err := provider.Elements("tutor")
		require.NoError(t, err)
		require.Len(t, elements, 3)

		assert.Equal(t, "greeting", elements[0].ID)
		assert.Equal(t, ElementSystemAddon, elements[0].Type)
		assert.Equal(t, "beginner", elements[1].Criteria.SkillLevel)
		assert.Equal(t, "What is 7*8?", elements[2].ExampleInput)
	})

	t.Run("unknown persona returns error", func(t *testing.T) {
		dir := t.TempDir()
		writePersonaFile(t, dir, "tutor.yaml", tutorPersona)

		provider, err := NewFileProvider(dir)
		require.NoError(t, err)
		defer provider.Close()

		_, err = provider.Elements("ghost")
		assert.Error(t, err)
	})

	t.Run("skips files without persona_id", func(t *testing.T) {
		dir := t.TempDir()
		writePersonaFile(t, dir, "tutor.yaml", tutorPersona)
		writePersonaFile(t, dir, "broken.yaml", "elements:\n  - id: x\n")

		provider, err := NewFileProvider(dir)
		require.NoError(t, err)
		defer provider.Close()

		assert.Equal(t, []string{"tutor"}, provider.PersonaIDs())
	})

	t.Run("defaults element type to system addon", func(t *testing.T) {
		dir := t.TempDir()
		writePersonaFile(t, dir, "p.yaml", "persona_id: p\nelements:\n  - id: bare\n    content: hello\n")

		provider, err := NewFileProvider(dir)
		require.NoError(t, err)
		defer provider.Close()

		elements, err := provider.Elements("p")
		require.NoError(t, err)
		require.Len(t, elements, 1)
		assert.Equal(t, ElementSystemAddon, elements[0].Type)
	})

	t.Run("returned slice is a copy", func(t *testing.T) {
		dir := t.TempDir()
		writePersonaFile(t, dir, "tutor.yaml", tutorPersona)

		provider, err := NewFileProvider(dir)
		require.NoError(t, err)
		defer provider.Close()

		first, err := provider.Elements("tutor")
		require.NoError(t, err)
		first[0].Content = "mutated"

		second, err := provider.Elements("tutor")
		require.NoError(t, err)
		assert.Equal(t, "Greet the student warmly.", second[0].Content)
	})
}

func TestStaticProvider(t *testing.T) {
	provider := NewStaticProvider(map[string][]Element{
		"helper": {{ID: "a", Type: ElementSystemAddon, Content: "hi"}},
	})

	elements, err := provider.Elements("helper")
	require.NoError(t, err)
	assert.Len(t, elements, 1)

	_, err = provider.Elements("missing")
	assert.Error(t, err)
}
