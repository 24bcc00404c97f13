package persona

import (
	"context"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func openTestStore(t *testing.T) *SQLStore {
	t.Helper()
	store, err := OpenSQLStore(filepath.Join(t.TempDir(), "elements.db"))
	require.NoError(t, err)
	t.Cleanup(func() { _ = store.Close() })
	return store
}

func TestSQLStore_SaveAndLoad(t *testing.T) {
	store := openTestStore(t)
	ctx := context.Background()

	el := Element{
		ID:       "patient-tone",
		Type:     ElementBehavioralGuidance,
		Content:  "Explain every step.",
		Priority: 3,
		Criteria: Criteria{
			Mood:                "focused",
			SkillLevel:          "beginner",
			ConversationSignals: []string{"confusion", "repetition"},
			MemoryKey:           "subject",
			MemoryValue:         "calculus",
		},
	}
	require.NoError(t, store.SaveElement(ctx, "tutor", el))

	elements, err := store.Elements("tutor")
	require.NoError(t, err)
	require.Len(t, elements, 1)

	got := elements[0]
	assert.Equal(t, el.ID, got.ID)
	assert.Equal(t, el.Type, got.Type)
	assert.Equal(t, el.Content, got.Content)
	assert.Equal(t, el.Priority, got.Priority)
	assert.Equal(t, el.Criteria.Mood, got.Criteria.Mood)
	assert.ElementsMatch(t, el.Criteria.ConversationSignals, got.Criteria.ConversationSignals)
	assert.Equal(t, "calculus", got.Criteria.MemoryValue)
}

func TestSQLStore_UpsertReplacesSignals(t *testing.T) {
	store := openTestStore(t)
	ctx := context.Background()

	el := Element{
		ID:       "a",
		Type:     ElementSystemAddon,
		Content:  "v1",
		Criteria: Criteria{ConversationSignals: []string{"old"}},
	}
	require.NoError(t, store.SaveElement(ctx, "p", el))

	el.Content = "v2"
	el.Criteria.ConversationSignals = []string{"new"}
	require.NoError(t, store.SaveElement(ctx, "p", el))

	elements, err := store.Elements("p")
	require.NoError(t, err)
	require.Len(t, elements, 1)
	assert.Equal(t, "v2", elements[0].Content)
	assert.Equal(t, []string{"new"}, elements[0].Criteria.ConversationSignals)
}

func TestSQLStore_UnknownPersona(t *testing.T) {
	store := openTestStore(t)

	_, err := store.Elements("nobody")
	assert.Error(t, err)
}

func TestSQLStore_RequiresIDs(t *testing.T) {
	store := openTestStore(t)
	ctx := context.Background()

	assert.Error(t, store.SaveElement(ctx, "", Element{ID: "x"}))
	assert.Error(t, store.SaveElement(ctx, "p", Element{}))
}

func TestSQLStore_PersonasAreIsolated(t *testing.T) {
	store := openTestStore(t)
	ctx := context.Background()

	require.NoError(t, store.SaveElement(ctx, "tutor", Element{ID: "a", Type: ElementSystemAddon, Content: "x"}))
	require.NoError(t, store.SaveElement(ctx, "reviewer", Element{ID: "b", Type: ElementSystemAddon, Content: "y"}))

	elements, err := store.Elements("tutor")
	require.NoError(t, err)
	require.Len(t, elements, 1)
	assert.Equal(t, "a", elements[0].ID)
}
