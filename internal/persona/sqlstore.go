package persona

import (
	"context"
	"database/sql"
	"fmt"
	"strings"

	_ "github.com/mattn/go-sqlite3"

	"promptsmith/internal/logging"
)

// SQLStore persists persona elements in SQLite. Criteria list fields
// (conversation signals) live in a side table keyed by element ID.
type SQLStore struct {
	db *sql.DB
}

// OpenSQLStore opens (or creates) an element store at path.
func OpenSQLStore(path string) (*SQLStore, error) {
	db, err := sql.Open("sqlite3", path)
	if err != nil {
		return nil, fmt.Errorf("failed to open element store: %w", err)
	}

	store := &SQLStore{db: db}
	if err := store.ensureSchema(context.Background()); err != nil {
		_ = db.Close()
		return nil, err
	}
	return store, nil
}

func (s *SQLStore) ensureSchema(ctx context.Context) error {
	schema := `
		CREATE TABLE IF NOT EXISTS persona_elements (
			persona_id     TEXT NOT NULL,
			element_id     TEXT NOT NULL,
			type           TEXT NOT NULL,
			content        TEXT NOT NULL,
			example_input  TEXT NOT NULL DEFAULT '',
			example_output TEXT NOT NULL DEFAULT '',
			priority       INTEGER NOT NULL DEFAULT 0,
			mood           TEXT NOT NULL DEFAULT '',
			skill_level    TEXT NOT NULL DEFAULT '',
			task_hint      TEXT NOT NULL DEFAULT '',
			complexity     TEXT NOT NULL DEFAULT '',
			language       TEXT NOT NULL DEFAULT '',
			memory_key     TEXT NOT NULL DEFAULT '',
			memory_value   TEXT NOT NULL DEFAULT '',
			PRIMARY KEY (persona_id, element_id)
		);
		CREATE TABLE IF NOT EXISTS element_signals (
			persona_id TEXT NOT NULL,
			element_id TEXT NOT NULL,
			signal     TEXT NOT NULL
		);
		CREATE INDEX IF NOT EXISTS idx_element_signals
			ON element_signals(persona_id, element_id);
	`
	if _, err := s.db.ExecContext(ctx, schema); err != nil {
		return fmt.Errorf("failed to create element schema: %w", err)
	}
	return nil
}

// SaveElement upserts one element under a persona.
func (s *SQLStore) SaveElement(ctx context.Context, personaID string, el Element) error {
	if personaID == "" || el.ID == "" {
		return fmt.Errorf("persona ID and element ID are required")
	}

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer func() { _ = tx.Rollback() }()

	_, err = tx.ExecContext(ctx, `
		INSERT OR REPLACE INTO persona_elements
			(persona_id, element_id, type, content, example_input, example_output,
			 priority, mood, skill_level, task_hint, complexity, language,
			 memory_key, memory_value)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		personaID, el.ID, string(el.Type), el.Content, el.ExampleInput, el.ExampleOutput,
		el.Priority, el.Criteria.Mood, el.Criteria.SkillLevel, el.Criteria.TaskHintContains,
		el.Criteria.TaskComplexity, el.Criteria.Language,
		el.Criteria.MemoryKey, el.Criteria.MemoryValue,
	)
	if err != nil {
		return fmt.Errorf("failed to store element %s: %w", el.ID, err)
	}

	if _, err := tx.ExecContext(ctx,
		`DELETE FROM element_signals WHERE persona_id = ? AND element_id = ?`,
		personaID, el.ID); err != nil {
		return fmt.Errorf("failed to clear signals for %s: %w", el.ID, err)
	}

	for _, signal := range el.Criteria.ConversationSignals {
		if strings.TrimSpace(signal) == "" {
			continue
		}
		if _, err := tx.ExecContext(ctx,
			`INSERT INTO element_signals (persona_id, element_id, signal) VALUES (?, ?, ?)`,
			personaID, el.ID, signal); err != nil {
			return fmt.Errorf("failed to store signal for %s: %w", el.ID, err)
		}
	}

	return tx.Commit()
}

// Elements loads the element catalogue for a persona ID.
func (s *SQLStore) Elements(personaID string) ([]Element, error) {
	ctx := context.Background()
	timer := logging.StartTimer(logging.CategoryPersona, "SQLStore.Elements")
	defer timer.Stop()

	rows, err := s.db.QueryContext(ctx, `
		SELECT element_id, type, content, example_input, example_output,
		       priority, mood, skill_level, task_hint, complexity, language,
		       memory_key, memory_value
		FROM persona_elements
		WHERE persona_id = ?
		ORDER BY element_id`,
		personaID,
	)
	if err != nil {
		return nil, fmt.Errorf("failed to query elements: %w", err)
	}
	defer rows.Close()

	var elements []Element
	index := make(map[string]int)

	for rows.Next() {
		var el Element
		var typ string
		err := rows.Scan(
			&el.ID, &typ, &el.Content, &el.ExampleInput, &el.ExampleOutput,
			&el.Priority, &el.Criteria.Mood, &el.Criteria.SkillLevel,
			&el.Criteria.TaskHintContains, &el.Criteria.TaskComplexity,
			&el.Criteria.Language, &el.Criteria.MemoryKey, &el.Criteria.MemoryValue,
		)
		if err != nil {
			logging.Get(logging.CategoryPersona).Warn("Failed to scan element: %v", err)
			continue
		}
		el.Type = ElementType(typ)
		index[el.ID] = len(elements)
		elements = append(elements, el)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating elements: %w", err)
	}

	if len(elements) == 0 {
		return nil, fmt.Errorf("unknown persona %q", personaID)
	}

	sigRows, err := s.db.QueryContext(ctx,
		`SELECT element_id, signal FROM element_signals WHERE persona_id = ?`,
		personaID,
	)
	if err != nil {
		logging.Get(logging.CategoryPersona).Warn("Failed to query signals: %v", err)
		return elements, nil
	}
	defer sigRows.Close()

	for sigRows.Next() {
		var elementID, signal string
		if err := sigRows.Scan(&elementID, &signal); err != nil {
			continue
		}
		if i, ok := index[elementID]; ok {
			elements[i].Criteria.ConversationSignals =
				append(elements[i].Criteria.ConversationSignals, signal)
		}
	}

	return elements, nil
}

// Close releases the underlying database handle.
func (s *SQLStore) Close() error {
	return s.db.Close()
}
