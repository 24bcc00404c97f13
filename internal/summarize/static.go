package summarize

import (
	"context"
	"fmt"
	"strings"

	"promptsmith/internal/budget"
	"promptsmith/internal/model"
)

// Static is a deterministic summarizer for tests and offline runs. It
// joins the first sentence of each item, optionally prefixed with its
// source, and never calls out to a model.
type Static struct {
	// Err, when set, is returned from every Summarize call.
	Err error

	// Calls counts Summarize invocations.
	Calls int
}

// Summarize implements budget.Summarizer.
func (s *Static) Summarize(_ context.Context, items []budget.Item, targetTokens int, _ model.Descriptor, preserveAttribution bool) ([]budget.Item, int, error) {
	s.Calls++
	if s.Err != nil {
		return nil, 0, s.Err
	}
	if len(items) == 0 {
		return nil, 0, nil
	}

	var parts []string
	for _, item := range items {
		sentence := firstSentence(item.Content)
		if preserveAttribution && item.Source != "" {
			sentence = fmt.Sprintf("[%s] %s", item.Source, sentence)
		}
		parts = append(parts, sentence)
	}

	text := strings.Join(parts, " ")
	// Hard cap so the result respects the target even for long inputs.
	if limit := targetTokens * 4; limit > 0 && len(text) > limit {
		text = text[:limit]
	}

	return []budget.Item{{Source: "summary", Content: text}}, estimateTokens(text), nil
}

func firstSentence(s string) string {
	if i := strings.IndexAny(s, ".!?"); i >= 0 && i+1 < len(s) {
		return s[:i+1]
	}
	return s
}
