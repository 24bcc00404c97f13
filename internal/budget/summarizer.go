// Package budget fits prompt components into a model's usable context
// window by splitting the window into per-section shares and reducing
// oversized sections through summarization or truncation.
package budget

import (
	"context"

	"promptsmith/internal/model"
)

// Item is one unit of summarizable content.
type Item struct {
	// Source attributes the content (message role, retrieval source).
	Source string

	// Content is the text to reduce.
	Content string
}

// Summarizer reduces a list of items toward a token budget. It may
// fail or be absent; the allocator falls back to truncation in both
// cases. Implementations should honour ctx cancellation.
type Summarizer interface {
	// Summarize returns reduced items and their final token count.
	// preserveAttribution asks the summarizer to keep Source tags in
	// the reduced output.
	Summarize(ctx context.Context, items []Item, targetTokens int,
		desc model.Descriptor, preserveAttribution bool) ([]Item, int, error)
}
