// Package summarize provides budget.Summarizer implementations. The
// Gemini-backed summarizer is the production path; Static is a
// deterministic stand-in for tests and offline use.
package summarize

import (
	"context"
	"fmt"
	"strings"

	"google.golang.org/genai"

	"promptsmith/internal/budget"
	"promptsmith/internal/logging"
	"promptsmith/internal/model"
)

// DefaultGeminiModel is the model used when none is configured.
const DefaultGeminiModel = "gemini-2.0-flash"

// GeminiSummarizer condenses oversized prompt sections with a Gemini
// call. It implements budget.Summarizer.
type GeminiSummarizer struct {
	client *genai.Client
	model  string
}

// NewGeminiSummarizer creates a Gemini-backed summarizer.
func NewGeminiSummarizer(ctx context.Context, apiKey, model string) (*GeminiSummarizer, error) {
	if apiKey == "" {
		return nil, fmt.Errorf("gemini API key is required")
	}
	if model == "" {
		model = DefaultGeminiModel
	}

	client, err := genai.NewClient(ctx, &genai.ClientConfig{
		APIKey: apiKey,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to create genai client: %w", err)
	}

	return &GeminiSummarizer{client: client, model: model}, nil
}

// Summarize implements budget.Summarizer. It returns a single item
// holding the condensed text and an estimate of its token size (the
// model is asked to stay under targetTokens; the estimate is the
// char-count heuristic on what came back).
func (g *GeminiSummarizer) Summarize(ctx context.Context, items []budget.Item, targetTokens int, desc model.Descriptor, preserveAttribution bool) ([]budget.Item, int, error) {
	timer := logging.StartTimer(logging.CategoryBudget, "GeminiSummarizer.Summarize")
	defer timer.Stop()

	if len(items) == 0 {
		return nil, 0, nil
	}

	prompt := buildInstruction(items, targetTokens, desc.ID, preserveAttribution)

	resp, err := g.client.Models.GenerateContent(ctx, g.model, genai.Text(prompt), nil)
	if err != nil {
		return nil, 0, fmt.Errorf("gemini summarization failed: %w", err)
	}

	text := strings.TrimSpace(resp.Text())
	if text == "" {
		return nil, 0, fmt.Errorf("gemini returned an empty summary")
	}

	out := []budget.Item{{Source: "summary", Content: text}}
	return out, estimateTokens(text), nil
}

// Close releases the underlying client. The genai client holds no
// resources that need explicit release, so this is a no-op kept for
// the io.Closer shape.
func (g *GeminiSummarizer) Close() error {
	return nil
}

func buildInstruction(items []budget.Item, targetTokens int, targetModel string, preserveAttribution bool) string {
	var b strings.Builder

	fmt.Fprintf(&b, "Condense the following content into at most %d tokens for a prompt targeting %s. ", targetTokens, targetModel)
	b.WriteString("Keep every concrete fact, decision, and open question. ")
	if preserveAttribution {
		b.WriteString("Keep the [source] attribution of each passage in the summary. ")
	}
	b.WriteString("Reply with the summary only.\n\n")

	for _, item := range items {
		if item.Source != "" {
			fmt.Fprintf(&b, "[%s] %s\n", item.Source, item.Content)
		} else {
			b.WriteString(item.Content)
			b.WriteString("\n")
		}
	}
	return b.String()
}

// estimateTokens approximates the token size of generated text. The
// caller re-estimates with the real accountant downstream; this only
// reports what the summarizer believes it produced.
func estimateTokens(text string) int {
	n := len(text) / 4
	if n < 1 && text != "" {
		n = 1
	}
	return n
}
