// Package tokens estimates token counts for prompt content.
// The default estimator is a characters-per-token heuristic calibrated
// per model family; a tiktoken-backed estimator satisfies the same
// interface when lexer-accurate counts are worth the cost.
package tokens

import (
	"strings"
	"unicode/utf8"

	"promptsmith/internal/prompt"
)

// Estimator counts tokens for text addressed to a specific model.
// Implementations must be deterministic and side-effect free.
type Estimator interface {
	// Estimate returns the token count for text under modelID.
	Estimate(text string, modelID string) int
}

// Fixed image part costs. These mirror common provider pricing tiers;
// pixel data is never measured.
const (
	ImageTokensLow  = 85
	ImageTokensHigh = 765
)

// MessageOverhead is the per-message role/formatting tax.
const MessageOverhead = 4

// defaultCharsPerToken is the baseline divisor for unknown families.
const defaultCharsPerToken = 4.0

// HeuristicEstimator estimates tokens as rune count divided by a
// per-model-family divisor. It is an estimate, not a lexer-accurate
// count; the divisors are swappable calibration defaults.
type HeuristicEstimator struct {
	// familyDivisors maps a lowercase model-ID prefix to its divisor.
	familyDivisors map[string]float64
}

// NewHeuristicEstimator creates an estimator with default calibration.
func NewHeuristicEstimator() *HeuristicEstimator {
	return &HeuristicEstimator{
		familyDivisors: map[string]float64{
			"gpt":    3.6,
			"gemini": 4.4,
		},
	}
}

// SetFamilyDivisor overrides the divisor for a model-ID prefix.
func (e *HeuristicEstimator) SetFamilyDivisor(prefix string, divisor float64) {
	if divisor <= 0 {
		return
	}
	e.familyDivisors[strings.ToLower(prefix)] = divisor
}

// divisorFor returns the calibration divisor for a model ID. The
// longest matching prefix wins.
func (e *HeuristicEstimator) divisorFor(modelID string) float64 {
	id := strings.ToLower(modelID)
	best := defaultCharsPerToken
	bestLen := 0
	for prefix, divisor := range e.familyDivisors {
		if strings.HasPrefix(id, prefix) && len(prefix) > bestLen {
			best = divisor
			bestLen = len(prefix)
		}
	}
	return best
}

// Estimate returns the estimated token count for text.
func (e *HeuristicEstimator) Estimate(text string, modelID string) int {
	if text == "" {
		return 0
	}
	runes := utf8.RuneCountInString(text)
	divisor := e.divisorFor(modelID)
	count := int(float64(runes) / divisor)
	if count == 0 {
		count = 1
	}
	return count
}

// Accountant layers structured-content counting on top of an Estimator.
type Accountant struct {
	estimator Estimator
}

// NewAccountant wraps an estimator for structured counting.
func NewAccountant(estimator Estimator) *Accountant {
	return &Accountant{estimator: estimator}
}

// Estimator returns the underlying text estimator.
func (a *Accountant) Estimator() Estimator {
	return a.estimator
}

// EstimateText counts tokens for a plain string.
func (a *Accountant) EstimateText(text string, modelID string) int {
	return a.estimator.Estimate(text, modelID)
}

// EstimatePart counts tokens for one content part.
func (a *Accountant) EstimatePart(part prompt.ContentPart, modelID string) int {
	switch part.Type {
	case prompt.PartImage:
		if part.Detail == prompt.DetailHigh {
			return ImageTokensHigh
		}
		return ImageTokensLow
	case prompt.PartToolResult:
		return a.estimator.Estimate(part.ToolOutput, modelID)
	default:
		return a.estimator.Estimate(part.Text, modelID)
	}
}

// EstimateMessage counts tokens for one message including the
// per-message overhead.
func (a *Accountant) EstimateMessage(msg prompt.Message, modelID string) int {
	total := MessageOverhead
	if msg.IsMultipart() {
		for _, part := range msg.Parts {
			total += a.EstimatePart(part, modelID)
		}
		return total
	}
	return total + a.estimator.Estimate(msg.Content, modelID)
}

// EstimateMessages counts tokens for a message list.
func (a *Accountant) EstimateMessages(msgs []prompt.Message, modelID string) int {
	total := 0
	for _, m := range msgs {
		total += a.EstimateMessage(m, modelID)
	}
	return total
}

// EstimateSystemPrompts counts tokens across system fragments.
func (a *Accountant) EstimateSystemPrompts(prompts []prompt.SystemPrompt, modelID string) int {
	total := 0
	for _, sp := range prompts {
		total += a.estimator.Estimate(sp.Content, modelID)
	}
	return total
}

// EstimateRetrieved counts tokens across retrieved-context items.
func (a *Accountant) EstimateRetrieved(items []prompt.RetrievedContext, modelID string) int {
	total := 0
	for _, item := range items {
		total += a.estimator.Estimate(item.Content, modelID)
	}
	return total
}

// EstimateTools counts tokens across tool schemas. Parameters are
// approximated from their key/value text.
func (a *Accountant) EstimateTools(tools []prompt.ToolSchema, modelID string) int {
	total := 0
	for _, t := range tools {
		total += a.estimator.Estimate(t.Name, modelID)
		total += a.estimator.Estimate(t.Description, modelID)
		total += estimateValue(a.estimator, t.Parameters, modelID)
	}
	return total
}

// EstimateExamples counts tokens across few-shot example pairs.
func (a *Accountant) EstimateExamples(examples []prompt.Example, modelID string) int {
	total := 0
	for _, ex := range examples {
		total += a.estimator.Estimate(ex.Input, modelID)
		total += a.estimator.Estimate(ex.Output, modelID)
	}
	return total
}

// EstimateComponents counts tokens for an entire component set.
func (a *Accountant) EstimateComponents(c *prompt.Components, modelID string) int {
	if c == nil {
		return 0
	}
	total := a.EstimateSystemPrompts(c.SystemPrompts, modelID)
	total += a.EstimateMessages(c.History, modelID)
	total += a.EstimateRetrieved(c.RetrievedContext, modelID)
	total += a.EstimateTools(c.Tools, modelID)
	total += a.estimator.Estimate(c.UserInput, modelID)
	for _, part := range c.VisionParts {
		total += a.EstimatePart(part, modelID)
	}
	total += a.EstimateExamples(c.Examples, modelID)
	total += a.EstimateMessages(c.RawMessages, modelID)
	return total
}

// estimateValue walks a parameter tree summing per-leaf estimates.
func estimateValue(est Estimator, v interface{}, modelID string) int {
	switch val := v.(type) {
	case nil:
		return 0
	case string:
		return est.Estimate(val, modelID)
	case map[string]interface{}:
		total := 0
		for k, nested := range val {
			total += est.Estimate(k, modelID)
			total += estimateValue(est, nested, modelID)
		}
		return total
	case []interface{}:
		total := 0
		for _, item := range val {
			total += estimateValue(est, item, modelID)
		}
		return total
	default:
		// Numbers, booleans: typically one or two tokens.
		return 2
	}
}
