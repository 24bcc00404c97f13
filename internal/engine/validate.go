package engine

import (
	"fmt"

	"promptsmith/internal/logging"
	"promptsmith/internal/model"
	"promptsmith/internal/persona"
	"promptsmith/internal/prompt"
)

// ValidationReport is the outcome of a pre-flight compatibility check
// between a set of components and a target model.
type ValidationReport struct {
	// IsValid is false when any issue is error-level.
	IsValid bool `json:"is_valid"`

	// Issues lists the detected incompatibilities.
	Issues []prompt.Issue `json:"issues,omitempty"`

	// Recommendations are human-readable remediation hints.
	Recommendations []string `json:"recommendations,omitempty"`
}

// ValidateConfiguration checks components against a model descriptor
// without building anything: vision content on text-only models, tool
// schemas on tool-less models, content larger than the context window,
// and unknown persona references. Vision and persona problems are
// warnings; tools and window overflow are errors.
func (e *Engine) ValidateConfiguration(components *prompt.Components, desc model.Descriptor, ec persona.ExecutionContext) ValidationReport {
	timer := logging.StartTimer(logging.CategoryEngine, "ValidateConfiguration")
	defer timer.Stop()

	report := ValidationReport{IsValid: true}
	if components == nil {
		return report
	}

	if !desc.VisionSupport && hasImageContent(components) {
		report.Issues = append(report.Issues, prompt.Issue{
			Severity:  prompt.SeverityWarning,
			Code:      prompt.CodeVisionUnsupported,
			Component: "validate",
			Message:   fmt.Sprintf("model %q does not accept image content", desc.ID),
		})
		report.Recommendations = append(report.Recommendations,
			"remove image parts or target a vision-capable model")
	}

	if len(components.Tools) > 0 && !desc.SupportsTools() {
		report.Issues = append(report.Issues, prompt.Issue{
			Severity:  prompt.SeverityError,
			Code:      prompt.CodeToolsUnsupported,
			Component: "validate",
			Message:   fmt.Sprintf("model %q does not accept tool schemas (%d provided)", desc.ID, len(components.Tools)),
		})
		report.Recommendations = append(report.Recommendations,
			"drop the tool schemas or target a tool-capable model")
	}

	total := e.accountant.EstimateComponents(components, desc.ID)
	if total > desc.MaxContextTokens {
		report.Issues = append(report.Issues, prompt.Issue{
			Severity:  prompt.SeverityError,
			Code:      prompt.CodeWindowExceeded,
			Component: "validate",
			Message: fmt.Sprintf("estimated %d tokens exceeds the %d token context window of %q",
				total, desc.MaxContextTokens, desc.ID),
		})
		report.Recommendations = append(report.Recommendations,
			"shorten the conversation history or retrieved context, or enable summarization")
	}

	if ec.PersonaID != "" && e.provider != nil {
		if _, err := e.provider.Elements(ec.PersonaID); err != nil {
			report.Issues = append(report.Issues, prompt.Issue{
				Severity:  prompt.SeverityWarning,
				Code:      prompt.CodePersonaUnavailable,
				Component: "validate",
				Message:   fmt.Sprintf("persona %q unavailable: %v", ec.PersonaID, err),
			})
			report.Recommendations = append(report.Recommendations,
				"construction will proceed without contextual elements for this persona")
		}
	}

	report.IsValid = !prompt.HasErrors(report.Issues)
	return report
}

func hasImageContent(c *prompt.Components) bool {
	for _, p := range c.VisionParts {
		if p.Type == prompt.PartImage {
			return true
		}
	}
	for _, msgs := range [][]prompt.Message{c.History, c.RawMessages} {
		for _, m := range msgs {
			for _, p := range m.Parts {
				if p.Type == prompt.PartImage {
					return true
				}
			}
		}
	}
	return false
}
