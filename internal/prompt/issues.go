package prompt

// Severity classifies an issue raised during construction.
type Severity string

const (
	SeverityWarning Severity = "warning"
	SeverityError   Severity = "error"
)

// Issue codes raised by the engine and its stages.
const (
	CodeBudgetExceeded      = "TOKEN_BUDGET_EXCEEDED_POST_OPTIMIZATION"
	CodeWindowExceeded      = "CONTEXT_WINDOW_EXCEEDED"
	CodeSummarizationFailed = "SUMMARIZATION_FAILED"
	CodeTemplateNotFound    = "TEMPLATE_NOT_FOUND"
	CodeUnsupportedTools    = "UNSUPPORTED_TOOL_FORMAT"
	CodeVisionUnsupported   = "VISION_NOT_SUPPORTED"
	CodeToolsUnsupported    = "TOOLS_NOT_SUPPORTED"
	CodePersonaUnavailable  = "PERSONA_UNAVAILABLE"
)

// Issue records one problem encountered while constructing a prompt.
// Warnings describe degradations; errors abort the call (the result is
// still returned, with an empty prompt).
type Issue struct {
	Severity  Severity `json:"severity"`
	Code      string   `json:"code"`
	Component string   `json:"component"`
	Message   string   `json:"message"`
}

// HasErrors reports whether any issue is error-level.
func HasErrors(issues []Issue) bool {
	for _, issue := range issues {
		if issue.Severity == SeverityError {
			return true
		}
	}
	return false
}
