package engine

import (
	"time"

	"promptsmith/internal/budget"
	"promptsmith/internal/prompt"
	"promptsmith/internal/render"
)

// Metadata describes how a result was produced.
type Metadata struct {
	// TemplateUsed is the renderer template name.
	TemplateUsed string `json:"template_used"`

	// SelectedElements lists the IDs of contextual elements merged
	// into the prompt.
	SelectedElements []string `json:"selected_elements,omitempty"`

	// Timings holds per-stage durations for this call.
	Timings map[string]time.Duration `json:"timings,omitempty"`

	// CacheHit reports whether the result came from the cache.
	CacheHit bool `json:"cache_hit"`

	// RequestID correlates log lines for this call.
	RequestID string `json:"request_id"`
}

// Result is the externally visible output of one construction call.
// It is created fresh per call and never mutated after being handed
// to the cache or the caller.
type Result struct {
	// Prompt is the rendered, model-shape-dependent output. Nil when
	// construction aborted with an error issue.
	Prompt *render.Prompt `json:"prompt,omitempty"`

	// TokenCount is the estimated size of the fitted prompt.
	TokenCount int `json:"token_count"`

	// WasTruncatedOrSummarized reports whether fitting altered any
	// component.
	WasTruncatedOrSummarized bool `json:"was_truncated_or_summarized"`

	// Decision is the budget audit trail.
	Decision *budget.Decision `json:"decision,omitempty"`

	// Issues lists warnings and errors raised during construction.
	Issues []prompt.Issue `json:"issues,omitempty"`

	// Metadata describes the construction.
	Metadata Metadata `json:"metadata"`
}

// HasErrors reports whether any issue is error-level.
func (r *Result) HasErrors() bool {
	return prompt.HasErrors(r.Issues)
}

// Clone returns a deep copy of the result. The cache relies on this
// to guarantee no aliasing between cached state and caller values.
func (r *Result) Clone() *Result {
	if r == nil {
		return nil
	}

	c := &Result{
		TokenCount:               r.TokenCount,
		WasTruncatedOrSummarized: r.WasTruncatedOrSummarized,
		Metadata:                 r.Metadata,
	}

	c.Prompt = r.Prompt.Clone()

	if r.Decision != nil {
		d := *r.Decision
		if r.Decision.Sections != nil {
			d.Sections = make([]budget.SectionDecision, len(r.Decision.Sections))
			copy(d.Sections, r.Decision.Sections)
		}
		c.Decision = &d
	}

	if r.Issues != nil {
		c.Issues = make([]prompt.Issue, len(r.Issues))
		copy(c.Issues, r.Issues)
	}

	if r.Metadata.SelectedElements != nil {
		c.Metadata.SelectedElements = make([]string, len(r.Metadata.SelectedElements))
		copy(c.Metadata.SelectedElements, r.Metadata.SelectedElements)
	}

	if r.Metadata.Timings != nil {
		c.Metadata.Timings = make(map[string]time.Duration, len(r.Metadata.Timings))
		for k, v := range r.Metadata.Timings {
			c.Metadata.Timings[k] = v
		}
	}

	return c
}
