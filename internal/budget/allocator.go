package budget

import (
	"context"
	"fmt"
	"unicode/utf8"

	"promptsmith/internal/logging"
	"promptsmith/internal/model"
	"promptsmith/internal/prompt"
	"promptsmith/internal/tokens"
)

// Section names used in decisions and issues.
const (
	SectionSystem    = "systemPrompts"
	SectionUserInput = "userInput"
	SectionHistory   = "conversationHistory"
	SectionContext   = "retrievedContext"
	SectionTools     = "tools"
	SectionExamples  = "examples"
	SectionRaw       = "rawMessages"
)

// Action records what happened to a section during fitting.
type Action string

const (
	ActionUntouched  Action = "untouched"
	ActionTruncated  Action = "truncated"
	ActionSummarized Action = "summarized"
)

// SectionDecision is the audit record for one section.
type SectionDecision struct {
	Section      string `json:"section"`
	Action       Action `json:"action"`
	TokensBefore int    `json:"tokens_before"`
	TokensAfter  int    `json:"tokens_after"`
}

// Decision is the audit trail of one fitting pass.
type Decision struct {
	Budget      int               `json:"budget"`
	TotalBefore int               `json:"total_before"`
	TotalAfter  int               `json:"total_after"`
	Sections    []SectionDecision `json:"sections"`
}

// Modified reports whether any section was truncated or summarized.
func (d *Decision) Modified() bool {
	for _, s := range d.Sections {
		if s.Action != ActionUntouched {
			return true
		}
	}
	return false
}

// SectionAction returns the recorded action for a section name.
func (d *Decision) SectionAction(section string) (Action, bool) {
	for _, s := range d.Sections {
		if s.Section == section {
			return s.Action, true
		}
	}
	return "", false
}

// Shares are the soft proportional ceilings per section. They trigger
// reduction work only when the assembled total exceeds the budget.
type Shares struct {
	System    float64
	UserInput float64
	History   float64
	Context   float64
	Tools     float64
}

// DefaultShares returns the standard budget split.
func DefaultShares() Shares {
	return Shares{
		System:    0.20,
		UserInput: 0.15,
		History:   0.35,
		Context:   0.20,
		Tools:     0.10,
	}
}

// DefaultReservedOutputTokens is the conservative reply allowance used
// when the model descriptor does not specify one.
const DefaultReservedOutputTokens = 1024

// DefaultSummarizeTriggerRatio is the section-size-to-share ratio
// above which summarization is preferred over truncation.
const DefaultSummarizeTriggerRatio = 1.5

// Allocator fits components into a model's usable context window.
type Allocator struct {
	accountant *tokens.Accountant
	summarizer Summarizer

	shares         Shares
	triggerRatio   float64
	reservedOutput int
}

// Option configures an Allocator.
type Option func(*Allocator)

// WithSummarizer attaches an optional summarizer collaborator.
func WithSummarizer(s Summarizer) Option {
	return func(a *Allocator) { a.summarizer = s }
}

// WithShares overrides the per-section budget shares.
func WithShares(s Shares) Option {
	return func(a *Allocator) { a.shares = s }
}

// WithTriggerRatio overrides the summarize trigger ratio.
func WithTriggerRatio(r float64) Option {
	return func(a *Allocator) {
		if r > 0 {
			a.triggerRatio = r
		}
	}
}

// WithReservedOutputTokens overrides the reply allowance used when the
// model descriptor does not carry its own.
func WithReservedOutputTokens(n int) Option {
	return func(a *Allocator) {
		if n > 0 {
			a.reservedOutput = n
		}
	}
}

// NewAllocator creates an allocator backed by the given accountant.
func NewAllocator(accountant *tokens.Accountant, opts ...Option) *Allocator {
	a := &Allocator{
		accountant:   accountant,
		shares:       DefaultShares(),
		triggerRatio: DefaultSummarizeTriggerRatio,
	}
	for _, opt := range opts {
		opt(a)
	}
	return a
}

// Fit reduces components until they fit the model's usable window.
// The input is never mutated; the returned components are a clone.
// Construction always succeeds: an over-budget result after best
// effort produces a warning issue, not a failure.
func (a *Allocator) Fit(ctx context.Context, c *prompt.Components, desc model.Descriptor) (*prompt.Components, *Decision, []prompt.Issue) {
	timer := logging.StartTimer(logging.CategoryBudget, "Allocator.Fit")
	defer timer.Stop()

	var issues []prompt.Issue
	fitted := c.Clone()
	if fitted == nil {
		fitted = &prompt.Components{}
	}

	reserved := desc.ReservedOutputTokens
	if reserved <= 0 {
		reserved = a.reservedOutput
	}
	if reserved <= 0 {
		reserved = DefaultReservedOutputTokens
	}
	budget := desc.MaxContextTokens - reserved
	if budget < 0 {
		budget = 0
	}

	modelID := desc.ID
	systemTokens := a.accountant.EstimateSystemPrompts(fitted.SystemPrompts, modelID)
	userTokens := a.userInputTokens(fitted, modelID)
	historyTokens := a.accountant.EstimateMessages(fitted.History, modelID)
	contextTokens := a.accountant.EstimateRetrieved(fitted.RetrievedContext, modelID)
	toolTokens := a.accountant.EstimateTools(fitted.Tools, modelID)
	exampleTokens := a.accountant.EstimateExamples(fitted.Examples, modelID)
	rawTokens := a.accountant.EstimateMessages(fitted.RawMessages, modelID)

	decision := &Decision{
		Budget: budget,
		TotalBefore: systemTokens + userTokens + historyTokens + contextTokens +
			toolTokens + exampleTokens + rawTokens,
	}

	historyAction := ActionUntouched
	contextAction := ActionUntouched
	historyBefore := historyTokens
	contextBefore := contextTokens

	total := decision.TotalBefore
	if total > budget {
		// History is reduced first: it is the most compressible and
		// least information-dense section per token. Retrieved context
		// is next. System prompts and user input are never reduced.
		historyTokens, historyAction = a.fitHistory(ctx, fitted, budget, total, historyTokens, modelID, desc, &issues)
		total += historyTokens - historyBefore

		if total > budget {
			contextTokens, contextAction = a.fitContext(ctx, fitted, budget, total, contextTokens, modelID, desc, &issues)
			total += contextTokens - contextBefore
		}
	}

	decision.TotalAfter = total
	decision.Sections = []SectionDecision{
		{Section: SectionSystem, Action: ActionUntouched, TokensBefore: systemTokens, TokensAfter: systemTokens},
		{Section: SectionUserInput, Action: ActionUntouched, TokensBefore: userTokens, TokensAfter: userTokens},
		{Section: SectionHistory, Action: historyAction, TokensBefore: historyBefore, TokensAfter: historyTokens},
		{Section: SectionContext, Action: contextAction, TokensBefore: contextBefore, TokensAfter: contextTokens},
		{Section: SectionTools, Action: ActionUntouched, TokensBefore: toolTokens, TokensAfter: toolTokens},
		{Section: SectionExamples, Action: ActionUntouched, TokensBefore: exampleTokens, TokensAfter: exampleTokens},
		{Section: SectionRaw, Action: ActionUntouched, TokensBefore: rawTokens, TokensAfter: rawTokens},
	}

	if total > budget {
		issues = append(issues, prompt.Issue{
			Severity:  prompt.SeverityWarning,
			Code:      prompt.CodeBudgetExceeded,
			Component: "budget",
			Message: fmt.Sprintf("prompt still exceeds budget after optimization: %d > %d tokens",
				total, budget),
		})
		logging.Get(logging.CategoryBudget).Warn(
			"Budget exceeded post-optimization: %d > %d", total, budget,
		)
	}

	return fitted, decision, issues
}

func (a *Allocator) userInputTokens(c *prompt.Components, modelID string) int {
	total := a.accountant.EstimateText(c.UserInput, modelID)
	for _, part := range c.VisionParts {
		total += a.accountant.EstimatePart(part, modelID)
	}
	return total
}

// sectionTarget computes how many tokens a section may keep: its soft
// share of the budget, widened to any headroom the other sections
// leave unused.
func sectionTarget(budget, total, sectionTokens int, share float64) int {
	target := int(float64(budget) * share)
	headroom := budget - (total - sectionTokens)
	if headroom > target {
		target = headroom
	}
	if target < 0 {
		target = 0
	}
	return target
}

// fitHistory reduces conversation history to its target size.
func (a *Allocator) fitHistory(ctx context.Context, c *prompt.Components, budget, total, sectionTokens int, modelID string, desc model.Descriptor, issues *[]prompt.Issue) (int, Action) {
	target := sectionTarget(budget, total, sectionTokens, a.shares.History)
	if sectionTokens <= target {
		return sectionTokens, ActionUntouched
	}

	share := int(float64(budget) * a.shares.History)
	if a.summarizer != nil && share > 0 &&
		float64(sectionTokens) > a.triggerRatio*float64(share) {
		if newTokens, ok := a.summarizeHistory(ctx, c, target, modelID, desc, issues); ok {
			return newTokens, ActionSummarized
		}
	}

	// Truncation: drop oldest turns until the remainder fits.
	dropped := 0
	history := c.History
	current := sectionTokens
	for len(history) > 0 && current > target {
		current -= a.accountant.EstimateMessage(history[0], modelID)
		history = history[1:]
		dropped++
	}
	c.History = history

	logging.Get(logging.CategoryBudget).Debug(
		"History truncated: dropped %d oldest messages (%d -> %d tokens, target %d)",
		dropped, sectionTokens, current, target,
	)
	return a.accountant.EstimateMessages(history, modelID), ActionTruncated
}

// summarizeHistory asks the summarizer to compress all but the most
// recent turns into a single summary message. Returns false when the
// summarizer fails; the caller falls back to truncation.
func (a *Allocator) summarizeHistory(ctx context.Context, c *prompt.Components, target int, modelID string, desc model.Descriptor, issues *[]prompt.Issue) (int, bool) {
	const keepRecent = 4

	if len(c.History) <= keepRecent {
		return 0, false
	}

	older := c.History[:len(c.History)-keepRecent]
	recent := c.History[len(c.History)-keepRecent:]

	items := make([]Item, 0, len(older))
	for _, m := range older {
		items = append(items, Item{Source: string(m.Role), Content: messageText(m)})
	}

	recentTokens := a.accountant.EstimateMessages(recent, modelID)
	summaryTarget := target - recentTokens
	if summaryTarget <= 0 {
		return 0, false
	}

	reduced, _, err := a.summarizer.Summarize(ctx, items, summaryTarget, desc, true)
	if err != nil {
		*issues = append(*issues, prompt.Issue{
			Severity:  prompt.SeverityWarning,
			Code:      prompt.CodeSummarizationFailed,
			Component: SectionHistory,
			Message:   fmt.Sprintf("history summarization failed, falling back to truncation: %v", err),
		})
		logging.Get(logging.CategoryBudget).Warn("History summarization failed: %v", err)
		return 0, false
	}

	summaryText := joinItems(reduced)
	summary := prompt.Message{
		Role:    prompt.RoleAssistant,
		Content: "[Conversation summary] " + summaryText,
	}

	newHistory := make([]prompt.Message, 0, 1+len(recent))
	newHistory = append(newHistory, summary)
	newHistory = append(newHistory, recent...)
	c.History = newHistory

	return a.accountant.EstimateMessages(newHistory, modelID), true
}

// fitContext reduces retrieved context to its target size.
func (a *Allocator) fitContext(ctx context.Context, c *prompt.Components, budget, total, sectionTokens int, modelID string, desc model.Descriptor, issues *[]prompt.Issue) (int, Action) {
	target := sectionTarget(budget, total, sectionTokens, a.shares.Context)
	if sectionTokens <= target {
		return sectionTokens, ActionUntouched
	}

	share := int(float64(budget) * a.shares.Context)
	if a.summarizer != nil && share > 0 &&
		float64(sectionTokens) > a.triggerRatio*float64(share) {
		items := make([]Item, 0, len(c.RetrievedContext))
		for _, rc := range c.RetrievedContext {
			items = append(items, Item{Source: rc.Source, Content: rc.Content})
		}

		reduced, finalTokens, err := a.summarizer.Summarize(ctx, items, target, desc, true)
		if err == nil {
			out := make([]prompt.RetrievedContext, 0, len(reduced))
			for _, item := range reduced {
				out = append(out, prompt.RetrievedContext{
					Content: item.Content,
					Source:  item.Source,
				})
			}
			c.RetrievedContext = out
			if finalTokens <= 0 {
				finalTokens = a.accountant.EstimateRetrieved(out, modelID)
			}
			return finalTokens, ActionSummarized
		}

		*issues = append(*issues, prompt.Issue{
			Severity:  prompt.SeverityWarning,
			Code:      prompt.CodeSummarizationFailed,
			Component: SectionContext,
			Message:   fmt.Sprintf("context summarization failed, falling back to truncation: %v", err),
		})
		logging.Get(logging.CategoryBudget).Warn("Context summarization failed: %v", err)
	}

	// Proportional character-level truncation across all items.
	ratio := float64(target) / float64(sectionTokens)
	var kept []prompt.RetrievedContext
	for _, rc := range c.RetrievedContext {
		keep := int(float64(len(rc.Content)) * ratio)
		if keep <= 0 {
			continue
		}
		if keep < len(rc.Content) {
			// Back up to a rune boundary so the cut never leaves a
			// partial UTF-8 sequence in the prompt.
			for keep > 0 && !utf8.RuneStart(rc.Content[keep]) {
				keep--
			}
			if keep == 0 {
				continue
			}
			rc.Content = rc.Content[:keep]
		}
		kept = append(kept, rc)
	}
	c.RetrievedContext = kept

	return a.accountant.EstimateRetrieved(kept, modelID), ActionTruncated
}

func messageText(m prompt.Message) string {
	if !m.IsMultipart() {
		return m.Content
	}
	text := ""
	for _, part := range m.Parts {
		switch part.Type {
		case prompt.PartText:
			if text != "" {
				text += "\n"
			}
			text += part.Text
		case prompt.PartToolResult:
			if text != "" {
				text += "\n"
			}
			text += part.ToolOutput
		}
	}
	return text
}

func joinItems(items []Item) string {
	out := ""
	for i, item := range items {
		if i > 0 {
			out += "\n"
		}
		if item.Source != "" {
			out += item.Source + ": "
		}
		out += item.Content
	}
	return out
}
