// Package engine orchestrates prompt construction: cache lookup,
// criteria-gated persona augmentation, budget fitting, template
// rendering, and result caching. The engine holds no request-scoped
// mutable state; only the cache and statistics are shared, and both
// are safe under concurrent calls.
package engine

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"

	"promptsmith/internal/budget"
	"promptsmith/internal/cache"
	"promptsmith/internal/logging"
	"promptsmith/internal/model"
	"promptsmith/internal/persona"
	"promptsmith/internal/prompt"
	"promptsmith/internal/render"
	"promptsmith/internal/tokens"
)

// DefaultCacheTTL is the memoization lifetime for identical requests.
const DefaultCacheTTL = 5 * time.Minute

// Engine is the prompt-construction façade.
type Engine struct {
	registry   *render.Registry
	accountant *tokens.Accountant
	allocator  *budget.Allocator
	provider   persona.Provider
	cache      *cache.Cache[*Result]
	stats      *statistics

	defaultTemplate string
	maxElements     int
	cacheEnabled    bool
}

// Option configures an Engine.
type Option func(*config)

type config struct {
	estimator       tokens.Estimator
	summarizer      budget.Summarizer
	provider        persona.Provider
	shares          *budget.Shares
	triggerRatio    float64
	reservedOutput  int
	defaultTemplate string
	maxElements     int
	cacheEnabled    bool
	cacheTTL        time.Duration
}

// WithEstimator substitutes the token estimator.
func WithEstimator(e tokens.Estimator) Option {
	return func(c *config) { c.estimator = e }
}

// WithSummarizer attaches the optional summarization collaborator.
func WithSummarizer(s budget.Summarizer) Option {
	return func(c *config) { c.summarizer = s }
}

// WithPersonaProvider attaches the persona/context source.
func WithPersonaProvider(p persona.Provider) Option {
	return func(c *config) { c.provider = p }
}

// WithShares overrides the budget section shares.
func WithShares(s budget.Shares) Option {
	return func(c *config) { c.shares = &s }
}

// WithSummarizeTriggerRatio overrides the summarize trigger ratio.
func WithSummarizeTriggerRatio(r float64) Option {
	return func(c *config) { c.triggerRatio = r }
}

// WithReservedOutputTokens sets the reply allowance used for models
// whose descriptor does not carry one.
func WithReservedOutputTokens(n int) Option {
	return func(c *config) { c.reservedOutput = n }
}

// WithDefaultTemplate sets the template used when a call names none.
func WithDefaultTemplate(name string) Option {
	return func(c *config) { c.defaultTemplate = name }
}

// WithMaxSelectedElements caps contextual elements per prompt.
func WithMaxSelectedElements(n int) Option {
	return func(c *config) { c.maxElements = n }
}

// WithCache enables or disables result memoization.
func WithCache(enabled bool) Option {
	return func(c *config) { c.cacheEnabled = enabled }
}

// WithCacheTTL sets the memoization lifetime.
func WithCacheTTL(ttl time.Duration) Option {
	return func(c *config) {
		if ttl > 0 {
			c.cacheTTL = ttl
		}
	}
}

// New creates an engine. A default template that does not resolve to
// a registered renderer is a configuration error.
func New(opts ...Option) (*Engine, error) {
	cfg := &config{
		defaultTemplate: string(model.FormatChat),
		maxElements:     persona.DefaultMaxSelectedElements,
		cacheEnabled:    true,
		cacheTTL:        DefaultCacheTTL,
	}
	for _, opt := range opts {
		opt(cfg)
	}

	if cfg.estimator == nil {
		cfg.estimator = tokens.NewHeuristicEstimator()
	}

	registry := render.NewRegistry()
	if cfg.defaultTemplate == "" {
		return nil, fmt.Errorf("engine: default template is required")
	}
	if _, ok := registry.Get(cfg.defaultTemplate); !ok {
		return nil, fmt.Errorf("engine: default template %q is not registered", cfg.defaultTemplate)
	}

	accountant := tokens.NewAccountant(cfg.estimator)

	var allocOpts []budget.Option
	if cfg.summarizer != nil {
		allocOpts = append(allocOpts, budget.WithSummarizer(cfg.summarizer))
	}
	if cfg.shares != nil {
		allocOpts = append(allocOpts, budget.WithShares(*cfg.shares))
	}
	if cfg.triggerRatio > 0 {
		allocOpts = append(allocOpts, budget.WithTriggerRatio(cfg.triggerRatio))
	}
	if cfg.reservedOutput > 0 {
		allocOpts = append(allocOpts, budget.WithReservedOutputTokens(cfg.reservedOutput))
	}

	e := &Engine{
		registry:        registry,
		accountant:      accountant,
		allocator:       budget.NewAllocator(accountant, allocOpts...),
		provider:        cfg.provider,
		stats:           newStatistics(),
		defaultTemplate: cfg.defaultTemplate,
		maxElements:     cfg.maxElements,
		cacheEnabled:    cfg.cacheEnabled,
	}

	e.cache = cache.New(cfg.cacheTTL, (*Result).Clone)

	logging.Get(logging.CategoryEngine).Info(
		"Engine initialized: default template %q, cache enabled %v",
		cfg.defaultTemplate, cfg.cacheEnabled,
	)
	return e, nil
}

// Close releases the engine's background resources (cache sweeper).
func (e *Engine) Close() {
	e.cache.Close()
}

// ConstructPrompt builds a model-ready prompt from raw components.
// The returned error is reserved for nil-argument misuse; every
// construction problem surfaces as an issue on the Result instead.
func (e *Engine) ConstructPrompt(ctx context.Context, components *prompt.Components, desc model.Descriptor, ec persona.ExecutionContext, templateName string) (*Result, error) {
	if components == nil {
		return nil, fmt.Errorf("engine: components are required")
	}

	started := time.Now()
	requestID := uuid.NewString()
	rlog := logging.WithRequest(logging.CategoryEngine, requestID)
	e.stats.recordConstruction()

	name := templateName
	if name == "" {
		name = string(desc.PromptFormat)
	}
	if name == "" {
		name = e.defaultTemplate
	}

	timings := make(map[string]time.Duration)
	result := &Result{
		Metadata: Metadata{
			TemplateUsed: name,
			RequestID:    requestID,
			Timings:      timings,
		},
	}

	keyInput := e.buildKeyInput(components, desc, ec, name)
	key := cache.BuildKey(keyInput)

	if e.cacheEnabled {
		if cached, ok := e.cache.Get(key); ok {
			cached.Metadata.CacheHit = true
			cached.Metadata.RequestID = requestID
			rlog.Debug("Cache hit for key %s", key[:12])
			e.stats.recordTiming("constructPrompt", time.Since(started))
			return cached, nil
		}
	}

	// Persona selection and augmentation.
	stageStart := time.Now()
	augmented := components
	var selected []persona.Element
	if e.provider != nil && ec.PersonaID != "" {
		elements, err := e.provider.Elements(ec.PersonaID)
		if err != nil {
			result.Issues = append(result.Issues, prompt.Issue{
				Severity:  prompt.SeverityWarning,
				Code:      prompt.CodePersonaUnavailable,
				Component: "persona",
				Message:   fmt.Sprintf("persona %q unavailable: %v", ec.PersonaID, err),
			})
		} else {
			selected = persona.Select(elements, ec, e.maxElements)
			augmented = persona.Augment(components, selected)
		}
	} else {
		// Still defensively copy: later stages mutate components.
		augmented = components.Clone()
	}
	for _, el := range selected {
		result.Metadata.SelectedElements = append(result.Metadata.SelectedElements, el.ID)
	}
	timings["augment"] = time.Since(stageStart)

	// Budget fitting.
	stageStart = time.Now()
	fitted, decision, fitIssues := e.allocator.Fit(ctx, augmented, desc)
	result.Decision = decision
	result.WasTruncatedOrSummarized = decision.Modified()
	result.Issues = append(result.Issues, fitIssues...)
	timings["fit"] = time.Since(stageStart)

	// Rendering.
	stageStart = time.Now()
	renderer, ok := e.registry.Get(name)
	if !ok {
		result.Issues = append(result.Issues, prompt.Issue{
			Severity:  prompt.SeverityError,
			Code:      prompt.CodeTemplateNotFound,
			Component: "render",
			Message:   fmt.Sprintf("template %q is not registered", name),
		})
		e.recordIssues(result.Issues)
		e.stats.recordTiming("constructPrompt", time.Since(started))
		rlog.Warn("Template %q not found", name)
		return result, nil
	}

	rendered, renderIssues := renderer.Render(fitted, desc)
	result.Prompt = rendered
	result.Issues = append(result.Issues, renderIssues...)
	timings["render"] = time.Since(stageStart)

	result.TokenCount = e.accountant.EstimateComponents(fitted, desc.ID)

	e.recordIssues(result.Issues)

	// Cache only clean, complete constructions: no error issues and
	// no abandoned request (a cancelled fit may hold partial state).
	if e.cacheEnabled && !result.HasErrors() && ctx.Err() == nil {
		e.cache.Put(key, keyInput.Label(), result, result.TokenCount)
	}

	total := time.Since(started)
	timings["total"] = total
	e.stats.recordTiming("constructPrompt", total)

	rlog.Info("Constructed prompt: template=%s tokens=%d modified=%v issues=%d",
		name, result.TokenCount, result.WasTruncatedOrSummarized, len(result.Issues))

	return result, nil
}

func (e *Engine) recordIssues(issues []prompt.Issue) {
	for _, issue := range issues {
		e.stats.recordIssue(issue.Code)
	}
}

// buildKeyInput assembles the cache key fields from the call inputs.
func (e *Engine) buildKeyInput(c *prompt.Components, desc model.Descriptor, ec persona.ExecutionContext, templateName string) cache.KeyInput {
	lastTurn := ""
	if n := len(c.History); n > 0 {
		last := c.History[n-1]
		if last.IsMultipart() {
			for _, p := range last.Parts {
				if p.Type == prompt.PartText {
					lastTurn = p.Text
					break
				}
			}
		} else {
			lastTurn = last.Content
		}
	}

	toolIDs := make([]string, 0, len(c.Tools))
	for _, t := range c.Tools {
		toolIDs = append(toolIDs, t.Name)
	}

	return cache.KeyInput{
		SystemPreview:   c.CombinedSystemText("\n"),
		UserPreview:     c.UserInput,
		LastTurnPreview: lastTurn,
		ToolIDs:         toolIDs,
		ModelID:         desc.ID,
		TemplateName:    templateName,
		PersonaID:       ec.PersonaID,
		Mood:            ec.Mood,
		TaskHint:        ec.TaskHint,
	}
}

// EvaluateCriteria exposes the criteria evaluator.
func (e *Engine) EvaluateCriteria(criteria persona.Criteria, ec persona.ExecutionContext) bool {
	return persona.Evaluate(criteria, ec)
}

// EstimateTokenCount exposes the token estimator.
func (e *Engine) EstimateTokenCount(content string, modelID string) int {
	return e.accountant.EstimateText(content, modelID)
}

// RegisterTemplate adds a renderer under a name. Registering an
// existing name fails unless override is set.
func (e *Engine) RegisterTemplate(name string, renderer render.Renderer, override bool) error {
	return e.registry.Register(name, renderer, override)
}

// Templates lists the registered template names.
func (e *Engine) Templates() []string {
	return e.registry.Names()
}

// ClearCache removes cached results whose label contains pattern; an
// empty pattern clears the whole cache. Returns the number removed.
func (e *Engine) ClearCache(pattern string) int {
	removed := e.cache.Clear(pattern)
	logging.Get(logging.CategoryCache).Info("Cleared %d cache entries (pattern %q)", removed, pattern)
	return removed
}

// Statistics returns a snapshot of the aggregate counters.
func (e *Engine) Statistics() Statistics {
	return e.stats.snapshot(e.cache.Stats())
}
