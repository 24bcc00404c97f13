package main

import (
	"context"
	"fmt"
	"os"
	"time"

	"github.com/spf13/cobra"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"

	"promptsmith/internal/budget"
	"promptsmith/internal/config"
	"promptsmith/internal/engine"
	"promptsmith/internal/logging"
	"promptsmith/internal/model"
	"promptsmith/internal/persona"
	"promptsmith/internal/summarize"
	"promptsmith/internal/tokens"
)

var (
	// Global flags
	configPath string
	verbose    bool

	// Logger
	logger *zap.Logger

	// Loaded configuration
	cfg *config.Config

	// Model registry, builtins plus config entries
	models *model.Registry
)

// rootCmd represents the base command
var rootCmd = &cobra.Command{
	Use:   "promptsmith",
	Short: "promptsmith - adaptive prompt construction engine",
	Long: `promptsmith assembles model-ready prompts from structured components.

It selects contextual elements by execution-context criteria, fits the
result into the target model's token budget by truncating or
summarizing, and renders provider-specific prompt shapes (chat,
system-split, flat completion).`,
	SilenceUsage: true,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		zcfg := zap.NewProductionConfig()
		if verbose {
			zcfg.Level = zap.NewAtomicLevelAt(zapcore.DebugLevel)
		}
		var err error
		logger, err = zcfg.Build()
		if err != nil {
			return fmt.Errorf("failed to initialize logger: %w", err)
		}

		cfg, err = config.Load(configPath)
		if err != nil {
			return fmt.Errorf("failed to load config: %w", err)
		}

		if cfg.Logging.Enabled {
			if err := logging.Initialize(cfg.Logging.Directory, cfg.Logging.Level); err != nil {
				logger.Warn("file logging unavailable", zap.Error(err))
			}
		}

		models = model.NewRegistry()
		for _, m := range cfg.Models {
			models.Register(model.Descriptor{
				ID:                   m.ID,
				MaxContextTokens:     m.MaxContextTokens,
				ReservedOutputTokens: m.ReservedOutputTokens,
				ToolFormat:           model.ToolFormat(m.ToolFormat),
				VisionSupport:        m.VisionSupport,
				PromptFormat:         model.PromptFormat(m.PromptFormat),
				TokenizerID:          m.TokenizerID,
			})
		}
		return nil
	},
	PersistentPostRun: func(cmd *cobra.Command, args []string) {
		if logger != nil {
			_ = logger.Sync()
		}
	},
}

// newEngine builds an engine from the loaded configuration. The
// caller owns the returned closer.
func newEngine() (*engine.Engine, func(), error) {
	var opts []engine.Option

	if cfg.Engine.DefaultTemplate != "" {
		opts = append(opts, engine.WithDefaultTemplate(cfg.Engine.DefaultTemplate))
	}
	if cfg.Engine.MaxSelectedElements > 0 {
		opts = append(opts, engine.WithMaxSelectedElements(cfg.Engine.MaxSelectedElements))
	}
	opts = append(opts,
		engine.WithCache(cfg.Engine.CacheEnabled),
		engine.WithCacheTTL(cfg.CacheTTL(engine.DefaultCacheTTL)),
		engine.WithShares(budget.Shares{
			System:    cfg.Budget.SystemShare,
			UserInput: cfg.Budget.UserShare,
			History:   cfg.Budget.HistoryShare,
			Context:   cfg.Budget.ContextShare,
			Tools:     cfg.Budget.ToolsShare,
		}),
	)
	if cfg.Budget.SummarizeTrigger > 0 {
		opts = append(opts, engine.WithSummarizeTriggerRatio(cfg.Budget.SummarizeTrigger))
	}
	if cfg.Budget.ReservedOutputTokens > 0 {
		opts = append(opts, engine.WithReservedOutputTokens(cfg.Budget.ReservedOutputTokens))
	}

	var closers []func()
	closeAll := func() {
		for i := len(closers) - 1; i >= 0; i-- {
			closers[i]()
		}
	}

	if cfg.Tokens.Estimator == "tiktoken" {
		est, err := tokens.NewTiktokenEstimator(cfg.Tokens.Encoding)
		if err != nil {
			return nil, nil, fmt.Errorf("failed to load tiktoken encoding: %w", err)
		}
		opts = append(opts, engine.WithEstimator(est))
	}

	switch cfg.Persona.Source {
	case "file":
		provider, err := persona.NewFileProvider(cfg.Persona.Directory)
		if err != nil {
			return nil, nil, fmt.Errorf("failed to load persona directory: %w", err)
		}
		if cfg.Persona.Watch {
			if err := provider.Watch(); err != nil {
				logger.Warn("persona hot-reload unavailable", zap.Error(err))
			}
		}
		closers = append(closers, func() { _ = provider.Close() })
		opts = append(opts, engine.WithPersonaProvider(provider))
	case "sqlite":
		store, err := persona.OpenSQLStore(cfg.Persona.DatabasePath)
		if err != nil {
			return nil, nil, fmt.Errorf("failed to open persona database: %w", err)
		}
		closers = append(closers, func() { _ = store.Close() })
		opts = append(opts, engine.WithPersonaProvider(store))
	}

	if cfg.Summarizer.Enabled {
		ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		summarizer, err := summarize.NewGeminiSummarizer(ctx, cfg.Summarizer.APIKey, cfg.Summarizer.Model)
		cancel()
		if err != nil {
			closeAll()
			return nil, nil, fmt.Errorf("failed to create summarizer: %w", err)
		}
		closers = append(closers, func() { _ = summarizer.Close() })
		opts = append(opts, engine.WithSummarizer(summarizer))
	}

	eng, err := engine.New(opts...)
	if err != nil {
		closeAll()
		return nil, nil, err
	}
	closers = append(closers, eng.Close)

	return eng, closeAll, nil
}

func lookupModel(id string) (model.Descriptor, error) {
	desc, ok := models.Get(id)
	if !ok {
		return model.Descriptor{}, fmt.Errorf("unknown model %q (run 'promptsmith models' for the list)", id)
	}
	return desc, nil
}

func init() {
	rootCmd.PersistentFlags().StringVarP(&configPath, "config", "c", "promptsmith.yaml", "configuration file")
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "debug logging")

	rootCmd.AddCommand(buildCmd)
	rootCmd.AddCommand(validateCmd)
	rootCmd.AddCommand(modelsCmd)
	rootCmd.AddCommand(estimateCmd)
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}
