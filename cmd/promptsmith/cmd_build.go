package main

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"sync"

	"github.com/spf13/cobra"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"
	"gopkg.in/yaml.v3"

	"promptsmith/internal/engine"
	"promptsmith/internal/model"
	"promptsmith/internal/persona"
	"promptsmith/internal/prompt"
)

var (
	buildModel    string
	buildTemplate string
	buildPersona  string
	buildMood     string
	buildTaskHint string
	buildOutDir   string
	buildParallel int
)

// buildCmd constructs prompts from component files
var buildCmd = &cobra.Command{
	Use:   "build [components.yaml...]",
	Short: "Construct model-ready prompts from component files",
	Long: `Reads one or more YAML component files, runs each through the
construction pipeline (persona augmentation, budget fitting,
rendering), and writes the resulting prompt as JSON. Multiple files
are built concurrently.`,
	Args: cobra.MinimumNArgs(1),
	RunE: runBuild,
}

func init() {
	buildCmd.Flags().StringVarP(&buildModel, "model", "m", "gpt-4o", "target model id")
	buildCmd.Flags().StringVarP(&buildTemplate, "template", "t", "", "template name (defaults to the model's native format)")
	buildCmd.Flags().StringVarP(&buildPersona, "persona", "p", "", "persona id for contextual elements")
	buildCmd.Flags().StringVar(&buildMood, "mood", "", "execution-context mood")
	buildCmd.Flags().StringVar(&buildTaskHint, "task-hint", "", "execution-context task hint")
	buildCmd.Flags().StringVarP(&buildOutDir, "out", "o", "", "output directory (default: stdout)")
	buildCmd.Flags().IntVar(&buildParallel, "parallel", 4, "maximum concurrent builds")
}

func runBuild(cmd *cobra.Command, args []string) error {
	desc, err := lookupModel(buildModel)
	if err != nil {
		return err
	}

	eng, closeEngine, err := newEngine()
	if err != nil {
		return err
	}
	defer closeEngine()

	ec := persona.ExecutionContext{
		PersonaID: buildPersona,
		Mood:      buildMood,
		TaskHint:  buildTaskHint,
	}

	if buildOutDir != "" {
		if err := os.MkdirAll(buildOutDir, 0755); err != nil {
			return fmt.Errorf("failed to create output directory: %w", err)
		}
	}

	var stdoutMu sync.Mutex

	g, ctx := errgroup.WithContext(cmd.Context())
	g.SetLimit(buildParallel)

	for _, path := range args {
		g.Go(func() error {
			result, err := buildOne(ctx, eng, path, desc, ec)
			if err != nil {
				return fmt.Errorf("%s: %w", path, err)
			}

			data, err := json.MarshalIndent(result, "", "  ")
			if err != nil {
				return fmt.Errorf("%s: failed to encode result: %w", path, err)
			}

			if buildOutDir != "" {
				out := outputPath(buildOutDir, path)
				if err := os.WriteFile(out, data, 0644); err != nil {
					return fmt.Errorf("%s: %w", path, err)
				}
				logger.Info("built prompt",
					zap.String("input", path),
					zap.String("output", out),
					zap.Int("tokens", result.TokenCount),
					zap.Bool("reduced", result.WasTruncatedOrSummarized))
				return nil
			}

			stdoutMu.Lock()
			defer stdoutMu.Unlock()
			fmt.Println(string(data))
			return nil
		})
	}

	if err := g.Wait(); err != nil {
		return err
	}

	stats := eng.Statistics()
	logger.Info("build complete",
		zap.Int("files", len(args)),
		zap.Int64("constructions", stats.Constructions))
	return nil
}

func buildOne(ctx context.Context, eng *engine.Engine, path string, desc model.Descriptor, ec persona.ExecutionContext) (*engine.Result, error) {
	components, err := loadComponents(path)
	if err != nil {
		return nil, err
	}

	result, err := eng.ConstructPrompt(ctx, components, desc, ec, buildTemplate)
	if err != nil {
		return nil, err
	}

	for _, issue := range result.Issues {
		logger.Warn("construction issue",
			zap.String("file", path),
			zap.String("severity", string(issue.Severity)),
			zap.String("code", issue.Code),
			zap.String("message", issue.Message))
	}
	if result.HasErrors() {
		return nil, fmt.Errorf("construction failed with %d issues", len(result.Issues))
	}
	return result, nil
}

// outputPath maps an input file to its JSON output in dir.
func outputPath(dir, input string) string {
	base := filepath.Base(input)
	ext := filepath.Ext(base)
	return filepath.Join(dir, base[:len(base)-len(ext)]+".json")
}

func loadComponents(path string) (*prompt.Components, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}

	var components prompt.Components
	if err := yaml.Unmarshal(data, &components); err != nil {
		return nil, fmt.Errorf("failed to parse components: %w", err)
	}
	return &components, nil
}
