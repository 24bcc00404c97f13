package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"promptsmith/internal/persona"
)

var (
	validateModel   string
	validatePersona string
)

// validateCmd checks component files against a model without building
var validateCmd = &cobra.Command{
	Use:   "validate [components.yaml...]",
	Short: "Check components against a target model without building",
	Long: `Runs the pre-flight compatibility check on each component file:
image content on text-only models, tool schemas on tool-less models,
content larger than the context window, and unknown personas.`,
	Args: cobra.MinimumNArgs(1),
	RunE: runValidate,
}

func init() {
	validateCmd.Flags().StringVarP(&validateModel, "model", "m", "gpt-4o", "target model id")
	validateCmd.Flags().StringVarP(&validatePersona, "persona", "p", "", "persona id to check")
}

func runValidate(cmd *cobra.Command, args []string) error {
	desc, err := lookupModel(validateModel)
	if err != nil {
		return err
	}

	eng, closeEngine, err := newEngine()
	if err != nil {
		return err
	}
	defer closeEngine()

	ec := persona.ExecutionContext{PersonaID: validatePersona}

	failed := 0
	for _, path := range args {
		components, err := loadComponents(path)
		if err != nil {
			return fmt.Errorf("%s: %w", path, err)
		}

		report := eng.ValidateConfiguration(components, desc, ec)
		if report.IsValid && len(report.Issues) == 0 {
			fmt.Printf("%s: ok\n", path)
			continue
		}

		status := "ok with warnings"
		if !report.IsValid {
			status = "invalid"
			failed++
		}
		fmt.Printf("%s: %s\n", path, status)
		for _, issue := range report.Issues {
			fmt.Printf("  [%s] %s: %s\n", issue.Severity, issue.Code, issue.Message)
		}
		for _, rec := range report.Recommendations {
			fmt.Printf("  hint: %s\n", rec)
		}
	}

	if failed > 0 {
		return fmt.Errorf("%d of %d files failed validation", failed, len(args))
	}
	return nil
}
