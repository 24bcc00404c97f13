package main

import (
	"fmt"
	"io"
	"os"

	"github.com/spf13/cobra"
)

var estimateModel string

// estimateCmd reports token estimates for files or stdin
var estimateCmd = &cobra.Command{
	Use:   "estimate [file...]",
	Short: "Estimate the token count of text files (or stdin)",
	RunE:  runEstimate,
}

func init() {
	estimateCmd.Flags().StringVarP(&estimateModel, "model", "m", "gpt-4o", "target model id")
}

func runEstimate(cmd *cobra.Command, args []string) error {
	desc, err := lookupModel(estimateModel)
	if err != nil {
		return err
	}

	eng, closeEngine, err := newEngine()
	if err != nil {
		return err
	}
	defer closeEngine()

	if len(args) == 0 {
		data, err := io.ReadAll(os.Stdin)
		if err != nil {
			return fmt.Errorf("failed to read stdin: %w", err)
		}
		fmt.Printf("%d\n", eng.EstimateTokenCount(string(data), desc.ID))
		return nil
	}

	total := 0
	for _, path := range args {
		data, err := os.ReadFile(path)
		if err != nil {
			return fmt.Errorf("%s: %w", path, err)
		}
		n := eng.EstimateTokenCount(string(data), desc.ID)
		total += n
		fmt.Printf("%s: %d\n", path, n)
	}
	if len(args) > 1 {
		fmt.Printf("total: %d (window %d, reserve %d)\n", total, desc.MaxContextTokens, desc.ReservedOutputTokens)
	}
	return nil
}
