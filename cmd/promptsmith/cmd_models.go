package main

import (
	"fmt"
	"os"
	"text/tabwriter"

	"github.com/spf13/cobra"
)

// modelsCmd lists the known model descriptors
var modelsCmd = &cobra.Command{
	Use:   "models",
	Short: "List the known model descriptors",
	RunE:  runModels,
}

func runModels(cmd *cobra.Command, args []string) error {
	w := tabwriter.NewWriter(os.Stdout, 0, 4, 2, ' ', 0)
	fmt.Fprintln(w, "ID\tCONTEXT\tRESERVED\tFORMAT\tTOOLS\tVISION")

	for _, d := range models.All() {
		tools := string(d.ToolFormat)
		if !d.SupportsTools() {
			tools = "-"
		}
		vision := "-"
		if d.VisionSupport {
			vision = "yes"
		}
		fmt.Fprintf(w, "%s\t%d\t%d\t%s\t%s\t%s\n",
			d.ID, d.MaxContextTokens, d.ReservedOutputTokens, d.PromptFormat, tools, vision)
	}

	return w.Flush()
}
