package main

import (
	"fmt"
	"io"
	"sort"
	"text/tabwriter"

	"github.com/spf13/cobra"
	"github.com/upb/lingflow/app"
	"github.com/upb/lingflow/services/providers"
)

var modelsCmd = &cobra.Command{
	Use:   "models",
	Short: "List the models available for each provider",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		return withDependencies(cmd, func(deps *app.Dependencies) error {
			return printModels(cmd.OutOrStdout(), deps.Translation.Models(cmd.Context()))
		})
	},
}

func printModels(w io.Writer, byKind map[providers.Kind][]providers.ModelInfo) error {
	kinds := make([]providers.Kind, 0, len(byKind))
	for kind := range byKind {
		kinds = append(kinds, kind)
	}
	sort.Slice(kinds, func(i, j int) bool { return kinds[i] < kinds[j] })

	tw := tabwriter.NewWriter(w, 0, 4, 2, ' ', 0)
	fmt.Fprintln(tw, "PROVIDER\tMODEL\tNAME\tVISION")
	for _, kind := range kinds {
		for _, m := range byKind[kind] {
			vision := "no"
			if m.SupportsVision {
				vision = "yes"
			}
			fmt.Fprintf(tw, "%s\t%s\t%s\t%s\n", kind, m.ID, m.Name, vision)
		}
	}
	return tw.Flush()
}
