package main

import (
	"fmt"
	"io"
	"text/tabwriter"
	"time"

	"github.com/spf13/cobra"
	"github.com/upb/lingflow/app"
	"github.com/upb/lingflow/models"
	"github.com/upb/lingflow/services"
)

var (
	historyLimit int
	historyClear bool
)

var historyCmd = &cobra.Command{
	Use:   "history",
	Short: "Show or clear recent translation history",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		if historyLimit < 1 {
			return fmt.Errorf("--limit must be at least 1")
		}
		return withDependencies(cmd, func(deps *app.Dependencies) error {
			if deps.History == nil {
				return services.ErrHistoryDisabled
			}
			if historyClear {
				if err := deps.History.Clear(cmd.Context()); err != nil {
					return err
				}
				fmt.Fprintln(cmd.OutOrStdout(), "history cleared")
				return nil
			}
			entries, err := deps.History.Recent(cmd.Context(), historyLimit)
			if err != nil {
				return err
			}
			return printHistory(cmd.OutOrStdout(), entries)
		})
	},
}

func init() {
	historyCmd.Flags().IntVarP(&historyLimit, "limit", "n", 20, "number of entries to show")
	historyCmd.Flags().BoolVar(&historyClear, "clear", false, "delete all history entries")
}

func printHistory(w io.Writer, entries []*models.HistoryEntry) error {
	if len(entries) == 0 {
		_, err := fmt.Fprintln(w, "no history")
		return err
	}
	tw := tabwriter.NewWriter(w, 0, 4, 2, ' ', 0)
	fmt.Fprintln(tw, "TIME\tOPERATION\tLANG\tPROVIDER\tSOURCE\tRESULT")
	for _, e := range entries {
		fmt.Fprintf(tw, "%s\t%s\t%s\t%s\t%s\t%s\n",
			e.CreatedAt.Local().Format(time.DateTime),
			e.Operation,
			e.TargetLang,
			e.Provider,
			truncate(e.SourceText, 40),
			truncate(e.Result, 40))
	}
	return tw.Flush()
}

func truncate(s string, n int) string {
	runes := []rune(s)
	if len(runes) <= n {
		return s
	}
	return string(runes[:n-1]) + "…"
}
