package cli

import (
	"fmt"

	"github.com/spf13/cobra"
)

func newRepairCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "repair",
		Short: "Check the data directory and fix interrupted writes",
		Long: `Open the data directory and report what was repaired: index entries
without a record or pointing at another ID's record, records without an index entry, duplicate records, ID
counters behind the stored IDs and thoughts referencing deleted areas of
life. The same repair runs whenever the data directory is opened.`,
		Args: noArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			s, err := a.openStorage()
			if err != nil {
				return err
			}
			report := s.Repaired()
			if err := s.Close(); err != nil {
				return systemError{fmt.Errorf("close storage: %w", err)}
			}

			if a.flags.jsonMode {
				return printJSON(cmd, report)
			}
			if report.Empty() {
				fmt.Fprintln(cmd.OutOrStdout(), "Nothing to repair")
				return nil
			}
			w := newTable(cmd)
			fmt.Fprintf(w, "dangling index entries dropped\t%d\n", report.DanglingEntries)
			fmt.Fprintf(w, "misindexed entries dropped\t%d\n", report.MisindexedEntries)
			fmt.Fprintf(w, "orphaned records re-indexed\t%d\n", report.Reindexed)
			fmt.Fprintf(w, "duplicate records deleted\t%d\n", report.Duplicates)
			fmt.Fprintf(w, "ID counters raised\t%d\n", report.CountersRaised)
			fmt.Fprintf(w, "thoughts with stale references fixed\t%d\n", report.StrippedReferences)
			return w.Flush()
		},
	}
}
