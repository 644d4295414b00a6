package cli

import (
	"encoding/json"
	"fmt"
	"strings"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"github.com/mesh-intelligence/thoughts/pkg/types"
)

// printJSON writes v to the command output as indented JSON.
func printJSON(cmd *cobra.Command, v any) error {
	data, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return fmt.Errorf("marshal output: %w", err)
	}
	fmt.Fprintln(cmd.OutOrStdout(), string(data))
	return nil
}

// newTable returns a tab-aligned writer on the command output.
func newTable(cmd *cobra.Command) *tabwriter.Writer {
	return tabwriter.NewWriter(cmd.OutOrStdout(), 0, 4, 2, ' ', 0)
}

// formatAreas renders a set of area IDs, or "-" for the empty set.
func formatAreas(areas []types.AreaOfLifeID) string {
	if len(areas) == 0 {
		return "-"
	}
	parts := make([]string, len(areas))
	for i, a := range areas {
		parts[i] = a.String()
	}
	return strings.Join(parts, ",")
}

func printThoughts(cmd *cobra.Command, thoughts []types.Thought) error {
	w := newTable(cmd)
	fmt.Fprintln(w, "ID\tTITLE\tAREAS OF LIFE")
	for _, t := range thoughts {
		fmt.Fprintf(w, "%s\t%s\t%s\n", t.ID, t.Title, formatAreas(t.AreasOfLife))
	}
	return w.Flush()
}

func printAreasOfLife(cmd *cobra.Command, areas []types.AreaOfLife) error {
	w := newTable(cmd)
	fmt.Fprintln(w, "ID\tNAME")
	for _, a := range areas {
		fmt.Fprintf(w, "%s\t%s\n", a.ID, a.Name)
	}
	return w.Flush()
}

// parseAreaIDs parses the values of an --area flag.
func parseAreaIDs(raw []string) ([]types.AreaOfLifeID, error) {
	ids := make([]types.AreaOfLifeID, 0, len(raw))
	for _, r := range raw {
		id, err := types.ParseAreaOfLifeID(strings.TrimSpace(r))
		if err != nil {
			return nil, userError{err}
		}
		ids = append(ids, id)
	}
	return ids, nil
}

func parseThoughtArg(arg string) (types.ThoughtID, error) {
	id, err := types.ParseThoughtID(arg)
	if err != nil {
		return 0, userError{err}
	}
	return id, nil
}

func parseAreaOfLifeArg(arg string) (types.AreaOfLifeID, error) {
	id, err := types.ParseAreaOfLifeID(arg)
	if err != nil {
		return 0, userError{err}
	}
	return id, nil
}

// exactArgs is cobra.ExactArgs reported as a user error.
func exactArgs(n int) cobra.PositionalArgs {
	return func(cmd *cobra.Command, args []string) error {
		if err := cobra.ExactArgs(n)(cmd, args); err != nil {
			return userError{err}
		}
		return nil
	}
}

// noArgs is cobra.NoArgs reported as a user error.
func noArgs(cmd *cobra.Command, args []string) error {
	if err := cobra.NoArgs(cmd, args); err != nil {
		return userError{err}
	}
	return nil
}
