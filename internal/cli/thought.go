package cli

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/mesh-intelligence/thoughts/internal/organizer"
	"github.com/mesh-intelligence/thoughts/pkg/types"
)

func newThoughtCmd(a *app) *cobra.Command {
	cmd := &cobra.Command{
		Use:     "thought",
		Aliases: []string{"thoughts"},
		Short:   "Create, read, update and delete thoughts",
	}
	cmd.AddCommand(
		newThoughtCreateCmd(a),
		newThoughtGetCmd(a),
		newThoughtListCmd(a),
		newThoughtUpdateCmd(a),
		newThoughtDeleteCmd(a),
	)
	return cmd
}

func newThoughtCreateCmd(a *app) *cobra.Command {
	var areas []string
	cmd := &cobra.Command{
		Use:   "create <title>",
		Short: "Create a thought",
		Long: `Create a thought with the given title (3 to 80 characters). Every
--area must name an existing area of life.

Example:
  thoughts thought create "Ship feature" --area 1`,
		Args: exactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			areaIDs, err := parseAreaIDs(areas)
			if err != nil {
				return err
			}
			return a.withService(func(svc *organizer.Service) error {
				id, err := svc.CreateThought(args[0], areaIDs)
				if err != nil {
					return err
				}
				if a.flags.jsonMode {
					return printJSON(cmd, types.NewThought(id, args[0], areaIDs))
				}
				fmt.Fprintf(cmd.OutOrStdout(), "Created thought %s\n", id)
				return nil
			})
		},
	}
	cmd.Flags().StringSliceVar(&areas, "area", nil, "area of life ID (repeatable or comma separated)")
	return cmd
}

func newThoughtGetCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "get <id>",
		Short: "Show a thought",
		Args:  exactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			id, err := parseThoughtArg(args[0])
			if err != nil {
				return err
			}
			return a.withService(func(svc *organizer.Service) error {
				t, err := svc.FindThought(id)
				if err != nil {
					return err
				}
				if a.flags.jsonMode {
					return printJSON(cmd, t)
				}
				return printThoughts(cmd, []types.Thought{t})
			})
		},
	}
}

func newThoughtListCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "list",
		Short: "List all thoughts",
		Args:  noArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return a.withService(func(svc *organizer.Service) error {
				thoughts, err := svc.ListThoughts()
				if err != nil {
					return err
				}
				if a.flags.jsonMode {
					return printJSON(cmd, thoughts)
				}
				return printThoughts(cmd, thoughts)
			})
		},
	}
}

func newThoughtUpdateCmd(a *app) *cobra.Command {
	var (
		title string
		areas []string
	)
	cmd := &cobra.Command{
		Use:   "update <id>",
		Short: "Change the title or areas of life of a thought",
		Long: `Update a thought. Flags that are not given keep their current value;
--area replaces the whole set, and --area "" clears it.

Example:
  thoughts thought update 1 --title "Ship feature today" --area 1,2`,
		Args: exactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			id, err := parseThoughtArg(args[0])
			if err != nil {
				return err
			}
			var areaIDs []types.AreaOfLifeID
			if cmd.Flags().Changed("area") {
				if areaIDs, err = parseAreaIDs(nonEmpty(areas)); err != nil {
					return err
				}
			}
			return a.withService(func(svc *organizer.Service) error {
				current, err := svc.FindThought(id)
				if err != nil {
					return err
				}
				if !cmd.Flags().Changed("title") {
					title = current.Title
				}
				if !cmd.Flags().Changed("area") {
					areaIDs = current.AreasOfLife
				}
				if err := svc.UpdateThought(id, title, areaIDs); err != nil {
					return err
				}
				if a.flags.jsonMode {
					return printJSON(cmd, types.NewThought(id, title, areaIDs))
				}
				fmt.Fprintf(cmd.OutOrStdout(), "Updated thought %s\n", id)
				return nil
			})
		},
	}
	cmd.Flags().StringVar(&title, "title", "", "new title")
	cmd.Flags().StringSliceVar(&areas, "area", nil, "area of life IDs replacing the current set")
	return cmd
}

func newThoughtDeleteCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "delete <id>",
		Short: "Delete a thought",
		Args:  exactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			id, err := parseThoughtArg(args[0])
			if err != nil {
				return err
			}
			return a.withService(func(svc *organizer.Service) error {
				if err := svc.DeleteThought(id); err != nil {
					return err
				}
				if a.flags.jsonMode {
					return printJSON(cmd, map[string]types.ThoughtID{"deleted": id})
				}
				fmt.Fprintf(cmd.OutOrStdout(), "Deleted thought %s\n", id)
				return nil
			})
		},
	}
}

// nonEmpty drops empty strings so that --area "" means the empty set.
func nonEmpty(values []string) []string {
	out := make([]string, 0, len(values))
	for _, v := range values {
		if v != "" {
			out = append(out, v)
		}
	}
	return out
}
