package cli

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/mesh-intelligence/thoughts/internal/organizer"
	"github.com/mesh-intelligence/thoughts/pkg/types"
)

func newAreaCmd(a *app) *cobra.Command {
	cmd := &cobra.Command{
		Use:     "area",
		Aliases: []string{"areas"},
		Short:   "Create, list, rename and delete areas of life",
	}
	cmd.AddCommand(
		newAreaCreateCmd(a),
		newAreaListCmd(a),
		newAreaUpdateCmd(a),
		newAreaDeleteCmd(a),
	)
	return cmd
}

func newAreaCreateCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "create <name>",
		Short: "Create an area of life",
		Long: `Create an area of life with the given name (5 to 30 characters).

Example:
  thoughts area create "Work life"`,
		Args: exactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return a.withService(func(svc *organizer.Service) error {
				id, err := svc.CreateAreaOfLife(args[0])
				if err != nil {
					return err
				}
				if a.flags.jsonMode {
					return printJSON(cmd, types.AreaOfLife{ID: id, Name: args[0]})
				}
				fmt.Fprintf(cmd.OutOrStdout(), "Created area of life %s\n", id)
				return nil
			})
		},
	}
}

func newAreaListCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "list",
		Short: "List all areas of life",
		Args:  noArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return a.withService(func(svc *organizer.Service) error {
				areas, err := svc.ListAreasOfLife()
				if err != nil {
					return err
				}
				if a.flags.jsonMode {
					return printJSON(cmd, areas)
				}
				return printAreasOfLife(cmd, areas)
			})
		},
	}
}

func newAreaUpdateCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "update <id> <name>",
		Short: "Rename an area of life",
		Args:  exactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			id, err := parseAreaOfLifeArg(args[0])
			if err != nil {
				return err
			}
			return a.withService(func(svc *organizer.Service) error {
				if err := svc.UpdateAreaOfLife(id, args[1]); err != nil {
					return err
				}
				if a.flags.jsonMode {
					return printJSON(cmd, types.AreaOfLife{ID: id, Name: args[1]})
				}
				fmt.Fprintf(cmd.OutOrStdout(), "Updated area of life %s\n", id)
				return nil
			})
		},
	}
}

func newAreaDeleteCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "delete <id>",
		Short: "Delete an area of life and remove it from every thought",
		Args:  exactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			id, err := parseAreaOfLifeArg(args[0])
			if err != nil {
				return err
			}
			return a.withService(func(svc *organizer.Service) error {
				if err := svc.DeleteAreaOfLife(id); err != nil {
					return err
				}
				if a.flags.jsonMode {
					return printJSON(cmd, map[string]types.AreaOfLifeID{"deleted": id})
				}
				fmt.Fprintf(cmd.OutOrStdout(), "Deleted area of life %s\n", id)
				return nil
			})
		},
	}
}
