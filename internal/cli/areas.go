package cli

import (
	"context"
	"fmt"

	"github.com/spf13/cobra"
)

func AreasCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "areas",
		Short: "Hospital areas and their managers",
	}
	cmd.AddCommand(areasListCmd())
	cmd.AddCommand(areasReassignCmd())
	return cmd
}

func areasListCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "list",
		Short: "List areas with their current manager",
		RunE: func(cmd *cobra.Command, args []string) error {
			return run(cmd, func(ctx context.Context, a *app) error {
				out := cmd.OutOrStdout()
				managers := map[string]string{}
				assignments, err := a.remote.ListAreas(ctx)
				if err != nil {
					fmt.Fprintln(out, warnBadge.Sprint("offline: managers unknown"))
				}
				for _, as := range assignments {
					managers[as.Area] = as.Manager
				}
				for _, area := range a.cache.Areas(ctx) {
					m := managers[area]
					if m == "" {
						m = "-"
					}
					fmt.Fprintf(out, "%-24s %s\n", area, m)
				}
				return nil
			})
		},
	}
}

func areasReassignCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "reassign AREA MANAGER",
		Short: "Hand an area over to a new manager",
		Long: `Hand an area over to a new manager. Its pending and in-process complaints
move to the new manager; resolved ones keep the manager they had.`,
		Args: cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			return run(cmd, func(ctx context.Context, a *app) error {
				if err := a.remote.ReassignArea(ctx, args[0], args[1]); err != nil {
					return err
				}
				fmt.Fprintf(cmd.OutOrStdout(), "%s %s is now managed by %s\n", okBadge.Sprint("✓"), args[0], args[1])
				return nil
			})
		},
	}
}
