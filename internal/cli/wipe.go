package cli

import (
	"bufio"
	"context"
	"fmt"
	"strings"

	"github.com/spf13/cobra"
)

func WipeCmd() *cobra.Command {
	var yes bool
	cmd := &cobra.Command{
		Use:   "wipe",
		Short: "Delete every locally stored record and setting",
		Long: `Delete the local cache: complaints, campaign log, area and specialty
lists and telephony settings. Unsynced complaints are lost.`,
		RunE: func(cmd *cobra.Command, args []string) error {
			return run(cmd, func(ctx context.Context, a *app) error {
				out := cmd.OutOrStdout()
				if !yes {
					pending := len(a.store.Unsynced())
					fmt.Fprintf(out, "This deletes all local data (%d unsynced complaints). Continue? [y/N] ", pending)
					answer, _ := bufio.NewReader(cmd.InOrStdin()).ReadString('\n')
					if reply := strings.ToLower(strings.TrimSpace(answer)); reply != "y" && reply != "yes" {
						fmt.Fprintln(out, "Aborted.")
						return nil
					}
				}
				if err := a.cache.Wipe(ctx); err != nil {
					return err
				}
				fmt.Fprintln(out, okBadge.Sprint("Local data wiped."))
				return nil
			})
		},
	}
	cmd.Flags().BoolVar(&yes, "yes", false, "skip the confirmation")
	return cmd
}
