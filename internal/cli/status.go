package cli

import (
	"context"
	"fmt"

	"github.com/spf13/cobra"
)

func StatusCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "status",
		Short: "Show backend connectivity and local sync state",
		RunE: func(cmd *cobra.Command, args []string) error {
			return run(cmd, func(ctx context.Context, a *app) error {
				out := cmd.OutOrStdout()
				fmt.Fprintf(out, "Backend   %s  ", a.settings.APIURL)
				h, err := a.remote.Health(ctx)
				switch {
				case err != nil:
					fmt.Fprintln(out, failBadge.Sprint("OFFLINE"))
				case h.Database:
					fmt.Fprintln(out, okBadge.Sprint("ONLINE"))
				default:
					fmt.Fprintln(out, warnBadge.Sprint("NO DATABASE"))
				}

				pending := len(a.store.Unsynced())
				badge := okBadge.Sprint("0 unsynced")
				if pending > 0 {
					badge = warnBadge.Sprintf("%d unsynced", pending)
				}
				fmt.Fprintf(out, "Local     %d complaints, %s\n", len(a.store.Snapshot()), badge)
				fmt.Fprintf(out, "Campaign  %d days logged\n", len(a.store.Campaign()))

				tel := a.cache.Telephony(ctx)
				if tel.Extension == "" {
					fmt.Fprintln(out, "Phone     not configured")
				} else {
					fmt.Fprintf(out, "Phone     %s@%s via %s\n", tel.Extension, tel.Domain, tel.Server)
				}
				return nil
			})
		},
	}
}
