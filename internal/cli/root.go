// Package cli implements deskctl, the complaints desk command line.
package cli

import (
	"github.com/spf13/cobra"
)

// RootCmd returns deskctl with every subcommand attached.
func RootCmd() *cobra.Command {
	root := &cobra.Command{
		Use:   "deskctl",
		Short: "Hospital quality complaints desk",
		Long: `deskctl logs patient complaints, tracks their resolution and keeps the
daily call-campaign log. Records are kept locally and pushed to the backend;
when the backend is unreachable they stay local until "deskctl sync".`,
		SilenceUsage: true,
	}
	root.PersistentFlags().String("config", "", "config file (default ~/.quality-desk/deskctl.yaml)")
	root.PersistentFlags().BoolP("verbose", "v", false, "log to stderr")

	root.AddCommand(StatusCmd())
	root.AddCommand(ComplaintsCmd())
	root.AddCommand(SyncCmd())
	root.AddCommand(MigrateCmd())
	root.AddCommand(CampaignCmd())
	root.AddCommand(AreasCmd())
	root.AddCommand(WipeCmd())
	return root
}
