package cli

import (
	"context"
	"fmt"

	"quality-desk/internal/campaign"
	"quality-desk/internal/desk"

	"github.com/spf13/cobra"
)

func CampaignCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "campaign",
		Short: "Daily call-campaign log",
	}
	cmd.AddCommand(campaignLogCmd())
	return cmd
}

func campaignLogCmd() *cobra.Command {
	var d campaign.DailyStats
	cmd := &cobra.Command{
		Use:   "log",
		Short: "Record one day's follow-up calls",
		Long: `Record one day's follow-up calls. Logging the same day again replaces it.

Examples:
  deskctl campaign log --calls 40 --answered 31 --unanswered 9 --complaints 3`,
		RunE: func(cmd *cobra.Command, args []string) error {
			return run(cmd, func(ctx context.Context, a *app) error {
				if d.Operator == "" {
					d.Operator = a.settings.Username
				}
				saved, err := a.store.RecordCampaign(ctx, d)
				out := cmd.OutOrStdout()
				switch {
				case err == nil:
				case desk.IsTransport(err):
					fmt.Fprintf(out, "%s saved locally only: %v\n", warnBadge.Sprint("!"), err)
				default:
					return err
				}
				fmt.Fprintf(out, "%s %s: %d calls, %.0f%% answered\n", okBadge.Sprint("✓"), saved.Date, saved.CallsMade, saved.AnswerRate()*100)
				return nil
			})
		},
	}
	f := cmd.Flags()
	f.StringVar(&d.Date, "date", "", "day (default today)")
	f.IntVar(&d.CallsMade, "calls", 0, "calls made")
	f.IntVar(&d.Answered, "answered", 0, "calls answered")
	f.IntVar(&d.Unanswered, "unanswered", 0, "calls not answered")
	f.IntVar(&d.ComplaintsLogged, "complaints", 0, "complaints logged from the calls")
	f.StringVar(&d.Notes, "notes", "", "free-text notes")
	return cmd
}
