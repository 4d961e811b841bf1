package cli

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"quality-desk/internal/complaints"
	"quality-desk/internal/desk"

	"github.com/spf13/cobra"
)

func ComplaintsCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "complaints",
		Short: "List, log and resolve complaints",
	}
	cmd.AddCommand(complaintsListCmd())
	cmd.AddCommand(complaintsAddCmd())
	cmd.AddCommand(complaintsResolveCmd())
	return cmd
}

func complaintsListCmd() *cobra.Command {
	var from, to string
	cmd := &cobra.Command{
		Use:   "list",
		Short: "List complaints, newest first",
		Long: `List complaints from the backend, optionally within a date range.

When the backend cannot be reached the last local copy is shown instead.

Examples:
  deskctl complaints list
  deskctl complaints list --from 2026-03-01 --to 2026-03-31`,
		RunE: func(cmd *cobra.Command, args []string) error {
			return run(cmd, func(ctx context.Context, a *app) error {
				recs, fresh := a.store.Fetch(ctx, complaints.Range{From: from, To: to})
				out := cmd.OutOrStdout()
				if !fresh {
					fmt.Fprintln(out, warnBadge.Sprint("offline: showing local copy"))
				}
				printRecords(out, recs)
				return nil
			})
		},
	}
	cmd.Flags().StringVar(&from, "from", "", "first day (YYYY-MM-DD)")
	cmd.Flags().StringVar(&to, "to", "", "last day (YYYY-MM-DD)")
	return cmd
}

func complaintsAddCmd() *cobra.Command {
	var draft complaints.Complaint
	var priority string
	cmd := &cobra.Command{
		Use:   "add",
		Short: "Log a new complaint",
		Long: `Log a new complaint. The doctor is required for clinical areas and is
filled with a placeholder for the others.

Examples:
  deskctl complaints add --patient "Ana Pérez" --area Laboratorio --description "Resultados extraviados"
  deskctl complaints add --patient "Luis Soto" --area Cardiología --doctor "Dr. Rojas" --description "Demora"`,
		RunE: func(cmd *cobra.Command, args []string) error {
			if priority != "" {
				p, ok := complaints.ParsePriority(priority)
				if !ok {
					return fmt.Errorf("unknown priority %q", priority)
				}
				draft.Priority = p
			}
			return run(cmd, func(ctx context.Context, a *app) error {
				rec, err := a.intake.Submit(ctx, draft)
				out := cmd.OutOrStdout()
				switch {
				case err == nil:
					fmt.Fprintf(out, "%s complaint %s logged (%s)\n", okBadge.Sprint("✓"), rec.ID, priorityBadge(rec.Priority))
					return nil
				case desk.IsTransport(err):
					fmt.Fprintf(out, "%s complaint %s saved locally, run \"deskctl sync\" when the backend is back\n", warnBadge.Sprint("!"), rec.ID)
					return nil
				default:
					return err
				}
			})
		},
	}
	f := cmd.Flags()
	f.StringVar(&draft.PatientName, "patient", "", "patient name")
	f.StringVar(&draft.PatientPhone, "phone", "", "patient phone")
	f.StringVar(&draft.DoctorName, "doctor", "", "doctor name")
	f.StringVar(&draft.Specialty, "specialty", "", "specialty")
	f.StringVar(&draft.Area, "area", "", "hospital area")
	f.StringVar(&draft.Description, "description", "", "what happened")
	f.StringVar(&draft.Date, "date", "", "day of the complaint (default today)")
	f.IntVar(&draft.Satisfaction, "satisfaction", 0, "1-5")
	f.StringVar(&priority, "priority", "", "Low|Medium|High|Critical (default from analysis)")
	return cmd
}

func complaintsResolveCmd() *cobra.Command {
	var status, response string
	cmd := &cobra.Command{
		Use:   "resolve ID",
		Short: "Change a complaint's status and management response",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return run(cmd, func(ctx context.Context, a *app) error {
				res := complaints.Resolution{
					Status:     complaints.Status(status),
					Response:   response,
					ResolvedBy: a.settings.Username,
				}
				rec, err := a.store.Update(ctx, strings.TrimSpace(args[0]), res)
				out := cmd.OutOrStdout()
				switch {
				case err == nil:
					fmt.Fprintf(out, "%s %s is now %s\n", okBadge.Sprint("✓"), rec.ID, statusBadge(rec.Status))
					return nil
				case desk.IsTransport(err):
					fmt.Fprintf(out, "%s %s changed locally, not yet on the backend\n", warnBadge.Sprint("!"), rec.ID)
					return nil
				case errors.Is(err, complaints.ErrNotFound):
					return fmt.Errorf("no local complaint %q, run \"deskctl complaints list\" first", args[0])
				default:
					return err
				}
			})
		},
	}
	cmd.Flags().StringVar(&status, "status", string(complaints.StatusResolved), "Pending|InProcess|Resolved")
	cmd.Flags().StringVar(&response, "response", "", "management response")
	return cmd
}
