package cli

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"os"
	"time"

	"quality-desk/internal/complaints"

	"github.com/spf13/cobra"
)

func SyncCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "sync",
		Short: "Push every unsynced complaint to the backend",
		RunE: func(cmd *cobra.Command, args []string) error {
			return run(cmd, func(ctx context.Context, a *app) error {
				if len(a.store.Unsynced()) == 0 {
					fmt.Fprintln(cmd.OutOrStdout(), "Nothing to sync.")
					return nil
				}
				printReport(cmd.OutOrStdout(), a.store.Sync(ctx))
				return nil
			})
		},
	}
}

func MigrateCmd() *cobra.Command {
	var file string
	cmd := &cobra.Command{
		Use:   "migrate",
		Short: "Send a batch of local-only complaints to the backend",
		Long: `Send complaints one at a time. A failed record does not stop the batch
and stays in the local cache for a later "deskctl sync".

Examples:
  deskctl migrate --file exported.json   # JSON array of complaints
  deskctl migrate                        # every unsynced local record`,
		RunE: func(cmd *cobra.Command, args []string) error {
			var batch []complaints.Complaint
			if file != "" {
				raw, err := os.ReadFile(file)
				if err != nil {
					return err
				}
				if err := json.Unmarshal(raw, &batch); err != nil {
					return fmt.Errorf("%s: %w", file, err)
				}
				batch = dropInvalid(cmd.OutOrStdout(), batch, time.Now())
			}
			return run(cmd, func(ctx context.Context, a *app) error {
				if file == "" {
					for _, r := range a.store.Unsynced() {
						batch = append(batch, r.Complaint)
					}
				}
				if len(batch) == 0 {
					fmt.Fprintln(cmd.OutOrStdout(), "Nothing to migrate.")
					return nil
				}
				printReport(cmd.OutOrStdout(), a.store.BulkMigrate(ctx, batch))
				return nil
			})
		},
	}
	cmd.Flags().StringVar(&file, "file", "", "JSON file with complaints to send")
	return cmd
}

// dropInvalid normalizes imported records the way the desk does for new
// ones and reports the rest, so the backend only sees valid payloads.
func dropInvalid(w io.Writer, batch []complaints.Complaint, now time.Time) []complaints.Complaint {
	valid := make([]complaints.Complaint, 0, len(batch))
	rejected := 0
	for i, c := range batch {
		n, err := complaints.Normalize(c, now)
		if err != nil {
			ref := c.ID
			if ref == "" {
				ref = fmt.Sprintf("#%d", i+1)
			}
			fmt.Fprintf(w, "  rejected: %s: %v\n", ref, err)
			rejected++
			continue
		}
		valid = append(valid, n)
	}
	if rejected > 0 {
		fmt.Fprintf(w, "%s\n", failBadge.Sprintf("%d rejected", rejected))
	}
	return valid
}
