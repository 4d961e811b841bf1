package cli

import (
	"fmt"
	"io"

	"quality-desk/internal/complaints"
	"quality-desk/internal/desk"

	"github.com/fatih/color"
)

var (
	okBadge   = color.New(color.FgGreen, color.Bold)
	warnBadge = color.New(color.FgYellow, color.Bold)
	failBadge = color.New(color.FgRed, color.Bold)
)

func statusBadge(s complaints.Status) string {
	switch s {
	case complaints.StatusResolved:
		return okBadge.Sprint(string(s))
	case complaints.StatusInProcess:
		return warnBadge.Sprint(string(s))
	default:
		return failBadge.Sprint(string(s))
	}
}

func priorityBadge(p complaints.Priority) string {
	switch p {
	case complaints.PriorityCritical, complaints.PriorityHigh:
		return failBadge.Sprint(string(p))
	case complaints.PriorityMedium:
		return warnBadge.Sprint(string(p))
	default:
		return string(p)
	}
}

func printRecords(w io.Writer, recs []desk.Record) {
	if len(recs) == 0 {
		fmt.Fprintln(w, "No complaints.")
		return
	}
	for _, r := range recs {
		marker := ""
		if r.Unsynced {
			marker = warnBadge.Sprint(" [unsynced]")
		}
		fmt.Fprintf(w, "%s  %-10s  %-9s  %-8s  %-22s  %s%s\n",
			r.Date, r.ID[:min(8, len(r.ID))], statusBadge(r.Status), priorityBadge(r.Priority), r.Area, r.PatientName, marker)
	}
}

func printReport(w io.Writer, rep desk.MigrationReport) {
	fmt.Fprintf(w, "%d attempted, %s, %s\n",
		rep.Attempted,
		okBadge.Sprintf("%d sent", len(rep.Succeeded)),
		failBadgeIf(len(rep.Failed)).Sprintf("%d failed", len(rep.Failed)))
	for _, id := range rep.Failed {
		fmt.Fprintf(w, "  kept locally: %s\n", id)
	}
}

func failBadgeIf(n int) *color.Color {
	if n > 0 {
		return failBadge
	}
	return color.New(color.Reset)
}
