package campaign

import (
	"strings"
	"time"

	"quality-desk/internal/complaints"
)

// Normalize validates a day's numbers and fills the date and timestamp.
func Normalize(d DailyStats, now time.Time) (DailyStats, error) {
	out := d
	out.Date = strings.TrimSpace(out.Date)
	out.Operator = strings.TrimSpace(out.Operator)
	out.Notes = strings.TrimSpace(out.Notes)

	if out.Date == "" {
		out.Date = now.Format(complaints.DateLayout)
	} else if _, err := time.Parse(complaints.DateLayout, out.Date); err != nil {
		return DailyStats{}, &complaints.ValidationError{Field: "date", Reason: "expected YYYY-MM-DD"}
	}
	if out.CallsMade < 0 || out.Answered < 0 || out.Unanswered < 0 || out.ComplaintsLogged < 0 {
		return DailyStats{}, &complaints.ValidationError{Field: "calls_made", Reason: "counts must not be negative"}
	}
	if out.Answered+out.Unanswered > out.CallsMade {
		return DailyStats{}, &complaints.ValidationError{Field: "answered", Reason: "answered plus unanswered exceeds calls made"}
	}
	out.UpdatedAt = now.UTC()
	return out, nil
}
