// Package campaign keeps the daily call-campaign log: how many follow-up
// calls the desk made and how they went.
package campaign

import "time"

// DailyStats is keyed by Date (YYYY-MM-DD). Recording the same day twice
// replaces the earlier entry.
type DailyStats struct {
	Date             string    `json:"date" db:"date"`
	CallsMade        int       `json:"calls_made" db:"calls_made"`
	Answered         int       `json:"answered" db:"answered"`
	Unanswered       int       `json:"unanswered" db:"unanswered"`
	ComplaintsLogged int       `json:"complaints_logged" db:"complaints_logged"`
	Operator         string    `json:"operator,omitempty" db:"operator"`
	Notes            string    `json:"notes,omitempty" db:"notes"`
	UpdatedAt        time.Time `json:"updated_at" db:"updated_at"`
}

// AnswerRate is Answered/CallsMade, 0 when no calls were made.
func (d DailyStats) AnswerRate() float64 {
	if d.CallsMade == 0 {
		return 0
	}
	return float64(d.Answered) / float64(d.CallsMade)
}
