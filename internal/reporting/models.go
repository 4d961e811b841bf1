package reporting

import "quality-desk/internal/complaints"

// ComplaintsSummary aggregates complaint records over a date range.
type ComplaintsSummary struct {
	Range complaints.Range `json:"range"`

	Total       int            `json:"total"`
	ByStatus    map[string]int `json:"by_status"`
	ByPriority  map[string]int `json:"by_priority"`
	ByArea      map[string]int `json:"by_area"`
	BySentiment map[string]int `json:"by_sentiment"`

	// AverageSatisfaction is 0 for an empty range.
	AverageSatisfaction float64 `json:"average_satisfaction"`
	// ResolutionRate is Resolved/Total.
	ResolutionRate float64 `json:"resolution_rate"`
}

// CampaignSummary sums the daily campaign log over a date range.
type CampaignSummary struct {
	Range complaints.Range `json:"range"`

	Days             int `json:"days"`
	CallsMade        int `json:"calls_made"`
	Answered         int `json:"answered"`
	Unanswered       int `json:"unanswered"`
	ComplaintsLogged int `json:"complaints_logged"`

	AnswerRate float64 `json:"answer_rate"`
}

// CallsSummary describes an operator's recent finished calls.
type CallsSummary struct {
	TotalCalls int `json:"total_calls"`
	Incoming   int `json:"incoming"`
	Outgoing   int `json:"outgoing"`
	// Unanswered calls ended while still ringing.
	Unanswered int `json:"unanswered"`

	TotalTalkSeconds   int `json:"total_talk_seconds"`
	AverageTalkSeconds int `json:"average_talk_seconds"`
}
