package reporting

import (
	"context"
	"errors"
	"time"

	"quality-desk/internal/calls"
	"quality-desk/internal/campaign"
	"quality-desk/internal/complaints"
)

// Repository abstracts data access for reporting. Reports only read.
type Repository interface {
	ListComplaints(ctx context.Context, r complaints.Range) ([]complaints.Complaint, error)
	ListCampaign(ctx context.Context, r complaints.Range) ([]campaign.DailyStats, error)
}

// Sources adapts the complaint and campaign repositories to Repository.
type Sources struct {
	Complaints complaints.Repository
	Campaign   campaign.Repository
}

func (s Sources) ListComplaints(ctx context.Context, r complaints.Range) ([]complaints.Complaint, error) {
	return s.Complaints.List(ctx, r)
}

func (s Sources) ListCampaign(ctx context.Context, r complaints.Range) ([]campaign.DailyStats, error) {
	return s.Campaign.List(ctx, r)
}

type Service struct {
	repo Repository
}

func NewService(repo Repository) *Service { return &Service{repo: repo} }

func (s *Service) ComplaintsSummary(ctx context.Context, r complaints.Range) (ComplaintsSummary, error) {
	if err := complaints.ValidateRange(r); err != nil {
		return ComplaintsSummary{}, err
	}
	if s.repo == nil {
		return ComplaintsSummary{}, errors.New("reporting: repository not configured")
	}

	rows, err := s.repo.ListComplaints(ctx, r)
	if err != nil {
		return ComplaintsSummary{}, err
	}

	out := ComplaintsSummary{
		Range:       r,
		ByStatus:    map[string]int{},
		ByPriority:  map[string]int{},
		ByArea:      map[string]int{},
		BySentiment: map[string]int{},
	}
	satisfaction := 0
	for _, c := range rows {
		out.Total++
		out.ByStatus[string(c.Status)]++
		out.ByPriority[string(c.Priority)]++
		out.ByArea[c.Area]++
		if c.Sentiment != "" {
			out.BySentiment[c.Sentiment]++
		}
		satisfaction += c.Satisfaction
	}
	if out.Total > 0 {
		out.AverageSatisfaction = float64(satisfaction) / float64(out.Total)
		out.ResolutionRate = float64(out.ByStatus[string(complaints.StatusResolved)]) / float64(out.Total)
	}
	return out, nil
}

func (s *Service) CampaignSummary(ctx context.Context, r complaints.Range) (CampaignSummary, error) {
	if err := complaints.ValidateRange(r); err != nil {
		return CampaignSummary{}, err
	}
	if s.repo == nil {
		return CampaignSummary{}, errors.New("reporting: repository not configured")
	}

	days, err := s.repo.ListCampaign(ctx, r)
	if err != nil {
		return CampaignSummary{}, err
	}

	out := CampaignSummary{Range: r}
	for _, d := range days {
		out.Days++
		out.CallsMade += d.CallsMade
		out.Answered += d.Answered
		out.Unanswered += d.Unanswered
		out.ComplaintsLogged += d.ComplaintsLogged
	}
	if out.CallsMade > 0 {
		out.AnswerRate = float64(out.Answered) / float64(out.CallsMade)
	}
	return out, nil
}

// SummarizeCalls aggregates a tracker history. Talk time counts from accept
// to end, so calls that never connected add nothing.
func SummarizeCalls(history []calls.CallSession) CallsSummary {
	var out CallsSummary
	var talk time.Duration
	for _, s := range history {
		out.TotalCalls++
		switch s.Direction {
		case calls.DirectionIncoming:
			out.Incoming++
		case calls.DirectionOutgoing:
			out.Outgoing++
		}
		if s.AcceptedAt.IsZero() {
			out.Unanswered++
			continue
		}
		talk += s.Elapsed(s.EndedAt)
	}
	out.TotalTalkSeconds = int(talk / time.Second)
	if answered := out.TotalCalls - out.Unanswered; answered > 0 {
		out.AverageTalkSeconds = out.TotalTalkSeconds / answered
	}
	return out
}
