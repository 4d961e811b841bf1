package campaign

import (
	"context"
	"testing"
	"time"

	"quality-desk/internal/complaints"
)

func TestNormalize(t *testing.T) {
	now := time.Date(2026, 5, 4, 9, 0, 0, 0, time.UTC)
	tests := []struct {
		name    string
		in      DailyStats
		wantErr bool
	}{
		{"fills today", DailyStats{CallsMade: 10, Answered: 7, Unanswered: 3}, false},
		{"partial split allowed", DailyStats{Date: "2026-05-01", CallsMade: 10, Answered: 4}, false},
		{"negative", DailyStats{CallsMade: -1}, true},
		{"split exceeds calls", DailyStats{CallsMade: 5, Answered: 4, Unanswered: 2}, true},
		{"bad date", DailyStats{Date: "May 1"}, true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := Normalize(tt.in, now)
			if tt.wantErr {
				if !complaints.IsValidation(err) {
					t.Fatalf("expected validation error, got %v", err)
				}
				return
			}
			if err != nil {
				t.Fatalf("unexpected err: %v", err)
			}
			if got.Date == "" || got.UpdatedAt.IsZero() {
				t.Fatalf("expected date and timestamp filled: %+v", got)
			}
		})
	}
}

func TestService_RecordReplacesSameDay(t *testing.T) {
	repo := NewMemoryRepo()
	svc := NewService(repo)
	ctx := context.Background()

	if _, err := svc.Record(ctx, DailyStats{Date: "2026-05-01", CallsMade: 10, Answered: 5}); err != nil {
		t.Fatalf("record: %v", err)
	}
	if _, err := svc.Record(ctx, DailyStats{Date: "2026-05-01", CallsMade: 12, Answered: 6}); err != nil {
		t.Fatalf("record: %v", err)
	}
	if _, err := svc.Record(ctx, DailyStats{Date: "2026-05-02", CallsMade: 3}); err != nil {
		t.Fatalf("record: %v", err)
	}

	days, err := svc.List(ctx, complaints.Range{})
	if err != nil {
		t.Fatalf("list: %v", err)
	}
	if len(days) != 2 {
		t.Fatalf("expected 2 days, got %d", len(days))
	}
	if days[0].Date != "2026-05-02" || days[1].CallsMade != 12 {
		t.Fatalf("unexpected days: %+v", days)
	}
}

func TestAnswerRate(t *testing.T) {
	if r := (DailyStats{}).AnswerRate(); r != 0 {
		t.Fatalf("expected 0, got %v", r)
	}
	if r := (DailyStats{CallsMade: 4, Answered: 3}).AnswerRate(); r != 0.75 {
		t.Fatalf("expected 0.75, got %v", r)
	}
}
