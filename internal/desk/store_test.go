package desk

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"quality-desk/internal/analysis"
	"quality-desk/internal/campaign"
	"quality-desk/internal/complaints"
	"quality-desk/pkg/logger"
)

var offline = &TransportError{Op: "test", Err: errors.New("connection refused")}

type fakeRemote struct {
	mu       sync.Mutex
	stored   map[string]complaints.Complaint
	failAll  bool
	failIDs  map[string]bool
	updates  int
	days     []campaign.DailyStats
	listHook func()
}

func newFakeRemote() *fakeRemote {
	return &fakeRemote{stored: map[string]complaints.Complaint{}, failIDs: map[string]bool{}}
}

func (f *fakeRemote) CreateComplaint(_ context.Context, c complaints.Complaint) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.failAll || f.failIDs[c.ID] {
		return offline
	}
	f.stored[c.ID] = c
	return nil
}

func (f *fakeRemote) UpdateComplaint(_ context.Context, id string, r complaints.Resolution) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.failAll {
		return offline
	}
	c, ok := f.stored[id]
	if !ok {
		return complaints.ErrNotFound
	}
	c, _ = complaints.ApplyResolution(c, r, time.Now())
	f.stored[id] = c
	f.updates++
	return nil
}

func (f *fakeRemote) ListComplaints(_ context.Context, r complaints.Range) ([]complaints.Complaint, error) {
	if f.listHook != nil {
		f.listHook()
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.failAll {
		return nil, offline
	}
	var out []complaints.Complaint
	for _, c := range f.stored {
		if r.Contains(c.Date) {
			out = append(out, c)
		}
	}
	return out, nil
}

func (f *fakeRemote) RecordCampaign(_ context.Context, d campaign.DailyStats) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.failAll {
		return offline
	}
	f.days = append(f.days, d)
	return nil
}

type memCache struct {
	records []Record
	days    []campaign.DailyStats
	saves   int
}

func (m *memCache) LoadComplaints(context.Context) ([]Record, error) { return m.records, nil }
func (m *memCache) SaveComplaints(_ context.Context, r []Record) error {
	m.records = append([]Record(nil), r...)
	m.saves++
	return nil
}
func (m *memCache) LoadCampaign(context.Context) ([]campaign.DailyStats, error) { return m.days, nil }
func (m *memCache) SaveCampaign(_ context.Context, d []campaign.DailyStats) error {
	m.days = append([]campaign.DailyStats(nil), d...)
	return nil
}

func complaint(id, date string) complaints.Complaint {
	return complaints.Complaint{
		ID:          id,
		Date:        date,
		PatientName: "Ana",
		Area:        "Farmacia",
		DoctorName:  complaints.DoctorPlaceholder,
		Description: "Sin stock",
		Status:      complaints.StatusPending,
		Priority:    complaints.PriorityMedium,
	}
}

func newTestStore(remote Remote, cache Cache) *Store {
	return NewStore(context.Background(), remote, cache, logger.Discard())
}

func TestAdd_AssignsIDAndInsertsAtHead(t *testing.T) {
	remote := newFakeRemote()
	cache := &memCache{}
	s := newTestStore(remote, cache)

	first, err := s.Add(context.Background(), complaint("", "2026-03-01"))
	if err != nil {
		t.Fatalf("add: %v", err)
	}
	if first.ID == "" || first.Unsynced {
		t.Fatalf("expected synced record with id, got %+v", first)
	}
	second, _ := s.Add(context.Background(), complaint("", "2026-03-02"))
	snap := s.Snapshot()
	if len(snap) != 2 || snap[0].ID != second.ID {
		t.Fatalf("expected newest at head, got %+v", snap)
	}
	if len(cache.records) != 2 {
		t.Fatalf("expected cache to hold both records, got %d", len(cache.records))
	}
}

func TestAdd_RemoteFailureKeepsRecordUnsynced(t *testing.T) {
	remote := newFakeRemote()
	remote.failAll = true
	s := newTestStore(remote, &memCache{})

	rec, err := s.Add(context.Background(), complaint("c-1", "2026-03-01"))
	var te *TransportError
	if !errors.As(err, &te) || !te.Retryable() {
		t.Fatalf("expected retryable transport error, got %v", err)
	}
	if !rec.Unsynced || len(s.Unsynced()) != 1 {
		t.Fatalf("expected record kept unsynced, got %+v", s.Snapshot())
	}

	remote.failAll = false
	rep := s.Sync(context.Background())
	if rep.Attempted != 1 || len(rep.Succeeded) != 1 || !rep.Complete() {
		t.Fatalf("unexpected sync report: %+v", rep)
	}
	if len(s.Unsynced()) != 0 {
		t.Fatalf("expected nothing left to sync")
	}
}

func TestUpdate_IsIdempotent(t *testing.T) {
	remote := newFakeRemote()
	s := newTestStore(remote, nil)
	fixed := time.Date(2026, 3, 5, 9, 0, 0, 0, time.UTC)
	s.clock = func() time.Time { return fixed }

	_, _ = s.Add(context.Background(), complaint("c-1", "2026-03-01"))
	res := complaints.Resolution{Status: complaints.StatusResolved, Response: "Repuesto", ResolvedBy: "maria"}

	a, err := s.Update(context.Background(), "c-1", res)
	if err != nil {
		t.Fatalf("first update: %v", err)
	}
	s.clock = func() time.Time { return fixed.Add(time.Hour) }
	b, err := s.Update(context.Background(), "c-1", res)
	if err != nil {
		t.Fatalf("second update: %v", err)
	}
	if a.Complaint != b.Complaint {
		t.Fatalf("expected equal records:\n%+v\n%+v", a, b)
	}
	if remote.updates != 2 {
		t.Fatalf("expected patch per update, got %d", remote.updates)
	}
}

func TestUpdate_MissingRecord(t *testing.T) {
	s := newTestStore(newFakeRemote(), nil)
	_, err := s.Update(context.Background(), "nope", complaints.Resolution{Status: complaints.StatusResolved})
	if !errors.Is(err, complaints.ErrNotFound) {
		t.Fatalf("expected ErrNotFound, got %v", err)
	}
}

func TestUpdate_UnsyncedRecordIsSentWhole(t *testing.T) {
	remote := newFakeRemote()
	remote.failAll = true
	s := newTestStore(remote, nil)
	_, _ = s.Add(context.Background(), complaint("c-1", "2026-03-01"))

	remote.failAll = false
	rec, err := s.Update(context.Background(), "c-1", complaints.Resolution{Status: complaints.StatusInProcess})
	if err != nil {
		t.Fatalf("update: %v", err)
	}
	if rec.Unsynced || remote.stored["c-1"].Status != complaints.StatusInProcess {
		t.Fatalf("expected backend to hold the updated record, got %+v", remote.stored["c-1"])
	}
}

func TestFetch_OfflineReturnsSnapshotUnchanged(t *testing.T) {
	remote := newFakeRemote()
	s := newTestStore(remote, nil)
	_, _ = s.Add(context.Background(), complaint("c-1", "2026-03-01"))
	before := s.Snapshot()

	remote.failAll = true
	got, fresh := s.Fetch(context.Background(), complaints.Range{})
	if fresh {
		t.Fatalf("expected stale result")
	}
	if len(got) != len(before) || got[0] != before[0] {
		t.Fatalf("expected unchanged snapshot, got %+v", got)
	}
}

func TestFetch_UnsyncedLocalEditsWin(t *testing.T) {
	remote := newFakeRemote()
	remote.stored["c-1"] = complaint("c-1", "2026-03-01")
	remote.stored["c-2"] = complaint("c-2", "2026-03-02")
	s := newTestStore(remote, nil)

	remote.failAll = true
	_, _ = s.Add(context.Background(), complaint("local", "2026-03-03"))
	edited := complaint("c-1", "2026-03-01")
	edited.Status = complaints.StatusResolved
	_, _ = s.Add(context.Background(), edited)
	remote.failAll = false

	got, fresh := s.Fetch(context.Background(), complaints.Range{})
	if !fresh || len(got) != 3 {
		t.Fatalf("expected 3 fresh records, got %v %+v", fresh, got)
	}
	if got[0].ID != "local" || !got[0].Unsynced {
		t.Fatalf("expected local-only record kept at head, got %+v", got[0])
	}
	for _, r := range got {
		if r.ID == "c-1" && r.Status != complaints.StatusResolved {
			t.Fatalf("expected unsynced local edit to win, got %s", r.Status)
		}
	}
}

func TestFetch_LatestRequestWins(t *testing.T) {
	remote := newFakeRemote()
	remote.stored["c-1"] = complaint("c-1", "2026-03-01")
	s := newTestStore(remote, nil)

	// A second fetch starts while the first is in flight.
	inner := true
	remote.listHook = func() {
		if inner {
			inner = false
			if _, fresh := s.Fetch(context.Background(), complaints.Range{From: "2026-03-01"}); !fresh {
				t.Errorf("expected newer fetch to apply")
			}
		}
	}
	_, fresh := s.Fetch(context.Background(), complaints.Range{})
	if fresh {
		t.Fatalf("expected superseded fetch to be discarded")
	}
	if len(s.Snapshot()) != 1 {
		t.Fatalf("expected newer fetch result in place, got %+v", s.Snapshot())
	}
}

func TestBulkMigrate_PartialFailureKeepsEverything(t *testing.T) {
	remote := newFakeRemote()
	remote.failIDs["b"] = true
	remote.failIDs["d"] = true
	s := newTestStore(remote, nil)

	var batch []complaints.Complaint
	for _, id := range []string{"a", "b", "c", "d", "e"} {
		batch = append(batch, complaint(id, "2026-03-01"))
	}
	rep := s.BulkMigrate(context.Background(), batch)

	if rep.Attempted != 5 || len(rep.Succeeded) != 3 || len(rep.Failed) != 2 {
		t.Fatalf("unexpected report: %+v", rep)
	}
	if len(s.Snapshot()) != 5 {
		t.Fatalf("expected all 5 records kept locally, got %d", len(s.Snapshot()))
	}
	if len(s.Unsynced()) != 2 {
		t.Fatalf("expected failed records left unsynced, got %+v", s.Unsynced())
	}
}

func TestRecordCampaign_ReplacesSameDay(t *testing.T) {
	remote := newFakeRemote()
	cache := &memCache{}
	s := newTestStore(remote, cache)

	_, _ = s.RecordCampaign(context.Background(), campaign.DailyStats{Date: "2026-03-01", CallsMade: 10, Answered: 6, Unanswered: 4})
	_, err := s.RecordCampaign(context.Background(), campaign.DailyStats{Date: "2026-03-01", CallsMade: 12, Answered: 8, Unanswered: 4})
	if err != nil {
		t.Fatalf("record: %v", err)
	}
	if days := s.Campaign(); len(days) != 1 || days[0].CallsMade != 12 {
		t.Fatalf("expected single replaced day, got %+v", days)
	}
	if len(cache.days) != 1 {
		t.Fatalf("expected campaign cached, got %+v", cache.days)
	}

	remote.failAll = true
	if _, err := s.RecordCampaign(context.Background(), campaign.DailyStats{Date: "2026-03-02"}); !IsTransport(err) {
		t.Fatalf("expected transport error, got %v", err)
	}
	if len(s.Campaign()) != 2 {
		t.Fatalf("expected day kept locally despite failure")
	}
}

func TestNewStore_LoadsCache(t *testing.T) {
	cache := &memCache{records: []Record{{Complaint: complaint("cached", "2026-03-01"), Unsynced: true}}}
	s := newTestStore(nil, cache)
	if len(s.Unsynced()) != 1 {
		t.Fatalf("expected cached unsynced record, got %+v", s.Snapshot())
	}
	if rep := s.Sync(context.Background()); len(rep.Failed) != 1 {
		t.Fatalf("expected sync without backend to fail the record, got %+v", rep)
	}
}

type stubAnalyzer struct {
	res   analysis.Result
	err   error
	delay time.Duration
}

func (a stubAnalyzer) Analyze(ctx context.Context, _ string) (analysis.Result, error) {
	select {
	case <-time.After(a.delay):
	case <-ctx.Done():
		return analysis.Result{}, ctx.Err()
	}
	return a.res, a.err
}

func TestIntake_ValidationBlocksBeforeStore(t *testing.T) {
	remote := newFakeRemote()
	s := newTestStore(remote, nil)
	in := NewIntake(s, nil, time.Second)

	_, err := in.Submit(context.Background(), complaints.Complaint{
		PatientName: "Ana", Area: "Cardiología", Description: "Sin médico",
	})
	if !complaints.IsValidation(err) {
		t.Fatalf("expected validation error, got %v", err)
	}
	if len(s.Snapshot()) != 0 || len(remote.stored) != 0 {
		t.Fatalf("expected nothing stored")
	}

	rec, err := in.Submit(context.Background(), complaints.Complaint{
		PatientName: "Ana", Area: "Laboratorio", Description: "Demora",
	})
	if err != nil {
		t.Fatalf("submit: %v", err)
	}
	if rec.DoctorName != complaints.DoctorPlaceholder || rec.Priority != complaints.PriorityMedium {
		t.Fatalf("unexpected record: %+v", rec)
	}
}

func TestIntake_AnalysisEnrichesOrDegrades(t *testing.T) {
	s := newTestStore(newFakeRemote(), nil)
	draft := complaints.Complaint{PatientName: "Ana", Area: "Farmacia", Description: "Trato grosero"}

	in := NewIntake(s, stubAnalyzer{res: analysis.Result{
		Sentiment: "negativo", SuggestedResponse: "Disculpas", Priority: complaints.PriorityHigh,
	}}, time.Second)
	rec, err := in.Submit(context.Background(), draft)
	if err != nil {
		t.Fatalf("submit: %v", err)
	}
	if rec.Sentiment != "negativo" || rec.Priority != complaints.PriorityHigh {
		t.Fatalf("expected enrichment, got %+v", rec)
	}

	slow := NewIntake(s, stubAnalyzer{delay: time.Second}, 20*time.Millisecond)
	rec, err = slow.Submit(context.Background(), draft)
	if err != nil {
		t.Fatalf("submit with slow analyzer: %v", err)
	}
	if rec.Sentiment != "" || rec.Priority != complaints.PriorityMedium {
		t.Fatalf("expected degraded defaults, got %+v", rec)
	}

	explicit := draft
	explicit.Priority = complaints.PriorityLow
	rec, _ = in.Submit(context.Background(), explicit)
	if rec.Priority != complaints.PriorityLow {
		t.Fatalf("expected operator priority kept, got %s", rec.Priority)
	}
}
