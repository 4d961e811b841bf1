// Package desk is the client side of the complaints desk: a local record
// collection that writes through to the backend and keeps working offline.
package desk

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"quality-desk/internal/campaign"
	"quality-desk/internal/complaints"

	"github.com/google/uuid"
)

// Record is a complaint plus its local sync state.
type Record struct {
	complaints.Complaint
	Unsynced bool `json:"unsynced,omitempty"`
}

// Remote is the backend as the desk sees it.
type Remote interface {
	CreateComplaint(ctx context.Context, c complaints.Complaint) error
	UpdateComplaint(ctx context.Context, id string, r complaints.Resolution) error
	ListComplaints(ctx context.Context, r complaints.Range) ([]complaints.Complaint, error)
	RecordCampaign(ctx context.Context, d campaign.DailyStats) error
}

// Cache persists the collections between runs.
type Cache interface {
	LoadComplaints(ctx context.Context) ([]Record, error)
	SaveComplaints(ctx context.Context, records []Record) error
	LoadCampaign(ctx context.Context) ([]campaign.DailyStats, error)
	SaveCampaign(ctx context.Context, days []campaign.DailyStats) error
}

// Store holds complaints newest-first. Writes land locally first and are
// marked unsynced until the backend acknowledges them; nothing retries in
// the background.
type Store struct {
	remote Remote
	cache  Cache
	log    *slog.Logger
	clock  func() time.Time

	mu       sync.Mutex
	records  []Record
	days     []campaign.DailyStats
	fetchSeq uint64
}

// NewStore loads the cached collections. A cache read failure starts the
// store empty rather than failing.
func NewStore(ctx context.Context, remote Remote, cache Cache, log *slog.Logger) *Store {
	if log == nil {
		log = slog.Default()
	}
	s := &Store{remote: remote, cache: cache, log: log, clock: time.Now}
	if cache != nil {
		if recs, err := cache.LoadComplaints(ctx); err != nil {
			log.Warn("complaint cache unreadable, starting empty", "err", err)
		} else {
			s.records = recs
		}
		if days, err := cache.LoadCampaign(ctx); err != nil {
			log.Warn("campaign cache unreadable, starting empty", "err", err)
		} else {
			s.days = days
		}
	}
	return s
}

// Snapshot returns a copy of the local collection.
func (s *Store) Snapshot() []Record {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]Record(nil), s.records...)
}

// Unsynced lists records the backend has not acknowledged, oldest first.
func (s *Store) Unsynced() []Record {
	s.mu.Lock()
	defer s.mu.Unlock()
	var out []Record
	for i := len(s.records) - 1; i >= 0; i-- {
		if s.records[i].Unsynced {
			out = append(out, s.records[i])
		}
	}
	return out
}

// Add inserts c at the head and pushes it. On a push failure the record
// stays local and unsynced and the error is returned for the caller to
// decide about retrying.
func (s *Store) Add(ctx context.Context, c complaints.Complaint) (Record, error) {
	if c.ID == "" {
		c.ID = uuid.NewString()
	}
	rec := Record{Complaint: c, Unsynced: true}

	s.mu.Lock()
	s.records = append([]Record{rec}, without(s.records, c.ID)...)
	s.persistLocked(ctx)
	s.mu.Unlock()

	if err := s.push(ctx, "add", func() error { return s.remote.CreateComplaint(ctx, c) }); err != nil {
		return rec, err
	}
	rec.Unsynced = false
	s.markSynced(ctx, c.ID)
	return rec, nil
}

// Update merges res into the record with id and pushes the change.
// Applying the same resolution twice yields the same record.
func (s *Store) Update(ctx context.Context, id string, res complaints.Resolution) (Record, error) {
	s.mu.Lock()
	i := indexOf(s.records, id)
	if i < 0 {
		s.mu.Unlock()
		return Record{}, complaints.ErrNotFound
	}
	prev := s.records[i]
	next, err := complaints.ApplyResolution(prev.Complaint, res, s.clock())
	if err != nil {
		s.mu.Unlock()
		return Record{}, err
	}
	rec := Record{Complaint: next, Unsynced: true}
	s.records[i] = rec
	s.persistLocked(ctx)
	s.mu.Unlock()

	push := func() error { return s.remote.UpdateComplaint(ctx, id, res) }
	if prev.Unsynced {
		// The backend may never have seen it; send the whole record.
		push = func() error { return s.remote.CreateComplaint(ctx, next) }
	}
	if err := s.push(ctx, "update", push); err != nil {
		return rec, err
	}
	rec.Unsynced = false
	s.markSynced(ctx, id)
	return rec, nil
}

// Fetch refreshes the collection from the backend. It never fails: when the
// backend cannot be reached, or a newer Fetch started meanwhile, the current
// local snapshot comes back with fresh=false.
func (s *Store) Fetch(ctx context.Context, r complaints.Range) (records []Record, fresh bool) {
	if err := complaints.ValidateRange(r); err != nil {
		s.log.Warn("fetch skipped", "err", err)
		return s.Snapshot(), false
	}
	s.mu.Lock()
	s.fetchSeq++
	seq := s.fetchSeq
	s.mu.Unlock()

	if s.remote == nil {
		return s.Snapshot(), false
	}
	list, err := s.remote.ListComplaints(ctx, r)

	s.mu.Lock()
	defer s.mu.Unlock()
	if err != nil {
		s.log.Info("backend unreachable, serving local snapshot", "err", err)
		return append([]Record(nil), s.records...), false
	}
	if seq != s.fetchSeq {
		s.log.Debug("discarding superseded fetch", "seq", seq, "latest", s.fetchSeq)
		return append([]Record(nil), s.records...), false
	}
	s.records = merge(s.records, list)
	s.persistLocked(ctx)
	return append([]Record(nil), s.records...), true
}

// Sync pushes every unsynced record, oldest first.
func (s *Store) Sync(ctx context.Context) MigrationReport {
	var rep MigrationReport
	for _, rec := range s.Unsynced() {
		s.pushOne(ctx, "sync", rec.Complaint, &rep)
	}
	return rep
}

// BulkMigrate sends records one at a time and keeps going past failures.
// Every record stays in the local collection whatever the outcome.
func (s *Store) BulkMigrate(ctx context.Context, records []complaints.Complaint) MigrationReport {
	var rep MigrationReport
	for _, c := range records {
		if c.ID == "" {
			c.ID = uuid.NewString()
		}
		s.mu.Lock()
		if i := indexOf(s.records, c.ID); i >= 0 {
			s.records[i] = Record{Complaint: c, Unsynced: true}
		} else {
			s.records = append([]Record{{Complaint: c, Unsynced: true}}, s.records...)
		}
		s.persistLocked(ctx)
		s.mu.Unlock()

		s.pushOne(ctx, "migrate", c, &rep)
	}
	s.log.Info("migration finished", "attempted", rep.Attempted, "succeeded", len(rep.Succeeded), "failed", len(rep.Failed))
	return rep
}

func (s *Store) pushOne(ctx context.Context, op string, c complaints.Complaint, rep *MigrationReport) {
	rep.Attempted++
	if err := s.push(ctx, op, func() error { return s.remote.CreateComplaint(ctx, c) }); err != nil {
		s.log.Warn("record not pushed", "op", op, "id", c.ID, "err", err)
		rep.Failed = append(rep.Failed, c.ID)
		return
	}
	s.markSynced(ctx, c.ID)
	rep.Succeeded = append(rep.Succeeded, c.ID)
}

// Campaign returns the local campaign log.
func (s *Store) Campaign() []campaign.DailyStats {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]campaign.DailyStats(nil), s.days...)
}

// RecordCampaign stores one day's figures locally, replacing the same day,
// then posts them.
func (s *Store) RecordCampaign(ctx context.Context, d campaign.DailyStats) (campaign.DailyStats, error) {
	d, err := campaign.Normalize(d, s.clock())
	if err != nil {
		return campaign.DailyStats{}, err
	}
	s.mu.Lock()
	replaced := false
	for i := range s.days {
		if s.days[i].Date == d.Date {
			s.days[i] = d
			replaced = true
		}
	}
	if !replaced {
		s.days = append([]campaign.DailyStats{d}, s.days...)
	}
	if s.cache != nil {
		if err := s.cache.SaveCampaign(ctx, s.days); err != nil {
			s.log.Warn("campaign cache write failed", "err", err)
		}
	}
	s.mu.Unlock()

	return d, s.push(ctx, "campaign", func() error { return s.remote.RecordCampaign(ctx, d) })
}

func (s *Store) push(ctx context.Context, op string, fn func() error) error {
	if s.remote == nil {
		return &TransportError{Op: op, Err: errors.New("no backend configured")}
	}
	if err := fn(); err != nil {
		if IsTransport(err) {
			return err
		}
		return fmt.Errorf("desk: %s: %w", op, err)
	}
	return nil
}

func (s *Store) markSynced(ctx context.Context, id string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if i := indexOf(s.records, id); i >= 0 {
		s.records[i].Unsynced = false
		s.persistLocked(ctx)
	}
}

func (s *Store) persistLocked(ctx context.Context) {
	if s.cache == nil {
		return
	}
	if err := s.cache.SaveComplaints(ctx, s.records); err != nil {
		s.log.Warn("complaint cache write failed", "err", err)
	}
}

// merge takes the backend list as authoritative except for records with
// local unsynced edits, which win and are never dropped.
func merge(local []Record, remote []complaints.Complaint) []Record {
	pending := map[string]Record{}
	for _, r := range local {
		if r.Unsynced {
			pending[r.ID] = r
		}
	}
	out := make([]Record, 0, len(remote)+len(pending))
	for _, c := range remote {
		if p, ok := pending[c.ID]; ok {
			out = append(out, p)
			delete(pending, c.ID)
			continue
		}
		out = append(out, Record{Complaint: c})
	}
	for _, r := range local {
		if _, ok := pending[r.ID]; ok {
			out = append(out, r)
		}
	}
	sortRecords(out)
	return out
}

func sortRecords(list []Record) {
	cs := make([]complaints.Complaint, len(list))
	byID := make(map[string]Record, len(list))
	for i, r := range list {
		cs[i] = r.Complaint
		byID[r.ID] = r
	}
	complaints.SortNewestFirst(cs)
	for i, c := range cs {
		list[i] = byID[c.ID]
	}
}

func indexOf(list []Record, id string) int {
	for i := range list {
		if list[i].ID == id {
			return i
		}
	}
	return -1
}

func without(list []Record, id string) []Record {
	i := indexOf(list, id)
	if i < 0 {
		return list
	}
	out := make([]Record, 0, len(list)-1)
	out = append(out, list[:i]...)
	return append(out, list[i+1:]...)
}
