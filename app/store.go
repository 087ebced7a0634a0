package app

import (
	"context"
	"sort"
	"sync"

	"dockwatch/domain/core"
	"dockwatch/domain/docking"
	"dockwatch/internal"
	"dockwatch/ports"
)

// JobStore is the canonical owner of JobRecords. Poll responses and stream
// fragments both land here through Merge, which applies last-write-wins per
// job. Everything handed out is a deep copy; engines never see shared state.
type JobStore struct {
	mu   sync.RWMutex
	jobs map[core.JobID]docking.JobRecord

	// repo is an optional write-behind persistence sink. A failed save is
	// logged, not surfaced: the in-memory record stays authoritative.
	repo ports.JobRepository
	log  *internal.Logger
}

// NewJobStore creates a store. repo may be nil for memory-only operation.
func NewJobStore(repo ports.JobRepository, log *internal.Logger) *JobStore {
	return &JobStore{
		jobs: make(map[core.JobID]docking.JobRecord),
		repo: repo,
		log:  log,
	}
}

// Track inserts a freshly submitted job, replacing any previous record
// under the same ID.
func (s *JobStore) Track(ctx context.Context, job docking.JobRecord) {
	s.mu.Lock()
	s.jobs[job.ID] = job.Clone()
	s.mu.Unlock()
	s.persist(ctx, job)
}

// Merge folds a status update into the canonical record. Updates arrive from
// polls and stream fragments in arbitrary order; the latest applied write
// wins. Updates against a terminal record are discarded, and the returned
// bool reports whether anything changed.
func (s *JobStore) Merge(ctx context.Context, update docking.JobRecord) (docking.JobRecord, bool) {
	s.mu.Lock()
	existing, ok := s.jobs[update.ID]
	if !ok {
		s.jobs[update.ID] = update.Clone()
		s.mu.Unlock()
		s.persist(ctx, update)
		return update.Clone(), true
	}
	if existing.Status.Terminal() {
		out := existing.Clone()
		s.mu.Unlock()
		return out, false
	}

	merged := mergeRecords(existing, update)
	s.jobs[update.ID] = merged
	out := merged.Clone()
	s.mu.Unlock()
	s.persist(ctx, merged)
	return out, true
}

// AttachResults fills in a job's ligand result sets once fetched from the
// backend. Results are the job's own output, so terminal records accept them;
// an already populated record is left alone.
func (s *JobStore) AttachResults(ctx context.Context, id core.JobID, sets []docking.LigandResultSet) (docking.JobRecord, error) {
	s.mu.Lock()
	existing, ok := s.jobs[id]
	if !ok {
		s.mu.Unlock()
		return docking.JobRecord{}, core.NewNotFoundError("job", string(id))
	}
	if len(existing.Ligands) == 0 {
		existing.Ligands = sets
		existing = existing.Clone()
		s.jobs[id] = existing
	}
	out := existing.Clone()
	s.mu.Unlock()
	s.persist(ctx, existing)
	return out, nil
}

// Snapshot returns a deep copy of one job.
func (s *JobStore) Snapshot(id core.JobID) (docking.JobRecord, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	job, ok := s.jobs[id]
	if !ok {
		return docking.JobRecord{}, false
	}
	return job.Clone(), true
}

// SnapshotAll returns deep copies of every tracked job, oldest first.
func (s *JobStore) SnapshotAll() []docking.JobRecord {
	s.mu.RLock()
	out := make([]docking.JobRecord, 0, len(s.jobs))
	for _, job := range s.jobs {
		out = append(out, job.Clone())
	}
	s.mu.RUnlock()
	sort.SliceStable(out, func(i, j int) bool {
		return out[i].CreatedAt.Before(out[j].CreatedAt)
	})
	return out
}

// Load seeds the store with records, typically from persistence or the
// sample data set. Existing records under the same IDs are replaced.
func (s *JobStore) Load(jobs []docking.JobRecord) {
	s.mu.Lock()
	for _, job := range jobs {
		s.jobs[job.ID] = job.Clone()
	}
	s.mu.Unlock()
}

func (s *JobStore) persist(ctx context.Context, job docking.JobRecord) {
	if s.repo == nil {
		return
	}
	if err := s.repo.SaveJob(ctx, job); err != nil {
		s.log.Warn("persisting job %s failed: %v", job.ID, err)
	}
}

// mergeRecords overlays the update onto the existing record. Fields the
// update does not carry keep their previous value, so a sparse stream
// fragment never erases data a fuller poll response brought in.
func mergeRecords(existing, update docking.JobRecord) docking.JobRecord {
	merged := existing.Clone()
	if update.Status.Valid() {
		merged.Status = update.Status
	}
	if update.Name != "" {
		merged.Name = update.Name
	}
	if !update.CreatedAt.IsZero() {
		merged.CreatedAt = update.CreatedAt
	}
	if update.CompletedAt != nil {
		ts := *update.CompletedAt
		merged.CompletedAt = &ts
	}
	if update.BestScore != nil {
		v := *update.BestScore
		merged.BestScore = &v
	}
	if update.PLDDTScore != nil {
		v := *update.PLDDTScore
		merged.PLDDTScore = &v
	}
	if update.Error != "" {
		merged.Error = update.Error
	}
	if update.Progress != nil {
		v := *update.Progress
		merged.Progress = &v
	}
	if update.ProgressMessage != "" {
		merged.ProgressMessage = update.ProgressMessage
	}
	if update.Ligands != nil {
		merged.Ligands = update.Clone().Ligands
	}
	return merged
}
