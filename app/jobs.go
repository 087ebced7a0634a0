package app

import (
	"context"

	"dockwatch/domain/core"
	"dockwatch/domain/docking"
	"dockwatch/internal"
	"dockwatch/ports"
)

// JobService fronts the docking backend. It owns submission, refresh and
// result materialization; every record it touches flows through the store.
type JobService struct {
	backend ports.DockingBackend
	store   *JobStore
	watcher *Watcher
	log     *internal.Logger
}

// NewJobService wires the service. watcher may be nil when live status
// channels are disabled.
func NewJobService(backend ports.DockingBackend, store *JobStore, watcher *Watcher, log *internal.Logger) *JobService {
	return &JobService{backend: backend, store: store, watcher: watcher, log: log}
}

// Submit sends a new job upstream, tracks it and opens its status channel.
func (s *JobService) Submit(ctx context.Context, sub ports.JobSubmission) (docking.JobRecord, error) {
	job, err := s.backend.SubmitJob(ctx, sub)
	if err != nil {
		return docking.JobRecord{}, err
	}
	s.store.Track(ctx, job)
	if s.watcher != nil {
		s.watcher.Watch(job.ID)
	}
	return job, nil
}

// Get returns the current record for a job. Terminal records are served from
// the store; anything still in flight is refreshed from the backend first.
// When the backend is unreachable the last known snapshot is returned.
func (s *JobService) Get(ctx context.Context, id core.JobID) (docking.JobRecord, error) {
	cached, known := s.store.Snapshot(id)
	if known && cached.Status.Terminal() {
		return cached, nil
	}

	fresh, err := s.backend.FetchJob(ctx, id)
	if err != nil {
		if known {
			s.log.Warn("refresh of job %s failed, serving last known state: %v", id, err)
			return cached, nil
		}
		return docking.JobRecord{}, err
	}
	merged, _ := s.store.Merge(ctx, fresh)
	return merged, nil
}

// List returns every tracked job, oldest first.
func (s *JobService) List(ctx context.Context) []docking.JobRecord {
	return s.store.SnapshotAll()
}

// Results returns the job's ligand result sets, fetching them from the
// backend on first access and caching them on the record.
func (s *JobService) Results(ctx context.Context, id core.JobID) ([]docking.LigandResultSet, error) {
	job, err := s.Get(ctx, id)
	if err != nil {
		return nil, err
	}
	if len(job.Ligands) > 0 {
		return job.Ligands, nil
	}

	sets, err := s.backend.FetchResults(ctx, id)
	if err != nil {
		return nil, err
	}
	cached, err := s.store.AttachResults(ctx, id, sets)
	if err != nil {
		return nil, err
	}
	return cached.Ligands, nil
}

// Analyze forwards an AI analysis request for a job. The response is an
// opaque payload; nothing downstream depends on its shape.
func (s *JobService) Analyze(ctx context.Context, id core.JobID, request []byte) (docking.AnalysisBlob, error) {
	if _, err := s.Get(ctx, id); err != nil {
		return docking.AnalysisBlob{}, err
	}
	return s.backend.RequestAnalysis(ctx, id, request)
}

// GenerateReport asks the backend for a job's markdown report.
func (s *JobService) GenerateReport(ctx context.Context, id core.JobID, request []byte) (string, error) {
	return s.backend.GenerateReport(ctx, id, request)
}
