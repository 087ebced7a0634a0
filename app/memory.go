package app

import (
	"context"
	"sync"

	"dockwatch/domain/anchor"
	"dockwatch/domain/core"
	"dockwatch/domain/docking"
	"dockwatch/ports"
)

// MemoryJobRepository is the in-memory ports.JobRepository used when no
// database is configured and by tests.
type MemoryJobRepository struct {
	mu   sync.RWMutex
	jobs map[core.JobID]docking.JobRecord
}

var _ ports.JobRepository = (*MemoryJobRepository)(nil)

func NewMemoryJobRepository() *MemoryJobRepository {
	return &MemoryJobRepository{jobs: make(map[core.JobID]docking.JobRecord)}
}

func (r *MemoryJobRepository) SaveJob(_ context.Context, job docking.JobRecord) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.jobs[job.ID] = job.Clone()
	return nil
}

func (r *MemoryJobRepository) GetJob(_ context.Context, id core.JobID) (docking.JobRecord, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	job, ok := r.jobs[id]
	if !ok {
		return docking.JobRecord{}, core.NewNotFoundError("job", string(id))
	}
	return job.Clone(), nil
}

func (r *MemoryJobRepository) ListJobs(_ context.Context) ([]docking.JobRecord, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	out := make([]docking.JobRecord, 0, len(r.jobs))
	for _, job := range r.jobs {
		out = append(out, job.Clone())
	}
	return out, nil
}

// MemoryAnchorRepository is the in-memory ports.AnchorRepository counterpart.
// It keeps the most recent record per job.
type MemoryAnchorRepository struct {
	mu      sync.RWMutex
	byJob   map[core.JobID]anchor.Record
	records map[core.AnchorID]anchor.Record
}

var _ ports.AnchorRepository = (*MemoryAnchorRepository)(nil)

func NewMemoryAnchorRepository() *MemoryAnchorRepository {
	return &MemoryAnchorRepository{
		byJob:   make(map[core.JobID]anchor.Record),
		records: make(map[core.AnchorID]anchor.Record),
	}
}

func (r *MemoryAnchorRepository) SaveAnchor(_ context.Context, rec anchor.Record) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.records[rec.ID] = rec
	current, ok := r.byJob[rec.JobID]
	if !ok || !rec.CreatedAt.Before(current.CreatedAt) {
		r.byJob[rec.JobID] = rec
	}
	return nil
}

func (r *MemoryAnchorRepository) GetAnchorByJob(_ context.Context, jobID core.JobID) (anchor.Record, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	rec, ok := r.byJob[jobID]
	if !ok {
		return anchor.Record{}, core.ErrAnchorNotFound
	}
	return rec, nil
}
