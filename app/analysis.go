package app

import (
	"context"

	"golang.org/x/sync/errgroup"

	"dockwatch/domain/analysis"
	"dockwatch/domain/core"
	"dockwatch/domain/docking"
	"dockwatch/internal"
)

// JobStatistics bundles the distribution summary with per-ligand rows.
type JobStatistics struct {
	JobID        core.JobID                   `json:"job_id"`
	Distribution analysis.DistributionSummary `json:"distribution"`
	Ligands      []analysis.LigandAggregate   `json:"ligands"`
}

// AnalysisService runs the statistical engines over store snapshots.
// It is stateless; every call recomputes from current data.
type AnalysisService struct {
	jobs *JobService
	log  *internal.Logger
}

func NewAnalysisService(jobs *JobService, log *internal.Logger) *AnalysisService {
	return &AnalysisService{jobs: jobs, log: log}
}

// Statistics computes the score distribution for one job's pooled
// measurements plus the per-ligand aggregates.
func (s *AnalysisService) Statistics(ctx context.Context, id core.JobID) (JobStatistics, error) {
	sets, err := s.jobs.Results(ctx, id)
	if err != nil {
		return JobStatistics{}, err
	}
	job, ok := s.jobs.store.Snapshot(id)
	if !ok {
		return JobStatistics{}, core.NewNotFoundError("job", string(id))
	}
	summary, err := analysis.Summarize(job.Measurements())
	if err != nil {
		return JobStatistics{}, err
	}
	return JobStatistics{
		JobID:        id,
		Distribution: summary,
		Ligands:      analysis.AggregateLigands(sets),
	}, nil
}

// Compare materializes results for every requested job concurrently, then
// runs the comparative engine over snapshots in the order supplied.
func (s *AnalysisService) Compare(ctx context.Context, ids []core.JobID) (analysis.ComparisonResult, error) {
	if len(ids) < 2 {
		return analysis.ComparisonResult{}, core.ErrInsufficientData
	}

	g, gctx := errgroup.WithContext(ctx)
	for _, id := range ids {
		id := id
		g.Go(func() error {
			_, err := s.jobs.Results(gctx, id)
			return err
		})
	}
	if err := g.Wait(); err != nil {
		return analysis.ComparisonResult{}, err
	}

	jobs := make([]docking.JobRecord, 0, len(ids))
	for _, id := range ids {
		job, ok := s.jobs.store.Snapshot(id)
		if !ok {
			return analysis.ComparisonResult{}, core.NewNotFoundError("job", string(id))
		}
		jobs = append(jobs, job)
	}
	return analysis.CompareJobs(jobs)
}

// Trend analyzes best scores across every tracked job over time.
func (s *AnalysisService) Trend(ctx context.Context) (analysis.TrendResult, error) {
	return analysis.AnalyzeTrend(s.jobs.List(ctx))
}
