package ports

import (
	"context"

	"dockwatch/domain/anchor"
	"dockwatch/domain/core"
	"dockwatch/domain/docking"
)

// JobRepository persists canonical job records.
// Implementations: adapters/postgres (sqlx) and the in-memory store used
// by tests and sample-data mode.
type JobRepository interface {
	SaveJob(ctx context.Context, job docking.JobRecord) error
	GetJob(ctx context.Context, id core.JobID) (docking.JobRecord, error)
	ListJobs(ctx context.Context) ([]docking.JobRecord, error)
}

// AnchorRepository persists anchoring attempts keyed by anchor ID.
type AnchorRepository interface {
	SaveAnchor(ctx context.Context, rec anchor.Record) error
	GetAnchorByJob(ctx context.Context, jobID core.JobID) (anchor.Record, error)
}
