package ports

import (
	"context"

	"dockwatch/domain/core"
	"dockwatch/domain/docking"
)

// JobSubmission carries the multipart inputs for a new docking job.
type JobSubmission struct {
	JobName         string
	ProteinPDB      []byte
	ProteinSequence string
	LigandFiles     map[string][]byte
	Parameters      map[string]interface{}
}

// DockingBackend is the upstream compute service. All calls go through the
// resilient HTTP client; callers never re-retry a returned error.
type DockingBackend interface {
	SubmitJob(ctx context.Context, sub JobSubmission) (docking.JobRecord, error)
	FetchJob(ctx context.Context, id core.JobID) (docking.JobRecord, error)
	FetchResults(ctx context.Context, id core.JobID) ([]docking.LigandResultSet, error)
	RequestAnalysis(ctx context.Context, id core.JobID, request []byte) (docking.AnalysisBlob, error)
	GenerateReport(ctx context.Context, id core.JobID, request []byte) (string, error)
}
