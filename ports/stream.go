package ports

import (
	"dockwatch/domain/core"
	"dockwatch/domain/docking"
)

// StatusStream is one live status channel for a single job. Updates carries
// JobRecord fragments already stamped with the channel's job ID; malformed
// frames are dropped upstream and never appear here.
type StatusStream interface {
	JobID() core.JobID
	Updates() <-chan docking.JobRecord
	// Close tears the channel down. Idempotent.
	Close() error
}

// StreamDialer opens a status stream for a job in a non-terminal state.
type StreamDialer interface {
	Dial(jobID core.JobID) (StatusStream, error)
}
