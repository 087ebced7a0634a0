package docking

import (
	"encoding/json"
	"math"

	"dockwatch/domain/core"
)

// JobStatus tracks a job through the submission -> docking -> analysis pipeline
type JobStatus string

const (
	StatusQueued              JobStatus = "queued"
	StatusRunning             JobStatus = "running"
	StatusPredictingStructure JobStatus = "predicting_structure"
	StatusStructurePredicted  JobStatus = "structure_predicted"
	StatusDocking             JobStatus = "docking"
	StatusAnalyzing           JobStatus = "analyzing"
	StatusCompleted           JobStatus = "completed"
	StatusFailed              JobStatus = "failed"
)

// Terminal reports whether the status is final. Terminal jobs are immutable.
func (s JobStatus) Terminal() bool {
	return s == StatusCompleted || s == StatusFailed
}

// Valid reports whether s is one of the known statuses.
func (s JobStatus) Valid() bool {
	switch s {
	case StatusQueued, StatusRunning, StatusPredictingStructure,
		StatusStructurePredicted, StatusDocking, StatusAnalyzing,
		StatusCompleted, StatusFailed:
		return true
	}
	return false
}

// BindingMeasurement is one scored pose from the docking engine.
// Score is kcal/mol; lower means stronger binding. Immutable once produced.
type BindingMeasurement struct {
	Score          float64  `json:"score"`
	RMSDLowerBound *float64 `json:"rmsd_lower_bound,omitempty"`
	RMSDUpperBound *float64 `json:"rmsd_upper_bound,omitempty"`
	ClusterID      int      `json:"cluster_id,omitempty"`
}

// LigandResultSet holds the ordered measurements for one ligand.
// A ligand with zero valid measurements carries an empty slice and is
// excluded from aggregates; it is never represented as score 0.
type LigandResultSet struct {
	Ligand       core.LigandName      `json:"ligand"`
	Measurements []BindingMeasurement `json:"measurements"`
}

// Best returns the minimum (strongest) score, false when there are no measurements.
func (l LigandResultSet) Best() (float64, bool) {
	if len(l.Measurements) == 0 {
		return 0, false
	}
	best := l.Measurements[0].Score
	for _, m := range l.Measurements[1:] {
		if m.Score < best {
			best = m.Score
		}
	}
	return best, true
}

// JobRecord is the canonical job representation owned by the job store.
// Engines receive deep-copied snapshots and must not mutate them.
type JobRecord struct {
	ID              core.JobID        `json:"job_id"`
	Name            string            `json:"job_name,omitempty"`
	Status          JobStatus         `json:"status"`
	CreatedAt       core.Timestamp    `json:"created_at"`
	CompletedAt     *core.Timestamp   `json:"completed_at,omitempty"`
	BestScore       *float64          `json:"best_score,omitempty"`
	PLDDTScore      *float64          `json:"plddt_score,omitempty"`
	Error           string            `json:"error,omitempty"`
	Progress        *float64          `json:"progress,omitempty"`
	ProgressMessage string            `json:"progress_message,omitempty"`
	Ligands         []LigandResultSet `json:"ligands,omitempty"`
}

// Measurements pools every measurement across all ligands, preserving order.
func (j JobRecord) Measurements() []BindingMeasurement {
	var out []BindingMeasurement
	for _, l := range j.Ligands {
		out = append(out, l.Measurements...)
	}
	return out
}

// ResolveBestScore returns the explicit best score when present, otherwise
// the minimum over the job's measurements. The second return is false when
// neither is available.
func (j JobRecord) ResolveBestScore() (float64, bool) {
	if j.BestScore != nil && !math.IsNaN(*j.BestScore) {
		return *j.BestScore, true
	}
	best := math.Inf(1)
	found := false
	for _, m := range j.Measurements() {
		if m.Score < best {
			best = m.Score
			found = true
		}
	}
	if !found {
		return 0, false
	}
	return best, true
}

// Clone returns a deep copy safe to hand to consumers.
func (j JobRecord) Clone() JobRecord {
	out := j
	out.CompletedAt = clonePtr(j.CompletedAt)
	out.BestScore = clonePtr(j.BestScore)
	out.PLDDTScore = clonePtr(j.PLDDTScore)
	out.Progress = clonePtr(j.Progress)
	if j.Ligands != nil {
		out.Ligands = make([]LigandResultSet, len(j.Ligands))
		for i, l := range j.Ligands {
			set := LigandResultSet{Ligand: l.Ligand}
			if l.Measurements != nil {
				set.Measurements = make([]BindingMeasurement, len(l.Measurements))
				for k, m := range l.Measurements {
					c := m
					c.RMSDLowerBound = clonePtr(m.RMSDLowerBound)
					c.RMSDUpperBound = clonePtr(m.RMSDUpperBound)
					set.Measurements[k] = c
				}
			}
			out.Ligands[i] = set
		}
	}
	return out
}

func clonePtr[T any](p *T) *T {
	if p == nil {
		return nil
	}
	v := *p
	return &v
}

// AnalysisBlob carries an opaque payload from the external AI service.
// The schema tag identifies the producer; the content is never interpreted here.
type AnalysisBlob struct {
	Schema  string          `json:"schema"`
	Payload json.RawMessage `json:"payload"`
}
