package backend

import (
	"encoding/json"
	"fmt"
	"math"
	"strings"
	"time"

	"dockwatch/domain/core"
	"dockwatch/domain/docking"
)

// The backend returns differently-shaped job objects depending on endpoint
// and version. Everything is reconciled here, at the boundary; heterogeneous
// shapes never leak past this file.

type rawJob struct {
	ID           string     `json:"id"`
	JobID        string     `json:"job_id"`
	JobName      string     `json:"job_name"`
	Status       string     `json:"status"`
	Error        string     `json:"error"`
	ErrorMessage string     `json:"error_message"`
	BestScore    *float64   `json:"best_score"`
	TopBinding   *float64   `json:"top_binding_score"`
	PLDDTScore   *float64   `json:"plddt_score"`
	Progress     *float64   `json:"progress"`
	ProgressMsg  string     `json:"progress_message"`
	CreatedAt    *time.Time `json:"created_at"`
	CompletedAt  *time.Time `json:"completed_at"`
}

type rawResults struct {
	Results []rawLigandResult `json:"results"`
}

type rawLigandResult struct {
	LigandName string    `json:"ligand_name"`
	Ligand     string    `json:"ligand"`
	Modes      []rawMode `json:"modes"`
}

type rawMode struct {
	Affinity  *float64 `json:"affinity"`
	RMSDLB    *float64 `json:"rmsd_lb"`
	RMSDUB    *float64 `json:"rmsd_ub"`
	ClusterID *int     `json:"cluster_id"`
}

// JobFromJSON maps a backend job payload into the canonical JobRecord.
func JobFromJSON(data []byte) (docking.JobRecord, error) {
	var raw rawJob
	if err := json.Unmarshal(data, &raw); err != nil {
		return docking.JobRecord{}, fmt.Errorf("decode job payload: %w", err)
	}

	id := raw.JobID
	if id == "" {
		id = raw.ID
	}
	if strings.TrimSpace(id) == "" {
		return docking.JobRecord{}, fmt.Errorf("job payload carries no id")
	}

	status, err := normalizeStatus(raw.Status)
	if err != nil {
		return docking.JobRecord{}, err
	}

	errMsg := raw.Error
	if errMsg == "" {
		errMsg = raw.ErrorMessage
	}
	best := raw.BestScore
	if best == nil {
		best = raw.TopBinding
	}

	job := docking.JobRecord{
		ID:              core.JobID(id),
		Name:            raw.JobName,
		Status:          status,
		BestScore:       best,
		PLDDTScore:      raw.PLDDTScore,
		Error:           errMsg,
		Progress:        raw.Progress,
		ProgressMessage: raw.ProgressMsg,
	}
	if raw.CreatedAt != nil {
		job.CreatedAt = core.NewTimestamp(*raw.CreatedAt)
	}
	if raw.CompletedAt != nil {
		ts := core.NewTimestamp(*raw.CompletedAt)
		job.CompletedAt = &ts
	}
	return job, nil
}

// normalizeStatus folds legacy backend status names into the canonical enum.
func normalizeStatus(s string) (docking.JobStatus, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "submitted", "pending":
		return docking.StatusQueued, nil
	case "processing":
		return docking.StatusRunning, nil
	case "":
		return "", fmt.Errorf("job payload carries no status")
	}
	status := docking.JobStatus(strings.ToLower(s))
	if !status.Valid() {
		return "", fmt.Errorf("unknown job status %q", s)
	}
	return status, nil
}

// ResultsFromJSON maps a docking-results payload into ligand result sets.
// Modes with missing or non-finite affinities are dropped; a ligand whose
// modes all fail to parse keeps an empty measurement list and is excluded
// from aggregates downstream.
func ResultsFromJSON(data []byte) ([]docking.LigandResultSet, error) {
	var raw rawResults
	if err := json.Unmarshal(data, &raw); err != nil {
		return nil, fmt.Errorf("decode docking results: %w", err)
	}

	sets := make([]docking.LigandResultSet, 0, len(raw.Results))
	for i, r := range raw.Results {
		name := r.LigandName
		if name == "" {
			name = r.Ligand
		}
		if name == "" {
			name = fmt.Sprintf("ligand_%d", i+1)
		}
		set := docking.LigandResultSet{Ligand: core.LigandName(name)}
		for _, m := range r.Modes {
			if m.Affinity == nil || math.IsNaN(*m.Affinity) || math.IsInf(*m.Affinity, 0) {
				continue
			}
			meas := docking.BindingMeasurement{
				Score:          *m.Affinity,
				RMSDLowerBound: m.RMSDLB,
				RMSDUpperBound: m.RMSDUB,
			}
			if m.ClusterID != nil {
				meas.ClusterID = *m.ClusterID
			}
			set.Measurements = append(set.Measurements, meas)
		}
		sets = append(sets, set)
	}
	return sets, nil
}
