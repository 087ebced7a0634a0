package backend

import (
	"testing"

	"dockwatch/domain/docking"
)

func TestJobFromJSON_FieldAliases(t *testing.T) {
	job, err := JobFromJSON([]byte(`{
		"job_id": "abc-123",
		"job_name": "EGFR screen",
		"status": "completed",
		"error_message": "partial ligand failure",
		"top_binding_score": -9.4
	}`))
	if err != nil {
		t.Fatalf("JobFromJSON failed: %v", err)
	}
	if job.ID != "abc-123" {
		t.Errorf("Expected job_id alias to win, got %s", job.ID)
	}
	if job.Error != "partial ligand failure" {
		t.Errorf("error_message alias not mapped, got %q", job.Error)
	}
	if job.BestScore == nil || *job.BestScore != -9.4 {
		t.Errorf("top_binding_score alias not mapped, got %v", job.BestScore)
	}
}

func TestJobFromJSON_PrimaryFieldsWinOverAliases(t *testing.T) {
	job, err := JobFromJSON([]byte(`{
		"id": "fallback",
		"job_id": "primary",
		"status": "running",
		"error": "primary error",
		"error_message": "alias error",
		"best_score": -8.0,
		"top_binding_score": -5.0
	}`))
	if err != nil {
		t.Fatalf("JobFromJSON failed: %v", err)
	}
	if job.ID != "primary" {
		t.Errorf("job_id should take precedence over id, got %s", job.ID)
	}
	if job.Error != "primary error" {
		t.Errorf("error should take precedence, got %q", job.Error)
	}
	if *job.BestScore != -8.0 {
		t.Errorf("best_score should take precedence, got %f", *job.BestScore)
	}
}

func TestJobFromJSON_StatusNormalization(t *testing.T) {
	cases := map[string]docking.JobStatus{
		"submitted":  docking.StatusQueued,
		"pending":    docking.StatusQueued,
		"processing": docking.StatusRunning,
		"Queued":     docking.StatusQueued,
		"DOCKING":    docking.StatusDocking,
		"completed":  docking.StatusCompleted,
	}
	for raw, want := range cases {
		job, err := JobFromJSON([]byte(`{"id":"x","status":"` + raw + `"}`))
		if err != nil {
			t.Errorf("Status %q: unexpected error %v", raw, err)
			continue
		}
		if job.Status != want {
			t.Errorf("Status %q: expected %s, got %s", raw, want, job.Status)
		}
	}
}

func TestJobFromJSON_RejectsBadPayloads(t *testing.T) {
	cases := []string{
		`{"status":"running"}`,           // no id
		`{"id":"x"}`,                     // no status
		`{"id":"x","status":"exploded"}`, // unknown status
		`not json`,
	}
	for _, payload := range cases {
		if _, err := JobFromJSON([]byte(payload)); err == nil {
			t.Errorf("Payload %q should have been rejected", payload)
		}
	}
}

func TestResultsFromJSON_DropsNonFiniteAffinities(t *testing.T) {
	sets, err := ResultsFromJSON([]byte(`{"results":[
		{"ligand_name":"lig-a","modes":[
			{"affinity":-9.1,"rmsd_lb":0.0,"rmsd_ub":1.2,"cluster_id":1},
			{"affinity":null},
			{"affinity":-7.3}
		]}
	]}`))
	if err != nil {
		t.Fatalf("ResultsFromJSON failed: %v", err)
	}
	if len(sets) != 1 {
		t.Fatalf("Expected 1 ligand set, got %d", len(sets))
	}
	if len(sets[0].Measurements) != 2 {
		t.Errorf("Null affinity should be dropped, got %d measurements", len(sets[0].Measurements))
	}
	first := sets[0].Measurements[0]
	if first.Score != -9.1 || first.RMSDUpperBound == nil || *first.RMSDUpperBound != 1.2 || first.ClusterID != 1 {
		t.Errorf("Mode fields not mapped: %+v", first)
	}
}

func TestResultsFromJSON_LigandNameFallback(t *testing.T) {
	sets, err := ResultsFromJSON([]byte(`{"results":[
		{"ligand":"named-via-alias","modes":[{"affinity":-6.0}]},
		{"modes":[{"affinity":-5.0}]}
	]}`))
	if err != nil {
		t.Fatalf("ResultsFromJSON failed: %v", err)
	}
	if sets[0].Ligand != "named-via-alias" {
		t.Errorf("ligand alias not mapped, got %s", sets[0].Ligand)
	}
	if sets[1].Ligand != "ligand_2" {
		t.Errorf("Expected positional fallback name ligand_2, got %s", sets[1].Ligand)
	}
}

func TestResultsFromJSON_KeepsEmptyLigandSets(t *testing.T) {
	sets, err := ResultsFromJSON([]byte(`{"results":[
		{"ligand_name":"all-failed","modes":[{"affinity":null}]}
	]}`))
	if err != nil {
		t.Fatalf("ResultsFromJSON failed: %v", err)
	}
	if len(sets) != 1 {
		t.Fatalf("Expected the empty set to be kept, got %d sets", len(sets))
	}
	if len(sets[0].Measurements) != 0 {
		t.Errorf("Expected no measurements, got %d", len(sets[0].Measurements))
	}
	if _, ok := sets[0].Best(); ok {
		t.Error("An empty set must not report a best score")
	}
}
