package app

import (
	"context"
	"testing"

	"dockwatch/domain/core"
	"dockwatch/domain/docking"
	"dockwatch/internal"
)

func testStore() *JobStore {
	return NewJobStore(nil, internal.NewLogger(internal.LogLevelError))
}

func runningJob(id string) docking.JobRecord {
	return docking.JobRecord{
		ID:        core.JobID(id),
		Name:      "job " + id,
		Status:    docking.StatusRunning,
		CreatedAt: core.Now(),
	}
}

func TestJobStore_MergeLastWriteWins(t *testing.T) {
	store := testStore()
	ctx := context.Background()
	store.Track(ctx, runningJob("j1"))

	p1 := 0.3
	store.Merge(ctx, docking.JobRecord{ID: "j1", Status: docking.StatusDocking, Progress: &p1})
	p2 := 0.8
	merged, changed := store.Merge(ctx, docking.JobRecord{ID: "j1", Status: docking.StatusAnalyzing, Progress: &p2})

	if !changed {
		t.Fatal("Second update should apply")
	}
	if merged.Status != docking.StatusAnalyzing {
		t.Errorf("Expected analyzing, got %s", merged.Status)
	}
	if *merged.Progress != 0.8 {
		t.Errorf("Expected latest progress 0.8, got %f", *merged.Progress)
	}
}

func TestJobStore_TerminalRecordsAreImmutable(t *testing.T) {
	store := testStore()
	ctx := context.Background()
	store.Track(ctx, runningJob("j1"))

	store.Merge(ctx, docking.JobRecord{ID: "j1", Status: docking.StatusCompleted})
	after, changed := store.Merge(ctx, docking.JobRecord{ID: "j1", Status: docking.StatusRunning})

	if changed {
		t.Error("Updates against a terminal record must be discarded")
	}
	if after.Status != docking.StatusCompleted {
		t.Errorf("Terminal status must survive, got %s", after.Status)
	}
}

func TestJobStore_SparseFragmentKeepsEarlierFields(t *testing.T) {
	store := testStore()
	ctx := context.Background()

	best := -9.3
	full := runningJob("j1")
	full.BestScore = &best
	full.ProgressMessage = "docking pass 1"
	store.Track(ctx, full)

	// A stream fragment carrying only a status must not erase anything.
	merged, _ := store.Merge(ctx, docking.JobRecord{ID: "j1", Status: docking.StatusAnalyzing})
	if merged.BestScore == nil || *merged.BestScore != -9.3 {
		t.Errorf("Sparse update erased the best score: %v", merged.BestScore)
	}
	if merged.ProgressMessage != "docking pass 1" {
		t.Errorf("Sparse update erased the progress message: %q", merged.ProgressMessage)
	}
	if merged.Name != "job j1" {
		t.Errorf("Sparse update erased the name: %q", merged.Name)
	}
}

func TestJobStore_UnknownJobIsInserted(t *testing.T) {
	store := testStore()
	merged, changed := store.Merge(context.Background(), runningJob("brand-new"))
	if !changed {
		t.Fatal("First sighting of a job should be stored")
	}
	if merged.ID != "brand-new" {
		t.Errorf("Unexpected record: %+v", merged)
	}
	if _, ok := store.Snapshot("brand-new"); !ok {
		t.Error("Job should be tracked after the merge")
	}
}

func TestJobStore_SnapshotsAreIsolated(t *testing.T) {
	store := testStore()
	ctx := context.Background()
	job := runningJob("j1")
	job.Ligands = []docking.LigandResultSet{
		{Ligand: "lig-a", Measurements: []docking.BindingMeasurement{{Score: -8.0}}},
	}
	store.Track(ctx, job)

	snap, _ := store.Snapshot("j1")
	snap.Status = docking.StatusFailed
	snap.Ligands[0].Measurements[0].Score = 42

	fresh, _ := store.Snapshot("j1")
	if fresh.Status != docking.StatusRunning {
		t.Error("Mutating a snapshot leaked into the store")
	}
	if fresh.Ligands[0].Measurements[0].Score != -8.0 {
		t.Error("Mutating snapshot measurements leaked into the store")
	}
}

func TestJobStore_CrossJobIsolation(t *testing.T) {
	store := testStore()
	ctx := context.Background()
	store.Track(ctx, runningJob("j1"))
	store.Track(ctx, runningJob("j2"))

	store.Merge(ctx, docking.JobRecord{ID: "j1", Status: docking.StatusCompleted})

	other, _ := store.Snapshot("j2")
	if other.Status != docking.StatusRunning {
		t.Errorf("Updating j1 must not touch j2, got %s", other.Status)
	}
}

func TestJobStore_AttachResults(t *testing.T) {
	store := testStore()
	ctx := context.Background()

	done := runningJob("j1")
	done.Status = docking.StatusCompleted
	store.Track(ctx, done)

	sets := []docking.LigandResultSet{
		{Ligand: "lig-a", Measurements: []docking.BindingMeasurement{{Score: -7.7}}},
	}
	job, err := store.AttachResults(ctx, "j1", sets)
	if err != nil {
		t.Fatalf("AttachResults failed: %v", err)
	}
	if len(job.Ligands) != 1 {
		t.Fatalf("Results not attached: %+v", job.Ligands)
	}

	// A second attach does not overwrite what is already there.
	other := []docking.LigandResultSet{{Ligand: "lig-b"}}
	job, err = store.AttachResults(ctx, "j1", other)
	if err != nil {
		t.Fatalf("AttachResults failed: %v", err)
	}
	if job.Ligands[0].Ligand != "lig-a" {
		t.Errorf("Existing results were overwritten: %+v", job.Ligands)
	}

	if _, err := store.AttachResults(ctx, "missing", sets); err == nil {
		t.Error("Expected an error for an unknown job")
	}
}
