package app

import (
	"time"

	"dockwatch/domain/core"
	"dockwatch/domain/docking"
)

// SampleJobs returns the deterministic demo data set. It is loaded into the
// store only when sample mode is explicitly configured; nothing falls back
// to it silently.
func SampleJobs() []docking.JobRecord {
	base := time.Date(2025, 6, 2, 9, 0, 0, 0, time.UTC)
	return []docking.JobRecord{
		sampleJob("sample-egfr-erlotinib", "EGFR vs erlotinib analogs", base, []sampleLigand{
			{"erlotinib", []float64{-9.1, -8.5, -8.5, -7.2, -6.0}},
			{"erlotinib-f2", []float64{-8.8, -8.1, -7.6}},
		}),
		sampleJob("sample-egfr-gefitinib", "EGFR vs gefitinib analogs", base.AddDate(0, 0, 3), []sampleLigand{
			{"gefitinib", []float64{-8.4, -8.0, -7.7, -7.1}},
			{"gefitinib-m1", []float64{-7.9, -7.3}},
		}),
		sampleJob("sample-egfr-osimertinib", "EGFR vs osimertinib analogs", base.AddDate(0, 0, 7), []sampleLigand{
			{"osimertinib", []float64{-10.2, -9.6, -9.0, -8.8}},
			{"osimertinib-d4", []float64{-9.3, -8.9, -8.2}},
		}),
		sampleJob("sample-egfr-lapatinib", "EGFR vs lapatinib analogs", base.AddDate(0, 0, 10), []sampleLigand{
			{"lapatinib", []float64{-10.8, -10.1, -9.4}},
		}),
	}
}

type sampleLigand struct {
	name   string
	scores []float64
}

func sampleJob(id, name string, created time.Time, ligands []sampleLigand) docking.JobRecord {
	job := docking.JobRecord{
		ID:        core.JobID(id),
		Name:      name,
		Status:    docking.StatusCompleted,
		CreatedAt: core.NewTimestamp(created),
	}
	completed := core.NewTimestamp(created.Add(42 * time.Minute))
	job.CompletedAt = &completed

	for _, l := range ligands {
		set := docking.LigandResultSet{Ligand: core.LigandName(l.name)}
		for i, s := range l.scores {
			set.Measurements = append(set.Measurements, docking.BindingMeasurement{
				Score:     s,
				ClusterID: i + 1,
			})
		}
		job.Ligands = append(job.Ligands, set)
	}
	if best, ok := job.ResolveBestScore(); ok {
		job.BestScore = &best
	}
	return job
}
