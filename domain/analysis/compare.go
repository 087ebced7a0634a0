package analysis

import (
	"sort"

	"gonum.org/v1/gonum/stat"

	"dockwatch/domain/core"
	"dockwatch/domain/docking"
)

// JobComparison is one job's row in a cross-job comparison.
type JobComparison struct {
	JobID     core.JobID `json:"job_id"`
	Name      string     `json:"job_name,omitempty"`
	Count     int        `json:"count"`
	Mean      float64    `json:"mean"`
	Median    float64    `json:"median"`
	Min       float64    `json:"min"`
	Max       float64    `json:"max"`
	BestScore float64    `json:"best_score"`
}

// ComparisonResult ranks jobs by their best binding score.
type ComparisonResult struct {
	Jobs []JobComparison `json:"jobs"`
	// BestJob has the lowest best score; ties keep the first-encountered job.
	BestJob core.JobID `json:"best_job"`
	// MeanVariance is the population variance of the per-job means.
	MeanVariance float64 `json:"mean_variance"`
	// BestScoreSpread is max - min of the per-job best scores.
	BestScoreSpread float64 `json:"best_score_spread"`
}

// CompareJobs compares pooled measurements across jobs.
// Jobs without any finite score are skipped; core.ErrInsufficientData is
// returned when fewer than 2 jobs are supplied or fewer than 2 survive.
func CompareJobs(jobs []docking.JobRecord) (ComparisonResult, error) {
	if len(jobs) < 2 {
		return ComparisonResult{}, core.ErrInsufficientData
	}

	rows := make([]JobComparison, 0, len(jobs))
	for _, j := range jobs {
		scores := finiteScores(j.Measurements())
		if len(scores) == 0 {
			continue
		}
		sorted := make([]float64, len(scores))
		copy(sorted, scores)
		sort.Float64s(sorted)

		best, _ := j.ResolveBestScore()
		rows = append(rows, JobComparison{
			JobID:     j.ID,
			Name:      j.Name,
			Count:     len(sorted),
			Mean:      stat.Mean(sorted, nil),
			Median:    sorted[len(sorted)/2],
			Min:       sorted[0],
			Max:       sorted[len(sorted)-1],
			BestScore: best,
		})
	}
	if len(rows) < 2 {
		return ComparisonResult{}, core.ErrInsufficientData
	}

	bestJob := rows[0].JobID
	bestScore := rows[0].BestScore
	minBest, maxBest := rows[0].BestScore, rows[0].BestScore
	means := make([]float64, len(rows))
	for i, r := range rows {
		means[i] = r.Mean
		if r.BestScore < bestScore {
			bestScore = r.BestScore
			bestJob = r.JobID
		}
		if r.BestScore < minBest {
			minBest = r.BestScore
		}
		if r.BestScore > maxBest {
			maxBest = r.BestScore
		}
	}

	return ComparisonResult{
		Jobs:            rows,
		BestJob:         bestJob,
		MeanVariance:    populationVariance(means),
		BestScoreSpread: maxBest - minBest,
	}, nil
}

// populationVariance divides by n, matching the backend's aggregate math.
// gonum's stat.Variance uses the n-1 sample estimator, so it is not used here.
func populationVariance(values []float64) float64 {
	if len(values) == 0 {
		return 0
	}
	mean := stat.Mean(values, nil)
	sum := 0.0
	for _, v := range values {
		d := v - mean
		sum += d * d
	}
	return sum / float64(len(values))
}
