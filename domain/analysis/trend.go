package analysis

import (
	"math"
	"sort"

	"gonum.org/v1/gonum/stat"

	"dockwatch/domain/core"
	"dockwatch/domain/docking"
)

// movingWindow is the trailing window size for the moving average.
const movingWindow = 3

// TrendPoint is one qualifying job on the trend timeline.
// MovingAverage is nil, not zero, for the first movingWindow-1 points;
// a sentinel value would either lie or break JSON encoding.
type TrendPoint struct {
	JobID                core.JobID     `json:"job_id"`
	Timestamp            core.Timestamp `json:"timestamp"`
	BestScore            float64        `json:"best_score"`
	MovingAverage        *float64       `json:"moving_average,omitempty"`
	MovingAverageDefined bool           `json:"moving_average_defined"`
}

// PeriodComparison contrasts the first and second halves of the timeline.
type PeriodComparison struct {
	FirstHalfMean  float64 `json:"first_half_mean"`
	SecondHalfMean float64 `json:"second_half_mean"`
	Change         float64 `json:"change"`
	Magnitude      float64 `json:"magnitude"`
	Direction      string  `json:"direction"`
}

// TrendResult is the outcome of analyzing best scores over time.
type TrendResult struct {
	Points      []TrendPoint      `json:"points"`
	TrendDelta  float64           `json:"trend_delta"`
	IsImproving bool              `json:"is_improving"`
	Periods     *PeriodComparison `json:"periods,omitempty"`
}

// AnalyzeTrend computes the best-score trend across completed jobs.
// Jobs qualify when they carry a timestamp and a resolvable best score.
// Returns core.ErrInsufficientData with fewer than 2 qualifying jobs.
func AnalyzeTrend(jobs []docking.JobRecord) (TrendResult, error) {
	points := qualifyingPoints(jobs)
	if len(points) < 2 {
		return TrendResult{}, core.ErrInsufficientData
	}

	sort.SliceStable(points, func(i, j int) bool {
		return points[i].Timestamp.Before(points[j].Timestamp)
	})

	scores := make([]float64, len(points))
	for i, p := range points {
		scores[i] = p.BestScore
	}

	for i := range points {
		if i < movingWindow-1 {
			continue
		}
		ma := stat.Mean(scores[i-movingWindow+1:i+1], nil)
		points[i].MovingAverage = &ma
		points[i].MovingAverageDefined = true
	}

	delta := scores[len(scores)-1] - scores[0]
	result := TrendResult{
		Points:     points,
		TrendDelta: delta,
		// Lower score means stronger binding, so a negative delta is progress.
		IsImproving: delta < 0,
	}

	if len(points) >= 4 {
		mid := len(scores) / 2
		first := stat.Mean(scores[:mid], nil)
		second := stat.Mean(scores[mid:], nil)
		change := second - first
		direction := "flat"
		if change < 0 {
			direction = "improving"
		} else if change > 0 {
			direction = "declining"
		}
		result.Periods = &PeriodComparison{
			FirstHalfMean:  first,
			SecondHalfMean: second,
			Change:         change,
			Magnitude:      math.Abs(change),
			Direction:      direction,
		}
	}

	return result, nil
}

func qualifyingPoints(jobs []docking.JobRecord) []TrendPoint {
	points := make([]TrendPoint, 0, len(jobs))
	for _, j := range jobs {
		if j.CreatedAt.IsZero() {
			continue
		}
		best, ok := j.ResolveBestScore()
		if !ok {
			continue
		}
		points = append(points, TrendPoint{
			JobID:     j.ID,
			Timestamp: j.CreatedAt,
			BestScore: best,
		})
	}
	return points
}
