package analysis

import (
	"math"
	"sort"

	"github.com/montanaflynn/stats"

	"dockwatch/domain/core"
	"dockwatch/domain/docking"
)

// HistogramBins is the fixed bin count for score histograms.
const HistogramBins = 15

// outlierFence is the IQR multiplier for the Tukey fences.
const outlierFence = 1.5

// HistogramBin is one bucket of the score histogram.
type HistogramBin struct {
	Lower float64 `json:"lower"`
	Upper float64 `json:"upper"`
	Count int     `json:"count"`
}

// DistributionSummary describes the score distribution of a measurement set.
// Derived on demand, never persisted.
type DistributionSummary struct {
	Count      int            `json:"count"`
	Mean       float64        `json:"mean"`
	Median     float64        `json:"median"`
	StdDev     float64        `json:"std_dev"`
	Min        float64        `json:"min"`
	Max        float64        `json:"max"`
	Q1         float64        `json:"q1"`
	Q3         float64        `json:"q3"`
	IQR        float64        `json:"iqr"`
	LowerFence float64        `json:"lower_fence"`
	UpperFence float64        `json:"upper_fence"`
	Outliers   []float64      `json:"outliers"`
	Histogram  []HistogramBin `json:"histogram"`
}

// LigandAggregate summarizes one ligand's measurements.
type LigandAggregate struct {
	Ligand core.LigandName `json:"ligand"`
	Best   float64         `json:"best"`
	Mean   float64         `json:"mean"`
	Count  int             `json:"count"`
}

// Summarize computes the distribution summary over a measurement set.
// Returns core.ErrEmptyInput when no finite scores are present; callers
// render a "no data" state instead of a zeroed chart.
//
// Median and quartiles use plain order-statistic indexing (lower median,
// no interpolation) to stay numerically identical to the backend's
// reference computation.
func Summarize(measurements []docking.BindingMeasurement) (DistributionSummary, error) {
	scores := finiteScores(measurements)
	if len(scores) == 0 {
		return DistributionSummary{}, core.ErrEmptyInput
	}

	sorted := make([]float64, len(scores))
	copy(sorted, scores)
	sort.Float64s(sorted)

	n := len(sorted)
	mean, err := stats.Mean(sorted)
	if err != nil {
		return DistributionSummary{}, err
	}
	stdDev, err := stats.StandardDeviationPopulation(sorted)
	if err != nil {
		return DistributionSummary{}, err
	}

	min := sorted[0]
	max := sorted[n-1]
	median := sorted[n/2]
	q1 := sorted[n/4]
	q3 := sorted[3*n/4]
	iqr := q3 - q1

	lowerFence := q1 - outlierFence*iqr
	upperFence := q3 + outlierFence*iqr
	outliers := []float64{}
	for _, s := range sorted {
		if s < lowerFence || s > upperFence {
			outliers = append(outliers, s)
		}
	}

	return DistributionSummary{
		Count:      n,
		Mean:       mean,
		Median:     median,
		StdDev:     stdDev,
		Min:        min,
		Max:        max,
		Q1:         q1,
		Q3:         q3,
		IQR:        iqr,
		LowerFence: lowerFence,
		UpperFence: upperFence,
		Outliers:   outliers,
		Histogram:  histogram(sorted, min, max),
	}, nil
}

// histogram buckets the sorted scores into HistogramBins bins over [min, max].
// When max == min the bin width is zero and a single bin absorbs everything.
func histogram(sorted []float64, min, max float64) []HistogramBin {
	width := (max - min) / float64(HistogramBins)
	if width == 0 {
		return []HistogramBin{{Lower: min, Upper: max, Count: len(sorted)}}
	}

	bins := make([]HistogramBin, HistogramBins)
	for i := range bins {
		bins[i].Lower = min + float64(i)*width
		bins[i].Upper = min + float64(i+1)*width
	}
	for _, s := range sorted {
		idx := int((s - min) / width)
		if idx >= HistogramBins {
			// The maximum value lands on the upper boundary; clamp it
			// into the last bin so no measurement is lost.
			idx = HistogramBins - 1
		}
		bins[idx].Count++
	}
	return bins
}

// AggregateLigands computes per-ligand {best, mean, count} rows.
// Ligands with no finite scores are omitted, never reported as score 0.
func AggregateLigands(sets []docking.LigandResultSet) []LigandAggregate {
	out := make([]LigandAggregate, 0, len(sets))
	for _, set := range sets {
		scores := finiteScores(set.Measurements)
		if len(scores) == 0 {
			continue
		}
		best := scores[0]
		sum := 0.0
		for _, s := range scores {
			if s < best {
				best = s
			}
			sum += s
		}
		out = append(out, LigandAggregate{
			Ligand: set.Ligand,
			Best:   best,
			Mean:   sum / float64(len(scores)),
			Count:  len(scores),
		})
	}
	return out
}

func finiteScores(measurements []docking.BindingMeasurement) []float64 {
	scores := make([]float64, 0, len(measurements))
	for _, m := range measurements {
		if math.IsNaN(m.Score) || math.IsInf(m.Score, 0) {
			continue
		}
		scores = append(scores, m.Score)
	}
	return scores
}
