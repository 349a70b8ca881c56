package bench

import (
	gometrics "github.com/rcrowley/go-metrics"
	"time"
)

// Stats summarizes the round durations of one phase, all values in nanoseconds
type Stats struct {
	Mean         float64 `json:"mean"`
	Median       float64 `json:"median"`
	StdDeviation float64 `json:"std_deviation"`
	Min          float64 `json:"min"`
	Max          float64 `json:"max"`
	MinMaxRatio  float64 `json:"min_max_ratio"`
}

// NewStats computes Stats over the given samples. The deviation uses the
// population formula. An empty input yields the zero value.
func NewStats(values []int64) Stats {
	if len(values) == 0 {
		return Stats{}
	}

	// SamplePercentile sorts its input
	sorted := make([]int64, len(values))
	copy(sorted, values)

	stats := Stats{
		Mean:         gometrics.SampleMean(values),
		Median:       gometrics.SamplePercentile(sorted, 0.5),
		StdDeviation: gometrics.SampleStdDev(values),
		Min:          float64(gometrics.SampleMin(values)),
		Max:          float64(gometrics.SampleMax(values)),
		MinMaxRatio:  1.0,
	}
	if stats.Max > 0 {
		stats.MinMaxRatio = stats.Min / stats.Max
	}
	return stats
}

// NewDurationStats computes Stats over durations
func NewDurationStats(durations []time.Duration) Stats {
	values := make([]int64, len(durations))
	for i, d := range durations {
		values[i] = d.Nanoseconds()
	}
	return NewStats(values)
}
