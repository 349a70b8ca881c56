package bench

import (
	"encoding/csv"
	"fmt"
	"github.com/VictoriaMetrics/metrics"
	"io"
	"math"
	"strconv"
	"time"
)

// Print writes a human readable summary of the report, one line per phase
func (r Report) Print(w io.Writer) {
	for _, res := range r.Results {
		fmt.Fprintf(w, "%s (%s)\n", res.Label, res.Serializer)
		for _, p := range res.Phases {
			nsPerOp := math.Max(p.Stats.Mean, 1) // prevent division by zero
			fmt.Fprintf(w, "  %-22s%12s\t%10d bytes\t%.0f ops/sec\n",
				p.Phase, time.Duration(nsPerOp), p.Bytes, p.OpsPerSec())
		}
	}
}

// WriteCSV writes one row per entry and phase
func (r Report) WriteCSV(w io.Writer) error {
	writer := csv.NewWriter(w)

	// Write header
	header := []string{
		"Label", "Serializer", "Phase", "Objects", "Bytes", "Rounds",
		"MeanNs", "MedianNs", "StdDeviationNs", "MinNs", "MaxNs", "MinMaxRatio", "OpsPerSec",
		"Groups", "Items", "Seed", "Parallel",
	}
	if err := writer.Write(header); err != nil {
		return fmt.Errorf("failed to write CSV header: %v", err)
	}

	for _, res := range r.Results {
		for _, p := range res.Phases {
			row := []string{
				res.Label,
				res.Serializer,
				string(p.Phase),
				strconv.Itoa(p.Objects),
				strconv.Itoa(p.Bytes),
				strconv.Itoa(len(p.Durations)),
				fmt.Sprintf("%.0f", p.Stats.Mean),
				fmt.Sprintf("%.0f", p.Stats.Median),
				fmt.Sprintf("%.0f", p.Stats.StdDeviation),
				fmt.Sprintf("%.0f", p.Stats.Min),
				fmt.Sprintf("%.0f", p.Stats.Max),
				fmt.Sprintf("%.4f", p.Stats.MinMaxRatio),
				fmt.Sprintf("%.0f", p.OpsPerSec()),
				strconv.Itoa(r.Config.Groups),
				strconv.Itoa(r.Config.Items),
				strconv.FormatInt(r.Config.Seed, 10),
				strconv.FormatBool(r.Config.Parallel),
			}
			if err := writer.Write(row); err != nil {
				return fmt.Errorf("failed to write row for %s %s: %v", res.Label, p.Phase, err)
			}
		}
	}

	writer.Flush()
	return writer.Error()
}

// WritePrometheus writes the report in the Prometheus text exposition format:
//
//	serbench_phase_seconds{label="json",serializer="json",phase="serialize-simple"} 0.0123
//	serbench_payload_bytes{label="json",serializer="json",phase="serialize-simple"} 3400000
//	serbench_ops_per_second{label="json",serializer="json",phase="serialize-simple"} 8130081
func (r Report) WritePrometheus(w io.Writer) {
	set := metrics.NewSet()
	for _, res := range r.Results {
		for _, p := range res.Phases {
			labels := fmt.Sprintf("{label=%q,serializer=%q,phase=%q}", res.Label, res.Serializer, p.Phase)
			set.GetOrCreateGauge("serbench_phase_seconds"+labels, func() float64 {
				return p.Stats.Mean / 1e9
			})
			set.GetOrCreateGauge("serbench_payload_bytes"+labels, func() float64 {
				return float64(p.Bytes)
			})
			set.GetOrCreateGauge("serbench_ops_per_second"+labels, p.OpsPerSec)
		}
	}
	set.WritePrometheus(w)
}
