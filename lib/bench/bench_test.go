package bench

import (
	"bytes"
	"context"
	"encoding/csv"
	"errors"
	"github.com/ValentinKolb/serbench/lib/model"
	"github.com/ValentinKolb/serbench/lib/serializer"
	"math"
	"strings"
	"testing"
	"time"
)

func smallConfig() Config {
	return Config{SimpleObjects: 50, ComplexObjects: 5, Groups: 2, Items: 3, Rounds: 2, Seed: 7}
}

func TestRunAllSerializers(t *testing.T) {
	for _, parallel := range []bool{false, true} {
		cfg := smallConfig()
		cfg.Parallel = parallel

		entries := Entries(serializer.All())
		report, err := Run(context.Background(), entries, cfg)
		if err != nil {
			t.Fatalf("Run (parallel=%v) failed: %v", parallel, err)
		}

		if len(report.Results) != len(entries) {
			t.Fatalf("Expected %d results, got %d", len(entries), len(report.Results))
		}
		for i, res := range report.Results {
			if res.Label != entries[i].Label {
				t.Errorf("Result %d: expected label %s, got %s", i, entries[i].Label, res.Label)
			}
			if len(res.Phases) != len(Phases()) {
				t.Errorf("%s: expected %d phases, got %d", res.Label, len(Phases()), len(res.Phases))
				continue
			}
			for j, p := range res.Phases {
				if p.Phase != Phases()[j] {
					t.Errorf("%s: expected phase %s at %d, got %s", res.Label, Phases()[j], j, p.Phase)
				}
				if len(p.Durations) != cfg.Rounds {
					t.Errorf("%s %s: expected %d rounds, got %d", res.Label, p.Phase, cfg.Rounds, len(p.Durations))
				}
				if p.Bytes <= 0 {
					t.Errorf("%s %s: expected a payload size, got %d", res.Label, p.Phase, p.Bytes)
				}
			}
			if p, ok := res.Phase(PhaseSerializeSimple); !ok || p.Objects != cfg.SimpleObjects {
				t.Errorf("%s: unexpected simple phase %+v", res.Label, p)
			}
		}

		if report.Timers.Get("json."+string(PhaseDeserializeComplex)) == nil {
			t.Errorf("Expected a timer for json %s", PhaseDeserializeComplex)
		}
	}
}

func TestRunCollapsedCollections(t *testing.T) {
	// empty groups come back absent from gob and still verify
	cfg := Config{ComplexObjects: 3, Groups: 2, Items: 0, Seed: 1}
	s := serializer.New(serializer.NewGOBSerializer())

	report, err := Run(context.Background(), []Entry{{Label: "gob", Serializer: s}}, cfg)
	if err != nil {
		t.Fatalf("Run failed: %v", err)
	}
	if _, ok := report.Results[0].Phase(PhaseSerializeSimple); ok {
		t.Errorf("Expected the simple phases to be skipped without simple objects")
	}
	if _, ok := report.Results[0].Phase(PhaseDeserializeComplex); !ok {
		t.Errorf("Expected the complex phases to run")
	}
}

// lossyBehavior drops the last record of every decoded batch
type lossyBehavior struct {
	serializer.ISerializerBehavior
}

func (l lossyBehavior) Deserialize(data []byte, out any) error {
	if err := l.ISerializerBehavior.Deserialize(data, out); err != nil {
		return err
	}
	if records, ok := out.(*[]model.FlatRecord); ok && len(*records) > 0 {
		*records = (*records)[:len(*records)-1]
	}
	return nil
}

// failingBehavior fails every serialization
type failingBehavior struct {
	serializer.ISerializerBehavior
}

var errBoom = errors.New("boom")

func (f failingBehavior) Serialize(any) ([]byte, error) {
	return nil, errBoom
}

func TestRunErrors(t *testing.T) {
	cfg := smallConfig()

	lossy := serializer.New(lossyBehavior{serializer.NewJSONSerializer()})
	_, err := Run(context.Background(), []Entry{{Label: "lossy", Serializer: lossy}}, cfg)
	if !errors.Is(err, ErrMismatch) {
		t.Errorf("Expected ErrMismatch, got %v", err)
	}

	failing := serializer.New(failingBehavior{serializer.NewJSONSerializer()})
	for _, parallel := range []bool{false, true} {
		cfg.Parallel = parallel
		entries := []Entry{
			{Label: "json", Serializer: serializer.New(serializer.NewJSONSerializer())},
			{Label: "failing", Serializer: failing},
		}
		_, err = Run(context.Background(), entries, cfg)
		if !errors.Is(err, errBoom) {
			t.Errorf("Expected the backend error (parallel=%v), got %v", parallel, err)
		}
		if err != nil && !strings.HasPrefix(err.Error(), "failing: ") {
			t.Errorf("Expected the error to name the entry, got %v", err)
		}
	}

	if _, err := Run(context.Background(), []Entry{{Label: "empty"}}, cfg); err == nil {
		t.Errorf("Expected an error for an entry without serializer")
	}

	cfg.SimpleObjects = -1
	if _, err := Run(context.Background(), Entries(serializer.All()), cfg); err == nil {
		t.Errorf("Expected an error for a negative workload")
	}
}

func TestRunCancelled(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := Run(ctx, Entries(serializer.All()), smallConfig())
	if !errors.Is(err, context.Canceled) {
		t.Errorf("Expected context.Canceled, got %v", err)
	}
}

func TestNewStats(t *testing.T) {
	stats := NewStats([]int64{9, 2, 4, 5, 4, 7, 4, 5})
	if stats.Mean != 5 || stats.StdDeviation != 2 {
		t.Errorf("Expected mean 5 and deviation 2, got %v and %v", stats.Mean, stats.StdDeviation)
	}
	if stats.Min != 2 || stats.Max != 9 {
		t.Errorf("Expected min 2 and max 9, got %v and %v", stats.Min, stats.Max)
	}
	if stats.Median != 4.5 {
		t.Errorf("Expected median 4.5, got %v", stats.Median)
	}
	if math.Abs(stats.MinMaxRatio-2.0/9.0) > 1e-9 {
		t.Errorf("Unexpected min/max ratio %v", stats.MinMaxRatio)
	}

	if empty := NewStats(nil); empty != (Stats{}) {
		t.Errorf("Expected zero stats for no values, got %+v", empty)
	}

	d := NewDurationStats([]time.Duration{time.Millisecond, 3 * time.Millisecond})
	if d.Mean != float64(2*time.Millisecond) {
		t.Errorf("Expected a mean of 2ms, got %v", time.Duration(d.Mean))
	}
}

func testReport() Report {
	phase := PhaseResult{
		Phase:     PhaseSerializeSimple,
		Objects:   1000,
		Bytes:     4096,
		Durations: []time.Duration{time.Millisecond},
		Stats:     NewDurationStats([]time.Duration{time.Millisecond}),
	}
	return Report{
		Config:  smallConfig(),
		Results: []Result{{Label: "json-label", Serializer: "json", Phases: []PhaseResult{phase}}},
	}
}

func TestReportExport(t *testing.T) {
	report := testReport()

	if ops := report.Results[0].Phases[0].OpsPerSec(); ops != 1e6 {
		t.Errorf("Expected 1e6 ops/sec, got %v", ops)
	}

	var buf bytes.Buffer
	if err := report.WriteCSV(&buf); err != nil {
		t.Fatalf("Failed to write CSV: %v", err)
	}
	rows, err := csv.NewReader(&buf).ReadAll()
	if err != nil {
		t.Fatalf("Failed to read CSV: %v", err)
	}
	if len(rows) != 2 {
		t.Fatalf("Expected header and one row, got %d rows", len(rows))
	}
	if rows[1][0] != "json-label" || rows[1][2] != string(PhaseSerializeSimple) || rows[1][4] != "4096" {
		t.Errorf("Unexpected CSV row %v", rows[1])
	}

	buf.Reset()
	report.WritePrometheus(&buf)
	out := buf.String()
	for _, want := range []string{
		`serbench_payload_bytes{label="json-label",serializer="json",phase="serialize-simple"} 4096`,
		`serbench_phase_seconds{label="json-label",serializer="json",phase="serialize-simple"}`,
		`serbench_ops_per_second{label="json-label",serializer="json",phase="serialize-simple"}`,
	} {
		if !strings.Contains(out, want) {
			t.Errorf("Expected %q in metrics output:\n%s", want, out)
		}
	}

	buf.Reset()
	report.Print(&buf)
	if !strings.Contains(buf.String(), "json-label (json)") {
		t.Errorf("Expected the entry header in the summary:\n%s", buf.String())
	}
}
