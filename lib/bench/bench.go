package bench

import (
	"context"
	"errors"
	"fmt"
	"github.com/ValentinKolb/serbench/lib/model"
	"github.com/ValentinKolb/serbench/lib/serializer"
	"github.com/lni/dragonboat/v4/logger"
	gometrics "github.com/rcrowley/go-metrics"
	"golang.org/x/sync/errgroup"
	"math/rand"
	"time"
)

var (
	Logger = logger.GetLogger("bench")

	// ErrMismatch is returned when a decoded batch differs from its input
	ErrMismatch = errors.New("bench: round trip mismatch")
)

// Phase names one timed step of a run
type Phase string

const (
	PhaseSerializeSimple    Phase = "serialize-simple"
	PhaseDeserializeSimple  Phase = "deserialize-simple"
	PhaseSerializeComplex   Phase = "serialize-complex"
	PhaseDeserializeComplex Phase = "deserialize-complex"
)

// Phases returns all phases in execution order
func Phases() []Phase {
	return []Phase{PhaseSerializeSimple, PhaseDeserializeSimple, PhaseSerializeComplex, PhaseDeserializeComplex}
}

// Entry pairs a display label with the serializer it measures
type Entry struct {
	Label      string
	Serializer *serializer.Serializer
}

// Entries creates one entry per serializer, labelled with the behavior name
func Entries(serializers []*serializer.Serializer) []Entry {
	entries := make([]Entry, len(serializers))
	for i, s := range serializers {
		entries[i] = Entry{Label: s.Name(), Serializer: s}
	}
	return entries
}

// Config describes the workload of a run
type Config struct {
	SimpleObjects  int   // number of records in the simple batch
	ComplexObjects int   // number of containers in the complex batch
	Groups         int   // groups per container
	Items          int   // variants per group
	Rounds         int   // repetitions of every phase, at least one
	Parallel       bool  // run entries concurrently
	Seed           int64 // seed of the workload generator
}

// PhaseResult holds the measurements of one phase of one entry
type PhaseResult struct {
	Phase     Phase
	Objects   int
	Bytes     int
	Durations []time.Duration
	Stats     Stats
}

// Mean returns the mean duration over all rounds
func (p PhaseResult) Mean() time.Duration {
	return time.Duration(p.Stats.Mean)
}

// OpsPerSec returns the number of objects processed per second
func (p PhaseResult) OpsPerSec() float64 {
	if p.Stats.Mean <= 0 {
		return 0
	}
	return float64(p.Objects) / (p.Stats.Mean / 1e9)
}

// Result holds all phases of one entry
type Result struct {
	Label      string
	Serializer string
	Phases     []PhaseResult
}

// Phase returns the result of the given phase and whether it was run
func (r Result) Phase(p Phase) (PhaseResult, bool) {
	for _, pr := range r.Phases {
		if pr.Phase == p {
			return pr, true
		}
	}
	return PhaseResult{}, false
}

// Report is the outcome of Run. Results are in entry order.
type Report struct {
	Config  Config
	Results []Result
	// Timers holds one go-metrics timer per entry and phase, named "<label>.<phase>"
	Timers gometrics.Registry
}

// --------------------------------------------------------------------------
// Driver
// --------------------------------------------------------------------------

// workload is generated once per run and shared read-only by all entries
type workload struct {
	records    []model.FlatRecord
	containers []model.Container
}

// Run measures every entry over the four phases: serialize and deserialize
// the simple batch, then the complex batch. Each decoded batch is compared
// with its input. A phase with zero objects is skipped.
// Workers stop at the next phase boundary once ctx is done.
func Run(ctx context.Context, entries []Entry, cfg Config) (Report, error) {
	if cfg.Rounds <= 0 {
		cfg.Rounds = 1
	}
	if cfg.SimpleObjects < 0 || cfg.ComplexObjects < 0 || cfg.Groups < 0 || cfg.Items < 0 {
		return Report{}, fmt.Errorf("bench: negative workload %+v", cfg)
	}

	r := rand.New(rand.NewSource(cfg.Seed))
	w := workload{
		records:    model.RandomFlatRecords(r, cfg.SimpleObjects),
		containers: model.RandomContainers(r, cfg.ComplexObjects, cfg.Groups, cfg.Items),
	}

	report := Report{
		Config:  cfg,
		Results: make([]Result, len(entries)),
		Timers:  gometrics.NewRegistry(),
	}

	run := func(ctx context.Context, i int) error {
		res, err := runEntry(ctx, entries[i], cfg, w, report.Timers)
		if err != nil {
			return fmt.Errorf("%s: %w", entries[i].Label, err)
		}
		report.Results[i] = res
		return nil
	}

	if cfg.Parallel {
		g, gctx := errgroup.WithContext(ctx)
		for i := range entries {
			g.Go(func() error { return run(gctx, i) })
		}
		if err := g.Wait(); err != nil {
			return Report{}, err
		}
		return report, nil
	}

	for i := range entries {
		if err := run(ctx, i); err != nil {
			return Report{}, err
		}
	}
	return report, nil
}

func runEntry(ctx context.Context, e Entry, cfg Config, w workload, timers gometrics.Registry) (Result, error) {
	if e.Serializer == nil {
		return Result{}, errors.New("bench: entry without serializer")
	}

	res := Result{Label: e.Label, Serializer: e.Serializer.Name()}
	m := measurer{entry: e, rounds: cfg.Rounds, timers: timers}
	Logger.Infof("(%s) starting %d rounds", e.Label, cfg.Rounds)

	if len(w.records) > 0 {
		phases, err := measureRoundTrip(ctx, m, PhaseSerializeSimple, PhaseDeserializeSimple,
			w.records, w.records, model.EqualFlatRecords)
		if err != nil {
			return Result{}, err
		}
		res.Phases = append(res.Phases, phases...)
	}

	if len(w.containers) > 0 {
		expected := w.containers
		if !e.Serializer.Behavior().SupportsFeature(serializer.FeatureAbsentCollections) {
			expected = collapseEmpty(w.containers)
		}
		phases, err := measureRoundTrip(ctx, m, PhaseSerializeComplex, PhaseDeserializeComplex,
			w.containers, expected, model.EqualContainers)
		if err != nil {
			return Result{}, err
		}
		res.Phases = append(res.Phases, phases...)
	}

	Logger.Infof("(%s) done", e.Label)
	return res, nil
}

// --------------------------------------------------------------------------
// Helper
// --------------------------------------------------------------------------

type measurer struct {
	entry  Entry
	rounds int
	timers gometrics.Registry
}

// phase runs fn once per round and records every duration. fn returns the
// payload size.
func (m measurer) phase(ctx context.Context, p Phase, objects int, fn func() (int, error)) (PhaseResult, error) {
	timer := gometrics.GetOrRegisterTimer(m.entry.Label+"."+string(p), m.timers)
	res := PhaseResult{Phase: p, Objects: objects, Durations: make([]time.Duration, 0, m.rounds)}

	for i := 0; i < m.rounds; i++ {
		if err := ctx.Err(); err != nil {
			return PhaseResult{}, err
		}
		start := time.Now()
		n, err := fn()
		elapsed := time.Since(start)
		if err != nil {
			return PhaseResult{}, fmt.Errorf("%s: %w", p, err)
		}
		timer.Update(elapsed)
		res.Durations = append(res.Durations, elapsed)
		res.Bytes = n
	}

	res.Stats = NewDurationStats(res.Durations)
	Logger.Debugf("(%s) %-20s %v (%d bytes)", m.entry.Label, p, res.Mean(), res.Bytes)
	return res, nil
}

func measureRoundTrip[T any](ctx context.Context, m measurer, ser, de Phase, in, expected []T, equal func(a, b []T) bool) ([]PhaseResult, error) {
	s := m.entry.Serializer

	var data []byte
	serialized, err := m.phase(ctx, ser, len(in), func() (int, error) {
		var err error
		data, err = s.Serialize(in)
		return len(data), err
	})
	if err != nil {
		return nil, err
	}
	if data == nil {
		return nil, fmt.Errorf("%s: no payload for a registered batch", ser)
	}

	var out []T
	deserialized, err := m.phase(ctx, de, len(in), func() (int, error) {
		var err error
		out, err = serializer.Deserialize[[]T](s, data)
		return len(data), err
	})
	if err != nil {
		return nil, err
	}

	if !equal(expected, out) {
		return nil, fmt.Errorf("%s: %w", de, ErrMismatch)
	}
	return []PhaseResult{serialized, deserialized}, nil
}

func collapseEmpty(containers []model.Container) []model.Container {
	out := make([]model.Container, len(containers))
	for i := range containers {
		out[i] = *containers[i].Collapsed()
	}
	return out
}
