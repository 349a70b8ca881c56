// Package bench implements the serbench harness driver. It generates one
// workload per run and measures every configured serializer on it.
//
// The package focuses on:
//   - Measuring the classic four phases: serialize and deserialize a batch of
//     simple records, then a batch of nested containers
//   - Verifying every round trip against the equality contract of package model
//   - Exporting results as text, CSV and Prometheus metrics
//
// Key Components:
//
//   - Entry: A label plus the serializer facade it measures. Entries creates
//     one entry per serializer named after its behavior.
//
//   - Config: Object counts, container size, rounds per phase, seed and the
//     parallel switch.
//
//   - Run: Executes all phases for all entries and returns a Report. In
//     parallel mode the entries run concurrently through an errgroup, the
//     first error cancels the rest. Behaviors without absent collections are
//     verified against the collapsed form of the workload.
//
//   - Report: Per entry and phase durations with Stats, payload sizes and a
//     go-metrics timer registry. Print, WriteCSV and WritePrometheus render it.
//
// Usage:
//
//	report, err := bench.Run(ctx, bench.Entries(serializer.All()), bench.Config{
//		SimpleObjects:  100_000,
//		ComplexObjects: 1_000,
//		Groups:         10,
//		Items:          10,
//	})
//	if err != nil { ... }
//	report.Print(os.Stdout)
package bench
