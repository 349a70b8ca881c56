// Package cmd implements the command-line interface of serbench. It provides
// commands to benchmark the serializers, verify their fidelity and record or
// check golden payloads.
//
// The package is organized into several subpackages:
//
//   - run: Benchmarks the selected serializers and exports the results (text, CSV, Prometheus)
//   - verify: Round trips the samples and a generated workload and fails on any difference
//   - corpus: Commands to save and check golden payloads (save, check)
//   - util: Shared utilities for command-line processing and configuration (internal use)
//
// The configuration is read from an optional HCL file (--config), command line
// flags and SERBENCH_ environment variables, in this order of precedence.
//
// See serbench -help for a list of all commands.
package cmd
