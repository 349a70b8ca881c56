// Package common provides the configuration and logging utilities shared by
// the serbench commands and libraries.
//
// The package focuses on:
//   - One configuration struct for a harness run, filled from defaults, an
//     optional HCL config file, flags and environment variables
//   - Custom logging implementation integrated with the Dragonboat logger package
//
// Key Components:
//
//   - HarnessConfig: Workload (object counts, container size, seed, parallel
//     mode), selected serializers and output locations. String prints a
//     sectioned summary, Validate rejects negative counts and unknown log levels.
//
//   - LoadConfigFile / ParseConfig: Decode an HCL file with hclparse and gohcl.
//     Attributes missing in the file keep their defaults:
//
//     serializers     = ["json", "msgpack"]
//     simple_objects  = 10000
//     complex_objects = 100
//     parallel        = true
//
//   - Logger: CreateLogger is installed as Dragonboat logger factory by
//     InitLoggers, so every package logger obtained through
//     logger.GetLogger writes "LEVEL | package | message" lines to stderr.
package common
