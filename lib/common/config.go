package common

import (
	"fmt"
	"github.com/hashicorp/hcl/v2"
	"github.com/hashicorp/hcl/v2/gohcl"
	"github.com/hashicorp/hcl/v2/hclparse"
	"strconv"
	"strings"
)

// Defaults of a harness run. The object counts match the classic
// benchmark of 100k simple and 1000 complex objects.
const (
	DefaultSimpleObjects  = 100_000
	DefaultComplexObjects = 1_000
	DefaultGroups         = 10
	DefaultItems          = 10
	DefaultRounds         = 1
	DefaultSeed           = 42
	DefaultLogLevel       = "info"
)

// --------------------------------------------------------------------------
// Harness configuration struct
// --------------------------------------------------------------------------

// HarnessConfig holds all parameters of a serbench run. Every field can be
// set in an HCL config file, by flag or through a SERBENCH_ env variable.
type HarnessConfig struct {
	// names of the behaviors to run, empty means all registered
	Serializers []string `hcl:"serializers,optional"`

	// workload
	SimpleObjects  int   `hcl:"simple_objects,optional"`
	ComplexObjects int   `hcl:"complex_objects,optional"`
	Groups         int   `hcl:"groups,optional"`
	Items          int   `hcl:"items,optional"`
	Rounds         int   `hcl:"rounds,optional"`
	Seed           int64 `hcl:"seed,optional"`
	Parallel       bool  `hcl:"parallel,optional"`

	// output
	CSVFile     string `hcl:"csv_file,optional"`
	MetricsFile string `hcl:"metrics_file,optional"`
	CorpusDir   string `hcl:"corpus_dir,optional"`

	// Logging configuration
	LogLevel string `hcl:"log_level,optional"`
}

// DefaultHarnessConfig returns the configuration used when nothing is set
func DefaultHarnessConfig() HarnessConfig {
	return HarnessConfig{
		SimpleObjects:  DefaultSimpleObjects,
		ComplexObjects: DefaultComplexObjects,
		Groups:         DefaultGroups,
		Items:          DefaultItems,
		Rounds:         DefaultRounds,
		Seed:           DefaultSeed,
		LogLevel:       DefaultLogLevel,
	}
}

// Validate checks the workload parameters and the log level
func (c *HarnessConfig) Validate() error {
	if c.SimpleObjects < 0 {
		return fmt.Errorf("simple objects must not be negative, got %d", c.SimpleObjects)
	}
	if c.ComplexObjects < 0 {
		return fmt.Errorf("complex objects must not be negative, got %d", c.ComplexObjects)
	}
	if c.Groups < 0 || c.Items < 0 {
		return fmt.Errorf("groups and items must not be negative, got %d and %d", c.Groups, c.Items)
	}
	if c.Rounds < 1 {
		return fmt.Errorf("rounds must be at least 1, got %d", c.Rounds)
	}
	if _, err := ParseLogLevel(c.LogLevel); err != nil {
		return err
	}
	return nil
}

// String returns a formatted string representation of the configuration
func (c *HarnessConfig) String() string {
	var sb strings.Builder

	// Create helper functions for consistent formatting
	addSection := func(title string) {
		sb.WriteString("\n")
		sb.WriteString(fmt.Sprintf("%s\n", strings.ToUpper(title)))
	}

	addField := func(name, value string) {
		sb.WriteString(fmt.Sprintf("  %-22s: %s\n", name, value))
	}

	optional := func(value string) string {
		if value == "" {
			return "-"
		}
		return value
	}

	// Serializers
	addSection("Serializers")
	if len(c.Serializers) == 0 {
		addField("Selected", "all")
	}
	for i, name := range c.Serializers {
		addField(strconv.Itoa(i), name)
	}

	// Workload
	addSection("Workload")
	addField("Simple Objects", strconv.Itoa(c.SimpleObjects))
	addField("Complex Objects", strconv.Itoa(c.ComplexObjects))
	addField("Groups per Object", strconv.Itoa(c.Groups))
	addField("Items per Group", strconv.Itoa(c.Items))
	addField("Rounds", strconv.Itoa(c.Rounds))
	addField("Seed", strconv.FormatInt(c.Seed, 10))
	addField("Parallel", fmt.Sprintf("%t", c.Parallel))

	// Output
	addSection("Output")
	addField("CSV File", optional(c.CSVFile))
	addField("Metrics File", optional(c.MetricsFile))
	addField("Corpus Directory", optional(c.CorpusDir))

	// Logging configuration
	addSection("Logging")
	addField("Log Level", c.LogLevel)

	return sb.String()
}

// --------------------------------------------------------------------------
// HCL config file
// --------------------------------------------------------------------------

// LoadConfigFile reads an HCL config file on top of the defaults. Attributes
// missing in the file keep their default value.
func LoadConfigFile(path string) (HarnessConfig, error) {
	return ApplyConfigFile(path, DefaultHarnessConfig())
}

// ApplyConfigFile reads an HCL config file on top of base
func ApplyConfigFile(path string, base HarnessConfig) (HarnessConfig, error) {
	parser := hclparse.NewParser()
	file, diags := parser.ParseHCLFile(path)
	if diags.HasErrors() {
		return HarnessConfig{}, fmt.Errorf("failed to parse config file %s: %w", path, diags)
	}
	return decodeConfig(path, file.Body, base)
}

// ParseConfig parses an HCL config from memory on top of the defaults,
// filename is used in diagnostics
func ParseConfig(filename string, src []byte) (HarnessConfig, error) {
	parser := hclparse.NewParser()
	file, diags := parser.ParseHCL(src, filename)
	if diags.HasErrors() {
		return HarnessConfig{}, fmt.Errorf("failed to parse config file %s: %w", filename, diags)
	}
	return decodeConfig(filename, file.Body, DefaultHarnessConfig())
}

func decodeConfig(filename string, body hcl.Body, config HarnessConfig) (HarnessConfig, error) {
	if diags := gohcl.DecodeBody(body, nil, &config); diags.HasErrors() {
		return HarnessConfig{}, fmt.Errorf("failed to decode config file %s: %w", filename, diags)
	}
	if err := config.Validate(); err != nil {
		return HarnessConfig{}, fmt.Errorf("invalid config file %s: %w", filename, err)
	}
	return config, nil
}
