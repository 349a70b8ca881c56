package run

import (
	"fmt"
	"github.com/ValentinKolb/serbench/cmd/util"
	"github.com/ValentinKolb/serbench/lib/bench"
	"github.com/ValentinKolb/serbench/lib/common"
	"github.com/spf13/cobra"
	"io"
	"os"
)

var (
	runCmdConfig common.HarnessConfig

	// RunCmd runs the benchmark harness
	RunCmd = &cobra.Command{
		Use:   "run",
		Short: "Benchmark the serializers",
		Long: `Serialize and deserialize a batch of simple records and a batch of nested containers with every selected serializer and print the timings. Every round trip is verified.
The configuration can be set via an HCL file (--config), command line flags or environment variables. The format of the environment variables is SERBENCH_<flag> (e.g. SERBENCH_SIMPLE_OBJECTS=1000)`,
		PreRunE: processConfig,
		RunE:    runBenchmark,
	}
)

func init() {
	// add flags
	util.SetupWorkloadFlags(RunCmd, common.DefaultHarnessConfig())

	key := "rounds"
	RunCmd.Flags().Int(key, common.DefaultRounds, util.WrapString("How often every phase is repeated, the timings are averaged"))

	key = "parallel"
	RunCmd.Flags().Bool(key, false, util.WrapString("Run the serializers concurrently instead of one after another"))

	key = "csv"
	RunCmd.Flags().String(key, "", util.WrapString("Optional path to save benchmark results as CSV"))

	key = "metrics-file"
	RunCmd.Flags().String(key, "", util.WrapString("Optional path to save benchmark results in the Prometheus text format"))
}

// processConfig reads the harness configuration from the config file, flags and environment variables
func processConfig(cmd *cobra.Command, _ []string) error {
	if err := util.BindCommandFlags(cmd); err != nil {
		return err
	}

	config, err := util.GetHarnessConfig(common.DefaultHarnessConfig())
	if err != nil {
		return err
	}
	runCmdConfig = config

	// the config file may set another log level
	return common.InitLoggers(config.LogLevel)
}

func runBenchmark(cmd *cobra.Command, _ []string) error {
	serializers, err := util.GetSerializers(runCmdConfig.Serializers)
	if err != nil {
		return err
	}

	out := cmd.OutOrStdout()
	fmt.Fprintln(out, "Serialization benchmark")
	fmt.Fprintln(out, runCmdConfig.String())

	report, err := bench.Run(cmd.Context(), bench.Entries(serializers), bench.Config{
		SimpleObjects:  runCmdConfig.SimpleObjects,
		ComplexObjects: runCmdConfig.ComplexObjects,
		Groups:         runCmdConfig.Groups,
		Items:          runCmdConfig.Items,
		Rounds:         runCmdConfig.Rounds,
		Parallel:       runCmdConfig.Parallel,
		Seed:           runCmdConfig.Seed,
	})
	if err != nil {
		return err
	}
	report.Print(out)

	// Write results to csv if specified
	if path := runCmdConfig.CSVFile; path != "" {
		fmt.Fprintf(out, "\nExporting results to CSV: %s\n", path)
		if err := writeFile(path, report.WriteCSV); err != nil {
			return fmt.Errorf("failed to export results to CSV: %v", err)
		}
	}

	if path := runCmdConfig.MetricsFile; path != "" {
		fmt.Fprintf(out, "Exporting metrics: %s\n", path)
		err := writeFile(path, func(w io.Writer) error {
			report.WritePrometheus(w)
			return nil
		})
		if err != nil {
			return fmt.Errorf("failed to export metrics: %v", err)
		}
	}

	return nil
}

// --------------------------------------------------------------------------
// Helper
// --------------------------------------------------------------------------

func writeFile(path string, write func(w io.Writer) error) error {
	file, err := os.Create(path)
	if err != nil {
		return err
	}
	if err := write(file); err != nil {
		_ = file.Close()
		return err
	}
	return file.Close()
}
