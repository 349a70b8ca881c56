package verify

import (
	"errors"
	"fmt"
	"github.com/ValentinKolb/serbench/cmd/util"
	"github.com/ValentinKolb/serbench/lib/bench"
	"github.com/ValentinKolb/serbench/lib/common"
	"github.com/ValentinKolb/serbench/lib/corpus"
	"github.com/spf13/cobra"
)

var (
	verifyCmdConfig common.HarnessConfig

	// VerifyCmd checks that every selected serializer round trips the samples and a random workload
	VerifyCmd = &cobra.Command{
		Use:   "verify",
		Short: "Verify the round trip fidelity of the serializers",
		Long: `Round trip the canonical samples and a generated workload through every selected serializer and compare the result with the input.
The command fails if any serializer loses or changes data.`,
		PreRunE: processConfig,
		RunE:    runVerify,
	}
)

// verifyDefaults is a smaller workload than a benchmark run
func verifyDefaults() common.HarnessConfig {
	config := common.DefaultHarnessConfig()
	config.SimpleObjects = 1_000
	config.ComplexObjects = 100
	return config
}

func init() {
	util.SetupWorkloadFlags(VerifyCmd, verifyDefaults())
}

func processConfig(cmd *cobra.Command, _ []string) error {
	if err := util.BindCommandFlags(cmd); err != nil {
		return err
	}
	config, err := util.GetHarnessConfig(verifyDefaults())
	if err != nil {
		return err
	}
	verifyCmdConfig = config

	// the config file may set another log level
	return common.InitLoggers(config.LogLevel)
}

func runVerify(cmd *cobra.Command, _ []string) error {
	serializers, err := util.GetSerializers(verifyCmdConfig.Serializers)
	if err != nil {
		return err
	}

	out := cmd.OutOrStdout()
	var failed []error
	for _, s := range serializers {
		result, err := corpus.Verify(s, corpus.DefaultSamples())
		if err == nil {
			err = result.Err()
		}
		if err == nil {
			_, err = bench.Run(cmd.Context(), []bench.Entry{{Label: s.Name(), Serializer: s}}, bench.Config{
				SimpleObjects:  verifyCmdConfig.SimpleObjects,
				ComplexObjects: verifyCmdConfig.ComplexObjects,
				Groups:         verifyCmdConfig.Groups,
				Items:          verifyCmdConfig.Items,
				Seed:           verifyCmdConfig.Seed,
			})
		}

		if err != nil {
			fmt.Fprintf(out, "%-20sFAIL\t%v\n", s.Name(), err)
			failed = append(failed, fmt.Errorf("%s: %w", s.Name(), err))
			continue
		}
		fmt.Fprintf(out, "%-20sOK\n", s.Name())
	}

	if len(failed) > 0 {
		return fmt.Errorf("%d of %d serializers failed: %w", len(failed), len(serializers), errors.Join(failed...))
	}
	return nil
}
