package corpus

import (
	"errors"
	"fmt"
	"github.com/ValentinKolb/serbench/cmd/util"
	"github.com/ValentinKolb/serbench/lib/common"
	libCorpus "github.com/ValentinKolb/serbench/lib/corpus"
	"github.com/ValentinKolb/serbench/lib/serializer"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"
)

const defaultCorpusDir = "corpus"

var (
	serializers []*serializer.Serializer
	corpusDir   string

	// CorpusCommands represents the corpus command group
	CorpusCommands = &cobra.Command{
		Use:   "corpus",
		Short: "Record and check golden payloads",
		Long: `Store the encoded samples of every selected serializer in a pebble database and check later builds against them.
A payload recorded by one build must decode to the same sample in every later build.`,
	}

	// saveCmd represents the save command
	saveCmd = &cobra.Command{
		Use:     "save",
		Short:   "Encode the samples and store the payloads",
		PreRunE: processConfig,
		RunE:    runSave,
	}

	// checkCmd represents the check command
	checkCmd = &cobra.Command{
		Use:     "check",
		Short:   "Decode all stored payloads and compare them with the samples",
		PreRunE: processConfig,
		RunE:    runCheck,
	}
)

func init() {
	// Add subcommands to corpus command
	CorpusCommands.AddCommand(saveCmd)
	CorpusCommands.AddCommand(checkCmd)

	key := "corpus-dir"
	CorpusCommands.PersistentFlags().String(key, defaultCorpusDir, util.WrapString("Directory of the corpus database"))

	key = "serializers"
	CorpusCommands.PersistentFlags().String(key, "", util.WrapString("Comma-separated list of serializers to use. Empty means all"))

	key = "replace"
	saveCmd.Flags().Bool(key, false, util.WrapString("Remove the stored payloads of the selected serializers before saving"))
}

func processConfig(cmd *cobra.Command, _ []string) error {
	if err := util.BindCommandFlags(cmd); err != nil {
		return err
	}

	base := common.DefaultHarnessConfig()
	base.CorpusDir = defaultCorpusDir
	config, err := util.GetHarnessConfig(base)
	if err != nil {
		return err
	}

	serializers, err = util.GetSerializers(config.Serializers)
	if err != nil {
		return err
	}
	corpusDir = config.CorpusDir

	// the config file may set another log level
	return common.InitLoggers(config.LogLevel)
}

func runSave(cmd *cobra.Command, _ []string) error {
	c, err := libCorpus.Open(corpusDir)
	if err != nil {
		return err
	}
	defer c.Close()

	for _, s := range serializers {
		if viper.GetBool("replace") {
			if err := c.Clear(s.Name()); err != nil {
				return err
			}
		}
		payloads, err := c.Record(s, libCorpus.DefaultSamples())
		if err != nil {
			return fmt.Errorf("%s: %w", s.Name(), err)
		}
		for _, p := range payloads {
			fmt.Fprintf(cmd.OutOrStdout(), "%-48s%8d bytes\n", p.Key(), len(p.Data))
		}
	}
	return nil
}

func runCheck(cmd *cobra.Command, _ []string) error {
	c, err := libCorpus.Open(corpusDir)
	if err != nil {
		return err
	}
	defer c.Close()

	out := cmd.OutOrStdout()
	var failed []error
	for _, s := range serializers {
		result, err := c.Check(s, libCorpus.DefaultSamples())
		if err != nil {
			return fmt.Errorf("%s: %w", s.Name(), err)
		}

		switch {
		case result.Checked == 0:
			fmt.Fprintf(out, "%-20sno payloads\n", s.Name())
		case result.OK():
			fmt.Fprintf(out, "%-20sOK (%d payloads)\n", s.Name(), result.Checked)
		default:
			fmt.Fprintf(out, "%-20sFAIL (%d of %d payloads)\n", s.Name(), len(result.Failures), result.Checked)
			for _, f := range result.Failures {
				fmt.Fprintf(out, "  %v\n", f)
			}
			failed = append(failed, result.Err())
		}
	}

	if len(failed) > 0 {
		return errors.Join(failed...)
	}
	return nil
}
