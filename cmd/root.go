package cmd

import (
	"context"
	"fmt"
	"github.com/ValentinKolb/serbench/cmd/corpus"
	"github.com/ValentinKolb/serbench/cmd/run"
	"github.com/ValentinKolb/serbench/cmd/util"
	"github.com/ValentinKolb/serbench/cmd/verify"
	"github.com/ValentinKolb/serbench/lib/common"
	"github.com/ValentinKolb/serbench/lib/serializer"
	"github.com/lni/dragonboat/v4/logger"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"
	"os"
	"os/signal"
	"strings"
	"syscall"
)

const (
	Version = "1.0.0"
)

var (
	Logger = logger.GetLogger("cmd")

	// RootCmd represents the base command when called without any subcommands
	RootCmd = &cobra.Command{
		Use:   "serbench",
		Short: "serialization benchmark",
		Long: fmt.Sprintf(`serbench (v%s)

A benchmark and conformance harness for serialization formats written in Go.
Every format round trips the same data model, including a closed set of
polymorphic variants and absent collections.`, Version),
		SilenceUsage:      true,
		PersistentPreRunE: initLogging,
	}
	versionCmd = &cobra.Command{
		Use:   "version",
		Short: "Print the version number of serbench",
		Run: func(cmd *cobra.Command, args []string) {
			fmt.Fprintf(cmd.OutOrStdout(), "serbench v%s\n", Version)
		},
	}

	// listCmd prints the registered serializers and their capabilities
	listCmd = &cobra.Command{
		Use:   "list",
		Short: "List the available serializers",
		Run: func(cmd *cobra.Command, args []string) {
			features := []serializer.Feature{
				serializer.FeatureAbsentCollections,
				serializer.FeatureNativeUnion,
				serializer.FeatureDiscriminator,
				serializer.FeatureHumanReadable,
			}
			for _, s := range serializer.All() {
				var supported []string
				for _, f := range features {
					if s.Behavior().SupportsFeature(f) {
						supported = append(supported, f.String())
					}
				}
				fmt.Fprintf(cmd.OutOrStdout(), "%-20s%s\n", s.Name(), strings.Join(supported, ", "))
			}
		},
	}
)

func init() {
	// initialize viper
	cobra.OnInitialize(util.InitConfig)

	// Add Commands
	RootCmd.AddCommand(run.RunCmd)
	RootCmd.AddCommand(verify.VerifyCmd)
	RootCmd.AddCommand(corpus.CorpusCommands)
	RootCmd.AddCommand(listCmd)
	RootCmd.AddCommand(versionCmd)

	// Add Flags
	key := "config"
	RootCmd.PersistentFlags().String(key, "", util.WrapString("Optional HCL config file, flags and environment variables take precedence"))
	key = "log-level"
	RootCmd.PersistentFlags().String(key, common.DefaultLogLevel, util.WrapString("LogLevel is the level at which logs will be output (debug, info, warn, error)"))
}

// initLogging installs the serbench loggers before any subcommand runs
func initLogging(cmd *cobra.Command, _ []string) error {
	if err := util.BindCommandFlags(cmd); err != nil {
		return err
	}
	if err := common.InitLoggers(viper.GetString("log-level")); err != nil {
		return err
	}
	Logger.Debugf("running %s", cmd.CommandPath())
	return nil
}

// Execute adds all child commands to the root command and sets flags appropriately.
// This is called by main.main(). It only needs to happen once to the RootCmd.
// An interrupt cancels the running command at the next phase boundary.
func Execute() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := RootCmd.ExecuteContext(ctx); err != nil {
		stop()
		os.Exit(1)
	}
}
