package util

import (
	"fmt"
	"github.com/ValentinKolb/serbench/lib/common"
	"github.com/ValentinKolb/serbench/lib/serializer"
	"github.com/joho/godotenv"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"
	"strings"
)

const (
	// Wrap is the width of the flag help text
	Wrap int = 50

	// EnvPrefix is the prefix of all environment variables, e.g. SERBENCH_SIMPLE_OBJECTS
	EnvPrefix = "serbench"
)

// WrapString joins the words of text into lines of at most Wrap characters.
// A single word longer than Wrap gets a line of its own.
func WrapString(text string) string {
	var lines []string
	line := ""
	for _, word := range strings.Fields(text) {
		switch {
		case line == "":
			line = word
		case len(line)+1+len(word) > Wrap:
			lines = append(lines, line)
			line = word
		default:
			line += " " + word
		}
	}
	if line != "" {
		lines = append(lines, line)
	}
	return strings.Join(lines, "\n")
}

// InitConfig initializes configuration from env files and environment variables
func InitConfig() {
	// missing env files are not an error
	_ = godotenv.Load(".env")
	_ = godotenv.Load(".env.local")

	viper.SetEnvPrefix(EnvPrefix)
	viper.SetEnvKeyReplacer(strings.NewReplacer("-", "_"))
	viper.AutomaticEnv() // read in environment variables that match
}

// SetupWorkloadFlags adds the workload flags shared by all commands that run
// serializers. The defaults shown in the help text are taken from base.
func SetupWorkloadFlags(cmd *cobra.Command, base common.HarnessConfig) {
	key := "serializers"
	cmd.Flags().String(key, "", WrapString(fmt.Sprintf("Comma-separated list of serializers to use (%s). Empty means all", strings.Join(serializer.Names(), ", "))))

	key = "simple-objects"
	cmd.Flags().Int(key, base.SimpleObjects, WrapString("Number of flat records in the simple batch"))

	key = "complex-objects"
	cmd.Flags().Int(key, base.ComplexObjects, WrapString("Number of containers in the complex batch"))

	key = "groups"
	cmd.Flags().Int(key, base.Groups, WrapString("Number of groups in every generated container"))

	key = "items"
	cmd.Flags().Int(key, base.Items, WrapString("Number of variants in every generated group"))

	key = "seed"
	cmd.Flags().Int64(key, base.Seed, WrapString("Seed of the workload generator"))
}

// GetHarnessConfig builds the harness configuration. Values are taken from
// base, then the HCL file given by --config, then flags and SERBENCH_ variables.
// Flag defaults don't override base.
func GetHarnessConfig(base common.HarnessConfig) (common.HarnessConfig, error) {
	config := base
	if path := viper.GetString("config"); path != "" {
		fromFile, err := common.ApplyConfigFile(path, base)
		if err != nil {
			return common.HarnessConfig{}, err
		}
		config = fromFile
	}

	if viper.IsSet("serializers") {
		config.Serializers = splitList(viper.GetString("serializers"))
	}
	setInt := func(key string, target *int) {
		if viper.IsSet(key) {
			*target = viper.GetInt(key)
		}
	}
	setString := func(key string, target *string) {
		if viper.IsSet(key) {
			*target = viper.GetString(key)
		}
	}
	setInt("simple-objects", &config.SimpleObjects)
	setInt("complex-objects", &config.ComplexObjects)
	setInt("groups", &config.Groups)
	setInt("items", &config.Items)
	setInt("rounds", &config.Rounds)
	if viper.IsSet("seed") {
		config.Seed = viper.GetInt64("seed")
	}
	if viper.IsSet("parallel") {
		config.Parallel = viper.GetBool("parallel")
	}
	setString("csv", &config.CSVFile)
	setString("metrics-file", &config.MetricsFile)
	setString("corpus-dir", &config.CorpusDir)
	setString("log-level", &config.LogLevel)

	if err := config.Validate(); err != nil {
		return common.HarnessConfig{}, err
	}
	return config, nil
}

// GetSerializers creates the facades for the given behavior names, all
// registered behaviors if names is empty
func GetSerializers(names []string) ([]*serializer.Serializer, error) {
	if len(names) == 0 {
		return serializer.All(), nil
	}

	serializers := make([]*serializer.Serializer, 0, len(names))
	for _, name := range names {
		b, err := serializer.Lookup(name)
		if err != nil {
			return nil, err
		}
		serializers = append(serializers, serializer.New(b))
	}
	return serializers, nil
}

// BindCommandFlags binds a command's flags to viper
func BindCommandFlags(cmd *cobra.Command) error {
	return viper.BindPFlags(cmd.Flags())
}

func splitList(s string) []string {
	var out []string
	for _, part := range strings.Split(s, ",") {
		if part = strings.TrimSpace(part); part != "" {
			out = append(out, part)
		}
	}
	return out
}
