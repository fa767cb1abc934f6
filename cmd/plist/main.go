// plist - OpenStep property list CLI tool
//
// Usage:
//
//	plist fmt [-w] [-l] [files...]        Reformat documents canonically
//	plist check [files...]                Report syntax errors with positions
//	plist to-json [--extended] [file]     Convert a document to JSON
//	plist from-json [--extended] [file]   Convert JSON to a document
//	plist to-yaml [file]                  Convert a document to YAML
//	plist from-yaml [file]                Convert YAML to a document
//	plist hash [files...]                 Print BLAKE3 fingerprints
//	plist version                         Print version info
//
// If no file is given, reads from stdin. Compressed (.zst, .gz) inputs are
// detected by content.
package main

import (
	"fmt"
	"os"

	"github.com/fatih/color"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"
	"go.uber.org/zap"
)

const version = "0.1.0"

func main() {
	if err := newRootCmd().Execute(); err != nil {
		fmt.Fprintln(os.Stderr, "plist: "+err.Error())
		os.Exit(1)
	}
}

// app carries state shared by the subcommands of one invocation.
type app struct {
	v      *viper.Viper
	cfg    Config
	logger *zap.Logger
}

func newRootCmd() *cobra.Command {
	a := &app{v: viper.New(), cfg: defaultConfig(), logger: zap.NewNop()}

	root := &cobra.Command{
		Use:           "plist",
		Short:         "Format, check and convert OpenStep property lists",
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, _ []string) error {
			return a.setup(cmd)
		},
		PersistentPostRun: func(*cobra.Command, []string) {
			_ = a.logger.Sync()
		},
	}
	registerFlags(root.PersistentFlags())

	root.AddCommand(
		a.fmtCmd(),
		a.checkCmd(),
		a.toJSONCmd(),
		a.fromJSONCmd(),
		a.toYAMLCmd(),
		a.fromYAMLCmd(),
		a.hashCmd(),
		versionCmd(),
	)
	return root
}

func (a *app) setup(cmd *cobra.Command) error {
	cfg, err := loadConfig(a.v, cmd.Flags())
	if err != nil {
		return err
	}
	a.cfg = cfg

	logger, err := newLogger(cfg.Verbose)
	if err != nil {
		return fmt.Errorf("init logger: %w", err)
	}
	a.logger = logger

	switch cfg.Color {
	case colorAlways:
		color.NoColor = false
	case colorNever:
		color.NoColor = true
	}
	return nil
}

// newLogger builds a development logger on stderr: debug level when
// verbose, warnings otherwise.
func newLogger(verbose bool) (*zap.Logger, error) {
	logConf := zap.NewDevelopmentConfig()
	logConf.Level = zap.NewAtomicLevelAt(zap.WarnLevel)
	if verbose {
		logConf.Level = zap.NewAtomicLevelAt(zap.DebugLevel)
	}
	logConf.DisableStacktrace = true
	return logConf.Build()
}
