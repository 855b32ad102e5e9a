package main

import (
	"fmt"
	"log"
	"os"

	"github.com/spf13/cobra"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

// Root owns the logger shared by every subcommand and the exit status the
// process ends with.
type Root struct {
	logger   *zap.Logger
	exitCode int
}

var debugMode bool

func setupLogger() *zap.Logger {
	logCfg := zap.NewDevelopmentConfig()
	logCfg.EncoderConfig.EncodeTime = zapcore.ISO8601TimeEncoder
	logCfg.EncoderConfig.EncodeLevel = zapcore.CapitalColorLevelEncoder
	if debugMode {
		logCfg.Level = zap.NewAtomicLevelAt(zap.DebugLevel)
		logCfg.DisableStacktrace = false
	} else {
		logCfg.Level = zap.NewAtomicLevelAt(zap.InfoLevel)
		logCfg.DisableStacktrace = true
		logCfg.EncoderConfig.EncodeCaller = nil
	}

	logger, err := logCfg.Build()
	if err != nil {
		log.Panic("failed to start the logger for the CLI: ", err)
	}
	return logger
}

func checkForDebugFlag(args []string) bool {
	for _, arg := range args {
		if arg == "--" {
			return false
		}
		if arg == "--debug" {
			return true
		}
	}
	return false
}

func (r *Root) command() *cobra.Command {
	rootCmd := &cobra.Command{
		Use:           "reuseport",
		Short:         "Run programs with SO_REUSEPORT injected into their stream sockets",
		SilenceUsage:  true,
		SilenceErrors: true,
	}
	rootCmd.PersistentFlags().BoolVar(&debugMode, "debug", false, "Run in debug mode")

	rootCmd.AddCommand(
		NewCmdRun(r).GetCmd(),
		NewCmdCheck(r.logger).GetCmd(),
		newCmdVersion(),
	)
	return rootCmd
}

// Execute runs the CLI and returns the process exit status.
func Execute() int {
	// The logger is needed before cobra parses flags.
	debugMode = checkForDebugFlag(os.Args[1:])
	r := &Root{logger: setupLogger()}
	defer func() { _ = r.logger.Sync() }()

	if err := r.command().Execute(); err != nil {
		r.logger.Error("reuseport failed", zap.Error(err))
		if r.exitCode == 0 {
			r.exitCode = 1
		}
	}
	return r.exitCode
}

func newCmdVersion() *cobra.Command {
	return &cobra.Command{
		Use:   "version",
		Short: "Print the reuseport version",
		Run: func(cmd *cobra.Command, args []string) {
			fmt.Fprintln(cmd.OutOrStdout(), version)
		},
	}
}
