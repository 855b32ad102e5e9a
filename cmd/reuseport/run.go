package main

import (
	"errors"
	"fmt"
	"os"
	"os/exec"
	"os/signal"
	"path/filepath"
	"syscall"

	"github.com/spf13/cobra"
	"go.uber.org/zap"
)

const defaultLib = "./libreuseport.so"

// NewCmdRun returns the run command bound to root's logger and exit code.
func NewCmdRun(root *Root) *Run {
	return &Run{
		root:   root,
		logger: root.logger,
	}
}

// Run starts a command with the interposition library preloaded.
type Run struct {
	root   *Root
	logger *zap.Logger
	lib    string
	policy policyOptions
}

// GetCmd builds the cobra command for run.
func (r *Run) GetCmd() *cobra.Command {
	runCmd := &cobra.Command{
		Use:   "run [flags] -- command [args...]",
		Short: "Run a command with libreuseport preloaded",
		Example: `  reuseport run -- ./server --port 8080
  reuseport run --types stream,dgram --quiet -- python3 -m http.server 9000`,
		Args: cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			overrides, err := r.policy.env(cmd.Flags().Changed)
			if err != nil {
				return err
			}
			code, err := r.run(args, overrides)
			r.root.exitCode = code
			return err
		},
	}
	runCmd.Flags().StringVar(&r.lib, "lib", defaultLib, "Path to the libreuseport shared object")
	r.policy.bindFlags(runCmd.Flags())
	return runCmd
}

func (r *Run) run(args, overrides []string) (int, error) {
	lib, err := filepath.Abs(r.lib)
	if err != nil {
		return 1, fmt.Errorf("failed to resolve %s: %w", r.lib, err)
	}
	if _, err := os.Stat(lib); err != nil {
		return 1, fmt.Errorf("shared object not usable: %w", err)
	}

	cmd := exec.Command(args[0], args[1:]...)
	cmd.Env = preloadEnv(os.Environ(), lib, overrides)
	cmd.Stdin = os.Stdin
	cmd.Stdout = os.Stdout
	cmd.Stderr = os.Stderr
	setPgid(cmd)

	r.logger.Debug("starting command", zap.Strings("args", args), zap.String("lib", lib), zap.Strings("policy", overrides))

	sigs := make(chan os.Signal, 1)
	signal.Notify(sigs, syscall.SIGINT, syscall.SIGTERM)
	defer signal.Stop(sigs)

	if err := cmd.Start(); err != nil {
		return 127, fmt.Errorf("failed to start %s: %w", args[0], err)
	}

	done := make(chan error, 1)
	go func() { done <- cmd.Wait() }()

	for {
		select {
		case sig := <-sigs:
			r.logger.Debug("forwarding signal", zap.Stringer("signal", sig), zap.Int("pid", cmd.Process.Pid))
			if err := signalGroup(cmd.Process, sig); err != nil {
				r.logger.Warn("failed to forward signal", zap.Stringer("signal", sig), zap.Error(err))
			}
		case err := <-done:
			code := exitStatus(err)
			var exitErr *exec.ExitError
			if err != nil && !errors.As(err, &exitErr) {
				return code, fmt.Errorf("failed to wait for %s: %w", args[0], err)
			}
			r.logger.Debug("command exited", zap.Int("status", code))
			return code, nil
		}
	}
}
