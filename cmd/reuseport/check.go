package main

import (
	"context"
	"fmt"
	"net"
	"strconv"
	"syscall"

	"github.com/spf13/cobra"
	"go.uber.org/zap"
	"golang.org/x/sys/unix"
)

// NewCmdCheck returns the check command, logging through logger.
func NewCmdCheck(logger *zap.Logger) *Check {
	return &Check{logger: logger}
}

// Check verifies that two listeners can share an address once SO_REUSEPORT is
// set, and that a listener without it is still turned away.
type Check struct {
	logger *zap.Logger
	host   string
	port   int
}

// GetCmd builds the cobra command for check.
func (c *Check) GetCmd() *cobra.Command {
	checkCmd := &cobra.Command{
		Use:   "check",
		Short: "Check that the kernel allows port sharing with SO_REUSEPORT",
		RunE: func(cmd *cobra.Command, args []string) error {
			res, err := checkReusePort(cmd.Context(), c.host, c.port)
			if err != nil {
				return err
			}
			c.logger.Info("SO_REUSEPORT port sharing works",
				zap.String("address", res.Address),
				zap.Bool("plainListenRejected", res.PlainRejected))
			return nil
		},
	}
	checkCmd.Flags().StringVar(&c.host, "host", "127.0.0.1", "Address to bind")
	checkCmd.Flags().IntVar(&c.port, "port", 0, "Port to bind, 0 picks a free one")
	return checkCmd
}

type checkResult struct {
	Address       string
	PlainRejected bool
}

func reusePortListenConfig() net.ListenConfig {
	return net.ListenConfig{
		Control: func(network, address string, rc syscall.RawConn) error {
			var opErr error
			err := rc.Control(func(fd uintptr) {
				opErr = unix.SetsockoptInt(int(fd), unix.SOL_SOCKET, unix.SO_REUSEPORT, 1)
			})
			if err != nil {
				return err
			}
			return opErr
		},
	}
}

func checkReusePort(ctx context.Context, host string, port int) (checkResult, error) {
	if ctx == nil {
		ctx = context.Background()
	}
	lc := reusePortListenConfig()

	first, err := lc.Listen(ctx, "tcp", net.JoinHostPort(host, strconv.Itoa(port)))
	if err != nil {
		return checkResult{}, fmt.Errorf("first listener: %w", err)
	}
	defer first.Close()
	addr := first.Addr().String()

	second, err := lc.Listen(ctx, "tcp", addr)
	if err != nil {
		return checkResult{}, fmt.Errorf("second listener on %s: %w", addr, err)
	}
	defer second.Close()

	res := checkResult{Address: addr}
	plain, err := net.Listen("tcp", addr)
	if err == nil {
		plain.Close()
	} else {
		res.PlainRejected = true
	}
	return res, nil
}
