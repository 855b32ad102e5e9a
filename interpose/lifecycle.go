// lifecycle.go — Process-wide state. Default builds the Interposer used by the
// exported entry points the first time any of them runs, reading the
// configuration exactly once. Announce writes the load notice.
package interpose

import (
	"os"
	"sync"

	"golang.org/x/sys/unix"
)

var (
	std          *Interposer
	stdOnce      sync.Once
	announceOnce sync.Once
)

// Default returns the process-wide Interposer. A configuration error is
// reported on stderr and the built-in policy is used instead.
func Default() *Interposer {
	stdOnce.Do(func() {
		cfg, err := LoadConfig(os.Getenv)
		logger := NewLogger(unix.Stderr, cfg.Quiet)
		if err != nil {
			logger.Alwaysf("config error: %s\n", Str(err.Error()))
		}
		std = New(cfg, NextSymbol, logger)
	})
	return std
}

// Announce logs that the library is active in this process. Only the first
// call writes anything.
func Announce() {
	announceOnce.Do(func() {
		Default().log.Logf("dylib loaded\n")
	})
}
