package interpose

import (
	"encoding/binary"
	"io"
	"os"
	"testing"
	"time"
	"unsafe"

	"github.com/stretchr/testify/require"
	"golang.org/x/sys/unix"
)

// captureLog returns a Logger writing into a pipe and a func that closes the
// write end and returns everything logged so far.
func captureLog(t *testing.T, quiet bool) (*Logger, func() string) {
	t.Helper()
	r, w, err := os.Pipe()
	require.NoError(t, err)
	t.Cleanup(func() {
		r.Close()
		w.Close()
	})

	read := func() string {
		w.Close()
		out, err := io.ReadAll(r)
		require.NoError(t, err)
		return string(out)
	}
	return NewLogger(int(w.Fd()), quiet), read
}

func newTestInterposer(t *testing.T, cfg Config) (*Interposer, func() string) {
	t.Helper()
	log, read := captureLog(t, cfg.Quiet)
	return New(cfg, NextSymbol, log), read
}

const (
	defaultWait = 2 * time.Second
	pollEvery   = 10 * time.Millisecond
)

type exitCode int

// failingResolver never finds anything.
func failingResolver(name string) (unsafe.Pointer, error) {
	return nil, &ResolveError{Name: name, Diag: "undefined symbol: " + name}
}

func closeFd(t *testing.T, fd int32) {
	t.Helper()
	if fd >= 0 {
		t.Cleanup(func() { unix.Close(int(fd)) })
	}
}

func loopback4(port int) unix.RawSockaddrInet4 {
	sa := unix.RawSockaddrInet4{
		Family: unix.AF_INET,
		Addr:   [4]byte{127, 0, 0, 1},
	}
	binary.BigEndian.PutUint16((*[2]byte)(unsafe.Pointer(&sa.Port))[:], uint16(port))
	return sa
}

func boundPort(t *testing.T, fd int32) int {
	t.Helper()
	sa, err := unix.Getsockname(int(fd))
	require.NoError(t, err)
	in4, ok := sa.(*unix.SockaddrInet4)
	require.True(t, ok, "unexpected sockaddr %T", sa)
	return in4.Port
}

func reusePort(t *testing.T, fd int32) int {
	t.Helper()
	v, err := unix.GetsockoptInt(int(fd), unix.SOL_SOCKET, unix.SO_REUSEPORT)
	require.NoError(t, err)
	return v
}
