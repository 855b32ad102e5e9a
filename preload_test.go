package main

import (
	"bufio"
	"bytes"
	"fmt"
	"io"
	"os"
	"os/exec"
	"path/filepath"
	"regexp"
	"strconv"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/sys/unix"
)

const loadedLine = "[libreuseport] dylib loaded"

// buildLibrary compiles this package as a shared object and a small libc
// client that calls into it. Both need go and a C compiler on PATH.
func buildLibrary(t *testing.T) (lib, helper string) {
	t.Helper()
	if testing.Short() {
		t.Skip("builds the shared library")
	}
	if _, err := exec.LookPath("go"); err != nil {
		t.Skip("go toolchain not available")
	}
	cc, err := exec.LookPath("cc")
	if err != nil {
		if cc, err = exec.LookPath("gcc"); err != nil {
			t.Skip("no C compiler available")
		}
	}

	dir := t.TempDir()
	lib = filepath.Join(dir, "libreuseport.so")
	out, err := exec.Command("go", "build", "-buildmode=c-shared", "-o", lib, ".").CombinedOutput()
	require.NoError(t, err, "go build: %s", out)

	helper = filepath.Join(dir, "bindhelper")
	out, err = exec.Command(cc, "-o", helper, filepath.Join("testdata", "bindhelper.c")).CombinedOutput()
	require.NoError(t, err, "cc: %s", out)
	return lib, helper
}

func preloadEnv(lib string, extra ...string) []string {
	env := []string{"LD_PRELOAD=" + lib}
	for _, kv := range os.Environ() {
		if !strings.HasPrefix(kv, "LD_PRELOAD=") && !strings.HasPrefix(kv, "LIBREUSEPORT_") {
			env = append(env, kv)
		}
	}
	return append(env, extra...)
}

type holder struct {
	cmd    *exec.Cmd
	stdin  io.WriteCloser
	stderr bytes.Buffer
	port   int
	reuse  int
}

var boundRE = regexp.MustCompile(`^bound (\d+) reuseport (\d+)$`)

// startHolder runs the helper in hold mode and waits for its "bound" line.
func startHolder(t *testing.T, helper, lib string, port int) *holder {
	t.Helper()
	h := &holder{cmd: exec.Command(helper, "hold", strconv.Itoa(port))}
	h.cmd.Env = preloadEnv(lib)
	h.cmd.Stderr = &h.stderr
	stdout, err := h.cmd.StdoutPipe()
	require.NoError(t, err)
	h.stdin, err = h.cmd.StdinPipe()
	require.NoError(t, err)
	require.NoError(t, h.cmd.Start())
	t.Cleanup(func() {
		h.stdin.Close()
		_ = h.cmd.Wait()
	})

	line, err := bufio.NewReader(stdout).ReadString('\n')
	require.NoError(t, err, "helper stderr: %s", h.stderr.String())
	m := boundRE.FindStringSubmatch(strings.TrimSpace(line))
	require.NotNil(t, m, "unexpected helper output %q", line)
	h.port, _ = strconv.Atoi(m[1])
	h.reuse, _ = strconv.Atoi(m[2])
	return h
}

func (h *holder) stop(t *testing.T) string {
	t.Helper()
	require.NoError(t, h.stdin.Close())
	require.NoError(t, h.cmd.Wait(), "helper stderr: %s", h.stderr.String())
	return h.stderr.String()
}

func TestPreloadedBindsShareAPort(t *testing.T) {
	lib, helper := buildLibrary(t)

	first := startHolder(t, helper, lib, 0)
	require.NotZero(t, first.port)
	second := startHolder(t, helper, lib, first.port)
	assert.Equal(t, first.port, second.port)

	for i, h := range []*holder{first, second} {
		assert.Equal(t, 1, h.reuse, "child %d: SO_REUSEPORT not set", i+1)
		stderr := h.stop(t)
		assert.Equal(t, 1, strings.Count(stderr, loadedLine), "child %d stderr:\n%s", i+1, stderr)
		assert.Contains(t, stderr, "setsockopt(SO_REUSEPORT) succeeded")
		assert.Contains(t, stderr, "[libreuseport] listen(fd=")
	}
}

func TestPreloadedErrnoIsPreserved(t *testing.T) {
	lib, helper := buildLibrary(t)

	cmd := exec.Command(helper, "errno")
	cmd.Env = preloadEnv(lib)
	var stderr bytes.Buffer
	cmd.Stderr = &stderr
	out, err := cmd.Output()
	require.NoError(t, err, "helper stderr: %s", stderr.String())

	assert.Equal(t,
		fmt.Sprintf("socket -1 %d\npipe 0 %d\n", int(unix.EAFNOSUPPORT), int(unix.EINTR)),
		string(out))
	assert.Equal(t, 1, strings.Count(stderr.String(), loadedLine))
}
