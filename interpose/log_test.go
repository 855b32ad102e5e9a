package interpose

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLineFormat(t *testing.T) {
	tests := []struct {
		name   string
		format string
		args   []Arg
		want   string
	}{
		{
			name:   "socket call",
			format: "socket(domain=%d, type=0x%x, protocol=%d) => %d\n",
			args:   []Arg{Int(2), Int(0x80801), Int(0), Int(5)},
			want:   "[libreuseport] socket(domain=2, type=0x80801, protocol=0) => 5\n",
		},
		{
			name:   "negative descriptor",
			format: "accept(fd=%d) => %d\n",
			args:   []Arg{Int(3), Int(-1)},
			want:   "[libreuseport] accept(fd=3) => -1\n",
		},
		{
			name:   "hex of negative value uses 32 bits",
			format: "flags=0x%x\n",
			args:   []Arg{Int(int32(-1))},
			want:   "[libreuseport] flags=0xffffffff\n",
		},
		{
			name:   "string and percent",
			format: "%s at 100%%\n",
			args:   []Arg{Str("dylib loaded")},
			want:   "[libreuseport] dylib loaded at 100%\n",
		},
		{
			name:   "missing argument",
			format: "bind(fd=%d)\n",
			want:   "[libreuseport] bind(fd=%!d(MISSING))\n",
		},
		{
			name:   "unknown verb kept",
			format: "%q\n",
			args:   []Arg{Int(1)},
			want:   "[libreuseport] %q\n",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var b line
			b.format(tt.format, tt.args)
			assert.Equal(t, tt.want, string(b.bytes()))
		})
	}
}

func TestLineTruncates(t *testing.T) {
	var b line
	b.format("%s\n", []Arg{Str(strings.Repeat("x", 2*lineMax))})

	out := b.bytes()
	require.Len(t, out, lineMax)
	assert.True(t, strings.HasPrefix(string(out), logPrefix))
	assert.Equal(t, byte('\n'), out[len(out)-1])
}

func TestLoggerWrites(t *testing.T) {
	log, read := captureLog(t, false)
	log.Logf("pipe() => [%d,%d]\n", Int(3), Int(4))
	log.Alwaysf("dlsym failed for %s: %s\n", Str("pipe"), Str("nope"))

	assert.Equal(t,
		"[libreuseport] pipe() => [3,4]\n[libreuseport] dlsym failed for pipe: nope\n",
		read())
}

func TestLoggerQuiet(t *testing.T) {
	log, read := captureLog(t, true)
	log.Logf("listen(fd=%d, backlog=%d)\n", Int(3), Int(128))
	log.Alwaysf("config error: %s\n", Str("bad"))

	assert.Equal(t, "[libreuseport] config error: bad\n", read())
}
