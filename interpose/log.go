// log.go — Diagnostic logging for the interposition layer. Provides the Logger
// which formats one line per interposed call into a fixed 512-byte buffer and
// hands it to the kernel with a single write(2). The formatter only knows %d, %x
// and %s so that the hot path never goes through fmt or the heap.

package interpose

import (
	"strconv"

	"golang.org/x/sys/unix"
)

const (
	logPrefix = "[libreuseport] "
	lineMax   = 512
)

// Arg is a single value for Logger.Logf.
type Arg struct {
	i int64
	s string
}

// Int wraps an integer argument for %d or %x.
func Int[T ~int | ~int32 | ~int64 | ~uint32](v T) Arg {
	return Arg{i: int64(v)}
}

// Str wraps a string argument for %s.
func Str(s string) Arg {
	return Arg{s: s}
}

// Logger writes prefixed diagnostic lines to a file descriptor.
type Logger struct {
	fd    int
	quiet bool
}

// NewLogger returns a Logger writing to fd. A quiet Logger drops everything
// except lines written with Alwaysf.
func NewLogger(fd int, quiet bool) *Logger {
	return &Logger{fd: fd, quiet: quiet}
}

// Logf logs one line unless the logger is quiet.
func (l *Logger) Logf(format string, args ...Arg) {
	if l.quiet {
		return
	}
	l.write(format, args)
}

// Alwaysf logs one line regardless of the quiet setting.
func (l *Logger) Alwaysf(format string, args ...Arg) {
	l.write(format, args)
}

func (l *Logger) write(format string, args []Arg) {
	var b line
	b.format(format, args)
	_, _ = unix.Write(l.fd, b.bytes())
}

type line struct {
	buf [lineMax]byte
	n   int
}

func (b *line) str(s string) {
	b.n += copy(b.buf[b.n:], s)
}

func (b *line) char(c byte) {
	if b.n < len(b.buf) {
		b.buf[b.n] = c
		b.n++
	}
}

func (b *line) dec(v int64) {
	var tmp [24]byte
	b.n += copy(b.buf[b.n:], strconv.AppendInt(tmp[:0], v, 10))
}

// hex prints the low 32 bits, the way C prints an int with %x.
func (b *line) hex(v int64) {
	var tmp [24]byte
	b.n += copy(b.buf[b.n:], strconv.AppendUint(tmp[:0], uint64(uint32(v)), 16))
}

func (b *line) format(format string, args []Arg) {
	b.str(logPrefix)
	next := 0
	for i := 0; i < len(format); i++ {
		c := format[i]
		if c != '%' || i+1 == len(format) {
			b.char(c)
			continue
		}
		i++
		verb := format[i]
		if verb == '%' {
			b.char('%')
			continue
		}
		if next >= len(args) {
			b.str("%!")
			b.char(verb)
			b.str("(MISSING)")
			continue
		}
		a := args[next]
		next++
		switch verb {
		case 'd':
			b.dec(a.i)
		case 'x':
			b.hex(a.i)
		case 's':
			b.str(a.s)
		default:
			b.char('%')
			b.char(verb)
		}
	}
}

// bytes returns the formatted line. A truncated line still ends in a newline.
func (b *line) bytes() []byte {
	if b.n == len(b.buf) {
		b.buf[b.n-1] = '\n'
	}
	return b.buf[:b.n]
}
