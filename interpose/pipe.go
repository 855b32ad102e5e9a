// pipe.go — Pipe creation. pipe and pipe2 delegate to libc and log the
// descriptor pair the call filled in.
package interpose

import "unsafe"

// Pipe intercepts pipe(2). fds points at the caller's int[2].
func (ip *Interposer) Pipe(fds unsafe.Pointer, errno *int32) int32 {
	return ip.intercept(SymPipe, errno,
		func() { ip.log.Logf("pipe()\n") },
		func(fn unsafe.Pointer) int32 { return callPipe(fn, errno, fds) },
		func(int32) {
			r, w := fdPair(fds)
			ip.log.Logf("pipe() => [%d,%d]\n", Int(r), Int(w))
		})
}

// Pipe2 intercepts pipe2(2).
func (ip *Interposer) Pipe2(fds unsafe.Pointer, flags int32, errno *int32) int32 {
	return ip.intercept(SymPipe2, errno,
		func() { ip.log.Logf("pipe2(flags=0x%x)\n", Int(flags)) },
		func(fn unsafe.Pointer) int32 { return callPipe2(fn, errno, fds, flags) },
		func(int32) {
			r, w := fdPair(fds)
			ip.log.Logf("pipe2(flags=0x%x) => [%d,%d]\n", Int(flags), Int(r), Int(w))
		})
}

// GoPipe intercepts pipe(2) on the process-wide Interposer.
func GoPipe(fds unsafe.Pointer, errno *int32) int32 {
	return Default().Pipe(fds, errno)
}

// GoPipe2 intercepts pipe2(2) on the process-wide Interposer.
func GoPipe2(fds unsafe.Pointer, flags int32, errno *int32) int32 {
	return Default().Pipe2(fds, flags, errno)
}
