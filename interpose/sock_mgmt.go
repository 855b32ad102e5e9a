// sock_mgmt.go — Socket creation. Implements socket (delegates, then applies the
// SO_REUSEPORT policy to the new descriptor) and socketpair (delegates and logs
// the descriptor pair).
package interpose

import "unsafe"

// Socket intercepts socket(2).
func (ip *Interposer) Socket(domain, typ, protocol int32, errno *int32) int32 {
	return ip.intercept(SymSocket, errno,
		func() {
			ip.log.Logf("socket(domain=%d, type=0x%x, protocol=%d)\n", Int(domain), Int(typ), Int(protocol))
		},
		func(fn unsafe.Pointer) int32 {
			return callSocket(fn, errno, domain, typ, protocol)
		},
		func(fd int32) {
			ip.applyReusePort(fd, domain, typ)
			ip.log.Logf("socket(domain=%d, type=0x%x, protocol=%d) => %d\n", Int(domain), Int(typ), Int(protocol), Int(fd))
		})
}

// Socketpair intercepts socketpair(2). sv points at the caller's int[2].
func (ip *Interposer) Socketpair(domain, typ, protocol int32, sv unsafe.Pointer, errno *int32) int32 {
	return ip.intercept(SymSocketpair, errno,
		func() {
			ip.log.Logf("socketpair(domain=%d, type=0x%x, protocol=%d)\n", Int(domain), Int(typ), Int(protocol))
		},
		func(fn unsafe.Pointer) int32 {
			return callSocketpair(fn, errno, domain, typ, protocol, sv)
		},
		func(int32) {
			a, b := fdPair(sv)
			ip.log.Logf("socketpair(domain=%d, type=0x%x, protocol=%d) => [%d,%d]\n",
				Int(domain), Int(typ), Int(protocol), Int(a), Int(b))
		})
}

// fdPair reads the int[2] filled in by socketpair, pipe and pipe2.
func fdPair(p unsafe.Pointer) (int32, int32) {
	if p == nil {
		return -1, -1
	}
	fds := (*[2]int32)(p)
	return fds[0], fds[1]
}

// GoSocket creates an endpoint for communication.
func GoSocket(domain, typ, protocol int32, errno *int32) int32 {
	return Default().Socket(domain, typ, protocol, errno)
}

// GoSocketpair creates a pair of connected sockets.
func GoSocketpair(domain, typ, protocol int32, sv unsafe.Pointer, errno *int32) int32 {
	return Default().Socketpair(domain, typ, protocol, sv, errno)
}
