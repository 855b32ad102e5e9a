// conn_basic.go — Connection lifecycle calls. bind, connect and listen log their
// arguments and pass straight through; accept and accept4 also log the accepted
// descriptor. Addresses and lengths are forwarded as the caller's raw pointers.
package interpose

import "unsafe"

// Bind intercepts bind(2).
func (ip *Interposer) Bind(fd int32, addr unsafe.Pointer, addrlen uint32, errno *int32) int32 {
	return ip.intercept(SymBind, errno,
		func() { ip.log.Logf("bind(fd=%d)\n", Int(fd)) },
		func(fn unsafe.Pointer) int32 { return callAddr(fn, errno, fd, addr, addrlen) },
		nil)
}

// Connect intercepts connect(2).
func (ip *Interposer) Connect(fd int32, addr unsafe.Pointer, addrlen uint32, errno *int32) int32 {
	return ip.intercept(SymConnect, errno,
		func() { ip.log.Logf("connect(fd=%d)\n", Int(fd)) },
		func(fn unsafe.Pointer) int32 { return callAddr(fn, errno, fd, addr, addrlen) },
		nil)
}

// Listen intercepts listen(2).
func (ip *Interposer) Listen(fd, backlog int32, errno *int32) int32 {
	return ip.intercept(SymListen, errno,
		func() { ip.log.Logf("listen(fd=%d, backlog=%d)\n", Int(fd), Int(backlog)) },
		func(fn unsafe.Pointer) int32 { return callListen(fn, errno, fd, backlog) },
		nil)
}

// Accept intercepts accept(2).
func (ip *Interposer) Accept(fd int32, addr unsafe.Pointer, addrlen *uint32, errno *int32) int32 {
	return ip.intercept(SymAccept, errno,
		func() { ip.log.Logf("accept(fd=%d)\n", Int(fd)) },
		func(fn unsafe.Pointer) int32 { return callAccept(fn, errno, fd, addr, addrlen) },
		func(client int32) { ip.log.Logf("accept(fd=%d) => %d\n", Int(fd), Int(client)) })
}

// Accept4 intercepts accept4(2).
func (ip *Interposer) Accept4(fd int32, addr unsafe.Pointer, addrlen *uint32, flags int32, errno *int32) int32 {
	return ip.intercept(SymAccept4, errno,
		func() { ip.log.Logf("accept4(fd=%d, flags=0x%x)\n", Int(fd), Int(flags)) },
		func(fn unsafe.Pointer) int32 { return callAccept4(fn, errno, fd, addr, addrlen, flags) },
		func(client int32) {
			ip.log.Logf("accept4(fd=%d, flags=0x%x) => %d\n", Int(fd), Int(flags), Int(client))
		})
}

// GoBind assigns a local address to a socket.
func GoBind(fd int32, addr unsafe.Pointer, addrlen uint32, errno *int32) int32 {
	return Default().Bind(fd, addr, addrlen, errno)
}

// GoConnect initiates a connection on a socket.
func GoConnect(fd int32, addr unsafe.Pointer, addrlen uint32, errno *int32) int32 {
	return Default().Connect(fd, addr, addrlen, errno)
}

// GoListen marks a socket as passive.
func GoListen(fd, backlog int32, errno *int32) int32 {
	return Default().Listen(fd, backlog, errno)
}

// GoAccept accepts a connection on a listening socket.
func GoAccept(fd int32, addr unsafe.Pointer, addrlen *uint32, errno *int32) int32 {
	return Default().Accept(fd, addr, addrlen, errno)
}

// GoAccept4 accepts a connection and applies flags to the new descriptor.
func GoAccept4(fd int32, addr unsafe.Pointer, addrlen *uint32, flags int32, errno *int32) int32 {
	return Default().Accept4(fd, addr, addrlen, flags, errno)
}
