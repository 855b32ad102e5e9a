package main

import (
	"C"
	"unsafe"

	"libreuseport/interpose"
)

// The libc-named entry points live in shim.c. Each passes the caller's errno
// in through the last argument and stores back the value the real function set.

func init() {
	interpose.Announce()
}

func main() {}

//export go_socket
func go_socket(domain, typ, protocol C.int, perr *C.int) C.int {
	return C.int(interpose.GoSocket(int32(domain), int32(typ), int32(protocol), (*int32)(unsafe.Pointer(perr))))
}

//export go_bind
func go_bind(fd C.int, addr unsafe.Pointer, addrlen C.uint, perr *C.int) C.int {
	return C.int(interpose.GoBind(int32(fd), addr, uint32(addrlen), (*int32)(unsafe.Pointer(perr))))
}

//export go_connect
func go_connect(fd C.int, addr unsafe.Pointer, addrlen C.uint, perr *C.int) C.int {
	return C.int(interpose.GoConnect(int32(fd), addr, uint32(addrlen), (*int32)(unsafe.Pointer(perr))))
}

//export go_listen
func go_listen(fd, backlog C.int, perr *C.int) C.int {
	return C.int(interpose.GoListen(int32(fd), int32(backlog), (*int32)(unsafe.Pointer(perr))))
}

//export go_accept
func go_accept(fd C.int, addr unsafe.Pointer, addrlen *C.uint, perr *C.int) C.int {
	return C.int(interpose.GoAccept(int32(fd), addr, (*uint32)(unsafe.Pointer(addrlen)), (*int32)(unsafe.Pointer(perr))))
}

//export go_accept4
func go_accept4(fd C.int, addr unsafe.Pointer, addrlen *C.uint, flags C.int, perr *C.int) C.int {
	return C.int(interpose.GoAccept4(int32(fd), addr, (*uint32)(unsafe.Pointer(addrlen)), int32(flags), (*int32)(unsafe.Pointer(perr))))
}

//export go_socketpair
func go_socketpair(domain, typ, protocol C.int, sv *C.int, perr *C.int) C.int {
	return C.int(interpose.GoSocketpair(int32(domain), int32(typ), int32(protocol), unsafe.Pointer(sv), (*int32)(unsafe.Pointer(perr))))
}

//export go_pipe
func go_pipe(fds *C.int, perr *C.int) C.int {
	return C.int(interpose.GoPipe(unsafe.Pointer(fds), (*int32)(unsafe.Pointer(perr))))
}

//export go_pipe2
func go_pipe2(fds *C.int, flags C.int, perr *C.int) C.int {
	return C.int(interpose.GoPipe2(unsafe.Pointer(fds), int32(flags), (*int32)(unsafe.Pointer(perr))))
}
