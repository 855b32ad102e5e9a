// libc.go — Call trampolines for the resolved libc functions. Each trampoline
// takes the handle produced by the registry, loads the caller's errno before the
// call and reports the errno the real function left behind, so errno travels
// through the Go side of the layer untouched.
package interpose

/*
#include <errno.h>
#include <stdlib.h>
#include <sys/socket.h>

typedef struct {
    int ret;
    int err;
} libc_result;

static libc_result call_socket(void *fn, int err, int domain, int type, int protocol) {
    libc_result r;
    errno = err;
    r.ret = ((int (*)(int, int, int))fn)(domain, type, protocol);
    r.err = errno;
    return r;
}

static libc_result call_addr(void *fn, int err, int fd, void *addr, socklen_t len) {
    libc_result r;
    errno = err;
    r.ret = ((int (*)(int, void *, socklen_t))fn)(fd, addr, len);
    r.err = errno;
    return r;
}

static libc_result call_listen(void *fn, int err, int fd, int backlog) {
    libc_result r;
    errno = err;
    r.ret = ((int (*)(int, int))fn)(fd, backlog);
    r.err = errno;
    return r;
}

static libc_result call_accept(void *fn, int err, int fd, void *addr, socklen_t *len) {
    libc_result r;
    errno = err;
    r.ret = ((int (*)(int, void *, socklen_t *))fn)(fd, addr, len);
    r.err = errno;
    return r;
}

static libc_result call_accept4(void *fn, int err, int fd, void *addr, socklen_t *len, int flags) {
    libc_result r;
    errno = err;
    r.ret = ((int (*)(int, void *, socklen_t *, int))fn)(fd, addr, len, flags);
    r.err = errno;
    return r;
}

static libc_result call_socketpair(void *fn, int err, int domain, int type, int protocol, void *sv) {
    libc_result r;
    errno = err;
    r.ret = ((int (*)(int, int, int, int *))fn)(domain, type, protocol, (int *)sv);
    r.err = errno;
    return r;
}

static libc_result call_pipe(void *fn, int err, void *fds) {
    libc_result r;
    errno = err;
    r.ret = ((int (*)(int *))fn)((int *)fds);
    r.err = errno;
    return r;
}

static libc_result call_pipe2(void *fn, int err, void *fds, int flags) {
    libc_result r;
    errno = err;
    r.ret = ((int (*)(int *, int))fn)((int *)fds, flags);
    r.err = errno;
    return r;
}

static void libc_exit(int code) {
    exit(code);
}
*/
import "C"
import "unsafe"

func unpack(r C.libc_result, errno *int32) int32 {
	*errno = int32(r.err)
	return int32(r.ret)
}

func callSocket(fn unsafe.Pointer, errno *int32, domain, typ, protocol int32) int32 {
	return unpack(C.call_socket(fn, C.int(*errno), C.int(domain), C.int(typ), C.int(protocol)), errno)
}

// callAddr covers bind and connect, which share a signature.
func callAddr(fn unsafe.Pointer, errno *int32, fd int32, addr unsafe.Pointer, addrlen uint32) int32 {
	return unpack(C.call_addr(fn, C.int(*errno), C.int(fd), addr, C.socklen_t(addrlen)), errno)
}

func callListen(fn unsafe.Pointer, errno *int32, fd, backlog int32) int32 {
	return unpack(C.call_listen(fn, C.int(*errno), C.int(fd), C.int(backlog)), errno)
}

func callAccept(fn unsafe.Pointer, errno *int32, fd int32, addr unsafe.Pointer, addrlen *uint32) int32 {
	return unpack(C.call_accept(fn, C.int(*errno), C.int(fd), addr, (*C.socklen_t)(unsafe.Pointer(addrlen))), errno)
}

func callAccept4(fn unsafe.Pointer, errno *int32, fd int32, addr unsafe.Pointer, addrlen *uint32, flags int32) int32 {
	return unpack(C.call_accept4(fn, C.int(*errno), C.int(fd), addr, (*C.socklen_t)(unsafe.Pointer(addrlen)), C.int(flags)), errno)
}

func callSocketpair(fn unsafe.Pointer, errno *int32, domain, typ, protocol int32, sv unsafe.Pointer) int32 {
	return unpack(C.call_socketpair(fn, C.int(*errno), C.int(domain), C.int(typ), C.int(protocol), sv), errno)
}

func callPipe(fn unsafe.Pointer, errno *int32, fds unsafe.Pointer) int32 {
	return unpack(C.call_pipe(fn, C.int(*errno), fds), errno)
}

func callPipe2(fn unsafe.Pointer, errno *int32, fds unsafe.Pointer, flags int32) int32 {
	return unpack(C.call_pipe2(fn, C.int(*errno), fds, C.int(flags)), errno)
}

// libcExit terminates through libc so atexit handlers of the host run.
func libcExit(code int) {
	C.libc_exit(C.int(code))
}
