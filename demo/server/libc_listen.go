package main

/*
#include <arpa/inet.h>
#include <errno.h>
#include <netinet/in.h>
#include <stdlib.h>
#include <string.h>
#include <sys/socket.h>
#include <unistd.h>

// libc_bind opens a socket through libc, binds it to host:port and, for
// stream sockets, starts listening. Returns the descriptor or -errno.
static int libc_bind(const char *host, int port, int type) {
    struct sockaddr_in sa;
    memset(&sa, 0, sizeof(sa));
    sa.sin_family = AF_INET;
    sa.sin_port = htons((unsigned short)port);
    if (inet_pton(AF_INET, host, &sa.sin_addr) != 1) {
        return -EINVAL;
    }

    int fd = socket(AF_INET, type, 0);
    if (fd < 0) {
        return -errno;
    }
    if (bind(fd, (struct sockaddr *)&sa, sizeof(sa)) != 0 ||
        (type == SOCK_STREAM && listen(fd, 16) != 0)) {
        int err = errno;
        close(fd);
        return -err;
    }
    return fd;
}
*/
import "C"

import (
	"fmt"
	"net"
	"os"
	"strconv"
	"syscall"
	"unsafe"
)

// Go's net package issues socket(2) and bind(2) as raw syscalls, which an
// LD_PRELOAD library never sees. The demo opens its sockets through libc
// instead and hands the descriptors to net afterwards.

func libcBind(network, addr string, typ C.int) (*os.File, error) {
	host, portStr, err := net.SplitHostPort(addr)
	if err != nil {
		return nil, err
	}
	port, err := strconv.Atoi(portStr)
	if err != nil {
		return nil, fmt.Errorf("bad port %q: %w", portStr, err)
	}

	chost := C.CString(host)
	defer C.free(unsafe.Pointer(chost))
	fd := C.libc_bind(chost, C.int(port), typ)
	if fd < 0 {
		return nil, &net.OpError{Op: "listen", Net: network, Err: os.NewSyscallError("bind", syscall.Errno(-fd))}
	}
	return os.NewFile(uintptr(fd), network+":"+addr), nil
}

func listenTCP(addr string) (net.Listener, error) {
	f, err := libcBind("tcp", addr, C.SOCK_STREAM)
	if err != nil {
		return nil, err
	}
	defer f.Close()
	return net.FileListener(f)
}

func listenUDP(addr string) (net.PacketConn, error) {
	f, err := libcBind("udp", addr, C.SOCK_DGRAM)
	if err != nil {
		return nil, err
	}
	defer f.Close()
	return net.FilePacketConn(f)
}
