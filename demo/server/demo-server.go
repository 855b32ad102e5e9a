package main

import (
	"context"
	"flag"
	"fmt"
	"net"
	"sync"
	"time"
)

// Run under the library, e.g. reuseport run -- ./demo-server. Without it the
// second TCP listener fails with "address already in use". Sockets are opened
// through libc (see libc_listen.go) so the preloaded symbols are the ones used.

func tcpServer(ctx context.Context, wg *sync.WaitGroup, id int, addr string) {
	defer wg.Done()
	ln, err := listenTCP(addr)
	if err != nil {
		fmt.Printf("TCP server %d error: %v\n", id, err)
		return
	}
	defer ln.Close()
	fmt.Printf("TCP server %d listening on %s\n", id, addr)

	go func() {
		<-ctx.Done()
		ln.Close()
	}()
	for {
		conn, err := ln.Accept()
		if err != nil {
			return
		}
		go handleTCP(conn, id)
	}
}

func handleTCP(conn net.Conn, id int) {
	defer conn.Close()
	fmt.Fprintf(conn, "HTTP/1.1 200 OK\r\n\r\nHello from TCP server %d", id)
}

// udpServer stays exclusive: the library leaves datagram sockets alone by default.
func udpServer(ctx context.Context, wg *sync.WaitGroup, id int, addr string) {
	defer wg.Done()
	conn, err := listenUDP(addr)
	if err != nil {
		fmt.Printf("UDP server %d error: %v\n", id, err)
		return
	}
	defer conn.Close()
	fmt.Printf("UDP server %d listening on %s\n", id, addr)
	<-ctx.Done()
}

func main() {
	tcpAddr := flag.String("tcp", "127.0.0.1:9080", "TCP address both listeners bind")
	udpAddr := flag.String("udp", "127.0.0.1:9081", "UDP address both sockets bind")
	wait := flag.Duration("wait", time.Second, "How long to keep the listeners open")
	flag.Parse()

	ctx, cancel := context.WithTimeout(context.Background(), *wait)
	defer cancel()

	var wg sync.WaitGroup
	for id := 1; id <= 2; id++ {
		wg.Add(2)
		go tcpServer(ctx, &wg, id, *tcpAddr)
		go udpServer(ctx, &wg, id, *udpAddr)
	}

	wg.Wait()
	fmt.Println("Cleanup complete.")
}
