// reuseport launches a command with libreuseport preloaded and checks whether
// the kernel lets independent sockets share a port.
package main

import "os"

// version is injected at build time with -ldflags "-X main.version=...".
var version string

func main() {
	if version == "" {
		version = "dev"
	}
	os.Exit(Execute())
}
