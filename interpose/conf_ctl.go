// conf_ctl.go — Socket option policy. After socket(2) hands back a descriptor,
// applyReusePort turns on SO_REUSEPORT when the configured policy matches the
// requested domain and type. The option is set with a raw syscall so the policy
// never runs back through the interposed symbols; a failure is logged and the
// descriptor is returned anyway.
package interpose

import "golang.org/x/sys/unix"

func setReusePort(fd int) error {
	return unix.SetsockoptInt(fd, unix.SOL_SOCKET, unix.SO_REUSEPORT, 1)
}

func (ip *Interposer) applyReusePort(fd, domain, typ int32) {
	if fd < 0 || !ip.cfg.Matches(domain, typ) {
		return
	}
	if err := ip.setReuse(int(fd)); err != nil {
		ip.log.Logf("setsockopt(SO_REUSEPORT) failed on fd=%d: %s\n", Int(fd), Str(err.Error()))
		return
	}
	ip.log.Logf("setsockopt(SO_REUSEPORT) succeeded on fd=%d\n", Int(fd))
}
