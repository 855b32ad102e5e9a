// interposer.go — The Interposer ties the symbol registry, the policy and the
// logger together, and intercept runs the resolve, enter, delegate, leave shape
// every interposed function shares.
package interpose

import (
	"errors"
	"unsafe"

	"golang.org/x/sys/unix"
)

// Interposer forwards intercepted calls to the next libc definition.
type Interposer struct {
	cfg  Config
	syms *Registry
	log  *Logger

	exit     func(code int)
	setReuse func(fd int) error
}

// New returns an Interposer for every name in Symbols.
func New(cfg Config, resolve Resolver, log *Logger) *Interposer {
	return &Interposer{
		cfg:      cfg,
		syms:     NewRegistry(resolve, Symbols...),
		log:      log,
		exit:     libcExit,
		setReuse: setReusePort,
	}
}

// Config returns the policy the Interposer was built with.
func (ip *Interposer) Config() Config {
	return ip.cfg
}

// Registry exposes the resolved-symbol registry.
func (ip *Interposer) Registry() *Registry {
	return ip.syms
}

// resolve returns the handle for name. When it cannot, the failure is logged
// and either the process exits or errno is set to ENOSYS.
func (ip *Interposer) resolve(name string, errno *int32) (unsafe.Pointer, bool) {
	fn, err := ip.syms.Lookup(name)
	if err == nil {
		return fn, true
	}

	var rerr *ResolveError
	if errors.As(err, &rerr) {
		ip.log.Alwaysf("dlsym failed for %s: %s\n", Str(rerr.Name), Str(rerr.Diag))
	} else {
		ip.log.Alwaysf("%s\n", Str(err.Error()))
	}
	if ip.cfg.OnResolveFailure == FailFatal {
		ip.exit(1)
	}
	*errno = int32(unix.ENOSYS)
	return nil, false
}

// intercept runs one interposed call. enter logs the arguments, call delegates
// to the resolved handle and leave, when set, applies policy and logs the result.
func (ip *Interposer) intercept(name string, errno *int32, enter func(), call func(fn unsafe.Pointer) int32, leave func(ret int32)) int32 {
	fn, ok := ip.resolve(name, errno)
	if !ok {
		return -1
	}
	enter()
	ret := call(fn)
	if leave != nil {
		leave(ret)
	}
	return ret
}
