// registry.go — Resolved-symbol registry. Holds one one-time cell per intercepted
// libc symbol and resolves each of them lazily through a Resolver on first use.
// A cell is resolved exactly once per process, concurrent first callers included,
// and the handle (or the failure) it produced is kept for the lifetime of the
// process.
package interpose

import (
	"errors"
	"fmt"
	"sync"
	"sync/atomic"
	"unsafe"
)

// Names of the intercepted libc symbols.
const (
	SymSocket     = "socket"
	SymBind       = "bind"
	SymConnect    = "connect"
	SymListen     = "listen"
	SymAccept     = "accept"
	SymAccept4    = "accept4"
	SymSocketpair = "socketpair"
	SymPipe       = "pipe"
	SymPipe2      = "pipe2"
)

// Symbols lists every symbol the layer interposes.
var Symbols = []string{
	SymSocket,
	SymBind,
	SymConnect,
	SymListen,
	SymAccept,
	SymAccept4,
	SymSocketpair,
	SymPipe,
	SymPipe2,
}

// ErrUnknownSymbol is returned by Lookup for names the registry was not built with.
var ErrUnknownSymbol = errors.New("symbol not registered")

// ResolveError reports that the next definition of a symbol could not be found.
type ResolveError struct {
	Name string
	Diag string
}

func (e *ResolveError) Error() string {
	return fmt.Sprintf("dlsym failed for %s: %s", e.Name, e.Diag)
}

// Resolver finds the definition of name that follows this library in the
// dynamic symbol lookup order.
type Resolver func(name string) (unsafe.Pointer, error)

type cell struct {
	once sync.Once
	fn   unsafe.Pointer
	err  error
}

// Registry maps symbol names to their lazily resolved handles.
type Registry struct {
	resolve  Resolver
	cells    map[string]*cell
	resolved atomic.Int32
}

// NewRegistry builds a registry with one cell per name. The set of names is
// fixed for the life of the registry.
func NewRegistry(resolve Resolver, names ...string) *Registry {
	r := &Registry{
		resolve: resolve,
		cells:   make(map[string]*cell, len(names)),
	}
	for _, name := range names {
		r.cells[name] = &cell{}
	}
	return r
}

// Lookup returns the handle for name, resolving it on the first call.
func (r *Registry) Lookup(name string) (unsafe.Pointer, error) {
	c, ok := r.cells[name]
	if !ok {
		return nil, fmt.Errorf("%w: %s", ErrUnknownSymbol, name)
	}
	c.once.Do(func() {
		r.resolved.Add(1)
		c.fn, c.err = r.resolve(name)
		if c.err == nil && c.fn == nil {
			c.err = &ResolveError{Name: name, Diag: "resolver returned a nil handle"}
		}
	})
	return c.fn, c.err
}

// Resolutions reports how many cells have run their resolver so far.
func (r *Registry) Resolutions() int {
	return int(r.resolved.Load())
}
