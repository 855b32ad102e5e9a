package interpose

/*
#cgo LDFLAGS: -ldl
#define _GNU_SOURCE
#include <dlfcn.h>
#include <stdlib.h>

static void *next_symbol(const char *name, const char **diag) {
    dlerror();
    void *fn = dlsym(RTLD_NEXT, name);
    if (fn == NULL) {
        *diag = dlerror();
    }
    return fn;
}
*/
import "C"
import "unsafe"

// NextSymbol resolves name with dlsym(RTLD_NEXT), skipping this library so the
// interposed symbols never resolve to themselves.
func NextSymbol(name string) (unsafe.Pointer, error) {
	cname := C.CString(name)
	defer C.free(unsafe.Pointer(cname))

	var diag *C.char
	fn := C.next_symbol(cname, &diag)
	if fn == nil {
		msg := "symbol not found"
		if diag != nil {
			msg = C.GoString(diag)
		}
		return nil, &ResolveError{Name: name, Diag: msg}
	}
	return fn, nil
}
