//go:build !ios && !android && (amd64 || arm64)

package ffmedia

import "unsafe"

// handle owns one native pointer and the function that frees it. Owning
// wrappers embed a handle and never copy it.
type handle struct {
	ptr  unsafe.Pointer
	free func(*unsafe.Pointer)
	kind string
}

// newHandle adopts ptr. A nil ptr means the native allocator failed.
func newHandle(ptr unsafe.Pointer, kind string, free func(*unsafe.Pointer)) (handle, error) {
	if ptr == nil {
		return handle{}, allocError(kind)
	}
	return handle{ptr: ptr, free: free, kind: kind}, nil
}

// borrowedHandle wraps a pointer owned elsewhere; close only forgets it.
func borrowedHandle(ptr unsafe.Pointer, kind string) handle {
	return handle{ptr: ptr, kind: kind}
}

func (h *handle) raw() unsafe.Pointer {
	return h.ptr
}

func (h *handle) closed() bool {
	return h.ptr == nil
}

// check returns ErrClosed once the handle has been closed or released.
func (h *handle) check() error {
	if h.ptr == nil {
		return closedError(h.kind)
	}
	return nil
}

// close frees the pointer exactly once.
func (h *handle) close() {
	if h.ptr == nil {
		return
	}
	p := h.ptr
	h.ptr = nil
	if h.free != nil {
		h.free(&p)
	}
}

// release gives up ownership without freeing and returns the pointer.
func (h *handle) release() unsafe.Pointer {
	p := h.ptr
	h.ptr = nil
	return p
}
