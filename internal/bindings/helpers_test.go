//go:build !ios && !android && (amd64 || arm64)

package bindings

import "unsafe"

func unsafePointerOf(b []byte) unsafe.Pointer {
	return unsafe.Pointer(&b[0])
}
