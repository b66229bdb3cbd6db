//go:build !linux && !darwin && !windows

package platform

import (
	"errors"
	"io"
)

var errUnsupported = errors.New("platform: compiler code memory not supported on this GOOS")

func compilerSupported() bool { return false }

func mmapCodeSegment(code io.Reader, size int) ([]byte, error) {
	return nil, errUnsupported
}

func munmapCodeSegment(code []byte) error { return errUnsupported }

func mprotectRW(code []byte) error { return errUnsupported }

func mprotectRX(code []byte) error { return errUnsupported }

// mmapMemory falls back to a plain heap allocation: linear memory does not
// strictly require executable permissions, only a stable address, so an
// unsupported-for-JIT platform can still run the engine via a host-provided
// interpreter-equivalent backend (out of scope per spec.md, but the memory
// subsystem itself stays usable).
func mmapMemory(size int) ([]byte, error) {
	return make([]byte, size), nil
}

func invalidateICache([]byte) error { return nil }
