// Package platform isolates the OS-specific primitives the engine needs:
// executable code memory (spec.md §4.E), reserved linear memory regions
// (spec.md §3 LinearMemory), and process-wide signal handler installation
// (spec.md §4.J). Every other package only sees the OS-independent surface
// declared here.
package platform

import (
	"fmt"
	"io"
)

// CompilerSupported reports whether this build's GOOS has a code-memory
// allocator: true on linux, darwin and windows, false elsewhere. It does not
// look at GOARCH. Builds for other operating systems must be built with a
// host collaborator providing one -- spec.md scopes concrete backends other than "sys" out,
// but the capability query itself is part of the Compiler trait contract
// (§9: "Features each backend supports are reported via a capabilities()
// method").
var CompilerSupported = compilerSupported

// MmapCodeSegment allocates size bytes of fresh, zeroed memory, copies
// size bytes read from code into it, and returns it mapped executable
// (RX). Panics if size is zero: this is a programmer error, never a
// runtime condition (mirrors the teacher's own contract).
func MmapCodeSegment(code io.Reader, size int) ([]byte, error) {
	if size == 0 {
		panic("BUG: MmapCodeSegment with zero length")
	}
	return mmapCodeSegment(code, size)
}

// MunmapCodeSegment releases a code segment previously returned by
// MmapCodeSegment. Panics if code is empty, for the same reason as above.
func MunmapCodeSegment(code []byte) error {
	if len(code) == 0 {
		panic("BUG: MunmapCodeSegment with zero length")
	}
	return munmapCodeSegment(code)
}

// MprotectRW flips a previously-RX code region back to RW so the linker can
// patch relocations in place (spec.md §4.E invariant 1: never RW and RX on
// the same page at once).
func MprotectRW(code []byte) error { return mprotectRW(code) }

// MprotectRX flips an RW-mapped code region to RX, publishing it for
// execution. Must be called exactly once per region, after every relocation
// has been applied.
func MprotectRX(code []byte) error { return mprotectRX(code) }

// MmapMemory reserves size bytes of zeroed memory for use as a WebAssembly
// linear memory's backing buffer, returned with its full capacity visible
// as length zero is not meaningful here -- callers re-slice to the desired
// initial length. Used only for MemoryStyleStatic instances (spec.md §3),
// where a stable base pointer across memory.grow matters; MemoryStyleDynamic
// uses plain Go-heap slices instead.
func MmapMemory(size int) ([]byte, error) {
	if size <= 0 {
		return nil, fmt.Errorf("invalid memory reservation size %d", size)
	}
	return mmapMemory(size)
}

// InvalidateInstructionCache is the hook for flushing the CPU instruction
// cache over the given range after code has been patched and published
// (spec.md §4.E invariant 2). Every implementation in this package is a
// no-op on every GOARCH: no flush is performed.
func InvalidateInstructionCache(code []byte) error { return invalidateICache(code) }
