//go:build windows

package platform

import (
	"fmt"
	"io"

	"golang.org/x/sys/windows"
)

func compilerSupported() bool {
	return true
}

func mmapCodeSegment(code io.Reader, size int) ([]byte, error) {
	addr, err := windows.VirtualAlloc(0, uintptr(size), windows.MEM_COMMIT|windows.MEM_RESERVE, windows.PAGE_READWRITE)
	if err != nil {
		return nil, fmt.Errorf("VirtualAlloc: %w", err)
	}
	mmapped := unsafeSlice(addr, size)
	if _, err := io.ReadFull(code, mmapped); err != nil {
		_ = windows.VirtualFree(addr, 0, windows.MEM_RELEASE)
		return nil, fmt.Errorf("read code into mapping: %w", err)
	}
	var old uint32
	if err := windows.VirtualProtect(addr, uintptr(size), windows.PAGE_EXECUTE_READ, &old); err != nil {
		_ = windows.VirtualFree(addr, 0, windows.MEM_RELEASE)
		return nil, fmt.Errorf("VirtualProtect RX: %w", err)
	}
	return mmapped, nil
}

func munmapCodeSegment(code []byte) error {
	return windows.VirtualFree(sliceAddr(code), 0, windows.MEM_RELEASE)
}

func mprotectRW(code []byte) error {
	var old uint32
	return windows.VirtualProtect(sliceAddr(code), uintptr(len(code)), windows.PAGE_READWRITE, &old)
}

func mprotectRX(code []byte) error {
	var old uint32
	return windows.VirtualProtect(sliceAddr(code), uintptr(len(code)), windows.PAGE_EXECUTE_READ, &old)
}

func mmapMemory(size int) ([]byte, error) {
	addr, err := windows.VirtualAlloc(0, uintptr(size), windows.MEM_COMMIT|windows.MEM_RESERVE, windows.PAGE_READWRITE)
	if err != nil {
		return nil, fmt.Errorf("VirtualAlloc: %w", err)
	}
	return unsafeSlice(addr, size), nil
}

// invalidateICache is a no-op on every GOARCH: it performs no
// FlushInstructionCache call.
func invalidateICache([]byte) error { return nil }
